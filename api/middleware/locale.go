package middleware

import (
	"net/http"

	"github.com/angelmondragon/agridiary/api/requestctx"
	"github.com/angelmondragon/agridiary/pkg/i18n"
)

// LocaleCookie stores the language picked through /lang/{code}.
const LocaleCookie = "AGRIDIARY_LANG"

// Locale picks the UI language from the locale cookie, then Accept-Language.
func Locale(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		preferred := ""
		if c, err := r.Cookie(LocaleCookie); err == nil {
			preferred = c.Value
		}
		locale := i18n.Negotiate(preferred, r.Header.Get("Accept-Language"))
		ctx := requestctx.Update(r.Context(), func(v *requestctx.Values) { v.Locale = locale })
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
