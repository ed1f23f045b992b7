package middleware

import (
	"net/http"

	"github.com/angelmondragon/agridiary/api/requestctx"
)

// Site exposes the analytics and legal settings to every page.
func Site(site requestctx.Site) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := requestctx.Update(r.Context(), func(v *requestctx.Values) { v.Site = site })
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
