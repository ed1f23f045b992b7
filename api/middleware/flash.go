package middleware

import (
	"net/http"

	"github.com/angelmondragon/agridiary/api/requestctx"
	"github.com/angelmondragon/agridiary/api/responses"
)

// Flash consumes the pending flash message so it is shown exactly once.
func Flash(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		flash := responses.ReadFlash(r)
		if _, err := r.Cookie(responses.FlashCookie); err == nil {
			responses.ClearFlash(w)
		}
		if flash == nil {
			next.ServeHTTP(w, r)
			return
		}
		ctx := requestctx.Update(r.Context(), func(v *requestctx.Values) { v.Flash = flash })
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
