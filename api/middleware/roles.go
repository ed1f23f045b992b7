package middleware

import (
	"net/http"

	"github.com/angelmondragon/agridiary/api/responses"
	pkgerrors "github.com/angelmondragon/agridiary/pkg/errors"
)

// RequireAdmin must run after SessionGate.
func RequireAdmin(rs *responses.Responder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := UserFromContext(r.Context())
			if user == nil {
				rs.Error(w, r, pkgerrors.New(pkgerrors.CodeUnauthorized, MsgLoginRequired))
				return
			}
			if !user.IsAdmin {
				rs.Error(w, r, pkgerrors.New(pkgerrors.CodeForbidden, MsgAdminRequired))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
