package middleware

import (
	"context"
	"net/http"
	"strconv"

	"github.com/angelmondragon/agridiary/api/requestctx"
	"github.com/angelmondragon/agridiary/api/responses"
	"github.com/angelmondragon/agridiary/pkg/auth/session"
	"github.com/angelmondragon/agridiary/pkg/db/models"
	pkgerrors "github.com/angelmondragon/agridiary/pkg/errors"
	"github.com/angelmondragon/agridiary/pkg/logger"
)

const (
	MsgLoginRequired = "ログインが必要です"
	MsgAdminRequired = "管理者権限が必要です"
)

// SessionResolver maps a session cookie value to its user.
type SessionResolver interface {
	Resolve(ctx context.Context, token string) (*models.User, error)
}

// SessionGate admits only requests carrying a live session and attaches the
// user to the request context. Missing, invalid and revoked sessions are sent
// to the login page; a storage outage renders the error page.
func SessionGate(resolver SessionResolver, cookies session.Cookies, rs *responses.Responder, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := cookies.Read(r)
			if !ok {
				rs.Redirect(w, r, responses.LoginPath, requestctx.Failure(MsgLoginRequired))
				return
			}

			user, err := resolver.Resolve(r.Context(), token)
			if err != nil {
				if pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
					cookies.Clear(w)
				}
				rs.Error(w, r, err)
				return
			}

			ctx := WithUser(r.Context(), user)
			if logg != nil {
				ctx = logg.WithUserID(ctx, strconv.FormatUint(user.ID, 10))
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RedirectAuthenticated sends visitors that already hold a live session to
// target. Anything else, including resolution failures, falls through.
func RedirectAuthenticated(resolver SessionResolver, cookies session.Cookies, target string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token, ok := cookies.Read(r); ok {
				if user, err := resolver.Resolve(r.Context(), token); err == nil && user != nil {
					http.Redirect(w, r, target, http.StatusSeeOther)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
