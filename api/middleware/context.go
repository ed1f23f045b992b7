package middleware

import (
	"context"

	"github.com/angelmondragon/agridiary/api/requestctx"
	"github.com/angelmondragon/agridiary/internal/records"
	"github.com/angelmondragon/agridiary/pkg/db/models"
)

// UserFromContext returns the user resolved by SessionGate, if any.
func UserFromContext(ctx context.Context) *models.User {
	return requestctx.User(ctx)
}

// CallerFromContext identifies the signed-in user for service calls.
func CallerFromContext(ctx context.Context) records.Caller {
	return requestctx.Caller(ctx)
}

// WithUser attaches user to ctx the way SessionGate does.
func WithUser(ctx context.Context, user *models.User) context.Context {
	return requestctx.Update(ctx, func(v *requestctx.Values) { v.User = user })
}
