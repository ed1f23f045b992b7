package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/angelmondragon/agridiary/api/responses"
	pkgerrors "github.com/angelmondragon/agridiary/pkg/errors"
	"github.com/angelmondragon/agridiary/pkg/logger"
)

const MsgTooManyAttempts = "ログインの試行回数が多すぎます。しばらくしてから再度お試しください"

type rateLimiterStore interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// AuthRateLimitPolicy defines the throttling parameters for a traffic surface.
type AuthRateLimitPolicy struct {
	name          string
	window        time.Duration
	ipLimit       int
	usernameLimit int
}

func NewAuthRateLimitPolicy(name string, window time.Duration, ipLimit, usernameLimit int) AuthRateLimitPolicy {
	return AuthRateLimitPolicy{
		name:          strings.ToLower(strings.TrimSpace(name)),
		window:        window,
		ipLimit:       ipLimit,
		usernameLimit: usernameLimit,
	}
}

func (p AuthRateLimitPolicy) enabled() bool {
	return p.window > 0 && (p.ipLimit > 0 || p.usernameLimit > 0)
}

func (p AuthRateLimitPolicy) normalizedName() string {
	if p.name == "" {
		return "auth"
	}
	return p.name
}

func (p AuthRateLimitPolicy) ipScope(ip string) string {
	return fmt.Sprintf("ip:%s:%s", p.normalizedName(), ip)
}

func (p AuthRateLimitPolicy) usernameScope(hash string) string {
	return fmt.Sprintf("user:%s:%s", p.normalizedName(), hash)
}

// AuthRateLimit counts POSTs per client IP and per submitted username in
// fixed redis windows and rejects requests over either limit. Other methods
// pass untouched.
func AuthRateLimit(policy AuthRateLimitPolicy, store rateLimiterStore, rs *responses.Responder, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !policy.enabled() || store == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				next.ServeHTTP(w, r)
				return
			}
			ctx := r.Context()

			if ip := clientIP(r); policy.ipLimit > 0 && ip != "" {
				allowed, count, err := store.FixedWindowAllow(ctx, policy.ipScope(ip), int64(policy.ipLimit), policy.window)
				if err != nil {
					rs.Error(w, r, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting"))
					return
				}
				if !allowed {
					rateLimited(w, r, rs, logg, policy, "ip", count, policy.ipLimit)
					return
				}
			}

			if policy.usernameLimit > 0 {
				// ParseForm caches the body in r.PostForm for the handler.
				if err := r.ParseForm(); err == nil {
					if username := strings.TrimSpace(r.PostForm.Get("username")); username != "" {
						allowed, count, err := store.FixedWindowAllow(ctx, policy.usernameScope(hashValue(username)), int64(policy.usernameLimit), policy.window)
						if err != nil {
							rs.Error(w, r, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting"))
							return
						}
						if !allowed {
							rateLimited(w, r, rs, logg, policy, "username", count, policy.usernameLimit)
							return
						}
					}
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

func rateLimited(w http.ResponseWriter, r *http.Request, rs *responses.Responder, logg *logger.Logger, policy AuthRateLimitPolicy, scope string, count int64, limit int) {
	if logg != nil {
		logCtx := logg.WithFields(r.Context(), map[string]any{
			"scope":          scope,
			"policy":         policy.normalizedName(),
			"attempts":       count,
			"limit":          limit,
			"window_seconds": int(policy.window.Seconds()),
		})
		logg.Warn(logCtx, "auth.rate_limit.blocked")
	}
	rs.Error(w, r, pkgerrors.New(pkgerrors.CodeRateLimit, MsgTooManyAttempts))
}

func hashValue(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}
