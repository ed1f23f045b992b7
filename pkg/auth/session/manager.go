package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/angelmondragon/agridiary/pkg/config"
	redisclient "github.com/angelmondragon/agridiary/pkg/redis"
	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"
)

type sessionStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
}

type sessionKeyer interface {
	AccessSessionKey(accessID string) string
}

// Manager records which browser sessions are live so logout can revoke a
// session token before it expires.
type Manager struct {
	store sessionStore
	keyer sessionKeyer
	ttl   time.Duration
}

// Checker exposes the read-only surface needed by middleware.
type Checker interface {
	HasSession(ctx context.Context, sessionID string, userID uint64) (bool, error)
}

// NewManager constructs a session manager backed by Redis.
func NewManager(client *redisclient.Client, cfg config.SessionConfig) (*Manager, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if cfg.TTL <= 0 {
		return nil, fmt.Errorf("session ttl must be positive")
	}
	return &Manager{
		store: client,
		keyer: client,
		ttl:   cfg.TTL,
	}, nil
}

// Generate opens a session for userID and returns its id.
func (m *Manager) Generate(ctx context.Context, userID uint64) (string, error) {
	if userID == 0 {
		return "", fmt.Errorf("user id is required")
	}
	sessionID := NewSessionID()
	if err := m.store.Set(ctx, m.keyer.AccessSessionKey(sessionID), strconv.FormatUint(userID, 10), m.ttl); err != nil {
		return "", err
	}
	return sessionID, nil
}

// HasSession reports whether sessionID is live and was opened for userID.
func (m *Manager) HasSession(ctx context.Context, sessionID string, userID uint64) (bool, error) {
	if strings.TrimSpace(sessionID) == "" {
		return false, nil
	}
	stored, err := m.store.Get(ctx, m.keyer.AccessSessionKey(sessionID))
	if err != nil {
		if errors.Is(err, redislib.Nil) {
			return false, nil
		}
		return false, err
	}
	return stored == strconv.FormatUint(userID, 10), nil
}

// Revoke deletes the session.
func (m *Manager) Revoke(ctx context.Context, sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return fmt.Errorf("session id is required")
	}
	return m.store.Del(ctx, m.keyer.AccessSessionKey(sessionID))
}

// NewSessionID produces the identifier used as the token jti and Redis key.
func NewSessionID() string {
	return uuid.NewString()
}
