package auth

import (
	"fmt"
	"strconv"

	"github.com/golang-jwt/jwt/v5"
)

// SessionPayload captures the data available when minting a session token.
type SessionPayload struct {
	UserID uint64
	// SessionID is stored server side so the session can be revoked before expiry.
	SessionID string
}

// SessionClaims is the signed content of the session cookie. The subject is
// the decimal user id.
type SessionClaims struct {
	jwt.RegisteredClaims
}

// UserID parses the subject as a positive user id.
func (c *SessionClaims) UserID() (uint64, error) {
	if c == nil {
		return 0, fmt.Errorf("missing claims")
	}
	id, err := strconv.ParseUint(c.Subject, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid subject %q: %w", c.Subject, err)
	}
	if id == 0 {
		return 0, fmt.Errorf("invalid subject %q", c.Subject)
	}
	return id, nil
}
