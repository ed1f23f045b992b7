package session

import (
	"net/http"
	"time"

	"github.com/angelmondragon/agridiary/pkg/config"
)

// Cookies reads and writes the session cookie.
type Cookies struct {
	Name   string
	Secure bool
	TTL    time.Duration
}

func NewCookies(cfg config.SessionConfig) Cookies {
	name := cfg.CookieName
	if name == "" {
		name = "AGRIDIARY_SESSION"
	}
	return Cookies{Name: name, Secure: cfg.CookieSecure, TTL: cfg.TTL}
}

// Read returns the raw session token, if any.
func (c Cookies) Read(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(c.Name)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	return cookie.Value, true
}

func (c Cookies) Write(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.Name,
		Value:    token,
		Path:     "/",
		MaxAge:   int(c.TTL.Seconds()),
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Clear expires the session cookie in the browser.
func (c Cookies) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
