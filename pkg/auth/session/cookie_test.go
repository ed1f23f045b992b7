package session

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/angelmondragon/agridiary/pkg/config"
)

func TestCookiesRoundTrip(t *testing.T) {
	cookies := NewCookies(config.SessionConfig{TTL: time.Hour})
	rec := httptest.NewRecorder()
	cookies.Write(rec, "token-value")

	resp := rec.Result()
	if len(resp.Cookies()) != 1 {
		t.Fatalf("expected one cookie, got %d", len(resp.Cookies()))
	}
	written := resp.Cookies()[0]
	if written.Name != "AGRIDIARY_SESSION" || !written.HttpOnly || written.MaxAge != 3600 {
		t.Fatalf("unexpected cookie %+v", written)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(written)
	token, ok := cookies.Read(req)
	if !ok || token != "token-value" {
		t.Fatalf("expected token to be read back, got %q ok=%v", token, ok)
	}
}

func TestCookiesClear(t *testing.T) {
	cookies := NewCookies(config.SessionConfig{CookieName: "SID", TTL: time.Hour})
	rec := httptest.NewRecorder()
	cookies.Clear(rec)

	written := rec.Result().Cookies()[0]
	if written.Name != "SID" || written.MaxAge >= 0 {
		t.Fatalf("expected expired SID cookie, got %+v", written)
	}

	if _, ok := cookies.Read(httptest.NewRequest(http.MethodGet, "/", nil)); ok {
		t.Fatal("expected no session on bare request")
	}
}
