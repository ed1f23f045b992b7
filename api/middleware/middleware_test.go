package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/angelmondragon/agridiary/api/requestctx"
	"github.com/angelmondragon/agridiary/api/responses"
	"github.com/angelmondragon/agridiary/api/views"
	"github.com/angelmondragon/agridiary/pkg/auth/session"
	"github.com/angelmondragon/agridiary/pkg/config"
	"github.com/angelmondragon/agridiary/pkg/db/models"
	pkgerrors "github.com/angelmondragon/agridiary/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newResponder(t *testing.T) *responses.Responder {
	t.Helper()
	tmpl, err := views.New()
	require.NoError(t, err)
	return responses.New(tmpl, nil)
}

var testCookies = session.NewCookies(config.SessionConfig{CookieName: "AGRIDIARY_SESSION", TTL: time.Hour})

type stubResolver struct {
	user *models.User
	err  error
}

func (s stubResolver) Resolve(_ context.Context, token string) (*models.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.user, nil
}

func okHandler(seen **models.User) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if seen != nil {
			*seen = UserFromContext(r.Context())
		}
		w.WriteHeader(http.StatusOK)
	})
}

func withSessionCookie(req *http.Request) *http.Request {
	req.AddCookie(&http.Cookie{Name: "AGRIDIARY_SESSION", Value: "token"})
	return req
}

func flashOf(t *testing.T, rec *httptest.ResponseRecorder) *requestctx.Flash {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		if c.Name == responses.FlashCookie && c.MaxAge >= 0 {
			req.AddCookie(c)
		}
	}
	return responses.ReadFlash(req)
}

func clearedSession(rec *httptest.ResponseRecorder) bool {
	for _, c := range rec.Result().Cookies() {
		if c.Name == "AGRIDIARY_SESSION" && c.MaxAge < 0 {
			return true
		}
	}
	return false
}

func TestSessionGateRedirectsWithoutCookie(t *testing.T) {
	rec := httptest.NewRecorder()
	SessionGate(stubResolver{}, testCookies, newResponder(t), nil)(okHandler(nil)).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/crops", nil))

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
	flash := flashOf(t, rec)
	require.NotNil(t, flash)
	assert.Equal(t, MsgLoginRequired, flash.Message)
}

func TestSessionGateClearsCookieForExpiredSession(t *testing.T) {
	rec := httptest.NewRecorder()
	resolver := stubResolver{err: pkgerrors.New(pkgerrors.CodeUnauthorized, "セッションが無効です。再度ログインしてください")}
	SessionGate(resolver, testCookies, newResponder(t), nil)(okHandler(nil)).
		ServeHTTP(rec, withSessionCookie(httptest.NewRequest(http.MethodGet, "/crops", nil)))

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.True(t, clearedSession(rec))
	assert.Equal(t, "セッションが無効です。再度ログインしてください", flashOf(t, rec).Message)
}

func TestSessionGateStorageOutageIs503(t *testing.T) {
	rec := httptest.NewRecorder()
	resolver := stubResolver{err: pkgerrors.Wrap(pkgerrors.CodeDependency, errors.New("redis down"), "session lookup failed")}
	SessionGate(resolver, testCookies, newResponder(t), nil)(okHandler(nil)).
		ServeHTTP(rec, withSessionCookie(httptest.NewRequest(http.MethodGet, "/crops", nil)))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.False(t, clearedSession(rec))
}

func TestSessionGateAttachesUser(t *testing.T) {
	var seen *models.User
	rec := httptest.NewRecorder()
	SessionGate(stubResolver{user: &models.User{ID: 9, Username: "jiro"}}, testCookies, newResponder(t), nil)(okHandler(&seen)).
		ServeHTTP(rec, withSessionCookie(httptest.NewRequest(http.MethodGet, "/crops", nil)))

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, seen)
	assert.Equal(t, uint64(9), seen.ID)
}

func TestRedirectAuthenticated(t *testing.T) {
	mw := RedirectAuthenticated(stubResolver{user: &models.User{ID: 1}}, testCookies, "/crops")

	rec := httptest.NewRecorder()
	mw(okHandler(nil)).ServeHTTP(rec, withSessionCookie(httptest.NewRequest(http.MethodGet, "/login", nil)))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/crops", rec.Header().Get("Location"))

	rec = httptest.NewRecorder()
	mw(okHandler(nil)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/login", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	failing := RedirectAuthenticated(stubResolver{err: errors.New("expired")}, testCookies, "/crops")
	failing(okHandler(nil)).ServeHTTP(rec, withSessionCookie(httptest.NewRequest(http.MethodGet, "/login", nil)))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireAdmin(t *testing.T) {
	rs := newResponder(t)
	handler := RequireAdmin(rs)(okHandler(nil))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/pesticides", nil)
	handler.ServeHTTP(rec, req.WithContext(WithUser(req.Context(), &models.User{ID: 2})))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), MsgAdminRequired)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req.WithContext(WithUser(req.Context(), &models.User{ID: 3, IsAdmin: true})))
	assert.Equal(t, http.StatusOK, rec.Code)
}

type fakeRateStore struct {
	mu     sync.Mutex
	counts map[string]int64
	err    error
}

func (f *fakeRateStore) FixedWindowAllow(_ context.Context, scope string, limit int64, _ time.Duration) (bool, int64, error) {
	if f.err != nil {
		return false, 0, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.counts == nil {
		f.counts = map[string]int64{}
	}
	f.counts[scope]++
	return f.counts[scope] <= limit, f.counts[scope], nil
}

func loginRequest(username, ip string) *http.Request {
	body := url.Values{"username": {username}, "password": {"secret"}}.Encode()
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.RemoteAddr = ip + ":5678"
	return req
}

func TestAuthRateLimitUsernameLimit(t *testing.T) {
	store := &fakeRateStore{}
	var gotUsername string
	handler := AuthRateLimit(NewAuthRateLimitPolicy("login", time.Minute, 0, 2), store, newResponder(t), nil)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, r.ParseForm())
			gotUsername = r.PostForm.Get("username")
			w.WriteHeader(http.StatusOK)
		}))

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, loginRequest("hanako", "192.0.2.1"))
		assert.Equal(t, http.StatusOK, rec.Code)
	}
	assert.Equal(t, "hanako", gotUsername)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, loginRequest("hanako", "192.0.2.2"))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), MsgTooManyAttempts)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, loginRequest("taro", "192.0.2.2"))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthRateLimitIPLimitAndGetPassthrough(t *testing.T) {
	store := &fakeRateStore{}
	handler := AuthRateLimit(NewAuthRateLimitPolicy("login", time.Minute, 1, 0), store, newResponder(t), nil)(okHandler(nil))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, loginRequest("a", "198.51.100.7"))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, loginRequest("b", "198.51.100.7"))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	rec = httptest.NewRecorder()
	get := httptest.NewRequest(http.MethodGet, "/login", nil)
	get.RemoteAddr = "198.51.100.7:1"
	handler.ServeHTTP(rec, get)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthRateLimitStoreFailureIs503(t *testing.T) {
	store := &fakeRateStore{err: errors.New("redis down")}
	handler := AuthRateLimit(NewAuthRateLimitPolicy("login", time.Minute, 5, 5), store, newResponder(t), nil)(okHandler(nil))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, loginRequest("a", "198.51.100.8"))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestLocaleCookieBeatsHeader(t *testing.T) {
	var locale string
	handler := Locale(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		locale = requestctx.From(r.Context()).Locale
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Language", "ja-JP,ja;q=0.9")
	req.AddCookie(&http.Cookie{Name: LocaleCookie, Value: "en"})
	handler.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "en", locale)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Language", "en-US,en;q=0.8")
	handler.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "en", locale)

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "ja", locale)
}

func TestFlashIsConsumedOnce(t *testing.T) {
	set := httptest.NewRecorder()
	responses.SetFlash(set, requestctx.Success("保存しました"))

	var seen *requestctx.Flash
	handler := Flash(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = requestctx.From(r.Context()).Flash
	}))

	req := httptest.NewRequest(http.MethodGet, "/crops", nil)
	for _, c := range set.Result().Cookies() {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.NotNil(t, seen)
	assert.Equal(t, "保存しました", seen.Message)
	cleared := false
	for _, c := range rec.Result().Cookies() {
		if c.Name == responses.FlashCookie && c.MaxAge < 0 {
			cleared = true
		}
	}
	assert.True(t, cleared)
}

func TestClientInfoAndRequestID(t *testing.T) {
	var values requestctx.Values
	handler := RequestID(nil)(ClientInfo(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		values = requestctx.From(r.Context())
	})))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.5, 10.0.0.1")
	req.Header.Set("User-Agent", "agridiary-test")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, "203.0.113.5", values.Origin.IP)
	assert.Equal(t, "agridiary-test", values.Origin.UserAgent)
	assert.NotEmpty(t, values.RequestID)
	assert.Equal(t, values.RequestID, rec.Header().Get("X-Request-Id"))
}

func TestRecovererRendersErrorPage(t *testing.T) {
	handler := Recoverer(newResponder(t), nil)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "サーバーエラーが発生しました")
}

func TestCORSWithoutOriginsIsPassThrough(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	req.Header.Set("Origin", "https://status.example.com")
	CORS(nil)(okHandler(nil)).ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))

	rec = httptest.NewRecorder()
	CORS([]string{"https://status.example.com"})(okHandler(nil)).ServeHTTP(rec, req)
	assert.Equal(t, "https://status.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
}
