package routes

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/agridiary/api/responses"
	"github.com/angelmondragon/agridiary/api/views"
	"github.com/angelmondragon/agridiary/internal/auth"
	"github.com/angelmondragon/agridiary/internal/companies"
	"github.com/angelmondragon/agridiary/internal/crops"
	"github.com/angelmondragon/agridiary/internal/notifications"
	"github.com/angelmondragon/agridiary/internal/pesticides"
	"github.com/angelmondragon/agridiary/internal/records"
	"github.com/angelmondragon/agridiary/pkg/auth/session"
	"github.com/angelmondragon/agridiary/pkg/config"
	"github.com/angelmondragon/agridiary/pkg/db/models"
	pkgerrors "github.com/angelmondragon/agridiary/pkg/errors"
	"github.com/angelmondragon/agridiary/pkg/metrics"
	"github.com/angelmondragon/agridiary/pkg/migrate"
	"github.com/angelmondragon/agridiary/pkg/pagination"
)

const cookieName = "AGRIDIARY_SESSION"

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

type stubRedis struct {
	stubPinger
	mu     sync.Mutex
	counts map[string]int64
}

func (s *stubRedis) FixedWindowAllow(_ context.Context, scope string, limit int64, _ time.Duration) (bool, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.counts == nil {
		s.counts = map[string]int64{}
	}
	s.counts[scope]++
	return s.counts[scope] <= limit, s.counts[scope], nil
}

// stubAccounts knows two sessions: one farmer and one admin.
type stubAccounts struct {
	farmer *models.User
	admin  *models.User
}

func (s stubAccounts) Resolve(_ context.Context, token string) (*models.User, error) {
	switch token {
	case "farmer-token":
		return s.farmer, nil
	case "admin-token":
		return s.admin, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, auth.MsgInvalidSession)
}

func (s stubAccounts) Login(_ context.Context, form auth.LoginForm, _ notifications.Origin) (*auth.Session, error) {
	if form.Username == s.farmer.Username && form.Password == "correct" {
		return &auth.Session{Token: "farmer-token", User: s.farmer}, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, auth.MsgInvalidCredentials)
}

func (s stubAccounts) Register(context.Context, auth.RegisterForm, notifications.Origin) (*auth.Session, error) {
	return nil, errors.New("not implemented")
}

func (s stubAccounts) Logout(context.Context, string) error { return nil }

func (s stubAccounts) Forgot(context.Context, auth.ForgotForm, notifications.Origin) error { return nil }

func (s stubAccounts) CheckResetToken(context.Context, string) (*models.User, error) {
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, auth.MsgInvalidResetToken)
}

func (s stubAccounts) Reset(context.Context, auth.ResetForm) error { return nil }

type fixture struct {
	handler http.Handler
	conn    *gorm.DB
	crops   *crops.Service
	farmer  *models.User
	redis   *stubRedis
}

func newFixture(t *testing.T, redisErr error) *fixture {
	t.Helper()
	name := strings.ReplaceAll(t.Name(), "/", "_")
	conn, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:routes_%s?mode=memory&cache=shared", name)), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, migrate.AutoMigrate(context.Background(), conn))

	farmer := &models.User{Username: "hanako", Email: "hanako@example.com", PasswordHash: "x"}
	admin := &models.User{Username: "root", Email: "root@example.com", PasswordHash: "x", IsAdmin: true}
	require.NoError(t, conn.Create(farmer).Error)
	require.NoError(t, conn.Create(admin).Error)

	cropSvc, err := crops.NewService(records.Deps{DB: conn}, companies.NewDirectory(conn, nil))
	require.NoError(t, err)
	pesticideRepo := pesticides.NewRepository(conn)
	ingestor, err := pesticides.NewIngestor(pesticides.IngestorParams{Rows: pesticideRepo})
	require.NoError(t, err)
	pesticideSvc, err := pesticides.NewService(pesticideRepo, ingestor, nil, nil)
	require.NoError(t, err)

	tmpl, err := views.New()
	require.NoError(t, err)

	cfg := &config.Config{
		App: config.AppConfig{Env: "test"},
		AuthRateLimit: config.AuthRateLimitConfig{
			LoginWindow:        time.Minute,
			LoginIPLimit:       20,
			LoginUsernameLimit: 2,
		},
	}
	registry := prometheus.NewRegistry()
	metrics.NewIngestionMetrics(registry).AddRows(1)

	redis := &stubRedis{stubPinger: stubPinger{err: redisErr}}
	handler := NewRouter(cfg, nil, Infra{
		DB:        stubPinger{},
		Redis:     redis,
		Responder: responses.New(tmpl, nil),
		Cookies:   session.NewCookies(config.SessionConfig{CookieName: cookieName, TTL: time.Hour}),
		Gatherer:  registry,
	}, Services{
		Auth:       stubAccounts{farmer: farmer, admin: admin},
		Crops:      cropSvc,
		Pesticides: pesticideSvc,
	})
	return &fixture{handler: handler, conn: conn, crops: cropSvc, farmer: farmer, redis: redis}
}

func (f *fixture) do(req *http.Request, token string) *httptest.ResponseRecorder {
	if token != "" {
		req.AddCookie(&http.Cookie{Name: cookieName, Value: token})
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func form(target string, values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestHealthRoutes(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/health/live", nil), "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "test", rec.Header().Get("X-Agridiary-Env"))

	rec = f.do(httptest.NewRequest(http.MethodGet, "/health/ready", nil), "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyReportsRedisOutage(t *testing.T) {
	f := newFixture(t, errors.New("connection refused"))
	rec := f.do(httptest.NewRequest(http.MethodGet, "/health/ready", nil), "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"redis":"unavailable"`)
}

func TestMetricsExposed(t *testing.T) {
	f := newFixture(t, nil)
	rec := f.do(httptest.NewRequest(http.MethodGet, "/metrics", nil), "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "agridiary_")
}

func TestRootRedirectsHome(t *testing.T) {
	f := newFixture(t, nil)
	rec := f.do(httptest.NewRequest(http.MethodGet, "/", nil), "")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/crops", rec.Header().Get("Location"))
}

func TestUnknownRouteIsNotFound(t *testing.T) {
	f := newFixture(t, nil)
	rec := f.do(httptest.NewRequest(http.MethodGet, "/no-such-page", nil), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRecordPagesRequireSession(t *testing.T) {
	f := newFixture(t, nil)
	for _, path := range []string{"/crops", "/fields/new", "/soil-diagnostics", "/work-histories/export", "/pesticides"} {
		rec := f.do(httptest.NewRequest(http.MethodGet, path, nil), "")
		assert.Equal(t, http.StatusSeeOther, rec.Code, path)
		assert.Equal(t, "/login", rec.Header().Get("Location"), path)
	}
}

func TestInvalidSessionIsSentToLogin(t *testing.T) {
	f := newFixture(t, nil)
	rec := f.do(httptest.NewRequest(http.MethodGet, "/crops", nil), "forged")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
}

func TestLoginPageRedirectsSignedInUser(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/login", nil), "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(httptest.NewRequest(http.MethodGet, "/login", nil), "farmer-token")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/crops", rec.Header().Get("Location"))
}

func TestLoginSetsSessionCookie(t *testing.T) {
	f := newFixture(t, nil)
	rec := f.do(form("/login", url.Values{"username": {"hanako"}, "password": {"correct"}}), "")

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	var found bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == cookieName {
			found = true
			assert.Equal(t, "farmer-token", c.Value)
		}
	}
	assert.True(t, found)
}

func TestLoginThrottledPerUsername(t *testing.T) {
	f := newFixture(t, nil)
	values := url.Values{"username": {"hanako"}, "password": {"wrong"}}

	assert.Equal(t, http.StatusBadRequest, f.do(form("/login", values), "").Code)
	assert.Equal(t, http.StatusBadRequest, f.do(form("/login", values), "").Code)
	assert.Equal(t, http.StatusTooManyRequests, f.do(form("/login", values), "").Code)
}

func TestCropLifecycleThroughRouter(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(form("/crops/new", url.Values{"name": {"トマト"}, "introducedDate": {"2024-04-01"}}), "farmer-token")
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/crops", rec.Header().Get("Location"))

	caller := records.Caller{Actor: notifications.Actor{ID: f.farmer.ID, Username: f.farmer.Username}}
	page, err := f.crops.List(context.Background(), caller, pagination.Request{Size: pagination.DefaultLimit}.Normalize())
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	id := page.Items[0].ID

	rec = f.do(httptest.NewRequest(http.MethodGet, "/crops", nil), "farmer-token")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "トマト")

	rec = f.do(httptest.NewRequest(http.MethodGet, fmt.Sprintf("/crops/%d/edit", id), nil), "farmer-token")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `value="トマト"`)

	// another account cannot see the record
	rec = f.do(httptest.NewRequest(http.MethodGet, fmt.Sprintf("/crops/%d/edit", id), nil), "admin-token")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(httptest.NewRequest(http.MethodPost, fmt.Sprintf("/crops/%d/delete", id), nil), "farmer-token")
	assert.Equal(t, http.StatusSeeOther, rec.Code)

	var count int64
	require.NoError(t, f.conn.Model(&models.Crop{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestPesticidesAdminOnly(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/pesticides", nil), "farmer-token")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.do(httptest.NewRequest(http.MethodGet, "/pesticides", nil), "admin-token")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(httptest.NewRequest(http.MethodGet, "/pesticides/upload", nil), "admin-token")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `enctype="multipart/form-data"`)
}

func TestResetPageWithUnknownTokenGoesToLogin(t *testing.T) {
	f := newFixture(t, nil)
	rec := f.do(httptest.NewRequest(http.MethodGet, "/reset-password?token=nope", nil), "")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
}
