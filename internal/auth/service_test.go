package auth

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/angelmondragon/agridiary/internal/notifications"
	"github.com/angelmondragon/agridiary/internal/users"
	pkgAuth "github.com/angelmondragon/agridiary/pkg/auth"
	"github.com/angelmondragon/agridiary/pkg/config"
	"github.com/angelmondragon/agridiary/pkg/db/models"
	pkgerrors "github.com/angelmondragon/agridiary/pkg/errors"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const strongPassword = "violet-harvest-lantern-42"

type memorySessions struct {
	mu       sync.Mutex
	sessions map[string]uint64
	next     int
}

func (m *memorySessions) Generate(_ context.Context, userID uint64) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.next++
	id := fmt.Sprintf("sess-%d", m.next)
	m.sessions[id] = userID
	return id, nil
}

func (m *memorySessions) HasSession(_ context.Context, sessionID string, userID uint64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	owner, ok := m.sessions[sessionID]
	return ok && owner == userID, nil
}

func (m *memorySessions) Revoke(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sessionID)
	return nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []notifications.Event
}

func (p *recordingPublisher) Dispatch(_ context.Context, event notifications.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *recordingPublisher) kinds() []notifications.Kind {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]notifications.Kind, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Kind)
	}
	return out
}

type fixture struct {
	svc       *Service
	users     *users.Repository
	sessions  *memorySessions
	publisher *recordingPublisher
	now       time.Time
}

var testSessionConfig = config.SessionConfig{Secret: "test-secret", Issuer: "agridiary", TTL: time.Hour}

func setup(t *testing.T, termsRequired bool) *fixture {
	t.Helper()
	name := strings.ReplaceAll(t.Name(), "/", "_")
	conn, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:auth_%s?mode=memory&cache=shared", name)), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, conn.AutoMigrate(&models.User{}))

	f := &fixture{
		users:     users.NewRepository(conn, nil),
		sessions:  &memorySessions{sessions: map[string]uint64{}},
		publisher: &recordingPublisher{},
		now:       time.Now(),
	}
	svc, err := NewService(ServiceParams{
		Users:         f.users,
		Sessions:      f.sessions,
		Publisher:     f.publisher,
		Session:       testSessionConfig,
		Password:      config.PasswordConfig{ArgonMemoryKB: 64, ArgonTime: 1, ArgonParallelism: 1, MinLength: 6, MinScore: 2, ResetTokenTTL: 24 * time.Hour},
		TermsRequired: termsRequired,
		Now:           func() time.Time { return f.now },
	})
	require.NoError(t, err)
	f.svc = svc
	return f
}

func (f *fixture) register(t *testing.T, username, email string) *Session {
	t.Helper()
	sess, err := f.svc.Register(context.Background(), RegisterForm{
		Username: username, Email: email, Password: strongPassword, ConfirmPassword: strongPassword, AgreeTerms: true,
	}, notifications.Origin{IP: "203.0.113.1"})
	require.NoError(t, err)
	return sess
}

func TestRegisterSignsInAndPublishes(t *testing.T) {
	f := setup(t, true)
	sess := f.register(t, "taro", "Taro@Example.com")

	require.Equal(t, "taro@example.com", sess.User.Email)
	resolved, err := f.svc.Resolve(context.Background(), sess.Token)
	require.NoError(t, err)
	require.Equal(t, sess.User.ID, resolved.ID)
	require.Equal(t, []notifications.Kind{notifications.KindUserRegistered}, f.publisher.kinds())
}

func TestRegisterCollectsFieldErrors(t *testing.T) {
	f := setup(t, true)
	_, err := f.svc.Register(context.Background(), RegisterForm{
		Username: "taro", Email: "taro@example.com", Password: "password", ConfirmPassword: "different",
	}, notifications.Origin{})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	fields := pkgerrors.FieldsOf(err)
	require.NotEmpty(t, fields["password"])
	require.Equal(t, msgPasswordMismatch, fields["confirmPassword"])
	require.Equal(t, msgTermsRequired, fields["agreeTerms"])
	require.Empty(t, f.publisher.kinds())
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	f := setup(t, false)
	f.register(t, "taro", "taro@example.com")

	_, err := f.svc.Register(context.Background(), RegisterForm{
		Username: "taro", Email: "other@example.com", Password: strongPassword, ConfirmPassword: strongPassword,
	}, notifications.Origin{})
	require.Equal(t, users.MsgUsernameTaken, pkgerrors.FieldsOf(err)["username"])
}

func TestLoginFailuresShareOneMessage(t *testing.T) {
	f := setup(t, false)
	f.register(t, "taro", "taro@example.com")
	ctx := context.Background()

	for _, form := range []LoginForm{
		{Username: "taro", Password: "wrong"},
		{Username: "nobody", Password: strongPassword},
		{Username: "TARO", Password: strongPassword},
	} {
		_, err := f.svc.Login(ctx, form, notifications.Origin{})
		require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
		require.Equal(t, MsgInvalidCredentials, pkgerrors.As(err).Message())
	}

	sess, err := f.svc.Login(ctx, LoginForm{Username: "taro", Password: strongPassword}, notifications.Origin{})
	require.NoError(t, err)
	require.NotEmpty(t, sess.Token)
	require.Equal(t, []notifications.Kind{notifications.KindUserRegistered, notifications.KindUserLoggedIn}, f.publisher.kinds())
}

func TestLoginUpgradesLegacyHash(t *testing.T) {
	f := setup(t, false)
	ctx := context.Background()
	legacy, err := bcrypt.GenerateFromPassword([]byte("legacy-pass"), bcrypt.MinCost)
	require.NoError(t, err)
	user := &models.User{Username: "old", Email: "old@example.com", PasswordHash: string(legacy)}
	require.NoError(t, f.users.Create(ctx, user))

	_, err = f.svc.Login(ctx, LoginForm{Username: "old", Password: "legacy-pass"}, notifications.Origin{})
	require.NoError(t, err)

	reloaded, err := f.users.FindByID(ctx, user.ID)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(reloaded.PasswordHash, "$argon2id$"))
}

func TestLogoutRevokesSession(t *testing.T) {
	f := setup(t, false)
	sess := f.register(t, "taro", "taro@example.com")
	ctx := context.Background()

	require.NoError(t, f.svc.Logout(ctx, sess.Token))
	_, err := f.svc.Resolve(ctx, sess.Token)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
	require.Equal(t, MsgSessionExpired, pkgerrors.As(err).Message())

	require.NoError(t, f.svc.Logout(ctx, "garbage"))
}

func TestResolveRejectsBadTokens(t *testing.T) {
	f := setup(t, false)
	ctx := context.Background()

	_, err := f.svc.Resolve(ctx, "not-a-token")
	require.Equal(t, MsgInvalidSession, pkgerrors.As(err).Message())

	orphan, err := pkgAuth.MintSessionToken(testSessionConfig, time.Now(), pkgAuth.SessionPayload{UserID: 99, SessionID: "sess-x"})
	require.NoError(t, err)
	f.sessions.sessions["sess-x"] = 99
	_, err = f.svc.Resolve(ctx, orphan)
	require.Equal(t, MsgSessionExpired, pkgerrors.As(err).Message())
}

func TestForgotAndReset(t *testing.T) {
	f := setup(t, false)
	f.register(t, "taro", "taro@example.com")
	ctx := context.Background()

	require.NoError(t, f.svc.Forgot(ctx, ForgotForm{Email: "unknown@example.com"}, notifications.Origin{}))
	require.NoError(t, f.svc.Forgot(ctx, ForgotForm{Email: "TARO@example.com"}, notifications.Origin{}))

	f.publisher.mu.Lock()
	last := f.publisher.events[len(f.publisher.events)-1]
	f.publisher.mu.Unlock()
	require.Equal(t, notifications.KindPasswordResetRequested, last.Kind)
	require.NotEmpty(t, last.ResetToken)

	_, err := f.svc.CheckResetToken(ctx, last.ResetToken)
	require.NoError(t, err)

	err = f.svc.Reset(ctx, ResetForm{Token: last.ResetToken, Password: "newer-violet-lantern-77", ConfirmPassword: "mismatch"})
	require.Equal(t, msgPasswordMismatch, pkgerrors.FieldsOf(err)["confirmPassword"])

	require.NoError(t, f.svc.Reset(ctx, ResetForm{Token: last.ResetToken, Password: "newer-violet-lantern-77", ConfirmPassword: "newer-violet-lantern-77"}))
	_, err = f.svc.Login(ctx, LoginForm{Username: "taro", Password: "newer-violet-lantern-77"}, notifications.Origin{})
	require.NoError(t, err)

	err = f.svc.Reset(ctx, ResetForm{Token: last.ResetToken, Password: "x", ConfirmPassword: "x"})
	require.Equal(t, MsgInvalidResetToken, pkgerrors.As(err).Message())
}

func TestResetTokenExpires(t *testing.T) {
	f := setup(t, false)
	f.register(t, "taro", "taro@example.com")
	ctx := context.Background()
	require.NoError(t, f.svc.Forgot(ctx, ForgotForm{Email: "taro@example.com"}, notifications.Origin{}))
	token := f.publisher.events[len(f.publisher.events)-1].ResetToken

	f.now = f.now.Add(25 * time.Hour)
	_, err := f.svc.CheckResetToken(ctx, token)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	require.Equal(t, MsgInvalidResetToken, pkgerrors.As(err).Message())
}
