package auth

import (
	"context"
	"strings"
	"time"

	"github.com/angelmondragon/agridiary/internal/notifications"
	"github.com/angelmondragon/agridiary/internal/records"
	pkgAuth "github.com/angelmondragon/agridiary/pkg/auth"
	"github.com/angelmondragon/agridiary/pkg/config"
	"github.com/angelmondragon/agridiary/pkg/db/models"
	pkgerrors "github.com/angelmondragon/agridiary/pkg/errors"
	"github.com/angelmondragon/agridiary/pkg/logger"
	"github.com/angelmondragon/agridiary/pkg/security"
	"github.com/google/uuid"
)

const (
	MsgLoggedIn           = "ログインしました"
	MsgInvalidCredentials = "ユーザー名またはパスワードが間違っています"
	MsgRegistered         = "アカウントが作成されました"
	MsgLoggedOut          = "ログアウトしました"
	MsgResetRequested     = "該当するメールアドレスが存在する場合、パスワードリセットのメールを送信しました。"
	MsgPasswordReset      = "パスワードが正常に変更されました。新しいパスワードでログインしてください。"
	MsgInvalidResetToken  = "無効または期限切れのリセットトークンです。"
	MsgInvalidSession     = "無効なセッションです"
	MsgSessionExpired     = "セッションが無効です。再度ログインしてください"

	msgPasswordMismatch = "パスワードが一致しません"
	msgTermsRequired    = "利用規約に同意してください"
)

type userStore interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id uint64) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByResetToken(ctx context.Context, token string) (*models.User, error)
	SetResetToken(ctx context.Context, id uint64, token string, expires time.Time) error
	UpdatePassword(ctx context.Context, id uint64, hash string) error
	RehashPassword(ctx context.Context, id uint64, hash string) error
}

type sessionManager interface {
	Generate(ctx context.Context, userID uint64) (string, error)
	HasSession(ctx context.Context, sessionID string, userID uint64) (bool, error)
	Revoke(ctx context.Context, sessionID string) error
}

// ServiceParams bundles the dependencies of the account flows.
type ServiceParams struct {
	Users     userStore
	Sessions  sessionManager
	Publisher notifications.Publisher
	Scorer    security.Scorer
	Session   config.SessionConfig
	Password  config.PasswordConfig
	// TermsRequired makes registration demand the terms checkbox.
	TermsRequired bool
	Logger        *logger.Logger
	Now           func() time.Time
}

// Service implements login, registration, logout and password reset.
type Service struct {
	users         userStore
	sessions      sessionManager
	publisher     notifications.Publisher
	scorer        security.Scorer
	sessionCfg    config.SessionConfig
	passwordCfg   config.PasswordConfig
	termsRequired bool
	logg          *logger.Logger
	now           func() time.Time
}

// Session is a freshly opened browser session.
type Session struct {
	Token string
	User  *models.User
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Users == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "user repository required")
	}
	if params.Sessions == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "session manager required")
	}
	scorer := params.Scorer
	if scorer == nil {
		scorer = security.NewScorer(params.Password.MinScore, params.Password.MinLength)
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		users:         params.Users,
		sessions:      params.Sessions,
		publisher:     params.Publisher,
		scorer:        scorer,
		sessionCfg:    params.Session,
		passwordCfg:   params.Password,
		termsRequired: params.TermsRequired,
		logg:          params.Logger,
		now:           now,
	}, nil
}

// Login checks the credentials and opens a session. Unknown users and wrong
// passwords fail with the same message.
func (s *Service) Login(ctx context.Context, form LoginForm, origin notifications.Origin) (*Session, error) {
	user, err := s.users.FindByUsername(ctx, form.Username)
	if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, MsgInvalidCredentials)
	}
	if err != nil {
		return nil, err
	}

	ok, err := security.VerifyPassword(form.Password, user.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, MsgInvalidCredentials)
	}
	if security.NeedsRehash(user.PasswordHash) {
		s.rehash(ctx, user, form.Password)
	}

	sess, err := s.open(ctx, user)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, notifications.Event{Kind: notifications.KindUserLoggedIn, Actor: actorOf(user), Origin: origin})
	return sess, nil
}

// Register creates the account and signs it in.
func (s *Service) Register(ctx context.Context, form RegisterForm, origin notifications.Origin) (*Session, error) {
	check := records.NewChecker()
	username := check.Text("username", form.Username, true, 255)
	email := strings.ToLower(check.Text("email", form.Email, true, 255))
	s.checkNewPassword(check, form.Password, form.ConfirmPassword, username, email)
	if s.termsRequired && !form.AgreeTerms {
		check.Add("agreeTerms", msgTermsRequired)
	}
	if err := check.Err(); err != nil {
		return nil, err
	}

	hash, err := security.HashPassword(form.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}
	user := &models.User{Username: username, Email: email, PasswordHash: hash}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	s.publish(ctx, notifications.Event{Kind: notifications.KindUserRegistered, Actor: actorOf(user), Origin: origin})

	return s.open(ctx, user)
}

// Logout revokes the session carried by token. Tokens that no longer parse
// have nothing left to revoke.
func (s *Service) Logout(ctx context.Context, token string) error {
	claims, err := pkgAuth.ParseSessionToken(s.sessionCfg, token)
	if err != nil || claims.ID == "" {
		return nil
	}
	if err := s.sessions.Revoke(ctx, claims.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke session")
	}
	return nil
}

// Resolve maps a session cookie value to its user.
func (s *Service) Resolve(ctx context.Context, token string) (*models.User, error) {
	claims, err := pkgAuth.ParseSessionToken(s.sessionCfg, token)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, MsgInvalidSession)
	}
	userID, err := claims.UserID()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, MsgInvalidSession)
	}

	live, err := s.sessions.HasSession(ctx, claims.ID, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "session lookup failed")
	}
	if !live {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, MsgSessionExpired)
	}

	user, err := s.users.FindByID(ctx, userID)
	if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, MsgSessionExpired)
	}
	return user, err
}

// Forgot starts a password reset when the email belongs to an account. The
// outcome is never revealed to the caller.
func (s *Service) Forgot(ctx context.Context, form ForgotForm, origin notifications.Origin) error {
	email := strings.ToLower(strings.TrimSpace(form.Email))
	if email == "" {
		return nil
	}
	user, err := s.users.FindByEmail(ctx, email)
	if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	token := uuid.NewString()
	ttl := s.passwordCfg.ResetTokenTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if err := s.users.SetResetToken(ctx, user.ID, token, s.now().Add(ttl)); err != nil {
		return err
	}
	s.publish(ctx, notifications.Event{
		Kind:       notifications.KindPasswordResetRequested,
		Actor:      actorOf(user),
		Origin:     origin,
		ResetToken: token,
	})
	return nil
}

// CheckResetToken returns the user of a live reset token.
func (s *Service) CheckResetToken(ctx context.Context, token string) (*models.User, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, MsgInvalidResetToken)
	}
	user, err := s.users.FindByResetToken(ctx, token)
	if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, MsgInvalidResetToken)
	}
	if err != nil {
		return nil, err
	}
	if !user.ResetTokenValid(s.now()) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, MsgInvalidResetToken)
	}
	return user, nil
}

// Reset sets a new password for the holder of a live reset token and
// consumes the token.
func (s *Service) Reset(ctx context.Context, form ResetForm) error {
	user, err := s.CheckResetToken(ctx, form.Token)
	if err != nil {
		return err
	}
	check := records.NewChecker()
	s.checkNewPassword(check, form.Password, form.ConfirmPassword, user.Username, user.Email)
	if err := check.Err(); err != nil {
		return err
	}
	hash, err := security.HashPassword(form.Password, s.passwordCfg)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}
	return s.users.UpdatePassword(ctx, user.ID, hash)
}

func (s *Service) checkNewPassword(check *records.Checker, password, confirm string, inputs ...string) {
	if verdict := s.scorer.Check(password, inputs...); !verdict.OK {
		check.Add("password", verdict.Message)
	}
	if password != confirm {
		check.Add("confirmPassword", msgPasswordMismatch)
	}
}

func (s *Service) open(ctx context.Context, user *models.User) (*Session, error) {
	sessionID, err := s.sessions.Generate(ctx, user.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store session")
	}
	token, err := pkgAuth.MintSessionToken(s.sessionCfg, s.now(), pkgAuth.SessionPayload{UserID: user.ID, SessionID: sessionID})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint session token")
	}
	return &Session{Token: token, User: user}, nil
}

// rehash upgrades a legacy hash after a successful login. Failure leaves the
// old hash in place.
func (s *Service) rehash(ctx context.Context, user *models.User, password string) {
	hash, err := security.HashPassword(password, s.passwordCfg)
	if err == nil {
		err = s.users.RehashPassword(ctx, user.ID, hash)
	}
	if err != nil && s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{"user_id": user.ID, "error": err.Error()})
		s.logg.Warn(logCtx, "auth.rehash_failed")
	}
}

func (s *Service) publish(ctx context.Context, event notifications.Event) {
	if s.publisher != nil {
		s.publisher.Dispatch(ctx, event)
	}
}

func actorOf(user *models.User) notifications.Actor {
	return notifications.Actor{ID: user.ID, Username: user.Username, Email: user.Email}
}
