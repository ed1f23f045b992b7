package users

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/angelmondragon/agridiary/internal/repo"
	"github.com/angelmondragon/agridiary/pkg/db"
	"github.com/angelmondragon/agridiary/pkg/db/models"
	pkgerrors "github.com/angelmondragon/agridiary/pkg/errors"
	"github.com/angelmondragon/agridiary/pkg/workerpool"
	"gorm.io/gorm"
)

const (
	MsgUsernameTaken = "このユーザー名は既に使用されています"
	MsgEmailTaken    = "このメールアドレスは既に登録されています"
)

// Repository exposes user persistence. Every call runs on the storage pool.
type Repository struct {
	repo.Base
	pool *workerpool.Pool
}

func NewRepository(conn *gorm.DB, pool *workerpool.Pool) *Repository {
	return &Repository{Base: repo.NewBase(conn), pool: pool}
}

// Create inserts user. Duplicate usernames or emails come back as field errors.
func (r *Repository) Create(ctx context.Context, user *models.User) error {
	_, err := workerpool.Do(ctx, r.pool, "user.insert", func(ctx context.Context) (struct{}, error) {
		err := r.WithTx(ctx, func(tx *gorm.DB) error {
			taken := pkgerrors.FieldErrors{}
			var count int64
			if err := tx.Model(&models.User{}).Where("username = ?", user.Username).Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				taken["username"] = MsgUsernameTaken
			}
			if err := tx.Model(&models.User{}).Where("email = ?", user.Email).Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				taken["email"] = MsgEmailTaken
			}
			if len(taken) > 0 {
				return pkgerrors.Validation("入力内容に誤りがあります", taken)
			}
			return tx.Create(user).Error
		})
		return struct{}{}, r.mapWriteErr(err)
	})
	return err
}

func (r *Repository) FindByID(ctx context.Context, id uint64) (*models.User, error) {
	return r.findOne(ctx, "user.by_id", "id = ?", id)
}

// FindByUsername matches the username exactly.
func (r *Repository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.findOne(ctx, "user.by_username", "username = ?", username)
}

func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, "user.by_email", "email = ?", email)
}

func (r *Repository) FindByResetToken(ctx context.Context, token string) (*models.User, error) {
	return r.findOne(ctx, "user.by_reset_token", "reset_token = ?", token)
}

// SetResetToken stores a pending reset for id.
func (r *Repository) SetResetToken(ctx context.Context, id uint64, token string, expires time.Time) error {
	return r.update(ctx, "user.set_reset_token", id, map[string]any{
		"reset_token":         token,
		"reset_token_expires": expires.UTC(),
	})
}

// UpdatePassword replaces the hash and clears any pending reset.
func (r *Repository) UpdatePassword(ctx context.Context, id uint64, hash string) error {
	return r.update(ctx, "user.update_password", id, map[string]any{
		"password_hash":       hash,
		"reset_token":         nil,
		"reset_token_expires": nil,
	})
}

// RehashPassword replaces the hash only.
func (r *Repository) RehashPassword(ctx context.Context, id uint64, hash string) error {
	return r.update(ctx, "user.rehash_password", id, map[string]any{"password_hash": hash})
}

// ClearExpiredResetTokens drops every reset that expired before now and
// returns how many were cleared.
func (r *Repository) ClearExpiredResetTokens(ctx context.Context, now time.Time) (int64, error) {
	return workerpool.Do(ctx, r.pool, "user.clear_reset_tokens", func(ctx context.Context) (int64, error) {
		res := r.DB(ctx).Model(&models.User{}).
			Where("reset_token IS NOT NULL AND reset_token_expires < ?", now.UTC()).
			Updates(map[string]any{"reset_token": nil, "reset_token_expires": nil, "updated_at": now})
		if res.Error != nil {
			return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "clear reset tokens failed")
		}
		return res.RowsAffected, nil
	})
}

func (r *Repository) findOne(ctx context.Context, op, where string, arg any) (*models.User, error) {
	return workerpool.Do(ctx, r.pool, op, func(ctx context.Context) (*models.User, error) {
		var user models.User
		if err := r.DB(ctx).Where(where, arg).First(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "user lookup failed")
		}
		return &user, nil
	})
}

func (r *Repository) update(ctx context.Context, op string, id uint64, columns map[string]any) error {
	_, err := workerpool.Do(ctx, r.pool, op, func(ctx context.Context) (struct{}, error) {
		columns["updated_at"] = time.Now()
		res := r.DB(ctx).Model(&models.User{}).Where("id = ?", id).Updates(columns)
		if res.Error != nil {
			return struct{}{}, pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "user update failed")
		}
		if res.RowsAffected == 0 {
			return struct{}{}, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return struct{}{}, nil
	})
	return err
}

// mapWriteErr turns a unique violation that slipped past the pre-check into
// the same field errors the pre-check produces.
func (r *Repository) mapWriteErr(err error) error {
	switch {
	case err == nil:
		return nil
	case pkgerrors.As(err) != nil:
		return err
	case db.IsUniqueViolation(err, "") && strings.Contains(err.Error(), "email"):
		return pkgerrors.Validation("入力内容に誤りがあります", pkgerrors.FieldErrors{"email": MsgEmailTaken})
	case db.IsUniqueViolation(err, ""):
		return pkgerrors.Validation("入力内容に誤りがあります", pkgerrors.FieldErrors{"username": MsgUsernameTaken})
	default:
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "user insert failed")
	}
}
