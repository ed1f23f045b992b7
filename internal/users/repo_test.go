package users

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/angelmondragon/agridiary/pkg/db/models"
	pkgerrors "github.com/angelmondragon/agridiary/pkg/errors"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newRepo(t *testing.T) *Repository {
	t.Helper()
	name := strings.ReplaceAll(t.Name(), "/", "_")
	conn, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:users_%s?mode=memory&cache=shared", name)), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, conn.AutoMigrate(&models.User{}))
	return NewRepository(conn, nil)
}

func seedUser(t *testing.T, r *Repository, username, email string) *models.User {
	t.Helper()
	user := &models.User{Username: username, Email: email, PasswordHash: "hash"}
	require.NoError(t, r.Create(context.Background(), user))
	require.NotZero(t, user.ID)
	return user
}

func TestCreateReportsTakenUsernameAndEmail(t *testing.T) {
	r := newRepo(t)
	seedUser(t, r, "taro", "taro@example.com")

	err := r.Create(context.Background(), &models.User{Username: "taro", Email: "taro@example.com", PasswordHash: "x"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	fields := pkgerrors.FieldsOf(err)
	require.Equal(t, MsgUsernameTaken, fields["username"])
	require.Equal(t, MsgEmailTaken, fields["email"])

	err = r.Create(context.Background(), &models.User{Username: "hanako", Email: "taro@example.com", PasswordHash: "x"})
	require.Equal(t, pkgerrors.FieldErrors{"email": MsgEmailTaken}, pkgerrors.FieldsOf(err))
}

func TestFindByUsernameIsExact(t *testing.T) {
	r := newRepo(t)
	seeded := seedUser(t, r, "Taro", "taro@example.com")
	ctx := context.Background()

	found, err := r.FindByUsername(ctx, "Taro")
	require.NoError(t, err)
	require.Equal(t, seeded.ID, found.ID)

	_, err = r.FindByUsername(ctx, "taro ")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = r.FindByID(ctx, seeded.ID+100)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestResetTokenLifecycle(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()
	user := seedUser(t, r, "taro", "taro@example.com")
	now := time.Now()

	require.NoError(t, r.SetResetToken(ctx, user.ID, "tok", now.Add(time.Hour)))
	found, err := r.FindByResetToken(ctx, "tok")
	require.NoError(t, err)
	require.True(t, found.ResetTokenValid(now))

	require.NoError(t, r.UpdatePassword(ctx, user.ID, "new-hash"))
	_, err = r.FindByResetToken(ctx, "tok")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	reloaded, err := r.FindByID(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, "new-hash", reloaded.PasswordHash)
	require.Nil(t, reloaded.ResetToken)
}

func TestClearExpiredResetTokens(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()
	expired := seedUser(t, r, "old", "old@example.com")
	live := seedUser(t, r, "new", "new@example.com")
	now := time.Now()
	require.NoError(t, r.SetResetToken(ctx, expired.ID, "a", now.Add(-time.Hour)))
	require.NoError(t, r.SetResetToken(ctx, live.ID, "b", now.Add(time.Hour)))

	cleared, err := r.ClearExpiredResetTokens(ctx, now)
	require.NoError(t, err)
	require.EqualValues(t, 1, cleared)

	_, err = r.FindByResetToken(ctx, "a")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	_, err = r.FindByResetToken(ctx, "b")
	require.NoError(t, err)
}

func TestUpdateUnknownUser(t *testing.T) {
	r := newRepo(t)
	err := r.UpdatePassword(context.Background(), 42, "x")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}
