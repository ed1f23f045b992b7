package fields

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/angelmondragon/agridiary/internal/notifications"
	"github.com/angelmondragon/agridiary/internal/records"
	"github.com/angelmondragon/agridiary/pkg/db/models"
	pkgerrors "github.com/angelmondragon/agridiary/pkg/errors"
	"github.com/angelmondragon/agridiary/pkg/pagination"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var (
	owner    = records.Caller{Actor: notifications.Actor{ID: 1}}
	stranger = records.Caller{Actor: notifications.Actor{ID: 2}}
)

func setup(t *testing.T) *Service {
	t.Helper()
	name := strings.ReplaceAll(t.Name(), "/", "_")
	conn, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:fields_%s?mode=memory&cache=shared", name)), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, conn.AutoMigrate(&models.Field{}))
	svc, err := NewService(records.Deps{DB: conn})
	require.NoError(t, err)
	return svc
}

func validForm(name string) Form {
	return Form{
		Name:               name,
		NorthEastLatitude:  "35.6895",
		NorthEastLongitude: "139.6917",
		SouthWestLatitude:  "35.6",
		SouthWestLongitude: "139.6",
	}
}

func TestParseRejectsOutOfRangeCoordinates(t *testing.T) {
	form := validForm("North")
	form.NorthEastLatitude = "95"
	form.SouthWestLongitude = "east"
	_, err := Parse(form)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	fields := pkgerrors.FieldsOf(err)
	require.Equal(t, "-90から90の範囲で入力してください", fields["northEastLatitude"])
	require.Equal(t, "数値を入力してください", fields["southWestLongitude"])
	require.NotContains(t, fields, "name")
}

func TestParseRejectsNonFiniteCoordinates(t *testing.T) {
	form := validForm("North")
	form.NorthEastLatitude = "NaN"
	form.NorthEastLongitude = "nan"
	form.SouthWestLatitude = "-Inf"
	form.SouthWestLongitude = "+Infinity"
	_, err := Parse(form)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	fields := pkgerrors.FieldsOf(err)
	for _, key := range []string{"northEastLatitude", "northEastLongitude", "southWestLatitude", "southWestLongitude"} {
		require.Equal(t, "数値を入力してください", fields[key], key)
	}
}

func TestFieldOwnershipAcrossOperations(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	id, err := svc.CreateFrom(ctx, owner, validForm("North"))
	require.NoError(t, err)

	_, _, err = svc.Edit(ctx, stranger, id)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = svc.UpdateFrom(ctx, stranger, id, validForm("Taken"))
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	require.True(t, pkgerrors.IsCode(svc.Delete(ctx, stranger, id), pkgerrors.CodeNotFound))

	field, _, err := svc.Edit(ctx, owner, id)
	require.NoError(t, err)
	require.Equal(t, "North", field.Name)
	require.Equal(t, validForm("North"), FormFor(field))
}

func TestUpdatePreservesCreatedAt(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()
	id, err := svc.CreateFrom(ctx, owner, validForm("North"))
	require.NoError(t, err)
	before, err := svc.Get(ctx, owner, id)
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)
	_, err = svc.UpdateFrom(ctx, owner, id, validForm("North 2"))
	require.NoError(t, err)
	after, err := svc.Get(ctx, owner, id)
	require.NoError(t, err)
	require.True(t, before.CreatedAt.Equal(after.CreatedAt))
	require.False(t, after.UpdatedAt.Before(before.UpdatedAt))
}

func TestListPagesOwnerRows(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()
	for i := 0; i < 11; i++ {
		_, err := svc.CreateFrom(ctx, owner, validForm(fmt.Sprintf("F%02d", i)))
		require.NoError(t, err)
	}
	_, err := svc.CreateFrom(ctx, stranger, validForm("Other"))
	require.NoError(t, err)

	page, err := svc.List(ctx, owner, pagination.Request{Page: 1})
	require.NoError(t, err)
	require.Equal(t, 2, page.TotalPages)
	require.Len(t, page.Items, 1)
	require.Equal(t, "F10", page.Items[0].Name)
}
