package records

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/angelmondragon/agridiary/internal/notifications"
	"github.com/angelmondragon/agridiary/internal/repo"
	"github.com/angelmondragon/agridiary/pkg/db/models"
	pkgerrors "github.com/angelmondragon/agridiary/pkg/errors"
	"github.com/angelmondragon/agridiary/pkg/pagination"
	"github.com/angelmondragon/agridiary/pkg/workerpool"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// The gorm-backed repository must keep serving as a Service's storage.
var _ Repository[models.Field] = (*repo.Owned[models.Field, *models.Field])(nil)

type capturePublisher struct {
	mu     sync.Mutex
	events []notifications.Event
}

func (p *capturePublisher) Dispatch(_ context.Context, ev notifications.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
}

func (p *capturePublisher) kinds() []notifications.Kind {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]notifications.Kind, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Kind)
	}
	return out
}

func newFieldService(t *testing.T, pub notifications.Publisher) *Service[models.Field, *models.Field] {
	t.Helper()
	name := strings.ReplaceAll(t.Name(), "/", "_")
	conn, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, conn.AutoMigrate(&models.Field{}))

	r := repo.NewOwned[models.Field](conn, repo.OwnedConfig{
		Entity:       "field",
		Table:        "field",
		SearchColumn: "field.name",
		Sort:         pagination.Sort{Allowed: map[string]string{"name": "field.name"}, Default: "field.name", DefaultOrder: pagination.DirectionAsc},
	})
	svc, err := New[models.Field](Params[models.Field]{
		Repo:      r,
		Pool:      workerpool.New(4, time.Second, nil),
		Publisher: pub,
		Entity:    "圃場",
		Label:     func(f *models.Field) string { return f.Name },
	})
	require.NoError(t, err)
	return svc
}

var (
	taro   = Caller{Actor: notifications.Actor{ID: 1, Username: "taro"}}
	hanako = Caller{Actor: notifications.Actor{ID: 2, Username: "hanako"}}
)

func TestServiceLifecyclePublishesAfterCommit(t *testing.T) {
	pub := &capturePublisher{}
	svc := newFieldService(t, pub)
	ctx := context.Background()

	id, err := svc.Create(ctx, taro, &models.Field{Name: "North", UserID: 99})
	require.NoError(t, err)

	got, err := svc.Get(ctx, taro, id)
	require.NoError(t, err)
	require.Equal(t, taro.ID, got.UserID, "owner comes from the caller, not the submitted record")

	_, err = svc.Update(ctx, taro, id, &models.Field{Name: "South"})
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, taro, id))

	require.Equal(t, []notifications.Kind{
		notifications.KindDataCreated,
		notifications.KindDataUpdated,
		notifications.KindDataDeleted,
	}, pub.kinds())
	require.Equal(t, "South", pub.events[2].Subject)
	require.Equal(t, "圃場", pub.events[2].Entity)
	require.Equal(t, "taro", pub.events[2].Actor.Username)
}

func TestServiceForeignCallerGetsNotFoundAndNoNotification(t *testing.T) {
	pub := &capturePublisher{}
	svc := newFieldService(t, pub)
	ctx := context.Background()

	id, err := svc.Create(ctx, taro, &models.Field{Name: "North"})
	require.NoError(t, err)

	_, err = svc.Get(ctx, hanako, id)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	_, err = svc.Update(ctx, hanako, id, &models.Field{Name: "Stolen"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	err = svc.Delete(ctx, hanako, id)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	require.Equal(t, []notifications.Kind{notifications.KindDataCreated}, pub.kinds())

	page, err := svc.List(ctx, hanako, pagination.Request{})
	require.NoError(t, err)
	require.Empty(t, page.Items)

	page, err = svc.List(ctx, taro, pagination.Request{})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	require.Equal(t, "North", page.Items[0].Name)
}

type stuckRepo struct {
	Repository[models.Field]
	release chan struct{}
}

func (s stuckRepo) LookupForOwner(ctx context.Context, id, ownerID uint64) (*models.Field, error) {
	<-s.release
	return &models.Field{ID: id, UserID: ownerID}, nil
}

func TestServiceTimesOutStuckStorage(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	svc, err := New[models.Field](Params[models.Field]{
		Repo: stuckRepo{release: release},
		Pool: workerpool.New(1, 20*time.Millisecond, nil),
	})
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), taro, 1)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
	require.ErrorIs(t, err, workerpool.ErrTimeout)
}

func TestNewRequiresRepository(t *testing.T) {
	_, err := New[models.Field](Params[models.Field]{})
	require.Error(t, err)
}

func TestCallerFor(t *testing.T) {
	caller := CallerFor(&models.User{ID: 5, Username: "u", Email: "u@example.com"}, notifications.Origin{IP: "10.0.0.1"})
	require.Equal(t, uint64(5), caller.ID)
	require.Equal(t, "10.0.0.1", caller.Origin.IP)
	require.Zero(t, CallerFor(nil, notifications.Origin{}).ID)
}
