package records

import (
	"context"

	"github.com/angelmondragon/agridiary/internal/notifications"
	"github.com/angelmondragon/agridiary/internal/repo"
	"github.com/angelmondragon/agridiary/pkg/db/models"
	pkgerrors "github.com/angelmondragon/agridiary/pkg/errors"
	"github.com/angelmondragon/agridiary/pkg/logger"
	"github.com/angelmondragon/agridiary/pkg/pagination"
	"github.com/angelmondragon/agridiary/pkg/workerpool"
)

// Caller identifies the signed-in user performing an operation and the
// request it came from. It is passed explicitly through every call.
type Caller struct {
	notifications.Actor
	Origin notifications.Origin
}

// CallerFor builds a Caller from a loaded user.
func CallerFor(user *models.User, origin notifications.Origin) Caller {
	if user == nil {
		return Caller{Origin: origin}
	}
	return Caller{
		Actor:  notifications.Actor{ID: user.ID, Username: user.Username, Email: user.Email},
		Origin: origin,
	}
}

// Repository is the owner-scoped storage a Service runs on.
type Repository[E any] interface {
	PageForOwner(ctx context.Context, req pagination.Request, ownerID uint64) (*pagination.Page[E], error)
	ListForOwner(ctx context.Context, req pagination.Request, ownerID uint64) ([]E, error)
	LookupForOwner(ctx context.Context, id, ownerID uint64) (*E, error)
	Insert(ctx context.Context, entity *E) (uint64, error)
	UpdateForOwner(ctx context.Context, id, ownerID uint64, changes *E) (uint64, error)
	DeleteForOwner(ctx context.Context, id, ownerID uint64) (bool, error)
	Options(ctx context.Context, ownerID uint64) ([]repo.Option, error)
}

// Params configure a Service.
type Params[E any] struct {
	Repo      Repository[E]
	Pool      *workerpool.Pool
	Publisher notifications.Publisher
	Logger    *logger.Logger
	// Entity is the user-facing name of the record kind used in notifications.
	Entity string
	// Label describes one record in notifications.
	Label func(*E) string
}

// Service runs owner-scoped CRUD on the storage pool and announces committed
// changes to the notification hooks.
type Service[E any, P interface {
	*E
	models.Owned
}] struct {
	repo      Repository[E]
	pool      *workerpool.Pool
	publisher notifications.Publisher
	logg      *logger.Logger
	entity    string
	label     func(*E) string
}

func New[E any, P interface {
	*E
	models.Owned
}](params Params[E]) (*Service[E, P], error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "records repository required")
	}
	label := params.Label
	if label == nil {
		label = func(*E) string { return "" }
	}
	return &Service[E, P]{
		repo:      params.Repo,
		pool:      params.Pool,
		publisher: params.Publisher,
		logg:      params.Logger,
		entity:    params.Entity,
		label:     label,
	}, nil
}

func (s *Service[E, P]) Entity() string { return s.entity }

// Pool exposes the storage pool so entity services can run their own lookups on it.
func (s *Service[E, P]) Pool() *workerpool.Pool { return s.pool }

func (s *Service[E, P]) List(ctx context.Context, caller Caller, req pagination.Request) (*pagination.Page[E], error) {
	return workerpool.Do(ctx, s.pool, "page", func(ctx context.Context) (*pagination.Page[E], error) {
		return s.repo.PageForOwner(ctx, req, caller.ID)
	})
}

// Export returns the caller's filtered rows in list order without paging.
func (s *Service[E, P]) Export(ctx context.Context, caller Caller, req pagination.Request) ([]E, error) {
	return workerpool.Do(ctx, s.pool, "export", func(ctx context.Context) ([]E, error) {
		return s.repo.ListForOwner(ctx, req, caller.ID)
	})
}

func (s *Service[E, P]) Get(ctx context.Context, caller Caller, id uint64) (*E, error) {
	return workerpool.Do(ctx, s.pool, "lookup", func(ctx context.Context) (*E, error) {
		return s.repo.LookupForOwner(ctx, id, caller.ID)
	})
}

func (s *Service[E, P]) Options(ctx context.Context, caller Caller) ([]repo.Option, error) {
	return workerpool.Do(ctx, s.pool, "options", func(ctx context.Context) ([]repo.Option, error) {
		return s.repo.Options(ctx, caller.ID)
	})
}

// Create stores entity as a record of the caller.
func (s *Service[E, P]) Create(ctx context.Context, caller Caller, entity *E) (uint64, error) {
	P(entity).SetOwnerID(caller.ID)
	id, err := workerpool.Do(ctx, s.pool, "insert", func(ctx context.Context) (uint64, error) {
		return s.repo.Insert(ctx, entity)
	})
	if err != nil {
		return 0, err
	}
	s.publish(ctx, caller, notifications.KindDataCreated, id, s.label(entity))
	return id, nil
}

// Update overwrites the caller's record id with changes.
func (s *Service[E, P]) Update(ctx context.Context, caller Caller, id uint64, changes *E) (uint64, error) {
	updated, err := workerpool.Do(ctx, s.pool, "update", func(ctx context.Context) (uint64, error) {
		return s.repo.UpdateForOwner(ctx, id, caller.ID, changes)
	})
	if err != nil {
		return 0, err
	}
	s.publish(ctx, caller, notifications.KindDataUpdated, id, s.label(changes))
	return updated, nil
}

// Delete removes the caller's record id. Absent and foreign records are both not found.
func (s *Service[E, P]) Delete(ctx context.Context, caller Caller, id uint64) error {
	current, err := s.Get(ctx, caller, id)
	if err != nil {
		return err
	}
	deleted, err := workerpool.Do(ctx, s.pool, "delete", func(ctx context.Context) (bool, error) {
		return s.repo.DeleteForOwner(ctx, id, caller.ID)
	})
	if err != nil {
		return err
	}
	if !deleted {
		return pkgerrors.New(pkgerrors.CodeNotFound, s.entity+" not found")
	}
	s.publish(ctx, caller, notifications.KindDataDeleted, id, s.label(current))
	return nil
}

func (s *Service[E, P]) publish(ctx context.Context, caller Caller, kind notifications.Kind, id uint64, subject string) {
	if s.logg != nil {
		logCtx := s.logg.WithField(s.logg.WithEntity(ctx, s.entity, id), "event", string(kind))
		s.logg.Info(logCtx, "records.committed")
	}
	if s.publisher == nil {
		return
	}
	s.publisher.Dispatch(ctx, notifications.Event{
		Kind:    kind,
		Entity:  s.entity,
		Subject: subject,
		Actor:   caller.Actor,
		Origin:  caller.Origin,
	})
}
