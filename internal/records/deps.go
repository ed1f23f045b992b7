package records

import (
	"context"

	"github.com/angelmondragon/agridiary/internal/notifications"
	"github.com/angelmondragon/agridiary/internal/repo"
	"github.com/angelmondragon/agridiary/pkg/db/models"
	"github.com/angelmondragon/agridiary/pkg/logger"
	"github.com/angelmondragon/agridiary/pkg/workerpool"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// Deps are the collaborators shared by every entity service.
type Deps struct {
	DB        *gorm.DB
	Pool      *workerpool.Pool
	Publisher notifications.Publisher
	Logger    *logger.Logger
}

// NewOwnedService wires an owner-scoped repository for cfg into a Service.
func NewOwnedService[E any, P interface {
	*E
	models.Owned
}](deps Deps, cfg repo.OwnedConfig, entity string, label func(*E) string) (*Service[E, P], error) {
	return New[E, P](Params[E]{
		Repo:      repo.NewOwned[E, P](deps.DB, cfg),
		Pool:      deps.Pool,
		Publisher: deps.Publisher,
		Logger:    deps.Logger,
		Entity:    entity,
		Label:     label,
	})
}

// Choices are the select lists a create or edit form needs.
type Choices struct {
	Fields    []repo.Option
	Crops     []repo.Option
	Companies []repo.Option
}

// Load fetches a record and the choices for its edit form concurrently.
func Load[E any](ctx context.Context, get func(context.Context) (*E, error), choices func(context.Context) (Choices, error)) (*E, Choices, error) {
	var (
		entity *E
		opts   Choices
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		entity, err = get(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		opts, err = choices(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, Choices{}, err
	}
	return entity, opts, nil
}
