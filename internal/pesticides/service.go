package pesticides

import (
	"context"

	"github.com/angelmondragon/agridiary/pkg/db/models"
	pkgerrors "github.com/angelmondragon/agridiary/pkg/errors"
	"github.com/angelmondragon/agridiary/pkg/logger"
	"github.com/angelmondragon/agridiary/pkg/pagination"
	"github.com/angelmondragon/agridiary/pkg/workerpool"
)

// Service is the admin surface over the registration table.
type Service struct {
	repo     *Repository
	ingestor *Ingestor
	pool     *workerpool.Pool
	logg     *logger.Logger
}

func NewService(repo *Repository, ingestor *Ingestor, pool *workerpool.Pool, logg *logger.Logger) (*Service, error) {
	if repo == nil || ingestor == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "pesticide repository and ingestor required")
	}
	return &Service{repo: repo, ingestor: ingestor, pool: pool, logg: logg}, nil
}

func (s *Service) List(ctx context.Context, req pagination.Request) (*pagination.Page[models.PesticideRegistration], error) {
	return workerpool.Do(ctx, s.pool, "pesticide.page", func(ctx context.Context) (*pagination.Page[models.PesticideRegistration], error) {
		return s.repo.Page(ctx, req)
	})
}

func (s *Service) Ingest(ctx context.Context, upload *Upload) (Result, error) {
	return s.ingestor.Ingest(ctx, upload)
}

// Clear deletes every registration.
func (s *Service) Clear(ctx context.Context) error {
	removed, err := workerpool.Do(ctx, s.pool, "pesticide.delete_all", s.repo.DeleteAll)
	if err != nil {
		return err
	}
	if s.logg != nil {
		s.logg.Info(s.logg.WithField(ctx, "removed", removed), "pesticides.cleared")
	}
	return nil
}
