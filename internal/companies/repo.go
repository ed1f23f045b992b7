package companies

import (
	"context"

	"github.com/angelmondragon/agridiary/internal/repo"
	"github.com/angelmondragon/agridiary/pkg/db/models"
	pkgerrors "github.com/angelmondragon/agridiary/pkg/errors"
	"github.com/angelmondragon/agridiary/pkg/workerpool"
	"gorm.io/gorm"
)

// Directory lists the seed companies crops may reference. Companies are shared by all users.
type Directory struct {
	repo.Base
	pool *workerpool.Pool
}

func NewDirectory(conn *gorm.DB, pool *workerpool.Pool) *Directory {
	return &Directory{Base: repo.NewBase(conn), pool: pool}
}

// Exists reports whether id names a company.
func (d *Directory) Exists(ctx context.Context, id uint64) (bool, error) {
	return workerpool.Do(ctx, d.pool, "company.exists", func(ctx context.Context) (bool, error) {
		var count int64
		if err := d.DB(ctx).Model(&models.Company{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "company lookup failed")
		}
		return count > 0, nil
	})
}

// Options lists every company ordered by name.
func (d *Directory) Options(ctx context.Context) ([]repo.Option, error) {
	return workerpool.Do(ctx, d.pool, "company.options", func(ctx context.Context) ([]repo.Option, error) {
		var opts []repo.Option
		err := d.DB(ctx).Model(&models.Company{}).
			Select("id AS id, name AS label").
			Order("name ASC").
			Scan(&opts).Error
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "company options failed")
		}
		return opts, nil
	})
}

// Create stores a company. Used by seeding and tests.
func (d *Directory) Create(ctx context.Context, name string) (uint64, error) {
	company := &models.Company{Name: name}
	if err := d.DB(ctx).Create(company).Error; err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "company insert failed")
	}
	return company.ID, nil
}
