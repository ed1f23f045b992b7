package pesticides

import (
	"context"
	"strings"

	"github.com/angelmondragon/agridiary/internal/repo"
	"github.com/angelmondragon/agridiary/pkg/db/models"
	pkgerrors "github.com/angelmondragon/agridiary/pkg/errors"
	"github.com/angelmondragon/agridiary/pkg/pagination"
	"gorm.io/gorm"
)

const defaultBatchSize = 500

// SortColumns are the sortable list columns keyed by request value.
var SortColumns = pagination.Sort{
	Allowed: map[string]string{
		"registrationNumber": "registration_number",
		"usage":              "usage",
		"pesticideType":      "pesticide_type",
		"pesticideName":      "pesticide_name",
		"cropName":           "crop_name",
		"targetPestDisease":  "target_pest_disease",
	},
	Default:      "registration_number",
	DefaultOrder: pagination.DirectionAsc,
}

// Repository stores registrations. They are shared reference data, so no
// query here is owner scoped.
type Repository struct {
	repo.Base
}

func NewRepository(conn *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(conn)}
}

// Page lists registrations whose registration number, pesticide name or crop
// name contains the filter.
func (r *Repository) Page(ctx context.Context, req pagination.Request) (*pagination.Page[models.PesticideRegistration], error) {
	req = req.Normalize()
	column, direction, key := SortColumns.Resolve(req)
	req.SortBy, req.Order = key, direction

	q := r.DB(ctx).Model(&models.PesticideRegistration{})
	if req.Filter != "" {
		pattern := repo.LikePattern(req.Filter)
		q = q.Where(strings.Join([]string{
			repo.ContainsFold("registration_number"),
			repo.ContainsFold("pesticide_name"),
			repo.ContainsFold("crop_name"),
		}, " OR "), pattern, pattern, pattern)
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "pesticide count failed")
	}
	items := make([]models.PesticideRegistration, 0, req.Size)
	if int64(req.Offset()) < total {
		err := q.Order(column + " " + direction).Order("id " + direction).
			Offset(req.Offset()).Limit(req.Size).Find(&items).Error
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "pesticide page failed")
		}
	}
	return pagination.NewPage(items, req, total), nil
}

// InsertAll stores rows in batches inside one transaction, so a failed
// batch leaves the table as it was.
func (r *Repository) InsertAll(ctx context.Context, rows []models.PesticideRegistration, batchSize int) error {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	err := r.WithTx(ctx, func(tx *gorm.DB) error {
		return tx.CreateInBatches(&rows, batchSize).Error
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "pesticide insert failed")
	}
	return nil
}

// DeleteAll removes every registration and reports how many were removed.
func (r *Repository) DeleteAll(ctx context.Context) (int64, error) {
	res := r.DB(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.PesticideRegistration{})
	if res.Error != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "pesticide delete failed")
	}
	return res.RowsAffected, nil
}

func (r *Repository) Count(ctx context.Context) (int64, error) {
	var total int64
	if err := r.DB(ctx).Model(&models.PesticideRegistration{}).Count(&total).Error; err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "pesticide count failed")
	}
	return total, nil
}
