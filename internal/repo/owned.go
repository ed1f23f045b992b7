package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/agridiary/pkg/db"
	"github.com/angelmondragon/agridiary/pkg/db/models"
	pkgerrors "github.com/angelmondragon/agridiary/pkg/errors"
	"github.com/angelmondragon/agridiary/pkg/pagination"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ExportLimit caps how many rows an unpaginated listing returns.
const ExportLimit = 10000

// OwnedConfig describes how one owned table is listed and searched.
type OwnedConfig struct {
	// Entity names the record kind in logs and error messages.
	Entity string
	Table  string
	// SearchColumn is matched case-insensitively against the list filter.
	SearchColumn string
	// LabelColumn is shown in select options.
	LabelColumn string
	Joins       []string
	Preloads    []string
	Sort        pagination.Sort
}

// Option is one entry of a select list.
type Option struct {
	ID    uint64
	Label string
}

// Owned is the repository shape shared by every per-user table. Every query
// it issues is restricted to rows whose user_id matches the caller.
type Owned[E any, P interface {
	*E
	models.Owned
}] struct {
	Base
	cfg OwnedConfig
}

func NewOwned[E any, P interface {
	*E
	models.Owned
}](conn *gorm.DB, cfg OwnedConfig) *Owned[E, P] {
	return &Owned[E, P]{Base: NewBase(conn), cfg: cfg}
}

func (r *Owned[E, P]) Config() OwnedConfig { return r.cfg }

// PageForOwner returns one sorted, filtered page of the owner's rows. A page
// past the end yields no items but still reports the totals.
func (r *Owned[E, P]) PageForOwner(ctx context.Context, req pagination.Request, ownerID uint64) (*pagination.Page[E], error) {
	req = req.Normalize()
	column, direction, key := r.cfg.Sort.Resolve(req)
	req.SortBy, req.Order = key, direction

	q := r.filtered(ctx, req.Filter, ownerID)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, r.storageErr(err, "count")
	}

	items := make([]E, 0, req.Size)
	if int64(req.Offset()) < total {
		if err := r.ordered(q, column, direction).Offset(req.Offset()).Limit(req.Size).Find(&items).Error; err != nil {
			return nil, r.storageErr(err, "page")
		}
	}
	return pagination.NewPage(items, req, total), nil
}

// ListForOwner returns every filtered row of the owner in page order, up to ExportLimit.
func (r *Owned[E, P]) ListForOwner(ctx context.Context, req pagination.Request, ownerID uint64) ([]E, error) {
	req = req.Normalize()
	column, direction, _ := r.cfg.Sort.Resolve(req)

	var items []E
	if err := r.ordered(r.filtered(ctx, req.Filter, ownerID), column, direction).Limit(ExportLimit).Find(&items).Error; err != nil {
		return nil, r.storageErr(err, "list")
	}
	return items, nil
}

// LookupForOwner loads one row. Absent rows and rows of other owners are
// both reported as not found.
func (r *Owned[E, P]) LookupForOwner(ctx context.Context, id, ownerID uint64) (*E, error) {
	var entity E
	q := r.DB(ctx)
	for _, preload := range r.cfg.Preloads {
		q = q.Preload(preload)
	}
	err := q.Where(r.col("id")+" = ? AND "+r.col("user_id")+" = ?", id, ownerID).First(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, r.notFound()
		}
		return nil, r.storageErr(err, "lookup")
	}
	return &entity, nil
}

// Insert stores entity, which must already carry its owner, and returns the new id.
func (r *Owned[E, P]) Insert(ctx context.Context, e *E) (uint64, error) {
	entity := P(e)
	if entity.GetOwnerID() == 0 {
		return 0, pkgerrors.New(pkgerrors.CodeInternal, r.cfg.Entity+" owner is required")
	}
	if err := r.DB(ctx).Omit(clause.Associations).Create(entity).Error; err != nil {
		return 0, r.storageErr(err, "insert")
	}
	return entity.GetID(), nil
}

// UpdateForOwner overwrites the mutable columns of the owner's row id with
// those of changes. The owner check and the write share one transaction, and
// the row is locked on dialects that support it.
func (r *Owned[E, P]) UpdateForOwner(ctx context.Context, id, ownerID uint64, ch *E) (uint64, error) {
	changes := P(ch)
	err := r.WithTx(ctx, func(tx *gorm.DB) error {
		scope := r.col("id") + " = ? AND " + r.col("user_id") + " = ?"

		locked := tx
		if tx.Dialector.Name() == db.DriverPostgres {
			locked = tx.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		var current E
		if err := locked.Where(scope, id, ownerID).First(&current).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return r.notFound()
			}
			return r.storageErr(err, "lock")
		}

		assignments := changes.Assignments()
		assignments["updated_at"] = time.Now()
		res := tx.Model(new(E)).Where(scope, id, ownerID).Updates(assignments)
		if res.Error != nil {
			return r.storageErr(res.Error, "update")
		}
		if res.RowsAffected == 0 {
			return r.notFound()
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// DeleteForOwner removes the owner's row id and reports whether a row was removed.
func (r *Owned[E, P]) DeleteForOwner(ctx context.Context, id, ownerID uint64) (bool, error) {
	res := r.DB(ctx).Where(r.col("id")+" = ? AND "+r.col("user_id")+" = ?", id, ownerID).Delete(new(E))
	if res.Error != nil {
		if db.IsForeignKeyViolation(res.Error) {
			return false, pkgerrors.Wrap(pkgerrors.CodeConflict, res.Error, "他のデータから参照されているため削除できません")
		}
		return false, r.storageErr(res.Error, "delete")
	}
	return res.RowsAffected > 0, nil
}

// Options lists the owner's rows as select options ordered by label.
func (r *Owned[E, P]) Options(ctx context.Context, ownerID uint64) ([]Option, error) {
	label := r.cfg.LabelColumn
	if label == "" {
		label = "name"
	}
	var opts []Option
	err := r.DB(ctx).Model(new(E)).
		Select(r.col("id")+" AS id, "+r.col(label)+" AS label").
		Where(r.col("user_id")+" = ?", ownerID).
		Order(r.col(label) + " ASC").
		Scan(&opts).Error
	if err != nil {
		return nil, r.storageErr(err, "options")
	}
	return opts, nil
}

// filtered builds the reusable owner + filter scope shared by count and select.
func (r *Owned[E, P]) filtered(ctx context.Context, filter string, ownerID uint64) *gorm.DB {
	q := r.DB(ctx).Model(new(E))
	for _, join := range r.cfg.Joins {
		q = q.Joins(join)
	}
	q = q.Where(r.col("user_id")+" = ?", ownerID)
	if filter != "" && r.cfg.SearchColumn != "" {
		q = q.Where(ContainsFold(r.cfg.SearchColumn), LikePattern(filter))
	}
	return q.Session(&gorm.Session{})
}

func (r *Owned[E, P]) ordered(q *gorm.DB, column, direction string) *gorm.DB {
	if len(r.cfg.Joins) > 0 {
		q = q.Select(r.cfg.Table + ".*")
	}
	for _, preload := range r.cfg.Preloads {
		q = q.Preload(preload)
	}
	return q.Order(column + " " + direction).Order(r.col("id") + " " + direction)
}

func (r *Owned[E, P]) col(name string) string {
	return r.cfg.Table + "." + name
}

func (r *Owned[E, P]) notFound() error {
	return pkgerrors.New(pkgerrors.CodeNotFound, r.cfg.Entity+" not found")
}

func (r *Owned[E, P]) storageErr(err error, op string) error {
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("%s %s failed", r.cfg.Entity, op))
}

// ContainsFold returns a portable case-insensitive containment predicate for column.
func ContainsFold(column string) string {
	return "LOWER(" + column + ") LIKE ? ESCAPE '\\'"
}

// LikePattern lowercases filter, escapes LIKE wildcards and wraps it in %.
func LikePattern(filter string) string {
	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(strings.ToLower(filter))
	return "%" + escaped + "%"
}
