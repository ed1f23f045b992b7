package workhistories

import (
	"context"
	"strconv"

	"github.com/angelmondragon/agridiary/internal/records"
	"github.com/angelmondragon/agridiary/internal/repo"
	"github.com/angelmondragon/agridiary/pkg/db/models"
	pkgerrors "github.com/angelmondragon/agridiary/pkg/errors"
	"github.com/angelmondragon/agridiary/pkg/pagination"
	"golang.org/x/sync/errgroup"
)

const Entity = "作業履歴"

const msgEndBeforeStart = "終了時刻は開始時刻より後にしてください"

func Config() repo.OwnedConfig {
	return repo.OwnedConfig{
		Entity:       "work history",
		Table:        "work_history",
		SearchColumn: "work_history.content",
		LabelColumn:  "content",
		Joins: []string{
			"LEFT JOIN field ON field.id = work_history.field_id",
			"LEFT JOIN crop ON crop.id = work_history.crop_id",
		},
		Preloads: []string{"Field", "Crop"},
		Sort: pagination.Sort{
			Allowed: map[string]string{
				"date":      "work_history.date",
				"startTime": "work_history.start_time",
				"endTime":   "work_history.end_time",
				"field":     "field.name",
				"crop":      "crop.name",
				"content":   "work_history.content",
			},
			Default:      "work_history.date",
			DefaultOrder: pagination.DirectionDesc,
		},
	}
}

type Form struct {
	Date      string `form:"date" validate:"required"`
	StartTime string `form:"startTime" validate:"required"`
	EndTime   string `form:"endTime" validate:"required"`
	FieldID   string `form:"fieldId" validate:"required"`
	CropID    string `form:"cropId" validate:"required"`
	Content   string `form:"content" validate:"required,max=1000"`
}

type ownedLookup[E any] interface {
	Get(ctx context.Context, caller records.Caller, id uint64) (*E, error)
	Options(ctx context.Context, caller records.Caller) ([]repo.Option, error)
}

type Service struct {
	*records.Service[models.WorkHistory, *models.WorkHistory]
	fields ownedLookup[models.Field]
	crops  ownedLookup[models.Crop]
}

func NewService(deps records.Deps, fields ownedLookup[models.Field], crops ownedLookup[models.Crop]) (*Service, error) {
	if fields == nil || crops == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "field and crop lookups required")
	}
	base, err := records.NewOwnedService[models.WorkHistory](deps, Config(), Entity, func(w *models.WorkHistory) string { return w.Content })
	if err != nil {
		return nil, err
	}
	return &Service{Service: base, fields: fields, crops: crops}, nil
}

func (s *Service) CreateFrom(ctx context.Context, caller records.Caller, form Form) (uint64, error) {
	work, err := s.parse(ctx, caller, form)
	if err != nil {
		return 0, err
	}
	return s.Create(ctx, caller, work)
}

func (s *Service) UpdateFrom(ctx context.Context, caller records.Caller, id uint64, form Form) (uint64, error) {
	work, err := s.parse(ctx, caller, form)
	if err != nil {
		return 0, err
	}
	return s.Update(ctx, caller, id, work)
}

// Choices loads the caller's fields and crops concurrently.
func (s *Service) Choices(ctx context.Context, caller records.Caller) (records.Choices, error) {
	var choices records.Choices
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		choices.Fields, err = s.fields.Options(gctx, caller)
		return err
	})
	g.Go(func() error {
		var err error
		choices.Crops, err = s.crops.Options(gctx, caller)
		return err
	})
	if err := g.Wait(); err != nil {
		return records.Choices{}, err
	}
	return choices, nil
}

func (s *Service) Edit(ctx context.Context, caller records.Caller, id uint64) (*models.WorkHistory, records.Choices, error) {
	return records.Load(ctx,
		func(ctx context.Context) (*models.WorkHistory, error) { return s.Get(ctx, caller, id) },
		func(ctx context.Context) (records.Choices, error) { return s.Choices(ctx, caller) },
	)
}

func FormFor(w *models.WorkHistory) Form {
	return Form{
		Date:      w.Date.Format(records.DateLayout),
		StartTime: records.FormatClock(w.StartTime),
		EndTime:   records.FormatClock(w.EndTime),
		FieldID:   strconv.FormatUint(w.FieldID, 10),
		CropID:    strconv.FormatUint(w.CropID, 10),
		Content:   w.Content,
	}
}

func (s *Service) parse(ctx context.Context, caller records.Caller, form Form) (*models.WorkHistory, error) {
	check := records.NewChecker()
	work := &models.WorkHistory{}
	if date := check.Date("date", form.Date, true); date != nil {
		work.Date = *date
	}
	var start, end int
	work.StartTime, start = check.Clock("startTime", form.StartTime)
	work.EndTime, end = check.Clock("endTime", form.EndTime)
	if start >= 0 && end >= 0 && end <= start {
		check.Add("endTime", msgEndBeforeStart)
	}
	work.Content = check.Text("content", form.Content, true, 1000)

	if id := check.ID("fieldId", form.FieldID, true); id != nil {
		field, err := resolve(ctx, check, "fieldId", s.fields, caller, *id)
		if err != nil {
			return nil, err
		}
		if field != nil {
			work.FieldID, work.Field = field.ID, field
		}
	}
	if id := check.ID("cropId", form.CropID, true); id != nil {
		crop, err := resolve(ctx, check, "cropId", s.crops, caller, *id)
		if err != nil {
			return nil, err
		}
		if crop != nil {
			work.CropID, work.Crop = crop.ID, crop
		}
	}
	if err := check.Err(); err != nil {
		return nil, err
	}
	return work, nil
}

// resolve loads a referenced record of the caller. A reference the caller
// does not own becomes a field message rather than an error.
func resolve[E any](ctx context.Context, check *records.Checker, field string, lookup ownedLookup[E], caller records.Caller, id uint64) (*E, error) {
	entity, err := lookup.Get(ctx, caller, id)
	if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		check.Add(field, "選択肢から選んでください")
		return nil, nil
	}
	return entity, err
}
