package fields

import (
	"context"

	"github.com/angelmondragon/agridiary/internal/records"
	"github.com/angelmondragon/agridiary/internal/repo"
	"github.com/angelmondragon/agridiary/pkg/db/models"
	"github.com/angelmondragon/agridiary/pkg/pagination"
)

const Entity = "圃場"

func Config() repo.OwnedConfig {
	return repo.OwnedConfig{
		Entity:       "field",
		Table:        "field",
		SearchColumn: "field.name",
		LabelColumn:  "name",
		Sort: pagination.Sort{
			Allowed: map[string]string{
				"name":      "field.name",
				"createdAt": "field.created_at",
				"updatedAt": "field.updated_at",
			},
			Default:      "field.name",
			DefaultOrder: pagination.DirectionAsc,
		},
	}
}

// Form is the submitted field form. Coordinates are decimal degrees.
type Form struct {
	Name               string `form:"name" validate:"required,max=255"`
	NorthEastLatitude  string `form:"northEastLatitude" validate:"required"`
	NorthEastLongitude string `form:"northEastLongitude" validate:"required"`
	SouthWestLatitude  string `form:"southWestLatitude" validate:"required"`
	SouthWestLongitude string `form:"southWestLongitude" validate:"required"`
}

type Service struct {
	*records.Service[models.Field, *models.Field]
}

func NewService(deps records.Deps) (*Service, error) {
	base, err := records.NewOwnedService[models.Field](deps, Config(), Entity, func(f *models.Field) string { return f.Name })
	if err != nil {
		return nil, err
	}
	return &Service{Service: base}, nil
}

func (s *Service) CreateFrom(ctx context.Context, caller records.Caller, form Form) (uint64, error) {
	field, err := Parse(form)
	if err != nil {
		return 0, err
	}
	return s.Create(ctx, caller, field)
}

func (s *Service) UpdateFrom(ctx context.Context, caller records.Caller, id uint64, form Form) (uint64, error) {
	field, err := Parse(form)
	if err != nil {
		return 0, err
	}
	return s.Update(ctx, caller, id, field)
}

// Choices is empty: the field form has no select lists.
func (s *Service) Choices(context.Context, records.Caller) (records.Choices, error) {
	return records.Choices{}, nil
}

func (s *Service) Edit(ctx context.Context, caller records.Caller, id uint64) (*models.Field, records.Choices, error) {
	field, err := s.Get(ctx, caller, id)
	return field, records.Choices{}, err
}

// Parse validates a field form. Latitudes lie in [-90, 90] and longitudes in [-180, 180].
func Parse(form Form) (*models.Field, error) {
	check := records.NewChecker()
	field := &models.Field{
		Name:               check.Text("name", form.Name, true, 255),
		NorthEastLatitude:  check.Float("northEastLatitude", form.NorthEastLatitude, -90, 90),
		NorthEastLongitude: check.Float("northEastLongitude", form.NorthEastLongitude, -180, 180),
		SouthWestLatitude:  check.Float("southWestLatitude", form.SouthWestLatitude, -90, 90),
		SouthWestLongitude: check.Float("southWestLongitude", form.SouthWestLongitude, -180, 180),
	}
	if err := check.Err(); err != nil {
		return nil, err
	}
	return field, nil
}

func FormFor(f *models.Field) Form {
	return Form{
		Name:               f.Name,
		NorthEastLatitude:  FormatCoord(f.NorthEastLatitude),
		NorthEastLongitude: FormatCoord(f.NorthEastLongitude),
		SouthWestLatitude:  FormatCoord(f.SouthWestLatitude),
		SouthWestLongitude: FormatCoord(f.SouthWestLongitude),
	}
}
