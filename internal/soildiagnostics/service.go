package soildiagnostics

import (
	"context"
	"fmt"

	"github.com/angelmondragon/agridiary/internal/records"
	"github.com/angelmondragon/agridiary/internal/repo"
	"github.com/angelmondragon/agridiary/pkg/db/models"
	pkgerrors "github.com/angelmondragon/agridiary/pkg/errors"
	"github.com/angelmondragon/agridiary/pkg/pagination"
)

const Entity = "土壌診断"

// Config searches diagnostics by the name of their field.
func Config() repo.OwnedConfig {
	return repo.OwnedConfig{
		Entity:       "soil diagnostic",
		Table:        "soil_diagnostic",
		SearchColumn: "field.name",
		LabelColumn:  "diagnostic_date",
		Joins:        []string{"LEFT JOIN field ON field.id = soil_diagnostic.field_id"},
		Preloads:     []string{"Field"},
		Sort: pagination.Sort{
			Allowed: map[string]string{
				"diagnosticDate": "soil_diagnostic.diagnostic_date",
				"field":          "field.name",
				"ph":             "soil_diagnostic.ph_h2o",
				"ec":             "soil_diagnostic.ec",
				"cec":            "soil_diagnostic.cec",
			},
			Default:      "soil_diagnostic.diagnostic_date",
			DefaultOrder: pagination.DirectionDesc,
		},
	}
}

// Form is the submitted diagnostic. Measurements are keyed by column name.
type Form struct {
	DiagnosticDate string            `form:"diagnosticDate" validate:"required"`
	FieldID        string            `form:"fieldId" validate:"required"`
	Measurements   map[string]string `form:"measurements"`
}

type fieldLookup interface {
	Get(ctx context.Context, caller records.Caller, id uint64) (*models.Field, error)
	Options(ctx context.Context, caller records.Caller) ([]repo.Option, error)
}

type Service struct {
	*records.Service[models.SoilDiagnostic, *models.SoilDiagnostic]
	fields fieldLookup
}

func NewService(deps records.Deps, fields fieldLookup) (*Service, error) {
	if fields == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "field lookup required")
	}
	base, err := records.NewOwnedService[models.SoilDiagnostic](deps, Config(), Entity, Label)
	if err != nil {
		return nil, err
	}
	return &Service{Service: base, fields: fields}, nil
}

// Label names a diagnostic by its field and date.
func Label(s *models.SoilDiagnostic) string {
	date := s.DiagnosticDate.Format(records.DateLayout)
	if s.Field == nil {
		return date
	}
	return fmt.Sprintf("%s (%s)", s.Field.Name, date)
}

func (s *Service) CreateFrom(ctx context.Context, caller records.Caller, form Form) (uint64, error) {
	diag, err := s.parse(ctx, caller, form)
	if err != nil {
		return 0, err
	}
	return s.Create(ctx, caller, diag)
}

func (s *Service) UpdateFrom(ctx context.Context, caller records.Caller, id uint64, form Form) (uint64, error) {
	diag, err := s.parse(ctx, caller, form)
	if err != nil {
		return 0, err
	}
	return s.Update(ctx, caller, id, diag)
}

// Choices lists the caller's fields.
func (s *Service) Choices(ctx context.Context, caller records.Caller) (records.Choices, error) {
	fields, err := s.fields.Options(ctx, caller)
	if err != nil {
		return records.Choices{}, err
	}
	return records.Choices{Fields: fields}, nil
}

func (s *Service) Edit(ctx context.Context, caller records.Caller, id uint64) (*models.SoilDiagnostic, records.Choices, error) {
	return records.Load(ctx,
		func(ctx context.Context) (*models.SoilDiagnostic, error) { return s.Get(ctx, caller, id) },
		func(ctx context.Context) (records.Choices, error) { return s.Choices(ctx, caller) },
	)
}

func FormFor(d *models.SoilDiagnostic) Form {
	form := Form{
		DiagnosticDate: d.DiagnosticDate.Format(records.DateLayout),
		FieldID:        fmt.Sprint(d.FieldID),
		Measurements:   map[string]string{},
	}
	for column, value := range d.Measurements() {
		form.Measurements[column] = records.FormatDecimal(*value)
	}
	return form
}

func (s *Service) parse(ctx context.Context, caller records.Caller, form Form) (*models.SoilDiagnostic, error) {
	check := records.NewChecker()
	diag := &models.SoilDiagnostic{}
	if date := check.Date("diagnosticDate", form.DiagnosticDate, true); date != nil {
		diag.DiagnosticDate = *date
	}
	for column, target := range diag.Measurements() {
		*target = check.Decimal("measurements."+column, form.Measurements[column])
	}

	if fieldID := check.ID("fieldId", form.FieldID, true); fieldID != nil {
		field, err := s.fields.Get(ctx, caller, *fieldID)
		switch {
		case pkgerrors.IsCode(err, pkgerrors.CodeNotFound):
			check.Add("fieldId", "選択肢から選んでください")
		case err != nil:
			return nil, err
		default:
			diag.FieldID = field.ID
			diag.Field = field
		}
	}
	if err := check.Err(); err != nil {
		return nil, err
	}
	return diag, nil
}
