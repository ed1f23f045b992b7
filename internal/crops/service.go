package crops

import (
	"context"

	"github.com/angelmondragon/agridiary/internal/records"
	"github.com/angelmondragon/agridiary/internal/repo"
	"github.com/angelmondragon/agridiary/pkg/db/models"
	pkgerrors "github.com/angelmondragon/agridiary/pkg/errors"
	"github.com/angelmondragon/agridiary/pkg/pagination"
)

// Entity is the display name used in notifications.
const Entity = "作物"

// Config lists crops by name and searches the crop name.
func Config() repo.OwnedConfig {
	return repo.OwnedConfig{
		Entity:       "crop",
		Table:        "crop",
		SearchColumn: "crop.name",
		LabelColumn:  "name",
		Joins:        []string{"LEFT JOIN company ON company.id = crop.company_id"},
		Preloads:     []string{"Company"},
		Sort: pagination.Sort{
			Allowed: map[string]string{
				"name":             "crop.name",
				"introducedDate":   "crop.introduced_date",
				"discontinuedDate": "crop.discontinued_date",
				"company":          "company.name",
			},
			Default:      "crop.name",
			DefaultOrder: pagination.DirectionAsc,
		},
	}
}

// Form is the submitted crop form.
type Form struct {
	Name             string `form:"name" validate:"required,max=255"`
	IntroducedDate   string `form:"introducedDate"`
	DiscontinuedDate string `form:"discontinuedDate"`
	CompanyID        string `form:"companyId"`
}

type companyDirectory interface {
	Exists(ctx context.Context, id uint64) (bool, error)
	Options(ctx context.Context) ([]repo.Option, error)
}

type Service struct {
	*records.Service[models.Crop, *models.Crop]
	companies companyDirectory
}

func NewService(deps records.Deps, companies companyDirectory) (*Service, error) {
	if companies == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "company directory required")
	}
	base, err := records.NewOwnedService[models.Crop](deps, Config(), Entity, func(c *models.Crop) string { return c.Name })
	if err != nil {
		return nil, err
	}
	return &Service{Service: base, companies: companies}, nil
}

func (s *Service) CreateFrom(ctx context.Context, caller records.Caller, form Form) (uint64, error) {
	crop, err := s.parse(ctx, form)
	if err != nil {
		return 0, err
	}
	return s.Create(ctx, caller, crop)
}

func (s *Service) UpdateFrom(ctx context.Context, caller records.Caller, id uint64, form Form) (uint64, error) {
	crop, err := s.parse(ctx, form)
	if err != nil {
		return 0, err
	}
	return s.Update(ctx, caller, id, crop)
}

// Choices returns the company list for the crop form.
func (s *Service) Choices(ctx context.Context, _ records.Caller) (records.Choices, error) {
	companies, err := s.companies.Options(ctx)
	if err != nil {
		return records.Choices{}, err
	}
	return records.Choices{Companies: companies}, nil
}

// Edit loads the caller's crop together with its form choices.
func (s *Service) Edit(ctx context.Context, caller records.Caller, id uint64) (*models.Crop, records.Choices, error) {
	return records.Load(ctx,
		func(ctx context.Context) (*models.Crop, error) { return s.Get(ctx, caller, id) },
		func(ctx context.Context) (records.Choices, error) { return s.Choices(ctx, caller) },
	)
}

// FormFor renders a stored crop back into form values.
func FormFor(c *models.Crop) Form {
	return Form{
		Name:             c.Name,
		IntroducedDate:   records.FormatDate(c.IntroducedDate),
		DiscontinuedDate: records.FormatDate(c.DiscontinuedDate),
		CompanyID:        records.FormatID(c.CompanyID),
	}
}

func (s *Service) parse(ctx context.Context, form Form) (*models.Crop, error) {
	check := records.NewChecker()
	crop := &models.Crop{
		Name:             check.Text("name", form.Name, true, 255),
		IntroducedDate:   check.Date("introducedDate", form.IntroducedDate, false),
		DiscontinuedDate: check.Date("discontinuedDate", form.DiscontinuedDate, false),
		CompanyID:        check.ID("companyId", form.CompanyID, false),
	}
	if crop.IntroducedDate != nil && crop.DiscontinuedDate != nil && crop.DiscontinuedDate.Before(*crop.IntroducedDate) {
		check.Add("discontinuedDate", "販売終了日は導入日以降の日付を入力してください")
	}
	if crop.CompanyID != nil {
		ok, err := s.companies.Exists(ctx, *crop.CompanyID)
		if err != nil {
			return nil, err
		}
		if !ok {
			check.Add("companyId", "選択肢から選んでください")
		}
	}
	if err := check.Err(); err != nil {
		return nil, err
	}
	return crop, nil
}
