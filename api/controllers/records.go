package controllers

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strconv"

	"github.com/angelmondragon/agridiary/api/requestctx"
	"github.com/angelmondragon/agridiary/api/responses"
	"github.com/angelmondragon/agridiary/api/validators"
	"github.com/angelmondragon/agridiary/api/views"
	"github.com/angelmondragon/agridiary/internal/crops"
	"github.com/angelmondragon/agridiary/internal/fields"
	"github.com/angelmondragon/agridiary/internal/records"
	"github.com/angelmondragon/agridiary/internal/soildiagnostics"
	"github.com/angelmondragon/agridiary/internal/workhistories"
	"github.com/angelmondragon/agridiary/pkg/db/models"
	"github.com/angelmondragon/agridiary/pkg/i18n"
	"github.com/angelmondragon/agridiary/pkg/pagination"
)

func NewCropResource(svc recordService[models.Crop, crops.Form], rs *responses.Responder) *Resource[models.Crop, crops.Form] {
	return &Resource[models.Crop, crops.Form]{
		Path:    "/crops",
		Title:   "nav.crops",
		Entity:  crops.Entity,
		Service: svc,
		Columns: []Column{
			{Key: "name", Label: "crop.name"},
			{Key: "introducedDate", Label: "crop.introduced_date"},
			{Key: "discontinuedDate", Label: "crop.discontinued_date"},
			{Key: "company", Label: "crop.company"},
		},
		ID: func(c *models.Crop) uint64 { return c.ID },
		Cells: func(_ string, c *models.Crop) []string {
			company := ""
			if c.Company != nil {
				company = c.Company.Name
			}
			return []string{c.Name, records.FormatDate(c.IntroducedDate), records.FormatDate(c.DiscontinuedDate), company}
		},
		FormFor: crops.FormFor,
		Inputs: func(locale string, st FormState[crops.Form]) []views.Input {
			return []views.Input{
				{Name: "name", Label: i18n.T(locale, "crop.name"), Type: "text", Value: st.Form.Name, Required: true, Error: st.Errors["name"]},
				{Name: "introducedDate", Label: i18n.T(locale, "crop.introduced_date"), Type: "date", Value: st.Form.IntroducedDate, Error: st.Errors["introducedDate"]},
				{Name: "discontinuedDate", Label: i18n.T(locale, "crop.discontinued_date"), Type: "date", Value: st.Form.DiscontinuedDate, Error: st.Errors["discontinuedDate"]},
				{
					Name:    "companyId",
					Label:   i18n.T(locale, "crop.company"),
					Type:    views.InputSelect,
					Options: selectOptions(st.Choices.Companies, st.Form.CompanyID),
					Error:   st.Errors["companyId"],
				},
			}
		},
		rs: rs,
	}
}

func NewFieldResource(svc recordService[models.Field, fields.Form], rs *responses.Responder) *Resource[models.Field, fields.Form] {
	coord := func(locale, name, label, value string, errs map[string]string) views.Input {
		return views.Input{Name: name, Label: i18n.T(locale, label), Type: "number", Step: "any", Value: value, Required: true, Error: errs[name]}
	}
	return &Resource[models.Field, fields.Form]{
		Path:    "/fields",
		Title:   "nav.fields",
		Entity:  fields.Entity,
		Service: svc,
		Columns: []Column{
			{Key: "name", Label: "field.name"},
			{Label: "field.north_east_latitude"},
			{Label: "field.north_east_longitude"},
			{Label: "field.south_west_latitude"},
			{Label: "field.south_west_longitude"},
		},
		ID: func(f *models.Field) uint64 { return f.ID },
		Cells: func(_ string, f *models.Field) []string {
			return []string{
				f.Name,
				fields.FormatCoord(f.NorthEastLatitude),
				fields.FormatCoord(f.NorthEastLongitude),
				fields.FormatCoord(f.SouthWestLatitude),
				fields.FormatCoord(f.SouthWestLongitude),
			}
		},
		FormFor: fields.FormFor,
		Inputs: func(locale string, st FormState[fields.Form]) []views.Input {
			return []views.Input{
				{Name: "name", Label: i18n.T(locale, "field.name"), Type: "text", Value: st.Form.Name, Required: true, Error: st.Errors["name"]},
				coord(locale, "northEastLatitude", "field.north_east_latitude", st.Form.NorthEastLatitude, st.Errors),
				coord(locale, "northEastLongitude", "field.north_east_longitude", st.Form.NorthEastLongitude, st.Errors),
				coord(locale, "southWestLatitude", "field.south_west_latitude", st.Form.SouthWestLatitude, st.Errors),
				coord(locale, "southWestLongitude", "field.south_west_longitude", st.Form.SouthWestLongitude, st.Errors),
			}
		},
		rs: rs,
	}
}

// soilSortKeys are the measurement columns the soil list can sort by.
var soilSortKeys = map[string]string{"ph_h2o": "ph", "ec": "ec", "cec": "cec"}

func NewSoilDiagnosticResource(svc recordService[models.SoilDiagnostic, soildiagnostics.Form], rs *responses.Responder) *Resource[models.SoilDiagnostic, soildiagnostics.Form] {
	columns := []Column{
		{Key: "diagnosticDate", Label: "soil.diagnostic_date"},
		{Key: "field", Label: "soil.field"},
	}
	for _, col := range models.MeasurementColumns {
		columns = append(columns, Column{Key: soilSortKeys[col], Label: "soil." + col})
	}

	return &Resource[models.SoilDiagnostic, soildiagnostics.Form]{
		Path:    "/soil-diagnostics",
		Title:   "nav.soil_diagnostics",
		Entity:  soildiagnostics.Entity,
		Service: svc,
		Columns: columns,
		ID:      func(d *models.SoilDiagnostic) uint64 { return d.ID },
		Cells: func(_ string, d *models.SoilDiagnostic) []string {
			field := ""
			if d.Field != nil {
				field = d.Field.Name
			}
			cells := []string{d.DiagnosticDate.Format(records.DateLayout), field}
			values := d.Measurements()
			for _, col := range models.MeasurementColumns {
				cells = append(cells, records.FormatDecimal(*values[col]))
			}
			return cells
		},
		FormFor: soildiagnostics.FormFor,
		Inputs: func(locale string, st FormState[soildiagnostics.Form]) []views.Input {
			inputs := []views.Input{
				{Name: "diagnosticDate", Label: i18n.T(locale, "soil.diagnostic_date"), Type: "date", Value: st.Form.DiagnosticDate, Required: true, Error: st.Errors["diagnosticDate"]},
				{
					Name:     "fieldId",
					Label:    i18n.T(locale, "soil.field"),
					Type:     views.InputSelect,
					Required: true,
					Options:  selectOptions(st.Choices.Fields, st.Form.FieldID),
					Error:    st.Errors["fieldId"],
				},
			}
			for _, col := range models.MeasurementColumns {
				inputs = append(inputs, views.Input{
					Name:  "measurements[" + col + "]",
					Label: i18n.T(locale, "soil."+col),
					Type:  "number",
					Step:  "0.01",
					Value: st.Form.Measurements[col],
					Error: st.Errors["measurements."+col],
				})
			}
			return inputs
		},
		rs: rs,
	}
}

// WorkHistoryPath is the list page of work histories.
const WorkHistoryPath = "/work-histories"

func NewWorkHistoryResource(svc recordService[models.WorkHistory, workhistories.Form], rs *responses.Responder) *Resource[models.WorkHistory, workhistories.Form] {
	return &Resource[models.WorkHistory, workhistories.Form]{
		Path:    WorkHistoryPath,
		Title:   "nav.work_histories",
		Entity:  workhistories.Entity,
		Service: svc,
		Columns: []Column{
			{Key: "date", Label: "work.date"},
			{Key: "startTime", Label: "work.start_time"},
			{Key: "endTime", Label: "work.end_time"},
			{Key: "field", Label: "work.field"},
			{Key: "crop", Label: "work.crop"},
			{Key: "content", Label: "work.content"},
		},
		ID: func(w *models.WorkHistory) uint64 { return w.ID },
		Cells: func(_ string, w *models.WorkHistory) []string {
			field, crop := "", ""
			if w.Field != nil {
				field = w.Field.Name
			}
			if w.Crop != nil {
				crop = w.Crop.Name
			}
			return []string{
				w.Date.Format(records.DateLayout),
				records.FormatClock(w.StartTime),
				records.FormatClock(w.EndTime),
				field,
				crop,
				w.Content,
			}
		},
		FormFor: workhistories.FormFor,
		Inputs: func(locale string, st FormState[workhistories.Form]) []views.Input {
			return []views.Input{
				{Name: "date", Label: i18n.T(locale, "work.date"), Type: "date", Value: st.Form.Date, Required: true, Error: st.Errors["date"]},
				{Name: "startTime", Label: i18n.T(locale, "work.start_time"), Type: "time", Value: st.Form.StartTime, Required: true, Error: st.Errors["startTime"]},
				{Name: "endTime", Label: i18n.T(locale, "work.end_time"), Type: "time", Value: st.Form.EndTime, Required: true, Error: st.Errors["endTime"]},
				{
					Name:     "fieldId",
					Label:    i18n.T(locale, "work.field"),
					Type:     views.InputSelect,
					Required: true,
					Options:  selectOptions(st.Choices.Fields, st.Form.FieldID),
					Error:    st.Errors["fieldId"],
				},
				{
					Name:     "cropId",
					Label:    i18n.T(locale, "work.crop"),
					Type:     views.InputSelect,
					Required: true,
					Options:  selectOptions(st.Choices.Crops, st.Form.CropID),
					Error:    st.Errors["cropId"],
				},
				{Name: "content", Label: i18n.T(locale, "work.content"), Type: views.InputTextarea, Value: st.Form.Content, Required: true, Error: st.Errors["content"]},
			}
		},
		ExportPath: WorkHistoryPath + "/export",
		rs:         rs,
	}
}

type workHistoryExporter interface {
	ExportXLSX(ctx context.Context, caller records.Caller, req pagination.Request, w io.Writer) error
}

// WorkHistoryExport downloads the caller's filtered work histories as a
// workbook. The workbook is built in memory so a failure can still render
// the error page.
func WorkHistoryExport(svc workHistoryExporter, rs *responses.Responder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var buf bytes.Buffer
		if err := svc.ExportXLSX(r.Context(), requestctx.Caller(r.Context()), validators.ListRequest(r), &buf); err != nil {
			rs.Error(w, r, err)
			return
		}
		w.Header().Set("Content-Type", workhistories.ExportContentType)
		w.Header().Set("Content-Disposition", `attachment; filename="`+workhistories.ExportFilename()+`"`)
		w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
		w.WriteHeader(http.StatusOK)
		_, _ = buf.WriteTo(w)
	}
}
