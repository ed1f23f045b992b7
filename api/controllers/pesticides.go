package controllers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/angelmondragon/agridiary/api/requestctx"
	"github.com/angelmondragon/agridiary/api/responses"
	"github.com/angelmondragon/agridiary/api/validators"
	"github.com/angelmondragon/agridiary/api/views"
	"github.com/angelmondragon/agridiary/internal/pesticides"
	"github.com/angelmondragon/agridiary/pkg/db/models"
	pkgerrors "github.com/angelmondragon/agridiary/pkg/errors"
	"github.com/angelmondragon/agridiary/pkg/i18n"
	"github.com/angelmondragon/agridiary/pkg/pagination"
)

const (
	PesticidesPath = "/pesticides"

	msgUploadTooLarge = "ファイルサイズが上限を超えています"

	multipartOverhead = 1 << 20
)

type pesticideService interface {
	List(ctx context.Context, req pagination.Request) (*pagination.Page[models.PesticideRegistration], error)
	Ingest(ctx context.Context, upload *pesticides.Upload) (pesticides.Result, error)
	Clear(ctx context.Context) error
}

var pesticideColumns = []Column{
	{Key: "registrationNumber", Label: "pesticide.registration_number"},
	{Key: "usage", Label: "pesticide.usage"},
	{Key: "pesticideType", Label: "pesticide.pesticide_type"},
	{Key: "pesticideName", Label: "pesticide.pesticide_name"},
	{Label: "pesticide.abbreviation"},
	{Key: "cropName", Label: "pesticide.crop_name"},
	{Label: "pesticide.application_location"},
	{Key: "targetPestDisease", Label: "pesticide.target_pest_disease"},
	{Label: "pesticide.purpose"},
	{Label: "pesticide.dilution_amount"},
}

// PesticideList renders one page of the registry for admins.
func PesticideList(svc pesticideService, rs *responses.Responder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := svc.List(r.Context(), validators.ListRequest(r))
		if err != nil {
			rs.Error(w, r, err)
			return
		}
		locale := requestctx.From(r.Context()).Locale

		view := listView(PesticidesPath, locale, pesticideColumns, page)
		view.Links = []views.Link{{Label: i18n.T(locale, "action.upload"), URL: PesticidesPath + "/upload"}}
		view.Buttons = []views.Button{{
			Label:   i18n.T(locale, "action.clear_all"),
			Action:  PesticidesPath + "/clear",
			Confirm: i18n.T(locale, "pesticide.cleared_confirm"),
		}}
		for _, p := range page.Items {
			view.Rows = append(view.Rows, views.Row{Cells: []string{
				p.RegistrationNumber,
				p.Usage,
				p.PesticideType,
				p.PesticideName,
				p.Abbreviation,
				p.CropName,
				p.ApplicationLocation,
				p.TargetPestDisease,
				p.Purpose,
				p.DilutionAmount,
			}})
		}
		rs.Render(w, r, http.StatusOK, views.PageList, i18n.T(locale, "nav.pesticides"), view)
	}
}

func PesticideUploadPage(rs *responses.Responder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		renderUpload(w, r, rs, http.StatusOK, "")
	}
}

// PesticideUpload ingests the uploaded registry archive. Rejected uploads
// re-render the form and leave the stored rows untouched.
func PesticideUpload(svc pesticideService, maxBytes int64, rs *responses.Responder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// The limit leaves room for the multipart envelope around the file.
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes+multipartOverhead)

		upload, err := readUpload(r, maxBytes)
		if err != nil {
			uploadFailed(w, r, rs, err)
			return
		}
		result, err := svc.Ingest(r.Context(), upload)
		if err != nil {
			uploadFailed(w, r, rs, err)
			return
		}
		rs.Redirect(w, r, PesticidesPath, requestctx.Success(result.Message()))
	}
}

// PesticideClear deletes every registration.
func PesticideClear(svc pesticideService, rs *responses.Responder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Clear(r.Context()); err != nil {
			rs.Error(w, r, err)
			return
		}
		rs.Redirect(w, r, PesticidesPath, requestctx.Success(pesticides.MsgCleared))
	}
}

// readUpload returns nil when the request carries no file.
func readUpload(r *http.Request, maxBytes int64) (*pesticides.Upload, error) {
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, pkgerrors.Validation(msgUploadTooLarge, pkgerrors.FieldErrors{"file": msgUploadTooLarge})
		}
		if errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, pesticides.MsgFileRequired)
	}
	file, header, err := r.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, pesticides.MsgFileRequired)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, pesticides.MsgFileRequired)
	}
	if int64(len(data)) > maxBytes {
		return nil, pkgerrors.Validation(msgUploadTooLarge, pkgerrors.FieldErrors{"file": msgUploadTooLarge})
	}
	return &pesticides.Upload{Filename: header.Filename, Data: data}, nil
}

func uploadFailed(w http.ResponseWriter, r *http.Request, rs *responses.Responder, err error) {
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		rs.Error(w, r, err)
		return
	}
	message := responses.PublicMessage(err)
	if fields := pkgerrors.FieldsOf(err); fields["file"] != "" {
		message = fields["file"]
	}
	renderUpload(w, r, rs, http.StatusBadRequest, message)
}

func renderUpload(w http.ResponseWriter, r *http.Request, rs *responses.Responder, status int, message string) {
	locale := requestctx.From(r.Context()).Locale
	rs.Render(w, r, status, views.PageForm, i18n.T(locale, "pesticide.upload_title"), views.FormView{
		Action:    PesticidesPath + "/upload",
		Multipart: true,
		Error:     message,
		Note:      i18n.T(locale, "pesticide.upload_hint"),
		Inputs: []views.Input{
			{Name: "file", Label: i18n.T(locale, "pesticide.upload_title"), Type: "file", Required: true},
		},
		Submit: i18n.T(locale, "action.upload"),
		Links:  []views.Link{{Label: i18n.T(locale, "nav.pesticides"), URL: PesticidesPath}},
	})
}
