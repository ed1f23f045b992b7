package controllers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/agridiary/api/requestctx"
	"github.com/angelmondragon/agridiary/api/responses"
	"github.com/angelmondragon/agridiary/api/validators"
	"github.com/angelmondragon/agridiary/api/views"
	"github.com/angelmondragon/agridiary/internal/records"
	"github.com/angelmondragon/agridiary/internal/repo"
	pkgerrors "github.com/angelmondragon/agridiary/pkg/errors"
	"github.com/angelmondragon/agridiary/pkg/i18n"
	"github.com/angelmondragon/agridiary/pkg/pagination"
)

const (
	msgCreated = "%sを登録しました"
	msgUpdated = "%sを更新しました"
	msgDeleted = "%sを削除しました"
)

// recordService is what the record pages need from an entity service.
type recordService[E any, F any] interface {
	List(ctx context.Context, caller records.Caller, req pagination.Request) (*pagination.Page[E], error)
	Choices(ctx context.Context, caller records.Caller) (records.Choices, error)
	Edit(ctx context.Context, caller records.Caller, id uint64) (*E, records.Choices, error)
	CreateFrom(ctx context.Context, caller records.Caller, form F) (uint64, error)
	UpdateFrom(ctx context.Context, caller records.Caller, id uint64, form F) (uint64, error)
	Delete(ctx context.Context, caller records.Caller, id uint64) error
}

// Column is one list column. Key is the sortBy value, empty when the column
// cannot be sorted. Label is a message key.
type Column struct {
	Key   string
	Label string
}

// FormState is what a record form renders from.
type FormState[F any] struct {
	Form    F
	Choices records.Choices
	Errors  pkgerrors.FieldErrors
}

// Resource serves the list, create, edit and delete pages of one owned
// entity below Path.
type Resource[E any, F any] struct {
	Path string
	// Title is the message key of the page title.
	Title string
	// Entity names the record in flash messages.
	Entity  string
	Service recordService[E, F]
	Columns []Column
	ID      func(*E) uint64
	Cells   func(locale string, e *E) []string
	FormFor func(*E) F
	Inputs  func(locale string, st FormState[F]) []views.Input
	// ExportPath adds a download link to the list when set.
	ExportPath string

	rs *responses.Responder
}

// List renders one page of the caller's records.
func (res *Resource[E, F]) List() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := validators.ListRequest(r)
		page, err := res.Service.List(r.Context(), requestctx.Caller(r.Context()), req)
		if err != nil {
			res.rs.Error(w, r, err)
			return
		}
		locale := requestctx.From(r.Context()).Locale

		view := listView(res.Path, locale, res.Columns, page)
		view.NewURL = res.Path + "/new"
		view.Editable = true
		if res.ExportPath != "" {
			view.ExportURL = res.ExportPath + "?" + listQuery(page.Filter, page.SortBy, page.Order, -1).Encode()
		}
		view.Rows = make([]views.Row, 0, len(page.Items))
		for i := range page.Items {
			item := &page.Items[i]
			base := res.Path + "/" + strconv.FormatUint(res.ID(item), 10)
			view.Rows = append(view.Rows, views.Row{
				Cells:     res.Cells(locale, item),
				EditURL:   base + "/edit",
				DeleteURL: base + "/delete",
			})
		}
		res.rs.Render(w, r, http.StatusOK, views.PageList, i18n.T(locale, res.Title), view)
	}
}

// New renders the empty create form.
func (res *Resource[E, F]) New() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		choices, err := res.Service.Choices(r.Context(), requestctx.Caller(r.Context()))
		if err != nil {
			res.rs.Error(w, r, err)
			return
		}
		var form F
		res.renderForm(w, r, http.StatusOK, res.Path+"/new", "title.new", FormState[F]{Form: form, Choices: choices}, "")
	}
}

// Create stores the submitted record, or re-renders the form with its errors.
func (res *Resource[E, F]) Create() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller := requestctx.Caller(r.Context())
		var form F
		err := validators.DecodeForm(r, &form)
		if err == nil {
			_, err = res.Service.CreateFrom(r.Context(), caller, form)
		}
		if err != nil {
			res.formFailed(w, r, res.Path+"/new", "title.new", form, err)
			return
		}
		res.rs.Redirect(w, r, res.Path, requestctx.Success(fmt.Sprintf(msgCreated, res.Entity)))
	}
}

// Edit renders the form for one of the caller's records.
func (res *Resource[E, F]) Edit() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseID(chi.URLParam(r, "id"))
		if err != nil {
			res.rs.Error(w, r, err)
			return
		}
		entity, choices, err := res.Service.Edit(r.Context(), requestctx.Caller(r.Context()), id)
		if err != nil {
			res.rs.Error(w, r, err)
			return
		}
		res.renderForm(w, r, http.StatusOK, res.editPath(id), "title.edit", FormState[F]{Form: res.FormFor(entity), Choices: choices}, "")
	}
}

// Update overwrites one of the caller's records.
func (res *Resource[E, F]) Update() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseID(chi.URLParam(r, "id"))
		if err != nil {
			res.rs.Error(w, r, err)
			return
		}
		caller := requestctx.Caller(r.Context())
		var form F
		err = validators.DecodeForm(r, &form)
		if err == nil {
			_, err = res.Service.UpdateFrom(r.Context(), caller, id, form)
		}
		if err != nil {
			res.formFailed(w, r, res.editPath(id), "title.edit", form, err)
			return
		}
		res.rs.Redirect(w, r, res.Path, requestctx.Success(fmt.Sprintf(msgUpdated, res.Entity)))
	}
}

// Delete removes one of the caller's records. A record still referenced by
// others stays and the list shows why.
func (res *Resource[E, F]) Delete() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseID(chi.URLParam(r, "id"))
		if err != nil {
			res.rs.Error(w, r, err)
			return
		}
		err = res.Service.Delete(r.Context(), requestctx.Caller(r.Context()), id)
		switch {
		case pkgerrors.IsCode(err, pkgerrors.CodeConflict):
			res.rs.Redirect(w, r, res.Path, requestctx.Failure(responses.PublicMessage(err)))
		case err != nil:
			res.rs.Error(w, r, err)
		default:
			res.rs.Redirect(w, r, res.Path, requestctx.Success(fmt.Sprintf(msgDeleted, res.Entity)))
		}
	}
}

func (res *Resource[E, F]) editPath(id uint64) string {
	return res.Path + "/" + strconv.FormatUint(id, 10) + "/edit"
}

// formFailed re-renders the submitted form with 400 for validation errors.
// Any other failure goes to the error page.
func (res *Resource[E, F]) formFailed(w http.ResponseWriter, r *http.Request, action, titleKey string, form F, err error) {
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		res.rs.Error(w, r, err)
		return
	}
	choices, cerr := res.Service.Choices(r.Context(), requestctx.Caller(r.Context()))
	if cerr != nil {
		res.rs.Error(w, r, cerr)
		return
	}
	state := FormState[F]{Form: form, Choices: choices, Errors: pkgerrors.FieldsOf(err)}
	res.renderForm(w, r, http.StatusBadRequest, action, titleKey, state, responses.PublicMessage(err))
}

func (res *Resource[E, F]) renderForm(w http.ResponseWriter, r *http.Request, status int, action, titleKey string, st FormState[F], message string) {
	locale := requestctx.From(r.Context()).Locale
	view := views.FormView{
		Action: action,
		Error:  message,
		Inputs: res.Inputs(locale, st),
		Submit: i18n.T(locale, "action.save"),
		Links:  []views.Link{{Label: i18n.T(locale, res.Title), URL: res.Path}},
	}
	title := fmt.Sprintf(i18n.T(locale, titleKey), i18n.T(locale, res.Title))
	res.rs.Render(w, r, status, views.PageForm, title, view)
}

// listView builds the table chrome shared by every list page: sortable
// headers, total and pager. Rows are left to the caller.
func listView[E any](basePath, locale string, columns []Column, page *pagination.Page[E]) views.ListView {
	view := views.ListView{
		BasePath: basePath,
		Filter:   page.Filter,
		SortBy:   page.SortBy,
		Order:    page.Order,
		Total:    page.TotalCount,
	}
	for _, c := range columns {
		col := views.Column{Label: i18n.T(locale, c.Label)}
		if c.Key != "" {
			order := pagination.DirectionAsc
			if c.Key == page.SortBy {
				col.Active = true
				col.Order = page.Order
				if page.Order == pagination.DirectionAsc {
					order = pagination.DirectionDesc
				}
			}
			col.SortURL = basePath + "?" + listQuery(page.Filter, c.Key, order, 0).Encode()
		}
		view.Columns = append(view.Columns, col)
	}
	for _, n := range page.Pages() {
		view.Pages = append(view.Pages, views.PageLink{
			Number:  n + 1,
			URL:     basePath + "?" + listQuery(page.Filter, page.SortBy, page.Order, n).Encode(),
			Current: n == page.Page,
		})
	}
	if page.HasPrevious() {
		view.PreviousURL = basePath + "?" + listQuery(page.Filter, page.SortBy, page.Order, page.Page-1).Encode()
	}
	if page.HasNext() {
		view.NextURL = basePath + "?" + listQuery(page.Filter, page.SortBy, page.Order, page.Page+1).Encode()
	}
	return view
}

// listQuery encodes list parameters. A negative page is left out.
func listQuery(filter, sortBy, order string, page int) url.Values {
	q := url.Values{}
	if page >= 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if sortBy != "" {
		q.Set("sortBy", sortBy)
	}
	if order != "" {
		q.Set("order", order)
	}
	if filter != "" {
		q.Set("filter", filter)
	}
	return q
}

// selectOptions turns stored options into select entries, marking selected.
func selectOptions(options []repo.Option, selected string) []views.Option {
	out := make([]views.Option, 0, len(options))
	for _, o := range options {
		value := strconv.FormatUint(o.ID, 10)
		out = append(out, views.Option{Value: value, Label: o.Label, Selected: value == selected})
	}
	return out
}
