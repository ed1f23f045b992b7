package responses

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/angelmondragon/agridiary/api/requestctx"
	"github.com/angelmondragon/agridiary/api/views"
	pkgerrors "github.com/angelmondragon/agridiary/pkg/errors"
	"github.com/angelmondragon/agridiary/pkg/logger"
)

// LoginPath is where unauthenticated visitors are sent.
const LoginPath = "/login"

// Responder writes the HTML pages, redirects and error pages of the site.
type Responder struct {
	views views.Renderer
	logg  *logger.Logger
}

func New(renderer views.Renderer, logg *logger.Logger) *Responder {
	return &Responder{views: renderer, logg: logg}
}

// Render writes page name with status, filling the shared page data from
// the request context.
func (rs *Responder) Render(w http.ResponseWriter, r *http.Request, status int, name, title string, content any) {
	v := requestctx.From(r.Context())
	page := views.Page{
		Title:   title,
		Locale:  v.Locale,
		User:    v.User,
		Flash:   v.Flash,
		Site:    v.Site,
		Content: content,
	}

	var buf bytes.Buffer
	if err := rs.views.Render(&buf, name, page); err != nil {
		if rs.logg != nil {
			rs.logg.Error(rs.logg.WithField(r.Context(), "page", name), "render.failed", err)
		}
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// Redirect sends a 303 to target carrying flash to the next page.
func (rs *Responder) Redirect(w http.ResponseWriter, r *http.Request, target string, flash *requestctx.Flash) {
	if flash != nil {
		SetFlash(w, flash)
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// Error resolves err to a response. Authentication failures redirect to the
// login page with the message as flash; everything else renders the error
// page with the status of the error code.
func (rs *Responder) Error(w http.ResponseWriter, r *http.Request, err error) {
	typed := typedError(err)
	rs.log(r.Context(), err, typed)

	if typed.Code() == pkgerrors.CodeUnauthorized {
		rs.Redirect(w, r, LoginPath, requestctx.Failure(PublicMessage(typed)))
		return
	}
	meta := pkgerrors.MetadataFor(typed.Code())
	rs.Render(w, r, meta.HTTPStatus, views.PageError, "エラー", views.ErrorView{
		Status:  meta.HTTPStatus,
		Message: PublicMessage(typed),
	})
}

// PublicMessage is the text shown to the user for err. Not-found, internal
// and dependency failures always show the generic text of their code.
func PublicMessage(err error) string {
	typed := typedError(err)
	meta := pkgerrors.MetadataFor(typed.Code())
	switch typed.Code() {
	case pkgerrors.CodeValidation,
		pkgerrors.CodeForbidden,
		pkgerrors.CodeUnauthorized,
		pkgerrors.CodeConflict,
		pkgerrors.CodeRateLimit:
		if m := typed.Message(); m != "" {
			return m
		}
	}
	return meta.PublicMessage
}

// Status is the HTTP status for err.
func Status(err error) int {
	return pkgerrors.MetadataFor(typedError(err).Code()).HTTPStatus
}

// WriteJSON writes payload as JSON. It serves the health probes.
func WriteJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf(`{"level":"error","msg":"failed to encode response","err":"%v"}`, err)
	}
}

func (rs *Responder) log(ctx context.Context, err error, typed *pkgerrors.Error) {
	if rs.logg == nil {
		return
	}
	fields := pkgerrors.Diagnose(err).LogFields()
	ctx = rs.logg.WithFields(ctx, fields)
	if pkgerrors.MetadataFor(typed.Code()).HTTPStatus >= http.StatusInternalServerError {
		rs.logg.Error(ctx, "request.error", err)
		return
	}
	rs.logg.Warn(ctx, "request.error")
}

func typedError(err error) *pkgerrors.Error {
	if err == nil {
		err = errors.New("unknown error")
	}
	if typed := pkgerrors.As(err); typed != nil {
		return typed
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "unexpected error")
}
