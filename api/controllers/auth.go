package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/agridiary/api/requestctx"
	"github.com/angelmondragon/agridiary/api/responses"
	"github.com/angelmondragon/agridiary/api/validators"
	"github.com/angelmondragon/agridiary/api/views"
	"github.com/angelmondragon/agridiary/internal/auth"
	"github.com/angelmondragon/agridiary/internal/notifications"
	"github.com/angelmondragon/agridiary/pkg/auth/session"
	"github.com/angelmondragon/agridiary/pkg/db/models"
	pkgerrors "github.com/angelmondragon/agridiary/pkg/errors"
	"github.com/angelmondragon/agridiary/pkg/i18n"
)

// HomePath is where a signed-in user lands.
const HomePath = "/crops"

// AccountService is what the sign-in pages need from the account service.
type AccountService interface {
	Login(ctx context.Context, form auth.LoginForm, origin notifications.Origin) (*auth.Session, error)
	Register(ctx context.Context, form auth.RegisterForm, origin notifications.Origin) (*auth.Session, error)
	Logout(ctx context.Context, token string) error
	Forgot(ctx context.Context, form auth.ForgotForm, origin notifications.Origin) error
	CheckResetToken(ctx context.Context, token string) (*models.User, error)
	Reset(ctx context.Context, form auth.ResetForm) error
}

func AuthLoginPage(rs *responses.Responder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		renderLogin(w, r, rs, http.StatusOK, auth.LoginForm{}, "")
	}
}

// AuthLogin signs the user in. Wrong credentials re-render the page with the
// same message whichever part was wrong.
func AuthLogin(svc AccountService, cookies session.Cookies, rs *responses.Responder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var form auth.LoginForm
		if err := validators.DecodeForm(r, &form); err != nil {
			renderLogin(w, r, rs, http.StatusBadRequest, form, auth.MsgInvalidCredentials)
			return
		}
		sess, err := svc.Login(r.Context(), form, requestctx.From(r.Context()).Origin)
		if err != nil {
			if pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
				renderLogin(w, r, rs, http.StatusBadRequest, form, responses.PublicMessage(err))
				return
			}
			rs.Error(w, r, err)
			return
		}
		cookies.Write(w, sess.Token)
		rs.Redirect(w, r, HomePath, requestctx.Success(auth.MsgLoggedIn))
	}
}

func AuthRegisterPage(rs *responses.Responder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		renderRegister(w, r, rs, http.StatusOK, auth.RegisterForm{}, nil, "")
	}
}

// AuthRegister creates the account and signs it in.
func AuthRegister(svc AccountService, cookies session.Cookies, rs *responses.Responder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var form auth.RegisterForm
		err := validators.DecodeForm(r, &form)
		var sess *auth.Session
		if err == nil {
			sess, err = svc.Register(r.Context(), form, requestctx.From(r.Context()).Origin)
		}
		if err != nil {
			if pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
				renderRegister(w, r, rs, http.StatusBadRequest, form, pkgerrors.FieldsOf(err), responses.PublicMessage(err))
				return
			}
			rs.Error(w, r, err)
			return
		}
		cookies.Write(w, sess.Token)
		rs.Redirect(w, r, HomePath, requestctx.Success(auth.MsgRegistered))
	}
}

// AuthLogout revokes the session, if any, and clears the cookie.
func AuthLogout(svc AccountService, cookies session.Cookies, rs *responses.Responder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if token, ok := cookies.Read(r); ok {
			if err := svc.Logout(r.Context(), token); err != nil {
				rs.Error(w, r, err)
				return
			}
		}
		cookies.Clear(w)
		rs.Redirect(w, r, responses.LoginPath, requestctx.Success(auth.MsgLoggedOut))
	}
}

func AuthForgotPage(rs *responses.Responder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		renderForgot(w, r, rs, http.StatusOK, auth.ForgotForm{}, nil, "")
	}
}

// AuthForgot starts a password reset. The response is the same whether or
// not the address belongs to an account.
func AuthForgot(svc AccountService, rs *responses.Responder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var form auth.ForgotForm
		if err := validators.DecodeForm(r, &form); err != nil {
			renderForgot(w, r, rs, http.StatusBadRequest, form, pkgerrors.FieldsOf(err), responses.PublicMessage(err))
			return
		}
		if err := svc.Forgot(r.Context(), form, requestctx.From(r.Context()).Origin); err != nil {
			rs.Error(w, r, err)
			return
		}
		rs.Redirect(w, r, responses.LoginPath, requestctx.Success(auth.MsgResetRequested))
	}
}

// AuthResetPage shows the new password form for a live token.
func AuthResetPage(svc AccountService, rs *responses.Responder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := r.URL.Query().Get("token")
		if _, err := svc.CheckResetToken(r.Context(), token); err != nil {
			resetFailed(w, r, rs, err)
			return
		}
		renderReset(w, r, rs, http.StatusOK, token, nil, "")
	}
}

func AuthReset(svc AccountService, rs *responses.Responder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var form auth.ResetForm
		err := validators.DecodeForm(r, &form)
		if err == nil {
			err = svc.Reset(r.Context(), form)
		}
		switch {
		case err == nil:
			rs.Redirect(w, r, responses.LoginPath, requestctx.Success(auth.MsgPasswordReset))
		case pkgerrors.IsCode(err, pkgerrors.CodeValidation) && form.Token != "":
			renderReset(w, r, rs, http.StatusBadRequest, form.Token, pkgerrors.FieldsOf(err), responses.PublicMessage(err))
		default:
			resetFailed(w, r, rs, err)
		}
	}
}

// resetFailed sends dead or missing tokens back to the login page.
func resetFailed(w http.ResponseWriter, r *http.Request, rs *responses.Responder, err error) {
	if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) || pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		rs.Redirect(w, r, responses.LoginPath, requestctx.Failure(auth.MsgInvalidResetToken))
		return
	}
	rs.Error(w, r, err)
}

func renderLogin(w http.ResponseWriter, r *http.Request, rs *responses.Responder, status int, form auth.LoginForm, message string) {
	locale := requestctx.From(r.Context()).Locale
	rs.Render(w, r, status, views.PageForm, i18n.T(locale, "nav.login"), views.FormView{
		Action: responses.LoginPath,
		Error:  message,
		Inputs: []views.Input{
			{Name: "username", Label: i18n.T(locale, "auth.username"), Type: "text", Value: form.Username, Required: true},
			{Name: "password", Label: i18n.T(locale, "auth.password"), Type: "password", Required: true},
		},
		Submit: i18n.T(locale, "nav.login"),
		Links: []views.Link{
			{Label: i18n.T(locale, "nav.register"), URL: "/register"},
			{Label: i18n.T(locale, "auth.forgot"), URL: "/forgot-password"},
		},
	})
}

func renderRegister(w http.ResponseWriter, r *http.Request, rs *responses.Responder, status int, form auth.RegisterForm, errs pkgerrors.FieldErrors, message string) {
	v := requestctx.From(r.Context())
	inputs := []views.Input{
		{Name: "username", Label: i18n.T(v.Locale, "auth.username"), Type: "text", Value: form.Username, Required: true, Error: errs["username"]},
		{Name: "email", Label: i18n.T(v.Locale, "auth.email"), Type: "email", Value: form.Email, Required: true, Error: errs["email"]},
		{Name: "password", Label: i18n.T(v.Locale, "auth.password"), Type: "password", Required: true, Error: errs["password"]},
		{Name: "confirmPassword", Label: i18n.T(v.Locale, "auth.password_confirm"), Type: "password", Required: true, Error: errs["confirmPassword"]},
	}
	if v.Site.TermsURL != "" {
		inputs = append(inputs, views.Input{
			Name:    "agreeTerms",
			Label:   i18n.T(v.Locale, "auth.agree_terms"),
			Type:    views.InputCheckbox,
			Checked: form.AgreeTerms,
			Error:   errs["agreeTerms"],
		})
	}
	rs.Render(w, r, status, views.PageForm, i18n.T(v.Locale, "nav.register"), views.FormView{
		Action: "/register",
		Error:  message,
		Inputs: inputs,
		Submit: i18n.T(v.Locale, "nav.register"),
		Links:  []views.Link{{Label: i18n.T(v.Locale, "nav.login"), URL: responses.LoginPath}},
	})
}

func renderForgot(w http.ResponseWriter, r *http.Request, rs *responses.Responder, status int, form auth.ForgotForm, errs pkgerrors.FieldErrors, message string) {
	locale := requestctx.From(r.Context()).Locale
	rs.Render(w, r, status, views.PageForm, i18n.T(locale, "auth.forgot_title"), views.FormView{
		Action: "/forgot-password",
		Error:  message,
		Inputs: []views.Input{
			{Name: "email", Label: i18n.T(locale, "auth.email"), Type: "email", Value: form.Email, Required: true, Error: errs["email"]},
		},
		Submit: i18n.T(locale, "auth.send"),
		Links:  []views.Link{{Label: i18n.T(locale, "nav.login"), URL: responses.LoginPath}},
	})
}

func renderReset(w http.ResponseWriter, r *http.Request, rs *responses.Responder, status int, token string, errs pkgerrors.FieldErrors, message string) {
	locale := requestctx.From(r.Context()).Locale
	rs.Render(w, r, status, views.PageForm, i18n.T(locale, "auth.reset_title"), views.FormView{
		Action: "/reset-password",
		Error:  message,
		Hidden: []views.Input{{Name: "token", Value: token}},
		Inputs: []views.Input{
			{Name: "password", Label: i18n.T(locale, "auth.password"), Type: "password", Required: true, Error: errs["password"]},
			{Name: "confirmPassword", Label: i18n.T(locale, "auth.password_confirm"), Type: "password", Required: true, Error: errs["confirmPassword"]},
		},
		Submit: i18n.T(locale, "action.save"),
	})
}
