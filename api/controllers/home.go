package controllers

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/agridiary/api/middleware"
	"github.com/angelmondragon/agridiary/pkg/i18n"
)

const localeCookieMaxAge = 365 * 24 * 60 * 60

func Home() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, HomePath, http.StatusSeeOther)
	}
}

// Language stores the chosen UI language and returns to the page the visitor
// came from. Unsupported codes are ignored.
func Language() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := chi.URLParam(r, "code")
		if i18n.Supported(code) {
			http.SetCookie(w, &http.Cookie{
				Name:     middleware.LocaleCookie,
				Value:    code,
				Path:     "/",
				MaxAge:   localeCookieMaxAge,
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}
		http.Redirect(w, r, backTo(r), http.StatusSeeOther)
	}
}

// backTo is the same-host path of the referer, or the home page.
func backTo(r *http.Request) string {
	ref, err := url.Parse(r.Referer())
	if err != nil || !strings.HasPrefix(ref.Path, "/") || strings.HasPrefix(ref.Path, "//") || (ref.Host != "" && ref.Host != r.Host) {
		return HomePath
	}
	if ref.RawQuery != "" {
		return ref.Path + "?" + ref.RawQuery
	}
	return ref.Path
}
