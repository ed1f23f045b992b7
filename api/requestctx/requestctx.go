// Package requestctx carries the per-request values every page needs: the
// signed-in user, locale, client origin, pending flash and site settings.
package requestctx

import (
	"context"

	"github.com/angelmondragon/agridiary/internal/notifications"
	"github.com/angelmondragon/agridiary/internal/records"
	"github.com/angelmondragon/agridiary/pkg/db/models"
	"github.com/angelmondragon/agridiary/pkg/i18n"
)

type contextKey struct{}

const (
	FlashSuccess = "success"
	FlashError   = "error"
)

// Flash is a one-shot message shown on the next rendered page.
type Flash struct {
	Kind    string `json:"k"`
	Message string `json:"m"`
}

// Success builds a success flash.
func Success(msg string) *Flash { return &Flash{Kind: FlashSuccess, Message: msg} }

// Failure builds an error flash.
func Failure(msg string) *Flash { return &Flash{Kind: FlashError, Message: msg} }

// Site holds the settings shared by every page.
type Site struct {
	GTMContainerID string
	TermsURL       string
	PrivacyURL     string
}

type Values struct {
	RequestID string
	User      *models.User
	Locale    string
	Origin    notifications.Origin
	Flash     *Flash
	Site      Site
}

// From returns the values attached to ctx. The locale defaults to Japanese.
func From(ctx context.Context) Values {
	var v Values
	if ctx != nil {
		if stored, ok := ctx.Value(contextKey{}).(Values); ok {
			v = stored
		}
	}
	if v.Locale == "" {
		v.Locale = i18n.Default
	}
	return v
}

func With(ctx context.Context, v Values) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, contextKey{}, v)
}

// Update applies fn to a copy of the values in ctx and returns the new context.
func Update(ctx context.Context, fn func(*Values)) context.Context {
	v := From(ctx)
	fn(&v)
	return With(ctx, v)
}

func User(ctx context.Context) *models.User { return From(ctx).User }

// Caller identifies the signed-in user for service calls.
func Caller(ctx context.Context) records.Caller {
	v := From(ctx)
	return records.CallerFor(v.User, v.Origin)
}
