package responses

import (
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/angelmondragon/agridiary/api/requestctx"
)

// FlashCookie holds the message shown on the next rendered page.
const FlashCookie = "AGRIDIARY_FLASH"

func SetFlash(w http.ResponseWriter, flash *requestctx.Flash) {
	raw, err := json.Marshal(flash)
	if err != nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     FlashCookie,
		Value:    base64.RawURLEncoding.EncodeToString(raw),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// ReadFlash decodes the pending flash. Tampered or malformed cookies read as none.
func ReadFlash(r *http.Request) *requestctx.Flash {
	cookie, err := r.Cookie(FlashCookie)
	if err != nil || cookie.Value == "" {
		return nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(cookie.Value)
	if err != nil {
		return nil
	}
	var flash requestctx.Flash
	if err := json.Unmarshal(raw, &flash); err != nil || flash.Message == "" {
		return nil
	}
	if flash.Kind != requestctx.FlashError {
		flash.Kind = requestctx.FlashSuccess
	}
	return &flash
}

func ClearFlash(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     FlashCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
