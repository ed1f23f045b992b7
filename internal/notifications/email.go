package notifications

import (
	"context"
	"fmt"
	"html"
	"net/url"
	"strings"

	"github.com/angelmondragon/agridiary/pkg/config"
	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

const (
	welcomeSubject = "農業日誌へようこそ！"
	resetSubject   = "パスワードリセットのご案内"
)

type mailSender interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

// EmailHook sends account emails through SendGrid.
type EmailHook struct {
	sender    mailSender
	from      *mail.Email
	resetBase string
}

// NewEmailHook returns nil unless both an API key and a sender address are configured.
func NewEmailHook(cfg config.SendgridConfig, app config.AppConfig) *EmailHook {
	if cfg.APIKey == "" || cfg.FromEmail == "" {
		return nil
	}
	return &EmailHook{
		sender:    sendgrid.NewSendClient(cfg.APIKey),
		from:      mail.NewEmail(cfg.FromName, cfg.FromEmail),
		resetBase: app.PublicURL("/reset-password"),
	}
}

func (h *EmailHook) Name() string { return "email" }

func (h *EmailHook) Handle(ctx context.Context, ev Event) error {
	if ev.Actor.Email == "" {
		return nil
	}
	var subject, text, body string
	switch ev.Kind {
	case KindUserRegistered:
		subject = welcomeSubject
		text, body = welcomeBody(ev.Actor.Username)
	case KindPasswordResetRequested:
		if ev.ResetToken == "" {
			return fmt.Errorf("reset email for user %d has no token", ev.Actor.ID)
		}
		subject = resetSubject
		text, body = resetBody(ev.Actor.Username, h.resetURL(ev.ResetToken))
	default:
		return nil
	}

	message := mail.NewSingleEmail(h.from, subject, mail.NewEmail(ev.Actor.Username, ev.Actor.Email), text, body)
	resp, err := h.sender.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("send %s email: %w", ev.Kind, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("send %s email: sendgrid status %d: %s", ev.Kind, resp.StatusCode, resp.Body)
	}
	return nil
}

func (h *EmailHook) resetURL(token string) string {
	return h.resetBase + "?token=" + url.QueryEscape(token)
}

// mailBody holds the plain text and HTML renditions of one message.
type mailBody struct {
	text strings.Builder
	html strings.Builder
}

func newMailBody(title string) *mailBody {
	b := &mailBody{}
	b.text.WriteString(title + "\n\n")
	b.html.WriteString(`<!DOCTYPE html><html><head><meta charset="UTF-8"></head><body>`)
	b.html.WriteString("<h2>" + html.EscapeString(title) + "</h2>")
	return b
}

func (b *mailBody) para(lines ...string) *mailBody {
	b.text.WriteString(strings.Join(lines, "\n") + "\n\n")
	escaped := make([]string, len(lines))
	for i, line := range lines {
		escaped[i] = html.EscapeString(line)
	}
	b.html.WriteString("<p>" + strings.Join(escaped, "<br>") + "</p>")
	return b
}

func (b *mailBody) link(href string) *mailBody {
	b.text.WriteString(href + "\n\n")
	escaped := html.EscapeString(href)
	b.html.WriteString(`<p><a href="` + escaped + `">` + escaped + "</a></p>")
	return b
}

func (b *mailBody) done() (string, string) {
	b.html.WriteString("</body></html>")
	return strings.TrimSpace(b.text.String()), b.html.String()
}

func welcomeBody(username string) (string, string) {
	return newMailBody(welcomeSubject).
		para(username + " さん、").
		para("農業日誌にご登録いただき、ありがとうございます。", "これから農業活動の記録をお楽しみください。").
		para("何かご質問がございましたら、お気軽にお問い合わせください。").
		para("よろしくお願いいたします。", "農業日誌チーム").
		done()
}

func resetBody(username, href string) (string, string) {
	return newMailBody(resetSubject).
		para(username + " さん、").
		para("パスワードリセットのリクエストを受け付けました。", "下記のURLをクリックして、新しいパスワードを設定してください：").
		link(href).
		para("このリンクは24時間有効です。", "もしこのリクエストにお心当たりがない場合は、このメールを無視してください。").
		para("よろしくお願いいたします。", "農業日誌チーム").
		done()
}
