package notifications

import (
	"context"
	"fmt"

	"github.com/slack-go/slack"
)

type webhookPoster func(ctx context.Context, url string, msg *slack.WebhookMessage) error

// SlackHook posts activity to an incoming webhook.
type SlackHook struct {
	url  string
	post webhookPoster
}

// NewSlackHook returns nil when url is empty so the dispatcher skips it.
func NewSlackHook(url string) *SlackHook {
	if url == "" {
		return nil
	}
	return &SlackHook{url: url, post: slack.PostWebhookContext}
}

func (h *SlackHook) Name() string { return "slack" }

func (h *SlackHook) Handle(ctx context.Context, ev Event) error {
	text, ok := slackText(ev)
	if !ok {
		return nil
	}
	msg := &slack.WebhookMessage{
		Text: text,
		Attachments: []slack.Attachment{{
			Color: "good",
			Fields: []slack.AttachmentField{
				{
					Title: "ユーザー情報",
					Value: fmt.Sprintf("ID: %s\nユーザー名: %s\nメール: %s", ev.Actor.IDString(), ev.Actor.Username, ev.Actor.Email),
					Short: true,
				},
				{
					Title: "リクエスト情報",
					Value: fmt.Sprintf("IP: %s\nUser-Agent: %s", orUnknown(ev.Origin.IP), orUnknown(ev.Origin.UserAgent)),
					Short: true,
				},
			},
		}},
	}
	if err := h.post(ctx, h.url, msg); err != nil {
		return fmt.Errorf("post slack webhook: %w", err)
	}
	return nil
}

func slackText(ev Event) (string, bool) {
	switch ev.Kind {
	case KindUserRegistered:
		return fmt.Sprintf("🆕 *新規ユーザー登録* - %s (%s)", ev.Actor.Username, ev.Actor.Email), true
	case KindUserLoggedIn:
		return fmt.Sprintf("🔐 *ユーザーログイン* - %s", ev.Actor.Username), true
	case KindDataCreated:
		return fmt.Sprintf("➕ *%s作成* - %s (作成者: %s)", ev.Entity, ev.Subject, ev.Actor.Username), true
	case KindDataUpdated:
		return fmt.Sprintf("✏️ *%s更新* - %s (更新者: %s)", ev.Entity, ev.Subject, ev.Actor.Username), true
	case KindDataDeleted:
		return fmt.Sprintf("🗑️ *%s削除* - %s (削除者: %s)", ev.Entity, ev.Subject, ev.Actor.Username), true
	}
	return "", false
}

func orUnknown(value string) string {
	if value == "" {
		return "Unknown"
	}
	return value
}
