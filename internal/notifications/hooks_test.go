package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/angelmondragon/agridiary/pkg/config"
	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/slack-go/slack"
	"github.com/stretchr/testify/require"
)

func TestSlackHookPostsWebhookPayload(t *testing.T) {
	var payload slack.WebhookMessage
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &payload)
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	hook := NewSlackHook(server.URL)
	err := hook.Handle(context.Background(), Event{
		Kind:    KindDataDeleted,
		Entity:  "圃場",
		Subject: "北の畑",
		Actor:   Actor{ID: 7, Username: "hanako", Email: "hanako@example.com"},
		Origin:  Origin{IP: "203.0.113.9"},
	})
	require.NoError(t, err)
	require.Equal(t, "🗑️ *圃場削除* - 北の畑 (削除者: hanako)", payload.Text)
	require.Len(t, payload.Attachments, 1)
	fields := payload.Attachments[0].Fields
	require.Len(t, fields, 2)
	require.Contains(t, fields[0].Value, "ID: 7")
	require.Contains(t, fields[1].Value, "IP: 203.0.113.9")
	require.Contains(t, fields[1].Value, "User-Agent: Unknown")
}

func TestSlackHookSkipsUnannouncedEventsAndReportsFailures(t *testing.T) {
	require.Nil(t, NewSlackHook(""))

	calls := 0
	hook := &SlackHook{url: "https://hooks.example", post: func(context.Context, string, *slack.WebhookMessage) error {
		calls++
		return errors.New("503")
	}}
	require.NoError(t, hook.Handle(context.Background(), Event{Kind: KindPasswordResetRequested}))
	require.Zero(t, calls)

	err := hook.Handle(context.Background(), Event{Kind: KindUserRegistered, Actor: Actor{Username: "a", Email: "a@example.com"}})
	require.Error(t, err)
	require.Equal(t, 1, calls)
}

type stubSender struct {
	status int
	err    error
	sent   []*mail.SGMailV3
}

func (s *stubSender) SendWithContext(_ context.Context, m *mail.SGMailV3) (*rest.Response, error) {
	s.sent = append(s.sent, m)
	if s.err != nil {
		return nil, s.err
	}
	return &rest.Response{StatusCode: s.status, Body: "{}"}, nil
}

func newTestEmailHook(sender mailSender) *EmailHook {
	hook := NewEmailHook(
		config.SendgridConfig{APIKey: "key", FromEmail: "noreply@example.com", FromName: "Open Agriculture Diary"},
		config.AppConfig{BaseURL: "https://diary.example.com/"},
	)
	hook.sender = sender
	return hook
}

func TestEmailHookSendsResetLink(t *testing.T) {
	sender := &stubSender{status: http.StatusAccepted}
	hook := newTestEmailHook(sender)

	err := hook.Handle(context.Background(), Event{
		Kind:       KindPasswordResetRequested,
		Actor:      Actor{ID: 3, Username: "taro", Email: "taro@example.com"},
		ResetToken: "abc-123",
	})
	require.NoError(t, err)
	require.Len(t, sender.sent, 1)

	msg := sender.sent[0]
	require.Equal(t, resetSubject, msg.Subject)
	require.Equal(t, "taro@example.com", msg.Personalizations[0].To[0].Address)
	var plain, htmlBody string
	for _, c := range msg.Content {
		switch c.Type {
		case "text/plain":
			plain = c.Value
		case "text/html":
			htmlBody = c.Value
		}
	}
	require.Contains(t, plain, "https://diary.example.com/reset-password?token=abc-123")
	require.True(t, strings.Contains(htmlBody, `href="https://diary.example.com/reset-password?token=abc-123"`))
}

func TestEmailHookWelcomeAndFailures(t *testing.T) {
	require.Nil(t, NewEmailHook(config.SendgridConfig{}, config.AppConfig{}))

	sender := &stubSender{status: http.StatusAccepted}
	hook := newTestEmailHook(sender)
	require.NoError(t, hook.Handle(context.Background(), Event{Kind: KindUserRegistered, Actor: Actor{Username: "taro", Email: "taro@example.com"}}))
	require.Equal(t, welcomeSubject, sender.sent[0].Subject)

	require.NoError(t, hook.Handle(context.Background(), Event{Kind: KindDataCreated, Actor: Actor{Email: "taro@example.com"}}))
	require.Len(t, sender.sent, 1)

	sender.status = http.StatusUnauthorized
	require.Error(t, hook.Handle(context.Background(), Event{Kind: KindUserRegistered, Actor: Actor{Username: "taro", Email: "taro@example.com"}}))

	require.Error(t, hook.Handle(context.Background(), Event{Kind: KindPasswordResetRequested, Actor: Actor{Email: "taro@example.com"}}))
}
