package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spec-kit/support-desk/internal/config"
)

func TestNewMailerPicksImplementation(t *testing.T) {
	assert.IsType(t, &LogMailer{}, NewMailer(config.NotificationConfig{}, zap.NewNop()))
	assert.IsType(t, &SMTPMailer{}, NewMailer(config.NotificationConfig{SMTPHost: "smtp.example.com", SMTPPort: 587}, zap.NewNop()))
}

func TestLogMailerLogsSubject(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	mailer := NewMailer(config.NotificationConfig{EmailFrom: "desk@example.com"}, zap.New(core))

	require.NoError(t, mailer.Send(context.Background(), "owner@example.com", "Ticket #4 is now resolved", "body"))
	entries := logs.FilterMessage("email notification").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "owner@example.com", entries[0].ContextMap()["to"])
}

func TestWebhookPostsJSON(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	hook := NewWebhook(srv.URL, time.Second)
	require.NoError(t, hook.Post(context.Background(), map[string]any{"type": "ticket_created"}))
	assert.Equal(t, "ticket_created", got["type"])
}

func TestWebhookFailsOnErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	err := NewWebhook(srv.URL, time.Second).Post(context.Background(), map[string]string{})
	assert.EqualError(t, err, "webhook: unexpected status 502")

	var disabled *Webhook
	assert.NoError(t, disabled.Post(context.Background(), nil))
	assert.Nil(t, NewWebhook("", time.Second))
}
