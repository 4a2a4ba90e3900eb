package mailer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fishtech/fishtech-backend/pkg/config"
	"github.com/fishtech/fishtech-backend/pkg/logger"
)

func newTestMailer(t *testing.T, handler http.HandlerFunc) *SendgridMailer {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewSendgrid(config.MailConfig{
		APIKey:    "sg_test_key",
		FromEmail: "documents@fishtech.local",
		FromName:  "FishTech Documents",
		BaseURL:   srv.URL,
	}, logger.New("mailer-test", "test"))
}

func TestSend_PostsMailWithAttachment(t *testing.T) {
	attachment := filepath.Join(t.TempDir(), "invoice.pdf")
	require.NoError(t, os.WriteFile(attachment, []byte("%PDF-1.4 test"), 0o644))

	var captured mailSendRequest
	m := newTestMailer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v3/mail/send", r.URL.Path)
		assert.Equal(t, "Bearer sg_test_key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.WriteHeader(http.StatusAccepted)
	})

	err := m.Send(context.Background(), []string{"buyer@example.com"}, "Order SO-1001 documents", "Attached.", []string{attachment})
	require.NoError(t, err)

	require.Len(t, captured.Personalizations, 1)
	assert.Equal(t, "buyer@example.com", captured.Personalizations[0].To[0].Email)
	assert.Equal(t, "documents@fishtech.local", captured.From.Email)
	require.Len(t, captured.Attachments, 1)
	assert.Equal(t, "invoice.pdf", captured.Attachments[0].Filename)
	assert.Equal(t, "application/pdf", captured.Attachments[0].Type)
	assert.NotEmpty(t, captured.Attachments[0].Content)
}

func TestSend_RejectsEmptyRecipients(t *testing.T) {
	m := newTestMailer(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	})

	err := m.Send(context.Background(), nil, "subject", "body", nil)
	assert.Error(t, err)

	err = m.Send(context.Background(), []string{"  "}, "subject", "body", nil)
	assert.Error(t, err)
}

func TestSend_SurfacesAPIFailure(t *testing.T) {
	m := newTestMailer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	err := m.Send(context.Background(), []string{"buyer@example.com"}, "subject", "body", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}
