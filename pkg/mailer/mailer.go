package mailer

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fishtech/fishtech-backend/pkg/config"
	"github.com/fishtech/fishtech-backend/pkg/logger"
)

// Mailer sends outbound mail with optional file attachments.
// Attachment entries are paths on the local filesystem.
type Mailer interface {
	Send(ctx context.Context, to []string, subject, body string, attachments []string) error
}

// SendgridMailer sends mail through the SendGrid v3 HTTP API.
type SendgridMailer struct {
	cfg        config.MailConfig
	httpClient *http.Client
	logger     *logger.Logger
}

// NewSendgrid creates a SendGrid-backed mailer
func NewSendgrid(cfg config.MailConfig, log *logger.Logger) *SendgridMailer {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = "https://api.sendgrid.com"
	}
	cfg.BaseURL = baseURL

	return &SendgridMailer{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     log.WithComponent("mailer"),
	}
}

type emailAddress struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type personalization struct {
	To []emailAddress `json:"to"`
}

type mailContent struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type sgAttachment struct {
	Content     string `json:"content"`
	Type        string `json:"type,omitempty"`
	Filename    string `json:"filename"`
	Disposition string `json:"disposition,omitempty"`
}

type mailSendRequest struct {
	Personalizations []personalization `json:"personalizations"`
	From             emailAddress      `json:"from"`
	Subject          string            `json:"subject"`
	Content          []mailContent     `json:"content"`
	Attachments      []sgAttachment    `json:"attachments,omitempty"`
}

// Send posts a plain-text message to SendGrid. Each attachment path is
// read from disk and base64-encoded into the request body.
func (m *SendgridMailer) Send(ctx context.Context, to []string, subject, body string, attachments []string) error {
	if len(to) == 0 {
		return fmt.Errorf("mailer: at least one recipient required")
	}
	if m.cfg.APIKey == "" {
		return fmt.Errorf("mailer: api key not configured")
	}

	recipients := make([]emailAddress, 0, len(to))
	for _, addr := range to {
		addr = strings.TrimSpace(addr)
		if addr == "" {
			continue
		}
		recipients = append(recipients, emailAddress{Email: addr})
	}
	if len(recipients) == 0 {
		return fmt.Errorf("mailer: at least one recipient required")
	}

	atts, err := buildAttachments(attachments)
	if err != nil {
		return err
	}

	payload := mailSendRequest{
		Personalizations: []personalization{{To: recipients}},
		From: emailAddress{
			Email: m.cfg.FromEmail,
			Name:  m.cfg.FromName,
		},
		Subject:     subject,
		Content:     []mailContent{{Type: "text/plain", Value: body}},
		Attachments: atts,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		return fmt.Errorf("mailer: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.cfg.BaseURL+"/v3/mail/send", &buf)
	if err != nil {
		return fmt.Errorf("mailer: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+m.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("mailer: send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		m.logger.Error().
			Int("status", resp.StatusCode).
			Str("body", string(raw)).
			Msg("sendgrid rejected mail")
		return fmt.Errorf("mailer: sendgrid returned status %d", resp.StatusCode)
	}

	m.logger.Info().
		Int("recipients", len(recipients)).
		Int("attachments", len(atts)).
		Str("subject", subject).
		Msg("mail sent")
	return nil
}

func buildAttachments(paths []string) ([]sgAttachment, error) {
	if len(paths) == 0 {
		return nil, nil
	}

	out := make([]sgAttachment, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("mailer: read attachment %s: %w", filepath.Base(p), err)
		}

		mimeType := mime.TypeByExtension(filepath.Ext(p))
		if mimeType == "" {
			mimeType = "application/octet-stream"
		}

		out = append(out, sgAttachment{
			Content:     base64.StdEncoding.EncodeToString(data),
			Type:        mimeType,
			Filename:    filepath.Base(p),
			Disposition: "attachment",
		})
	}
	return out, nil
}
