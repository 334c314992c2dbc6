package mailer

import (
	"context"
	"errors"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"

	"github.com/smartmed/smartmed-api/internal/config"
)

var ErrNotConfigured = errors.New("email sending is not configured")

// Message is one outbound transactional email. When TemplateID is set
// the named Params (including the rendered HTML body) are submitted as
// dynamic template data; otherwise HTMLBody is sent directly.
type Message struct {
	ToName     string
	ToAddress  string
	Subject    string
	PlainText  string
	HTMLBody   string
	TemplateID string
	Params     map[string]any
}

// Sender is the boundary to the transactional-email collaborator.
type Sender interface {
	Send(ctx context.Context, msg *Message) error
}

type SendGridMailer struct {
	cfg config.EmailConfig
	log *zap.Logger
}

func NewSendGrid(cfg config.EmailConfig, log *zap.Logger) *SendGridMailer {
	return &SendGridMailer{cfg: cfg, log: log}
}

func (m *SendGridMailer) Send(ctx context.Context, msg *Message) error {
	if m.cfg.SendGridAPIKey == "" {
		return ErrNotConfigured
	}

	from := mail.NewEmail(m.cfg.FromName, m.cfg.FromAddress)
	to := mail.NewEmail(msg.ToName, msg.ToAddress)

	var message *mail.SGMailV3
	if msg.TemplateID != "" {
		message = mail.NewV3Mail()
		message.SetFrom(from)
		message.SetTemplateID(msg.TemplateID)
		p := mail.NewPersonalization()
		p.AddTos(to)
		for k, v := range msg.Params {
			p.SetDynamicTemplateData(k, v)
		}
		p.SetDynamicTemplateData("html_body", msg.HTMLBody)
		message.AddPersonalizations(p)
	} else {
		message = mail.NewSingleEmail(from, msg.Subject, to, msg.PlainText, msg.HTMLBody)
	}

	client := sendgrid.NewSendClient(m.cfg.SendGridAPIKey)
	response, err := client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sending email: %w", err)
	}

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return fmt.Errorf("email provider returned status %d: %s", response.StatusCode, response.Body)
	}

	m.log.Info("email sent",
		zap.String("to", msg.ToAddress),
		zap.Int("status_code", response.StatusCode),
	)
	return nil
}
