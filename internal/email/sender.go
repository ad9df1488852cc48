package email

import (
	"context"
	"fmt"
	"time"

	"gearshare-backend/internal/config"
	"gearshare-backend/internal/logger"
	"gearshare-backend/internal/metrics"
	"gearshare-backend/internal/repository"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// Message is one outbound HTML email. From and FromName default to the
// configured sender.
type Message struct {
	To       string
	ToName   string
	From     string
	FromName string
	Subject  string
	HTML     string
}

// Sender delivers a message and returns the provider message id.
type Sender interface {
	Send(ctx context.Context, msg Message) (string, error)
}

type SendGridSender struct {
	apiKey   string
	host     string
	from     string
	fromName string
}

func NewSendGridSender(cfg config.EmailConfig) *SendGridSender {
	return &SendGridSender{
		apiKey:   cfg.SendGridAPIKey,
		host:     cfg.Host,
		from:     cfg.From,
		fromName: cfg.FromName,
	}
}

func (s *SendGridSender) Send(ctx context.Context, msg Message) (id string, err error) {
	started := time.Now()
	logger.ExternalServiceCall(repository.BackendEmail, "Send", "to", msg.To, "subject", msg.Subject)
	defer func() {
		metrics.ObserveBackendCall(repository.BackendEmail, "Send", time.Since(started).Seconds(), err)
		logger.ExternalServiceResult(repository.BackendEmail, "Send", started, err, "message_id", id)
	}()

	fromAddr, fromName := msg.From, msg.FromName
	if fromAddr == "" {
		fromAddr, fromName = s.from, s.fromName
	}
	from := mail.NewEmail(fromName, fromAddr)
	to := mail.NewEmail(msg.ToName, msg.To)
	message := mail.NewV3Mail()
	message.SetFrom(from)
	message.Subject = msg.Subject
	personalization := mail.NewPersonalization()
	personalization.AddTos(to)
	message.AddPersonalizations(personalization)
	message.AddContent(mail.NewContent("text/html", msg.HTML))

	request := sendgrid.GetRequest(s.apiKey, "/v3/mail/send", s.host)
	request.Method = "POST"
	request.Body = mail.GetRequestBody(message)

	response, err := sendgrid.MakeRequestWithContext(ctx, request)
	if err != nil {
		return "", fmt.Errorf("failed to send email: %w", err)
	}
	if response.StatusCode >= 400 {
		return "", fmt.Errorf("sendgrid error: status %d, body: %s", response.StatusCode, response.Body)
	}

	if ids := response.Headers["X-Message-Id"]; len(ids) > 0 {
		return ids[0], nil
	}
	return "", nil
}

// NewSender returns the sender for cfg.Provider.
func NewSender(cfg config.EmailConfig) Sender {
	if cfg.Provider == "smtp" {
		return NewSMTPSender(cfg)
	}
	return NewSendGridSender(cfg)
}
