package email

import (
	"context"
	"fmt"
	"time"

	"gearshare-backend/internal/config"
	"gearshare-backend/internal/logger"
	"gearshare-backend/internal/metrics"
	"gearshare-backend/internal/repository"

	"github.com/google/uuid"
	"gopkg.in/gomail.v2"
)

// dialer is the part of gomail.Dialer used here.
type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPSender delivers through a plain SMTP relay.
type SMTPSender struct {
	dialer   dialer
	from     string
	fromName string
	domain   string
}

func NewSMTPSender(cfg config.EmailConfig) *SMTPSender {
	return &SMTPSender{
		dialer:   gomail.NewDialer(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password),
		from:     cfg.From,
		fromName: cfg.FromName,
		domain:   cfg.SMTP.Host,
	}
}

// Send returns the Message-ID it generated, since SMTP relays do not hand
// one back.
func (s *SMTPSender) Send(ctx context.Context, msg Message) (id string, err error) {
	started := time.Now()
	logger.ExternalServiceCall(repository.BackendEmail, "SendSMTP", "to", msg.To, "subject", msg.Subject)
	defer func() {
		metrics.ObserveBackendCall(repository.BackendEmail, "SendSMTP", time.Since(started).Seconds(), err)
		logger.ExternalServiceResult(repository.BackendEmail, "SendSMTP", started, err, "message_id", id)
	}()

	if err := ctx.Err(); err != nil {
		return "", err
	}

	fromAddr, fromName := msg.From, msg.FromName
	if fromAddr == "" {
		fromAddr, fromName = s.from, s.fromName
	}

	id = fmt.Sprintf("<%s@%s>", uuid.NewString(), s.domain)
	m := gomail.NewMessage()
	m.SetAddressHeader("From", fromAddr, fromName)
	if msg.ToName != "" {
		m.SetAddressHeader("To", msg.To, msg.ToName)
	} else {
		m.SetHeader("To", msg.To)
	}
	m.SetHeader("Subject", msg.Subject)
	m.SetHeader("Message-ID", id)
	m.SetBody("text/html", msg.HTML)

	if err := s.dialer.DialAndSend(m); err != nil {
		return "", fmt.Errorf("failed to send email via smtp: %w", err)
	}
	return id, nil
}
