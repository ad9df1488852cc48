package service

import (
	"context"
	"errors"
	"testing"

	"gearshare-backend/internal/domain"
	"gearshare-backend/internal/repository/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEmailFixture(t *testing.T) (*emailService, *fakeSender, *recordingActivity) {
	t.Helper()
	records := memory.NewRecordStore()
	_, err := records.Create(context.Background(), templatesTable, domain.Fields{
		"name":    domain.TemplateRepairStatusUpdate,
		"subject": "Repair {{ticketId}}: {{status}}",
		"body":    "<p>Hi {{firstName}}, total {{finalPrice}}. {{unknownToken}}</p>",
	})
	require.NoError(t, err)
	sender := &fakeSender{}
	log := &recordingActivity{}
	return NewEmailService(sender, records, templatesTable, log).(*emailService), sender, log
}

func TestEmailService_SendTemplate(t *testing.T) {
	svc, sender, log := newEmailFixture(t)

	id, err := svc.SendTemplate(context.Background(), domain.TemplateRepairStatusUpdate, "ada@example.com", "Ada", map[string]string{
		"ticketId":   "GS-1",
		"status":     "In Repair",
		"firstName":  "Ada",
		"finalPrice": "$10.00",
	})
	require.NoError(t, err)
	assert.Equal(t, "sg-1", id)
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "Repair GS-1: In Repair", sender.sent[0].Subject)
	assert.Equal(t, "<p>Hi Ada, total $10.00. {{unknownToken}}</p>", sender.sent[0].HTML)
	assert.Equal(t, "Ada", sender.sent[0].ToName)
	assert.Empty(t, log.entries)
}

func TestEmailService_SendTemplateUnknown(t *testing.T) {
	svc, sender, _ := newEmailFixture(t)

	_, err := svc.SendTemplate(context.Background(), "nope", "ada@example.com", "", nil)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Empty(t, sender.sent)
}

func TestEmailService_SendAdHoc(t *testing.T) {
	svc, sender, log := newEmailFixture(t)

	id, err := svc.Send(context.Background(), domain.SendEmailRequest{
		To:      "ada@example.com",
		Subject: "Hello {{firstName}}",
		Body:    "Body {{notes}}",
		Vars:    map[string]string{"firstName": "Ada"},
	})
	require.NoError(t, err)
	assert.Equal(t, "sg-1", id)
	assert.Equal(t, "Hello Ada", sender.sent[0].Subject)
	assert.Equal(t, "Body ", sender.sent[0].HTML)

	require.Len(t, log.entries, 1)
	assert.Equal(t, CollectionEmails, log.entries[0].Collection)
	assert.Equal(t, domain.ActionCreate, log.entries[0].ActionType)
	assert.Equal(t, "sg-1", log.entries[0].Details["message_id"])
}

func TestEmailService_SendValidation(t *testing.T) {
	svc, sender, _ := newEmailFixture(t)

	_, err := svc.Send(context.Background(), domain.SendEmailRequest{To: "not-an-email"})
	assert.True(t, domain.IsValidation(err))

	_, err = svc.Send(context.Background(), domain.SendEmailRequest{To: "ada@example.com", TemplateName: "missing"})
	assert.True(t, domain.IsValidation(err))
	assert.Empty(t, sender.sent)
}

func TestEmailService_SendProviderFailure(t *testing.T) {
	svc, sender, log := newEmailFixture(t)
	sender.err = errors.New("sendgrid error: status 401")

	_, err := svc.Send(context.Background(), domain.SendEmailRequest{To: "ada@example.com", TemplateName: domain.TemplateRepairStatusUpdate})
	var writeErr *domain.BackendWriteError
	require.ErrorAs(t, err, &writeErr)
	assert.Equal(t, "email", writeErr.Backend)
	assert.Empty(t, log.entries)
}
