package service

import (
	"context"
	"fmt"

	"gearshare-backend/internal/activity"
	"gearshare-backend/internal/domain"
	"gearshare-backend/internal/email"
	"gearshare-backend/internal/logger"
	"gearshare-backend/internal/orchestrator"
	"gearshare-backend/internal/repository"
)

const CollectionEmails = "emails"

type emailService struct {
	sender    email.Sender
	templates templateRepo
	activity  orchestrator.ActivityRecorder
}

// NewEmailService renders stored templates and hands them to sender. It
// reads templates straight from the Records table, not through
// TemplateService, because the orchestrator behind TemplateService
// depends on this service for notifications.
func NewEmailService(sender email.Sender, records repository.RecordStore, templateTable string, recorder orchestrator.ActivityRecorder) EmailService {
	return &emailService{
		sender:    sender,
		templates: templateRepo{records: records, table: templateTable},
		activity:  recorder,
	}
}

func (s *emailService) SendTemplate(ctx context.Context, templateName, to, toName string, vars map[string]string) (string, error) {
	tpl, err := s.templates.findByName(ctx, templateName)
	if err != nil {
		return "", err
	}
	rendered := email.Render(*tpl, vars)
	id, err := s.sender.Send(ctx, email.Message{To: to, ToName: toName, Subject: rendered.Subject, HTML: rendered.Body})
	if err != nil {
		return "", err
	}
	logger.InfoContext(ctx, "Notification sent", "template", templateName, "to", to, "message_id", id)
	return id, nil
}

// Send delivers an admin-composed email, either from a stored template or
// an ad hoc subject and body, and records it in the activity log.
func (s *emailService) Send(ctx context.Context, req domain.SendEmailRequest) (string, error) {
	if err := validateStruct(req); err != nil {
		return "", err
	}

	tpl := domain.EmailTemplate{Name: req.TemplateName, Subject: req.Subject, Body: req.Body}
	if req.TemplateName != "" {
		stored, err := s.templates.findByName(ctx, req.TemplateName)
		if isNotFound(err) {
			return "", domain.NewValidationError("templateName", "template %q does not exist", req.TemplateName)
		}
		if err != nil {
			return "", &domain.BackendReadError{Backend: repository.BackendRecords, Operation: "find email template", Err: err}
		}
		tpl = *stored
	}

	rendered := email.Render(tpl, req.Vars)
	id, err := s.sender.Send(ctx, email.Message{To: req.To, ToName: req.ToName, Subject: rendered.Subject, HTML: rendered.Body})
	if err != nil {
		return "", &domain.BackendWriteError{Backend: repository.BackendEmail, Operation: "send email", Err: err}
	}

	details := map[string]any{
		"to":         req.To,
		"subject":    rendered.Subject,
		"message_id": id,
	}
	if req.TemplateName != "" {
		details["template"] = req.TemplateName
	}
	s.activity.Append(ctx, activity.Entry{
		ActionType:  domain.ActionCreate,
		Collection:  CollectionEmails,
		Description: fmt.Sprintf("Sent email %q to %s", rendered.Subject, req.To),
		Details:     details,
	})
	return id, nil
}
