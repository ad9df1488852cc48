package domain

// EmailTemplate is a stored message with {{placeholder}} tokens.
type EmailTemplate struct {
	ID      string `json:"id,omitempty"`
	Name    string `json:"name" validate:"required,max=100"`
	Subject string `json:"subject" validate:"required,max=300"`
	Body    string `json:"body" validate:"required"`
	Type    string `json:"type,omitempty" validate:"max=50"`
}

type EmailTemplatePatch struct {
	Name    *string `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	Subject *string `json:"subject,omitempty" validate:"omitempty,min=1,max=300"`
	Body    *string `json:"body,omitempty" validate:"omitempty,min=1"`
	Type    *string `json:"type,omitempty" validate:"omitempty,max=50"`
}

func (t *EmailTemplate) Apply(p EmailTemplatePatch) {
	if p.Name != nil {
		t.Name = *p.Name
	}
	if p.Subject != nil {
		t.Subject = *p.Subject
	}
	if p.Body != nil {
		t.Body = *p.Body
	}
	if p.Type != nil {
		t.Type = *p.Type
	}
}

// Template names the orchestrators send.
const (
	TemplateRepairConfirmation = "repair_confirmation"
	TemplateRepairStatusUpdate = "repair_status_update"
	TemplateRentalConfirmation = "rental_confirmation"
)

// Dashboard is the aggregated landing-page summary.
type Dashboard struct {
	EquipmentCount int                `json:"equipmentCount"`
	OpenRepairs    int                `json:"openRepairs"`
	ActiveRentals  int                `json:"activeRentals"`
	RecentActivity []ActivityLogEntry `json:"recentActivity"`
	GeneratedAt    string             `json:"generatedAt"`
}

// SendEmailRequest sends either a stored template by name or an ad hoc
// subject and body. Both forms substitute Vars.
type SendEmailRequest struct {
	To           string            `json:"to" validate:"required,email"`
	ToName       string            `json:"toName,omitempty"`
	TemplateName string            `json:"templateName,omitempty"`
	Subject      string            `json:"subject,omitempty" validate:"required_without=TemplateName"`
	Body         string            `json:"body,omitempty" validate:"required_without=TemplateName"`
	Vars         map[string]string `json:"variables,omitempty"`
}
