package email

import (
	"testing"

	"gearshare-backend/internal/domain"

	"github.com/stretchr/testify/assert"
)

func TestRender(t *testing.T) {
	tpl := domain.EmailTemplate{
		Subject: "Repair {{ticketId}} update",
		Body:    "Hi {{firstName}}, total {{finalPrice}}. Notes: {{notes}}. {{unknownToken}} {{shopName}}",
	}

	out := Render(tpl, map[string]string{
		"firstName":  "Ada",
		"ticketId":   "R-1001",
		"finalPrice": FormatCurrency(1234.5),
		"shopName":   "GearShare",
	})

	assert.Equal(t, "Repair R-1001 update", out.Subject)
	assert.Equal(t, "Hi Ada, total $1,234.50. Notes: . {{unknownToken}} GearShare", out.Body)
}

func TestRender_MissingKnownVariablesBecomeEmpty(t *testing.T) {
	out := Render(domain.EmailTemplate{Subject: "{{status}}", Body: "{{completionDate}}|{{equipmentType}}"}, nil)
	assert.Equal(t, "", out.Subject)
	assert.Equal(t, "|", out.Body)
}

func TestFormatCurrency(t *testing.T) {
	tests := map[float64]string{
		0:          "$0.00",
		5:          "$5.00",
		49.999:     "$50.00",
		999.9:      "$999.90",
		1234.5:     "$1,234.50",
		1234567.89: "$1,234,567.89",
		-12.3:      "-$12.30",
	}
	for in, want := range tests {
		assert.Equal(t, want, FormatCurrency(in), "amount %v", in)
	}
}
