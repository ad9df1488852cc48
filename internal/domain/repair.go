package domain

import (
	"strings"
	"time"
)

// RepairStatus is the canonical repair workflow state.
type RepairStatus string

const (
	RepairStatusPending    RepairStatus = "pending"
	RepairStatusInProgress RepairStatus = "in_progress"
	RepairStatusCompleted  RepairStatus = "completed"
)

// Labels used by the Records Backend for the same states.
const (
	RepairLabelPending    = "Dropped Off, Awaiting Repair"
	RepairLabelInProgress = "In Repair"
	RepairLabelCompleted  = "Finished, Picked Up"
)

var repairLabels = map[RepairStatus]string{
	RepairStatusPending:    RepairLabelPending,
	RepairStatusInProgress: RepairLabelInProgress,
	RepairStatusCompleted:  RepairLabelCompleted,
}

// Label returns the Records Backend label for s, or s itself when unknown.
func (s RepairStatus) Label() string {
	if l, ok := repairLabels[s]; ok {
		return l
	}
	return string(s)
}

// ParseRepairStatus accepts either the canonical value or the Records
// Backend label, case-insensitively.
func ParseRepairStatus(v string) (RepairStatus, error) {
	needle := strings.TrimSpace(v)
	for status, label := range repairLabels {
		if strings.EqualFold(needle, string(status)) || strings.EqualFold(needle, label) {
			return status, nil
		}
	}
	return "", NewValidationError("status", "unknown repair status %q", v)
}

// RepairTicket is a customer repair job. ID is the Records Backend record id
// and DocumentID its Document Store mirror.
type RepairTicket struct {
	ID                string       `json:"id,omitempty"`
	TicketNumber      string       `json:"ticketId,omitempty"`
	DocumentID        string       `json:"documentId,omitempty"`
	FirstName         string       `json:"firstName" validate:"required,max=100"`
	LastName          string       `json:"lastName" validate:"required,max=100"`
	Email             string       `json:"email,omitempty" validate:"omitempty,email"`
	Phone             string       `json:"phone,omitempty" validate:"max=40"`
	ItemType          string       `json:"itemType" validate:"required,max=100"`
	ItemDescription   string       `json:"itemDescription,omitempty" validate:"max=2000"`
	DamageDescription string       `json:"damageDescription" validate:"required,max=4000"`
	Status            RepairStatus `json:"status,omitempty" validate:"omitempty,oneof=pending in_progress completed"`
	PriceQuote        float64      `json:"priceQuote,omitempty" validate:"gte=0"`
	FinalPrice        *float64     `json:"finalPrice,omitempty" validate:"omitempty,gte=0"`
	AmountPaid        float64      `json:"amountPaid,omitempty" validate:"gte=0"`
	PaymentType       string       `json:"paymentType,omitempty" validate:"max=50"`
	Notes             string       `json:"notes,omitempty" validate:"max=4000"`
	CreatedAt         time.Time    `json:"createdAt,omitempty"`
	UpdatedAt         time.Time    `json:"updatedAt,omitempty"`
	CompletedAt       *time.Time   `json:"completedAt,omitempty"`
}

// RepairPatch is a partial repair update.
type RepairPatch struct {
	FirstName         *string       `json:"firstName,omitempty" validate:"omitempty,min=1,max=100"`
	LastName          *string       `json:"lastName,omitempty" validate:"omitempty,min=1,max=100"`
	Email             *string       `json:"email,omitempty" validate:"omitempty,email"`
	Phone             *string       `json:"phone,omitempty" validate:"omitempty,max=40"`
	ItemType          *string       `json:"itemType,omitempty" validate:"omitempty,min=1,max=100"`
	ItemDescription   *string       `json:"itemDescription,omitempty" validate:"omitempty,max=2000"`
	DamageDescription *string       `json:"damageDescription,omitempty" validate:"omitempty,max=4000"`
	Status            *RepairStatus `json:"status,omitempty" validate:"omitempty,oneof=pending in_progress completed"`
	PriceQuote        *float64      `json:"priceQuote,omitempty" validate:"omitempty,gte=0"`
	FinalPrice        *float64      `json:"finalPrice,omitempty" validate:"omitempty,gte=0"`
	AmountPaid        *float64      `json:"amountPaid,omitempty" validate:"omitempty,gte=0"`
	PaymentType       *string       `json:"paymentType,omitempty" validate:"omitempty,max=50"`
	Notes             *string       `json:"notes,omitempty" validate:"omitempty,max=4000"`
}

// Apply copies every non-nil patch field onto r. Moving to completed stamps
// CompletedAt.
func (r *RepairTicket) Apply(p RepairPatch, now time.Time) {
	if p.FirstName != nil {
		r.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		r.LastName = *p.LastName
	}
	if p.Email != nil {
		r.Email = *p.Email
	}
	if p.Phone != nil {
		r.Phone = *p.Phone
	}
	if p.ItemType != nil {
		r.ItemType = *p.ItemType
	}
	if p.ItemDescription != nil {
		r.ItemDescription = *p.ItemDescription
	}
	if p.DamageDescription != nil {
		r.DamageDescription = *p.DamageDescription
	}
	if p.Status != nil {
		if *p.Status == RepairStatusCompleted && r.Status != RepairStatusCompleted {
			t := now
			r.CompletedAt = &t
		}
		r.Status = *p.Status
	}
	if p.PriceQuote != nil {
		r.PriceQuote = *p.PriceQuote
	}
	if p.FinalPrice != nil {
		r.FinalPrice = p.FinalPrice
	}
	if p.AmountPaid != nil {
		r.AmountPaid = *p.AmountPaid
	}
	if p.PaymentType != nil {
		r.PaymentType = *p.PaymentType
	}
	if p.Notes != nil {
		r.Notes = *p.Notes
	}
	r.UpdatedAt = now
}
