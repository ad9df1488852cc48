package domain

import "time"

// RentalStatus is the internal rental vocabulary.
type RentalStatus string

const (
	RentalStatusPending   RentalStatus = "pending"
	RentalStatusConfirmed RentalStatus = "confirmed"
	RentalStatusActive    RentalStatus = "active"
	RentalStatusCompleted RentalStatus = "completed"
	RentalStatusCancelled RentalStatus = "cancelled"
)

// Booking Backend spellings that pass through MapBookingStatus unmapped
// but still mean the order is closed.
const (
	bookingStatusCanceled = "canceled"
	bookingStatusArchived = "archived"
)

var bookingStatuses = map[string]RentalStatus{
	"new":      RentalStatusPending,
	"concept":  RentalStatusPending,
	"reserved": RentalStatusConfirmed,
	"started":  RentalStatusActive,
	"stopped":  RentalStatusCompleted,
}

// MapBookingStatus translates a Booking Backend order status into the
// internal vocabulary. Unknown values pass through unchanged so upstream
// vocabulary drift never breaks a sync.
func MapBookingStatus(external string) RentalStatus {
	if s, ok := bookingStatuses[external]; ok {
		return s
	}
	return RentalStatus(external)
}

// IsCancelled reports whether s is cancelled in either vocabulary.
func (s RentalStatus) IsCancelled() bool {
	switch s {
	case RentalStatusCancelled, bookingStatusCanceled, bookingStatusArchived:
		return true
	}
	return false
}

// IsTerminal reports whether the order can no longer change status.
func (s RentalStatus) IsTerminal() bool {
	return s == RentalStatusCompleted || s.IsCancelled()
}

type RentalLine struct {
	EquipmentID string `json:"equipmentId" validate:"required"`
	Quantity    int    `json:"quantity" validate:"gte=1"`
	LineID      string `json:"lineId,omitempty"`
}

// RentalOrder mirrors a Booking Backend order. ID is the Booking order id.
type RentalOrder struct {
	ID             string       `json:"id,omitempty"`
	CustomerID     string       `json:"customerId" validate:"required"`
	CustomerName   string       `json:"customerName,omitempty" validate:"max=200"`
	CustomerEmail  string       `json:"customerEmail,omitempty" validate:"omitempty,email"`
	StartsAt       time.Time    `json:"startsAt" validate:"required"`
	StopsAt        time.Time    `json:"stopsAt" validate:"required,gtfield=StartsAt"`
	Lines          []RentalLine `json:"lines" validate:"required,min=1,dive"`
	Status         RentalStatus `json:"status,omitempty"`
	ExternalStatus string       `json:"externalStatus,omitempty"`
	DocumentID     string       `json:"documentId,omitempty"`
	SyncError      string       `json:"syncError,omitempty"`
	SyncedAt       *time.Time   `json:"syncedAt,omitempty"`
}

// RentalPatch changes the schedule or customer of an order.
type RentalPatch struct {
	CustomerID    *string    `json:"customerId,omitempty" validate:"omitempty,min=1"`
	CustomerName  *string    `json:"customerName,omitempty" validate:"omitempty,max=200"`
	CustomerEmail *string    `json:"customerEmail,omitempty" validate:"omitempty,email"`
	StartsAt      *time.Time `json:"startsAt,omitempty"`
	StopsAt       *time.Time `json:"stopsAt,omitempty"`
}

// Apply copies every non-nil patch field onto o.
func (o *RentalOrder) Apply(p RentalPatch) {
	if p.CustomerID != nil {
		o.CustomerID = *p.CustomerID
	}
	if p.CustomerName != nil {
		o.CustomerName = *p.CustomerName
	}
	if p.CustomerEmail != nil {
		o.CustomerEmail = *p.CustomerEmail
	}
	if p.StartsAt != nil {
		o.StartsAt = *p.StartsAt
	}
	if p.StopsAt != nil {
		o.StopsAt = *p.StopsAt
	}
}

// SyncReport summarises one order-status polling run.
type SyncReport struct {
	Total   int      `json:"total"`
	Updated int      `json:"updated"`
	Failed  int      `json:"failed"`
	Errors  []string `json:"errors,omitempty"`
}
