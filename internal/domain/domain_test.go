package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapBookingStatus(t *testing.T) {
	tests := []struct {
		external string
		want     RentalStatus
	}{
		{"new", RentalStatusPending},
		{"concept", RentalStatusPending},
		{"reserved", RentalStatusConfirmed},
		{"started", RentalStatusActive},
		{"stopped", RentalStatusCompleted},
		{"archived", RentalStatus("archived")},
		{"", RentalStatus("")},
	}
	for _, tt := range tests {
		t.Run(tt.external, func(t *testing.T) {
			assert.Equal(t, tt.want, MapBookingStatus(tt.external))
		})
	}
}

func TestRentalStatus_IsTerminal(t *testing.T) {
	tests := []struct {
		status    RentalStatus
		cancelled bool
		terminal  bool
	}{
		{RentalStatusPending, false, false},
		{RentalStatusConfirmed, false, false},
		{RentalStatusActive, false, false},
		{RentalStatusCompleted, false, true},
		{RentalStatusCancelled, true, true},
		{MapBookingStatus("canceled"), true, true},
		{MapBookingStatus("archived"), true, true},
		{RentalStatus("on_hold"), false, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.cancelled, tt.status.IsCancelled())
			assert.Equal(t, tt.terminal, tt.status.IsTerminal())
		})
	}
}

func TestParseRepairStatus(t *testing.T) {
	tests := []struct {
		in      string
		want    RepairStatus
		wantErr bool
	}{
		{"pending", RepairStatusPending, false},
		{"IN_PROGRESS", RepairStatusInProgress, false},
		{"In Repair", RepairStatusInProgress, false},
		{"  finished, picked up ", RepairStatusCompleted, false},
		{"Dropped Off, Awaiting Repair", RepairStatusPending, false},
		{"lost", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRepairStatus(tt.in)
			if tt.wantErr {
				var ve *ValidationError
				require.True(t, errors.As(err, &ve))
				assert.Equal(t, "status", ve.Field)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRepairStatus_Label(t *testing.T) {
	assert.Equal(t, "In Repair", RepairStatusInProgress.Label())
	assert.Equal(t, "Finished, Picked Up", RepairStatusCompleted.Label())
	assert.Equal(t, "mystery", RepairStatus("mystery").Label())
}

func TestDateRange_Since(t *testing.T) {
	now := time.Date(2026, 3, 15, 14, 30, 0, 0, time.UTC)

	assert.Equal(t, time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC), DateRangeToday.Since(now))
	assert.Equal(t, time.Date(2026, 3, 8, 14, 30, 0, 0, time.UTC), DateRangeWeek.Since(now))
	assert.Equal(t, time.Date(2026, 2, 15, 14, 30, 0, 0, time.UTC), DateRangeMonth.Since(now))
	assert.True(t, DateRangeAll.Since(now).IsZero())
}

func TestParseDateRange(t *testing.T) {
	r, err := ParseDateRange("")
	require.NoError(t, err)
	assert.Equal(t, DateRangeAll, r)

	r, err = ParseDateRange("week")
	require.NoError(t, err)
	assert.Equal(t, DateRangeWeek, r)

	_, err = ParseDateRange("year")
	assert.True(t, IsValidation(err))
}

func TestDiff(t *testing.T) {
	prev := Fields{"name": "Camera X", "price": 50, "quantity": 2}
	next := Fields{"name": "Camera X", "price": 60.0, "quantity": float64(2), "category": "video"}

	assert.Equal(t, []string{"category", "price"}, Diff(prev, next))
	assert.Empty(t, Diff(next, next))
}

func TestFields_RoundTrip(t *testing.T) {
	e := Equipment{ID: "grp-1", Name: "Camera X", Price: 50, Quantity: 2}
	f, err := ToFields(e)
	require.NoError(t, err)
	assert.Equal(t, "Camera X", f.String("name"))
	assert.Equal(t, "", f.String("category"))
	_, hasCategory := f["category"]
	assert.False(t, hasCategory)

	var back Equipment
	require.NoError(t, f.Merge(Fields{"quantity": 3}).Decode(&back))
	assert.Equal(t, 3, back.Quantity)
	assert.Equal(t, "grp-1", back.ID)
}

func TestRepairTicket_Apply(t *testing.T) {
	now := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	r := RepairTicket{FirstName: "Ada", Status: RepairStatusInProgress}
	completed := RepairStatusCompleted
	price := 120.5

	r.Apply(RepairPatch{Status: &completed, FinalPrice: &price}, now)

	assert.Equal(t, RepairStatusCompleted, r.Status)
	require.NotNil(t, r.CompletedAt)
	assert.Equal(t, now, *r.CompletedAt)
	assert.Equal(t, 120.5, *r.FinalPrice)
	assert.Equal(t, "Ada", r.FirstName)
	assert.Equal(t, now, r.UpdatedAt)

	later := now.Add(time.Hour)
	r.Apply(RepairPatch{Status: &completed}, later)
	assert.Equal(t, now, *r.CompletedAt, "re-completing keeps the original completion time")
}

func TestRentalOrder_Apply(t *testing.T) {
	start := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	o := RentalOrder{CustomerID: "c1", StartsAt: start, StopsAt: start.Add(24 * time.Hour)}
	stop := start.Add(48 * time.Hour)
	name := "Grace"

	o.Apply(RentalPatch{StopsAt: &stop, CustomerName: &name})

	assert.Equal(t, stop, o.StopsAt)
	assert.Equal(t, start, o.StartsAt)
	assert.Equal(t, "Grace", o.CustomerName)
	assert.Equal(t, "c1", o.CustomerID)
}

func TestErrorsUnwrap(t *testing.T) {
	err := &BackendReadError{Backend: "records", Operation: "get", Err: ErrNotFound}
	assert.ErrorIs(t, err, ErrNotFound)

	sec := &SecondaryWriteError{Backend: "document", Operation: "create", Err: errors.New("unavailable")}
	assert.Equal(t, "document mirror create failed: unavailable", sec.Error())

	ves := ValidationErrors{NewValidationError("name", "is required"), NewValidationError("price", "must be >= %d", 0)}
	assert.Equal(t, "name: is required; price: must be >= 0", ves.Error())
	assert.True(t, IsValidation(&BackendWriteError{Backend: "booking", Err: ves}))
}
