package memory

import (
	"context"
	"testing"
	"time"

	"gearshare-backend/internal/domain"
	"gearshare-backend/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_CRUD(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	id, err := s.Create(ctx, "repairs", domain.Fields{"status": "pending", "recordId": "rec1"})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	require.NoError(t, s.Update(ctx, "repairs", id, domain.Fields{"status": "in_progress"}))

	doc, err := s.Get(ctx, "repairs", id)
	require.NoError(t, err)
	assert.Equal(t, "in_progress", doc.Data.String("status"))
	assert.Equal(t, "rec1", doc.Data.String("recordId"), "update merges keys")

	doc.Data["status"] = "mutated"
	again, _ := s.Get(ctx, "repairs", id)
	assert.Equal(t, "in_progress", again.Data.String("status"), "returned data is a copy")

	require.NoError(t, s.Delete(ctx, "repairs", id))
	_, err = s.Get(ctx, "repairs", id)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_MissingDocument(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	assert.ErrorIs(t, s.Update(ctx, "rentals", "nope", domain.Fields{"a": 1}), domain.ErrNotFound)
	assert.ErrorIs(t, s.Delete(ctx, "rentals", "nope"), domain.ErrNotFound)
}

func TestStore_Query(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	_, _ = s.Create(ctx, "rentals", domain.Fields{"orderId": "o-1", "status": "active", "startsAt": "2026-05-01T09:00:00Z"})
	_, _ = s.Create(ctx, "rentals", domain.Fields{"orderId": "o-2", "status": "cancelled", "startsAt": "2026-06-01T09:00:00Z"})
	_, _ = s.Create(ctx, "rentals", domain.Fields{"orderId": "o-3", "status": "active", "startsAt": "2026-07-01T09:00:00Z"})

	docs, err := s.Query(ctx, "rentals", repository.Eq("status", domain.RentalStatusActive))
	require.NoError(t, err)
	assert.Len(t, docs, 2)

	docs, err = s.Query(ctx, "rentals",
		repository.Filter{Field: "status", Op: repository.OpNeq, Value: "cancelled"},
		repository.Filter{Field: "startsAt", Op: repository.OpGte, Value: time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)},
	)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "o-3", docs[0].Data.String("orderId"))

	docs, err = s.Query(ctx, "unknown")
	require.NoError(t, err)
	assert.Empty(t, docs)
}
