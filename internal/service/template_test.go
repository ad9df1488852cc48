package service

import (
	"context"
	"testing"

	"gearshare-backend/internal/domain"
	"gearshare-backend/internal/repository/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const templatesTable = "Email Templates"

func TestTemplateService_CRUD(t *testing.T) {
	ctx := context.Background()
	records := memory.NewRecordStore()
	orch, log, _ := newTestOrchestrator()
	svc := NewTemplateService(records, templatesTable, orch)

	created, err := svc.Create(ctx, &domain.EmailTemplate{Name: "repair_confirmation", Subject: "Ticket {{ticketId}}", Body: "Hi {{firstName}}"})
	require.NoError(t, err)
	id := created.Entity.ID
	require.NotEmpty(t, id)

	_, err = svc.Create(ctx, &domain.EmailTemplate{Name: "repair_confirmation", Subject: "dup", Body: "dup"})
	assert.True(t, domain.IsValidation(err))

	updated, err := svc.Update(ctx, id, domain.EmailTemplatePatch{Subject: strPtr("Your ticket {{ticketId}}")})
	require.NoError(t, err)
	assert.Equal(t, "Your ticket {{ticketId}}", updated.Entity.Subject)
	assert.Equal(t, "Hi {{firstName}}", updated.Entity.Body)

	// renaming onto itself is allowed
	_, err = svc.Update(ctx, id, domain.EmailTemplatePatch{Name: strPtr("repair_confirmation")})
	require.NoError(t, err)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	_, err = svc.Delete(ctx, id)
	require.NoError(t, err)
	list, err = svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	assert.Len(t, log.byAction(domain.ActionCreate), 1)
	assert.Len(t, log.byAction(domain.ActionUpdate), 2)
	assert.Len(t, log.byAction(domain.ActionDelete), 1)
	for _, e := range log.entries {
		assert.Equal(t, CollectionEmailTemplates, e.Collection)
	}
}

func TestTemplateService_DeleteMissing(t *testing.T) {
	orch, log, _ := newTestOrchestrator()
	svc := NewTemplateService(memory.NewRecordStore(), templatesTable, orch)

	_, err := svc.Delete(context.Background(), "recNope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Empty(t, log.entries)
}
