package service

import (
	"context"
	"errors"
	"testing"

	"gearshare-backend/internal/config"
	"gearshare-backend/internal/domain"
	"gearshare-backend/internal/repository"
	"gearshare-backend/internal/repository/memory"
	"gearshare-backend/internal/repository/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const equipmentTable = "Equipment"

func cameraGroup() *repository.ProductGroup {
	return &repository.ProductGroup{
		ID:               "pg-1",
		Name:             "Camera X",
		BasePriceInCents: 5000,
		Quantity:         2,
		Products:         []repository.Product{{ID: "prod-1", ProductGroupID: "pg-1"}},
	}
}

func TestEquipmentService_Create(t *testing.T) {
	booking := new(mocks.BookingBackend)
	records := memory.NewRecordStore()
	orch, log, _ := newTestOrchestrator()
	svc := NewEquipmentService(booking, records, equipmentTable, config.EntityPolicy{}, orch)

	booking.On("CreateProductGroup", mock.Anything, mock.MatchedBy(func(g *repository.ProductGroup) bool {
		return g.Name == "Camera X" && g.BasePriceInCents == 5000 && g.Quantity == 2 && g.TagList[0] == "cameras"
	})).Return(cameraGroup(), nil)

	res, err := svc.Create(context.Background(), &domain.Equipment{Name: "Camera X", Price: 50, Quantity: 2, Category: "cameras"})
	require.NoError(t, err)
	assert.Empty(t, res.Warnings)
	assert.Equal(t, "pg-1", res.Entity.ID)
	assert.Equal(t, "prod-1", res.Entity.BooqableID)
	assert.NotEmpty(t, res.Entity.RecordID)
	assert.Equal(t, res.Entity.RecordID, res.Refs["recordId"])

	rec, err := records.Get(context.Background(), equipmentTable, res.Entity.RecordID)
	require.NoError(t, err)
	assert.Equal(t, "pg-1", rec.Fields["booqableGroupId"])
	assert.Equal(t, "available", rec.Fields["status"])

	creates := log.byAction(domain.ActionCreate)
	require.Len(t, creates, 1)
	assert.Equal(t, "Created equipment: Camera X", creates[0].Description)
	booking.AssertExpectations(t)
}

func TestEquipmentService_Create_SecondaryFailureIsWarning(t *testing.T) {
	booking := new(mocks.BookingBackend)
	records := new(mocks.RecordStore)
	orch, log, _ := newTestOrchestrator()
	svc := NewEquipmentService(booking, records, equipmentTable, config.EntityPolicy{}, orch)

	booking.On("CreateProductGroup", mock.Anything, mock.Anything).Return(cameraGroup(), nil)
	records.On("Select", mock.Anything, equipmentTable, mock.Anything).Return([]repository.Record{}, nil)
	records.On("Create", mock.Anything, equipmentTable, mock.Anything).Return(nil, errors.New("airtable down"))

	res, err := svc.Create(context.Background(), &domain.Equipment{Name: "Camera X", Price: 50, Quantity: 2})
	require.NoError(t, err)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "airtable down")
	assert.Equal(t, "pg-1", res.Entity.ID)

	creates := log.byAction(domain.ActionCreate)
	require.Len(t, creates, 1)
	assert.Len(t, log.entries, 1)
}

func TestEquipmentService_Create_AbortPolicy(t *testing.T) {
	booking := new(mocks.BookingBackend)
	records := new(mocks.RecordStore)
	orch, log, _ := newTestOrchestrator()
	svc := NewEquipmentService(booking, records, equipmentTable, config.EntityPolicy{AbortOnSecondaryFailure: true}, orch)

	booking.On("CreateProductGroup", mock.Anything, mock.Anything).Return(cameraGroup(), nil)
	records.On("Select", mock.Anything, equipmentTable, mock.Anything).Return(nil, errors.New("airtable down"))

	_, err := svc.Create(context.Background(), &domain.Equipment{Name: "Camera X", Price: 50, Quantity: 2})
	var secErr *domain.SecondaryWriteError
	require.ErrorAs(t, err, &secErr)
	assert.Len(t, log.entries, 1)
}

func TestEquipmentService_Create_ValidationAndPrimaryFailure(t *testing.T) {
	booking := new(mocks.BookingBackend)
	records := memory.NewRecordStore()
	orch, log, _ := newTestOrchestrator()
	svc := NewEquipmentService(booking, records, equipmentTable, config.EntityPolicy{}, orch)

	_, err := svc.Create(context.Background(), &domain.Equipment{Quantity: 0})
	assert.True(t, domain.IsValidation(err))

	booking.On("CreateProductGroup", mock.Anything, mock.Anything).Return(nil, errors.New("booqable 500"))
	_, err = svc.Create(context.Background(), &domain.Equipment{Name: "Tent", Price: 10, Quantity: 1})
	var writeErr *domain.BackendWriteError
	require.ErrorAs(t, err, &writeErr)
	assert.Equal(t, repository.BackendBooking, writeErr.Backend)
	assert.Empty(t, log.entries)
}

func TestEquipmentService_UpdateUpsertsMirror(t *testing.T) {
	ctx := context.Background()
	booking := new(mocks.BookingBackend)
	records := memory.NewRecordStore()
	orch, log, _ := newTestOrchestrator()
	svc := NewEquipmentService(booking, records, equipmentTable, config.EntityPolicy{}, orch)

	mirror, err := records.Create(ctx, equipmentTable, domain.Fields{"name": "Camera X", "booqableGroupId": "pg-1", "status": "rented"})
	require.NoError(t, err)

	updated := cameraGroup()
	updated.BasePriceInCents = 6550
	booking.On("GetProductGroup", mock.Anything, "pg-1").Return(cameraGroup(), nil)
	booking.On("UpdateProductGroup", mock.Anything, "pg-1", mock.MatchedBy(func(g *repository.ProductGroup) bool {
		return g.BasePriceInCents == 6550
	})).Return(updated, nil)

	res, err := svc.Update(ctx, "pg-1", domain.EquipmentPatch{Price: floatPtr(65.5)})
	require.NoError(t, err)
	assert.Empty(t, res.Warnings)
	assert.Equal(t, mirror.ID, res.Entity.RecordID)
	assert.Equal(t, domain.EquipmentStatusRented, res.Entity.Status)

	rec, err := records.Get(ctx, equipmentTable, mirror.ID)
	require.NoError(t, err)
	assert.Equal(t, 65.5, rec.Fields["price"])

	updates := log.byAction(domain.ActionUpdate)
	require.Len(t, updates, 1)
	assert.Contains(t, updates[0].Details["updated_fields"], "price")
}

func TestEquipmentService_DeleteArchivesAndRemovesMirror(t *testing.T) {
	ctx := context.Background()
	booking := new(mocks.BookingBackend)
	records := memory.NewRecordStore()
	orch, log, _ := newTestOrchestrator()
	svc := NewEquipmentService(booking, records, equipmentTable, config.EntityPolicy{}, orch)

	mirror, err := records.Create(ctx, equipmentTable, domain.Fields{"name": "Camera X", "booqableGroupId": "pg-1"})
	require.NoError(t, err)
	booking.On("GetProductGroup", mock.Anything, "pg-1").Return(cameraGroup(), nil)
	booking.On("ArchiveProductGroup", mock.Anything, "pg-1").Return(nil)

	res, err := svc.Delete(ctx, "pg-1")
	require.NoError(t, err)
	assert.Empty(t, res.Warnings)

	_, err = records.Get(ctx, equipmentTable, mirror.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	require.Len(t, log.byAction(domain.ActionDelete), 1)
}

func TestEquipmentService_DeleteWithoutMirrorSkips(t *testing.T) {
	booking := new(mocks.BookingBackend)
	orch, _, _ := newTestOrchestrator()
	svc := NewEquipmentService(booking, memory.NewRecordStore(), equipmentTable, config.EntityPolicy{}, orch)

	booking.On("GetProductGroup", mock.Anything, "pg-1").Return(cameraGroup(), nil)
	booking.On("ArchiveProductGroup", mock.Anything, "pg-1").Return(nil)

	res, err := svc.Delete(context.Background(), "pg-1")
	require.NoError(t, err)
	assert.Empty(t, res.Warnings)
}

func TestEquipmentService_GetNotFound(t *testing.T) {
	booking := new(mocks.BookingBackend)
	orch, _, _ := newTestOrchestrator()
	svc := NewEquipmentService(booking, memory.NewRecordStore(), equipmentTable, config.EntityPolicy{}, orch)

	booking.On("GetProductGroup", mock.Anything, "missing").Return(nil, domain.ErrNotFound)
	_, err := svc.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestEquipmentService_ListAndResync(t *testing.T) {
	ctx := context.Background()
	booking := new(mocks.BookingBackend)
	records := memory.NewRecordStore()
	orch, log, _ := newTestOrchestrator()
	svc := NewEquipmentService(booking, records, equipmentTable, config.EntityPolicy{}, orch)

	booking.On("GetProductGroup", mock.Anything, "pg-1").Return(cameraGroup(), nil)

	first, err := svc.Resync(ctx, "pg-1")
	require.NoError(t, err)
	second, err := svc.Resync(ctx, "pg-1")
	require.NoError(t, err)
	assert.Equal(t, first.Entity.RecordID, second.Entity.RecordID)

	items, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "pg-1", items[0].ID)
	assert.Equal(t, 50.0, items[0].Price)
	assert.Equal(t, 2, items[0].Quantity)
	assert.Len(t, log.byAction(domain.ActionSync), 2)
}
