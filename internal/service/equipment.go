package service

import (
	"context"
	"fmt"
	"math"
	"sort"

	"gearshare-backend/internal/config"
	"gearshare-backend/internal/domain"
	"gearshare-backend/internal/logger"
	"gearshare-backend/internal/orchestrator"
	"gearshare-backend/internal/repository"
)

const CollectionEquipment = "equipment"

type equipmentService struct {
	booking repository.BookingBackend
	records repository.RecordStore
	table   string
	policy  config.EntityPolicy
	orch    *orchestrator.Orchestrator
}

// NewEquipmentService writes equipment to the Booking Backend first and
// mirrors it into the Records Backend table, keyed by booqableGroupId.
func NewEquipmentService(booking repository.BookingBackend, records repository.RecordStore, table string, policy config.EntityPolicy, orch *orchestrator.Orchestrator) EquipmentService {
	return &equipmentService{booking: booking, records: records, table: table, policy: policy, orch: orch}
}

func (s *equipmentService) Create(ctx context.Context, e *domain.Equipment) (*Result[*domain.Equipment], error) {
	if e.Status == "" {
		e.Status = domain.EquipmentStatusAvailable
	}

	res, err := s.orch.Execute(ctx, orchestrator.Plan{
		Collection: CollectionEquipment,
		Action:     domain.ActionCreate,
		Validate:   func() error { return validateStruct(e) },
		Steps: []orchestrator.Step{
			{
				Name:    "create product group",
				Backend: repository.BackendBooking,
				Primary: true,
				Run: func(ctx context.Context, st *orchestrator.State) error {
					group, err := s.booking.CreateProductGroup(ctx, toProductGroup(e))
					if err != nil {
						return err
					}
					e.ID = group.ID
					e.BooqableGroupID = group.ID
					if len(group.Products) > 0 {
						e.BooqableID = group.Products[0].ID
					}
					st.EntityID = e.ID
					st.SetRef("booqableGroupId", e.BooqableGroupID)
					st.SetRef("booqableId", e.BooqableID)
					st.Current = equipmentFields(e)
					return nil
				},
			},
			s.mirrorStep(e),
		},
		Describe: func(st *orchestrator.State) string { return "Created equipment: " + e.Name },
	})
	if err != nil {
		return nil, err
	}
	return newResult(e, res), nil
}

func (s *equipmentService) Update(ctx context.Context, id string, patch domain.EquipmentPatch) (*Result[*domain.Equipment], error) {
	var e *domain.Equipment

	res, err := s.orch.Execute(ctx, orchestrator.Plan{
		Collection:  CollectionEquipment,
		Action:      domain.ActionUpdate,
		EntityID:    id,
		Validate:    func() error { return validateStruct(patch) },
		LoadBackend: repository.BackendBooking,
		Load: func(ctx context.Context, st *orchestrator.State) error {
			loaded, err := s.load(ctx, id)
			if err != nil {
				return err
			}
			e = loaded
			st.Previous = equipmentFields(e)
			return nil
		},
		Steps: []orchestrator.Step{
			{
				Name:    "update product group",
				Backend: repository.BackendBooking,
				Primary: true,
				Run: func(ctx context.Context, st *orchestrator.State) error {
					e.Apply(patch)
					group, err := s.booking.UpdateProductGroup(ctx, id, toProductGroup(e))
					if err != nil {
						return err
					}
					if len(group.Products) > 0 {
						e.BooqableID = group.Products[0].ID
					}
					st.Current = equipmentFields(e)
					return nil
				},
			},
			s.mirrorStepLazy(func() *domain.Equipment { return e }),
		},
		Describe: func(st *orchestrator.State) string { return "Updated equipment: " + e.Name },
	})
	if err != nil {
		return nil, err
	}
	return newResult(e, res), nil
}

// Delete archives the product group; equipment is never hard-deleted in
// the Booking Backend. The mirror row is removed when it can be resolved.
func (s *equipmentService) Delete(ctx context.Context, id string) (*Result[*domain.Equipment], error) {
	var e *domain.Equipment

	res, err := s.orch.Execute(ctx, orchestrator.Plan{
		Collection:  CollectionEquipment,
		Action:      domain.ActionDelete,
		EntityID:    id,
		LoadBackend: repository.BackendBooking,
		Load: func(ctx context.Context, st *orchestrator.State) error {
			loaded, err := s.load(ctx, id)
			if err != nil {
				return err
			}
			e = loaded
			st.Previous = equipmentFields(e)
			return nil
		},
		Steps: []orchestrator.Step{
			{
				Name:    "archive product group",
				Backend: repository.BackendBooking,
				Primary: true,
				Run: func(ctx context.Context, st *orchestrator.State) error {
					return s.booking.ArchiveProductGroup(ctx, id)
				},
			},
			{
				Name:           "delete equipment record",
				Backend:        repository.BackendRecords,
				AbortOnFailure: s.policy.AbortOnSecondaryFailure,
				Run: func(ctx context.Context, st *orchestrator.State) error {
					recordID := e.RecordID
					if recordID == "" {
						rec, err := s.findMirror(ctx, id)
						if err != nil {
							return err
						}
						if rec == nil {
							return orchestrator.ErrSkip
						}
						recordID = rec.ID
					}
					st.SetRef("recordId", recordID)
					return s.records.Delete(ctx, s.table, recordID)
				},
			},
		},
		Describe: func(st *orchestrator.State) string { return "Deleted equipment: " + e.Name },
	})
	if err != nil {
		return nil, err
	}
	return newResult(e, res), nil
}

func (s *equipmentService) Get(ctx context.Context, id string) (*domain.Equipment, error) {
	e, err := s.load(ctx, id)
	if err != nil {
		return nil, &domain.BackendReadError{Backend: repository.BackendBooking, Operation: "get equipment", Err: err}
	}
	return e, nil
}

// List reads the Records mirror, which carries the status column the
// Booking Backend has no notion of.
func (s *equipmentService) List(ctx context.Context) ([]domain.Equipment, error) {
	recs, err := s.records.Select(ctx, s.table, repository.Query{
		Sort: []repository.Sort{{Field: "name"}},
	})
	if err != nil {
		return nil, &domain.BackendReadError{Backend: repository.BackendRecords, Operation: "list equipment", Err: err}
	}

	items := make([]domain.Equipment, 0, len(recs))
	for _, rec := range recs {
		e, err := equipmentFromRecord(rec)
		if err != nil {
			logger.WarnContext(ctx, "Skipping unreadable equipment record", "recordID", rec.ID, "error", err)
			continue
		}
		items = append(items, *e)
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].Name < items[j].Name })
	return items, nil
}

// Resync rewrites the mirror row from the Booking Backend. The product
// group itself is only read, so repeating it never duplicates equipment.
func (s *equipmentService) Resync(ctx context.Context, id string) (*Result[*domain.Equipment], error) {
	var e *domain.Equipment

	mirror := s.mirrorStepLazy(func() *domain.Equipment { return e })
	mirror.Primary = true

	res, err := s.orch.Execute(ctx, orchestrator.Plan{
		Collection:  CollectionEquipment,
		Action:      domain.ActionSync,
		EntityID:    id,
		LoadBackend: repository.BackendBooking,
		Load: func(ctx context.Context, st *orchestrator.State) error {
			loaded, err := s.load(ctx, id)
			if err != nil {
				return err
			}
			e = loaded
			st.Previous = equipmentFields(e)
			st.Current = st.Previous
			return nil
		},
		Steps:    []orchestrator.Step{mirror},
		Describe: func(st *orchestrator.State) string { return "Resynced equipment record: " + e.Name },
	})
	if err != nil {
		return nil, err
	}
	return newResult(e, res), nil
}

func (s *equipmentService) mirrorStep(e *domain.Equipment) orchestrator.Step {
	return s.mirrorStepLazy(func() *domain.Equipment { return e })
}

// mirrorStepLazy upserts the Records row by cross-reference. The entity is
// resolved when the step runs, after Load has filled it in.
func (s *equipmentService) mirrorStepLazy(entity func() *domain.Equipment) orchestrator.Step {
	return orchestrator.Step{
		Name:           "upsert equipment record",
		Backend:        repository.BackendRecords,
		AbortOnFailure: s.policy.AbortOnSecondaryFailure,
		Run: func(ctx context.Context, st *orchestrator.State) error {
			e := entity()
			fields := equipmentRecordFields(e)

			recordID := e.RecordID
			if recordID == "" {
				existing, err := s.findMirror(ctx, e.BooqableGroupID)
				if err != nil {
					return err
				}
				if existing != nil {
					recordID = existing.ID
				}
			}

			var (
				rec *repository.Record
				err error
			)
			if recordID != "" {
				rec, err = s.records.Update(ctx, s.table, recordID, fields)
			} else {
				rec, err = s.records.Create(ctx, s.table, fields)
			}
			if err != nil {
				return err
			}

			e.RecordID = rec.ID
			st.SetRef("recordId", rec.ID)
			if st.Current != nil {
				st.Current = st.Current.Merge(domain.Fields{"recordId": rec.ID})
			}
			return nil
		},
	}
}

// load reads the product group and overlays mirror-only columns. A failed
// mirror read is not fatal.
func (s *equipmentService) load(ctx context.Context, id string) (*domain.Equipment, error) {
	group, err := s.booking.GetProductGroup(ctx, id)
	if err != nil {
		return nil, err
	}
	e := fromProductGroup(group)

	rec, err := s.findMirror(ctx, id)
	if err != nil {
		logger.WarnContext(ctx, "Equipment mirror lookup failed", "id", id, "error", err)
		return e, nil
	}
	if rec != nil {
		e.RecordID = rec.ID
		if status := rec.Fields.String("status"); status != "" {
			e.Status = domain.EquipmentStatus(status)
		}
	}
	return e, nil
}

func (s *equipmentService) findMirror(ctx context.Context, groupID string) (*repository.Record, error) {
	if groupID == "" {
		return nil, nil
	}
	recs, err := s.records.Select(ctx, s.table, repository.Query{
		Filters:    []repository.Filter{repository.Eq("booqableGroupId", groupID)},
		MaxRecords: 1,
	})
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, nil
	}
	return &recs[0], nil
}

func toProductGroup(e *domain.Equipment) *repository.ProductGroup {
	g := &repository.ProductGroup{
		Name:             e.Name,
		Description:      e.Description,
		BasePriceInCents: int64(math.Round(e.Price * 100)),
		Quantity:         e.Quantity,
	}
	if e.Category != "" {
		g.TagList = []string{e.Category}
	}
	return g
}

func fromProductGroup(g *repository.ProductGroup) *domain.Equipment {
	e := &domain.Equipment{
		ID:              g.ID,
		Name:            g.Name,
		Description:     g.Description,
		Price:           float64(g.BasePriceInCents) / 100,
		Quantity:        g.Quantity,
		Status:          domain.EquipmentStatusAvailable,
		BooqableGroupID: g.ID,
	}
	if len(g.TagList) > 0 {
		e.Category = g.TagList[0]
	}
	if len(g.Products) > 0 {
		e.BooqableID = g.Products[0].ID
	}
	return e
}

// equipmentRecordFields is the Records mirror row. Every column is always
// written so a partial update can clear values.
func equipmentRecordFields(e *domain.Equipment) domain.Fields {
	return domain.Fields{
		"name":            e.Name,
		"description":     e.Description,
		"price":           e.Price,
		"quantity":        e.Quantity,
		"category":        e.Category,
		"status":          string(e.Status),
		"booqableId":      e.BooqableID,
		"booqableGroupId": e.BooqableGroupID,
	}
}

func equipmentFields(e *domain.Equipment) domain.Fields {
	f := equipmentRecordFields(e)
	f["id"] = e.ID
	if e.RecordID != "" {
		f["recordId"] = e.RecordID
	}
	return f
}

func equipmentFromRecord(rec repository.Record) (*domain.Equipment, error) {
	var e domain.Equipment
	if err := rec.Fields.Decode(&e); err != nil {
		return nil, fmt.Errorf("decode equipment %s: %w", rec.ID, err)
	}
	e.RecordID = rec.ID
	e.ID = e.BooqableGroupID
	if e.ID == "" {
		e.ID = rec.ID
	}
	return &e, nil
}
