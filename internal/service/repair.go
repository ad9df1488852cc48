package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"gearshare-backend/internal/config"
	"gearshare-backend/internal/domain"
	"gearshare-backend/internal/email"
	"gearshare-backend/internal/logger"
	"gearshare-backend/internal/orchestrator"
	"gearshare-backend/internal/repository"

	"github.com/google/uuid"
)

const (
	CollectionRepairs = "repairs"
	// DocRepairs is the Document Store collection mirroring repair tickets.
	DocRepairs = "repairs"
)

type repairService struct {
	records repository.RecordStore
	docs    repository.DocumentStore
	table   string
	policy  config.EntityPolicy
	orch    *orchestrator.Orchestrator
	now     func() time.Time
}

// NewRepairService stores tickets in the Records Backend and mirrors them
// into the Document Store. docs may be nil, in which case the mirror steps
// are left out.
func NewRepairService(records repository.RecordStore, docs repository.DocumentStore, table string, policy config.EntityPolicy, orch *orchestrator.Orchestrator) RepairService {
	return &repairService{
		records: records,
		docs:    docs,
		table:   table,
		policy:  policy,
		orch:    orch,
		now:     time.Now,
	}
}

func (s *repairService) Create(ctx context.Context, r *domain.RepairTicket) (*Result[*domain.RepairTicket], error) {
	now := s.now().UTC()
	if r.Status == "" {
		r.Status = domain.RepairStatusPending
	}
	r.CreatedAt = now
	r.UpdatedAt = now
	if r.Status == domain.RepairStatusCompleted && r.CompletedAt == nil {
		r.CompletedAt = &now
	}

	steps := []orchestrator.Step{
		{
			Name:    "create repair record",
			Backend: repository.BackendRecords,
			Primary: true,
			Run: func(ctx context.Context, st *orchestrator.State) error {
				r.TicketNumber = newTicketNumber(now)
				rec, err := s.records.Create(ctx, s.table, repairRecordFields(r))
				if err != nil {
					return err
				}
				r.ID = rec.ID
				st.EntityID = rec.ID
				st.SetRef("recordId", rec.ID)
				st.SetRef("ticketId", r.TicketNumber)
				st.Current = repairFields(r)
				return nil
			},
		},
	}
	if s.docs != nil {
		steps = append(steps,
			orchestrator.Step{
				Name:           "create repair document",
				Backend:        repository.BackendDocuments,
				AbortOnFailure: s.policy.AbortOnSecondaryFailure,
				Run: func(ctx context.Context, st *orchestrator.State) error {
					id, err := s.docs.Create(ctx, DocRepairs, repairDocFields(r))
					if err != nil {
						return err
					}
					r.DocumentID = id
					st.SetRef("documentId", id)
					st.Current = repairFields(r)
					return nil
				},
			},
			s.linkDocumentStep(r),
		)
	}

	res, err := s.orch.Execute(ctx, orchestrator.Plan{
		Collection: CollectionRepairs,
		Action:     domain.ActionCreate,
		Validate:   func() error { return validateStruct(r) },
		Steps:      steps,
		Describe: func(st *orchestrator.State) string {
			return fmt.Sprintf("Created repair ticket %s for %s %s", r.TicketNumber, r.FirstName, r.LastName)
		},
		Notify: func(st *orchestrator.State) *orchestrator.Notification {
			return &orchestrator.Notification{
				Template: domain.TemplateRepairConfirmation,
				To:       r.Email,
				ToName:   fullName(r),
				Vars:     repairVars(r),
			}
		},
	})
	if err != nil {
		return nil, err
	}
	return newResult(r, res), nil
}

func (s *repairService) Update(ctx context.Context, id string, patch domain.RepairPatch) (*Result[*domain.RepairTicket], error) {
	var (
		r          *domain.RepairTicket
		prevStatus domain.RepairStatus
	)

	steps := []orchestrator.Step{
		{
			Name:    "update repair record",
			Backend: repository.BackendRecords,
			Primary: true,
			Run: func(ctx context.Context, st *orchestrator.State) error {
				r.Apply(patch, s.now().UTC())
				rec, err := s.records.Update(ctx, s.table, id, repairRecordFields(r))
				if err != nil {
					return err
				}
				updated := repairFromRecord(*rec)
				updated.CreatedAt = r.CreatedAt
				r = updated
				st.Current = repairFields(r)
				return nil
			},
		},
	}
	if s.docs != nil {
		steps = append(steps, orchestrator.Step{
			Name:           "update repair document",
			Backend:        repository.BackendDocuments,
			AbortOnFailure: s.policy.AbortOnSecondaryFailure,
			Run: func(ctx context.Context, st *orchestrator.State) error {
				if r.DocumentID == "" {
					return orchestrator.ErrSkip
				}
				st.SetRef("documentId", r.DocumentID)
				return s.docs.Update(ctx, DocRepairs, r.DocumentID, repairDocFields(r))
			},
		})
	}

	res, err := s.orch.Execute(ctx, orchestrator.Plan{
		Collection:  CollectionRepairs,
		Action:      domain.ActionUpdate,
		EntityID:    id,
		Validate:    func() error { return validateStruct(patch) },
		LoadBackend: repository.BackendRecords,
		Load: func(ctx context.Context, st *orchestrator.State) error {
			rec, err := s.records.Get(ctx, s.table, id)
			if err != nil {
				return err
			}
			r = repairFromRecord(*rec)
			prevStatus = r.Status
			st.Previous = repairFields(r)
			return nil
		},
		Steps: steps,
		Describe: func(st *orchestrator.State) string {
			if r.Status != prevStatus {
				return fmt.Sprintf("Updated repair ticket %s: status %s -> %s", r.TicketNumber, prevStatus.Label(), r.Status.Label())
			}
			return "Updated repair ticket " + r.TicketNumber
		},
		Details: func(st *orchestrator.State) map[string]any {
			if r.Status == prevStatus {
				return nil
			}
			return map[string]any{"from_status": string(prevStatus), "to_status": string(r.Status)}
		},
		Notify: func(st *orchestrator.State) *orchestrator.Notification {
			if r.Status == prevStatus {
				return nil
			}
			return &orchestrator.Notification{
				Template: domain.TemplateRepairStatusUpdate,
				To:       r.Email,
				ToName:   fullName(r),
				Vars:     repairVars(r),
			}
		},
	})
	if err != nil {
		return nil, err
	}
	return newResult(r, res), nil
}

func (s *repairService) Delete(ctx context.Context, id string) (*Result[*domain.RepairTicket], error) {
	var r *domain.RepairTicket

	steps := []orchestrator.Step{
		{
			Name:    "delete repair record",
			Backend: repository.BackendRecords,
			Primary: true,
			Run: func(ctx context.Context, st *orchestrator.State) error {
				return s.records.Delete(ctx, s.table, id)
			},
		},
	}
	if s.docs != nil {
		steps = append(steps, orchestrator.Step{
			Name:           "delete repair document",
			Backend:        repository.BackendDocuments,
			AbortOnFailure: s.policy.AbortOnSecondaryFailure,
			Run: func(ctx context.Context, st *orchestrator.State) error {
				docID, err := s.resolveDocument(ctx, r)
				if err != nil {
					return err
				}
				if docID == "" {
					return orchestrator.ErrSkip
				}
				st.SetRef("documentId", docID)
				return s.docs.Delete(ctx, DocRepairs, docID)
			},
		})
	}

	res, err := s.orch.Execute(ctx, orchestrator.Plan{
		Collection:  CollectionRepairs,
		Action:      domain.ActionDelete,
		EntityID:    id,
		LoadBackend: repository.BackendRecords,
		Load: func(ctx context.Context, st *orchestrator.State) error {
			rec, err := s.records.Get(ctx, s.table, id)
			if err != nil {
				return err
			}
			r = repairFromRecord(*rec)
			st.Previous = repairFields(r)
			return nil
		},
		Steps:    steps,
		Describe: func(st *orchestrator.State) string { return "Deleted repair ticket " + r.TicketNumber },
	})
	if err != nil {
		return nil, err
	}
	return newResult(r, res), nil
}

func (s *repairService) Get(ctx context.Context, id string) (*domain.RepairTicket, error) {
	rec, err := s.records.Get(ctx, s.table, id)
	if err != nil {
		return nil, &domain.BackendReadError{Backend: repository.BackendRecords, Operation: "get repair", Err: err}
	}
	return repairFromRecord(*rec), nil
}

// List returns tickets newest first. status may be either the canonical
// value or the Records Backend label; empty means all.
func (s *repairService) List(ctx context.Context, status string) ([]domain.RepairTicket, error) {
	q := repository.Query{Sort: []repository.Sort{{Field: "createdAt", Descending: true}}}
	if status != "" {
		st, err := domain.ParseRepairStatus(status)
		if err != nil {
			return nil, err
		}
		q.Filters = append(q.Filters, repository.Eq("status", st.Label()))
	}

	recs, err := s.records.Select(ctx, s.table, q)
	if err != nil {
		return nil, &domain.BackendReadError{Backend: repository.BackendRecords, Operation: "list repairs", Err: err}
	}
	items := make([]domain.RepairTicket, 0, len(recs))
	for _, rec := range recs {
		items = append(items, *repairFromRecord(rec))
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].CreatedAt.After(items[j].CreatedAt) })
	return items, nil
}

// Resync rewrites the Document Store mirror from the record. The document
// is updated in place when it still exists, otherwise recreated and linked.
func (s *repairService) Resync(ctx context.Context, id string) (*Result[*domain.RepairTicket], error) {
	if s.docs == nil {
		return nil, domain.NewValidationError("", "document store is disabled; nothing to resync")
	}
	var r *domain.RepairTicket

	res, err := s.orch.Execute(ctx, orchestrator.Plan{
		Collection:  CollectionRepairs,
		Action:      domain.ActionSync,
		EntityID:    id,
		LoadBackend: repository.BackendRecords,
		Load: func(ctx context.Context, st *orchestrator.State) error {
			rec, err := s.records.Get(ctx, s.table, id)
			if err != nil {
				return err
			}
			r = repairFromRecord(*rec)
			st.Previous = repairFields(r)
			st.Current = st.Previous
			return nil
		},
		Steps: []orchestrator.Step{
			{
				Name:    "upsert repair document",
				Backend: repository.BackendDocuments,
				Primary: true,
				Run: func(ctx context.Context, st *orchestrator.State) error {
					docID, err := s.resolveDocument(ctx, r)
					if err != nil {
						return err
					}
					if docID != "" {
						err = s.docs.Update(ctx, DocRepairs, docID, repairDocFields(r))
						if err == nil {
							r.DocumentID = docID
							st.SetRef("documentId", docID)
							return nil
						}
						if !isNotFound(err) {
							return err
						}
					}
					docID, err = s.docs.Create(ctx, DocRepairs, repairDocFields(r))
					if err != nil {
						return err
					}
					r.DocumentID = docID
					st.SetRef("documentId", docID)
					return nil
				},
			},
			s.linkDocumentStep(r),
		},
		Describe: func(st *orchestrator.State) string { return "Resynced repair ticket " + r.TicketNumber },
	})
	if err != nil {
		return nil, err
	}
	return newResult(r, res), nil
}

// linkDocumentStep writes the mirror id back onto the record. r is read
// when the step runs.
func (s *repairService) linkDocumentStep(r *domain.RepairTicket) orchestrator.Step {
	return orchestrator.Step{
		Name:    "link repair document",
		Backend: repository.BackendRecords,
		Run: func(ctx context.Context, st *orchestrator.State) error {
			if r.DocumentID == "" {
				return orchestrator.ErrSkip
			}
			_, err := s.records.Update(ctx, s.table, r.ID, domain.Fields{"documentId": r.DocumentID})
			return err
		},
	}
}

// resolveDocument returns the mirror id stored on the record, falling back
// to a lookup by recordId. Empty means no mirror exists.
func (s *repairService) resolveDocument(ctx context.Context, r *domain.RepairTicket) (string, error) {
	if r.DocumentID != "" {
		return r.DocumentID, nil
	}
	docs, err := s.docs.Query(ctx, DocRepairs, repository.Eq("recordId", r.ID))
	if err != nil {
		return "", err
	}
	if len(docs) == 0 {
		return "", nil
	}
	return docs[0].ID, nil
}

// newTicketNumber builds the customer-facing ticket id, e.g. GS-20240131-3FA9.
func newTicketNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:4])
	return fmt.Sprintf("GS-%s-%s", now.UTC().Format("20060102"), suffix)
}

func fullName(r *domain.RepairTicket) string {
	return strings.TrimSpace(r.FirstName + " " + r.LastName)
}

func repairVars(r *domain.RepairTicket) map[string]string {
	vars := map[string]string{
		"firstName":   r.FirstName,
		"lastName":    r.LastName,
		"repairId":    r.ID,
		"ticketId":    r.TicketNumber,
		"itemType":    r.ItemType,
		"paymentType": r.PaymentType,
		"status":      r.Status.Label(),
		"notes":       r.Notes,
	}
	if r.FinalPrice != nil {
		vars["finalPrice"] = email.FormatCurrency(*r.FinalPrice)
	}
	if r.CompletedAt != nil {
		vars["completionDate"] = r.CompletedAt.Format("January 2, 2006")
	}
	return vars
}

// repairRecordFields is the full Records row. Status is stored as its
// label; optional values are written as nil so an update clears them.
func repairRecordFields(r *domain.RepairTicket) domain.Fields {
	f := domain.Fields{
		"ticketId":          r.TicketNumber,
		"firstName":         r.FirstName,
		"lastName":          r.LastName,
		"email":             r.Email,
		"phone":             r.Phone,
		"itemType":          r.ItemType,
		"itemDescription":   r.ItemDescription,
		"damageDescription": r.DamageDescription,
		"status":            r.Status.Label(),
		"priceQuote":        r.PriceQuote,
		"finalPrice":        optionalFloat(r.FinalPrice),
		"amountPaid":        r.AmountPaid,
		"paymentType":       r.PaymentType,
		"notes":             r.Notes,
		"createdAt":         formatTime(r.CreatedAt),
		"updatedAt":         formatTime(r.UpdatedAt),
		"completedAt":       formatOptionalTime(r.CompletedAt),
	}
	if r.DocumentID != "" {
		f["documentId"] = r.DocumentID
	}
	return f
}

// repairDocFields is the Document Store mirror. It keeps the canonical
// status and a back-reference to the record.
func repairDocFields(r *domain.RepairTicket) domain.Fields {
	f := repairRecordFields(r)
	delete(f, "documentId")
	f["status"] = string(r.Status)
	f["recordId"] = r.ID
	return f
}

func repairFields(r *domain.RepairTicket) domain.Fields {
	f := repairRecordFields(r)
	f["id"] = r.ID
	f["status"] = string(r.Status)
	return f
}

func repairFromRecord(rec repository.Record) *domain.RepairTicket {
	f := rec.Fields
	r := &domain.RepairTicket{
		ID:                rec.ID,
		TicketNumber:      f.String("ticketId"),
		DocumentID:        f.String("documentId"),
		FirstName:         f.String("firstName"),
		LastName:          f.String("lastName"),
		Email:             f.String("email"),
		Phone:             f.String("phone"),
		ItemType:          f.String("itemType"),
		ItemDescription:   f.String("itemDescription"),
		DamageDescription: f.String("damageDescription"),
		PriceQuote:        floatField(f, "priceQuote"),
		FinalPrice:        optionalFloatField(f, "finalPrice"),
		AmountPaid:        floatField(f, "amountPaid"),
		PaymentType:       f.String("paymentType"),
		Notes:             f.String("notes"),
		CreatedAt:         timeField(f, "createdAt"),
		UpdatedAt:         timeField(f, "updatedAt"),
		CompletedAt:       optionalTimeField(f, "completedAt"),
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = rec.CreatedTime
	}

	raw := f.String("status")
	status, err := domain.ParseRepairStatus(raw)
	if err != nil {
		if raw != "" {
			logger.Warn("Unknown repair status label", "recordID", rec.ID, "status", raw)
		}
		status = domain.RepairStatus(raw)
	}
	r.Status = status
	return r
}
