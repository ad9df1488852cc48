package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"gearshare-backend/internal/activity"
	"gearshare-backend/internal/config"
	"gearshare-backend/internal/domain"
	"gearshare-backend/internal/logger"
	"gearshare-backend/internal/orchestrator"
	"gearshare-backend/internal/repository"
)

const (
	CollectionRentals = "rentals"
	// DocRentals is the Document Store collection mirroring rental orders.
	DocRentals = "rentals"
)

type rentalService struct {
	booking  repository.BookingBackend
	docs     repository.DocumentStore
	policy   config.EntityPolicy
	sync     config.SyncConfig
	orch     *orchestrator.Orchestrator
	activity orchestrator.ActivityRecorder
	now      func() time.Time
	sleep    func(ctx context.Context, d time.Duration) error
}

func NewRentalService(
	booking repository.BookingBackend,
	docs repository.DocumentStore,
	syncCfg config.SyncConfig,
	orch *orchestrator.Orchestrator,
	recorder orchestrator.ActivityRecorder,
) RentalService {
	return &rentalService{
		booking:  booking,
		docs:     docs,
		policy:   syncCfg.Rentals,
		sync:     syncCfg,
		orch:     orch,
		activity: recorder,
		now:      time.Now,
		sleep:    sleepContext,
	}
}

// Create opens the order, adds its lines and reserves it as one primary
// step. If a later call fails the half-built order is cancelled so no
// stray concept order is left behind.
func (s *rentalService) Create(ctx context.Context, o *domain.RentalOrder) (*Result[*domain.RentalOrder], error) {
	steps := []orchestrator.Step{
		{
			Name:    "create order",
			Backend: repository.BackendBooking,
			Primary: true,
			Run: func(ctx context.Context, st *orchestrator.State) error {
				if err := s.createOrder(ctx, o); err != nil {
					return err
				}
				st.EntityID = o.ID
				st.SetRef("orderId", o.ID)
				st.Current = rentalFields(o)
				return nil
			},
		},
	}
	if s.docs != nil {
		steps = append(steps, orchestrator.Step{
			Name:           "create rental document",
			Backend:        repository.BackendDocuments,
			AbortOnFailure: s.policy.AbortOnSecondaryFailure,
			Run: func(ctx context.Context, st *orchestrator.State) error {
				id, err := s.docs.Create(ctx, DocRentals, rentalDocFields(o))
				if err != nil {
					return err
				}
				o.DocumentID = id
				st.SetRef("documentId", id)
				st.Current = rentalFields(o)
				return nil
			},
		})
	}

	res, err := s.orch.Execute(ctx, orchestrator.Plan{
		Collection: CollectionRentals,
		Action:     domain.ActionCreate,
		Validate:   func() error { return validateStruct(o) },
		Steps:      steps,
		Describe: func(st *orchestrator.State) string {
			return fmt.Sprintf("Created rental order %s for %s", o.ID, customerLabel(o))
		},
		Notify: func(st *orchestrator.State) *orchestrator.Notification {
			return &orchestrator.Notification{
				Template: domain.TemplateRentalConfirmation,
				To:       o.CustomerEmail,
				ToName:   o.CustomerName,
				Vars:     rentalVars(o),
			}
		},
	})
	if err != nil {
		return nil, err
	}
	return newResult(o, res), nil
}

func (s *rentalService) createOrder(ctx context.Context, o *domain.RentalOrder) error {
	starts, stops := o.StartsAt.UTC(), o.StopsAt.UTC()
	order, err := s.booking.CreateOrder(ctx, &repository.Order{
		CustomerID: o.CustomerID,
		StartsAt:   &starts,
		StopsAt:    &stops,
	})
	if err != nil {
		return err
	}
	o.ID = order.ID

	for i := range o.Lines {
		line, err := s.booking.AddOrderLine(ctx, order.ID, &repository.OrderLine{
			ItemID:   o.Lines[i].EquipmentID,
			Quantity: o.Lines[i].Quantity,
		})
		if err != nil {
			return s.compensate(ctx, order.ID, fmt.Errorf("add line %d: %w", i+1, err))
		}
		o.Lines[i].LineID = line.ID
	}

	reserved, err := s.booking.ReserveOrder(ctx, order.ID)
	if err != nil {
		return s.compensate(ctx, order.ID, fmt.Errorf("reserve: %w", err))
	}
	o.ExternalStatus = reserved.Status
	o.Status = domain.MapBookingStatus(reserved.Status)
	return nil
}

// compensate cancels an order whose creation failed part way and returns
// cause unchanged.
func (s *rentalService) compensate(ctx context.Context, orderID string, cause error) error {
	if _, err := s.booking.CancelOrder(ctx, orderID); err != nil {
		logger.ErrorContext(ctx, "Failed to cancel incomplete order", "orderID", orderID, "cause", cause, "error", err)
	}
	return cause
}

func (s *rentalService) Update(ctx context.Context, id string, patch domain.RentalPatch) (*Result[*domain.RentalOrder], error) {
	var o *domain.RentalOrder

	steps := []orchestrator.Step{
		{
			Name:    "update order",
			Backend: repository.BackendBooking,
			Primary: true,
			Run: func(ctx context.Context, st *orchestrator.State) error {
				o.Apply(patch)
				if !o.StopsAt.After(o.StartsAt) {
					return domain.NewValidationError("stopsAt", "must be after startsAt")
				}
				starts, stops := o.StartsAt.UTC(), o.StopsAt.UTC()
				order, err := s.booking.UpdateOrder(ctx, id, &repository.Order{
					CustomerID: o.CustomerID,
					StartsAt:   &starts,
					StopsAt:    &stops,
				})
				if err != nil {
					return err
				}
				o.ExternalStatus = order.Status
				o.Status = domain.MapBookingStatus(order.Status)
				st.Current = rentalFields(o)
				return nil
			},
		},
	}
	if s.docs != nil {
		steps = append(steps, s.upsertDocumentStep(func() *domain.RentalOrder { return o }, "update rental document"))
	}

	res, err := s.orch.Execute(ctx, orchestrator.Plan{
		Collection:  CollectionRentals,
		Action:      domain.ActionUpdate,
		EntityID:    id,
		Validate:    func() error { return validateStruct(patch) },
		LoadBackend: repository.BackendBooking,
		Load: func(ctx context.Context, st *orchestrator.State) error {
			loaded, err := s.load(ctx, id)
			if err != nil {
				return err
			}
			o = loaded
			st.Previous = rentalFields(o)
			return nil
		},
		Steps:    steps,
		Describe: func(st *orchestrator.State) string { return "Updated rental order " + id },
	})
	if err != nil {
		return nil, err
	}
	return newResult(o, res), nil
}

// Cancel archives the order in the Booking Backend and marks the mirror
// cancelled. It is logged as an update of the order.
func (s *rentalService) Cancel(ctx context.Context, id string) (*Result[*domain.RentalOrder], error) {
	var o *domain.RentalOrder

	steps := []orchestrator.Step{
		{
			Name:    "cancel order",
			Backend: repository.BackendBooking,
			Primary: true,
			Run: func(ctx context.Context, st *orchestrator.State) error {
				order, err := s.booking.CancelOrder(ctx, id)
				if err != nil {
					return err
				}
				o.ExternalStatus = order.Status
				o.Status = domain.RentalStatusCancelled
				st.Current = rentalFields(o)
				return nil
			},
		},
	}
	if s.docs != nil {
		steps = append(steps, s.upsertDocumentStep(func() *domain.RentalOrder { return o }, "mark rental document cancelled"))
	}

	res, err := s.orch.Execute(ctx, orchestrator.Plan{
		Collection:  CollectionRentals,
		Action:      domain.ActionUpdate,
		EntityID:    id,
		LoadBackend: repository.BackendBooking,
		Load: func(ctx context.Context, st *orchestrator.State) error {
			loaded, err := s.load(ctx, id)
			if err != nil {
				return err
			}
			if loaded.Status.IsCancelled() {
				return domain.NewValidationError("status", "order %s is already cancelled", id)
			}
			o = loaded
			st.Previous = rentalFields(o)
			return nil
		},
		Steps:    steps,
		Describe: func(st *orchestrator.State) string { return "Cancelled rental order " + id },
	})
	if err != nil {
		return nil, err
	}
	return newResult(o, res), nil
}

func (s *rentalService) Get(ctx context.Context, id string) (*domain.RentalOrder, error) {
	o, err := s.load(ctx, id)
	if err != nil {
		return nil, &domain.BackendReadError{Backend: repository.BackendBooking, Operation: "get rental", Err: err}
	}
	return o, nil
}

// List reads orders from the Booking Backend and overlays the customer and
// sync columns kept only in the mirror.
func (s *rentalService) List(ctx context.Context) ([]domain.RentalOrder, error) {
	orders, err := s.booking.ListOrders(ctx, repository.OrderFilter{})
	if err != nil {
		return nil, &domain.BackendReadError{Backend: repository.BackendBooking, Operation: "list rentals", Err: err}
	}

	mirrors := map[string]repository.Document{}
	if s.docs != nil {
		docs, err := s.docs.Query(ctx, DocRentals)
		if err != nil {
			logger.WarnContext(ctx, "Rental mirror read failed", "error", err)
		}
		for _, d := range docs {
			mirrors[d.Data.String("orderId")] = d
		}
	}

	items := make([]domain.RentalOrder, 0, len(orders))
	for i := range orders {
		o := rentalFromOrder(&orders[i])
		if d, ok := mirrors[o.ID]; ok {
			overlayMirror(o, d)
		}
		items = append(items, *o)
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].StartsAt.After(items[j].StartsAt) })
	return items, nil
}

// SyncStatuses polls the Booking Backend for every open mirrored order and
// copies the mapped status into the mirror. HTTP 429 is retried after a
// fixed sleep; other failures are recorded on the document as sync_error.
// One sync activity entry is written per run.
func (s *rentalService) SyncStatuses(ctx context.Context) (*domain.SyncReport, error) {
	logger.EnterMethod("rentalService.SyncStatuses")
	report := &domain.SyncReport{Errors: []string{}}

	if s.docs == nil {
		logger.WarnContext(ctx, "Document store disabled; rental status sync skipped")
		return report, nil
	}

	docs, err := s.docs.Query(ctx, DocRentals)
	if err != nil {
		logger.ExitMethodWithError("rentalService.SyncStatuses", err)
		return nil, &domain.BackendReadError{Backend: repository.BackendDocuments, Operation: "list rental documents", Err: err}
	}

	for _, doc := range docs {
		status := domain.RentalStatus(doc.Data.String("status"))
		if status.IsTerminal() {
			continue
		}
		orderID := doc.Data.String("orderId")
		if orderID == "" {
			continue
		}
		if ctx.Err() != nil {
			break
		}
		report.Total++
		s.syncOne(ctx, doc, orderID, status, report)
	}

	s.activity.Append(ctx, activity.Entry{
		ActionType:  domain.ActionSync,
		Collection:  CollectionRentals,
		Description: fmt.Sprintf("Synced rental statuses: %d checked, %d updated, %d failed", report.Total, report.Updated, report.Failed),
		Details: map[string]any{
			"total":   report.Total,
			"updated": report.Updated,
			"failed":  report.Failed,
			"errors":  report.Errors,
		},
	})

	logger.ExitMethod("rentalService.SyncStatuses", "total", report.Total, "updated", report.Updated, "failed", report.Failed)
	return report, ctx.Err()
}

func (s *rentalService) syncOne(ctx context.Context, doc repository.Document, orderID string, current domain.RentalStatus, report *domain.SyncReport) {
	syncedAt := s.now().UTC().Format(domain.TimestampLayout)

	order, err := s.getOrderWithBackoff(ctx, orderID)
	if err != nil {
		report.Failed++
		report.Errors = append(report.Errors, fmt.Sprintf("%s: %v", orderID, err))
		logger.WarnContext(ctx, "Rental status sync failed", "orderID", orderID, "error", err)
		if uerr := s.docs.Update(ctx, DocRentals, doc.ID, domain.Fields{
			"sync_error": err.Error(),
			"synced_at":  syncedAt,
		}); uerr != nil {
			logger.WarnContext(ctx, "Failed to record sync error", "orderID", orderID, "error", uerr)
		}
		return
	}

	next := domain.MapBookingStatus(order.Status)
	if err := s.docs.Update(ctx, DocRentals, doc.ID, domain.Fields{
		"status":         string(next),
		"externalStatus": order.Status,
		"sync_error":     "",
		"synced_at":      syncedAt,
	}); err != nil {
		report.Failed++
		report.Errors = append(report.Errors, fmt.Sprintf("%s: %v", orderID, err))
		logger.WarnContext(ctx, "Rental mirror update failed", "orderID", orderID, "error", err)
		return
	}
	if next != current {
		report.Updated++
		logger.InfoContext(ctx, "Rental status changed", "orderID", orderID, "from", current, "to", next)
	}
}

// getOrderWithBackoff retries only on HTTP 429, sleeping a fixed interval
// between attempts.
func (s *rentalService) getOrderWithBackoff(ctx context.Context, orderID string) (*repository.Order, error) {
	attempts := s.sync.RateLimitAttempts
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		var order *repository.Order
		order, err = s.booking.GetOrder(ctx, orderID)
		if err == nil {
			return order, nil
		}
		if !errors.Is(err, repository.ErrRateLimited) || attempt == attempts {
			break
		}
		logger.DebugContext(ctx, "Booking backend rate limited, backing off", "orderID", orderID, "attempt", attempt)
		if serr := s.sleep(ctx, s.sync.RateLimitSleep()); serr != nil {
			return nil, serr
		}
	}
	return nil, err
}

func (s *rentalService) upsertDocumentStep(entity func() *domain.RentalOrder, name string) orchestrator.Step {
	return orchestrator.Step{
		Name:           name,
		Backend:        repository.BackendDocuments,
		AbortOnFailure: s.policy.AbortOnSecondaryFailure,
		Run: func(ctx context.Context, st *orchestrator.State) error {
			o := entity()
			if o.DocumentID == "" {
				id, err := s.docs.Create(ctx, DocRentals, rentalDocFields(o))
				if err != nil {
					return err
				}
				o.DocumentID = id
			} else if err := s.docs.Update(ctx, DocRentals, o.DocumentID, rentalDocFields(o)); err != nil {
				return err
			}
			st.SetRef("documentId", o.DocumentID)
			st.Current = rentalFields(o)
			return nil
		},
	}
}

func (s *rentalService) load(ctx context.Context, id string) (*domain.RentalOrder, error) {
	order, err := s.booking.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	o := rentalFromOrder(order)
	if s.docs == nil {
		return o, nil
	}
	docs, err := s.docs.Query(ctx, DocRentals, repository.Eq("orderId", id))
	if err != nil {
		logger.WarnContext(ctx, "Rental mirror lookup failed", "orderID", id, "error", err)
		return o, nil
	}
	if len(docs) > 0 {
		overlayMirror(o, docs[0])
	}
	return o, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func rentalFromOrder(order *repository.Order) *domain.RentalOrder {
	o := &domain.RentalOrder{
		ID:             order.ID,
		CustomerID:     order.CustomerID,
		ExternalStatus: order.Status,
		Status:         domain.MapBookingStatus(order.Status),
	}
	if order.StartsAt != nil {
		o.StartsAt = order.StartsAt.UTC()
	}
	if order.StopsAt != nil {
		o.StopsAt = order.StopsAt.UTC()
	}
	for _, l := range order.Lines {
		o.Lines = append(o.Lines, domain.RentalLine{EquipmentID: l.ItemID, Quantity: l.Quantity, LineID: l.ID})
	}
	return o
}

func overlayMirror(o *domain.RentalOrder, d repository.Document) {
	o.DocumentID = d.ID
	o.CustomerName = d.Data.String("customerName")
	o.CustomerEmail = d.Data.String("customerEmail")
	o.SyncError = d.Data.String("sync_error")
	o.SyncedAt = optionalTimeField(d.Data, "synced_at")
}

func rentalDocFields(o *domain.RentalOrder) domain.Fields {
	lines := make([]any, 0, len(o.Lines))
	for _, l := range o.Lines {
		lines = append(lines, map[string]any{"equipmentId": l.EquipmentID, "quantity": l.Quantity, "lineId": l.LineID})
	}
	return domain.Fields{
		"orderId":        o.ID,
		"customerId":     o.CustomerID,
		"customerName":   o.CustomerName,
		"customerEmail":  o.CustomerEmail,
		"startsAt":       formatTime(o.StartsAt),
		"stopsAt":        formatTime(o.StopsAt),
		"lines":          lines,
		"status":         string(o.Status),
		"externalStatus": o.ExternalStatus,
	}
}

func rentalFields(o *domain.RentalOrder) domain.Fields {
	f := rentalDocFields(o)
	f["id"] = o.ID
	if o.DocumentID != "" {
		f["documentId"] = o.DocumentID
	}
	return f
}

func customerLabel(o *domain.RentalOrder) string {
	if o.CustomerName != "" {
		return o.CustomerName
	}
	return o.CustomerID
}

func rentalVars(o *domain.RentalOrder) map[string]string {
	return map[string]string{
		"firstName":    o.CustomerName,
		"customerName": o.CustomerName,
		"orderId":      o.ID,
		"status":       string(o.Status),
		"startDate":    o.StartsAt.Format("January 2, 2006"),
		"endDate":      o.StopsAt.Format("January 2, 2006"),
	}
}
