package service

import (
	"context"
	"sync/atomic"
	"time"

	"gearshare-backend/internal/cache"
	"gearshare-backend/internal/domain"
	"gearshare-backend/internal/logger"
	"gearshare-backend/internal/repository"

	"golang.org/x/sync/errgroup"
)

const recentActivityLimit = 10

// DashboardCache is the subset of cache.Cache the dashboard uses.
type DashboardCache interface {
	GetJSON(ctx context.Context, key string, dest any) bool
	SetJSON(ctx context.Context, key string, v any, ttl time.Duration)
}

type dashboardService struct {
	booking        repository.BookingBackend
	records        repository.RecordStore
	equipmentTable string
	repairsTable   string
	activity       ActivityQuerier
	cache          DashboardCache
	ttl            time.Duration
	now            func() time.Time
}

func NewDashboardService(
	booking repository.BookingBackend,
	records repository.RecordStore,
	equipmentTable, repairsTable string,
	activity ActivityQuerier,
	cache DashboardCache,
	ttl time.Duration,
) DashboardService {
	return &dashboardService{
		booking:        booking,
		records:        records,
		equipmentTable: equipmentTable,
		repairsTable:   repairsTable,
		activity:       activity,
		cache:          cache,
		ttl:            ttl,
		now:            time.Now,
	}
}

// Summary runs the four reads concurrently. A failed read leaves its
// figure at zero and is logged; it never fails the summary. A summary with
// any failed read is not cached.
func (s *dashboardService) Summary(ctx context.Context) (*domain.Dashboard, error) {
	var cached domain.Dashboard
	if s.cache != nil && s.cache.GetJSON(ctx, cache.DashboardKey, &cached) {
		return &cached, nil
	}

	d := &domain.Dashboard{RecentActivity: []domain.ActivityLogEntry{}}
	var partial atomic.Bool
	fail := func(backend, op string, err error) {
		partial.Store(true)
		s.degraded(ctx, backend, op, err)
	}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		recs, err := s.records.Select(gctx, s.equipmentTable, repository.Query{})
		if err != nil {
			fail(repository.BackendRecords, "count equipment", err)
			return nil
		}
		d.EquipmentCount = len(recs)
		return nil
	})
	g.Go(func() error {
		recs, err := s.records.Select(gctx, s.repairsTable, repository.Query{
			Filters: []repository.Filter{{Field: "status", Op: repository.OpNeq, Value: domain.RepairStatusCompleted.Label()}},
		})
		if err != nil {
			fail(repository.BackendRecords, "count open repairs", err)
			return nil
		}
		d.OpenRepairs = len(recs)
		return nil
	})
	g.Go(func() error {
		orders, err := s.booking.ListOrders(gctx, repository.OrderFilter{Statuses: []string{"started"}})
		if err != nil {
			fail(repository.BackendBooking, "count active rentals", err)
			return nil
		}
		d.ActiveRentals = len(orders)
		return nil
	})
	g.Go(func() error {
		entries, err := s.activity.Query(gctx, domain.ActivityFilter{DateRange: domain.DateRangeAll, Limit: recentActivityLimit})
		if err != nil {
			fail(repository.BackendRecords, "recent activity", err)
			return nil
		}
		d.RecentActivity = entries
		return nil
	})
	_ = g.Wait()

	d.GeneratedAt = s.now().UTC().Format(domain.TimestampLayout)
	switch {
	case s.cache == nil:
	case partial.Load():
		logger.DebugContext(ctx, "Dashboard summary incomplete, skipping cache")
	default:
		s.cache.SetJSON(ctx, cache.DashboardKey, d, s.ttl)
	}
	return d, nil
}

func (s *dashboardService) degraded(ctx context.Context, backend, op string, err error) {
	logger.WarnContext(ctx, "Dashboard read degraded",
		"error", &domain.BackendReadError{Backend: backend, Operation: op, Err: err})
}
