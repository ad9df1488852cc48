package service

import (
	"context"

	"gearshare-backend/internal/domain"
)

const (
	defaultActivityLimit = 100
	maxActivityLimit     = 1000
)

// ActivityQuerier reads the activity log.
type ActivityQuerier interface {
	Query(ctx context.Context, filter domain.ActivityFilter) ([]domain.ActivityLogEntry, error)
}

type activityService struct {
	log ActivityQuerier
}

func NewActivityService(log ActivityQuerier) ActivityService {
	return &activityService{log: log}
}

func (s *activityService) Query(ctx context.Context, filter domain.ActivityFilter) ([]domain.ActivityLogEntry, error) {
	if _, err := domain.ParseDateRange(string(filter.DateRange)); err != nil {
		return nil, err
	}
	switch filter.ActionType {
	case "", domain.ActionCreate, domain.ActionUpdate, domain.ActionDelete, domain.ActionSync:
	default:
		return nil, domain.NewValidationError("actionType", "must be one of create, update, delete, sync")
	}
	if filter.DateRange == "" {
		filter.DateRange = domain.DateRangeAll
	}
	if filter.Limit <= 0 {
		filter.Limit = defaultActivityLimit
	}
	if filter.Limit > maxActivityLimit {
		filter.Limit = maxActivityLimit
	}
	return s.log.Query(ctx, filter)
}
