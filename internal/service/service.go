package service

import (
	"context"
	"errors"

	"gearshare-backend/internal/domain"
	"gearshare-backend/internal/orchestrator"
)

// Result is the outcome of a cross-system write: the entity as stored by
// its primary backend, the cross-reference ids written and any warnings.
type Result[T any] struct {
	Entity   T
	Refs     map[string]string
	Warnings []string
}

func newResult[T any](entity T, r *orchestrator.Result) *Result[T] {
	return &Result[T]{Entity: entity, Refs: r.Refs, Warnings: r.Warnings}
}

func isNotFound(err error) bool {
	return errors.Is(err, domain.ErrNotFound)
}

type AuthService interface {
	Login(ctx context.Context, email, password string) (*domain.Session, error)
}

type EquipmentService interface {
	Create(ctx context.Context, e *domain.Equipment) (*Result[*domain.Equipment], error)
	Update(ctx context.Context, id string, patch domain.EquipmentPatch) (*Result[*domain.Equipment], error)
	Delete(ctx context.Context, id string) (*Result[*domain.Equipment], error)
	Get(ctx context.Context, id string) (*domain.Equipment, error)
	List(ctx context.Context) ([]domain.Equipment, error)
	Resync(ctx context.Context, id string) (*Result[*domain.Equipment], error)
}

type RepairService interface {
	Create(ctx context.Context, r *domain.RepairTicket) (*Result[*domain.RepairTicket], error)
	Update(ctx context.Context, id string, patch domain.RepairPatch) (*Result[*domain.RepairTicket], error)
	Delete(ctx context.Context, id string) (*Result[*domain.RepairTicket], error)
	Get(ctx context.Context, id string) (*domain.RepairTicket, error)
	List(ctx context.Context, status string) ([]domain.RepairTicket, error)
	Resync(ctx context.Context, id string) (*Result[*domain.RepairTicket], error)
}

type RentalService interface {
	Create(ctx context.Context, o *domain.RentalOrder) (*Result[*domain.RentalOrder], error)
	Update(ctx context.Context, id string, patch domain.RentalPatch) (*Result[*domain.RentalOrder], error)
	Cancel(ctx context.Context, id string) (*Result[*domain.RentalOrder], error)
	Get(ctx context.Context, id string) (*domain.RentalOrder, error)
	List(ctx context.Context) ([]domain.RentalOrder, error)
	SyncStatuses(ctx context.Context) (*domain.SyncReport, error)
}

type TemplateService interface {
	Create(ctx context.Context, t *domain.EmailTemplate) (*Result[*domain.EmailTemplate], error)
	Update(ctx context.Context, id string, patch domain.EmailTemplatePatch) (*Result[*domain.EmailTemplate], error)
	Delete(ctx context.Context, id string) (*Result[*domain.EmailTemplate], error)
	List(ctx context.Context) ([]domain.EmailTemplate, error)
}

type EmailService interface {
	// SendTemplate renders the named stored template and sends it.
	SendTemplate(ctx context.Context, templateName, to, toName string, vars map[string]string) (string, error)
	Send(ctx context.Context, req domain.SendEmailRequest) (string, error)
}

type ActivityService interface {
	Query(ctx context.Context, filter domain.ActivityFilter) ([]domain.ActivityLogEntry, error)
}

type DashboardService interface {
	Summary(ctx context.Context) (*domain.Dashboard, error)
}
