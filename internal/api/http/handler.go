package http

import (
	"net/http"
	"strconv"

	"gearshare-backend/internal/domain"
	"gearshare-backend/internal/service"

	"github.com/gorilla/mux"
)

// Services bundles what the route handlers delegate to.
type Services struct {
	Auth      service.AuthService
	Equipment service.EquipmentService
	Repairs   service.RepairService
	Rentals   service.RentalService
	Templates service.TemplateService
	Email     service.EmailService
	Activity  service.ActivityService
	Dashboard service.DashboardService
}

// Handler implements every JSON route. Each write route delegates to
// exactly one service operation.
type Handler struct {
	svc Services
}

func NewHandler(svc Services) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	session, err := h.svc.Auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{
		"token":     session.Token,
		"expiresAt": session.ExpiresAt,
		"email":     session.Email,
	})
}

// Equipment

func (h *Handler) ListEquipment(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.Equipment.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"data": items, "count": len(items)})
}

func (h *Handler) GetEquipment(w http.ResponseWriter, r *http.Request) {
	e, err := h.svc.Equipment.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"data": e})
}

func (h *Handler) CreateEquipment(w http.ResponseWriter, r *http.Request) {
	var e domain.Equipment
	if err := decodeJSON(w, r, &e); err != nil {
		writeError(w, r, err)
		return
	}
	res, err := h.svc.Equipment.Create(r.Context(), &e)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeResult(w, http.StatusCreated, res)
}

func (h *Handler) UpdateEquipment(w http.ResponseWriter, r *http.Request) {
	var patch domain.EquipmentPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, r, err)
		return
	}
	res, err := h.svc.Equipment.Update(r.Context(), mux.Vars(r)["id"], patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeResult(w, http.StatusOK, res)
}

func (h *Handler) DeleteEquipment(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Equipment.Delete(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeResult(w, http.StatusOK, res)
}

func (h *Handler) ResyncEquipment(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Equipment.Resync(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeResult(w, http.StatusOK, res)
}

// Repairs

func (h *Handler) ListRepairs(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.Repairs.List(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"data": items, "count": len(items)})
}

func (h *Handler) GetRepair(w http.ResponseWriter, r *http.Request) {
	t, err := h.svc.Repairs.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"data": t})
}

func (h *Handler) CreateRepair(w http.ResponseWriter, r *http.Request) {
	var t domain.RepairTicket
	if err := decodeJSON(w, r, &t); err != nil {
		writeError(w, r, err)
		return
	}
	res, err := h.svc.Repairs.Create(r.Context(), &t)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeResult(w, http.StatusCreated, res)
}

func (h *Handler) UpdateRepair(w http.ResponseWriter, r *http.Request) {
	var patch domain.RepairPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, r, err)
		return
	}
	res, err := h.svc.Repairs.Update(r.Context(), mux.Vars(r)["id"], patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeResult(w, http.StatusOK, res)
}

func (h *Handler) DeleteRepair(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Repairs.Delete(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeResult(w, http.StatusOK, res)
}

func (h *Handler) ResyncRepair(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Repairs.Resync(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeResult(w, http.StatusOK, res)
}

// Rentals

func (h *Handler) ListRentals(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.Rentals.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"data": items, "count": len(items)})
}

func (h *Handler) GetRental(w http.ResponseWriter, r *http.Request) {
	o, err := h.svc.Rentals.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"data": o})
}

func (h *Handler) CreateRental(w http.ResponseWriter, r *http.Request) {
	var o domain.RentalOrder
	if err := decodeJSON(w, r, &o); err != nil {
		writeError(w, r, err)
		return
	}
	res, err := h.svc.Rentals.Create(r.Context(), &o)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeResult(w, http.StatusCreated, res)
}

func (h *Handler) UpdateRental(w http.ResponseWriter, r *http.Request) {
	var patch domain.RentalPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, r, err)
		return
	}
	res, err := h.svc.Rentals.Update(r.Context(), mux.Vars(r)["id"], patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeResult(w, http.StatusOK, res)
}

func (h *Handler) CancelRental(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Rentals.Cancel(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeResult(w, http.StatusOK, res)
}

func (h *Handler) SyncRentals(w http.ResponseWriter, r *http.Request) {
	report, err := h.svc.Rentals.SyncStatuses(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"data": report})
}

// Email templates and sending

func (h *Handler) ListTemplates(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.Templates.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"data": items, "count": len(items)})
}

func (h *Handler) CreateTemplate(w http.ResponseWriter, r *http.Request) {
	var t domain.EmailTemplate
	if err := decodeJSON(w, r, &t); err != nil {
		writeError(w, r, err)
		return
	}
	res, err := h.svc.Templates.Create(r.Context(), &t)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeResult(w, http.StatusCreated, res)
}

func (h *Handler) UpdateTemplate(w http.ResponseWriter, r *http.Request) {
	var patch domain.EmailTemplatePatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, r, err)
		return
	}
	res, err := h.svc.Templates.Update(r.Context(), mux.Vars(r)["id"], patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeResult(w, http.StatusOK, res)
}

func (h *Handler) DeleteTemplate(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Templates.Delete(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeResult(w, http.StatusOK, res)
}

func (h *Handler) SendEmail(w http.ResponseWriter, r *http.Request) {
	var req domain.SendEmailRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	id, err := h.svc.Email.Send(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"messageId": id})
}

// Activity and dashboard

func (h *Handler) QueryActivity(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	dateRange, err := domain.ParseDateRange(q.Get("dateRange"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	filter := domain.ActivityFilter{
		DateRange:  dateRange,
		ActionType: domain.ActionType(q.Get("actionType")),
		Collection: q.Get("collection"),
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			writeError(w, r, domain.NewValidationError("limit", "must be a non-negative integer"))
			return
		}
		filter.Limit = limit
	}

	entries, err := h.svc.Activity.Query(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"data": entries, "count": len(entries)})
}

func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.svc.Dashboard.Summary(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"data": d})
}
