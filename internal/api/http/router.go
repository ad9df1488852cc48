package http

import (
	"net/http"

	"gearshare-backend/internal/config"
	"gearshare-backend/internal/security"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter wires every route. CORS wraps the router so preflights are
// answered before route matching; the other middleware runs on matched
// routes only.
func NewRouter(h *Handler, tokens security.TokenManager, cfg config.ServerConfig) http.Handler {
	r := mux.NewRouter()
	r.Use(Recovery, Instrument, NewAuthMiddleware(tokens).Handler)

	r.HandleFunc("/healthz", h.Health).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/auth/login", h.Login).Methods(http.MethodPost)

	api.HandleFunc("/equipment", h.ListEquipment).Methods(http.MethodGet)
	api.HandleFunc("/equipment", h.CreateEquipment).Methods(http.MethodPost)
	api.HandleFunc("/equipment/{id}", h.GetEquipment).Methods(http.MethodGet)
	api.HandleFunc("/equipment/{id}", h.UpdateEquipment).Methods(http.MethodPut)
	api.HandleFunc("/equipment/{id}", h.DeleteEquipment).Methods(http.MethodDelete)
	api.HandleFunc("/equipment/{id}/resync", h.ResyncEquipment).Methods(http.MethodPost)

	api.HandleFunc("/repairs", h.ListRepairs).Methods(http.MethodGet)
	api.HandleFunc("/repairs", h.CreateRepair).Methods(http.MethodPost)
	api.HandleFunc("/repairs/{id}", h.GetRepair).Methods(http.MethodGet)
	api.HandleFunc("/repairs/{id}", h.UpdateRepair).Methods(http.MethodPut)
	api.HandleFunc("/repairs/{id}", h.DeleteRepair).Methods(http.MethodDelete)
	api.HandleFunc("/repairs/{id}/resync", h.ResyncRepair).Methods(http.MethodPost)

	api.HandleFunc("/rentals", h.ListRentals).Methods(http.MethodGet)
	api.HandleFunc("/rentals", h.CreateRental).Methods(http.MethodPost)
	api.HandleFunc("/rentals/sync", h.SyncRentals).Methods(http.MethodPost)
	api.HandleFunc("/rentals/{id}", h.GetRental).Methods(http.MethodGet)
	api.HandleFunc("/rentals/{id}", h.UpdateRental).Methods(http.MethodPut)
	api.HandleFunc("/rentals/{id}/cancel", h.CancelRental).Methods(http.MethodPost)

	api.HandleFunc("/email-templates", h.ListTemplates).Methods(http.MethodGet)
	api.HandleFunc("/email-templates", h.CreateTemplate).Methods(http.MethodPost)
	api.HandleFunc("/email-templates/{id}", h.UpdateTemplate).Methods(http.MethodPut)
	api.HandleFunc("/email-templates/{id}", h.DeleteTemplate).Methods(http.MethodDelete)
	api.HandleFunc("/email/send", h.SendEmail).Methods(http.MethodPost)

	api.HandleFunc("/activity", h.QueryActivity).Methods(http.MethodGet)
	api.HandleFunc("/dashboard", h.Dashboard).Methods(http.MethodGet)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		writeFailure(w, http.StatusNotFound, "route not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		writeFailure(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	return NewCORS(cfg)(r)
}
