package api

import (
	"net/http"
)

// RegisterRoutes регистрирует все маршруты API.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// Middleware chain
	chain := Chain(
		Recovery(h.logger),
		Logging(h.logger),
	)

	// Catalog
	mux.Handle("GET /api/v1/catalog", chain(http.HandlerFunc(h.GetCatalog)))
	mux.Handle("POST /api/v1/catalog/refresh", chain(http.HandlerFunc(h.RefreshCatalog)))

	// Selection
	mux.Handle("GET /api/v1/selection", chain(http.HandlerFunc(h.GetSelection)))
	mux.Handle("PUT /api/v1/selection/pipeline", chain(http.HandlerFunc(h.SelectPipeline)))
	mux.Handle("POST /api/v1/selection/stages/{name}/toggle", chain(http.HandlerFunc(h.ToggleStage)))
	mux.Handle("PUT /api/v1/selection/stages", chain(http.HandlerFunc(h.SetStages)))
	mux.Handle("GET /api/v1/selection/plan", chain(http.HandlerFunc(h.GetSelectionPlan)))
	mux.Handle("DELETE /api/v1/selection", chain(http.HandlerFunc(h.ClearSelection)))

	// Stage configuration
	mux.Handle("GET /api/v1/config/stages/{name}", chain(http.HandlerFunc(h.GetStageConfig)))
	mux.Handle("PUT /api/v1/config/stages/{name}/fields/{field}", chain(http.HandlerFunc(h.SetConfigField)))
	mux.Handle("POST /api/v1/config/stages/{name}/reset", chain(http.HandlerFunc(h.ResetStageConfig)))
	mux.Handle("GET /api/v1/config/global", chain(http.HandlerFunc(h.GetGlobalConfig)))
	mux.Handle("PUT /api/v1/config/global", chain(http.HandlerFunc(h.SetGlobalConfig)))
	mux.Handle("POST /api/v1/config/global/apply", chain(http.HandlerFunc(h.ApplyGlobalConfig)))

	// Run session
	mux.Handle("GET /api/v1/session", chain(http.HandlerFunc(h.GetSession)))
	mux.Handle("POST /api/v1/session/validate", chain(http.HandlerFunc(h.ValidateSession)))
	mux.Handle("POST /api/v1/session/execute", chain(http.HandlerFunc(h.ExecuteSession)))
	mux.Handle("POST /api/v1/session/cancel", chain(http.HandlerFunc(h.CancelSession)))
	mux.Handle("POST /api/v1/session/reset", chain(http.HandlerFunc(h.ResetSession)))
	mux.Handle("DELETE /api/v1/session/errors", chain(http.HandlerFunc(h.ClearSessionErrors)))

	// Run history
	mux.Handle("GET /api/v1/history", chain(http.HandlerFunc(h.ListHistory)))
	mux.Handle("GET /api/v1/history/{id}", chain(http.HandlerFunc(h.GetHistoryRecord)))

	// Schedules
	mux.Handle("GET /api/v1/schedules", chain(http.HandlerFunc(h.ListSchedules)))
	mux.Handle("POST /api/v1/schedules", chain(http.HandlerFunc(h.CreateSchedule)))
	mux.Handle("GET /api/v1/schedules/{id}", chain(http.HandlerFunc(h.GetSchedule)))
	mux.Handle("PUT /api/v1/schedules/{id}", chain(http.HandlerFunc(h.UpdateSchedule)))
	mux.Handle("DELETE /api/v1/schedules/{id}", chain(http.HandlerFunc(h.DeleteSchedule)))
	mux.Handle("PUT /api/v1/schedules/{id}/enabled", chain(http.HandlerFunc(h.SetScheduleEnabled)))
}
