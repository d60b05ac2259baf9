package api

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/shaiso/Pipedeck/internal/domain"
	"github.com/shaiso/Pipedeck/internal/repo"
)

// ListHistory возвращает историю запусков с фильтрацией.
// GET /api/v1/history?pipeline=...&status=...&limit=...&offset=...
func (h *Handler) ListHistory(w http.ResponseWriter, r *http.Request) {
	filter := repo.HistoryFilter{
		Pipeline: r.URL.Query().Get("pipeline"),
		Limit:    int(mustParseInt(r.URL.Query().Get("limit"), 50)),
		Offset:   int(mustParseInt(r.URL.Query().Get("offset"), 0)),
	}

	if status := r.URL.Query().Get("status"); status != "" {
		filter.Status = domain.RunStatus(status)
	}

	records, err := h.historyRepo.List(r.Context(), filter)
	if HandleRepoError(w, h.logger, err, "") {
		return
	}

	result := make([]RunRecordResponse, len(records))
	for i, rec := range records {
		result[i] = RunRecordFromDomain(rec)
	}

	List(w, result, len(result))
}

// GetHistoryRecord возвращает запись истории по ID.
// GET /api/v1/history/{id}
func (h *Handler) GetHistoryRecord(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid record id")
		return
	}

	rec, err := h.historyRepo.GetByID(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "history record not found") {
		return
	}

	Success(w, RunRecordFromDomain(*rec))
}

// mustParseInt парсит строку в int64 с дефолтным значением.
func mustParseInt(s string, defaultVal int64) int64 {
	if s == "" {
		return defaultVal
	}

	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return defaultVal
	}
	return n
}
