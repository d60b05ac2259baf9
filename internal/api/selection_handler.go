package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/shaiso/Pipedeck/internal/graph"
)

// GetSelection возвращает текущий выбор.
// GET /api/v1/selection
func (h *Handler) GetSelection(w http.ResponseWriter, r *http.Request) {
	Success(w, h.selectionResponse())
}

// SelectPipeline выбирает пайплайн.
// PUT /api/v1/selection/pipeline
//
// Смена пайплайна сбрасывает выбор этапов.
func (h *Handler) SelectPipeline(w http.ResponseWriter, r *http.Request) {
	var req SelectPipelineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	if req.Pipeline == "" {
		BadRequest(w, "pipeline is required")
		return
	}

	if _, ok := h.sel.Catalog().Pipeline(req.Pipeline); !ok {
		NotFound(w, "pipeline not found")
		return
	}

	h.sel.SelectPipeline(req.Pipeline)

	Success(w, h.selectionResponse())
}

// ToggleStage переключает один этап.
// POST /api/v1/selection/stages/{name}/toggle
//
// Добавление этапа тянет за собой замыкание его зависимостей;
// для каждого добавленного этапа лениво подгружаются схема и defaults.
func (h *Handler) ToggleStage(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	h.sel.Toggle(name)

	// Схемы подгружаем после переключения: набор мог вырасти
	// на транзитивные зависимости.
	for _, stage := range h.sel.Stages() {
		if err := h.ensureStageLoaded(r.Context(), stage); err != nil {
			h.logger.Warn("failed to load stage schema", "stage", stage, "error", err)
		}
	}

	Success(w, h.selectionResponse())
}

// SetStages заменяет набор этапов целиком.
// PUT /api/v1/selection/stages
func (h *Handler) SetStages(w http.ResponseWriter, r *http.Request) {
	var req SetStagesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	h.sel.SetSelectedStages(req.Stages)

	for _, stage := range req.Stages {
		if err := h.ensureStageLoaded(r.Context(), stage); err != nil {
			h.logger.Warn("failed to load stage schema", "stage", stage, "error", err)
		}
	}

	Success(w, h.selectionResponse())
}

// GetSelectionPlan возвращает локальный предпросмотр порядка выполнения
// выбранных этапов.
// GET /api/v1/selection/plan
//
// Предпросмотр строится по каталогу без обращения к backend;
// авторитетный план приходит от backend при валидации.
func (h *Handler) GetSelectionPlan(w http.ResponseWriter, r *http.Request) {
	stages := h.sel.Stages()
	if len(stages) == 0 {
		BadRequest(w, "no stages selected")
		return
	}

	g, err := graph.Build(h.sel.Catalog(), stages)
	if err != nil {
		if errors.Is(err, graph.ErrCyclicDependency) {
			InvalidState(w, "stage dependencies contain a cycle")
			return
		}
		InternalError(w, h.logger, err)
		return
	}

	Success(w, PlanResponse{
		Stages: g.Stages(),
		Roots:  g.Roots(),
	})
}

// ClearSelection сбрасывает пайплайн и выбор этапов.
// DELETE /api/v1/selection
func (h *Handler) ClearSelection(w http.ResponseWriter, r *http.Request) {
	h.sel.Clear()
	NoContent(w)
}

func (h *Handler) selectionResponse() SelectionResponse {
	stages := h.sel.Stages()
	return SelectionResponse{
		Pipeline: h.sel.Pipeline(),
		Stages:   stages,
		Count:    len(stages),
	}
}
