package api

import (
	"encoding/json"
	"net/http"
)

// GetStageConfig возвращает схему, defaults и текущие значения этапа.
// GET /api/v1/config/stages/{name}
//
// Схема подгружается лениво при первом обращении.
func (h *Handler) GetStageConfig(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	if _, ok := h.sel.Catalog().Stage(name); !ok {
		NotFound(w, "stage not found")
		return
	}

	if err := h.ensureStageLoaded(r.Context(), name); err != nil {
		h.logger.Error("failed to load stage config", "stage", name, "error", err)
		Error(w, http.StatusBadGateway, ErrCodeInternalError, "backend unavailable")
		return
	}

	schema, _ := h.cfg.Schema(name)
	defaults, _ := h.cfg.Defaults(name)
	values, _ := h.cfg.StageConfig(name)

	Success(w, StageConfigResponse{
		Stage:       name,
		ConfigClass: schema.ConfigClass,
		Fields:      schema.Fields,
		Categories:  schema.Categories,
		Values:      values,
		Defaults:    defaults,
	})
}

// SetConfigField устанавливает значение одного поля этапа.
// PUT /api/v1/config/stages/{name}/fields/{field}
//
// Значение проверяется по схеме, если поле в ней описано;
// неизвестные поля принимаются как есть.
func (h *Handler) SetConfigField(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	fieldName := r.PathValue("field")

	var req SetFieldRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	if schema, ok := h.cfg.Schema(name); ok {
		if field, ok := schema.FieldByName(fieldName); ok {
			if err := field.Check(req.Value); err != nil {
				BadRequest(w, err.Error())
				return
			}
		}
	}

	h.cfg.SetFieldValue(name, fieldName, req.Value)

	values, _ := h.cfg.StageConfig(name)
	Success(w, values)
}

// ResetStageConfig сбрасывает конфигурацию этапа к текущим defaults.
// POST /api/v1/config/stages/{name}/reset
func (h *Handler) ResetStageConfig(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	h.cfg.ResetStageConfig(name)

	values, _ := h.cfg.StageConfig(name)
	Success(w, values)
}

// GetGlobalConfig возвращает глобальную конфигурацию.
// GET /api/v1/config/global
func (h *Handler) GetGlobalConfig(w http.ResponseWriter, r *http.Request) {
	Success(w, h.global.Values())
}

// SetGlobalConfig заменяет глобальную конфигурацию целиком.
// PUT /api/v1/config/global
func (h *Handler) SetGlobalConfig(w http.ResponseWriter, r *http.Request) {
	var req GlobalConfigRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	h.global.Replace(req.Values)

	Success(w, h.global.Values())
}

// ApplyGlobalConfig разово вливает глобальные ключи в конфигурацию
// всех выбранных на данный момент этапов.
// POST /api/v1/config/global/apply
func (h *Handler) ApplyGlobalConfig(w http.ResponseWriter, r *http.Request) {
	stages := h.sel.Stages()
	if len(stages) == 0 {
		BadRequest(w, "no stages selected")
		return
	}

	h.cfg.ApplyGlobalToAll(h.global.Values(), stages)

	Success(w, map[string]any{"applied_to": stages})
}
