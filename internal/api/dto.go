package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/Pipedeck/internal/domain"
)

// Catalog DTOs

// CatalogResponse — ответ с каталогом пайплайнов и этапов.
type CatalogResponse struct {
	Pipelines []domain.Pipeline `json:"pipelines"`
	Stages    []domain.Stage    `json:"stages"`
}

// Selection DTOs

// SelectPipelineRequest — запрос на выбор пайплайна.
type SelectPipelineRequest struct {
	Pipeline string `json:"pipeline"`
}

// SetStagesRequest — запрос на замену набора этапов целиком.
type SetStagesRequest struct {
	Stages []string `json:"stages"`
}

// SelectionResponse — текущий выбор.
type SelectionResponse struct {
	Pipeline string   `json:"pipeline,omitempty"`
	Stages   []string `json:"stages"`
	Count    int      `json:"count"`
}

// PlanResponse — локальный предпросмотр порядка выполнения.
type PlanResponse struct {
	Stages []string `json:"stages"`
	Roots  []string `json:"roots,omitempty"`
}

// Config DTOs

// SetFieldRequest — запрос на установку значения поля.
type SetFieldRequest struct {
	Value any `json:"value"`
}

// GlobalConfigRequest — запрос на замену глобальной конфигурации.
type GlobalConfigRequest struct {
	Values map[string]any `json:"values"`
}

// StageConfigResponse — текущая конфигурация этапа вместе со схемой.
type StageConfigResponse struct {
	Stage       string         `json:"stage"`
	ConfigClass string         `json:"config_class,omitempty"`
	Fields      []domain.Field `json:"fields"`
	Categories  []string       `json:"categories,omitempty"`
	Values      map[string]any `json:"values"`
	Defaults    map[string]any `json:"defaults"`
}

// History DTOs

// RunRecordResponse — ответ с записью истории запуска.
type RunRecordResponse struct {
	ID           uuid.UUID  `json:"id"`
	ExperimentID string     `json:"experiment_id"`
	RunID        string     `json:"run_id,omitempty"`
	Pipeline     string     `json:"pipeline"`
	Stages       []string   `json:"stages"`
	Status       string     `json:"status"`
	Error        string     `json:"error,omitempty"`
	StartedAt    time.Time  `json:"started_at"`
	FinishedAt   *time.Time `json:"finished_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// RunRecordFromDomain конвертирует domain.RunRecord в RunRecordResponse.
func RunRecordFromDomain(r domain.RunRecord) RunRecordResponse {
	return RunRecordResponse{
		ID:           r.ID,
		ExperimentID: r.ExperimentID,
		RunID:        r.RunID,
		Pipeline:     r.Pipeline,
		Stages:       r.Stages,
		Status:       string(r.Status),
		Error:        r.Error,
		StartedAt:    r.StartedAt,
		FinishedAt:   r.FinishedAt,
		CreatedAt:    r.CreatedAt,
	}
}

// Schedule DTOs

// CreateScheduleRequest — запрос на создание schedule.
//
// Stages и Config опциональны: если не заданы, payload замораживается
// из текущего рабочего пространства панели.
type CreateScheduleRequest struct {
	Name        string                    `json:"name"`
	Pipeline    string                    `json:"pipeline,omitempty"`
	Stages      []string                  `json:"stages,omitempty"`
	Config      map[string]map[string]any `json:"config,omitempty"`
	CronExpr    string                    `json:"cron_expr,omitempty"`
	IntervalSec int                       `json:"interval_sec,omitempty"`
	Timezone    string                    `json:"timezone,omitempty"`
	Enabled     bool                      `json:"enabled"`
}

// UpdateScheduleRequest — запрос на обновление schedule.
// Замороженный payload (pipeline/stages/config) правкам не подлежит.
type UpdateScheduleRequest struct {
	Name        *string `json:"name,omitempty"`
	CronExpr    *string `json:"cron_expr,omitempty"`
	IntervalSec *int    `json:"interval_sec,omitempty"`
	Timezone    *string `json:"timezone,omitempty"`
}

// SetEnabledRequest — запрос на включение/выключение.
type SetEnabledRequest struct {
	Enabled bool `json:"enabled"`
}

// ScheduleResponse — ответ с schedule.
type ScheduleResponse struct {
	ID          uuid.UUID                 `json:"id"`
	Name        string                    `json:"name,omitempty"`
	Pipeline    string                    `json:"pipeline"`
	Stages      []string                  `json:"stages"`
	Config      map[string]map[string]any `json:"config,omitempty"`
	CronExpr    string                    `json:"cron_expr,omitempty"`
	IntervalSec int                       `json:"interval_sec,omitempty"`
	Timezone    string                    `json:"timezone"`
	Enabled     bool                      `json:"enabled"`
	NextDueAt   *time.Time                `json:"next_due_at,omitempty"`
	LastRunAt   *time.Time                `json:"last_run_at,omitempty"`
	LastRunID   string                    `json:"last_run_id,omitempty"`
	CreatedAt   time.Time                 `json:"created_at"`
	UpdatedAt   time.Time                 `json:"updated_at"`
}

// ScheduleFromDomain конвертирует domain.Schedule в ScheduleResponse.
func ScheduleFromDomain(s *domain.Schedule) ScheduleResponse {
	if s == nil {
		return ScheduleResponse{}
	}
	return ScheduleResponse{
		ID:          s.ID,
		Name:        s.Name,
		Pipeline:    s.Pipeline,
		Stages:      s.Stages,
		Config:      s.Config,
		CronExpr:    s.CronExpr,
		IntervalSec: s.IntervalSec,
		Timezone:    s.Timezone,
		Enabled:     s.Enabled,
		NextDueAt:   s.NextDueAt,
		LastRunAt:   s.LastRunAt,
		LastRunID:   s.LastRunID,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}
