package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// --- Response types (дублируются из api/dto.go, CLI не импортирует internal/api) ---

// PipelineInfo — пайплайн из каталога.
type PipelineInfo struct {
	Name       string   `json:"name"`
	StageCount int      `json:"stage_count"`
	Stages     []string `json:"stages"`
}

// StageInfo — этап из каталога.
type StageInfo struct {
	Name         string   `json:"name"`
	DisplayName  string   `json:"display_name"`
	Dependencies []string `json:"dependencies"`
	ConfigClass  string   `json:"config_class"`
	HasLLM       bool     `json:"has_llm"`
}

// CatalogResponse — каталог из API.
type CatalogResponse struct {
	Pipelines []PipelineInfo `json:"pipelines"`
	Stages    []StageInfo    `json:"stages"`
}

// SelectionResponse — текущий выбор из API.
type SelectionResponse struct {
	Pipeline string   `json:"pipeline,omitempty"`
	Stages   []string `json:"stages"`
	Count    int      `json:"count"`
}

// PlanResponse — предпросмотр порядка выполнения из API.
type PlanResponse struct {
	Stages []string `json:"stages"`
	Roots  []string `json:"roots,omitempty"`
}

// FieldInfo — поле схемы конфигурации.
type FieldInfo struct {
	Name     string   `json:"name"`
	Kind     string   `json:"kind"`
	Label    string   `json:"label,omitempty"`
	Category string   `json:"category,omitempty"`
	Hint     string   `json:"hint,omitempty"`
	Min      *float64 `json:"min,omitempty"`
	Max      *float64 `json:"max,omitempty"`
	Options  []string `json:"options,omitempty"`
}

// StageConfigResponse — конфигурация этапа из API.
type StageConfigResponse struct {
	Stage       string         `json:"stage"`
	ConfigClass string         `json:"config_class,omitempty"`
	Fields      []FieldInfo    `json:"fields"`
	Categories  []string       `json:"categories,omitempty"`
	Values      map[string]any `json:"values"`
	Defaults    map[string]any `json:"defaults"`
}

// ProgressInfo — прогресс выполнения.
type ProgressInfo struct {
	CompletedStages int     `json:"completed_stages"`
	TotalStages     int     `json:"total_stages"`
	Percent         float64 `json:"percent"`
}

// StatusInfo — снимок статуса запуска.
type StatusInfo struct {
	Status         string       `json:"status"`
	CurrentStage   string       `json:"current_stage,omitempty"`
	Progress       ProgressInfo `json:"progress"`
	ElapsedSeconds float64      `json:"elapsed_seconds"`
	Error          string       `json:"error,omitempty"`
}

// ValidationInfo — результат валидации.
type ValidationInfo struct {
	Valid    bool                `json:"valid"`
	Errors   map[string][]string `json:"errors,omitempty"`
	Warnings []string            `json:"warnings,omitempty"`
}

// SessionResponse — сессия выполнения из API.
type SessionResponse struct {
	ValidationResult   *ValidationInfo `json:"validation_result,omitempty"`
	ValidationInFlight bool            `json:"validation_in_flight"`
	RunID              string          `json:"run_id,omitempty"`
	Status             *StatusInfo     `json:"status,omitempty"`
	ExecutionInFlight  bool            `json:"execution_in_flight"`
	Errors             []string        `json:"errors"`
}

// RunRecordResponse — запись истории из API.
type RunRecordResponse struct {
	ID           string   `json:"id"`
	ExperimentID string   `json:"experiment_id"`
	RunID        string   `json:"run_id,omitempty"`
	Pipeline     string   `json:"pipeline"`
	Stages       []string `json:"stages"`
	Status       string   `json:"status"`
	Error        string   `json:"error,omitempty"`
	StartedAt    string   `json:"started_at"`
	FinishedAt   string   `json:"finished_at,omitempty"`
	CreatedAt    string   `json:"created_at"`
}

// ScheduleResponse — schedule из API.
type ScheduleResponse struct {
	ID          string   `json:"id"`
	Name        string   `json:"name,omitempty"`
	Pipeline    string   `json:"pipeline"`
	Stages      []string `json:"stages"`
	CronExpr    string   `json:"cron_expr,omitempty"`
	IntervalSec int      `json:"interval_sec,omitempty"`
	Timezone    string   `json:"timezone"`
	Enabled     bool     `json:"enabled"`
	NextDueAt   string   `json:"next_due_at,omitempty"`
	LastRunAt   string   `json:"last_run_at,omitempty"`
	LastRunID   string   `json:"last_run_id,omitempty"`
	CreatedAt   string   `json:"created_at"`
	UpdatedAt   string   `json:"updated_at"`
}

// --- Request types ---

// CreateScheduleRequest — создание schedule.
type CreateScheduleRequest struct {
	Name        string `json:"name"`
	CronExpr    string `json:"cron_expr,omitempty"`
	IntervalSec int    `json:"interval_sec,omitempty"`
	Timezone    string `json:"timezone,omitempty"`
	Enabled     bool   `json:"enabled"`
}

// UpdateScheduleRequest — обновление schedule.
type UpdateScheduleRequest struct {
	Name        *string `json:"name,omitempty"`
	CronExpr    *string `json:"cron_expr,omitempty"`
	IntervalSec *int    `json:"interval_sec,omitempty"`
	Timezone    *string `json:"timezone,omitempty"`
}

// ListHistoryOpts — параметры фильтрации истории.
type ListHistoryOpts struct {
	Pipeline string
	Status   string
	Limit    int
}

// --- API response wrappers ---

type dataResponse struct {
	Data json.RawMessage `json:"data"`
}

type listResponse struct {
	Data  json.RawMessage `json:"data"`
	Total int             `json:"total"`
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// --- Client ---

// Client — HTTP-клиент для Pipedeck API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient создаёт клиент для API.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// --- Catalog ---

// GetCatalog возвращает каталог пайплайнов и этапов.
func (c *Client) GetCatalog() (*CatalogResponse, error) {
	var catalog CatalogResponse
	err := c.get("/api/v1/catalog", &catalog)
	return &catalog, err
}

// RefreshCatalog перечитывает каталог с backend.
func (c *Client) RefreshCatalog() (*CatalogResponse, error) {
	var catalog CatalogResponse
	err := c.post("/api/v1/catalog/refresh", nil, &catalog)
	return &catalog, err
}

// --- Selection ---

// GetSelection возвращает текущий выбор.
func (c *Client) GetSelection() (*SelectionResponse, error) {
	var sel SelectionResponse
	err := c.get("/api/v1/selection", &sel)
	return &sel, err
}

// SelectPipeline выбирает пайплайн.
func (c *Client) SelectPipeline(pipeline string) (*SelectionResponse, error) {
	body := map[string]string{"pipeline": pipeline}
	var sel SelectionResponse
	err := c.put("/api/v1/selection/pipeline", body, &sel)
	return &sel, err
}

// ToggleStage переключает этап.
func (c *Client) ToggleStage(stage string) (*SelectionResponse, error) {
	var sel SelectionResponse
	err := c.post("/api/v1/selection/stages/"+stage+"/toggle", nil, &sel)
	return &sel, err
}

// SetStages заменяет набор этапов целиком.
func (c *Client) SetStages(stages []string) (*SelectionResponse, error) {
	body := map[string][]string{"stages": stages}
	var sel SelectionResponse
	err := c.put("/api/v1/selection/stages", body, &sel)
	return &sel, err
}

// ClearSelection сбрасывает выбор.
func (c *Client) ClearSelection() error {
	return c.delete("/api/v1/selection")
}

// GetSelectionPlan возвращает локальный предпросмотр порядка выполнения.
func (c *Client) GetSelectionPlan() (*PlanResponse, error) {
	var plan PlanResponse
	err := c.get("/api/v1/selection/plan", &plan)
	return &plan, err
}

// --- Configuration ---

// GetStageConfig возвращает схему и конфигурацию этапа.
func (c *Client) GetStageConfig(stage string) (*StageConfigResponse, error) {
	var cfg StageConfigResponse
	err := c.get("/api/v1/config/stages/"+stage, &cfg)
	return &cfg, err
}

// SetConfigField устанавливает значение поля.
func (c *Client) SetConfigField(stage, field string, value any) (map[string]any, error) {
	body := map[string]any{"value": value}
	var values map[string]any
	err := c.put("/api/v1/config/stages/"+stage+"/fields/"+field, body, &values)
	return values, err
}

// ResetStageConfig сбрасывает конфигурацию этапа к defaults.
func (c *Client) ResetStageConfig(stage string) (map[string]any, error) {
	var values map[string]any
	err := c.post("/api/v1/config/stages/"+stage+"/reset", nil, &values)
	return values, err
}

// GetGlobalConfig возвращает глобальную конфигурацию.
func (c *Client) GetGlobalConfig() (map[string]any, error) {
	var values map[string]any
	err := c.get("/api/v1/config/global", &values)
	return values, err
}

// SetGlobalConfig заменяет глобальную конфигурацию.
func (c *Client) SetGlobalConfig(values map[string]any) (map[string]any, error) {
	body := map[string]any{"values": values}
	var result map[string]any
	err := c.put("/api/v1/config/global", body, &result)
	return result, err
}

// ApplyGlobalConfig вливает глобальные ключи в выбранные этапы.
func (c *Client) ApplyGlobalConfig() error {
	return c.post("/api/v1/config/global/apply", nil, nil)
}

// --- Run session ---

// GetSession возвращает сессию выполнения.
func (c *Client) GetSession() (*SessionResponse, error) {
	var session SessionResponse
	err := c.get("/api/v1/session", &session)
	return &session, err
}

// Validate отправляет выбор на валидацию.
func (c *Client) Validate() (*SessionResponse, error) {
	var session SessionResponse
	err := c.post("/api/v1/session/validate", nil, &session)
	return &session, err
}

// Execute запускает пайплайн.
func (c *Client) Execute() (*SessionResponse, error) {
	var session SessionResponse
	err := c.post("/api/v1/session/execute", nil, &session)
	return &session, err
}

// Cancel отменяет текущий запуск.
func (c *Client) Cancel() (*SessionResponse, error) {
	var session SessionResponse
	err := c.post("/api/v1/session/cancel", nil, &session)
	return &session, err
}

// ResetSession сбрасывает сессию.
func (c *Client) ResetSession() (*SessionResponse, error) {
	var session SessionResponse
	err := c.post("/api/v1/session/reset", nil, &session)
	return &session, err
}

// ClearSessionErrors очищает лог ошибок сессии.
func (c *Client) ClearSessionErrors() error {
	return c.delete("/api/v1/session/errors")
}

// --- History ---

// ListHistory возвращает историю запусков.
func (c *Client) ListHistory(opts ListHistoryOpts) ([]RunRecordResponse, error) {
	params := url.Values{}
	if opts.Pipeline != "" {
		params.Set("pipeline", opts.Pipeline)
	}
	if opts.Status != "" {
		params.Set("status", opts.Status)
	}
	if opts.Limit > 0 {
		params.Set("limit", fmt.Sprintf("%d", opts.Limit))
	}

	var records []RunRecordResponse
	err := c.list("/api/v1/history", params, &records)
	return records, err
}

// GetHistoryRecord возвращает запись истории по ID.
func (c *Client) GetHistoryRecord(id string) (*RunRecordResponse, error) {
	var rec RunRecordResponse
	err := c.get("/api/v1/history/"+id, &rec)
	return &rec, err
}

// --- Schedules ---

// ListSchedules возвращает schedules. Если pipeline не пустой — фильтрует.
func (c *Client) ListSchedules(pipeline string) ([]ScheduleResponse, error) {
	params := url.Values{}
	if pipeline != "" {
		params.Set("pipeline", pipeline)
	}

	var schedules []ScheduleResponse
	err := c.list("/api/v1/schedules", params, &schedules)
	return schedules, err
}

// CreateSchedule создаёт schedule из текущего рабочего пространства панели.
func (c *Client) CreateSchedule(req CreateScheduleRequest) (*ScheduleResponse, error) {
	var schedule ScheduleResponse
	err := c.post("/api/v1/schedules", req, &schedule)
	return &schedule, err
}

// GetSchedule возвращает schedule по ID.
func (c *Client) GetSchedule(id string) (*ScheduleResponse, error) {
	var schedule ScheduleResponse
	err := c.get("/api/v1/schedules/"+id, &schedule)
	return &schedule, err
}

// UpdateSchedule обновляет schedule.
func (c *Client) UpdateSchedule(id string, req UpdateScheduleRequest) (*ScheduleResponse, error) {
	var schedule ScheduleResponse
	err := c.put("/api/v1/schedules/"+id, req, &schedule)
	return &schedule, err
}

// DeleteSchedule удаляет schedule.
func (c *Client) DeleteSchedule(id string) error {
	return c.delete("/api/v1/schedules/" + id)
}

// EnableSchedule включает schedule.
func (c *Client) EnableSchedule(id string) (*ScheduleResponse, error) {
	var schedule ScheduleResponse
	body := map[string]bool{"enabled": true}
	err := c.put("/api/v1/schedules/"+id+"/enabled", body, &schedule)
	return &schedule, err
}

// DisableSchedule выключает schedule.
func (c *Client) DisableSchedule(id string) (*ScheduleResponse, error) {
	var schedule ScheduleResponse
	body := map[string]bool{"enabled": false}
	err := c.put("/api/v1/schedules/"+id+"/enabled", body, &schedule)
	return &schedule, err
}

// --- HTTP helpers ---

func (c *Client) get(path string, result any) error {
	return c.doData(http.MethodGet, path, nil, result)
}

func (c *Client) post(path string, body any, result any) error {
	return c.doData(http.MethodPost, path, body, result)
}

func (c *Client) put(path string, body any, result any) error {
	return c.doData(http.MethodPut, path, body, result)
}

func (c *Client) delete(path string) error {
	resp, err := c.do(http.MethodDelete, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return c.checkError(resp)
}

func (c *Client) list(path string, params url.Values, result any) error {
	if len(params) > 0 {
		path = path + "?" + params.Encode()
	}

	resp, err := c.do(http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return err
	}

	var lr listResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return json.Unmarshal(lr.Data, result)
}

func (c *Client) doData(method, path string, body any, result any) error {
	resp, err := c.do(method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return err
	}

	// 204 No Content
	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	var dr dataResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if result != nil {
		return json.Unmarshal(dr.Data, result)
	}
	return nil
}

func (c *Client) do(method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.httpClient.Do(req)
}

func (c *Client) checkError(resp *http.Response) error {
	if resp.StatusCode < 400 {
		return nil
	}

	var er errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		return fmt.Errorf("API error: HTTP %d", resp.StatusCode)
	}

	return fmt.Errorf("%s: %s", er.Error.Code, er.Error.Message)
}
