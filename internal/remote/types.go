package remote

import "github.com/shaiso/Pipedeck/internal/domain"

// ListStagesResponse — ответ backend на листинг пайплайнов и этапов.
type ListStagesResponse struct {
	// Pipelines — пайплайны по имени.
	Pipelines map[string]domain.Pipeline `json:"pipelines"`

	// Stages — этапы по имени.
	Stages map[string]domain.Stage `json:"stages"`
}

// ValidateRequest — запрос на валидацию запуска.
type ValidateRequest struct {
	// Pipeline — имя пайплайна.
	Pipeline string `json:"pipeline"`

	// Stages — выбранные этапы.
	Stages []string `json:"stages"`

	// Config — конфигурация по этапам (имя этапа → ключ → значение).
	Config map[string]map[string]any `json:"config"`
}

// ExecuteMetadata — метаданные запуска.
type ExecuteMetadata struct {
	// ExperimentID — уникальный токен, генерируемый панелью на каждый execute.
	ExperimentID string `json:"experiment_id"`
}

// ExecuteRequest — запрос на запуск пайплайна.
type ExecuteRequest struct {
	Pipeline string                    `json:"pipeline"`
	Stages   []string                  `json:"stages"`
	Config   map[string]map[string]any `json:"config"`
	Metadata ExecuteMetadata           `json:"metadata"`
}

// ExecuteResponse — ответ backend на execute.
type ExecuteResponse struct {
	// PipelineID — идентификатор запуска (ключ для опроса и отмены).
	PipelineID string `json:"pipeline_id"`

	// Status — начальный статус запуска.
	Status domain.RunStatus `json:"status"`

	// Error — текст ошибки, если backend отклонил запуск.
	Error string `json:"error,omitempty"`
}

// CancelResponse — ответ backend на отмену запуска.
type CancelResponse struct {
	Success bool `json:"success"`
}
