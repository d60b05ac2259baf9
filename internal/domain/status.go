package domain

// RunStatus — статус выполнения запуска пайплайна на backend.
//
// Жизненный цикл:
//
//	pending → running → completed
//	                  ↘ failed
//	                  ↘ error
//	          (или) → cancelled (из pending или running)
type RunStatus string

const (
	// RunStatusPending — запуск принят, но ещё не начал выполняться.
	RunStatusPending RunStatus = "pending"

	// RunStatusRunning — запуск в процессе выполнения.
	RunStatusRunning RunStatus = "running"

	// RunStatusCompleted — запуск успешно завершён.
	RunStatusCompleted RunStatus = "completed"

	// RunStatusFailed — запуск завершился с ошибкой этапа.
	RunStatusFailed RunStatus = "failed"

	// RunStatusError — запуск завершился внутренней ошибкой backend.
	RunStatusError RunStatus = "error"

	// RunStatusCancelled — запуск отменён пользователем.
	RunStatusCancelled RunStatus = "cancelled"
)

// IsTerminal возвращает true, если статус финальный (запуск завершён).
// Poll-цикл контроллера останавливается ровно на этих статусах.
func (s RunStatus) IsTerminal() bool {
	switch s {
	case RunStatusCompleted, RunStatusFailed, RunStatusError, RunStatusCancelled:
		return true
	default:
		return false
	}
}

// String возвращает строковое представление RunStatus.
func (s RunStatus) String() string {
	return string(s)
}

// Progress — прогресс выполнения запуска.
type Progress struct {
	// CompletedStages — количество завершённых этапов.
	CompletedStages int `json:"completed_stages"`

	// TotalStages — общее количество этапов запуска.
	TotalStages int `json:"total_stages"`

	// Percent — прогресс в процентах (0–100).
	Percent float64 `json:"percent"`
}

// StatusSnapshot — снимок состояния запуска, полученный при опросе.
//
// Снимки применяются целиком: потребитель всегда видит полностью
// сформированное состояние, никогда — частичное обновление.
type StatusSnapshot struct {
	// Status — статус запуска.
	Status RunStatus `json:"status"`

	// CurrentStage — имя выполняемого этапа (пусто, если запуск завершён).
	CurrentStage string `json:"current_stage,omitempty"`

	// Progress — прогресс выполнения.
	Progress Progress `json:"progress"`

	// ElapsedSeconds — время с начала запуска в секундах.
	ElapsedSeconds float64 `json:"elapsed_seconds"`

	// Error — текст ошибки, если запуск завершился с failed/error.
	Error string `json:"error,omitempty"`
}
