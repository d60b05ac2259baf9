package domain

import (
	"time"

	"github.com/google/uuid"
)

// RunRecord — запись в истории запусков панели.
//
// RunRecord создаётся при каждой попытке execute и финализируется
// poll-циклом, когда запуск достигает терминального статуса.
// История — локальная для панели: backend хранит свои данные сам.
type RunRecord struct {
	// ID — уникальный идентификатор записи.
	ID uuid.UUID `json:"id"`

	// ExperimentID — токен эксперимента, сгенерированный панелью
	// для данной попытки запуска.
	ExperimentID string `json:"experiment_id"`

	// RunID — идентификатор запуска, присвоенный backend.
	// Пустой, если execute завершился ошибкой до присвоения.
	RunID string `json:"run_id,omitempty"`

	// Pipeline — имя запущенного пайплайна.
	Pipeline string `json:"pipeline"`

	// Stages — этапы, отправленные на выполнение.
	Stages []string `json:"stages"`

	// Status — последний известный статус запуска.
	Status RunStatus `json:"status"`

	// Error — текст ошибки, если запуск завершился неуспешно.
	Error string `json:"error,omitempty"`

	// StartedAt — время отправки execute.
	StartedAt time.Time `json:"started_at"`

	// FinishedAt — время наблюдения терминального статуса.
	FinishedAt *time.Time `json:"finished_at,omitempty"`

	// CreatedAt — время создания записи.
	CreatedAt time.Time `json:"created_at"`
}

// Duration возвращает продолжительность запуска.
// Возвращает 0, если терминальный статус ещё не наблюдался.
func (r *RunRecord) Duration() time.Duration {
	if r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Finalize записывает терминальный статус и время завершения.
func (r *RunRecord) Finalize(status RunStatus, errText string) {
	now := time.Now()
	r.Status = status
	r.Error = errText
	r.FinishedAt = &now
}
