package controller

import "github.com/shaiso/Pipedeck/internal/domain"

// Session — состояние одной сессии выполнения.
//
// Сессия принадлежит контроллеру и мутируется только через его операции;
// потребители всегда читают полностью сформированный снимок.
//
// Errors — лог транспортных ошибок. Только растёт (append),
// пока не будет явно очищен ClearErrors или Reset; молча не обрезается.
// Ошибки валидации в него не попадают — они структурированы
// в ValidationResult.
type Session struct {
	// ValidationResult — результат последней валидации (nil, если не было).
	ValidationResult *domain.ValidationResult `json:"validation_result,omitempty"`

	// ValidationInFlight — true, пока validate в полёте.
	ValidationInFlight bool `json:"validation_in_flight"`

	// RunID — идентификатор запуска, присвоенный backend.
	// Пустой до успешного execute; ключ корреляции для опроса и отмены.
	RunID string `json:"run_id,omitempty"`

	// Status — последний применённый снимок статуса (nil до первого опроса).
	Status *domain.StatusSnapshot `json:"status,omitempty"`

	// ExecutionInFlight — true, пока execute в полёте.
	ExecutionInFlight bool `json:"execution_in_flight"`

	// Errors — накопленные транспортные ошибки в порядке возникновения.
	Errors []string `json:"errors"`
}

// clone возвращает копию сессии для выдачи потребителю.
func (s *Session) clone() Session {
	out := *s

	if s.Errors != nil {
		out.Errors = make([]string, len(s.Errors))
		copy(out.Errors, s.Errors)
	}
	if s.Status != nil {
		st := *s.Status
		out.Status = &st
	}
	if s.ValidationResult != nil {
		vr := *s.ValidationResult
		out.ValidationResult = &vr
	}

	return out
}
