package domain

// ValidationResult — структурированный результат валидации запуска.
//
// Ошибки валидации не смешиваются с транспортными ошибками сессии:
// панель рендерит их как список по этапам, а не как общий лог.
type ValidationResult struct {
	// Valid — true, если конфигурация пригодна к запуску.
	Valid bool `json:"valid"`

	// Errors — ошибки по этапам (имя этапа → список сообщений).
	Errors map[string][]string `json:"errors,omitempty"`

	// Warnings — предупреждения, не блокирующие запуск.
	Warnings []string `json:"warnings,omitempty"`

	// ExecutionPlan — разрешённый план выполнения.
	ExecutionPlan *ExecutionPlan `json:"execution_plan,omitempty"`
}

// HasErrors возвращает true, если есть хотя бы одна ошибка валидации.
func (r *ValidationResult) HasErrors() bool {
	for _, msgs := range r.Errors {
		if len(msgs) > 0 {
			return true
		}
	}
	return false
}

// ExecutionPlan — план выполнения, вычисленный backend при валидации.
type ExecutionPlan struct {
	// Stages — этапы в порядке выполнения.
	Stages []string `json:"stages"`

	// AutoIncluded — этапы, добавленные backend как зависимости
	// (не были выбраны явно).
	AutoIncluded []string `json:"auto_included,omitempty"`
}
