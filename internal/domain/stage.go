package domain

// Stage — один этап обработки данных в backend-пайплайне.
//
// Stage идентифицируется именем и объявляет свои зависимости —
// этапы, которые должны выполняться вместе с ним. Граф зависимостей
// направленный и предполагается ацикличным (не проверяется).
type Stage struct {
	// Name — уникальное имя этапа (ключ для выбора и конфигурации).
	Name string `json:"name"`

	// DisplayName — человекочитаемое имя для панели.
	DisplayName string `json:"display_name"`

	// Dependencies — имена этапов, от которых зависит этот этап.
	Dependencies []string `json:"dependencies"`

	// ConfigClass — имя класса конфигурации на стороне backend.
	ConfigClass string `json:"config_class"`

	// HasLLM — true, если этап использует LLM-обработку.
	HasLLM bool `json:"has_llm"`
}

// Pipeline — именованная группа этапов, выбираемая как единое целое.
//
// Выбор пайплайна сбрасывает предыдущий выбор этапов: идентичность
// этапа определена в рамках ровно одного пайплайна.
type Pipeline struct {
	// Name — уникальное имя пайплайна.
	Name string `json:"name"`

	// StageCount — количество этапов в пайплайне.
	StageCount int `json:"stage_count"`

	// Stages — упорядоченный список имён этапов.
	Stages []string `json:"stages"`
}
