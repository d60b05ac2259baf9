package config

import (
	"sync"

	"github.com/shaiso/Pipedeck/internal/domain"
)

// State — конфигурация этапов: схемы, defaults и пользовательские правки.
//
// Для каждого этапа хранится триада:
//   - схема — read-only метаданные полей (кэшируется на сессию);
//   - defaults — конфигурация "из коробки" с backend;
//   - override-карта — значения, которые реально уйдут в execute.
//
// Центральный инвариант — "seed-once": override-карта создаётся один раз,
// при первом приходе defaults. Повторная загрузка схемы/defaults
// (например, при повторном выборе этапа) НИКОГДА не затирает правки.
//
// Движок не проверяет типы и диапазоны значений — это работа потребителя
// схемы. Здесь гарантируются только правила идентичности и приоритета карт.
type State struct {
	mu sync.RWMutex

	schemas  map[string]*domain.StageSchema
	defaults map[string]map[string]any
	configs  map[string]map[string]any
}

// NewState создаёт пустое состояние конфигурации.
func NewState() *State {
	return &State{
		schemas:  make(map[string]*domain.StageSchema),
		defaults: make(map[string]map[string]any),
		configs:  make(map[string]map[string]any),
	}
}

// SetSchema сохраняет схему этапа. Идемпотентный upsert:
// схема read-only, слияние не нужно, последняя запись побеждает.
func (s *State) SetSchema(stage string, schema *domain.StageSchema) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.schemas[stage] = schema
}

// SetDefaults сохраняет defaults этапа и, если override-карты ещё нет,
// инициализирует её неглубокой копией defaults.
//
// Если карта уже существует — правки пользователя не трогаются:
// повторный приход defaults обновляет только defaults.
func (s *State) SetDefaults(stage string, defaults map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.defaults[stage] = copyMap(defaults)

	if _, exists := s.configs[stage]; !exists {
		s.configs[stage] = copyMap(defaults)
	}
}

// SetFieldValue записывает одно значение в override-карту этапа.
// Карта создаётся при отсутствии: правка не должна теряться из-за того,
// что defaults ещё не успели прийти (в нормальном потоке defaults
// всегда приходят раньше правок).
func (s *State) SetFieldValue(stage, field string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg, exists := s.configs[stage]
	if !exists {
		cfg = make(map[string]any)
		s.configs[stage] = cfg
	}
	cfg[field] = value
}

// ResetStageConfig заменяет override-карту этапа свежей копией
// ТЕКУЩИХ defaults (не исторического снимка), отбрасывая все правки
// только этого этапа.
func (s *State) ResetStageConfig(stage string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.configs[stage] = copyMap(s.defaults[stage])
}

// ApplyGlobalToAll вливает ключи глобальной конфигурации в override-карты
// всех переданных (выбранных на момент вызова) этапов.
//
// Разовая операция, не подписка: этапы, выбранные позже, прошлый вызов
// не затрагивает. Ключи global побеждают существующие значения этапа;
// прочие ключи этапа не трогаются.
func (s *State) ApplyGlobalToAll(global map[string]any, stages []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, stage := range stages {
		cfg, exists := s.configs[stage]
		if !exists {
			cfg = make(map[string]any)
			s.configs[stage] = cfg
		}
		for k, v := range global {
			cfg[k] = v
		}
	}
}

// ClearConfigs сбрасывает все override-карты.
// Схемы и defaults остаются в кэше.
func (s *State) ClearConfigs() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.configs = make(map[string]map[string]any)
}

// ClearAll сбрасывает состояние полностью: схемы, defaults и
// override-карты. Используется при обновлении каталога, когда кэш
// схем перестаёт соответствовать backend.
func (s *State) ClearAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.schemas = make(map[string]*domain.StageSchema)
	s.defaults = make(map[string]map[string]any)
	s.configs = make(map[string]map[string]any)
}

// Schema возвращает схему этапа.
func (s *State) Schema(stage string) (*domain.StageSchema, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	schema, ok := s.schemas[stage]
	return schema, ok
}

// HasSchema проверяет, загружена ли схема этапа.
func (s *State) HasSchema(stage string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.schemas[stage]
	return ok
}

// Defaults возвращает копию defaults этапа.
func (s *State) Defaults(stage string) (map[string]any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.defaults[stage]
	if !ok {
		return nil, false
	}
	return copyMap(d), true
}

// StageConfig возвращает копию override-карты этапа.
func (s *State) StageConfig(stage string) (map[string]any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cfg, ok := s.configs[stage]
	if !ok {
		return nil, false
	}
	return copyMap(cfg), true
}

// ConfigsFor собирает payload конфигурации для validate/execute:
// override-карты всех переданных этапов. Этапы без карты получают
// пустую карту — backend применит собственные defaults.
func (s *State) ConfigsFor(stages []string) map[string]map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]map[string]any, len(stages))
	for _, stage := range stages {
		if cfg, ok := s.configs[stage]; ok {
			out[stage] = copyMap(cfg)
		} else {
			out[stage] = map[string]any{}
		}
	}
	return out
}

// copyMap делает неглубокую копию карты значений.
func copyMap(src map[string]any) map[string]any {
	dst := make(map[string]any, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
