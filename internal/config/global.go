package config

import "sync"

// Global — глобальная, независимая от пайплайна конфигурация панели:
// общее имя базы, параллелизм, verbose/dry-run флаги.
//
// Глобальные значения НЕ наследуются этапами автоматически.
// Пользователь явно вливает их в выбранные этапы через
// State.ApplyGlobalToAll — после этого правки этапов снова независимы.
type Global struct {
	mu     sync.RWMutex
	values map[string]any
}

// NewGlobal создаёт пустую глобальную конфигурацию.
func NewGlobal() *Global {
	return &Global{values: make(map[string]any)}
}

// Set записывает одно глобальное значение.
func (g *Global) Set(key string, value any) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.values[key] = value
}

// Values возвращает копию всех глобальных значений.
func (g *Global) Values() map[string]any {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return copyMap(g.values)
}

// Replace заменяет все глобальные значения разом.
func (g *Global) Replace(values map[string]any) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.values = copyMap(values)
}

// Clear сбрасывает глобальную конфигурацию.
func (g *Global) Clear() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.values = make(map[string]any)
}
