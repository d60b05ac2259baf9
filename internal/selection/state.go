package selection

import (
	"sort"
	"sync"

	"github.com/shaiso/Pipedeck/internal/catalog"
)

// State — выбор пользователя: пайплайн и набор этапов для запуска.
//
// Инвариант: после каждого Toggle набор выбранных этапов замкнут
// по отношению зависимостей — для каждого выбранного этапа выбраны
// и все его (транзитивные) зависимости. Набор неупорядочен: контракт —
// членство, а не порядок.
//
// Снятие выбора каскад не запускает: этапы, зависящие от снятого,
// остаются выбранными. Это осознанное поведение панели
// (минимум неожиданностей при клике), а не баг.
type State struct {
	mu sync.RWMutex

	catalog  *catalog.Catalog
	pipeline string
	stages   map[string]bool
}

// NewState создаёт пустой выбор поверх каталога.
func NewState(cat *catalog.Catalog) *State {
	return &State{
		catalog: cat,
		stages:  make(map[string]bool),
	}
}

// SelectPipeline выбирает пайплайн и безусловно сбрасывает выбор этапов:
// идентичность этапа определена в рамках одного пайплайна, и прежний
// выбор после смены пайплайна не имеет смысла.
func (s *State) SelectPipeline(pipeline string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pipeline = pipeline
	s.stages = make(map[string]bool)
}

// Toggle переключает один этап.
//
// Если этап выбран — убирает только его (без каскада по зависимым).
// Если не выбран — добавляет его и транзитивное замыкание зависимостей.
// Этап, отсутствующий в каталоге, трактуется как этап без зависимостей:
// панель должна переживать устаревшие ссылки, а не падать.
func (s *State) Toggle(stage string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stages[stage] {
		delete(s.stages, stage)
		return
	}

	// Рабочее множество: вставка в set идемпотентна, поэтому обход
	// завершается даже на некорректном (циклическом) графе.
	work := []string{stage}
	for len(work) > 0 {
		next := work[len(work)-1]
		work = work[:len(work)-1]

		if s.stages[next] {
			continue
		}
		s.stages[next] = true

		work = append(work, s.catalog.Dependencies(next)...)
	}
}

// SetSelectedStages заменяет набор этапов целиком, минуя замыкание.
// Используется для "выбрать все": вызывающая сторона отвечает за то,
// что передан уже замкнутый набор, если замкнутость важна дальше.
func (s *State) SetSelectedStages(stages []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stages = make(map[string]bool, len(stages))
	for _, st := range stages {
		s.stages[st] = true
	}
}

// SetCatalog заменяет каталог и сбрасывает выбор: прежний выбор
// относится к прежнему каталогу и после обновления не имеет смысла.
func (s *State) SetCatalog(cat *catalog.Catalog) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.catalog = cat
	s.pipeline = ""
	s.stages = make(map[string]bool)
}

// Catalog возвращает текущий каталог.
func (s *State) Catalog() *catalog.Catalog {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.catalog
}

// Clear сбрасывает и пайплайн, и выбор этапов.
func (s *State) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pipeline = ""
	s.stages = make(map[string]bool)
}

// Pipeline возвращает имя выбранного пайплайна (пусто, если не выбран).
func (s *State) Pipeline() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.pipeline
}

// Stages возвращает снимок выбранных этапов, отсортированный по имени.
func (s *State) Stages() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, 0, len(s.stages))
	for st := range s.stages {
		out = append(out, st)
	}
	sort.Strings(out)
	return out
}

// IsSelected проверяет, выбран ли этап.
func (s *State) IsSelected(stage string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.stages[stage]
}

// Count возвращает количество выбранных этапов.
func (s *State) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.stages)
}
