package catalog

import (
	"sort"

	"github.com/shaiso/Pipedeck/internal/domain"
)

// Catalog — неизменяемый каталог пайплайнов и этапов.
//
// Заполняется один раз при загрузке и после этого не мутируется:
// все методы чтения безопасны для конкурентного доступа без блокировок.
// Перезагрузка каталога — это построение нового Catalog, не мутация старого.
type Catalog struct {
	pipelines map[string]domain.Pipeline
	stages    map[string]domain.Stage
}

// New строит каталог из данных листинга backend.
// Входные карты копируются: последующие мутации источника каталог не затрагивают.
func New(pipelines map[string]domain.Pipeline, stages map[string]domain.Stage) *Catalog {
	c := &Catalog{
		pipelines: make(map[string]domain.Pipeline, len(pipelines)),
		stages:    make(map[string]domain.Stage, len(stages)),
	}
	for name, p := range pipelines {
		c.pipelines[name] = p
	}
	for name, s := range stages {
		c.stages[name] = s
	}
	return c
}

// Stage возвращает этап по имени.
func (c *Catalog) Stage(name string) (domain.Stage, bool) {
	s, ok := c.stages[name]
	return s, ok
}

// Pipeline возвращает пайплайн по имени.
func (c *Catalog) Pipeline(name string) (domain.Pipeline, bool) {
	p, ok := c.pipelines[name]
	return p, ok
}

// Dependencies возвращает зависимости этапа.
// Для неизвестного этапа возвращает nil: устаревшая ссылка из панели
// трактуется как этап без зависимостей, а не как ошибка.
func (c *Catalog) Dependencies(name string) []string {
	s, ok := c.stages[name]
	if !ok {
		return nil
	}
	return s.Dependencies
}

// Stages возвращает все этапы, отсортированные по имени.
func (c *Catalog) Stages() []domain.Stage {
	out := make([]domain.Stage, 0, len(c.stages))
	for _, s := range c.stages {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Pipelines возвращает все пайплайны, отсортированные по имени.
func (c *Catalog) Pipelines() []domain.Pipeline {
	out := make([]domain.Pipeline, 0, len(c.pipelines))
	for _, p := range c.pipelines {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// StagesFor возвращает этапы пайплайна в объявленном порядке.
// Этапы, отсутствующие в каталоге, пропускаются.
func (c *Catalog) StagesFor(pipeline string) []domain.Stage {
	p, ok := c.pipelines[pipeline]
	if !ok {
		return nil
	}
	out := make([]domain.Stage, 0, len(p.Stages))
	for _, name := range p.Stages {
		if s, ok := c.stages[name]; ok {
			out = append(out, s)
		}
	}
	return out
}

// Size возвращает количество этапов в каталоге.
func (c *Catalog) Size() int {
	return len(c.stages)
}
