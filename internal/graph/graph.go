package graph

import (
	"errors"
	"sort"

	"github.com/shaiso/Pipedeck/internal/catalog"
)

// ErrCyclicDependency возвращается, когда граф зависимостей содержит цикл.
var ErrCyclicDependency = errors.New("cyclic dependency detected")

// Node — узел в графе зависимостей этапов.
type Node struct {
	// Stage — имя этапа.
	Stage string

	// InDegree — количество входящих рёбер (зависимостей внутри графа).
	InDegree int

	// DependsOn — узлы, от которых зависит этот узел.
	DependsOn []*Node

	// Dependents — узлы, которые зависят от этого узла.
	Dependents []*Node
}

// Graph — граф зависимостей для набора этапов.
//
// Граф индуцирован набором: ребро dep → stage существует только если
// оба конца входят в набор. Зависимости за пределами набора
// игнорируются — backend добавит их сам (auto-include).
type Graph struct {
	// Nodes — все узлы графа (имя этапа → Node).
	Nodes map[string]*Node

	// RootNodes — узлы без зависимостей внутри набора (точки входа).
	RootNodes []*Node

	// Order — топологически отсортированный список узлов.
	Order []*Node
}

// Build строит граф зависимостей для переданных этапов поверх каталога.
//
// Этап, отсутствующий в каталоге, трактуется как этап без зависимостей.
// Возвращает ErrCyclicDependency, если каталог объявляет цикл внутри
// набора.
func Build(cat *catalog.Catalog, stages []string) (*Graph, error) {
	g := &Graph{
		Nodes:     make(map[string]*Node, len(stages)),
		RootNodes: make([]*Node, 0),
	}

	// Первый проход: создаём все узлы
	for _, stage := range stages {
		if _, exists := g.Nodes[stage]; exists {
			continue
		}
		g.Nodes[stage] = &Node{
			Stage:      stage,
			DependsOn:  make([]*Node, 0),
			Dependents: make([]*Node, 0),
		}
	}

	// Второй проход: связываем узлы по зависимостям каталога
	for _, node := range g.Nodes {
		for _, dep := range cat.Dependencies(node.Stage) {
			depNode, exists := g.Nodes[dep]
			if !exists {
				// Зависимость вне набора: её подтянет backend
				continue
			}
			g.addEdge(depNode, node)
		}
	}

	g.findRootNodes()

	order, err := g.topologicalSort()
	if err != nil {
		return nil, err
	}
	g.Order = order

	return g, nil
}

// addEdge добавляет ребро между узлами.
// Дополнительно проверяет на дубликаты, чтобы избежать двойного учета InDegree.
func (g *Graph) addEdge(from, to *Node) {
	for _, dep := range to.DependsOn {
		if dep.Stage == from.Stage {
			return // уже связаны
		}
	}
	from.Dependents = append(from.Dependents, to)
	to.DependsOn = append(to.DependsOn, from)
	to.InDegree++
}

// findRootNodes находит узлы без входящих рёбер.
func (g *Graph) findRootNodes() {
	g.RootNodes = make([]*Node, 0)
	for _, node := range g.Nodes {
		if node.InDegree == 0 {
			g.RootNodes = append(g.RootNodes, node)
		}
	}
	sort.Slice(g.RootNodes, func(i, j int) bool {
		return g.RootNodes[i].Stage < g.RootNodes[j].Stage
	})
}

// topologicalSort выполняет топологическую сортировку (алгоритм Кана).
// Возвращает ошибку, если обнаружен цикл.
//
// Порядок детерминирован: при равных возможностях узлы извлекаются
// в алфавитном порядке.
func (g *Graph) topologicalSort() ([]*Node, error) {
	// Копируем inDegree, чтобы не модифицировать оригинал
	inDegree := make(map[string]int, len(g.Nodes))
	for stage, node := range g.Nodes {
		inDegree[stage] = node.InDegree
	}

	queue := make([]*Node, len(g.RootNodes))
	copy(queue, g.RootNodes)

	order := make([]*Node, 0, len(g.Nodes))

	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		order = append(order, node)

		released := make([]*Node, 0)
		for _, dependent := range node.Dependents {
			inDegree[dependent.Stage]--
			if inDegree[dependent.Stage] == 0 {
				released = append(released, dependent)
			}
		}
		sort.Slice(released, func(i, j int) bool {
			return released[i].Stage < released[j].Stage
		})
		queue = append(queue, released...)
	}

	// Если не все узлы обработаны — есть цикл
	if len(order) != len(g.Nodes) {
		return nil, ErrCyclicDependency
	}

	return order, nil
}

// GetNode возвращает узел по имени этапа.
func (g *Graph) GetNode(stage string) *Node {
	return g.Nodes[stage]
}

// Size возвращает количество узлов в графе.
func (g *Graph) Size() int {
	return len(g.Nodes)
}

// Stages возвращает этапы в топологическом порядке.
func (g *Graph) Stages() []string {
	out := make([]string, len(g.Order))
	for i, node := range g.Order {
		out[i] = node.Stage
	}
	return out
}

// Roots возвращает имена корневых узлов.
func (g *Graph) Roots() []string {
	out := make([]string, len(g.RootNodes))
	for i, node := range g.RootNodes {
		out[i] = node.Stage
	}
	return out
}
