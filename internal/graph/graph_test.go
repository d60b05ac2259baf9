package graph

import (
	"errors"
	"testing"

	"github.com/shaiso/Pipedeck/internal/catalog"
	"github.com/shaiso/Pipedeck/internal/domain"
)

func testCatalog(deps map[string][]string) *catalog.Catalog {
	stages := make(map[string]domain.Stage, len(deps))
	for name, d := range deps {
		stages[name] = domain.Stage{Name: name, Dependencies: d}
	}
	return catalog.New(nil, stages)
}

func TestBuild_SimpleChain(t *testing.T) {
	cat := testCatalog(map[string][]string{
		"fetch":   nil,
		"clean":   {"fetch"},
		"analyze": {"clean"},
	})

	g, err := Build(cat, []string{"fetch", "clean", "analyze"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if g.Size() != 3 {
		t.Errorf("expected 3 nodes, got %d", g.Size())
	}

	if len(g.RootNodes) != 1 {
		t.Errorf("expected 1 root node, got %d", len(g.RootNodes))
	}
	if g.RootNodes[0].Stage != "fetch" {
		t.Errorf("expected root node fetch, got %s", g.RootNodes[0].Stage)
	}

	want := []string{"fetch", "clean", "analyze"}
	got := g.Stages()
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("order[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestBuild_Diamond(t *testing.T) {
	// fetch → clean → merge
	// fetch → dedupe → merge
	cat := testCatalog(map[string][]string{
		"fetch":  nil,
		"clean":  {"fetch"},
		"dedupe": {"fetch"},
		"merge":  {"clean", "dedupe"},
	})

	g, err := Build(cat, []string{"fetch", "clean", "dedupe", "merge"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if g.Size() != 4 {
		t.Errorf("expected 4 nodes, got %d", g.Size())
	}

	merge := g.GetNode("merge")
	if len(merge.DependsOn) != 2 {
		t.Errorf("merge should have 2 dependencies, got %d", len(merge.DependsOn))
	}

	if g.GetNode("fetch").InDegree != 0 {
		t.Error("fetch should have inDegree 0")
	}
	if g.GetNode("merge").InDegree != 2 {
		t.Error("merge should have inDegree 2")
	}

	// fetch первый, merge последний; clean/dedupe в алфавитном порядке
	got := g.Stages()
	want := []string{"fetch", "clean", "dedupe", "merge"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

func TestBuild_Cycle(t *testing.T) {
	cat := testCatalog(map[string][]string{
		"a": {"b"},
		"b": {"a"},
	})

	_, err := Build(cat, []string{"a", "b"})
	if !errors.Is(err, ErrCyclicDependency) {
		t.Errorf("expected ErrCyclicDependency, got %v", err)
	}
}

func TestBuild_DependencyOutsideSet(t *testing.T) {
	// clean зависит от fetch, но fetch не выбран:
	// ребро не создаётся, clean становится корнем.
	cat := testCatalog(map[string][]string{
		"fetch": nil,
		"clean": {"fetch"},
	})

	g, err := Build(cat, []string{"clean"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if g.Size() != 1 {
		t.Errorf("expected 1 node, got %d", g.Size())
	}
	if g.GetNode("clean").InDegree != 0 {
		t.Error("clean should have inDegree 0 when fetch is not in the set")
	}
}

func TestBuild_UnknownStage(t *testing.T) {
	cat := testCatalog(map[string][]string{
		"fetch": nil,
	})

	// Неизвестный этап трактуется как этап без зависимостей
	g, err := Build(cat, []string{"fetch", "ghost"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if g.Size() != 2 {
		t.Errorf("expected 2 nodes, got %d", g.Size())
	}
	if g.GetNode("ghost").InDegree != 0 {
		t.Error("ghost should have inDegree 0")
	}
}

func TestBuild_DuplicateStages(t *testing.T) {
	cat := testCatalog(map[string][]string{
		"fetch": nil,
	})

	g, err := Build(cat, []string{"fetch", "fetch"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if g.Size() != 1 {
		t.Errorf("expected 1 node after dedup, got %d", g.Size())
	}
}

func TestRoots_Sorted(t *testing.T) {
	cat := testCatalog(map[string][]string{
		"zeta":  nil,
		"alpha": nil,
		"mid":   {"zeta", "alpha"},
	})

	g, err := Build(cat, []string{"zeta", "alpha", "mid"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	roots := g.Roots()
	if len(roots) != 2 || roots[0] != "alpha" || roots[1] != "zeta" {
		t.Errorf("roots = %v, want [alpha zeta]", roots)
	}
}
