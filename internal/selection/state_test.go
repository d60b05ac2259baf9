package selection

import (
	"reflect"
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

func TestToggle_SelectPullsDependencies(t *testing.T) {
	cat := testCatalog(map[string][]string{
		"fetch":   nil,
		"clean":   {"fetch"},
		"analyze": {"clean"},
	})
	s := NewState(cat)

	s.Toggle("analyze")

	want := []string{"analyze", "clean", "fetch"}
	if got := s.Stages(); !reflect.DeepEqual(got, want) {
		t.Errorf("Stages() = %v, want %v", got, want)
	}
}

func TestToggle_DeselectNoCascade(t *testing.T) {
	cat := testCatalog(map[string][]string{
		"fetch":   nil,
		"clean":   {"fetch"},
		"analyze": {"clean"},
	})
	s := NewState(cat)

	s.Toggle("analyze")
	s.Toggle("fetch")

	// analyze and clean stay selected even though their dependency is gone
	want := []string{"analyze", "clean"}
	if got := s.Stages(); !reflect.DeepEqual(got, want) {
		t.Errorf("Stages() = %v, want %v", got, want)
	}
}

func TestToggle_ReselectRestoresClosure(t *testing.T) {
	cat := testCatalog(map[string][]string{
		"fetch":   nil,
		"clean":   {"fetch"},
		"analyze": {"clean"},
	})
	s := NewState(cat)

	// Select full chain, drop the root, then re-toggle it back
	s.Toggle("analyze")
	s.Toggle("fetch")
	s.Toggle("fetch")

	want := []string{"analyze", "clean", "fetch"}
	if got := s.Stages(); !reflect.DeepEqual(got, want) {
		t.Errorf("Stages() = %v, want %v", got, want)
	}
}

func TestToggle_SharedDependency(t *testing.T) {
	// clean and dedupe both depend on fetch; deselecting dedupe
	// must not remove fetch
	cat := testCatalog(map[string][]string{
		"fetch":  nil,
		"clean":  {"fetch"},
		"dedupe": {"fetch"},
	})
	s := NewState(cat)

	s.Toggle("clean")
	s.Toggle("dedupe")
	s.Toggle("dedupe")

	want := []string{"clean", "fetch"}
	if got := s.Stages(); !reflect.DeepEqual(got, want) {
		t.Errorf("Stages() = %v, want %v", got, want)
	}
}

func TestToggle_UnknownStage(t *testing.T) {
	cat := testCatalog(map[string][]string{"fetch": nil})
	s := NewState(cat)

	// Unknown stage is treated as having no dependencies
	s.Toggle("ghost")

	if !s.IsSelected("ghost") {
		t.Error("ghost should be selected")
	}
	if s.Count() != 1 {
		t.Errorf("Count() = %d, want 1", s.Count())
	}
}

func TestToggle_CyclicGraphTerminates(t *testing.T) {
	cat := testCatalog(map[string][]string{
		"a": {"b"},
		"b": {"a"},
	})
	s := NewState(cat)

	// Idempotent insertion guarantees termination on a cyclic graph
	s.Toggle("a")

	want := []string{"a", "b"}
	if got := s.Stages(); !reflect.DeepEqual(got, want) {
		t.Errorf("Stages() = %v, want %v", got, want)
	}
}

func TestToggle_Idempotent(t *testing.T) {
	cat := testCatalog(map[string][]string{
		"fetch": nil,
		"clean": {"fetch"},
	})
	s := NewState(cat)

	s.Toggle("clean")
	first := s.Stages()

	s.Toggle("clean")
	s.Toggle("clean")

	if got := s.Stages(); !reflect.DeepEqual(got, first) {
		t.Errorf("double toggle changed selection: %v != %v", got, first)
	}
}

func TestSelectPipeline_ResetsStages(t *testing.T) {
	cat := testCatalog(map[string][]string{"fetch": nil})
	s := NewState(cat)

	s.SelectPipeline("papers")
	s.Toggle("fetch")
	s.SelectPipeline("news")

	if s.Pipeline() != "news" {
		t.Errorf("Pipeline() = %s, want news", s.Pipeline())
	}
	if s.Count() != 0 {
		t.Errorf("Count() = %d, want 0 after pipeline switch", s.Count())
	}
}

func TestSelectPipeline_SameNameStillResets(t *testing.T) {
	cat := testCatalog(map[string][]string{"fetch": nil})
	s := NewState(cat)

	s.SelectPipeline("papers")
	s.Toggle("fetch")
	s.SelectPipeline("papers")

	if s.Count() != 0 {
		t.Error("re-selecting the same pipeline should still reset stages")
	}
}

func TestSetSelectedStages_BypassesClosure(t *testing.T) {
	cat := testCatalog(map[string][]string{
		"fetch": nil,
		"clean": {"fetch"},
	})
	s := NewState(cat)

	// Wholesale replacement does not pull in dependencies
	s.SetSelectedStages([]string{"clean"})

	want := []string{"clean"}
	if got := s.Stages(); !reflect.DeepEqual(got, want) {
		t.Errorf("Stages() = %v, want %v", got, want)
	}
}

func TestClear(t *testing.T) {
	cat := testCatalog(map[string][]string{"fetch": nil})
	s := NewState(cat)

	s.SelectPipeline("papers")
	s.Toggle("fetch")
	s.Clear()

	if s.Pipeline() != "" {
		t.Error("pipeline should be empty after Clear")
	}
	if s.Count() != 0 {
		t.Error("stages should be empty after Clear")
	}
}

func TestSetCatalog_ResetsSelection(t *testing.T) {
	cat := testCatalog(map[string][]string{"fetch": nil})
	s := NewState(cat)

	s.SelectPipeline("papers")
	s.Toggle("fetch")

	s.SetCatalog(testCatalog(map[string][]string{"load": nil}))

	if s.Pipeline() != "" || s.Count() != 0 {
		t.Error("catalog swap should reset the selection")
	}

	// New catalog drives new closures
	s.Toggle("load")
	if !s.IsSelected("load") {
		t.Error("load should be selectable from the new catalog")
	}
}
