package catalog

import (
	"reflect"
	"testing"

	"github.com/shaiso/Pipedeck/internal/domain"
)

func testCatalog() *Catalog {
	return New(
		map[string]domain.Pipeline{
			"papers": {Name: "papers", Stages: []string{"fetch", "clean", "ghost"}},
			"news":   {Name: "news", Stages: []string{"fetch"}},
		},
		map[string]domain.Stage{
			"fetch": {Name: "fetch"},
			"clean": {Name: "clean", Dependencies: []string{"fetch"}},
		},
	)
}

func TestNew_CopiesInput(t *testing.T) {
	stages := map[string]domain.Stage{"fetch": {Name: "fetch"}}
	c := New(nil, stages)

	// Mutating the source maps after construction must not leak in
	stages["clean"] = domain.Stage{Name: "clean"}
	delete(stages, "fetch")

	if c.Size() != 1 {
		t.Errorf("Size = %d, want 1", c.Size())
	}
	if _, ok := c.Stage("fetch"); !ok {
		t.Error("fetch should still be present")
	}
	if _, ok := c.Stage("clean"); ok {
		t.Error("clean should not appear")
	}
}

func TestStage_Lookup(t *testing.T) {
	c := testCatalog()

	s, ok := c.Stage("clean")
	if !ok || s.Name != "clean" {
		t.Errorf("Stage(clean) = %+v, %v", s, ok)
	}
	if _, ok := c.Stage("missing"); ok {
		t.Error("unknown stage should report ok=false")
	}
}

func TestDependencies_UnknownStageIsNil(t *testing.T) {
	c := testCatalog()

	if got := c.Dependencies("clean"); !reflect.DeepEqual(got, []string{"fetch"}) {
		t.Errorf("Dependencies(clean) = %v", got)
	}
	if got := c.Dependencies("missing"); got != nil {
		t.Errorf("Dependencies(missing) = %v, want nil", got)
	}
}

func TestStages_Sorted(t *testing.T) {
	c := testCatalog()

	var names []string
	for _, s := range c.Stages() {
		names = append(names, s.Name)
	}
	if !reflect.DeepEqual(names, []string{"clean", "fetch"}) {
		t.Errorf("stage order = %v", names)
	}
}

func TestPipelines_Sorted(t *testing.T) {
	c := testCatalog()

	var names []string
	for _, p := range c.Pipelines() {
		names = append(names, p.Name)
	}
	if !reflect.DeepEqual(names, []string{"news", "papers"}) {
		t.Errorf("pipeline order = %v", names)
	}
}

func TestStagesFor(t *testing.T) {
	c := testCatalog()

	// Declared order is preserved, stages missing from the catalog
	// ("ghost") are skipped
	var names []string
	for _, s := range c.StagesFor("papers") {
		names = append(names, s.Name)
	}
	if !reflect.DeepEqual(names, []string{"fetch", "clean"}) {
		t.Errorf("StagesFor(papers) = %v", names)
	}

	if got := c.StagesFor("missing"); got != nil {
		t.Errorf("StagesFor(missing) = %v, want nil", got)
	}
}
