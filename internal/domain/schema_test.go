package domain

import (
	"encoding/json"
	"testing"
)

func floatPtr(f float64) *float64 { return &f }

func TestParseFieldKind(t *testing.T) {
	tests := []struct {
		in   string
		want FieldKind
	}{
		{"text", FieldKindText},
		{"multiline", FieldKindMultiline},
		{"textarea", FieldKindMultiline},
		{"number", FieldKindNumber},
		{"int", FieldKindNumber},
		{"float", FieldKindNumber},
		{"bool", FieldKindBool},
		{"boolean", FieldKindBool},
		{"checkbox", FieldKindBool},
		{"select", FieldKindSelect},
		{"enum", FieldKindSelect},
		// New backend types must not break the panel
		{"color_picker", FieldKindText},
		{"", FieldKindText},
	}

	for _, tt := range tests {
		if got := ParseFieldKind(tt.in); got != tt.want {
			t.Errorf("ParseFieldKind(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestField_UnmarshalJSON(t *testing.T) {
	var f Field
	data := []byte(`{"name": "limit", "type": "int", "label": "Limit", "min": 1, "max": 100}`)
	if err := json.Unmarshal(data, &f); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if f.Name != "limit" || f.Kind != FieldKindNumber {
		t.Errorf("field = %+v", f)
	}
	if f.Min == nil || *f.Min != 1 || f.Max == nil || *f.Max != 100 {
		t.Errorf("bounds = %v..%v", f.Min, f.Max)
	}

	// Already normalized kind takes priority over raw type
	var g Field
	if err := json.Unmarshal([]byte(`{"name": "mode", "kind": "select", "type": "text"}`), &g); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g.Kind != FieldKindSelect {
		t.Errorf("Kind = %s, want select", g.Kind)
	}
}

func TestFieldCheck_Text(t *testing.T) {
	f := Field{Name: "query", Kind: FieldKindText}

	if err := f.Check("hello"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := f.Check(42); err == nil {
		t.Error("expected error for non-string")
	}
}

func TestFieldCheck_Number(t *testing.T) {
	f := Field{Name: "limit", Kind: FieldKindNumber, Min: floatPtr(1), Max: floatPtr(100)}

	// JSON decodes numbers to float64, but int literals from Go callers
	// must pass too
	for _, v := range []any{float64(50), 50, int64(50), float32(50)} {
		if err := f.Check(v); err != nil {
			t.Errorf("Check(%T) = %v", v, err)
		}
	}

	if err := f.Check(float64(0)); err == nil {
		t.Error("expected below-minimum error")
	}
	if err := f.Check(float64(101)); err == nil {
		t.Error("expected above-maximum error")
	}
	if err := f.Check("50"); err == nil {
		t.Error("expected type error for string")
	}

	// Unbounded number accepts anything numeric
	open := Field{Name: "score", Kind: FieldKindNumber}
	if err := open.Check(float64(-1e9)); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestFieldCheck_Bool(t *testing.T) {
	f := Field{Name: "dry_run", Kind: FieldKindBool}

	if err := f.Check(true); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := f.Check("true"); err == nil {
		t.Error("expected error for string")
	}
}

func TestFieldCheck_Select(t *testing.T) {
	f := Field{Name: "mode", Kind: FieldKindSelect, Options: []string{"fast", "thorough"}}

	if err := f.Check("fast"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := f.Check("turbo"); err == nil {
		t.Error("expected error for value outside options")
	}
	if err := f.Check(1); err == nil {
		t.Error("expected type error")
	}
}

func TestFieldByName(t *testing.T) {
	s := StageSchema{
		Stage: "fetch",
		Fields: []Field{
			{Name: "limit", Kind: FieldKindNumber},
			{Name: "query", Kind: FieldKindText},
		},
	}

	f, ok := s.FieldByName("query")
	if !ok || f.Name != "query" {
		t.Errorf("FieldByName(query) = %+v, %v", f, ok)
	}
	if _, ok := s.FieldByName("missing"); ok {
		t.Error("unknown field should report ok=false")
	}
}
