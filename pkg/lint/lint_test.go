package lint

import (
	"strings"
	"testing"

	"github.com/dlovans/formwright/pkg/form"
)

func derived(id, label, formula string, parents ...string) form.Field {
	return form.Field{
		ID: id, Label: label, Type: form.TypeNumber,
		Derived: &form.DerivedConfig{IsDerived: true, Parents: parents, Formula: formula},
	}
}

func rules(r *Result) map[string]int {
	out := map[string]int{}
	for _, is := range r.Issues {
		out[is.Severity+":"+is.Rule]++
	}
	return out
}

func TestCleanSchema(t *testing.T) {
	s := form.Schema{Name: "Room", Fields: []form.Field{
		{ID: "w", Label: "Width", Type: form.TypeNumber},
		{ID: "h", Label: "Height", Type: form.TypeNumber},
		derived("area", "Area", "Number(byId.w) * Number(byLabel.Height)", "w", "h"),
	}}

	result := Check(s)
	if !result.Valid {
		t.Errorf("expected valid, got issues: %+v", result.Issues)
	}
	if len(result.Issues) != 0 {
		t.Errorf("expected no issues, got %+v", result.Issues)
	}
}

func TestFieldErrors(t *testing.T) {
	s := form.Schema{Fields: []form.Field{
		{ID: "a", Label: "", Type: form.TypeText},
		{ID: "b", Label: "B", Type: "slider"},
		{ID: "c", Label: "C", Type: form.TypeRadio},
		{ID: "c", Label: "C2", Type: form.TypeText},
		{ID: "", Label: "NoID", Type: form.TypeText},
		{ID: "d", Label: "D", Type: form.TypeNumber, Derived: &form.DerivedConfig{IsDerived: true}},
		derived("e", "E", "byId.a +", "a"),
	}}

	result := Check(s)
	if result.Valid {
		t.Fatal("expected invalid result")
	}

	got := rules(result)
	for _, want := range []string{
		"error:missing-label",
		"error:unknown-type",
		"error:missing-options",
		"error:duplicate-id",
		"error:missing-id",
		"error:incomplete-derived",
		"error:formula-syntax",
	} {
		if got[want] != 1 {
			t.Errorf("%s reported %d times, want 1 (all: %v)", want, got[want], got)
		}
	}
	if n := len(result.Errors()); n != 7 {
		t.Errorf("Errors() returned %d issues, want 7", n)
	}
}

func TestFormulaWarnings(t *testing.T) {
	tests := []struct {
		name   string
		fields []form.Field
		want   string
	}{
		{
			"unknown byId",
			[]form.Field{derived("x", "X", "byId.ghost", "ghost")},
			"warning:unknown-reference",
		},
		{
			"unknown byLabel",
			[]form.Field{{ID: "a", Label: "A", Type: form.TypeText}, derived("x", "X", "byLabel['Nope']", "a")},
			"warning:unknown-reference",
		},
		{
			"undeclared parent",
			[]form.Field{{ID: "a", Label: "A", Type: form.TypeText}, {ID: "b", Label: "B", Type: form.TypeText}, derived("x", "X", "byId.a + byId.b", "a")},
			"warning:undeclared-parent",
		},
		{
			"unused parent",
			[]form.Field{{ID: "a", Label: "A", Type: form.TypeText}, {ID: "b", Label: "B", Type: form.TypeText}, derived("x", "X", "byId.a", "a", "b")},
			"warning:unused-parent",
		},
		{
			"unknown parent",
			[]form.Field{{ID: "a", Label: "A", Type: form.TypeText}, derived("x", "X", "byId.a", "a", "zzz")},
			"warning:unknown-parent",
		},
		{
			"unknown identifier",
			[]form.Field{{ID: "a", Label: "A", Type: form.TypeText}, derived("x", "X", "window.alert(byId.a)", "a")},
			"warning:unknown-identifier",
		},
		{
			"duplicate label",
			[]form.Field{{ID: "a", Label: "Same", Type: form.TypeText}, {ID: "b", Label: "Same", Type: form.TypeText}},
			"warning:duplicate-label",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Check(form.Schema{Fields: tt.fields})
			if !result.Valid {
				t.Errorf("warnings must not invalidate: %+v", result.Issues)
			}
			if got := rules(result); got[tt.want] == 0 {
				t.Errorf("expected %s, got %v", tt.want, got)
			}
		})
	}
}

func TestCycleDetection(t *testing.T) {
	s := form.Schema{Fields: []form.Field{
		derived("a", "A", "Number(byId.b) + 1", "b"),
		derived("b", "B", "Number(byId.c) + 1", "c"),
		derived("c", "C", "Number(byId.a) + 1", "a"),
		derived("self", "Self", "byId.self", "self"),
		derived("ok", "Ok", "byId.a", "a"),
	}}

	result := Check(s)
	var cycles []string
	for _, is := range result.Issues {
		if is.Rule == "cycle" {
			cycles = append(cycles, is.Message)
		}
	}
	if len(cycles) != 2 {
		t.Fatalf("expected 2 cycles, got %d: %v", len(cycles), cycles)
	}
	if !strings.Contains(cycles[0], "a -> b -> c -> a") {
		t.Errorf("unexpected cycle path: %s", cycles[0])
	}
	if !strings.Contains(cycles[1], "self -> self") {
		t.Errorf("unexpected self cycle: %s", cycles[1])
	}
}

func TestRunParsesJSONAndYAML(t *testing.T) {
	jsonDoc := `{"formName":"Room","fields":[{"id":"w","label":"Width","type":"number"},{"id":"a","label":"Area","type":"number","derived":{"isDerived":true,"parents":["w"],"formula":"byId.w * 2"}}]}`
	result, err := Run(jsonDoc)
	if err != nil {
		t.Fatalf("Run(json): %v", err)
	}
	if !result.Valid {
		t.Errorf("json schema should be valid: %+v", result.Issues)
	}

	yamlDoc := `
formName: Room
fields:
  - id: w
    label: Width
    type: number
  - id: pick
    label: Pick
    type: select
`
	result, err = Run(yamlDoc)
	if err != nil {
		t.Fatalf("Run(yaml): %v", err)
	}
	if got := rules(result); got["error:missing-options"] != 1 {
		t.Errorf("expected missing-options from yaml schema, got %v", got)
	}

	if _, err := Run(`{"fields": [`); err == nil {
		t.Error("expected parse error")
	}
}
