package reactive

import (
	"math"
	"strings"
	"testing"
)

type recorder struct {
	changes []Change
}

func (r *recorder) notify(change Change) {
	r.changes = append(r.changes, change)
}

func (r *recorder) paths() []string {
	out := make([]string, len(r.changes))
	for i, change := range r.changes {
		out[i] = strings.Join(change.Path, ".")
	}
	return out
}

func TestObserveRejectsNonObjects(t *testing.T) {
	cases := []struct {
		name  string
		value any
	}{
		{name: "nil", value: nil},
		{name: "nil_map", value: map[string]any(nil)},
		{name: "array", value: []any{map[string]any{}}},
		{name: "string", value: "config"},
		{name: "number", value: 42.0},
		{name: "typed_map", value: map[string]string{"a": "b"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if obj := Observe(tc.value, nil); obj != nil {
				t.Fatalf("expected nil wrapper for %T", tc.value)
			}
		})
	}
}

func TestSetNotifiesOnTopLevelChange(t *testing.T) {
	rec := &recorder{}
	root := Observe(map[string]any{"token": ""}, rec.notify)

	if changed := root.Set("token", "abc123"); !changed {
		t.Fatalf("expected Set to report a change")
	}
	if len(rec.changes) != 1 {
		t.Fatalf("expected one change, got %d", len(rec.changes))
	}
	got := rec.changes[0]
	if got.Old != "" || got.New != "abc123" {
		t.Fatalf("unexpected change payload: %+v", got)
	}
	if value, _ := root.Get("token"); value != "abc123" {
		t.Fatalf("expected stored value, got %#v", value)
	}
}

func TestSetSameValueIsNoop(t *testing.T) {
	shared := []any{"name"}
	nested := map[string]any{"a": false}
	rec := &recorder{}
	root := Observe(map[string]any{
		"token":   "abc",
		"count":   3.0,
		"columns": shared,
		"flags":   nested,
		"empty":   nil,
	}, rec.notify)

	root.Set("token", "abc")
	root.Set("count", 3.0)
	root.Set("columns", shared)
	root.Set("flags", nested)
	root.Set("empty", nil)

	if len(rec.changes) != 0 {
		t.Fatalf("expected no changes, got %v", rec.paths())
	}
}

func TestSetDistinctContainerWithEqualContentNotifies(t *testing.T) {
	rec := &recorder{}
	root := Observe(map[string]any{"columns": []any{"name"}}, rec.notify)

	root.Set("columns", []any{"name"})

	if len(rec.changes) != 1 {
		t.Fatalf("expected a fresh array to count as a change, got %d", len(rec.changes))
	}
}

func TestNestedObjectsAreTracked(t *testing.T) {
	rec := &recorder{}
	root := Observe(map[string]any{
		"customColumns": map[string]any{
			"campaignTable": []any{"name"},
			"deep":          map[string]any{"level": map[string]any{"x": 1.0}},
		},
	}, rec.notify)

	columns, ok := root.Child("customColumns")
	if !ok {
		t.Fatalf("expected nested object to be wrapped")
	}
	columns.Set("campaignTable", []any{"name", "status"})

	level, ok := root.Descend([]string{"customColumns", "deep", "level"})
	if !ok {
		t.Fatalf("expected deep node to be wrapped")
	}
	level.Set("x", 2.0)

	want := []string{"customColumns.campaignTable", "customColumns.deep.level.x"}
	got := rec.paths()
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("expected paths %v, got %v", want, got)
	}
	if path := strings.Join(level.Path(), "."); path != "customColumns.deep.level" {
		t.Fatalf("unexpected node path %q", path)
	}
}

func TestAssignedObjectBecomesTracked(t *testing.T) {
	rec := &recorder{}
	root := Observe(map[string]any{"flags": map[string]any{"a": false}}, rec.notify)

	old, _ := root.Child("flags")
	root.Set("flags", map[string]any{"b": true})

	flags, ok := root.Child("flags")
	if !ok {
		t.Fatalf("expected replacement object to be wrapped")
	}
	if flags == old {
		t.Fatalf("expected a fresh wrapper for the replacement object")
	}
	flags.Set("b", false)

	if got := rec.paths(); len(got) != 2 || got[1] != "flags.b" {
		t.Fatalf("expected change on replacement object, got %v", got)
	}
}

func TestReplacingObjectWithScalarDropsChild(t *testing.T) {
	root := Observe(map[string]any{"layout": map[string]any{"mode": "wide"}}, nil)

	root.Set("layout", "compact")

	if _, ok := root.Child("layout"); ok {
		t.Fatalf("expected child wrapper to be dropped")
	}
}

func TestSetAddsNewKey(t *testing.T) {
	rec := &recorder{}
	root := Observe(map[string]any{}, rec.notify)

	root.Set("missing", nil)

	if len(rec.changes) != 1 {
		t.Fatalf("expected adding a key to notify even with a nil value")
	}
	if keys := root.Keys(); len(keys) != 1 || keys[0] != "missing" {
		t.Fatalf("unexpected keys %v", keys)
	}
}

func TestSameValue(t *testing.T) {
	m := map[string]any{}
	s := []any{1.0}
	cases := []struct {
		name string
		a, b any
		want bool
	}{
		{name: "nil_nil", a: nil, b: nil, want: true},
		{name: "nil_value", a: nil, b: 0.0, want: false},
		{name: "strings", a: "x", b: "x", want: true},
		{name: "different_types", a: 1, b: 1.0, want: false},
		{name: "nan", a: math.NaN(), b: math.NaN(), want: false},
		{name: "same_map", a: m, b: m, want: true},
		{name: "other_map", a: m, b: map[string]any{}, want: false},
		{name: "same_slice", a: s, b: s, want: true},
		{name: "resliced", a: s, b: s[:0], want: false},
		{name: "other_slice", a: s, b: []any{1.0}, want: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := SameValue(tc.a, tc.b); got != tc.want {
				t.Fatalf("SameValue(%#v, %#v) = %v, want %v", tc.a, tc.b, got, tc.want)
			}
		})
	}
}
