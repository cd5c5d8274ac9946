package store

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dlovans/formwright/pkg/form"
)

func sequentialIDs() Option {
	n := 0
	return WithIDGenerator(func() string {
		n++
		return fmt.Sprintf("id%d", n)
	})
}

func text(label string) form.Field {
	return form.Field{Label: label, Type: form.TypeText}
}

func ids(fields []form.Field) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = f.ID
	}
	return out
}

func TestAddFieldAssignsID(t *testing.T) {
	s := New(sequentialIDs())

	f := text("Name")
	f.ID = "ignored"
	id := s.AddField(f)
	assert.Equal(t, "id1", id)
	assert.Equal(t, "id2", s.AddField(text("Email")))

	b := s.Builder()
	assert.Equal(t, []string{"id1", "id2"}, ids(b.Fields))
	assert.Equal(t, "Name", b.Fields[0].Label)
}

func TestDefaultIDsAreUnique(t *testing.T) {
	s := New()
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		id := s.AddField(text("x"))
		require.NotEmpty(t, id)
		require.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

func TestUpdateAndDeleteField(t *testing.T) {
	s := New(sequentialIDs())
	s.AddField(text("A"))
	s.AddField(text("B"))

	upd := text("Renamed")
	upd.ID = "id2"
	assert.True(t, s.UpdateField(upd))
	assert.Equal(t, "Renamed", s.Builder().Fields[1].Label)

	upd.ID = "missing"
	assert.False(t, s.UpdateField(upd))

	assert.True(t, s.DeleteField("id1"))
	assert.False(t, s.DeleteField("id1"))
	assert.Equal(t, []string{"id2"}, ids(s.Builder().Fields))
}

func TestMoveField(t *testing.T) {
	tests := []struct {
		name     string
		from, to int
		ok       bool
		expected []string
	}{
		{"forward", 0, 2, true, []string{"id2", "id3", "id1"}},
		{"backward", 2, 0, true, []string{"id3", "id1", "id2"}},
		{"adjacent", 1, 2, true, []string{"id1", "id3", "id2"}},
		{"same index", 1, 1, true, []string{"id1", "id2", "id3"}},
		{"from out of range", 3, 0, false, []string{"id1", "id2", "id3"}},
		{"to out of range", 0, 7, false, []string{"id1", "id2", "id3"}},
		{"negative", -1, 0, false, []string{"id1", "id2", "id3"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(sequentialIDs())
			s.AddField(text("A"))
			s.AddField(text("B"))
			s.AddField(text("C"))

			assert.Equal(t, tt.ok, s.MoveField(tt.from, tt.to))
			assert.Equal(t, tt.expected, ids(s.Builder().Fields))
		})
	}
}

func TestBuilderReturnsCopy(t *testing.T) {
	s := New(sequentialIDs())
	s.AddField(form.Field{Label: "Pick", Type: form.TypeSelect, Options: []string{"a", "b"}})

	b := s.Builder()
	b.Fields[0].Options[0] = "mutated"
	b.Fields[0].Label = "mutated"

	again := s.Builder()
	assert.Equal(t, "Pick", again.Fields[0].Label)
	assert.Equal(t, []string{"a", "b"}, again.Fields[0].Options)
}

func TestLoadAndResetBuilder(t *testing.T) {
	s := New()
	schema := form.Schema{Name: "Signup", Fields: []form.Field{{ID: "x", Label: "X", Type: form.TypeText}}}
	s.LoadBuilder(schema)
	schema.Fields[0].Label = "changed"

	b := s.Builder()
	assert.Equal(t, "Signup", b.Name)
	assert.Equal(t, "X", b.Fields[0].Label)

	s.SetName("Renamed")
	assert.Equal(t, "Renamed", s.Builder().Name)

	s.ResetBuilder()
	assert.Empty(t, s.Builder().Fields)
	assert.Empty(t, s.Builder().Name)
}

func TestLoadPreviewSeedsDefaults(t *testing.T) {
	s := New()
	s.LoadPreview([]form.Field{
		{ID: "a", Label: "A", Type: form.TypeNumber, DefaultValue: "4"},
		{ID: "b", Label: "B", Type: form.TypeText},
		{ID: "c", Label: "C", Type: form.TypeNumber, DefaultValue: "9", Derived: &form.DerivedConfig{IsDerived: true, Parents: []string{"a"}, Formula: "byId.a"}},
	})

	assert.Equal(t, form.Values{"a": "4", "b": "", "c": ""}, s.Values())
	assert.Len(t, s.PreviewFields(), 3)
}

func TestMergeValuesIsShallow(t *testing.T) {
	s := New()
	s.LoadPreview([]form.Field{
		{ID: "a", Label: "A", Type: form.TypeText, DefaultValue: "0"},
		{ID: "b", Label: "B", Type: form.TypeText, DefaultValue: "9"},
	})

	s.MergeValues(form.Values{"a": "1"})
	assert.Equal(t, form.Values{"a": "1", "b": "9"}, s.Values())
}

func TestValuesReturnsCopy(t *testing.T) {
	s := New()
	s.SetValue("a", "1")
	v := s.Values()
	v["a"] = "mutated"
	assert.Equal(t, "1", s.Values()["a"])
}

func TestResetPreview(t *testing.T) {
	s := New()
	s.LoadPreview([]form.Field{{ID: "a", Label: "A", Type: form.TypeText, DefaultValue: "x"}})
	s.ResetPreview()
	assert.Empty(t, s.PreviewFields())
	assert.Empty(t, s.Values())
}

func TestChangeNotifications(t *testing.T) {
	s := New(sequentialIDs())
	var got []Change
	cancel := s.Subscribe(func(c Change) { got = append(got, c) })

	s.AddField(text("A"))
	s.SetValue("a", "1")
	s.SetValue("a", "1") // unchanged
	s.MergeValues(form.Values{"a": "1"})
	s.MergeValues(form.Values{"a": "2", "b": "3"})
	s.MoveField(0, 5) // rejected

	require.Len(t, got, 3)
	assert.Equal(t, Change{Region: RegionBuilder, Op: "add_field", IDs: []string{"id1"}}, got[0])
	assert.Equal(t, Change{Region: RegionPreviewValues, Op: "set_value", IDs: []string{"a"}}, got[1])
	assert.Equal(t, Change{Region: RegionPreviewValues, Op: "merge_values", IDs: []string{"a", "b"}}, got[2])

	cancel()
	s.SetValue("a", "other")
	assert.Len(t, got, 3)
}

func TestListenerMayCallBack(t *testing.T) {
	s := New()
	calls := 0
	s.Subscribe(func(c Change) {
		calls++
		if c.Op == "set_value" {
			// Reentry must not deadlock.
			s.MergeValues(form.Values{"echo": s.Values()["a"]})
		}
	})

	s.SetValue("a", "hello")
	assert.Equal(t, "hello", s.Values()["echo"])
	assert.Equal(t, 2, calls)
}

func TestConcurrentWriters(t *testing.T) {
	s := New()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				s.SetValue(fmt.Sprintf("k%d", i), fmt.Sprint(j))
				_ = s.Values()
			}
		}(i)
	}
	wg.Wait()

	v := s.Values()
	for i := 0; i < 8; i++ {
		assert.Equal(t, "99", v[fmt.Sprintf("k%d", i)])
	}
}

func TestRegionString(t *testing.T) {
	assert.Equal(t, "builder", RegionBuilder.String())
	assert.Equal(t, "preview_values", RegionPreviewValues.String())
	assert.Equal(t, "unknown", Region(42).String())
}
