package builder

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dlovans/formwright/pkg/form"
	"github.com/dlovans/formwright/pkg/store"
)

func newEditor() (*Editor, *store.Store) {
	n := 0
	st := store.New(store.WithIDGenerator(func() string {
		n++
		return fmt.Sprintf("f%d", n)
	}))
	return New(st), st
}

func labels(s form.Schema) []string {
	out := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		out[i] = f.Label
	}
	return out
}

func TestAddChecksFields(t *testing.T) {
	tests := []struct {
		name    string
		field   form.Field
		wantErr error
	}{
		{"text", form.Field{Label: "Name", Type: form.TypeText}, nil},
		{"missing label", form.Field{Label: "  ", Type: form.TypeText}, form.ErrMissingLabel},
		{"unknown type", form.Field{Label: "X", Type: "slider"}, form.ErrUnknownType},
		{"select without options", form.Field{Label: "Size", Type: form.TypeSelect}, form.ErrMissingOptions},
		{"derived without formula", form.Field{Label: "Area", Type: form.TypeNumber, Derived: &form.DerivedConfig{IsDerived: true, Parents: []string{"a"}}}, form.ErrIncompleteDerived},
		{"switched-off derived is dropped", form.Field{Label: "Area", Type: form.TypeNumber, Derived: &form.DerivedConfig{}}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, _ := newEditor()
			id, err := e.Add(tt.field)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, e.Schema().Fields, "rejected field must not reach the store")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "f1", id)
			assert.Nil(t, e.Schema().Fields[0].Derived)
		})
	}
}

func TestAddNormalizesOptions(t *testing.T) {
	e, _ := newEditor()
	_, err := e.Add(form.Field{Label: "Note", Type: form.TypeText, Options: []string{"stale"}})
	require.NoError(t, err)
	assert.Nil(t, e.Schema().Fields[0].Options)
}

func TestEditSequence(t *testing.T) {
	e, st := newEditor()
	var ops []string
	cancel := st.Subscribe(func(c store.Change) { ops = append(ops, c.Op) })
	defer cancel()

	e.Rename("Room")
	w, err := e.Add(form.Field{Label: "Width", Type: form.TypeNumber})
	require.NoError(t, err)
	_, err = e.Add(form.Field{Label: "Height", Type: form.TypeNumber})
	require.NoError(t, err)
	_, err = e.Add(form.Field{Label: "Note", Type: form.TypeText})
	require.NoError(t, err)

	require.NoError(t, e.Move(2, 0))
	assert.Equal(t, []string{"Note", "Width", "Height"}, labels(e.Schema()))

	assert.ErrorIs(t, e.Move(0, 3), ErrBadMove)
	assert.Equal(t, []string{"Note", "Width", "Height"}, labels(e.Schema()))

	require.NoError(t, e.Update(form.Field{ID: w, Label: "Breadth", Type: form.TypeNumber}))
	assert.ErrorIs(t, e.Update(form.Field{ID: w, Label: "", Type: form.TypeNumber}), form.ErrMissingLabel)
	assert.ErrorIs(t, e.Update(form.Field{ID: "nope", Label: "X", Type: form.TypeText}), ErrNoField)

	require.NoError(t, e.Delete("f3"))
	assert.ErrorIs(t, e.Delete("f3"), ErrNoField)
	assert.Equal(t, []string{"Breadth", "Height"}, labels(e.Schema()))
	assert.Equal(t, "Room", e.Schema().Name)

	e.Reset()
	assert.Empty(t, e.Schema().Fields)
	assert.Equal(t, "", e.Schema().Name)

	assert.Equal(t, []string{
		"set_name", "add_field", "add_field", "add_field",
		"move_field", "update_field", "delete_field", "reset",
	}, ops)
}

func TestLoad(t *testing.T) {
	e, _ := newEditor()
	schema := form.Schema{Name: "Room", Fields: []form.Field{
		{ID: "w", Label: "Width", Type: form.TypeNumber, Options: []string{"x"}},
		{ID: "h", Label: "Height", Type: form.TypeNumber},
	}}
	require.NoError(t, e.Load(schema))
	got := e.Schema()
	assert.Equal(t, []string{"Width", "Height"}, labels(got))
	assert.Nil(t, got.Fields[0].Options)

	dup := form.Schema{Fields: []form.Field{
		{ID: "a", Label: "A", Type: form.TypeText},
		{ID: "a", Label: "B", Type: form.TypeText},
	}}
	assert.Error(t, e.Load(dup))
	assert.ErrorIs(t, e.Load(form.Schema{Fields: []form.Field{{ID: "a", Type: form.TypeText}}}), form.ErrMissingLabel)
	assert.Equal(t, "Room", e.Schema().Name, "failed loads leave the builder unchanged")
}

func TestReady(t *testing.T) {
	e, _ := newEditor()
	_, err := e.Ready()
	assert.ErrorIs(t, err, ErrEmptyName)

	e.Rename("  Signup ")
	s, err := e.Ready()
	require.NoError(t, err)
	assert.Equal(t, "Signup", s.Name)
	assert.Empty(t, s.Fields)
}
