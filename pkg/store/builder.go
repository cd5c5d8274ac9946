package store

import (
	"github.com/dlovans/formwright/pkg/form"
)

// SetName renames the schema under construction.
func (s *Store) SetName(name string) {
	s.mu.Lock()
	s.builder.Name = name
	s.commit(Change{Region: RegionBuilder, Op: "set_name"})
}

// AddField appends a copy of f with a freshly assigned ID and returns that ID.
// Any ID already on f is ignored.
func (s *Store) AddField(f form.Field) string {
	s.mu.Lock()
	f = f.Clone()
	f.ID = s.newID()
	s.builder.Fields = append(s.builder.Fields, f)
	s.commit(Change{Region: RegionBuilder, Op: "add_field", IDs: []string{f.ID}})
	return f.ID
}

// UpdateField replaces the field with f.ID. It reports false and changes
// nothing when no such field exists.
func (s *Store) UpdateField(f form.Field) bool {
	s.mu.Lock()
	i := form.IndexOf(s.builder.Fields, f.ID)
	if i < 0 {
		s.mu.Unlock()
		return false
	}
	s.builder.Fields[i] = f.Clone()
	s.commit(Change{Region: RegionBuilder, Op: "update_field", IDs: []string{f.ID}})
	return true
}

// DeleteField removes the field with the given ID. It reports whether a
// field was removed.
func (s *Store) DeleteField(id string) bool {
	s.mu.Lock()
	i := form.IndexOf(s.builder.Fields, id)
	if i < 0 {
		s.mu.Unlock()
		return false
	}
	fields := make([]form.Field, 0, len(s.builder.Fields)-1)
	fields = append(fields, s.builder.Fields[:i]...)
	fields = append(fields, s.builder.Fields[i+1:]...)
	s.builder.Fields = fields
	s.commit(Change{Region: RegionBuilder, Op: "delete_field", IDs: []string{id}})
	return true
}

// MoveField moves the field at index from to index to. Out-of-range indices
// are rejected: the order is left unchanged and false is returned.
func (s *Store) MoveField(from, to int) bool {
	s.mu.Lock()
	n := len(s.builder.Fields)
	if from < 0 || from >= n || to < 0 || to >= n {
		s.mu.Unlock()
		return false
	}
	if from == to {
		s.mu.Unlock()
		return true
	}
	moved := s.builder.Fields[from]
	fields := make([]form.Field, 0, n)
	fields = append(fields, s.builder.Fields[:from]...)
	fields = append(fields, s.builder.Fields[from+1:]...)
	fields = append(fields[:to], append([]form.Field{moved}, fields[to:]...)...)
	s.builder.Fields = fields
	s.commit(Change{Region: RegionBuilder, Op: "move_field", IDs: []string{moved.ID}})
	return true
}

// ResetBuilder clears the schema under construction.
func (s *Store) ResetBuilder() {
	s.mu.Lock()
	s.builder = form.Schema{}
	s.commit(Change{Region: RegionBuilder, Op: "reset"})
}

// LoadBuilder replaces the schema under construction with a copy of schema,
// e.g. to continue editing a saved form.
func (s *Store) LoadBuilder(schema form.Schema) {
	s.mu.Lock()
	s.builder = schema.Clone()
	s.commit(Change{Region: RegionBuilder, Op: "load"})
}

// Builder returns a deep copy of the schema under construction.
func (s *Store) Builder() form.Schema {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.builder.Clone()
}
