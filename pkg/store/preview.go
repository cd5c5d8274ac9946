package store

import (
	"sort"

	"github.com/dlovans/formwright/pkg/form"
)

// LoadPreview replaces the preview fields with a copy of fields and reseeds
// the value map from their defaults. Derived fields start empty.
func (s *Store) LoadPreview(fields []form.Field) {
	s.mu.Lock()
	s.previewFields = form.CloneFields(fields)
	s.values = form.SeedValues(fields)
	s.commit(Change{Region: RegionPreviewFields, Op: "load_preview"})
}

// SetValue sets one field's value. Listeners are only notified when the
// value actually changed.
func (s *Store) SetValue(id, value string) {
	s.mu.Lock()
	if old, ok := s.values[id]; ok && old == value {
		s.mu.Unlock()
		return
	}
	s.values[id] = value
	s.commit(Change{Region: RegionPreviewValues, Op: "set_value", IDs: []string{id}})
}

// MergeValues shallow-merges m into the value map: keys in m overwrite,
// every other key survives. Listeners are only notified when at least one
// value actually changed.
func (s *Store) MergeValues(m form.Values) {
	s.mu.Lock()
	var changed []string
	for id, v := range m {
		if old, ok := s.values[id]; ok && old == v {
			continue
		}
		s.values[id] = v
		changed = append(changed, id)
	}
	if len(changed) == 0 {
		s.mu.Unlock()
		return
	}
	sort.Strings(changed)
	s.commit(Change{Region: RegionPreviewValues, Op: "merge_values", IDs: changed})
}

// ResetPreview ends the preview session.
func (s *Store) ResetPreview() {
	s.mu.Lock()
	s.previewFields = nil
	s.values = form.Values{}
	s.commit(Change{Region: RegionPreviewFields, Op: "reset_preview"})
}

// PreviewFields returns a deep copy of the preview fields.
func (s *Store) PreviewFields() []form.Field {
	s.mu.Lock()
	defer s.mu.Unlock()
	return form.CloneFields(s.previewFields)
}

// Values returns a copy of the preview value map.
func (s *Store) Values() form.Values {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.values.Clone()
}

// Snapshot returns copies of the preview fields and values taken under one lock.
func (s *Store) Snapshot() ([]form.Field, form.Values) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return form.CloneFields(s.previewFields), s.values.Clone()
}
