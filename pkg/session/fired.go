package session

import "sort"

// FiredRecord notes that a probe or pattern was explored.
type FiredRecord struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Turn      int    `json:"turn"`
	Rationale string `json:"rationale,omitempty"`
}

// FiredSet is an insertion-ordered set of records keyed by id.
type FiredSet struct {
	order []string
	byID  map[string]FiredRecord
}

// Add inserts rec unless its id is already present. It reports whether the set changed.
func (s *FiredSet) Add(rec FiredRecord) bool {
	if s.byID == nil {
		s.byID = make(map[string]FiredRecord)
	}
	if _, ok := s.byID[rec.ID]; ok {
		return false
	}
	s.byID[rec.ID] = rec
	s.order = append(s.order, rec.ID)
	return true
}

// Has reports whether id was recorded.
func (s *FiredSet) Has(id string) bool {
	_, ok := s.byID[id]
	return ok
}

// Get returns the record for id.
func (s *FiredSet) Get(id string) (FiredRecord, bool) {
	rec, ok := s.byID[id]
	return rec, ok
}

// Len returns the number of records.
func (s *FiredSet) Len() int {
	return len(s.order)
}

// Records returns the records in insertion order.
func (s *FiredSet) Records() []FiredRecord {
	out := make([]FiredRecord, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id])
	}
	return out
}

// IDs returns recorded ids in insertion order.
func (s *FiredSet) IDs() []string {
	return append([]string(nil), s.order...)
}

// Names returns recorded display names sorted alphabetically.
func (s *FiredSet) Names() []string {
	names := make([]string, 0, len(s.order))
	for _, id := range s.order {
		names = append(names, s.byID[id].Name)
	}
	sort.Strings(names)
	return names
}

// Clear empties the set.
func (s *FiredSet) Clear() {
	s.order = nil
	s.byID = nil
}
