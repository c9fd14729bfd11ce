package domain

import "sort"

// IDSet is a set of opaque entity ids. The zero value is an empty set
// ready to use for reads; use NewIDSet or Add to populate it.
type IDSet map[string]struct{}

// NewIDSet builds a set from ids, dropping duplicates and empty ids.
func NewIDSet(ids ...string) IDSet {
	s := make(IDSet, len(ids))
	for _, id := range ids {
		if id != "" {
			s[id] = struct{}{}
		}
	}
	return s
}

func (s IDSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Add inserts id and reports whether the set changed.
func (s IDSet) Add(id string) bool {
	if s.Has(id) {
		return false
	}
	s[id] = struct{}{}
	return true
}

// Remove deletes id and reports whether the set changed.
func (s IDSet) Remove(id string) bool {
	if !s.Has(id) {
		return false
	}
	delete(s, id)
	return true
}

// Toggle removes id when present and adds it otherwise. It returns true
// when id is a member after the call.
func (s IDSet) Toggle(id string) bool {
	if s.Remove(id) {
		return false
	}
	s[id] = struct{}{}
	return true
}

func (s IDSet) Len() int {
	return len(s)
}

// Slice returns the members in ascending order.
func (s IDSet) Slice() []string {
	out := make([]string, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
