package gallery

import "sort"

// Selection is an immutable set of photo ids. Every operation returns a new
// value so callers holding an older Selection never observe a change.
type Selection struct {
	ids map[string]struct{}
}

// NewSelection builds a selection from ids, dropping duplicates.
func NewSelection(ids ...string) Selection {
	m := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		m[id] = struct{}{}
	}
	return Selection{ids: m}
}

// Has reports membership.
func (s Selection) Has(id string) bool {
	_, ok := s.ids[id]
	return ok
}

// Len returns the number of selected ids.
func (s Selection) Len() int {
	return len(s.ids)
}

// IDs returns the selected ids in ascending order.
func (s Selection) IDs() []string {
	out := make([]string, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func (s Selection) clone(extra int) map[string]struct{} {
	m := make(map[string]struct{}, len(s.ids)+extra)
	for id := range s.ids {
		m[id] = struct{}{}
	}
	return m
}

// Toggle flips the membership of id.
func (s Selection) Toggle(id string) Selection {
	m := s.clone(1)
	if _, ok := m[id]; ok {
		delete(m, id)
	} else {
		m[id] = struct{}{}
	}
	return Selection{ids: m}
}

// SelectAll returns a selection holding exactly the ids of c.
func SelectAll(c *Catalog) Selection {
	return NewSelection(c.IDs()...)
}

// DeselectAll returns the empty selection.
func DeselectAll() Selection {
	return NewSelection()
}

// Prune drops ids that are not part of c.
func (s Selection) Prune(c *Catalog) Selection {
	m := make(map[string]struct{}, len(s.ids))
	for id := range s.ids {
		if c.Contains(id) {
			m[id] = struct{}{}
		}
	}
	return Selection{ids: m}
}

// Equal reports whether both selections hold the same ids.
func (s Selection) Equal(o Selection) bool {
	if len(s.ids) != len(o.ids) {
		return false
	}
	for id := range s.ids {
		if !o.Has(id) {
			return false
		}
	}
	return true
}

// Filter returns the photos of list that are selected, keeping list order.
func (s Selection) Filter(list []Photo) []Photo {
	out := make([]Photo, 0, len(s.ids))
	for _, p := range list {
		if s.Has(p.ID) {
			out = append(out, p)
		}
	}
	return out
}
