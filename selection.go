package canopy

// Selection is the ordered set of selected block ids. It holds ids only and
// drops any id the store does not know, so it never references a missing
// block. Insertion order is kept; the first id is the primary selection.
type Selection struct {
	store    *Store
	ids      []BlockID
	onChange func()
}

func newSelection(store *Store) *Selection {
	return &Selection{store: store}
}

// Set replaces the selection with ids, skipping unknown and repeated ids.
func (s *Selection) Set(ids ...BlockID) {
	next := make([]BlockID, 0, len(ids))
	seen := make(map[BlockID]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup || !s.store.Has(id) {
			continue
		}
		seen[id] = struct{}{}
		next = append(next, id)
	}
	if sameOrder(s.ids, next) {
		return
	}
	s.ids = next
	s.changed()
}

// Add appends id if it is known and not already selected.
func (s *Selection) Add(id BlockID) {
	if s.Has(id) || !s.store.Has(id) {
		return
	}
	s.ids = append(s.ids, id)
	s.changed()
}

// Remove deselects id.
func (s *Selection) Remove(id BlockID) {
	for i, cur := range s.ids {
		if cur == id {
			s.ids = append(s.ids[:i:i], s.ids[i+1:]...)
			s.changed()
			return
		}
	}
}

// Toggle adds id when absent and removes it when present.
func (s *Selection) Toggle(id BlockID) {
	if s.Has(id) {
		s.Remove(id)
		return
	}
	s.Add(id)
}

// Clear empties the selection.
func (s *Selection) Clear() {
	if len(s.ids) == 0 {
		return
	}
	s.ids = nil
	s.changed()
}

// All returns the selected ids in insertion order.
func (s *Selection) All() []BlockID {
	return append([]BlockID(nil), s.ids...)
}

// Has reports whether id is selected.
func (s *Selection) Has(id BlockID) bool {
	for _, cur := range s.ids {
		if cur == id {
			return true
		}
	}
	return false
}

// Len returns the number of selected blocks.
func (s *Selection) Len() int {
	return len(s.ids)
}

// Primary returns the first selected id.
func (s *Selection) Primary() (BlockID, bool) {
	if len(s.ids) == 0 {
		return "", false
	}
	return s.ids[0], true
}

// Equal reports set equality with ids, ignoring order.
func (s *Selection) Equal(ids []BlockID) bool {
	want := make(map[BlockID]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	if len(want) != len(s.ids) {
		return false
	}
	for _, id := range s.ids {
		if _, ok := want[id]; !ok {
			return false
		}
	}
	return true
}

// evict drops ids removed from the store. Called by Store.Remove in the same
// operation as the removal.
func (s *Selection) evict(ids []BlockID) {
	if len(s.ids) == 0 {
		return
	}
	gone := make(map[BlockID]struct{}, len(ids))
	for _, id := range ids {
		gone[id] = struct{}{}
	}
	kept := make([]BlockID, 0, len(s.ids))
	for _, id := range s.ids {
		if _, ok := gone[id]; !ok {
			kept = append(kept, id)
		}
	}
	if len(kept) == len(s.ids) {
		return
	}
	s.ids = kept
	s.changed()
}

func (s *Selection) changed() {
	if s.onChange != nil {
		s.onChange()
	}
}

func sameOrder(a, b []BlockID) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
