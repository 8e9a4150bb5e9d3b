package canopy

import (
	"fmt"
	"time"
)

// ChangeType identifies the kind of store mutation carried by a ChangeEvent.
type ChangeType uint8

const (
	ChangeCreated   ChangeType = iota // a block was appended to the top of z-order
	ChangeUpdated                     // fields of an existing block changed
	ChangeRemoved                     // one or more blocks were deleted
	ChangeReordered                   // z-order changed
	ChangeLoaded                      // the whole collection was replaced
)

// String returns a lowercase name suitable for logs and wire formats.
func (t ChangeType) String() string {
	switch t {
	case ChangeCreated:
		return "created"
	case ChangeUpdated:
		return "updated"
	case ChangeRemoved:
		return "removed"
	case ChangeReordered:
		return "reordered"
	case ChangeLoaded:
		return "loaded"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (t ChangeType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *ChangeType) UnmarshalText(text []byte) error {
	for candidate := ChangeCreated; candidate <= ChangeLoaded; candidate++ {
		if candidate.String() == string(text) {
			*t = candidate
			return nil
		}
	}
	return fmt.Errorf("canopy: unknown change type %q", text)
}

// ChangeEvent describes a single store mutation.
type ChangeEvent struct {
	Type ChangeType `json:"type"`
	// Block is set for ChangeCreated and ChangeUpdated.
	Block *Block `json:"block,omitempty"`
	// IDs lists deleted blocks for ChangeRemoved.
	IDs []BlockID `json:"ids,omitempty"`
	// Order is the full z-order after ChangeReordered and ChangeLoaded.
	Order []BlockID `json:"order,omitempty"`
}

// Observer receives store mutations synchronously, after they are applied.
// Persistence, network fan-out and ECS bridges implement it.
type Observer interface {
	BlockChanged(ev ChangeEvent)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ev ChangeEvent)

// BlockChanged calls f(ev).
func (f ObserverFunc) BlockChanged(ev ChangeEvent) { f(ev) }

type observerEntry struct {
	id uint32
	o  Observer
}

// CallbackHandle allows removing a registered observer.
type CallbackHandle struct {
	id    uint32
	store *Store
}

// Remove unregisters the observer so it no longer fires.
func (h CallbackHandle) Remove() {
	if h.store == nil {
		return
	}
	s := h.store
	for i := range s.observers {
		if s.observers[i].id == h.id {
			copy(s.observers[i:], s.observers[i+1:])
			s.observers[len(s.observers)-1] = observerEntry{}
			s.observers = s.observers[:len(s.observers)-1]
			return
		}
	}
}

// ReorderDirection selects the end of z-order a block is moved to.
type ReorderDirection uint8

const (
	ToTop    ReorderDirection = iota // paint last, hit-test first
	ToBottom                         // paint first, hit-test last
)

// Store is the in-memory, ordered block collection. Slice order is z-order:
// the last block is topmost. Store is not safe for concurrent use.
type Store struct {
	blocks []*Block
	byID   map[BlockID]*Block
	kinds  map[Kind]KindDefaults

	now   func() time.Time
	evict func(ids []BlockID)

	observers  []observerEntry
	nextID     uint32
	batchDepth int
	pending    []ChangeEvent
}

// NewStore creates an empty store using DefaultKinds.
func NewStore() *Store {
	return &Store{
		byID:  make(map[BlockID]*Block),
		kinds: DefaultKinds,
		now:   time.Now,
	}
}

// SetKindDefaults overrides the per-kind defaults for blocks created later.
// Kinds missing from defaults keep the built-in values.
func (s *Store) SetKindDefaults(defaults map[Kind]KindDefaults) {
	merged := make(map[Kind]KindDefaults, len(DefaultKinds))
	for k, d := range DefaultKinds {
		merged[k] = d
	}
	for k, d := range defaults {
		if k.Valid() {
			merged[k] = d
		}
	}
	s.kinds = merged
}

// SetClock replaces the timestamp source. Intended for tests and replays.
func (s *Store) SetClock(now func() time.Time) {
	if now == nil {
		now = time.Now
	}
	s.now = now
}

// Subscribe registers an observer for every subsequent mutation.
func (s *Store) Subscribe(o Observer) CallbackHandle {
	s.nextID++
	s.observers = append(s.observers, observerEntry{id: s.nextID, o: o})
	return CallbackHandle{id: s.nextID, store: s}
}

// Create allocates a block of kind with its top-left corner at pos, using
// the kind's default size, color and content. Unknown kinds become notes.
// The block is appended to the top of z-order.
func (s *Store) Create(kind Kind, pos Vec2) Block {
	return s.create(kind, pos, nil)
}

func (s *Store) create(kind Kind, pos Vec2, customize func(b *Block)) Block {
	if !kind.Valid() {
		kind = KindNote
	}
	def, ok := s.kinds[kind]
	if !ok {
		def = DefaultKinds[kind]
	}
	now := s.now()
	b := &Block{
		ID:        newBlockID(),
		Kind:      kind,
		Position:  pos,
		Size:      clampSize(def.Size),
		Content:   append([]byte(nil), def.Content...),
		Color:     def.Color,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if customize != nil {
		customize(b)
		b.Size = clampSize(b.Size)
	}
	s.blocks = append(s.blocks, b)
	s.byID[b.ID] = b

	out := b.clone()
	s.emit(ChangeEvent{Type: ChangeCreated, Block: &out})
	return out
}

// Update merges patch into the block with the given id and refreshes
// UpdatedAt. Unknown ids are a no-op. While a block is locked, position and
// size changes are dropped; every other field still applies, including
// unlocking. Sizes are clamped to the minimum. The bool result reports
// whether anything was applied.
func (s *Store) Update(id BlockID, patch BlockPatch) (Block, bool) {
	b, ok := s.byID[id]
	if !ok {
		return Block{}, false
	}
	if b.Locked && patch.geometric() {
		patch.Position, patch.Size = nil, nil
	}
	if patch.empty() {
		return b.clone(), false
	}

	if patch.Position != nil {
		b.Position = *patch.Position
	}
	if patch.Size != nil {
		b.Size = clampSize(*patch.Size)
	}
	if patch.Content != nil {
		b.Content = append(b.Content[:0:0], patch.Content...)
	}
	if patch.Title != nil {
		b.Title = *patch.Title
	}
	if patch.Color != nil {
		b.Color = *patch.Color
	}
	if patch.Locked != nil {
		b.Locked = *patch.Locked
	}
	if patch.Hidden != nil {
		b.Hidden = *patch.Hidden
	}
	b.UpdatedAt = s.stamp(b.CreatedAt)

	out := b.clone()
	s.emit(ChangeEvent{Type: ChangeUpdated, Block: &out})
	return out, true
}

// Remove deletes every block whose id is listed and evicts them from the
// active selection before returning. Unknown ids are ignored.
func (s *Store) Remove(ids ...BlockID) {
	if len(ids) == 0 {
		return
	}
	doomed := make(map[BlockID]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := s.byID[id]; ok {
			doomed[id] = struct{}{}
		}
	}
	if len(doomed) == 0 {
		return
	}

	removed := make([]BlockID, 0, len(doomed))
	kept := s.blocks[:0]
	for _, b := range s.blocks {
		if _, gone := doomed[b.ID]; gone {
			removed = append(removed, b.ID)
			delete(s.byID, b.ID)
			continue
		}
		kept = append(kept, b)
	}
	for i := len(kept); i < len(s.blocks); i++ {
		s.blocks[i] = nil
	}
	s.blocks = kept

	if s.evict != nil {
		s.evict(removed)
	}
	s.emit(ChangeEvent{Type: ChangeRemoved, IDs: removed})
}

// Reorder moves one block to the top or bottom of z-order.
func (s *Store) Reorder(id BlockID, dir ReorderDirection) {
	s.ReorderMany([]BlockID{id}, dir)
}

// ReorderMany moves the listed blocks to one end of z-order, keeping their
// relative order. Unknown ids are ignored.
func (s *Store) ReorderMany(ids []BlockID, dir ReorderDirection) {
	moving := make(map[BlockID]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := s.byID[id]; ok {
			moving[id] = struct{}{}
		}
	}
	if len(moving) == 0 {
		return
	}

	moved := make([]*Block, 0, len(moving))
	rest := make([]*Block, 0, len(s.blocks)-len(moving))
	for _, b := range s.blocks {
		if _, ok := moving[b.ID]; ok {
			moved = append(moved, b)
		} else {
			rest = append(rest, b)
		}
	}

	next := make([]*Block, 0, len(s.blocks))
	if dir == ToTop {
		next = append(append(next, rest...), moved...)
	} else {
		next = append(append(next, moved...), rest...)
	}
	changed := false
	for i := range next {
		if next[i] != s.blocks[i] {
			changed = true
			break
		}
	}
	if !changed {
		return
	}
	s.blocks = next
	s.emit(ChangeEvent{Type: ChangeReordered, Order: s.Order()})
}

// Load replaces the whole collection with blocks, in the given z-order.
// Blocks without an id get one; sizes and timestamps are normalized.
// Duplicate ids keep the first occurrence.
func (s *Store) Load(blocks []Block) {
	var evicted []BlockID
	for _, b := range s.blocks {
		evicted = append(evicted, b.ID)
	}

	s.blocks = make([]*Block, 0, len(blocks))
	s.byID = make(map[BlockID]*Block, len(blocks))
	now := s.now()
	for _, in := range blocks {
		b := in.clone()
		if b.ID == "" {
			b.ID = newBlockID()
		}
		if _, dup := s.byID[b.ID]; dup {
			continue
		}
		if !b.Kind.Valid() {
			b.Kind = KindNote
		}
		b.Size = clampSize(b.Size)
		if b.CreatedAt.IsZero() {
			b.CreatedAt = now
		}
		if b.UpdatedAt.Before(b.CreatedAt) {
			b.UpdatedAt = b.CreatedAt
		}
		s.blocks = append(s.blocks, &b)
		s.byID[b.ID] = &b
	}

	if s.evict != nil && len(evicted) > 0 {
		stale := evicted[:0]
		for _, id := range evicted {
			if _, ok := s.byID[id]; !ok {
				stale = append(stale, id)
			}
		}
		if len(stale) > 0 {
			s.evict(stale)
		}
	}
	s.emit(ChangeEvent{Type: ChangeLoaded, Order: s.Order()})
}

// Get returns a copy of the block with the given id.
func (s *Store) Get(id BlockID) (Block, bool) {
	b, ok := s.byID[id]
	if !ok {
		return Block{}, false
	}
	return b.clone(), true
}

// Has reports whether id refers to a block in the store.
func (s *Store) Has(id BlockID) bool {
	_, ok := s.byID[id]
	return ok
}

// All returns copies of every block in z-order (bottom first).
func (s *Store) All() []Block {
	out := make([]Block, len(s.blocks))
	for i, b := range s.blocks {
		out[i] = b.clone()
	}
	return out
}

// Order returns block ids in z-order (bottom first).
func (s *Store) Order() []BlockID {
	out := make([]BlockID, len(s.blocks))
	for i, b := range s.blocks {
		out[i] = b.ID
	}
	return out
}

// Index returns the z-order position of id, or -1.
func (s *Store) Index(id BlockID) int {
	for i, b := range s.blocks {
		if b.ID == id {
			return i
		}
	}
	return -1
}

// Len returns the number of blocks.
func (s *Store) Len() int {
	return len(s.blocks)
}

// batch runs fn with observer notification deferred until fn returns, so a
// multi-block operation is observed as one unit.
func (s *Store) batch(fn func()) {
	s.batchDepth++
	defer func() {
		s.batchDepth--
		if s.batchDepth == 0 {
			pending := s.pending
			s.pending = nil
			for _, ev := range pending {
				s.notify(ev)
			}
		}
	}()
	fn()
}

func (s *Store) emit(ev ChangeEvent) {
	if s.batchDepth > 0 {
		s.pending = append(s.pending, ev)
		return
	}
	s.notify(ev)
}

func (s *Store) notify(ev ChangeEvent) {
	for _, e := range s.observers {
		e.o.BlockChanged(ev)
	}
}

// stamp returns the current time, never earlier than created.
func (s *Store) stamp(created time.Time) time.Time {
	t := s.now()
	if t.Before(created) {
		return created
	}
	return t
}
