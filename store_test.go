package canopy

import (
	"encoding/json"
	"testing"
	"time"
)

// fixedClock returns a clock that advances one second per call.
func fixedClock(start time.Time) func() time.Time {
	t := start
	return func() time.Time {
		cur := t
		t = t.Add(time.Second)
		return cur
	}
}

func TestStoreCreateDefaults(t *testing.T) {
	for _, k := range Kinds {
		t.Run(string(k), func(t *testing.T) {
			s := NewStore()
			b := s.Create(k, Vec2{100, 100})
			def := DefaultKinds[k]
			if b.Kind != k {
				t.Errorf("Kind = %q, want %q", b.Kind, k)
			}
			if b.Position != (Vec2{100, 100}) {
				t.Errorf("Position = %v", b.Position)
			}
			if b.Size != def.Size {
				t.Errorf("Size = %v, want %v", b.Size, def.Size)
			}
			if b.Color != def.Color {
				t.Errorf("Color = %v, want %v", b.Color, def.Color)
			}
			if string(b.Content) != string(def.Content) {
				t.Errorf("Content = %s, want %s", b.Content, def.Content)
			}
			if b.ID == "" {
				t.Error("empty id")
			}
			if b.UpdatedAt.Before(b.CreatedAt) {
				t.Error("UpdatedAt before CreatedAt")
			}
		})
	}
}

func TestStoreCreateUnknownKindFallsBackToNote(t *testing.T) {
	s := NewStore()
	b := s.Create("whiteboard-widget", Vec2{})
	if b.Kind != KindNote {
		t.Errorf("Kind = %q, want note", b.Kind)
	}
}

func TestStoreCreateAppendsOnTop(t *testing.T) {
	s := NewStore()
	a := s.Create(KindNote, Vec2{})
	b := s.Create(KindNote, Vec2{})
	order := s.Order()
	if len(order) != 2 || order[0] != a.ID || order[1] != b.ID {
		t.Errorf("Order = %v", order)
	}
	if s.Index(b.ID) != 1 || s.Index("nope") != -1 {
		t.Error("Index mismatch")
	}
}

func TestStoreUpdate(t *testing.T) {
	s := NewStore()
	s.SetClock(fixedClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)))
	b := s.Create(KindNote, Vec2{})

	pos := Vec2{40, 50}
	title := "hello"
	got, ok := s.Update(b.ID, BlockPatch{Position: &pos, Title: &title})
	if !ok {
		t.Fatal("Update reported no change")
	}
	if got.Position != pos || got.Title != title {
		t.Errorf("got %+v", got)
	}
	if !got.UpdatedAt.After(got.CreatedAt) {
		t.Errorf("UpdatedAt %v not after CreatedAt %v", got.UpdatedAt, got.CreatedAt)
	}

	if _, ok := s.Update("missing", BlockPatch{Position: &pos}); ok {
		t.Error("update of unknown id reported change")
	}
	if _, ok := s.Update(b.ID, BlockPatch{}); ok {
		t.Error("empty patch reported change")
	}
}

func TestStoreUpdateClampsSize(t *testing.T) {
	s := NewStore()
	b := s.Create(KindNote, Vec2{})
	tiny := Vec2{10, -5}
	got, _ := s.Update(b.ID, BlockPatch{Size: &tiny})
	if got.Size.X != MinBlockWidth || got.Size.Y != MinBlockHeight {
		t.Errorf("Size = %v, want minimum", got.Size)
	}
}

func TestStoreLockedRejectsGeometry(t *testing.T) {
	s := NewStore()
	b := s.Create(KindNote, Vec2{5, 5})
	locked := true
	s.Update(b.ID, BlockPatch{Locked: &locked})

	pos := Vec2{100, 100}
	size := Vec2{500, 500}
	title := "still editable"
	got, ok := s.Update(b.ID, BlockPatch{Position: &pos, Size: &size, Title: &title})
	if !ok {
		t.Fatal("non-geometric fields should still apply")
	}
	if got.Position != (Vec2{5, 5}) || got.Size != DefaultKinds[KindNote].Size {
		t.Errorf("locked block geometry changed: %+v", got)
	}
	if got.Title != title {
		t.Errorf("Title = %q", got.Title)
	}

	if _, ok := s.Update(b.ID, BlockPatch{Position: &pos}); ok {
		t.Error("geometry-only patch on locked block reported change")
	}

	unlocked := false
	got, _ = s.Update(b.ID, BlockPatch{Locked: &unlocked, Position: &pos})
	if got.Position != (Vec2{5, 5}) {
		t.Error("patch that unlocks should not move in the same call")
	}
}

func TestStoreRemoveEvicts(t *testing.T) {
	s := NewStore()
	a := s.Create(KindNote, Vec2{})
	b := s.Create(KindNote, Vec2{})
	var evicted []BlockID
	s.evict = func(ids []BlockID) { evicted = append(evicted, ids...) }

	s.Remove(a.ID, "ghost")
	if s.Has(a.ID) || !s.Has(b.ID) || s.Len() != 1 {
		t.Error("Remove did not delete exactly the known id")
	}
	if len(evicted) != 1 || evicted[0] != a.ID {
		t.Errorf("evicted = %v", evicted)
	}
}

func TestStoreReorderMany(t *testing.T) {
	s := NewStore()
	ids := make([]BlockID, 4)
	for i := range ids {
		ids[i] = s.Create(KindNote, Vec2{}).ID
	}

	s.ReorderMany([]BlockID{ids[2], ids[0]}, ToTop)
	want := []BlockID{ids[1], ids[3], ids[0], ids[2]}
	if !sameOrder(s.Order(), want) {
		t.Errorf("ToTop order = %v, want %v", s.Order(), want)
	}

	s.ReorderMany([]BlockID{ids[2], ids[3]}, ToBottom)
	want = []BlockID{ids[3], ids[2], ids[1], ids[0]}
	if !sameOrder(s.Order(), want) {
		t.Errorf("ToBottom order = %v, want %v", s.Order(), want)
	}
}

func TestStoreReorderNoChangeDoesNotNotify(t *testing.T) {
	s := NewStore()
	a := s.Create(KindNote, Vec2{})
	b := s.Create(KindNote, Vec2{})
	_ = a
	var events int
	s.Subscribe(ObserverFunc(func(ChangeEvent) { events++ }))
	s.Reorder(b.ID, ToTop)
	if events != 0 {
		t.Errorf("got %d events for no-op reorder", events)
	}
}

func TestStoreObserverAndRemove(t *testing.T) {
	s := NewStore()
	var got []ChangeType
	h := s.Subscribe(ObserverFunc(func(ev ChangeEvent) { got = append(got, ev.Type) }))
	b := s.Create(KindNote, Vec2{})
	title := "x"
	s.Update(b.ID, BlockPatch{Title: &title})
	s.Remove(b.ID)
	h.Remove()
	s.Create(KindNote, Vec2{})

	want := []ChangeType{ChangeCreated, ChangeUpdated, ChangeRemoved}
	if len(got) != len(want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestStoreBatchDefersNotification(t *testing.T) {
	s := NewStore()
	var seenLen []int
	s.Subscribe(ObserverFunc(func(ChangeEvent) { seenLen = append(seenLen, s.Len()) }))
	s.batch(func() {
		s.Create(KindNote, Vec2{})
		s.Create(KindNote, Vec2{})
		s.Create(KindNote, Vec2{})
	})
	if len(seenLen) != 3 {
		t.Fatalf("got %d events, want 3", len(seenLen))
	}
	for i, n := range seenLen {
		if n != 3 {
			t.Errorf("event %d observed %d blocks, want the completed batch", i, n)
		}
	}
}

func TestStoreGetReturnsCopy(t *testing.T) {
	s := NewStore()
	b := s.Create(KindNote, Vec2{})
	got, _ := s.Get(b.ID)
	got.Content[0] = 'X'
	got.Position.X = 999
	again, _ := s.Get(b.ID)
	if again.Position.X == 999 || again.Content[0] == 'X' {
		t.Error("Get exposed internal state")
	}
}

func TestStoreLoad(t *testing.T) {
	s := NewStore()
	old := s.Create(KindNote, Vec2{})
	var evicted []BlockID
	s.evict = func(ids []BlockID) { evicted = ids }

	created := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	s.Load([]Block{
		{ID: "a", Kind: KindCode, Size: Vec2{10, 10}, CreatedAt: created, UpdatedAt: created.Add(-time.Hour)},
		{ID: "b", Kind: "bogus", Content: json.RawMessage(`{}`)},
		{ID: "a", Kind: KindTag},
		{Kind: KindLink, Size: Vec2{300, 120}},
	})

	if s.Len() != 3 {
		t.Fatalf("Len = %d, want 3", s.Len())
	}
	a, _ := s.Get("a")
	if a.Kind != KindCode || a.Size != (Vec2{MinBlockWidth, MinBlockHeight}) {
		t.Errorf("a = %+v", a)
	}
	if !a.UpdatedAt.Equal(a.CreatedAt) {
		t.Error("UpdatedAt should be raised to CreatedAt")
	}
	b, _ := s.Get("b")
	if b.Kind != KindNote {
		t.Errorf("unknown kind loaded as %q", b.Kind)
	}
	if order := s.Order(); order[0] != "a" || order[1] != "b" || order[2] == "" {
		t.Errorf("Order = %v", order)
	}
	if len(evicted) != 1 || evicted[0] != old.ID {
		t.Errorf("evicted = %v, want [%s]", evicted, old.ID)
	}
}

func TestSetKindDefaults(t *testing.T) {
	s := NewStore()
	s.SetKindDefaults(map[Kind]KindDefaults{
		KindNote: {Size: Vec2{500, 400}, Color: ColorWhite},
		"bogus":  {Size: Vec2{1, 1}},
	})
	if b := s.Create(KindNote, Vec2{}); b.Size != (Vec2{500, 400}) {
		t.Errorf("note size = %v", b.Size)
	}
	if b := s.Create(KindTag, Vec2{}); b.Size != DefaultKinds[KindTag].Size {
		t.Errorf("tag size = %v", b.Size)
	}
}
