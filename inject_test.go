package canopy

import "testing"

func TestInjectClickSelects(t *testing.T) {
	c := New()
	a, _ := c.AddBlock(KindNote, &Vec2{0, 0})
	c.Selection().Clear()

	c.InjectClick(50, 50, 0)
	if c.Pending() != 2 {
		t.Fatalf("expected 2 queued events, got %d", c.Pending())
	}

	// Frame 1: press
	c.Update(1.0 / 60)
	if c.Pending() != 1 {
		t.Fatalf("expected 1 remaining event, got %d", c.Pending())
	}
	if !c.Selection().Has(a.ID) {
		t.Error("press should select")
	}
	if c.Mode() != ModeDragging {
		t.Errorf("Mode = %v, want dragging between press and release", c.Mode())
	}

	// Frame 2: release
	c.Update(1.0 / 60)
	if c.Pending() != 0 || c.Mode() != ModeIdle {
		t.Errorf("pending %d mode %v", c.Pending(), c.Mode())
	}
}

func TestInjectDrag(t *testing.T) {
	c := New()
	a, _ := c.AddBlock(KindNote, &Vec2{0, 0})

	c.InjectDrag(Vec2{10, 10}, Vec2{110, 60}, 5, 0)
	if c.Pending() != 5 {
		t.Fatalf("expected 5 queued events, got %d", c.Pending())
	}
	for i := 0; i < 5; i++ {
		c.Update(1.0 / 60)
	}
	got, _ := c.Store().Get(a.ID)
	if got.Position != (Vec2{100, 50}) {
		t.Errorf("Position = %v, want (100,50)", got.Position)
	}
}

func TestInjectDragMinimumFrames(t *testing.T) {
	c := New()
	c.InjectDrag(Vec2{}, Vec2{1, 1}, 0, 0)
	if c.Pending() != 3 {
		t.Errorf("expected 3 queued events, got %d", c.Pending())
	}
}

func TestInjectKeyAndDoubleClick(t *testing.T) {
	c := New()
	c.InjectDoubleClick(400, 300)
	c.InjectKey(KeyEvent{Key: "D", Modifiers: c.Keymap().Primary()})
	c.Update(1.0 / 60)
	c.Update(1.0 / 60)
	if c.Store().Len() != 2 {
		t.Errorf("Len = %d, want note plus duplicate", c.Store().Len())
	}
}

func TestInjectPointerUnknownPhase(t *testing.T) {
	c := New()
	c.InjectPointer("hover", PointerEvent{})
	if c.Pending() != 0 {
		t.Error("unknown phase should be dropped")
	}
}
