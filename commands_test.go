package canopy

import (
	"errors"
	"testing"
)

func TestParseChord(t *testing.T) {
	tests := []struct {
		in   string
		want Chord
	}{
		{"Escape", Chord{Key: KeyEscape}},
		{"esc", Chord{Key: KeyEscape}},
		{"Mod+D", Chord{Key: "D", Primary: true}},
		{"mod+d", Chord{Key: "D", Primary: true}},
		{"Mod+=", Chord{Key: "=", Primary: true}},
		{"Mod++", Chord{Key: "+", Primary: true}},
		{"Mod+-", Chord{Key: "-", Primary: true}},
		{"Mod+Shift+D", Chord{Key: "D", Mods: ModShift, Primary: true}},
		{"Ctrl+Alt+Delete", Chord{Key: KeyDelete, Mods: ModCtrl | ModAlt}},
		{"Cmd+Backspace", Chord{Key: KeyBackspace, Mods: ModMeta}},
		{"+", Chord{Key: "+"}},
		{"Ctrl+plus", Chord{Key: "+", Mods: ModCtrl}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseChord(tt.in)
			if err != nil {
				t.Fatalf("ParseChord(%q): %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseChord(%q) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseChordInvalid(t *testing.T) {
	for _, in := range []string{"", "Hyper+D", "Mod+", "Mod+Page", "Ctrl+Shift"} {
		t.Run(in, func(t *testing.T) {
			if _, err := ParseChord(in); !errors.Is(err, ErrInvalidChord) {
				t.Errorf("ParseChord(%q) err = %v, want ErrInvalidChord", in, err)
			}
		})
	}
}

func TestChordStringRoundTrip(t *testing.T) {
	for _, in := range []string{"Mod+Shift+D", "Ctrl+Alt+Delete", "Escape"} {
		c, err := ParseChord(in)
		if err != nil {
			t.Fatal(err)
		}
		again, err := ParseChord(c.String())
		if err != nil || again != c {
			t.Errorf("%q → %q → %+v (%v)", in, c.String(), again, err)
		}
	}
}

func TestKeymapResolvesPrimary(t *testing.T) {
	for _, primary := range []KeyModifiers{ModCtrl, ModMeta} {
		km := DefaultKeymap(primary)
		a, ok := km.Lookup(KeyEvent{Key: "d", Modifiers: primary})
		if !ok || a != ActionDuplicate {
			t.Errorf("primary %v: Lookup = %q,%v", primary, a, ok)
		}
		other := ModMeta
		if primary == ModMeta {
			other = ModCtrl
		}
		if _, ok := km.Lookup(KeyEvent{Key: "d", Modifiers: other}); ok {
			t.Errorf("primary %v: non-primary modifier matched", primary)
		}
	}
}

func TestKeymapBindUnknownAction(t *testing.T) {
	km := NewKeymap(ModCtrl)
	if err := km.Bind("Mod+K", "launch-rockets"); err == nil {
		t.Error("expected error for unknown action")
	}
	if err := km.Bind("Mod+K", PlaceAction(KindCode)); err != nil {
		t.Errorf("place action rejected: %v", err)
	}
	if err := km.Bind("Mod+L", AlignAction(AlignLeft)); err != nil {
		t.Errorf("align action rejected: %v", err)
	}
	if err := km.Bind("Mod+L", "align-diagonal"); err == nil {
		t.Error("expected error for unknown alignment")
	}
}

func TestHandleKeyIgnoresEditing(t *testing.T) {
	c := New()
	c.AddBlock(KindNote, &Vec2{0, 0})
	primary := c.Keymap().Primary()

	if c.HandleKey(KeyEvent{Key: "D", Modifiers: primary, Editing: true}) {
		t.Error("editing event should not be handled")
	}
	if c.HandleKey(KeyEvent{Key: KeyBackspace, Modifiers: primary, Editing: true}) {
		t.Error("editing event should not be handled")
	}
	if c.HandleKey(KeyEvent{Key: KeyEscape, Editing: true}) {
		t.Error("editing event should not be handled")
	}
	if c.Store().Len() != 1 || c.Selection().Len() != 1 {
		t.Error("editing events changed state")
	}
}

func TestZoomKeys(t *testing.T) {
	c := New()
	primary := c.Keymap().Primary()
	c.SetZoom(1)
	c.HandleKey(KeyEvent{Key: "=", Modifiers: primary})
	c.HandleKey(KeyEvent{Key: "=", Modifiers: primary})
	if c.Viewport().Zoom() != 1.2 {
		t.Errorf("Zoom = %v, want 1.2", c.Viewport().Zoom())
	}
	for i := 0; i < 20; i++ {
		c.HandleKey(KeyEvent{Key: "+", Modifiers: primary})
	}
	if c.Viewport().Zoom() != MaxZoom {
		t.Errorf("Zoom = %v, want %v", c.Viewport().Zoom(), MaxZoom)
	}
	for i := 0; i < 40; i++ {
		c.HandleKey(KeyEvent{Key: "-", Modifiers: primary})
	}
	if c.Viewport().Zoom() != MinZoom {
		t.Errorf("Zoom = %v, want %v", c.Viewport().Zoom(), MinZoom)
	}
	c.HandleKey(KeyEvent{Key: "0", Modifiers: primary})
	if c.Viewport().Zoom() != 1 {
		t.Errorf("Zoom = %v after reset", c.Viewport().Zoom())
	}
}

func TestDeleteAndSelectAllKeys(t *testing.T) {
	c := New()
	primary := c.Keymap().Primary()
	c.AddBlock(KindNote, &Vec2{0, 0})
	c.AddBlock(KindNote, &Vec2{400, 0})
	h, _ := c.AddBlock(KindNote, &Vec2{800, 0})
	c.ToggleHiddenSelected()

	c.HandleKey(KeyEvent{Key: "a", Modifiers: primary})
	if c.Selection().Len() != 2 || c.Selection().Has(h.ID) {
		t.Errorf("select-all selected %v", c.Selection().All())
	}
	c.HandleKey(KeyEvent{Key: KeyDelete, Modifiers: primary})
	if c.Store().Len() != 1 {
		t.Errorf("Len = %d after delete", c.Store().Len())
	}
}

func TestPerformPreconditions(t *testing.T) {
	c := New()
	if c.Perform(ActionDuplicate) || c.Perform(ActionDelete) || c.Perform(ActionToggleLock) {
		t.Error("selection actions should fail on empty selection")
	}
	if !c.Perform(ActionZoomIn) {
		t.Error("zoom-in has no precondition")
	}
	if c.Perform("bogus") {
		t.Error("unknown action performed")
	}
	if !c.Perform(PlaceAction(KindImage)) {
		t.Error("place action refused")
	}
	if k, ok := c.PlacingKind(); !ok || k != KindImage {
		t.Errorf("PlacingKind = %q,%v", k, ok)
	}
	grid := c.GridVisible()
	c.Perform(ActionToggleGrid)
	if c.GridVisible() == grid {
		t.Error("toggle-grid did nothing")
	}
}
