package canopy

import "testing"

func newHitStore() (*Store, []Block) {
	s := NewStore()
	a := s.Create(KindNote, Vec2{0, 0})      // 300x200
	b := s.Create(KindNote, Vec2{200, 100})  // overlaps a
	c := s.Create(KindTag, Vec2{1000, 1000}) // 150x100
	return s, []Block{a, b, c}
}

func TestPointHit(t *testing.T) {
	s, blocks := newHitStore()
	tests := []struct {
		name string
		pt   Vec2
		want BlockID
		hit  bool
	}{
		{"only a", Vec2{10, 10}, blocks[0].ID, true},
		{"overlap prefers topmost", Vec2{250, 150}, blocks[1].ID, true},
		{"edge counts", Vec2{1150, 1100}, blocks[2].ID, true},
		{"empty", Vec2{-10, -10}, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := s.PointHit(tt.pt)
			if ok != tt.hit || got.ID != tt.want {
				t.Errorf("PointHit(%v) = %q,%v want %q,%v", tt.pt, got.ID, ok, tt.want, tt.hit)
			}
		})
	}
}

func TestPointHitSkipsHidden(t *testing.T) {
	s, blocks := newHitStore()
	hidden := true
	s.Update(blocks[1].ID, BlockPatch{Hidden: &hidden})
	got, ok := s.PointHit(Vec2{250, 150})
	if !ok || got.ID != blocks[0].ID {
		t.Errorf("PointHit = %q,%v, want block beneath hidden one", got.ID, ok)
	}
}

func TestRectHit(t *testing.T) {
	s, blocks := newHitStore()

	t.Run("center policy", func(t *testing.T) {
		// a's center (150,100) inside; b's center (350,200) outside.
		got := s.RectHit(Rect{X: 0, Y: 0, Width: 200, Height: 150}, HitCenter)
		if len(got) != 1 || got[0].ID != blocks[0].ID {
			t.Errorf("got %d blocks", len(got))
		}
	})

	t.Run("overlap policy", func(t *testing.T) {
		got := s.RectHit(Rect{X: 0, Y: 0, Width: 250, Height: 150}, HitOverlap)
		if len(got) != 2 || got[0].ID != blocks[0].ID || got[1].ID != blocks[1].ID {
			t.Errorf("got %d blocks, want a and b in z-order", len(got))
		}
	})

	t.Run("negative extent normalized", func(t *testing.T) {
		got := s.RectHit(Rect{X: 200, Y: 150, Width: -200, Height: -150}, HitCenter)
		if len(got) != 1 || got[0].ID != blocks[0].ID {
			t.Errorf("got %d blocks", len(got))
		}
	})

	t.Run("hidden skipped", func(t *testing.T) {
		hs, hb := newHitStore()
		hidden := true
		hs.Update(hb[1].ID, BlockPatch{Hidden: &hidden})
		everything := Rect{X: -100, Y: -100, Width: 2000, Height: 2000}
		for _, mode := range []HitMode{HitCenter, HitOverlap} {
			got := hs.RectHit(everything, mode)
			if len(got) != 2 || got[0].ID != hb[0].ID || got[1].ID != hb[2].ID {
				t.Errorf("mode %d: got %d blocks, want a and c", mode, len(got))
			}
		}
	})

	t.Run("deterministic", func(t *testing.T) {
		r := Rect{X: -100, Y: -100, Width: 2000, Height: 2000}
		first := s.RectHit(r, HitCenter)
		for i := 0; i < 5; i++ {
			again := s.RectHit(r, HitCenter)
			if len(again) != len(first) {
				t.Fatalf("run %d: %d blocks, want %d", i, len(again), len(first))
			}
			for j := range first {
				if again[j].ID != first[j].ID {
					t.Fatalf("run %d: order differs at %d", i, j)
				}
			}
		}
	})
}

func TestResizeHandleHit(t *testing.T) {
	s, blocks := newHitStore()

	t.Run("corner at zoom 1", func(t *testing.T) {
		got, ok := s.ResizeHandleHit(Vec2{1145, 1095}, 1)
		if !ok || got.ID != blocks[2].ID {
			t.Errorf("got %q,%v", got.ID, ok)
		}
	})

	t.Run("outside handle", func(t *testing.T) {
		if _, ok := s.ResizeHandleHit(Vec2{1100, 1050}, 1); ok {
			t.Error("body should not count as handle")
		}
	})

	t.Run("handle grows when zoomed out", func(t *testing.T) {
		// At zoom 0.5 the handle spans 24 world units.
		if _, ok := s.ResizeHandleHit(Vec2{1130, 1080}, 0.5); !ok {
			t.Error("expected hit at zoom 0.5")
		}
		if _, ok := s.ResizeHandleHit(Vec2{1130, 1080}, 1); ok {
			t.Error("unexpected hit at zoom 1")
		}
	})

	t.Run("occluded handle", func(t *testing.T) {
		// a's handle at (295,195) lies under b.
		if _, ok := s.ResizeHandleHit(Vec2{295, 195}, 1); ok {
			t.Error("handle under another block should not hit")
		}
	})
}
