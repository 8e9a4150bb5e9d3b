package canopy

import (
	"math"
	"testing"

	"github.com/tanema/gween/ease"
)

const epsilon = 1e-6

func approxEqual(a, b, eps float64) bool {
	return math.Abs(a-b) < eps
}

func TestViewportDefaults(t *testing.T) {
	v := NewViewport(800, 600)
	if v.Zoom() != 1 {
		t.Errorf("Zoom = %f, want 1", v.Zoom())
	}
	if v.Pan() != (Vec2{}) {
		t.Errorf("Pan = %v, want origin", v.Pan())
	}
	if v.FitPadding != DefaultFitPadding {
		t.Errorf("FitPadding = %f, want %f", v.FitPadding, DefaultFitPadding)
	}
}

func TestViewportRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		zoom float64
		pan  Vec2
	}{
		{"identity", 1, Vec2{}},
		{"zoomed in", 2.5, Vec2{120, -40}},
		{"zoomed out", 0.1, Vec2{-3000, 900}},
		{"fractional", 0.37, Vec2{13.5, 77.25}},
	}
	points := []Vec2{{0, 0}, {400, 300}, {-250, 1200}, {1e4, -1e4}}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewViewport(800, 600)
			v.SetZoom(tt.zoom)
			v.SetPan(tt.pan)
			for _, p := range points {
				got := v.ToScreen(v.ToWorld(p))
				if !approxEqual(got.X, p.X, epsilon) || !approxEqual(got.Y, p.Y, epsilon) {
					t.Errorf("ToScreen(ToWorld(%v)) = %v", p, got)
				}
			}
		})
	}
}

func TestViewportToWorld(t *testing.T) {
	v := NewViewport(800, 600)
	v.SetZoom(2)
	v.SetPan(Vec2{100, 50})
	w := v.ToWorld(Vec2{300, 250})
	if !approxEqual(w.X, 100, epsilon) || !approxEqual(w.Y, 100, epsilon) {
		t.Errorf("ToWorld = %v, want (100,100)", w)
	}
}

func TestViewportZoomClamp(t *testing.T) {
	v := NewViewport(800, 600)
	v.SetZoom(10)
	if v.Zoom() != MaxZoom {
		t.Errorf("Zoom = %f, want %f", v.Zoom(), MaxZoom)
	}
	v.SetZoom(0.001)
	if v.Zoom() != MinZoom {
		t.Errorf("Zoom = %f, want %f", v.Zoom(), MinZoom)
	}
	v.SetZoom(math.NaN())
	if v.Zoom() != MinZoom {
		t.Errorf("NaN zoom changed value to %f", v.Zoom())
	}
}

func TestViewportZoomByStepsExactly(t *testing.T) {
	v := NewViewport(800, 600)
	for i := 0; i < 5; i++ {
		v.ZoomBy(ZoomStep)
	}
	if v.Zoom() != 1.5 {
		t.Errorf("Zoom = %v, want exactly 1.5", v.Zoom())
	}
	for i := 0; i < 30; i++ {
		v.ZoomBy(ZoomStep)
	}
	if v.Zoom() != MaxZoom {
		t.Errorf("Zoom = %v, want %v", v.Zoom(), MaxZoom)
	}
	for i := 0; i < 40; i++ {
		v.ZoomBy(-ZoomStep)
	}
	if v.Zoom() != MinZoom {
		t.Errorf("Zoom = %v, want %v", v.Zoom(), MinZoom)
	}
}

func TestViewportZoomAtKeepsAnchor(t *testing.T) {
	v := NewViewport(800, 600)
	v.SetPan(Vec2{30, 40})
	anchor := Vec2{400, 300}
	before := v.ToWorld(anchor)
	v.ZoomAt(anchor, 2)
	after := v.ToWorld(anchor)
	if !approxEqual(before.X, after.X, epsilon) || !approxEqual(before.Y, after.Y, epsilon) {
		t.Errorf("anchor moved from %v to %v", before, after)
	}
}

func TestViewportReset(t *testing.T) {
	v := NewViewport(800, 600)
	v.SetZoom(2)
	v.SetPan(Vec2{10, 10})
	v.Reset()
	if v.Zoom() != 1 || v.Pan() != (Vec2{}) {
		t.Errorf("after Reset: zoom %f pan %v", v.Zoom(), v.Pan())
	}
}

func TestViewportFitToContent(t *testing.T) {
	t.Run("large content zooms out", func(t *testing.T) {
		v := NewViewport(800, 600)
		blocks := []Block{
			{Position: Vec2{0, 0}, Size: Vec2{300, 200}},
			{Position: Vec2{2000, 1000}, Size: Vec2{300, 200}},
		}
		v.FitToContent(blocks)
		// padded bounds: -50..2350 x -50..1250 → 2400 x 1300
		want := math.Min(800.0/2400, 600.0/1300)
		if !approxEqual(v.Zoom(), want, epsilon) {
			t.Errorf("Zoom = %f, want %f", v.Zoom(), want)
		}
		c := v.ToScreen(Vec2{1150, 600})
		if !approxEqual(c.X, 400, epsilon) || !approxEqual(c.Y, 300, epsilon) {
			t.Errorf("content center maps to %v, want screen center", c)
		}
	})

	t.Run("small content never zooms in", func(t *testing.T) {
		v := NewViewport(800, 600)
		v.SetZoom(0.5)
		v.FitToContent([]Block{{Position: Vec2{10, 10}, Size: Vec2{150, 100}}})
		if v.Zoom() != 1 {
			t.Errorf("Zoom = %f, want 1", v.Zoom())
		}
	})

	t.Run("hidden blocks ignored", func(t *testing.T) {
		v := NewViewport(800, 600)
		v.FitToContent([]Block{
			{Position: Vec2{0, 0}, Size: Vec2{150, 100}},
			{Position: Vec2{90000, 0}, Size: Vec2{150, 100}, Hidden: true},
		})
		if v.Zoom() != 1 {
			t.Errorf("Zoom = %f, want 1", v.Zoom())
		}
	})

	t.Run("empty resets", func(t *testing.T) {
		v := NewViewport(800, 600)
		v.SetZoom(2)
		v.SetPan(Vec2{5, 5})
		v.FitToContent(nil)
		if v.Zoom() != 1 || v.Pan() != (Vec2{}) {
			t.Errorf("zoom %f pan %v, want reset", v.Zoom(), v.Pan())
		}
	})
}

func TestViewportAnimateTo(t *testing.T) {
	v := NewViewport(800, 600)
	v.AnimateTo(2, Vec2{100, 0}, 1, ease.Linear)
	if !v.Animating() {
		t.Fatal("expected animation to be active")
	}
	v.Update(0.5)
	if !approxEqual(v.Zoom(), 1.5, 1e-4) {
		t.Errorf("midway zoom = %f, want 1.5", v.Zoom())
	}
	v.Update(0.6)
	if v.Animating() {
		t.Error("animation should have finished")
	}
	if !approxEqual(v.Zoom(), 2, 1e-4) || !approxEqual(v.Pan().X, 100, 1e-3) {
		t.Errorf("final zoom %f pan %v", v.Zoom(), v.Pan())
	}
}

func TestViewportSetPanCancelsAnimation(t *testing.T) {
	v := NewViewport(800, 600)
	v.AnimateTo(2, Vec2{}, 1, nil)
	v.SetPan(Vec2{1, 1})
	if v.Animating() {
		t.Error("SetPan should cancel animation")
	}
}

func TestViewportVisibleBounds(t *testing.T) {
	v := NewViewport(800, 600)
	v.SetZoom(2)
	v.SetPan(Vec2{-200, -100})
	r := v.VisibleBounds()
	if !approxEqual(r.X, 100, epsilon) || !approxEqual(r.Y, 50, epsilon) ||
		!approxEqual(r.Width, 400, epsilon) || !approxEqual(r.Height, 300, epsilon) {
		t.Errorf("VisibleBounds = %+v", r)
	}
}
