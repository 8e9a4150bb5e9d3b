package canopy

import (
	"math"

	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// Zoom limits and defaults.
const (
	MinZoom  = 0.1
	MaxZoom  = 3.0
	ZoomStep = 0.1

	// DefaultFitPadding is the world-space margin FitToContent leaves around
	// the content bounds.
	DefaultFitPadding = 50.0
)

// viewAnim holds active tweens for zoom and pan.
type viewAnim struct {
	zoom, panX, panY *gween.Tween
	doneZoom         bool
	donePanX         bool
	donePanY         bool
}

// Viewport maps between screen pixels and world units:
//
//	world  = (screen - pan) / zoom
//	screen = world*zoom + pan
//
// The zero value is not usable; create one with NewViewport.
type Viewport struct {
	zoom float64
	pan  Vec2
	// size is the screen-space extent of the viewport in pixels.
	size Vec2

	// FitPadding is the world-space margin used by FitToContent.
	FitPadding float64

	viewMatrix    [6]float64
	invViewMatrix [6]float64
	dirty         bool

	anim *viewAnim
}

// NewViewport creates a viewport at zoom 1, pan (0,0) for a screen of the
// given size.
func NewViewport(width, height float64) *Viewport {
	return &Viewport{
		zoom:       1,
		size:       Vec2{width, height},
		FitPadding: DefaultFitPadding,
		dirty:      true,
	}
}

// Zoom returns the current zoom factor.
func (v *Viewport) Zoom() float64 { return v.zoom }

// Pan returns the current pan offset in screen pixels.
func (v *Viewport) Pan() Vec2 { return v.pan }

// Size returns the screen size of the viewport.
func (v *Viewport) Size() Vec2 { return v.size }

// SetSize updates the screen size, typically from a window layout callback.
func (v *Viewport) SetSize(width, height float64) {
	v.size = Vec2{width, height}
}

// SetZoom sets the zoom factor, clamped to [MinZoom, MaxZoom].
func (v *Viewport) SetZoom(z float64) {
	v.anim = nil
	v.setZoom(z)
}

func (v *Viewport) setZoom(z float64) {
	if math.IsNaN(z) {
		return
	}
	z = math.Max(MinZoom, math.Min(MaxZoom, z))
	if z != v.zoom {
		v.zoom = z
		v.dirty = true
	}
}

// ZoomBy adds delta to the zoom factor. The result is rounded to two
// decimals so repeated steps land on exact tenths, then clamped.
func (v *Viewport) ZoomBy(delta float64) {
	v.SetZoom(math.Round((v.zoom+delta)*100) / 100)
}

// ZoomAt sets the zoom factor while keeping the world point under the
// given screen point fixed.
func (v *Viewport) ZoomAt(screen Vec2, z float64) {
	anchor := v.ToWorld(screen)
	v.SetZoom(z)
	v.setPan(screen.Sub(anchor.Scale(v.zoom)))
}

// SetPan sets the pan offset in screen pixels.
func (v *Viewport) SetPan(p Vec2) {
	v.anim = nil
	v.setPan(p)
}

func (v *Viewport) setPan(p Vec2) {
	if math.IsNaN(p.X) || math.IsNaN(p.Y) {
		return
	}
	if p != v.pan {
		v.pan = p
		v.dirty = true
	}
}

// Reset restores zoom 1 and pan (0,0).
func (v *Viewport) Reset() {
	v.anim = nil
	v.setZoom(1)
	v.setPan(Vec2{})
}

// FitToContent frames every non-hidden block: the zoom becomes the largest
// value not above 1 that fits the padded content bounds into the viewport,
// and the pan centers them. With nothing visible it behaves like Reset.
func (v *Viewport) FitToContent(blocks []Block) {
	zoom, pan, ok := v.fitTarget(blocks)
	if !ok {
		v.Reset()
		return
	}
	v.anim = nil
	v.setZoom(zoom)
	v.setPan(pan)
}

// AnimateFit tweens toward the FitToContent result over duration seconds.
func (v *Viewport) AnimateFit(blocks []Block, duration float32, easeFn ease.TweenFunc) {
	zoom, pan, ok := v.fitTarget(blocks)
	if !ok {
		zoom, pan = 1, Vec2{}
	}
	v.AnimateTo(zoom, pan, duration, easeFn)
}

// AnimateTo tweens zoom and pan to the given values over duration seconds.
// The tween advances in Update; any explicit SetZoom, SetPan or Reset
// cancels it.
func (v *Viewport) AnimateTo(zoom float64, pan Vec2, duration float32, easeFn ease.TweenFunc) {
	zoom = math.Max(MinZoom, math.Min(MaxZoom, zoom))
	if easeFn == nil {
		easeFn = ease.OutQuad
	}
	if duration <= 0 {
		v.anim = nil
		v.setZoom(zoom)
		v.setPan(pan)
		return
	}
	v.anim = &viewAnim{
		zoom: gween.New(float32(v.zoom), float32(zoom), duration, easeFn),
		panX: gween.New(float32(v.pan.X), float32(pan.X), duration, easeFn),
		panY: gween.New(float32(v.pan.Y), float32(pan.Y), duration, easeFn),
	}
}

// Animating reports whether a tween is in progress.
func (v *Viewport) Animating() bool {
	return v.anim != nil
}

// Update advances an active tween by dt seconds.
func (v *Viewport) Update(dt float32) {
	a := v.anim
	if a == nil {
		return
	}
	if !a.doneZoom {
		val, done := a.zoom.Update(dt)
		v.setZoom(float64(val))
		a.doneZoom = done
	}
	pan := v.pan
	if !a.donePanX {
		val, done := a.panX.Update(dt)
		pan.X = float64(val)
		a.donePanX = done
	}
	if !a.donePanY {
		val, done := a.panY.Update(dt)
		pan.Y = float64(val)
		a.donePanY = done
	}
	v.setPan(pan)
	if a.doneZoom && a.donePanX && a.donePanY {
		v.anim = nil
	}
}

// fitTarget computes the zoom and pan that frame the visible blocks.
func (v *Viewport) fitTarget(blocks []Block) (float64, Vec2, bool) {
	var bounds Rect
	found := false
	for i := range blocks {
		if blocks[i].Hidden {
			continue
		}
		if !found {
			bounds = blocks[i].Bounds()
			found = true
			continue
		}
		bounds = bounds.Union(blocks[i].Bounds())
	}
	if !found {
		return 0, Vec2{}, false
	}

	padded := bounds.Inset(v.FitPadding)
	zoom := 1.0
	if v.size.X > 0 && v.size.Y > 0 && padded.Width > 0 && padded.Height > 0 {
		zoom = math.Min(zoom, math.Min(v.size.X/padded.Width, v.size.Y/padded.Height))
	}
	zoom = math.Max(MinZoom, zoom)

	screenCenter := v.size.Scale(0.5)
	pan := screenCenter.Sub(padded.Center().Scale(zoom))
	return zoom, pan, true
}

// computeViewMatrix recomputes the cached view matrix if dirty.
//
//	| zoom   0   panX |
//	|  0   zoom  panY |
func (v *Viewport) computeViewMatrix() {
	if !v.dirty {
		return
	}
	v.dirty = false
	v.viewMatrix = [6]float64{v.zoom, 0, 0, v.zoom, v.pan.X, v.pan.Y}
	v.invViewMatrix = invertAffine(v.viewMatrix)
}

// ToScreen converts a world point to screen coordinates.
func (v *Viewport) ToScreen(world Vec2) Vec2 {
	v.computeViewMatrix()
	x, y := transformPoint(v.viewMatrix, world.X, world.Y)
	return Vec2{x, y}
}

// ToWorld converts a screen point to world coordinates.
func (v *Viewport) ToWorld(screen Vec2) Vec2 {
	v.computeViewMatrix()
	x, y := transformPoint(v.invViewMatrix, screen.X, screen.Y)
	return Vec2{x, y}
}

// WorldRectToScreen converts a world rectangle to screen space.
func (v *Viewport) WorldRectToScreen(r Rect) Rect {
	p := v.ToScreen(Vec2{r.X, r.Y})
	return Rect{X: p.X, Y: p.Y, Width: r.Width * v.zoom, Height: r.Height * v.zoom}
}

// VisibleBounds returns the world-space rectangle covered by the viewport.
func (v *Viewport) VisibleBounds() Rect {
	tl := v.ToWorld(Vec2{})
	br := v.ToWorld(v.size)
	return RectFromPoints(tl, br)
}

// transformPoint applies an affine matrix [a, b, c, d, tx, ty] to (x, y).
func transformPoint(m [6]float64, x, y float64) (float64, float64) {
	return m[0]*x + m[2]*y + m[4], m[1]*x + m[3]*y + m[5]
}

// invertAffine inverts a 2D affine matrix. A singular matrix yields identity.
func invertAffine(m [6]float64) [6]float64 {
	a, b, c, d, tx, ty := m[0], m[1], m[2], m[3], m[4], m[5]
	det := a*d - b*c
	if det == 0 {
		return [6]float64{1, 0, 0, 1, 0, 0}
	}
	inv := 1 / det
	return [6]float64{
		d * inv,
		-b * inv,
		-c * inv,
		a * inv,
		(c*ty - d*tx) * inv,
		(b*tx - a*ty) * inv,
	}
}
