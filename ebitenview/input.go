package ebitenview

import (
	"math"
	"strings"
	"time"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/phanxgames/canopy"
)

// Double-click detection thresholds.
const (
	DoubleClickInterval = 400 * time.Millisecond
	DoubleClickSlop     = 4.0
)

// WheelZoomStep is the zoom factor applied per wheel notch.
const WheelZoomStep = 1.1

// readModifiers reads the current keyboard modifier state.
func readModifiers() canopy.KeyModifiers {
	var mods canopy.KeyModifiers
	if ebiten.IsKeyPressed(ebiten.KeyShift) || ebiten.IsKeyPressed(ebiten.KeyShiftLeft) || ebiten.IsKeyPressed(ebiten.KeyShiftRight) {
		mods |= canopy.ModShift
	}
	if ebiten.IsKeyPressed(ebiten.KeyControl) || ebiten.IsKeyPressed(ebiten.KeyControlLeft) || ebiten.IsKeyPressed(ebiten.KeyControlRight) {
		mods |= canopy.ModCtrl
	}
	if ebiten.IsKeyPressed(ebiten.KeyAlt) || ebiten.IsKeyPressed(ebiten.KeyAltLeft) || ebiten.IsKeyPressed(ebiten.KeyAltRight) {
		mods |= canopy.ModAlt
	}
	if ebiten.IsKeyPressed(ebiten.KeyMeta) || ebiten.IsKeyPressed(ebiten.KeyMetaLeft) || ebiten.IsKeyPressed(ebiten.KeyMetaRight) {
		mods |= canopy.ModMeta
	}
	return mods
}

// readPointer samples the mouse.
func readPointer(mods canopy.KeyModifiers, now time.Time) pointerSample {
	mx, my := ebiten.CursorPosition()
	return pointerSample{
		X:      float64(mx),
		Y:      float64(my),
		Left:   ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft),
		Right:  ebiten.IsMouseButtonPressed(ebiten.MouseButtonRight),
		Middle: ebiten.IsMouseButtonPressed(ebiten.MouseButtonMiddle),
		Mods:   mods,
		Now:    now,
	}
}

// keyName maps an ebiten key to the dispatcher's key vocabulary.
func keyName(k ebiten.Key) (canopy.Key, bool) {
	name := k.String()
	switch {
	case len(name) == 1 && name[0] >= 'A' && name[0] <= 'Z':
		return canopy.Key(name), true
	case len(name) == 6 && strings.HasPrefix(name, "Digit"):
		return canopy.Key(name[5:]), true
	}
	switch k {
	case ebiten.KeyEqual, ebiten.KeyNumpadAdd:
		return "=", true
	case ebiten.KeyMinus, ebiten.KeyNumpadSubtract:
		return "-", true
	case ebiten.KeyEscape:
		return canopy.KeyEscape, true
	case ebiten.KeyDelete:
		return canopy.KeyDelete, true
	case ebiten.KeyBackspace:
		return canopy.KeyBackspace, true
	case ebiten.KeyEnter, ebiten.KeyNumpadEnter:
		return canopy.KeyEnter, true
	case ebiten.KeyTab:
		return canopy.KeyTab, true
	case ebiten.KeySpace:
		return canopy.KeySpace, true
	case ebiten.KeyArrowUp:
		return canopy.KeyUp, true
	case ebiten.KeyArrowDown:
		return canopy.KeyDown, true
	case ebiten.KeyArrowLeft:
		return canopy.KeyLeft, true
	case ebiten.KeyArrowRight:
		return canopy.KeyRight, true
	}
	return "", false
}

// pointerSample is one frame of mouse state in screen coordinates.
type pointerSample struct {
	X, Y                float64
	Left, Right, Middle bool
	Mods                canopy.KeyModifiers
	Now                 time.Time
}

func (s pointerSample) pressed() bool { return s.Left || s.Right || s.Middle }

func (s pointerSample) button() canopy.MouseButton {
	switch {
	case s.Left:
		return canopy.MouseButtonLeft
	case s.Right:
		return canopy.MouseButtonRight
	default:
		return canopy.MouseButtonMiddle
	}
}

// pointerTracker turns polled mouse state into press, move, release and
// double-click edges.
type pointerTracker struct {
	down   bool
	button canopy.MouseButton
	last   canopy.Vec2

	lastClick    time.Time
	lastClickPos canopy.Vec2
}

func (t *pointerTracker) feed(c *canopy.Canvas, s pointerSample) {
	pos := canopy.Vec2{X: s.X, Y: s.Y}
	moved := pos != t.last
	t.last = pos

	switch {
	case s.pressed() && !t.down:
		// Keep the button for the whole gesture.
		t.down = true
		t.button = s.button()
		c.PointerDown(canopy.PointerEvent{Screen: pos, Button: t.button, Modifiers: s.Mods})
	case s.pressed() && t.down:
		if moved {
			c.PointerMove(canopy.PointerEvent{Screen: pos, Button: t.button, Modifiers: s.Mods})
		}
	case !s.pressed() && t.down:
		t.down = false
		ev := canopy.PointerEvent{Screen: pos, Button: t.button, Modifiers: s.Mods}
		c.PointerUp(ev)
		if t.button != canopy.MouseButtonLeft {
			return
		}
		if !t.lastClick.IsZero() && s.Now.Sub(t.lastClick) <= DoubleClickInterval &&
			math.Hypot(pos.X-t.lastClickPos.X, pos.Y-t.lastClickPos.Y) <= DoubleClickSlop {
			t.lastClick = time.Time{}
			c.DoubleClick(ev)
			return
		}
		t.lastClick = s.Now
		t.lastClickPos = pos
	}
}

// wheelZoom zooms about the cursor by WheelZoomStep per notch.
func wheelZoom(c *canopy.Canvas, at canopy.Vec2, dy float64) {
	if dy == 0 {
		return
	}
	vp := c.Viewport()
	vp.ZoomAt(at, vp.Zoom()*math.Pow(WheelZoomStep, dy))
}
