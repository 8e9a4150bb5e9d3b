package canopy

import "fmt"

// Mode names the interaction state machine's current state.
type Mode uint8

const (
	ModeIdle     Mode = iota // no interaction in progress
	ModePanning              // dragging the viewport
	ModeMarquee              // rubber-band selecting
	ModeDragging             // moving the grabbed block
	ModeResizing             // resizing via the bottom-right handle
	ModePlacing              // waiting for a pointer-down to place a new block
)

// String returns a lowercase name for logs and wire formats.
func (m Mode) String() string {
	switch m {
	case ModeIdle:
		return "idle"
	case ModePanning:
		return "panning"
	case ModeMarquee:
		return "marquee"
	case ModeDragging:
		return "dragging"
	case ModeResizing:
		return "resizing"
	case ModePlacing:
		return "placing"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(text []byte) error {
	for candidate := ModeIdle; candidate <= ModePlacing; candidate++ {
		if candidate.String() == string(text) {
			*m = candidate
			return nil
		}
	}
	return fmt.Errorf("canopy: unknown mode %q", text)
}

// PointerEvent is a pointer sample in screen coordinates.
type PointerEvent struct {
	Screen    Vec2
	Button    MouseButton
	Modifiers KeyModifiers
}

// PointerCapture is the host's document-wide pointer listener set. The
// canvas acquires it when leaving ModeIdle and releases it on the way back,
// so it is held exactly while an interaction is open.
type PointerCapture interface {
	Acquire()
	Release()
}

// interaction is the tagged union of per-mode state. Anchors live only in
// the variant for the mode that uses them.
type interaction interface {
	mode() Mode
}

type idleState struct{}

// panState.anchor is the pointer minus the pan at press time, in screen pixels.
type panState struct {
	anchor Vec2
}

// marqueeState corners are in world units.
type marqueeState struct {
	anchor  Vec2
	current Vec2
}

// dragState.anchor is the pointer offset from the block's top-left corner.
type dragState struct {
	id     BlockID
	anchor Vec2
}

type resizeState struct {
	id          BlockID
	anchorPoint Vec2
	anchorSize  Vec2
}

type placeState struct {
	kind Kind
}

func (idleState) mode() Mode    { return ModeIdle }
func (panState) mode() Mode     { return ModePanning }
func (marqueeState) mode() Mode { return ModeMarquee }
func (dragState) mode() Mode    { return ModeDragging }
func (resizeState) mode() Mode  { return ModeResizing }
func (placeState) mode() Mode   { return ModePlacing }

// Mode returns the current interaction mode.
func (c *Canvas) Mode() Mode {
	return c.state.mode()
}

// PlacingKind returns the pending placement kind while in ModePlacing.
func (c *Canvas) PlacingKind() (Kind, bool) {
	if st, ok := c.state.(placeState); ok {
		return st.kind, true
	}
	return "", false
}

// Marquee returns the world-space marquee rectangle while in ModeMarquee.
func (c *Canvas) Marquee() (Rect, bool) {
	if st, ok := c.state.(marqueeState); ok {
		return RectFromPoints(st.anchor, st.current), true
	}
	return Rect{}, false
}

// ActiveBlock returns the block being dragged or resized.
func (c *Canvas) ActiveBlock() (BlockID, bool) {
	switch st := c.state.(type) {
	case dragState:
		return st.id, true
	case resizeState:
		return st.id, true
	}
	return "", false
}

// RequestPlacement arms ModePlacing: the next pointer-down creates a block
// of kind there. Ignored when the canvas is read-only or kind is unknown.
func (c *Canvas) RequestPlacement(kind Kind) {
	defer c.guard()
	if !c.editable || !kind.Valid() {
		return
	}
	c.transition(placeState{kind: kind})
}

// PointerDown starts an interaction. Evaluated in order: pending placement,
// resize handle, block hit (toggle, select, drag), then empty space (pan or
// marquee).
func (c *Canvas) PointerDown(ev PointerEvent) {
	defer c.guard()
	world := c.viewport.ToWorld(ev.Screen)

	switch st := c.state.(type) {
	case placeState:
		b := c.store.Create(st.kind, world)
		c.selection.Set(b.ID)
		c.logger.Debug("placed block", "id", b.ID, "kind", b.Kind, "x", b.Position.X, "y", b.Position.Y)
		c.transition(idleState{})
		return
	case idleState:
	default:
		// A press while another interaction is open means the release was
		// lost. Close the stale interaction first.
		c.transition(idleState{})
	}

	if ev.Button == MouseButtonRight {
		return
	}
	multi := ev.Modifiers.Has(c.multiSelectMod)

	if ev.Button == MouseButtonMiddle {
		c.beginPan(ev)
		return
	}

	if c.editable && !multi {
		if b, ok := c.store.ResizeHandleHit(world, c.viewport.Zoom()); ok && !b.Locked {
			if !c.selection.Has(b.ID) {
				c.selection.Set(b.ID)
			}
			c.transition(resizeState{id: b.ID, anchorPoint: world, anchorSize: b.Size})
			return
		}
	}

	if b, ok := c.store.PointHit(world); ok {
		if multi {
			c.selection.Toggle(b.ID)
			return
		}
		if !c.selection.Has(b.ID) {
			c.selection.Set(b.ID)
		}
		if !b.Locked && c.editable {
			c.transition(dragState{id: b.ID, anchor: world.Sub(b.Position)})
		}
		return
	}

	if multi {
		c.beginPan(ev)
		return
	}
	c.selection.Clear()
	c.transition(marqueeState{anchor: world, current: world})
}

func (c *Canvas) beginPan(ev PointerEvent) {
	c.selection.Clear()
	c.transition(panState{anchor: ev.Screen.Sub(c.viewport.Pan())})
}

// PointerMove advances the open interaction. In ModeIdle and ModePlacing it
// is a no-op.
func (c *Canvas) PointerMove(ev PointerEvent) {
	defer c.guard()

	switch st := c.state.(type) {
	case panState:
		c.viewport.SetPan(ev.Screen.Sub(st.anchor))

	case marqueeState:
		st.current = c.viewport.ToWorld(ev.Screen)
		c.state = st
		hits := c.store.RectHit(RectFromPoints(st.anchor, st.current), HitCenter)
		ids := make([]BlockID, len(hits))
		for i := range hits {
			ids[i] = hits[i].ID
		}
		c.selection.Set(ids...)

	case dragState:
		pos := c.viewport.ToWorld(ev.Screen).Sub(st.anchor)
		c.store.Update(st.id, BlockPatch{Position: &pos})

	case resizeState:
		delta := c.viewport.ToWorld(ev.Screen).Sub(st.anchorPoint)
		size := clampSize(st.anchorSize.Add(delta))
		c.store.Update(st.id, BlockPatch{Size: &size})
	}
}

// PointerUp ends the open interaction. Every mutation already happened on
// move, so release only discards the interaction state.
func (c *Canvas) PointerUp(PointerEvent) {
	defer c.guard()
	switch c.state.(type) {
	case idleState, placeState:
		return
	}
	c.transition(idleState{})
}

// DoubleClick on empty space creates a note centered on the pointer and
// selects it. Only honored while idle and editable.
func (c *Canvas) DoubleClick(ev PointerEvent) {
	defer c.guard()
	if !c.editable || c.state.mode() != ModeIdle {
		return
	}
	world := c.viewport.ToWorld(ev.Screen)
	if _, hit := c.store.PointHit(world); hit {
		return
	}
	b := c.store.Create(KindNote, world.Sub(c.doubleClickOffset))
	c.selection.Set(b.ID)
}

// Cancel aborts the open interaction and returns to ModeIdle. Moves already
// applied are kept.
func (c *Canvas) Cancel() {
	defer c.guard()
	if c.state.mode() == ModeIdle {
		return
	}
	c.transition(idleState{})
}

// transition is the only place the mode changes. Pointer capture is
// acquired when leaving idle and released when returning to it.
func (c *Canvas) transition(next interaction) {
	prev := c.state
	c.state = next

	wasIdle := prev.mode() == ModeIdle
	isIdle := next.mode() == ModeIdle
	if prev.mode() != next.mode() {
		c.logger.Debug("mode", "from", prev.mode(), "to", next.mode())
	}
	if c.capture == nil {
		return
	}
	switch {
	case wasIdle && !isIdle:
		c.capture.Acquire()
	case !wasIdle && isIdle:
		c.capture.Release()
	}
}

// guard keeps handler failures from escaping: any panic is logged and the
// machine is forced back to idle, releasing capture.
func (c *Canvas) guard() {
	if r := recover(); r != nil {
		c.logger.Error("interaction handler failed", "mode", c.state.mode(), "panic", r)
		if c.state.mode() != ModeIdle {
			c.transition(idleState{})
		}
	}
}
