package canopy

type syntheticKind uint8

const (
	synthPress syntheticKind = iota
	synthMove
	synthRelease
	synthDoubleClick
	synthKey
)

// syntheticEvent is a single injected input event. Pointer positions are
// screen coordinates, converted to world through the viewport exactly like
// real input.
type syntheticEvent struct {
	kind    syntheticKind
	pointer PointerEvent
	key     KeyEvent
}

// InjectPointer queues a pointer event of the given phase ("press", "move",
// "release" or "dblclick"). Unknown phases are ignored.
func (c *Canvas) InjectPointer(phase string, ev PointerEvent) {
	var k syntheticKind
	switch phase {
	case "press":
		k = synthPress
	case "move":
		k = synthMove
	case "release":
		k = synthRelease
	case "dblclick":
		k = synthDoubleClick
	default:
		return
	}
	c.injectQueue = append(c.injectQueue, syntheticEvent{kind: k, pointer: ev})
}

// InjectPress queues a left-button press at the given screen coordinates.
// Events are consumed one per Update.
func (c *Canvas) InjectPress(x, y float64, mods KeyModifiers) {
	c.InjectPointer("press", PointerEvent{Screen: Vec2{x, y}, Modifiers: mods})
}

// InjectMove queues a pointer move with the button held.
func (c *Canvas) InjectMove(x, y float64) {
	c.InjectPointer("move", PointerEvent{Screen: Vec2{x, y}})
}

// InjectRelease queues a pointer release.
func (c *Canvas) InjectRelease(x, y float64) {
	c.InjectPointer("release", PointerEvent{Screen: Vec2{x, y}})
}

// InjectClick queues a press and a release at the same point. Consumes two
// frames.
func (c *Canvas) InjectClick(x, y float64, mods KeyModifiers) {
	c.InjectPress(x, y, mods)
	c.InjectRelease(x, y)
}

// InjectDoubleClick queues a double-click at the given screen coordinates.
func (c *Canvas) InjectDoubleClick(x, y float64) {
	c.InjectPointer("dblclick", PointerEvent{Screen: Vec2{x, y}})
}

// InjectDrag queues a press at from, frames-2 linearly interpolated moves
// ending exactly at to, and a release there. The sequence consumes frames
// frames; the minimum is three (press, move, release).
func (c *Canvas) InjectDrag(from, to Vec2, frames int, mods KeyModifiers) {
	if frames < 3 {
		frames = 3
	}
	c.InjectPress(from.X, from.Y, mods)
	steps := frames - 2
	for i := 1; i <= steps; i++ {
		t := float64(i) / float64(steps)
		c.InjectMove(from.X+(to.X-from.X)*t, from.Y+(to.Y-from.Y)*t)
	}
	c.InjectRelease(to.X, to.Y)
}

// InjectKey queues a key event.
func (c *Canvas) InjectKey(ev KeyEvent) {
	c.injectQueue = append(c.injectQueue, syntheticEvent{kind: synthKey, key: ev})
}

// Pending returns the number of queued synthetic events.
func (c *Canvas) Pending() int {
	return len(c.injectQueue)
}

// processInjectedInput pops one event from the queue and feeds it through
// the regular handlers. It reports whether an event was consumed.
func (c *Canvas) processInjectedInput() bool {
	if len(c.injectQueue) == 0 {
		return false
	}
	ev := c.injectQueue[0]
	copy(c.injectQueue, c.injectQueue[1:])
	c.injectQueue = c.injectQueue[:len(c.injectQueue)-1]

	switch ev.kind {
	case synthPress:
		c.PointerDown(ev.pointer)
	case synthMove:
		c.PointerMove(ev.pointer)
	case synthRelease:
		c.PointerUp(ev.pointer)
	case synthDoubleClick:
		c.DoubleClick(ev.pointer)
	case synthKey:
		c.HandleKey(ev.key)
	}
	return true
}
