// Package canopy is the spatial interaction engine behind an infinite
// whiteboard: positioned, resizable content blocks on a pannable, zoomable
// canvas, with selection, drag, resize, marquee and batch operations.
//
// The engine is pure state. It draws nothing and starts no goroutines;
// hosts feed it pointer and key events and call [Canvas.Update] once per
// frame. The ebitenview package renders a canvas with Ebitengine, and the
// server package exposes one over HTTP and websockets.
//
// # Quick start
//
//	c := canopy.New()
//	note, _ := c.AddBlock(canopy.KindNote, &canopy.Vec2{X: 100, Y: 100})
//
//	// Drag it by 50px.
//	c.PointerDown(canopy.PointerEvent{Screen: canopy.Vec2{X: 110, Y: 110}})
//	c.PointerMove(canopy.PointerEvent{Screen: canopy.Vec2{X: 160, Y: 110}})
//	c.PointerUp(canopy.PointerEvent{Screen: canopy.Vec2{X: 160, Y: 110}})
//
//	c.HandleKey(canopy.KeyEvent{Key: "D", Modifiers: canopy.PlatformPrimary()})
//
// # Coordinates
//
// Blocks live in world units. The [Viewport] maps them to screen pixels:
//
//	screen = world*zoom + pan
//
// Zoom is clamped to [MinZoom, MaxZoom]. Pointer events carry screen
// coordinates and are converted through the viewport.
//
// # Blocks and z-order
//
// The [Store] keeps blocks in paint order; the last block is topmost and
// wins hit tests. Sizes never go below [MinBlockWidth] x [MinBlockHeight].
// Locked blocks ignore position and size changes. Hidden blocks are neither
// drawn nor hit-tested. Every mutation is published to [Observer]s, which
// is how persistence (package persist), network fan-out and the ECS bridge
// follow the canvas.
//
// # Interaction
//
// A single mode value drives pointer handling: idle, panning, marquee,
// dragging, resizing or placing. Leaving idle acquires the host's
// [PointerCapture] and returning to idle releases it, on every path
// including [Canvas.Cancel] and Escape.
//
// Pointer-down on a block selects it and starts a drag; with the
// multi-select modifier (Shift by default) it toggles membership instead.
// On empty space it starts a marquee, or pans with the modifier or the
// middle button. The bottom-right handle of a block resizes it.
//
// # Commands
//
// Key chords such as "Mod+D" are bound to [Action]s in a [Keymap]. "Mod" is
// Meta on macOS and Ctrl elsewhere. Events whose Editing flag is set belong
// to a text field and are never treated as shortcuts.
//
// # Automation
//
// [Canvas.InjectClick], [Canvas.InjectDrag] and friends queue synthetic
// input consumed one event per frame. [LoadScript] parses a JSON step list
// for replaying interactions in tests and from the CLI.
package canopy
