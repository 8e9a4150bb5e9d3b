// Package ebitenview is the desktop front end for a canopy canvas. It
// implements ebiten.Game: each tick it polls mouse and keyboard, feeds the
// canvas, and advances its clock; each frame it paints the grid, blocks,
// marquee, floating toolbar and HUD.
//
// Block content is drawn by a [ContentRenderer] registered per kind.
//
//	c := canopy.New()
//	g := ebitenview.New(c, ebitenview.Options{Title: "canopy"})
//	g.Renderers().Register(canopy.KindNote, myNoteRenderer)
//	if err := ebitenview.Run(g); err != nil {
//		log.Fatal(err)
//	}
package ebitenview

import (
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/phanxgames/canopy"
)

// Options configures a Game.
type Options struct {
	Width, Height int
	Title         string
	ScreenshotDir string
	ShowHUD       bool
	// ShowHidden outlines hidden blocks while the canvas is editable.
	// Off by default: hidden blocks are not drawn.
	ShowHidden    bool
	Theme         *Theme
	Logger        *log.Logger
	// Done ends the game loop when closed.
	Done          <-chan struct{}
}

// Game adapts a canvas to ebiten.Game.
type Game struct {
	canvas    *canopy.Canvas
	renderers *Registry
	theme     Theme
	logger    *log.Logger

	opts     Options
	pointer  pointerTracker
	keys     []ebiten.Key
	editing  bool
	captured bool
	hud      *hud
	showHUD  bool

	screenshotDir   string
	screenshotQueue []string

	now func() time.Time
}

// New wraps c and installs the game as the canvas's pointer capture.
func New(c *canopy.Canvas, opts Options) *Game {
	if opts.Width <= 0 || opts.Height <= 0 {
		size := c.Viewport().Size()
		opts.Width, opts.Height = int(size.X), int(size.Y)
	}
	if opts.Title == "" {
		opts.Title = "canopy"
	}
	if opts.ScreenshotDir == "" {
		opts.ScreenshotDir = DefaultScreenshotDir
	}
	theme := DefaultTheme
	if opts.Theme != nil {
		theme = *opts.Theme
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	g := &Game{
		canvas:        c,
		renderers:     NewRegistry(),
		theme:         theme,
		logger:        logger,
		opts:          opts,
		hud:           newHUD(),
		showHUD:       opts.ShowHUD,
		screenshotDir: opts.ScreenshotDir,
		now:           time.Now,
	}
	c.Viewport().SetSize(float64(opts.Width), float64(opts.Height))
	c.SetCapture(g)
	return g
}

// Run opens a window and runs g until it is closed.
func Run(g *Game) error {
	ebiten.SetWindowSize(g.opts.Width, g.opts.Height)
	ebiten.SetWindowTitle(g.opts.Title)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	return ebiten.RunGame(g)
}

// Canvas returns the wrapped canvas.
func (g *Game) Canvas() *canopy.Canvas { return g.canvas }

// Renderers returns the content renderer registry.
func (g *Game) Renderers() *Registry { return g.renderers }

// SetEditing marks keyboard focus as being on a text-editing surface, so
// key presses are not treated as canvas shortcuts.
func (g *Game) SetEditing(on bool) { g.editing = on }

// ToggleHUD shows or hides the frame-rate overlay.
func (g *Game) ToggleHUD() { g.showHUD = !g.showHUD }

// Acquire implements canopy.PointerCapture. Ebiten reports the cursor
// window-wide, so capture only needs recording.
func (g *Game) Acquire() { g.captured = true }

// Release implements canopy.PointerCapture.
func (g *Game) Release() { g.captured = false }

// Captured reports whether an interaction currently holds the pointer.
func (g *Game) Captured() bool { return g.captured }

// Update implements ebiten.Game.
func (g *Game) Update() error {
	select {
	case <-g.opts.Done:
		return ebiten.Termination
	default:
	}
	dt := 1.0 / float64(ebiten.TPS())
	mods := readModifiers()

	g.pointer.feed(g.canvas, readPointer(mods, g.now()))

	if _, dy := ebiten.Wheel(); dy != 0 {
		mx, my := ebiten.CursorPosition()
		wheelZoom(g.canvas, canopy.Vec2{X: float64(mx), Y: float64(my)}, dy)
	}

	g.keys = inpututil.AppendJustPressedKeys(g.keys[:0])
	for _, k := range g.keys {
		if k == ebiten.KeyF3 {
			g.ToggleHUD()
			continue
		}
		if k == ebiten.KeyF12 {
			g.Screenshot("canvas")
			continue
		}
		if name, ok := keyName(k); ok {
			g.canvas.HandleKey(canopy.KeyEvent{Key: name, Modifiers: mods, Editing: g.editing})
		}
	}

	g.canvas.Update(float32(dt))
	if g.showHUD {
		g.hud.update(dt, g.canvas)
	}
	return nil
}

// Draw implements ebiten.Game.
func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(g.theme.Background)
	if g.canvas.GridVisible() {
		g.drawGrid(screen)
	}
	g.drawBlocks(screen)
	g.drawMarquee(screen)
	g.drawToolbar(screen)
	g.drawPlacementHint(screen)
	if g.showHUD {
		g.hud.draw(screen)
	}
	g.flushScreenshots(screen)
}

// Layout implements ebiten.Game. The viewport follows the window size.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	g.canvas.Viewport().SetSize(float64(outsideWidth), float64(outsideHeight))
	return outsideWidth, outsideHeight
}
