package canopy

import (
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
)

// ErrReadOnly is returned by mutations while the canvas is not editable.
var ErrReadOnly = errors.New("canopy: canvas is read-only")

// Canvas is the top-level engine object. It owns the block store, the
// viewport, the selection, the interaction state machine, the toolbar timer
// and the keymap, and is the single entry point hosts drive.
//
// Canvas is not safe for concurrent use; hosts serialize calls.
type Canvas struct {
	store     *Store
	selection *Selection
	viewport  *Viewport
	toolbar   *Toolbar
	keymap    *Keymap

	state   interaction
	capture PointerCapture

	editable          bool
	grid              bool
	multiSelectMod    KeyModifiers
	duplicateOffset   Vec2
	doubleClickOffset Vec2

	logger *log.Logger
	debug  bool

	injectQueue []syntheticEvent
	testRunner  *ScriptRunner
}

// New creates a canvas with DefaultConfig.
func New() *Canvas {
	c, err := NewFromConfig(DefaultConfig())
	if err != nil {
		panic(fmt.Sprintf("canopy: default config: %v", err))
	}
	return c
}

// NewFromConfig creates a canvas from cfg.
func NewFromConfig(cfg Config) (*Canvas, error) {
	kinds, err := cfg.KindDefaults()
	if err != nil {
		return nil, err
	}
	km, err := cfg.Keymap()
	if err != nil {
		return nil, err
	}
	multi, err := cfg.multiSelect()
	if err != nil {
		return nil, err
	}

	store := NewStore()
	store.SetKindDefaults(kinds)

	vp := NewViewport(cfg.Viewport.Width, cfg.Viewport.Height)
	vp.FitPadding = cfg.Viewport.FitPadding

	c := &Canvas{
		store:             store,
		selection:         newSelection(store),
		viewport:          vp,
		toolbar:           newToolbar(cfg.Canvas.ToolbarTimeout.Duration),
		keymap:            km,
		state:             idleState{},
		editable:          cfg.Canvas.Editable,
		grid:              cfg.Canvas.Grid,
		multiSelectMod:    multi,
		duplicateOffset:   Vec2{cfg.Canvas.DuplicateOffset, cfg.Canvas.DuplicateOffset},
		doubleClickOffset: DefaultKinds[KindNote].Size.Scale(0.5),
		logger:            discardLogger(),
	}
	store.evict = c.selection.evict
	c.selection.onChange = c.selectionChanged
	store.Subscribe(ObserverFunc(c.logChange))
	return c, nil
}

func (c *Canvas) selectionChanged() {
	c.toolbar.selectionChanged(c.selection.Len())
	if c.debug {
		c.debugCheck("selection")
	}
}

// Store returns the block store. Mutating it directly bypasses the
// editable check but keeps every other invariant.
func (c *Canvas) Store() *Store { return c.store }

// Selection returns the selection manager.
func (c *Canvas) Selection() *Selection { return c.selection }

// Viewport returns the viewport.
func (c *Canvas) Viewport() *Viewport { return c.viewport }

// Toolbar returns the floating toolbar state.
func (c *Canvas) Toolbar() *Toolbar { return c.toolbar }

// Keymap returns the key bindings.
func (c *Canvas) Keymap() *Keymap { return c.keymap }

// SetCapture installs the host's pointer capture. Pass nil to detach.
func (c *Canvas) SetCapture(pc PointerCapture) { c.capture = pc }

// Editable reports whether the canvas accepts edits.
func (c *Canvas) Editable() bool { return c.editable }

// SetEditable switches read-only mode. Turning editing off cancels any
// open interaction.
func (c *Canvas) SetEditable(v bool) {
	if c.editable == v {
		return
	}
	c.editable = v
	if !v {
		c.Cancel()
	}
}

// GridVisible reports whether the background grid is drawn.
func (c *Canvas) GridVisible() bool { return c.grid }

// ToggleGrid flips grid visibility.
func (c *Canvas) ToggleGrid() {
	c.grid = !c.grid
}

// AddBlock creates a block of kind and selects it. With a nil position the
// block is centered in the visible area.
func (c *Canvas) AddBlock(kind Kind, pos *Vec2) (Block, error) {
	if !c.editable {
		return Block{}, ErrReadOnly
	}
	if !kind.Valid() {
		return Block{}, fmt.Errorf("add block: %w: %q", ErrUnknownKind, kind)
	}
	var at Vec2
	if pos != nil {
		at = *pos
	} else {
		size := DefaultKinds[kind].Size
		if d, ok := c.store.kinds[kind]; ok {
			size = d.Size
		}
		at = c.viewport.VisibleBounds().Center().Sub(size.Scale(0.5))
	}
	b := c.store.Create(kind, at)
	c.selection.Set(b.ID)
	return b, nil
}

// UpdateBlock applies patch to a block. Geometry changes to a locked block
// are dropped silently. An unknown id is a no-op returning the zero Block,
// so a renderer racing a delete sees no error.
func (c *Canvas) UpdateBlock(id BlockID, patch BlockPatch) (Block, error) {
	if !c.editable {
		return Block{}, ErrReadOnly
	}
	b, _ := c.store.Update(id, patch)
	return b, nil
}

// Select replaces the selection.
func (c *Canvas) Select(ids ...BlockID) {
	c.selection.Set(ids...)
}

// SelectAll selects every non-hidden block.
func (c *Canvas) SelectAll() {
	var ids []BlockID
	for _, b := range c.store.blocks {
		if !b.Hidden {
			ids = append(ids, b.ID)
		}
	}
	c.selection.Set(ids...)
}

// Escape clears the selection, cancels placement or the open interaction,
// and closes the toolbar.
func (c *Canvas) Escape() {
	c.Cancel()
	c.selection.Clear()
	c.toolbar.Close()
}

// SetZoom sets the zoom factor, clamped.
func (c *Canvas) SetZoom(z float64) { c.viewport.SetZoom(z) }

// SetPan sets the pan offset in screen pixels.
func (c *Canvas) SetPan(p Vec2) { c.viewport.SetPan(p) }

// ResetView restores zoom 1 and pan (0,0).
func (c *Canvas) ResetView() { c.viewport.Reset() }

// FitToContent frames every non-hidden block.
func (c *Canvas) FitToContent() {
	c.viewport.FitToContent(c.store.All())
}

// Load replaces every block, e.g. from persistence. Any open interaction
// is cancelled first.
func (c *Canvas) Load(blocks []Block) {
	c.Cancel()
	c.store.Load(blocks)
}

// Update advances frame-driven state by dt seconds: the script runner, one
// injected input event, viewport tweens and the toolbar timer.
func (c *Canvas) Update(dt float32) {
	if c.testRunner != nil {
		c.testRunner.step(c)
	}
	c.processInjectedInput()
	c.viewport.Update(dt)
	c.toolbar.update(time.Duration(float64(dt) * float64(time.Second)))
}

// Snapshot is a serializable view of the canvas state.
type Snapshot struct {
	Blocks         []Block   `json:"blocks"`
	Selection      []BlockID `json:"selection"`
	Zoom           float64   `json:"zoom"`
	Pan            Vec2      `json:"pan"`
	Mode           Mode      `json:"mode"`
	Grid           bool      `json:"grid"`
	Editable       bool      `json:"editable"`
	ToolbarVisible bool      `json:"toolbarVisible"`
}

// Snapshot captures the current state.
func (c *Canvas) Snapshot() Snapshot {
	return Snapshot{
		Blocks:         c.store.All(),
		Selection:      c.selection.All(),
		Zoom:           c.viewport.Zoom(),
		Pan:            c.viewport.Pan(),
		Mode:           c.Mode(),
		Grid:           c.grid,
		Editable:       c.editable,
		ToolbarVisible: c.toolbar.Visible(),
	}
}
