package ebitenview

import (
	"fmt"
	"image/color"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"

	"github.com/phanxgames/canopy"
)

// Theme holds the colors the view paints with.
type Theme struct {
	Background color.Color
	Grid       color.Color
	Border     color.Color
	Selected   color.Color
	Handle     color.Color
	Marquee    color.Color
	Toolbar    color.Color
}

// DefaultTheme is a light theme.
var DefaultTheme = Theme{
	Background: color.RGBA{0xf8, 0xfa, 0xfc, 0xff},
	Grid:       color.RGBA{0xe2, 0xe8, 0xf0, 0xff},
	Border:     color.RGBA{0x94, 0xa3, 0xb8, 0xff},
	Selected:   color.RGBA{0x3b, 0x82, 0xf6, 0xff},
	Handle:     color.RGBA{0x1d, 0x4e, 0xd8, 0xff},
	Marquee:    color.RGBA{0x3b, 0x82, 0xf6, 0x40},
	Toolbar:    color.RGBA{0x1e, 0x29, 0x3b, 0xe0},
}

// GridSpacing is the world-space distance between grid lines.
const GridSpacing = 50.0

// minGridPixels hides the grid when lines would be closer than this on
// screen.
const minGridPixels = 8.0

const titleBarHeight = 18.0

var whitePixel *ebiten.Image

func pixel() *ebiten.Image {
	if whitePixel == nil {
		whitePixel = ebiten.NewImage(1, 1)
		whitePixel.Fill(color.White)
	}
	return whitePixel
}

// fillRect paints a screen-space rectangle by scaling a 1x1 white image.
func fillRect(dst *ebiten.Image, r canopy.Rect, clr color.Color) {
	if r.Width <= 0 || r.Height <= 0 {
		return
	}
	var op ebiten.DrawImageOptions
	op.GeoM.Scale(r.Width, r.Height)
	op.GeoM.Translate(r.X, r.Y)
	op.ColorScale.ScaleWithColor(clr)
	dst.DrawImage(pixel(), &op)
}

// strokeRect paints a rectangle outline of width w inside r.
func strokeRect(dst *ebiten.Image, r canopy.Rect, w float64, clr color.Color) {
	fillRect(dst, canopy.Rect{X: r.X, Y: r.Y, Width: r.Width, Height: w}, clr)
	fillRect(dst, canopy.Rect{X: r.X, Y: r.Bottom() - w, Width: r.Width, Height: w}, clr)
	fillRect(dst, canopy.Rect{X: r.X, Y: r.Y + w, Width: w, Height: r.Height - 2*w}, clr)
	fillRect(dst, canopy.Rect{X: r.Right() - w, Y: r.Y + w, Width: w, Height: r.Height - 2*w}, clr)
}

func (g *Game) drawGrid(dst *ebiten.Image) {
	vp := g.canvas.Viewport()
	step := GridSpacing * vp.Zoom()
	if step < minGridPixels {
		return
	}
	view := vp.VisibleBounds()
	size := vp.Size()
	for x := math.Floor(view.X/GridSpacing) * GridSpacing; x <= view.Right(); x += GridSpacing {
		sx := vp.ToScreen(canopy.Vec2{X: x}).X
		fillRect(dst, canopy.Rect{X: math.Round(sx), Y: 0, Width: 1, Height: size.Y}, g.theme.Grid)
	}
	for y := math.Floor(view.Y/GridSpacing) * GridSpacing; y <= view.Bottom(); y += GridSpacing {
		sy := vp.ToScreen(canopy.Vec2{Y: y}).Y
		fillRect(dst, canopy.Rect{X: 0, Y: math.Round(sy), Width: size.X, Height: 1}, g.theme.Grid)
	}
}

// drawBlocks paints blocks bottom to top.
func (g *Game) drawBlocks(dst *ebiten.Image) {
	c := g.canvas
	vp := c.Viewport()
	screen := canopy.Rect{Width: vp.Size().X, Height: vp.Size().Y}
	sel := c.Selection()

	for _, b := range c.Store().All() {
		r := vp.WorldRectToScreen(b.Bounds())
		if !r.Intersects(screen) {
			continue
		}
		if b.Hidden {
			if g.outlineHidden() {
				strokeRect(dst, r, 1, g.theme.Border)
			}
			continue
		}
		fillRect(dst, r, b.Color.RGBA())

		border, width := g.theme.Border, 1.0
		if sel.Has(b.ID) {
			border, width = g.theme.Selected, 2.0
		}
		strokeRect(dst, r, width, border)

		bar := canopy.Rect{X: r.X, Y: r.Y, Width: r.Width, Height: titleBarHeight}
		title := b.Title
		if title == "" {
			title = string(b.Kind)
		}
		if b.Locked {
			title += " [locked]"
		}
		if r.Height > titleBarHeight*2 {
			ebitenutil.DebugPrintAt(dst, title, int(bar.X)+4, int(bar.Y)+1)
			area := canopy.Rect{X: r.X, Y: r.Y + titleBarHeight, Width: r.Width, Height: r.Height - titleBarHeight}
			g.renderers.Lookup(b.Kind).DrawContent(dst, b, area, c.Editable())
		}

		if c.Editable() && !b.Locked && sel.Has(b.ID) {
			side := canopy.ResizeHandleSize
			fillRect(dst, canopy.Rect{X: r.Right() - side, Y: r.Bottom() - side, Width: side, Height: side}, g.theme.Handle)
		}
	}
}

// outlineHidden reports whether hidden blocks get a placeholder outline.
func (g *Game) outlineHidden() bool {
	return g.opts.ShowHidden && g.canvas.Editable()
}

func (g *Game) drawMarquee(dst *ebiten.Image) {
	m, ok := g.canvas.Marquee()
	if !ok {
		return
	}
	r := g.canvas.Viewport().WorldRectToScreen(m)
	fillRect(dst, r, g.theme.Marquee)
	strokeRect(dst, r, 1, g.theme.Selected)
}

// selectionBounds returns the screen-space union of the selected blocks.
func (g *Game) selectionBounds() (canopy.Rect, bool) {
	var (
		union canopy.Rect
		found bool
	)
	for _, id := range g.canvas.Selection().All() {
		b, ok := g.canvas.Store().Get(id)
		if !ok || b.Hidden {
			continue
		}
		if !found {
			union, found = b.Bounds(), true
			continue
		}
		union = union.Union(b.Bounds())
	}
	if !found {
		return canopy.Rect{}, false
	}
	return g.canvas.Viewport().WorldRectToScreen(union), true
}

// toolbarText describes what the floating toolbar offers for the selection.
func toolbarText(n int, editable bool) string {
	if !editable {
		return fmt.Sprintf("%d selected", n)
	}
	if n == 1 {
		return "1 selected | dup | del | front | back | lock | hide"
	}
	return fmt.Sprintf("%d selected | dup | del | align | front | back | lock | hide", n)
}

func (g *Game) drawToolbar(dst *ebiten.Image) {
	c := g.canvas
	if !c.Toolbar().Visible() || c.Mode() != canopy.ModeIdle {
		return
	}
	bounds, ok := g.selectionBounds()
	if !ok {
		return
	}
	text := toolbarText(c.Selection().Len(), c.Editable())
	w := float64(len(text)*debugGlyphW + 8)
	h := float64(debugGlyphH + 4)
	x := bounds.X + (bounds.Width-w)/2
	y := bounds.Y - h - 8
	if y < 0 {
		y = bounds.Bottom() + 8
	}
	fillRect(dst, canopy.Rect{X: x, Y: y, Width: w, Height: h}, g.theme.Toolbar)
	ebitenutil.DebugPrintAt(dst, text, int(x)+4, int(y)+2)
}

func (g *Game) drawPlacementHint(dst *ebiten.Image) {
	kind, ok := g.canvas.PlacingKind()
	if !ok {
		return
	}
	ebitenutil.DebugPrintAt(dst, "click to place "+string(kind)+" (Esc cancels)", 8, int(g.canvas.Viewport().Size().Y)-20)
}
