package ebitenview

import (
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"

	"github.com/phanxgames/canopy"
)

// hudRefresh is how often the HUD text is rebuilt, in seconds.
const hudRefresh = 0.5

// hud shows frame rate and canvas state in the top-left corner. The text is
// rebuilt every hudRefresh seconds onto its own image.
type hud struct {
	img     *ebiten.Image
	elapsed float64
	text    string
}

func newHUD() *hud {
	return &hud{elapsed: hudRefresh}
}

// hudText formats the HUD lines.
func hudText(fps, tps float64, c *canopy.Canvas) string {
	return fmt.Sprintf("FPS: %.1f  TPS: %.1f\nzoom: %.2f  mode: %s\nblocks: %d  selected: %d",
		fps, tps, c.Viewport().Zoom(), c.Mode(), c.Store().Len(), c.Selection().Len())
}

func (h *hud) update(dt float64, c *canopy.Canvas) {
	h.elapsed += dt
	if h.elapsed < hudRefresh {
		return
	}
	h.elapsed = 0
	h.text = hudText(ebiten.ActualFPS(), ebiten.ActualTPS(), c)
	if h.img == nil {
		// Three DebugPrint lines of up to 28 characters.
		h.img = ebiten.NewImage(28*debugGlyphW, 3*debugGlyphH+4)
	}
	h.img.Clear()
	// Semi-transparent background for readability
	h.img.Fill(color.RGBA{0, 0, 0, 128})
	ebitenutil.DebugPrint(h.img, h.text)
}

func (h *hud) draw(dst *ebiten.Image) {
	if h.img == nil {
		return
	}
	var op ebiten.DrawImageOptions
	op.GeoM.Translate(4, 4)
	dst.DrawImage(h.img, &op)
}
