package ebitenview

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"

	"github.com/phanxgames/canopy"
)

// ContentRenderer draws a block's content inside area, given in screen
// coordinates. Renderers that edit content write it back through
// Canvas.UpdateBlock.
type ContentRenderer interface {
	DrawContent(dst *ebiten.Image, b canopy.Block, area canopy.Rect, editable bool)
}

// ContentRendererFunc adapts a function to ContentRenderer.
type ContentRendererFunc func(dst *ebiten.Image, b canopy.Block, area canopy.Rect, editable bool)

// DrawContent calls f.
func (f ContentRendererFunc) DrawContent(dst *ebiten.Image, b canopy.Block, area canopy.Rect, editable bool) {
	f(dst, b, area, editable)
}

// Registry maps block kinds to content renderers. Kinds without a
// registration fall back to a plain-text summary.
type Registry struct {
	renderers map[canopy.Kind]ContentRenderer
	fallback  ContentRenderer
}

// NewRegistry returns a registry whose fallback prints Summary.
func NewRegistry() *Registry {
	return &Registry{
		renderers: make(map[canopy.Kind]ContentRenderer),
		fallback:  ContentRendererFunc(drawSummary),
	}
}

// Register sets the renderer for kind. A nil renderer removes it.
func (r *Registry) Register(kind canopy.Kind, cr ContentRenderer) {
	if cr == nil {
		delete(r.renderers, kind)
		return
	}
	r.renderers[kind] = cr
}

// Lookup returns the renderer for kind, or the fallback.
func (r *Registry) Lookup(kind canopy.Kind) ContentRenderer {
	if cr, ok := r.renderers[kind]; ok {
		return cr
	}
	return r.fallback
}

// Summary returns a one-line preview of a block's content for its kind.
func Summary(b canopy.Block) string {
	var fields map[string]json.RawMessage
	if len(b.Content) == 0 || json.Unmarshal(b.Content, &fields) != nil {
		return ""
	}
	str := func(key string) string {
		var s string
		if raw, ok := fields[key]; ok {
			_ = json.Unmarshal(raw, &s)
		}
		return s
	}
	switch b.Kind {
	case canopy.KindNote:
		return firstLine(str("text"))
	case canopy.KindCode:
		if lang := str("language"); lang != "" {
			return "[" + lang + "] " + firstLine(str("source"))
		}
		return firstLine(str("source"))
	case canopy.KindImage:
		return str("src")
	case canopy.KindLink:
		return str("url")
	case canopy.KindTag:
		return str("label")
	case canopy.KindTaskBoard:
		var cols []json.RawMessage
		if raw, ok := fields["columns"]; ok {
			_ = json.Unmarshal(raw, &cols)
		}
		return fmt.Sprintf("%d columns", len(cols))
	}
	return ""
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i] + "..."
	}
	return s
}

// Size of one ebitenutil.DebugPrint character cell.
const debugGlyphW, debugGlyphH = 6, 16

func drawSummary(dst *ebiten.Image, b canopy.Block, area canopy.Rect, _ bool) {
	text := Summary(b)
	if text == "" || area.Width < debugGlyphW*4 || area.Height < debugGlyphH {
		return
	}
	if limit := int(area.Width)/debugGlyphW - 1; utf8.RuneCountInString(text) > limit {
		text = string([]rune(text)[:limit-1]) + "~"
	}
	ebitenutil.DebugPrintAt(dst, text, int(area.X)+4, int(area.Y)+2)
}
