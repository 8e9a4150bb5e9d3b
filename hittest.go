package canopy

// HitMode selects how RectHit decides whether a block is inside a rectangle.
type HitMode uint8

const (
	// HitCenter selects blocks whose geometric center lies inside the
	// rectangle. Marquee selection uses this policy.
	HitCenter HitMode = iota
	// HitOverlap selects blocks whose bounds intersect the rectangle.
	HitOverlap
)

// ResizeHandleSize is the side of the square resize handle at a block's
// bottom-right corner, in screen pixels.
const ResizeHandleSize = 12.0

// PointHit returns the topmost non-hidden block whose rectangle contains the
// world point. Edges count as inside.
func (s *Store) PointHit(world Vec2) (Block, bool) {
	// Iterate backward (reverse paint order): topmost block first.
	for i := len(s.blocks) - 1; i >= 0; i-- {
		b := s.blocks[i]
		if b.Hidden {
			continue
		}
		if b.Bounds().Contains(world.X, world.Y) {
			return b.clone(), true
		}
	}
	return Block{}, false
}

// RectHit returns every non-hidden block inside the world rectangle under
// mode, in z-order. The result depends only on the blocks and the rectangle.
func (s *Store) RectHit(r Rect, mode HitMode) []Block {
	r = RectFromPoints(Vec2{r.X, r.Y}, Vec2{r.X + r.Width, r.Y + r.Height})
	var out []Block
	for _, b := range s.blocks {
		if b.Hidden {
			continue
		}
		var hit bool
		switch mode {
		case HitOverlap:
			hit = r.Intersects(b.Bounds())
		default:
			c := b.Center()
			hit = r.Contains(c.X, c.Y)
		}
		if hit {
			out = append(out, b.clone())
		}
	}
	return out
}

// ResizeHandleHit returns the topmost non-hidden block whose resize handle
// contains the world point. The handle keeps a constant on-screen size, so
// its world extent depends on zoom.
func (s *Store) ResizeHandleHit(world Vec2, zoom float64) (Block, bool) {
	if zoom <= 0 {
		zoom = 1
	}
	side := ResizeHandleSize / zoom
	for i := len(s.blocks) - 1; i >= 0; i-- {
		b := s.blocks[i]
		if b.Hidden {
			continue
		}
		r := b.Bounds()
		handle := Rect{X: r.Right() - side, Y: r.Bottom() - side, Width: side, Height: side}
		if handle.Contains(world.X, world.Y) {
			return b.clone(), true
		}
		// A block above the handle point occludes handles beneath it.
		if r.Contains(world.X, world.Y) {
			return Block{}, false
		}
	}
	return Block{}, false
}
