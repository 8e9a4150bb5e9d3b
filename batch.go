package canopy

import "encoding/json"

// Alignment selects the edge or axis AlignSelected lines blocks up on.
type Alignment uint8

const (
	AlignLeft   Alignment = iota // shared minimum X
	AlignCenter                  // shared horizontal midpoint
	AlignRight                   // shared maximum right edge
	AlignTop                     // shared minimum Y
	AlignMiddle                  // shared vertical midpoint
	AlignBottom                  // shared maximum bottom edge
)

// String returns the alignment's action suffix, e.g. "left".
func (a Alignment) String() string {
	switch a {
	case AlignLeft:
		return "left"
	case AlignCenter:
		return "center"
	case AlignRight:
		return "right"
	case AlignTop:
		return "top"
	case AlignMiddle:
		return "middle"
	case AlignBottom:
		return "bottom"
	default:
		return "unknown"
	}
}

// ParseAlignment is the inverse of Alignment.String.
func ParseAlignment(s string) (Alignment, bool) {
	for a := AlignLeft; a <= AlignBottom; a++ {
		if a.String() == s {
			return a, true
		}
	}
	return 0, false
}

// DefaultDuplicateOffset is how far duplicates are shifted from their
// originals, in world units.
var DefaultDuplicateOffset = Vec2{20, 20}

// selectedBlocks returns the selected blocks in selection order.
func (c *Canvas) selectedBlocks() []Block {
	ids := c.selection.All()
	out := make([]Block, 0, len(ids))
	for _, id := range ids {
		if b, ok := c.store.Get(id); ok {
			out = append(out, b)
		}
	}
	return out
}

// DuplicateSelected copies every selected block at a fixed offset and
// selects the copies. Kind, content, color, title and size are copied;
// lock and visibility flags are not.
func (c *Canvas) DuplicateSelected() []Block {
	src := c.selectedBlocks()
	if len(src) == 0 || !c.editable {
		return nil
	}
	created := make([]Block, 0, len(src))
	c.store.batch(func() {
		for _, orig := range src {
			orig := orig
			b := c.store.create(orig.Kind, orig.Position.Add(c.duplicateOffset), func(nb *Block) {
				nb.Size = orig.Size
				nb.Content = append(json.RawMessage(nil), orig.Content...)
				nb.Color = orig.Color
				nb.Title = orig.Title
			})
			created = append(created, b)
		}
		ids := make([]BlockID, len(created))
		for i := range created {
			ids[i] = created[i].ID
		}
		c.selection.Set(ids...)
	})
	c.logger.Debug("duplicated", "count", len(created))
	return created
}

// DeleteSelected removes every selected block. The selection ends empty.
func (c *Canvas) DeleteSelected() int {
	ids := c.selection.All()
	if len(ids) == 0 || !c.editable {
		return 0
	}
	if id, ok := c.ActiveBlock(); ok && c.selection.Has(id) {
		c.Cancel()
	}
	c.store.batch(func() {
		c.store.Remove(ids...)
	})
	c.selection.Clear()
	c.logger.Debug("deleted", "count", len(ids))
	return len(ids)
}

// AlignSelected lines the selected blocks up. It needs at least two blocks;
// locked blocks keep their position.
func (c *Canvas) AlignSelected(a Alignment) bool {
	blocks := c.selectedBlocks()
	if len(blocks) < 2 || !c.editable {
		return false
	}

	bounds := blocks[0].Bounds()
	for _, b := range blocks[1:] {
		bounds = bounds.Union(b.Bounds())
	}

	c.store.batch(func() {
		for _, b := range blocks {
			pos := b.Position
			switch a {
			case AlignLeft:
				pos.X = bounds.X
			case AlignCenter:
				pos.X = bounds.X + bounds.Width/2 - b.Size.X/2
			case AlignRight:
				pos.X = bounds.Right() - b.Size.X
			case AlignTop:
				pos.Y = bounds.Y
			case AlignMiddle:
				pos.Y = bounds.Y + bounds.Height/2 - b.Size.Y/2
			case AlignBottom:
				pos.Y = bounds.Bottom() - b.Size.Y
			}
			if pos == b.Position {
				continue
			}
			c.store.Update(b.ID, BlockPatch{Position: &pos})
		}
	})
	return true
}

// BringSelectedToFront moves the selection to the top of z-order, keeping
// its relative order.
func (c *Canvas) BringSelectedToFront() {
	if c.selection.Len() == 0 || !c.editable {
		return
	}
	c.store.ReorderMany(c.selection.All(), ToTop)
}

// SendSelectedToBack moves the selection to the bottom of z-order, keeping
// its relative order.
func (c *Canvas) SendSelectedToBack() {
	if c.selection.Len() == 0 || !c.editable {
		return
	}
	c.store.ReorderMany(c.selection.All(), ToBottom)
}

// ToggleLockSelected locks every selected block, or unlocks them all if
// every one is already locked.
func (c *Canvas) ToggleLockSelected() {
	c.toggleSelected(
		func(b Block) bool { return b.Locked },
		func(v *bool) BlockPatch { return BlockPatch{Locked: v} },
	)
}

// ToggleHiddenSelected hides every selected block, or shows them all if
// every one is already hidden.
func (c *Canvas) ToggleHiddenSelected() {
	c.toggleSelected(
		func(b Block) bool { return b.Hidden },
		func(v *bool) BlockPatch { return BlockPatch{Hidden: v} },
	)
}

func (c *Canvas) toggleSelected(get func(Block) bool, patch func(*bool) BlockPatch) {
	blocks := c.selectedBlocks()
	if len(blocks) == 0 || !c.editable {
		return
	}
	all := true
	for _, b := range blocks {
		if !get(b) {
			all = false
			break
		}
	}
	target := !all
	c.store.batch(func() {
		for _, b := range blocks {
			if get(b) == target {
				continue
			}
			v := target
			c.store.Update(b.ID, patch(&v))
		}
	})
}

// RecolorSelected sets the accent color of every selected block.
func (c *Canvas) RecolorSelected(col Color) {
	if !c.editable {
		return
	}
	blocks := c.selectedBlocks()
	c.store.batch(func() {
		for _, b := range blocks {
			if b.Color == col {
				continue
			}
			v := col
			c.store.Update(b.ID, BlockPatch{Color: &v})
		}
	})
}
