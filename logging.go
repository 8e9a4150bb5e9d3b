package canopy

import (
	"io"

	"github.com/charmbracelet/log"
)

func discardLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.FatalLevel})
}

// SetLogger routes engine logs to l, prefixed "canopy". Pass nil to
// discard them.
func (c *Canvas) SetLogger(l *log.Logger) {
	if l == nil {
		c.logger = discardLogger()
		return
	}
	c.logger = l.WithPrefix("canopy")
}

// Logger returns the engine logger.
func (c *Canvas) Logger() *log.Logger { return c.logger }

// SetDebug enables invariant checks after every mutation. Violations are
// logged as warnings; they indicate an engine bug.
func (c *Canvas) SetDebug(on bool) { c.debug = on }

func (c *Canvas) logChange(ev ChangeEvent) {
	switch ev.Type {
	case ChangeCreated, ChangeUpdated:
		c.logger.Debug("block "+ev.Type.String(), "id", ev.Block.ID, "kind", ev.Block.Kind)
	case ChangeRemoved:
		c.logger.Debug("blocks removed", "count", len(ev.IDs))
	default:
		c.logger.Debug("blocks "+ev.Type.String(), "count", len(ev.Order))
	}
	if c.debug {
		c.debugCheck(ev.Type.String())
	}
}

// debugCheck verifies the cross-component invariants: selection ids exist,
// block sizes respect the minimum and zoom stays in range.
func (c *Canvas) debugCheck(op string) {
	for _, id := range c.selection.ids {
		if !c.store.Has(id) {
			c.logger.Warn("selection references missing block", "op", op, "id", id)
		}
	}
	for _, b := range c.store.blocks {
		if b.Size.X < MinBlockWidth || b.Size.Y < MinBlockHeight {
			c.logger.Warn("block below minimum size", "op", op, "id", b.ID, "w", b.Size.X, "h", b.Size.Y)
		}
		if b.UpdatedAt.Before(b.CreatedAt) {
			c.logger.Warn("block updated before created", "op", op, "id", b.ID)
		}
	}
	if z := c.viewport.Zoom(); z < MinZoom || z > MaxZoom {
		c.logger.Warn("zoom out of range", "op", op, "zoom", z)
	}
}
