package canopy

import "time"

// DefaultToolbarTimeout is how long the floating toolbar stays up without a
// selection change.
const DefaultToolbarTimeout = 10 * time.Second

// Toolbar tracks visibility of the floating batch-operations toolbar. It has
// a single auto-hide timer, advanced by Canvas.Update, that is rescheduled
// on every selection change and cancelled on close.
type Toolbar struct {
	visible   bool
	timeout   time.Duration
	remaining time.Duration
	armed     bool
}

func newToolbar(timeout time.Duration) *Toolbar {
	return &Toolbar{timeout: timeout}
}

// Visible reports whether the toolbar is shown.
func (t *Toolbar) Visible() bool {
	return t.visible
}

// Remaining returns the time left before auto-hide, and whether the timer
// is armed.
func (t *Toolbar) Remaining() (time.Duration, bool) {
	return t.remaining, t.armed
}

// Touch reschedules the auto-hide timer while the toolbar is visible, e.g.
// when the user hovers or clicks it.
func (t *Toolbar) Touch() {
	if t.visible {
		t.schedule()
	}
}

// Close hides the toolbar and cancels the timer.
func (t *Toolbar) Close() {
	t.visible = false
	t.armed = false
	t.remaining = 0
}

// selectionChanged shows the toolbar for a non-empty selection and hides it
// for an empty one.
func (t *Toolbar) selectionChanged(selected int) {
	if selected == 0 {
		t.Close()
		return
	}
	t.visible = true
	t.schedule()
}

func (t *Toolbar) schedule() {
	t.remaining = t.timeout
	t.armed = t.timeout > 0
}

func (t *Toolbar) update(dt time.Duration) {
	if !t.armed {
		return
	}
	t.remaining -= dt
	if t.remaining <= 0 {
		t.Close()
	}
}
