package canopy

import (
	"errors"
	"fmt"
	"runtime"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Key names a keyboard key. Printable keys are their character, with
// letters upper-cased; named keys use the constants below.
type Key string

// Named keys.
const (
	KeyEscape    Key = "Escape"
	KeyDelete    Key = "Delete"
	KeyBackspace Key = "Backspace"
	KeyEnter     Key = "Enter"
	KeyTab       Key = "Tab"
	KeySpace     Key = "Space"
	KeyUp        Key = "Up"
	KeyDown      Key = "Down"
	KeyLeft      Key = "Left"
	KeyRight     Key = "Right"
)

var namedKeys = map[string]Key{
	"esc":       KeyEscape,
	"escape":    KeyEscape,
	"del":       KeyDelete,
	"delete":    KeyDelete,
	"bs":        KeyBackspace,
	"backspace": KeyBackspace,
	"enter":     KeyEnter,
	"return":    KeyEnter,
	"tab":       KeyTab,
	"space":     KeySpace,
	"up":        KeyUp,
	"down":      KeyDown,
	"left":      KeyLeft,
	"right":     KeyRight,
	"plus":      "+",
	"minus":     "-",
	"equal":     "=",
}

// NormalizeKey maps a key name or character to its canonical Key.
func NormalizeKey(s string) (Key, bool) {
	if s == "" {
		return "", false
	}
	if k, ok := namedKeys[strings.ToLower(s)]; ok {
		return k, true
	}
	if utf8.RuneCountInString(s) == 1 {
		r, _ := utf8.DecodeRuneInString(s)
		return Key(string(unicode.ToUpper(r))), true
	}
	return "", false
}

// KeyEvent is a key press delivered to the dispatcher.
type KeyEvent struct {
	Key       Key          `json:"key"`
	Modifiers KeyModifiers `json:"modifiers"`
	// Editing is set when focus is on a text-editing surface. Such events
	// are never treated as canvas shortcuts.
	Editing bool `json:"editing,omitempty"`
}

// ErrInvalidChord is returned for a chord string that cannot be parsed.
var ErrInvalidChord = errors.New("canopy: invalid key chord")

// Chord is a parsed key combination. Primary stands for the platform's
// primary modifier ("Mod"), resolved when the chord is bound.
type Chord struct {
	Key     Key
	Mods    KeyModifiers
	Primary bool
}

// String formats the chord in the same grammar ParseChord accepts.
func (c Chord) String() string {
	var parts []string
	if c.Primary {
		parts = append(parts, "Mod")
	}
	if m := c.Mods.String(); m != "" {
		parts = append(parts, m)
	}
	parts = append(parts, string(c.Key))
	return strings.Join(parts, "+")
}

// ParseChord parses chords such as "Mod+Shift+D", "Escape", "Mod+=" and
// "Mod++". Modifier names are case-insensitive; "Mod" is the platform
// primary modifier.
func ParseChord(s string) (Chord, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Chord{}, fmt.Errorf("%w: empty", ErrInvalidChord)
	}

	var keyPart, modPart string
	switch {
	case s == "+":
		keyPart = "+"
	case strings.HasSuffix(s, "++"):
		keyPart, modPart = "+", s[:len(s)-2]
	default:
		if i := strings.LastIndex(s, "+"); i >= 0 {
			keyPart, modPart = s[i+1:], s[:i]
		} else {
			keyPart = s
		}
	}

	var c Chord
	if modPart != "" {
		for _, name := range strings.Split(modPart, "+") {
			name = strings.ToLower(strings.TrimSpace(name))
			if name == "mod" || name == "primary" {
				c.Primary = true
				continue
			}
			mod, err := parseModifier(name)
			if err != nil {
				return Chord{}, fmt.Errorf("%w: %q: %v", ErrInvalidChord, s, err)
			}
			c.Mods |= mod
		}
	}

	key, ok := NormalizeKey(strings.TrimSpace(keyPart))
	if !ok {
		return Chord{}, fmt.Errorf("%w: unknown key %q", ErrInvalidChord, keyPart)
	}
	c.Key = key
	return c, nil
}

func parseModifier(name string) (KeyModifiers, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "shift":
		return ModShift, nil
	case "ctrl", "control":
		return ModCtrl, nil
	case "alt", "opt", "option":
		return ModAlt, nil
	case "meta", "cmd", "command", "super":
		return ModMeta, nil
	default:
		return 0, fmt.Errorf("unknown modifier %q", name)
	}
}

// PlatformPrimary returns the primary shortcut modifier: Meta on macOS and
// Ctrl elsewhere.
func PlatformPrimary() KeyModifiers {
	if runtime.GOOS == "darwin" {
		return ModMeta
	}
	return ModCtrl
}

// Action is a named canvas command a chord can trigger.
type Action string

// Built-in actions. Alignment and placement actions are formed with
// AlignAction and PlaceAction.
const (
	ActionZoomIn       Action = "zoom-in"
	ActionZoomOut      Action = "zoom-out"
	ActionResetView    Action = "reset-view"
	ActionFit          Action = "fit"
	ActionDuplicate    Action = "duplicate"
	ActionDelete       Action = "delete"
	ActionSelectAll    Action = "select-all"
	ActionEscape       Action = "escape"
	ActionToggleGrid   Action = "toggle-grid"
	ActionBringToFront Action = "bring-to-front"
	ActionSendToBack   Action = "send-to-back"
	ActionToggleLock   Action = "toggle-lock"
	ActionToggleHidden Action = "toggle-hidden"
)

const (
	alignPrefix = "align-"
	placePrefix = "place-"
)

// AlignAction returns the action that aligns the selection.
func AlignAction(a Alignment) Action { return Action(alignPrefix + a.String()) }

// PlaceAction returns the action that arms placement of kind.
func PlaceAction(k Kind) Action { return Action(placePrefix + string(k)) }

// Valid reports whether the action is known.
func (a Action) Valid() bool {
	switch a {
	case ActionZoomIn, ActionZoomOut, ActionResetView, ActionFit, ActionDuplicate,
		ActionDelete, ActionSelectAll, ActionEscape, ActionToggleGrid,
		ActionBringToFront, ActionSendToBack, ActionToggleLock, ActionToggleHidden:
		return true
	}
	if s, ok := strings.CutPrefix(string(a), alignPrefix); ok {
		_, ok = ParseAlignment(s)
		return ok
	}
	if s, ok := strings.CutPrefix(string(a), placePrefix); ok {
		return Kind(s).Valid()
	}
	return false
}

type boundKey struct {
	key  Key
	mods KeyModifiers
}

// Keymap binds resolved chords to actions.
type Keymap struct {
	primary  KeyModifiers
	bindings map[boundKey]Action
}

// NewKeymap returns an empty keymap resolving "Mod" to primary.
func NewKeymap(primary KeyModifiers) *Keymap {
	if primary == 0 {
		primary = PlatformPrimary()
	}
	return &Keymap{primary: primary, bindings: make(map[boundKey]Action)}
}

// DefaultBindings is the built-in chord table.
var DefaultBindings = []struct {
	Chord  string
	Action Action
}{
	{"Mod+=", ActionZoomIn},
	{"Mod++", ActionZoomIn},
	{"Mod+Shift+=", ActionZoomIn},
	{"Mod+Shift++", ActionZoomIn},
	{"Mod+-", ActionZoomOut},
	{"Mod+0", ActionResetView},
	{"Mod+D", ActionDuplicate},
	{"Mod+Delete", ActionDelete},
	{"Mod+Backspace", ActionDelete},
	{"Mod+A", ActionSelectAll},
	{"Escape", ActionEscape},
}

// DefaultKeymap returns a keymap holding DefaultBindings.
func DefaultKeymap(primary KeyModifiers) *Keymap {
	km := NewKeymap(primary)
	for _, b := range DefaultBindings {
		if err := km.Bind(b.Chord, b.Action); err != nil {
			panic(err)
		}
	}
	return km
}

// Primary returns the modifier "Mod" resolves to.
func (k *Keymap) Primary() KeyModifiers { return k.primary }

func (k *Keymap) resolve(s string) (boundKey, error) {
	c, err := ParseChord(s)
	if err != nil {
		return boundKey{}, err
	}
	mods := c.Mods
	if c.Primary {
		mods |= k.primary
	}
	return boundKey{key: c.Key, mods: mods}, nil
}

// Bind maps a chord to an action, replacing any previous binding.
func (k *Keymap) Bind(s string, a Action) error {
	if !a.Valid() {
		return fmt.Errorf("bind %q: unknown action %q", s, a)
	}
	bk, err := k.resolve(s)
	if err != nil {
		return err
	}
	k.bindings[bk] = a
	return nil
}

// Unbind removes the binding for a chord.
func (k *Keymap) Unbind(s string) error {
	bk, err := k.resolve(s)
	if err != nil {
		return err
	}
	delete(k.bindings, bk)
	return nil
}

// Lookup returns the action bound to ev, if any.
func (k *Keymap) Lookup(ev KeyEvent) (Action, bool) {
	key, ok := NormalizeKey(string(ev.Key))
	if !ok {
		return "", false
	}
	a, ok := k.bindings[boundKey{key: key, mods: ev.Modifiers}]
	return a, ok
}

// Event returns the key event that triggers the chord. Scripts and the
// HTTP layer use it to turn chord strings into events.
func (k *Keymap) Event(s string) (KeyEvent, error) {
	bk, err := k.resolve(s)
	if err != nil {
		return KeyEvent{}, err
	}
	return KeyEvent{Key: bk.key, Modifiers: bk.mods}, nil
}

// Bindings returns the bound chords, formatted with concrete modifiers and
// sorted for display.
func (k *Keymap) Bindings() []string {
	out := make([]string, 0, len(k.bindings))
	for bk, a := range k.bindings {
		out = append(out, Chord{Key: bk.key, Mods: bk.mods}.String()+" → "+string(a))
	}
	sort.Strings(out)
	return out
}

// HandleKey dispatches a key event. Events from a text-editing surface are
// ignored. It reports whether the event matched a binding.
func (c *Canvas) HandleKey(ev KeyEvent) bool {
	if ev.Editing {
		return false
	}
	a, ok := c.keymap.Lookup(ev)
	if !ok {
		return false
	}
	c.logger.Debug("key", "chord", Chord{Key: ev.Key, Mods: ev.Modifiers}, "action", a)
	c.Perform(a)
	return true
}

// Perform runs an action. It reports false when the action is unknown or
// its precondition (such as a non-empty selection) does not hold.
func (c *Canvas) Perform(a Action) bool {
	switch a {
	case ActionZoomIn:
		c.viewport.ZoomBy(ZoomStep)
	case ActionZoomOut:
		c.viewport.ZoomBy(-ZoomStep)
	case ActionResetView:
		c.viewport.Reset()
	case ActionFit:
		c.FitToContent()
	case ActionDuplicate:
		return len(c.DuplicateSelected()) > 0
	case ActionDelete:
		return c.DeleteSelected() > 0
	case ActionSelectAll:
		c.SelectAll()
	case ActionEscape:
		c.Escape()
	case ActionToggleGrid:
		c.ToggleGrid()
	case ActionBringToFront:
		if c.selection.Len() == 0 {
			return false
		}
		c.BringSelectedToFront()
	case ActionSendToBack:
		if c.selection.Len() == 0 {
			return false
		}
		c.SendSelectedToBack()
	case ActionToggleLock:
		if c.selection.Len() == 0 {
			return false
		}
		c.ToggleLockSelected()
	case ActionToggleHidden:
		if c.selection.Len() == 0 {
			return false
		}
		c.ToggleHiddenSelected()
	default:
		if s, ok := strings.CutPrefix(string(a), alignPrefix); ok {
			al, ok := ParseAlignment(s)
			return ok && c.AlignSelected(al)
		}
		if s, ok := strings.CutPrefix(string(a), placePrefix); ok {
			k := Kind(s)
			if !k.Valid() || !c.editable {
				return false
			}
			c.RequestPlacement(k)
			return true
		}
		return false
	}
	return true
}
