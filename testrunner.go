package canopy

import (
	"encoding/json"
	"fmt"
	"strings"
)

// scriptStep is a single action in an interaction script.
type scriptStep struct {
	Action string  `json:"action"`
	X      float64 `json:"x,omitempty"`
	Y      float64 `json:"y,omitempty"`
	FromX  float64 `json:"fromX,omitempty"`
	FromY  float64 `json:"fromY,omitempty"`
	ToX    float64 `json:"toX,omitempty"`
	ToY    float64 `json:"toY,omitempty"`
	Frames int     `json:"frames,omitempty"`
	// Mods is a "+"-joined modifier list such as "shift" or "ctrl+shift".
	Mods string `json:"mods,omitempty"`
	// Chord is used by the key action, e.g. "Mod+D".
	Chord string `json:"chord,omitempty"`
	// Kind is used by the place action.
	Kind    string `json:"kind,omitempty"`
	Editing bool   `json:"editing,omitempty"`
}

type script struct {
	Steps []scriptStep `json:"steps"`
}

var scriptActions = map[string]bool{
	"click": true, "press": true, "move": true, "release": true, "drag": true,
	"dblclick": true, "key": true, "place": true, "wait": true, "zoom": true,
	"fit": true, "reset": true,
}

// ScriptRunner replays a recorded interaction script one step per frame,
// through the same injection queue as real input. Attach it with
// SetScriptRunner and drive Canvas.Update.
type ScriptRunner struct {
	steps     []scriptStep
	cursor    int
	waitCount int
	done      bool
	err       error
}

// LoadScript parses a JSON interaction script.
func LoadScript(data []byte) (*ScriptRunner, error) {
	var sc script
	if err := json.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("parse script: %w", err)
	}
	if len(sc.Steps) == 0 {
		return nil, fmt.Errorf("parse script: no steps")
	}
	for i, st := range sc.Steps {
		if !scriptActions[st.Action] {
			return nil, fmt.Errorf("parse script: step %d: unknown action %q", i, st.Action)
		}
		if _, err := ParseModifiers(st.Mods); err != nil {
			return nil, fmt.Errorf("parse script: step %d: %w", i, err)
		}
		switch st.Action {
		case "key":
			if _, err := ParseChord(st.Chord); err != nil {
				return nil, fmt.Errorf("parse script: step %d: %w", i, err)
			}
		case "place":
			if _, err := ParseKind(st.Kind); err != nil {
				return nil, fmt.Errorf("parse script: step %d: %w", i, err)
			}
		}
	}
	return &ScriptRunner{steps: sc.Steps}, nil
}

// SetScriptRunner attaches a runner; its step runs at the start of every
// Update. Pass nil to detach.
func (c *Canvas) SetScriptRunner(r *ScriptRunner) {
	c.testRunner = r
}

// Done reports whether every step has executed.
func (r *ScriptRunner) Done() bool {
	return r.done
}

// Err returns the first error met while executing steps.
func (r *ScriptRunner) Err() error {
	return r.err
}

// RunScript attaches r and updates the canvas at 60 frames per second until
// the script and its queued input drain, or maxFrames elapse.
func (c *Canvas) RunScript(r *ScriptRunner, maxFrames int) error {
	c.SetScriptRunner(r)
	defer c.SetScriptRunner(nil)
	for i := 0; i < maxFrames; i++ {
		c.Update(1.0 / 60)
		if r.Done() && c.Pending() == 0 {
			return r.Err()
		}
	}
	return fmt.Errorf("run script: not finished after %d frames", maxFrames)
}

// ParseModifiers parses a "+"-separated modifier list such as "ctrl+shift".
// The empty string means no modifiers.
func ParseModifiers(s string) (KeyModifiers, error) {
	if s == "" {
		return 0, nil
	}
	var mods KeyModifiers
	for _, name := range strings.Split(s, "+") {
		m, err := parseModifier(name)
		if err != nil {
			return 0, err
		}
		mods |= m
	}
	return mods, nil
}

// step advances the runner by one frame.
func (r *ScriptRunner) step(c *Canvas) {
	if r.done {
		return
	}
	// Let pending injections drain before advancing.
	if len(c.injectQueue) > 0 {
		return
	}
	if r.waitCount > 0 {
		r.waitCount--
		return
	}
	if r.cursor >= len(r.steps) {
		r.done = true
		return
	}

	st := r.steps[r.cursor]
	r.cursor++
	mods, _ := ParseModifiers(st.Mods)

	switch st.Action {
	case "click":
		c.InjectClick(st.X, st.Y, mods)
	case "press":
		c.InjectPress(st.X, st.Y, mods)
	case "move":
		c.InjectMove(st.X, st.Y)
	case "release":
		c.InjectRelease(st.X, st.Y)
	case "drag":
		c.InjectDrag(Vec2{st.FromX, st.FromY}, Vec2{st.ToX, st.ToY}, st.Frames, mods)
	case "dblclick":
		c.InjectDoubleClick(st.X, st.Y)
	case "key":
		ev, err := c.keymap.Event(st.Chord)
		if err != nil {
			r.fail(err)
			return
		}
		ev.Modifiers |= mods
		ev.Editing = st.Editing
		c.InjectKey(ev)
	case "place":
		c.RequestPlacement(Kind(st.Kind))
	case "zoom":
		c.SetZoom(st.X)
	case "fit":
		c.FitToContent()
	case "reset":
		c.ResetView()
	case "wait":
		if st.Frames > 0 {
			r.waitCount = st.Frames - 1 // this frame counts as one
		}
	}

	if r.cursor >= len(r.steps) && r.waitCount == 0 && len(c.injectQueue) == 0 {
		r.done = true
	}
}

func (r *ScriptRunner) fail(err error) {
	if r.err == nil {
		r.err = err
	}
}
