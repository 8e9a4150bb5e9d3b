package canopy

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Duration is a time.Duration that decodes from strings such as "10s".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Config configures a Canvas. The zero value is not meaningful; start from
// DefaultConfig and override.
type Config struct {
	Canvas   CanvasConfig          `toml:"canvas"`
	Viewport ViewportConfig        `toml:"viewport"`
	Kinds    map[string]KindConfig `toml:"kinds"`
	// Keys maps chords to actions on top of DefaultBindings. An action of
	// "none" removes the chord.
	Keys map[string]string `toml:"keys"`
}

// CanvasConfig holds interaction settings.
type CanvasConfig struct {
	Editable        bool     `toml:"editable"`
	Grid            bool     `toml:"grid"`
	ToolbarTimeout  Duration `toml:"toolbar_timeout"`
	DuplicateOffset float64  `toml:"duplicate_offset"`
	// MultiSelectModifier toggles membership on click and pans on empty
	// space. One of shift, ctrl, alt, meta.
	MultiSelectModifier string `toml:"multi_select_modifier"`
	// PrimaryModifier is what "Mod" means in chords: auto, ctrl or meta.
	PrimaryModifier string `toml:"primary_modifier"`
}

// ViewportConfig holds the initial screen size and fit margin.
type ViewportConfig struct {
	Width      float64 `toml:"width"`
	Height     float64 `toml:"height"`
	FitPadding float64 `toml:"fit_padding"`
}

// KindConfig overrides the defaults of one block kind. Zero fields keep the
// built-in value.
type KindConfig struct {
	Width   float64 `toml:"width"`
	Height  float64 `toml:"height"`
	Color   string  `toml:"color"`
	Content string  `toml:"content"`
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() Config {
	return Config{
		Canvas: CanvasConfig{
			Editable:            true,
			Grid:                true,
			ToolbarTimeout:      Duration{DefaultToolbarTimeout},
			DuplicateOffset:     DefaultDuplicateOffset.X,
			MultiSelectModifier: "shift",
			PrimaryModifier:     "auto",
		},
		Viewport: ViewportConfig{
			Width:      1280,
			Height:     800,
			FitPadding: DefaultFitPadding,
		},
	}
}

// ParseConfig decodes TOML over DefaultConfig and validates the result.
// Keys the canvas does not know are ignored so the same file can carry
// host settings.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfig reads and parses a TOML config file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	return ParseConfig(data)
}

// Validate checks every field that NewFromConfig would reject.
func (c Config) Validate() error {
	if c.Viewport.Width < 0 || c.Viewport.Height < 0 {
		return fmt.Errorf("config: viewport size must not be negative")
	}
	if c.Viewport.FitPadding < 0 {
		return fmt.Errorf("config: fit_padding must not be negative")
	}
	if c.Canvas.ToolbarTimeout.Duration < 0 {
		return fmt.Errorf("config: toolbar_timeout must not be negative")
	}
	if _, err := c.multiSelect(); err != nil {
		return err
	}
	if _, err := c.KindDefaults(); err != nil {
		return err
	}
	if _, err := c.Keymap(); err != nil {
		return err
	}
	return nil
}

func (c Config) multiSelect() (KeyModifiers, error) {
	if c.Canvas.MultiSelectModifier == "" {
		return ModShift, nil
	}
	m, err := parseModifier(c.Canvas.MultiSelectModifier)
	if err != nil {
		return 0, fmt.Errorf("config: multi_select_modifier: %w", err)
	}
	return m, nil
}

func (c Config) primary() (KeyModifiers, error) {
	switch strings.ToLower(c.Canvas.PrimaryModifier) {
	case "", "auto":
		return PlatformPrimary(), nil
	case "ctrl", "control":
		return ModCtrl, nil
	case "meta", "cmd", "command":
		return ModMeta, nil
	default:
		return 0, fmt.Errorf("config: primary_modifier %q: want auto, ctrl or meta", c.Canvas.PrimaryModifier)
	}
}

// KindDefaults merges the [kinds] overrides onto DefaultKinds.
func (c Config) KindDefaults() (map[Kind]KindDefaults, error) {
	out := make(map[Kind]KindDefaults, len(DefaultKinds))
	for k, d := range DefaultKinds {
		out[k] = d
	}
	for name, kc := range c.Kinds {
		k, err := ParseKind(name)
		if err != nil {
			return nil, fmt.Errorf("config: kinds.%s: %w", name, err)
		}
		d := out[k]
		if kc.Width > 0 {
			d.Size.X = kc.Width
		}
		if kc.Height > 0 {
			d.Size.Y = kc.Height
		}
		if kc.Color != "" {
			col, err := ParseColor(kc.Color)
			if err != nil {
				return nil, fmt.Errorf("config: kinds.%s.color: %w", name, err)
			}
			d.Color = col
		}
		if kc.Content != "" {
			if !json.Valid([]byte(kc.Content)) {
				return nil, fmt.Errorf("config: kinds.%s.content: not valid JSON", name)
			}
			d.Content = json.RawMessage(kc.Content)
		}
		d.Size = clampSize(d.Size)
		out[k] = d
	}
	return out, nil
}

// Keymap builds the keymap: DefaultBindings, then the [keys] table.
func (c Config) Keymap() (*Keymap, error) {
	primary, err := c.primary()
	if err != nil {
		return nil, err
	}
	km := DefaultKeymap(primary)
	for chord, action := range c.Keys {
		if action == "none" || action == "" {
			if err := km.Unbind(chord); err != nil {
				return nil, fmt.Errorf("config: keys: %w", err)
			}
			continue
		}
		if err := km.Bind(chord, Action(action)); err != nil {
			return nil, fmt.Errorf("config: keys: %w", err)
		}
	}
	return km, nil
}
