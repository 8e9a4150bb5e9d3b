package canopy

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Minimum usable block size in world units.
const (
	MinBlockWidth  = 150.0
	MinBlockHeight = 100.0
)

// BlockID identifies a block for its whole lifetime.
type BlockID string

func newBlockID() BlockID {
	return BlockID(uuid.NewString())
}

// Block is a positioned, resizable content card on the canvas. Content is an
// opaque payload owned by the content renderer for Kind.
type Block struct {
	ID        BlockID         `json:"id"`
	Kind      Kind            `json:"kind"`
	Position  Vec2            `json:"position"`
	Size      Vec2            `json:"size"`
	Content   json.RawMessage `json:"content,omitempty"`
	Title     string          `json:"title,omitempty"`
	Color     Color           `json:"color"`
	Locked    bool            `json:"locked"`
	Hidden    bool            `json:"hidden"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// Bounds returns the block's world-space rectangle.
func (b Block) Bounds() Rect {
	return Rect{X: b.Position.X, Y: b.Position.Y, Width: b.Size.X, Height: b.Size.Y}
}

// Center returns the block's geometric center in world space.
func (b Block) Center() Vec2 {
	return b.Bounds().Center()
}

// clone returns a copy that shares no mutable memory with b.
func (b Block) clone() Block {
	if b.Content != nil {
		b.Content = append(json.RawMessage(nil), b.Content...)
	}
	return b
}

// BlockPatch is a partial update. Nil fields are left unchanged.
type BlockPatch struct {
	Position *Vec2          `json:"position,omitempty"`
	Size     *Vec2          `json:"size,omitempty"`
	Content  json.RawMessage `json:"content,omitempty"`
	Title    *string        `json:"title,omitempty"`
	Color    *Color         `json:"color,omitempty"`
	Locked   *bool          `json:"locked,omitempty"`
	Hidden   *bool          `json:"hidden,omitempty"`
}

// geometric reports whether the patch touches position or size.
func (p BlockPatch) geometric() bool {
	return p.Position != nil || p.Size != nil
}

// empty reports whether the patch changes nothing.
func (p BlockPatch) empty() bool {
	return !p.geometric() && p.Content == nil && p.Title == nil &&
		p.Color == nil && p.Locked == nil && p.Hidden == nil
}

// KindDefaults holds the size, accent color and initial content a new block
// of a kind starts with.
type KindDefaults struct {
	Size    Vec2
	Color   Color
	Content json.RawMessage
}

// DefaultKinds is the built-in per-kind default table.
var DefaultKinds = map[Kind]KindDefaults{
	KindNote:      {Size: Vec2{300, 200}, Color: MustColor("#fef3c7"), Content: json.RawMessage(`{"text":""}`)},
	KindTaskBoard: {Size: Vec2{400, 300}, Color: MustColor("#dbeafe"), Content: json.RawMessage(`{"columns":[]}`)},
	KindCode:      {Size: Vec2{420, 260}, Color: MustColor("#1f2937"), Content: json.RawMessage(`{"language":"go","source":""}`)},
	KindImage:     {Size: Vec2{320, 240}, Color: MustColor("#e5e7eb"), Content: json.RawMessage(`{"src":""}`)},
	KindLink:      {Size: Vec2{300, 120}, Color: MustColor("#dcfce7"), Content: json.RawMessage(`{"url":""}`)},
	KindTag:       {Size: Vec2{150, 100}, Color: MustColor("#fce7f3"), Content: json.RawMessage(`{"label":""}`)},
}

// clampSize enforces the minimum block size.
func clampSize(s Vec2) Vec2 {
	if s.X < MinBlockWidth {
		s.X = MinBlockWidth
	}
	if s.Y < MinBlockHeight {
		s.Y = MinBlockHeight
	}
	return s
}
