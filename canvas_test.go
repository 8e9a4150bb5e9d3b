package canopy

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestAddBlockCentersWithoutPosition(t *testing.T) {
	c := New()
	c.Viewport().SetSize(800, 600)
	b, err := c.AddBlock(KindNote, nil)
	if err != nil {
		t.Fatal(err)
	}
	if b.Position != (Vec2{250, 200}) {
		t.Errorf("Position = %v, want (250,200)", b.Position)
	}
	if !c.Selection().Equal([]BlockID{b.ID}) {
		t.Error("new block should be selected")
	}
}

func TestAddBlockUnknownKind(t *testing.T) {
	c := New()
	if _, err := c.AddBlock("widget", nil); !errors.Is(err, ErrUnknownKind) {
		t.Errorf("err = %v, want ErrUnknownKind", err)
	}
}

func TestUpdateBlock(t *testing.T) {
	c := New()
	b, _ := c.AddBlock(KindNote, &Vec2{0, 0})
	content := json.RawMessage(`{"text":"hello"}`)
	got, err := c.UpdateBlock(b.ID, BlockPatch{Content: content})
	if err != nil {
		t.Fatal(err)
	}
	if string(got.Content) != string(content) {
		t.Errorf("Content = %s", got.Content)
	}
	got, err = c.UpdateBlock("missing", BlockPatch{Content: content})
	if err != nil || got.ID != "" {
		t.Errorf("unknown id: got %+v, err %v; want silent no-op", got, err)
	}
	if c.Store().Len() != 1 {
		t.Errorf("Len = %d after unknown update", c.Store().Len())
	}
}

func TestSnapshot(t *testing.T) {
	c := New()
	b, _ := c.AddBlock(KindTag, &Vec2{1, 2})
	c.SetZoom(2)
	snap := c.Snapshot()
	if len(snap.Blocks) != 1 || snap.Blocks[0].ID != b.ID {
		t.Errorf("Blocks = %+v", snap.Blocks)
	}
	if snap.Zoom != 2 || snap.Mode != ModeIdle || !snap.ToolbarVisible || !snap.Editable {
		t.Errorf("snapshot = %+v", snap)
	}

	data, err := json.Marshal(snap)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"mode":"idle"`) || !strings.Contains(string(data), `"kind":"tag"`) {
		t.Errorf("json = %s", data)
	}
}

func TestLoadCancelsAndEvicts(t *testing.T) {
	c, fc := newTestCanvas(t)
	a, _ := c.AddBlock(KindNote, &Vec2{0, 0})
	c.PointerDown(at(10, 10))
	c.Load([]Block{{ID: "other", Kind: KindNote}})
	if c.Mode() != ModeIdle {
		t.Errorf("Mode = %v", c.Mode())
	}
	checkCapture(t, c, fc)
	if c.Selection().Has(a.ID) || c.Store().Has(a.ID) {
		t.Error("stale block survived Load")
	}
}

func TestFitToContentViaCanvas(t *testing.T) {
	c := New()
	c.AddBlock(KindNote, &Vec2{0, 0})
	c.AddBlock(KindNote, &Vec2{5000, 5000})
	c.FitToContent()
	if c.Viewport().Zoom() >= 1 {
		t.Errorf("Zoom = %f, want < 1", c.Viewport().Zoom())
	}
	c.ResetView()
	if c.Viewport().Zoom() != 1 {
		t.Error("ResetView did not restore zoom")
	}
}

func TestLoggerReceivesModeChanges(t *testing.T) {
	var buf bytes.Buffer
	c := New()
	c.SetLogger(log.NewWithOptions(&buf, log.Options{Level: log.DebugLevel}))
	c.RequestPlacement(KindNote)
	c.PointerDown(at(0, 0))
	out := buf.String()
	if !strings.Contains(out, "mode") || !strings.Contains(out, "placing") {
		t.Errorf("log output missing mode transition: %q", out)
	}
	if !strings.Contains(out, "canopy") {
		t.Errorf("log output missing prefix: %q", out)
	}
}

func TestDebugChecksStayQuiet(t *testing.T) {
	var buf bytes.Buffer
	c := New()
	c.SetLogger(log.NewWithOptions(&buf, log.Options{Level: log.WarnLevel}))
	c.SetDebug(true)

	a, _ := c.AddBlock(KindNote, &Vec2{0, 0})
	c.AddBlock(KindNote, &Vec2{400, 0})
	c.SelectAll()
	c.DuplicateSelected()
	c.Select(a.ID)
	c.DeleteSelected()
	c.SelectAll()
	c.AlignSelected(AlignTop)

	if buf.Len() != 0 {
		t.Errorf("invariant warnings: %s", buf.String())
	}
}
