package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/mitchellh/go-homedir"

	"github.com/phanxgames/canopy"
	"github.com/phanxgames/canopy/persist"
)

const testScript = `{"steps": [
	{"action": "place", "kind": "note"},
	{"action": "click", "x": 100, "y": 100},
	{"action": "key", "chord": "Mod+D"}
]}`

func writeFile(t *testing.T, dir, name, data string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// execute runs the root command with args and returns stdout and the log.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, logs bytes.Buffer
	c := New(&logs, LogInfo)
	root := c.RootCommand()
	root.SetArgs(args)
	root.SetOut(&out)
	root.SetErr(&logs)
	err := root.ExecuteContext(context.Background())
	return out.String(), logs.String(), err
}

func diskConfig(t *testing.T, dir string) string {
	t.Helper()
	store := filepath.Join(dir, "store")
	return writeFile(t, dir, "config.toml", fmt.Sprintf("[store]\nbackend = \"diskv\"\ndir = %q\n", store))
}

func TestParseAppConfig(t *testing.T) {
	cfg, err := ParseAppConfig([]byte(`
[canvas]
editable = false

[store]
backend = "redis"
addr = "cache:6379"

[log]
level = "debug"
`))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Canvas.Canvas.Editable {
		t.Error("canvas table not applied")
	}
	if cfg.Store.Backend != BackendRedis || cfg.Store.Addr != "cache:6379" {
		t.Errorf("store = %+v", cfg.Store)
	}
	if cfg.Store.Board != persist.DefaultBoard || cfg.Server.Addr != ":8080" {
		t.Error("defaults lost")
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("log level = %q", cfg.Log.Level)
	}
}

func TestParseAppConfigInvalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"backend", "[store]\nbackend = \"sqlite\""},
		{"board", "[store]\nboard = \"a/b\""},
		{"server addr", "[server]\naddr = \"\""},
		{"canvas", "[canvas]\nmulti_select_modifier = \"hyper\""},
		{"syntax", "[store"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseAppConfig([]byte(tt.data)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoadAppConfigMissing(t *testing.T) {
	homedir.DisableCache = true
	t.Cleanup(func() { homedir.DisableCache = false })
	t.Setenv("HOME", t.TempDir())

	cfg, err := LoadAppConfig("")
	if err != nil {
		t.Fatalf("missing default config should not fail: %v", err)
	}
	if cfg.Path != "" || cfg.Store.Backend != BackendDisk {
		t.Errorf("cfg = %+v", cfg)
	}

	if _, err := LoadAppConfig(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Error("explicit missing config should fail")
	}
}

func TestOpenBackendMemory(t *testing.T) {
	b, err := openBackend(context.Background(), StoreConfig{Backend: BackendMemory})
	if err != nil {
		t.Fatal(err)
	}
	defer b.Close()
	if _, ok := b.(*persist.Memory); !ok {
		t.Errorf("backend = %T", b)
	}
}

func TestVersionCommand(t *testing.T) {
	SetVersion("v1.2.3", "abc123", "2026-01-01")
	t.Cleanup(func() { SetVersion("dev", "none", "unknown") })

	dir := t.TempDir()
	out, _, err := execute(t, "--config", diskConfig(t, dir), "version")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "canopy version v1.2.3") || !strings.Contains(out, "commit: abc123") {
		t.Errorf("version output = %q", out)
	}
}

func TestBadLogLevel(t *testing.T) {
	dir := t.TempDir()
	cfg := writeFile(t, dir, "config.toml", "[log]\nlevel = \"loud\"\n")
	if _, _, err := execute(t, "--config", cfg, "version"); err == nil {
		t.Error("expected error for unknown log level")
	}
}

func TestReplayScratch(t *testing.T) {
	dir := t.TempDir()
	script := writeFile(t, dir, "script.json", testScript)

	out, logs, err := execute(t, "--config", diskConfig(t, dir), "replay", script, "--json")
	if err != nil {
		t.Fatal(err)
	}
	var snap struct {
		Blocks    []json.RawMessage `json:"blocks"`
		Selection []string          `json:"selection"`
	}
	if err := json.Unmarshal([]byte(out), &snap); err != nil {
		t.Fatalf("snapshot output: %v\n%s", err, out)
	}
	if len(snap.Blocks) != 2 || len(snap.Selection) != 1 {
		t.Errorf("blocks %d selection %d", len(snap.Blocks), len(snap.Selection))
	}
	if !strings.Contains(logs, "replayed") {
		t.Errorf("log lacks summary: %q", logs)
	}
	if _, err := os.Stat(filepath.Join(dir, "store")); !os.IsNotExist(err) {
		t.Error("scratch replay touched the store")
	}
}

func TestReplayBoardThenList(t *testing.T) {
	dir := t.TempDir()
	cfg := diskConfig(t, dir)
	script := writeFile(t, dir, "script.json", testScript)

	if _, _, err := execute(t, "--config", cfg, "replay", script, "--board", "demo"); err != nil {
		t.Fatal(err)
	}

	disk, err := persist.NewDisk(filepath.Join(dir, "store"))
	if err != nil {
		t.Fatal(err)
	}
	blocks, err := disk.Load(context.Background(), "demo")
	if err != nil {
		t.Fatal(err)
	}
	if len(blocks) != 2 || blocks[0].Kind != canopy.KindNote {
		t.Fatalf("saved %d blocks", len(blocks))
	}

	out, _, err := execute(t, "--config", cfg, "boards")
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out) != "demo\t2 blocks" {
		t.Errorf("boards output = %q", out)
	}
}

func TestReplayBadScript(t *testing.T) {
	dir := t.TempDir()
	script := writeFile(t, dir, "script.json", `{"steps": [{"action": "fly"}]}`)
	if _, _, err := execute(t, "--config", diskConfig(t, dir), "replay", script); err == nil {
		t.Error("expected error for unknown action")
	}
}

func TestNewLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger(&buf, log.InfoLevel)
	l.Debug("hidden")
	if buf.Len() != 0 {
		t.Error("debug written at info level")
	}
	l.Info("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Errorf("info missing: %q", buf.String())
	}
}

func TestProgressDone(t *testing.T) {
	var buf bytes.Buffer
	newProgress(newLogger(&buf, log.InfoLevel)).done("finished", "n", 3)
	if got := buf.String(); !strings.Contains(got, "finished") || !strings.Contains(got, "took=") {
		t.Errorf("progress output = %q", got)
	}
}
