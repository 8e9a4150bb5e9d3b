// Package cli implements the canopy command-line interface.
//
// # Commands
//
//   - run: open a desktop window on a board
//   - serve: expose a board over HTTP and websocket
//   - replay: run a recorded interaction script headlessly
//   - boards: list stored boards
//   - version: print build information
//
// All commands accept --config to point at a TOML file and --verbose (-v)
// for debug logging.
package cli

import (
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

const appName = "canopy"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// SetVersion sets the build information shown by --version and the version
// command. main calls it with values injected via ldflags.
func SetVersion(v, c, d string) {
	version, commit, date = v, c, d
}

func versionTemplate() string {
	return fmt.Sprintf("{{.Name}} version %s\ncommit: %s\nbuilt: %s\n", version, commit, date)
}

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	verbose    bool
	cfg        AppConfig
}

// New creates a CLI logging to w at level.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Canopy is an infinite canvas of blocks",
		Long:         `Canopy is an infinite-canvas workspace: place, select, drag, resize and arrange content blocks, persisted to disk, redis or mongo, from a desktop window or over HTTP.`,
		Version:      version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup()
		},
	}
	root.SetVersionTemplate(versionTemplate())

	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "config file (default "+DefaultConfigPath+")")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")

	root.AddCommand(c.runCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.replayCommand())
	root.AddCommand(c.boardsCommand())
	root.AddCommand(c.versionCommand())

	return root
}

// setup loads the config and applies the log level. --verbose wins over the
// configured level.
func (c *CLI) setup() error {
	cfg, err := LoadAppConfig(c.configPath)
	if err != nil {
		return err
	}
	c.cfg = cfg
	level, err := log.ParseLevel(cfg.Log.Level)
	if err != nil {
		return fmt.Errorf("config: log level: %w", err)
	}
	if c.verbose {
		level = LogDebug
	}
	c.SetLogLevel(level)
	c.Logger.Debug("config loaded", "path", cfg.Path, "backend", cfg.Store.Backend)
	return nil
}

func (c *CLI) versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "%s version %s\ncommit: %s\nbuilt: %s\n", appName, version, commit, date)
			return err
		},
	}
}
