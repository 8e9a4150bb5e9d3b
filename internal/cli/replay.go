package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/phanxgames/canopy"
)

// defaultReplayFrames bounds a replay at one minute of 60Hz frames.
const defaultReplayFrames = 3600

func (c *CLI) replayCommand() *cobra.Command {
	var (
		opts   sessionOptions
		frames int
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "replay <script.json>",
		Short: "Run an interaction script without a window",
		Long: `Run a recorded interaction script against a board without opening a window.
By default the script runs on an empty scratch canvas; pass --board to run it
against a stored board and save the result.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read script: %w", err)
			}
			runner, err := canopy.LoadScript(data)
			if err != nil {
				return err
			}

			opts.ephemeral = opts.board == ""
			s, err := c.openSession(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer func() {
				if cerr := s.close(); err == nil {
					err = cerr
				}
			}()

			prog := newProgress(c.Logger)
			if err := s.canvas.RunScript(runner, frames); err != nil {
				return err
			}
			snap := s.canvas.Snapshot()
			prog.done("replayed", "script", args[0], "blocks", len(snap.Blocks), "selected", len(snap.Selection))

			if !asJSON {
				return nil
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(snap)
		},
	}
	cmd.Flags().StringVarP(&opts.board, "board", "b", "", "run against a stored board and save it")
	cmd.Flags().IntVar(&frames, "max-frames", defaultReplayFrames, "give up after this many frames")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the final canvas snapshot as JSON")
	return cmd
}
