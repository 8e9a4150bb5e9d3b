package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (c *CLI) boardsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "boards",
		Short: "List boards in the configured store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			backend, err := openBackend(ctx, c.cfg.Store)
			if err != nil {
				return err
			}
			defer backend.Close()

			boards, err := backend.Boards(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, b := range boards {
				blocks, err := backend.Load(ctx, b)
				if err != nil {
					return fmt.Errorf("board %s: %w", b, err)
				}
				fmt.Fprintf(out, "%s\t%d blocks\n", b, len(blocks))
			}
			return nil
		},
	}
}
