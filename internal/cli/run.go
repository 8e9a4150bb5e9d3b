package cli

import (
	"github.com/spf13/cobra"

	"github.com/phanxgames/canopy/ebitenview"
)

func (c *CLI) runCommand() *cobra.Command {
	var (
		opts sessionOptions
		hud  bool
		shot string
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Open a board in a desktop window",
		Long: `Open a board in a desktop window. Edits are saved to the configured store as they happen.

Keys: Mod+A select all, Mod+D duplicate, Delete remove, Mod+= / Mod+- zoom,
Mod+0 reset view, Mod+1 fit to content, Escape cancel. F3 toggles the HUD and
F12 saves a screenshot.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			ctx := cmd.Context()
			s, err := c.openSession(ctx, opts)
			if err != nil {
				return err
			}
			defer func() {
				if cerr := s.close(); err == nil {
					err = cerr
				}
			}()

			vp := c.cfg.Canvas.Viewport
			g := ebitenview.New(s.canvas, ebitenview.Options{
				Width:         int(vp.Width),
				Height:        int(vp.Height),
				Title:         appName + " - " + s.boardName(),
				ScreenshotDir: shot,
				ShowHUD:       hud,
				Logger:        c.Logger.WithPrefix("view"),
				Done:          ctx.Done(),
			})
			if err := ebitenview.Run(g); err != nil {
				return err
			}
			return ctx.Err()
		},
	}
	cmd.Flags().StringVarP(&opts.board, "board", "b", "", "board to open (default from config)")
	cmd.Flags().BoolVar(&opts.readOnly, "read-only", false, "view without editing")
	cmd.Flags().BoolVar(&opts.ephemeral, "no-store", false, "start empty and save nothing")
	cmd.Flags().BoolVar(&hud, "hud", false, "show the frame-rate overlay")
	cmd.Flags().StringVar(&shot, "screenshot-dir", ebitenview.DefaultScreenshotDir, "where F12 screenshots are written")
	return cmd
}
