package cli

import (
	"github.com/spf13/cobra"

	"github.com/phanxgames/canopy/server"
)

func (c *CLI) serveCommand() *cobra.Command {
	var (
		opts sessionOptions
		addr string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a board over HTTP and websocket",
		Long: `Serve a board over HTTP. The JSON API under /api mutates the canvas and
/api/ws streams every change to connected clients.`,
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

			if addr == "" {
				addr = c.cfg.Server.Addr
			}
			srv := server.New(s.canvas, c.Logger.WithPrefix("http"))
			defer srv.Close()
			return srv.Run(ctx, addr)
		},
	}
	cmd.Flags().StringVarP(&opts.board, "board", "b", "", "board to serve (default from config)")
	cmd.Flags().BoolVar(&opts.readOnly, "read-only", false, "reject edits")
	cmd.Flags().BoolVar(&opts.ephemeral, "no-store", false, "start empty and save nothing")
	cmd.Flags().StringVarP(&addr, "addr", "a", "", "listen address (default from config)")
	return cmd
}
