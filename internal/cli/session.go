package cli

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/phanxgames/canopy"
	"github.com/phanxgames/canopy/persist"
)

const closeTimeout = 5 * time.Second

// session is a canvas bound to a board in the configured store.
type session struct {
	canvas  *canopy.Canvas
	backend persist.Backend
	syncer  *persist.Syncer
	logger  *log.Logger
}

type sessionOptions struct {
	board    string
	readOnly bool
	// ephemeral skips the store entirely.
	ephemeral bool
}

// openSession builds a canvas from the loaded config and, unless ephemeral,
// attaches it to its board.
func (c *CLI) openSession(ctx context.Context, opts sessionOptions) (*session, error) {
	canvas, err := canopy.NewFromConfig(c.cfg.Canvas)
	if err != nil {
		return nil, err
	}
	canvas.SetLogger(c.Logger.WithPrefix("canvas"))
	if opts.readOnly {
		canvas.SetEditable(false)
	}
	s := &session{canvas: canvas, logger: c.Logger}
	if opts.ephemeral {
		return s, nil
	}

	board := opts.board
	if board == "" {
		board = c.cfg.Store.Board
	}
	backend, err := openBackend(ctx, c.cfg.Store)
	if err != nil {
		return nil, err
	}
	syncer := persist.NewSyncer(backend, board, c.Logger.WithPrefix("store"))
	if err := syncer.Attach(ctx, canvas); err != nil {
		backend.Close()
		return nil, err
	}
	s.backend, s.syncer = backend, syncer
	return s, nil
}

// close flushes the board and releases the store. It runs on a fresh
// context so a cancelled command still saves.
func (s *session) close() error {
	if s.syncer == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()
	err := s.syncer.Flush(ctx)
	s.syncer.Detach()
	if cerr := s.backend.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		s.logger.Info("board saved", "board", s.syncer.Board(), "blocks", s.canvas.Store().Len())
	}
	return err
}

// boardName returns the attached board, or "scratch" without a store.
func (s *session) boardName() string {
	if s.syncer == nil {
		return "scratch"
	}
	return s.syncer.Board()
}
