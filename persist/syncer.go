package persist

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/phanxgames/canopy"
)

// DefaultWriteTimeout bounds each backend call made by a Syncer.
const DefaultWriteTimeout = 5 * time.Second

// Syncer mirrors a canvas store into a Backend. It is a canopy.Observer:
// every change is written through synchronously on the goroutine that
// mutated the store. Write failures are logged and counted, never returned
// to the engine.
type Syncer struct {
	backend Backend
	board   string
	logger  *log.Logger
	timeout time.Duration

	store    *canopy.Store
	handle   canopy.CallbackHandle
	loading  bool
	failures int
}

// NewSyncer creates a syncer for board. A nil logger discards output.
func NewSyncer(backend Backend, board string, logger *log.Logger) *Syncer {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Syncer{
		backend: backend,
		board:   board,
		logger:  logger.With("board", board),
		timeout: DefaultWriteTimeout,
	}
}

// SetTimeout changes the per-call write timeout.
func (s *Syncer) SetTimeout(d time.Duration) { s.timeout = d }

// Board returns the board name this syncer writes to.
func (s *Syncer) Board() string { return s.board }

// Failures returns how many backend writes have failed.
func (s *Syncer) Failures() int { return s.failures }

// Attach loads the board into c, then subscribes to its store. A board that
// does not exist yet starts empty.
func (s *Syncer) Attach(ctx context.Context, c *canopy.Canvas) error {
	if err := ValidateBoard(s.board); err != nil {
		return err
	}
	blocks, err := s.backend.Load(ctx, s.board)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	s.Detach()
	s.store = c.Store()
	s.loading = true
	c.Load(blocks)
	s.loading = false
	s.handle = s.store.Subscribe(s)
	s.logger.Info("board attached", "blocks", len(blocks))
	return nil
}

// Detach stops mirroring. Safe to call more than once.
func (s *Syncer) Detach() {
	s.handle.Remove()
	s.handle = canopy.CallbackHandle{}
	s.store = nil
}

// Flush writes every block and the z-order, replacing what the backend has
// for blocks that still exist.
func (s *Syncer) Flush(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	for _, b := range s.store.All() {
		if err := s.backend.Put(ctx, s.board, b); err != nil {
			return err
		}
	}
	return s.backend.SaveOrder(ctx, s.board, s.store.Order())
}

// BlockChanged implements canopy.Observer.
func (s *Syncer) BlockChanged(ev canopy.ChangeEvent) {
	if s.loading {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	var err error
	switch ev.Type {
	case canopy.ChangeCreated:
		if err = s.backend.Put(ctx, s.board, *ev.Block); err == nil {
			err = s.saveOrder(ctx)
		}
	case canopy.ChangeUpdated:
		err = s.backend.Put(ctx, s.board, *ev.Block)
	case canopy.ChangeRemoved:
		if err = s.backend.Delete(ctx, s.board, ev.IDs...); err == nil {
			err = s.saveOrder(ctx)
		}
	case canopy.ChangeReordered:
		err = s.backend.SaveOrder(ctx, s.board, ev.Order)
	case canopy.ChangeLoaded:
		err = s.replace(ctx)
	}
	if err != nil {
		s.failures++
		s.logger.Error("persist failed", "change", ev.Type, "err", err)
		return
	}
	s.logger.Debug("persisted", "change", ev.Type)
}

func (s *Syncer) saveOrder(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	return s.backend.SaveOrder(ctx, s.board, s.store.Order())
}

// replace makes the backend match the store after a wholesale Load.
func (s *Syncer) replace(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	stored, err := s.backend.Load(ctx, s.board)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	var stale []canopy.BlockID
	for _, b := range stored {
		if !s.store.Has(b.ID) {
			stale = append(stale, b.ID)
		}
	}
	if len(stale) > 0 {
		if err := s.backend.Delete(ctx, s.board, stale...); err != nil {
			return err
		}
	}
	return s.Flush(ctx)
}
