// Package server exposes a canvas over HTTP and streams its changes over a
// websocket.
//
// Every handler runs with exclusive access to the canvas, so the
// single-threaded engine is never touched by two requests at once. A tick
// loop advances the canvas clock (viewport tweens, toolbar timer, injected
// input) under the same lock.
//
// Routes:
//
//	GET    /api/canvas              snapshot
//	POST   /api/blocks              add a block
//	PATCH  /api/blocks/{id}         update a block (204 when it no longer exists)
//	PUT    /api/selection           replace the selection
//	POST   /api/selection/all       select all
//	DELETE /api/selection           delete selected blocks
//	POST   /api/batch/{op}          run a batch operation or command action
//	PUT    /api/viewport            set zoom and/or pan
//	POST   /api/viewport/{op}       reset or fit
//	POST   /api/grid/toggle         toggle grid
//	POST   /api/placement           enter placement mode
//	POST   /api/events/pointer      feed a pointer event
//	POST   /api/events/key          feed a key chord
//	GET    /api/ws                  websocket change stream
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/phanxgames/canopy"
)

// DefaultTickRate is how often Run advances the canvas clock.
const DefaultTickRate = 60

const maxBodyBytes = 1 << 20

// Server serializes HTTP access to one canvas.
type Server struct {
	mu     sync.Mutex
	canvas *canopy.Canvas
	hub    *Hub
	logger *log.Logger
	router chi.Router
	handle canopy.CallbackHandle
}

// New wraps c. A nil logger discards output.
func New(c *canopy.Canvas, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	s := &Server{
		canvas: c,
		logger: logger,
		hub:    newHub(logger),
	}
	s.handle = c.Store().Subscribe(s.hub)
	s.router = s.routes()
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// Hub returns the websocket hub.
func (s *Server) Hub() *Hub { return s.hub }

// Do runs fn with exclusive access to the canvas.
func (s *Server) Do(fn func(c *canopy.Canvas)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.canvas)
}

// Tick advances the canvas by dt seconds.
func (s *Server) Tick(dt float32) {
	s.Do(func(c *canopy.Canvas) { c.Update(dt) })
}

// Close unsubscribes from the canvas and disconnects subscribers.
func (s *Server) Close() {
	s.Do(func(*canopy.Canvas) { s.handle.Remove() })
	s.hub.Close()
}

// Run serves on addr and ticks the canvas until ctx is done, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	interval := time.Second / DefaultTickRate
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	last := time.Now()
	for {
		select {
		case err := <-errc:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("serve %s: %w", addr, err)
		case now := <-ticker.C:
			s.Tick(float32(now.Sub(last).Seconds()))
			last = now
		case <-ctx.Done():
			s.logger.Info("shutting down")
			s.hub.Close()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return err
			}
			return ctx.Err()
		}
	}
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Get("/canvas", s.handleSnapshot)

		r.Post("/blocks", s.handleCreateBlock)
		r.Patch("/blocks/{id}", s.handleUpdateBlock)

		r.Put("/selection", s.handleSetSelection)
		r.Post("/selection/all", s.handleSelectAll)
		r.Delete("/selection", s.handleDeleteSelection)

		r.Post("/batch/{op}", s.handleBatch)

		r.Put("/viewport", s.handleSetViewport)
		r.Post("/viewport/{op}", s.handleViewportOp)
		r.Post("/grid/toggle", s.handleToggleGrid)
		r.Post("/placement", s.handlePlacement)

		r.Post("/events/pointer", s.handlePointer)
		r.Post("/events/key", s.handleKey)

		r.Get("/ws", s.handleWebsocket)
	})
	return r
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"took", time.Since(start),
			"id", middleware.GetReqID(r.Context()),
		)
	})
}

// decode reads a JSON body into v. An empty body leaves v untouched.
func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return wrapError(CodeInvalidInput, err, "decode request body")
	}
	return nil
}
