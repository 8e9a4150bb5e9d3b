package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/phanxgames/canopy"
)

type createBlockRequest struct {
	Kind     string       `json:"kind"`
	Position *canopy.Vec2 `json:"position,omitempty"`
}

type selectionRequest struct {
	IDs []canopy.BlockID `json:"ids"`
}

type selectionResponse struct {
	Selection []canopy.BlockID `json:"selection"`
}

type batchRequest struct {
	Color string `json:"color,omitempty"`
}

type batchResponse struct {
	Performed bool             `json:"performed"`
	Selection []canopy.BlockID `json:"selection"`
}

type viewportRequest struct {
	Zoom *float64     `json:"zoom,omitempty"`
	Pan  *canopy.Vec2 `json:"pan,omitempty"`
}

type viewportResponse struct {
	Zoom float64     `json:"zoom"`
	Pan  canopy.Vec2 `json:"pan"`
}

type placementRequest struct {
	Kind string `json:"kind"`
}

type pointerRequest struct {
	Phase  string  `json:"phase"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Button string  `json:"button,omitempty"`
	Mods   string  `json:"mods,omitempty"`
}

type keyRequest struct {
	Chord   string `json:"chord"`
	Editing bool   `json:"editing,omitempty"`
}

type inputResponse struct {
	Handled   bool             `json:"handled"`
	Mode      canopy.Mode      `json:"mode"`
	Selection []canopy.BlockID `json:"selection"`
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	var snap canopy.Snapshot
	s.Do(func(c *canopy.Canvas) { snap = c.Snapshot() })
	respondJSON(w, http.StatusOK, snap)
}

func (s *Server) handleCreateBlock(w http.ResponseWriter, r *http.Request) {
	var req createBlockRequest
	if err := decode(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	kind, err := canopy.ParseKind(req.Kind)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	var b canopy.Block
	s.Do(func(c *canopy.Canvas) { b, err = c.AddBlock(kind, req.Position) })
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, b)
}

func (s *Server) handleUpdateBlock(w http.ResponseWriter, r *http.Request) {
	id := canopy.BlockID(chi.URLParam(r, "id"))
	var patch canopy.BlockPatch
	if err := decode(w, r, &patch); err != nil {
		s.respondError(w, r, err)
		return
	}
	if patch.Content != nil && !json.Valid(patch.Content) {
		s.respondError(w, r, newError(CodeInvalidInput, "content is not valid JSON"))
		return
	}
	var (
		b   canopy.Block
		err error
	)
	s.Do(func(c *canopy.Canvas) { b, err = c.UpdateBlock(id, patch) })
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if b.ID == "" {
		// Deleted or never existed: the update is dropped.
		w.WriteHeader(http.StatusNoContent)
		return
	}
	respondJSON(w, http.StatusOK, b)
}

func (s *Server) handleSetSelection(w http.ResponseWriter, r *http.Request) {
	var req selectionRequest
	if err := decode(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	var sel []canopy.BlockID
	s.Do(func(c *canopy.Canvas) {
		c.Select(req.IDs...)
		sel = c.Selection().All()
	})
	respondJSON(w, http.StatusOK, selectionResponse{Selection: nonNil(sel)})
}

func (s *Server) handleSelectAll(w http.ResponseWriter, r *http.Request) {
	var sel []canopy.BlockID
	s.Do(func(c *canopy.Canvas) {
		c.SelectAll()
		sel = c.Selection().All()
	})
	respondJSON(w, http.StatusOK, selectionResponse{Selection: nonNil(sel)})
}

func (s *Server) handleDeleteSelection(w http.ResponseWriter, r *http.Request) {
	var (
		n        int
		editable bool
	)
	s.Do(func(c *canopy.Canvas) {
		editable = c.Editable()
		n = c.DeleteSelected()
	})
	if !editable {
		s.respondError(w, r, canopy.ErrReadOnly)
		return
	}
	respondJSON(w, http.StatusOK, map[string]int{"deleted": n})
}

// handleBatch runs a command action by name, or "recolor" with a color
// body.
func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	op := strings.ToLower(chi.URLParam(r, "op"))
	var req batchRequest
	if err := decode(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	var run func(c *canopy.Canvas) bool
	if op == "recolor" {
		col, err := canopy.ParseColor(req.Color)
		if err != nil {
			s.respondError(w, r, err)
			return
		}
		run = func(c *canopy.Canvas) bool {
			if !c.Editable() || c.Selection().Len() == 0 {
				return false
			}
			c.RecolorSelected(col)
			return true
		}
	} else {
		action := canopy.Action(op)
		if !action.Valid() {
			s.respondError(w, r, newError(CodeInvalidInput, "unknown batch operation %q", op))
			return
		}
		run = func(c *canopy.Canvas) bool { return c.Perform(action) }
	}

	var resp batchResponse
	s.Do(func(c *canopy.Canvas) {
		resp.Performed = run(c)
		resp.Selection = nonNil(c.Selection().All())
	})
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSetViewport(w http.ResponseWriter, r *http.Request) {
	var req viewportRequest
	if err := decode(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	if req.Zoom != nil && *req.Zoom <= 0 {
		s.respondError(w, r, newError(CodeInvalidInput, "zoom must be positive"))
		return
	}
	var resp viewportResponse
	s.Do(func(c *canopy.Canvas) {
		if req.Zoom != nil {
			c.SetZoom(*req.Zoom)
		}
		if req.Pan != nil {
			c.SetPan(*req.Pan)
		}
		resp = viewportResponse{Zoom: c.Viewport().Zoom(), Pan: c.Viewport().Pan()}
	})
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleViewportOp(w http.ResponseWriter, r *http.Request) {
	var fn func(c *canopy.Canvas)
	switch op := chi.URLParam(r, "op"); op {
	case "reset":
		fn = (*canopy.Canvas).ResetView
	case "fit":
		fn = (*canopy.Canvas).FitToContent
	default:
		s.respondError(w, r, newError(CodeInvalidInput, "unknown viewport operation %q", op))
		return
	}
	var resp viewportResponse
	s.Do(func(c *canopy.Canvas) {
		fn(c)
		resp = viewportResponse{Zoom: c.Viewport().Zoom(), Pan: c.Viewport().Pan()}
	})
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleToggleGrid(w http.ResponseWriter, r *http.Request) {
	var grid bool
	s.Do(func(c *canopy.Canvas) {
		c.ToggleGrid()
		grid = c.GridVisible()
	})
	respondJSON(w, http.StatusOK, map[string]bool{"grid": grid})
}

func (s *Server) handlePlacement(w http.ResponseWriter, r *http.Request) {
	var req placementRequest
	if err := decode(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	kind, err := canopy.ParseKind(req.Kind)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	var resp inputResponse
	s.Do(func(c *canopy.Canvas) {
		c.RequestPlacement(kind)
		resp = s.inputState(c, c.Mode() == canopy.ModePlacing)
	})
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePointer(w http.ResponseWriter, r *http.Request) {
	var req pointerRequest
	if err := decode(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	button, err := parseButton(req.Button)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	mods, err := canopy.ParseModifiers(req.Mods)
	if err != nil {
		s.respondError(w, r, wrapError(CodeInvalidInput, err, "mods"))
		return
	}
	ev := canopy.PointerEvent{Screen: canopy.Vec2{X: req.X, Y: req.Y}, Button: button, Modifiers: mods}

	var fn func(c *canopy.Canvas)
	switch req.Phase {
	case "press":
		fn = func(c *canopy.Canvas) { c.PointerDown(ev) }
	case "move":
		fn = func(c *canopy.Canvas) { c.PointerMove(ev) }
	case "release":
		fn = func(c *canopy.Canvas) { c.PointerUp(ev) }
	case "dblclick":
		fn = func(c *canopy.Canvas) { c.DoubleClick(ev) }
	default:
		s.respondError(w, r, newError(CodeInvalidInput, "unknown pointer phase %q", req.Phase))
		return
	}

	var resp inputResponse
	s.Do(func(c *canopy.Canvas) {
		fn(c)
		resp = s.inputState(c, true)
	})
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleKey(w http.ResponseWriter, r *http.Request) {
	var req keyRequest
	if err := decode(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	var (
		resp inputResponse
		err  error
	)
	s.Do(func(c *canopy.Canvas) {
		var ev canopy.KeyEvent
		if ev, err = c.Keymap().Event(req.Chord); err != nil {
			return
		}
		ev.Editing = req.Editing
		resp = s.inputState(c, c.HandleKey(ev))
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	cl, err := s.hub.accept(w, r)
	if err != nil {
		// Upgrade has already written an HTTP error.
		s.logger.Debug("websocket upgrade failed", "err", err)
		return
	}
	var (
		first []byte
		ok    bool
	)
	s.Do(func(c *canopy.Canvas) {
		snap := c.Snapshot()
		first, err = json.Marshal(Message{Type: "snapshot", Snapshot: &snap})
		if err == nil {
			ok = s.hub.register(cl, first)
		}
	})
	if err != nil || !ok {
		cl.conn.Close()
		return
	}
	s.hub.run(cl)
}

func (s *Server) inputState(c *canopy.Canvas, handled bool) inputResponse {
	return inputResponse{
		Handled:   handled,
		Mode:      c.Mode(),
		Selection: nonNil(c.Selection().All()),
	}
}

func parseButton(s string) (canopy.MouseButton, error) {
	switch strings.ToLower(s) {
	case "", "left":
		return canopy.MouseButtonLeft, nil
	case "middle":
		return canopy.MouseButtonMiddle, nil
	case "right":
		return canopy.MouseButtonRight, nil
	default:
		return 0, newError(CodeInvalidInput, "unknown mouse button %q", s)
	}
}

func nonNil(ids []canopy.BlockID) []canopy.BlockID {
	if ids == nil {
		return []canopy.BlockID{}
	}
	return ids
}
