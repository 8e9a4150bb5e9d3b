package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/phanxgames/canopy"
	"github.com/phanxgames/canopy/persist"
)

// Code is a machine-readable error code returned in error bodies.
type Code string

const (
	CodeInvalidInput Code = "INVALID_INPUT"
	CodeNotFound     Code = "NOT_FOUND"
	CodeForbidden    Code = "FORBIDDEN"
	CodeInternal     Code = "INTERNAL_ERROR"
)

// Error is a structured API error with an optional cause.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error { return e.Cause }

func newError(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

func wrapError(code Code, cause error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// classify maps engine and library errors onto API codes.
func classify(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	switch {
	case errors.Is(err, persist.ErrNotFound):
		return wrapError(CodeNotFound, err, "not found")
	case errors.Is(err, canopy.ErrReadOnly):
		return wrapError(CodeForbidden, err, "canvas is read-only")
	case errors.Is(err, canopy.ErrUnknownKind), errors.Is(err, canopy.ErrInvalidChord),
		errors.Is(err, canopy.ErrInvalidColor), errors.Is(err, persist.ErrInvalidBoard):
		return wrapError(CodeInvalidInput, err, "invalid input")
	default:
		return wrapError(CodeInternal, err, "internal error")
	}
}

func (c Code) status() int {
	switch c {
	case CodeInvalidInput:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

type errorBody struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}

func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	e := classify(err)
	msg := e.Message
	if e.Cause != nil && e.Code != CodeInternal {
		msg = e.Message + ": " + e.Cause.Error()
	}
	if e.Code == CodeInternal {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
	} else {
		s.logger.Debug("request rejected", "method", r.Method, "path", r.URL.Path, "code", e.Code, "err", err)
	}
	respondJSON(w, e.Code.status(), errorBody{Code: e.Code, Message: msg})
}
