package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/leapstack-labs/calckit/internal/engine"
	"github.com/leapstack-labs/calckit/pkg/arith"
)

const maxBodyBytes = 1 << 20

type opResponse struct {
	Name        string   `json:"name"`
	Aliases     []string `json:"aliases,omitempty"`
	Arity       int      `json:"arity"`
	Usage       string   `json:"usage"`
	Description string   `json:"description"`
}

type evalResponse struct {
	ID     string           `json:"id,omitempty"`
	Op     string           `json:"op"`
	Args   []engine.Operand `json:"args"`
	Result engine.Operand   `json:"result"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleOps(w http.ResponseWriter, _ *http.Request) {
	ops := engine.Ops()
	resp := make([]opResponse, len(ops))
	for i, op := range ops {
		resp[i] = opResponse{
			Name:        op.Name,
			Aliases:     op.Aliases,
			Arity:       op.Arity,
			Usage:       op.Usage,
			Description: op.Description,
		}
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleEvalQuery(w http.ResponseWriter, r *http.Request) {
	req := engine.Request{
		Op:   chi.URLParam(r, "op"),
		Args: r.URL.Query()["arg"],
	}
	s.evaluate(w, r, req)
}

func (s *Server) handleEvalBody(w http.ResponseWriter, r *http.Request) {
	var req engine.Request
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	s.evaluate(w, r, req)
}

func (s *Server) evaluate(w http.ResponseWriter, r *http.Request, req engine.Request) {
	res, err := s.engine.Evaluate(r.Context(), req)
	if err != nil {
		s.writeError(w, statusFor(err), err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, evalResponse{
		ID:     res.ID,
		Op:     res.Op,
		Args:   res.Args,
		Result: res.Value,
	})
}

// statusFor maps evaluation errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, arith.ErrInvalidArgument),
		errors.Is(err, engine.ErrOutOfRange):
		return http.StatusUnprocessableEntity
	case errors.Is(err, engine.ErrUnknownOp),
		errors.Is(err, engine.ErrArity),
		errors.Is(err, engine.ErrInvalidOperand):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// writeJSON encodes v before committing the status so encode failures
// still produce a well-formed error response.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		s.logger.Error("failed to encode response", "error", err)
		buf.Reset()
		status = http.StatusInternalServerError
		_ = json.NewEncoder(&buf).Encode(errorResponse{Error: "failed to encode response"})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(buf.Bytes()); err != nil {
		s.logger.Warn("failed to write response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, errorResponse{Error: msg})
}
