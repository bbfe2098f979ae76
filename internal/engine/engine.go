// Package engine evaluates calckit operations.
// It parses operands, dispatches to pkg/arith and pkg/temperature, and
// records evaluations in the optional history store.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/leapstack-labs/calckit/internal/state"
)

// ErrHistoryDisabled is returned by history operations when no store is configured.
var ErrHistoryDisabled = errors.New("history is disabled (set history.enabled: true or pass --history)")

// Engine evaluates operations. It is safe for concurrent use when its
// store is.
type Engine struct {
	store  state.Store
	logger *slog.Logger
	now    func() time.Time
}

// Config holds engine configuration.
type Config struct {
	// Store records evaluations (optional, history disabled if nil)
	Store state.Store
	// Logger is the structured logger (optional, uses discard if nil)
	Logger *slog.Logger
	// Now overrides the clock used for timestamps (optional)
	Now func() time.Time
}

// Request names an operation and its raw operands.
type Request struct {
	Op   string   `json:"op" yaml:"op"`
	Args []string `json:"args" yaml:"args"`
}

// Result is a successful evaluation.
type Result struct {
	ID    string    `json:"id,omitempty"`
	Op    string    `json:"op"`
	Args  []Operand `json:"args"`
	Value Operand   `json:"result"`
	At    time.Time `json:"at"`
}

// New creates an engine.
func New(cfg Config) *Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	now := cfg.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Engine{store: cfg.Store, logger: logger, now: now}
}

// HistoryEnabled reports whether evaluations are recorded.
func (e *Engine) HistoryEnabled() bool {
	return e.store != nil
}

// Evaluate parses req.Args and applies req.Op.
func (e *Engine) Evaluate(ctx context.Context, req Request) (*Result, error) {
	args := make([]Operand, len(req.Args))
	for i, raw := range req.Args {
		v, err := ParseOperand(raw)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	return e.Apply(ctx, req.Op, args...)
}

// Apply applies the named operation to already parsed operands.
// Errors from the core operations are returned unwrapped so callers can
// match them with errors.As.
func (e *Engine) Apply(ctx context.Context, name string, args ...Operand) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	op, err := LookupOp(name)
	if err != nil {
		return nil, err
	}

	value, err := op.call(args)
	if errors.Is(err, ErrArity) {
		return nil, err
	}

	res := &Result{Op: op.Name, Args: args, Value: value, At: e.now()}
	e.record(ctx, res, err)

	if err != nil {
		e.logger.Debug("evaluation rejected", slog.String("op", op.Name), slog.Any("args", OperandStrings(args)), slog.String("error", err.Error()))
		return nil, err
	}

	e.logger.Debug("evaluated", slog.String("op", op.Name), slog.Any("args", OperandStrings(args)), slog.String("result", value.String()))
	return res, nil
}

// record stores the evaluation. Store failures are logged, not returned.
func (e *Engine) record(ctx context.Context, res *Result, evalErr error) {
	if e.store == nil {
		return
	}

	entry := &state.Entry{
		Op:        res.Op,
		Args:      OperandStrings(res.Args),
		CreatedAt: res.At,
	}
	if evalErr != nil {
		entry.Error = evalErr.Error()
	} else {
		entry.Result = res.Value.String()
	}

	if err := e.store.Record(ctx, entry); err != nil {
		e.logger.Warn("failed to record evaluation", slog.String("op", res.Op), slog.String("error", err.Error()))
		return
	}
	res.ID = entry.ID
}

// History returns the most recent evaluations.
func (e *Engine) History(ctx context.Context, limit int) ([]*state.Entry, error) {
	if e.store == nil {
		return nil, ErrHistoryDisabled
	}
	entries, err := e.store.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}
	return entries, nil
}

// ClearHistory removes all recorded evaluations.
func (e *Engine) ClearHistory(ctx context.Context) (int64, error) {
	if e.store == nil {
		return 0, ErrHistoryDisabled
	}
	return e.store.Clear(ctx)
}

// Close releases the history store.
func (e *Engine) Close() error {
	if e.store == nil {
		return nil
	}
	return e.store.Close()
}
