// Package script runs starlark programs against the calckit engine.
//
// Programs see these predeclared builtins:
//
//	add(a, b)
//	subtract(a, b)
//	c2f(celsius)
//	f2c(fahrenheit)
//	approx_equal(a, b, tolerance=1e-4)
//
// Errors from the engine surface as starlark errors carrying the same message.
package script

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"

	"github.com/leapstack-labs/calckit/internal/engine"
	"github.com/leapstack-labs/calckit/pkg/temperature"
	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// Runner executes starlark source with engine-backed builtins.
type Runner struct {
	engine *engine.Engine
	out    io.Writer
	logger *slog.Logger
}

// NewRunner creates a runner. print output goes to out.
func NewRunner(eng *engine.Engine, out io.Writer, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if out == nil {
		out = io.Discard
	}
	return &Runner{engine: eng, out: out, logger: logger}
}

// Predeclared returns the builtins bound to ctx.
func (r *Runner) Predeclared(ctx context.Context) starlark.StringDict {
	globals := starlark.StringDict{
		"approx_equal": starlark.NewBuiltin("approx_equal", approxEqual),
	}
	for _, op := range engine.Ops() {
		globals[op.Name] = starlark.NewBuiltin(op.Name, r.opBuiltin(ctx, op))
	}
	return globals
}

// newThread returns a thread that is cancelled with ctx. The returned
// func detaches it from ctx.
func (r *Runner) newThread(ctx context.Context, name string) (*starlark.Thread, func() bool) {
	thread := &starlark.Thread{
		Name: name,
		Print: func(_ *starlark.Thread, msg string) {
			_, _ = fmt.Fprintln(r.out, msg)
		},
	}
	stop := context.AfterFunc(ctx, func() { thread.Cancel(context.Cause(ctx).Error()) })
	return thread, stop
}

// Run executes a program and returns its global bindings.
func (r *Runner) Run(ctx context.Context, filename string, src []byte) (starlark.StringDict, error) {
	thread, stop := r.newThread(ctx, filename)
	defer stop()

	r.logger.Debug("running script", slog.String("file", filename))
	globals, err := starlark.ExecFileOptions(&syntax.FileOptions{}, thread, filename, src, r.Predeclared(ctx))
	if err != nil {
		return nil, fmt.Errorf("script %s: %w", filename, err)
	}
	return globals, nil
}

// Eval evaluates a single expression.
func (r *Runner) Eval(ctx context.Context, expr string) (starlark.Value, error) {
	thread, stop := r.newThread(ctx, "<expr>")
	defer stop()

	return starlark.EvalOptions(&syntax.FileOptions{}, thread, "<expr>", expr, r.Predeclared(ctx))
}

func (r *Runner) opBuiltin(ctx context.Context, op *engine.Op) func(*starlark.Thread, *starlark.Builtin, starlark.Tuple, []starlark.Tuple) (starlark.Value, error) {
	return func(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		if len(kwargs) > 0 {
			return nil, fmt.Errorf("%s: unexpected keyword arguments", b.Name())
		}
		operands := make([]engine.Operand, len(args))
		for i, arg := range args {
			v, err := toOperand(arg)
			if err != nil {
				return nil, fmt.Errorf("%s: argument %d: %w", b.Name(), i+1, err)
			}
			operands[i] = v
		}

		res, err := r.engine.Apply(ctx, op.Name, operands...)
		if err != nil {
			return nil, err
		}
		return fromOperand(res.Value), nil
	}
}

func approxEqual(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var a, c, tol starlark.Value
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "a", &a, "b", &c, "tolerance?", &tol); err != nil {
		return nil, err
	}
	x, err := toOperand(a)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", b.Name(), err)
	}
	y, err := toOperand(c)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", b.Name(), err)
	}
	if tol == nil {
		return starlark.Bool(temperature.ApproxEqual(x.Float(), y.Float())), nil
	}
	t, err := toOperand(tol)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", b.Name(), err)
	}
	return starlark.Bool(math.Abs(x.Float()-y.Float()) <= t.Float()), nil
}

func toOperand(v starlark.Value) (engine.Operand, error) {
	switch v := v.(type) {
	case starlark.Int:
		i, ok := v.Int64()
		if !ok {
			return engine.Operand{}, fmt.Errorf("%w: %s overflows int64", engine.ErrInvalidOperand, v.String())
		}
		return engine.IntOperand(i), nil
	case starlark.Float:
		return engine.OperandFromAny(float64(v))
	default:
		return engine.Operand{}, fmt.Errorf("%w: got %s, want int or float", engine.ErrInvalidOperand, v.Type())
	}
}

func fromOperand(o engine.Operand) starlark.Value {
	if o.IsInt() {
		return starlark.MakeInt64(o.Int())
	}
	return starlark.Float(o.Float())
}
