package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/leapstack-labs/calckit/internal/cli/output"
	"github.com/leapstack-labs/calckit/internal/engine"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

// watchDebounce is how long to wait after the last change before re-running.
const watchDebounce = 100 * time.Millisecond

// BatchFile is the YAML document read by the batch command.
type BatchFile struct {
	Operations []BatchOperation `yaml:"operations"`
}

// BatchOperation is one operation in a batch file. Args may be YAML numbers
// or numeric strings.
type BatchOperation struct {
	Op   string `yaml:"op"`
	Args []any  `yaml:"args"`
}

// BatchResult is the outcome of one batch operation.
type BatchResult struct {
	Index  int             `json:"index"`
	Op     string          `json:"op"`
	Args   []string        `json:"args"`
	Result *engine.Operand `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// BatchOptions holds options for the batch command.
type BatchOptions struct {
	Watch   bool
	Workers int
}

// NewBatchCommand creates the batch command.
func NewBatchCommand() *cobra.Command {
	opts := &BatchOptions{}

	cmd := &cobra.Command{
		Use:   "batch FILE",
		Short: "Evaluate the operations listed in a YAML file",
		Long: `Evaluate every operation in a YAML batch file.

Operations run concurrently (bounded by --workers or the workers config key)
and results are printed in file order. The command fails if any operation
fails. With --watch the file is re-evaluated whenever it changes.

File format:

  operations:
    - op: add
      args: [2, 3]
    - op: c2f
      args: [100]`,
		Example: `  calckit batch ops.yaml
  calckit batch ops.yaml --output json
  calckit batch ops.yaml --watch`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatchCommand(cmd, args[0], opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.Watch, "watch", "w", false, "Re-run when the file changes")
	cmd.Flags().IntVar(&opts.Workers, "workers", 0, "Maximum concurrent evaluations (default from config)")

	return cmd
}

func runBatchCommand(cmd *cobra.Command, path string, opts *BatchOptions) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	workers := cmdCtx.Cfg.Workers
	if opts.Workers > 0 {
		workers = opts.Workers
	}

	runOnce := func(ctx context.Context) error {
		file, err := LoadBatchFile(path)
		if err != nil {
			return err
		}
		results, err := RunBatch(ctx, cmdCtx.Engine, file.Operations, workers)
		if err != nil {
			return err
		}
		if err := renderBatch(cmdCtx.Renderer, results); err != nil {
			return err
		}
		return batchError(results)
	}

	if !opts.Watch {
		return runOnce(cmd.Context())
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := runOnce(ctx); err != nil {
		cmdCtx.Renderer.Warning(err.Error())
	}
	cmdCtx.Renderer.Muted(fmt.Sprintf("watching %s (Ctrl+C to stop)", path))

	return watchFile(ctx, path, cmdCtx.Logger, func() {
		if err := runOnce(ctx); err != nil {
			cmdCtx.Renderer.Warning(err.Error())
		}
	})
}

// LoadBatchFile reads and decodes a batch file.
func LoadBatchFile(path string) (*BatchFile, error) {
	f, err := os.Open(path) //nolint:gosec // user-supplied path
	if err != nil {
		return nil, fmt.Errorf("failed to open batch file: %w", err)
	}
	defer func() { _ = f.Close() }()

	var file BatchFile
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("failed to parse batch file %s: %w", path, err)
	}
	if len(file.Operations) == 0 {
		return nil, fmt.Errorf("batch file %s has no operations", path)
	}
	return &file, nil
}

// RunBatch evaluates ops with at most workers running at once. Failed
// operations are reported in their result; only context cancellation
// aborts the batch.
func RunBatch(ctx context.Context, eng *engine.Engine, ops []BatchOperation, workers int) ([]BatchResult, error) {
	results := make([]BatchResult, len(ops))

	g, gctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}

	for i, op := range ops {
		g.Go(func() error {
			results[i] = evaluateBatchOp(gctx, eng, i, op)
			return gctx.Err()
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func evaluateBatchOp(ctx context.Context, eng *engine.Engine, index int, op BatchOperation) BatchResult {
	res := BatchResult{Index: index + 1, Op: op.Op, Args: make([]string, len(op.Args))}

	operands := make([]engine.Operand, len(op.Args))
	for i, raw := range op.Args {
		res.Args[i] = fmt.Sprint(raw)
		v, err := engine.OperandFromAny(raw)
		if err != nil {
			res.Error = err.Error()
			return res
		}
		operands[i] = v
		res.Args[i] = v.String()
	}

	out, err := eng.Apply(ctx, op.Op, operands...)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	res.Op = out.Op
	res.Result = &out.Value
	return res
}

func renderBatch(r *output.Renderer, results []BatchResult) error {
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(results)
	}

	rows := make([][]string, len(results))
	for i, res := range results {
		value := "error: " + res.Error
		if res.Result != nil {
			value = r.FormatNumber(*res.Result)
		}
		rows[i] = []string{strconv.Itoa(res.Index), res.Op, strings.Join(res.Args, " "), value}
	}
	r.Table([]string{"#", "Operation", "Args", "Result"}, rows)
	return nil
}

func batchError(results []BatchResult) error {
	failed := 0
	for _, res := range results {
		if res.Error != "" {
			failed++
		}
	}
	if failed == 0 {
		return nil
	}
	return fmt.Errorf("%d of %d operations failed", failed, len(results))
}

// watchFile calls onChange after path is written, debounced. It blocks until
// ctx is cancelled. The parent directory is watched so editors that replace
// the file are still seen.
func watchFile(ctx context.Context, path string, logger *slog.Logger, onChange func()) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", path, err)
	}

	// onChange runs only on this goroutine, so re-runs never overlap and
	// none start after watchFile returns.
	var debounce *time.Timer
	var fire <-chan time.Time
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			if debounce == nil {
				debounce = time.NewTimer(watchDebounce)
			} else {
				debounce.Reset(watchDebounce)
			}
			fire = debounce.C

		case <-fire:
			fire = nil
			logger.Debug("batch file changed, re-running", "file", path)
			onChange()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			if errors.Is(err, fsnotify.ErrEventOverflow) {
				logger.Warn("watcher overflow, re-running", "file", path)
				fire = nil
				onChange()
				continue
			}
			logger.Error("watcher error", "error", err)
		}
	}
}
