package commands

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/leapstack-labs/calckit/internal/cli/config"
	"github.com/leapstack-labs/calckit/internal/cli/output"
	"github.com/leapstack-labs/calckit/internal/engine"
	"github.com/leapstack-labs/calckit/internal/state"
	"github.com/spf13/cobra"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Engine   *engine.Engine
	Renderer *output.Renderer
}

// NewCommandContext creates a CommandContext with engine and renderer.
// Returns the context and a cleanup function that must be called (typically via defer).
func NewCommandContext(cmd *cobra.Command) (*CommandContext, func(), error) {
	cfg := configFrom(cmd)
	logger := config.GetLogger(cmd.Context())

	eng, err := createEngine(cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {
		if err := eng.Close(); err != nil {
			logger.Warn("failed to close history store", "error", err)
		}
	}

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Engine:   eng,
		Renderer: newRenderer(cmd, cfg),
	}, cleanup, nil
}

func configFrom(cmd *cobra.Command) *config.Config {
	return config.FromContext(cmd.Context())
}

func newRenderer(cmd *cobra.Command, cfg *config.Config) *output.Renderer {
	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(cfg.OutputFormat))
	r.SetPrecision(cfg.Precision)
	return r
}

// createEngine builds an engine, opening the history store when enabled.
func createEngine(cfg *config.Config, logger *slog.Logger) (*engine.Engine, error) {
	if !cfg.History.Enabled {
		return engine.New(engine.Config{Logger: logger}), nil
	}

	// Ensure history directory exists
	dir := filepath.Dir(cfg.History.Path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create history directory: %w", err)
		}
	}

	store := state.NewSQLiteStore(logger)
	if err := store.Open(cfg.History.Path); err != nil {
		return nil, fmt.Errorf("failed to open history store: %w", err)
	}

	return engine.New(engine.Config{Store: store, Logger: logger}), nil
}

// evaluateAndRender runs a single request and prints its result.
func evaluateAndRender(cmd *cobra.Command, req engine.Request) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	res, err := cmdCtx.Engine.Evaluate(cmd.Context(), req)
	if err != nil {
		return err
	}
	return renderResult(cmdCtx.Renderer, res)
}

// renderResult prints a result: the bare value in text and markdown mode so
// output composes in shell pipelines, the full record in JSON mode.
func renderResult(r *output.Renderer, res *engine.Result) error {
	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(resultView(res))
	case output.ModeText:
		r.Println(r.Styles().Value.Render(r.FormatNumber(res.Value)))
	default:
		r.Println(r.FormatNumber(res.Value))
	}
	return nil
}

type resultJSON struct {
	ID     string           `json:"id,omitempty"`
	Op     string           `json:"op"`
	Args   []engine.Operand `json:"args"`
	Result engine.Operand   `json:"result"`
}

func resultView(res *engine.Result) resultJSON {
	return resultJSON{ID: res.ID, Op: res.Op, Args: res.Args, Result: res.Value}
}
