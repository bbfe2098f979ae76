package commands

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/leapstack-labs/calckit/internal/cli/output"
	"github.com/leapstack-labs/calckit/internal/state"
	"github.com/spf13/cobra"
)

// HistoryOptions holds options for the history command.
type HistoryOptions struct {
	Limit int
	Clear bool
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand() *cobra.Command {
	opts := &HistoryOptions{}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded evaluations",
		Long: `Show the most recent evaluations from the history store.

History is recorded only when enabled with --history, CALCKIT_HISTORY_ENABLED=true
or history.enabled in calckit.yaml.`,
		Example: `  calckit --history add 2 3
  calckit --history history --limit 5
  calckit --history history --clear`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runHistory(cmd, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 20, "Maximum number of entries (0 for all)")
	cmd.Flags().BoolVar(&opts.Clear, "clear", false, "Delete all recorded evaluations")

	return cmd
}

func runHistory(cmd *cobra.Command, opts *HistoryOptions) error {
	if opts.Limit < 0 {
		return errors.New("--limit must not be negative")
	}

	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := cmd.Context()
	r := cmdCtx.Renderer

	if opts.Clear {
		n, err := cmdCtx.Engine.ClearHistory(ctx)
		if err != nil {
			return err
		}
		if r.EffectiveMode() == output.ModeJSON {
			return r.JSON(map[string]int64{"cleared": n})
		}
		r.Success(fmt.Sprintf("Cleared %d evaluation(s)", n))
		return nil
	}

	entries, err := cmdCtx.Engine.History(ctx, opts.Limit)
	if err != nil {
		return err
	}
	return renderHistory(r, entries)
}

func renderHistory(r *output.Renderer, entries []*state.Entry) error {
	if r.EffectiveMode() == output.ModeJSON {
		if entries == nil {
			entries = []*state.Entry{}
		}
		return r.JSON(entries)
	}

	if len(entries) == 0 {
		r.Muted("No evaluations recorded")
		return nil
	}

	rows := make([][]string, len(entries))
	for i, e := range entries {
		outcome := e.Result
		if e.Failed() {
			outcome = "error: " + e.Error
		}
		rows[i] = []string{
			shortID(e.ID),
			e.CreatedAt.Local().Format(time.DateTime),
			e.Op,
			strings.Join(e.Args, " "),
			outcome,
		}
	}
	r.Table([]string{"ID", "Time", "Operation", "Args", "Result"}, rows)
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
