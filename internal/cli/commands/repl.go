package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/leapstack-labs/calckit/internal/cli/output"
	"github.com/leapstack-labs/calckit/internal/engine"
	"github.com/leapstack-labs/calckit/internal/script"
	"github.com/spf13/cobra"
)

const replPrompt = "calckit> "

// NewREPLCommand creates the repl command.
func NewREPLCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Start an interactive calculator session",
		Long: `Start an interactive session.

Enter operations as words (add 2 3, c2f 100) or as starlark expressions
(f2c(c2f(37))). Type .help for commands, .quit to exit.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runREPL(cmd)
		},
	}
}

func runREPL(cmd *cobra.Command) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	// Line history lives next to the evaluation history when it is enabled
	historyFile := ""
	if cmdCtx.Cfg.History.Enabled {
		historyFile = filepath.Join(filepath.Dir(cmdCtx.Cfg.History.Path), "repl_history")
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          replPrompt,
		HistoryFile:     historyFile,
		AutoComplete:    newOpCompleter(),
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
		Stdin:           io.NopCloser(cmd.InOrStdin()),
		Stdout:          cmd.OutOrStdout(),
		Stderr:          cmd.ErrOrStderr(),
	})
	if err != nil {
		return fmt.Errorf("failed to initialize REPL: %w", err)
	}
	defer func() { _ = rl.Close() }()

	session := newREPLSession(cmdCtx, cmd.OutOrStdout(), cmd.ErrOrStderr())

	_, _ = fmt.Fprintln(cmd.OutOrStdout(), "calckit REPL")
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Type .help for commands, .quit to exit")
	_, _ = fmt.Fprintln(cmd.OutOrStdout())

	ctx := cmd.Context()
	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}

		if quit := session.handleLine(ctx, line); quit {
			break
		}
	}

	return nil
}

// replSession evaluates REPL input. It is separate from the readline loop
// so it can be driven directly.
type replSession struct {
	engine   *engine.Engine
	renderer *output.Renderer
	runner   *script.Runner
	out      io.Writer
	errOut   io.Writer
}

func newREPLSession(cmdCtx *CommandContext, out, errOut io.Writer) *replSession {
	return &replSession{
		engine:   cmdCtx.Engine,
		renderer: cmdCtx.Renderer,
		runner:   script.NewRunner(cmdCtx.Engine, out, cmdCtx.Logger),
		out:      out,
		errOut:   errOut,
	}
}

// handleLine evaluates one line and reports whether the session should end.
func (s *replSession) handleLine(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return false
	}

	if strings.HasPrefix(line, ".") {
		return s.handleDotCommand(ctx, line)
	}

	if strings.Contains(line, "(") {
		v, err := s.runner.Eval(ctx, line)
		if err != nil {
			s.printError(err)
			return false
		}
		_, _ = fmt.Fprintln(s.out, v.String())
		return false
	}

	fields := strings.Fields(line)
	res, err := s.engine.Evaluate(ctx, engine.Request{Op: fields[0], Args: fields[1:]})
	if err != nil {
		s.printError(err)
		return false
	}
	if err := renderResult(s.renderer, res); err != nil {
		s.printError(err)
	}
	return false
}

func (s *replSession) handleDotCommand(ctx context.Context, line string) bool {
	parts := strings.Fields(line)
	command := strings.ToLower(parts[0])

	switch command {
	case ".quit", ".exit":
		return true

	case ".help":
		printREPLHelp(s.out)

	case ".ops":
		for _, op := range engine.Ops() {
			_, _ = fmt.Fprintf(s.out, "  %-14s %s\n", op.Usage, op.Description)
		}

	case ".history":
		limit := 10
		if len(parts) > 1 {
			n, err := strconv.Atoi(parts[1])
			if err != nil || n <= 0 {
				_, _ = fmt.Fprintln(s.errOut, "Usage: .history [N]")
				return false
			}
			limit = n
		}
		entries, err := s.engine.History(ctx, limit)
		if err != nil {
			s.printError(err)
			return false
		}
		if err := renderHistory(s.renderer, entries); err != nil {
			s.printError(err)
		}

	default:
		_, _ = fmt.Fprintf(s.errOut, "Unknown command: %s (type .help for commands)\n", command)
	}
	return false
}

func (s *replSession) printError(err error) {
	_, _ = fmt.Fprintf(s.errOut, "Error: %v\n", err)
}

func printREPLHelp(w io.Writer) {
	help := `
Commands:
  .help           Show this help message
  .ops            List operations
  .history [N]    Show the last N evaluations (needs --history)
  .quit / .exit   Exit the REPL

Input:
  add 2 3                 operation name followed by operands
  f2c(c2f(add(30, 7)))    starlark expression using the same operations
`
	_, _ = fmt.Fprintln(w, help)
}

// newOpCompleter creates a readline completer for operation names and dot-commands.
func newOpCompleter() *readline.PrefixCompleter {
	var items []readline.PrefixCompleterInterface
	for _, name := range engine.OpNames() {
		items = append(items, readline.PcItem(name))
	}
	items = append(items,
		readline.PcItem(".help"),
		readline.PcItem(".ops"),
		readline.PcItem(".history"),
		readline.PcItem(".quit"),
		readline.PcItem(".exit"),
	)
	return readline.NewPrefixCompleter(items...)
}
