package commands

import (
	"fmt"
	"os"

	"github.com/leapstack-labs/calckit/internal/script"
	"github.com/spf13/cobra"
)

// NewScriptCommand creates the script command.
func NewScriptCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "script FILE",
		Short: "Run a starlark script",
		Long: `Run a starlark program with the calckit operations as builtins:

  add(a, b), subtract(a, b), c2f(c), f2c(f), approx_equal(a, b, tolerance=1e-4)

print() output goes to stdout. An operation error stops the script.`,
		Example: `  calckit script convert.star`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read script: %w", err)
			}

			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			runner := script.NewRunner(cmdCtx.Engine, cmd.OutOrStdout(), cmdCtx.Logger)
			_, err = runner.Run(cmd.Context(), args[0], src)
			return err
		},
	}
}
