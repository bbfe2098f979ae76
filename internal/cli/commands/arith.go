package commands

import (
	"github.com/leapstack-labs/calckit/internal/engine"
	"github.com/spf13/cobra"
)

// NewAddCommand creates the add command.
func NewAddCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "add A B",
		Short: "Add two numbers",
		Long: `Add two integer or decimal numbers.

Adding zero to zero is rejected with "Cannot divide by zero".
Put -- before negative operands so they are not read as flags.`,
		Example: `  calckit add 2 3
  calckit add 1.5 2.25
  calckit add -- -2 1
  calckit add 2 3 --output json`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return evaluateAndRender(cmd, engine.Request{Op: "add", Args: args})
		},
	}
}

// NewSubtractCommand creates the subtract command.
func NewSubtractCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "subtract A B",
		Aliases: []string{"sub"},
		Short:   "Subtract B from A",
		Long: `Subtract two integer or decimal numbers.

Put -- before negative operands so they are not read as flags.`,
		Example: `  calckit subtract 5 3
  calckit sub -- -5 1`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return evaluateAndRender(cmd, engine.Request{Op: "subtract", Args: args})
		},
	}
}
