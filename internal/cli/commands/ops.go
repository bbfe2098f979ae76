package commands

import (
	"strconv"
	"strings"

	"github.com/leapstack-labs/calckit/internal/cli/output"
	"github.com/leapstack-labs/calckit/internal/engine"
	"github.com/spf13/cobra"
)

type opJSON struct {
	Name        string   `json:"name"`
	Aliases     []string `json:"aliases,omitempty"`
	Arity       int      `json:"arity"`
	Usage       string   `json:"usage"`
	Description string   `json:"description"`
}

// NewOpsCommand creates the ops command.
func NewOpsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ops",
		Short: "List supported operations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r := newRenderer(cmd, configFrom(cmd))
			ops := engine.Ops()

			switch r.EffectiveMode() {
			case output.ModeJSON:
				out := make([]opJSON, len(ops))
				for i, op := range ops {
					out[i] = opJSON{Name: op.Name, Aliases: op.Aliases, Arity: op.Arity, Usage: op.Usage, Description: op.Description}
				}
				return r.JSON(out)

			case output.ModeMarkdown:
				r.Header(1, "Operations")
				r.Println("")
				for _, op := range ops {
					r.Println(output.FormatHeader(2, op.Name))
					r.Println(output.FormatKeyValue("Usage", "`calckit "+op.Usage+"`"))
					if len(op.Aliases) > 0 {
						r.Println(output.FormatKeyValue("Aliases", strings.Join(op.Aliases, ", ")))
					}
					r.Println(output.FormatKeyValue("Description", op.Description))
					r.Println("")
				}
				return nil

			default:
				r.Header(1, "Operations")
				rows := make([][]string, len(ops))
				for i, op := range ops {
					rows[i] = []string{op.Name, strings.Join(op.Aliases, ", "), strconv.Itoa(op.Arity), op.Description}
				}
				r.Table([]string{"Name", "Aliases", "Operands", "Description"}, rows)
				return nil
			}
		},
	}
}
