package commands

import (
	"errors"
	"fmt"
	"math"

	"github.com/leapstack-labs/calckit/internal/cli/output"
	"github.com/leapstack-labs/calckit/internal/engine"
	"github.com/leapstack-labs/calckit/pkg/temperature"
	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// maxTableRows bounds the size of a conversion table.
const maxTableRows = 10000

// ConvertOptions holds options for the convert command.
type ConvertOptions struct {
	From string
	To   string
}

// NewConvertCommand creates the convert command.
func NewConvertCommand() *cobra.Command {
	opts := &ConvertOptions{}

	cmd := &cobra.Command{
		Use:   "convert [c2f|f2c] VALUE",
		Short: "Convert a temperature between Celsius and Fahrenheit",
		Long: `Convert a temperature between Celsius and Fahrenheit.

Name the conversion directly (c2f, f2c) or give the units with --from and --to.
Converting a unit to itself returns the value unchanged.`,
		Example: `  calckit convert c2f 100
  calckit convert f2c 98.6
  calckit convert --from fahrenheit --to celsius 212
  calckit convert c2f -- -40`,
		Args:      cobra.RangeArgs(1, 2),
		ValidArgs: []string{"c2f", "f2c"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(cmd, args, opts)
		},
	}

	cmd.Flags().StringVar(&opts.From, "from", "", "Source unit (c|f)")
	cmd.Flags().StringVar(&opts.To, "to", "", "Target unit (c|f)")

	return cmd
}

func runConvert(cmd *cobra.Command, args []string, opts *ConvertOptions) error {
	if opts.From == "" && opts.To == "" {
		if len(args) != 2 {
			return errors.New("expected a conversion and a value, e.g. convert c2f 100 (or use --from and --to)")
		}
		op, err := engine.LookupOp(args[0])
		if err != nil {
			return err
		}
		if op.Name != "c2f" && op.Name != "f2c" {
			return fmt.Errorf("%s is not a temperature conversion (use c2f or f2c)", op.Name)
		}
		return evaluateAndRender(cmd, engine.Request{Op: op.Name, Args: args[1:]})
	}

	if opts.From == "" || opts.To == "" {
		return errors.New("--from and --to must be given together")
	}
	if len(args) != 1 {
		return errors.New("expected exactly one value with --from and --to")
	}

	from, err := temperature.ParseUnit(opts.From)
	if err != nil {
		return err
	}
	to, err := temperature.ParseUnit(opts.To)
	if err != nil {
		return err
	}

	if from == to {
		v, err := engine.ParseOperand(args[0])
		if err != nil {
			return err
		}
		cmdCtx, cleanup, err := NewCommandContext(cmd)
		if err != nil {
			return err
		}
		defer cleanup()
		return renderResult(cmdCtx.Renderer, &engine.Result{Op: "convert", Args: []engine.Operand{v}, Value: v})
	}

	op := "c2f"
	if from == temperature.Fahrenheit {
		op = "f2c"
	}
	return evaluateAndRender(cmd, engine.Request{Op: op, Args: args})
}

// TableOptions holds options for the table command.
type TableOptions struct {
	From  string
	Start float64
	End   float64
	Step  float64
}

// NewTableCommand creates the table command.
func NewTableCommand() *cobra.Command {
	opts := &TableOptions{}

	cmd := &cobra.Command{
		Use:   "table",
		Short: "Print a temperature conversion table",
		Long: `Print a conversion table from --start to --end (inclusive) in --step increments.

The first column is in the --from unit, the second in the other unit.`,
		Example: `  calckit table
  calckit table --from f --start 0 --end 212 --step 20
  calckit table --output markdown`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTable(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.From, "from", "c", "Unit of the first column (c|f)")
	cmd.Flags().Float64Var(&opts.Start, "start", -40, "First value")
	cmd.Flags().Float64Var(&opts.End, "end", 100, "Last value")
	cmd.Flags().Float64Var(&opts.Step, "step", 10, "Increment between rows")

	return cmd
}

type tableRow struct {
	From engine.Operand `json:"from"`
	To   engine.Operand `json:"to"`
}

type tableJSON struct {
	FromUnit string     `json:"from_unit"`
	ToUnit   string     `json:"to_unit"`
	Rows     []tableRow `json:"rows"`
}

func runTable(cmd *cobra.Command, opts *TableOptions) error {
	from, err := temperature.ParseUnit(opts.From)
	if err != nil {
		return err
	}
	to := temperature.Fahrenheit
	if from == temperature.Fahrenheit {
		to = temperature.Celsius
	}

	values, err := tableValues(opts.Start, opts.End, opts.Step)
	if err != nil {
		return err
	}

	rows := make([]tableRow, len(values))
	for i, v := range values {
		converted, err := temperature.Convert(v, from, to)
		if err != nil {
			return err
		}
		rows[i] = tableRow{From: engine.FloatOperand(v), To: engine.FloatOperand(converted)}
	}

	r := newRenderer(cmd, configFrom(cmd))
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(tableJSON{FromUnit: from.String(), ToUnit: to.String(), Rows: rows})
	}

	cells := make([][]string, len(rows))
	for i, row := range rows {
		cells[i] = []string{r.FormatNumber(row.From), r.FormatNumber(row.To)}
	}
	title := cases.Title(language.English)
	r.Table([]string{title.String(from.Name()), title.String(to.Name())}, cells)
	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// tableValues returns start, start+step, ... up to end inclusive.
func tableValues(start, end, step float64) ([]float64, error) {
	if step <= 0 || math.IsNaN(step) || math.IsInf(step, 0) {
		return nil, errors.New("--step must be a positive number")
	}
	if !isFinite(start) || !isFinite(end) {
		return nil, errors.New("--start and --end must be finite numbers")
	}
	if end < start {
		return nil, errors.New("--end must not be less than --start")
	}

	rows := math.Floor((end-start)/step+1e-9) + 1
	if rows > maxTableRows {
		return nil, fmt.Errorf("table would have %.0f rows (max %d), increase --step", rows, maxTableRows)
	}

	values := make([]float64, int(rows))
	for i := range values {
		values[i] = start + float64(i)*step
	}
	return values, nil
}
