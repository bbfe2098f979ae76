package engine

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/leapstack-labs/calckit/pkg/arith"
	"github.com/leapstack-labs/calckit/pkg/temperature"
)

// Errors returned for malformed requests and results that do not fit
// in a float64.
var (
	ErrUnknownOp  = errors.New("unknown operation")
	ErrArity      = errors.New("wrong number of operands")
	ErrOutOfRange = errors.New("result out of range")
)

// Op is a named operation the engine can evaluate.
type Op struct {
	Name        string
	Aliases     []string
	Arity       int
	Usage       string
	Description string

	apply func(args []Operand) (Operand, error)
}

// Matches reports whether name refers to this operation.
func (o *Op) Matches(name string) bool {
	if o.Name == name {
		return true
	}
	for _, alias := range o.Aliases {
		if alias == name {
			return true
		}
	}
	return false
}

var registry = []*Op{
	{
		Name:        "add",
		Arity:       2,
		Usage:       "add A B",
		Description: "Add two numbers (both operands zero is rejected)",
		apply:       applyAdd,
	},
	{
		Name:        "subtract",
		Aliases:     []string{"sub"},
		Arity:       2,
		Usage:       "subtract A B",
		Description: "Subtract B from A",
		apply:       applySubtract,
	},
	{
		Name:        "c2f",
		Aliases:     []string{"celsius-to-fahrenheit"},
		Arity:       1,
		Usage:       "c2f CELSIUS",
		Description: "Convert Celsius to Fahrenheit",
		apply: func(args []Operand) (Operand, error) {
			return FloatOperand(temperature.CelsiusToFahrenheit(args[0].Float())), nil
		},
	},
	{
		Name:        "f2c",
		Aliases:     []string{"fahrenheit-to-celsius"},
		Arity:       1,
		Usage:       "f2c FAHRENHEIT",
		Description: "Convert Fahrenheit to Celsius",
		apply: func(args []Operand) (Operand, error) {
			return FloatOperand(temperature.FahrenheitToCelsius(args[0].Float())), nil
		},
	},
}

func applyAdd(args []Operand) (Operand, error) {
	a, b := args[0], args[1]
	if a.IsInt() && b.IsInt() && !addOverflows(a.Int(), b.Int()) {
		v, err := arith.Add(a.Int(), b.Int())
		if err != nil {
			return Operand{}, err
		}
		return IntOperand(v), nil
	}
	v, err := arith.Add(a.Float(), b.Float())
	if err != nil {
		return Operand{}, err
	}
	return FloatOperand(v), nil
}

func applySubtract(args []Operand) (Operand, error) {
	a, b := args[0], args[1]
	if a.IsInt() && b.IsInt() && !subOverflows(a.Int(), b.Int()) {
		return IntOperand(arith.Subtract(a.Int(), b.Int())), nil
	}
	return FloatOperand(arith.Subtract(a.Float(), b.Float())), nil
}

// addOverflows reports whether a+b wraps around int64.
func addOverflows(a, b int64) bool {
	s := a + b
	return (a > 0 && b > 0 && s < 0) || (a < 0 && b < 0 && s >= 0)
}

// subOverflows reports whether a-b wraps around int64.
func subOverflows(a, b int64) bool {
	d := a - b
	return (a >= 0 && b < 0 && d < 0) || (a < 0 && b > 0 && d >= 0)
}

// LookupOp finds an operation by name or alias (case-insensitive).
func LookupOp(name string) (*Op, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	for _, op := range registry {
		if op.Matches(key) {
			return op, nil
		}
	}
	return nil, fmt.Errorf("%w %q (available: %s)", ErrUnknownOp, name, strings.Join(OpNames(), ", "))
}

// Ops returns every registered operation in registration order.
func Ops() []*Op {
	out := make([]*Op, len(registry))
	copy(out, registry)
	return out
}

// OpNames returns the sorted names and aliases of all operations.
func OpNames() []string {
	var names []string
	for _, op := range registry {
		names = append(names, op.Name)
		names = append(names, op.Aliases...)
	}
	sort.Strings(names)
	return names
}

func (o *Op) call(args []Operand) (Operand, error) {
	if len(args) != o.Arity {
		return Operand{}, fmt.Errorf("%w: %s expects %d operand(s), got %d", ErrArity, o.Name, o.Arity, len(args))
	}
	v, err := o.apply(args)
	if err != nil {
		return Operand{}, err
	}
	if !v.IsInt() && (math.IsInf(v.Float(), 0) || math.IsNaN(v.Float())) {
		return Operand{}, fmt.Errorf("%w: %s(%s) overflows float64", ErrOutOfRange, o.Name, strings.Join(OperandStrings(args), ", "))
	}
	return v, nil
}
