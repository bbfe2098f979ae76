package engine

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrInvalidOperand is returned when an input cannot be read as a number.
var ErrInvalidOperand = errors.New("invalid operand")

// Operand is a numeric value that remembers whether it is integral.
// Integral operands are combined in int64 so arithmetic on them is exact.
type Operand struct {
	i        int64
	f        float64
	integral bool
}

// IntOperand returns an integral operand.
func IntOperand(v int64) Operand {
	return Operand{i: v, f: float64(v), integral: true}
}

// FloatOperand returns a floating point operand.
func FloatOperand(v float64) Operand {
	return Operand{f: v}
}

// ParseOperand reads an integer or decimal literal.
// NaN and infinities are rejected.
func ParseOperand(s string) (Operand, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Operand{}, fmt.Errorf("%w: empty value", ErrInvalidOperand)
	}
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return IntOperand(v), nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return Operand{}, fmt.Errorf("%w: %q is not a finite number", ErrInvalidOperand, s)
	}
	return FloatOperand(v), nil
}

// OperandFromAny converts decoded values (YAML, JSON, scripts) to an Operand.
func OperandFromAny(v any) (Operand, error) {
	switch n := v.(type) {
	case int:
		return IntOperand(int64(n)), nil
	case int32:
		return IntOperand(int64(n)), nil
	case int64:
		return IntOperand(n), nil
	case uint:
		if uint64(n) > math.MaxInt64 {
			return Operand{}, fmt.Errorf("%w: %d overflows int64", ErrInvalidOperand, n)
		}
		return IntOperand(int64(n)), nil
	case uint64:
		if n > math.MaxInt64 {
			return Operand{}, fmt.Errorf("%w: %d overflows int64", ErrInvalidOperand, n)
		}
		return IntOperand(int64(n)), nil
	case float32:
		return OperandFromAny(float64(n))
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return Operand{}, fmt.Errorf("%w: %v is not a finite number", ErrInvalidOperand, n)
		}
		return FloatOperand(n), nil
	case json.Number:
		return ParseOperand(n.String())
	case string:
		return ParseOperand(n)
	case Operand:
		return n, nil
	default:
		return Operand{}, fmt.Errorf("%w: unsupported type %T", ErrInvalidOperand, v)
	}
}

// IsInt reports whether the operand is integral.
func (o Operand) IsInt() bool {
	return o.integral
}

// Int returns the operand truncated to int64.
func (o Operand) Int() int64 {
	if o.integral {
		return o.i
	}
	return int64(o.f)
}

// Float returns the operand as float64.
func (o Operand) Float() float64 {
	return o.f
}

// String returns the shortest literal that reads back to the same operand.
func (o Operand) String() string {
	if o.integral {
		return strconv.FormatInt(o.i, 10)
	}
	return strconv.FormatFloat(o.f, 'g', -1, 64)
}

// Format renders the operand with at most precision fractional digits,
// trimming trailing zeros. A negative precision means shortest form.
func (o Operand) Format(precision int) string {
	if o.integral || precision < 0 {
		return o.String()
	}
	s := strconv.FormatFloat(o.f, 'f', precision, 64)
	if strings.Contains(s, ".") {
		s = strings.TrimRight(s, "0")
		s = strings.TrimSuffix(s, ".")
	}
	if s == "-0" {
		s = "0"
	}
	return s
}

// MarshalJSON encodes the operand as a JSON number.
func (o Operand) MarshalJSON() ([]byte, error) {
	if o.integral {
		return []byte(strconv.FormatInt(o.i, 10)), nil
	}
	return json.Marshal(o.f)
}

// UnmarshalJSON decodes a JSON number or numeric string.
func (o *Operand) UnmarshalJSON(data []byte) error {
	var raw any
	dec := json.NewDecoder(strings.NewReader(string(data)))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidOperand, err)
	}
	v, err := OperandFromAny(raw)
	if err != nil {
		return err
	}
	*o = v
	return nil
}

// OperandStrings renders operands with String.
func OperandStrings(ops []Operand) []string {
	out := make([]string, len(ops))
	for i, op := range ops {
		out[i] = op.String()
	}
	return out
}
