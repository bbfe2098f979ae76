// Package temperature converts between Celsius and Fahrenheit.
//
// The conversions are linear and total over finite floats. Inputs below
// absolute zero are converted like any other value.
package temperature

import (
	"fmt"
	"math"
	"strings"
)

// Tolerance is the allowed deviation when comparing converted values.
const Tolerance = 1e-4

// Unit identifies a temperature scale.
type Unit string

// Supported units.
const (
	Celsius    Unit = "C"
	Fahrenheit Unit = "F"
)

// String returns the unit symbol.
func (u Unit) String() string {
	return string(u)
}

// Name returns the long name of the unit.
func (u Unit) Name() string {
	switch u {
	case Celsius:
		return "celsius"
	case Fahrenheit:
		return "fahrenheit"
	default:
		return "unknown"
	}
}

// ParseUnit converts a unit name or symbol to a Unit (case-insensitive).
func ParseUnit(s string) (Unit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "c", "celsius", "°c":
		return Celsius, nil
	case "f", "fahrenheit", "°f":
		return Fahrenheit, nil
	default:
		return "", fmt.Errorf("unknown temperature unit %q (expected c or f)", s)
	}
}

// CelsiusToFahrenheit returns c * 9/5 + 32.
func CelsiusToFahrenheit(c float64) float64 {
	return c*9/5 + 32
}

// FahrenheitToCelsius returns (f - 32) * 5/9.
func FahrenheitToCelsius(f float64) float64 {
	return (f - 32) * 5 / 9
}

// Convert converts value from one unit to another.
func Convert(value float64, from, to Unit) (float64, error) {
	switch {
	case from == to && (from == Celsius || from == Fahrenheit):
		return value, nil
	case from == Celsius && to == Fahrenheit:
		return CelsiusToFahrenheit(value), nil
	case from == Fahrenheit && to == Celsius:
		return FahrenheitToCelsius(value), nil
	default:
		return 0, fmt.Errorf("unsupported conversion %s -> %s", from, to)
	}
}

// ApproxEqual reports whether a and b differ by less than Tolerance.
func ApproxEqual(a, b float64) bool {
	return math.Abs(a-b) < Tolerance
}

// Converter exposes the conversions as methods. It holds no state.
type Converter struct{}

// NewConverter returns a Converter.
func NewConverter() Converter {
	return Converter{}
}

// CelsiusToFahrenheit converts c to Fahrenheit.
func (Converter) CelsiusToFahrenheit(c float64) float64 {
	return CelsiusToFahrenheit(c)
}

// FahrenheitToCelsius converts f to Celsius.
func (Converter) FahrenheitToCelsius(f float64) float64 {
	return FahrenheitToCelsius(f)
}
