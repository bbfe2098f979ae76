package arith

// Number is the set of operand types accepted by the generic operations.
type Number interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 | ~float32 | ~float64
}

// Add returns a + b.
// Both operands being zero is rejected with a *ValidationError whose message
// is MsgZeroOperands. No other zero combination is guarded.
func Add[T Number](a, b T) (T, error) {
	if a == 0 && b == 0 {
		var zero T
		return zero, NewValidationError("add", MsgZeroOperands)
	}
	return a + b, nil
}

// Subtract returns a - b.
func Subtract[T Number](a, b T) T {
	return a - b
}

// Calculator exposes the arithmetic operations on float64 operands.
type Calculator struct{}

// NewCalculator returns a Calculator.
func NewCalculator() Calculator {
	return Calculator{}
}

// Add returns a + b. See the package-level Add for the zero-operand guard.
func (Calculator) Add(a, b float64) (float64, error) {
	return Add(a, b)
}

// Subtract returns a - b.
func (Calculator) Subtract(a, b float64) float64 {
	return Subtract(a, b)
}
