// Package arith provides the calculator operations of calckit.
//
// Operations are pure functions over the Number constraint:
//   - Add returns a + b, except that adding two zero operands is rejected
//     with a *ValidationError ("Cannot divide by zero")
//   - Subtract returns a - b and never fails
//
// Calculator is a zero-size value exposing the same operations on float64
// for callers that prefer an instance. It holds no state and is safe for
// concurrent use.
package arith
