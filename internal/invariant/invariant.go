// Package invariant holds the tolerance checks and fatal error taxonomy shared
// by the allocation and AMM stages.
package invariant

import (
	"errors"
	"fmt"
	"math"
)

// DefaultTolerance is the relative tolerance used for product and
// aggregate cross-checks.
const DefaultTolerance = 0.001

// Kind classifies a fatal run error.
type Kind int

const (
	KindConfiguration Kind = iota + 1
	KindNumerical
	KindCrossCheck
)

func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindNumerical:
		return "numerical-consistency"
	case KindCrossCheck:
		return "cross-check"
	default:
		return "unknown"
	}
}

var (
	ErrConfiguration = errors.New("inconsistent configuration")
	ErrNumerical     = errors.New("numerical consistency violated")
	ErrCrossCheck    = errors.New("cross-check mismatch")
)

// Error is a fatal, non-retryable run error carrying the values involved.
type Error struct {
	Kind   Kind
	Op     string
	Detail string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s error: %s", e.Op, e.Kind, e.Detail)
}

// Unwrap maps the error onto its kind sentinel so callers can use errors.Is.
func (e *Error) Unwrap() error {
	switch e.Kind {
	case KindConfiguration:
		return ErrConfiguration
	case KindNumerical:
		return ErrNumerical
	case KindCrossCheck:
		return ErrCrossCheck
	}
	return nil
}

// Configuration builds a configuration-fatal error.
func Configuration(op, format string, args ...any) *Error {
	return &Error{Kind: KindConfiguration, Op: op, Detail: fmt.Sprintf(format, args...)}
}

// Numerical builds a numerical-consistency-fatal error.
func Numerical(op, format string, args ...any) *Error {
	return &Error{Kind: KindNumerical, Op: op, Detail: fmt.Sprintf(format, args...)}
}

// CrossCheck builds a cross-check-fatal error.
func CrossCheck(op, format string, args ...any) *Error {
	return &Error{Kind: KindCrossCheck, Op: op, Detail: fmt.Sprintf(format, args...)}
}

// Close reports whether actual is within rtol of desired, relative to desired.
// Two zeros are close; NaN is never close.
func Close(desired, actual, rtol float64) bool {
	if math.IsNaN(desired) || math.IsNaN(actual) {
		return false
	}
	if desired == actual {
		return true
	}
	return math.Abs(actual-desired) <= rtol*math.Abs(desired)
}

// RelativeDrift returns |actual-desired|/|desired|, or +Inf when desired is
// zero and actual is not.
func RelativeDrift(desired, actual float64) float64 {
	if desired == actual {
		return 0
	}
	if desired == 0 {
		return math.Inf(1)
	}
	return math.Abs(actual-desired) / math.Abs(desired)
}

// ConstantProduct fails with a numerical error when the product drifted
// beyond rtol.
func ConstantProduct(op string, before, after, rtol float64) error {
	if Close(before, after, rtol) {
		return nil
	}
	return Numerical(op, "constant product is not allowed to change: old constant product %g new constant product %g (drift %.6f, tolerance %g)",
		before, after, RelativeDrift(before, after), rtol)
}

// Aggregate fails with a cross-check error when two independently computed
// totals disagree beyond rtol.
func Aggregate(op, what string, want, got, rtol float64) error {
	if Close(want, got, rtol) {
		return nil
	}
	return CrossCheck(op, "%s %g is not equal to the aggregated %s %g", what, got, what, want)
}

// NonNegative fails with a configuration error on a negative value.
func NonNegative(op, what string, v float64) error {
	if v >= 0 {
		return nil
	}
	return Configuration(op, "%s must not be negative, got %g", what, v)
}
