package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for the risk engine. Services wrap these with context via
// %w so callers can branch with errors.Is.
var (
	// ErrImpossibleParameters marks a parameter triple whose derived
	// population fractions fall outside their valid open intervals. During
	// a grid sweep this is expected control flow (the point is skipped);
	// on a direct forward-model call it is surfaced to the caller.
	ErrImpossibleParameters = errors.New("parameters are not biologically realizable")

	// ErrNotFound marks a lookup whose key has no table entry, or whose
	// prevalence/allele frequency are off the sample grid. Never answered
	// with a default or an interpolation.
	ErrNotFound = errors.New("no table entry")

	// ErrInvalidInput marks inputs violating basic domain bounds, detected
	// before any computation.
	ErrInvalidInput = errors.New("invalid input")
)

// NewImpossibleParametersError reports the derived quantity that left its
// valid interval.
func NewImpossibleParametersError(quantity string, value float64) error {
	return fmt.Errorf("%w: %s = %g", ErrImpossibleParameters, quantity, value)
}

// NewInvalidInputError reports a domain-bound violation for a named field.
func NewInvalidInputError(field string, value float64, reason string) error {
	return fmt.Errorf("%w: %s = %g %s", ErrInvalidInput, field, value, reason)
}

// NewNotFoundError reports a missing table entry for a query triple.
func NewNotFoundError(prevalence, alleleFreqA, oddsRatio float64) error {
	return fmt.Errorf("%w for prevalence=%g allele_freq=%g odds_ratio=%g",
		ErrNotFound, prevalence, alleleFreqA, oddsRatio)
}

// IsImpossibleParameters reports whether err marks an unrealizable
// parameter combination.
func IsImpossibleParameters(err error) bool {
	return errors.Is(err, ErrImpossibleParameters)
}

// IsNotFound reports whether err marks a missing table entry.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsInvalidInput reports whether err marks a domain-bound violation.
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}
