// Package grading computes aggregate grades over a learner's playback attempts.
package grading

import (
	"fmt"

	"github.com/openlms/ispring-play/internal/platform/errors"
)

// Method is the aggregation policy applied across a learner's attempts.
// The numeric values are part of the module configuration contract.
type Method int

const (
	// MethodHighest grades by the best scored attempt.
	MethodHighest Method = 1
	// MethodAverage grades by the arithmetic mean of scored attempts.
	MethodAverage Method = 2
	// MethodFirst grades by the earliest scored attempt.
	MethodFirst Method = 3
	// MethodLast grades by the latest scored attempt.
	MethodLast Method = 4
)

// String returns a human-readable name for the method.
func (m Method) String() string {
	switch m {
	case MethodHighest:
		return "highest"
	case MethodAverage:
		return "average"
	case MethodFirst:
		return "first"
	case MethodLast:
		return "last"
	default:
		return fmt.Sprintf("unknown(%d)", int(m))
	}
}

// Valid reports whether the method is one of the four recognized policies.
func (m Method) Valid() bool {
	switch m {
	case MethodHighest, MethodAverage, MethodFirst, MethodLast:
		return true
	default:
		return false
	}
}

// ParseMethod validates a stored grade-method value. Unknown values fail
// with a validation error rather than defaulting silently.
func ParseMethod(value int) (Method, error) {
	method := Method(value)
	if !method.Valid() {
		return 0, errors.WithMetadata(
			errors.CodeModuleInvalidGradeMethod,
			fmt.Sprintf("unknown grade method %d", value),
			map[string]string{"GradeMethod": fmt.Sprintf("%d", value)},
		)
	}
	return method, nil
}
