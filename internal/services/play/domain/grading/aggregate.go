package grading

import (
	"fmt"
	"time"

	"github.com/openlms/ispring-play/internal/platform/errors"
)

// Attempt is the grade-relevant projection of one playback session.
type Attempt struct {
	// Score is the learner's raw achieved score; nil when the session
	// ended without reporting one. Unscored attempts never participate
	// in aggregation.
	Score *float64
	// BeganAt orders attempts for the first/last policies.
	BeganAt time.Time
}

// ContentAttempts groups one content version's attempts for module-scope
// aggregation.
type ContentAttempts struct {
	ContentID string
	Attempts  []Attempt
}

// Aggregate folds scored attempts into a single grade under the given method.
// The second return value is false when no attempt carries a score; callers
// must treat that as "no grade", never as zero.
func Aggregate(method Method, attempts []Attempt) (float64, bool, error) {
	if !method.Valid() {
		return 0, false, errors.WithMetadata(
			errors.CodeModuleInvalidGradeMethod,
			fmt.Sprintf("unknown grade method %d", int(method)),
			map[string]string{"GradeMethod": fmt.Sprintf("%d", int(method))},
		)
	}

	scored := make([]Attempt, 0, len(attempts))
	for _, attempt := range attempts {
		if attempt.Score != nil {
			scored = append(scored, attempt)
		}
	}
	if len(scored) == 0 {
		return 0, false, nil
	}

	switch method {
	case MethodHighest:
		best := *scored[0].Score
		for _, attempt := range scored[1:] {
			if *attempt.Score > best {
				best = *attempt.Score
			}
		}
		return best, true, nil

	case MethodAverage:
		var sum float64
		for _, attempt := range scored {
			sum += *attempt.Score
		}
		return sum / float64(len(scored)), true, nil

	case MethodFirst:
		earliest := scored[0]
		for _, attempt := range scored[1:] {
			if attempt.BeganAt.Before(earliest.BeganAt) {
				earliest = attempt
			}
		}
		return *earliest.Score, true, nil

	case MethodLast:
		latest := scored[0]
		for _, attempt := range scored[1:] {
			if attempt.BeganAt.After(latest.BeganAt) {
				latest = attempt
			}
		}
		return *latest.Score, true, nil

	default:
		return 0, false, errors.New(errors.CodeModuleInvalidGradeMethod, "unreachable grade method")
	}
}

// AggregateModule computes a module-scope grade across content versions.
//
// Each content version's attempts are folded first, then the same method is
// applied again across the per-content results (a two-level fold). Gradebook
// totals depend on this nested application. For the first/last policies the
// per-content result is ordered by that content's earliest scored attempt.
func AggregateModule(method Method, contents []ContentAttempts) (float64, bool, error) {
	if !method.Valid() {
		return 0, false, errors.WithMetadata(
			errors.CodeModuleInvalidGradeMethod,
			fmt.Sprintf("unknown grade method %d", int(method)),
			map[string]string{"GradeMethod": fmt.Sprintf("%d", int(method))},
		)
	}

	perContent := make([]Attempt, 0, len(contents))
	for _, content := range contents {
		grade, ok, err := Aggregate(method, content.Attempts)
		if err != nil {
			return 0, false, err
		}
		if !ok {
			continue
		}
		value := grade
		perContent = append(perContent, Attempt{
			Score:   &value,
			BeganAt: earliestScored(content.Attempts),
		})
	}

	return Aggregate(method, perContent)
}

func earliestScored(attempts []Attempt) time.Time {
	var earliest time.Time
	for _, attempt := range attempts {
		if attempt.Score == nil {
			continue
		}
		if earliest.IsZero() || attempt.BeganAt.Before(earliest) {
			earliest = attempt.BeganAt
		}
	}
	return earliest
}
