package server

import (
	"context"
	"errors"
	"fmt"

	platformerrors "github.com/openlms/ispring-play/internal/platform/errors"
	"github.com/openlms/ispring-play/internal/services/play/domain/grading"
	"github.com/openlms/ispring-play/internal/services/play/storage"
)

// Grade is the outcome of an aggregation. Graded is false when the learner
// has no scored attempt yet, which consumers treat as "no grade" rather
// than zero.
type Grade struct {
	Value  float64
	Graded bool
}

// ComputeContentGrade folds a learner's attempts for one content version
// with the given method.
func (s *Service) ComputeContentGrade(ctx context.Context, contentID, userID string, method grading.Method) (Grade, error) {
	attempts, err := s.stores.Query.ListAttemptsByContent(ctx, contentID, userID)
	if err != nil {
		return Grade{}, fmt.Errorf("load attempts: %w", err)
	}
	value, graded, err := grading.Aggregate(method, attempts)
	if err != nil {
		return Grade{}, err
	}
	return Grade{Value: value, Graded: graded}, nil
}

// ComputeModuleGrade folds a learner's attempts across every content version
// of a module using the module's configured grade method. Attempts are first
// folded per content version, then across versions with the same method.
func (s *Service) ComputeModuleGrade(ctx context.Context, moduleID, userID string) (Grade, error) {
	module, err := s.stores.Module.GetModule(ctx, moduleID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return Grade{}, platformerrors.WithMetadata(
				platformerrors.CodeNotFound,
				fmt.Sprintf("module %s does not exist", moduleID),
				map[string]string{"module_id": moduleID},
			)
		}
		return Grade{}, fmt.Errorf("load module: %w", err)
	}

	grouped, err := s.stores.Query.ListAttemptsByModule(ctx, moduleID, userID)
	if err != nil {
		return Grade{}, fmt.Errorf("load attempts: %w", err)
	}
	value, graded, err := grading.AggregateModule(module.GradeMethod, grouped)
	if err != nil {
		return Grade{}, err
	}
	return Grade{Value: value, Graded: graded}, nil
}

// GradeForGradebook computes the grade pushed to the gradebook. A non-empty
// contentID scopes the fold to that content version's attempts using the
// module's configured method; otherwise the module-level two-level fold
// applies.
func (s *Service) GradeForGradebook(ctx context.Context, moduleID, contentID, userID string) (Grade, error) {
	if contentID == "" {
		return s.ComputeModuleGrade(ctx, moduleID, userID)
	}
	module, err := s.stores.Module.GetModule(ctx, moduleID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return Grade{}, platformerrors.WithMetadata(
				platformerrors.CodeNotFound,
				fmt.Sprintf("module %s does not exist", moduleID),
				map[string]string{"module_id": moduleID},
			)
		}
		return Grade{}, fmt.Errorf("load module: %w", err)
	}
	return s.ComputeContentGrade(ctx, contentID, userID, module.GradeMethod)
}

// PassingRequirementsWereUpdated reports whether any ended session under the
// given contents recorded passing or score fields, which consumers use to
// decide whether completion rules need re-evaluation.
func (s *Service) PassingRequirementsWereUpdated(ctx context.Context, contentIDs []string, userID string) (bool, error) {
	return s.stores.Query.PassingRequirementsWereUpdated(ctx, contentIDs, userID)
}
