package server

import (
	"context"
	"errors"
	"fmt"

	"github.com/openlms/ispring-play/internal/services/play/domain/grading"
	"github.com/openlms/ispring-play/internal/services/play/storage"
)

// ProvisionContentInput registers a content version and, when missing, its
// owning module configuration.
type ProvisionContentInput struct {
	ModuleID    string
	ModuleName  string
	GradeMethod grading.Method
	ContentID   string
	Version     int64
}

// ProvisionContent registers the module and content rows a playback session
// depends on. The writes span two tables without a shared transaction, so a
// failed content write compensates by removing a module row created in the
// same call.
func (s *Service) ProvisionContent(ctx context.Context, input ProvisionContentInput) error {
	now := s.now()
	var undo compensator

	_, err := s.stores.Module.GetModule(ctx, input.ModuleID)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		record := storage.ModuleRecord{
			ID:          input.ModuleID,
			Name:        input.ModuleName,
			GradeMethod: input.GradeMethod,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := s.stores.Module.PutModule(ctx, record); err != nil {
			return fmt.Errorf("register module: %w", err)
		}
		undo.add("remove module "+input.ModuleID, func(ctx context.Context) error {
			return s.stores.Module.DeleteModule(ctx, input.ModuleID)
		})
	case err != nil:
		return fmt.Errorf("look up module: %w", err)
	}

	content := storage.ContentRecord{
		ID:        input.ContentID,
		ModuleID:  input.ModuleID,
		Version:   input.Version,
		CreatedAt: now,
	}
	if err := s.stores.Content.PutContent(ctx, content); err != nil {
		undo.run(ctx)
		return fmt.Errorf("register content: %w", err)
	}
	return nil
}

// RemoveContent deletes a content version and every session recorded under
// it. Returns how many sessions were removed.
func (s *Service) RemoveContent(ctx context.Context, contentID string) (int64, error) {
	removed, err := s.stores.Session.DeleteSessionsByContent(ctx, contentID)
	if err != nil {
		return 0, fmt.Errorf("delete sessions: %w", err)
	}
	if err := s.stores.Content.DeleteContent(ctx, contentID); err != nil && !errors.Is(err, storage.ErrNotFound) {
		return removed, fmt.Errorf("delete content: %w", err)
	}
	s.emitter.SessionsDeleted(ctx, contentID, removed)
	return removed, nil
}
