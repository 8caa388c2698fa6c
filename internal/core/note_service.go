package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"skillcache-backend-go/internal/db"
	"skillcache-backend-go/internal/models"
)

// Custom errors for the NoteService.
var (
	ErrNoteNotFound = errors.New("note not found")
)

// noteService implements the NoteService interface. Notes are either personal
// (only the owning user may touch them) or vault-scoped (access is decided by
// the permission evaluator against the owning vault).
type noteService struct {
	noteRepo     db.NoteRepository
	vaultRepo    db.VaultRepository
	auditService AuditService
}

// NewNoteService creates a new NoteService instance.
func NewNoteService(nr db.NoteRepository, vr db.VaultRepository, as AuditService) NoteService {
	return &noteService{
		noteRepo:     nr,
		vaultRepo:    vr,
		auditService: as,
	}
}

// checkVaultAction verifies that userID may perform action on vaultID.
func (s *noteService) checkVaultAction(ctx context.Context, userID, vaultID string, action Action) error {
	vault, err := s.vaultRepo.GetByID(ctx, vaultID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return fmt.Errorf("%w: vault with ID '%s'", ErrVaultNotFound, vaultID)
		}
		return fmt.Errorf("failed to get vault '%s' for permission check: %w", vaultID, err)
	}
	if !HasPermission(vault, userID, action) {
		return fmt.Errorf("%w: user '%s' cannot %s on vault '%s'", ErrPermissionDenied, userID, action, vaultID)
	}
	return nil
}

// checkNoteAccess verifies access to an existing note: personal notes belong
// to their creator; vault notes defer to the permission evaluator.
func (s *noteService) checkNoteAccess(ctx context.Context, userID string, note *models.Note, action Action) error {
	if note.Personal() {
		if note.UserID != userID {
			return fmt.Errorf("%w: note '%s' belongs to another user", ErrPermissionDenied, note.ID)
		}
		return nil
	}
	return s.checkVaultAction(ctx, userID, note.VaultID, action)
}

// CreateNote creates a personal note, or a vault note when req.VaultID is set.
func (s *noteService) CreateNote(ctx context.Context, userID string, req models.CreateNoteRequest) (*models.Note, error) {
	now := time.Now().UTC()
	note := &models.Note{
		Title:     req.Title,
		Content:   req.Content,
		Summary:   req.Summary,
		Tags:      req.Tags,
		Category:  req.Category,
		Priority:  req.Priority,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if req.VaultID != "" {
		if err := s.checkVaultAction(ctx, userID, req.VaultID, ActionEdit); err != nil {
			return nil, err
		}
		note.VaultID = req.VaultID
	} else {
		note.UserID = userID
	}

	noteID, err := s.noteRepo.Create(ctx, note)
	if err != nil {
		return nil, fmt.Errorf("failed to create note in repository: %w", err)
	}
	note.ID = noteID

	s.audit(ctx, models.AuditLog{
		UserID:     userID,
		Action:     "NOTE_CREATE",
		TargetType: "NOTE",
		TargetID:   note.ID,
		Details:    map[string]interface{}{"title": note.Title, "vaultId": note.VaultID},
	})

	return note, nil
}

// GetNoteByID retrieves a note the user may view.
func (s *noteService) GetNoteByID(ctx context.Context, userID, noteID string) (*models.Note, error) {
	note, err := s.loadNote(ctx, noteID)
	if err != nil {
		return nil, err
	}
	if err := s.checkNoteAccess(ctx, userID, note, ActionView); err != nil {
		return nil, err
	}
	return note, nil
}

// ListPersonalNotes lists the caller's personal notes.
func (s *noteService) ListPersonalNotes(ctx context.Context, userID string, paginationParams map[string]string) ([]*models.Note, error) {
	notes, err := s.noteRepo.GetByUserID(ctx, userID, paginationParams)
	if err != nil {
		return nil, fmt.Errorf("failed to list personal notes for '%s': %w", userID, err)
	}
	return notes, nil
}

// ListVaultNotes lists a vault's notes; the caller needs the view action.
func (s *noteService) ListVaultNotes(ctx context.Context, userID, vaultID string, paginationParams map[string]string) ([]*models.Note, error) {
	if err := s.checkVaultAction(ctx, userID, vaultID, ActionView); err != nil {
		return nil, err
	}
	notes, err := s.noteRepo.GetByVaultID(ctx, vaultID, paginationParams)
	if err != nil {
		return nil, fmt.Errorf("failed to list notes of vault '%s': %w", vaultID, err)
	}
	return notes, nil
}

// UpdateNote applies a partial update to a note the user may edit.
func (s *noteService) UpdateNote(ctx context.Context, userID, noteID string, req models.UpdateNoteRequest) (*models.Note, error) {
	note, err := s.loadNote(ctx, noteID)
	if err != nil {
		return nil, err
	}
	if err := s.checkNoteAccess(ctx, userID, note, ActionEdit); err != nil {
		return nil, err
	}

	if req.Title != nil {
		note.Title = *req.Title
	}
	if req.Content != nil {
		note.Content = *req.Content
	}
	if req.Summary != nil {
		note.Summary = *req.Summary
	}
	if req.Tags != nil {
		note.Tags = *req.Tags
	}
	if req.Category != nil {
		note.Category = *req.Category
	}
	if req.Priority != nil {
		note.Priority = *req.Priority
	}
	if req.Archived != nil {
		note.Archived = *req.Archived
	}
	note.UpdatedAt = time.Now().UTC()

	if err := s.noteRepo.Update(ctx, note); err != nil {
		return nil, fmt.Errorf("failed to update note '%s': %w", noteID, err)
	}

	s.audit(ctx, models.AuditLog{
		UserID:     userID,
		Action:     "NOTE_UPDATE",
		TargetType: "NOTE",
		TargetID:   note.ID,
		Details:    map[string]interface{}{"title": note.Title},
	})

	return note, nil
}

// DeleteNote deletes a note the user may edit.
func (s *noteService) DeleteNote(ctx context.Context, userID, noteID string) error {
	note, err := s.loadNote(ctx, noteID)
	if err != nil {
		return err
	}
	if err := s.checkNoteAccess(ctx, userID, note, ActionEdit); err != nil {
		return err
	}

	if err := s.noteRepo.Delete(ctx, noteID); err != nil {
		return fmt.Errorf("failed to delete note '%s': %w", noteID, err)
	}

	s.audit(ctx, models.AuditLog{
		UserID:     userID,
		Action:     "NOTE_DELETE",
		TargetType: "NOTE",
		TargetID:   noteID,
		Details:    map[string]interface{}{"title": note.Title},
	})

	return nil
}

// loadNote fetches a note, translating repository not-found into the service sentinel.
func (s *noteService) loadNote(ctx context.Context, noteID string) (*models.Note, error) {
	note, err := s.noteRepo.GetByID(ctx, noteID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: note with ID '%s'", ErrNoteNotFound, noteID)
		}
		return nil, fmt.Errorf("failed to get note '%s': %w", noteID, err)
	}
	return note, nil
}

// audit records an audit log entry, never failing the main operation.
func (s *noteService) audit(ctx context.Context, entry models.AuditLog) {
	if s.auditService == nil {
		return
	}
	entry.Timestamp = time.Now().UTC()
	if err := s.auditService.CreateAuditLog(ctx, entry); err != nil {
		fmt.Printf("Warning: failed to create audit log for %s (targetID: %s): %v\n", entry.Action, entry.TargetID, err)
	}
}
