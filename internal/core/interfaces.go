package core

import (
	"context"

	"skillcache-backend-go/internal/models"
)

// UserService defines the interface for user-related operations.
type UserService interface {
	// GetOrCreate retrieves a user by ID, creating the profile on first sight.
	GetOrCreate(ctx context.Context, userID, email, displayName, photoURL string) (*models.User, bool, error)
	GetByID(ctx context.Context, userID string) (*models.User, error)
}

// VaultService defines the interface for vault-related operations.
type VaultService interface {
	CreateVault(ctx context.Context, ownerID, ownerEmail string, req models.CreateVaultRequest) (*models.Vault, error)
	GetVaultByID(ctx context.Context, userID, vaultID string) (*models.Vault, error)
	ListVaults(ctx context.Context, userID string, paginationParams map[string]string) ([]*models.Vault, error)
	UpdateVault(ctx context.Context, userID, vaultID string, req models.UpdateVaultRequest) (*models.Vault, error)
	DeleteVault(ctx context.Context, userID, vaultID string) error
	RemoveMember(ctx context.Context, actorID, vaultID, targetUserID string) error
	UpdateMemberRole(ctx context.Context, actorID, vaultID, targetUserID string, newRole models.Role) error
}

// InvitationService defines the interface for the invitation lifecycle.
type InvitationService interface {
	Invite(ctx context.Context, inviterID, vaultID string, req models.InviteToVaultRequest) (*models.VaultInvitation, error)
	Accept(ctx context.Context, userID, userEmail, invitationID string) (*models.VaultInvitation, error)
	Reject(ctx context.Context, userID, userEmail, invitationID string) (*models.VaultInvitation, error)
	ListForEmail(ctx context.Context, email string) ([]*models.VaultInvitation, error)
}

// NoteService defines the interface for note-related operations.
type NoteService interface {
	CreateNote(ctx context.Context, userID string, req models.CreateNoteRequest) (*models.Note, error)
	GetNoteByID(ctx context.Context, userID, noteID string) (*models.Note, error)
	ListPersonalNotes(ctx context.Context, userID string, paginationParams map[string]string) ([]*models.Note, error)
	ListVaultNotes(ctx context.Context, userID, vaultID string, paginationParams map[string]string) ([]*models.Note, error)
	UpdateNote(ctx context.Context, userID, noteID string, req models.UpdateNoteRequest) (*models.Note, error)
	DeleteNote(ctx context.Context, userID, noteID string) error
}

// AuditService defines the interface for audit logging operations.
type AuditService interface {
	CreateAuditLog(ctx context.Context, logEntry models.AuditLog) error
}
