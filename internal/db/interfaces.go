package db

import (
	"context"
	"errors"

	"skillcache-backend-go/internal/models"
)

// ErrNotFound is returned by repositories when a document does not exist.
var ErrNotFound = errors.New("document not found")

// ErrNotPending is returned by InvitationRepository.Accept when the invitation
// reached a terminal state between the caller's read and the transaction.
var ErrNotPending = errors.New("invitation is not pending")

// UserRepository defines the interface for user data storage operations.
type UserRepository interface {
	GetByID(ctx context.Context, userID string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
}

// VaultRepository defines the interface for vault data storage operations.
type VaultRepository interface {
	Create(ctx context.Context, vault *models.Vault) (string, error) // Returns new vault ID
	GetByID(ctx context.Context, vaultID string) (*models.Vault, error)
	GetByMemberID(ctx context.Context, userID string, paginationParams map[string]string) ([]*models.Vault, error)
	// Update persists metadata fields only (name, description, isPrivate).
	// The member list is never written here; membership changes go through
	// UpdateMembers or the invitation Accept transaction.
	Update(ctx context.Context, vault *models.Vault) error
	Delete(ctx context.Context, vaultID string) error
	// UpdateMembers applies mutate to the vault's member list inside a Firestore
	// transaction, so concurrent membership edits never lose updates.
	UpdateMembers(ctx context.Context, vaultID string, mutate func(members []models.VaultMember) ([]models.VaultMember, error)) error
}

// InvitationRepository defines the interface for vault invitation storage operations.
type InvitationRepository interface {
	Create(ctx context.Context, invitation *models.VaultInvitation) (string, error)
	GetByID(ctx context.Context, invitationID string) (*models.VaultInvitation, error)
	GetPendingByVaultAndEmail(ctx context.Context, vaultID, email string) (*models.VaultInvitation, error)
	GetPendingByEmail(ctx context.Context, email string) ([]*models.VaultInvitation, error)
	UpdateStatus(ctx context.Context, invitationID string, status models.InvitationStatus) error
	// Accept atomically appends member to the invitation's vault and transitions
	// the invitation to accepted, in a single transaction.
	Accept(ctx context.Context, invitationID string, member models.VaultMember) error
	DeletePendingByVaultID(ctx context.Context, vaultID string) error
}

// NoteRepository defines the interface for note data storage operations.
type NoteRepository interface {
	Create(ctx context.Context, note *models.Note) (string, error)
	GetByID(ctx context.Context, noteID string) (*models.Note, error)
	GetByUserID(ctx context.Context, userID string, paginationParams map[string]string) ([]*models.Note, error)
	GetByVaultID(ctx context.Context, vaultID string, paginationParams map[string]string) ([]*models.Note, error)
	Update(ctx context.Context, note *models.Note) error
	Delete(ctx context.Context, noteID string) error
	DeleteByVaultID(ctx context.Context, vaultID string) error
}

// AuditRepository defines the interface for audit log storage operations.
type AuditRepository interface {
	Create(ctx context.Context, logEntry models.AuditLog) error
}
