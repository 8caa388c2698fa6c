package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"skillcache-backend-go/internal/db"
	"skillcache-backend-go/internal/models"
	"skillcache-backend-go/pkg/cache"
	"skillcache-backend-go/pkg/messagequeue"
)

// Custom errors for the VaultService.
var (
	ErrVaultNotFound     = errors.New("vault not found")
	ErrPermissionDenied  = errors.New("user does not have permission for this action on the vault")
	ErrMemberNotFound    = errors.New("member not found on the vault")
	ErrOwnerProtected    = errors.New("the vault owner cannot be removed or demoted")
	ErrInvalidRole       = errors.New("invalid role for this operation")
	ErrVaultUpdateFailed = errors.New("failed to update vault")
	ErrVaultDeleteFailed = errors.New("failed to delete vault")
)

const vaultCacheTTL = 5 * time.Minute

func vaultCacheKey(vaultID string) string { return "vault:" + vaultID }

// vaultService implements the VaultService interface.
type vaultService struct {
	vaultRepo      db.VaultRepository
	noteRepo       db.NoteRepository
	invitationRepo db.InvitationRepository
	auditService   AuditService
	vaultCache     cache.Cache               // optional; nil disables caching
	mq             messagequeue.MessageQueue // optional; nil disables events
}

// NewVaultService creates a new VaultService instance. vaultCache and mq may
// be nil, which disables the read-through cache and event publication.
func NewVaultService(
	vr db.VaultRepository,
	nr db.NoteRepository,
	ir db.InvitationRepository,
	as AuditService,
	vaultCache cache.Cache,
	mq messagequeue.MessageQueue,
) VaultService {
	return &vaultService{
		vaultRepo:      vr,
		noteRepo:       nr,
		invitationRepo: ir,
		auditService:   as,
		vaultCache:     vaultCache,
		mq:             mq,
	}
}

// getVault fetches a vault through the cache. The cache is a convenience over
// the store, never the source of truth: it is invalidated on every mutation.
func (s *vaultService) getVault(ctx context.Context, vaultID string) (*models.Vault, error) {
	if s.vaultCache != nil {
		if cached, err := s.vaultCache.Get(ctx, vaultCacheKey(vaultID)); err == nil && cached != "" {
			var vault models.Vault
			if err := json.Unmarshal([]byte(cached), &vault); err == nil {
				return &vault, nil
			}
		}
	}

	vault, err := s.vaultRepo.GetByID(ctx, vaultID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: vault with ID '%s'", ErrVaultNotFound, vaultID)
		}
		return nil, fmt.Errorf("failed to get vault '%s' from repository: %w", vaultID, err)
	}

	if s.vaultCache != nil {
		if encoded, err := json.Marshal(vault); err == nil {
			if err := s.vaultCache.Set(ctx, vaultCacheKey(vaultID), string(encoded), vaultCacheTTL); err != nil {
				fmt.Printf("Warning: failed to cache vault '%s': %v\n", vaultID, err)
			}
		}
	}
	return vault, nil
}

// invalidateVault drops the cached copy after a mutation.
func (s *vaultService) invalidateVault(ctx context.Context, vaultID string) {
	if s.vaultCache == nil {
		return
	}
	if err := s.vaultCache.Delete(ctx, vaultCacheKey(vaultID)); err != nil {
		fmt.Printf("Warning: failed to invalidate cached vault '%s': %v\n", vaultID, err)
	}
}

// CreateVault creates a new vault owned by ownerID. Any authenticated user may
// create a vault; the member list starts with exactly one active owner entry,
// which establishes the single-owner invariant.
func (s *vaultService) CreateVault(ctx context.Context, ownerID, ownerEmail string, req models.CreateVaultRequest) (*models.Vault, error) {
	if ownerID == "" {
		return nil, errors.New("ownerID cannot be empty for CreateVault")
	}

	now := time.Now().UTC()
	newVault := &models.Vault{
		Name:        req.Name,
		Description: req.Description,
		IsPrivate:   req.IsPrivate,
		OwnerID:     ownerID,
		Members: []models.VaultMember{{
			UserID:   ownerID,
			Email:    ownerEmail,
			Role:     models.RoleOwner,
			Status:   models.MemberStatusActive,
			JoinedAt: now,
		}},
		CreatedAt: now,
		UpdatedAt: now,
	}

	vaultID, err := s.vaultRepo.Create(ctx, newVault)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault in repository: %w", err)
	}
	newVault.ID = vaultID

	s.audit(ctx, models.AuditLog{
		UserID:     ownerID,
		Action:     "VAULT_CREATE",
		TargetType: "VAULT",
		TargetID:   newVault.ID,
		Details:    map[string]interface{}{"name": newVault.Name},
	})

	return newVault, nil
}

// GetVaultByID retrieves a vault if the user is an active member.
func (s *vaultService) GetVaultByID(ctx context.Context, userID, vaultID string) (*models.Vault, error) {
	vault, err := s.getVault(ctx, vaultID)
	if err != nil {
		return nil, err
	}
	if !HasPermission(vault, userID, ActionView) {
		return nil, fmt.Errorf("%w: user '%s' cannot view vault '%s'", ErrPermissionDenied, userID, vaultID)
	}
	return vault, nil
}

// ListVaults retrieves every vault where the user is a member, owned or shared.
func (s *vaultService) ListVaults(ctx context.Context, userID string, paginationParams map[string]string) ([]*models.Vault, error) {
	vaults, err := s.vaultRepo.GetByMemberID(ctx, userID, paginationParams)
	if err != nil {
		return nil, fmt.Errorf("failed to list vaults for user '%s': %w", userID, err)
	}
	return vaults, nil
}

// UpdateVault updates vault metadata. Requires the edit action.
func (s *vaultService) UpdateVault(ctx context.Context, userID, vaultID string, req models.UpdateVaultRequest) (*models.Vault, error) {
	vault, err := s.getVault(ctx, vaultID)
	if err != nil {
		return nil, err
	}
	if !HasPermission(vault, userID, ActionEdit) {
		return nil, fmt.Errorf("%w: user '%s' cannot edit vault '%s'", ErrPermissionDenied, userID, vaultID)
	}

	if req.Name != nil {
		vault.Name = *req.Name
	}
	if req.Description != nil {
		vault.Description = *req.Description
	}
	if req.IsPrivate != nil {
		vault.IsPrivate = *req.IsPrivate
	}
	vault.UpdatedAt = time.Now().UTC()

	if err := s.vaultRepo.Update(ctx, vault); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrVaultUpdateFailed, err)
	}
	s.invalidateVault(ctx, vaultID)

	s.audit(ctx, models.AuditLog{
		UserID:     userID,
		Action:     "VAULT_UPDATE",
		TargetType: "VAULT",
		TargetID:   vault.ID,
		Details:    map[string]interface{}{"name": vault.Name},
	})

	return vault, nil
}

// DeleteVault deletes a vault. Owner-only. The cascade removes the vault's
// notes and its pending invitations before the vault document itself.
func (s *vaultService) DeleteVault(ctx context.Context, userID, vaultID string) error {
	vault, err := s.getVault(ctx, vaultID)
	if err != nil {
		return err
	}
	if !HasPermission(vault, userID, ActionDeleteVault) {
		return fmt.Errorf("%w: user '%s' cannot delete vault '%s'", ErrPermissionDenied, userID, vaultID)
	}

	if err := s.noteRepo.DeleteByVaultID(ctx, vaultID); err != nil {
		return fmt.Errorf("%w: notes cascade: %w", ErrVaultDeleteFailed, err)
	}
	if err := s.invitationRepo.DeletePendingByVaultID(ctx, vaultID); err != nil {
		return fmt.Errorf("%w: invitations cascade: %w", ErrVaultDeleteFailed, err)
	}
	if err := s.vaultRepo.Delete(ctx, vaultID); err != nil {
		return fmt.Errorf("%w: %w", ErrVaultDeleteFailed, err)
	}
	s.invalidateVault(ctx, vaultID)

	if err := publishEvent(s.mq, QueueVaultEvents, DomainEvent{
		Kind:    EventVaultDeleted,
		VaultID: vaultID,
		ActorID: userID,
	}); err != nil {
		fmt.Printf("Warning: failed to publish %s event (vaultID: %s): %v\n", EventVaultDeleted, vaultID, err)
	}

	s.audit(ctx, models.AuditLog{
		UserID:     userID,
		Action:     "VAULT_DELETE",
		TargetType: "VAULT",
		TargetID:   vaultID,
		Details:    map[string]interface{}{"name": vault.Name},
	})

	return nil
}

// RemoveMember removes a member from the vault. Owner-only; the owner itself
// can never be removed. The member list is rewritten inside a transaction so
// a concurrent invitation acceptance cannot be lost.
func (s *vaultService) RemoveMember(ctx context.Context, actorID, vaultID, targetUserID string) error {
	vault, err := s.getVault(ctx, vaultID)
	if err != nil {
		return err
	}
	if !HasPermission(vault, actorID, ActionRemoveMember) {
		return fmt.Errorf("%w: user '%s' cannot remove members of vault '%s'", ErrPermissionDenied, actorID, vaultID)
	}

	err = s.vaultRepo.UpdateMembers(ctx, vaultID, func(members []models.VaultMember) ([]models.VaultMember, error) {
		idx := -1
		for i := range members {
			if members[i].UserID == targetUserID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return nil, fmt.Errorf("%w: user '%s' on vault '%s'", ErrMemberNotFound, targetUserID, vaultID)
		}
		if members[idx].Role == models.RoleOwner {
			return nil, fmt.Errorf("%w: user '%s' owns vault '%s'", ErrOwnerProtected, targetUserID, vaultID)
		}
		return append(members[:idx], members[idx+1:]...), nil
	})
	if err != nil {
		return err
	}
	s.invalidateVault(ctx, vaultID)

	s.audit(ctx, models.AuditLog{
		UserID:     actorID,
		Action:     "VAULT_MEMBER_REMOVE",
		TargetType: "VAULT",
		TargetID:   vaultID,
		Details:    map[string]interface{}{"removedUserId": targetUserID},
	})

	return nil
}

// UpdateMemberRole changes a member's role. Owner-only; the owner's own role
// can never be changed, and owner is never assignable through this path.
func (s *vaultService) UpdateMemberRole(ctx context.Context, actorID, vaultID, targetUserID string, newRole models.Role) error {
	if newRole != models.RoleEdit && newRole != models.RoleView {
		return fmt.Errorf("%w: '%s'", ErrInvalidRole, newRole)
	}

	vault, err := s.getVault(ctx, vaultID)
	if err != nil {
		return err
	}
	if !HasPermission(vault, actorID, ActionRemoveMember) {
		return fmt.Errorf("%w: user '%s' cannot change roles on vault '%s'", ErrPermissionDenied, actorID, vaultID)
	}

	err = s.vaultRepo.UpdateMembers(ctx, vaultID, func(members []models.VaultMember) ([]models.VaultMember, error) {
		for i := range members {
			if members[i].UserID != targetUserID {
				continue
			}
			if members[i].Role == models.RoleOwner {
				return nil, fmt.Errorf("%w: user '%s' owns vault '%s'", ErrOwnerProtected, targetUserID, vaultID)
			}
			members[i].Role = newRole
			return members, nil
		}
		return nil, fmt.Errorf("%w: user '%s' on vault '%s'", ErrMemberNotFound, targetUserID, vaultID)
	})
	if err != nil {
		return err
	}
	s.invalidateVault(ctx, vaultID)

	s.audit(ctx, models.AuditLog{
		UserID:     actorID,
		Action:     "VAULT_MEMBER_ROLE_UPDATE",
		TargetType: "VAULT",
		TargetID:   vaultID,
		Details:    map[string]interface{}{"targetUserId": targetUserID, "newRole": string(newRole)},
	})

	return nil
}

// audit records an audit log entry, never failing the main operation.
func (s *vaultService) audit(ctx context.Context, entry models.AuditLog) {
	if s.auditService == nil {
		return
	}
	entry.Timestamp = time.Now().UTC()
	if err := s.auditService.CreateAuditLog(ctx, entry); err != nil {
		fmt.Printf("Warning: failed to create audit log for %s (targetID: %s): %v\n", entry.Action, entry.TargetID, err)
	}
}
