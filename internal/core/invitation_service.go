package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"skillcache-backend-go/internal/db"
	"skillcache-backend-go/internal/models"
	"skillcache-backend-go/pkg/cache"
	"skillcache-backend-go/pkg/mailer"
	"skillcache-backend-go/pkg/messagequeue"
)

// Custom errors for the InvitationService.
var (
	ErrInvitationNotFound   = errors.New("invitation not found")
	ErrInvitationNotPending = errors.New("invitation is no longer pending")
	ErrInvitationExpired    = errors.New("invitation has expired")
	ErrDuplicateMember      = errors.New("user is already an active member of the vault")
	ErrDuplicateInvitation  = errors.New("a pending invitation already exists for this email")
)

// InvitationTTL is the expiry window granted to a new invitation.
const InvitationTTL = 7 * 24 * time.Hour

// invitationService implements the InvitationService interface.
// Invitations follow a strict state machine: pending -> accepted or
// pending -> rejected, both terminal.
type invitationService struct {
	invitationRepo db.InvitationRepository
	vaultRepo      db.VaultRepository
	auditService   AuditService
	vaultCache     cache.Cache               // optional; invalidated when acceptance mutates membership
	mq             messagequeue.MessageQueue // optional; lifecycle events
	mail           *mailer.Mailer            // optional; invitation email
	clientURL      string                    // base URL embedded in invitation links
	now            func() time.Time
}

// NewInvitationService creates a new InvitationService instance. vaultCache,
// mq, and mail may be nil, which disables the corresponding side channel.
func NewInvitationService(
	ir db.InvitationRepository,
	vr db.VaultRepository,
	as AuditService,
	vaultCache cache.Cache,
	mq messagequeue.MessageQueue,
	mail *mailer.Mailer,
	clientURL string,
) InvitationService {
	return &invitationService{
		invitationRepo: ir,
		vaultRepo:      vr,
		auditService:   as,
		vaultCache:     vaultCache,
		mq:             mq,
		mail:           mail,
		clientURL:      clientURL,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// Invite creates a pending invitation for email on vaultID at the given role.
// The inviter needs the invite action; the target must not already be an
// active member, and no pending invitation may exist for (vaultID, email).
func (s *invitationService) Invite(ctx context.Context, inviterID, vaultID string, req models.InviteToVaultRequest) (*models.VaultInvitation, error) {
	if req.Role != models.RoleEdit && req.Role != models.RoleView {
		return nil, fmt.Errorf("%w: invitations may only grant 'edit' or 'view', got '%s'", ErrInvalidRole, req.Role)
	}

	vault, err := s.vaultRepo.GetByID(ctx, vaultID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: vault with ID '%s'", ErrVaultNotFound, vaultID)
		}
		return nil, fmt.Errorf("failed to get vault '%s' for invite: %w", vaultID, err)
	}
	if !HasPermission(vault, inviterID, ActionInvite) {
		return nil, fmt.Errorf("%w: user '%s' cannot invite to vault '%s'", ErrPermissionDenied, inviterID, vaultID)
	}

	if vault.ActiveMemberByEmail(req.Email) != nil {
		return nil, fmt.Errorf("%w: '%s' on vault '%s'", ErrDuplicateMember, req.Email, vaultID)
	}

	if _, err := s.invitationRepo.GetPendingByVaultAndEmail(ctx, vaultID, req.Email); err == nil {
		return nil, fmt.Errorf("%w: '%s' on vault '%s'", ErrDuplicateInvitation, req.Email, vaultID)
	} else if !errors.Is(err, db.ErrNotFound) {
		return nil, fmt.Errorf("failed to check pending invitations for vault '%s': %w", vaultID, err)
	}

	now := s.now()
	invitation := &models.VaultInvitation{
		VaultID:   vaultID,
		VaultName: vault.Name,
		Email:     req.Email,
		Role:      req.Role,
		Status:    models.InvitationStatusPending,
		Token:     uuid.NewString(),
		InvitedBy: inviterID,
		InvitedAt: now,
		ExpiresAt: now.Add(InvitationTTL),
	}

	invitationID, err := s.invitationRepo.Create(ctx, invitation)
	if err != nil {
		return nil, fmt.Errorf("failed to create invitation in repository: %w", err)
	}
	invitation.ID = invitationID

	s.sendInvitationMail(invitation)

	if err := publishEvent(s.mq, QueueInvitationEvents, DomainEvent{
		Kind:    EventInvitationCreated,
		VaultID: vaultID,
		Email:   req.Email,
		ActorID: inviterID,
	}); err != nil {
		fmt.Printf("Warning: failed to publish %s event (invitationID: %s): %v\n", EventInvitationCreated, invitationID, err)
	}

	s.audit(ctx, models.AuditLog{
		UserID:     inviterID,
		Action:     "INVITATION_CREATE",
		TargetType: "INVITATION",
		TargetID:   invitationID,
		Details:    map[string]interface{}{"vaultId": vaultID, "email": req.Email, "role": string(req.Role)},
	})

	return invitation, nil
}

// Accept transitions a pending invitation to accepted and, in the same store
// transaction, appends the caller to the vault's member list at the invited
// role. Expired-but-pending invitations cannot be accepted and stay pending.
func (s *invitationService) Accept(ctx context.Context, userID, userEmail, invitationID string) (*models.VaultInvitation, error) {
	invitation, err := s.loadFor(ctx, userEmail, invitationID)
	if err != nil {
		return nil, err
	}
	if invitation.Expired(s.now()) {
		return nil, fmt.Errorf("%w: invitation '%s' expired at %s", ErrInvitationExpired, invitationID, invitation.ExpiresAt.Format(time.RFC3339))
	}

	// A user can hold at most one membership per vault.
	vault, err := s.vaultRepo.GetByID(ctx, invitation.VaultID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: vault with ID '%s'", ErrVaultNotFound, invitation.VaultID)
		}
		return nil, fmt.Errorf("failed to get vault '%s' for acceptance: %w", invitation.VaultID, err)
	}
	if m := vault.MemberByUserID(userID); m != nil && m.Status == models.MemberStatusActive {
		return nil, fmt.Errorf("%w: user '%s' on vault '%s'", ErrDuplicateMember, userID, invitation.VaultID)
	}

	member := models.VaultMember{
		UserID:   userID,
		Email:    invitation.Email,
		Role:     invitation.Role,
		Status:   models.MemberStatusActive,
		JoinedAt: s.now(),
	}
	if err := s.invitationRepo.Accept(ctx, invitationID, member); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: invitation with ID '%s'", ErrInvitationNotFound, invitationID)
		}
		if errors.Is(err, db.ErrNotPending) {
			return nil, fmt.Errorf("%w: invitation '%s' was accepted or rejected concurrently", ErrInvitationNotPending, invitationID)
		}
		return nil, fmt.Errorf("failed to accept invitation '%s': %w", invitationID, err)
	}
	s.invalidateVault(ctx, invitation.VaultID)
	invitation.Status = models.InvitationStatusAccepted

	if err := publishEvent(s.mq, QueueInvitationEvents, DomainEvent{
		Kind:    EventInvitationAccepted,
		VaultID: invitation.VaultID,
		Email:   invitation.Email,
		ActorID: userID,
	}); err != nil {
		fmt.Printf("Warning: failed to publish %s event (invitationID: %s): %v\n", EventInvitationAccepted, invitationID, err)
	}

	s.audit(ctx, models.AuditLog{
		UserID:     userID,
		Action:     "INVITATION_ACCEPT",
		TargetType: "INVITATION",
		TargetID:   invitationID,
		Details:    map[string]interface{}{"vaultId": invitation.VaultID},
	})

	return invitation, nil
}

// Reject transitions a pending invitation to rejected, a terminal state.
func (s *invitationService) Reject(ctx context.Context, userID, userEmail, invitationID string) (*models.VaultInvitation, error) {
	invitation, err := s.loadFor(ctx, userEmail, invitationID)
	if err != nil {
		return nil, err
	}

	if err := s.invitationRepo.UpdateStatus(ctx, invitationID, models.InvitationStatusRejected); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: invitation with ID '%s'", ErrInvitationNotFound, invitationID)
		}
		return nil, fmt.Errorf("failed to reject invitation '%s': %w", invitationID, err)
	}
	invitation.Status = models.InvitationStatusRejected

	if err := publishEvent(s.mq, QueueInvitationEvents, DomainEvent{
		Kind:    EventInvitationRejected,
		VaultID: invitation.VaultID,
		Email:   invitation.Email,
		ActorID: userID,
	}); err != nil {
		fmt.Printf("Warning: failed to publish %s event (invitationID: %s): %v\n", EventInvitationRejected, invitationID, err)
	}

	s.audit(ctx, models.AuditLog{
		UserID:     userID,
		Action:     "INVITATION_REJECT",
		TargetType: "INVITATION",
		TargetID:   invitationID,
		Details:    map[string]interface{}{"vaultId": invitation.VaultID},
	})

	return invitation, nil
}

// ListForEmail returns the caller's pending invitations.
func (s *invitationService) ListForEmail(ctx context.Context, email string) ([]*models.VaultInvitation, error) {
	invitations, err := s.invitationRepo.GetPendingByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to list invitations for '%s': %w", email, err)
	}
	return invitations, nil
}

// loadFor fetches an invitation and checks that it is still pending and that
// it is addressed to userEmail. Only the invitee may act on an invitation.
func (s *invitationService) loadFor(ctx context.Context, userEmail, invitationID string) (*models.VaultInvitation, error) {
	invitation, err := s.invitationRepo.GetByID(ctx, invitationID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: invitation with ID '%s'", ErrInvitationNotFound, invitationID)
		}
		return nil, fmt.Errorf("failed to get invitation '%s': %w", invitationID, err)
	}
	if invitation.Email != userEmail {
		return nil, fmt.Errorf("%w: invitation '%s' is not addressed to '%s'", ErrPermissionDenied, invitationID, userEmail)
	}
	if invitation.Terminal() {
		return nil, fmt.Errorf("%w: invitation '%s' is '%s'", ErrInvitationNotPending, invitationID, invitation.Status)
	}
	return invitation, nil
}

// sendInvitationMail delivers the invitation email, best-effort.
func (s *invitationService) sendInvitationMail(invitation *models.VaultInvitation) {
	if s.mail == nil {
		return
	}
	subject := fmt.Sprintf("You have been invited to the vault %q", invitation.VaultName)
	body := fmt.Sprintf(
		"<p>You have been invited to join the vault <b>%s</b> with <b>%s</b> access.</p>"+
			"<p><a href=%q>Open SkillCache</a> to accept or decline. The invitation expires on %s.</p>",
		invitation.VaultName, invitation.Role, s.clientURL, invitation.ExpiresAt.Format("2 Jan 2006"))
	if err := s.mail.Send(invitation.Email, subject, body); err != nil {
		fmt.Printf("Warning: failed to send invitation mail (invitationID: %s): %v\n", invitation.ID, err)
	}
}

// invalidateVault drops the cached vault copy after membership changed.
func (s *invitationService) invalidateVault(ctx context.Context, vaultID string) {
	if s.vaultCache == nil {
		return
	}
	if err := s.vaultCache.Delete(ctx, vaultCacheKey(vaultID)); err != nil {
		fmt.Printf("Warning: failed to invalidate cached vault '%s': %v\n", vaultID, err)
	}
}

// audit records an audit log entry, never failing the main operation.
func (s *invitationService) audit(ctx context.Context, entry models.AuditLog) {
	if s.auditService == nil {
		return
	}
	entry.Timestamp = s.now()
	if err := s.auditService.CreateAuditLog(ctx, entry); err != nil {
		fmt.Printf("Warning: failed to create audit log for %s (targetID: %s): %v\n", entry.Action, entry.TargetID, err)
	}
}
