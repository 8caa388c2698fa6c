package core

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skillcache-backend-go/internal/db"
	"skillcache-backend-go/internal/models"
)

type invitationServiceFixture struct {
	vaultRepo      *fakeVaultRepo
	invitationRepo *fakeInvitationRepo
	auditRepo      *fakeAuditRepo
	cache          *fakeCache
	mq             *fakeMQ
	service        InvitationService
	vaultService   VaultService
}

func newInvitationServiceFixture() *invitationServiceFixture {
	f := &invitationServiceFixture{
		vaultRepo: newFakeVaultRepo(),
		auditRepo: &fakeAuditRepo{},
		cache:     newFakeCache(),
		mq:        newFakeMQ(),
	}
	f.invitationRepo = newFakeInvitationRepo(f.vaultRepo)
	auditService := NewAuditService(f.auditRepo)
	f.service = NewInvitationService(f.invitationRepo, f.vaultRepo, auditService, f.cache, f.mq, nil, "https://app.example.com")
	f.vaultService = NewVaultService(f.vaultRepo, newFakeNoteRepo(), f.invitationRepo, auditService, f.cache, f.mq)
	return f
}

// setNow pins the service clock for expiry tests.
func (f *invitationServiceFixture) setNow(t time.Time) {
	f.service.(*invitationService).now = func() time.Time { return t }
}

func (f *invitationServiceFixture) createVault(t *testing.T, ownerID, ownerEmail, name string) *models.Vault {
	t.Helper()
	vault, err := f.vaultService.CreateVault(context.Background(), ownerID, ownerEmail, models.CreateVaultRequest{Name: name})
	require.NoError(t, err)
	return vault
}

func TestInvite(t *testing.T) {
	ctx := context.Background()

	t.Run("creates a pending invitation", func(t *testing.T) {
		f := newInvitationServiceFixture()
		vault := f.createVault(t, "owner-1", "owner@example.com", "Team")

		invitation, err := f.service.Invite(ctx, "owner-1", vault.ID, models.InviteToVaultRequest{
			Email: "guest@example.com", Role: models.RoleView,
		})
		require.NoError(t, err)

		assert.NotEmpty(t, invitation.ID)
		assert.NotEmpty(t, invitation.Token)
		assert.Equal(t, models.InvitationStatusPending, invitation.Status)
		assert.Equal(t, vault.ID, invitation.VaultID)
		assert.Equal(t, "Team", invitation.VaultName)
		assert.Equal(t, invitation.InvitedAt.Add(InvitationTTL), invitation.ExpiresAt)
		assert.Len(t, f.mq.published[QueueInvitationEvents], 1)
	})

	t.Run("editor may invite, viewer may not", func(t *testing.T) {
		f := newInvitationServiceFixture()
		vault := f.createVault(t, "owner-1", "owner@example.com", "Team")
		require.NoError(t, f.vaultRepo.UpdateMembers(ctx, vault.ID, func(members []models.VaultMember) ([]models.VaultMember, error) {
			return append(members,
				models.VaultMember{UserID: "editor-1", Email: "editor@example.com", Role: models.RoleEdit, Status: models.MemberStatusActive},
				models.VaultMember{UserID: "viewer-1", Email: "viewer@example.com", Role: models.RoleView, Status: models.MemberStatusActive},
			), nil
		}))

		_, err := f.service.Invite(ctx, "editor-1", vault.ID, models.InviteToVaultRequest{Email: "a@example.com", Role: models.RoleView})
		assert.NoError(t, err)

		_, err = f.service.Invite(ctx, "viewer-1", vault.ID, models.InviteToVaultRequest{Email: "b@example.com", Role: models.RoleView})
		assert.ErrorIs(t, err, ErrPermissionDenied)
	})

	t.Run("owner role is not grantable", func(t *testing.T) {
		f := newInvitationServiceFixture()
		vault := f.createVault(t, "owner-1", "owner@example.com", "Team")

		_, err := f.service.Invite(ctx, "owner-1", vault.ID, models.InviteToVaultRequest{Email: "guest@example.com", Role: models.RoleOwner})
		assert.ErrorIs(t, err, ErrInvalidRole)
	})

	t.Run("active member cannot be invited", func(t *testing.T) {
		f := newInvitationServiceFixture()
		vault := f.createVault(t, "owner-1", "owner@example.com", "Team")

		_, err := f.service.Invite(ctx, "owner-1", vault.ID, models.InviteToVaultRequest{Email: "owner@example.com", Role: models.RoleView})
		assert.ErrorIs(t, err, ErrDuplicateMember)
	})

	t.Run("one pending invitation per vault and email", func(t *testing.T) {
		f := newInvitationServiceFixture()
		vault := f.createVault(t, "owner-1", "owner@example.com", "Team")

		_, err := f.service.Invite(ctx, "owner-1", vault.ID, models.InviteToVaultRequest{Email: "guest@example.com", Role: models.RoleView})
		require.NoError(t, err)

		_, err = f.service.Invite(ctx, "owner-1", vault.ID, models.InviteToVaultRequest{Email: "guest@example.com", Role: models.RoleEdit})
		assert.ErrorIs(t, err, ErrDuplicateInvitation)
	})

	t.Run("unknown vault", func(t *testing.T) {
		f := newInvitationServiceFixture()
		_, err := f.service.Invite(ctx, "owner-1", "missing", models.InviteToVaultRequest{Email: "guest@example.com", Role: models.RoleView})
		assert.ErrorIs(t, err, ErrVaultNotFound)
	})
}

func TestAccept(t *testing.T) {
	ctx := context.Background()

	t.Run("adds the invitee at the invited role", func(t *testing.T) {
		f := newInvitationServiceFixture()
		vault := f.createVault(t, "owner-1", "owner@example.com", "Team")
		invitation, err := f.service.Invite(ctx, "owner-1", vault.ID, models.InviteToVaultRequest{Email: "guest@example.com", Role: models.RoleEdit})
		require.NoError(t, err)

		accepted, err := f.service.Accept(ctx, "guest-1", "guest@example.com", invitation.ID)
		require.NoError(t, err)
		assert.Equal(t, models.InvitationStatusAccepted, accepted.Status)

		got, err := f.vaultRepo.GetByID(ctx, vault.ID)
		require.NoError(t, err)
		require.Len(t, got.Members, 2)
		member := got.MemberByUserID("guest-1")
		require.NotNil(t, member)
		assert.Equal(t, models.RoleEdit, member.Role)
		assert.Equal(t, models.MemberStatusActive, member.Status)
		assert.Contains(t, got.MemberIDs, "guest-1")
	})

	t.Run("only the invitee may accept", func(t *testing.T) {
		f := newInvitationServiceFixture()
		vault := f.createVault(t, "owner-1", "owner@example.com", "Team")
		invitation, err := f.service.Invite(ctx, "owner-1", vault.ID, models.InviteToVaultRequest{Email: "guest@example.com", Role: models.RoleView})
		require.NoError(t, err)

		_, err = f.service.Accept(ctx, "other-1", "other@example.com", invitation.ID)
		assert.ErrorIs(t, err, ErrPermissionDenied)
	})

	t.Run("accept is terminal", func(t *testing.T) {
		f := newInvitationServiceFixture()
		vault := f.createVault(t, "owner-1", "owner@example.com", "Team")
		invitation, err := f.service.Invite(ctx, "owner-1", vault.ID, models.InviteToVaultRequest{Email: "guest@example.com", Role: models.RoleView})
		require.NoError(t, err)

		_, err = f.service.Accept(ctx, "guest-1", "guest@example.com", invitation.ID)
		require.NoError(t, err)

		_, err = f.service.Accept(ctx, "guest-1", "guest@example.com", invitation.ID)
		assert.ErrorIs(t, err, ErrInvitationNotPending)

		got, err := f.vaultRepo.GetByID(ctx, vault.ID)
		require.NoError(t, err)
		assert.Len(t, got.Members, 2, "the second accept must add exactly zero members")
	})

	t.Run("racing accept appends at most once", func(t *testing.T) {
		f := newInvitationServiceFixture()
		vault := f.createVault(t, "owner-1", "owner@example.com", "Team")
		invitation, err := f.service.Invite(ctx, "owner-1", vault.ID, models.InviteToVaultRequest{Email: "guest@example.com", Role: models.RoleView})
		require.NoError(t, err)

		_, err = f.service.Accept(ctx, "guest-1", "guest@example.com", invitation.ID)
		require.NoError(t, err)

		// A second request that read the invitation while it was still pending
		// reaches the store-level accept after the first one committed. The
		// transaction's status re-check must refuse to append again.
		err = f.invitationRepo.Accept(ctx, invitation.ID, models.VaultMember{
			UserID: "guest-1", Email: "guest@example.com", Role: models.RoleView, Status: models.MemberStatusActive,
		})
		assert.ErrorIs(t, err, db.ErrNotPending)

		got, err := f.vaultRepo.GetByID(ctx, vault.ID)
		require.NoError(t, err)
		assert.Len(t, got.Members, 2, "the losing accept must not append a duplicate member entry")
	})

	t.Run("rejected invitation cannot be accepted", func(t *testing.T) {
		f := newInvitationServiceFixture()
		vault := f.createVault(t, "owner-1", "owner@example.com", "Team")
		invitation, err := f.service.Invite(ctx, "owner-1", vault.ID, models.InviteToVaultRequest{Email: "guest@example.com", Role: models.RoleView})
		require.NoError(t, err)

		_, err = f.service.Reject(ctx, "guest-1", "guest@example.com", invitation.ID)
		require.NoError(t, err)

		_, err = f.service.Accept(ctx, "guest-1", "guest@example.com", invitation.ID)
		assert.ErrorIs(t, err, ErrInvitationNotPending)
	})

	t.Run("expired invitation cannot be accepted and stays pending", func(t *testing.T) {
		f := newInvitationServiceFixture()
		vault := f.createVault(t, "owner-1", "owner@example.com", "Team")
		invitation, err := f.service.Invite(ctx, "owner-1", vault.ID, models.InviteToVaultRequest{Email: "guest@example.com", Role: models.RoleView})
		require.NoError(t, err)

		f.setNow(invitation.ExpiresAt.Add(time.Minute))

		_, err = f.service.Accept(ctx, "guest-1", "guest@example.com", invitation.ID)
		assert.ErrorIs(t, err, ErrInvitationExpired)

		stored, err := f.invitationRepo.GetByID(ctx, invitation.ID)
		require.NoError(t, err)
		assert.Equal(t, models.InvitationStatusPending, stored.Status, "expiry must not flip the status")

		got, err := f.vaultRepo.GetByID(ctx, vault.ID)
		require.NoError(t, err)
		assert.Len(t, got.Members, 1, "membership must be unchanged")
	})

	t.Run("already a member of the vault", func(t *testing.T) {
		f := newInvitationServiceFixture()
		vault := f.createVault(t, "owner-1", "owner@example.com", "Team")
		invitation, err := f.service.Invite(ctx, "owner-1", vault.ID, models.InviteToVaultRequest{Email: "guest@example.com", Role: models.RoleView})
		require.NoError(t, err)

		// The invitee joined under another email in the meantime.
		require.NoError(t, f.vaultRepo.UpdateMembers(ctx, vault.ID, func(members []models.VaultMember) ([]models.VaultMember, error) {
			return append(members, models.VaultMember{
				UserID: "guest-1", Email: "work@example.com", Role: models.RoleView, Status: models.MemberStatusActive,
			}), nil
		}))

		_, err = f.service.Accept(ctx, "guest-1", "guest@example.com", invitation.ID)
		assert.ErrorIs(t, err, ErrDuplicateMember)
	})

	t.Run("unknown invitation", func(t *testing.T) {
		f := newInvitationServiceFixture()
		_, err := f.service.Accept(ctx, "guest-1", "guest@example.com", "missing")
		assert.ErrorIs(t, err, ErrInvitationNotFound)
	})
}

func TestReject(t *testing.T) {
	ctx := context.Background()

	t.Run("reject is terminal and leaves membership alone", func(t *testing.T) {
		f := newInvitationServiceFixture()
		vault := f.createVault(t, "owner-1", "owner@example.com", "Team")
		invitation, err := f.service.Invite(ctx, "owner-1", vault.ID, models.InviteToVaultRequest{Email: "guest@example.com", Role: models.RoleView})
		require.NoError(t, err)

		rejected, err := f.service.Reject(ctx, "guest-1", "guest@example.com", invitation.ID)
		require.NoError(t, err)
		assert.Equal(t, models.InvitationStatusRejected, rejected.Status)

		got, err := f.vaultRepo.GetByID(ctx, vault.ID)
		require.NoError(t, err)
		assert.Len(t, got.Members, 1)

		_, err = f.service.Reject(ctx, "guest-1", "guest@example.com", invitation.ID)
		assert.ErrorIs(t, err, ErrInvitationNotPending)
	})

	t.Run("expired pending invitation can still be rejected", func(t *testing.T) {
		f := newInvitationServiceFixture()
		vault := f.createVault(t, "owner-1", "owner@example.com", "Team")
		invitation, err := f.service.Invite(ctx, "owner-1", vault.ID, models.InviteToVaultRequest{Email: "guest@example.com", Role: models.RoleView})
		require.NoError(t, err)

		f.setNow(invitation.ExpiresAt.Add(time.Hour))

		rejected, err := f.service.Reject(ctx, "guest-1", "guest@example.com", invitation.ID)
		require.NoError(t, err)
		assert.Equal(t, models.InvitationStatusRejected, rejected.Status)
	})

	t.Run("only the invitee may reject", func(t *testing.T) {
		f := newInvitationServiceFixture()
		vault := f.createVault(t, "owner-1", "owner@example.com", "Team")
		invitation, err := f.service.Invite(ctx, "owner-1", vault.ID, models.InviteToVaultRequest{Email: "guest@example.com", Role: models.RoleView})
		require.NoError(t, err)

		_, err = f.service.Reject(ctx, "other-1", "other@example.com", invitation.ID)
		assert.ErrorIs(t, err, ErrPermissionDenied)
	})
}

func TestListForEmail(t *testing.T) {
	ctx := context.Background()
	f := newInvitationServiceFixture()
	vaultA := f.createVault(t, "owner-1", "owner@example.com", "A")
	vaultB := f.createVault(t, "owner-2", "other@example.com", "B")

	invA, err := f.service.Invite(ctx, "owner-1", vaultA.ID, models.InviteToVaultRequest{Email: "guest@example.com", Role: models.RoleView})
	require.NoError(t, err)
	invB, err := f.service.Invite(ctx, "owner-2", vaultB.ID, models.InviteToVaultRequest{Email: "guest@example.com", Role: models.RoleEdit})
	require.NoError(t, err)

	// A terminal invitation must not show up.
	_, err = f.service.Reject(ctx, "guest-1", "guest@example.com", invB.ID)
	require.NoError(t, err)

	pending, err := f.service.ListForEmail(ctx, "guest@example.com")
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, invA.ID, pending[0].ID)
}

// TestInvitationLifecycle walks the full share flow: create a vault, invite,
// accept, verify access, then remove the member again.
func TestInvitationLifecycle(t *testing.T) {
	ctx := context.Background()
	f := newInvitationServiceFixture()

	vault := f.createVault(t, "owner-1", "owner@example.com", "Shared Notes")

	invitation, err := f.service.Invite(ctx, "owner-1", vault.ID, models.InviteToVaultRequest{Email: "guest@example.com", Role: models.RoleEdit})
	require.NoError(t, err)

	pending, err := f.service.ListForEmail(ctx, "guest@example.com")
	require.NoError(t, err)
	require.Len(t, pending, 1)

	_, err = f.service.Accept(ctx, "guest-1", "guest@example.com", invitation.ID)
	require.NoError(t, err)

	got, err := f.vaultService.GetVaultByID(ctx, "guest-1", vault.ID)
	require.NoError(t, err)
	assert.True(t, HasPermission(got, "guest-1", ActionEdit))
	assert.False(t, HasPermission(got, "guest-1", ActionDeleteVault))

	require.NoError(t, f.vaultService.RemoveMember(ctx, "owner-1", vault.ID, "guest-1"))
	_, err = f.vaultService.GetVaultByID(ctx, "guest-1", vault.ID)
	assert.ErrorIs(t, err, ErrPermissionDenied)
}
