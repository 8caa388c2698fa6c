package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestVaultInvitation_Terminal(t *testing.T) {
	inv := &VaultInvitation{Status: InvitationStatusPending}
	assert.False(t, inv.Terminal())

	inv.Status = InvitationStatusAccepted
	assert.True(t, inv.Terminal())

	inv.Status = InvitationStatusRejected
	assert.True(t, inv.Terminal())
}

func TestVaultInvitation_Expired(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	inv := &VaultInvitation{ExpiresAt: now.Add(time.Hour)}
	assert.False(t, inv.Expired(now))
	assert.True(t, inv.Expired(now.Add(2*time.Hour)))

	// Zero expiry means the invitation never expires.
	inv = &VaultInvitation{}
	assert.False(t, inv.Expired(now))
}
