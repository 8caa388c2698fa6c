package models

import "time"

// InvitationStatus is the lifecycle state of a vault invitation.
// Accepted and rejected are terminal; no transition leaves them.
type InvitationStatus string

const (
	InvitationStatusPending  InvitationStatus = "pending"
	InvitationStatusAccepted InvitationStatus = "accepted"
	InvitationStatusRejected InvitationStatus = "rejected"
)

// VaultInvitation is a pending offer of vault membership at a given role.
// At most one pending invitation may exist per (vaultId, email).
type VaultInvitation struct {
	ID        string           `json:"id" firestore:"-"` // Document ID, auto-generated
	VaultID   string           `json:"vaultId" firestore:"vaultId"`
	VaultName string           `json:"vaultName" firestore:"vaultName"` // Denormalized for invitation listings
	Email     string           `json:"email" firestore:"email"`
	Role      Role             `json:"role" firestore:"role"` // edit or view, never owner
	Status    InvitationStatus `json:"status" firestore:"status"`
	Token     string           `json:"token" firestore:"token"` // Opaque token embedded in invitation mail links
	InvitedBy string           `json:"invitedBy" firestore:"invitedBy"`
	InvitedAt time.Time        `json:"invitedAt" firestore:"invitedAt"`
	ExpiresAt time.Time        `json:"expiresAt" firestore:"expiresAt"`
}

// Terminal reports whether the invitation has reached a final state.
func (i *VaultInvitation) Terminal() bool {
	return i.Status == InvitationStatusAccepted || i.Status == InvitationStatusRejected
}

// Expired reports whether the invitation's expiry window has passed at now.
func (i *VaultInvitation) Expired(now time.Time) bool {
	return !i.ExpiresAt.IsZero() && now.After(i.ExpiresAt)
}
