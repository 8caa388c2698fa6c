package models

import "time"

// Role determines what a member may do inside a vault.
type Role string

const (
	RoleOwner Role = "owner"
	RoleEdit  Role = "edit"
	RoleView  Role = "view"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleOwner, RoleEdit, RoleView:
		return true
	}
	return false
}

// MemberStatus tracks the lifecycle of a membership entry.
type MemberStatus string

const (
	MemberStatusActive  MemberStatus = "active"
	MemberStatusPending MemberStatus = "pending"
	MemberStatusRemoved MemberStatus = "removed"
)

// VaultMember is one entry on a vault's member list. Unique per (vault, userId).
type VaultMember struct {
	UserID   string       `json:"userId" firestore:"userId"`
	Email    string       `json:"email" firestore:"email"`
	Role     Role         `json:"role" firestore:"role"`
	Status   MemberStatus `json:"status" firestore:"status"`
	JoinedAt time.Time    `json:"joinedAt" firestore:"joinedAt"`
}

// Vault is an access-controlled container of notes shared among members.
// Exactly one member holds RoleOwner at any time; the invariant is established
// on creation and protected by the services that mutate the member list.
type Vault struct {
	ID          string        `json:"id" firestore:"-"` // Document ID, auto-generated
	Name        string        `json:"name" firestore:"name"`
	Description string        `json:"description,omitempty" firestore:"description,omitempty"`
	IsPrivate   bool          `json:"isPrivate" firestore:"isPrivate"`
	OwnerID     string        `json:"ownerId" firestore:"ownerId"` // Firebase Auth UID of the owner
	Members     []VaultMember `json:"members" firestore:"members"`
	// MemberIDs mirrors Members[*].UserID so Firestore array-contains queries can
	// find every vault a user belongs to. Kept in sync by the repositories.
	MemberIDs []string  `json:"-" firestore:"memberIds"`
	CreatedAt time.Time `json:"createdAt" firestore:"createdAt,serverTimestamp"`
	UpdatedAt time.Time `json:"updatedAt" firestore:"updatedAt,serverTimestamp"`
}

// MemberIDsOf extracts the user IDs of a member list, preserving order.
func MemberIDsOf(members []VaultMember) []string {
	ids := make([]string, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.UserID)
	}
	return ids
}

// MemberByUserID returns the member entry for userID, or nil if absent.
func (v *Vault) MemberByUserID(userID string) *VaultMember {
	for i := range v.Members {
		if v.Members[i].UserID == userID {
			return &v.Members[i]
		}
	}
	return nil
}

// ActiveMemberByEmail returns the active member entry for email, or nil.
func (v *Vault) ActiveMemberByEmail(email string) *VaultMember {
	for i := range v.Members {
		if v.Members[i].Email == email && v.Members[i].Status == MemberStatusActive {
			return &v.Members[i]
		}
	}
	return nil
}
