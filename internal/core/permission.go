package core

import "skillcache-backend-go/internal/models"

// Action is a closed enumeration of the operations a member can attempt on a vault.
type Action string

const (
	ActionView         Action = "view"
	ActionEdit         Action = "edit"
	ActionInvite       Action = "invite"
	ActionRemoveMember Action = "remove_member"
	ActionDeleteVault  Action = "delete_vault"
)

// actionRoles is the fixed per-action role whitelist.
var actionRoles = map[Action]map[models.Role]bool{
	ActionView:         {models.RoleOwner: true, models.RoleEdit: true, models.RoleView: true},
	ActionEdit:         {models.RoleOwner: true, models.RoleEdit: true},
	ActionInvite:       {models.RoleOwner: true, models.RoleEdit: true},
	ActionRemoveMember: {models.RoleOwner: true},
	ActionDeleteVault:  {models.RoleOwner: true},
}

// HasPermission reports whether userID may perform action on vault.
// A user with no member entry, or whose entry is not active, is always denied,
// as is any action outside the known set. Pure and deterministic: callers must
// re-evaluate after every membership mutation rather than cache the result.
func HasPermission(vault *models.Vault, userID string, action Action) bool {
	if vault == nil || userID == "" {
		return false
	}
	member := vault.MemberByUserID(userID)
	if member == nil || member.Status != models.MemberStatusActive {
		return false
	}
	roles, ok := actionRoles[action]
	if !ok {
		return false
	}
	return roles[member.Role]
}
