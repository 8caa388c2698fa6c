package models

// CreateVaultRequest represents the request body for creating a new vault.
type CreateVaultRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description,omitempty"`
	IsPrivate   bool   `json:"isPrivate,omitempty"`
}

// UpdateVaultRequest represents the request body for updating an existing vault.
// Pointers distinguish "clear this field" from "field not provided".
type UpdateVaultRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	IsPrivate   *bool   `json:"isPrivate,omitempty"`
}

// InviteToVaultRequest represents the request body for inviting a user to a vault.
type InviteToVaultRequest struct {
	Email string `json:"email" binding:"required,email"`
	Role  Role   `json:"role" binding:"required"` // "edit" or "view"
}

// UpdateMemberRoleRequest represents the request body for changing a member's role.
type UpdateMemberRoleRequest struct {
	Role Role `json:"role" binding:"required"` // "edit" or "view"
}

// CreateNoteRequest represents the request body for creating a note.
// VaultID empty means the note goes on the caller's personal list.
type CreateNoteRequest struct {
	Title    string       `json:"title" binding:"required"`
	Content  string       `json:"content,omitempty"`
	Summary  string       `json:"summary,omitempty"`
	Tags     []string     `json:"tags,omitempty"`
	Category string       `json:"category,omitempty"`
	Priority NotePriority `json:"priority,omitempty"`
	VaultID  string       `json:"vaultId,omitempty"`
}

// UpdateNoteRequest represents the request body for updating a note.
// Pointers distinguish "clear this field" from "field not provided".
type UpdateNoteRequest struct {
	Title    *string       `json:"title,omitempty"`
	Content  *string       `json:"content,omitempty"`
	Summary  *string       `json:"summary,omitempty"`
	Tags     *[]string     `json:"tags,omitempty"`
	Category *string       `json:"category,omitempty"`
	Priority *NotePriority `json:"priority,omitempty"`
	Archived *bool         `json:"archived,omitempty"`
}
