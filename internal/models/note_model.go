package models

import "time"

// NotePriority orders notes inside a category.
type NotePriority string

const (
	NotePriorityLow    NotePriority = "low"
	NotePriorityMedium NotePriority = "medium"
	NotePriorityHigh   NotePriority = "high"
)

// Note is a single piece of content. A note is either personal (UserID set,
// VaultID empty) or belongs to exactly one vault (VaultID set).
type Note struct {
	ID        string       `json:"id" firestore:"-"` // Document ID, auto-generated
	Title     string       `json:"title" firestore:"title"`
	Content   string       `json:"content" firestore:"content"`
	Summary   string       `json:"summary,omitempty" firestore:"summary,omitempty"`
	Tags      []string     `json:"tags,omitempty" firestore:"tags,omitempty"`
	Category  string       `json:"category,omitempty" firestore:"category,omitempty"`
	Priority  NotePriority `json:"priority,omitempty" firestore:"priority,omitempty"`
	Archived  bool         `json:"archived" firestore:"archived"`
	UserID    string       `json:"userId,omitempty" firestore:"userId,omitempty"`   // Set for personal notes
	VaultID   string       `json:"vaultId,omitempty" firestore:"vaultId,omitempty"` // Set for vault-scoped notes
	CreatedAt time.Time    `json:"createdAt" firestore:"createdAt,serverTimestamp"`
	UpdatedAt time.Time    `json:"updatedAt" firestore:"updatedAt,serverTimestamp"`
}

// Personal reports whether the note lives on a user's personal list.
func (n *Note) Personal() bool {
	return n.VaultID == ""
}
