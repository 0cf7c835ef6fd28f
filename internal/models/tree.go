package models

import "time"

// Tree is an isolated set of members and relationships owned by one user
type Tree struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	IsPublic  bool      `json:"isPublic"`
	OwnerID   string    `json:"ownerId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// IsOwnedBy reports whether userID owns the tree
func (t *Tree) IsOwnedBy(userID string) bool {
	return userID != "" && t.OwnerID == userID
}
