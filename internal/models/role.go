package models

import (
	"fmt"
	"strings"
)

// Role is a caller's standing on a tree
type Role string

const (
	// RoleOwner is never stored; it is implied by Tree.OwnerID
	RoleOwner        Role = "Owner"
	RoleAdmin        Role = "Admin"
	RoleFamilyMember Role = "Family Member"
	RoleViewer       Role = "Viewer"
)

// ParseRole maps a stored or requested role name to a Role. Case, spaces and
// underscores are ignored, so "FamilyMember" and "family_member" both parse.
func ParseRole(s string) (Role, error) {
	key := strings.ToLower(strings.NewReplacer(" ", "", "_", "", "-", "").Replace(s))
	switch key {
	case "owner":
		return RoleOwner, nil
	case "admin":
		return RoleAdmin, nil
	case "familymember":
		return RoleFamilyMember, nil
	case "viewer":
		return RoleViewer, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// Assignable reports whether the role may be stored in a RoleAssignment
func (r Role) Assignable() bool {
	return r == RoleAdmin || r == RoleFamilyMember || r == RoleViewer
}

// RoleAssignment grants a user one role on one tree
type RoleAssignment struct {
	ID       int64  `json:"id"`
	TreeID   int64  `json:"treeId"`
	UserID   string `json:"userId"`
	Role     Role   `json:"role"`
	TreeName string `json:"treeName"`
}
