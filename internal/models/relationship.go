package models

import (
	"fmt"
	"strings"
	"time"
)

// RelationshipType is the kind of edge between two members
type RelationshipType string

const (
	// RelationshipParent means From is a parent of To
	RelationshipParent RelationshipType = "Parent"
	// RelationshipChild means From is a child of To
	RelationshipChild RelationshipType = "Child"
	// RelationshipSpouse is undirected in meaning
	RelationshipSpouse RelationshipType = "Spouse"
)

// ParseRelationshipType maps a type name, in any case, to a RelationshipType
func ParseRelationshipType(s string) (RelationshipType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "parent":
		return RelationshipParent, nil
	case "child":
		return RelationshipChild, nil
	case "spouse":
		return RelationshipSpouse, nil
	}
	return "", fmt.Errorf("unknown relationship type %q", s)
}

// IsParentLink reports whether the type describes a parent/child link
func (t RelationshipType) IsParentLink() bool {
	return t == RelationshipParent || t == RelationshipChild
}

// ParentLink normalizes a from/to pair of the given type into the parent
// and child it describes. ok is false for Spouse and unknown types.
func ParentLink(fromID, toID int64, t RelationshipType) (parentID, childID int64, ok bool) {
	if !t.IsParentLink() {
		return 0, 0, false
	}
	if t == RelationshipChild {
		return toID, fromID, true
	}
	return fromID, toID, true
}

// Relationship is one directed edge between two members of the same tree
type Relationship struct {
	ID           int64            `json:"id"`
	FromPersonID int64            `json:"fromPersonId"`
	ToPersonID   int64            `json:"toPersonId"`
	Type         RelationshipType `json:"relationshipType"`
	StartDate    *time.Time       `json:"startDate,omitempty"`
	EndDate      *time.Time       `json:"endDate,omitempty"`
	CreatedBy    string           `json:"createdBy"`
	CreatedAt    time.Time        `json:"createdAt"`
}

// ParentLink returns the parent and child this edge describes
func (r *Relationship) ParentLink() (parentID, childID int64, ok bool) {
	return ParentLink(r.FromPersonID, r.ToPersonID, r.Type)
}
