package service

import (
	"log"

	"familytree/internal/models"
)

// Operation is a tree-scoped action whose permission depends on role
type Operation int

const (
	OpRead Operation = iota
	OpCreateRelationship
	OpUpdateRelationship
	OpDeleteRelationship
	OpCreateMember
	OpManageTree
)

// Access is a caller's resolved standing on one tree
type Access struct {
	HasAccess bool
	Role      models.Role
}

// Permits reports whether the access allows op. createdEndpoint is only
// consulted for OpUpdateRelationship: a Family Member may edit an edge only
// when they created one of its members.
func (a Access) Permits(op Operation, createdEndpoint bool) bool {
	if !a.HasAccess {
		return false
	}
	switch op {
	case OpRead:
		return true
	case OpManageTree:
		return a.Role == models.RoleOwner
	}

	switch a.Role {
	case models.RoleOwner, models.RoleAdmin:
		return true
	case models.RoleFamilyMember:
		if op == OpUpdateRelationship {
			return createdEndpoint
		}
		return true
	}
	return false
}

type treeLookup interface {
	GetTreeByID(id int64) (*models.Tree, error)
}

type roleLookup interface {
	GetRoleAssignment(treeID int64, userID string) (*models.RoleAssignment, error)
}

// AccessEvaluator resolves a user's role on a tree
type AccessEvaluator struct {
	trees treeLookup
	roles roleLookup
}

// NewAccessEvaluator creates an evaluator over the given lookups
func NewAccessEvaluator(trees treeLookup, roles roleLookup) *AccessEvaluator {
	return &AccessEvaluator{trees: trees, roles: roles}
}

// Resolve returns the caller's access to a tree. The owner resolves to
// RoleOwner whatever role rows exist. An unknown tree, an anonymous caller
// or a missing assignment all resolve to no access; only store errors are
// returned as errors.
func (e *AccessEvaluator) Resolve(treeID int64, userID string) (Access, error) {
	if userID == "" {
		return Access{}, nil
	}

	tree, err := e.trees.GetTreeByID(treeID)
	if err != nil {
		return Access{}, err
	}
	if tree == nil {
		return Access{}, nil
	}
	return e.resolveForTree(tree, userID)
}

func (e *AccessEvaluator) resolveForTree(tree *models.Tree, userID string) (Access, error) {
	if userID == "" {
		return Access{}, nil
	}
	if tree.IsOwnedBy(userID) {
		return Access{HasAccess: true, Role: models.RoleOwner}, nil
	}

	assignment, err := e.roles.GetRoleAssignment(tree.ID, userID)
	if err != nil {
		return Access{}, err
	}
	if assignment == nil {
		return Access{}, nil
	}

	role, err := models.ParseRole(string(assignment.Role))
	if err != nil || !role.Assignable() {
		log.Printf("Warning: ignoring role assignment %d with unknown role %q", assignment.ID, assignment.Role)
		return Access{}, nil
	}
	return Access{HasAccess: true, Role: role}, nil
}

// canRead reports whether userID may read the tree: any resolved access,
// or any signed-in caller when the tree is public.
func (e *AccessEvaluator) canRead(tree *models.Tree, userID string) (bool, error) {
	if userID == "" {
		return false, nil
	}
	if tree.IsPublic {
		return true, nil
	}
	access, err := e.resolveForTree(tree, userID)
	if err != nil {
		return false, err
	}
	return access.Permits(OpRead, false), nil
}
