package service

import (
	"fmt"
	"log"
	"strings"

	"familytree/internal/database"
	"familytree/internal/models"
	"familytree/internal/repository"
	"familytree/internal/validation"
)

// TreeService handles trees, their role assignments and the tree cascade
type TreeService struct {
	db *database.DB
}

// NewTreeService creates a new tree service
func NewTreeService(db *database.DB) *TreeService {
	return &TreeService{db: db}
}

func validateTreeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if err := validation.ValidateName("name", name); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return name, nil
}

// CreateTree creates a tree owned by the caller
func (s *TreeService) CreateTree(callerID, name string, isPublic bool) (*models.Tree, error) {
	if callerID == "" {
		return nil, ErrUnauthenticated
	}
	name, err := validateTreeName(name)
	if err != nil {
		return nil, err
	}

	tree := &models.Tree{Name: name, IsPublic: isPublic, OwnerID: callerID}
	if err := inTx(s.db, func(st *repository.Store) error {
		return st.Trees.CreateTree(tree)
	}); err != nil {
		return nil, err
	}
	log.Printf("Tree %d created by %s", tree.ID, callerID)
	return tree, nil
}

// UpdateTree renames a tree or changes its visibility. Owner only.
func (s *TreeService) UpdateTree(callerID string, treeID int64, name string, isPublic bool) (*models.Tree, error) {
	if callerID == "" {
		return nil, ErrUnauthenticated
	}
	name, err := validateTreeName(name)
	if err != nil {
		return nil, err
	}

	var tree *models.Tree
	err = inTx(s.db, func(st *repository.Store) error {
		var err error
		tree, err = ownedTree(st, callerID, treeID)
		if err != nil {
			return err
		}

		renamed := tree.Name != name
		tree.Name = name
		tree.IsPublic = isPublic
		if err := st.Trees.UpdateTree(tree); err != nil {
			return err
		}
		if renamed {
			return st.Roles.RenameTree(tree.ID, name)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tree, nil
}

// GetTree returns a tree the caller can read
func (s *TreeService) GetTree(callerID string, treeID int64) (*models.Tree, error) {
	if callerID == "" {
		return nil, ErrUnauthenticated
	}

	var tree *models.Tree
	err := read(s.db, func(st *repository.Store) error {
		if err := requireRead(st, treeID, callerID); err != nil {
			return err
		}
		var err error
		tree, err = st.Trees.GetTreeByID(treeID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return tree, nil
}

// ListTrees returns the trees the caller owns or holds a role on
func (s *TreeService) ListTrees(callerID string) ([]models.Tree, error) {
	if callerID == "" {
		return nil, ErrUnauthenticated
	}

	var trees []models.Tree
	err := read(s.db, func(st *repository.Store) error {
		var err error
		trees, err = st.Trees.GetTreesForUser(callerID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return trees, nil
}

// DeleteTree removes a tree with its relationships, members and role
// assignments. Invites are kept. Owner only.
func (s *TreeService) DeleteTree(callerID string, treeID int64) error {
	if callerID == "" {
		return ErrUnauthenticated
	}

	err := inTx(s.db, func(st *repository.Store) error {
		tree, err := ownedTree(st, callerID, treeID)
		if err != nil {
			return err
		}

		if err := st.Relationships.DeleteRelationshipsByTree(tree.ID); err != nil {
			return err
		}
		if err := st.Members.ClearTreeParents(tree.ID); err != nil {
			return err
		}
		if err := st.Members.DeleteMembersByTree(tree.ID); err != nil {
			return err
		}
		if err := st.Roles.DeleteRolesByTree(tree.ID); err != nil {
			return err
		}
		return st.Trees.DeleteTree(tree.ID)
	})
	if err != nil {
		return err
	}
	log.Printf("Tree %d deleted by %s", treeID, callerID)
	return nil
}

// ListUserRoles returns every role the caller holds
func (s *TreeService) ListUserRoles(callerID string) ([]models.RoleAssignment, error) {
	if callerID == "" {
		return nil, ErrUnauthenticated
	}

	var roles []models.RoleAssignment
	err := read(s.db, func(st *repository.Store) error {
		var err error
		roles, err = st.Roles.GetRolesByUser(callerID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return roles, nil
}

// ListTreeRoles returns the role assignments on a tree. Owner only.
func (s *TreeService) ListTreeRoles(callerID string, treeID int64) ([]models.RoleAssignment, error) {
	if callerID == "" {
		return nil, ErrUnauthenticated
	}

	var roles []models.RoleAssignment
	err := read(s.db, func(st *repository.Store) error {
		if _, err := ownedTree(st, callerID, treeID); err != nil {
			return err
		}
		var err error
		roles, err = st.Roles.GetRolesByTree(treeID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return roles, nil
}

// AssignRole gives userID a role on the tree. Owner only; a user holds at
// most one role per tree.
func (s *TreeService) AssignRole(callerID string, treeID int64, userID, roleName string) (*models.RoleAssignment, error) {
	if callerID == "" {
		return nil, ErrUnauthenticated
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	role, err := models.ParseRole(roleName)
	if err != nil || !role.Assignable() {
		return nil, ErrInvalidRole
	}

	var assignment *models.RoleAssignment
	err = inTx(s.db, func(st *repository.Store) error {
		tree, err := ownedTree(st, callerID, treeID)
		if err != nil {
			return err
		}
		if tree.IsOwnedBy(userID) {
			return ErrCannotAssignOwner
		}

		assignment, err = grantRole(st, tree, userID, role)
		return err
	})
	if err != nil {
		return nil, err
	}
	return assignment, nil
}

// RevokeRole removes userID's role on the tree. Owner only.
func (s *TreeService) RevokeRole(callerID string, treeID int64, userID string) error {
	if callerID == "" {
		return ErrUnauthenticated
	}

	return inTx(s.db, func(st *repository.Store) error {
		if _, err := ownedTree(st, callerID, treeID); err != nil {
			return err
		}
		removed, err := st.Roles.DeleteRoleAssignment(treeID, userID)
		if err != nil {
			return err
		}
		if !removed {
			return ErrRoleNotFound
		}
		return nil
	})
}

// grantRole inserts a role assignment unless the user already has one
func grantRole(st *repository.Store, tree *models.Tree, userID string, role models.Role) (*models.RoleAssignment, error) {
	existing, err := st.Roles.GetRoleAssignment(tree.ID, userID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrAlreadyHasRole
	}

	assignment := &models.RoleAssignment{
		TreeID:   tree.ID,
		UserID:   userID,
		Role:     role,
		TreeName: tree.Name,
	}
	if err := st.Roles.CreateRoleAssignment(assignment); err != nil {
		return nil, err
	}
	return assignment, nil
}

// ownedTree loads a tree and checks the caller owns it
func ownedTree(st *repository.Store, callerID string, treeID int64) (*models.Tree, error) {
	tree, err := st.Trees.GetTreeByID(treeID)
	if err != nil {
		return nil, err
	}
	if tree == nil {
		return nil, ErrTreeNotFound
	}

	access, err := NewAccessEvaluator(st.Trees, st.Roles).resolveForTree(tree, callerID)
	if err != nil {
		return nil, err
	}
	if !access.Permits(OpManageTree, false) {
		return nil, ErrAccessDenied
	}
	return tree, nil
}
