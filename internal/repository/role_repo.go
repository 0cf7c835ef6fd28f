package repository

import (
	"database/sql"
	"fmt"

	"familytree/internal/database"
	"familytree/internal/models"
)

// RoleRepository handles database operations for role assignments
type RoleRepository struct {
	db database.DBTX
}

// NewRoleRepository creates a new role repository
func NewRoleRepository(db database.DBTX) *RoleRepository {
	return &RoleRepository{db: db}
}

const roleColumns = "id, tree_id, user_id, role, tree_name"

func scanRole(s scanner) (*models.RoleAssignment, error) {
	ra := &models.RoleAssignment{}
	err := s.Scan(&ra.ID, &ra.TreeID, &ra.UserID, &ra.Role, &ra.TreeName)
	return ra, err
}

// CreateRoleAssignment inserts a role assignment. The (tree_id, user_id)
// unique index rejects a second role for the same user on a tree.
func (r *RoleRepository) CreateRoleAssignment(ra *models.RoleAssignment) error {
	query := "INSERT INTO role_assignments (tree_id, user_id, role, tree_name) VALUES (?, ?, ?, ?)"
	id, err := r.db.ExecReturningID(query, ra.TreeID, ra.UserID, string(ra.Role), ra.TreeName)
	if err != nil {
		return fmt.Errorf("failed to create role assignment: %w", err)
	}
	ra.ID = id
	return nil
}

// GetRoleAssignment retrieves a user's role on a tree
func (r *RoleRepository) GetRoleAssignment(treeID int64, userID string) (*models.RoleAssignment, error) {
	query := "SELECT " + roleColumns + " FROM role_assignments WHERE tree_id = ? AND user_id = ?"
	ra, err := scanRole(r.db.QueryRow(query, treeID, userID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get role assignment: %w", err)
	}
	return ra, nil
}

// GetRolesByUser retrieves every role a user holds
func (r *RoleRepository) GetRolesByUser(userID string) ([]models.RoleAssignment, error) {
	return r.queryRoles("SELECT "+roleColumns+" FROM role_assignments WHERE user_id = ? ORDER BY tree_id", userID)
}

// GetRolesByTree retrieves every role assigned on a tree
func (r *RoleRepository) GetRolesByTree(treeID int64) ([]models.RoleAssignment, error) {
	return r.queryRoles("SELECT "+roleColumns+" FROM role_assignments WHERE tree_id = ? ORDER BY id", treeID)
}

func (r *RoleRepository) queryRoles(query string, args ...interface{}) ([]models.RoleAssignment, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query role assignments: %w", err)
	}
	defer rows.Close()

	var roles []models.RoleAssignment
	for rows.Next() {
		ra, err := scanRole(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan role assignment: %w", err)
		}
		roles = append(roles, *ra)
	}
	return roles, rows.Err()
}

// DeleteRoleAssignment removes a user's role on a tree and reports whether one existed
func (r *RoleRepository) DeleteRoleAssignment(treeID int64, userID string) (bool, error) {
	result, err := r.db.Exec("DELETE FROM role_assignments WHERE tree_id = ? AND user_id = ?", treeID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to delete role assignment: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to delete role assignment: %w", err)
	}
	return n > 0, nil
}

// DeleteRolesByTree removes every role assignment on a tree
func (r *RoleRepository) DeleteRolesByTree(treeID int64) error {
	if _, err := r.db.Exec("DELETE FROM role_assignments WHERE tree_id = ?", treeID); err != nil {
		return fmt.Errorf("failed to delete tree roles: %w", err)
	}
	return nil
}

// RenameTree refreshes the denormalized tree name on a tree's assignments
func (r *RoleRepository) RenameTree(treeID int64, name string) error {
	if _, err := r.db.Exec("UPDATE role_assignments SET tree_name = ? WHERE tree_id = ?", name, treeID); err != nil {
		return fmt.Errorf("failed to rename tree on role assignments: %w", err)
	}
	return nil
}
