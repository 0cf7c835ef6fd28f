package repository

import (
	"database/sql"
	"fmt"

	"familytree/internal/database"
	"familytree/internal/models"
)

// TreeRepository handles database operations for trees
type TreeRepository struct {
	db database.DBTX
}

// NewTreeRepository creates a new tree repository
func NewTreeRepository(db database.DBTX) *TreeRepository {
	return &TreeRepository{db: db}
}

const treeColumns = "id, name, is_public, owner_id, created_at, updated_at"

func scanTree(s scanner) (*models.Tree, error) {
	tree := &models.Tree{}
	err := s.Scan(&tree.ID, &tree.Name, &tree.IsPublic, &tree.OwnerID, &tree.CreatedAt, &tree.UpdatedAt)
	return tree, err
}

// CreateTree inserts a tree and fills in its ID and timestamps
func (r *TreeRepository) CreateTree(tree *models.Tree) error {
	ts := now()
	query := "INSERT INTO trees (name, is_public, owner_id, created_at, updated_at) VALUES (?, ?, ?, ?, ?)"
	id, err := r.db.ExecReturningID(query, tree.Name, tree.IsPublic, tree.OwnerID, ts, ts)
	if err != nil {
		return fmt.Errorf("failed to create tree: %w", err)
	}
	tree.ID = id
	tree.CreatedAt = ts
	tree.UpdatedAt = ts
	return nil
}

// GetTreeByID retrieves a tree by ID
func (r *TreeRepository) GetTreeByID(id int64) (*models.Tree, error) {
	tree, err := scanTree(r.db.QueryRow("SELECT "+treeColumns+" FROM trees WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get tree: %w", err)
	}
	return tree, nil
}

// GetTreesForUser retrieves the trees a user owns or holds a role on
func (r *TreeRepository) GetTreesForUser(userID string) ([]models.Tree, error) {
	query := `
		SELECT ` + treeColumns + `
		FROM trees
		WHERE owner_id = ?
		   OR id IN (SELECT tree_id FROM role_assignments WHERE user_id = ?)
		ORDER BY id
	`
	return r.queryTrees(query, userID, userID)
}

// GetAllTrees retrieves every tree
func (r *TreeRepository) GetAllTrees() ([]models.Tree, error) {
	return r.queryTrees("SELECT " + treeColumns + " FROM trees ORDER BY id")
}

func (r *TreeRepository) queryTrees(query string, args ...interface{}) ([]models.Tree, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query trees: %w", err)
	}
	defer rows.Close()

	var trees []models.Tree
	for rows.Next() {
		tree, err := scanTree(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan tree: %w", err)
		}
		trees = append(trees, *tree)
	}
	return trees, rows.Err()
}

// UpdateTree saves a tree's name and visibility
func (r *TreeRepository) UpdateTree(tree *models.Tree) error {
	ts := now()
	query := "UPDATE trees SET name = ?, is_public = ?, updated_at = ? WHERE id = ?"
	if _, err := r.db.Exec(query, tree.Name, tree.IsPublic, ts, tree.ID); err != nil {
		return fmt.Errorf("failed to update tree: %w", err)
	}
	tree.UpdatedAt = ts
	return nil
}

// DeleteTree deletes the tree row only; callers remove its contents first
func (r *TreeRepository) DeleteTree(id int64) error {
	if _, err := r.db.Exec("DELETE FROM trees WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete tree: %w", err)
	}
	return nil
}
