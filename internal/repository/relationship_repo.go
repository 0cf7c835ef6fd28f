package repository

import (
	"database/sql"
	"fmt"

	"familytree/internal/database"
	"familytree/internal/models"
)

// RelationshipRepository handles database operations for relationships
type RelationshipRepository struct {
	db database.DBTX
}

// NewRelationshipRepository creates a new relationship repository
func NewRelationshipRepository(db database.DBTX) *RelationshipRepository {
	return &RelationshipRepository{db: db}
}

const relationshipColumns = "r.id, r.from_person_id, r.to_person_id, r.type, r.start_date, r.end_date, r.created_by, r.created_at"

func scanRelationship(s scanner) (*models.Relationship, error) {
	var (
		rel        models.Relationship
		start, end sql.NullTime
	)
	err := s.Scan(&rel.ID, &rel.FromPersonID, &rel.ToPersonID, &rel.Type, &start, &end, &rel.CreatedBy, &rel.CreatedAt)
	if err != nil {
		return nil, err
	}
	rel.StartDate = timePtr(start)
	rel.EndDate = timePtr(end)
	return &rel, nil
}

// CreateRelationship inserts a relationship and fills in its ID
func (r *RelationshipRepository) CreateRelationship(rel *models.Relationship) error {
	ts := now()
	query := `INSERT INTO relationships (from_person_id, to_person_id, type, start_date, end_date, created_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	id, err := r.db.ExecReturningID(query, rel.FromPersonID, rel.ToPersonID, string(rel.Type),
		nullTime(rel.StartDate), nullTime(rel.EndDate), rel.CreatedBy, ts)
	if err != nil {
		return fmt.Errorf("failed to create relationship: %w", err)
	}
	rel.ID = id
	rel.CreatedAt = ts
	return nil
}

// GetRelationshipByID retrieves a relationship by ID
func (r *RelationshipRepository) GetRelationshipByID(id int64) (*models.Relationship, error) {
	query := "SELECT " + relationshipColumns + " FROM relationships r WHERE r.id = ?"
	rel, err := scanRelationship(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get relationship: %w", err)
	}
	return rel, nil
}

// UpdateRelationship overwrites an edge's endpoints, type and dates
func (r *RelationshipRepository) UpdateRelationship(rel *models.Relationship) error {
	query := `UPDATE relationships SET from_person_id = ?, to_person_id = ?, type = ?, start_date = ?, end_date = ?
		WHERE id = ?`
	_, err := r.db.Exec(query, rel.FromPersonID, rel.ToPersonID, string(rel.Type),
		nullTime(rel.StartDate), nullTime(rel.EndDate), rel.ID)
	if err != nil {
		return fmt.Errorf("failed to update relationship: %w", err)
	}
	return nil
}

// DeleteRelationship deletes one relationship
func (r *RelationshipRepository) DeleteRelationship(id int64) error {
	if _, err := r.db.Exec("DELETE FROM relationships WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete relationship: %w", err)
	}
	return nil
}

// GetRelationshipsByTree retrieves every relationship whose endpoints are in a tree
func (r *RelationshipRepository) GetRelationshipsByTree(treeID int64) ([]models.Relationship, error) {
	query := `
		SELECT ` + relationshipColumns + `
		FROM relationships r
		INNER JOIN members m ON r.from_person_id = m.id
		WHERE m.tree_id = ?
		ORDER BY r.id
	`
	return r.queryRelationships(query, treeID)
}

// GetRelationshipsBetween retrieves the relationships joining a and b in either direction
func (r *RelationshipRepository) GetRelationshipsBetween(a, b int64) ([]models.Relationship, error) {
	query := `SELECT ` + relationshipColumns + ` FROM relationships r
		WHERE (r.from_person_id = ? AND r.to_person_id = ?) OR (r.from_person_id = ? AND r.to_person_id = ?)
		ORDER BY r.id`
	return r.queryRelationships(query, a, b, b, a)
}

func (r *RelationshipRepository) queryRelationships(query string, args ...interface{}) ([]models.Relationship, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query relationships: %w", err)
	}
	defer rows.Close()

	var rels []models.Relationship
	for rows.Next() {
		rel, err := scanRelationship(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan relationship: %w", err)
		}
		rels = append(rels, *rel)
	}
	return rels, rows.Err()
}

// ParentIDs returns the recorded parents of childID under either framing:
// the from side of Parent(p->child) and the to side of Child(child->p).
// The relationship excludeID is skipped; pass 0 to skip nothing.
func (r *RelationshipRepository) ParentIDs(childID, excludeID int64) ([]int64, error) {
	query := `
		SELECT from_person_id FROM relationships WHERE to_person_id = ? AND type = ? AND id <> ?
		UNION
		SELECT to_person_id FROM relationships WHERE from_person_id = ? AND type = ? AND id <> ?
	`
	return r.queryIDs(query,
		childID, string(models.RelationshipParent), excludeID,
		childID, string(models.RelationshipChild), excludeID)
}

// ChildIDs returns the recorded children of parentID under either framing
func (r *RelationshipRepository) ChildIDs(parentID int64) ([]int64, error) {
	query := `
		SELECT to_person_id FROM relationships WHERE from_person_id = ? AND type = ?
		UNION
		SELECT from_person_id FROM relationships WHERE to_person_id = ? AND type = ?
	`
	return r.queryIDs(query,
		parentID, string(models.RelationshipParent),
		parentID, string(models.RelationshipChild))
}

func (r *RelationshipRepository) queryIDs(query string, args ...interface{}) ([]int64, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query member ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan member id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// DeleteRelationshipsByMember deletes every relationship touching a member
func (r *RelationshipRepository) DeleteRelationshipsByMember(memberID int64) error {
	query := "DELETE FROM relationships WHERE from_person_id = ? OR to_person_id = ?"
	if _, err := r.db.Exec(query, memberID, memberID); err != nil {
		return fmt.Errorf("failed to delete member relationships: %w", err)
	}
	return nil
}

// DeleteRelationshipsByTree deletes every relationship with an endpoint in a tree
func (r *RelationshipRepository) DeleteRelationshipsByTree(treeID int64) error {
	query := `
		DELETE FROM relationships
		WHERE from_person_id IN (SELECT id FROM members WHERE tree_id = ?)
		   OR to_person_id IN (SELECT id FROM members WHERE tree_id = ?)
	`
	if _, err := r.db.Exec(query, treeID, treeID); err != nil {
		return fmt.Errorf("failed to delete tree relationships: %w", err)
	}
	return nil
}
