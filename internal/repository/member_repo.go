package repository

import (
	"database/sql"
	"fmt"

	"familytree/internal/database"
	"familytree/internal/models"
)

// MemberRepository handles database operations for members
type MemberRepository struct {
	db database.DBTX
}

// NewMemberRepository creates a new member repository
func NewMemberRepository(db database.DBTX) *MemberRepository {
	return &MemberRepository{db: db}
}

const memberColumns = `id, tree_id, first_name, last_name, gender, date_of_birth, date_of_death,
	mother_id, father_id, created_by, created_at, updated_at`

func scanMember(s scanner) (*models.Member, error) {
	var (
		m            models.Member
		birth, death sql.NullTime
		mother       sql.NullInt64
		father       sql.NullInt64
	)
	err := s.Scan(&m.ID, &m.TreeID, &m.FirstName, &m.LastName, &m.Gender, &birth, &death,
		&mother, &father, &m.CreatedBy, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	m.DateOfBirth = timePtr(birth)
	m.DateOfDeath = timePtr(death)
	m.MotherID = int64Ptr(mother)
	m.FatherID = int64Ptr(father)
	return &m, nil
}

// CreateMember inserts a member. Parent pointers start empty.
func (r *MemberRepository) CreateMember(m *models.Member) error {
	ts := now()
	query := `INSERT INTO members (tree_id, first_name, last_name, gender, date_of_birth, date_of_death, created_by, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	id, err := r.db.ExecReturningID(query, m.TreeID, m.FirstName, m.LastName, string(m.Gender),
		nullTime(m.DateOfBirth), nullTime(m.DateOfDeath), m.CreatedBy, ts, ts)
	if err != nil {
		return fmt.Errorf("failed to create member: %w", err)
	}
	m.ID = id
	m.MotherID = nil
	m.FatherID = nil
	m.CreatedAt = ts
	m.UpdatedAt = ts
	return nil
}

// GetMemberByID retrieves a member by ID
func (r *MemberRepository) GetMemberByID(id int64) (*models.Member, error) {
	m, err := scanMember(r.db.QueryRow("SELECT "+memberColumns+" FROM members WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get member: %w", err)
	}
	return m, nil
}

// GetMembersByTree retrieves all members of a tree
func (r *MemberRepository) GetMembersByTree(treeID int64) ([]models.Member, error) {
	rows, err := r.db.Query("SELECT "+memberColumns+" FROM members WHERE tree_id = ? ORDER BY id", treeID)
	if err != nil {
		return nil, fmt.Errorf("failed to query members: %w", err)
	}
	defer rows.Close()

	var members []models.Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, *m)
	}
	return members, rows.Err()
}

// UpdateMember saves the caller-editable fields. Parent pointers are left alone.
func (r *MemberRepository) UpdateMember(m *models.Member) error {
	ts := now()
	query := `UPDATE members SET first_name = ?, last_name = ?, gender = ?, date_of_birth = ?, date_of_death = ?, updated_at = ?
		WHERE id = ?`
	_, err := r.db.Exec(query, m.FirstName, m.LastName, string(m.Gender),
		nullTime(m.DateOfBirth), nullTime(m.DateOfDeath), ts, m.ID)
	if err != nil {
		return fmt.Errorf("failed to update member: %w", err)
	}
	m.UpdatedAt = ts
	return nil
}

// SetParents writes both derived parent pointers of a member
func (r *MemberRepository) SetParents(id int64, motherID, fatherID *int64) error {
	query := "UPDATE members SET mother_id = ?, father_id = ? WHERE id = ?"
	if _, err := r.db.Exec(query, nullInt64(motherID), nullInt64(fatherID), id); err != nil {
		return fmt.Errorf("failed to set parents: %w", err)
	}
	return nil
}

// ClearReferencesTo nulls every mother/father pointer that names memberID
func (r *MemberRepository) ClearReferencesTo(memberID int64) error {
	if _, err := r.db.Exec("UPDATE members SET mother_id = NULL WHERE mother_id = ?", memberID); err != nil {
		return fmt.Errorf("failed to clear mother references: %w", err)
	}
	if _, err := r.db.Exec("UPDATE members SET father_id = NULL WHERE father_id = ?", memberID); err != nil {
		return fmt.Errorf("failed to clear father references: %w", err)
	}
	return nil
}

// ClearTreeParents nulls every parent pointer in a tree
func (r *MemberRepository) ClearTreeParents(treeID int64) error {
	query := "UPDATE members SET mother_id = NULL, father_id = NULL WHERE tree_id = ?"
	if _, err := r.db.Exec(query, treeID); err != nil {
		return fmt.Errorf("failed to clear tree parents: %w", err)
	}
	return nil
}

// DeleteMember deletes one member row
func (r *MemberRepository) DeleteMember(id int64) error {
	if _, err := r.db.Exec("DELETE FROM members WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete member: %w", err)
	}
	return nil
}

// DeleteMembersByTree deletes every member of a tree
func (r *MemberRepository) DeleteMembersByTree(treeID int64) error {
	if _, err := r.db.Exec("DELETE FROM members WHERE tree_id = ?", treeID); err != nil {
		return fmt.Errorf("failed to delete tree members: %w", err)
	}
	return nil
}
