package repository

import (
	"database/sql"
	"fmt"

	"familytree/internal/database"
	"familytree/internal/models"
)

// InviteRepository handles database operations for invites
type InviteRepository struct {
	db database.DBTX
}

// NewInviteRepository creates a new invite repository
func NewInviteRepository(db database.DBTX) *InviteRepository {
	return &InviteRepository{db: db}
}

const inviteColumns = "id, token, tree_id, role, expiration_date, is_used, recipient_email, created_at"

func scanInvite(s scanner) (*models.Invite, error) {
	var (
		inv   models.Invite
		email sql.NullString
	)
	err := s.Scan(&inv.ID, &inv.Token, &inv.TreeID, &inv.Role, &inv.ExpirationDate, &inv.IsUsed, &email, &inv.CreatedAt)
	if err != nil {
		return nil, err
	}
	inv.RecipientEmail = stringPtr(email)
	return &inv, nil
}

// CreateInvite inserts an invite and fills in its ID
func (r *InviteRepository) CreateInvite(inv *models.Invite) error {
	if inv.CreatedAt.IsZero() {
		inv.CreatedAt = now()
	}
	query := `INSERT INTO invites (token, tree_id, role, expiration_date, is_used, recipient_email, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	id, err := r.db.ExecReturningID(query, inv.Token, inv.TreeID, string(inv.Role),
		inv.ExpirationDate.UTC(), inv.IsUsed, nullString(inv.RecipientEmail), inv.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to create invite: %w", err)
	}
	inv.ID = id
	return nil
}

// GetInviteByToken retrieves an invite by its token
func (r *InviteRepository) GetInviteByToken(token string) (*models.Invite, error) {
	inv, err := scanInvite(r.db.QueryRow("SELECT "+inviteColumns+" FROM invites WHERE token = ?", token))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get invite: %w", err)
	}
	return inv, nil
}

// GetAllInvites retrieves every invite, used or not
func (r *InviteRepository) GetAllInvites() ([]models.Invite, error) {
	rows, err := r.db.Query("SELECT " + inviteColumns + " FROM invites ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to query invites: %w", err)
	}
	defer rows.Close()

	var invites []models.Invite
	for rows.Next() {
		inv, err := scanInvite(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan invite: %w", err)
		}
		invites = append(invites, *inv)
	}
	return invites, rows.Err()
}

// MarkInviteUsed flips is_used on an unused invite. It reports false when
// the invite was already used, so two redeemers cannot both consume it.
func (r *InviteRepository) MarkInviteUsed(id int64) (bool, error) {
	result, err := r.db.Exec("UPDATE invites SET is_used = ? WHERE id = ? AND is_used = ?", true, id, false)
	if err != nil {
		return false, fmt.Errorf("failed to mark invite used: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to mark invite used: %w", err)
	}
	return n == 1, nil
}
