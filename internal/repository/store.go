package repository

import (
	"database/sql"
	"time"

	"familytree/internal/database"
)

// Store bundles the repositories over one connection or transaction
type Store struct {
	Trees         *TreeRepository
	Members       *MemberRepository
	Relationships *RelationshipRepository
	Roles         *RoleRepository
	Invites       *InviteRepository
}

// NewStore creates a Store whose repositories all run on db. Passing a
// *database.Tx makes every repository call part of that transaction.
func NewStore(db database.DBTX) *Store {
	return &Store{
		Trees:         NewTreeRepository(db),
		Members:       NewMemberRepository(db),
		Relationships: NewRelationshipRepository(db),
		Roles:         NewRoleRepository(db),
		Invites:       NewInviteRepository(db),
	}
}

// scanner is implemented by *sql.Row and *sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

func nullTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UTC()
}

func nullInt64(v *int64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func nullString(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}

func int64Ptr(ni sql.NullInt64) *int64 {
	if !ni.Valid {
		return nil
	}
	v := ni.Int64
	return &v
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func now() time.Time {
	return time.Now().UTC()
}
