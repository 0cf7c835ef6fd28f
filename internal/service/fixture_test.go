package service

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"familytree/internal/database"
	"familytree/internal/models"
	"familytree/internal/repository"
)

const (
	owner    = "owner-1"
	admin    = "admin-1"
	relative = "relative-1"
	viewer   = "viewer-1"
	stranger = "stranger-1"
)

type fixture struct {
	db            *database.DB
	trees         *TreeService
	members       *MemberService
	relationships *RelationshipService
	invites       *InviteService
}

func newTestDB(t *testing.T) *database.DB {
	t.Helper()

	db, err := database.Initialize(filepath.Join(t.TempDir(), "family.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.RunMigrations())
	return db
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := newTestDB(t)
	return &fixture{
		db:            db,
		trees:         NewTreeService(db),
		members:       NewMemberService(db),
		relationships: NewRelationshipService(db),
		invites:       NewInviteService(db, "http://localhost:8080", nil),
	}
}

// tree creates a tree owned by owner with admin, relative and viewer
// holding their namesake roles
func (f *fixture) tree(t *testing.T, name string) *models.Tree {
	t.Helper()

	tree, err := f.trees.CreateTree(owner, name, false)
	require.NoError(t, err)
	for user, role := range map[string]string{admin: "Admin", relative: "Family Member", viewer: "Viewer"} {
		_, err := f.trees.AssignRole(owner, tree.ID, user, role)
		require.NoError(t, err)
	}
	return tree
}

func (f *fixture) member(t *testing.T, caller string, treeID int64, name, gender string) *models.Member {
	t.Helper()

	m, err := f.members.CreateMember(caller, MemberInput{
		TreeID:    treeID,
		FirstName: name,
		LastName:  "Test",
		Gender:    gender,
	})
	require.NoError(t, err)
	return m
}

func (f *fixture) link(t *testing.T, caller string, fromID, toID int64, relType string) *models.Relationship {
	t.Helper()

	rel, err := f.relationships.CreateRelationship(caller, RelationshipInput{
		FromPersonID: fromID,
		ToPersonID:   toID,
		Type:         relType,
	})
	require.NoError(t, err)
	return rel
}

// reload reads a member straight from the store, bypassing access checks
func (f *fixture) reload(t *testing.T, id int64) *models.Member {
	t.Helper()

	m, err := repository.NewStore(f.db).Members.GetMemberByID(id)
	require.NoError(t, err)
	require.NotNil(t, m, "member %d should exist", id)
	return m
}

func ptr(v int64) *int64 {
	return &v
}
