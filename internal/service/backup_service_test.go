package service

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"familytree/internal/repository"
)

func TestBackupRoundTrip(t *testing.T) {
	src := newFixture(t)
	tree := src.tree(t, "Smith")
	father := src.member(t, owner, tree.ID, "Sam", "male")
	mother := src.member(t, owner, tree.ID, "Pat", "female")
	child := src.member(t, relative, tree.ID, "Kit", "female")
	src.link(t, owner, father.ID, child.ID, "Parent")
	src.link(t, owner, child.ID, mother.ID, "Child")
	src.link(t, owner, father.ID, mother.ID, "Spouse")

	_, err := src.invites.IssueInvite(t.Context(), owner, tree.ID, "cousin@example.com")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "backup.json")
	require.NoError(t, NewBackupService(src.db).Export(path))

	dst := newFixture(t)
	require.NoError(t, NewBackupService(dst.db).Import(path))

	trees, err := dst.trees.ListTrees(owner)
	require.NoError(t, err)
	require.Len(t, trees, 1)
	restored := trees[0]
	assert.Equal(t, "Smith", restored.Name)

	members, err := dst.members.ListMembers(owner, restored.ID)
	require.NoError(t, err)
	require.Len(t, members, 3)

	byName := map[string]int64{}
	for _, m := range members {
		byName[m.FirstName] = m.ID
	}
	kit := dst.reload(t, byName["Kit"])
	assert.Equal(t, ptr(byName["Sam"]), kit.FatherID)
	assert.Equal(t, ptr(byName["Pat"]), kit.MotherID)
	assert.Equal(t, relative, kit.CreatedBy)

	rels, err := dst.relationships.ListRelationships(owner, restored.ID)
	require.NoError(t, err)
	assert.Len(t, rels, 3)

	roles, err := dst.trees.ListTreeRoles(owner, restored.ID)
	require.NoError(t, err)
	assert.Len(t, roles, 3)

	invites, err := repository.NewStore(dst.db).Invites.GetAllInvites()
	require.NoError(t, err)
	require.Len(t, invites, 1)
	assert.Equal(t, restored.ID, invites[0].TreeID)
	require.NotNil(t, invites[0].RecipientEmail)
	assert.Equal(t, "cousin@example.com", *invites[0].RecipientEmail)
}

func TestBackupImportRejectsCycle(t *testing.T) {
	backup := BackupData{
		Version: BackupVersion,
		Trees: []TreeBackup{{
			ID:      7,
			Name:    "Loop",
			OwnerID: owner,
			Members: []MemberBackup{
				{ID: 1, FirstName: "A", LastName: "L", Gender: "male", CreatedBy: owner},
				{ID: 2, FirstName: "B", LastName: "L", Gender: "male", CreatedBy: owner},
			},
			Relationships: []RelationshipBackup{
				{FromPersonID: 1, ToPersonID: 2, Type: "Parent", CreatedBy: owner},
				{FromPersonID: 1, ToPersonID: 2, Type: "Child", CreatedBy: owner},
			},
		}},
	}
	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(backup))

	f := newFixture(t)
	err := NewBackupService(f.db).ImportFromReader(&buf)
	assert.ErrorIs(t, err, ErrCycleRejected)

	// Nothing was written
	trees, err := f.trees.ListTrees(owner)
	require.NoError(t, err)
	assert.Empty(t, trees)
}

func TestBackupClear(t *testing.T) {
	f := newFixture(t)
	tree := f.tree(t, "Smith")
	father := f.member(t, owner, tree.ID, "Sam", "male")
	child := f.member(t, owner, tree.ID, "Kit", "female")
	f.link(t, owner, father.ID, child.ID, "Parent")
	_, err := f.invites.IssueInvite(t.Context(), owner, tree.ID, "")
	require.NoError(t, err)

	require.NoError(t, NewBackupService(f.db).Clear())

	var buf bytes.Buffer
	require.NoError(t, NewBackupService(f.db).ExportToWriter(&buf))

	var backup BackupData
	require.NoError(t, json.Unmarshal(buf.Bytes(), &backup))
	assert.Empty(t, backup.Trees)
	assert.Empty(t, backup.Invites)
}

func TestBackupImportRejectsUnknownVersion(t *testing.T) {
	f := newFixture(t)
	err := NewBackupService(f.db).ImportFromReader(strings.NewReader(`{"version":"0.1","trees":[]}`))
	assert.ErrorContains(t, err, "unsupported backup version")
}
