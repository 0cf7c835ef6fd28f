package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateMember(t *testing.T) {
	f := newFixture(t)
	tree := f.tree(t, "Smith")
	birth := time.Date(1950, 3, 1, 0, 0, 0, 0, time.UTC)
	death := time.Date(2010, 7, 9, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		caller  string
		input   MemberInput
		wantErr error
	}{
		{"owner", owner, MemberInput{TreeID: tree.ID, FirstName: "Ann", LastName: "Smith", Gender: "female"}, nil},
		{"admin", admin, MemberInput{TreeID: tree.ID, FirstName: "Bo", LastName: "Smith", Gender: "M"}, nil},
		{"family member", relative, MemberInput{TreeID: tree.ID, FirstName: "Cy", LastName: "Smith", Gender: "male", DateOfBirth: &birth, DateOfDeath: &death}, nil},
		{"viewer", viewer, MemberInput{TreeID: tree.ID, FirstName: "Di", LastName: "Smith", Gender: "female"}, ErrAccessDenied},
		{"stranger", stranger, MemberInput{TreeID: tree.ID, FirstName: "Ed", LastName: "Smith", Gender: "male"}, ErrAccessDenied},
		{"anonymous", "", MemberInput{TreeID: tree.ID, FirstName: "Fy", LastName: "Smith", Gender: "male"}, ErrUnauthenticated},
		{"unknown tree", owner, MemberInput{TreeID: 999, FirstName: "Gus", LastName: "Smith", Gender: "male"}, ErrNotFound},
		{"bad gender", owner, MemberInput{TreeID: tree.ID, FirstName: "Hal", LastName: "Smith", Gender: "robot"}, ErrInvalidInput},
		{"blank name", owner, MemberInput{TreeID: tree.ID, FirstName: "  ", LastName: "Smith", Gender: "male"}, ErrInvalidInput},
		{"death before birth", owner, MemberInput{TreeID: tree.ID, FirstName: "Ida", LastName: "Smith", Gender: "female", DateOfBirth: &death, DateOfDeath: &birth}, ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := f.members.CreateMember(tt.caller, tt.input)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, m)
				return
			}
			require.NoError(t, err)
			assert.NotZero(t, m.ID)
			assert.Equal(t, tt.caller, m.CreatedBy)
			assert.Nil(t, m.MotherID)
			assert.Nil(t, m.FatherID)
		})
	}
}

func TestUpdateMemberRequiresCreator(t *testing.T) {
	f := newFixture(t)
	tree := f.tree(t, "Smith")
	m := f.member(t, relative, tree.ID, "Rita", "female")

	in := MemberInput{FirstName: "Rita", LastName: "Jones", Gender: "female"}

	_, err := f.members.UpdateMember(owner, m.ID, in)
	assert.ErrorIs(t, err, ErrAccessDenied)

	updated, err := f.members.UpdateMember(relative, m.ID, in)
	require.NoError(t, err)
	assert.Equal(t, "Jones", updated.LastName)

	// Losing the role also loses the edit right
	require.NoError(t, f.trees.RevokeRole(owner, tree.ID, relative))
	_, err = f.members.UpdateMember(relative, m.ID, in)
	assert.ErrorIs(t, err, ErrAccessDenied)
}

func TestViewerCannotEditOwnMember(t *testing.T) {
	f := newFixture(t)
	tree := f.tree(t, "Smith")
	m := f.member(t, relative, tree.ID, "Rita", "female")

	require.NoError(t, f.trees.RevokeRole(owner, tree.ID, relative))
	_, err := f.trees.AssignRole(owner, tree.ID, relative, "Viewer")
	require.NoError(t, err)

	_, err = f.members.UpdateMember(relative, m.ID, MemberInput{FirstName: "Rita", LastName: "Jones", Gender: "female"})
	assert.ErrorIs(t, err, ErrAccessDenied)
	assert.ErrorIs(t, f.members.DeleteMember(relative, m.ID), ErrAccessDenied)

	got := f.reload(t, m.ID)
	assert.Equal(t, "Test", got.LastName)
}

func TestUpdateMemberCannotChangeTree(t *testing.T) {
	f := newFixture(t)
	tree := f.tree(t, "Smith")
	other := f.tree(t, "Jones")
	m := f.member(t, owner, tree.ID, "Ann", "female")

	_, err := f.members.UpdateMember(owner, m.ID, MemberInput{TreeID: other.ID, FirstName: "Ann", LastName: "Test", Gender: "female"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestUpdateMemberGenderMovesChildPointers(t *testing.T) {
	f := newFixture(t)
	tree := f.tree(t, "Smith")
	parent := f.member(t, owner, tree.ID, "Sam", "male")
	child1 := f.member(t, owner, tree.ID, "Kit", "female")
	child2 := f.member(t, owner, tree.ID, "Lou", "male")

	f.link(t, owner, parent.ID, child1.ID, "Parent")
	f.link(t, owner, child2.ID, parent.ID, "Child")
	require.Equal(t, ptr(parent.ID), f.reload(t, child1.ID).FatherID)

	_, err := f.members.UpdateMember(owner, parent.ID, MemberInput{FirstName: "Sam", LastName: "Test", Gender: "female"})
	require.NoError(t, err)

	for _, id := range []int64{child1.ID, child2.ID} {
		got := f.reload(t, id)
		assert.Nil(t, got.FatherID)
		assert.Equal(t, ptr(parent.ID), got.MotherID)
	}
}

func TestUpdateMemberGenderChangeRejectedWhenSlotTaken(t *testing.T) {
	f := newFixture(t)
	tree := f.tree(t, "Smith")
	father := f.member(t, owner, tree.ID, "Sam", "male")
	mother := f.member(t, owner, tree.ID, "Pat", "female")
	child := f.member(t, owner, tree.ID, "Kit", "female")

	f.link(t, owner, father.ID, child.ID, "Parent")
	f.link(t, owner, mother.ID, child.ID, "Parent")

	_, err := f.members.UpdateMember(owner, father.ID, MemberInput{FirstName: "Sam", LastName: "Test", Gender: "female"})
	assert.ErrorIs(t, err, ErrParentSlotTaken)

	// Rolled back
	assert.Equal(t, "male", string(f.reload(t, father.ID).Gender))
	assert.Equal(t, ptr(father.ID), f.reload(t, child.ID).FatherID)
}

func TestDeleteMemberCascades(t *testing.T) {
	f := newFixture(t)
	tree := f.tree(t, "Smith")
	father := f.member(t, owner, tree.ID, "Sam", "male")
	mother := f.member(t, owner, tree.ID, "Pat", "female")
	child := f.member(t, owner, tree.ID, "Kit", "female")

	f.link(t, owner, father.ID, child.ID, "Parent")
	f.link(t, owner, mother.ID, child.ID, "Parent")
	spouse := f.link(t, owner, father.ID, mother.ID, "Spouse")

	require.NoError(t, f.members.DeleteMember(owner, father.ID))

	_, err := f.members.GetMember(owner, father.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.relationships.GetRelationship(owner, spouse.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	rels, err := f.relationships.ListRelationships(owner, tree.ID)
	require.NoError(t, err)
	require.Len(t, rels, 1)
	assert.Equal(t, mother.ID, rels[0].FromPersonID)

	got := f.reload(t, child.ID)
	assert.Nil(t, got.FatherID)
	assert.Equal(t, ptr(mother.ID), got.MotherID)
}

func TestDeleteMemberRequiresCreator(t *testing.T) {
	f := newFixture(t)
	tree := f.tree(t, "Smith")
	m := f.member(t, owner, tree.ID, "Sam", "male")

	for _, caller := range []string{admin, relative, viewer, stranger} {
		t.Run(caller, func(t *testing.T) {
			assert.ErrorIs(t, f.members.DeleteMember(caller, m.ID), ErrAccessDenied)
		})
	}
	assert.ErrorIs(t, f.members.DeleteMember(owner, 999), ErrNotFound)
	assert.NoError(t, f.members.DeleteMember(owner, m.ID))
}

func TestListMembersVisibility(t *testing.T) {
	f := newFixture(t)
	private := f.tree(t, "Private")
	f.member(t, owner, private.ID, "Sam", "male")

	public, err := f.trees.CreateTree(owner, "Public", true)
	require.NoError(t, err)
	f.member(t, owner, public.ID, "Pat", "female")

	members, err := f.members.ListMembers(viewer, private.ID)
	require.NoError(t, err)
	assert.Len(t, members, 1)

	_, err = f.members.ListMembers(stranger, private.ID)
	assert.ErrorIs(t, err, ErrAccessDenied)

	members, err = f.members.ListMembers(stranger, public.ID)
	require.NoError(t, err)
	assert.Len(t, members, 1)

	// Public means readable, not writable
	_, err = f.members.CreateMember(stranger, MemberInput{TreeID: public.ID, FirstName: "Eve", LastName: "Test", Gender: "female"})
	assert.ErrorIs(t, err, ErrAccessDenied)
}
