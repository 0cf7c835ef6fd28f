package service

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"familytree/internal/models"
)

func TestAccessPermits(t *testing.T) {
	ops := []Operation{OpRead, OpCreateRelationship, OpUpdateRelationship, OpDeleteRelationship, OpCreateMember, OpManageTree}

	tests := []struct {
		name    string
		access  Access
		created bool
		want    []bool // indexed like ops
	}{
		{"no access", Access{}, true, []bool{false, false, false, false, false, false}},
		{"owner", Access{HasAccess: true, Role: models.RoleOwner}, false, []bool{true, true, true, true, true, true}},
		{"admin", Access{HasAccess: true, Role: models.RoleAdmin}, false, []bool{true, true, true, true, true, false}},
		{"family member, not creator", Access{HasAccess: true, Role: models.RoleFamilyMember}, false, []bool{true, true, false, true, true, false}},
		{"family member, creator", Access{HasAccess: true, Role: models.RoleFamilyMember}, true, []bool{true, true, true, true, true, false}},
		{"viewer", Access{HasAccess: true, Role: models.RoleViewer}, true, []bool{true, false, false, false, false, false}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for i, op := range ops {
				assert.Equal(t, tt.want[i], tt.access.Permits(op, tt.created), "operation %d", op)
			}
		})
	}
}

type fakeTrees map[int64]*models.Tree

func (f fakeTrees) GetTreeByID(id int64) (*models.Tree, error) {
	return f[id], nil
}

type fakeRoles struct {
	assignments map[string]*models.RoleAssignment
	err         error
}

func (f fakeRoles) GetRoleAssignment(_ int64, userID string) (*models.RoleAssignment, error) {
	return f.assignments[userID], f.err
}

func TestAccessEvaluatorResolve(t *testing.T) {
	trees := fakeTrees{1: {ID: 1, Name: "Smith", OwnerID: owner}}
	roles := fakeRoles{assignments: map[string]*models.RoleAssignment{
		admin: {TreeID: 1, UserID: admin, Role: models.RoleAdmin},
		owner: {TreeID: 1, UserID: owner, Role: models.RoleViewer},
		"odd": {TreeID: 1, UserID: "odd", Role: models.Role("Overlord")},
	}}
	e := NewAccessEvaluator(trees, roles)

	tests := []struct {
		name   string
		treeID int64
		userID string
		want   Access
	}{
		{"owner wins over stored role", 1, owner, Access{HasAccess: true, Role: models.RoleOwner}},
		{"assigned role", 1, admin, Access{HasAccess: true, Role: models.RoleAdmin}},
		{"no assignment", 1, stranger, Access{}},
		{"unknown stored role", 1, "odd", Access{}},
		{"anonymous", 1, "", Access{}},
		{"missing tree", 2, owner, Access{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.Resolve(tt.treeID, tt.userID)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAccessEvaluatorResolvePropagatesStoreErrors(t *testing.T) {
	boom := errors.New("disk on fire")
	e := NewAccessEvaluator(fakeTrees{1: {ID: 1, OwnerID: owner}}, fakeRoles{err: boom})

	_, err := e.Resolve(1, admin)
	assert.ErrorIs(t, err, boom)
}
