package service

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"familytree/internal/models"
)

// parentEdge is one stored relationship reduced to its parent link
type parentEdge struct {
	id, parent, child int64
}

type fakeParents struct {
	edges []parentEdge
	calls int
	err   error
}

func (f *fakeParents) ParentIDs(childID, excludeID int64) ([]int64, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	var ids []int64
	for _, e := range f.edges {
		if e.child == childID && e.id != excludeID {
			ids = append(ids, e.parent)
		}
	}
	return ids, nil
}

func TestWouldCreateCycle(t *testing.T) {
	// 1 -> 2 -> 3 -> 4, and 1 -> 5
	lister := &fakeParents{edges: []parentEdge{
		{id: 10, parent: 1, child: 2},
		{id: 11, parent: 2, child: 3},
		{id: 12, parent: 3, child: 4},
		{id: 13, parent: 1, child: 5},
	}}
	d := NewCycleDetector(lister)

	tests := []struct {
		name    string
		from    int64
		to      int64
		relType models.RelationshipType
		exclude int64
		want    bool
	}{
		{"self parent", 3, 3, models.RelationshipParent, 0, true},
		{"self child", 3, 3, models.RelationshipChild, 0, true},
		{"descendant becomes parent", 4, 1, models.RelationshipParent, 0, true},
		{"ancestor recorded as child", 1, 4, models.RelationshipChild, 0, true},
		{"sibling branch", 5, 4, models.RelationshipParent, 0, false},
		{"new root above", 6, 1, models.RelationshipParent, 0, false},
		{"forward shortcut", 1, 4, models.RelationshipParent, 0, false},
		{"spouse of descendant", 4, 1, models.RelationshipSpouse, 0, false},
		{"reversing the edited edge", 2, 1, models.RelationshipParent, 10, false},
		{"reversing an unrelated edit", 2, 1, models.RelationshipParent, 13, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := d.WouldCreateCycle(tt.from, tt.to, tt.relType, tt.exclude)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWouldCreateCycleVisitsSharedAncestorsOnce(t *testing.T) {
	// Diamond: 1 -> 2, 1 -> 3, 2 -> 4, 3 -> 4
	lister := &fakeParents{edges: []parentEdge{
		{id: 1, parent: 1, child: 2},
		{id: 2, parent: 1, child: 3},
		{id: 3, parent: 2, child: 4},
		{id: 4, parent: 3, child: 4},
	}}

	got, err := NewCycleDetector(lister).WouldCreateCycle(4, 9, models.RelationshipParent, 0)
	require.NoError(t, err)
	assert.False(t, got)
	assert.Equal(t, 4, lister.calls)
}

func TestWouldCreateCycleStoreError(t *testing.T) {
	boom := errors.New("read failed")
	d := NewCycleDetector(&fakeParents{err: boom})

	_, err := d.WouldCreateCycle(1, 2, models.RelationshipParent, 0)
	assert.ErrorIs(t, err, boom)

	// Spouse edges never consult the store
	got, err := d.WouldCreateCycle(1, 2, models.RelationshipSpouse, 0)
	require.NoError(t, err)
	assert.False(t, got)
}
