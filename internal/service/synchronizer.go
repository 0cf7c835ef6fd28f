package service

import (
	"familytree/internal/models"
	"familytree/internal/repository"
)

// Synchronizer keeps Member.MotherID/FatherID equal to the projection of
// the Parent/Child relationships. It is the only writer of those fields.
type Synchronizer struct {
	members       *repository.MemberRepository
	relationships *repository.RelationshipRepository
}

// NewSynchronizer creates a synchronizer over the store's repositories
func NewSynchronizer(st *repository.Store) *Synchronizer {
	return &Synchronizer{members: st.Members, relationships: st.Relationships}
}

// slot returns the pointer field of child that parent fills
func slot(child, parent *models.Member) **int64 {
	if parent.IsMale() {
		return &child.FatherID
	}
	return &child.MotherID
}

// Apply sets the child's pointer for a Parent/Child edge. Spouse edges and
// edges with a missing endpoint are ignored. A slot already held by a
// different member fails with ErrParentSlotTaken.
func (s *Synchronizer) Apply(rel *models.Relationship) error {
	parentID, childID, ok := rel.ParentLink()
	if !ok {
		return nil
	}

	parent, err := s.members.GetMemberByID(parentID)
	if err != nil {
		return err
	}
	child, err := s.members.GetMemberByID(childID)
	if err != nil {
		return err
	}
	if parent == nil || child == nil {
		return nil
	}

	return s.link(child, parent)
}

func (s *Synchronizer) link(child, parent *models.Member) error {
	target := slot(child, parent)
	if *target != nil {
		if **target == parent.ID {
			return nil
		}
		return ErrParentSlotTaken
	}

	id := parent.ID
	*target = &id
	return s.members.SetParents(child.ID, child.MotherID, child.FatherID)
}

// Clear removes the pointer a Parent/Child edge produced: whichever of the
// child's mother/father pointers names the edge's parent is nulled.
func (s *Synchronizer) Clear(rel *models.Relationship) error {
	parentID, childID, ok := rel.ParentLink()
	if !ok {
		return nil
	}

	child, err := s.members.GetMemberByID(childID)
	if err != nil {
		return err
	}
	if child == nil {
		return nil
	}
	return s.unlink(child, parentID)
}

func (s *Synchronizer) unlink(child *models.Member, parentID int64) error {
	changed := false
	if child.MotherID != nil && *child.MotherID == parentID {
		child.MotherID = nil
		changed = true
	}
	if child.FatherID != nil && *child.FatherID == parentID {
		child.FatherID = nil
		changed = true
	}
	if !changed {
		return nil
	}
	return s.members.SetParents(child.ID, child.MotherID, child.FatherID)
}

// Reproject moves parent's children pointers to the slot that matches
// parent's current gender. Run after a gender change.
func (s *Synchronizer) Reproject(parent *models.Member) error {
	childIDs, err := s.relationships.ChildIDs(parent.ID)
	if err != nil {
		return err
	}

	for _, childID := range childIDs {
		child, err := s.members.GetMemberByID(childID)
		if err != nil {
			return err
		}
		if child == nil {
			continue
		}
		if err := s.unlink(child, parent.ID); err != nil {
			return err
		}
		if err := s.link(child, parent); err != nil {
			return err
		}
	}
	return nil
}

// Rebuild recomputes every pointer in a tree from its relationships
func (s *Synchronizer) Rebuild(treeID int64) error {
	if err := s.members.ClearTreeParents(treeID); err != nil {
		return err
	}

	rels, err := s.relationships.GetRelationshipsByTree(treeID)
	if err != nil {
		return err
	}
	for i := range rels {
		if err := s.Apply(&rels[i]); err != nil {
			return err
		}
	}
	return nil
}
