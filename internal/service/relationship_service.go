package service

import (
	"fmt"
	"time"

	"familytree/internal/database"
	"familytree/internal/metrics"
	"familytree/internal/models"
	"familytree/internal/repository"
)

// RelationshipInput is the caller-supplied part of a relationship
type RelationshipInput struct {
	FromPersonID int64
	ToPersonID   int64
	Type         string
	StartDate    *time.Time
	EndDate      *time.Time
}

// RelationshipService validates and applies relationship edits. Each edit
// runs as one transaction covering the checks, the row change and the
// pointer projection.
type RelationshipService struct {
	db *database.DB
}

// NewRelationshipService creates a new relationship service
func NewRelationshipService(db *database.DB) *RelationshipService {
	return &RelationshipService{db: db}
}

// edge holds a resolved, validated proposal
type edge struct {
	from, to *models.Member
	relType  models.RelationshipType
}

// resolveEdge loads both endpoints and checks they share a tree
func resolveEdge(st *repository.Store, in RelationshipInput) (*edge, error) {
	from, err := st.Members.GetMemberByID(in.FromPersonID)
	if err != nil {
		return nil, err
	}
	to, err := st.Members.GetMemberByID(in.ToPersonID)
	if err != nil {
		return nil, err
	}
	if from == nil || to == nil {
		return nil, fmt.Errorf("%w: relationship endpoint does not exist", ErrInvalidInput)
	}
	if from.TreeID != to.TreeID {
		return nil, ErrCrossTree
	}
	return &edge{from: from, to: to}, nil
}

// validate runs the type, shape, duplicate and cycle checks against the
// current graph. excludeID is the edge being edited, 0 on create.
func (e *edge) validate(st *repository.Store, in RelationshipInput, excludeID int64) error {
	relType, err := models.ParseRelationshipType(in.Type)
	if err != nil {
		return ErrInvalidRelationshipType
	}
	e.relType = relType

	if e.from.ID == e.to.ID {
		return ErrSelfRelationship
	}
	if in.StartDate != nil && in.EndDate != nil && in.EndDate.Before(*in.StartDate) {
		return ErrInvalidDateRange
	}

	if err := checkDuplicate(st, e.from.ID, e.to.ID, relType, excludeID); err != nil {
		return err
	}

	cycle, err := NewCycleDetector(st.Relationships).WouldCreateCycle(e.from.ID, e.to.ID, relType, excludeID)
	if err != nil {
		return err
	}
	if cycle {
		return ErrCycleRejected
	}
	return nil
}

// checkDuplicate rejects a second row for the same parent link in either
// framing, or a second spouse row for the same pair
func checkDuplicate(st *repository.Store, fromID, toID int64, relType models.RelationshipType, excludeID int64) error {
	existing, err := st.Relationships.GetRelationshipsBetween(fromID, toID)
	if err != nil {
		return err
	}

	parentID, childID, isLink := models.ParentLink(fromID, toID, relType)
	for _, rel := range existing {
		if rel.ID == excludeID {
			continue
		}
		if isLink {
			p, c, ok := rel.ParentLink()
			if ok && p == parentID && c == childID {
				return ErrDuplicateRelationship
			}
			continue
		}
		if rel.Type == models.RelationshipSpouse {
			return ErrDuplicateRelationship
		}
	}
	return nil
}

// CreateRelationship adds an edge between two members of the same tree
func (s *RelationshipService) CreateRelationship(callerID string, in RelationshipInput) (rel *models.Relationship, err error) {
	defer func() { metrics.RecordRelationshipMutation("create", err) }()

	if callerID == "" {
		return nil, ErrUnauthenticated
	}

	err = inTx(s.db, func(st *repository.Store) error {
		e, err := resolveEdge(st, in)
		if err != nil {
			return err
		}

		access, err := NewAccessEvaluator(st.Trees, st.Roles).Resolve(e.from.TreeID, callerID)
		if err != nil {
			return err
		}
		if !access.Permits(OpCreateRelationship, false) {
			return ErrAccessDenied
		}

		if err := e.validate(st, in, 0); err != nil {
			return err
		}

		rel = &models.Relationship{
			FromPersonID: e.from.ID,
			ToPersonID:   e.to.ID,
			Type:         e.relType,
			StartDate:    in.StartDate,
			EndDate:      in.EndDate,
			CreatedBy:    callerID,
		}
		if err := st.Relationships.CreateRelationship(rel); err != nil {
			return err
		}
		return NewSynchronizer(st).Apply(rel)
	})
	if err != nil {
		return nil, err
	}
	return rel, nil
}

// UpdateRelationship rewrites an edge in place. The old edge's pointer is
// cleared before the new one is applied, and the cycle check runs with the
// old edge left out of the graph.
func (s *RelationshipService) UpdateRelationship(callerID string, relationshipID int64, in RelationshipInput) (rel *models.Relationship, err error) {
	defer func() { metrics.RecordRelationshipMutation("update", err) }()

	if callerID == "" {
		return nil, ErrUnauthenticated
	}

	err = inTx(s.db, func(st *repository.Store) error {
		existing, err := st.Relationships.GetRelationshipByID(relationshipID)
		if err != nil {
			return err
		}
		if existing == nil {
			return ErrRelationshipNotFound
		}
		oldFrom, oldTo, err := loadEndpoints(st, existing)
		if err != nil {
			return err
		}

		e, err := resolveEdge(st, in)
		if err != nil {
			return err
		}
		if e.from.TreeID != oldFrom.TreeID {
			return ErrTreeChange
		}

		access, err := NewAccessEvaluator(st.Trees, st.Roles).Resolve(oldFrom.TreeID, callerID)
		if err != nil {
			return err
		}
		createdEndpoint := oldFrom.CreatedBy == callerID || (oldTo != nil && oldTo.CreatedBy == callerID)
		if !access.Permits(OpUpdateRelationship, createdEndpoint) {
			return ErrAccessDenied
		}

		if err := e.validate(st, in, existing.ID); err != nil {
			return err
		}

		syncer := NewSynchronizer(st)
		if err := syncer.Clear(existing); err != nil {
			return err
		}

		rel = &models.Relationship{
			ID:           existing.ID,
			FromPersonID: e.from.ID,
			ToPersonID:   e.to.ID,
			Type:         e.relType,
			StartDate:    in.StartDate,
			EndDate:      in.EndDate,
			CreatedBy:    existing.CreatedBy,
			CreatedAt:    existing.CreatedAt,
		}
		if err := st.Relationships.UpdateRelationship(rel); err != nil {
			return err
		}
		return syncer.Apply(rel)
	})
	if err != nil {
		return nil, err
	}
	return rel, nil
}

// DeleteRelationship removes an edge and the pointer it produced
func (s *RelationshipService) DeleteRelationship(callerID string, relationshipID int64) (err error) {
	defer func() { metrics.RecordRelationshipMutation("delete", err) }()

	if callerID == "" {
		return ErrUnauthenticated
	}

	return inTx(s.db, func(st *repository.Store) error {
		existing, err := st.Relationships.GetRelationshipByID(relationshipID)
		if err != nil {
			return err
		}
		if existing == nil {
			return ErrRelationshipNotFound
		}
		from, _, err := loadEndpoints(st, existing)
		if err != nil {
			return err
		}

		access, err := NewAccessEvaluator(st.Trees, st.Roles).Resolve(from.TreeID, callerID)
		if err != nil {
			return err
		}
		if !access.Permits(OpDeleteRelationship, false) {
			return ErrAccessDenied
		}

		if err := NewSynchronizer(st).Clear(existing); err != nil {
			return err
		}
		return st.Relationships.DeleteRelationship(existing.ID)
	})
}

// GetRelationship returns one edge if the caller can read its tree
func (s *RelationshipService) GetRelationship(callerID string, relationshipID int64) (*models.Relationship, error) {
	if callerID == "" {
		return nil, ErrUnauthenticated
	}

	var rel *models.Relationship
	err := read(s.db, func(st *repository.Store) error {
		var err error
		rel, err = st.Relationships.GetRelationshipByID(relationshipID)
		if err != nil {
			return err
		}
		if rel == nil {
			return ErrRelationshipNotFound
		}
		from, _, err := loadEndpoints(st, rel)
		if err != nil {
			return err
		}
		return requireRead(st, from.TreeID, callerID)
	})
	if err != nil {
		return nil, err
	}
	return rel, nil
}

// ListRelationships returns every edge in a tree
func (s *RelationshipService) ListRelationships(callerID string, treeID int64) ([]models.Relationship, error) {
	if callerID == "" {
		return nil, ErrUnauthenticated
	}

	var rels []models.Relationship
	err := read(s.db, func(st *repository.Store) error {
		if err := requireRead(st, treeID, callerID); err != nil {
			return err
		}
		var err error
		rels, err = st.Relationships.GetRelationshipsByTree(treeID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rels, nil
}

// loadEndpoints fetches the members of a stored edge. The from member
// decides the tree, so its absence is reported as a missing relationship.
func loadEndpoints(st *repository.Store, rel *models.Relationship) (*models.Member, *models.Member, error) {
	from, err := st.Members.GetMemberByID(rel.FromPersonID)
	if err != nil {
		return nil, nil, err
	}
	if from == nil {
		return nil, nil, ErrRelationshipNotFound
	}
	to, err := st.Members.GetMemberByID(rel.ToPersonID)
	if err != nil {
		return nil, nil, err
	}
	return from, to, nil
}

// requireRead fails with ErrTreeNotFound or ErrAccessDenied unless the
// caller may read the tree
func requireRead(st *repository.Store, treeID int64, callerID string) error {
	tree, err := st.Trees.GetTreeByID(treeID)
	if err != nil {
		return err
	}
	if tree == nil {
		return ErrTreeNotFound
	}
	ok, err := NewAccessEvaluator(st.Trees, st.Roles).canRead(tree, callerID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrAccessDenied
	}
	return nil
}
