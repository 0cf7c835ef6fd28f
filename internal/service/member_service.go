package service

import (
	"fmt"
	"strings"
	"time"

	"familytree/internal/database"
	"familytree/internal/models"
	"familytree/internal/repository"
	"familytree/internal/validation"
)

// MemberInput is the caller-editable part of a member
type MemberInput struct {
	TreeID      int64
	FirstName   string
	LastName    string
	Gender      string
	DateOfBirth *time.Time
	DateOfDeath *time.Time
}

// normalize validates the input and returns the parsed gender
func (in *MemberInput) normalize() (models.Gender, error) {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)

	if err := validation.ValidateName("firstName", in.FirstName); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err := validation.ValidateName("lastName", in.LastName); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err := validation.ValidateLifeDates(in.DateOfBirth, in.DateOfDeath); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	gender, err := models.ParseGender(in.Gender)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return gender, nil
}

// MemberService handles member records and their cascade delete
type MemberService struct {
	db *database.DB
}

// NewMemberService creates a new member service
func NewMemberService(db *database.DB) *MemberService {
	return &MemberService{db: db}
}

// CreateMember adds a person to a tree. Owners, admins and family members
// may add people.
func (s *MemberService) CreateMember(callerID string, in MemberInput) (*models.Member, error) {
	if callerID == "" {
		return nil, ErrUnauthenticated
	}
	gender, err := in.normalize()
	if err != nil {
		return nil, err
	}

	member := &models.Member{
		TreeID:      in.TreeID,
		FirstName:   in.FirstName,
		LastName:    in.LastName,
		Gender:      gender,
		DateOfBirth: in.DateOfBirth,
		DateOfDeath: in.DateOfDeath,
		CreatedBy:   callerID,
	}

	err = inTx(s.db, func(st *repository.Store) error {
		tree, err := st.Trees.GetTreeByID(in.TreeID)
		if err != nil {
			return err
		}
		if tree == nil {
			return ErrTreeNotFound
		}

		access, err := NewAccessEvaluator(st.Trees, st.Roles).resolveForTree(tree, callerID)
		if err != nil {
			return err
		}
		if !access.Permits(OpCreateMember, false) {
			return ErrAccessDenied
		}
		return st.Members.CreateMember(member)
	})
	if err != nil {
		return nil, err
	}
	return member, nil
}

// UpdateMember edits a member the caller created. A gender change moves the
// member's children pointers to the other slot in the same transaction.
func (s *MemberService) UpdateMember(callerID string, memberID int64, in MemberInput) (*models.Member, error) {
	if callerID == "" {
		return nil, ErrUnauthenticated
	}
	gender, err := in.normalize()
	if err != nil {
		return nil, err
	}

	var member *models.Member
	err = inTx(s.db, func(st *repository.Store) error {
		var err error
		member, err = s.ownedMember(st, callerID, memberID)
		if err != nil {
			return err
		}
		if in.TreeID != 0 && in.TreeID != member.TreeID {
			return fmt.Errorf("%w: a member cannot move to another tree", ErrInvalidInput)
		}

		genderChanged := member.Gender != gender
		member.FirstName = in.FirstName
		member.LastName = in.LastName
		member.Gender = gender
		member.DateOfBirth = in.DateOfBirth
		member.DateOfDeath = in.DateOfDeath

		if err := st.Members.UpdateMember(member); err != nil {
			return err
		}
		if genderChanged {
			if err := NewSynchronizer(st).Reproject(member); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return member, nil
}

// GetMember returns a member of a tree the caller can read
func (s *MemberService) GetMember(callerID string, memberID int64) (*models.Member, error) {
	if callerID == "" {
		return nil, ErrUnauthenticated
	}

	var member *models.Member
	err := read(s.db, func(st *repository.Store) error {
		var err error
		member, err = st.Members.GetMemberByID(memberID)
		if err != nil {
			return err
		}
		if member == nil {
			return ErrMemberNotFound
		}
		return requireRead(st, member.TreeID, callerID)
	})
	if err != nil {
		return nil, err
	}
	return member, nil
}

// ListMembers returns every member of a tree
func (s *MemberService) ListMembers(callerID string, treeID int64) ([]models.Member, error) {
	if callerID == "" {
		return nil, ErrUnauthenticated
	}

	var members []models.Member
	err := read(s.db, func(st *repository.Store) error {
		if err := requireRead(st, treeID, callerID); err != nil {
			return err
		}
		var err error
		members, err = st.Members.GetMembersByTree(treeID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return members, nil
}

// DeleteMember removes a member the caller created, with every relationship
// touching it and every parent pointer naming it
func (s *MemberService) DeleteMember(callerID string, memberID int64) error {
	if callerID == "" {
		return ErrUnauthenticated
	}

	return inTx(s.db, func(st *repository.Store) error {
		member, err := s.ownedMember(st, callerID, memberID)
		if err != nil {
			return err
		}

		if err := st.Relationships.DeleteRelationshipsByMember(member.ID); err != nil {
			return err
		}
		if err := st.Members.ClearReferencesTo(member.ID); err != nil {
			return err
		}
		return st.Members.DeleteMember(member.ID)
	})
}

// ownedMember loads a member and checks the caller created it and still
// holds a role that may edit members of its tree
func (s *MemberService) ownedMember(st *repository.Store, callerID string, memberID int64) (*models.Member, error) {
	member, err := st.Members.GetMemberByID(memberID)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, ErrMemberNotFound
	}

	access, err := NewAccessEvaluator(st.Trees, st.Roles).Resolve(member.TreeID, callerID)
	if err != nil {
		return nil, err
	}
	if !access.Permits(OpCreateMember, false) || member.CreatedBy != callerID {
		return nil, ErrAccessDenied
	}
	return member, nil
}
