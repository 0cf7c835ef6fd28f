package service

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"familytree/internal/database"
	"familytree/internal/metrics"
	"familytree/internal/models"
	"familytree/internal/repository"
	"familytree/internal/validation"
)

// InviteNotifier delivers an issued invite to its recipient
type InviteNotifier interface {
	SendInviteEmail(ctx context.Context, toEmail, treeName, role, inviteURL string) error
}

// IssuedInvite is what the issuer gets back
type IssuedInvite struct {
	Token          string    `json:"token"`
	URL            string    `json:"url"`
	ExpirationDate time.Time `json:"expirationDate"`
}

// InviteDetails describes a valid, unredeemed invite
type InviteDetails struct {
	TreeID   int64       `json:"treeId"`
	TreeName string      `json:"treeName"`
	Role     models.Role `json:"role"`
}

// InviteService issues, validates and redeems single-use tree invites
type InviteService struct {
	db       *database.DB
	baseURL  string
	notifier InviteNotifier
	now      func() time.Time
}

// NewInviteService creates a new invite service. notifier may be nil.
func NewInviteService(db *database.DB, baseURL string, notifier InviteNotifier) *InviteService {
	return &InviteService{
		db:       db,
		baseURL:  strings.TrimRight(baseURL, "/"),
		notifier: notifier,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// InviteURL returns the acceptance link for token
func (s *InviteService) InviteURL(token string) string {
	return fmt.Sprintf("%s/invite?token=%s", s.baseURL, url.QueryEscape(token))
}

// IssueInvite creates a Family Member invite on a tree the caller owns.
// When recipientEmail is set it is stored and the invite is mailed after
// the transaction commits; a failed send is logged, not returned.
func (s *InviteService) IssueInvite(ctx context.Context, callerID string, treeID int64, recipientEmail string) (issued *IssuedInvite, err error) {
	defer func() { metrics.RecordInviteEvent("issue", err) }()

	if callerID == "" {
		return nil, ErrUnauthenticated
	}

	var recipient *string
	if email := strings.TrimSpace(recipientEmail); email != "" {
		if err := validation.ValidateEmail(email); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		recipient = &email
	}

	now := s.now()
	invite := &models.Invite{
		Token:          uuid.NewString(),
		TreeID:         treeID,
		Role:           models.RoleFamilyMember,
		ExpirationDate: now.Add(models.InviteTTL),
		RecipientEmail: recipient,
		CreatedAt:      now,
	}

	var tree *models.Tree
	err = inTx(s.db, func(st *repository.Store) error {
		var err error
		tree, err = ownedTree(st, callerID, treeID)
		if err != nil {
			return err
		}
		return st.Invites.CreateInvite(invite)
	})
	if err != nil {
		return nil, err
	}

	issued = &IssuedInvite{
		Token:          invite.Token,
		URL:            s.InviteURL(invite.Token),
		ExpirationDate: invite.ExpirationDate,
	}

	if recipient != nil && s.notifier != nil {
		if err := s.notifier.SendInviteEmail(ctx, *recipient, tree.Name, string(invite.Role), issued.URL); err != nil {
			log.Printf("Failed to send invite email for tree %d: %v", treeID, err)
		}
	}
	return issued, nil
}

// checkInvite loads an invite and applies the unknown, expired and used
// checks in that order, so an expired token reports expiry whether or not
// it was used
func (s *InviteService) checkInvite(st *repository.Store, token string) (*models.Invite, *models.Tree, error) {
	invite, err := st.Invites.GetInviteByToken(token)
	if err != nil {
		return nil, nil, err
	}
	if invite == nil {
		return nil, nil, ErrInviteNotFound
	}
	if invite.IsExpired(s.now()) {
		return nil, nil, ErrInviteExpired
	}
	if invite.IsUsed {
		return nil, nil, ErrInviteAlreadyUsed
	}

	tree, err := st.Trees.GetTreeByID(invite.TreeID)
	if err != nil {
		return nil, nil, err
	}
	if tree == nil {
		return nil, nil, ErrTreeNotFound
	}
	return invite, tree, nil
}

// ValidateInvite reports the tree and role an invite grants without
// consuming it
func (s *InviteService) ValidateInvite(token string) (details *InviteDetails, err error) {
	defer func() { metrics.RecordInviteEvent("validate", err) }()

	err = read(s.db, func(st *repository.Store) error {
		invite, tree, err := s.checkInvite(st, token)
		if err != nil {
			return err
		}
		details = &InviteDetails{TreeID: tree.ID, TreeName: tree.Name, Role: invite.Role}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return details, nil
}

// RedeemInvite grants the invite's role to the caller and consumes the
// invite, both in one transaction
func (s *InviteService) RedeemInvite(callerID, token string) (assignment *models.RoleAssignment, err error) {
	defer func() { metrics.RecordInviteEvent("redeem", err) }()

	if callerID == "" {
		return nil, ErrUnauthenticated
	}

	err = inTx(s.db, func(st *repository.Store) error {
		invite, tree, err := s.checkInvite(st, token)
		if err != nil {
			return err
		}
		if tree.IsOwnedBy(callerID) {
			return ErrAlreadyHasRole
		}

		role, err := models.ParseRole(string(invite.Role))
		if err != nil || !role.Assignable() {
			return fmt.Errorf("%w: invite carries unknown role %q", ErrInvalidInput, invite.Role)
		}

		assignment, err = grantRole(st, tree, callerID, role)
		if err != nil {
			return err
		}

		consumed, err := st.Invites.MarkInviteUsed(invite.ID)
		if err != nil {
			return err
		}
		if !consumed {
			return ErrInviteAlreadyUsed
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Printf("Invite redeemed: %s joined tree %d as %s", callerID, assignment.TreeID, assignment.Role)
	return assignment, nil
}
