package service

import (
	"errors"
	"fmt"

	"familytree/internal/metrics"
)

// Error kinds. Handlers map these to status codes with errors.Is.
var (
	ErrUnauthenticated   = errors.New("authentication required")
	ErrAccessDenied      = errors.New("access denied")
	ErrNotFound          = errors.New("not found")
	ErrInvalidInput      = errors.New("invalid input")
	ErrCycleRejected     = errors.New("relationship would create a cycle in the family tree")
	ErrInviteExpired     = errors.New("invite has expired")
	ErrInviteAlreadyUsed = errors.New("invite has already been used")
	ErrAlreadyHasRole    = errors.New("user already has a role on this tree")
	ErrStorageFailure    = errors.New("storage failure")
)

var (
	ErrTreeNotFound         = fmt.Errorf("tree %w", ErrNotFound)
	ErrMemberNotFound       = fmt.Errorf("member %w", ErrNotFound)
	ErrRelationshipNotFound = fmt.Errorf("relationship %w", ErrNotFound)
	ErrInviteNotFound       = fmt.Errorf("invite %w", ErrNotFound)
	ErrRoleNotFound         = fmt.Errorf("role assignment %w", ErrNotFound)

	ErrCrossTree               = invalid("members belong to different trees")
	ErrParentSlotTaken         = invalid("child already has a different parent in that slot")
	ErrSelfRelationship        = invalid("a member cannot be related to themselves")
	ErrDuplicateRelationship   = invalid("relationship already exists")
	ErrInvalidRelationshipType = invalid("relationship type must be Parent, Child or Spouse")
	ErrInvalidDateRange        = invalid("end date is before start date")
	ErrIDMismatch              = invalid("id in path does not match id in body")
	ErrTreeChange              = invalid("relationship cannot be moved to another tree")
	ErrInvalidRole             = invalid("role must be Admin, Family Member or Viewer")
	ErrCannotAssignOwner       = invalid("the tree owner cannot be given a role")
)

func invalid(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, msg)
}

// domainErrors are returned as-is from a unit of work; anything else is a
// store error.
var domainErrors = []error{
	ErrUnauthenticated,
	ErrAccessDenied,
	ErrNotFound,
	ErrInvalidInput,
	ErrCycleRejected,
	ErrInviteExpired,
	ErrInviteAlreadyUsed,
	ErrAlreadyHasRole,
	ErrStorageFailure,
}

func isDomainError(err error) bool {
	for _, kind := range domainErrors {
		if errors.Is(err, kind) {
			return true
		}
	}
	return false
}

// storageFailure tags a store error with ErrStorageFailure, keeping the cause
func storageFailure(err error) error {
	if err == nil || isDomainError(err) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrStorageFailure, err)
}

func init() {
	for _, k := range []struct {
		err   error
		label string
	}{
		{ErrUnauthenticated, "unauthenticated"},
		{ErrAccessDenied, "access_denied"},
		{ErrNotFound, "not_found"},
		{ErrCycleRejected, "cycle_rejected"},
		{ErrInviteExpired, "invite_expired"},
		{ErrInviteAlreadyUsed, "invite_used"},
		{ErrAlreadyHasRole, "already_has_role"},
		{ErrInvalidInput, "invalid_input"},
		{ErrStorageFailure, "storage_failure"},
	} {
		metrics.RegisterOutcome(k.err, k.label)
	}
}
