package services

import "errors"

// Sentinel errors returned by the team, invite, join-request and approval
// services. Controllers map these onto HTTP statuses; anything not in this
// list is treated as a store failure.
var (
	// Authorization: the actor exists but lacks authority over this entity.
	ErrForbidden = errors.New("not allowed to perform this action")

	// Lookups.
	ErrTeamNotFound        = errors.New("team not found")
	ErrUserNotFound        = errors.New("user not found")
	ErrInviteNotFound      = errors.New("invitation not found")
	ErrJoinRequestNotFound = errors.New("join request not found")

	// Invariant violations. Never retried automatically; the caller must
	// resolve the precondition and resubmit.
	ErrAlreadyInTeam    = errors.New("user already belongs to a team")
	ErrTeamFull         = errors.New("team is already at full capacity")
	ErrDuplicateInvite  = errors.New("a pending invitation for this user already exists")
	ErrDuplicateRequest = errors.New("a pending join request for this team already exists")
	ErrTeamNameTaken    = errors.New("a team with this name already exists at your institute")
	ErrInvalidRecipient = errors.New("recipient is not a student of this institute")
	ErrInvalidTarget    = errors.New("the team leader cannot be removed from the team")

	// Lifecycle: the entity exists but is not in a state that permits the
	// operation.
	ErrAlreadyResolved = errors.New("this invitation or request has already been resolved")
	ErrInvalidState    = errors.New("operation not valid in the team's current state")
	ErrMissingNotes    = errors.New("rejection notes are required")
)
