package board

import "errors"

var (
	// ErrGroupNotFound indicates the group id is not in the index.
	ErrGroupNotFound = errors.New("group not found")
	// ErrMemberNotFound indicates the member id is not in the index.
	ErrMemberNotFound = errors.New("member not found")
	// ErrOrganizerNotFound indicates the organizer id is not in the index.
	ErrOrganizerNotFound = errors.New("organizer not found")
	// ErrInvalidName indicates a blank or oversized display name.
	ErrInvalidName = errors.New("invalid name")
	// ErrInvalidRef indicates a malformed session reference.
	ErrInvalidRef = errors.New("invalid session reference")
	// ErrSessionNotInGroup indicates the reference is absent from the group.
	ErrSessionNotInGroup = errors.New("session not referenced by group")
	// ErrRefNotFound indicates no group or member references the session.
	ErrRefNotFound = errors.New("session reference not in index")
	// ErrNotEnoughGroups indicates a consolidation needs two or more groups.
	ErrNotEnoughGroups = errors.New("at least two groups required")
	// ErrTargetNotSelected indicates the target is outside the selection.
	ErrTargetNotSelected = errors.New("target group not in selection")
	// ErrInvalidInput indicates missing or malformed operation input.
	ErrInvalidInput = errors.New("invalid input")
)
