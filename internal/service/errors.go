package service

import (
	"errors"
	"fmt"
)

// Caller-facing failures. Operations returning one of these have not
// changed any state.
var (
	ErrCandidateNotFound    = errors.New("candidate not found")
	ErrNoInterviewers       = errors.New("no interviewers specified")
	ErrInterviewerNotFound  = errors.New("some interviewers not found")
	ErrDuplicateInterviewer = errors.New("duplicate interviewer")
	ErrNoCommonSlot         = errors.New("no common slot found in preferred window")
	ErrInvalidWindow        = errors.New("preferred window must end after it starts")
	ErrInvalidDuration      = errors.New("duration must be positive")
	ErrInvalidOptionLimit   = errors.New("option limit must be between 1 and 5")
	ErrSlotUnavailable      = errors.New("selected slot is no longer free")

	ErrRequestNotFound    = errors.New("request not found")
	ErrRequestNotProposed = errors.New("request not in proposed state")
	ErrOptionNotFound     = errors.New("invalid option_id for request")

	ErrInvalidToken      = errors.New("invalid token")
	ErrInvalidDecision   = errors.New("invalid decision")
	ErrInterviewNotFound = errors.New("interview not found")

	ErrParticipantNotFound = errors.New("participant not found")
	ErrImportDisabled      = errors.New("calendar import is not configured")
)

var notFoundErrors = []error{
	ErrCandidateNotFound, ErrInterviewerNotFound, ErrRequestNotFound,
	ErrOptionNotFound, ErrInterviewNotFound, ErrParticipantNotFound,
}

var conflictErrors = []error{ErrRequestNotProposed, ErrSlotUnavailable, ErrImportDisabled}

var invalidErrors = []error{
	ErrNoInterviewers, ErrDuplicateInterviewer, ErrNoCommonSlot, ErrInvalidWindow,
	ErrInvalidDuration, ErrInvalidOptionLimit, ErrInvalidToken, ErrInvalidDecision,
}

func matchesAny(err error, targets []error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// IsNotFound, IsConflict and IsInvalid classify caller-facing failures for
// transport adapters.
func IsNotFound(err error) bool { return matchesAny(err, notFoundErrors) }

func IsConflict(err error) bool { return matchesAny(err, conflictErrors) }

func IsInvalid(err error) bool { return matchesAny(err, invalidErrors) }

// IsDomainError reports whether err is a caller-facing rejection rather
// than an infrastructure or integrity failure.
func IsDomainError(err error) bool {
	return IsNotFound(err) || IsConflict(err) || IsInvalid(err)
}

// IntegrityError reports stored data that breaks a structural rule,
// such as an interview without its ATS record. It is never repaired
// silently.
type IntegrityError struct {
	Entity string
	ID     int64
	Reason string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("data integrity violation: %s %d: %s", e.Entity, e.ID, e.Reason)
}

func IsIntegrityError(err error) bool {
	var ie *IntegrityError
	return errors.As(err, &ie)
}
