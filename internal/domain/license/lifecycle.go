package license

import (
	"strings"
	"time"
	"unicode/utf8"
)

// MaxReasonLength bounds the rejection reason, counted in runes.
const MaxReasonLength = 1000

var transitions = map[Status][]Status{
	StatusPending:  {StatusInReview, StatusAccepted, StatusRejected},
	StatusInReview: {StatusAccepted, StatusRejected},
}

// CanTransition reports whether target is reachable from current in one step.
func CanTransition(current, target Status) bool {
	for _, s := range transitions[current] {
		if s == target {
			return true
		}
	}
	return false
}

// Transition applies a status change requested by actorID and returns the
// resulting record. rec is never modified, so a caller that fails to persist
// the result can simply drop it.
//
// Repeating a request on a terminal record fails with ErrTerminalState even
// when it is identical to the one that resolved it.
func Transition(rec *License, target Status, actorID int64, reason *string, now time.Time) (*License, error) {
	if rec.Status.Terminal() {
		return nil, ErrTerminalState
	}
	if !CanTransition(rec.Status, target) {
		return nil, ErrIllegalTransition
	}

	trimmed := ""
	if reason != nil {
		trimmed = strings.TrimSpace(*reason)
	}

	switch target {
	case StatusRejected:
		if trimmed == "" {
			return nil, ErrMissingReason
		}
		if utf8.RuneCountInString(trimmed) > MaxReasonLength {
			return nil, ErrReasonTooLong
		}
	default:
		if trimmed != "" {
			return nil, ErrUnexpectedReason
		}
	}

	now = now.UTC()
	next := rec.Clone()
	next.Status = target
	next.UpdatedAt = now
	next.ReviewerID = &actorID
	next.RejectionReason = nil
	if target == StatusRejected {
		next.RejectionReason = &trimmed
	}
	if target.Terminal() {
		next.ResolvedAt = &now
	}
	return next, nil
}
