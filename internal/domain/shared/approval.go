package shared

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ApprovalState is the review state of anything that needs a project
// manager's sign-off (certifying organisations, sponsors, sponsorship periods).
type ApprovalState string

const (
	ApprovalPending  ApprovalState = "pending"
	ApprovalApproved ApprovalState = "approved"
	ApprovalRejected ApprovalState = "rejected"
)

// ErrInvalidStateTransition is returned for transitions the workflow forbids
var ErrInvalidStateTransition = NewDomainError("INVALID_STATE", "state transition not allowed")

var allowedTransitions = map[ApprovalState][]ApprovalState{
	ApprovalPending:  {ApprovalPending, ApprovalApproved, ApprovalRejected},
	ApprovalApproved: {ApprovalApproved, ApprovalPending, ApprovalRejected},
	ApprovalRejected: {ApprovalRejected, ApprovalPending, ApprovalApproved},
}

// IsValid reports whether s is a known state
func (s ApprovalState) IsValid() bool {
	_, ok := allowedTransitions[s]
	return ok
}

// String returns the state name
func (s ApprovalState) String() string {
	return string(s)
}

// Label is the default status name for the state
func (s ApprovalState) Label() string {
	switch s {
	case ApprovalApproved:
		return "Approved"
	case ApprovalRejected:
		return "Rejected"
	}
	return "Pending"
}

// CanTransitionTo reports whether the workflow allows moving to target
func (s ApprovalState) CanTransitionTo(target ApprovalState) bool {
	for _, t := range allowedTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// ValidateTransition returns ErrInvalidStateTransition with context when the
// move from -> to is not allowed.
func ValidateTransition(from, to ApprovalState) error {
	if !to.IsValid() {
		return NewDomainError(ErrInvalidStateTransition.Code, fmt.Sprintf("unknown state %q", to))
	}
	if !from.CanTransitionTo(to) {
		return NewDomainError(ErrInvalidStateTransition.Code,
			fmt.Sprintf("cannot move from %s to %s", from, to))
	}
	return nil
}

// ParseApprovalState maps a workflow status label ("Approved", "rejected",
// "Pending review") onto a state. Unknown labels are pending.
func ParseApprovalState(label string) ApprovalState {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "approved":
		return ApprovalApproved
	case "rejected":
		return ApprovalRejected
	default:
		return ApprovalPending
	}
}

// EventTypeApprovalChanged is raised by every workflow transition
const EventTypeApprovalChanged = "ApprovalChanged"

// ApprovalChangedEvent records one workflow transition
type ApprovalChangedEvent struct {
	BaseDomainEvent
	From     ApprovalState `json:"from"`
	To       ApprovalState `json:"to"`
	StatusID *uuid.UUID    `json:"status_id,omitempty"`
	Actor    string        `json:"actor"`
	Remarks  string        `json:"remarks,omitempty"`
}

// NewApprovalChangedEvent creates an ApprovalChangedEvent
func NewApprovalChangedEvent(aggType string, aggID, tenantID uuid.UUID, from, to ApprovalState, statusID *uuid.UUID, actor, remarks string) *ApprovalChangedEvent {
	return &ApprovalChangedEvent{
		BaseDomainEvent: NewBaseDomainEvent(EventTypeApprovalChanged, aggType, aggID, tenantID),
		From:            from,
		To:              to,
		StatusID:        statusID,
		Actor:           actor,
		Remarks:         remarks,
	}
}

// LastApprovalChange returns the most recent ApprovalChangedEvent queued on
// an aggregate, or nil.
func LastApprovalChange(events []DomainEvent) *ApprovalChangedEvent {
	for i := len(events) - 1; i >= 0; i-- {
		if e, ok := events[i].(*ApprovalChangedEvent); ok {
			return e
		}
	}
	return nil
}
