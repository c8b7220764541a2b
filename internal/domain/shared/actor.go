package shared

import "github.com/google/uuid"

// Actor is whoever performs an operation: an authenticated user or an
// external reviewer holding a session.
type Actor struct {
	UserID     uuid.UUID
	Username   string
	Email      string
	IsStaff    bool
	ReviewerID *uuid.UUID
}

// IsReviewer reports whether the actor is an external reviewer
func (a Actor) IsReviewer() bool {
	return a.ReviewerID != nil
}

// Name is the label written to audit history
func (a Actor) Name() string {
	switch {
	case a.Username != "":
		return a.Username
	case a.Email != "":
		return a.Email
	case a.UserID != uuid.Nil:
		return a.UserID.String()
	}
	return "anonymous"
}
