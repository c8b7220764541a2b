package certification

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/projecta/backend/internal/domain/certification"
	"github.com/projecta/backend/internal/domain/project"
	"github.com/projecta/backend/internal/domain/shared"
)

// CanManage reports whether actor administers certification for the project:
// staff, the project owner or a certification manager.
func CanManage(actor shared.Actor, p *project.Project) bool {
	if actor.IsStaff {
		return true
	}
	if actor.IsReviewer() {
		return false
	}
	return p.IsOwner(actor.UserID) || p.IsManager(project.ManagerRoleCertification, actor.UserID)
}

// CanReview reports whether actor may change the workflow status of org.
// reviewer is the actor's reviewer record, nil for regular users.
func CanReview(actor shared.Actor, p *project.Project, org *certification.CertifyingOrganisation, reviewer *certification.ExternalReviewer, now time.Time) bool {
	if CanManage(actor, p) {
		return true
	}
	if !actor.IsReviewer() || reviewer == nil || reviewer.ID != *actor.ReviewerID {
		return false
	}
	return reviewer.TenantID == org.TenantID && reviewer.CanReview(org.ID, now)
}

// Authorizer checks actors against projects and organisations
type Authorizer struct {
	reviewers certification.ReviewerRepository
	now       func() time.Time
}

// NewAuthorizer creates an Authorizer
func NewAuthorizer(reviewers certification.ReviewerRepository) *Authorizer {
	return &Authorizer{reviewers: reviewers, now: time.Now}
}

// AuthorizeReview returns shared.ErrForbidden unless actor may review org
func (a *Authorizer) AuthorizeReview(ctx context.Context, actor shared.Actor, p *project.Project, org *certification.CertifyingOrganisation) error {
	var reviewer *certification.ExternalReviewer
	if actor.IsReviewer() && !CanManage(actor, p) {
		r, err := a.reviewers.FindByID(ctx, org.TenantID, *actor.ReviewerID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return shared.ErrForbidden
			}
			return err
		}
		reviewer = r
	}
	if !CanReview(actor, p, org, reviewer, a.now()) {
		return shared.ErrForbidden
	}
	return nil
}

// AuthorizeManage returns shared.ErrForbidden unless actor manages the project
func (a *Authorizer) AuthorizeManage(actor shared.Actor, p *project.Project) error {
	if !CanManage(actor, p) {
		return shared.ErrForbidden
	}
	return nil
}

// AuthorizeEdit allows managers and the organisation's own owners
func (a *Authorizer) AuthorizeEdit(actor shared.Actor, p *project.Project, org *certification.CertifyingOrganisation) error {
	if CanManage(actor, p) || (!actor.IsReviewer() && org.IsOwner(actor.UserID)) {
		return nil
	}
	return shared.ErrForbidden
}

func actorID(actor shared.Actor) *uuid.UUID {
	if actor.UserID == uuid.Nil {
		return nil
	}
	id := actor.UserID
	return &id
}
