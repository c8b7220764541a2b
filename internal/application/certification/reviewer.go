package certification

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/projecta/backend/internal/domain/certification"
	"github.com/projecta/backend/internal/domain/shared"
	"github.com/projecta/backend/internal/infrastructure/auth"
	"github.com/projecta/backend/internal/infrastructure/notification"
	"go.uber.org/zap"
)

// ErrReviewerAccessDenied is returned for bad or expired reviewer tokens
var ErrReviewerAccessDenied = shared.NewDomainError("UNAUTHORIZED", "Reviewer access token is invalid or has expired")

// InviteReviewer gives an outside reviewer time-limited access to one
// organisation and emails them the access token. The token is returned once.
func (s *OrganisationService) InviteReviewer(ctx context.Context, tenantID uuid.UUID, actor shared.Actor, id uuid.UUID, req InviteReviewerRequest) (*ReviewerInviteResponse, error) {
	org, proj, err := s.load(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := s.authz.AuthorizeManage(actor, proj); err != nil {
		return nil, err
	}

	validFor := s.reviewerValidity
	if req.ValidDays > 0 {
		validFor = time.Duration(req.ValidDays) * 24 * time.Hour
	}
	expiry := s.now().Add(validFor)

	secret, hash, err := auth.NewReviewerToken()
	if err != nil {
		return nil, err
	}
	reviewer, err := certification.NewExternalReviewer(tenantID, org.ID, req.Email, expiry, hash)
	if err != nil {
		return nil, err
	}
	reviewer.InvitedBy = actorID(actor)
	if err := s.reviewerRepo.Save(ctx, reviewer); err != nil {
		return nil, err
	}

	token := auth.ComposeReviewerAccessToken(tenantID, reviewer.ID, secret)
	s.logger.Info("External reviewer invited",
		zap.String("organisation_id", org.ID.String()),
		zap.String("reviewer_id", reviewer.ID.String()),
		zap.Time("expires_at", expiry),
	)

	if err := s.notifier.NotifyReviewerInvite(ctx, notification.ReviewerInvite{
		Email:            reviewer.Email,
		ProjectName:      proj.Name,
		OrganisationName: org.Name,
		Token:            token,
		ExpiresAt:        expiry,
	}); err != nil {
		s.logger.Error("Failed to send reviewer invitation", zap.String("reviewer_id", reviewer.ID.String()), zap.Error(err))
		return nil, notificationFailed(err)
	}

	return &ReviewerInviteResponse{
		ReviewerID:  reviewer.ID,
		Email:       reviewer.Email,
		ExpiresAt:   expiry,
		AccessToken: token,
	}, nil
}

// StartReviewerSession checks an access token and opens a session that ends
// when the reviewer's access expires
func (s *OrganisationService) StartReviewerSession(ctx context.Context, token string) (*auth.ReviewerSession, error) {
	tenantID, reviewerID, secret, err := auth.ParseReviewerAccessToken(strings.TrimSpace(token))
	if err != nil {
		return nil, ErrReviewerAccessDenied
	}
	reviewer, err := s.reviewerRepo.FindByID(ctx, tenantID, reviewerID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, ErrReviewerAccessDenied
		}
		return nil, err
	}
	if err := auth.VerifyReviewerToken(reviewer.AccessTokenHash, secret); err != nil {
		if errors.Is(err, auth.ErrTokenMismatch) {
			return nil, ErrReviewerAccessDenied
		}
		return nil, err
	}
	if !reviewer.IsActive(s.now()) {
		return nil, ErrReviewerAccessDenied
	}

	session := auth.NewReviewerSession(tenantID, reviewer.ID, reviewer.OrganisationID, reviewer.Email, reviewer.SessionExpiry)
	if err := s.sessions.Create(ctx, session); err != nil {
		if errors.Is(err, auth.ErrSessionNotFound) {
			return nil, ErrReviewerAccessDenied
		}
		return nil, err
	}
	s.logger.Info("Reviewer session started",
		zap.String("reviewer_id", reviewer.ID.String()),
		zap.String("organisation_id", reviewer.OrganisationID.String()),
	)
	return session, nil
}

// ReviewerActor resolves a session id to the actor it acts as
func (s *OrganisationService) ReviewerActor(ctx context.Context, sessionID string) (shared.Actor, uuid.UUID, error) {
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, auth.ErrSessionNotFound) {
			return shared.Actor{}, uuid.Nil, ErrReviewerAccessDenied
		}
		return shared.Actor{}, uuid.Nil, err
	}
	reviewerID := session.ReviewerID
	return shared.Actor{Email: session.Email, ReviewerID: &reviewerID}, session.TenantID, nil
}
