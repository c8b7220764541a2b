package certification

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/projecta/backend/internal/domain/shared"
)

// ExternalReviewer is someone outside the project invited to review one
// organisation until SessionExpiry.
type ExternalReviewer struct {
	shared.TenantEntity
	OrganisationID  uuid.UUID  `gorm:"type:uuid;not null;index"`
	Email           string     `gorm:"type:varchar(200);not null"`
	SessionExpiry   time.Time  `gorm:"not null"`
	AccessTokenHash string     `gorm:"type:varchar(100);not null" json:"-"`
	InvitedBy       *uuid.UUID `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (ExternalReviewer) TableName() string {
	return "external_reviewers"
}

// NewExternalReviewer creates a reviewer whose access ends at expiry
func NewExternalReviewer(tenantID, organisationID uuid.UUID, email string, expiry time.Time, tokenHash string) (*ExternalReviewer, error) {
	email = strings.TrimSpace(email)
	if organisationID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ORGANISATION", "Organisation ID cannot be empty")
	}
	if err := shared.ValidateEmail(email); err != nil {
		return nil, err
	}
	if !expiry.After(time.Now()) {
		return nil, shared.NewDomainError("INVALID_EXPIRY", "Reviewer expiry must be in the future")
	}
	if tokenHash == "" {
		return nil, shared.NewDomainError("INVALID_TOKEN", "Reviewer access token cannot be empty")
	}
	return &ExternalReviewer{
		TenantEntity:    shared.NewTenantEntity(tenantID),
		OrganisationID:  organisationID,
		Email:           email,
		SessionExpiry:   expiry,
		AccessTokenHash: tokenHash,
	}, nil
}

// IsActive reports whether the reviewer's access has not yet expired
func (r *ExternalReviewer) IsActive(now time.Time) bool {
	return now.Before(r.SessionExpiry)
}

// CanReview reports whether the reviewer may act on organisationID at now
func (r *ExternalReviewer) CanReview(organisationID uuid.UUID, now time.Time) bool {
	return r.OrganisationID == organisationID && r.IsActive(now)
}

// Revoke ends access immediately
func (r *ExternalReviewer) Revoke() {
	r.SessionExpiry = time.Now()
	r.Touch()
}
