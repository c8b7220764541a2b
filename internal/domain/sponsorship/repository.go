package sponsorship

import (
	"context"

	"github.com/google/uuid"
	"github.com/projecta/backend/internal/domain/audit"
)

// SponsorRepository persists sponsors and levels
type SponsorRepository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Sponsor, error)
	// FindByProject lists sponsors, approved ones only when approvedOnly is set
	FindByProject(ctx context.Context, tenantID, projectID uuid.UUID, approvedOnly bool) ([]Sponsor, error)
	SlugExists(ctx context.Context, table string, projectID uuid.UUID, slug string) (bool, error)
	CountSlugs(ctx context.Context, table string, projectID uuid.UUID, base string) (int64, error)
	Create(ctx context.Context, s *Sponsor) error
	// SaveTransition updates the sponsor and appends the audit row in one transaction
	SaveTransition(ctx context.Context, s *Sponsor, change *audit.StatusChange) error

	FindLevel(ctx context.Context, tenantID, id uuid.UUID) (*SponsorshipLevel, error)
	FindLevels(ctx context.Context, tenantID, projectID uuid.UUID) ([]SponsorshipLevel, error)
	CreateLevel(ctx context.Context, l *SponsorshipLevel) error
}

// PeriodRepository persists sponsorship periods
type PeriodRepository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*SponsorshipPeriod, error)
	FindBySponsor(ctx context.Context, tenantID, sponsorID uuid.UUID) ([]SponsorshipPeriod, error)
	// FindWithSubscription returns periods of every tenant billed by a subscription
	FindWithSubscription(ctx context.Context) ([]SponsorshipPeriod, error)
	Create(ctx context.Context, p *SponsorshipPeriod) error
	Update(ctx context.Context, p *SponsorshipPeriod) error
	SaveTransition(ctx context.Context, p *SponsorshipPeriod, change *audit.StatusChange) error
}
