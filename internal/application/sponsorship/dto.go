package sponsorship

import (
	"time"

	"github.com/google/uuid"
	"github.com/projecta/backend/internal/domain/sponsorship"
	"github.com/shopspring/decimal"
)

// CreateSponsorRequest registers a sponsor for review
type CreateSponsorRequest struct {
	Name          string `json:"name" binding:"required,min=1,max=255"`
	Email         string `json:"sponsor_email" binding:"required,email"`
	URL           string `json:"sponsor_url" binding:"omitempty,url,max=500"`
	ContactPerson string `json:"contact_person" binding:"max=255"`
	Agreement     string `json:"agreement" binding:"max=500"`
	Logo          string `json:"logo" binding:"max=500"`
}

// TransitionRequest carries the remarks of an approve or reject
type TransitionRequest struct {
	Remarks string `json:"remarks" form:"remarks"`
}

// SponsorResponse represents a sponsor
type SponsorResponse struct {
	ID            uuid.UUID `json:"id"`
	ProjectID     uuid.UUID `json:"project_id"`
	Name          string    `json:"name"`
	Slug          string    `json:"slug"`
	SponsorURL    string    `json:"sponsor_url,omitempty"`
	ContactPerson string    `json:"contact_person,omitempty"`
	SponsorEmail  string    `json:"sponsor_email"`
	Agreement     string    `json:"agreement,omitempty"`
	Logo          string    `json:"logo,omitempty"`
	State         string    `json:"state"`
	Remarks       string    `json:"remarks,omitempty"`
	Version       int       `json:"version"`
	CreatedAt     time.Time `json:"created_at"`
}

// ToSponsorResponse converts a domain sponsor
func ToSponsorResponse(s *sponsorship.Sponsor) SponsorResponse {
	return SponsorResponse{
		ID:            s.ID,
		ProjectID:     s.ProjectID,
		Name:          s.Name,
		Slug:          s.Slug,
		SponsorURL:    s.SponsorURL,
		ContactPerson: s.ContactPerson,
		SponsorEmail:  s.SponsorEmail,
		Agreement:     s.Agreement,
		Logo:          s.Logo,
		State:         string(s.WorkflowState),
		Remarks:       s.Remarks,
		Version:       s.Version,
		CreatedAt:     s.CreatedAt,
	}
}

// CreateLevelRequest adds a sponsorship level
type CreateLevelRequest struct {
	Name     string          `json:"name" binding:"required,min=1,max=255"`
	Value    decimal.Decimal `json:"value" binding:"required"`
	Currency string          `json:"currency" binding:"required,len=3"`
	Logo     string          `json:"logo" binding:"max=500"`
}

// LevelResponse represents a sponsorship level
type LevelResponse struct {
	ID        uuid.UUID       `json:"id"`
	ProjectID uuid.UUID       `json:"project_id"`
	Name      string          `json:"name"`
	Slug      string          `json:"slug"`
	Value     decimal.Decimal `json:"value"`
	Currency  string          `json:"currency"`
	Logo      string          `json:"logo,omitempty"`
}

// ToLevelResponse converts a domain level
func ToLevelResponse(l *sponsorship.SponsorshipLevel) LevelResponse {
	return LevelResponse{
		ID:        l.ID,
		ProjectID: l.ProjectID,
		Name:      l.Name,
		Slug:      l.Slug,
		Value:     l.Value,
		Currency:  l.Currency,
		Logo:      l.Logo,
	}
}

// CreatePeriodRequest opens a sponsorship period for a sponsor
type CreatePeriodRequest struct {
	LevelID              uuid.UUID       `json:"sponsorship_level_id" binding:"required"`
	StartDate            time.Time       `json:"start_date" binding:"required"`
	EndDate              time.Time       `json:"end_date" binding:"required"`
	Amount               decimal.Decimal `json:"amount_sponsored" binding:"required"`
	Currency             string          `json:"currency" binding:"required,len=3"`
	Recurring            bool            `json:"recurring"`
	StripeSubscriptionID string          `json:"stripe_subscription_id" binding:"max=255"`
}

// PeriodResponse represents a sponsorship period
type PeriodResponse struct {
	ID                   uuid.UUID       `json:"id"`
	SponsorID            uuid.UUID       `json:"sponsor_id"`
	SponsorshipLevelID   uuid.UUID       `json:"sponsorship_level_id"`
	ProjectID            uuid.UUID       `json:"project_id"`
	Slug                 string          `json:"slug"`
	StartDate            time.Time       `json:"start_date"`
	EndDate              time.Time       `json:"end_date"`
	AmountSponsored      decimal.Decimal `json:"amount_sponsored"`
	Currency             string          `json:"currency"`
	Recurring            bool            `json:"recurring"`
	Approved             bool            `json:"approved"`
	Rejected             bool            `json:"rejected"`
	Current              bool            `json:"current"`
	Remarks              string          `json:"remarks,omitempty"`
	StripeSubscriptionID string          `json:"stripe_subscription_id,omitempty"`
	SubscriptionStatus   string          `json:"subscription_status,omitempty"`
	SubscriptionSyncedAt *time.Time      `json:"subscription_synced_at,omitempty"`
	Version              int             `json:"version"`
}

// ToPeriodResponse converts a domain period as seen at now
func ToPeriodResponse(p *sponsorship.SponsorshipPeriod, now time.Time) PeriodResponse {
	return PeriodResponse{
		ID:                   p.ID,
		SponsorID:            p.SponsorID,
		SponsorshipLevelID:   p.SponsorshipLevelID,
		ProjectID:            p.ProjectID,
		Slug:                 p.Slug,
		StartDate:            p.StartDate,
		EndDate:              p.EndDate,
		AmountSponsored:      p.AmountSponsored,
		Currency:             p.Currency,
		Recurring:            p.Recurring,
		Approved:             p.Approved(),
		Rejected:             p.Rejected(),
		Current:              p.IsCurrent(now),
		Remarks:              p.Remarks,
		StripeSubscriptionID: p.StripeSubscriptionID,
		SubscriptionStatus:   string(p.SubscriptionStatus),
		SubscriptionSyncedAt: p.SubscriptionSyncedAt,
		Version:              p.Version,
	}
}

// SyncResult summarises a subscription sweep
type SyncResult struct {
	Synced int `json:"synced"`
	Failed int `json:"failed"`
}
