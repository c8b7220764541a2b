package sponsorship

import (
	"time"

	"github.com/google/uuid"
	"github.com/projecta/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// SubscriptionStatus mirrors the billing provider's subscription state
type SubscriptionStatus string

const (
	SubscriptionNone       SubscriptionStatus = ""
	SubscriptionActive     SubscriptionStatus = "active"
	SubscriptionTrialing   SubscriptionStatus = "trialing"
	SubscriptionPastDue    SubscriptionStatus = "past_due"
	SubscriptionCanceled   SubscriptionStatus = "canceled"
	SubscriptionUnpaid     SubscriptionStatus = "unpaid"
	SubscriptionIncomplete SubscriptionStatus = "incomplete"
	SubscriptionExpired    SubscriptionStatus = "incomplete_expired"
	SubscriptionPaused     SubscriptionStatus = "paused"
)

// SponsorshipPeriod is a time-bounded funding commitment of a sponsor
type SponsorshipPeriod struct {
	shared.TenantAggregateRoot
	SponsorID            uuid.UUID            `gorm:"type:uuid;not null;index"`
	SponsorshipLevelID   uuid.UUID            `gorm:"type:uuid;not null;index"`
	Slug                 string               `gorm:"type:varchar(50);not null;uniqueIndex:idx_period_sponsor_slug,priority:2"`
	ProjectID            uuid.UUID            `gorm:"type:uuid;not null;index;uniqueIndex:idx_period_sponsor_slug,priority:1"`
	StartDate            time.Time            `gorm:"type:date;not null"`
	EndDate              time.Time            `gorm:"type:date;not null"`
	AmountSponsored      decimal.Decimal      `gorm:"type:decimal(18,2);not null"`
	Currency             string               `gorm:"type:varchar(3);not null"`
	Recurring            bool                 `gorm:"not null;default:false"`
	WorkflowState        shared.ApprovalState `gorm:"type:varchar(20);not null;default:'pending'"`
	Remarks              string               `gorm:"type:text"`
	StripeSubscriptionID string               `gorm:"type:varchar(255);index"`
	SubscriptionStatus   SubscriptionStatus   `gorm:"type:varchar(30)"`
	SubscriptionSyncedAt *time.Time
}

// TableName returns the table name for GORM
func (SponsorshipPeriod) TableName() string {
	return "sponsorship_periods"
}

// NewSponsorshipPeriod creates a pending period
func NewSponsorshipPeriod(tenantID uuid.UUID, sponsor *Sponsor, level *SponsorshipLevel, slug string, start, end time.Time, amount decimal.Decimal, currency string, recurring bool) (*SponsorshipPeriod, error) {
	if sponsor == nil || level == nil {
		return nil, shared.NewDomainError("INVALID_PERIOD", "Sponsor and level are required")
	}
	if level.ProjectID != sponsor.ProjectID {
		return nil, shared.NewDomainError("INVALID_PERIOD", "Level belongs to another project")
	}
	if !start.Before(end) {
		return nil, shared.NewDomainError("INVALID_DATES", "Start date must be before end date")
	}
	if !amount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Sponsored amount must be positive")
	}
	if slug == "" {
		return nil, shared.ErrEmptySlug
	}
	cur, err := normalizeCurrency(currency)
	if err != nil {
		return nil, err
	}
	return &SponsorshipPeriod{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		SponsorID:           sponsor.ID,
		SponsorshipLevelID:  level.ID,
		ProjectID:           sponsor.ProjectID,
		Slug:                slug,
		StartDate:           start,
		EndDate:             end,
		AmountSponsored:     amount,
		Currency:            cur,
		Recurring:           recurring,
		WorkflowState:       shared.ApprovalPending,
	}, nil
}

// PeriodSlugSource is the text a period slug is derived from
func PeriodSlugSource(sponsorName string, start time.Time) string {
	return sponsorName + " " + start.Format("2006-01-02")
}

// TransitionTo moves the period through the approval workflow
func (p *SponsorshipPeriod) TransitionTo(actor string, target shared.ApprovalState, remarks string) error {
	from := p.WorkflowState
	if err := shared.ValidateTransition(from, target); err != nil {
		return err
	}
	if target == shared.ApprovalRejected && remarks == "" {
		return shared.NewDomainError("REMARKS_REQUIRED", "Remarks are required when rejecting")
	}
	if target == shared.ApprovalPending && from == shared.ApprovalRejected {
		remarks = ""
	}
	p.WorkflowState = target
	p.Remarks = remarks
	p.IncrementVersion()
	p.AddDomainEvent(shared.NewApprovalChangedEvent(AggregateTypePeriod, p.ID, p.TenantID, from, target, nil, actor, remarks))
	return nil
}

// Approved reports the approval flag
func (p *SponsorshipPeriod) Approved() bool { return p.WorkflowState == shared.ApprovalApproved }

// Rejected reports the rejection flag
func (p *SponsorshipPeriod) Rejected() bool { return p.WorkflowState == shared.ApprovalRejected }

// IsCurrent reports whether the period covers now and is approved
func (p *SponsorshipPeriod) IsCurrent(now time.Time) bool {
	return p.Approved() && !now.Before(p.StartDate) && now.Before(p.EndDate.AddDate(0, 0, 1))
}

// AttachSubscription links a billing subscription
func (p *SponsorshipPeriod) AttachSubscription(subscriptionID string) error {
	if subscriptionID == "" {
		return shared.NewDomainError("INVALID_SUBSCRIPTION", "Subscription ID cannot be empty")
	}
	p.StripeSubscriptionID = subscriptionID
	p.Recurring = true
	p.IncrementVersion()
	return nil
}

// SyncSubscription records the provider's current status
func (p *SponsorshipPeriod) SyncSubscription(status SubscriptionStatus, at time.Time) {
	p.SubscriptionStatus = status
	p.SubscriptionSyncedAt = &at
	p.IncrementVersion()
}

// HasSubscription reports whether the period is billed by a subscription
func (p *SponsorshipPeriod) HasSubscription() bool {
	return p.StripeSubscriptionID != ""
}
