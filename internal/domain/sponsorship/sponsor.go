package sponsorship

import (
	"strings"

	"github.com/google/uuid"
	"github.com/projecta/backend/internal/domain/shared"
)

const (
	AggregateTypeSponsor = "Sponsor"
	AggregateTypePeriod  = "SponsorshipPeriod"

	EventTypeSponsorCreated = "SponsorCreated"
)

// Sponsor is an entity funding a project
type Sponsor struct {
	shared.TenantAggregateRoot
	ProjectID     uuid.UUID            `gorm:"type:uuid;not null;uniqueIndex:idx_sponsor_project_slug,priority:1"`
	Name          string               `gorm:"type:varchar(255);not null"`
	Slug          string               `gorm:"type:varchar(50);not null;uniqueIndex:idx_sponsor_project_slug,priority:2"`
	SponsorURL    string               `gorm:"type:varchar(500)"`
	ContactPerson string               `gorm:"type:varchar(255)"`
	SponsorEmail  string               `gorm:"type:varchar(200);not null"`
	Agreement     string               `gorm:"type:varchar(500)"`
	Logo          string               `gorm:"type:varchar(500)"`
	WorkflowState shared.ApprovalState `gorm:"type:varchar(20);not null;default:'pending';index"`
	Remarks       string               `gorm:"type:text"`
	AuthorID      *uuid.UUID           `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (Sponsor) TableName() string {
	return "sponsors"
}

// SponsorCreatedEvent is raised when a sponsor is registered
type SponsorCreatedEvent struct {
	shared.BaseDomainEvent
	ProjectID uuid.UUID `json:"project_id"`
	Name      string    `json:"name"`
}

// NewSponsor creates a pending sponsor. slug must already be unique within the project.
func NewSponsor(tenantID, projectID uuid.UUID, name, slug, email, url, contact string) (*Sponsor, error) {
	name = strings.TrimSpace(name)
	if projectID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PROJECT", "Project ID cannot be empty")
	}
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Sponsor name cannot be empty")
	}
	if slug == "" {
		return nil, shared.ErrEmptySlug
	}
	if err := shared.ValidateEmail(email); err != nil {
		return nil, err
	}

	s := &Sponsor{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		ProjectID:           projectID,
		Name:                name,
		Slug:                slug,
		SponsorEmail:        email,
		SponsorURL:          url,
		ContactPerson:       contact,
		WorkflowState:       shared.ApprovalPending,
	}
	s.AddDomainEvent(&SponsorCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSponsorCreated, AggregateTypeSponsor, s.ID, tenantID),
		ProjectID:       projectID,
		Name:            name,
	})
	return s, nil
}

// TransitionTo moves the sponsor through the approval workflow. Rejecting
// requires remarks.
func (s *Sponsor) TransitionTo(actor string, target shared.ApprovalState, remarks string) error {
	from := s.WorkflowState
	if err := shared.ValidateTransition(from, target); err != nil {
		return err
	}
	remarks = strings.TrimSpace(remarks)
	if target == shared.ApprovalRejected && remarks == "" {
		return shared.NewDomainError("REMARKS_REQUIRED", "Remarks are required when rejecting")
	}
	if target == shared.ApprovalPending && from == shared.ApprovalRejected {
		remarks = ""
	}

	s.WorkflowState = target
	s.Remarks = remarks
	s.IncrementVersion()
	s.AddDomainEvent(shared.NewApprovalChangedEvent(AggregateTypeSponsor, s.ID, s.TenantID, from, target, nil, actor, remarks))
	return nil
}

// IsApproved reports whether the sponsor is publicly listed
func (s *Sponsor) IsApproved() bool {
	return s.WorkflowState == shared.ApprovalApproved
}
