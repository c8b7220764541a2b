package certification

import (
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/projecta/backend/internal/domain/shared"
)

// ErrRemarksRequired is returned when rejecting without a reason
var ErrRemarksRequired = shared.NewDomainError("REMARKS_REQUIRED", "Remarks are required when rejecting")

// CertifyingOrganisation is an institution a project allows to run
// certification courses. It enters review as pending.
type CertifyingOrganisation struct {
	shared.TenantAggregateRoot
	ProjectID     uuid.UUID            `gorm:"type:uuid;not null;uniqueIndex:idx_org_project_name,priority:1;uniqueIndex:idx_org_project_slug,priority:1"`
	Name          string               `gorm:"type:varchar(200);not null;uniqueIndex:idx_org_project_name,priority:2"`
	Slug          string               `gorm:"type:varchar(50);not null;uniqueIndex:idx_org_project_slug,priority:2"`
	Email         string               `gorm:"column:organisation_email;type:varchar(200);not null"`
	Address       string               `gorm:"type:text"`
	Country       string               `gorm:"type:varchar(100)"`
	Phone         string               `gorm:"column:organisation_phone;type:varchar(50)"`
	Logo          string               `gorm:"type:varchar(500)"`
	OwnerIDs      []uuid.UUID          `gorm:"serializer:json;type:text"`
	OwnerEmails   []string             `gorm:"serializer:json;type:text"`
	WorkflowState shared.ApprovalState `gorm:"type:varchar(20);not null;default:'pending';index"`
	StatusID      *uuid.UUID           `gorm:"type:uuid"`
	Remarks       string               `gorm:"type:text"`
	OwnerMessage  string               `gorm:"type:text"`
	IsActive      bool                 `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (CertifyingOrganisation) TableName() string {
	return "certifying_organisations"
}

// NewCertifyingOrganisation creates a pending organisation. slug must already
// be unique within the project.
func NewCertifyingOrganisation(tenantID, projectID uuid.UUID, name, slug, email string, ownerIDs []uuid.UUID, ownerEmails []string) (*CertifyingOrganisation, error) {
	name = strings.TrimSpace(name)
	if projectID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PROJECT", "Project ID cannot be empty")
	}
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Organisation name cannot be empty")
	}
	if len(name) > 200 {
		return nil, shared.NewDomainError("INVALID_NAME", "Organisation name cannot exceed 200 characters")
	}
	if slug == "" {
		return nil, shared.ErrEmptySlug
	}
	if err := shared.ValidateEmail(email); err != nil {
		return nil, err
	}
	emails, err := normalizeEmails(ownerEmails)
	if err != nil {
		return nil, err
	}

	org := &CertifyingOrganisation{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		ProjectID:           projectID,
		Name:                name,
		Slug:                slug,
		Email:               email,
		OwnerIDs:            compactIDs(ownerIDs),
		OwnerEmails:         emails,
		WorkflowState:       shared.ApprovalPending,
		IsActive:            true,
	}
	org.AddDomainEvent(NewOrganisationCreatedEvent(org))
	return org, nil
}

// UpdateDetails changes contact data. The slug is kept.
func (o *CertifyingOrganisation) UpdateDetails(name, email, address, country, phone string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Organisation name cannot be empty")
	}
	if err := shared.ValidateEmail(email); err != nil {
		return err
	}
	o.Name = name
	o.Email = email
	o.Address = address
	o.Country = country
	o.Phone = phone
	o.IncrementVersion()
	return nil
}

// SetOwners replaces the organisation owners. Like SetOwnerMessage it does
// not bump the version; it is saved together with UpdateDetails.
func (o *CertifyingOrganisation) SetOwners(ownerIDs []uuid.UUID, ownerEmails []string) error {
	emails, err := normalizeEmails(ownerEmails)
	if err != nil {
		return err
	}
	o.OwnerIDs = compactIDs(ownerIDs)
	o.OwnerEmails = emails
	o.Touch()
	return nil
}

// SetOwnerMessage stores the owner's note to the reviewers
func (o *CertifyingOrganisation) SetOwnerMessage(msg string) {
	o.OwnerMessage = msg
	o.Touch()
}

// IsOwner reports whether userID owns the organisation
func (o *CertifyingOrganisation) IsOwner(userID uuid.UUID) bool {
	return userID != uuid.Nil && slices.Contains(o.OwnerIDs, userID)
}

// IsApproved reports whether the organisation may run courses
func (o *CertifyingOrganisation) IsApproved() bool {
	return o.WorkflowState == shared.ApprovalApproved
}

// TransitionTo moves the organisation through the review workflow.
//
// Approving clears the owner message. Rejecting records the remarks, which
// may be empty here; Reject is the entry point that insists on a reason.
// Moving a rejected organisation back to pending resets the remarks.
func (o *CertifyingOrganisation) TransitionTo(actor string, target shared.ApprovalState, statusID *uuid.UUID, remarks string) error {
	from := o.WorkflowState
	if err := shared.ValidateTransition(from, target); err != nil {
		return err
	}
	remarks = strings.TrimSpace(remarks)

	switch target {
	case shared.ApprovalApproved:
		o.OwnerMessage = ""
		if remarks != "" {
			o.Remarks = remarks
		}
	case shared.ApprovalRejected:
		o.Remarks = remarks
	case shared.ApprovalPending:
		if from == shared.ApprovalRejected {
			o.Remarks = ""
		} else if remarks != "" {
			o.Remarks = remarks
		}
	}

	o.WorkflowState = target
	o.StatusID = statusID
	o.IncrementVersion()
	o.AddDomainEvent(shared.NewApprovalChangedEvent(
		AggregateTypeOrganisation, o.ID, o.TenantID, from, target, statusID, actor, remarks,
	))
	return nil
}

// Approve marks the organisation approved
func (o *CertifyingOrganisation) Approve(actor string, statusID *uuid.UUID) error {
	return o.TransitionTo(actor, shared.ApprovalApproved, statusID, "")
}

// Reject marks the organisation rejected with remarks
func (o *CertifyingOrganisation) Reject(actor string, statusID *uuid.UUID, remarks string) error {
	if strings.TrimSpace(remarks) == "" {
		return ErrRemarksRequired
	}
	return o.TransitionTo(actor, shared.ApprovalRejected, statusID, remarks)
}

// Reopen moves a rejected organisation back to pending
func (o *CertifyingOrganisation) Reopen(actor string, statusID *uuid.UUID) error {
	if o.WorkflowState != shared.ApprovalRejected {
		return shared.NewDomainError("INVALID_STATE", "Only rejected organisations can be reopened")
	}
	return o.TransitionTo(actor, shared.ApprovalPending, statusID, "")
}

// Deactivate hides the organisation
func (o *CertifyingOrganisation) Deactivate() {
	o.IsActive = false
	o.IncrementVersion()
}

func normalizeEmails(emails []string) ([]string, error) {
	out := make([]string, 0, len(emails))
	for _, e := range emails {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		if err := shared.ValidateEmail(e); err != nil {
			return nil, err
		}
		if !slices.Contains(out, e) {
			out = append(out, e)
		}
	}
	return out, nil
}

func compactIDs(ids []uuid.UUID) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id != uuid.Nil && !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}
