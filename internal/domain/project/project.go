package project

import (
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/projecta/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ManagerRole names one of the per-project manager lists
type ManagerRole string

const (
	ManagerRoleCertification ManagerRole = "certification"
	ManagerRoleSponsorship   ManagerRole = "sponsorship"
	ManagerRoleChangelog     ManagerRole = "changelog"
)

// IsValid reports whether r is a known manager role
func (r ManagerRole) IsValid() bool {
	switch r {
	case ManagerRoleCertification, ManagerRoleSponsorship, ManagerRoleChangelog:
		return true
	}
	return false
}

// Project is the top-level scope for certification, sponsorship and
// changelog data. Its slug is unique across all tenants.
type Project struct {
	shared.TenantAggregateRoot
	Name                  string          `gorm:"type:varchar(255);not null"`
	Slug                  string          `gorm:"type:varchar(50);not null;uniqueIndex"`
	Description           string          `gorm:"type:text"`
	OwnerID               uuid.UUID       `gorm:"type:uuid;not null;index"`
	Precis                string          `gorm:"type:text"`
	LogoImage             string          `gorm:"type:varchar(500)"`
	SignatureImage        string          `gorm:"type:varchar(500)"`
	BackgroundImage       string          `gorm:"type:varchar(500)"`
	CertificationManagers []uuid.UUID     `gorm:"serializer:json;type:text"`
	SponsorshipManagers   []uuid.UUID     `gorm:"serializer:json;type:text"`
	ChangelogManagers     []uuid.UUID     `gorm:"serializer:json;type:text"`
	SponsorshipProgramme  string          `gorm:"type:text"`
	CreditCost            decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	IsActive              bool            `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (Project) TableName() string {
	return "projects"
}

// NewProject creates an active project. slug must already be unique.
func NewProject(tenantID, ownerID uuid.UUID, name, slug string) (*Project, error) {
	if err := validateProjectName(name); err != nil {
		return nil, err
	}
	if ownerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_OWNER", "Project owner cannot be empty")
	}
	if slug == "" {
		return nil, shared.ErrEmptySlug
	}

	p := &Project{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Name:                strings.TrimSpace(name),
		Slug:                slug,
		OwnerID:             ownerID,
		CreditCost:          decimal.Zero,
		IsActive:            true,
	}
	p.SetCreatedBy(ownerID)
	p.AddDomainEvent(NewProjectCreatedEvent(p))
	return p, nil
}

// Update changes the descriptive fields. The slug is never recomputed.
func (p *Project) Update(name, description, precis string) error {
	if err := validateProjectName(name); err != nil {
		return err
	}
	p.Name = strings.TrimSpace(name)
	p.Description = description
	p.Precis = precis
	p.IncrementVersion()
	p.AddDomainEvent(NewProjectUpdatedEvent(p))
	return nil
}

// SetImages sets the logo, signature and page background used on
// certificates. It is saved together with Update.
func (p *Project) SetImages(logo, signature, background string) {
	p.LogoImage = logo
	p.SignatureImage = signature
	p.BackgroundImage = background
	p.Touch()
}

// SetSponsorship configures the sponsorship programme text and credit cost.
// It is saved together with Update.
func (p *Project) SetSponsorship(programme string, creditCost decimal.Decimal) error {
	if creditCost.IsNegative() {
		return shared.NewDomainError("INVALID_CREDIT_COST", "Credit cost cannot be negative")
	}
	p.SponsorshipProgramme = programme
	p.CreditCost = creditCost
	p.Touch()
	return nil
}

// SetManagers replaces the manager list for role
func (p *Project) SetManagers(role ManagerRole, userIDs []uuid.UUID) error {
	ids := make([]uuid.UUID, 0, len(userIDs))
	for _, id := range userIDs {
		if id == uuid.Nil || slices.Contains(ids, id) {
			continue
		}
		ids = append(ids, id)
	}

	switch role {
	case ManagerRoleCertification:
		p.CertificationManagers = ids
	case ManagerRoleSponsorship:
		p.SponsorshipManagers = ids
	case ManagerRoleChangelog:
		p.ChangelogManagers = ids
	default:
		return shared.NewDomainError("INVALID_MANAGER_ROLE", "Unknown manager role: "+string(role))
	}
	p.IncrementVersion()
	p.AddDomainEvent(NewProjectUpdatedEvent(p))
	return nil
}

// Managers returns the manager list for role
func (p *Project) Managers(role ManagerRole) []uuid.UUID {
	switch role {
	case ManagerRoleCertification:
		return p.CertificationManagers
	case ManagerRoleSponsorship:
		return p.SponsorshipManagers
	case ManagerRoleChangelog:
		return p.ChangelogManagers
	}
	return nil
}

// IsOwner reports whether userID owns the project
func (p *Project) IsOwner(userID uuid.UUID) bool {
	return userID != uuid.Nil && p.OwnerID == userID
}

// IsManager reports whether userID is in the manager list for role
func (p *Project) IsManager(role ManagerRole, userID uuid.UUID) bool {
	return userID != uuid.Nil && slices.Contains(p.Managers(role), userID)
}

// Deactivate hides the project. Projects are never hard-deleted.
func (p *Project) Deactivate() error {
	if !p.IsActive {
		return shared.NewDomainError("INVALID_STATE", "Project is already inactive")
	}
	p.IsActive = false
	p.IncrementVersion()
	p.AddDomainEvent(NewProjectUpdatedEvent(p))
	return nil
}

// CertificateScope is the project name with whitespace removed, the prefix of
// every certificate id issued under this project.
func (p *Project) CertificateScope() string {
	return strings.Join(strings.Fields(p.Name), "")
}

func validateProjectName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Project name cannot be empty")
	}
	if len(name) > 255 {
		return shared.NewDomainError("INVALID_NAME", "Project name cannot exceed 255 characters")
	}
	return nil
}
