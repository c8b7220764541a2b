package certification

import (
	"github.com/google/uuid"
	"github.com/projecta/backend/internal/domain/shared"
)

// OrganisationChecklist is an organisation's answer to one project
// checklist question.
type OrganisationChecklist struct {
	shared.TenantEntity
	OrganisationID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_org_checklist,priority:1"`
	ChecklistID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_org_checklist,priority:2"`
	Checked        bool      `gorm:"not null;default:false"`
	TextBoxContent string    `gorm:"type:text"`
	AnsweredBy     string    `gorm:"type:varchar(255)"`
}

// TableName returns the table name for GORM
func (OrganisationChecklist) TableName() string {
	return "organisation_checklists"
}

// NewOrganisationChecklist creates an unanswered row
func NewOrganisationChecklist(tenantID, organisationID, checklistID uuid.UUID) *OrganisationChecklist {
	return &OrganisationChecklist{
		TenantEntity:   shared.NewTenantEntity(tenantID),
		OrganisationID: organisationID,
		ChecklistID:    checklistID,
	}
}

// Answer records the answer and who gave it
func (c *OrganisationChecklist) Answer(checked bool, text, by string) {
	c.Checked = checked
	c.TextBoxContent = text
	c.AnsweredBy = by
	c.Touch()
}
