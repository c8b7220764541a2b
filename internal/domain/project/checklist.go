package project

import (
	"strings"

	"github.com/google/uuid"
	"github.com/projecta/backend/internal/domain/shared"
)

// ChecklistTarget says who answers a checklist question
type ChecklistTarget string

const (
	ChecklistTargetReviewer ChecklistTarget = "reviewer"
	ChecklistTargetOwner    ChecklistTarget = "owner"
)

// Checklist is one review question of a project
type Checklist struct {
	shared.TenantEntity
	ProjectID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Question  string          `gorm:"type:text;not null"`
	HelpText  string          `gorm:"type:text"`
	Target    ChecklistTarget `gorm:"type:varchar(20);not null;default:'reviewer'"`
	Order     int             `gorm:"column:sort_order;not null"`
	IsActive  bool            `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (Checklist) TableName() string {
	return "checklists"
}

// NewChecklist creates an active question at the given position
func NewChecklist(tenantID, projectID uuid.UUID, question, helpText string, target ChecklistTarget, order int) (*Checklist, error) {
	question = strings.TrimSpace(question)
	if projectID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PROJECT", "Project ID cannot be empty")
	}
	if question == "" {
		return nil, shared.NewDomainError("INVALID_QUESTION", "Checklist question cannot be empty")
	}
	if target == "" {
		target = ChecklistTargetReviewer
	}
	if target != ChecklistTargetReviewer && target != ChecklistTargetOwner {
		return nil, shared.NewDomainError("INVALID_TARGET", "Checklist target must be reviewer or owner")
	}
	return &Checklist{
		TenantEntity: shared.NewTenantEntity(tenantID),
		ProjectID:    projectID,
		Question:     question,
		HelpText:     helpText,
		Target:       target,
		Order:        order,
		IsActive:     true,
	}, nil
}

// Deactivate removes the question from future reviews
func (c *Checklist) Deactivate() {
	c.IsActive = false
	c.Touch()
}

// Reorder assigns orders 1..n following ids. Every checklist must appear
// exactly once.
func Reorder(items []Checklist, ids []uuid.UUID) error {
	if len(items) != len(ids) {
		return shared.NewDomainError("INVALID_ORDER", "Order must list every checklist exactly once")
	}
	pos := make(map[uuid.UUID]int, len(ids))
	for i, id := range ids {
		if _, dup := pos[id]; dup {
			return shared.NewDomainError("INVALID_ORDER", "Duplicate checklist in order")
		}
		pos[id] = i + 1
	}
	for i := range items {
		p, ok := pos[items[i].ID]
		if !ok {
			return shared.NewDomainError("INVALID_ORDER", "Unknown checklist "+items[i].ID.String())
		}
		items[i].Order = p
		items[i].Touch()
	}
	return nil
}
