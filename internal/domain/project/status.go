package project

import (
	"strings"

	"github.com/google/uuid"
	"github.com/projecta/backend/internal/domain/shared"
)

// Status is a named, ordered workflow label of a project
// ("Pending", "Approved", "Rejected", or any custom review step).
type Status struct {
	shared.TenantEntity
	ProjectID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_status_project_name,priority:1"`
	Name      string    `gorm:"type:varchar(255);not null;uniqueIndex:idx_status_project_name,priority:2"`
	Order     int       `gorm:"column:sort_order;not null"`
}

// TableName returns the table name for GORM
func (Status) TableName() string {
	return "statuses"
}

// NewStatus creates a status at the given position
func NewStatus(tenantID, projectID uuid.UUID, name string, order int) (*Status, error) {
	name = strings.TrimSpace(name)
	if projectID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PROJECT", "Project ID cannot be empty")
	}
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Status name cannot be empty")
	}
	if order < 1 {
		return nil, shared.NewDomainError("INVALID_ORDER", "Status order must be positive")
	}
	return &Status{
		TenantEntity: shared.NewTenantEntity(tenantID),
		ProjectID:    projectID,
		Name:         name,
		Order:        order,
	}, nil
}

// State maps the label onto the approval workflow
func (s *Status) State() shared.ApprovalState {
	return shared.ParseApprovalState(s.Name)
}
