// Package audit holds the history of workflow transitions.
package audit

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/projecta/backend/internal/domain/shared"
)

// StatusChange is one audited workflow transition
type StatusChange struct {
	shared.TenantEntity
	AggregateType string               `gorm:"type:varchar(50);not null;index:idx_status_change_aggregate,priority:1"`
	AggregateID   uuid.UUID            `gorm:"type:uuid;not null;index:idx_status_change_aggregate,priority:2"`
	FromState     shared.ApprovalState `gorm:"type:varchar(20);not null"`
	ToState       shared.ApprovalState `gorm:"type:varchar(20);not null"`
	StatusID      *uuid.UUID           `gorm:"type:uuid"`
	StatusName    string               `gorm:"type:varchar(255)"`
	Actor         string               `gorm:"type:varchar(255);not null"`
	Remarks       string               `gorm:"type:text"`
	ChangeReason  string               `gorm:"type:text;not null"`
}

// TableName returns the table name for GORM
func (StatusChange) TableName() string {
	return "status_changes"
}

// FromEvent builds the audit row for a transition event
func FromEvent(e *shared.ApprovalChangedEvent, statusName string) *StatusChange {
	return &StatusChange{
		TenantEntity:  shared.NewTenantEntity(e.TenantID()),
		AggregateType: e.AggregateType(),
		AggregateID:   e.AggregateID(),
		FromState:     e.From,
		ToState:       e.To,
		StatusID:      e.StatusID,
		StatusName:    statusName,
		Actor:         e.Actor,
		Remarks:       e.Remarks,
		ChangeReason:  ChangeReason(e.Actor, e.Remarks),
	}
}

// ChangeReason renders the human-readable history line
func ChangeReason(actor, remarks string) string {
	reason := "Status updated by " + actor
	if r := strings.TrimSpace(remarks); r != "" {
		reason += ": " + r
	}
	return reason
}

// Repository reads the transition history. Rows are written by the owning
// aggregate's repository inside its save transaction.
type Repository interface {
	// FindByAggregate returns the history newest first
	FindByAggregate(ctx context.Context, tenantID uuid.UUID, aggregateType string, aggregateID uuid.UUID) ([]StatusChange, error)
}
