package project

import (
	"github.com/google/uuid"
	"github.com/projecta/backend/internal/domain/shared"
)

const (
	AggregateTypeProject = "Project"

	EventTypeProjectCreated = "ProjectCreated"
	EventTypeProjectUpdated = "ProjectUpdated"
)

// ProjectCreatedEvent is raised when a project is created
type ProjectCreatedEvent struct {
	shared.BaseDomainEvent
	Name    string    `json:"name"`
	Slug    string    `json:"slug"`
	OwnerID uuid.UUID `json:"owner_id"`
}

// NewProjectCreatedEvent creates a ProjectCreatedEvent
func NewProjectCreatedEvent(p *Project) *ProjectCreatedEvent {
	return &ProjectCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeProjectCreated, AggregateTypeProject, p.ID, p.TenantID),
		Name:            p.Name,
		Slug:            p.Slug,
		OwnerID:         p.OwnerID,
	}
}

// ProjectUpdatedEvent is raised when project data or managers change
type ProjectUpdatedEvent struct {
	shared.BaseDomainEvent
	Name     string `json:"name"`
	IsActive bool   `json:"is_active"`
}

// NewProjectUpdatedEvent creates a ProjectUpdatedEvent
func NewProjectUpdatedEvent(p *Project) *ProjectUpdatedEvent {
	return &ProjectUpdatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeProjectUpdated, AggregateTypeProject, p.ID, p.TenantID),
		Name:            p.Name,
		IsActive:        p.IsActive,
	}
}
