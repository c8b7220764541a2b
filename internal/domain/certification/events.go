package certification

import (
	"github.com/google/uuid"
	"github.com/projecta/backend/internal/domain/shared"
)

const (
	AggregateTypeOrganisation = "CertifyingOrganisation"

	EventTypeOrganisationCreated = "CertifyingOrganisationCreated"
)

// OrganisationCreatedEvent is raised when an organisation applies
type OrganisationCreatedEvent struct {
	shared.BaseDomainEvent
	ProjectID uuid.UUID `json:"project_id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
}

// NewOrganisationCreatedEvent creates an OrganisationCreatedEvent
func NewOrganisationCreatedEvent(o *CertifyingOrganisation) *OrganisationCreatedEvent {
	return &OrganisationCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrganisationCreated, AggregateTypeOrganisation, o.ID, o.TenantID),
		ProjectID:       o.ProjectID,
		Name:            o.Name,
		Slug:            o.Slug,
	}
}
