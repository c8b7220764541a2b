package project

import (
	"context"

	"github.com/google/uuid"
	"github.com/projecta/backend/internal/domain/shared"
)

// ProjectRepository persists projects
type ProjectRepository interface {
	// FindByID finds a project of the tenant by ID
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Project, error)
	// FindBySlug finds a project by its global slug
	FindBySlug(ctx context.Context, slug string) (*Project, error)
	// FindAll lists the tenant's projects
	FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Project, error)
	// Count counts the tenant's projects matching filter
	Count(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)
	// Save creates or updates a project
	Save(ctx context.Context, p *Project) error
	// SlugExists reports whether any project uses slug
	SlugExists(ctx context.Context, slug string) (bool, error)
	// CountSlugs counts projects whose slug is base or base-*
	CountSlugs(ctx context.Context, base string) (int64, error)
}

// StatusRepository persists workflow statuses
type StatusRepository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Status, error)
	// FindByProject returns statuses ordered by Order
	FindByProject(ctx context.Context, tenantID, projectID uuid.UUID) ([]Status, error)
	// MaxOrder returns the highest Order of the project, 0 when none exist
	MaxOrder(ctx context.Context, tenantID, projectID uuid.UUID) (int, error)
	ExistsByName(ctx context.Context, tenantID, projectID uuid.UUID, name string) (bool, error)
	Save(ctx context.Context, s *Status) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
}

// ChecklistRepository persists review questions
type ChecklistRepository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Checklist, error)
	// FindByProject returns questions ordered by Order
	FindByProject(ctx context.Context, tenantID, projectID uuid.UUID, activeOnly bool) ([]Checklist, error)
	MaxOrder(ctx context.Context, tenantID, projectID uuid.UUID) (int, error)
	Save(ctx context.Context, c *Checklist) error
	// SaveBatch saves all items in one transaction
	SaveBatch(ctx context.Context, items []Checklist) error
}
