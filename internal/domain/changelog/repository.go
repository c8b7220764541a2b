package changelog

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists versions, categories and entries
type Repository interface {
	FindVersion(ctx context.Context, tenantID, id uuid.UUID) (*Version, error)
	// FindVersions lists versions of a project, newest first
	FindVersions(ctx context.Context, tenantID, projectID uuid.UUID) ([]Version, error)
	SaveVersion(ctx context.Context, v *Version) error

	FindCategory(ctx context.Context, tenantID, id uuid.UUID) (*Category, error)
	FindCategories(ctx context.Context, tenantID, projectID uuid.UUID) ([]Category, error)
	MaxCategorySort(ctx context.Context, tenantID, projectID uuid.UUID) (int, error)
	SaveCategory(ctx context.Context, c *Category) error

	FindEntry(ctx context.Context, tenantID, id uuid.UUID) (*Entry, error)
	// FindEntries lists entries of a version ordered by category then entry sort
	FindEntries(ctx context.Context, tenantID, versionID uuid.UUID) ([]Entry, error)
	MaxEntrySort(ctx context.Context, tenantID, versionID uuid.UUID) (int, error)
	SaveEntry(ctx context.Context, e *Entry) error

	// SlugExists reports whether slug is used by a row of table in the project
	SlugExists(ctx context.Context, table string, projectID uuid.UUID, slug string) (bool, error)
	CountSlugs(ctx context.Context, table string, projectID uuid.UUID, base string) (int64, error)
}
