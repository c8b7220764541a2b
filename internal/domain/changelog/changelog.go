// Package changelog models release notes of a project: versions grouped
// into categorised entries.
package changelog

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/projecta/backend/internal/domain/shared"
)

// Version is a release of a project
type Version struct {
	shared.TenantEntity
	ProjectID   uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_version_project_slug,priority:1"`
	Name        string     `gorm:"type:varchar(255);not null"`
	Slug        string     `gorm:"type:varchar(50);not null;uniqueIndex:idx_version_project_slug,priority:2"`
	Description string     `gorm:"type:text"`
	ReleaseDate *time.Time `gorm:"type:date"`
	Approved    bool       `gorm:"not null;default:false"`
	AuthorID    *uuid.UUID `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (Version) TableName() string { return "versions" }

// NewVersion creates an unapproved version
func NewVersion(tenantID, projectID uuid.UUID, name, slug, description string, releaseDate *time.Time) (*Version, error) {
	name = strings.TrimSpace(name)
	if projectID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PROJECT", "Project ID cannot be empty")
	}
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Version name cannot be empty")
	}
	if slug == "" {
		return nil, shared.ErrEmptySlug
	}
	return &Version{
		TenantEntity: shared.NewTenantEntity(tenantID),
		ProjectID:    projectID,
		Name:         name,
		Slug:         slug,
		Description:  description,
		ReleaseDate:  releaseDate,
	}, nil
}

// Approve publishes the version
func (v *Version) Approve() {
	v.Approved = true
	v.Touch()
}

// Category groups entries (features, bug fixes...) and has a fixed sort position
type Category struct {
	shared.TenantEntity
	ProjectID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_category_project_slug,priority:1"`
	Name       string    `gorm:"type:varchar(255);not null"`
	Slug       string    `gorm:"type:varchar(50);not null;uniqueIndex:idx_category_project_slug,priority:2"`
	SortNumber int       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (Category) TableName() string { return "changelog_categories" }

// NewCategory creates a category at position sort
func NewCategory(tenantID, projectID uuid.UUID, name, slug string, sort int) (*Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Category name cannot be empty")
	}
	if slug == "" {
		return nil, shared.ErrEmptySlug
	}
	return &Category{
		TenantEntity: shared.NewTenantEntity(tenantID),
		ProjectID:    projectID,
		Name:         name,
		Slug:         slug,
		SortNumber:   sort,
	}, nil
}

// Entry is one change listed under a version
type Entry struct {
	shared.TenantEntity
	VersionID   uuid.UUID `gorm:"type:uuid;not null;index"`
	CategoryID  uuid.UUID `gorm:"type:uuid;not null;index"`
	Title       string    `gorm:"type:varchar(255);not null"`
	Description string    `gorm:"type:text"`
	ImageFile   string    `gorm:"type:varchar(500)"`
	Video       string    `gorm:"type:varchar(500)"`
	Author      string    `gorm:"type:varchar(255)"`
	Approved    bool      `gorm:"not null;default:false"`
	SortNumber  int       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (Entry) TableName() string { return "changelog_entries" }

// NewEntry creates an unapproved entry. The category must belong to the
// version's project.
func NewEntry(tenantID uuid.UUID, version *Version, category *Category, title, description, author string, sort int) (*Entry, error) {
	title = strings.TrimSpace(title)
	if version == nil || category == nil {
		return nil, shared.NewDomainError("INVALID_ENTRY", "Version and category are required")
	}
	if category.ProjectID != version.ProjectID {
		return nil, shared.NewDomainError("INVALID_ENTRY", "Category belongs to another project")
	}
	if title == "" {
		return nil, shared.NewDomainError("INVALID_TITLE", "Entry title cannot be empty")
	}
	return &Entry{
		TenantEntity: shared.NewTenantEntity(tenantID),
		VersionID:    version.ID,
		CategoryID:   category.ID,
		Title:        title,
		Description:  description,
		Author:       author,
		SortNumber:   sort,
	}, nil
}

// Approve publishes the entry
func (e *Entry) Approve() {
	e.Approved = true
	e.Touch()
}
