package changelog

import (
	"time"

	"github.com/google/uuid"
	"github.com/projecta/backend/internal/domain/changelog"
)

// CreateVersionRequest adds a release to a project
type CreateVersionRequest struct {
	Name        string     `json:"name" binding:"required,min=1,max=255"`
	Description string     `json:"description"`
	ReleaseDate *time.Time `json:"release_date"`
}

// VersionResponse represents a release
type VersionResponse struct {
	ID          uuid.UUID  `json:"id"`
	ProjectID   uuid.UUID  `json:"project_id"`
	Name        string     `json:"name"`
	Slug        string     `json:"slug"`
	Description string     `json:"description,omitempty"`
	ReleaseDate *time.Time `json:"release_date,omitempty"`
	Approved    bool       `json:"approved"`
}

// ToVersionResponse converts a domain version
func ToVersionResponse(v *changelog.Version) VersionResponse {
	return VersionResponse{
		ID:          v.ID,
		ProjectID:   v.ProjectID,
		Name:        v.Name,
		Slug:        v.Slug,
		Description: v.Description,
		ReleaseDate: v.ReleaseDate,
		Approved:    v.Approved,
	}
}

// CreateCategoryRequest adds an entry category to a project
type CreateCategoryRequest struct {
	Name string `json:"name" binding:"required,min=1,max=255"`
}

// CategoryResponse represents an entry category
type CategoryResponse struct {
	ID         uuid.UUID `json:"id"`
	ProjectID  uuid.UUID `json:"project_id"`
	Name       string    `json:"name"`
	Slug       string    `json:"slug"`
	SortNumber int       `json:"sort_number"`
}

// ToCategoryResponse converts a domain category
func ToCategoryResponse(c *changelog.Category) CategoryResponse {
	return CategoryResponse{
		ID:         c.ID,
		ProjectID:  c.ProjectID,
		Name:       c.Name,
		Slug:       c.Slug,
		SortNumber: c.SortNumber,
	}
}

// CreateEntryRequest adds a change to a version
type CreateEntryRequest struct {
	CategoryID  uuid.UUID `json:"category_id" binding:"required"`
	Title       string    `json:"title" binding:"required,min=1,max=255"`
	Description string    `json:"description"`
	ImageFile   string    `json:"image_file" binding:"max=500"`
	Video       string    `json:"video" binding:"omitempty,url,max=500"`
}

// EntryResponse represents a change
type EntryResponse struct {
	ID          uuid.UUID `json:"id"`
	VersionID   uuid.UUID `json:"version_id"`
	CategoryID  uuid.UUID `json:"category_id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	ImageFile   string    `json:"image_file,omitempty"`
	Video       string    `json:"video,omitempty"`
	Author      string    `json:"author,omitempty"`
	Approved    bool      `json:"approved"`
	SortNumber  int       `json:"sort_number"`
}

// ToEntryResponse converts a domain entry
func ToEntryResponse(e *changelog.Entry) EntryResponse {
	return EntryResponse{
		ID:          e.ID,
		VersionID:   e.VersionID,
		CategoryID:  e.CategoryID,
		Title:       e.Title,
		Description: e.Description,
		ImageFile:   e.ImageFile,
		Video:       e.Video,
		Author:      e.Author,
		Approved:    e.Approved,
		SortNumber:  e.SortNumber,
	}
}
