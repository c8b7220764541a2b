package project

import (
	"time"

	"github.com/google/uuid"
	"github.com/projecta/backend/internal/domain/project"
	"github.com/projecta/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// =============================================================================
// Project DTOs
// =============================================================================

// CreateProjectRequest represents a request to create a project
type CreateProjectRequest struct {
	Name        string `json:"name" binding:"required,min=1,max=255"`
	Description string `json:"description"`
	Precis      string `json:"precis"`
}

// UpdateProjectRequest represents a request to update a project. Nil fields
// are left unchanged.
type UpdateProjectRequest struct {
	Name                 *string          `json:"name" binding:"omitempty,min=1,max=255"`
	Description          *string          `json:"description"`
	Precis               *string          `json:"precis"`
	LogoImage            *string          `json:"logo_image" binding:"omitempty,max=500"`
	SignatureImage       *string          `json:"signature_image" binding:"omitempty,max=500"`
	BackgroundImage      *string          `json:"background_image" binding:"omitempty,max=500"`
	SponsorshipProgramme *string          `json:"sponsorship_programme"`
	CreditCost           *decimal.Decimal `json:"credit_cost"`
}

// SetManagersRequest replaces one manager list
type SetManagersRequest struct {
	Role    string      `json:"role" binding:"required,oneof=certification sponsorship changelog"`
	UserIDs []uuid.UUID `json:"user_ids"`
}

// ProjectListFilter filters the project list
type ProjectListFilter struct {
	Search     string `form:"search"`
	OwnerID    string `form:"owner_id" binding:"omitempty,uuid"`
	IncludeAll bool   `form:"include_inactive"`
	Page       int    `form:"page" binding:"omitempty,min=1"`
	PageSize   int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy    string `form:"order_by"`
	OrderDir   string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// ProjectResponse represents a project
type ProjectResponse struct {
	ID                    uuid.UUID       `json:"id"`
	Name                  string          `json:"name"`
	Slug                  string          `json:"slug"`
	Description           string          `json:"description,omitempty"`
	Precis                string          `json:"precis,omitempty"`
	OwnerID               uuid.UUID       `json:"owner_id"`
	LogoImage             string          `json:"logo_image,omitempty"`
	SignatureImage        string          `json:"signature_image,omitempty"`
	BackgroundImage       string          `json:"background_image,omitempty"`
	CertificationManagers []uuid.UUID     `json:"certification_managers"`
	SponsorshipManagers   []uuid.UUID     `json:"sponsorship_managers"`
	ChangelogManagers     []uuid.UUID     `json:"changelog_managers"`
	SponsorshipProgramme  string          `json:"sponsorship_programme,omitempty"`
	CreditCost            decimal.Decimal `json:"credit_cost"`
	IsActive              bool            `json:"is_active"`
	Version               int             `json:"version"`
	CreatedAt             time.Time       `json:"created_at"`
	UpdatedAt             time.Time       `json:"updated_at"`
}

// ToProjectResponse converts a domain project
func ToProjectResponse(p *project.Project) ProjectResponse {
	return ProjectResponse{
		ID:                    p.ID,
		Name:                  p.Name,
		Slug:                  p.Slug,
		Description:           p.Description,
		Precis:                p.Precis,
		OwnerID:               p.OwnerID,
		LogoImage:             p.LogoImage,
		SignatureImage:        p.SignatureImage,
		BackgroundImage:       p.BackgroundImage,
		CertificationManagers: orEmpty(p.CertificationManagers),
		SponsorshipManagers:   orEmpty(p.SponsorshipManagers),
		ChangelogManagers:     orEmpty(p.ChangelogManagers),
		SponsorshipProgramme:  p.SponsorshipProgramme,
		CreditCost:            p.CreditCost,
		IsActive:              p.IsActive,
		Version:               p.Version,
		CreatedAt:             p.CreatedAt,
		UpdatedAt:             p.UpdatedAt,
	}
}

func orEmpty(ids []uuid.UUID) []uuid.UUID {
	if ids == nil {
		return []uuid.UUID{}
	}
	return ids
}

func (f ProjectListFilter) toFilter() shared.Filter {
	filter := shared.DefaultFilter()
	filter.OrderBy = "name"
	filter.OrderDir = "asc"
	if f.Page > 0 {
		filter.Page = f.Page
	}
	if f.PageSize > 0 {
		filter.PageSize = f.PageSize
	}
	if f.OrderBy != "" {
		filter.OrderBy = f.OrderBy
	}
	if f.OrderDir != "" {
		filter.OrderDir = f.OrderDir
	}
	filter.Search = f.Search
	if f.OwnerID != "" {
		filter.Filters["owner_id"] = f.OwnerID
	}
	if !f.IncludeAll {
		filter.Filters["is_active"] = true
	}
	return filter
}

// =============================================================================
// Status DTOs
// =============================================================================

// CreateStatusRequest adds a workflow status to a project
type CreateStatusRequest struct {
	Name string `json:"name" binding:"required,min=1,max=255"`
}

// StatusResponse represents a workflow status
type StatusResponse struct {
	ID        uuid.UUID `json:"id"`
	ProjectID uuid.UUID `json:"project_id"`
	Name      string    `json:"name"`
	Order     int       `json:"order"`
	State     string    `json:"state"`
}

// ToStatusResponse converts a domain status
func ToStatusResponse(s *project.Status) StatusResponse {
	return StatusResponse{
		ID:        s.ID,
		ProjectID: s.ProjectID,
		Name:      s.Name,
		Order:     s.Order,
		State:     string(s.State()),
	}
}

// =============================================================================
// Checklist DTOs
// =============================================================================

// CreateChecklistRequest adds a review question to a project
type CreateChecklistRequest struct {
	Question string `json:"question" binding:"required,min=1"`
	HelpText string `json:"help_text"`
	Target   string `json:"target" binding:"omitempty,oneof=reviewer owner"`
}

// ReorderChecklistRequest lists every active question id in the new order
type ReorderChecklistRequest struct {
	IDs []uuid.UUID `json:"ids" binding:"required,min=1"`
}

// ChecklistResponse represents a review question
type ChecklistResponse struct {
	ID        uuid.UUID `json:"id"`
	ProjectID uuid.UUID `json:"project_id"`
	Question  string    `json:"question"`
	HelpText  string    `json:"help_text,omitempty"`
	Target    string    `json:"target"`
	Order     int       `json:"order"`
	IsActive  bool      `json:"is_active"`
}

// ToChecklistResponse converts a domain checklist
func ToChecklistResponse(c *project.Checklist) ChecklistResponse {
	return ChecklistResponse{
		ID:        c.ID,
		ProjectID: c.ProjectID,
		Question:  c.Question,
		HelpText:  c.HelpText,
		Target:    string(c.Target),
		Order:     c.Order,
		IsActive:  c.IsActive,
	}
}
