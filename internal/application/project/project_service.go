package project

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/projecta/backend/internal/domain/project"
	"github.com/projecta/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// slug allocation races with concurrent creates; retry on unique violations
const maxSlugAttempts = 3

// canAdminister reports whether actor may change project settings
func canAdminister(actor shared.Actor, p *project.Project) bool {
	if actor.IsReviewer() {
		return false
	}
	return actor.IsStaff || p.IsOwner(actor.UserID)
}

// canManageCertification additionally admits certification managers
func canManageCertification(actor shared.Actor, p *project.Project) bool {
	if canAdminister(actor, p) {
		return true
	}
	return !actor.IsReviewer() && p.IsManager(project.ManagerRoleCertification, actor.UserID)
}

// ProjectService manages projects
type ProjectService struct {
	projectRepo project.ProjectRepository
	logger      *zap.Logger
}

// NewProjectService creates a new ProjectService
func NewProjectService(projectRepo project.ProjectRepository, logger *zap.Logger) *ProjectService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProjectService{projectRepo: projectRepo, logger: logger}
}

// Create creates a project owned by actor. The slug is unique across tenants.
func (s *ProjectService) Create(ctx context.Context, tenantID uuid.UUID, actor shared.Actor, req CreateProjectRequest) (*ProjectResponse, error) {
	if actor.IsReviewer() || actor.UserID == uuid.Nil {
		return nil, shared.ErrUnauthorized
	}
	base, err := shared.Slugify(req.Name, shared.DefaultStopWords)
	if err != nil {
		return nil, err
	}

	var p *project.Project
	for attempt := 1; ; attempt++ {
		slug, err := shared.UniqueSlug(ctx, base, s.projectRepo.SlugExists, s.projectRepo.CountSlugs)
		if err != nil {
			return nil, err
		}
		p, err = project.NewProject(tenantID, actor.UserID, req.Name, slug)
		if err != nil {
			return nil, err
		}
		p.Description = req.Description
		p.Precis = req.Precis

		err = s.projectRepo.Save(ctx, p)
		if err == nil {
			break
		}
		if !errors.Is(err, shared.ErrAlreadyExists) || attempt >= maxSlugAttempts {
			return nil, err
		}
	}

	s.logger.Info("Project created",
		zap.String("project_id", p.ID.String()),
		zap.String("slug", p.Slug),
		zap.String("owner_id", actor.UserID.String()),
	)
	resp := ToProjectResponse(p)
	return &resp, nil
}

// GetByID retrieves a project
func (s *ProjectService) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*ProjectResponse, error) {
	p, err := s.projectRepo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	resp := ToProjectResponse(p)
	return &resp, nil
}

// GetBySlug retrieves a project by its global slug
func (s *ProjectService) GetBySlug(ctx context.Context, slug string) (*ProjectResponse, error) {
	p, err := s.projectRepo.FindBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	resp := ToProjectResponse(p)
	return &resp, nil
}

// List lists the tenant's projects
func (s *ProjectService) List(ctx context.Context, tenantID uuid.UUID, f ProjectListFilter) ([]ProjectResponse, int64, error) {
	filter := f.toFilter()
	projects, err := s.projectRepo.FindAll(ctx, tenantID, filter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.projectRepo.Count(ctx, tenantID, filter)
	if err != nil {
		return nil, 0, err
	}
	out := make([]ProjectResponse, len(projects))
	for i := range projects {
		out[i] = ToProjectResponse(&projects[i])
	}
	return out, total, nil
}

// Update changes descriptive fields, images and sponsorship settings. The
// slug is never recomputed.
func (s *ProjectService) Update(ctx context.Context, tenantID uuid.UUID, actor shared.Actor, id uuid.UUID, req UpdateProjectRequest) (*ProjectResponse, error) {
	p, err := s.load(ctx, tenantID, actor, id)
	if err != nil {
		return nil, err
	}

	if req.LogoImage != nil || req.SignatureImage != nil || req.BackgroundImage != nil {
		logo, signature, background := p.LogoImage, p.SignatureImage, p.BackgroundImage
		if req.LogoImage != nil {
			logo = *req.LogoImage
		}
		if req.SignatureImage != nil {
			signature = *req.SignatureImage
		}
		if req.BackgroundImage != nil {
			background = *req.BackgroundImage
		}
		p.SetImages(logo, signature, background)
	}
	if req.SponsorshipProgramme != nil || req.CreditCost != nil {
		programme, cost := p.SponsorshipProgramme, p.CreditCost
		if req.SponsorshipProgramme != nil {
			programme = *req.SponsorshipProgramme
		}
		if req.CreditCost != nil {
			cost = *req.CreditCost
		}
		if err := p.SetSponsorship(programme, cost); err != nil {
			return nil, err
		}
	}

	name, description, precis := p.Name, p.Description, p.Precis
	if req.Name != nil {
		name = *req.Name
	}
	if req.Description != nil {
		description = *req.Description
	}
	if req.Precis != nil {
		precis = *req.Precis
	}
	if err := p.Update(name, description, precis); err != nil {
		return nil, err
	}

	if err := s.projectRepo.Save(ctx, p); err != nil {
		return nil, err
	}
	resp := ToProjectResponse(p)
	return &resp, nil
}

// SetManagers replaces one of the project's manager lists
func (s *ProjectService) SetManagers(ctx context.Context, tenantID uuid.UUID, actor shared.Actor, id uuid.UUID, req SetManagersRequest) (*ProjectResponse, error) {
	p, err := s.load(ctx, tenantID, actor, id)
	if err != nil {
		return nil, err
	}
	if err := p.SetManagers(project.ManagerRole(req.Role), req.UserIDs); err != nil {
		return nil, err
	}
	if err := s.projectRepo.Save(ctx, p); err != nil {
		return nil, err
	}

	s.logger.Info("Project managers updated",
		zap.String("project_id", p.ID.String()),
		zap.String("role", req.Role),
		zap.Int("managers", len(p.Managers(project.ManagerRole(req.Role)))),
	)
	resp := ToProjectResponse(p)
	return &resp, nil
}

// Deactivate hides a project
func (s *ProjectService) Deactivate(ctx context.Context, tenantID uuid.UUID, actor shared.Actor, id uuid.UUID) error {
	p, err := s.load(ctx, tenantID, actor, id)
	if err != nil {
		return err
	}
	if err := p.Deactivate(); err != nil {
		return err
	}
	if err := s.projectRepo.Save(ctx, p); err != nil {
		return err
	}
	s.logger.Info("Project deactivated", zap.String("project_id", p.ID.String()))
	return nil
}

func (s *ProjectService) load(ctx context.Context, tenantID uuid.UUID, actor shared.Actor, id uuid.UUID) (*project.Project, error) {
	p, err := s.projectRepo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if !canAdminister(actor, p) {
		return nil, shared.ErrForbidden
	}
	return p, nil
}
