// Package changelog manages project release notes.
package changelog

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/projecta/backend/internal/domain/changelog"
	"github.com/projecta/backend/internal/domain/project"
	"github.com/projecta/backend/internal/domain/shared"
	"go.uber.org/zap"
)

const (
	maxSlugAttempts = 3

	tableVersions   = "versions"
	tableCategories = "changelog_categories"
)

// Service manages versions, categories and entries
type Service struct {
	projectRepo project.ProjectRepository
	repo        changelog.Repository
	logger      *zap.Logger
}

// NewService creates a changelog service
func NewService(projectRepo project.ProjectRepository, repo changelog.Repository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{projectRepo: projectRepo, repo: repo, logger: logger}
}

func canManage(actor shared.Actor, p *project.Project) bool {
	if actor.IsReviewer() {
		return false
	}
	return actor.IsStaff || p.IsOwner(actor.UserID) || p.IsManager(project.ManagerRoleChangelog, actor.UserID)
}

func (s *Service) managedProject(ctx context.Context, tenantID uuid.UUID, actor shared.Actor, projectID uuid.UUID) (*project.Project, error) {
	p, err := s.projectRepo.FindByID(ctx, tenantID, projectID)
	if err != nil {
		return nil, err
	}
	if !canManage(actor, p) {
		return nil, shared.ErrForbidden
	}
	return p, nil
}

func (s *Service) withSlug(ctx context.Context, table string, projectID uuid.UUID, name string, create func(slug string) error) error {
	base, err := shared.Slugify(name, shared.DefaultStopWords)
	if err != nil {
		return err
	}
	exists := func(ctx context.Context, slug string) (bool, error) {
		return s.repo.SlugExists(ctx, table, projectID, slug)
	}
	count := func(ctx context.Context, base string) (int64, error) {
		return s.repo.CountSlugs(ctx, table, projectID, base)
	}
	for attempt := 1; ; attempt++ {
		slug, err := shared.UniqueSlug(ctx, base, exists, count)
		if err != nil {
			return err
		}
		err = create(slug)
		if err == nil || !errors.Is(err, shared.ErrAlreadyExists) || attempt >= maxSlugAttempts {
			return err
		}
	}
}

// CreateVersion adds an unapproved version
func (s *Service) CreateVersion(ctx context.Context, tenantID uuid.UUID, actor shared.Actor, projectID uuid.UUID, req CreateVersionRequest) (*VersionResponse, error) {
	p, err := s.managedProject(ctx, tenantID, actor, projectID)
	if err != nil {
		return nil, err
	}
	var v *changelog.Version
	err = s.withSlug(ctx, tableVersions, p.ID, req.Name, func(slug string) error {
		var err error
		v, err = changelog.NewVersion(tenantID, p.ID, req.Name, slug, req.Description, req.ReleaseDate)
		if err != nil {
			return err
		}
		author := actor.UserID
		v.AuthorID = &author
		return s.repo.SaveVersion(ctx, v)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("Version created",
		zap.String("project_id", p.ID.String()),
		zap.String("version", v.Name),
		zap.String("slug", v.Slug),
	)
	resp := ToVersionResponse(v)
	return &resp, nil
}

// ListVersions lists versions newest first. Unapproved ones are only shown
// to changelog managers.
func (s *Service) ListVersions(ctx context.Context, tenantID uuid.UUID, actor shared.Actor, projectID uuid.UUID) ([]VersionResponse, error) {
	p, err := s.projectRepo.FindByID(ctx, tenantID, projectID)
	if err != nil {
		return nil, err
	}
	versions, err := s.repo.FindVersions(ctx, tenantID, projectID)
	if err != nil {
		return nil, err
	}
	all := canManage(actor, p)
	out := make([]VersionResponse, 0, len(versions))
	for i := range versions {
		if all || versions[i].Approved {
			out = append(out, ToVersionResponse(&versions[i]))
		}
	}
	return out, nil
}

// ApproveVersion publishes a version
func (s *Service) ApproveVersion(ctx context.Context, tenantID uuid.UUID, actor shared.Actor, id uuid.UUID) (*VersionResponse, error) {
	v, err := s.repo.FindVersion(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.managedProject(ctx, tenantID, actor, v.ProjectID); err != nil {
		return nil, err
	}
	v.Approve()
	if err := s.repo.SaveVersion(ctx, v); err != nil {
		return nil, err
	}
	resp := ToVersionResponse(v)
	return &resp, nil
}

// CreateCategory appends a category after the project's last one
func (s *Service) CreateCategory(ctx context.Context, tenantID uuid.UUID, actor shared.Actor, projectID uuid.UUID, req CreateCategoryRequest) (*CategoryResponse, error) {
	p, err := s.managedProject(ctx, tenantID, actor, projectID)
	if err != nil {
		return nil, err
	}
	var c *changelog.Category
	err = s.withSlug(ctx, tableCategories, p.ID, req.Name, func(slug string) error {
		maxSort, err := s.repo.MaxCategorySort(ctx, tenantID, p.ID)
		if err != nil {
			return err
		}
		c, err = changelog.NewCategory(tenantID, p.ID, req.Name, slug, maxSort+1)
		if err != nil {
			return err
		}
		return s.repo.SaveCategory(ctx, c)
	})
	if err != nil {
		return nil, err
	}
	resp := ToCategoryResponse(c)
	return &resp, nil
}

// ListCategories lists the project's categories in sort order
func (s *Service) ListCategories(ctx context.Context, tenantID, projectID uuid.UUID) ([]CategoryResponse, error) {
	categories, err := s.repo.FindCategories(ctx, tenantID, projectID)
	if err != nil {
		return nil, err
	}
	out := make([]CategoryResponse, len(categories))
	for i := range categories {
		out[i] = ToCategoryResponse(&categories[i])
	}
	return out, nil
}

// CreateEntry adds an unapproved entry to a version. Any signed-in user may
// propose one.
func (s *Service) CreateEntry(ctx context.Context, tenantID uuid.UUID, actor shared.Actor, versionID uuid.UUID, req CreateEntryRequest) (*EntryResponse, error) {
	if actor.IsReviewer() || actor.UserID == uuid.Nil {
		return nil, shared.ErrUnauthorized
	}
	v, err := s.repo.FindVersion(ctx, tenantID, versionID)
	if err != nil {
		return nil, err
	}
	category, err := s.repo.FindCategory(ctx, tenantID, req.CategoryID)
	if err != nil {
		return nil, err
	}
	maxSort, err := s.repo.MaxEntrySort(ctx, tenantID, v.ID)
	if err != nil {
		return nil, err
	}
	e, err := changelog.NewEntry(tenantID, v, category, req.Title, req.Description, actor.Name(), maxSort+1)
	if err != nil {
		return nil, err
	}
	e.ImageFile = req.ImageFile
	e.Video = req.Video
	if err := s.repo.SaveEntry(ctx, e); err != nil {
		return nil, err
	}
	resp := ToEntryResponse(e)
	return &resp, nil
}

// ListEntries lists a version's entries by category then entry sort.
// Unapproved entries are only shown to changelog managers.
func (s *Service) ListEntries(ctx context.Context, tenantID uuid.UUID, actor shared.Actor, versionID uuid.UUID) ([]EntryResponse, error) {
	v, err := s.repo.FindVersion(ctx, tenantID, versionID)
	if err != nil {
		return nil, err
	}
	p, err := s.projectRepo.FindByID(ctx, tenantID, v.ProjectID)
	if err != nil {
		return nil, err
	}
	entries, err := s.repo.FindEntries(ctx, tenantID, v.ID)
	if err != nil {
		return nil, err
	}
	all := canManage(actor, p)
	out := make([]EntryResponse, 0, len(entries))
	for i := range entries {
		if all || entries[i].Approved {
			out = append(out, ToEntryResponse(&entries[i]))
		}
	}
	return out, nil
}

// ApproveEntry publishes an entry
func (s *Service) ApproveEntry(ctx context.Context, tenantID uuid.UUID, actor shared.Actor, id uuid.UUID) (*EntryResponse, error) {
	e, err := s.repo.FindEntry(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	v, err := s.repo.FindVersion(ctx, tenantID, e.VersionID)
	if err != nil {
		return nil, err
	}
	if _, err := s.managedProject(ctx, tenantID, actor, v.ProjectID); err != nil {
		return nil, err
	}
	e.Approve()
	if err := s.repo.SaveEntry(ctx, e); err != nil {
		return nil, err
	}
	resp := ToEntryResponse(e)
	return &resp, nil
}
