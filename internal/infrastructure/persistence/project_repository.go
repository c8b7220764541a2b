package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/projecta/backend/internal/domain/project"
	"github.com/projecta/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormProjectRepository implements project.ProjectRepository using GORM
type GormProjectRepository struct {
	db *gorm.DB
}

// NewGormProjectRepository creates a new GormProjectRepository
func NewGormProjectRepository(db *gorm.DB) *GormProjectRepository {
	return &GormProjectRepository{db: db}
}

// FindByID finds a project of the tenant by ID
func (r *GormProjectRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*project.Project, error) {
	var p project.Project
	if err := r.db.WithContext(ctx).Where("tenant_id = ? AND id = ?", tenantID, id).First(&p).Error; err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

// FindBySlug finds a project by its slug
func (r *GormProjectRepository) FindBySlug(ctx context.Context, slug string) (*project.Project, error) {
	var p project.Project
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&p).Error; err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

// FindAll lists the tenant's projects
func (r *GormProjectRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]project.Project, error) {
	var projects []project.Project
	query := r.applyFilter(r.db.WithContext(ctx).Model(&project.Project{}).Where("tenant_id = ?", tenantID), filter)
	if err := paginate(query, filter, ProjectSortFields, "name").Find(&projects).Error; err != nil {
		return nil, err
	}
	return projects, nil
}

// Count counts the tenant's projects matching filter
func (r *GormProjectRepository) Count(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilter(r.db.WithContext(ctx).Model(&project.Project{}).Where("tenant_id = ?", tenantID), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save inserts a new project or updates an existing one with a version check
func (r *GormProjectRepository) Save(ctx context.Context, p *project.Project) error {
	if p.Version <= 1 {
		var exists int64
		if err := r.db.WithContext(ctx).Model(&project.Project{}).Where("id = ?", p.ID).Count(&exists).Error; err != nil {
			return err
		}
		if exists == 0 {
			return conflictOnDuplicate(r.db.WithContext(ctx).Create(p).Error)
		}
	}
	return updateVersioned(r.db.WithContext(ctx), p, p.Version)
}

// SlugExists reports whether any project uses slug
func (r *GormProjectRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&project.Project{}).Where("slug = ?", slug).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// CountSlugs counts projects whose slug is base or base-*
func (r *GormProjectRepository) CountSlugs(ctx context.Context, base string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&project.Project{}).
		Where("slug = ? OR slug LIKE ? ESCAPE '\\'", base, escapeLike(base)+"-%").
		Count(&count).Error
	return count, err
}

func (r *GormProjectRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		query = query.Where("LOWER(name) LIKE ?", searchPattern(filter.Search))
	}
	for key, value := range filter.Filters {
		switch key {
		case "is_active":
			query = query.Where("is_active = ?", value)
		case "owner_id":
			query = query.Where("owner_id = ?", value)
		}
	}
	return query
}

// GormStatusRepository implements project.StatusRepository using GORM
type GormStatusRepository struct {
	db *gorm.DB
}

// NewGormStatusRepository creates a new GormStatusRepository
func NewGormStatusRepository(db *gorm.DB) *GormStatusRepository {
	return &GormStatusRepository{db: db}
}

// FindByID finds a status of the tenant
func (r *GormStatusRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*project.Status, error) {
	var s project.Status
	if err := r.db.WithContext(ctx).Where("tenant_id = ? AND id = ?", tenantID, id).First(&s).Error; err != nil {
		return nil, notFound(err)
	}
	return &s, nil
}

// FindByProject returns the project's statuses in display order
func (r *GormStatusRepository) FindByProject(ctx context.Context, tenantID, projectID uuid.UUID) ([]project.Status, error) {
	var statuses []project.Status
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND project_id = ?", tenantID, projectID).
		Order("sort_order ASC, name ASC").
		Find(&statuses).Error
	return statuses, err
}

// MaxOrder returns the highest sort order of the project
func (r *GormStatusRepository) MaxOrder(ctx context.Context, tenantID, projectID uuid.UUID) (int, error) {
	var max int
	err := r.db.WithContext(ctx).Model(&project.Status{}).
		Where("tenant_id = ? AND project_id = ?", tenantID, projectID).
		Select("COALESCE(MAX(sort_order), 0)").
		Scan(&max).Error
	return max, err
}

// ExistsByName reports whether the project has a status called name
func (r *GormStatusRepository) ExistsByName(ctx context.Context, tenantID, projectID uuid.UUID, name string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&project.Status{}).
		Where("tenant_id = ? AND project_id = ? AND LOWER(name) = LOWER(?)", tenantID, projectID, name).
		Count(&count).Error
	return count > 0, err
}

// Save creates or updates a status
func (r *GormStatusRepository) Save(ctx context.Context, s *project.Status) error {
	return conflictOnDuplicate(r.db.WithContext(ctx).Save(s).Error)
}

// Delete removes a status
func (r *GormStatusRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&project.Status{}, "tenant_id = ? AND id = ?", tenantID, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// GormChecklistRepository implements project.ChecklistRepository using GORM
type GormChecklistRepository struct {
	db *gorm.DB
}

// NewGormChecklistRepository creates a new GormChecklistRepository
func NewGormChecklistRepository(db *gorm.DB) *GormChecklistRepository {
	return &GormChecklistRepository{db: db}
}

// FindByID finds a checklist question of the tenant
func (r *GormChecklistRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*project.Checklist, error) {
	var c project.Checklist
	if err := r.db.WithContext(ctx).Where("tenant_id = ? AND id = ?", tenantID, id).First(&c).Error; err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

// FindByProject returns the project's questions in display order
func (r *GormChecklistRepository) FindByProject(ctx context.Context, tenantID, projectID uuid.UUID, activeOnly bool) ([]project.Checklist, error) {
	var items []project.Checklist
	query := r.db.WithContext(ctx).Where("tenant_id = ? AND project_id = ?", tenantID, projectID)
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	err := query.Order("sort_order ASC").Find(&items).Error
	return items, err
}

// MaxOrder returns the highest sort order of the project
func (r *GormChecklistRepository) MaxOrder(ctx context.Context, tenantID, projectID uuid.UUID) (int, error) {
	var max int
	err := r.db.WithContext(ctx).Model(&project.Checklist{}).
		Where("tenant_id = ? AND project_id = ?", tenantID, projectID).
		Select("COALESCE(MAX(sort_order), 0)").
		Scan(&max).Error
	return max, err
}

// Save creates or updates a question
func (r *GormChecklistRepository) Save(ctx context.Context, c *project.Checklist) error {
	return r.db.WithContext(ctx).Save(c).Error
}

// SaveBatch saves all items in one transaction
func (r *GormChecklistRepository) SaveBatch(ctx context.Context, items []project.Checklist) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range items {
			if err := tx.Save(&items[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

var (
	_ project.ProjectRepository   = (*GormProjectRepository)(nil)
	_ project.StatusRepository    = (*GormStatusRepository)(nil)
	_ project.ChecklistRepository = (*GormChecklistRepository)(nil)
)
