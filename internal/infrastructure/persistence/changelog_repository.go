package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/projecta/backend/internal/domain/changelog"
	"gorm.io/gorm"
)

// GormChangelogRepository implements changelog.Repository using GORM
type GormChangelogRepository struct {
	db *gorm.DB
}

// NewGormChangelogRepository creates a new GormChangelogRepository
func NewGormChangelogRepository(db *gorm.DB) *GormChangelogRepository {
	return &GormChangelogRepository{db: db}
}

// FindVersion finds a version of the tenant
func (r *GormChangelogRepository) FindVersion(ctx context.Context, tenantID, id uuid.UUID) (*changelog.Version, error) {
	var v changelog.Version
	if err := r.db.WithContext(ctx).Where("tenant_id = ? AND id = ?", tenantID, id).First(&v).Error; err != nil {
		return nil, notFound(err)
	}
	return &v, nil
}

// FindVersions lists versions of a project, newest first
func (r *GormChangelogRepository) FindVersions(ctx context.Context, tenantID, projectID uuid.UUID) ([]changelog.Version, error) {
	var versions []changelog.Version
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND project_id = ?", tenantID, projectID).
		Order("release_date DESC").
		Order("created_at DESC").
		Find(&versions).Error
	return versions, err
}

// SaveVersion creates or updates a version
func (r *GormChangelogRepository) SaveVersion(ctx context.Context, v *changelog.Version) error {
	return conflictOnDuplicate(r.db.WithContext(ctx).Save(v).Error)
}

// FindCategory finds a category of the tenant
func (r *GormChangelogRepository) FindCategory(ctx context.Context, tenantID, id uuid.UUID) (*changelog.Category, error) {
	var c changelog.Category
	if err := r.db.WithContext(ctx).Where("tenant_id = ? AND id = ?", tenantID, id).First(&c).Error; err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

// FindCategories lists a project's categories in sort order
func (r *GormChangelogRepository) FindCategories(ctx context.Context, tenantID, projectID uuid.UUID) ([]changelog.Category, error) {
	var categories []changelog.Category
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND project_id = ?", tenantID, projectID).
		Order("sort_number ASC").
		Find(&categories).Error
	return categories, err
}

// MaxCategorySort returns the highest category position of the project
func (r *GormChangelogRepository) MaxCategorySort(ctx context.Context, tenantID, projectID uuid.UUID) (int, error) {
	var max int
	err := r.db.WithContext(ctx).Model(&changelog.Category{}).
		Where("tenant_id = ? AND project_id = ?", tenantID, projectID).
		Select("COALESCE(MAX(sort_number), 0)").
		Scan(&max).Error
	return max, err
}

// SaveCategory creates or updates a category
func (r *GormChangelogRepository) SaveCategory(ctx context.Context, c *changelog.Category) error {
	return conflictOnDuplicate(r.db.WithContext(ctx).Save(c).Error)
}

// FindEntry finds an entry of the tenant
func (r *GormChangelogRepository) FindEntry(ctx context.Context, tenantID, id uuid.UUID) (*changelog.Entry, error) {
	var e changelog.Entry
	if err := r.db.WithContext(ctx).Where("tenant_id = ? AND id = ?", tenantID, id).First(&e).Error; err != nil {
		return nil, notFound(err)
	}
	return &e, nil
}

// FindEntries lists entries of a version ordered by category then entry sort
func (r *GormChangelogRepository) FindEntries(ctx context.Context, tenantID, versionID uuid.UUID) ([]changelog.Entry, error) {
	var entries []changelog.Entry
	err := r.db.WithContext(ctx).
		Joins("JOIN changelog_categories cc ON cc.id = changelog_entries.category_id").
		Where("changelog_entries.tenant_id = ? AND changelog_entries.version_id = ?", tenantID, versionID).
		Order("cc.sort_number ASC").
		Order("changelog_entries.sort_number ASC").
		Find(&entries).Error
	return entries, err
}

// MaxEntrySort returns the highest entry position of the version
func (r *GormChangelogRepository) MaxEntrySort(ctx context.Context, tenantID, versionID uuid.UUID) (int, error) {
	var max int
	err := r.db.WithContext(ctx).Model(&changelog.Entry{}).
		Where("tenant_id = ? AND version_id = ?", tenantID, versionID).
		Select("COALESCE(MAX(sort_number), 0)").
		Scan(&max).Error
	return max, err
}

// SaveEntry creates or updates an entry
func (r *GormChangelogRepository) SaveEntry(ctx context.Context, e *changelog.Entry) error {
	return r.db.WithContext(ctx).Save(e).Error
}

// SlugExists reports whether slug is used by a row of table in the project
func (r *GormChangelogRepository) SlugExists(ctx context.Context, table string, projectID uuid.UUID, slug string) (bool, error) {
	return scopedSlugExists(ctx, r.db, table, projectID, slug)
}

// CountSlugs counts slugs equal to base or base-* of table in the project
func (r *GormChangelogRepository) CountSlugs(ctx context.Context, table string, projectID uuid.UUID, base string) (int64, error) {
	return scopedSlugCount(ctx, r.db, table, projectID, base)
}

var _ changelog.Repository = (*GormChangelogRepository)(nil)
