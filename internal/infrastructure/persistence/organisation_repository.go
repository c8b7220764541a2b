package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/projecta/backend/internal/domain/audit"
	"github.com/projecta/backend/internal/domain/certification"
	"github.com/projecta/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormOrganisationRepository implements certification.OrganisationRepository using GORM
type GormOrganisationRepository struct {
	db *gorm.DB
}

// NewGormOrganisationRepository creates a new GormOrganisationRepository
func NewGormOrganisationRepository(db *gorm.DB) *GormOrganisationRepository {
	return &GormOrganisationRepository{db: db}
}

// FindByID finds an organisation of the tenant
func (r *GormOrganisationRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*certification.CertifyingOrganisation, error) {
	var org certification.CertifyingOrganisation
	if err := r.db.WithContext(ctx).Where("tenant_id = ? AND id = ?", tenantID, id).First(&org).Error; err != nil {
		return nil, notFound(err)
	}
	return &org, nil
}

// FindBySlug finds an organisation by its slug within a project
func (r *GormOrganisationRepository) FindBySlug(ctx context.Context, tenantID, projectID uuid.UUID, slug string) (*certification.CertifyingOrganisation, error) {
	var org certification.CertifyingOrganisation
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND project_id = ? AND slug = ?", tenantID, projectID, slug).
		First(&org).Error; err != nil {
		return nil, notFound(err)
	}
	return &org, nil
}

// FindByProject lists organisations of a project
func (r *GormOrganisationRepository) FindByProject(ctx context.Context, tenantID, projectID uuid.UUID, filter shared.Filter) ([]certification.CertifyingOrganisation, error) {
	var orgs []certification.CertifyingOrganisation
	query := r.scoped(ctx, tenantID, projectID, filter)
	if err := paginate(query, filter, OrganisationSortFields, "name").Find(&orgs).Error; err != nil {
		return nil, err
	}
	return orgs, nil
}

// CountByProject counts organisations of a project matching filter
func (r *GormOrganisationRepository) CountByProject(ctx context.Context, tenantID, projectID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	if err := r.scoped(ctx, tenantID, projectID, filter).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// ExistsByName reports whether the project already has an organisation
// called name, ignoring case. excludeID skips the organisation being renamed.
func (r *GormOrganisationRepository) ExistsByName(ctx context.Context, projectID uuid.UUID, name string, excludeID *uuid.UUID) (bool, error) {
	query := r.db.WithContext(ctx).Model(&certification.CertifyingOrganisation{}).
		Where("project_id = ? AND LOWER(name) = LOWER(?)", projectID, name)
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// SlugExists reports whether slug is used in the project
func (r *GormOrganisationRepository) SlugExists(ctx context.Context, projectID uuid.UUID, slug string) (bool, error) {
	return scopedSlugExists(ctx, r.db, "certifying_organisations", projectID, slug)
}

// CountSlugs counts slugs equal to base or base-* in the project
func (r *GormOrganisationRepository) CountSlugs(ctx context.Context, projectID uuid.UUID, base string) (int64, error) {
	return scopedSlugCount(ctx, r.db, "certifying_organisations", projectID, base)
}

// Create inserts a new organisation
func (r *GormOrganisationRepository) Create(ctx context.Context, org *certification.CertifyingOrganisation) error {
	return conflictOnDuplicate(r.db.WithContext(ctx).Create(org).Error)
}

// Update saves changes guarded by the optimistic version
func (r *GormOrganisationRepository) Update(ctx context.Context, org *certification.CertifyingOrganisation) error {
	return updateVersioned(r.db.WithContext(ctx), org, org.Version)
}

// SaveTransition updates the organisation and appends the audit row in one transaction
func (r *GormOrganisationRepository) SaveTransition(ctx context.Context, org *certification.CertifyingOrganisation, change *audit.StatusChange) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := updateVersioned(tx, org, org.Version); err != nil {
			return err
		}
		return tx.Create(change).Error
	})
}

func (r *GormOrganisationRepository) scoped(ctx context.Context, tenantID, projectID uuid.UUID, filter shared.Filter) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&certification.CertifyingOrganisation{}).
		Where("tenant_id = ? AND project_id = ?", tenantID, projectID)
	if filter.Search != "" {
		p := searchPattern(filter.Search)
		query = query.Where("LOWER(name) LIKE ? OR LOWER(country) LIKE ?", p, p)
	}
	for key, value := range filter.Filters {
		switch key {
		case "workflow_state":
			query = query.Where("workflow_state = ?", value)
		case "is_active":
			query = query.Where("is_active = ?", value)
		case "country":
			query = query.Where("country = ?", value)
		}
	}
	return query
}

// GormReviewerRepository implements certification.ReviewerRepository using GORM
type GormReviewerRepository struct {
	db *gorm.DB
}

// NewGormReviewerRepository creates a new GormReviewerRepository
func NewGormReviewerRepository(db *gorm.DB) *GormReviewerRepository {
	return &GormReviewerRepository{db: db}
}

// FindByID finds a reviewer of the tenant
func (r *GormReviewerRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*certification.ExternalReviewer, error) {
	var rev certification.ExternalReviewer
	if err := r.db.WithContext(ctx).Where("tenant_id = ? AND id = ?", tenantID, id).First(&rev).Error; err != nil {
		return nil, notFound(err)
	}
	return &rev, nil
}

// FindActiveByOrganisation returns reviewers whose access has not expired
func (r *GormReviewerRepository) FindActiveByOrganisation(ctx context.Context, tenantID, organisationID uuid.UUID) ([]certification.ExternalReviewer, error) {
	var reviewers []certification.ExternalReviewer
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND organisation_id = ? AND session_expiry > ?", tenantID, organisationID, time.Now()).
		Order("session_expiry DESC").
		Find(&reviewers).Error
	return reviewers, err
}

// Save creates or updates a reviewer
func (r *GormReviewerRepository) Save(ctx context.Context, rev *certification.ExternalReviewer) error {
	return r.db.WithContext(ctx).Save(rev).Error
}

var (
	_ certification.OrganisationRepository = (*GormOrganisationRepository)(nil)
	_ certification.ReviewerRepository     = (*GormReviewerRepository)(nil)
)
