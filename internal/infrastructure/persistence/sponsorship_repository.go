package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/projecta/backend/internal/domain/audit"
	"github.com/projecta/backend/internal/domain/shared"
	"github.com/projecta/backend/internal/domain/sponsorship"
	"gorm.io/gorm"
)

// GormSponsorRepository implements sponsorship.SponsorRepository using GORM
type GormSponsorRepository struct {
	db *gorm.DB
}

// NewGormSponsorRepository creates a new GormSponsorRepository
func NewGormSponsorRepository(db *gorm.DB) *GormSponsorRepository {
	return &GormSponsorRepository{db: db}
}

// FindByID finds a sponsor of the tenant
func (r *GormSponsorRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*sponsorship.Sponsor, error) {
	var s sponsorship.Sponsor
	if err := r.db.WithContext(ctx).Where("tenant_id = ? AND id = ?", tenantID, id).First(&s).Error; err != nil {
		return nil, notFound(err)
	}
	return &s, nil
}

// FindByProject lists sponsors of a project
func (r *GormSponsorRepository) FindByProject(ctx context.Context, tenantID, projectID uuid.UUID, approvedOnly bool) ([]sponsorship.Sponsor, error) {
	var sponsors []sponsorship.Sponsor
	query := r.db.WithContext(ctx).Where("tenant_id = ? AND project_id = ?", tenantID, projectID)
	if approvedOnly {
		query = query.Where("workflow_state = ?", shared.ApprovalApproved)
	}
	err := query.Order("name ASC").Find(&sponsors).Error
	return sponsors, err
}

// SlugExists reports whether slug is used by a row of table in the project
func (r *GormSponsorRepository) SlugExists(ctx context.Context, table string, projectID uuid.UUID, slug string) (bool, error) {
	return scopedSlugExists(ctx, r.db, table, projectID, slug)
}

// CountSlugs counts slugs equal to base or base-* of table in the project
func (r *GormSponsorRepository) CountSlugs(ctx context.Context, table string, projectID uuid.UUID, base string) (int64, error) {
	return scopedSlugCount(ctx, r.db, table, projectID, base)
}

// Create inserts a sponsor
func (r *GormSponsorRepository) Create(ctx context.Context, s *sponsorship.Sponsor) error {
	return conflictOnDuplicate(r.db.WithContext(ctx).Create(s).Error)
}

// SaveTransition updates the sponsor and appends the audit row in one transaction
func (r *GormSponsorRepository) SaveTransition(ctx context.Context, s *sponsorship.Sponsor, change *audit.StatusChange) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := updateVersioned(tx, s, s.Version); err != nil {
			return err
		}
		return tx.Create(change).Error
	})
}

// FindLevel finds a sponsorship level of the tenant
func (r *GormSponsorRepository) FindLevel(ctx context.Context, tenantID, id uuid.UUID) (*sponsorship.SponsorshipLevel, error) {
	var l sponsorship.SponsorshipLevel
	if err := r.db.WithContext(ctx).Where("tenant_id = ? AND id = ?", tenantID, id).First(&l).Error; err != nil {
		return nil, notFound(err)
	}
	return &l, nil
}

// FindLevels lists a project's levels, highest value first
func (r *GormSponsorRepository) FindLevels(ctx context.Context, tenantID, projectID uuid.UUID) ([]sponsorship.SponsorshipLevel, error) {
	var levels []sponsorship.SponsorshipLevel
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND project_id = ?", tenantID, projectID).
		Order("value DESC").
		Find(&levels).Error
	return levels, err
}

// CreateLevel inserts a level
func (r *GormSponsorRepository) CreateLevel(ctx context.Context, l *sponsorship.SponsorshipLevel) error {
	return conflictOnDuplicate(r.db.WithContext(ctx).Create(l).Error)
}

// GormPeriodRepository implements sponsorship.PeriodRepository using GORM
type GormPeriodRepository struct {
	db *gorm.DB
}

// NewGormPeriodRepository creates a new GormPeriodRepository
func NewGormPeriodRepository(db *gorm.DB) *GormPeriodRepository {
	return &GormPeriodRepository{db: db}
}

// FindByID finds a period of the tenant
func (r *GormPeriodRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*sponsorship.SponsorshipPeriod, error) {
	var p sponsorship.SponsorshipPeriod
	if err := r.db.WithContext(ctx).Where("tenant_id = ? AND id = ?", tenantID, id).First(&p).Error; err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

// FindBySponsor lists a sponsor's periods, latest first
func (r *GormPeriodRepository) FindBySponsor(ctx context.Context, tenantID, sponsorID uuid.UUID) ([]sponsorship.SponsorshipPeriod, error) {
	var periods []sponsorship.SponsorshipPeriod
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND sponsor_id = ?", tenantID, sponsorID).
		Order("start_date DESC").
		Find(&periods).Error
	return periods, err
}

// FindWithSubscription returns periods of every tenant billed by a subscription
func (r *GormPeriodRepository) FindWithSubscription(ctx context.Context) ([]sponsorship.SponsorshipPeriod, error) {
	var periods []sponsorship.SponsorshipPeriod
	err := r.db.WithContext(ctx).
		Where("stripe_subscription_id <> ''").
		Where("subscription_status IS NULL OR subscription_status NOT IN ?",
			[]sponsorship.SubscriptionStatus{sponsorship.SubscriptionCanceled, sponsorship.SubscriptionExpired}).
		Find(&periods).Error
	return periods, err
}

// Create inserts a period
func (r *GormPeriodRepository) Create(ctx context.Context, p *sponsorship.SponsorshipPeriod) error {
	return conflictOnDuplicate(r.db.WithContext(ctx).Create(p).Error)
}

// Update saves changes guarded by the optimistic version
func (r *GormPeriodRepository) Update(ctx context.Context, p *sponsorship.SponsorshipPeriod) error {
	return updateVersioned(r.db.WithContext(ctx), p, p.Version)
}

// SaveTransition updates the period and appends the audit row in one transaction
func (r *GormPeriodRepository) SaveTransition(ctx context.Context, p *sponsorship.SponsorshipPeriod, change *audit.StatusChange) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := updateVersioned(tx, p, p.Version); err != nil {
			return err
		}
		return tx.Create(change).Error
	})
}

// updateVersioned writes every column of model when the stored version is
// the one it was loaded with.
func updateVersioned(db *gorm.DB, model any, version int) error {
	result := db.Model(model).
		Where("version = ?", version-1).
		Select("*").
		Updates(model)
	if result.Error != nil {
		return conflictOnDuplicate(result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

var (
	_ sponsorship.SponsorRepository = (*GormSponsorRepository)(nil)
	_ sponsorship.PeriodRepository  = (*GormPeriodRepository)(nil)
)
