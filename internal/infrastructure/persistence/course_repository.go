package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/projecta/backend/internal/domain/certification"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormCourseRepository implements certification.CourseRepository using GORM
type GormCourseRepository struct {
	db *gorm.DB
}

// NewGormCourseRepository creates a new GormCourseRepository
func NewGormCourseRepository(db *gorm.DB) *GormCourseRepository {
	return &GormCourseRepository{db: db}
}

// FindTrainingCenter finds a training centre of the tenant
func (r *GormCourseRepository) FindTrainingCenter(ctx context.Context, tenantID, id uuid.UUID) (*certification.TrainingCenter, error) {
	var tc certification.TrainingCenter
	if err := r.db.WithContext(ctx).Where("tenant_id = ? AND id = ?", tenantID, id).First(&tc).Error; err != nil {
		return nil, notFound(err)
	}
	return &tc, nil
}

// FindTrainingCenters lists the organisation's training centres
func (r *GormCourseRepository) FindTrainingCenters(ctx context.Context, tenantID, organisationID uuid.UUID) ([]certification.TrainingCenter, error) {
	var centers []certification.TrainingCenter
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND organisation_id = ?", tenantID, organisationID).
		Order("name ASC").
		Find(&centers).Error
	return centers, err
}

// SaveTrainingCenter creates or updates a training centre
func (r *GormCourseRepository) SaveTrainingCenter(ctx context.Context, tc *certification.TrainingCenter) error {
	return conflictOnDuplicate(r.db.WithContext(ctx).Save(tc).Error)
}

// FindCourseType finds a course type of the tenant
func (r *GormCourseRepository) FindCourseType(ctx context.Context, tenantID, id uuid.UUID) (*certification.CourseType, error) {
	var ct certification.CourseType
	if err := r.db.WithContext(ctx).Where("tenant_id = ? AND id = ?", tenantID, id).First(&ct).Error; err != nil {
		return nil, notFound(err)
	}
	return &ct, nil
}

// FindCourseTypes lists the organisation's course types
func (r *GormCourseRepository) FindCourseTypes(ctx context.Context, tenantID, organisationID uuid.UUID) ([]certification.CourseType, error) {
	var types []certification.CourseType
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND organisation_id = ?", tenantID, organisationID).
		Order("name ASC").
		Find(&types).Error
	return types, err
}

// SaveCourseType creates or updates a course type
func (r *GormCourseRepository) SaveCourseType(ctx context.Context, ct *certification.CourseType) error {
	return conflictOnDuplicate(r.db.WithContext(ctx).Save(ct).Error)
}

// FindCourse finds a course of the tenant
func (r *GormCourseRepository) FindCourse(ctx context.Context, tenantID, id uuid.UUID) (*certification.Course, error) {
	var c certification.Course
	if err := r.db.WithContext(ctx).Where("tenant_id = ? AND id = ?", tenantID, id).First(&c).Error; err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

// FindCourses lists the organisation's courses, most recent first
func (r *GormCourseRepository) FindCourses(ctx context.Context, tenantID, organisationID uuid.UUID) ([]certification.Course, error) {
	var courses []certification.Course
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND organisation_id = ?", tenantID, organisationID).
		Order("start_date DESC").
		Find(&courses).Error
	return courses, err
}

// SaveCourse creates or updates a course
func (r *GormCourseRepository) SaveCourse(ctx context.Context, c *certification.Course) error {
	return conflictOnDuplicate(r.db.WithContext(ctx).Save(c).Error)
}

// SlugExists reports whether slug is used by a row of table within the organisation
func (r *GormCourseRepository) SlugExists(ctx context.Context, table string, organisationID uuid.UUID, slug string) (bool, error) {
	return scopedSlugExists(ctx, r.db, table, organisationID, slug)
}

// CountSlugs counts slugs equal to base or base-* of table within the organisation
func (r *GormCourseRepository) CountSlugs(ctx context.Context, table string, organisationID uuid.UUID, base string) (int64, error) {
	return scopedSlugCount(ctx, r.db, table, organisationID, base)
}

// GormChecklistAnswerRepository implements certification.ChecklistAnswerRepository using GORM
type GormChecklistAnswerRepository struct {
	db *gorm.DB
}

// NewGormChecklistAnswerRepository creates a new GormChecklistAnswerRepository
func NewGormChecklistAnswerRepository(db *gorm.DB) *GormChecklistAnswerRepository {
	return &GormChecklistAnswerRepository{db: db}
}

// FindByOrganisation returns the organisation's answers
func (r *GormChecklistAnswerRepository) FindByOrganisation(ctx context.Context, tenantID, organisationID uuid.UUID) ([]certification.OrganisationChecklist, error) {
	var answers []certification.OrganisationChecklist
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND organisation_id = ?", tenantID, organisationID).
		Find(&answers).Error
	return answers, err
}

// SaveAll upserts answers keyed by (organisation, checklist)
func (r *GormChecklistAnswerRepository) SaveAll(ctx context.Context, answers []certification.OrganisationChecklist) error {
	if len(answers) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "organisation_id"}, {Name: "checklist_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"checked", "text_box_content", "answered_by", "updated_at"}),
		}).
		Create(&answers).Error
}

var (
	_ certification.CourseRepository          = (*GormCourseRepository)(nil)
	_ certification.ChecklistAnswerRepository = (*GormChecklistAnswerRepository)(nil)
)
