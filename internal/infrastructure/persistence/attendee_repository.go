package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/projecta/backend/internal/domain/certification"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormAttendeeRepository implements certification.AttendeeRepository using GORM
type GormAttendeeRepository struct {
	db *gorm.DB
}

// NewGormAttendeeRepository creates a new GormAttendeeRepository
func NewGormAttendeeRepository(db *gorm.DB) *GormAttendeeRepository {
	return &GormAttendeeRepository{db: db}
}

// FindByID finds an attendee of the tenant
func (r *GormAttendeeRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*certification.Attendee, error) {
	var a certification.Attendee
	if err := r.db.WithContext(ctx).Where("tenant_id = ? AND id = ?", tenantID, id).First(&a).Error; err != nil {
		return nil, notFound(err)
	}
	return &a, nil
}

// FindByOrganisation returns every attendee of the organisation
func (r *GormAttendeeRepository) FindByOrganisation(ctx context.Context, tenantID, organisationID uuid.UUID) ([]certification.Attendee, error) {
	var attendees []certification.Attendee
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND organisation_id = ?", tenantID, organisationID).
		Order("surname ASC, firstname ASC").
		Find(&attendees).Error
	return attendees, err
}

// FindByCourse returns attendees enrolled in the course
func (r *GormAttendeeRepository) FindByCourse(ctx context.Context, tenantID, courseID uuid.UUID) ([]certification.Attendee, error) {
	var attendees []certification.Attendee
	err := r.db.WithContext(ctx).
		Joins("JOIN course_attendees ca ON ca.attendee_id = attendees.id").
		Where("attendees.tenant_id = ? AND ca.course_id = ?", tenantID, courseID).
		Order("attendees.surname ASC, attendees.firstname ASC").
		Find(&attendees).Error
	return attendees, err
}

// Create inserts an attendee
func (r *GormAttendeeRepository) Create(ctx context.Context, a *certification.Attendee) error {
	return conflictOnDuplicate(r.db.WithContext(ctx).Create(a).Error)
}

// CreateBatch inserts attendees and enrolments in one transaction
func (r *GormAttendeeRepository) CreateBatch(ctx context.Context, attendees []certification.Attendee, enrolments []certification.CourseAttendee) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(attendees) > 0 {
			if err := tx.CreateInBatches(&attendees, 200).Error; err != nil {
				return conflictOnDuplicate(err)
			}
		}
		_, err := enrol(tx, enrolments)
		return err
	})
}

// Enrol adds enrolments, skipping existing ones, and returns how many were new
func (r *GormAttendeeRepository) Enrol(ctx context.Context, enrolments []certification.CourseAttendee) (int64, error) {
	return enrol(r.db.WithContext(ctx), enrolments)
}

func enrol(db *gorm.DB, enrolments []certification.CourseAttendee) (int64, error) {
	if len(enrolments) == 0 {
		return 0, nil
	}
	result := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "course_id"}, {Name: "attendee_id"}},
		DoNothing: true,
	}).Create(&enrolments)
	return result.RowsAffected, result.Error
}

var _ certification.AttendeeRepository = (*GormAttendeeRepository)(nil)
