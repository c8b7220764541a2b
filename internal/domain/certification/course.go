package certification

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/projecta/backend/internal/domain/shared"
)

// TrainingCenter is a venue of a certifying organisation
type TrainingCenter struct {
	shared.TenantEntity
	OrganisationID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_training_center_slug,priority:1"`
	Name           string    `gorm:"type:varchar(200);not null"`
	Slug           string    `gorm:"type:varchar(50);not null;uniqueIndex:idx_training_center_slug,priority:2"`
	Email          string    `gorm:"type:varchar(200)"`
	Address        string    `gorm:"type:text"`
	Phone          string    `gorm:"type:varchar(50)"`
}

// TableName returns the table name for GORM
func (TrainingCenter) TableName() string {
	return "training_centers"
}

// NewTrainingCenter creates a training centre
func NewTrainingCenter(tenantID, organisationID uuid.UUID, name, slug, email, address, phone string) (*TrainingCenter, error) {
	name = strings.TrimSpace(name)
	if organisationID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ORGANISATION", "Organisation ID cannot be empty")
	}
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Training center name cannot be empty")
	}
	if slug == "" {
		return nil, shared.ErrEmptySlug
	}
	if email != "" {
		if err := shared.ValidateEmail(email); err != nil {
			return nil, err
		}
	}
	return &TrainingCenter{
		TenantEntity:   shared.NewTenantEntity(tenantID),
		OrganisationID: organisationID,
		Name:           name,
		Slug:           slug,
		Email:          email,
		Address:        address,
		Phone:          phone,
	}, nil
}

// CourseType is a kind of course an organisation teaches
type CourseType struct {
	shared.TenantEntity
	OrganisationID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_course_type_slug,priority:1"`
	Name             string    `gorm:"type:varchar(200);not null"`
	Slug             string    `gorm:"type:varchar(50);not null;uniqueIndex:idx_course_type_slug,priority:2"`
	Description      string    `gorm:"type:text"`
	InstructionHours string    `gorm:"type:varchar(50)"`
	Coordinator      string    `gorm:"type:varchar(200)"`
}

// TableName returns the table name for GORM
func (CourseType) TableName() string {
	return "course_types"
}

// NewCourseType creates a course type
func NewCourseType(tenantID, organisationID uuid.UUID, name, slug, description, hours, coordinator string) (*CourseType, error) {
	name = strings.TrimSpace(name)
	if organisationID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ORGANISATION", "Organisation ID cannot be empty")
	}
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Course type name cannot be empty")
	}
	if slug == "" {
		return nil, shared.ErrEmptySlug
	}
	return &CourseType{
		TenantEntity:     shared.NewTenantEntity(tenantID),
		OrganisationID:   organisationID,
		Name:             name,
		Slug:             slug,
		Description:      description,
		InstructionHours: hours,
		Coordinator:      coordinator,
	}, nil
}

// Course is one run of a course type at a training centre
type Course struct {
	shared.TenantEntity
	OrganisationID    uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_course_slug,priority:1"`
	CourseTypeID      uuid.UUID `gorm:"type:uuid;not null;index"`
	TrainingCenterID  uuid.UUID `gorm:"type:uuid;not null;index"`
	TrainedCompetence string    `gorm:"type:varchar(255)"`
	Language          string    `gorm:"type:varchar(50)"`
	StartDate         time.Time `gorm:"type:date;not null"`
	EndDate           time.Time `gorm:"type:date;not null"`
	Slug              string    `gorm:"type:varchar(50);not null;uniqueIndex:idx_course_slug,priority:2"`
}

// TableName returns the table name for GORM
func (Course) TableName() string {
	return "courses"
}

// CourseSlugSource is the text a course slug is derived from
func CourseSlugSource(courseType, trainingCenter string, start, end time.Time) string {
	return fmt.Sprintf("%s %s %s %s", courseType, trainingCenter, start.Format("2006-01-02"), end.Format("2006-01-02"))
}

// NewCourse creates a course. EndDate may equal StartDate for one-day courses.
func NewCourse(tenantID, organisationID, courseTypeID, trainingCenterID uuid.UUID, slug, competence, language string, start, end time.Time) (*Course, error) {
	if organisationID == uuid.Nil || courseTypeID == uuid.Nil || trainingCenterID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_COURSE", "Course needs an organisation, course type and training center")
	}
	if start.IsZero() || end.IsZero() {
		return nil, shared.NewDomainError("INVALID_DATES", "Course start and end dates are required")
	}
	if end.Before(start) {
		return nil, shared.NewDomainError("INVALID_DATES", "Course end date cannot be before start date")
	}
	if slug == "" {
		return nil, shared.ErrEmptySlug
	}
	return &Course{
		TenantEntity:      shared.NewTenantEntity(tenantID),
		OrganisationID:    organisationID,
		CourseTypeID:      courseTypeID,
		TrainingCenterID:  trainingCenterID,
		TrainedCompetence: competence,
		Language:          language,
		StartDate:         start,
		EndDate:           end,
		Slug:              slug,
	}, nil
}
