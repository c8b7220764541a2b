package certification

import (
	"context"

	"github.com/google/uuid"
	"github.com/projecta/backend/internal/domain/audit"
	"github.com/projecta/backend/internal/domain/shared"
)

// OrganisationRepository persists certifying organisations
type OrganisationRepository interface {
	// FindByID finds an organisation of the tenant
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*CertifyingOrganisation, error)
	// FindBySlug finds an organisation by its slug within a project
	FindBySlug(ctx context.Context, tenantID, projectID uuid.UUID, slug string) (*CertifyingOrganisation, error)
	// FindByProject lists organisations of a project. filter.Filters may hold
	// "workflow_state" and "is_active".
	FindByProject(ctx context.Context, tenantID, projectID uuid.UUID, filter shared.Filter) ([]CertifyingOrganisation, error)
	// CountByProject counts organisations of a project matching filter
	CountByProject(ctx context.Context, tenantID, projectID uuid.UUID, filter shared.Filter) (int64, error)
	// ExistsByName reports whether the project has an organisation called name
	ExistsByName(ctx context.Context, projectID uuid.UUID, name string, excludeID *uuid.UUID) (bool, error)
	// SlugExists reports whether slug is used in the project
	SlugExists(ctx context.Context, projectID uuid.UUID, slug string) (bool, error)
	// CountSlugs counts slugs equal to base or base-* in the project
	CountSlugs(ctx context.Context, projectID uuid.UUID, base string) (int64, error)
	// Create inserts a new organisation
	Create(ctx context.Context, org *CertifyingOrganisation) error
	// Update saves changes guarded by the optimistic version
	Update(ctx context.Context, org *CertifyingOrganisation) error
	// SaveTransition updates the organisation and appends the audit row in
	// one transaction
	SaveTransition(ctx context.Context, org *CertifyingOrganisation, change *audit.StatusChange) error
}

// ReviewerRepository persists external reviewers
type ReviewerRepository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*ExternalReviewer, error)
	// FindActiveByOrganisation returns reviewers whose access has not expired
	FindActiveByOrganisation(ctx context.Context, tenantID, organisationID uuid.UUID) ([]ExternalReviewer, error)
	Save(ctx context.Context, r *ExternalReviewer) error
}

// ChecklistAnswerRepository persists organisation checklist answers
type ChecklistAnswerRepository interface {
	FindByOrganisation(ctx context.Context, tenantID, organisationID uuid.UUID) ([]OrganisationChecklist, error)
	// SaveAll upserts answers keyed by (organisation, checklist)
	SaveAll(ctx context.Context, answers []OrganisationChecklist) error
}

// CourseRepository persists training centres, course types and courses
type CourseRepository interface {
	FindTrainingCenter(ctx context.Context, tenantID, id uuid.UUID) (*TrainingCenter, error)
	FindTrainingCenters(ctx context.Context, tenantID, organisationID uuid.UUID) ([]TrainingCenter, error)
	SaveTrainingCenter(ctx context.Context, tc *TrainingCenter) error

	FindCourseType(ctx context.Context, tenantID, id uuid.UUID) (*CourseType, error)
	FindCourseTypes(ctx context.Context, tenantID, organisationID uuid.UUID) ([]CourseType, error)
	SaveCourseType(ctx context.Context, ct *CourseType) error

	FindCourse(ctx context.Context, tenantID, id uuid.UUID) (*Course, error)
	FindCourses(ctx context.Context, tenantID, organisationID uuid.UUID) ([]Course, error)
	SaveCourse(ctx context.Context, c *Course) error

	// SlugExists reports whether slug is used by a row of table within the organisation
	SlugExists(ctx context.Context, table string, organisationID uuid.UUID, slug string) (bool, error)
	// CountSlugs counts slugs equal to base or base-* of table within the organisation
	CountSlugs(ctx context.Context, table string, organisationID uuid.UUID, base string) (int64, error)
}

// AttendeeRepository persists attendees and course enrolments
type AttendeeRepository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Attendee, error)
	// FindByOrganisation returns every attendee of the organisation
	FindByOrganisation(ctx context.Context, tenantID, organisationID uuid.UUID) ([]Attendee, error)
	// FindByCourse returns attendees enrolled in the course
	FindByCourse(ctx context.Context, tenantID, courseID uuid.UUID) ([]Attendee, error)
	Create(ctx context.Context, a *Attendee) error
	// CreateBatch inserts attendees and enrolments in one transaction.
	// Enrolments that already exist are skipped.
	CreateBatch(ctx context.Context, attendees []Attendee, enrolments []CourseAttendee) error
	// Enrol adds enrolments, skipping existing ones, and returns how many were new
	Enrol(ctx context.Context, enrolments []CourseAttendee) (int64, error)
}

// CertificateRepository persists certificates and allocates their ids
type CertificateRepository interface {
	FindByCertificateID(ctx context.Context, tenantID uuid.UUID, certificateID string) (*Certificate, error)
	FindByCourse(ctx context.Context, tenantID, courseID uuid.UUID) ([]Certificate, error)
	ExistsForAttendee(ctx context.Context, tenantID, courseID, attendeeID uuid.UUID) (bool, error)
	// Issue allocates the next id of scope and inserts the certificate built
	// from it in one transaction
	Issue(ctx context.Context, scope string, build func(certificateID string) (*Certificate, error)) (*Certificate, error)

	FindOrganisationCertificate(ctx context.Context, tenantID, organisationID uuid.UUID) (*OrganisationCertificate, error)
	FindOrganisationCertificateByID(ctx context.Context, tenantID uuid.UUID, certificateID string) (*OrganisationCertificate, error)
	IssueOrganisationCertificate(ctx context.Context, scope string, build func(certificateID string) (*OrganisationCertificate, error)) (*OrganisationCertificate, error)
}
