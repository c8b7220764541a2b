package certification

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/projecta/backend/internal/domain/audit"
	"github.com/projecta/backend/internal/domain/certification"
	"github.com/projecta/backend/internal/domain/project"
	"github.com/projecta/backend/internal/domain/shared"
	"github.com/projecta/backend/internal/infrastructure/printing"
	"github.com/stretchr/testify/mock"
)

// Mock implementations

type mockOrganisationRepository struct {
	mock.Mock
}

func (m *mockOrganisationRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*certification.CertifyingOrganisation, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*certification.CertifyingOrganisation), args.Error(1)
}

func (m *mockOrganisationRepository) FindBySlug(ctx context.Context, tenantID, projectID uuid.UUID, slug string) (*certification.CertifyingOrganisation, error) {
	args := m.Called(ctx, tenantID, projectID, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*certification.CertifyingOrganisation), args.Error(1)
}

func (m *mockOrganisationRepository) FindByProject(ctx context.Context, tenantID, projectID uuid.UUID, filter shared.Filter) ([]certification.CertifyingOrganisation, error) {
	args := m.Called(ctx, tenantID, projectID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]certification.CertifyingOrganisation), args.Error(1)
}

func (m *mockOrganisationRepository) CountByProject(ctx context.Context, tenantID, projectID uuid.UUID, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, tenantID, projectID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockOrganisationRepository) ExistsByName(ctx context.Context, projectID uuid.UUID, name string, excludeID *uuid.UUID) (bool, error) {
	args := m.Called(ctx, projectID, name, excludeID)
	return args.Bool(0), args.Error(1)
}

func (m *mockOrganisationRepository) SlugExists(ctx context.Context, projectID uuid.UUID, slug string) (bool, error) {
	args := m.Called(ctx, projectID, slug)
	return args.Bool(0), args.Error(1)
}

func (m *mockOrganisationRepository) CountSlugs(ctx context.Context, projectID uuid.UUID, base string) (int64, error) {
	args := m.Called(ctx, projectID, base)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockOrganisationRepository) Create(ctx context.Context, org *certification.CertifyingOrganisation) error {
	args := m.Called(ctx, org)
	return args.Error(0)
}

func (m *mockOrganisationRepository) Update(ctx context.Context, org *certification.CertifyingOrganisation) error {
	args := m.Called(ctx, org)
	return args.Error(0)
}

func (m *mockOrganisationRepository) SaveTransition(ctx context.Context, org *certification.CertifyingOrganisation, change *audit.StatusChange) error {
	args := m.Called(ctx, org, change)
	return args.Error(0)
}

type mockProjectRepository struct {
	mock.Mock
}

func (m *mockProjectRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*project.Project, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*project.Project), args.Error(1)
}

func (m *mockProjectRepository) FindBySlug(ctx context.Context, slug string) (*project.Project, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*project.Project), args.Error(1)
}

func (m *mockProjectRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]project.Project, error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]project.Project), args.Error(1)
}

func (m *mockProjectRepository) Count(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockProjectRepository) Save(ctx context.Context, p *project.Project) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *mockProjectRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	args := m.Called(ctx, slug)
	return args.Bool(0), args.Error(1)
}

func (m *mockProjectRepository) CountSlugs(ctx context.Context, base string) (int64, error) {
	args := m.Called(ctx, base)
	return args.Get(0).(int64), args.Error(1)
}

type mockStatusRepository struct {
	mock.Mock
}

func (m *mockStatusRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*project.Status, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*project.Status), args.Error(1)
}

func (m *mockStatusRepository) FindByProject(ctx context.Context, tenantID, projectID uuid.UUID) ([]project.Status, error) {
	args := m.Called(ctx, tenantID, projectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]project.Status), args.Error(1)
}

func (m *mockStatusRepository) MaxOrder(ctx context.Context, tenantID, projectID uuid.UUID) (int, error) {
	args := m.Called(ctx, tenantID, projectID)
	return args.Int(0), args.Error(1)
}

func (m *mockStatusRepository) ExistsByName(ctx context.Context, tenantID, projectID uuid.UUID, name string) (bool, error) {
	args := m.Called(ctx, tenantID, projectID, name)
	return args.Bool(0), args.Error(1)
}

func (m *mockStatusRepository) Save(ctx context.Context, s *project.Status) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *mockStatusRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	args := m.Called(ctx, tenantID, id)
	return args.Error(0)
}

type mockChecklistRepository struct {
	mock.Mock
}

func (m *mockChecklistRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*project.Checklist, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*project.Checklist), args.Error(1)
}

func (m *mockChecklistRepository) FindByProject(ctx context.Context, tenantID, projectID uuid.UUID, activeOnly bool) ([]project.Checklist, error) {
	args := m.Called(ctx, tenantID, projectID, activeOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]project.Checklist), args.Error(1)
}

func (m *mockChecklistRepository) MaxOrder(ctx context.Context, tenantID, projectID uuid.UUID) (int, error) {
	args := m.Called(ctx, tenantID, projectID)
	return args.Int(0), args.Error(1)
}

func (m *mockChecklistRepository) Save(ctx context.Context, c *project.Checklist) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *mockChecklistRepository) SaveBatch(ctx context.Context, items []project.Checklist) error {
	args := m.Called(ctx, items)
	return args.Error(0)
}

type mockAnswerRepository struct {
	mock.Mock
}

func (m *mockAnswerRepository) FindByOrganisation(ctx context.Context, tenantID, organisationID uuid.UUID) ([]certification.OrganisationChecklist, error) {
	args := m.Called(ctx, tenantID, organisationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]certification.OrganisationChecklist), args.Error(1)
}

func (m *mockAnswerRepository) SaveAll(ctx context.Context, answers []certification.OrganisationChecklist) error {
	args := m.Called(ctx, answers)
	return args.Error(0)
}

type mockReviewerRepository struct {
	mock.Mock
}

func (m *mockReviewerRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*certification.ExternalReviewer, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*certification.ExternalReviewer), args.Error(1)
}

func (m *mockReviewerRepository) FindActiveByOrganisation(ctx context.Context, tenantID, organisationID uuid.UUID) ([]certification.ExternalReviewer, error) {
	args := m.Called(ctx, tenantID, organisationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]certification.ExternalReviewer), args.Error(1)
}

func (m *mockReviewerRepository) Save(ctx context.Context, r *certification.ExternalReviewer) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

type mockHistoryRepository struct {
	mock.Mock
}

func (m *mockHistoryRepository) FindByAggregate(ctx context.Context, tenantID uuid.UUID, aggregateType string, aggregateID uuid.UUID) ([]audit.StatusChange, error) {
	args := m.Called(ctx, tenantID, aggregateType, aggregateID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]audit.StatusChange), args.Error(1)
}

type mockCourseRepository struct {
	mock.Mock
}

func (m *mockCourseRepository) FindTrainingCenter(ctx context.Context, tenantID, id uuid.UUID) (*certification.TrainingCenter, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*certification.TrainingCenter), args.Error(1)
}

func (m *mockCourseRepository) FindTrainingCenters(ctx context.Context, tenantID, organisationID uuid.UUID) ([]certification.TrainingCenter, error) {
	args := m.Called(ctx, tenantID, organisationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]certification.TrainingCenter), args.Error(1)
}

func (m *mockCourseRepository) SaveTrainingCenter(ctx context.Context, tc *certification.TrainingCenter) error {
	args := m.Called(ctx, tc)
	return args.Error(0)
}

func (m *mockCourseRepository) FindCourseType(ctx context.Context, tenantID, id uuid.UUID) (*certification.CourseType, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*certification.CourseType), args.Error(1)
}

func (m *mockCourseRepository) FindCourseTypes(ctx context.Context, tenantID, organisationID uuid.UUID) ([]certification.CourseType, error) {
	args := m.Called(ctx, tenantID, organisationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]certification.CourseType), args.Error(1)
}

func (m *mockCourseRepository) SaveCourseType(ctx context.Context, ct *certification.CourseType) error {
	args := m.Called(ctx, ct)
	return args.Error(0)
}

func (m *mockCourseRepository) FindCourse(ctx context.Context, tenantID, id uuid.UUID) (*certification.Course, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*certification.Course), args.Error(1)
}

func (m *mockCourseRepository) FindCourses(ctx context.Context, tenantID, organisationID uuid.UUID) ([]certification.Course, error) {
	args := m.Called(ctx, tenantID, organisationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]certification.Course), args.Error(1)
}

func (m *mockCourseRepository) SaveCourse(ctx context.Context, c *certification.Course) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *mockCourseRepository) SlugExists(ctx context.Context, table string, organisationID uuid.UUID, slug string) (bool, error) {
	args := m.Called(ctx, table, organisationID, slug)
	return args.Bool(0), args.Error(1)
}

func (m *mockCourseRepository) CountSlugs(ctx context.Context, table string, organisationID uuid.UUID, base string) (int64, error) {
	args := m.Called(ctx, table, organisationID, base)
	return args.Get(0).(int64), args.Error(1)
}

type mockAttendeeRepository struct {
	mock.Mock
}

func (m *mockAttendeeRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*certification.Attendee, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*certification.Attendee), args.Error(1)
}

func (m *mockAttendeeRepository) FindByOrganisation(ctx context.Context, tenantID, organisationID uuid.UUID) ([]certification.Attendee, error) {
	args := m.Called(ctx, tenantID, organisationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]certification.Attendee), args.Error(1)
}

func (m *mockAttendeeRepository) FindByCourse(ctx context.Context, tenantID, courseID uuid.UUID) ([]certification.Attendee, error) {
	args := m.Called(ctx, tenantID, courseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]certification.Attendee), args.Error(1)
}

func (m *mockAttendeeRepository) Create(ctx context.Context, a *certification.Attendee) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

func (m *mockAttendeeRepository) CreateBatch(ctx context.Context, attendees []certification.Attendee, enrolments []certification.CourseAttendee) error {
	args := m.Called(ctx, attendees, enrolments)
	return args.Error(0)
}

func (m *mockAttendeeRepository) Enrol(ctx context.Context, enrolments []certification.CourseAttendee) (int64, error) {
	args := m.Called(ctx, enrolments)
	return args.Get(0).(int64), args.Error(1)
}

type mockCertificateRepository struct {
	mock.Mock
}

func (m *mockCertificateRepository) FindByCertificateID(ctx context.Context, tenantID uuid.UUID, certificateID string) (*certification.Certificate, error) {
	args := m.Called(ctx, tenantID, certificateID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*certification.Certificate), args.Error(1)
}

func (m *mockCertificateRepository) FindByCourse(ctx context.Context, tenantID, courseID uuid.UUID) ([]certification.Certificate, error) {
	args := m.Called(ctx, tenantID, courseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]certification.Certificate), args.Error(1)
}

func (m *mockCertificateRepository) ExistsForAttendee(ctx context.Context, tenantID, courseID, attendeeID uuid.UUID) (bool, error) {
	args := m.Called(ctx, tenantID, courseID, attendeeID)
	return args.Bool(0), args.Error(1)
}

func (m *mockCertificateRepository) Issue(ctx context.Context, scope string, build func(certificateID string) (*certification.Certificate, error)) (*certification.Certificate, error) {
	args := m.Called(ctx, scope)
	if err := args.Error(1); err != nil {
		return nil, err
	}
	return build(args.String(0))
}

func (m *mockCertificateRepository) FindOrganisationCertificate(ctx context.Context, tenantID, organisationID uuid.UUID) (*certification.OrganisationCertificate, error) {
	args := m.Called(ctx, tenantID, organisationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*certification.OrganisationCertificate), args.Error(1)
}

func (m *mockCertificateRepository) FindOrganisationCertificateByID(ctx context.Context, tenantID uuid.UUID, certificateID string) (*certification.OrganisationCertificate, error) {
	args := m.Called(ctx, tenantID, certificateID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*certification.OrganisationCertificate), args.Error(1)
}

func (m *mockCertificateRepository) IssueOrganisationCertificate(ctx context.Context, scope string, build func(certificateID string) (*certification.OrganisationCertificate, error)) (*certification.OrganisationCertificate, error) {
	args := m.Called(ctx, scope)
	if err := args.Error(1); err != nil {
		return nil, err
	}
	return build(args.String(0))
}

// fakeRenderer returns a fixed PDF and remembers the HTML it was given
type fakeRenderer struct {
	mu    sync.Mutex
	html  []string
	err   error
	calls int
}

func (f *fakeRenderer) Render(_ context.Context, req *printing.RenderRequest) (*printing.RenderResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	f.html = append(f.html, req.HTML)
	return &printing.RenderResult{PDFData: []byte("%PDF-1.4 fake")}, nil
}

func (f *fakeRenderer) Close() error { return nil }
