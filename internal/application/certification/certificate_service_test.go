package certification

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/projecta/backend/internal/domain/certification"
	"github.com/projecta/backend/internal/domain/shared"
	"github.com/projecta/backend/internal/infrastructure/config"
	"github.com/projecta/backend/internal/infrastructure/printing"
	"github.com/projecta/backend/internal/infrastructure/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type certFixture struct {
	*orgFixture
	courses   *mockCourseRepository
	attendees *mockAttendeeRepository
	certs     *mockCertificateRepository
	renderer  *fakeRenderer
	media     string
	svc       *CertificateService

	course     *certification.Course
	courseType *certification.CourseType
	center     *certification.TrainingCenter
}

func newCertFixture(t *testing.T) *certFixture {
	t.Helper()
	f := &certFixture{
		orgFixture: newOrgFixture(t),
		courses:    new(mockCourseRepository),
		attendees:  new(mockAttendeeRepository),
		certs:      new(mockCertificateRepository),
		renderer:   &fakeRenderer{},
		media:      t.TempDir(),
	}
	f.org.WorkflowState = shared.ApprovalApproved

	var err error
	f.courseType, err = certification.NewCourseType(f.tenantID, f.org.ID, "QGIS Basics", "qgis-basics", "", "16", "")
	require.NoError(t, err)
	f.center, err = certification.NewTrainingCenter(f.tenantID, f.org.ID, "Cape Town Office", "cape-town-office", "ct@example.com", "", "")
	require.NoError(t, err)
	start := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	f.course, err = certification.NewCourse(f.tenantID, f.org.ID, f.courseType.ID, f.center.ID, "qgis-basics-cape-town", "Desktop GIS", "en", start, start.AddDate(0, 0, 2))
	require.NoError(t, err)

	f.courses.On("FindCourse", mock.Anything, f.tenantID, f.course.ID).Return(f.course, nil).Maybe()
	f.courses.On("FindCourseType", mock.Anything, f.tenantID, f.courseType.ID).Return(f.courseType, nil).Maybe()
	f.courses.On("FindTrainingCenter", mock.Anything, f.tenantID, f.center.ID).Return(f.center, nil).Maybe()

	docs, err := storage.NewDocumentStorage(f.media, nil, zap.NewNop())
	require.NoError(t, err)
	f.svc = NewCertificateService(CertificateDeps{
		Organisations: f.orgs,
		Projects:      f.projects,
		Reviewers:     f.reviewers,
		Courses:       f.courses,
		Attendees:     f.attendees,
		Certificates:  f.certs,
		Layout:        printing.NewCertificateLayout(f.media, zap.NewNop()),
		Renderer:      f.renderer,
		Storage:       docs,
	}, config.PrintingConfig{Timeout: 5 * time.Second, PaperWidth: 297, PaperHeight: 210}, "https://certs.example.org/verify/", zap.NewNop())
	return f
}

func (f *certFixture) attendee(t *testing.T, firstname, surname string) *certification.Attendee {
	t.Helper()
	a, err := certification.NewAttendee(f.tenantID, f.org.ID, firstname, surname, firstname+"@example.org")
	require.NoError(t, err)
	f.attendees.On("FindByID", mock.Anything, f.tenantID, a.ID).Return(a, nil).Maybe()
	return a
}

func TestCertificateService_Issue(t *testing.T) {
	ctx := context.Background()

	t.Run("skips attendees that already hold a certificate", func(t *testing.T) {
		f := newCertFixture(t)
		jane := f.attendee(t, "Jane", "Doe")
		john := f.attendee(t, "John", "Smith")
		f.attendees.On("FindByCourse", mock.Anything, f.tenantID, f.course.ID).Return([]certification.Attendee{*jane, *john}, nil)
		f.certs.On("ExistsForAttendee", mock.Anything, f.tenantID, f.course.ID, jane.ID).Return(true, nil)
		f.certs.On("ExistsForAttendee", mock.Anything, f.tenantID, f.course.ID, john.ID).Return(false, nil)
		f.certs.On("Issue", mock.Anything, "QGISProject").Return("QGISProject-7", nil).Once()

		issued, err := f.svc.Issue(ctx, f.tenantID, f.projectOwner(), f.course.ID, IssueCertificatesRequest{})
		require.NoError(t, err)
		require.Len(t, issued, 1)
		assert.Equal(t, "QGISProject-7", issued[0].CertificateID)
		assert.Equal(t, john.ID, issued[0].AttendeeID)
		assert.Equal(t, &f.owner, issued[0].IssuedBy)
		f.certs.AssertExpectations(t)
	})

	t.Run("concurrent duplicate is skipped", func(t *testing.T) {
		f := newCertFixture(t)
		jane := f.attendee(t, "Jane", "Doe")
		f.attendees.On("FindByCourse", mock.Anything, f.tenantID, f.course.ID).Return([]certification.Attendee{*jane}, nil)
		f.certs.On("ExistsForAttendee", mock.Anything, f.tenantID, f.course.ID, jane.ID).Return(false, nil)
		f.certs.On("Issue", mock.Anything, "QGISProject").Return("", shared.ErrAlreadyExists)

		issued, err := f.svc.Issue(ctx, f.tenantID, f.projectOwner(), f.course.ID, IssueCertificatesRequest{AttendeeIDs: []uuid.UUID{jane.ID}})
		require.NoError(t, err)
		assert.Empty(t, issued)
	})

	t.Run("attendee not enrolled", func(t *testing.T) {
		f := newCertFixture(t)
		f.attendees.On("FindByCourse", mock.Anything, f.tenantID, f.course.ID).Return([]certification.Attendee{}, nil)

		_, err := f.svc.Issue(ctx, f.tenantID, f.projectOwner(), f.course.ID, IssueCertificatesRequest{AttendeeIDs: []uuid.UUID{uuid.New()}})
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("pending organisation", func(t *testing.T) {
		f := newCertFixture(t)
		f.org.WorkflowState = shared.ApprovalPending

		_, err := f.svc.Issue(ctx, f.tenantID, f.projectOwner(), f.course.ID, IssueCertificatesRequest{})
		assert.ErrorIs(t, err, shared.ErrInvalidState)
	})

	t.Run("outsider", func(t *testing.T) {
		f := newCertFixture(t)
		_, err := f.svc.Issue(ctx, f.tenantID, shared.Actor{UserID: uuid.New()}, f.course.ID, IssueCertificatesRequest{})
		assert.ErrorIs(t, err, shared.ErrForbidden)
	})
}

func (f *certFixture) janeCertificate(t *testing.T) *certification.Certificate {
	t.Helper()
	jane := f.attendee(t, "Jane", "Doe")
	cert, err := certification.NewCertificate(f.tenantID, f.project.ID, f.course.ID, jane.ID, "QGISProject-1", nil)
	require.NoError(t, err)
	f.certs.On("FindByCertificateID", mock.Anything, f.tenantID, "QGISProject-1").Return(cert, nil)
	return cert
}

func (f *certFixture) storedPath() string {
	return filepath.Join(f.media, "certificate_organisations", "qgis_project", "QGISProject-1.pdf")
}

func TestCertificateService_RenderPDF(t *testing.T) {
	ctx := context.Background()

	t.Run("renders without writing to storage", func(t *testing.T) {
		f := newCertFixture(t)
		f.janeCertificate(t)
		f.project.LogoImage = "logos/missing.png"

		pdf, stored, err := f.svc.RenderPDF(ctx, f.tenantID, "QGISProject-1")
		require.NoError(t, err)
		assert.Equal(t, []byte("%PDF-1.4 fake"), pdf)
		assert.Equal(t, "QGISProject-1", stored.CertificateID)
		assert.Empty(t, stored.Path)
		assert.Equal(t, len(pdf), stored.Bytes)
		assert.NoFileExists(t, f.storedPath())

		require.Len(t, f.renderer.html, 1)
		html := f.renderer.html[0]
		assert.Contains(t, html, "Jane Doe")
		assert.Contains(t, html, "QGIS Basics")
		assert.Contains(t, html, "https://certs.example.org/verify/QGISProject-1")
		assert.NotContains(t, html, "missing.png")
	})

	t.Run("serves the stored copy", func(t *testing.T) {
		f := newCertFixture(t)
		f.janeCertificate(t)
		require.NoError(t, os.MkdirAll(filepath.Dir(f.storedPath()), 0o755))
		require.NoError(t, os.WriteFile(f.storedPath(), []byte("%PDF-1.4 stored"), 0o644))

		pdf, stored, err := f.svc.RenderPDF(ctx, f.tenantID, "QGISProject-1")
		require.NoError(t, err)
		assert.Equal(t, []byte("%PDF-1.4 stored"), pdf)
		assert.Equal(t, f.storedPath(), stored.Path)
		assert.Zero(t, f.renderer.calls)
	})

	t.Run("passes the project background through", func(t *testing.T) {
		f := newCertFixture(t)
		f.janeCertificate(t)
		svg := `<svg xmlns="http://www.w3.org/2000/svg" width="1" height="1"/>`
		require.NoError(t, os.WriteFile(filepath.Join(f.media, "paper.svg"), []byte(svg), 0o644))
		f.project.BackgroundImage = "paper.svg"

		_, _, err := f.svc.RenderPDF(ctx, f.tenantID, "QGISProject-1")
		require.NoError(t, err)
		require.Len(t, f.renderer.html, 1)
		assert.Contains(t, f.renderer.html[0], `<img class="background" src="data:image/svg+xml;base64,`)
	})
}

func TestCertificateService_StorePDF(t *testing.T) {
	ctx := context.Background()

	t.Run("editor stores the pdf", func(t *testing.T) {
		f := newCertFixture(t)
		f.janeCertificate(t)

		stored, err := f.svc.StorePDF(ctx, f.tenantID, f.projectOwner(), "QGISProject-1")
		require.NoError(t, err)
		assert.Equal(t, f.storedPath(), stored.Path)
		data, err := os.ReadFile(f.storedPath())
		require.NoError(t, err)
		assert.Equal(t, []byte("%PDF-1.4 fake"), data)
		assert.Equal(t, len(data), stored.Bytes)
	})

	t.Run("outsider is forbidden before rendering", func(t *testing.T) {
		f := newCertFixture(t)
		f.janeCertificate(t)

		_, err := f.svc.StorePDF(ctx, f.tenantID, shared.Actor{UserID: uuid.New()}, "QGISProject-1")
		assert.ErrorIs(t, err, shared.ErrForbidden)
		assert.Zero(t, f.renderer.calls)
		assert.NoFileExists(t, f.storedPath())
	})

	t.Run("unknown certificate", func(t *testing.T) {
		f := newCertFixture(t)
		f.certs.On("FindByCertificateID", mock.Anything, f.tenantID, "QGISProject-9").Return(nil, shared.ErrNotFound)

		_, err := f.svc.StorePDF(ctx, f.tenantID, f.projectOwner(), "QGISProject-9")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestCertificateService_Verify(t *testing.T) {
	ctx := context.Background()

	t.Run("attendee certificate", func(t *testing.T) {
		f := newCertFixture(t)
		cert := f.janeCertificate(t)

		resp, err := f.svc.Verify(ctx, f.tenantID, "QGISProject-1")
		require.NoError(t, err)
		assert.Equal(t, "attendee", resp.Kind)
		assert.Equal(t, cert.AttendeeID, resp.AttendeeID)
		f.certs.AssertNotCalled(t, "FindOrganisationCertificateByID", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("falls back to organisation certificates", func(t *testing.T) {
		f := newCertFixture(t)
		orgCert, err := certification.NewOrganisationCertificate(f.tenantID, f.org, "QGISProject-4", &f.owner)
		require.NoError(t, err)
		f.certs.On("FindByCertificateID", mock.Anything, f.tenantID, "QGISProject-4").Return(nil, shared.ErrNotFound)
		f.certs.On("FindOrganisationCertificateByID", mock.Anything, f.tenantID, "QGISProject-4").Return(orgCert, nil)

		resp, err := f.svc.Verify(ctx, f.tenantID, "QGISProject-4")
		require.NoError(t, err)
		assert.Equal(t, "organisation", resp.Kind)
		assert.Equal(t, "QGISProject-4", resp.CertificateID)
		assert.Equal(t, f.org.ID, resp.OrganisationID)
		assert.Equal(t, uuid.Nil, resp.AttendeeID)
	})

	t.Run("unknown id", func(t *testing.T) {
		f := newCertFixture(t)
		f.certs.On("FindByCertificateID", mock.Anything, f.tenantID, "QGISProject-9").Return(nil, shared.ErrNotFound)
		f.certs.On("FindOrganisationCertificateByID", mock.Anything, f.tenantID, "QGISProject-9").Return(nil, shared.ErrNotFound)

		_, err := f.svc.Verify(ctx, f.tenantID, "QGISProject-9")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("repository failure is not masked", func(t *testing.T) {
		f := newCertFixture(t)
		f.certs.On("FindByCertificateID", mock.Anything, f.tenantID, "QGISProject-9").Return(nil, errors.New("connection reset"))

		_, err := f.svc.Verify(ctx, f.tenantID, "QGISProject-9")
		assert.EqualError(t, err, "connection reset")
		f.certs.AssertNotCalled(t, "FindOrganisationCertificateByID", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestCertificateService_StorePDF_RendererFailure(t *testing.T) {
	f := newCertFixture(t)
	f.janeCertificate(t)
	f.renderer.err = printing.NewRenderError(printing.ErrCodeRenderTimeout, "rendering timed out", context.DeadlineExceeded)

	_, err := f.svc.StorePDF(context.Background(), f.tenantID, f.projectOwner(), "QGISProject-1")
	var de *shared.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, CodeRenderFailed, de.Code)
	assert.NoFileExists(t, f.storedPath())
}

func TestCertificateService_RegenerateCourse(t *testing.T) {
	f := newCertFixture(t)
	jane := f.attendee(t, "Jane", "Doe")
	john := f.attendee(t, "John", "Smith")
	c1, err := certification.NewCertificate(f.tenantID, f.project.ID, f.course.ID, jane.ID, "QGISProject-1", nil)
	require.NoError(t, err)
	c2, err := certification.NewCertificate(f.tenantID, f.project.ID, f.course.ID, john.ID, "QGISProject-2", nil)
	require.NoError(t, err)
	f.certs.On("FindByCourse", mock.Anything, f.tenantID, f.course.ID).Return([]certification.Certificate{*c1, *c2}, nil)

	result, err := f.svc.RegenerateCourse(context.Background(), f.tenantID, f.projectOwner(), f.course.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Rendered)
	assert.Empty(t, result.Failed)
	assert.Equal(t, 2, f.renderer.calls)
}

func TestCertificateService_RegenerateCourse_CollectsFailures(t *testing.T) {
	f := newCertFixture(t)
	jane := f.attendee(t, "Jane", "Doe")
	c1, err := certification.NewCertificate(f.tenantID, f.project.ID, f.course.ID, jane.ID, "QGISProject-1", nil)
	require.NoError(t, err)
	f.certs.On("FindByCourse", mock.Anything, f.tenantID, f.course.ID).Return([]certification.Certificate{*c1}, nil)
	f.renderer.err = errors.New("browser crashed")

	result, err := f.svc.RegenerateCourse(context.Background(), f.tenantID, f.projectOwner(), f.course.ID)
	require.NoError(t, err)
	assert.Zero(t, result.Rendered)
	assert.Equal(t, []string{"QGISProject-1"}, result.Failed)
}

func TestCertificateService_IssueOrganisationCertificate(t *testing.T) {
	ctx := context.Background()

	t.Run("issues once and stores the pdf", func(t *testing.T) {
		f := newCertFixture(t)
		f.certs.On("FindOrganisationCertificate", mock.Anything, f.tenantID, f.org.ID).Return(nil, shared.ErrNotFound).Once()
		f.certs.On("IssueOrganisationCertificate", mock.Anything, "QGISProject").Return("QGISProject-3", nil).Once()

		resp, err := f.svc.IssueOrganisationCertificate(ctx, f.tenantID, f.projectOwner(), f.org.ID)
		require.NoError(t, err)
		assert.Equal(t, "QGISProject-3", resp.CertificateID)
		assert.Equal(t, f.org.ID, resp.OrganisationID)
		assert.FileExists(t, resp.Path)
		require.Len(t, f.renderer.html, 1)
		assert.Contains(t, f.renderer.html[0], "Certified Organisation")
	})

	t.Run("pending organisation cannot be certified", func(t *testing.T) {
		f := newCertFixture(t)
		f.org.WorkflowState = shared.ApprovalPending
		f.certs.On("FindOrganisationCertificate", mock.Anything, f.tenantID, f.org.ID).Return(nil, shared.ErrNotFound)
		f.certs.On("IssueOrganisationCertificate", mock.Anything, "QGISProject").Return("QGISProject-3", nil)

		_, err := f.svc.IssueOrganisationCertificate(ctx, f.tenantID, f.projectOwner(), f.org.ID)
		assert.ErrorIs(t, err, shared.ErrInvalidState)
		assert.Zero(t, f.renderer.calls)
	})

	t.Run("organisation owners cannot self-certify", func(t *testing.T) {
		f := newCertFixture(t)
		_, err := f.svc.IssueOrganisationCertificate(ctx, f.tenantID, shared.Actor{UserID: f.orgOwner}, f.org.ID)
		assert.ErrorIs(t, err, shared.ErrForbidden)
	})
}

func TestSelectAttendees(t *testing.T) {
	a := certification.Attendee{}
	a.ID = uuid.New()
	b := certification.Attendee{}
	b.ID = uuid.New()
	enrolled := []certification.Attendee{a, b}

	ids, err := selectAttendees(enrolled, nil)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{a.ID, b.ID}, ids)

	ids, err = selectAttendees(enrolled, []uuid.UUID{b.ID, b.ID})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{b.ID}, ids)
}
