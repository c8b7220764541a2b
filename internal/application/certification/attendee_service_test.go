package certification

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/projecta/backend/internal/domain/certification"
	"github.com/projecta/backend/internal/domain/shared"
	csvimport "github.com/projecta/backend/internal/infrastructure/import"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type importCounts struct {
	created, skipped, failed int
}

type recordingImportMetrics struct {
	calls []importCounts
}

func (r *recordingImportMetrics) RecordImport(_ context.Context, created, skipped, failed int) {
	r.calls = append(r.calls, importCounts{created, skipped, failed})
}

type attendeeFixture struct {
	*orgFixture
	attendees *mockAttendeeRepository
	courses   *mockCourseRepository
	metrics   *recordingImportMetrics
	svc       *AttendeeService
}

func newAttendeeFixture(t *testing.T) *attendeeFixture {
	f := &attendeeFixture{
		orgFixture: newOrgFixture(t),
		attendees:  new(mockAttendeeRepository),
		courses:    new(mockCourseRepository),
		metrics:    &recordingImportMetrics{},
	}
	f.svc = NewAttendeeService(f.orgs, f.projects, f.reviewers, f.attendees, f.courses, f.metrics, zap.NewNop())
	return f
}

func (f *attendeeFixture) course(t *testing.T) *certification.Course {
	t.Helper()
	start := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	c, err := certification.NewCourse(f.tenantID, f.org.ID, uuid.New(), uuid.New(), "qgis-basics", "GIS", "en", start, start.AddDate(0, 0, 3))
	require.NoError(t, err)
	f.courses.On("FindCourse", mock.Anything, f.tenantID, c.ID).Return(c, nil)
	return c
}

func (f *attendeeFixture) existing(t *testing.T, firstname, surname, email string) certification.Attendee {
	t.Helper()
	a, err := certification.NewAttendee(f.tenantID, f.org.ID, firstname, surname, email)
	require.NoError(t, err)
	return *a
}

func TestAttendeeService_Import(t *testing.T) {
	f := newAttendeeFixture(t)
	course := f.course(t)
	jane := f.existing(t, "Jane", "Doe", "jane@example.org")
	f.attendees.On("FindByOrganisation", mock.Anything, f.tenantID, f.org.ID).Return([]certification.Attendee{jane}, nil)

	var created []certification.Attendee
	var newEnrolments []certification.CourseAttendee
	f.attendees.On("CreateBatch", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			created = args.Get(1).([]certification.Attendee)
			newEnrolments = args.Get(2).([]certification.CourseAttendee)
		}).
		Return(nil).Once()
	f.attendees.On("Enrol", mock.Anything, mock.MatchedBy(func(e []certification.CourseAttendee) bool {
		return len(e) == 1 && e[0].AttendeeID == jane.ID && e[0].CourseID == course.ID
	})).Return(int64(1), nil).Once()

	csv := strings.Join([]string{
		"firstname,surname,email",
		"Jane,Doe,JANE@example.org",
		"Jane,Doe,jane.other@example.org",
		"John,Smith,john@example.org",
		"Jane,Doe,jane.other@example.org",
		"Jane,Doe,third@example.org",
		",Smith,nobody@example.org",
	}, "\n") + "\n"

	result, err := f.svc.Import(context.Background(), f.tenantID, f.projectOwner(), f.org.ID, &course.ID, strings.NewReader(csv))
	require.NoError(t, err)

	assert.Equal(t, 6, result.TotalRows)
	assert.Equal(t, 3, result.Created)
	assert.Equal(t, 2, result.SkippedDuplicates)
	assert.Equal(t, 4, result.Enrolled)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, 7, result.Errors[0].Line)
	assert.Equal(t, csvimport.ErrCodeImportRequiredField, result.Errors[0].Code)

	require.Len(t, created, 3)
	assert.Equal(t, "Jane Doe 2", created[0].FullName())
	assert.Equal(t, "John Smith", created[1].FullName())
	assert.Equal(t, "Jane Doe 3", created[2].FullName())
	assert.Len(t, newEnrolments, 3)

	assert.Equal(t, []importCounts{{3, 2, 1}}, f.metrics.calls)
	f.attendees.AssertExpectations(t)
}

func TestAttendeeService_Import_WithoutCourse(t *testing.T) {
	f := newAttendeeFixture(t)
	f.attendees.On("FindByOrganisation", mock.Anything, f.tenantID, f.org.ID).Return([]certification.Attendee{}, nil)
	f.attendees.On("CreateBatch", mock.Anything, mock.Anything, []certification.CourseAttendee(nil)).Return(nil)

	result, err := f.svc.Import(context.Background(), f.tenantID, shared.Actor{UserID: f.orgOwner}, f.org.ID, nil,
		strings.NewReader("Ada,Lovelace,ada@example.org\n"))
	require.NoError(t, err)
	assert.Equal(t, 1, result.Created)
	assert.Zero(t, result.Enrolled)
	f.attendees.AssertNotCalled(t, "Enrol", mock.Anything, mock.Anything)
}

func TestAttendeeService_Import_FileErrors(t *testing.T) {
	f := newAttendeeFixture(t)

	_, err := f.svc.Import(context.Background(), f.tenantID, f.projectOwner(), f.org.ID, nil, strings.NewReader(""))
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	_, err = f.svc.Import(context.Background(), f.tenantID, f.projectOwner(), f.org.ID, nil, strings.NewReader("Ana,G\xffmez,ana@example.org\n"))
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestAttendeeService_Import_Forbidden(t *testing.T) {
	f := newAttendeeFixture(t)
	_, err := f.svc.Import(context.Background(), f.tenantID, shared.Actor{UserID: uuid.New()}, f.org.ID, nil, strings.NewReader("a,b,c@d.org\n"))
	assert.ErrorIs(t, err, shared.ErrForbidden)
}

func TestAttendeeService_Import_CourseOfAnotherOrganisation(t *testing.T) {
	f := newAttendeeFixture(t)
	start := time.Now()
	other, err := certification.NewCourse(f.tenantID, uuid.New(), uuid.New(), uuid.New(), "other", "", "", start, start)
	require.NoError(t, err)
	f.courses.On("FindCourse", mock.Anything, f.tenantID, other.ID).Return(other, nil)

	_, err = f.svc.Import(context.Background(), f.tenantID, f.projectOwner(), f.org.ID, &other.ID, strings.NewReader("a,b,c@d.org\n"))
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestAttendeeService_Create(t *testing.T) {
	t.Run("same name with another email gets a number", func(t *testing.T) {
		f := newAttendeeFixture(t)
		f.attendees.On("FindByOrganisation", mock.Anything, f.tenantID, f.org.ID).
			Return([]certification.Attendee{f.existing(t, "Jane", "Doe", "jane@example.org")}, nil)
		f.attendees.On("Create", mock.Anything, mock.AnythingOfType("*certification.Attendee")).Return(nil)

		resp, err := f.svc.Create(context.Background(), f.tenantID, f.projectOwner(), f.org.ID, CreateAttendeeRequest{
			Firstname: "Jane", Surname: "Doe", Email: "j.doe@example.org",
		})
		require.NoError(t, err)
		assert.Equal(t, "Doe 2", resp.Surname)
	})

	t.Run("identical attendee is reused and enrolled", func(t *testing.T) {
		f := newAttendeeFixture(t)
		course := f.course(t)
		jane := f.existing(t, "Jane", "Doe", "jane@example.org")
		f.attendees.On("FindByOrganisation", mock.Anything, f.tenantID, f.org.ID).Return([]certification.Attendee{jane}, nil)
		f.attendees.On("Enrol", mock.Anything, mock.Anything).Return(int64(1), nil)

		resp, err := f.svc.Create(context.Background(), f.tenantID, f.projectOwner(), f.org.ID, CreateAttendeeRequest{
			Firstname: "jane", Surname: "DOE", Email: "Jane@Example.org", CourseID: &course.ID,
		})
		require.NoError(t, err)
		assert.Equal(t, jane.ID, resp.ID)
		f.attendees.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}

func TestBaseSurname(t *testing.T) {
	tests := map[string]string{
		"Doe":          "Doe",
		"Doe 2":        "Doe",
		"Doe 12":       "Doe",
		"Doe 1":        "Doe 1",
		"van der Berg": "van der Berg",
		"Louis XIV":    "Louis XIV",
	}
	for in, want := range tests {
		assert.Equal(t, want, baseSurname(in), in)
	}
}
