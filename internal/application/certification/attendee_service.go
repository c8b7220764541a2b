package certification

import (
	"context"
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/projecta/backend/internal/domain/certification"
	"github.com/projecta/backend/internal/domain/project"
	"github.com/projecta/backend/internal/domain/shared"
	csvimport "github.com/projecta/backend/internal/infrastructure/import"
	"go.uber.org/zap"
)

// ImportRecorder counts imported rows
type ImportRecorder interface {
	RecordImport(ctx context.Context, created, skipped, failed int)
}

// AttendeeService manages attendees and their course enrolments
type AttendeeService struct {
	scope        orgScope
	attendeeRepo certification.AttendeeRepository
	courseRepo   certification.CourseRepository
	metrics      ImportRecorder
	maxErrors    int
	logger       *zap.Logger
}

// NewAttendeeService creates a new AttendeeService. metrics may be nil.
func NewAttendeeService(
	orgRepo certification.OrganisationRepository,
	projectRepo project.ProjectRepository,
	reviewerRepo certification.ReviewerRepository,
	attendeeRepo certification.AttendeeRepository,
	courseRepo certification.CourseRepository,
	metrics ImportRecorder,
	logger *zap.Logger,
) *AttendeeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttendeeService{
		scope:        orgScope{orgRepo: orgRepo, projectRepo: projectRepo, authz: NewAuthorizer(reviewerRepo)},
		attendeeRepo: attendeeRepo,
		courseRepo:   courseRepo,
		metrics:      metrics,
		maxErrors:    csvimport.DefaultMaxErrors,
		logger:       logger,
	}
}

// Create adds one attendee. A same-named attendee with another email gets a
// numbered surname; an identical one is returned as is.
func (s *AttendeeService) Create(ctx context.Context, tenantID uuid.UUID, actor shared.Actor, orgID uuid.UUID, req CreateAttendeeRequest) (*AttendeeResponse, error) {
	org, _, err := s.scope.editable(ctx, tenantID, actor, orgID)
	if err != nil {
		return nil, err
	}
	course, err := s.courseOf(ctx, tenantID, org.ID, req.CourseID)
	if err != nil {
		return nil, err
	}

	existing, err := s.attendeeRepo.FindByOrganisation(ctx, tenantID, org.ID)
	if err != nil {
		return nil, err
	}
	roster := newRoster(existing)

	attendee, found := roster.match(req.Firstname, req.Surname, req.Email)
	if !found {
		attendee, err = certification.NewAttendee(tenantID, org.ID, req.Firstname, roster.surnameFor(req.Firstname, req.Surname), req.Email)
		if err != nil {
			return nil, err
		}
		if err := s.attendeeRepo.Create(ctx, attendee); err != nil {
			return nil, err
		}
	}
	if course != nil {
		if _, err := s.attendeeRepo.Enrol(ctx, []certification.CourseAttendee{
			*certification.NewCourseAttendee(tenantID, course.ID, attendee.ID, actorID(actor)),
		}); err != nil {
			return nil, err
		}
	}

	resp := ToAttendeeResponse(attendee)
	return &resp, nil
}

// ListByOrganisation lists an organisation's attendees
func (s *AttendeeService) ListByOrganisation(ctx context.Context, tenantID, orgID uuid.UUID) ([]AttendeeResponse, error) {
	attendees, err := s.attendeeRepo.FindByOrganisation(ctx, tenantID, orgID)
	if err != nil {
		return nil, err
	}
	return toAttendeeResponses(attendees), nil
}

// ListByCourse lists attendees enrolled in a course
func (s *AttendeeService) ListByCourse(ctx context.Context, tenantID, courseID uuid.UUID) ([]AttendeeResponse, error) {
	attendees, err := s.attendeeRepo.FindByCourse(ctx, tenantID, courseID)
	if err != nil {
		return nil, err
	}
	return toAttendeeResponses(attendees), nil
}

// Enrol adds existing attendees of the course's organisation to the course.
// Attendees already enrolled are skipped; the result counts new enrolments.
func (s *AttendeeService) Enrol(ctx context.Context, tenantID uuid.UUID, actor shared.Actor, courseID uuid.UUID, req EnrolAttendeesRequest) (int64, error) {
	course, err := s.courseRepo.FindCourse(ctx, tenantID, courseID)
	if err != nil {
		return 0, err
	}
	if _, _, err := s.scope.editable(ctx, tenantID, actor, course.OrganisationID); err != nil {
		return 0, err
	}

	enrolments := make([]certification.CourseAttendee, 0, len(req.AttendeeIDs))
	for _, id := range req.AttendeeIDs {
		a, err := s.attendeeRepo.FindByID(ctx, tenantID, id)
		if err != nil {
			return 0, err
		}
		if a.OrganisationID != course.OrganisationID {
			return 0, shared.NewDomainError(shared.ErrNotFound.Code, "Attendee not found in this organisation")
		}
		enrolments = append(enrolments, *certification.NewCourseAttendee(tenantID, course.ID, a.ID, actorID(actor)))
	}
	return s.attendeeRepo.Enrol(ctx, enrolments)
}

// Import reads a firstname,surname,email CSV into the organisation and
// optionally enrols every imported or matched attendee in courseID.
//
// Rows identical (case-insensitively) to an existing attendee or to an earlier
// row are skipped. Invalid rows are reported with their line number and do
// not stop the import.
func (s *AttendeeService) Import(ctx context.Context, tenantID uuid.UUID, actor shared.Actor, orgID uuid.UUID, courseID *uuid.UUID, file io.Reader) (*ImportAttendeesResult, error) {
	org, _, err := s.scope.editable(ctx, tenantID, actor, orgID)
	if err != nil {
		return nil, err
	}
	course, err := s.courseOf(ctx, tenantID, org.ID, courseID)
	if err != nil {
		return nil, err
	}

	sheet, err := csvimport.ReadAttendees(file, s.maxErrors)
	if err != nil {
		return nil, importFileError(err)
	}

	existing, err := s.attendeeRepo.FindByOrganisation(ctx, tenantID, org.ID)
	if err != nil {
		return nil, err
	}
	roster := newRoster(existing)

	result := &ImportAttendeesResult{TotalRows: sheet.TotalRows}
	var (
		created     []certification.Attendee
		newEnrol    []certification.CourseAttendee
		matchEnrol  []certification.CourseAttendee
		enrolledIDs = map[uuid.UUID]struct{}{}
	)
	for _, rec := range sheet.Records {
		if a, found := roster.match(rec.Firstname, rec.Surname, rec.Email); found {
			result.SkippedDuplicates++
			if course != nil {
				if _, dup := enrolledIDs[a.ID]; !dup {
					enrolledIDs[a.ID] = struct{}{}
					matchEnrol = append(matchEnrol, *certification.NewCourseAttendee(tenantID, course.ID, a.ID, actorID(actor)))
				}
			}
			continue
		}

		a, err := certification.NewAttendee(tenantID, org.ID, rec.Firstname, roster.surnameFor(rec.Firstname, rec.Surname), rec.Email)
		if err != nil {
			sheet.Errors.Add(csvimport.NewRowError(rec.Line, "", csvimport.ErrCodeImportValidation, err.Error()))
			continue
		}
		roster.add(*a)
		created = append(created, *a)
		if course != nil {
			enrolledIDs[a.ID] = struct{}{}
			newEnrol = append(newEnrol, *certification.NewCourseAttendee(tenantID, course.ID, a.ID, actorID(actor)))
		}
	}

	if len(created) > 0 || len(newEnrol) > 0 {
		if err := s.attendeeRepo.CreateBatch(ctx, created, newEnrol); err != nil {
			return nil, err
		}
	}
	result.Created = len(created)
	result.Enrolled = len(newEnrol)
	if len(matchEnrol) > 0 {
		n, err := s.attendeeRepo.Enrol(ctx, matchEnrol)
		if err != nil {
			return nil, err
		}
		result.Enrolled += int(n)
	}

	result.Errors = toImportRowErrors(sheet.Errors.Errors())
	result.ErrorsTruncated = sheet.Errors.IsTruncated()
	if s.metrics != nil {
		s.metrics.RecordImport(ctx, result.Created, result.SkippedDuplicates, sheet.Errors.TotalCount())
	}

	s.logger.Info("Attendees imported",
		zap.String("organisation_id", org.ID.String()),
		zap.Int("total_rows", result.TotalRows),
		zap.Int("created", result.Created),
		zap.Int("skipped_duplicates", result.SkippedDuplicates),
		zap.Int("enrolled", result.Enrolled),
		zap.Int("errors", sheet.Errors.TotalCount()),
	)
	return result, nil
}

func (s *AttendeeService) courseOf(ctx context.Context, tenantID, orgID uuid.UUID, courseID *uuid.UUID) (*certification.Course, error) {
	if courseID == nil || *courseID == uuid.Nil {
		return nil, nil
	}
	course, err := s.courseRepo.FindCourse(ctx, tenantID, *courseID)
	if err != nil {
		return nil, err
	}
	if course.OrganisationID != orgID {
		return nil, shared.NewDomainError(shared.ErrNotFound.Code, "Course not found in this organisation")
	}
	return course, nil
}

func importFileError(err error) error {
	switch {
	case errors.Is(err, csvimport.ErrEmptyFile):
		return shared.NewDomainError(shared.ErrInvalidInput.Code, "The uploaded file is empty")
	case errors.Is(err, csvimport.ErrInvalidEncoding):
		return shared.NewDomainError(shared.ErrInvalidInput.Code, "The uploaded file is not valid UTF-8")
	case errors.Is(err, csvimport.ErrFileTooLarge):
		return shared.NewDomainError(shared.ErrInvalidInput.Code, "The uploaded file is too large")
	case errors.Is(err, csvimport.ErrMalformedFile):
		return shared.NewDomainError(shared.ErrInvalidInput.Code, "The uploaded file is not a valid CSV")
	}
	return err
}

func toImportRowErrors(errs []csvimport.RowError) []ImportRowError {
	out := make([]ImportRowError, len(errs))
	for i, e := range errs {
		out[i] = ImportRowError{Line: e.Row, Column: e.Column, Value: e.Value, Code: e.Code, Message: e.Message}
	}
	return out
}

func toAttendeeResponses(attendees []certification.Attendee) []AttendeeResponse {
	out := make([]AttendeeResponse, len(attendees))
	for i := range attendees {
		out[i] = ToAttendeeResponse(&attendees[i])
	}
	return out
}

// roster indexes an organisation's attendees by identity and by name.
// Numbered surnames ("Doe 2") count towards their base name.
type roster struct {
	byIdentity map[string]*certification.Attendee
	sameName   map[string]int
}

func newRoster(attendees []certification.Attendee) *roster {
	r := &roster{
		byIdentity: make(map[string]*certification.Attendee, len(attendees)),
		sameName:   make(map[string]int, len(attendees)),
	}
	for _, a := range attendees {
		r.add(a)
	}
	return r
}

func (r *roster) add(a certification.Attendee) {
	base := baseSurname(a.Surname)
	r.byIdentity[identityKey(a.Firstname, base, a.Email)] = &a
	r.sameName[nameKey(a.Firstname, base)]++
}

func (r *roster) match(firstname, surname, email string) (*certification.Attendee, bool) {
	a, ok := r.byIdentity[identityKey(firstname, baseSurname(surname), email)]
	return a, ok
}

func (r *roster) surnameFor(firstname, surname string) string {
	surname = strings.TrimSpace(surname)
	return certification.DisambiguateSurname(surname, r.sameName[nameKey(firstname, surname)])
}

func identityKey(firstname, surname, email string) string {
	return nameKey(firstname, surname) + "\x00" + strings.ToLower(strings.TrimSpace(email))
}

func nameKey(firstname, surname string) string {
	return strings.ToLower(strings.TrimSpace(firstname)) + "\x00" + strings.ToLower(strings.TrimSpace(surname))
}

// baseSurname strips a disambiguation number: "Doe 2" -> "Doe"
func baseSurname(surname string) string {
	surname = strings.TrimSpace(surname)
	i := strings.LastIndexByte(surname, ' ')
	if i <= 0 {
		return surname
	}
	if n, err := strconv.Atoi(surname[i+1:]); err == nil && n >= 2 {
		return strings.TrimSpace(surname[:i])
	}
	return surname
}
