package certification

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/projecta/backend/internal/domain/certification"
	"github.com/projecta/backend/internal/domain/project"
	"github.com/projecta/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// orgScope loads an organisation with its project and checks edit rights
type orgScope struct {
	orgRepo     certification.OrganisationRepository
	projectRepo project.ProjectRepository
	authz       *Authorizer
}

func (o orgScope) editable(ctx context.Context, tenantID uuid.UUID, actor shared.Actor, orgID uuid.UUID) (*certification.CertifyingOrganisation, *project.Project, error) {
	org, err := o.orgRepo.FindByID(ctx, tenantID, orgID)
	if err != nil {
		return nil, nil, err
	}
	proj, err := o.projectRepo.FindByID(ctx, tenantID, org.ProjectID)
	if err != nil {
		return nil, nil, err
	}
	if err := o.authz.AuthorizeEdit(actor, proj, org); err != nil {
		return nil, nil, err
	}
	return org, proj, nil
}

// CourseService manages training centres, course types and courses
type CourseService struct {
	scope      orgScope
	courseRepo certification.CourseRepository
	logger     *zap.Logger
}

// NewCourseService creates a new CourseService
func NewCourseService(
	orgRepo certification.OrganisationRepository,
	projectRepo project.ProjectRepository,
	reviewerRepo certification.ReviewerRepository,
	courseRepo certification.CourseRepository,
	logger *zap.Logger,
) *CourseService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseService{
		scope:      orgScope{orgRepo: orgRepo, projectRepo: projectRepo, authz: NewAuthorizer(reviewerRepo)},
		courseRepo: courseRepo,
		logger:     logger,
	}
}

// CreateTrainingCenter adds a venue to an organisation
func (s *CourseService) CreateTrainingCenter(ctx context.Context, tenantID uuid.UUID, actor shared.Actor, orgID uuid.UUID, req CreateTrainingCenterRequest) (*TrainingCenterResponse, error) {
	org, _, err := s.scope.editable(ctx, tenantID, actor, orgID)
	if err != nil {
		return nil, err
	}

	var tc *certification.TrainingCenter
	err = s.withSlug(ctx, "training_centers", org.ID, req.Name, func(slug string) error {
		tc, err = certification.NewTrainingCenter(tenantID, org.ID, req.Name, slug, req.Email, req.Address, req.Phone)
		if err != nil {
			return err
		}
		return s.courseRepo.SaveTrainingCenter(ctx, tc)
	})
	if err != nil {
		return nil, err
	}
	resp := toTrainingCenterResponse(tc)
	return &resp, nil
}

// ListTrainingCenters lists an organisation's venues
func (s *CourseService) ListTrainingCenters(ctx context.Context, tenantID, orgID uuid.UUID) ([]TrainingCenterResponse, error) {
	centers, err := s.courseRepo.FindTrainingCenters(ctx, tenantID, orgID)
	if err != nil {
		return nil, err
	}
	out := make([]TrainingCenterResponse, len(centers))
	for i := range centers {
		out[i] = toTrainingCenterResponse(&centers[i])
	}
	return out, nil
}

// CreateCourseType adds a kind of course to an organisation
func (s *CourseService) CreateCourseType(ctx context.Context, tenantID uuid.UUID, actor shared.Actor, orgID uuid.UUID, req CreateCourseTypeRequest) (*CourseTypeResponse, error) {
	org, _, err := s.scope.editable(ctx, tenantID, actor, orgID)
	if err != nil {
		return nil, err
	}

	var ct *certification.CourseType
	err = s.withSlug(ctx, "course_types", org.ID, req.Name, func(slug string) error {
		ct, err = certification.NewCourseType(tenantID, org.ID, req.Name, slug, req.Description, req.InstructionHours, req.Coordinator)
		if err != nil {
			return err
		}
		return s.courseRepo.SaveCourseType(ctx, ct)
	})
	if err != nil {
		return nil, err
	}
	resp := toCourseTypeResponse(ct)
	return &resp, nil
}

// ListCourseTypes lists an organisation's course types
func (s *CourseService) ListCourseTypes(ctx context.Context, tenantID, orgID uuid.UUID) ([]CourseTypeResponse, error) {
	types, err := s.courseRepo.FindCourseTypes(ctx, tenantID, orgID)
	if err != nil {
		return nil, err
	}
	out := make([]CourseTypeResponse, len(types))
	for i := range types {
		out[i] = toCourseTypeResponse(&types[i])
	}
	return out, nil
}

// CreateCourse schedules a course. Only approved organisations run courses.
func (s *CourseService) CreateCourse(ctx context.Context, tenantID uuid.UUID, actor shared.Actor, orgID uuid.UUID, req CreateCourseRequest) (*CourseResponse, error) {
	org, _, err := s.scope.editable(ctx, tenantID, actor, orgID)
	if err != nil {
		return nil, err
	}
	if !org.IsApproved() {
		return nil, shared.NewDomainError("INVALID_STATE", "Only approved organisations can run courses")
	}

	ct, err := s.courseRepo.FindCourseType(ctx, tenantID, req.CourseTypeID)
	if err != nil {
		return nil, err
	}
	tc, err := s.courseRepo.FindTrainingCenter(ctx, tenantID, req.TrainingCenterID)
	if err != nil {
		return nil, err
	}
	if ct.OrganisationID != org.ID || tc.OrganisationID != org.ID {
		return nil, shared.NewDomainError(shared.ErrNotFound.Code, "Course type or training center not found in this organisation")
	}

	source := certification.CourseSlugSource(ct.Name, tc.Name, req.StartDate, req.EndDate)
	var course *certification.Course
	err = s.withSlug(ctx, "courses", org.ID, source, func(slug string) error {
		course, err = certification.NewCourse(tenantID, org.ID, ct.ID, tc.ID, slug, req.TrainedCompetence, req.Language, req.StartDate, req.EndDate)
		if err != nil {
			return err
		}
		return s.courseRepo.SaveCourse(ctx, course)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Course created",
		zap.String("course_id", course.ID.String()),
		zap.String("organisation_id", org.ID.String()),
		zap.String("slug", course.Slug),
	)
	resp := toCourseResponse(course)
	return &resp, nil
}

// ListCourses lists an organisation's courses
func (s *CourseService) ListCourses(ctx context.Context, tenantID, orgID uuid.UUID) ([]CourseResponse, error) {
	courses, err := s.courseRepo.FindCourses(ctx, tenantID, orgID)
	if err != nil {
		return nil, err
	}
	out := make([]CourseResponse, len(courses))
	for i := range courses {
		out[i] = toCourseResponse(&courses[i])
	}
	return out, nil
}

// withSlug derives a slug unique within the organisation and calls save,
// retrying with a fresh slug when a concurrent insert took it
func (s *CourseService) withSlug(ctx context.Context, table string, orgID uuid.UUID, name string, save func(slug string) error) error {
	base, err := shared.Slugify(name, shared.DefaultStopWords)
	if err != nil {
		return err
	}
	for attempt := 1; ; attempt++ {
		slug, err := shared.UniqueSlug(ctx, base,
			func(ctx context.Context, slug string) (bool, error) {
				return s.courseRepo.SlugExists(ctx, table, orgID, slug)
			},
			func(ctx context.Context, base string) (int64, error) {
				return s.courseRepo.CountSlugs(ctx, table, orgID, base)
			},
		)
		if err != nil {
			return err
		}
		err = save(slug)
		if err == nil || !errors.Is(err, shared.ErrAlreadyExists) || attempt >= maxSlugAttempts {
			return err
		}
	}
}

func toTrainingCenterResponse(tc *certification.TrainingCenter) TrainingCenterResponse {
	return TrainingCenterResponse{
		ID:             tc.ID,
		OrganisationID: tc.OrganisationID,
		Name:           tc.Name,
		Slug:           tc.Slug,
		Email:          tc.Email,
		Address:        tc.Address,
		Phone:          tc.Phone,
	}
}

func toCourseTypeResponse(ct *certification.CourseType) CourseTypeResponse {
	return CourseTypeResponse{
		ID:               ct.ID,
		OrganisationID:   ct.OrganisationID,
		Name:             ct.Name,
		Slug:             ct.Slug,
		Description:      ct.Description,
		InstructionHours: ct.InstructionHours,
		Coordinator:      ct.Coordinator,
	}
}

func toCourseResponse(c *certification.Course) CourseResponse {
	return CourseResponse{
		ID:                c.ID,
		OrganisationID:    c.OrganisationID,
		CourseTypeID:      c.CourseTypeID,
		TrainingCenterID:  c.TrainingCenterID,
		TrainedCompetence: c.TrainedCompetence,
		Language:          c.Language,
		StartDate:         c.StartDate,
		EndDate:           c.EndDate,
		Slug:              c.Slug,
	}
}
