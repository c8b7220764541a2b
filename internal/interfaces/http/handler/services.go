package handler

import (
	"context"
	"io"

	"github.com/google/uuid"
	certapp "github.com/projecta/backend/internal/application/certification"
	changelogapp "github.com/projecta/backend/internal/application/changelog"
	projectapp "github.com/projecta/backend/internal/application/project"
	sponsorshipapp "github.com/projecta/backend/internal/application/sponsorship"
	"github.com/projecta/backend/internal/domain/shared"
	"github.com/projecta/backend/internal/infrastructure/auth"
)

// The interfaces below are the slices of the application services each
// handler calls. The application packages' concrete services satisfy them.

// ProjectService is implemented by projectapp.ProjectService
type ProjectService interface {
	Create(ctx context.Context, tenantID uuid.UUID, actor shared.Actor, req projectapp.CreateProjectRequest) (*projectapp.ProjectResponse, error)
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*projectapp.ProjectResponse, error)
	GetBySlug(ctx context.Context, slug string) (*projectapp.ProjectResponse, error)
	List(ctx context.Context, tenantID uuid.UUID, f projectapp.ProjectListFilter) ([]projectapp.ProjectResponse, int64, error)
	Update(ctx context.Context, tenantID uuid.UUID, actor shared.Actor, id uuid.UUID, req projectapp.UpdateProjectRequest) (*projectapp.ProjectResponse, error)
	SetManagers(ctx context.Context, tenantID uuid.UUID, actor shared.Actor, id uuid.UUID, req projectapp.SetManagersRequest) (*projectapp.ProjectResponse, error)
	Deactivate(ctx context.Context, tenantID uuid.UUID, actor shared.Actor, id uuid.UUID) error
}

// StatusService is implemented by projectapp.StatusService
type StatusService interface {
	Create(ctx context.Context, tenantID uuid.UUID, actor shared.Actor, projectID uuid.UUID, req projectapp.CreateStatusRequest) (*projectapp.StatusResponse, error)
	List(ctx context.Context, tenantID, projectID uuid.UUID) ([]projectapp.StatusResponse, error)
	Delete(ctx context.Context, tenantID uuid.UUID, actor shared.Actor, projectID, statusID uuid.UUID) error
}

// ChecklistService is implemented by projectapp.ChecklistService
type ChecklistService interface {
	Create(ctx context.Context, tenantID uuid.UUID, actor shared.Actor, projectID uuid.UUID, req projectapp.CreateChecklistRequest) (*projectapp.ChecklistResponse, error)
	List(ctx context.Context, tenantID, projectID uuid.UUID, activeOnly bool) ([]projectapp.ChecklistResponse, error)
	Reorder(ctx context.Context, tenantID uuid.UUID, actor shared.Actor, projectID uuid.UUID, req projectapp.ReorderChecklistRequest) ([]projectapp.ChecklistResponse, error)
	Deactivate(ctx context.Context, tenantID uuid.UUID, actor shared.Actor, projectID, checklistID uuid.UUID) error
}

// OrganisationService is implemented by certapp.OrganisationService
type OrganisationService interface {
	Create(ctx context.Context, tenantID uuid.UUID, actor shared.Actor, projectID uuid.UUID, req certapp.CreateOrganisationRequest) (*certapp.OrganisationResponse, error)
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*certapp.OrganisationResponse, error)
	List(ctx context.Context, tenantID, projectID uuid.UUID, f certapp.OrganisationListFilter) ([]certapp.OrganisationResponse, int64, error)
	Update(ctx context.Context, tenantID uuid.UUID, actor shared.Actor, id uuid.UUID, req certapp.UpdateOrganisationRequest) (*certapp.OrganisationResponse, error)
	Deactivate(ctx context.Context, tenantID uuid.UUID, actor shared.Actor, id uuid.UUID) error
	History(ctx context.Context, tenantID, id uuid.UUID) ([]certapp.StatusChangeResponse, error)
	UpdateStatus(ctx context.Context, tenantID uuid.UUID, actor shared.Actor, id uuid.UUID, req certapp.UpdateStatusRequest) (*certapp.UpdateStatusResponse, error)
	Approve(ctx context.Context, tenantID uuid.UUID, actor shared.Actor, id uuid.UUID) (*certapp.OrganisationResponse, error)
	Reject(ctx context.Context, tenantID uuid.UUID, actor shared.Actor, id uuid.UUID, remarks string) (*certapp.OrganisationResponse, error)
	Reopen(ctx context.Context, tenantID uuid.UUID, actor shared.Actor, id uuid.UUID) (*certapp.OrganisationResponse, error)
	GetChecklist(ctx context.Context, tenantID, id uuid.UUID) ([]certapp.ChecklistItemResponse, error)
	SubmitChecklist(ctx context.Context, tenantID uuid.UUID, actor shared.Actor, id uuid.UUID, req certapp.SubmitChecklistRequest) ([]certapp.ChecklistItemResponse, error)
	InviteReviewer(ctx context.Context, tenantID uuid.UUID, actor shared.Actor, id uuid.UUID, req certapp.InviteReviewerRequest) (*certapp.ReviewerInviteResponse, error)
	StartReviewerSession(ctx context.Context, token string) (*auth.ReviewerSession, error)
}

// CourseService is implemented by certapp.CourseService
type CourseService interface {
	CreateTrainingCenter(ctx context.Context, tenantID uuid.UUID, actor shared.Actor, orgID uuid.UUID, req certapp.CreateTrainingCenterRequest) (*certapp.TrainingCenterResponse, error)
	ListTrainingCenters(ctx context.Context, tenantID, orgID uuid.UUID) ([]certapp.TrainingCenterResponse, error)
	CreateCourseType(ctx context.Context, tenantID uuid.UUID, actor shared.Actor, orgID uuid.UUID, req certapp.CreateCourseTypeRequest) (*certapp.CourseTypeResponse, error)
	ListCourseTypes(ctx context.Context, tenantID, orgID uuid.UUID) ([]certapp.CourseTypeResponse, error)
	CreateCourse(ctx context.Context, tenantID uuid.UUID, actor shared.Actor, orgID uuid.UUID, req certapp.CreateCourseRequest) (*certapp.CourseResponse, error)
	ListCourses(ctx context.Context, tenantID, orgID uuid.UUID) ([]certapp.CourseResponse, error)
}

// AttendeeService is implemented by certapp.AttendeeService
type AttendeeService interface {
	Create(ctx context.Context, tenantID uuid.UUID, actor shared.Actor, orgID uuid.UUID, req certapp.CreateAttendeeRequest) (*certapp.AttendeeResponse, error)
	ListByOrganisation(ctx context.Context, tenantID, orgID uuid.UUID) ([]certapp.AttendeeResponse, error)
	ListByCourse(ctx context.Context, tenantID, courseID uuid.UUID) ([]certapp.AttendeeResponse, error)
	Enrol(ctx context.Context, tenantID uuid.UUID, actor shared.Actor, courseID uuid.UUID, req certapp.EnrolAttendeesRequest) (int64, error)
	Import(ctx context.Context, tenantID uuid.UUID, actor shared.Actor, orgID uuid.UUID, courseID *uuid.UUID, file io.Reader) (*certapp.ImportAttendeesResult, error)
}

// CertificateService is implemented by certapp.CertificateService
type CertificateService interface {
	Issue(ctx context.Context, tenantID uuid.UUID, actor shared.Actor, courseID uuid.UUID, req certapp.IssueCertificatesRequest) ([]certapp.CertificateResponse, error)
	ListByCourse(ctx context.Context, tenantID, courseID uuid.UUID) ([]certapp.CertificateResponse, error)
	Verify(ctx context.Context, tenantID uuid.UUID, certificateID string) (*certapp.CertificateResponse, error)
	RenderPDF(ctx context.Context, tenantID uuid.UUID, certificateID string) ([]byte, *certapp.StoredDocumentResponse, error)
	StorePDF(ctx context.Context, tenantID uuid.UUID, actor shared.Actor, certificateID string) (*certapp.StoredDocumentResponse, error)
	RegenerateCourse(ctx context.Context, tenantID uuid.UUID, actor shared.Actor, courseID uuid.UUID) (*certapp.RegenerateResult, error)
	IssueOrganisationCertificate(ctx context.Context, tenantID uuid.UUID, actor shared.Actor, orgID uuid.UUID) (*certapp.OrganisationCertificateResponse, error)
	OrganisationPDF(ctx context.Context, tenantID, orgID uuid.UUID) ([]byte, *certapp.StoredDocumentResponse, error)
}

// SponsorshipService is implemented by sponsorshipapp.Service
type SponsorshipService interface {
	CreateSponsor(ctx context.Context, tenantID uuid.UUID, actor shared.Actor, projectID uuid.UUID, req sponsorshipapp.CreateSponsorRequest) (*sponsorshipapp.SponsorResponse, error)
	ListSponsors(ctx context.Context, tenantID uuid.UUID, actor shared.Actor, projectID uuid.UUID) ([]sponsorshipapp.SponsorResponse, error)
	ApproveSponsor(ctx context.Context, tenantID uuid.UUID, actor shared.Actor, id uuid.UUID, req sponsorshipapp.TransitionRequest) (*sponsorshipapp.SponsorResponse, error)
	RejectSponsor(ctx context.Context, tenantID uuid.UUID, actor shared.Actor, id uuid.UUID, req sponsorshipapp.TransitionRequest) (*sponsorshipapp.SponsorResponse, error)
	CreateLevel(ctx context.Context, tenantID uuid.UUID, actor shared.Actor, projectID uuid.UUID, req sponsorshipapp.CreateLevelRequest) (*sponsorshipapp.LevelResponse, error)
	ListLevels(ctx context.Context, tenantID, projectID uuid.UUID) ([]sponsorshipapp.LevelResponse, error)
	CreatePeriod(ctx context.Context, tenantID uuid.UUID, actor shared.Actor, sponsorID uuid.UUID, req sponsorshipapp.CreatePeriodRequest) (*sponsorshipapp.PeriodResponse, error)
	ListPeriods(ctx context.Context, tenantID, sponsorID uuid.UUID) ([]sponsorshipapp.PeriodResponse, error)
	ApprovePeriod(ctx context.Context, tenantID uuid.UUID, actor shared.Actor, id uuid.UUID, req sponsorshipapp.TransitionRequest) (*sponsorshipapp.PeriodResponse, error)
	RejectPeriod(ctx context.Context, tenantID uuid.UUID, actor shared.Actor, id uuid.UUID, req sponsorshipapp.TransitionRequest) (*sponsorshipapp.PeriodResponse, error)
	SyncSubscription(ctx context.Context, tenantID uuid.UUID, actor shared.Actor, id uuid.UUID) (*sponsorshipapp.PeriodResponse, error)
	CancelSubscription(ctx context.Context, tenantID uuid.UUID, actor shared.Actor, id uuid.UUID, reason string) (*sponsorshipapp.PeriodResponse, error)
}

// ChangelogService is implemented by changelogapp.Service
type ChangelogService interface {
	CreateVersion(ctx context.Context, tenantID uuid.UUID, actor shared.Actor, projectID uuid.UUID, req changelogapp.CreateVersionRequest) (*changelogapp.VersionResponse, error)
	ListVersions(ctx context.Context, tenantID uuid.UUID, actor shared.Actor, projectID uuid.UUID) ([]changelogapp.VersionResponse, error)
	ApproveVersion(ctx context.Context, tenantID uuid.UUID, actor shared.Actor, id uuid.UUID) (*changelogapp.VersionResponse, error)
	CreateCategory(ctx context.Context, tenantID uuid.UUID, actor shared.Actor, projectID uuid.UUID, req changelogapp.CreateCategoryRequest) (*changelogapp.CategoryResponse, error)
	ListCategories(ctx context.Context, tenantID, projectID uuid.UUID) ([]changelogapp.CategoryResponse, error)
	CreateEntry(ctx context.Context, tenantID uuid.UUID, actor shared.Actor, versionID uuid.UUID, req changelogapp.CreateEntryRequest) (*changelogapp.EntryResponse, error)
	ListEntries(ctx context.Context, tenantID uuid.UUID, actor shared.Actor, versionID uuid.UUID) ([]changelogapp.EntryResponse, error)
	ApproveEntry(ctx context.Context, tenantID uuid.UUID, actor shared.Actor, id uuid.UUID) (*changelogapp.EntryResponse, error)
}

var (
	_ ProjectService      = (*projectapp.ProjectService)(nil)
	_ StatusService       = (*projectapp.StatusService)(nil)
	_ ChecklistService    = (*projectapp.ChecklistService)(nil)
	_ OrganisationService = (*certapp.OrganisationService)(nil)
	_ CourseService       = (*certapp.CourseService)(nil)
	_ AttendeeService     = (*certapp.AttendeeService)(nil)
	_ CertificateService  = (*certapp.CertificateService)(nil)
	_ SponsorshipService  = (*sponsorshipapp.Service)(nil)
	_ ChangelogService    = (*changelogapp.Service)(nil)
)
