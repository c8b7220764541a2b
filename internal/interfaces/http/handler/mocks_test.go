package handler

import (
	"context"
	"io"
	"net/http"

	"github.com/google/uuid"
	certapp "github.com/projecta/backend/internal/application/certification"
	projectapp "github.com/projecta/backend/internal/application/project"
	"github.com/projecta/backend/internal/domain/shared"
	"github.com/projecta/backend/internal/infrastructure/auth"
	"github.com/stretchr/testify/mock"
)

// getOrNil returns args.Get(i) as T, or the zero value when it was nil
func getOrNil[T any](args mock.Arguments, i int) T {
	var zero T
	if v := args.Get(i); v != nil {
		return v.(T)
	}
	return zero
}

type MockProjectService struct {
	mock.Mock
}

func (m *MockProjectService) Create(ctx context.Context, tenantID uuid.UUID, actor shared.Actor, req projectapp.CreateProjectRequest) (*projectapp.ProjectResponse, error) {
	args := m.Called(ctx, tenantID, actor, req)
	return getOrNil[*projectapp.ProjectResponse](args, 0), args.Error(1)
}

func (m *MockProjectService) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*projectapp.ProjectResponse, error) {
	args := m.Called(ctx, tenantID, id)
	return getOrNil[*projectapp.ProjectResponse](args, 0), args.Error(1)
}

func (m *MockProjectService) GetBySlug(ctx context.Context, slug string) (*projectapp.ProjectResponse, error) {
	args := m.Called(ctx, slug)
	return getOrNil[*projectapp.ProjectResponse](args, 0), args.Error(1)
}

func (m *MockProjectService) List(ctx context.Context, tenantID uuid.UUID, f projectapp.ProjectListFilter) ([]projectapp.ProjectResponse, int64, error) {
	args := m.Called(ctx, tenantID, f)
	return getOrNil[[]projectapp.ProjectResponse](args, 0), args.Get(1).(int64), args.Error(2)
}

func (m *MockProjectService) Update(ctx context.Context, tenantID uuid.UUID, actor shared.Actor, id uuid.UUID, req projectapp.UpdateProjectRequest) (*projectapp.ProjectResponse, error) {
	args := m.Called(ctx, tenantID, actor, id, req)
	return getOrNil[*projectapp.ProjectResponse](args, 0), args.Error(1)
}

func (m *MockProjectService) SetManagers(ctx context.Context, tenantID uuid.UUID, actor shared.Actor, id uuid.UUID, req projectapp.SetManagersRequest) (*projectapp.ProjectResponse, error) {
	args := m.Called(ctx, tenantID, actor, id, req)
	return getOrNil[*projectapp.ProjectResponse](args, 0), args.Error(1)
}

func (m *MockProjectService) Deactivate(ctx context.Context, tenantID uuid.UUID, actor shared.Actor, id uuid.UUID) error {
	return m.Called(ctx, tenantID, actor, id).Error(0)
}

type MockStatusService struct {
	mock.Mock
}

func (m *MockStatusService) Create(ctx context.Context, tenantID uuid.UUID, actor shared.Actor, projectID uuid.UUID, req projectapp.CreateStatusRequest) (*projectapp.StatusResponse, error) {
	args := m.Called(ctx, tenantID, actor, projectID, req)
	return getOrNil[*projectapp.StatusResponse](args, 0), args.Error(1)
}

func (m *MockStatusService) List(ctx context.Context, tenantID, projectID uuid.UUID) ([]projectapp.StatusResponse, error) {
	args := m.Called(ctx, tenantID, projectID)
	return getOrNil[[]projectapp.StatusResponse](args, 0), args.Error(1)
}

func (m *MockStatusService) Delete(ctx context.Context, tenantID uuid.UUID, actor shared.Actor, projectID, statusID uuid.UUID) error {
	return m.Called(ctx, tenantID, actor, projectID, statusID).Error(0)
}

type MockOrganisationService struct {
	mock.Mock
}

func (m *MockOrganisationService) Create(ctx context.Context, tenantID uuid.UUID, actor shared.Actor, projectID uuid.UUID, req certapp.CreateOrganisationRequest) (*certapp.OrganisationResponse, error) {
	args := m.Called(ctx, tenantID, actor, projectID, req)
	return getOrNil[*certapp.OrganisationResponse](args, 0), args.Error(1)
}

func (m *MockOrganisationService) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*certapp.OrganisationResponse, error) {
	args := m.Called(ctx, tenantID, id)
	return getOrNil[*certapp.OrganisationResponse](args, 0), args.Error(1)
}

func (m *MockOrganisationService) List(ctx context.Context, tenantID, projectID uuid.UUID, f certapp.OrganisationListFilter) ([]certapp.OrganisationResponse, int64, error) {
	args := m.Called(ctx, tenantID, projectID, f)
	return getOrNil[[]certapp.OrganisationResponse](args, 0), args.Get(1).(int64), args.Error(2)
}

func (m *MockOrganisationService) Update(ctx context.Context, tenantID uuid.UUID, actor shared.Actor, id uuid.UUID, req certapp.UpdateOrganisationRequest) (*certapp.OrganisationResponse, error) {
	args := m.Called(ctx, tenantID, actor, id, req)
	return getOrNil[*certapp.OrganisationResponse](args, 0), args.Error(1)
}

func (m *MockOrganisationService) Deactivate(ctx context.Context, tenantID uuid.UUID, actor shared.Actor, id uuid.UUID) error {
	return m.Called(ctx, tenantID, actor, id).Error(0)
}

func (m *MockOrganisationService) History(ctx context.Context, tenantID, id uuid.UUID) ([]certapp.StatusChangeResponse, error) {
	args := m.Called(ctx, tenantID, id)
	return getOrNil[[]certapp.StatusChangeResponse](args, 0), args.Error(1)
}

func (m *MockOrganisationService) UpdateStatus(ctx context.Context, tenantID uuid.UUID, actor shared.Actor, id uuid.UUID, req certapp.UpdateStatusRequest) (*certapp.UpdateStatusResponse, error) {
	args := m.Called(ctx, tenantID, actor, id, req)
	return getOrNil[*certapp.UpdateStatusResponse](args, 0), args.Error(1)
}

func (m *MockOrganisationService) Approve(ctx context.Context, tenantID uuid.UUID, actor shared.Actor, id uuid.UUID) (*certapp.OrganisationResponse, error) {
	args := m.Called(ctx, tenantID, actor, id)
	return getOrNil[*certapp.OrganisationResponse](args, 0), args.Error(1)
}

func (m *MockOrganisationService) Reject(ctx context.Context, tenantID uuid.UUID, actor shared.Actor, id uuid.UUID, remarks string) (*certapp.OrganisationResponse, error) {
	args := m.Called(ctx, tenantID, actor, id, remarks)
	return getOrNil[*certapp.OrganisationResponse](args, 0), args.Error(1)
}

func (m *MockOrganisationService) Reopen(ctx context.Context, tenantID uuid.UUID, actor shared.Actor, id uuid.UUID) (*certapp.OrganisationResponse, error) {
	args := m.Called(ctx, tenantID, actor, id)
	return getOrNil[*certapp.OrganisationResponse](args, 0), args.Error(1)
}

func (m *MockOrganisationService) GetChecklist(ctx context.Context, tenantID, id uuid.UUID) ([]certapp.ChecklistItemResponse, error) {
	args := m.Called(ctx, tenantID, id)
	return getOrNil[[]certapp.ChecklistItemResponse](args, 0), args.Error(1)
}

func (m *MockOrganisationService) SubmitChecklist(ctx context.Context, tenantID uuid.UUID, actor shared.Actor, id uuid.UUID, req certapp.SubmitChecklistRequest) ([]certapp.ChecklistItemResponse, error) {
	args := m.Called(ctx, tenantID, actor, id, req)
	return getOrNil[[]certapp.ChecklistItemResponse](args, 0), args.Error(1)
}

func (m *MockOrganisationService) InviteReviewer(ctx context.Context, tenantID uuid.UUID, actor shared.Actor, id uuid.UUID, req certapp.InviteReviewerRequest) (*certapp.ReviewerInviteResponse, error) {
	args := m.Called(ctx, tenantID, actor, id, req)
	return getOrNil[*certapp.ReviewerInviteResponse](args, 0), args.Error(1)
}

func (m *MockOrganisationService) StartReviewerSession(ctx context.Context, token string) (*auth.ReviewerSession, error) {
	args := m.Called(ctx, token)
	return getOrNil[*auth.ReviewerSession](args, 0), args.Error(1)
}

type MockAttendeeService struct {
	mock.Mock
}

func (m *MockAttendeeService) Create(ctx context.Context, tenantID uuid.UUID, actor shared.Actor, orgID uuid.UUID, req certapp.CreateAttendeeRequest) (*certapp.AttendeeResponse, error) {
	args := m.Called(ctx, tenantID, actor, orgID, req)
	return getOrNil[*certapp.AttendeeResponse](args, 0), args.Error(1)
}

func (m *MockAttendeeService) ListByOrganisation(ctx context.Context, tenantID, orgID uuid.UUID) ([]certapp.AttendeeResponse, error) {
	args := m.Called(ctx, tenantID, orgID)
	return getOrNil[[]certapp.AttendeeResponse](args, 0), args.Error(1)
}

func (m *MockAttendeeService) ListByCourse(ctx context.Context, tenantID, courseID uuid.UUID) ([]certapp.AttendeeResponse, error) {
	args := m.Called(ctx, tenantID, courseID)
	return getOrNil[[]certapp.AttendeeResponse](args, 0), args.Error(1)
}

func (m *MockAttendeeService) Enrol(ctx context.Context, tenantID uuid.UUID, actor shared.Actor, courseID uuid.UUID, req certapp.EnrolAttendeesRequest) (int64, error) {
	args := m.Called(ctx, tenantID, actor, courseID, req)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockAttendeeService) Import(ctx context.Context, tenantID uuid.UUID, actor shared.Actor, orgID uuid.UUID, courseID *uuid.UUID, file io.Reader) (*certapp.ImportAttendeesResult, error) {
	data, _ := io.ReadAll(file)
	args := m.Called(ctx, tenantID, actor, orgID, courseID, string(data))
	return getOrNil[*certapp.ImportAttendeesResult](args, 0), args.Error(1)
}

type MockCertificateService struct {
	mock.Mock
}

func (m *MockCertificateService) Issue(ctx context.Context, tenantID uuid.UUID, actor shared.Actor, courseID uuid.UUID, req certapp.IssueCertificatesRequest) ([]certapp.CertificateResponse, error) {
	args := m.Called(ctx, tenantID, actor, courseID, req)
	return getOrNil[[]certapp.CertificateResponse](args, 0), args.Error(1)
}

func (m *MockCertificateService) ListByCourse(ctx context.Context, tenantID, courseID uuid.UUID) ([]certapp.CertificateResponse, error) {
	args := m.Called(ctx, tenantID, courseID)
	return getOrNil[[]certapp.CertificateResponse](args, 0), args.Error(1)
}

func (m *MockCertificateService) Verify(ctx context.Context, tenantID uuid.UUID, certificateID string) (*certapp.CertificateResponse, error) {
	args := m.Called(ctx, tenantID, certificateID)
	return getOrNil[*certapp.CertificateResponse](args, 0), args.Error(1)
}

func (m *MockCertificateService) RenderPDF(ctx context.Context, tenantID uuid.UUID, certificateID string) ([]byte, *certapp.StoredDocumentResponse, error) {
	args := m.Called(ctx, tenantID, certificateID)
	return getOrNil[[]byte](args, 0), getOrNil[*certapp.StoredDocumentResponse](args, 1), args.Error(2)
}

func (m *MockCertificateService) StorePDF(ctx context.Context, tenantID uuid.UUID, actor shared.Actor, certificateID string) (*certapp.StoredDocumentResponse, error) {
	args := m.Called(ctx, tenantID, actor, certificateID)
	return getOrNil[*certapp.StoredDocumentResponse](args, 0), args.Error(1)
}

func (m *MockCertificateService) RegenerateCourse(ctx context.Context, tenantID uuid.UUID, actor shared.Actor, courseID uuid.UUID) (*certapp.RegenerateResult, error) {
	args := m.Called(ctx, tenantID, actor, courseID)
	return getOrNil[*certapp.RegenerateResult](args, 0), args.Error(1)
}

func (m *MockCertificateService) IssueOrganisationCertificate(ctx context.Context, tenantID uuid.UUID, actor shared.Actor, orgID uuid.UUID) (*certapp.OrganisationCertificateResponse, error) {
	args := m.Called(ctx, tenantID, actor, orgID)
	return getOrNil[*certapp.OrganisationCertificateResponse](args, 0), args.Error(1)
}

func (m *MockCertificateService) OrganisationPDF(ctx context.Context, tenantID, orgID uuid.UUID) ([]byte, *certapp.StoredDocumentResponse, error) {
	args := m.Called(ctx, tenantID, orgID)
	return getOrNil[[]byte](args, 0), getOrNil[*certapp.StoredDocumentResponse](args, 1), args.Error(2)
}

// fakeCookies records the session id written by the reviewer handler
type fakeCookies struct {
	sessionID string
	cleared   bool
}

func (f *fakeCookies) SetSessionID(_ *http.Request, w http.ResponseWriter, id string) error {
	f.sessionID = id
	http.SetCookie(w, &http.Cookie{Name: auth.ReviewerCookieName, Value: "signed-" + id})
	return nil
}

func (f *fakeCookies) Clear(*http.Request, http.ResponseWriter) error {
	f.cleared = true
	return nil
}

var (
	_ ProjectService        = (*MockProjectService)(nil)
	_ StatusService         = (*MockStatusService)(nil)
	_ OrganisationService   = (*MockOrganisationService)(nil)
	_ AttendeeService       = (*MockAttendeeService)(nil)
	_ CertificateService    = (*MockCertificateService)(nil)
	_ ReviewerSessionWriter = (*fakeCookies)(nil)
)
