package certification

import (
	"time"

	"github.com/google/uuid"
	"github.com/projecta/backend/internal/domain/audit"
	"github.com/projecta/backend/internal/domain/certification"
	"github.com/projecta/backend/internal/domain/shared"
	"github.com/projecta/backend/internal/infrastructure/printing"
)

// =============================================================================
// Organisation DTOs
// =============================================================================

// CreateOrganisationRequest represents a request to register an organisation
type CreateOrganisationRequest struct {
	Name        string   `json:"name" binding:"required,min=1,max=200"`
	Email       string   `json:"email" binding:"required,email,max=200"`
	Address     string   `json:"address" binding:"max=1000"`
	Country     string   `json:"country" binding:"max=100"`
	Phone       string   `json:"phone" binding:"max=50"`
	OwnerEmails []string `json:"owner_emails" binding:"omitempty,dive,email"`
}

// UpdateOrganisationRequest represents a request to update an organisation
type UpdateOrganisationRequest struct {
	Name         *string  `json:"name" binding:"omitempty,min=1,max=200"`
	Email        *string  `json:"email" binding:"omitempty,email,max=200"`
	Address      *string  `json:"address" binding:"omitempty,max=1000"`
	Country      *string  `json:"country" binding:"omitempty,max=100"`
	Phone        *string  `json:"phone" binding:"omitempty,max=50"`
	OwnerMessage *string  `json:"owner_message"`
	OwnerEmails  []string `json:"owner_emails" binding:"omitempty,dive,email"`
}

// OrganisationListFilter filters organisations of a project
type OrganisationListFilter struct {
	Search        string `form:"search"`
	WorkflowState string `form:"workflow_state" binding:"omitempty,oneof=pending approved rejected"`
	IncludeAll    bool   `form:"include_inactive"`
	Page          int    `form:"page" binding:"omitempty,min=1"`
	PageSize      int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy       string `form:"order_by"`
	OrderDir      string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// UpdateStatusRequest moves an organisation to a project status
type UpdateStatusRequest struct {
	StatusID uuid.UUID `json:"status" form:"status" binding:"required"`
	Remarks  string    `json:"remarks" form:"remarks"`
}

// UpdateStatusResponse is the body returned to JSON clients of update-status
type UpdateStatusResponse struct {
	Success bool   `json:"success"`
	Status  string `json:"status"`
}

// RejectRequest carries the reason for a rejection
type RejectRequest struct {
	Remarks string `json:"remarks" binding:"required,min=1"`
}

// OrganisationResponse represents an organisation in API responses
type OrganisationResponse struct {
	ID            uuid.UUID   `json:"id"`
	ProjectID     uuid.UUID   `json:"project_id"`
	Name          string      `json:"name"`
	Slug          string      `json:"slug"`
	Email         string      `json:"email"`
	Address       string      `json:"address,omitempty"`
	Country       string      `json:"country,omitempty"`
	Phone         string      `json:"phone,omitempty"`
	Logo          string      `json:"logo,omitempty"`
	OwnerIDs      []uuid.UUID `json:"owner_ids"`
	OwnerEmails   []string    `json:"owner_emails"`
	WorkflowState string      `json:"workflow_state"`
	StatusID      *uuid.UUID  `json:"status_id,omitempty"`
	Remarks       string      `json:"remarks,omitempty"`
	OwnerMessage  string      `json:"owner_message,omitempty"`
	IsActive      bool        `json:"is_active"`
	Version       int         `json:"version"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// ToOrganisationResponse converts a domain organisation
func ToOrganisationResponse(o *certification.CertifyingOrganisation) OrganisationResponse {
	return OrganisationResponse{
		ID:            o.ID,
		ProjectID:     o.ProjectID,
		Name:          o.Name,
		Slug:          o.Slug,
		Email:         o.Email,
		Address:       o.Address,
		Country:       o.Country,
		Phone:         o.Phone,
		Logo:          o.Logo,
		OwnerIDs:      o.OwnerIDs,
		OwnerEmails:   o.OwnerEmails,
		WorkflowState: string(o.WorkflowState),
		StatusID:      o.StatusID,
		Remarks:       o.Remarks,
		OwnerMessage:  o.OwnerMessage,
		IsActive:      o.IsActive,
		Version:       o.Version,
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
}

// StatusChangeResponse is one row of an organisation's history
type StatusChangeResponse struct {
	ID           uuid.UUID  `json:"id"`
	FromState    string     `json:"from_state"`
	ToState      string     `json:"to_state"`
	StatusID     *uuid.UUID `json:"status_id,omitempty"`
	StatusName   string     `json:"status_name,omitempty"`
	Actor        string     `json:"actor"`
	Remarks      string     `json:"remarks,omitempty"`
	ChangeReason string     `json:"change_reason"`
	CreatedAt    time.Time  `json:"created_at"`
}

// ToStatusChangeResponses converts audit rows
func ToStatusChangeResponses(changes []audit.StatusChange) []StatusChangeResponse {
	out := make([]StatusChangeResponse, len(changes))
	for i, c := range changes {
		out[i] = StatusChangeResponse{
			ID:           c.ID,
			FromState:    string(c.FromState),
			ToState:      string(c.ToState),
			StatusID:     c.StatusID,
			StatusName:   c.StatusName,
			Actor:        c.Actor,
			Remarks:      c.Remarks,
			ChangeReason: c.ChangeReason,
			CreatedAt:    c.CreatedAt,
		}
	}
	return out
}

// =============================================================================
// Checklist DTOs
// =============================================================================

// ChecklistAnswerInput is one submitted answer
type ChecklistAnswerInput struct {
	ChecklistID uuid.UUID `json:"checklist_id" binding:"required"`
	Checked     bool      `json:"checked"`
	Text        string    `json:"text_box_content" binding:"max=5000"`
}

// SubmitChecklistRequest carries answers to the project's questions
type SubmitChecklistRequest struct {
	Answers []ChecklistAnswerInput `json:"answers" binding:"required,min=1,dive"`
}

// ChecklistItemResponse is a question merged with the organisation's answer
type ChecklistItemResponse struct {
	ChecklistID    uuid.UUID `json:"checklist_id"`
	Question       string    `json:"question"`
	HelpText       string    `json:"help_text,omitempty"`
	Target         string    `json:"target"`
	Order          int       `json:"order"`
	Checked        bool      `json:"checked"`
	TextBoxContent string    `json:"text_box_content,omitempty"`
	AnsweredBy     string    `json:"answered_by,omitempty"`
}

// =============================================================================
// Reviewer DTOs
// =============================================================================

// InviteReviewerRequest invites an external reviewer
type InviteReviewerRequest struct {
	Email     string `json:"email" binding:"required,email,max=200"`
	ValidDays int    `json:"valid_days" binding:"omitempty,min=1,max=365"`
}

// ReviewerInviteResponse is returned once; the token is never shown again
type ReviewerInviteResponse struct {
	ReviewerID  uuid.UUID `json:"reviewer_id"`
	Email       string    `json:"email"`
	ExpiresAt   time.Time `json:"expires_at"`
	AccessToken string    `json:"access_token"`
}

// StartReviewerSessionRequest exchanges an access token for a session
type StartReviewerSessionRequest struct {
	Token string `json:"token" form:"token" binding:"required"`
}

// =============================================================================
// Course DTOs
// =============================================================================

// CreateTrainingCenterRequest creates a training centre
type CreateTrainingCenterRequest struct {
	Name    string `json:"name" binding:"required,min=1,max=200"`
	Email   string `json:"email" binding:"omitempty,email,max=200"`
	Address string `json:"address" binding:"max=1000"`
	Phone   string `json:"phone" binding:"max=50"`
}

// TrainingCenterResponse represents a training centre
type TrainingCenterResponse struct {
	ID             uuid.UUID `json:"id"`
	OrganisationID uuid.UUID `json:"organisation_id"`
	Name           string    `json:"name"`
	Slug           string    `json:"slug"`
	Email          string    `json:"email,omitempty"`
	Address        string    `json:"address,omitempty"`
	Phone          string    `json:"phone,omitempty"`
}

// CreateCourseTypeRequest creates a course type
type CreateCourseTypeRequest struct {
	Name             string `json:"name" binding:"required,min=1,max=200"`
	Description      string `json:"description"`
	InstructionHours string `json:"instruction_hours" binding:"max=50"`
	Coordinator      string `json:"coordinator" binding:"max=200"`
}

// CourseTypeResponse represents a course type
type CourseTypeResponse struct {
	ID               uuid.UUID `json:"id"`
	OrganisationID   uuid.UUID `json:"organisation_id"`
	Name             string    `json:"name"`
	Slug             string    `json:"slug"`
	Description      string    `json:"description,omitempty"`
	InstructionHours string    `json:"instruction_hours,omitempty"`
	Coordinator      string    `json:"coordinator,omitempty"`
}

// CreateCourseRequest schedules a course
type CreateCourseRequest struct {
	CourseTypeID      uuid.UUID `json:"course_type_id" binding:"required"`
	TrainingCenterID  uuid.UUID `json:"training_center_id" binding:"required"`
	TrainedCompetence string    `json:"trained_competence" binding:"max=255"`
	Language          string    `json:"language" binding:"max=50"`
	StartDate         time.Time `json:"start_date" binding:"required"`
	EndDate           time.Time `json:"end_date" binding:"required"`
}

// CourseResponse represents a course
type CourseResponse struct {
	ID                uuid.UUID `json:"id"`
	OrganisationID    uuid.UUID `json:"organisation_id"`
	CourseTypeID      uuid.UUID `json:"course_type_id"`
	TrainingCenterID  uuid.UUID `json:"training_center_id"`
	TrainedCompetence string    `json:"trained_competence,omitempty"`
	Language          string    `json:"language,omitempty"`
	StartDate         time.Time `json:"start_date"`
	EndDate           time.Time `json:"end_date"`
	Slug              string    `json:"slug"`
}

// =============================================================================
// Attendee DTOs
// =============================================================================

// CreateAttendeeRequest adds one attendee
type CreateAttendeeRequest struct {
	Firstname string     `json:"firstname" binding:"required,min=1,max=200"`
	Surname   string     `json:"surname" binding:"required,min=1,max=200"`
	Email     string     `json:"email" binding:"required,email,max=200"`
	CourseID  *uuid.UUID `json:"course_id"`
}

// EnrolAttendeesRequest enrols existing attendees in a course
type EnrolAttendeesRequest struct {
	AttendeeIDs []uuid.UUID `json:"attendee_ids" binding:"required,min=1"`
}

// AttendeeResponse represents an attendee
type AttendeeResponse struct {
	ID             uuid.UUID `json:"id"`
	OrganisationID uuid.UUID `json:"organisation_id"`
	Firstname      string    `json:"firstname"`
	Surname        string    `json:"surname"`
	Email          string    `json:"email"`
	FullName       string    `json:"full_name"`
}

// ToAttendeeResponse converts a domain attendee
func ToAttendeeResponse(a *certification.Attendee) AttendeeResponse {
	return AttendeeResponse{
		ID:             a.ID,
		OrganisationID: a.OrganisationID,
		Firstname:      a.Firstname,
		Surname:        a.Surname,
		Email:          a.Email,
		FullName:       a.FullName(),
	}
}

// ImportRowError reports one rejected CSV row
type ImportRowError struct {
	Line    int    `json:"line"`
	Column  string `json:"column,omitempty"`
	Value   string `json:"value,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ImportAttendeesResult summarises a CSV import
type ImportAttendeesResult struct {
	TotalRows         int              `json:"total_rows"`
	Created           int              `json:"created"`
	SkippedDuplicates int              `json:"skipped_duplicates"`
	Enrolled          int              `json:"enrolled"`
	Errors            []ImportRowError `json:"errors"`
	ErrorsTruncated   bool             `json:"errors_truncated,omitempty"`
}

// =============================================================================
// Certificate DTOs
// =============================================================================

// IssueCertificatesRequest issues certificates to attendees of a course.
// An empty list issues to every enrolled attendee without one.
type IssueCertificatesRequest struct {
	AttendeeIDs []uuid.UUID `json:"attendee_ids"`
}

// CertificateResponse represents an issued certificate. Kind tells attendee
// certificates from organisation ones.
type CertificateResponse struct {
	ID             uuid.UUID  `json:"id"`
	CertificateID  string     `json:"certificate_id"`
	Kind           string     `json:"kind"`
	CourseID       uuid.UUID  `json:"course_id,omitempty"`
	AttendeeID     uuid.UUID  `json:"attendee_id,omitempty"`
	OrganisationID uuid.UUID  `json:"organisation_id,omitempty"`
	IssuedBy       *uuid.UUID `json:"issued_by,omitempty"`
	IsPaid         bool       `json:"is_paid"`
	Revoked        bool       `json:"revoked"`
	CreatedAt      time.Time  `json:"created_at"`
}

// ToCertificateResponse converts a domain certificate
func ToCertificateResponse(c *certification.Certificate) CertificateResponse {
	return CertificateResponse{
		ID:            c.ID,
		CertificateID: c.CertificateID,
		Kind:          string(printing.KindAttendee),
		CourseID:      c.CourseID,
		AttendeeID:    c.AttendeeID,
		IssuedBy:      c.IssuedBy,
		IsPaid:        c.IsPaid,
		Revoked:       c.Revoked,
		CreatedAt:     c.CreatedAt,
	}
}

// ToOrganisationCertificateVerification presents an organisation certificate
// in the shape returned by certificate verification
func ToOrganisationCertificateVerification(c *certification.OrganisationCertificate) CertificateResponse {
	return CertificateResponse{
		ID:             c.ID,
		CertificateID:  c.CertificateID,
		Kind:           string(printing.KindOrganisation),
		OrganisationID: c.OrganisationID,
		IssuedBy:       c.IssuedBy,
		CreatedAt:      c.CreatedAt,
	}
}

// OrganisationCertificateResponse represents an organisation certificate
type OrganisationCertificateResponse struct {
	ID             uuid.UUID `json:"id"`
	CertificateID  string    `json:"certificate_id"`
	OrganisationID uuid.UUID `json:"organisation_id"`
	Path           string    `json:"path,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// StoredDocumentResponse is returned when a PDF is written to storage
type StoredDocumentResponse struct {
	CertificateID string `json:"certificate_id"`
	Path          string `json:"path"`
	Bytes         int    `json:"bytes"`
}

// RegenerateResult summarises a bulk re-render of a course's certificates
type RegenerateResult struct {
	Rendered int      `json:"rendered"`
	Failed   []string `json:"failed,omitempty"`
}

func toFilter(f OrganisationListFilter) shared.Filter {
	filter := shared.DefaultFilter()
	filter.OrderBy = "name"
	filter.OrderDir = "asc"
	if f.Page > 0 {
		filter.Page = f.Page
	}
	if f.PageSize > 0 {
		filter.PageSize = f.PageSize
	}
	if f.OrderBy != "" {
		filter.OrderBy = f.OrderBy
	}
	if f.OrderDir != "" {
		filter.OrderDir = f.OrderDir
	}
	filter.Search = f.Search
	if f.WorkflowState != "" {
		filter.Filters["workflow_state"] = f.WorkflowState
	}
	if !f.IncludeAll {
		filter.Filters["is_active"] = true
	}
	return filter
}
