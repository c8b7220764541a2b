package handler

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	certapp "github.com/projecta/backend/internal/application/certification"
	"github.com/projecta/backend/internal/interfaces/http/middleware"
)

// OrganisationHandler handles certifying organisations and their review
// workflow
type OrganisationHandler struct {
	BaseHandler
	organisations OrganisationService
}

// NewOrganisationHandler creates a new OrganisationHandler
func NewOrganisationHandler(organisations OrganisationService) *OrganisationHandler {
	return &OrganisationHandler{organisations: organisations}
}

// Create godoc
// @ID           createOrganisation
// @Summary      Register a certifying organisation
// @Description  The caller becomes an owner. New organisations start pending.
// @Tags         organisations
// @Accept       json
// @Produce      json
// @Param        id path string true "Project ID"
// @Param        request body certapp.CreateOrganisationRequest true "Organisation"
// @Success      201 {object} APIResponse[certapp.OrganisationResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /projects/{id}/organisations [post]
func (h *OrganisationHandler) Create(c *gin.Context) {
	actor, tenantID, ok := h.actor(c)
	if !ok {
		return
	}
	projectID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req certapp.CreateOrganisationRequest
	if !h.bindJSON(c, &req) {
		return
	}

	org, err := h.organisations.Create(c.Request.Context(), tenantID, actor, projectID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, org)
}

// List godoc
// @ID           listOrganisations
// @Summary      List organisations of a project
// @Tags         organisations
// @Produce      json
// @Param        id path string true "Project ID"
// @Param        workflow_state query string false "pending, approved or rejected"
// @Param        search query string false "Name search"
// @Param        page query int false "Page"
// @Param        page_size query int false "Page size"
// @Success      200 {object} APIResponse[[]certapp.OrganisationResponse]
// @Router       /projects/{id}/organisations [get]
func (h *OrganisationHandler) List(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	projectID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var filter certapp.OrganisationListFilter
	if !h.bindQuery(c, &filter) {
		return
	}

	orgs, total, err := h.organisations.List(c.Request.Context(), tenantID, projectID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, orgs, total, filter.Page, filter.PageSize)
}

// GetByID godoc
// @ID           getOrganisation
// @Summary      Get an organisation
// @Tags         organisations
// @Produce      json
// @Param        id path string true "Organisation ID"
// @Success      200 {object} APIResponse[certapp.OrganisationResponse]
// @Failure      404 {object} ErrorResponse
// @Router       /organisations/{id} [get]
func (h *OrganisationHandler) GetByID(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	org, err := h.organisations.GetByID(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, org)
}

// Update godoc
// @ID           updateOrganisation
// @Summary      Update an organisation
// @Tags         organisations
// @Accept       json
// @Produce      json
// @Param        id path string true "Organisation ID"
// @Param        request body certapp.UpdateOrganisationRequest true "Changes"
// @Success      200 {object} APIResponse[certapp.OrganisationResponse]
// @Security     BearerAuth
// @Router       /organisations/{id} [put]
func (h *OrganisationHandler) Update(c *gin.Context) {
	actor, tenantID, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req certapp.UpdateOrganisationRequest
	if !h.bindJSON(c, &req) {
		return
	}

	org, err := h.organisations.Update(c.Request.Context(), tenantID, actor, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, org)
}

// Deactivate godoc
// @ID           deactivateOrganisation
// @Summary      Deactivate an organisation
// @Tags         organisations
// @Param        id path string true "Organisation ID"
// @Success      204
// @Security     BearerAuth
// @Router       /organisations/{id}/deactivate [post]
func (h *OrganisationHandler) Deactivate(c *gin.Context) {
	actor, tenantID, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	if err := h.organisations.Deactivate(c.Request.Context(), tenantID, actor, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// UpdateStatus godoc
// @ID           updateOrganisationStatus
// @Summary      Move an organisation to a project status
// @Description  JSON clients receive {"success":true,"status":"<name>"}. Form
// @Description  posts are redirected to the next parameter or the organisation page.
// @Tags         organisations
// @Accept       json,x-www-form-urlencoded
// @Produce      json
// @Param        id path string true "Organisation ID"
// @Param        request body certapp.UpdateStatusRequest true "Target status and remarks"
// @Success      200 {object} certapp.UpdateStatusResponse
// @Success      302
// @Failure      403 {object} ErrorResponse
// @Failure      502 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /organisations/{id}/update-status [post]
func (h *OrganisationHandler) UpdateStatus(c *gin.Context) {
	actor, tenantID, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	form := isFormPost(c)
	var req certapp.UpdateStatusRequest
	if form {
		statusID, err := uuid.Parse(c.PostForm("status"))
		if err != nil {
			h.BadRequest(c, "Invalid status")
			return
		}
		req = certapp.UpdateStatusRequest{StatusID: statusID, Remarks: c.PostForm("remarks")}
	} else if !h.bindJSON(c, &req) {
		return
	}

	resp, err := h.organisations.UpdateStatus(c.Request.Context(), tenantID, actor, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	if form {
		c.Redirect(http.StatusFound, redirectTarget(c.PostForm("next"), "/organisations/"+id.String()))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Approve godoc
// @ID           approveOrganisation
// @Summary      Approve an organisation
// @Tags         organisations
// @Produce      json
// @Param        id path string true "Organisation ID"
// @Success      200 {object} APIResponse[certapp.OrganisationResponse]
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /organisations/{id}/approve [post]
func (h *OrganisationHandler) Approve(c *gin.Context) {
	actor, tenantID, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	org, err := h.organisations.Approve(c.Request.Context(), tenantID, actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, org)
}

// Reject godoc
// @ID           rejectOrganisation
// @Summary      Reject an organisation
// @Tags         organisations
// @Accept       json
// @Produce      json
// @Param        id path string true "Organisation ID"
// @Param        request body certapp.RejectRequest true "Remarks"
// @Success      200 {object} APIResponse[certapp.OrganisationResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /organisations/{id}/reject [post]
func (h *OrganisationHandler) Reject(c *gin.Context) {
	actor, tenantID, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req certapp.RejectRequest
	if !h.bindJSON(c, &req) {
		return
	}

	org, err := h.organisations.Reject(c.Request.Context(), tenantID, actor, id, req.Remarks)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, org)
}

// Reopen godoc
// @ID           reopenOrganisation
// @Summary      Return a rejected organisation to pending
// @Tags         organisations
// @Produce      json
// @Param        id path string true "Organisation ID"
// @Success      200 {object} APIResponse[certapp.OrganisationResponse]
// @Security     BearerAuth
// @Router       /organisations/{id}/reopen [post]
func (h *OrganisationHandler) Reopen(c *gin.Context) {
	actor, tenantID, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	org, err := h.organisations.Reopen(c.Request.Context(), tenantID, actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, org)
}

// History godoc
// @ID           getOrganisationHistory
// @Summary      Status change history
// @Tags         organisations
// @Produce      json
// @Param        id path string true "Organisation ID"
// @Success      200 {object} APIResponse[[]certapp.StatusChangeResponse]
// @Security     BearerAuth
// @Router       /organisations/{id}/history [get]
func (h *OrganisationHandler) History(c *gin.Context) {
	_, tenantID, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	history, err := h.organisations.History(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, history)
}

// GetChecklist godoc
// @ID           getOrganisationChecklist
// @Summary      Review checklist with answers
// @Tags         organisations
// @Produce      json
// @Param        id path string true "Organisation ID"
// @Success      200 {object} APIResponse[[]certapp.ChecklistItemResponse]
// @Security     BearerAuth
// @Router       /organisations/{id}/checklist [get]
func (h *OrganisationHandler) GetChecklist(c *gin.Context) {
	_, tenantID, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	items, err := h.organisations.GetChecklist(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, items)
}

// SubmitChecklist godoc
// @ID           submitOrganisationChecklist
// @Summary      Answer review checklist questions
// @Tags         organisations
// @Accept       json
// @Produce      json
// @Param        id path string true "Organisation ID"
// @Param        request body certapp.SubmitChecklistRequest true "Answers"
// @Success      200 {object} APIResponse[[]certapp.ChecklistItemResponse]
// @Security     BearerAuth
// @Router       /organisations/{id}/checklist [put]
func (h *OrganisationHandler) SubmitChecklist(c *gin.Context) {
	actor, tenantID, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req certapp.SubmitChecklistRequest
	if !h.bindJSON(c, &req) {
		return
	}

	items, err := h.organisations.SubmitChecklist(c.Request.Context(), tenantID, actor, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, items)
}

func isFormPost(c *gin.Context) bool {
	switch c.ContentType() {
	case gin.MIMEPOSTForm, gin.MIMEMultipartPOSTForm:
		return true
	}
	return false
}

// redirectTarget accepts only same-site paths for next. Browsers drop tabs
// and newlines from URLs, so any control character rejects the target.
func redirectTarget(next, fallback string) string {
	if strings.ContainsFunc(next, func(r rune) bool { return r < 0x20 || r == 0x7f || r == '\\' }) {
		return fallback
	}
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") {
		return fallback
	}
	u, err := url.Parse(next)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return fallback
	}
	return next
}

// ReviewerSessionWriter stores the reviewer session id in a cookie
type ReviewerSessionWriter interface {
	SetSessionID(r *http.Request, w http.ResponseWriter, id string) error
	Clear(r *http.Request, w http.ResponseWriter) error
}

// ReviewerHandler handles external reviewer invitations and sessions
type ReviewerHandler struct {
	BaseHandler
	organisations OrganisationService
	cookies       ReviewerSessionWriter
}

// NewReviewerHandler creates a new ReviewerHandler
func NewReviewerHandler(organisations OrganisationService, cookies ReviewerSessionWriter) *ReviewerHandler {
	return &ReviewerHandler{organisations: organisations, cookies: cookies}
}

// Invite godoc
// @ID           inviteReviewer
// @Summary      Invite an external reviewer
// @Description  The access token is only returned in this response
// @Tags         reviewers
// @Accept       json
// @Produce      json
// @Param        id path string true "Organisation ID"
// @Param        request body certapp.InviteReviewerRequest true "Reviewer"
// @Success      201 {object} APIResponse[certapp.ReviewerInviteResponse]
// @Security     BearerAuth
// @Router       /organisations/{id}/reviewers [post]
func (h *ReviewerHandler) Invite(c *gin.Context) {
	actor, tenantID, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req certapp.InviteReviewerRequest
	if !h.bindJSON(c, &req) {
		return
	}

	invite, err := h.organisations.InviteReviewer(c.Request.Context(), tenantID, actor, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, invite)
}

// ReviewerSessionResponse describes a started reviewer session
type ReviewerSessionResponse struct {
	OrganisationID uuid.UUID `json:"organisation_id"`
	Email          string    `json:"email"`
	ExpiresAt      string    `json:"expires_at"`
}

// StartSession godoc
// @ID           startReviewerSession
// @Summary      Exchange a reviewer access token for a cookie session
// @Tags         reviewers
// @Accept       json,x-www-form-urlencoded
// @Produce      json
// @Param        request body certapp.StartReviewerSessionRequest true "Access token"
// @Success      200 {object} APIResponse[ReviewerSessionResponse]
// @Failure      401 {object} ErrorResponse
// @Router       /reviewers/session [post]
func (h *ReviewerHandler) StartSession(c *gin.Context) {
	var req certapp.StartReviewerSessionRequest
	if err := c.ShouldBind(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	session, err := h.organisations.StartReviewerSession(c.Request.Context(), req.Token)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if err := h.cookies.SetSessionID(c.Request, c.Writer, session.ID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, ReviewerSessionResponse{
		OrganisationID: session.OrganisationID,
		Email:          session.Email,
		ExpiresAt:      session.ExpiresAt.UTC().Format(time.RFC3339),
	})
}

// EndSession godoc
// @ID           endReviewerSession
// @Summary      Clear the reviewer cookie
// @Tags         reviewers
// @Success      204
// @Router       /reviewers/session [delete]
func (h *ReviewerHandler) EndSession(c *gin.Context) {
	if err := h.cookies.Clear(c.Request, c.Writer); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
