package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	sponsorshipapp "github.com/projecta/backend/internal/application/sponsorship"
	"github.com/projecta/backend/internal/domain/shared"
)

// SponsorshipHandler handles sponsors, sponsorship levels and periods
type SponsorshipHandler struct {
	BaseHandler
	sponsorship SponsorshipService
}

// NewSponsorshipHandler creates a new SponsorshipHandler
func NewSponsorshipHandler(sponsorship SponsorshipService) *SponsorshipHandler {
	return &SponsorshipHandler{sponsorship: sponsorship}
}

// CancelSubscriptionRequest carries the reason recorded on a cancelled
// recurring period
type CancelSubscriptionRequest struct {
	Reason string `json:"reason" binding:"max=1000"`
}

// CreateSponsor godoc
// @ID           createSponsor
// @Summary      Apply as a sponsor
// @Tags         sponsorship
// @Accept       json
// @Produce      json
// @Param        id path string true "Project ID"
// @Param        request body sponsorshipapp.CreateSponsorRequest true "Sponsor"
// @Success      201 {object} APIResponse[sponsorshipapp.SponsorResponse]
// @Security     BearerAuth
// @Router       /projects/{id}/sponsors [post]
func (h *SponsorshipHandler) CreateSponsor(c *gin.Context) {
	actor, tenantID, ok := h.actor(c)
	if !ok {
		return
	}
	projectID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req sponsorshipapp.CreateSponsorRequest
	if !h.bindJSON(c, &req) {
		return
	}

	sponsor, err := h.sponsorship.CreateSponsor(c.Request.Context(), tenantID, actor, projectID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, sponsor)
}

// ListSponsors godoc
// @ID           listSponsors
// @Summary      List sponsors
// @Description  Sponsorship managers see every sponsor, other users only approved ones
// @Tags         sponsorship
// @Produce      json
// @Param        id path string true "Project ID"
// @Success      200 {object} APIResponse[[]sponsorshipapp.SponsorResponse]
// @Security     BearerAuth
// @Router       /projects/{id}/sponsors [get]
func (h *SponsorshipHandler) ListSponsors(c *gin.Context) {
	actor, tenantID, ok := h.actor(c)
	if !ok {
		return
	}
	projectID, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	sponsors, err := h.sponsorship.ListSponsors(c.Request.Context(), tenantID, actor, projectID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, sponsors)
}

// ApproveSponsor godoc
// @ID           approveSponsor
// @Summary      Approve a sponsor
// @Tags         sponsorship
// @Accept       json
// @Produce      json
// @Param        id path string true "Sponsor ID"
// @Param        request body sponsorshipapp.TransitionRequest false "Remarks"
// @Success      200 {object} APIResponse[sponsorshipapp.SponsorResponse]
// @Security     BearerAuth
// @Router       /sponsors/{id}/approve [post]
func (h *SponsorshipHandler) ApproveSponsor(c *gin.Context) {
	h.moveSponsor(c, h.sponsorship.ApproveSponsor)
}

// RejectSponsor godoc
// @ID           rejectSponsor
// @Summary      Reject a sponsor
// @Tags         sponsorship
// @Accept       json
// @Produce      json
// @Param        id path string true "Sponsor ID"
// @Param        request body sponsorshipapp.TransitionRequest true "Remarks"
// @Success      200 {object} APIResponse[sponsorshipapp.SponsorResponse]
// @Security     BearerAuth
// @Router       /sponsors/{id}/reject [post]
func (h *SponsorshipHandler) RejectSponsor(c *gin.Context) {
	h.moveSponsor(c, h.sponsorship.RejectSponsor)
}

type sponsorTransition = func(ctx context.Context, tenantID uuid.UUID, actor shared.Actor, id uuid.UUID, req sponsorshipapp.TransitionRequest) (*sponsorshipapp.SponsorResponse, error)

func (h *SponsorshipHandler) moveSponsor(c *gin.Context, move sponsorTransition) {
	actor, tenantID, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req sponsorshipapp.TransitionRequest
	if c.Request.ContentLength != 0 && !h.bindJSON(c, &req) {
		return
	}

	sponsor, err := move(c.Request.Context(), tenantID, actor, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, sponsor)
}

// CreateLevel godoc
// @ID           createSponsorshipLevel
// @Summary      Add a sponsorship level
// @Tags         sponsorship
// @Accept       json
// @Produce      json
// @Param        id path string true "Project ID"
// @Param        request body sponsorshipapp.CreateLevelRequest true "Level"
// @Success      201 {object} APIResponse[sponsorshipapp.LevelResponse]
// @Security     BearerAuth
// @Router       /projects/{id}/sponsorship-levels [post]
func (h *SponsorshipHandler) CreateLevel(c *gin.Context) {
	actor, tenantID, ok := h.actor(c)
	if !ok {
		return
	}
	projectID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req sponsorshipapp.CreateLevelRequest
	if !h.bindJSON(c, &req) {
		return
	}

	level, err := h.sponsorship.CreateLevel(c.Request.Context(), tenantID, actor, projectID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, level)
}

// ListLevels godoc
// @ID           listSponsorshipLevels
// @Summary      List sponsorship levels
// @Tags         sponsorship
// @Produce      json
// @Param        id path string true "Project ID"
// @Success      200 {object} APIResponse[[]sponsorshipapp.LevelResponse]
// @Router       /projects/{id}/sponsorship-levels [get]
func (h *SponsorshipHandler) ListLevels(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	projectID, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	levels, err := h.sponsorship.ListLevels(c.Request.Context(), tenantID, projectID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, levels)
}

// CreatePeriod godoc
// @ID           createSponsorshipPeriod
// @Summary      Add a sponsorship period
// @Tags         sponsorship
// @Accept       json
// @Produce      json
// @Param        id path string true "Sponsor ID"
// @Param        request body sponsorshipapp.CreatePeriodRequest true "Period"
// @Success      201 {object} APIResponse[sponsorshipapp.PeriodResponse]
// @Security     BearerAuth
// @Router       /sponsors/{id}/periods [post]
func (h *SponsorshipHandler) CreatePeriod(c *gin.Context) {
	actor, tenantID, ok := h.actor(c)
	if !ok {
		return
	}
	sponsorID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req sponsorshipapp.CreatePeriodRequest
	if !h.bindJSON(c, &req) {
		return
	}

	period, err := h.sponsorship.CreatePeriod(c.Request.Context(), tenantID, actor, sponsorID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, period)
}

// ListPeriods godoc
// @ID           listSponsorshipPeriods
// @Summary      List periods of a sponsor
// @Tags         sponsorship
// @Produce      json
// @Param        id path string true "Sponsor ID"
// @Success      200 {object} APIResponse[[]sponsorshipapp.PeriodResponse]
// @Security     BearerAuth
// @Router       /sponsors/{id}/periods [get]
func (h *SponsorshipHandler) ListPeriods(c *gin.Context) {
	_, tenantID, ok := h.actor(c)
	if !ok {
		return
	}
	sponsorID, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	periods, err := h.sponsorship.ListPeriods(c.Request.Context(), tenantID, sponsorID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, periods)
}

// ApprovePeriod godoc
// @ID           approveSponsorshipPeriod
// @Summary      Approve a sponsorship period
// @Tags         sponsorship
// @Accept       json
// @Produce      json
// @Param        id path string true "Period ID"
// @Param        request body sponsorshipapp.TransitionRequest false "Remarks"
// @Success      200 {object} APIResponse[sponsorshipapp.PeriodResponse]
// @Security     BearerAuth
// @Router       /sponsorship-periods/{id}/approve [post]
func (h *SponsorshipHandler) ApprovePeriod(c *gin.Context) {
	h.movePeriod(c, h.sponsorship.ApprovePeriod)
}

// RejectPeriod godoc
// @ID           rejectSponsorshipPeriod
// @Summary      Reject a sponsorship period
// @Tags         sponsorship
// @Accept       json
// @Produce      json
// @Param        id path string true "Period ID"
// @Param        request body sponsorshipapp.TransitionRequest true "Remarks"
// @Success      200 {object} APIResponse[sponsorshipapp.PeriodResponse]
// @Security     BearerAuth
// @Router       /sponsorship-periods/{id}/reject [post]
func (h *SponsorshipHandler) RejectPeriod(c *gin.Context) {
	h.movePeriod(c, h.sponsorship.RejectPeriod)
}

type periodTransition = func(ctx context.Context, tenantID uuid.UUID, actor shared.Actor, id uuid.UUID, req sponsorshipapp.TransitionRequest) (*sponsorshipapp.PeriodResponse, error)

func (h *SponsorshipHandler) movePeriod(c *gin.Context, move periodTransition) {
	actor, tenantID, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req sponsorshipapp.TransitionRequest
	if c.Request.ContentLength != 0 && !h.bindJSON(c, &req) {
		return
	}

	period, err := move(c.Request.Context(), tenantID, actor, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, period)
}

// SyncSubscription godoc
// @ID           syncSponsorshipSubscription
// @Summary      Refresh a recurring period from the billing provider
// @Tags         sponsorship
// @Produce      json
// @Param        id path string true "Period ID"
// @Success      200 {object} APIResponse[sponsorshipapp.PeriodResponse]
// @Failure      502 {object} ErrorResponse
// @Failure      503 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /sponsorship-periods/{id}/sync [post]
func (h *SponsorshipHandler) SyncSubscription(c *gin.Context) {
	actor, tenantID, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	period, err := h.sponsorship.SyncSubscription(c.Request.Context(), tenantID, actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, period)
}

// CancelSubscription godoc
// @ID           cancelSponsorshipSubscription
// @Summary      Cancel a recurring period with the billing provider
// @Tags         sponsorship
// @Accept       json
// @Produce      json
// @Param        id path string true "Period ID"
// @Param        request body CancelSubscriptionRequest false "Reason"
// @Success      200 {object} APIResponse[sponsorshipapp.PeriodResponse]
// @Failure      502 {object} ErrorResponse
// @Failure      503 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /sponsorship-periods/{id}/cancel [post]
func (h *SponsorshipHandler) CancelSubscription(c *gin.Context) {
	actor, tenantID, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req CancelSubscriptionRequest
	if c.Request.ContentLength != 0 && !h.bindJSON(c, &req) {
		return
	}

	period, err := h.sponsorship.CancelSubscription(c.Request.Context(), tenantID, actor, id, req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, period)
}
