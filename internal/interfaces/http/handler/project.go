package handler

import (
	"github.com/gin-gonic/gin"
	projectapp "github.com/projecta/backend/internal/application/project"
)

// ProjectHandler handles projects with their workflow statuses and review
// checklists
type ProjectHandler struct {
	BaseHandler
	projects   ProjectService
	statuses   StatusService
	checklists ChecklistService
}

// NewProjectHandler creates a new ProjectHandler
func NewProjectHandler(projects ProjectService, statuses StatusService, checklists ChecklistService) *ProjectHandler {
	return &ProjectHandler{
		projects:   projects,
		statuses:   statuses,
		checklists: checklists,
	}
}

// Create godoc
// @ID           createProject
// @Summary      Create a project
// @Description  Creates a project owned by the caller. The slug is derived from the name.
// @Tags         projects
// @Accept       json
// @Produce      json
// @Param        request body projectapp.CreateProjectRequest true "Project"
// @Success      201 {object} APIResponse[projectapp.ProjectResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /projects [post]
func (h *ProjectHandler) Create(c *gin.Context) {
	actor, tenantID, ok := h.actor(c)
	if !ok {
		return
	}
	var req projectapp.CreateProjectRequest
	if !h.bindJSON(c, &req) {
		return
	}

	project, err := h.projects.Create(c.Request.Context(), tenantID, actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, project)
}

// List godoc
// @ID           listProjects
// @Summary      List projects
// @Tags         projects
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant for anonymous reads"
// @Param        search query string false "Name search"
// @Param        page query int false "Page"
// @Param        page_size query int false "Page size"
// @Success      200 {object} APIResponse[[]projectapp.ProjectResponse]
// @Router       /projects [get]
func (h *ProjectHandler) List(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	var filter projectapp.ProjectListFilter
	if !h.bindQuery(c, &filter) {
		return
	}

	projects, total, err := h.projects.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, projects, total, filter.Page, filter.PageSize)
}

// GetByID godoc
// @ID           getProject
// @Summary      Get a project
// @Tags         projects
// @Produce      json
// @Param        id path string true "Project ID"
// @Success      200 {object} APIResponse[projectapp.ProjectResponse]
// @Failure      404 {object} ErrorResponse
// @Router       /projects/{id} [get]
func (h *ProjectHandler) GetByID(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	project, err := h.projects.GetByID(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, project)
}

// GetBySlug godoc
// @ID           getProjectBySlug
// @Summary      Get a project by slug
// @Description  Slugs are unique across tenants, so no tenant is needed
// @Tags         projects
// @Produce      json
// @Param        slug path string true "Project slug"
// @Success      200 {object} APIResponse[projectapp.ProjectResponse]
// @Failure      404 {object} ErrorResponse
// @Router       /projects/slug/{slug} [get]
func (h *ProjectHandler) GetBySlug(c *gin.Context) {
	project, err := h.projects.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, project)
}

// Update godoc
// @ID           updateProject
// @Summary      Update a project
// @Tags         projects
// @Accept       json
// @Produce      json
// @Param        id path string true "Project ID"
// @Param        request body projectapp.UpdateProjectRequest true "Changes"
// @Success      200 {object} APIResponse[projectapp.ProjectResponse]
// @Failure      403 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /projects/{id} [put]
func (h *ProjectHandler) Update(c *gin.Context) {
	actor, tenantID, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req projectapp.UpdateProjectRequest
	if !h.bindJSON(c, &req) {
		return
	}

	project, err := h.projects.Update(c.Request.Context(), tenantID, actor, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, project)
}

// SetManagers godoc
// @ID           setProjectManagers
// @Summary      Replace a manager list
// @Tags         projects
// @Accept       json
// @Produce      json
// @Param        id path string true "Project ID"
// @Param        request body projectapp.SetManagersRequest true "Managers"
// @Success      200 {object} APIResponse[projectapp.ProjectResponse]
// @Security     BearerAuth
// @Router       /projects/{id}/managers [put]
func (h *ProjectHandler) SetManagers(c *gin.Context) {
	actor, tenantID, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req projectapp.SetManagersRequest
	if !h.bindJSON(c, &req) {
		return
	}

	project, err := h.projects.SetManagers(c.Request.Context(), tenantID, actor, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, project)
}

// Deactivate godoc
// @ID           deactivateProject
// @Summary      Deactivate a project
// @Tags         projects
// @Param        id path string true "Project ID"
// @Success      204
// @Security     BearerAuth
// @Router       /projects/{id}/deactivate [post]
func (h *ProjectHandler) Deactivate(c *gin.Context) {
	actor, tenantID, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	if err := h.projects.Deactivate(c.Request.Context(), tenantID, actor, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// CreateStatus godoc
// @ID           createProjectStatus
// @Summary      Add a workflow status
// @Tags         statuses
// @Accept       json
// @Produce      json
// @Param        id path string true "Project ID"
// @Param        request body projectapp.CreateStatusRequest true "Status"
// @Success      201 {object} APIResponse[projectapp.StatusResponse]
// @Security     BearerAuth
// @Router       /projects/{id}/statuses [post]
func (h *ProjectHandler) CreateStatus(c *gin.Context) {
	actor, tenantID, ok := h.actor(c)
	if !ok {
		return
	}
	projectID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req projectapp.CreateStatusRequest
	if !h.bindJSON(c, &req) {
		return
	}

	status, err := h.statuses.Create(c.Request.Context(), tenantID, actor, projectID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, status)
}

// ListStatuses godoc
// @ID           listProjectStatuses
// @Summary      List workflow statuses
// @Tags         statuses
// @Produce      json
// @Param        id path string true "Project ID"
// @Success      200 {object} APIResponse[[]projectapp.StatusResponse]
// @Router       /projects/{id}/statuses [get]
func (h *ProjectHandler) ListStatuses(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	projectID, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	statuses, err := h.statuses.List(c.Request.Context(), tenantID, projectID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, statuses)
}

// DeleteStatus godoc
// @ID           deleteProjectStatus
// @Summary      Delete a workflow status
// @Tags         statuses
// @Param        id path string true "Project ID"
// @Param        status_id path string true "Status ID"
// @Success      204
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /projects/{id}/statuses/{status_id} [delete]
func (h *ProjectHandler) DeleteStatus(c *gin.Context) {
	actor, tenantID, ok := h.actor(c)
	if !ok {
		return
	}
	projectID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	statusID, ok := h.pathID(c, "status_id")
	if !ok {
		return
	}
	if err := h.statuses.Delete(c.Request.Context(), tenantID, actor, projectID, statusID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// CreateChecklist godoc
// @ID           createProjectChecklist
// @Summary      Add a review question
// @Tags         checklists
// @Accept       json
// @Produce      json
// @Param        id path string true "Project ID"
// @Param        request body projectapp.CreateChecklistRequest true "Question"
// @Success      201 {object} APIResponse[projectapp.ChecklistResponse]
// @Security     BearerAuth
// @Router       /projects/{id}/checklists [post]
func (h *ProjectHandler) CreateChecklist(c *gin.Context) {
	actor, tenantID, ok := h.actor(c)
	if !ok {
		return
	}
	projectID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req projectapp.CreateChecklistRequest
	if !h.bindJSON(c, &req) {
		return
	}

	item, err := h.checklists.Create(c.Request.Context(), tenantID, actor, projectID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, item)
}

// ListChecklists godoc
// @ID           listProjectChecklists
// @Summary      List review questions
// @Tags         checklists
// @Produce      json
// @Param        id path string true "Project ID"
// @Param        include_inactive query bool false "Include deactivated questions"
// @Success      200 {object} APIResponse[[]projectapp.ChecklistResponse]
// @Router       /projects/{id}/checklists [get]
func (h *ProjectHandler) ListChecklists(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	projectID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	activeOnly := c.Query("include_inactive") != "true"

	items, err := h.checklists.List(c.Request.Context(), tenantID, projectID, activeOnly)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, items)
}

// ReorderChecklists godoc
// @ID           reorderProjectChecklists
// @Summary      Reorder review questions
// @Tags         checklists
// @Accept       json
// @Produce      json
// @Param        id path string true "Project ID"
// @Param        request body projectapp.ReorderChecklistRequest true "Every active question id in order"
// @Success      200 {object} APIResponse[[]projectapp.ChecklistResponse]
// @Security     BearerAuth
// @Router       /projects/{id}/checklists/order [put]
func (h *ProjectHandler) ReorderChecklists(c *gin.Context) {
	actor, tenantID, ok := h.actor(c)
	if !ok {
		return
	}
	projectID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req projectapp.ReorderChecklistRequest
	if !h.bindJSON(c, &req) {
		return
	}

	items, err := h.checklists.Reorder(c.Request.Context(), tenantID, actor, projectID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, items)
}

// DeactivateChecklist godoc
// @ID           deactivateProjectChecklist
// @Summary      Deactivate a review question
// @Tags         checklists
// @Param        id path string true "Project ID"
// @Param        checklist_id path string true "Checklist ID"
// @Success      204
// @Security     BearerAuth
// @Router       /projects/{id}/checklists/{checklist_id} [delete]
func (h *ProjectHandler) DeactivateChecklist(c *gin.Context) {
	actor, tenantID, ok := h.actor(c)
	if !ok {
		return
	}
	projectID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	checklistID, ok := h.pathID(c, "checklist_id")
	if !ok {
		return
	}
	if err := h.checklists.Deactivate(c.Request.Context(), tenantID, actor, projectID, checklistID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
