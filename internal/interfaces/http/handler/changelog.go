package handler

import (
	"github.com/gin-gonic/gin"
	changelogapp "github.com/projecta/backend/internal/application/changelog"
)

// ChangelogHandler handles release versions, categories and entries
type ChangelogHandler struct {
	BaseHandler
	changelog ChangelogService
}

// NewChangelogHandler creates a new ChangelogHandler
func NewChangelogHandler(changelog ChangelogService) *ChangelogHandler {
	return &ChangelogHandler{changelog: changelog}
}

// CreateVersion godoc
// @ID           createVersion
// @Summary      Add a release version
// @Tags         changelog
// @Accept       json
// @Produce      json
// @Param        id path string true "Project ID"
// @Param        request body changelogapp.CreateVersionRequest true "Version"
// @Success      201 {object} APIResponse[changelogapp.VersionResponse]
// @Security     BearerAuth
// @Router       /projects/{id}/versions [post]
func (h *ChangelogHandler) CreateVersion(c *gin.Context) {
	actor, tenantID, ok := h.actor(c)
	if !ok {
		return
	}
	projectID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req changelogapp.CreateVersionRequest
	if !h.bindJSON(c, &req) {
		return
	}

	version, err := h.changelog.CreateVersion(c.Request.Context(), tenantID, actor, projectID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, version)
}

// ListVersions godoc
// @ID           listVersions
// @Summary      List release versions
// @Description  Unapproved versions are only listed for changelog managers
// @Tags         changelog
// @Produce      json
// @Param        id path string true "Project ID"
// @Success      200 {object} APIResponse[[]changelogapp.VersionResponse]
// @Security     BearerAuth
// @Router       /projects/{id}/versions [get]
func (h *ChangelogHandler) ListVersions(c *gin.Context) {
	actor, tenantID, ok := h.actor(c)
	if !ok {
		return
	}
	projectID, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	versions, err := h.changelog.ListVersions(c.Request.Context(), tenantID, actor, projectID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, versions)
}

// ApproveVersion godoc
// @ID           approveVersion
// @Summary      Approve a release version
// @Tags         changelog
// @Produce      json
// @Param        id path string true "Version ID"
// @Success      200 {object} APIResponse[changelogapp.VersionResponse]
// @Security     BearerAuth
// @Router       /versions/{id}/approve [post]
func (h *ChangelogHandler) ApproveVersion(c *gin.Context) {
	actor, tenantID, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	version, err := h.changelog.ApproveVersion(c.Request.Context(), tenantID, actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, version)
}

// CreateCategory godoc
// @ID           createChangelogCategory
// @Summary      Add an entry category
// @Tags         changelog
// @Accept       json
// @Produce      json
// @Param        id path string true "Project ID"
// @Param        request body changelogapp.CreateCategoryRequest true "Category"
// @Success      201 {object} APIResponse[changelogapp.CategoryResponse]
// @Security     BearerAuth
// @Router       /projects/{id}/categories [post]
func (h *ChangelogHandler) CreateCategory(c *gin.Context) {
	actor, tenantID, ok := h.actor(c)
	if !ok {
		return
	}
	projectID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req changelogapp.CreateCategoryRequest
	if !h.bindJSON(c, &req) {
		return
	}

	category, err := h.changelog.CreateCategory(c.Request.Context(), tenantID, actor, projectID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, category)
}

// ListCategories godoc
// @ID           listChangelogCategories
// @Summary      List entry categories
// @Tags         changelog
// @Produce      json
// @Param        id path string true "Project ID"
// @Success      200 {object} APIResponse[[]changelogapp.CategoryResponse]
// @Router       /projects/{id}/categories [get]
func (h *ChangelogHandler) ListCategories(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	projectID, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	categories, err := h.changelog.ListCategories(c.Request.Context(), tenantID, projectID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, categories)
}

// CreateEntry godoc
// @ID           createChangelogEntry
// @Summary      Add an entry to a version
// @Tags         changelog
// @Accept       json
// @Produce      json
// @Param        id path string true "Version ID"
// @Param        request body changelogapp.CreateEntryRequest true "Entry"
// @Success      201 {object} APIResponse[changelogapp.EntryResponse]
// @Security     BearerAuth
// @Router       /versions/{id}/entries [post]
func (h *ChangelogHandler) CreateEntry(c *gin.Context) {
	actor, tenantID, ok := h.actor(c)
	if !ok {
		return
	}
	versionID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req changelogapp.CreateEntryRequest
	if !h.bindJSON(c, &req) {
		return
	}

	entry, err := h.changelog.CreateEntry(c.Request.Context(), tenantID, actor, versionID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, entry)
}

// ListEntries godoc
// @ID           listChangelogEntries
// @Summary      List entries of a version
// @Tags         changelog
// @Produce      json
// @Param        id path string true "Version ID"
// @Success      200 {object} APIResponse[[]changelogapp.EntryResponse]
// @Security     BearerAuth
// @Router       /versions/{id}/entries [get]
func (h *ChangelogHandler) ListEntries(c *gin.Context) {
	actor, tenantID, ok := h.actor(c)
	if !ok {
		return
	}
	versionID, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	entries, err := h.changelog.ListEntries(c.Request.Context(), tenantID, actor, versionID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, entries)
}

// ApproveEntry godoc
// @ID           approveChangelogEntry
// @Summary      Approve an entry
// @Tags         changelog
// @Produce      json
// @Param        id path string true "Entry ID"
// @Success      200 {object} APIResponse[changelogapp.EntryResponse]
// @Security     BearerAuth
// @Router       /entries/{id}/approve [post]
func (h *ChangelogHandler) ApproveEntry(c *gin.Context) {
	actor, tenantID, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	entry, err := h.changelog.ApproveEntry(c.Request.Context(), tenantID, actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, entry)
}
