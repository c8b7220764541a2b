package handler

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	certapp "github.com/projecta/backend/internal/application/certification"
)

// MaxImportFileSize bounds the attendee CSV upload
const MaxImportFileSize = 5 << 20

// CourseHandler handles training centres, course types, courses and their
// attendees
type CourseHandler struct {
	BaseHandler
	courses   CourseService
	attendees AttendeeService
}

// NewCourseHandler creates a new CourseHandler
func NewCourseHandler(courses CourseService, attendees AttendeeService) *CourseHandler {
	return &CourseHandler{courses: courses, attendees: attendees}
}

// CreateTrainingCenter godoc
// @ID           createTrainingCenter
// @Summary      Add a training centre
// @Tags         courses
// @Accept       json
// @Produce      json
// @Param        id path string true "Organisation ID"
// @Param        request body certapp.CreateTrainingCenterRequest true "Training centre"
// @Success      201 {object} APIResponse[certapp.TrainingCenterResponse]
// @Security     BearerAuth
// @Router       /organisations/{id}/training-centers [post]
func (h *CourseHandler) CreateTrainingCenter(c *gin.Context) {
	actor, tenantID, ok := h.actor(c)
	if !ok {
		return
	}
	orgID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req certapp.CreateTrainingCenterRequest
	if !h.bindJSON(c, &req) {
		return
	}

	center, err := h.courses.CreateTrainingCenter(c.Request.Context(), tenantID, actor, orgID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, center)
}

// ListTrainingCenters godoc
// @ID           listTrainingCenters
// @Summary      List training centres
// @Tags         courses
// @Produce      json
// @Param        id path string true "Organisation ID"
// @Success      200 {object} APIResponse[[]certapp.TrainingCenterResponse]
// @Router       /organisations/{id}/training-centers [get]
func (h *CourseHandler) ListTrainingCenters(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	orgID, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	centers, err := h.courses.ListTrainingCenters(c.Request.Context(), tenantID, orgID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, centers)
}

// CreateCourseType godoc
// @ID           createCourseType
// @Summary      Add a course type
// @Tags         courses
// @Accept       json
// @Produce      json
// @Param        id path string true "Organisation ID"
// @Param        request body certapp.CreateCourseTypeRequest true "Course type"
// @Success      201 {object} APIResponse[certapp.CourseTypeResponse]
// @Security     BearerAuth
// @Router       /organisations/{id}/course-types [post]
func (h *CourseHandler) CreateCourseType(c *gin.Context) {
	actor, tenantID, ok := h.actor(c)
	if !ok {
		return
	}
	orgID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req certapp.CreateCourseTypeRequest
	if !h.bindJSON(c, &req) {
		return
	}

	courseType, err := h.courses.CreateCourseType(c.Request.Context(), tenantID, actor, orgID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, courseType)
}

// ListCourseTypes godoc
// @ID           listCourseTypes
// @Summary      List course types
// @Tags         courses
// @Produce      json
// @Param        id path string true "Organisation ID"
// @Success      200 {object} APIResponse[[]certapp.CourseTypeResponse]
// @Router       /organisations/{id}/course-types [get]
func (h *CourseHandler) ListCourseTypes(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	orgID, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	types, err := h.courses.ListCourseTypes(c.Request.Context(), tenantID, orgID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, types)
}

// CreateCourse godoc
// @ID           createCourse
// @Summary      Schedule a course
// @Tags         courses
// @Accept       json
// @Produce      json
// @Param        id path string true "Organisation ID"
// @Param        request body certapp.CreateCourseRequest true "Course"
// @Success      201 {object} APIResponse[certapp.CourseResponse]
// @Security     BearerAuth
// @Router       /organisations/{id}/courses [post]
func (h *CourseHandler) CreateCourse(c *gin.Context) {
	actor, tenantID, ok := h.actor(c)
	if !ok {
		return
	}
	orgID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req certapp.CreateCourseRequest
	if !h.bindJSON(c, &req) {
		return
	}

	course, err := h.courses.CreateCourse(c.Request.Context(), tenantID, actor, orgID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, course)
}

// ListCourses godoc
// @ID           listCourses
// @Summary      List courses
// @Tags         courses
// @Produce      json
// @Param        id path string true "Organisation ID"
// @Success      200 {object} APIResponse[[]certapp.CourseResponse]
// @Router       /organisations/{id}/courses [get]
func (h *CourseHandler) ListCourses(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	orgID, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	courses, err := h.courses.ListCourses(c.Request.Context(), tenantID, orgID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, courses)
}

// CreateAttendee godoc
// @ID           createAttendee
// @Summary      Add an attendee
// @Description  Adds an attendee to the organisation and, with course_id, enrols them
// @Tags         attendees
// @Accept       json
// @Produce      json
// @Param        id path string true "Organisation ID"
// @Param        request body certapp.CreateAttendeeRequest true "Attendee"
// @Success      201 {object} APIResponse[certapp.AttendeeResponse]
// @Security     BearerAuth
// @Router       /organisations/{id}/attendees [post]
func (h *CourseHandler) CreateAttendee(c *gin.Context) {
	actor, tenantID, ok := h.actor(c)
	if !ok {
		return
	}
	orgID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req certapp.CreateAttendeeRequest
	if !h.bindJSON(c, &req) {
		return
	}

	attendee, err := h.attendees.Create(c.Request.Context(), tenantID, actor, orgID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, attendee)
}

// ListAttendees godoc
// @ID           listOrganisationAttendees
// @Summary      List attendees of an organisation
// @Tags         attendees
// @Produce      json
// @Param        id path string true "Organisation ID"
// @Success      200 {object} APIResponse[[]certapp.AttendeeResponse]
// @Security     BearerAuth
// @Router       /organisations/{id}/attendees [get]
func (h *CourseHandler) ListAttendees(c *gin.Context) {
	_, tenantID, ok := h.actor(c)
	if !ok {
		return
	}
	orgID, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	attendees, err := h.attendees.ListByOrganisation(c.Request.Context(), tenantID, orgID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, attendees)
}

// ImportAttendees godoc
// @ID           importAttendees
// @Summary      Import attendees from CSV
// @Description  Columns firstname, surname, email. Names already used in the
// @Description  organisation get a numeric suffix on the surname.
// @Tags         attendees
// @Accept       multipart/form-data
// @Produce      json
// @Param        id path string true "Organisation ID"
// @Param        file formData file true "CSV file"
// @Param        course_id formData string false "Enrol every imported attendee in this course"
// @Success      200 {object} APIResponse[certapp.ImportAttendeesResult]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /organisations/{id}/attendees/import [post]
func (h *CourseHandler) ImportAttendees(c *gin.Context) {
	actor, tenantID, ok := h.actor(c)
	if !ok {
		return
	}
	orgID, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	var courseID *uuid.UUID
	if raw := strings.TrimSpace(c.PostForm("course_id")); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			h.BadRequest(c, "Invalid course_id")
			return
		}
		courseID = &id
	}

	header, err := c.FormFile("file")
	if err != nil {
		h.BadRequest(c, "A CSV file is required in the file field")
		return
	}
	if header.Size > MaxImportFileSize {
		h.BadRequest(c, "CSV file is too large")
		return
	}
	file, err := header.Open()
	if err != nil {
		h.BadRequest(c, "Unable to read uploaded file")
		return
	}
	defer file.Close()

	result, err := h.attendees.Import(c.Request.Context(), tenantID, actor, orgID, courseID, file)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// EnrolAttendees godoc
// @ID           enrolAttendees
// @Summary      Enrol attendees in a course
// @Tags         attendees
// @Accept       json
// @Produce      json
// @Param        id path string true "Course ID"
// @Param        request body certapp.EnrolAttendeesRequest true "Attendees"
// @Success      200 {object} APIResponse[CountData]
// @Security     BearerAuth
// @Router       /courses/{id}/attendees [post]
func (h *CourseHandler) EnrolAttendees(c *gin.Context) {
	actor, tenantID, ok := h.actor(c)
	if !ok {
		return
	}
	courseID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req certapp.EnrolAttendeesRequest
	if !h.bindJSON(c, &req) {
		return
	}

	count, err := h.attendees.Enrol(c.Request.Context(), tenantID, actor, courseID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, CountData{Count: count})
}

// ListCourseAttendees godoc
// @ID           listCourseAttendees
// @Summary      List attendees enrolled in a course
// @Tags         attendees
// @Produce      json
// @Param        id path string true "Course ID"
// @Success      200 {object} APIResponse[[]certapp.AttendeeResponse]
// @Security     BearerAuth
// @Router       /courses/{id}/attendees [get]
func (h *CourseHandler) ListCourseAttendees(c *gin.Context) {
	_, tenantID, ok := h.actor(c)
	if !ok {
		return
	}
	courseID, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	attendees, err := h.attendees.ListByCourse(c.Request.Context(), tenantID, courseID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, attendees)
}
