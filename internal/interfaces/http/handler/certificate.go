package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	certapp "github.com/projecta/backend/internal/application/certification"
)

// CertificateHandler issues, verifies and renders certificates
type CertificateHandler struct {
	BaseHandler
	certificates CertificateService
}

// NewCertificateHandler creates a new CertificateHandler
func NewCertificateHandler(certificates CertificateService) *CertificateHandler {
	return &CertificateHandler{certificates: certificates}
}

// Issue godoc
// @ID           issueCertificates
// @Summary      Issue certificates for a course
// @Description  An empty attendee list issues to every enrolled attendee without a certificate
// @Tags         certificates
// @Accept       json
// @Produce      json
// @Param        id path string true "Course ID"
// @Param        request body certapp.IssueCertificatesRequest false "Attendees"
// @Success      201 {object} APIResponse[[]certapp.CertificateResponse]
// @Failure      403 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /courses/{id}/certificates [post]
func (h *CertificateHandler) Issue(c *gin.Context) {
	actor, tenantID, ok := h.actor(c)
	if !ok {
		return
	}
	courseID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req certapp.IssueCertificatesRequest
	if c.Request.ContentLength != 0 && !h.bindJSON(c, &req) {
		return
	}

	issued, err := h.certificates.Issue(c.Request.Context(), tenantID, actor, courseID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, issued)
}

// ListByCourse godoc
// @ID           listCourseCertificates
// @Summary      List certificates of a course
// @Tags         certificates
// @Produce      json
// @Param        id path string true "Course ID"
// @Success      200 {object} APIResponse[[]certapp.CertificateResponse]
// @Security     BearerAuth
// @Router       /courses/{id}/certificates [get]
func (h *CertificateHandler) ListByCourse(c *gin.Context) {
	_, tenantID, ok := h.actor(c)
	if !ok {
		return
	}
	courseID, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	certs, err := h.certificates.ListByCourse(c.Request.Context(), tenantID, courseID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, certs)
}

// Regenerate godoc
// @ID           regenerateCourseCertificates
// @Summary      Re-render every certificate of a course
// @Tags         certificates
// @Produce      json
// @Param        id path string true "Course ID"
// @Success      200 {object} APIResponse[certapp.RegenerateResult]
// @Security     BearerAuth
// @Router       /courses/{id}/certificates/regenerate [post]
func (h *CertificateHandler) Regenerate(c *gin.Context) {
	actor, tenantID, ok := h.actor(c)
	if !ok {
		return
	}
	courseID, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	result, err := h.certificates.RegenerateCourse(c.Request.Context(), tenantID, actor, courseID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Verify godoc
// @ID           verifyCertificate
// @Summary      Verify a certificate by its public id
// @Tags         certificates
// @Produce      json
// @Param        certificate_id path string true "Certificate ID, e.g. QGIS-12"
// @Success      200 {object} APIResponse[certapp.CertificateResponse]
// @Failure      404 {object} ErrorResponse
// @Router       /certificates/{certificate_id} [get]
func (h *CertificateHandler) Verify(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}

	cert, err := h.certificates.Verify(c.Request.Context(), tenantID, c.Param("certificate_id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, cert)
}

// StreamPDF godoc
// @ID           streamCertificatePDF
// @Summary      Download a certificate
// @Description  Serves the stored PDF, or renders one without storing it
// @Tags         certificates
// @Produce      application/pdf
// @Param        certificate_id path string true "Certificate ID"
// @Success      200 {file} binary
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /certificates/{certificate_id}/pdf [get]
func (h *CertificateHandler) StreamPDF(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}

	pdf, stored, err := h.certificates.RenderPDF(c.Request.Context(), tenantID, c.Param("certificate_id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	writePDF(c, stored.CertificateID, pdf)
}

// StorePDF godoc
// @ID           storeCertificatePDF
// @Summary      Render a certificate into document storage
// @Tags         certificates
// @Produce      json
// @Param        certificate_id path string true "Certificate ID"
// @Success      200 {object} APIResponse[certapp.StoredDocumentResponse]
// @Failure      403 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /certificates/{certificate_id}/pdf [post]
func (h *CertificateHandler) StorePDF(c *gin.Context) {
	actor, tenantID, ok := h.actor(c)
	if !ok {
		return
	}

	stored, err := h.certificates.StorePDF(c.Request.Context(), tenantID, actor, c.Param("certificate_id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, stored)
}

// IssueOrganisationCertificate godoc
// @ID           issueOrganisationCertificate
// @Summary      Issue the certificate of an approved organisation
// @Tags         certificates
// @Produce      json
// @Param        id path string true "Organisation ID"
// @Success      201 {object} APIResponse[certapp.OrganisationCertificateResponse]
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /organisations/{id}/certificate [post]
func (h *CertificateHandler) IssueOrganisationCertificate(c *gin.Context) {
	actor, tenantID, ok := h.actor(c)
	if !ok {
		return
	}
	orgID, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	cert, err := h.certificates.IssueOrganisationCertificate(c.Request.Context(), tenantID, actor, orgID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, cert)
}

// OrganisationPDF godoc
// @ID           streamOrganisationCertificatePDF
// @Summary      Download an organisation certificate
// @Tags         certificates
// @Produce      application/pdf
// @Param        id path string true "Organisation ID"
// @Success      200 {file} binary
// @Router       /organisations/{id}/certificate/pdf [get]
func (h *CertificateHandler) OrganisationPDF(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	orgID, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	pdf, stored, err := h.certificates.OrganisationPDF(c.Request.Context(), tenantID, orgID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	writePDF(c, stored.CertificateID, pdf)
}

func writePDF(c *gin.Context, name string, pdf []byte) {
	c.Header("Content-Disposition", fmt.Sprintf(`inline; filename="%s.pdf"`, name))
	c.Data(http.StatusOK, "application/pdf", pdf)
}
