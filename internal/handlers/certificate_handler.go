package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/luizinhodavp041/viacao-piraquara-treinamentos/internal/services"
	"github.com/luizinhodavp041/viacao-piraquara-treinamentos/internal/utils"
)

type CertificateHandler struct {
	BaseHandler
	service services.CertificateService
}

func NewCertificateHandler(service services.CertificateService, logger utils.Logger) *CertificateHandler {
	return &CertificateHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
	}
}

// IssueCertificate
// @Summary Issue a certificate for a passed course
// @Tags certificates
// @Accept json
// @Produce json
// @Param certificate body services.IssueCertificateRequest true "Course"
// @Success 201 {object} services.CertificateView
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /certificates [post]
func (h *CertificateHandler) IssueCertificate(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	var req services.IssueCertificateRequest
	if !h.bindJSON(c, &req) {
		return
	}

	h.LogRequest(c, "Issuing certificate", "user_id", session.ID, "course_id", req.CourseID)

	cert, err := h.service.Issue(c.Request.Context(), session.ID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, cert)
}

// GetCertificate returns the caller's certificate for a course, or all of them without courseId
// @Summary Get caller certificates
// @Tags certificates
// @Produce json
// @Param courseId query uint false "Course ID"
// @Success 200 {object} services.CertificateView
// @Router /certificates [get]
func (h *CertificateHandler) GetCertificate(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	courseID, ok := h.optionalIDQuery(c, "courseId")
	if !ok {
		return
	}

	if courseID == nil {
		certs, err := h.service.ListByUser(c.Request.Context(), session.ID)
		if err != nil {
			h.handleServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, certs)
		return
	}

	cert, err := h.service.GetForCourse(c.Request.Context(), session.ID, *courseID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, cert)
}

// ValidateCertificate is public. Revoked and unknown codes both answer 404.
// @Summary Validate a certificate code
// @Tags certificates
// @Produce json
// @Param code query string true "Validation code"
// @Success 200 {object} services.CertificateValidation
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /certificates/validate [get]
func (h *CertificateHandler) ValidateCertificate(c *gin.Context) {
	code := c.Query("code")

	h.LogRequest(c, "Validating certificate", "code", code)

	validation, err := h.service.Validate(c.Request.Context(), code)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, validation)
}

// DownloadCertificate streams the PDF as an attachment
// @Summary Download certificate PDF
// @Tags certificates
// @Produce application/pdf
// @Param certificateId query uint true "Certificate ID"
// @Success 200 {file} binary
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /certificates/download [get]
func (h *CertificateHandler) DownloadCertificate(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	id := h.parseIDQuery(c, "certificateId")
	if id == 0 {
		return
	}

	doc, err := h.service.Download(c.Request.Context(), id, session)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.Filename))
	c.Data(http.StatusOK, "application/pdf", doc.Content)
}

// RevokeCertificate
// @Summary Revoke a certificate
// @Tags certificates
// @Param id path uint true "Certificate ID"
// @Success 204
// @Failure 404 {object} ErrorResponse
// @Router /certificates/{id}/revoke [patch]
func (h *CertificateHandler) RevokeCertificate(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	if err := h.service.Revoke(c.Request.Context(), id); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
