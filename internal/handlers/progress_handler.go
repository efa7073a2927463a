package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/luizinhodavp041/viacao-piraquara-treinamentos/internal/services"
	"github.com/luizinhodavp041/viacao-piraquara-treinamentos/internal/utils"
)

type ProgressHandler struct {
	BaseHandler
	service services.ProgressService
}

func NewProgressHandler(service services.ProgressService, logger utils.Logger) *ProgressHandler {
	return &ProgressHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
	}
}

// UpdateProgress records how far the caller watched a lesson. Progress never goes backwards.
// @Summary Update lesson progress
// @Tags progress
// @Accept json
// @Produce json
// @Param progress body services.UpdateProgressRequest true "Progress data"
// @Success 200 {object} models.Progress
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /progress [post]
func (h *ProgressHandler) UpdateProgress(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	var req services.UpdateProgressRequest
	if !h.bindJSON(c, &req) {
		return
	}

	h.LogRequest(c, "Updating progress", "user_id", session.ID, "lesson_id", req.LessonID, "progress", req.Progress)

	record, err := h.service.Update(c.Request.Context(), session.ID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, record)
}

// ListProgress lists the caller's records for one course
// @Summary List lesson progress
// @Tags progress
// @Produce json
// @Param courseId query uint true "Course ID"
// @Success 200 {array} models.Progress
// @Router /progress [get]
func (h *ProgressHandler) ListProgress(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	courseID := h.parseIDQuery(c, "courseId")
	if courseID == 0 {
		return
	}

	records, err := h.service.ListByCourse(c.Request.Context(), session.ID, courseID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, records)
}

// GetCourseProgress
// @Summary Course progress summary
// @Tags progress
// @Produce json
// @Param courseId path uint true "Course ID"
// @Success 200 {object} models.CourseProgress
// @Failure 404 {object} ErrorResponse
// @Router /progress/course/{courseId} [get]
func (h *ProgressHandler) GetCourseProgress(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	courseID := h.parseIDParam(c, "courseId")
	if courseID == 0 {
		return
	}

	summary, err := h.service.CourseProgress(c.Request.Context(), session.ID, courseID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

// GetCourseCompletion
// @Summary Course completion
// @Tags progress
// @Produce json
// @Param courseId path uint true "Course ID"
// @Success 200 {object} services.CourseCompletion
// @Router /progress/course/{courseId}/completed [get]
func (h *ProgressHandler) GetCourseCompletion(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	courseID := h.parseIDParam(c, "courseId")
	if courseID == 0 {
		return
	}

	completion, err := h.service.CourseCompletion(c.Request.Context(), session.ID, courseID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, completion)
}
