package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/luizinhodavp041/viacao-piraquara-treinamentos/internal/services"
	"github.com/luizinhodavp041/viacao-piraquara-treinamentos/internal/utils"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type DashboardHandler struct {
	BaseHandler
	service services.DashboardService
	exports services.ExportService
}

func NewDashboardHandler(service services.DashboardService, exports services.ExportService, logger utils.Logger) *DashboardHandler {
	return &DashboardHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
		exports:     exports,
	}
}

// ===== DASHBOARD ENDPOINTS =====

// GetStudentDashboard returns the caller's started courses and lesson stats
// @Summary Student dashboard
// @Tags dashboard
// @Produce json
// @Success 200 {object} services.StudentDashboard
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Router /dashboard [get]
func (h *DashboardHandler) GetStudentDashboard(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Getting student dashboard", "user_id", session.ID)

	dashboard, err := h.service.StudentDashboard(c.Request.Context(), session.ID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dashboard)
}

// GetAdminDashboard returns platform totals, student activity and course engagement
// @Summary Admin dashboard
// @Tags admin
// @Produce json
// @Success 200 {object} services.AdminDashboard
// @Failure 403 {object} ErrorResponse "Forbidden"
// @Router /admin/dashboard [get]
func (h *DashboardHandler) GetAdminDashboard(c *gin.Context) {
	h.LogRequest(c, "Getting admin dashboard")

	dashboard, err := h.service.AdminDashboard(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dashboard)
}

// ListStudents
// @Summary List students with activity
// @Tags admin
// @Produce json
// @Success 200 {array} services.StudentSummary
// @Router /admin/students [get]
func (h *DashboardHandler) ListStudents(c *gin.Context) {
	students, err := h.service.ListStudents(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, students)
}

// GetStudentProgress
// @Summary Progress of one student in every course
// @Tags admin
// @Produce json
// @Param id path uint true "Student ID"
// @Success 200 {object} services.StudentProgressReport
// @Failure 404 {object} ErrorResponse
// @Router /admin/students/{id}/progress [get]
func (h *DashboardHandler) GetStudentProgress(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	report, err := h.service.StudentProgress(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}

// ===== EXPORTS =====

// ExportQuizResults
// @Summary Quiz results spreadsheet
// @Tags admin
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param courseId query uint false "Course ID"
// @Success 200 {file} binary
// @Router /admin/export/quiz-results.xlsx [get]
func (h *DashboardHandler) ExportQuizResults(c *gin.Context) {
	courseID, ok := h.optionalIDQuery(c, "courseId")
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := h.exports.ExportQuizResults(c.Request.Context(), &buf, courseID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.sendSpreadsheet(c, "resultados-quiz", buf.Bytes())
}

// ExportStudentProgress
// @Summary Student progress spreadsheet
// @Tags admin
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success 200 {file} binary
// @Router /admin/export/student-progress.xlsx [get]
func (h *DashboardHandler) ExportStudentProgress(c *gin.Context) {
	var buf bytes.Buffer
	if err := h.exports.ExportStudentProgress(c.Request.Context(), &buf); err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.sendSpreadsheet(c, "progresso-alunos", buf.Bytes())
}

func (h *DashboardHandler) sendSpreadsheet(c *gin.Context, name string, content []byte) {
	filename := fmt.Sprintf("%s-%s.xlsx", name, time.Now().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, xlsxContentType, content)
}
