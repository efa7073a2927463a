package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/luizinhodavp041/viacao-piraquara-treinamentos/internal/services"
	"github.com/luizinhodavp041/viacao-piraquara-treinamentos/internal/utils"
)

type QuizHandler struct {
	BaseHandler
	service services.QuizService
}

func NewQuizHandler(service services.QuizService, logger utils.Logger) *QuizHandler {
	return &QuizHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
	}
}

// CreateQuiz creates the course's quiz. A course has at most one.
// @Summary Create quiz
// @Tags quiz
// @Accept json
// @Produce json
// @Param quiz body services.CreateQuizRequest true "Quiz data"
// @Success 201 {object} services.QuizView
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /quiz [post]
func (h *QuizHandler) CreateQuiz(c *gin.Context) {
	var req services.CreateQuizRequest
	if !h.bindJSON(c, &req) {
		return
	}

	h.LogRequest(c, "Creating quiz", "course_id", req.CourseID, "questions", len(req.Questions))

	quiz, err := h.service.Create(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, quiz)
}

// GetQuiz returns the course quiz or null. Answers are hidden from students.
// @Summary Get course quiz
// @Tags quiz
// @Produce json
// @Param courseId query uint true "Course ID"
// @Success 200 {object} services.QuizView
// @Router /quiz [get]
func (h *QuizHandler) GetQuiz(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	courseID := h.parseIDQuery(c, "courseId")
	if courseID == 0 {
		return
	}

	quiz, err := h.service.GetByCourse(c.Request.Context(), courseID, session)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, quiz)
}

// UpdateQuiz replaces every question
// @Summary Update quiz
// @Tags quiz
// @Accept json
// @Produce json
// @Param id path uint true "Quiz ID"
// @Param quiz body services.UpdateQuizRequest true "Questions"
// @Success 200 {object} services.QuizView
// @Router /quiz/{id} [put]
func (h *QuizHandler) UpdateQuiz(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	var req services.UpdateQuizRequest
	if !h.bindJSON(c, &req) {
		return
	}

	quiz, err := h.service.Update(c.Request.Context(), id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, quiz)
}

// SubmitResponse scores and stores an attempt. Failed attempts are kept too.
// @Summary Submit quiz answers
// @Tags quiz
// @Accept json
// @Produce json
// @Param response body services.SubmitQuizRequest true "Answers"
// @Success 200 {object} services.QuizResponseView
// @Failure 400 {object} ErrorResponse
// @Router /quiz/response [post]
func (h *QuizHandler) SubmitResponse(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	var req services.SubmitQuizRequest
	if !h.bindJSON(c, &req) {
		return
	}

	h.LogRequest(c, "Submitting quiz", "user_id", session.ID, "quiz_id", req.QuizID)

	response, err := h.service.Submit(c.Request.Context(), session.ID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// GetUserResponse
// @Summary Latest attempt of the caller
// @Tags quiz
// @Produce json
// @Param courseId query uint true "Course ID"
// @Success 200 {object} services.QuizResponseView
// @Failure 404 {object} ErrorResponse
// @Router /quiz/response/user [get]
func (h *QuizHandler) GetUserResponse(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	courseID := h.parseIDQuery(c, "courseId")
	if courseID == 0 {
		return
	}

	response, err := h.service.LatestResponse(c.Request.Context(), session.ID, courseID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// ListResults
// @Summary Quiz results per student
// @Tags quiz
// @Produce json
// @Param courseId query uint false "Course ID"
// @Success 200 {array} services.QuizResultSummary
// @Router /quiz/response [get]
func (h *QuizHandler) ListResults(c *gin.Context) {
	courseID, ok := h.optionalIDQuery(c, "courseId")
	if !ok {
		return
	}

	results, err := h.service.ListResults(c.Request.Context(), courseID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, results)
}
