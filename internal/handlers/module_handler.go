package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/luizinhodavp041/viacao-piraquara-treinamentos/internal/services"
	"github.com/luizinhodavp041/viacao-piraquara-treinamentos/internal/utils"
)

// ModuleHandler serves modules and the lessons nested under them
type ModuleHandler struct {
	BaseHandler
	modules services.ModuleService
	lessons services.LessonService
}

func NewModuleHandler(modules services.ModuleService, lessons services.LessonService, logger utils.Logger) *ModuleHandler {
	return &ModuleHandler{
		BaseHandler: NewBaseHandler(logger),
		modules:     modules,
		lessons:     lessons,
	}
}

func (h *ModuleHandler) CreateModule(c *gin.Context) {
	var req services.CreateModuleRequest
	if !h.bindJSON(c, &req) {
		return
	}

	module, err := h.modules.Create(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, module)
}

func (h *ModuleHandler) GetModule(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	module, err := h.modules.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, module)
}

func (h *ModuleHandler) UpdateModule(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	var req services.UpdateModuleRequest
	if !h.bindJSON(c, &req) {
		return
	}

	module, err := h.modules.Update(c.Request.Context(), id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, module)
}

// DeleteModule removes the module and renumbers its siblings
func (h *ModuleHandler) DeleteModule(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	if err := h.modules.Delete(c.Request.Context(), id); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ReorderModules takes the full list of the course's module ids in their new order
func (h *ModuleHandler) ReorderModules(c *gin.Context) {
	var req services.ReorderModulesRequest
	if !h.bindJSON(c, &req) {
		return
	}

	h.LogRequest(c, "Reordering modules", "course_id", req.CourseID)

	if err := h.modules.Reorder(c.Request.Context(), &req); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *ModuleHandler) ListLessons(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	lessons, err := h.lessons.ListByModule(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, lessons)
}

func (h *ModuleHandler) CreateLesson(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	var req services.CreateLessonRequest
	if !h.bindJSON(c, &req) {
		return
	}

	lesson, err := h.lessons.Create(c.Request.Context(), id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, lesson)
}
