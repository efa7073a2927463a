package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/luizinhodavp041/viacao-piraquara-treinamentos/internal/services"
	"github.com/luizinhodavp041/viacao-piraquara-treinamentos/internal/utils"
)

type VideoHandler struct {
	BaseHandler
	service services.VideoService
}

func NewVideoHandler(service services.VideoService, logger utils.Logger) *VideoHandler {
	return &VideoHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
	}
}

// CreateUpload opens an upload ticket with the video provider. The browser sends the bytes itself.
// @Summary Create video upload
// @Tags videos
// @Accept json
// @Produce json
// @Param upload body services.CreateUploadRequest true "Upload data"
// @Success 200 {object} services.UploadSession
// @Failure 400 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /videos/upload [post]
func (h *VideoHandler) CreateUpload(c *gin.Context) {
	var req services.CreateUploadRequest
	if !h.bindJSON(c, &req) {
		return
	}

	h.LogRequest(c, "Creating video upload", "name", req.Name, "size", req.FileSize)

	upload, err := h.service.CreateUpload(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, upload)
}

// GetVideo
// @Summary Video metadata
// @Tags videos
// @Produce json
// @Param videoId path string true "Provider video ID"
// @Success 200 {object} services.VideoMetadata
// @Failure 400 {object} ErrorResponse
// @Router /videos/{videoId} [get]
func (h *VideoHandler) GetVideo(c *gin.Context) {
	metadata, err := h.service.GetMetadata(c.Request.Context(), c.Param("videoId"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, metadata)
}
