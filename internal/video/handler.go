package video

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"recipe-planner/internal/auth"
	"recipe-planner/internal/handlers"
	"recipe-planner/internal/pagination"
)

const retryAfterSeconds = "30"

type Handler struct {
	queue      *Queue
	logger     *zap.Logger
	pagination pagination.Config
}

func NewHandler(queue *Queue, logger *zap.Logger, pagination pagination.Config) *Handler {
	return &Handler{queue: queue, logger: logger, pagination: pagination}
}

func (h *Handler) Register(r gin.IRouter) {
	g := r.Group("/videos")
	g.POST("/import", h.Import)
	g.GET("/jobs", h.List)
	g.GET("/jobs/:id", h.Get)
	g.DELETE("/jobs/:id", h.Cancel)
}

type importRequest struct {
	URL string `json:"url" binding:"required,url,max=2048"`
}

func (h *Handler) Import(c *gin.Context) {
	var req importRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlers.RespondBindError(c, h.logger, err)
		return
	}

	job, err := h.queue.Submit(c.Request.Context(), auth.UserID(c), req.URL)
	if err != nil {
		if errors.Is(err, ErrQueueFull) {
			c.Header("Retry-After", retryAfterSeconds)
		}
		handlers.RespondError(c, h.logger, MapHTTPStatus(err), err)
		return
	}
	handlers.RespondJSON(c, http.StatusAccepted, job)
}

func (h *Handler) List(c *gin.Context) {
	page := pagination.FromQuery(c.Request.URL.Query(), h.pagination)

	result, err := h.queue.List(c.Request.Context(), auth.UserID(c), page)
	if err != nil {
		handlers.RespondError(c, h.logger, http.StatusInternalServerError, err)
		return
	}
	handlers.RespondJSON(c, http.StatusOK, result)
}

func (h *Handler) Get(c *gin.Context) {
	job, err := h.queue.Get(c.Request.Context(), auth.UserID(c), c.Param("id"))
	if err != nil {
		handlers.RespondError(c, h.logger, MapHTTPStatus(err), err)
		return
	}
	handlers.RespondJSON(c, http.StatusOK, job)
}

func (h *Handler) Cancel(c *gin.Context) {
	job, err := h.queue.Cancel(c.Request.Context(), auth.UserID(c), c.Param("id"))
	if err != nil {
		handlers.RespondError(c, h.logger, MapHTTPStatus(err), err)
		return
	}
	handlers.RespondJSON(c, http.StatusOK, job)
}
