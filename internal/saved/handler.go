package saved

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"recipe-planner/internal/auth"
	"recipe-planner/internal/handlers"
	"recipe-planner/internal/pagination"
)

type Handler struct {
	svc        *Service
	logger     *zap.Logger
	pagination pagination.Config
}

func NewHandler(svc *Service, logger *zap.Logger, pagination pagination.Config) *Handler {
	return &Handler{svc: svc, logger: logger, pagination: pagination}
}

func (h *Handler) Register(r gin.IRouter) {
	g := r.Group("/saved-recipes")
	g.GET("", h.List)
	g.POST("", h.Create)
	g.DELETE("/:id", h.Delete)
}

func (h *Handler) List(c *gin.Context) {
	page := pagination.FromQuery(c.Request.URL.Query(), h.pagination)

	result, err := h.svc.List(c.Request.Context(), auth.UserID(c), page)
	if err != nil {
		handlers.RespondError(c, h.logger, http.StatusInternalServerError, err)
		return
	}
	handlers.RespondJSON(c, http.StatusOK, result)
}

func (h *Handler) Create(c *gin.Context) {
	var in Input
	if err := c.ShouldBindJSON(&in); err != nil {
		handlers.RespondBindError(c, h.logger, err)
		return
	}

	v, err := h.svc.Save(c.Request.Context(), auth.UserID(c), in)
	if err != nil {
		handlers.RespondError(c, h.logger, MapHTTPStatus(err), err)
		return
	}
	handlers.RespondJSON(c, http.StatusCreated, v)
}

func (h *Handler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), auth.UserID(c), c.Param("id")); err != nil {
		handlers.RespondError(c, h.logger, MapHTTPStatus(err), err)
		return
	}
	c.Status(http.StatusNoContent)
}
