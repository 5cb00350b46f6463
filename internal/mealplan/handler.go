package mealplan

import (
	"net/http"
	"time"

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
	g := r.Group("/meal-plans")
	g.GET("", h.List)
	g.POST("", h.Create)
	g.GET("/current", h.Current)
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
	g.POST("/:id/entries", h.AddEntry)
	g.DELETE("/:id/entries/:entryId", h.RemoveEntry)
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

	p, err := h.svc.Create(c.Request.Context(), auth.UserID(c), in)
	if err != nil {
		handlers.RespondError(c, h.logger, MapHTTPStatus(err), err)
		return
	}
	handlers.RespondJSON(c, http.StatusCreated, p)
}

type currentQuery struct {
	Date string `form:"date" binding:"omitempty,datetime=2006-01-02"`
}

func (h *Handler) Current(c *gin.Context) {
	var q currentQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		handlers.RespondBindError(c, h.logger, err)
		return
	}
	var day time.Time
	if q.Date != "" {
		day, _ = time.Parse(DateLayout, q.Date)
	}

	p, err := h.svc.Current(c.Request.Context(), auth.UserID(c), day)
	if err != nil {
		handlers.RespondError(c, h.logger, MapHTTPStatus(err), err)
		return
	}
	handlers.RespondJSON(c, http.StatusOK, p)
}

func (h *Handler) Get(c *gin.Context) {
	p, err := h.svc.Get(c.Request.Context(), auth.UserID(c), c.Param("id"))
	if err != nil {
		handlers.RespondError(c, h.logger, MapHTTPStatus(err), err)
		return
	}
	handlers.RespondJSON(c, http.StatusOK, p)
}

func (h *Handler) Update(c *gin.Context) {
	var in UpdateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		handlers.RespondBindError(c, h.logger, err)
		return
	}

	p, err := h.svc.Update(c.Request.Context(), auth.UserID(c), c.Param("id"), in)
	if err != nil {
		handlers.RespondError(c, h.logger, MapHTTPStatus(err), err)
		return
	}
	handlers.RespondJSON(c, http.StatusOK, p)
}

func (h *Handler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), auth.UserID(c), c.Param("id")); err != nil {
		handlers.RespondError(c, h.logger, MapHTTPStatus(err), err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) AddEntry(c *gin.Context) {
	var in EntryInput
	if err := c.ShouldBindJSON(&in); err != nil {
		handlers.RespondBindError(c, h.logger, err)
		return
	}

	e, err := h.svc.AddEntry(c.Request.Context(), auth.UserID(c), c.Param("id"), in)
	if err != nil {
		handlers.RespondError(c, h.logger, MapHTTPStatus(err), err)
		return
	}
	handlers.RespondJSON(c, http.StatusCreated, e)
}

func (h *Handler) RemoveEntry(c *gin.Context) {
	err := h.svc.RemoveEntry(c.Request.Context(), auth.UserID(c), c.Param("id"), c.Param("entryId"))
	if err != nil {
		handlers.RespondError(c, h.logger, MapHTTPStatus(err), err)
		return
	}
	c.Status(http.StatusNoContent)
}
