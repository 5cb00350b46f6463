package grocery

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
	g := r.Group("/grocery-lists")
	g.GET("", h.List)
	g.POST("", h.Create)
	g.GET("/latest", h.Latest)
	g.GET("/:id", h.Get)
	g.DELETE("/:id", h.Delete)
	g.POST("/:id/items", h.AddItem)
	g.PATCH("/:id/items/:itemId", h.CheckItem)
	g.DELETE("/:id/items/:itemId", h.RemoveItem)

	r.POST("/meal-plans/:id/grocery-list", h.Generate)
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

	l, err := h.svc.Create(c.Request.Context(), auth.UserID(c), in)
	if err != nil {
		handlers.RespondError(c, h.logger, MapHTTPStatus(err), err)
		return
	}
	handlers.RespondJSON(c, http.StatusCreated, l)
}

func (h *Handler) Generate(c *gin.Context) {
	l, err := h.svc.GenerateFromMealPlan(c.Request.Context(), auth.UserID(c), c.Param("id"))
	if err != nil {
		handlers.RespondError(c, h.logger, MapHTTPStatus(err), err)
		return
	}
	handlers.RespondJSON(c, http.StatusCreated, l)
}

func (h *Handler) Latest(c *gin.Context) {
	l, err := h.svc.Latest(c.Request.Context(), auth.UserID(c))
	if err != nil {
		handlers.RespondError(c, h.logger, MapHTTPStatus(err), err)
		return
	}
	handlers.RespondJSON(c, http.StatusOK, l)
}

func (h *Handler) Get(c *gin.Context) {
	l, err := h.svc.Get(c.Request.Context(), auth.UserID(c), c.Param("id"))
	if err != nil {
		handlers.RespondError(c, h.logger, MapHTTPStatus(err), err)
		return
	}
	handlers.RespondJSON(c, http.StatusOK, l)
}

func (h *Handler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), auth.UserID(c), c.Param("id")); err != nil {
		handlers.RespondError(c, h.logger, MapHTTPStatus(err), err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) AddItem(c *gin.Context) {
	var in ItemInput
	if err := c.ShouldBindJSON(&in); err != nil {
		handlers.RespondBindError(c, h.logger, err)
		return
	}

	it, err := h.svc.AddItem(c.Request.Context(), auth.UserID(c), c.Param("id"), in)
	if err != nil {
		handlers.RespondError(c, h.logger, MapHTTPStatus(err), err)
		return
	}
	handlers.RespondJSON(c, http.StatusCreated, it)
}

func (h *Handler) CheckItem(c *gin.Context) {
	var in ItemPatch
	if err := c.ShouldBindJSON(&in); err != nil {
		handlers.RespondBindError(c, h.logger, err)
		return
	}

	it, err := h.svc.CheckItem(c.Request.Context(), auth.UserID(c), c.Param("id"), c.Param("itemId"), *in.Checked)
	if err != nil {
		handlers.RespondError(c, h.logger, MapHTTPStatus(err), err)
		return
	}
	handlers.RespondJSON(c, http.StatusOK, it)
}

func (h *Handler) RemoveItem(c *gin.Context) {
	err := h.svc.RemoveItem(c.Request.Context(), auth.UserID(c), c.Param("id"), c.Param("itemId"))
	if err != nil {
		handlers.RespondError(c, h.logger, MapHTTPStatus(err), err)
		return
	}
	c.Status(http.StatusNoContent)
}
