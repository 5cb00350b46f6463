package recipe

import (
	"net/http"
	"strconv"

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
	g := r.Group("/recipes")
	g.GET("", h.List)
	g.POST("", h.Create)
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
	g.POST("/:id/like", h.Like)
	g.DELETE("/:id/like", h.Unlike)
	g.GET("/:id/scale", h.Scale)
}

func (h *Handler) List(c *gin.Context) {
	page := pagination.FromQuery(c.Request.URL.Query(), h.pagination)
	mine, _ := strconv.ParseBool(c.Query("mine"))
	filters := Filters{Tag: c.Query("tag"), Mine: mine}

	result, err := h.svc.List(c.Request.Context(), auth.UserID(c), page, filters)
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

	rec, err := h.svc.Create(c.Request.Context(), auth.UserID(c), in)
	if err != nil {
		handlers.RespondError(c, h.logger, MapHTTPStatus(err), err)
		return
	}
	handlers.RespondJSON(c, http.StatusCreated, rec)
}

func (h *Handler) Get(c *gin.Context) {
	rec, err := h.svc.Detail(c.Request.Context(), auth.UserID(c), c.Param("id"))
	if err != nil {
		handlers.RespondError(c, h.logger, MapHTTPStatus(err), err)
		return
	}
	handlers.RespondJSON(c, http.StatusOK, rec)
}

func (h *Handler) Update(c *gin.Context) {
	var in Input
	if err := c.ShouldBindJSON(&in); err != nil {
		handlers.RespondBindError(c, h.logger, err)
		return
	}

	rec, err := h.svc.Update(c.Request.Context(), auth.UserID(c), c.Param("id"), in)
	if err != nil {
		handlers.RespondError(c, h.logger, MapHTTPStatus(err), err)
		return
	}
	handlers.RespondJSON(c, http.StatusOK, rec)
}

func (h *Handler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), auth.UserID(c), c.Param("id")); err != nil {
		handlers.RespondError(c, h.logger, MapHTTPStatus(err), err)
		return
	}
	c.Status(http.StatusNoContent)
}

type likeResponse struct {
	Liked     bool `json:"liked"`
	LikeCount int  `json:"like_count"`
}

func (h *Handler) Like(c *gin.Context) {
	count, err := h.svc.Like(c.Request.Context(), auth.UserID(c), c.Param("id"))
	if err != nil {
		handlers.RespondError(c, h.logger, MapHTTPStatus(err), err)
		return
	}
	handlers.RespondJSON(c, http.StatusOK, likeResponse{Liked: true, LikeCount: count})
}

func (h *Handler) Unlike(c *gin.Context) {
	count, err := h.svc.Unlike(c.Request.Context(), auth.UserID(c), c.Param("id"))
	if err != nil {
		handlers.RespondError(c, h.logger, MapHTTPStatus(err), err)
		return
	}
	handlers.RespondJSON(c, http.StatusOK, likeResponse{Liked: false, LikeCount: count})
}

type scaleQuery struct {
	Servings int    `form:"servings" binding:"required,min=1,max=500"`
	Units    string `form:"units" binding:"omitempty,oneof=metric imperial"`
}

func (h *Handler) Scale(c *gin.Context) {
	var q scaleQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		handlers.RespondBindError(c, h.logger, err)
		return
	}

	rec, err := h.svc.Scale(c.Request.Context(), auth.UserID(c), c.Param("id"), q.Servings, q.Units)
	if err != nil {
		handlers.RespondError(c, h.logger, MapHTTPStatus(err), err)
		return
	}
	handlers.RespondJSON(c, http.StatusOK, rec)
}
