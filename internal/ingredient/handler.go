package ingredient

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"recipe-planner/internal/handlers"
	"recipe-planner/internal/pagination"
)

type Handler struct {
	repo       *Repository
	logger     *zap.Logger
	pagination pagination.Config
}

func NewHandler(repo *Repository, logger *zap.Logger, pagination pagination.Config) *Handler {
	return &Handler{repo: repo, logger: logger, pagination: pagination}
}

// Register mounts the ingredient routes on an authenticated group.
func (h *Handler) Register(r gin.IRouter) {
	g := r.Group("/ingredients")
	g.GET("", h.List)
	g.POST("", h.Create)
	g.GET("/:id", h.Get)
	g.POST("/parse", h.Parse)
	g.POST("/convert", h.Convert)
	g.POST("/aggregate", h.Aggregate)
}

func (h *Handler) List(c *gin.Context) {
	page := pagination.FromQuery(c.Request.URL.Query(), h.pagination)

	result, err := h.repo.List(c.Request.Context(), page)
	if err != nil {
		handlers.RespondError(c, h.logger, http.StatusInternalServerError, err)
		return
	}
	handlers.RespondJSON(c, http.StatusOK, result)
}

func (h *Handler) Create(c *gin.Context) {
	var in CreateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		handlers.RespondBindError(c, h.logger, err)
		return
	}

	result, err := h.repo.Create(c.Request.Context(), in)
	if err != nil {
		handlers.RespondError(c, h.logger, MapHTTPStatus(err), err)
		return
	}
	handlers.RespondJSON(c, http.StatusCreated, result)
}

func (h *Handler) Get(c *gin.Context) {
	result, err := h.repo.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		handlers.RespondError(c, h.logger, MapHTTPStatus(err), err)
		return
	}
	handlers.RespondJSON(c, http.StatusOK, result)
}

type parseRequest struct {
	Lines []string `json:"lines" binding:"required,min=1,max=200"`
}

func (h *Handler) Parse(c *gin.Context) {
	var req parseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlers.RespondBindError(c, h.logger, err)
		return
	}

	out := make([]Parsed, 0, len(req.Lines))
	for _, line := range req.Lines {
		out = append(out, ParseLine(line))
	}
	handlers.RespondJSON(c, http.StatusOK, gin.H{"data": out})
}

type convertRequest struct {
	Quantity   decimal.Decimal     `json:"quantity"`
	From       string              `json:"from" binding:"required"`
	To         string              `json:"to" binding:"required"`
	Ingredient string              `json:"ingredient"`
	Density    decimal.NullDecimal `json:"density"`
}

type convertResponse struct {
	Quantity decimal.Decimal `json:"quantity"`
	Unit     string          `json:"unit"`
}

// Convert converts a quantity. The density comes from the request or, when
// an ingredient name is given, from the catalog.
func (h *Handler) Convert(c *gin.Context) {
	var req convertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlers.RespondBindError(c, h.logger, err)
		return
	}

	density := req.Density
	if !density.Valid && req.Ingredient != "" {
		matches, err := h.repo.Match(c.Request.Context(), []string{req.Ingredient})
		if err != nil {
			handlers.RespondError(c, h.logger, http.StatusInternalServerError, err)
			return
		}
		if i, ok := matches[req.Ingredient]; ok {
			density = i.Density
		}
	}

	qty, err := Convert(req.Quantity, req.From, req.To, density)
	if err != nil {
		handlers.RespondError(c, h.logger, MapHTTPStatus(err), err)
		return
	}
	handlers.RespondJSON(c, http.StatusOK, convertResponse{Quantity: qty.Round(2), Unit: CanonicalUnit(req.To)})
}

type aggregateRequest struct {
	Lines      []Line `json:"lines" binding:"required,dive"`
	UnitSystem string `json:"unit_system" binding:"omitempty,oneof=metric imperial"`
}

func (h *Handler) Aggregate(c *gin.Context) {
	var req aggregateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlers.RespondBindError(c, h.logger, err)
		return
	}
	for _, l := range req.Lines {
		if l.Quantity.Valid && l.Quantity.Decimal.IsNegative() {
			err := fmt.Errorf("%w: quantity of %q cannot be negative", ErrInvalidInput, l.Name)
			handlers.RespondError(c, h.logger, MapHTTPStatus(err), err)
			return
		}
	}
	handlers.RespondJSON(c, http.StatusOK, gin.H{"data": Aggregate(req.Lines, req.UnitSystem)})
}
