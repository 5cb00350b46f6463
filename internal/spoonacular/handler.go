package spoonacular

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"recipe-planner/internal/auth"
	"recipe-planner/internal/handlers"
	"recipe-planner/internal/recipe"
)

// RecipeCreator stores imported recipes.
type RecipeCreator interface {
	Create(ctx context.Context, userID string, in recipe.Input) (*recipe.Recipe, error)
}

type Handler struct {
	client  *Client
	recipes RecipeCreator
	logger  *zap.Logger
}

func NewHandler(client *Client, recipes RecipeCreator, logger *zap.Logger) *Handler {
	return &Handler{client: client, recipes: recipes, logger: logger}
}

func (h *Handler) Register(r gin.IRouter) {
	g := r.Group("/external/recipes")
	g.GET("", h.Search)
	g.GET("/:id", h.Get)
	g.POST("/:id/import", h.Import)
}

type searchQuery struct {
	Query  string `form:"query" binding:"max=200"`
	Number int    `form:"number" binding:"omitempty,min=1,max=100"`
}

func (h *Handler) Search(c *gin.Context) {
	var q searchQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		handlers.RespondBindError(c, h.logger, err)
		return
	}
	if q.Number == 0 {
		q.Number = 10
	}

	result, err := h.client.Search(c.Request.Context(), q.Query, q.Number)
	if err != nil {
		handlers.RespondError(c, h.logger, MapHTTPStatus(err), err)
		return
	}
	handlers.RespondJSON(c, http.StatusOK, result)
}

func (h *Handler) Get(c *gin.Context) {
	rec, err := h.load(c)
	if err != nil {
		handlers.RespondError(c, h.logger, MapHTTPStatus(err), err)
		return
	}
	handlers.RespondJSON(c, http.StatusOK, rec)
}

// Import copies an external recipe into the user's recipes.
func (h *Handler) Import(c *gin.Context) {
	ext, err := h.load(c)
	if err != nil {
		handlers.RespondError(c, h.logger, MapHTTPStatus(err), err)
		return
	}

	rec, err := h.recipes.Create(c.Request.Context(), auth.UserID(c), ToRecipeInput(ext))
	if err != nil {
		handlers.RespondError(c, h.logger, recipe.MapHTTPStatus(err), err)
		return
	}
	handlers.RespondJSON(c, http.StatusCreated, rec)
}

func (h *Handler) load(c *gin.Context) (*Recipe, error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return nil, ErrInvalidInput
	}
	return h.client.Get(c.Request.Context(), id)
}
