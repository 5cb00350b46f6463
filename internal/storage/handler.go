package storage

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"recipe-planner/internal/handlers"
)

type Handler struct {
	store  *ImageStore
	logger *zap.Logger
}

func NewHandler(store *ImageStore, logger *zap.Logger) *Handler {
	return &Handler{store: store, logger: logger}
}

// Register mounts GET /images/:name. Image names are unguessable, so the
// route is public.
func (h *Handler) Register(r gin.IRouter) {
	r.GET("/images/:name", h.Get)
}

func (h *Handler) Get(c *gin.Context) {
	name := c.Param("name")
	f, err := h.store.Open(name)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalidName) {
			status = http.StatusNotFound
		}
		handlers.RespondError(c, h.logger, status, err)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		handlers.RespondError(c, h.logger, http.StatusInternalServerError, err)
		return
	}
	c.Header("Cache-Control", "public, max-age=31536000, immutable")
	http.ServeContent(c.Writer, c.Request, name, info.ModTime(), f)
}
