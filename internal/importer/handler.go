package importer

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"recipe-planner/internal/auth"
	"recipe-planner/internal/handlers"
)

// multipartOverhead is allowed on top of the file size for form boundaries
// and headers.
const multipartOverhead = 64 << 10

type Handler struct {
	svc       *Service
	maxUpload int64
	logger    *zap.Logger
}

func NewHandler(svc *Service, maxUpload int64, logger *zap.Logger) *Handler {
	return &Handler{svc: svc, maxUpload: maxUpload, logger: logger}
}

func (h *Handler) Register(r gin.IRouter) {
	g := r.Group("/imports")
	g.POST("/url", h.ImportURL)
	g.POST("/image", h.ImportImage)
}

type urlRequest struct {
	URL string `json:"url" binding:"required,url,max=2048"`
}

func (h *Handler) ImportURL(c *gin.Context) {
	var req urlRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlers.RespondBindError(c, h.logger, err)
		return
	}

	rec, err := h.svc.ImportURL(c.Request.Context(), auth.UserID(c), req.URL)
	if err != nil {
		handlers.RespondError(c, h.logger, MapHTTPStatus(err), err)
		return
	}
	handlers.RespondJSON(c, http.StatusCreated, rec)
}

func (h *Handler) ImportImage(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUpload+multipartOverhead)

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			handlers.RespondError(c, h.logger, http.StatusRequestEntityTooLarge, ErrTooLarge)
			return
		}
		handlers.RespondError(c, h.logger, http.StatusBadRequest, errors.New("multipart field \"file\" is required"))
		return
	}
	defer file.Close()

	if header.Size > h.maxUpload {
		handlers.RespondError(c, h.logger, http.StatusRequestEntityTooLarge, ErrTooLarge)
		return
	}
	data, err := io.ReadAll(io.LimitReader(file, h.maxUpload+1))
	if err != nil {
		handlers.RespondError(c, h.logger, http.StatusBadRequest, err)
		return
	}
	if int64(len(data)) > h.maxUpload {
		handlers.RespondError(c, h.logger, http.StatusRequestEntityTooLarge, ErrTooLarge)
		return
	}

	rec, err := h.svc.ImportImage(c.Request.Context(), auth.UserID(c), data)
	if err != nil {
		handlers.RespondError(c, h.logger, MapHTTPStatus(err), err)
		return
	}
	handlers.RespondJSON(c, http.StatusCreated, rec)
}
