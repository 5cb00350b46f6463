package metrics

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"recipe-planner/internal/handlers"
)

const defaultUsageDays = 7

type Handler struct {
	store     *Store
	dataPaths []string
	logger    *zap.Logger
}

// NewHandler serves usage reports. dataPaths are measured for the disk
// usage figure.
func NewHandler(store *Store, logger *zap.Logger, dataPaths ...string) *Handler {
	return &Handler{store: store, dataPaths: dataPaths, logger: logger}
}

// Register mounts the usage report on an admin-only group.
func (h *Handler) Register(r gin.IRouter) {
	r.GET("/usage", h.Usage)
}

type usageQuery struct {
	Days int `form:"days" binding:"omitempty,min=1,max=365"`
}

type usageResponse struct {
	Days   int          `json:"days"`
	Usage  []DailyUsage `json:"usage"`
	System SysHealth    `json:"system"`
}

func (h *Handler) Usage(c *gin.Context) {
	var q usageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		handlers.RespondBindError(c, h.logger, err)
		return
	}
	if q.Days == 0 {
		q.Days = defaultUsageDays
	}

	usage, err := h.store.DailyUsage(c.Request.Context(), q.Days)
	if err != nil {
		handlers.RespondError(c, h.logger, http.StatusInternalServerError, err)
		return
	}
	if usage == nil {
		usage = []DailyUsage{}
	}
	handlers.RespondJSON(c, http.StatusOK, usageResponse{Days: q.Days, Usage: usage, System: GetSysHealth(h.dataPaths...)})
}
