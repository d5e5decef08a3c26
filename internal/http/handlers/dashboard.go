package handlers

import (
	"context"
	"net/http"

	"github.com/geocoder89/supporthub/internal/dashboard"
	"github.com/gin-gonic/gin"
)

type DashboardReader interface {
	Overview(ctx context.Context) (dashboard.Overview, error)
}

type DashboardHandler struct {
	dashboard DashboardReader
}

func NewDashboardHandler(d DashboardReader) *DashboardHandler {
	return &DashboardHandler{dashboard: d}
}

func (h *DashboardHandler) Statistics(ctx *gin.Context) {
	overview, err := h.dashboard.Overview(ctx.Request.Context())
	if err != nil {
		RespondAppError(ctx, err, "Not found.")
		return
	}

	ctx.JSON(http.StatusOK, overview)
}
