package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/MEng-Team-Project/MEng-Team-Project-ML/internal/models"
	"github.com/MEng-Team-Project/MEng-Team-Project-ML/internal/service"
	"github.com/MEng-Team-Project/MEng-Team-Project-ML/pkg/response"
)

// AnalysisHandler serves stored detections
type AnalysisHandler struct {
	routeService *service.RouteService
}

// NewAnalysisHandler creates a new analysis handler
func NewAnalysisHandler(routeService *service.RouteService) *AnalysisHandler {
	return &AnalysisHandler{
		routeService: routeService,
	}
}

// RawDetections handles GET /api/analysis/?stream=&start=&end=
func (h *AnalysisHandler) RawDetections(c *gin.Context) {
	var q models.RawDetectionQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}

	table, err := h.routeService.RawDetections(c.Request.Context(), q)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, table)
}

// Streams handles GET /api/streams
func (h *AnalysisHandler) Streams(c *gin.Context) {
	streams, err := h.routeService.Streams()
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, streams)
}
