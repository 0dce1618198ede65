package handler

import (
	"bytes"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/MEng-Team-Project/MEng-Team-Project-ML/internal/middleware"
	"github.com/MEng-Team-Project/MEng-Team-Project-ML/internal/service"
	"github.com/MEng-Team-Project/MEng-Team-Project-ML/pkg/response"
)

// RouteHandler handles HTTP requests for route analytics
type RouteHandler struct {
	routeService *service.RouteService
}

// NewRouteHandler creates a new route handler
func NewRouteHandler(routeService *service.RouteService) *RouteHandler {
	return &RouteHandler{
		routeService: routeService,
	}
}

func (h *RouteHandler) decode(c *gin.Context) (service.RouteQuery, bool) {
	body, err := c.GetRawData()
	if err != nil {
		response.BadRequest(c, "failed to read request body")
		return service.RouteQuery{}, false
	}

	q, err := DecodeRouteQuery(body)
	if err != nil {
		response.FromError(c, err)
		return q, false
	}

	middleware.Log(c).WithField("stream", q.DataSource).Debug("route query decoded")
	return q, true
}

// RouteAnalytics handles POST /api/routeAnalytics/
func (h *RouteHandler) RouteAnalytics(c *gin.Context) {
	q, ok := h.decode(c)
	if !ok {
		return
	}

	result, err := h.routeService.RouteAnalytics(c.Request.Context(), q)
	if err != nil {
		response.FromError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// Routes handles POST /api/routes/
func (h *RouteHandler) Routes(c *gin.Context) {
	q, ok := h.decode(c)
	if !ok {
		return
	}

	result, err := h.routeService.Routes(c.Request.Context(), q)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, result)
}

// Chart handles POST /api/routeAnalytics/chart
func (h *RouteHandler) Chart(c *gin.Context) {
	q, ok := h.decode(c)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := h.routeService.RenderChart(c.Request.Context(), q, &buf); err != nil {
		response.FromError(c, err)
		return
	}

	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}
