package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/MEng-Team-Project/MEng-Team-Project-ML/internal/middleware"
	"github.com/MEng-Team-Project/MEng-Team-Project-ML/internal/service"
	"github.com/MEng-Team-Project/MEng-Team-Project-ML/pkg/response"
)

// TrackerHandler starts tracker runs
type TrackerHandler struct {
	trackerService *service.TrackerService
}

// NewTrackerHandler creates a new tracker handler
func NewTrackerHandler(trackerService *service.TrackerService) *TrackerHandler {
	return &TrackerHandler{
		trackerService: trackerService,
	}
}

// InitRequest is the body of POST /api/init
type InitRequest struct {
	Stream string `json:"stream"` // absolute video path
}

// Init handles POST /api/init
func (h *TrackerHandler) Init(c *gin.Context) {
	var req InitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	job, err := h.trackerService.Run(c.Request.Context(), req.Stream)
	if err != nil {
		response.FromError(c, err)
		return
	}

	middleware.Log(c).WithField("job", job.ID).Info("video analysed")
	response.Success(c, job)
}
