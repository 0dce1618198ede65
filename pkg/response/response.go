package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/MEng-Team-Project/MEng-Team-Project-ML/internal/models"
)

// Response represents a standard API response
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Field   string      `json:"field,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// Success sends a successful response
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Error sends an error response
func Error(c *gin.Context, code int, message string) {
	c.JSON(code, Response{
		Code:    code,
		Message: message,
	})
}

// BadRequest sends a 400 bad request response
func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, message)
}

// NotFound sends a 404 not found response
func NotFound(c *gin.Context, message string) {
	Error(c, http.StatusNotFound, message)
}

// InternalError sends a 500 internal server error response
func InternalError(c *gin.Context, message string) {
	Error(c, http.StatusInternalServerError, message)
}

// Status maps an error onto its HTTP status code
func Status(err error) int {
	var (
		missing  *models.MissingFieldError
		invalid  *models.ValidationError
		geometry *models.GeometryError
		notFound *models.NotFoundError
	)
	switch {
	case errors.As(err, &missing), errors.As(err, &invalid), errors.As(err, &geometry):
		return http.StatusBadRequest
	case errors.As(err, &notFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// FromError sends the failure response for err. Caller errors carry their
// message; internal errors are logged and reported generically unless they
// are schema errors, whose detail helps operators fix the store.
func FromError(c *gin.Context, err error) {
	code := Status(err)
	resp := Response{Code: code, Message: err.Error()}

	var missing *models.MissingFieldError
	var invalid *models.ValidationError
	switch {
	case errors.As(err, &missing):
		resp.Field = missing.Field
	case errors.As(err, &invalid):
		resp.Field = invalid.Field
	}

	if code == http.StatusInternalServerError {
		var schema *models.SchemaError
		if !errors.As(err, &schema) {
			resp.Message = "internal server error"
		}
		logrus.WithError(err).WithField("path", c.Request.URL.Path).Error("request failed")
	}

	c.Error(err)
	c.AbortWithStatusJSON(code, resp)
}
