package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	appErrors "github.com/sparc-center/sparc-api/pkg/errors"
)

// Envelope is the uniform response contract: every success carries
// {success, statusCode, data, message}; every failure carries
// {success:false, statusCode, message, errors?}.
type Envelope struct {
	Success    bool                   `json:"success"`
	StatusCode int                    `json:"statusCode"`
	Data       interface{}            `json:"data,omitempty"`
	Message    string                 `json:"message,omitempty"`
	Errors     []appErrors.FieldError `json:"errors,omitempty"`
}

// JSON sends a success response with the given status and message.
func JSON(c *gin.Context, status int, data interface{}, message string) {
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
	c.JSON(status, Envelope{Success: true, StatusCode: status, Data: data, Message: message})
}

// Created responds with HTTP 201 Created.
func Created(c *gin.Context, data interface{}, message string) {
	JSON(c, http.StatusCreated, data, message)
}

// Error sends an error response converting the error to the common structure.
// Stack traces and wrapped causes are never exposed to the caller.
func Error(c *gin.Context, err error) {
	appErr := appErrors.FromError(err)
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
	c.JSON(appErr.Status, Envelope{
		Success:    false,
		StatusCode: appErr.Status,
		Message:    appErr.Message,
		Errors:     appErr.Fields,
	})
}

// NoContent sends a 204 response.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
