package utils

import (
	"github.com/gin-gonic/gin"
)

// apiEnvelope is the wire shape shared by every successful API response
type apiEnvelope struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

// apiError is the wire shape for failed requests
type apiError struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

// JSONResponse writes a success envelope carrying the given payload
func JSONResponse(c *gin.Context, status int, data any, message string) {
	c.JSON(status, apiEnvelope{
		Status:  status,
		Message: message,
		Data:    data,
	})
}

// JSONError writes an error envelope carrying the failure cause
func JSONError(c *gin.Context, status int, err error, message string) {
	c.JSON(status, apiError{
		Status:  status,
		Message: message,
		Error:   err.Error(),
	})
}
