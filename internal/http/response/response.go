package response

import (
	"github.com/gin-gonic/gin"

	"github.com/driftos/driftos-backend/internal/platform/apierr"
)

type ErrorBody struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type Envelope struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorBody `json:"error,omitempty"`
}

func OK(c *gin.Context, status int, data any) {
	c.JSON(status, Envelope{Success: true, Data: data})
}

// Err translates any error into the failure envelope via apierr coercion;
// unknown errors become internal/500.
func Err(c *gin.Context, err error) {
	ae := apierr.From(err)
	c.JSON(ae.Status, Envelope{
		Success: false,
		Error:   &ErrorBody{Message: ae.Error(), Code: ae.Code},
	})
}
