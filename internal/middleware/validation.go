package middleware

import (
	"errors"
	"io"

	"github.com/gin-gonic/gin"
	"github.com/yigit/studentdesk/internal/pkg/apperrors"
)

// BindJSON decodes the request body into obj. An empty body leaves obj at its
// zero value so the services report the missing fields. Schema validation is
// left to the services.
func BindJSON(c *gin.Context, obj interface{}) error {
	if err := c.ShouldBindJSON(obj); err != nil && !errors.Is(err, io.EOF) {
		return apperrors.NewValidationError("Invalid request format", err.Error())
	}
	return nil
}
