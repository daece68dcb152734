package middleware

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/yigit/studentdesk/internal/app/models/dto"
	"github.com/yigit/studentdesk/internal/pkg/apperrors"
	"github.com/yigit/studentdesk/internal/pkg/logger"
)

const debugErrorsKey = "errors.debug"

// Translate maps an error to its HTTP status and response body. With debug
// set, unexpected errors expose their message and stack trace.
func Translate(err error, debug bool) (int, *dto.ErrorResponse) {
	switch {
	case errors.Is(err, apperrors.ErrValidationFailed):
		return http.StatusBadRequest, dto.NewErrorResponse(dto.ErrorCodeValidationFailed,
			apperrors.Message(err, "Validation failed")).WithErrors(apperrors.Fields(err))

	case errors.Is(err, apperrors.ErrDuplicateEmail):
		return http.StatusBadRequest, dto.NewErrorResponse(dto.ErrorCodeResourceAlreadyExists,
			apperrors.Message(err, "Duplicate field value entered"))

	case apperrors.Is(err, apperrors.ErrNotFound, apperrors.ErrInvalidID):
		return http.StatusNotFound, dto.NewErrorResponse(dto.ErrorCodeResourceNotFound,
			apperrors.Message(err, "Resource not found"))

	case errors.Is(err, apperrors.ErrInvalidCredentials):
		return http.StatusUnauthorized, dto.NewErrorResponse(dto.ErrorCodeInvalidCredentials, "Invalid credentials")

	case errors.Is(err, apperrors.ErrTokenExpired):
		return http.StatusUnauthorized, dto.NewErrorResponse(dto.ErrorCodeExpiredToken, "Token has expired")

	case errors.Is(err, apperrors.ErrTokenInvalid):
		return http.StatusUnauthorized, dto.NewErrorResponse(dto.ErrorCodeInvalidToken, "Invalid token")

	case errors.Is(err, apperrors.ErrUnauthorized):
		return http.StatusUnauthorized, dto.NewErrorResponse(dto.ErrorCodeUnauthorized,
			apperrors.Message(err, "Not authorized to access this route"))

	case errors.Is(err, apperrors.ErrForbidden):
		return http.StatusForbidden, dto.NewErrorResponse(dto.ErrorCodeForbidden,
			apperrors.Message(err, "You do not have permission to perform this action"))
	}

	resp := dto.NewErrorResponse(dto.ErrorCodeInternalServer, "Server Error")
	if debug {
		resp.Error = err.Error()
		resp.WithStack(fmt.Sprintf("%+v", err))
	}
	return http.StatusInternalServerError, resp
}

// HandleAPIError writes the error envelope for err and aborts the chain
func HandleAPIError(c *gin.Context, err error) {
	status, resp := Translate(err, c.GetBool(debugErrorsKey))
	if status >= http.StatusInternalServerError {
		logger.Error().Err(err).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Msg("Request failed")
	}
	c.AbortWithStatusJSON(status, resp)
}

// ErrorHandler enables debug error output when debug is set, and translates
// errors that handlers pushed with c.Error without writing a response.
func ErrorHandler(debug bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(debugErrorsKey, debug)
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		HandleAPIError(c, c.Errors.Last().Err)
	}
}
