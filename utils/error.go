package utils

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ErrorResponse defines the structure of error responses
type ErrorResponse struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// AppError is a domain error that carries the HTTP status it maps to.
type AppError struct {
	Code    string
	Message string
	Status  int
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewAppError(code, message string, status int) *AppError {
	return &AppError{Code: code, Message: message, Status: status}
}

// ErrInvalidInput is returned for malformed or missing request fields.
var ErrInvalidInput = NewAppError("invalidInput", "Invalid request", http.StatusBadRequest)

// InvalidInput wraps ErrInvalidInput with a descriptive message.
func InvalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// HandleErrors is a middleware to catch panics and return structured errors
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				Logger := GetLogger()
				Logger.Error("Unhandled panic", zap.Any("error", err))

				c.JSON(http.StatusInternalServerError, ErrorResponse{
					Message: "Internal Server Error",
					Details: "An unexpected error occurred. Please try again later.",
				})
				c.Abort()
			}
		}()
		c.Next()
	}
}

// JSONError sends a standardized JSON error response
func JSONError(c *gin.Context, status int, message string, details string) {
	Logger := GetLogger()
	Logger.Warn(message, zap.String("details", details))
	c.JSON(status, ErrorResponse{Message: message, Details: details})
}

// RespondError maps err onto an HTTP response. Domain errors keep their own
// status and message; anything else is a dependency failure.
func RespondError(c *gin.Context, err error) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		details := ""
		if msg := err.Error(); msg != appErr.Error() {
			details = msg
		}
		GetLogger().Warn(appErr.Message, zap.String("code", appErr.Code), zap.String("details", details))
		c.JSON(appErr.Status, ErrorResponse{Message: appErr.Message, Code: appErr.Code, Details: details})
		return
	}
	GetLogger().Error("Dependency failure", zap.Error(err))
	c.JSON(http.StatusServiceUnavailable, ErrorResponse{
		Message: "Service temporarily unavailable",
		Code:    "dependencyFailure",
		Details: "Please try again later.",
	})
}
