package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/yanqian/outfit-recommender/pkg/errors"
)

// HTTPError is the transport representation of a failed request.
type HTTPError struct {
	Status  int
	Code    string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

// NewHTTPError is a helper to build an HTTPError instance.
func NewHTTPError(status int, code, message string, err error) *HTTPError {
	return &HTTPError{Status: status, Code: code, Message: message, Err: err}
}

// appErrorStatus maps domain error codes onto HTTP statuses.
var appErrorStatus = map[string]int{
	apperrors.CodeInvalidInput:       http.StatusBadRequest,
	apperrors.CodeUnauthorized:       http.StatusUnauthorized,
	apperrors.CodeInvalidToken:       http.StatusForbidden,
	apperrors.CodeGenerationError:    http.StatusServiceUnavailable,
	apperrors.CodeWeatherUnavailable: http.StatusServiceUnavailable,
	apperrors.CodeQueueFull:          http.StatusServiceUnavailable,
}

// fromAppError keeps the domain code when it has a known status and falls
// back to a 500 carrying fallbackCode otherwise.
func fromAppError(err error, fallbackCode string) *HTTPError {
	code := apperrors.CodeOf(err)
	if status, ok := appErrorStatus[code]; ok {
		return NewHTTPError(status, code, errMessage(err), err)
	}
	return NewHTTPError(http.StatusInternalServerError, fallbackCode, errMessage(err), err)
}

func asHTTPError(err error) *HTTPError {
	if err == nil {
		return nil
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}
	return &HTTPError{
		Status:  http.StatusInternalServerError,
		Code:    "internal_error",
		Message: "something went wrong",
		Err:     err,
	}
}

func abortWithError(c *gin.Context, err *HTTPError) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}
