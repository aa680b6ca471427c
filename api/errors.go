package api

import (
	"fmt"
	"net/http"

	"github.com/pkg/errors"
	"github.com/tigrisdata/inviter/models"
)

// HTTPError is an error with a message and an HTTP status code.
type HTTPError struct {
	Code            int    `json:"code"`
	Message         string `json:"msg"`
	InternalError   error  `json:"-"`
	InternalMessage string `json:"-"`
	ErrorID         string `json:"error_id,omitempty"`
}

func (e *HTTPError) Error() string {
	if e.InternalMessage != "" {
		return e.InternalMessage
	}
	return fmt.Sprintf("%d: %s", e.Code, e.Message)
}

// Cause returns the root cause error
func (e *HTTPError) Cause() error {
	if e.InternalError != nil {
		return e.InternalError
	}
	return e
}

// WithInternalError adds internal error information to the error
func (e *HTTPError) WithInternalError(err error) *HTTPError {
	e.InternalError = err
	return e
}

// WithInternalMessage adds internal message information to the error
func (e *HTTPError) WithInternalMessage(fmtString string, args ...interface{}) *HTTPError {
	e.InternalMessage = fmt.Sprintf(fmtString, args...)
	return e
}

func httpError(code int, fmtString string, args ...interface{}) *HTTPError {
	return &HTTPError{
		Code:    code,
		Message: fmt.Sprintf(fmtString, args...),
	}
}

func badRequestError(fmtString string, args ...interface{}) *HTTPError {
	return httpError(http.StatusBadRequest, fmtString, args...)
}

func internalServerError(fmtString string, args ...interface{}) *HTTPError {
	return httpError(http.StatusInternalServerError, fmtString, args...)
}

func notFoundError(fmtString string, args ...interface{}) *HTTPError {
	return httpError(http.StatusNotFound, fmtString, args...)
}

func unauthorizedError(fmtString string, args ...interface{}) *HTTPError {
	return httpError(http.StatusUnauthorized, fmtString, args...)
}

func forbiddenError(fmtString string, args ...interface{}) *HTTPError {
	return httpError(http.StatusForbidden, fmtString, args...)
}

func conflictError(fmtString string, args ...interface{}) *HTTPError {
	return httpError(http.StatusConflict, fmtString, args...)
}

func unprocessableEntityError(fmtString string, args ...interface{}) *HTTPError {
	return httpError(http.StatusUnprocessableEntity, fmtString, args...)
}

func tooManyRequestsError(fmtString string, args ...interface{}) *HTTPError {
	return httpError(http.StatusTooManyRequests, fmtString, args...)
}

// storeError converts a lifecycle failure into a 500 response.
func storeError(msg string, err error) *HTTPError {
	e := internalServerError(msg).WithInternalError(err)
	var se *models.StoreError
	if errors.As(err, &se) {
		e = e.WithInternalMessage("store %s failed: %v", se.Op, se.Err)
	}
	return e
}

func handleError(err error, w http.ResponseWriter, r *http.Request) {
	log := getLogEntry(r)
	errorID := getRequestID(r.Context())
	switch e := err.(type) {
	case *HTTPError:
		if e.Code >= http.StatusInternalServerError {
			e.ErrorID = errorID
			log.Error().Err(e.Cause()).Str("error_id", errorID).Msg(e.Error())
		} else {
			log.Info().Err(e.Cause()).Msg(e.Error())
		}
		if jsonErr := sendJSON(w, e.Code, e); jsonErr != nil {
			handleError(jsonErr, w, r)
		}
	default:
		log.Error().Err(err).Str("error_id", errorID).Msg("Unhandled server error")
		if jsonErr := sendJSON(w, http.StatusInternalServerError, &HTTPError{
			Code:    http.StatusInternalServerError,
			Message: "Internal server error",
			ErrorID: errorID,
		}); jsonErr != nil {
			log.Error().Err(jsonErr).Msg("Failed to write error response")
		}
	}
}
