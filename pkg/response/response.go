package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/huangang/researchhub/pkg/logger"
)

// Response is the unified API response format.
type Response struct {
	Code    int          `json:"code"`
	Message string       `json:"message"`
	Data    interface{}  `json:"data,omitempty"`
	Errors  []FieldError `json:"errors,omitempty"`
}

// FieldError describes one rejected input field.
type FieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// Application error codes. Most mirror the HTTP status; Conflict and
// UploadRejected travel as 400 but keep a distinct code.
const (
	CodeValidation      = 400
	CodeUnauthenticated = 401
	CodeForbidden       = 403
	CodeNotFound        = 404
	CodeConflict        = 409
	CodeUploadRejected  = 413
	CodeStorage         = 500
)

// AppError represents a structured application error with HTTP status and error code.
type AppError struct {
	HTTPStatus int          // HTTP status code (e.g. 400, 404, 500)
	Code       int          // Application-level error code
	Message    string       // Human-readable error message
	Fields     []FieldError // Field-level detail for validation failures
	Err        error        // Underlying cause, never sent to the client
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewBadRequest(msg string) *AppError {
	return &AppError{HTTPStatus: http.StatusBadRequest, Code: CodeValidation, Message: msg}
}

// NewValidation builds a ValidationFailed error carrying field details.
func NewValidation(msg string, fields ...FieldError) *AppError {
	return &AppError{HTTPStatus: http.StatusBadRequest, Code: CodeValidation, Message: msg, Fields: fields}
}

func NewUnauthorized(msg string) *AppError {
	return &AppError{HTTPStatus: http.StatusUnauthorized, Code: CodeUnauthenticated, Message: msg}
}

func NewForbidden(msg string) *AppError {
	return &AppError{HTTPStatus: http.StatusForbidden, Code: CodeForbidden, Message: msg}
}

func NewNotFound(msg string) *AppError {
	return &AppError{HTTPStatus: http.StatusNotFound, Code: CodeNotFound, Message: msg}
}

// NewConflict reports a duplicate unique value. Clients see 400.
func NewConflict(msg string) *AppError {
	return &AppError{HTTPStatus: http.StatusBadRequest, Code: CodeConflict, Message: msg}
}

// NewUploadRejected reports an oversized or disallowed upload.
func NewUploadRejected(msg string) *AppError {
	return &AppError{HTTPStatus: http.StatusBadRequest, Code: CodeUploadRejected, Message: msg}
}

// NewStorageError wraps a store failure; only msg reaches the client.
func NewStorageError(msg string, err error) *AppError {
	return &AppError{HTTPStatus: http.StatusInternalServerError, Code: CodeStorage, Message: msg, Err: err}
}

func NewServerError(msg string) *AppError {
	return &AppError{HTTPStatus: http.StatusInternalServerError, Code: CodeStorage, Message: msg}
}

// Success sends a 200 OK response with data.
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    0,
		Message: "ok",
		Data:    data,
	})
}

// Created sends a 201 Created response with data.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Code:    0,
		Message: "created",
		Data:    data,
	})
}

// Message sends a 200 OK response carrying only a message and optional data.
func Message(c *gin.Context, msg string, data interface{}) {
	c.JSON(http.StatusOK, Response{Code: 0, Message: msg, Data: data})
}

// Error sends an error response. An *AppError keeps its status and code;
// anything else is logged and reported as a generic 500.
func Error(c *gin.Context, err error) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		if appErr.HTTPStatus >= http.StatusInternalServerError {
			logger.Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
		}
		c.AbortWithStatusJSON(appErr.HTTPStatus, Response{
			Code:    appErr.Code,
			Message: appErr.Message,
			Errors:  appErr.Fields,
		})
		return
	}
	logger.Error().Err(err).Str("path", c.Request.URL.Path).Msg("unhandled error")
	c.AbortWithStatusJSON(http.StatusInternalServerError, Response{
		Code:    CodeStorage,
		Message: "internal server error",
	})
}

func BadRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, Response{Code: CodeValidation, Message: msg})
}

// ValidationFailed sends a 400 with field-level detail.
func ValidationFailed(c *gin.Context, msg string, fields []FieldError) {
	c.AbortWithStatusJSON(http.StatusBadRequest, Response{Code: CodeValidation, Message: msg, Errors: fields})
}

func Unauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, Response{Code: CodeUnauthenticated, Message: msg})
}

func Forbidden(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusForbidden, Response{Code: CodeForbidden, Message: msg})
}

func NotFound(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusNotFound, Response{Code: CodeNotFound, Message: msg})
}

func TooManyRequests(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusTooManyRequests, Response{Code: http.StatusTooManyRequests, Message: msg})
}

func ServerError(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusInternalServerError, Response{Code: CodeStorage, Message: msg})
}
