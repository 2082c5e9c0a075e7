package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func performRequest(handler gin.HandlerFunc) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest("GET", "/test", nil)
	handler(c)
	return w
}

func parseResponse(t *testing.T, w *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	return resp
}

func TestSuccess(t *testing.T) {
	w := performRequest(func(c *gin.Context) {
		Success(c, map[string]string{"title": "Ocean Study"})
	})

	if w.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
	}

	resp := parseResponse(t, w)
	if resp.Code != 0 {
		t.Errorf("expected code 0, got %d", resp.Code)
	}
	if resp.Message != "ok" {
		t.Errorf("expected message 'ok', got %q", resp.Message)
	}
}

func TestCreated(t *testing.T) {
	w := performRequest(func(c *gin.Context) {
		Created(c, map[string]int{"id": 1})
	})

	if w.Code != http.StatusCreated {
		t.Errorf("expected status %d, got %d", http.StatusCreated, w.Code)
	}
	if resp := parseResponse(t, w); resp.Code != 0 {
		t.Errorf("expected code 0, got %d", resp.Code)
	}
}

func TestValidationFailed_CarriesFieldErrors(t *testing.T) {
	w := performRequest(func(c *gin.Context) {
		ValidationFailed(c, "validation failed", []FieldError{
			{Field: "title", Rule: "required", Message: "title is required"},
		})
	})

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status %d, got %d", http.StatusBadRequest, w.Code)
	}
	resp := parseResponse(t, w)
	if len(resp.Errors) != 1 || resp.Errors[0].Field != "title" {
		t.Errorf("expected one field error for title, got %+v", resp.Errors)
	}
}

func TestStatusHelpers(t *testing.T) {
	tests := []struct {
		name   string
		fn     func(c *gin.Context)
		status int
		code   int
	}{
		{"bad request", func(c *gin.Context) { BadRequest(c, "invalid input") }, http.StatusBadRequest, CodeValidation},
		{"unauthorized", func(c *gin.Context) { Unauthorized(c, "token required") }, http.StatusUnauthorized, CodeUnauthenticated},
		{"forbidden", func(c *gin.Context) { Forbidden(c, "invalid token") }, http.StatusForbidden, CodeForbidden},
		{"not found", func(c *gin.Context) { NotFound(c, "project not found") }, http.StatusNotFound, CodeNotFound},
		{"too many", func(c *gin.Context) { TooManyRequests(c, "slow down") }, http.StatusTooManyRequests, http.StatusTooManyRequests},
		{"server error", func(c *gin.Context) { ServerError(c, "internal error") }, http.StatusInternalServerError, CodeStorage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := performRequest(tt.fn)
			if w.Code != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, w.Code)
			}
			resp := parseResponse(t, w)
			if resp.Code != tt.code {
				t.Errorf("expected code %d, got %d", tt.code, resp.Code)
			}
			if resp.Message == "" {
				t.Error("error responses must carry a message")
			}
		})
	}
}

func TestError_WithAppError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   int
	}{
		{"validation", NewValidation("validation failed", FieldError{Field: "email", Rule: "email"}), http.StatusBadRequest, CodeValidation},
		{"conflict", NewConflict("user already exists"), http.StatusBadRequest, CodeConflict},
		{"upload rejected", NewUploadRejected("file too large"), http.StatusBadRequest, CodeUploadRejected},
		{"not found", NewNotFound("project not found"), http.StatusNotFound, CodeNotFound},
		{"forbidden", NewForbidden("not your comment"), http.StatusForbidden, CodeForbidden},
		{"wrapped", fmt.Errorf("create project: %w", NewNotFound("project not found")), http.StatusNotFound, CodeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := performRequest(func(c *gin.Context) { Error(c, tt.err) })
			if w.Code != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, w.Code)
			}
			if resp := parseResponse(t, w); resp.Code != tt.code {
				t.Errorf("expected code %d, got %d", tt.code, resp.Code)
			}
		})
	}
}

func TestError_StorageErrorHidesCause(t *testing.T) {
	w := performRequest(func(c *gin.Context) {
		Error(c, NewStorageError("failed to load projects", errors.New("no such table: projects")))
	})

	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected status %d, got %d", http.StatusInternalServerError, w.Code)
	}
	resp := parseResponse(t, w)
	if resp.Message != "failed to load projects" {
		t.Errorf("expected safe message, got %q", resp.Message)
	}
}

func TestError_WithGenericError(t *testing.T) {
	w := performRequest(func(c *gin.Context) {
		Error(c, errors.New("pq: relation does not exist"))
	})

	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected status %d, got %d", http.StatusInternalServerError, w.Code)
	}
	resp := parseResponse(t, w)
	if resp.Message != "internal server error" {
		t.Errorf("raw error text leaked: %q", resp.Message)
	}
}

func TestAppError_ErrorInterface(t *testing.T) {
	err := NewNotFound("user not found")
	if err.Error() != "user not found" {
		t.Errorf("expected 'user not found', got %q", err.Error())
	}

	cause := errors.New("disk full")
	wrapped := NewStorageError("failed to save", cause)
	if !errors.Is(wrapped, cause) {
		t.Error("storage error should unwrap to its cause")
	}
}
