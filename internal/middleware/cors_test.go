package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

const clientOrigin = "http://localhost:3000"

func corsRouter(origins []string) *gin.Engine {
	r := gin.New()
	r.Use(CORS(origins))
	r.GET("/api/projects", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.POST("/api/projects", func(c *gin.Context) { c.Status(http.StatusCreated) })
	return r
}

func TestCORS_SimpleRequests(t *testing.T) {
	tests := []struct {
		name        string
		origins     []string
		origin      string
		allowOrigin string
	}{
		{"configured origin", []string{"https://research.example.org"}, "https://research.example.org", "https://research.example.org"},
		{"second configured origin", []string{"https://a.example.org", "https://b.example.org"}, "https://b.example.org", "https://b.example.org"},
		{"default local client", nil, clientOrigin, clientOrigin},
		{"unknown origin", []string{clientOrigin}, "http://evil.example.com", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/api/projects", nil)
			req.Header.Set("Origin", tt.origin)
			corsRouter(tt.origins).ServeHTTP(w, req)

			assert.Equal(t, tt.allowOrigin, w.Header().Get("Access-Control-Allow-Origin"))
			if tt.allowOrigin != "" {
				assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
			}
		})
	}
}

func TestCORS_PreflightAllowsAuthorizationHeader(t *testing.T) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/api/projects", nil)
	req.Header.Set("Origin", clientOrigin)
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Content-Type, Authorization")
	corsRouter([]string{clientOrigin}).ServeHTTP(w, req)

	assert.Contains(t, []int{http.StatusOK, http.StatusNoContent}, w.Code)
	assert.Equal(t, clientOrigin, w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), http.MethodPost)
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "Authorization")
}
