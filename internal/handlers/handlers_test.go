package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"kaari_back_end/internal/models"
	"kaari_back_end/internal/services"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", fmt.Errorf("%w: refund r-1", services.ErrNotFound), http.StatusNotFound},
		{"unauthorized", services.ErrUnauthorized, http.StatusForbidden},
		{"validation", fmt.Errorf("%w: reason requis", services.ErrValidation), http.StatusBadRequest},
		{"already processed", fmt.Errorf("Failed to approve refund request r-1: %w", services.ErrAlreadyProcessed), http.StatusConflict},
		{"unavailable", services.ErrUnavailable, http.StatusServiceUnavailable},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StatusFor(tt.err); got != tt.want {
				t.Errorf("StatusFor(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func setupFunctions(userID string) *gin.Engine {
	h := NewFunctionsHandler(services.NewStorageService(nil, "kaari"))
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("user_id", userID)
		c.Set("role", models.RoleUser)
		c.Next()
	})
	r.POST("/functions/:name", h.Call)
	return r
}

func TestCallableFunctions(t *testing.T) {
	r := setupFunctions("u1")

	tests := []struct {
		name       string
		function   string
		body       string
		wantStatus int
	}{
		{"unknown function", "storage-unknown", `{"data":{}}`, http.StatusNotFound},
		{"missing data", "storage-getSignedUploadUrl", `{}`, http.StatusBadRequest},
		{"missing path", "storage-getSignedUploadUrl", `{"data":{"contentType":"image/png"}}`, http.StatusBadRequest},
		{"foreign path", "storage-getSignedUploadUrl", `{"data":{"path":"users/u2/a.png","contentType":"image/png"}}`, http.StatusForbidden},
		{"traversal", "storage-getSignedUploadUrl", `{"data":{"path":"users/u1/../u2/a.png"}}`, http.StatusForbidden},
		{"storage disabled", "storage-getSignedUploadUrl", `{"data":{"path":"users/u1/a.png","contentType":"image/png"}}`, http.StatusServiceUnavailable},
		{"no paths", "storage-getMultipleSignedUrls", `{"data":{"paths":[]}}`, http.StatusBadRequest},
		{"multiple foreign", "storage-getMultipleSignedUrls", `{"data":{"paths":["users/u1/a.png","properties/u2/b.png"]}}`, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/functions/"+tt.function, strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != tt.wantStatus {
				t.Errorf("expected %d, got %d: %s", tt.wantStatus, w.Code, w.Body.String())
			}
		})
	}
}

func TestDeleteFileRequiresPath(t *testing.T) {
	h := NewStorageHandler(services.NewStorageService(nil, "kaari"))
	r := gin.New()
	r.DELETE("/storage", h.Delete)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/storage", nil))
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}
