package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"

	"kaari_back_end/internal/cache"
	"kaari_back_end/internal/database"
	"kaari_back_end/internal/handlers"
	"kaari_back_end/internal/handlers/admin"
	"kaari_back_end/internal/handlers/advertiser"
	"kaari_back_end/internal/handlers/user"
	"kaari_back_end/internal/middleware"
	"kaari_back_end/internal/models"
	"kaari_back_end/internal/repository"
	"kaari_back_end/internal/services"
	"kaari_back_end/internal/utils"
)

const testSecret = "routes-secret"

func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store, err := database.NewBoltStore(filepath.Join(t.TempDir(), "routes.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	if _, err := services.NewTestDataService(store).Seed(context.Background(), nil); err != nil {
		t.Fatalf("seed: %v", err)
	}

	c := cache.New(nil)
	repo := repository.New(store, c)
	approval := services.NewApprovalService(repo, nil, nil)
	auditor := utils.NewAuditor(store)
	storage := services.NewStorageService(nil, "kaari")
	t.Cleanup(func() {
		approval.Wait()
		auditor.Wait()
	})

	r := gin.New()
	RegisterRoutes(r, Deps{
		FrontendOrigin:   "http://localhost:5173",
		Auth:             middleware.NewAuth(testSecret, c),
		RateLimiter:      middleware.NewRateLimiter(c),
		Auditor:          auditor,
		AuthHandler:      user.NewAuthHandler(store, c, testSecret, auditor),
		RequestHandler:   user.NewRequestHandler(services.NewRequestService(repo, nil)),
		PayoutHandler:    advertiser.NewPayoutHandler(services.NewPayoutService(repo)),
		AdminHandler:     admin.NewHandler(repo, approval, services.NewSearchService(nil, "kaari-requests"), services.NewTestDataService(store), auditor),
		StorageHandler:   handlers.NewStorageHandler(storage),
		FunctionsHandler: handlers.NewFunctionsHandler(storage),
	})
	return r
}

func tokenFor(t *testing.T, id, role string) string {
	t.Helper()
	token, _, err := utils.GenerateJWT(models.User{ID: id, Email: id + "@kaari.ma", Role: role}, testSecret)
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}
	return token
}

func TestRouteAccess(t *testing.T) {
	r := setupRouter(t)
	tenant := tokenFor(t, "test-tenant-1", models.RoleUser)
	advertiserToken := tokenFor(t, "test-advertiser-1", models.RoleAdvertiser)
	adminToken := tokenFor(t, "test-admin-1", models.RoleAdmin)

	tests := []struct {
		name       string
		method     string
		path       string
		token      string
		wantStatus int
	}{
		{"health", http.MethodGet, "/health", "", http.StatusOK},
		{"admin without token", http.MethodGet, "/api/admin/refund-requests", "", http.StatusUnauthorized},
		{"admin as tenant", http.MethodGet, "/api/admin/refund-requests", tenant, http.StatusForbidden},
		{"admin as admin", http.MethodGet, "/api/admin/refund-requests", adminToken, http.StatusOK},
		{"payouts as tenant", http.MethodGet, "/api/advertiser/payout-methods", tenant, http.StatusForbidden},
		{"payouts as advertiser", http.MethodGet, "/api/advertiser/payout-methods", advertiserToken, http.StatusOK},
		{"payouts as admin", http.MethodGet, "/api/advertiser/payout-methods", adminToken, http.StatusOK},
		{"my requests", http.MethodGet, "/api/requests", tenant, http.StatusOK},
		{"oauth disabled", http.MethodGet, "/api/auth/oauth/google", "", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != tt.wantStatus {
				t.Errorf("expected %d, got %d: %s", tt.wantStatus, w.Code, w.Body.String())
			}
		})
	}
}
