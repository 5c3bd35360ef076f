package user

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/markbates/goth"

	"kaari_back_end/internal/cache"
	"kaari_back_end/internal/database"
	"kaari_back_end/internal/middleware"
	"kaari_back_end/internal/models"
	"kaari_back_end/internal/repository"
	"kaari_back_end/internal/services"
	"kaari_back_end/internal/utils"
)

const testSecret = "test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()
	store, err := database.NewBoltStore(filepath.Join(t.TempDir(), "user.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	if _, err := services.NewTestDataService(store).Seed(context.Background(), nil); err != nil {
		t.Fatalf("seed: %v", err)
	}

	c := cache.New(nil)
	auditor := utils.NewAuditor(store)
	t.Cleanup(auditor.Wait)
	auth := NewAuthHandler(store, c, testSecret, auditor)
	requests := NewRequestHandler(services.NewRequestService(repository.New(store, c), nil))

	r := gin.New()
	r.POST("/auth/register", auth.Register)
	r.POST("/auth/login", auth.Login)

	protected := r.Group("/")
	protected.Use(middleware.NewAuth(testSecret, c).Required())
	protected.POST("/auth/logout", auth.Logout)
	protected.GET("/auth/me", auth.Me)
	protected.GET("/requests", requests.ListMine)
	protected.POST("/cancellation-requests", requests.CreateCancellationRequest)
	protected.POST("/refund-requests", requests.CreateRefundRequest)
	return r
}

func serve(r *gin.Engine, method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON body %q: %v", w.Body.String(), err)
	}
	return body
}

// tenantToken forge un token pour le locataire des fixtures
func tenantToken(t *testing.T) string {
	t.Helper()
	token, _, err := utils.GenerateJWT(modelsTenant(), testSecret)
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}
	return token
}

func TestRegisterAndLogin(t *testing.T) {
	r := setupRouter(t)

	body := `{"name":"Amine","email":"Amine@Kaari.ma","password":"motdepasse123"}`
	w := serve(r, http.MethodPost, "/auth/register", "", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	token, _ := decode(t, w)["token"].(string)
	if token == "" {
		t.Fatal("register: expected a token")
	}

	if w := serve(r, http.MethodPost, "/auth/register", "", body); w.Code != http.StatusConflict {
		t.Errorf("duplicate register: expected 409, got %d", w.Code)
	}

	w = serve(r, http.MethodGet, "/auth/me", token, "")
	if w.Code != http.StatusOK {
		t.Fatalf("me: expected 200, got %d", w.Code)
	}
	me := decode(t, w)
	if me["email"] != "amine@kaari.ma" || me["role"] != "user" {
		t.Errorf("unexpected profile: %v", me)
	}
	if _, leaked := me["password"]; leaked {
		t.Error("password hash must not be serialized")
	}

	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{"valid", `{"email":"amine@kaari.ma","password":"motdepasse123"}`, http.StatusOK},
		{"wrong password", `{"email":"amine@kaari.ma","password":"mauvais"}`, http.StatusUnauthorized},
		{"unknown email", `{"email":"nobody@kaari.ma","password":"motdepasse123"}`, http.StatusUnauthorized},
		{"missing fields", `{}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if w := serve(r, http.MethodPost, "/auth/login", "", tt.body); w.Code != tt.wantStatus {
				t.Errorf("expected %d, got %d: %s", tt.wantStatus, w.Code, w.Body.String())
			}
		})
	}
}

func TestRegisterRejectsAdminRole(t *testing.T) {
	r := setupRouter(t)

	body := `{"name":"Eve","email":"eve@kaari.ma","password":"motdepasse123","role":"admin"}`
	if w := serve(r, http.MethodPost, "/auth/register", "", body); w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestLogoutWithoutRedis(t *testing.T) {
	r := setupRouter(t)

	w := serve(r, http.MethodPost, "/auth/logout", tenantToken(t), "")
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 when the blacklist is unavailable, got %d", w.Code)
	}
}

func TestCreateCancellationRequest(t *testing.T) {
	r := setupRouter(t)
	token := tenantToken(t)

	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{"legacy reservation", `{"reservationId":"test-reservation-legacy-1","reason":"Changement de ville"}`, http.StatusCreated},
		{"already under review", `{"reservationId":"test-reservation-1","reason":"Changement de ville"}`, http.StatusConflict},
		{"missing reason", `{"reservationId":"test-reservation-legacy-1"}`, http.StatusBadRequest},
		{"unknown reservation", `{"reservationId":"missing","reason":"x"}`, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(r, http.MethodPost, "/cancellation-requests", token, tt.body)
			if w.Code != tt.wantStatus {
				t.Errorf("expected %d, got %d: %s", tt.wantStatus, w.Code, w.Body.String())
			}
		})
	}

	w := serve(r, http.MethodGet, "/requests", token, "")
	if w.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", w.Code)
	}
	body := decode(t, w)
	if got := len(body["cancellationRequests"].([]interface{})); got != 2 {
		t.Errorf("expected 2 cancellation requests, got %d", got)
	}
	if got := len(body["refundRequests"].([]interface{})); got != 1 {
		t.Errorf("expected 1 refund request, got %d", got)
	}
}

func TestCreateRefundRequestForeignReservation(t *testing.T) {
	r := setupRouter(t)

	other, _, err := utils.GenerateJWT(modelsAdvertiser(), testSecret)
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}
	body := `{"reservationId":"test-reservation-1","amount":100,"reason":"Dégât des eaux"}`
	if w := serve(r, http.MethodPost, "/refund-requests", other, body); w.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d: %s", w.Code, w.Body.String())
	}
	if w := serve(r, http.MethodPost, "/refund-requests", "", body); w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without token, got %d", w.Code)
	}
}

func modelsTenant() models.User {
	return models.User{ID: "test-tenant-1", Email: "salma.test@kaari.ma", Role: models.RoleUser}
}

func modelsAdvertiser() models.User {
	return models.User{ID: "test-advertiser-1", Email: "youssef.test@kaari.ma", Role: models.RoleAdvertiser}
}

func TestOAuthFillsMissingNameAndRefreshesDisplayName(t *testing.T) {
	store, err := database.NewBoltStore(filepath.Join(t.TempDir(), "oauth.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	ctx := context.Background()
	if err := store.Set(ctx, repository.CollectionUsers, "u9", map[string]interface{}{"email": "karim@kaari.ma", "role": "user"}); err != nil {
		t.Fatal(err)
	}

	c := cache.New(nil)
	auditor := utils.NewAuditor(store)
	t.Cleanup(auditor.Wait)
	auth := NewAuthHandler(store, c, testSecret, auditor)
	names := repository.NewNameResolver(store, c)

	if got := names.UserName(ctx, "u9"); got != "karim@kaari.ma" {
		t.Fatalf("display name before OAuth = %q", got)
	}

	gc, _ := gin.CreateTestContext(httptest.NewRecorder())
	gc.Request = httptest.NewRequest(http.MethodGet, "/auth/google/callback", nil)
	u, err := auth.upsertOAuthUser(gc, goth.User{Email: "Karim@Kaari.ma", Name: "Karim Benali", Provider: "google", UserID: "g-1"})
	if err != nil {
		t.Fatalf("upsertOAuthUser: %v", err)
	}
	if u.ID != "u9" || u.Name != "Karim Benali" {
		t.Errorf("user = %+v", u)
	}
	if got := names.UserName(ctx, "u9"); got != "Karim Benali" {
		t.Errorf("display name after OAuth = %q", got)
	}

	u, err = auth.upsertOAuthUser(gc, goth.User{Email: "karim@kaari.ma", Name: "Autre Nom", Provider: "google", UserID: "g-1"})
	if err != nil || u.Name != "Karim Benali" {
		t.Errorf("existing name must be kept: %+v, %v", u, err)
	}
}
