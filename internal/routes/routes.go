package routes

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"kaari_back_end/internal/handlers"
	"kaari_back_end/internal/handlers/admin"
	"kaari_back_end/internal/handlers/advertiser"
	"kaari_back_end/internal/handlers/user"
	"kaari_back_end/internal/middleware"
	"kaari_back_end/internal/models"
	"kaari_back_end/internal/utils"
)

// Deps regroupe ce dont les routes ont besoin
type Deps struct {
	FrontendOrigin string
	OAuthEnabled   bool

	Auth        *middleware.Auth
	RateLimiter *middleware.RateLimiter
	Auditor     *utils.Auditor

	AuthHandler      *user.AuthHandler
	RequestHandler   *user.RequestHandler
	PayoutHandler    *advertiser.PayoutHandler
	AdminHandler     *admin.Handler
	StorageHandler   *handlers.StorageHandler
	FunctionsHandler *handlers.FunctionsHandler
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{d.FrontendOrigin},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")

	// Auth
	auth := api.Group("/auth")
	auth.POST("/register", d.RateLimiter.Register(), d.AuthHandler.Register)
	auth.POST("/login", d.RateLimiter.Login(), d.AuthHandler.Login)
	if d.OAuthEnabled {
		auth.GET("/oauth/:provider", d.AuthHandler.BeginOAuth)
		auth.GET("/oauth/:provider/callback", d.AuthHandler.OAuthCallback)
	}

	protected := api.Group("")
	protected.Use(d.Auth.Required(), d.RateLimiter.API())
	protected.POST("/auth/logout", d.AuthHandler.Logout)
	protected.GET("/auth/me", d.AuthHandler.Me)

	// Demandes du locataire
	protected.GET("/requests", d.RequestHandler.ListMine)
	protected.POST("/cancellation-requests", d.RequestHandler.CreateCancellationRequest)
	protected.POST("/refund-requests", d.RequestHandler.CreateRefundRequest)

	// Fichiers et fonctions serveur
	protected.POST("/storage/upload", d.StorageHandler.Upload)
	protected.DELETE("/storage", d.StorageHandler.Delete)
	protected.POST("/functions/:name", d.FunctionsHandler.Call)

	// Annonceur
	payouts := protected.Group("/advertiser/payout-methods")
	payouts.Use(middleware.RequireRole(models.RoleAdvertiser))
	payouts.GET("", d.PayoutHandler.List)
	payouts.POST("", middleware.AuditCriticalActions(d.Auditor, utils.ACTION_PAYOUT_CREATE, utils.RESOURCE_PAYOUT_METHOD), d.PayoutHandler.Add)
	payouts.PUT("/:id", middleware.AuditCriticalActions(d.Auditor, utils.ACTION_PAYOUT_UPDATE, utils.RESOURCE_PAYOUT_METHOD), d.PayoutHandler.Update)
	payouts.POST("/:id/default", middleware.AuditCriticalActions(d.Auditor, utils.ACTION_PAYOUT_SET_DEFAULT, utils.RESOURCE_PAYOUT_METHOD), d.PayoutHandler.SetDefault)
	payouts.DELETE("/:id", middleware.AuditCriticalActions(d.Auditor, utils.ACTION_PAYOUT_DELETE, utils.RESOURCE_PAYOUT_METHOD), d.PayoutHandler.Delete)

	// Admin
	adminGroup := protected.Group("/admin")
	adminGroup.Use(middleware.RequireAdmin)
	adminGroup.GET("/refund-requests", d.AdminHandler.ListRefundRequests)
	adminGroup.POST("/refund-requests/:id/approve", d.AdminHandler.ApproveRefundRequest)
	adminGroup.POST("/refund-requests/:id/reject", d.AdminHandler.RejectRefundRequest)
	adminGroup.GET("/cancellation-requests", d.AdminHandler.ListCancellationRequests)
	adminGroup.POST("/cancellation-requests/:id/approve", d.AdminHandler.ApproveCancellationRequest)
	adminGroup.POST("/cancellation-requests/:id/reject", d.AdminHandler.RejectCancellationRequest)
	adminGroup.GET("/requests/search", d.AdminHandler.SearchRequests)
	adminGroup.GET("/audit-logs", d.AdminHandler.GetAuditLogs)
	adminGroup.POST("/test-data/seed", middleware.AuditCriticalActions(d.Auditor, utils.ACTION_TESTDATA_SEED, utils.RESOURCE_TESTDATA), d.AdminHandler.SeedTestData)
	adminGroup.DELETE("/test-data", middleware.AuditCriticalActions(d.Auditor, utils.ACTION_TESTDATA_CLEANUP, utils.RESOURCE_TESTDATA), d.AdminHandler.CleanupTestData)
}
