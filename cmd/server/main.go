package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"kaari_back_end/internal/cache"
	"kaari_back_end/internal/config"
	"kaari_back_end/internal/database"
	"kaari_back_end/internal/handlers"
	"kaari_back_end/internal/handlers/admin"
	"kaari_back_end/internal/handlers/advertiser"
	"kaari_back_end/internal/handlers/user"
	"kaari_back_end/internal/middleware"
	"kaari_back_end/internal/repository"
	"kaari_back_end/internal/routes"
	"kaari_back_end/internal/services"
	"kaari_back_end/internal/utils"
)

func main() {
	cfg := config.Load()
	if cfg.JWTSecret == "" {
		log.Fatal("❌ JWT_SECRET manquant")
	}

	if err := database.ConnectDatabases(cfg); err != nil {
		log.Fatalf("❌ Connexion au store impossible: %v", err)
	}
	defer database.CloseDatabases()

	redisCache := cache.New(database.Redis)
	repo := repository.New(database.Store, redisCache)

	var mailer services.EmailSender
	if m := utils.NewMailer(cfg); m != nil {
		mailer = m
	} else {
		log.Println("⚠️ SMTP non configuré, notifications sans email")
	}
	notifier := services.NewDispatcher(database.Store, mailer, cfg.FrontendOrigin)

	search := services.NewSearchService(database.Elastic, cfg.ElasticIndex)
	approval := services.NewApprovalService(repo, notifier, search)
	storage := services.NewStorageService(database.MinIO, cfg.MinioBucket)
	auditor := utils.NewAuditor(database.Store)

	deps := routes.Deps{
		FrontendOrigin:   cfg.FrontendOrigin,
		OAuthEnabled:     config.InitOAuthProviders(cfg),
		Auth:             middleware.NewAuth(cfg.JWTSecret, redisCache),
		RateLimiter:      middleware.NewRateLimiter(redisCache),
		Auditor:          auditor,
		AuthHandler:      user.NewAuthHandler(database.Store, redisCache, cfg.JWTSecret, auditor),
		RequestHandler:   user.NewRequestHandler(services.NewRequestService(repo, search)),
		PayoutHandler:    advertiser.NewPayoutHandler(services.NewPayoutService(repo)),
		AdminHandler:     admin.NewHandler(repo, approval, search, services.NewTestDataService(database.Store), auditor),
		StorageHandler:   handlers.NewStorageHandler(storage),
		FunctionsHandler: handlers.NewFunctionsHandler(storage),
	}

	r := gin.Default()
	routes.RegisterRoutes(r, deps)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Println("🚀 Serveur Kaari lancé sur le port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("❌ Serveur arrêté: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("🛑 Arrêt du serveur...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("⚠️ Arrêt forcé: %v", err)
	}

	// Les notifications et écritures d'audit en cours doivent finir avant la fermeture du store
	approval.Wait()
	auditor.Wait()
	log.Println("✅ Serveur arrêté proprement")
}
