package middleware

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"kaari_back_end/internal/cache"
)

const (
	// Limites par endpoint
	LoginMaxAttempts    = 5
	RegisterMaxAttempts = 3
	APIMaxRequests      = 100 // Par minute pour les endpoints généraux

	// Durées des fenêtres
	LoginCooldown    = 15 * time.Minute
	RegisterCooldown = 30 * time.Minute
	APICooldown      = 1 * time.Minute
)

// RateLimiter limite les requêtes via des compteurs Redis. Sans Redis, tout passe.
type RateLimiter struct {
	cache *cache.Client
}

func NewRateLimiter(c *cache.Client) *RateLimiter {
	return &RateLimiter{cache: c}
}

// Login limite les tentatives de connexion échouées par email
func (r *RateLimiter) Login() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !r.cache.Enabled() {
			c.Next()
			return
		}
		bodyBytes, _ := io.ReadAll(c.Request.Body)
		// Remettre le body pour les handlers suivants
		c.Request.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))

		var input struct {
			Email string `json:"email"`
		}
		if err := json.Unmarshal(bodyBytes, &input); err != nil || input.Email == "" {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		key := "login_attempts:" + input.Email
		attempts, _ := r.cache.GetRateLimit(ctx, key)
		if attempts >= LoginMaxAttempts {
			ttl := r.cache.TTL(ctx, key)
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       fmt.Sprintf("Trop de tentatives échouées. Réessayez dans %d minutes", int(ttl.Minutes())+1),
				"retry_after": int(ttl.Seconds()),
			})
			c.Abort()
			return
		}

		c.Next()

		switch c.Writer.Status() {
		case http.StatusUnauthorized:
			if _, err := r.cache.IncrementRateLimit(ctx, key, LoginCooldown); err != nil {
				log.Printf("⚠️ Erreur compteur login: %v", err)
			}
		case http.StatusOK:
			r.cache.Delete(ctx, key)
		}
	}
}

// Register limite les inscriptions par IP
func (r *RateLimiter) Register() gin.HandlerFunc {
	return r.window("register_attempts:", RegisterMaxAttempts, RegisterCooldown, "Trop d'inscriptions. Réessayez plus tard")
}

// API limite le nombre de requêtes par IP et par minute
func (r *RateLimiter) API() gin.HandlerFunc {
	return r.window("api_requests:", APIMaxRequests, APICooldown, "Trop de requêtes")
}

func (r *RateLimiter) window(prefix string, max int64, window time.Duration, message string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !r.cache.Enabled() {
			c.Next()
			return
		}
		ctx := c.Request.Context()
		key := prefix + c.ClientIP()
		count, err := r.cache.IncrementRateLimit(ctx, key, window)
		if err != nil {
			log.Printf("⚠️ Erreur rate limit %s: %v", prefix, err)
			c.Next()
			return
		}
		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", max))
		if count > max {
			ttl := r.cache.TTL(ctx, key)
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       message,
				"retry_after": int(ttl.Seconds()),
			})
			c.Abort()
			return
		}
		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", max-count))
		c.Next()
	}
}
