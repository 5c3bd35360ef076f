package user

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"kaari_back_end/internal/cache"
	"kaari_back_end/internal/database"
	"kaari_back_end/internal/handlers"
	"kaari_back_end/internal/middleware"
	"kaari_back_end/internal/models"
	"kaari_back_end/internal/repository"
	"kaari_back_end/internal/utils"
)

const providerLocal = "local"

// AuthHandler gère l'inscription, la connexion et la déconnexion
type AuthHandler struct {
	store   database.DocumentStore
	cache   *cache.Client
	secret  string
	auditor *utils.Auditor
}

func NewAuthHandler(store database.DocumentStore, c *cache.Client, secret string, auditor *utils.Auditor) *AuthHandler {
	return &AuthHandler{store: store, cache: c, secret: secret, auditor: auditor}
}

// ================== AUTH LOCALE ==================

func (h *AuthHandler) Register(c *gin.Context) {
	var input struct {
		Name     string `json:"name" binding:"required"`
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required,min=8"`
		Role     string `json:"role"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	role := models.RoleUser
	switch input.Role {
	case "", models.RoleUser:
	case models.RoleAdvertiser:
		role = models.RoleAdvertiser
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Rôle invalide"})
		return
	}

	ctx := c.Request.Context()
	email := strings.ToLower(strings.TrimSpace(input.Email))

	// email déjà pris ?
	if _, err := h.findByEmail(ctx, email); err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Un compte avec cet email existe déjà"})
		return
	} else if !errors.Is(err, database.ErrNotFound) {
		handlers.RespondError(c, err)
		return
	}

	hashedPassword, err := utils.HashPassword(input.Password)
	if err != nil {
		log.Printf("❌ Erreur hash mot de passe: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur création utilisateur"})
		return
	}

	user := models.User{
		ID:        uuid.NewString(),
		Name:      input.Name,
		Email:     email,
		Password:  hashedPassword,
		Role:      role,
		Provider:  providerLocal,
		CreatedAt: time.Now(),
	}
	if err := h.store.Set(ctx, repository.CollectionUsers, user.ID, userData(user)); err != nil {
		log.Printf("❌ Erreur création utilisateur: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur création utilisateur"})
		return
	}

	h.respondWithToken(c, http.StatusCreated, user)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var input struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	email := strings.ToLower(strings.TrimSpace(input.Email))
	user, err := h.findByEmail(c.Request.Context(), email)
	if err != nil && !errors.Is(err, database.ErrNotFound) {
		handlers.RespondError(c, err)
		return
	}

	valid := false
	if user != nil && user.Provider == providerLocal && utils.IsArgon2Hash(user.Password) {
		valid, err = utils.VerifyPassword(input.Password, user.Password)
		if err != nil {
			log.Printf("⚠️ Vérification mot de passe: %v", err)
		}
	}
	if !valid {
		h.auditor.LogFailedAction(c, utils.ACTION_LOGIN_FAILED, utils.RESOURCE_AUTH, email, "identifiants invalides")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Email ou mot de passe incorrect"})
		return
	}

	h.respondWithToken(c, http.StatusOK, *user)
}

// Logout révoque le token courant jusqu'à son expiration
func (h *AuthHandler) Logout(c *gin.Context) {
	jti := c.GetString("jti")
	expiresAt := c.GetTime("token_exp")
	remaining := time.Until(expiresAt)
	if jti == "" || remaining <= 0 {
		c.JSON(http.StatusOK, gin.H{"message": "Déconnecté"})
		return
	}

	if err := h.cache.BlacklistToken(c.Request.Context(), jti, remaining); err != nil {
		log.Printf("⚠️ Révocation du token impossible: %v", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Révocation du token indisponible"})
		return
	}
	h.auditor.LogAction(c, utils.ACTION_LOGOUT, utils.RESOURCE_AUTH, c.GetString("user_id"), nil, nil)
	c.JSON(http.StatusOK, gin.H{"message": "Déconnecté"})
}

// Me retourne le profil de l'utilisateur connecté
func (h *AuthHandler) Me(c *gin.Context) {
	actor := middleware.ActorFrom(c)
	doc, err := h.store.Get(c.Request.Context(), repository.CollectionUsers, actor.ID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Utilisateur introuvable"})
			return
		}
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, userFromDoc(*doc))
}

func (h *AuthHandler) respondWithToken(c *gin.Context, status int, user models.User) {
	token, claims, err := utils.GenerateJWT(user, h.secret)
	if err != nil {
		log.Printf("❌ Erreur génération JWT: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur génération du token"})
		return
	}
	c.Set("user_id", user.ID)
	c.Set("email", user.Email)
	h.auditor.LogAction(c, utils.ACTION_LOGIN_SUCCESS, utils.RESOURCE_AUTH, user.ID, nil, nil)

	c.JSON(status, gin.H{
		"token":     token,
		"expiresAt": claims.ExpiresAt.Time,
		"user":      user,
	})
}

func (h *AuthHandler) findByEmail(ctx context.Context, email string) (*models.User, error) {
	docs, err := h.store.Query(ctx, repository.CollectionUsers, database.Where("email", "==", email), database.Limit(1))
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, database.ErrNotFound
	}
	u := userFromDoc(docs[0])
	return &u, nil
}

func userFromDoc(doc database.Document) models.User {
	str := func(k string) string {
		s, _ := doc.Data[k].(string)
		return s
	}
	verified, _ := doc.Data["emailVerified"].(bool)
	created, _ := repository.ParseTime(doc.Data["createdAt"])
	return models.User{
		ID:            doc.ID,
		Name:          str("name"),
		Email:         str("email"),
		Password:      str("password"),
		Role:          str("role"),
		Provider:      str("provider"),
		ProviderID:    str("providerId"),
		EmailVerified: verified,
		CreatedAt:     created,
	}
}

func userData(u models.User) map[string]interface{} {
	return map[string]interface{}{
		"name":          u.Name,
		"email":         u.Email,
		"password":      u.Password,
		"role":          u.Role,
		"provider":      u.Provider,
		"providerId":    u.ProviderID,
		"emailVerified": u.EmailVerified,
		"createdAt":     u.CreatedAt,
	}
}
