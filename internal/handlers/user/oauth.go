package user

import (
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/markbates/goth"
	"github.com/markbates/goth/gothic"

	"kaari_back_end/internal/database"
	"kaari_back_end/internal/models"
	"kaari_back_end/internal/repository"
)

// withProvider expose le provider de la route à gothic.GetProviderName
func withProvider(c *gin.Context) bool {
	provider := c.Param("provider")
	if provider == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "aucun provider spécifié"})
		return false
	}
	q := c.Request.URL.Query()
	q.Set("provider", provider)
	c.Request.URL.RawQuery = q.Encode()
	return true
}

func (h *AuthHandler) BeginOAuth(c *gin.Context) {
	if !withProvider(c) {
		return
	}
	gothic.BeginAuthHandler(c.Writer, c.Request)
}

// OAuthCallback crée ou met à jour l'utilisateur puis renvoie un JWT
func (h *AuthHandler) OAuthCallback(c *gin.Context) {
	if !withProvider(c) {
		return
	}

	gothUser, err := gothic.CompleteUserAuth(c.Writer, c.Request)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.upsertOAuthUser(c, gothUser)
	if err != nil {
		log.Printf("❌ Erreur enregistrement utilisateur OAuth: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur création utilisateur"})
		return
	}
	h.respondWithToken(c, http.StatusOK, *user)
}

func (h *AuthHandler) upsertOAuthUser(c *gin.Context, gu goth.User) (*models.User, error) {
	ctx := c.Request.Context()
	email := strings.ToLower(strings.TrimSpace(gu.Email))
	if email == "" {
		return nil, errors.New("email absent du profil OAuth")
	}

	existing, err := h.findByEmail(ctx, email)
	if err != nil && !errors.Is(err, database.ErrNotFound) {
		return nil, err
	}

	if existing != nil {
		existing.Provider = gu.Provider
		existing.ProviderID = gu.UserID
		existing.EmailVerified = true
		renamed := existing.Name == "" && gu.Name != ""
		if renamed {
			existing.Name = gu.Name
		}
		if err := h.store.Update(ctx, repository.CollectionUsers, existing.ID, map[string]interface{}{
			"provider":      existing.Provider,
			"providerId":    existing.ProviderID,
			"emailVerified": true,
			"name":          existing.Name,
		}); err != nil {
			return nil, err
		}
		if renamed {
			// le nom affiché en cache était le repli sur l'email
			h.cache.InvalidateName(ctx, "user", existing.ID)
		}
		return existing, nil
	}

	user := models.User{
		ID:            uuid.NewString(),
		Name:          gu.Name,
		Email:         email,
		Role:          models.RoleUser,
		Provider:      gu.Provider,
		ProviderID:    gu.UserID,
		EmailVerified: true,
		CreatedAt:     time.Now(),
	}
	if err := h.store.Set(ctx, repository.CollectionUsers, user.ID, userData(user)); err != nil {
		return nil, err
	}
	log.Printf("✅ Nouvel utilisateur OAuth %s (%s)", user.Email, user.Provider)
	return &user, nil
}
