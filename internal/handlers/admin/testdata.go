package admin

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"kaari_back_end/internal/handlers"
)

const maxFixtureSize = 1 << 20

// SeedTestData charge les fixtures envoyées en YAML, ou le jeu par défaut si le corps est vide
func (h *Handler) SeedTestData(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxFixtureSize))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Corps de requête illisible"})
		return
	}

	counts, err := h.testdata.Seed(c.Request.Context(), body)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Données de test chargées", "counts": counts})
}

// CleanupTestData supprime tous les documents marqués isTestData
func (h *Handler) CleanupTestData(c *gin.Context) {
	counts, err := h.testdata.Cleanup(c.Request.Context())
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Données de test supprimées", "counts": counts})
}
