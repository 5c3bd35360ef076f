package advertiser

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"kaari_back_end/internal/handlers"
	"kaari_back_end/internal/middleware"
	"kaari_back_end/internal/services"
)

// PayoutHandler expose la gestion des moyens de versement
type PayoutHandler struct {
	payouts *services.PayoutService
}

func NewPayoutHandler(payouts *services.PayoutService) *PayoutHandler {
	return &PayoutHandler{payouts: payouts}
}

func (h *PayoutHandler) List(c *gin.Context) {
	methods, err := h.payouts.List(c.Request.Context(), middleware.ActorFrom(c))
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payoutMethods": methods, "total": len(methods)})
}

// Add crée un moyen de versement ; le premier devient celui par défaut
func (h *PayoutHandler) Add(c *gin.Context) {
	var req services.PayoutParams
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides", "details": err.Error()})
		return
	}

	method, err := h.payouts.Add(c.Request.Context(), middleware.ActorFrom(c), req)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Moyen de versement ajouté", "payoutMethod": method})
}

func (h *PayoutHandler) Update(c *gin.Context) {
	var req services.PayoutParams
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides", "details": err.Error()})
		return
	}

	method, err := h.payouts.Update(c.Request.Context(), middleware.ActorFrom(c), c.Param("id"), req)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Moyen de versement mis à jour", "payoutMethod": method})
}

func (h *PayoutHandler) SetDefault(c *gin.Context) {
	method, err := h.payouts.SetDefault(c.Request.Context(), middleware.ActorFrom(c), c.Param("id"))
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Moyen de versement par défaut modifié", "payoutMethod": method})
}

func (h *PayoutHandler) Delete(c *gin.Context) {
	if err := h.payouts.Delete(c.Request.Context(), middleware.ActorFrom(c), c.Param("id")); err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Moyen de versement supprimé"})
}
