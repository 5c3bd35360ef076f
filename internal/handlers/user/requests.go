package user

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"kaari_back_end/internal/handlers"
	"kaari_back_end/internal/middleware"
	"kaari_back_end/internal/services"
)

// RequestHandler permet aux locataires d'ouvrir et suivre leurs demandes
type RequestHandler struct {
	requests *services.RequestService
}

func NewRequestHandler(requests *services.RequestService) *RequestHandler {
	return &RequestHandler{requests: requests}
}

func (h *RequestHandler) CreateCancellationRequest(c *gin.Context) {
	var req services.CancellationParams
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides", "details": err.Error()})
		return
	}

	created, err := h.requests.CreateCancellationRequest(c.Request.Context(), middleware.ActorFrom(c), req)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Demande d'annulation envoyée", "request": created})
}

func (h *RequestHandler) CreateRefundRequest(c *gin.Context) {
	var req services.RefundParams
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides", "details": err.Error()})
		return
	}

	created, err := h.requests.CreateRefundRequest(c.Request.Context(), middleware.ActorFrom(c), req)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Demande de remboursement envoyée", "request": created})
}

// ListMine retourne les demandes de l'utilisateur connecté
func (h *RequestHandler) ListMine(c *gin.Context) {
	refunds, cancellations, err := h.requests.ListMine(c.Request.Context(), middleware.ActorFrom(c))
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"refundRequests":       refunds,
		"cancellationRequests": cancellations,
	})
}
