package admin

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"kaari_back_end/internal/handlers"
	"kaari_back_end/internal/middleware"
	"kaari_back_end/internal/models"
	"kaari_back_end/internal/repository"
	"kaari_back_end/internal/services"
	"kaari_back_end/internal/utils"
)

// Handler regroupe les routes d'administration
type Handler struct {
	repo     *repository.Repository
	approval *services.ApprovalService
	search   *services.SearchService
	testdata *services.TestDataService
	auditor  *utils.Auditor
}

func NewHandler(repo *repository.Repository, approval *services.ApprovalService, search *services.SearchService, testdata *services.TestDataService, auditor *utils.Auditor) *Handler {
	return &Handler{repo: repo, approval: approval, search: search, testdata: testdata, auditor: auditor}
}

// statusFilter lit ?status= ; ok vaut false si la valeur est inconnue
func statusFilter(c *gin.Context) (models.RequestStatus, bool) {
	raw := c.Query("status")
	if raw == "" {
		return "", true
	}
	s := models.RequestStatus(raw)
	return s, s.Valid()
}

// ListRefundRequests liste les demandes de remboursement, filtrées après normalisation
func (h *Handler) ListRefundRequests(c *gin.Context) {
	status, ok := statusFilter(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Statut invalide"})
		return
	}

	requests, err := h.repo.ListRefundRequests(c.Request.Context())
	if err != nil {
		handlers.RespondError(c, err)
		return
	}

	result := make([]models.RefundRequest, 0, len(requests))
	for _, r := range requests {
		if status == "" || r.Status == status {
			result = append(result, r)
		}
	}
	c.JSON(http.StatusOK, gin.H{"requests": result, "total": len(result)})
}

// ListCancellationRequests liste les demandes d'annulation, les plus récentes d'abord
func (h *Handler) ListCancellationRequests(c *gin.Context) {
	status, ok := statusFilter(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Statut invalide"})
		return
	}

	requests, err := h.repo.ListCancellationRequests(c.Request.Context())
	if err != nil {
		handlers.RespondError(c, err)
		return
	}

	result := make([]models.CancellationRequest, 0, len(requests))
	for _, r := range requests {
		if status == "" || r.Status == status {
			result = append(result, r)
		}
	}
	c.JSON(http.StatusOK, gin.H{"requests": result, "total": len(result)})
}

func (h *Handler) ApproveRefundRequest(c *gin.Context) {
	id := c.Param("id")
	req, err := h.approval.ApproveRefundRequest(c.Request.Context(), middleware.ActorFrom(c), id)
	if err != nil {
		h.fail(c, utils.ACTION_REFUND_APPROVE, utils.RESOURCE_REFUND_REQUEST, id, err)
		return
	}
	h.auditor.LogAction(c, utils.ACTION_REFUND_APPROVE, utils.RESOURCE_REFUND_REQUEST, id,
		gin.H{"status": models.StatusPending}, gin.H{"status": req.Status, "amount": req.Amount})
	c.JSON(http.StatusOK, gin.H{"message": "Demande de remboursement approuvée", "request": req})
}

func (h *Handler) RejectRefundRequest(c *gin.Context) {
	id := c.Param("id")
	req, err := h.approval.RejectRefundRequest(c.Request.Context(), middleware.ActorFrom(c), id)
	if err != nil {
		h.fail(c, utils.ACTION_REFUND_REJECT, utils.RESOURCE_REFUND_REQUEST, id, err)
		return
	}
	h.auditor.LogAction(c, utils.ACTION_REFUND_REJECT, utils.RESOURCE_REFUND_REQUEST, id,
		gin.H{"status": models.StatusPending}, gin.H{"status": req.Status})
	c.JSON(http.StatusOK, gin.H{"message": "Demande de remboursement rejetée", "request": req})
}

// ApproveCancellationRequest approuve l'annulation et renvoie la demande de
// remboursement générée
func (h *Handler) ApproveCancellationRequest(c *gin.Context) {
	id := c.Param("id")
	req, refund, err := h.approval.ApproveCancellationRequest(c.Request.Context(), middleware.ActorFrom(c), id)
	if err != nil {
		h.fail(c, utils.ACTION_CANCELLATION_APPROVE, utils.RESOURCE_CANCELLATION_REQUEST, id, err)
		return
	}
	h.auditor.LogAction(c, utils.ACTION_CANCELLATION_APPROVE, utils.RESOURCE_CANCELLATION_REQUEST, id,
		gin.H{"status": models.StatusPending}, gin.H{"status": req.Status, "refundRequestId": refund.ID})
	c.JSON(http.StatusOK, gin.H{
		"message":       "Demande d'annulation approuvée",
		"request":       req,
		"refundRequest": refund,
	})
}

func (h *Handler) RejectCancellationRequest(c *gin.Context) {
	id := c.Param("id")
	req, err := h.approval.RejectCancellationRequest(c.Request.Context(), middleware.ActorFrom(c), id)
	if err != nil {
		h.fail(c, utils.ACTION_CANCELLATION_REJECT, utils.RESOURCE_CANCELLATION_REQUEST, id, err)
		return
	}
	h.auditor.LogAction(c, utils.ACTION_CANCELLATION_REJECT, utils.RESOURCE_CANCELLATION_REQUEST, id,
		gin.H{"status": models.StatusPending}, gin.H{"status": req.Status})
	c.JSON(http.StatusOK, gin.H{"message": "Demande d'annulation rejetée", "request": req})
}

// SearchRequests interroge l'index Elasticsearch des demandes
func (h *Handler) SearchRequests(c *gin.Context) {
	q := c.Query("q")
	results, err := h.search.Search(c.Request.Context(), q, c.Query("type"))
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"query": q, "results": results, "total": len(results)})
}

func (h *Handler) fail(c *gin.Context, action, resource, id string, err error) {
	h.auditor.LogFailedAction(c, action, resource, id, err.Error())
	handlers.RespondError(c, err)
}
