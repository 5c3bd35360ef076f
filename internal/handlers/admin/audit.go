package admin

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"kaari_back_end/internal/database"
	"kaari_back_end/internal/handlers"
	"kaari_back_end/internal/repository"
)

// GetAuditLogs récupère les logs d'audit avec filtres
func (h *Handler) GetAuditLogs(c *gin.Context) {
	userID := c.Query("user_id")
	action := c.Query("action")
	resource := c.Query("resource")
	success := c.Query("success")

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if limit <= 0 || limit > 500 {
		limit = 500
	}

	opts := []database.QueryOption{}
	if userID != "" {
		opts = append(opts, database.Where("userId", "==", userID))
	}
	if action != "" {
		opts = append(opts, database.Where("action", "==", action))
	}
	if resource != "" {
		opts = append(opts, database.Where("resource", "==", resource))
	}
	if success != "" {
		successBool, err := strconv.ParseBool(success)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Paramètre success invalide"})
			return
		}
		opts = append(opts, database.Where("success", "==", successBool))
	}
	opts = append(opts, database.OrderBy("timestamp", true), database.Limit(limit))

	docs, err := h.repo.Store().Query(c.Request.Context(), repository.CollectionAuditLogs, opts...)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}

	logs := make([]gin.H, 0, len(docs))
	for _, doc := range docs {
		entry := gin.H{"id": doc.ID}
		for k, v := range doc.Data {
			entry[k] = v
		}
		logs = append(logs, entry)
	}

	c.JSON(http.StatusOK, gin.H{
		"logs":  logs,
		"total": len(logs),
		"filters": gin.H{
			"user_id":  userID,
			"action":   action,
			"resource": resource,
			"success":  success,
			"limit":    limit,
		},
	})
}
