package middleware

import (
	"github.com/gin-gonic/gin"

	"kaari_back_end/internal/utils"
)

// AuditCriticalActions middleware pour auditer toutes les actions critiques
func AuditCriticalActions(auditor *utils.Auditor, action, resource string) gin.HandlerFunc {
	return func(c *gin.Context) {
		resourceID := c.Param("id")

		c.Next()

		// Auditer après traitement
		if c.Writer.Status() >= 200 && c.Writer.Status() < 300 {
			auditor.LogAction(c, action, resource, resourceID, nil, nil)
		} else {
			auditor.LogFailedAction(c, action, resource, resourceID, c.Errors.String())
		}
	}
}
