package utils

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"kaari_back_end/internal/database"
	"kaari_back_end/internal/models"
)

const auditCollection = "auditLogs"

// Auditor enregistre les actions sensibles dans la collection auditLogs
type Auditor struct {
	store database.DocumentStore
	wg    sync.WaitGroup
}

func NewAuditor(store database.DocumentStore) *Auditor {
	return &Auditor{store: store}
}

// LogAction enregistre une action dans les logs d'audit
func (a *Auditor) LogAction(c *gin.Context, action, resource, resourceID string, oldValue, newValue interface{}) {
	a.record(auditEntry(c, action, resource, resourceID, oldValue, newValue, true, ""))
}

// LogFailedAction enregistre une action échouée dans les logs d'audit
func (a *Auditor) LogFailedAction(c *gin.Context, action, resource, resourceID, errorMsg string) {
	a.record(auditEntry(c, action, resource, resourceID, nil, nil, false, errorMsg))
}

// Wait attend la fin des écritures en cours
func (a *Auditor) Wait() {
	if a != nil {
		a.wg.Wait()
	}
}

func (a *Auditor) record(entry models.AuditLog) {
	if a == nil || a.store == nil {
		return
	}
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := a.store.Set(ctx, auditCollection, entry.ID, auditData(entry)); err != nil {
			log.Printf("❌ Erreur enregistrement log audit: %v", err)
		}
	}()
}

// auditEntry lit le contexte gin avant que la requête ne se termine
func auditEntry(c *gin.Context, action, resource, resourceID string, oldValue, newValue interface{}, success bool, errorMsg string) models.AuditLog {
	return models.AuditLog{
		ID:         uuid.NewString(),
		UserID:     c.GetString("user_id"),
		UserEmail:  c.GetString("email"),
		Action:     action,
		Resource:   resource,
		ResourceID: resourceID,
		OldValue:   toJSONString(oldValue),
		NewValue:   toJSONString(newValue),
		IPAddress:  c.ClientIP(),
		UserAgent:  c.GetHeader("User-Agent"),
		Success:    success,
		ErrorMsg:   errorMsg,
		Timestamp:  time.Now(),
	}
}

func auditData(l models.AuditLog) map[string]interface{} {
	return map[string]interface{}{
		"userId":     l.UserID,
		"userEmail":  l.UserEmail,
		"action":     l.Action,
		"resource":   l.Resource,
		"resourceId": l.ResourceID,
		"oldValue":   l.OldValue,
		"newValue":   l.NewValue,
		"ipAddress":  l.IPAddress,
		"userAgent":  l.UserAgent,
		"success":    l.Success,
		"errorMsg":   l.ErrorMsg,
		"timestamp":  l.Timestamp,
	}
}

func toJSONString(v interface{}) string {
	if v == nil {
		return ""
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

// Actions d'audit prédéfinies
const (
	ACTION_REFUND_APPROVE       = "refund.approve"
	ACTION_REFUND_REJECT        = "refund.reject"
	ACTION_CANCELLATION_APPROVE = "cancellation.approve"
	ACTION_CANCELLATION_REJECT  = "cancellation.reject"

	ACTION_PAYOUT_CREATE      = "payout.create"
	ACTION_PAYOUT_UPDATE      = "payout.update"
	ACTION_PAYOUT_DELETE      = "payout.delete"
	ACTION_PAYOUT_SET_DEFAULT = "payout.set_default"

	ACTION_TESTDATA_SEED    = "testdata.seed"
	ACTION_TESTDATA_CLEANUP = "testdata.cleanup"

	ACTION_LOGIN_SUCCESS = "auth.login_success"
	ACTION_LOGIN_FAILED  = "auth.login_failed"
	ACTION_LOGOUT        = "auth.logout"
)

// Resources d'audit
const (
	RESOURCE_REFUND_REQUEST       = "refund_request"
	RESOURCE_CANCELLATION_REQUEST = "cancellation_request"
	RESOURCE_PAYOUT_METHOD        = "payout_method"
	RESOURCE_TESTDATA             = "test_data"
	RESOURCE_AUTH                 = "auth"
)
