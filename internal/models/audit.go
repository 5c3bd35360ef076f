package models

import "time"

// AuditLog représente un log d'audit pour tracer les actions
type AuditLog struct {
	ID         string    `json:"id"`
	UserID     string    `json:"userId"`
	UserEmail  string    `json:"userEmail"`
	Action     string    `json:"action"`
	Resource   string    `json:"resource"`
	ResourceID string    `json:"resourceId,omitempty"`
	OldValue   string    `json:"oldValue,omitempty"`
	NewValue   string    `json:"newValue,omitempty"`
	IPAddress  string    `json:"ipAddress"`
	UserAgent  string    `json:"userAgent"`
	Success    bool      `json:"success"`
	ErrorMsg   string    `json:"errorMsg,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}
