package models

import "time"

const (
	NotifRefundApproved       = "refund_approved"
	NotifRefundRejected       = "refund_rejected"
	NotifCancellationApproved = "cancellation_approved"
	NotifCancellationRejected = "cancellation_rejected"
)

type Notification struct {
	ID        string                 `json:"id,omitempty"`
	UserID    string                 `json:"userId"`
	Type      string                 `json:"type"`
	Title     string                 `json:"title"`
	Message   string                 `json:"message"`
	Data      map[string]interface{} `json:"data,omitempty"`
	Read      bool                   `json:"read"`
	CreatedAt time.Time              `json:"createdAt"`
}
