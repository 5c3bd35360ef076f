package models

import "time"

// RequestStatus est l'état d'une demande (remboursement ou annulation)
type RequestStatus string

const (
	StatusPending  RequestStatus = "pending"
	StatusApproved RequestStatus = "approved"
	StatusRejected RequestStatus = "rejected"
)

// Valid indique si le statut fait partie de l'énumération connue
func (s RequestStatus) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// RefundRequest est une demande de remboursement normalisée.
// Les champs hérités (requestedRefundAmount, reasonsText, ...) sont résolus
// au moment de la lecture, voir repository.NormalizeRefundRequest.
type RefundRequest struct {
	ID                    string        `json:"id"`
	UserID                string        `json:"userId"`
	UserName              string        `json:"userName"`
	PropertyID            string        `json:"propertyId"`
	PropertyTitle         string        `json:"propertyTitle"`
	ReservationID         string        `json:"reservationId,omitempty"`
	Amount                float64       `json:"amount"`
	Status                RequestStatus `json:"status"`
	Reason                string        `json:"reason"`
	RequestDate           time.Time     `json:"requestDate"`
	CreatedAt             time.Time     `json:"createdAt"`
	UpdatedAt             time.Time     `json:"updatedAt"`
	CancellationRequestID string        `json:"cancellationRequestId,omitempty"`
	AdminReviewed         bool          `json:"adminReviewed"`
	ApprovedBy            string        `json:"approvedBy,omitempty"`
	RejectedBy            string        `json:"rejectedBy,omitempty"`
}

// Refund est l'enregistrement de paiement immuable créé à l'approbation
type Refund struct {
	ID              string    `json:"id"`
	UserID          string    `json:"userId"`
	ReservationID   string    `json:"reservationId"`
	PropertyID      string    `json:"propertyId"`
	RefundRequestID string    `json:"refundRequestId"`
	Amount          float64   `json:"amount"`
	Reason          string    `json:"reason"`
	Status          string    `json:"status"` // completed
	ProcessedBy     string    `json:"processedBy"`
	CreatedAt       time.Time `json:"createdAt"`
}

const RefundCompleted = "completed"
