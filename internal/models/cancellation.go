package models

import "time"

// CancellationRequest est une demande d'annulation de réservation
type CancellationRequest struct {
	ID                    string        `json:"id"`
	UserID                string        `json:"userId"`
	UserName              string        `json:"userName"`
	PropertyID            string        `json:"propertyId"`
	PropertyTitle         string        `json:"propertyTitle"`
	ReservationID         string        `json:"reservationId"`
	OriginalAmount        float64       `json:"originalAmount"`
	ServiceFee            float64       `json:"serviceFee"`
	CancellationFee       float64       `json:"cancellationFee"`
	RequestedRefundAmount *float64      `json:"requestedRefundAmount,omitempty"`
	RefundAmount          float64       `json:"refundAmount"`
	DaysToMoveIn          int           `json:"daysToMoveIn"`
	Status                RequestStatus `json:"status"`
	Reason                string        `json:"reason"`
	RequestDetails        string        `json:"requestDetails,omitempty"`
	RefundStatus          string        `json:"refundStatus,omitempty"`
	AdminReviewed         bool          `json:"adminReviewed"`
	ApprovedBy            string        `json:"approvedBy,omitempty"`
	RejectedBy            string        `json:"rejectedBy,omitempty"`
	CreatedAt             time.Time     `json:"createdAt"`
	UpdatedAt             time.Time     `json:"updatedAt"`
}
