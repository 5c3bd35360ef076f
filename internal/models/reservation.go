package models

import "time"

// ReservationStatus couvre les états pilotés par les décisions d'annulation/remboursement
type ReservationStatus string

const (
	ReservationBooked                  ReservationStatus = "booked"
	ReservationActive                  ReservationStatus = "active"
	ReservationCancellationUnderReview ReservationStatus = "cancellationUnderReview"
	ReservationRefundProcessing        ReservationStatus = "refundProcessing"
	ReservationRefundComplete          ReservationStatus = "refundComplete"
	ReservationRefundFailed            ReservationStatus = "refundFailed"
	ReservationCancelled               ReservationStatus = "cancelled"
)

// Collections historiques des réservations, consultées dans cet ordre
const (
	CollectionLegacyReservations = "requests"
	CollectionReservations       = "reservations"
)

type StatusHistoryEntry struct {
	Status    ReservationStatus `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	UpdatedBy string            `json:"updatedBy"`
}

// Reservation est l'enregistrement de réservation tel que retrouvé par le locator
type Reservation struct {
	ID            string                 `json:"id"`
	Collection    string                 `json:"collection"`
	UserID        string                 `json:"userId"`
	PropertyID    string                 `json:"propertyId"`
	Status        ReservationStatus      `json:"status"`
	StatusHistory []StatusHistoryEntry   `json:"statusHistory"`
	Data          map[string]interface{} `json:"-"`
}
