package services

import (
	"context"
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"kaari_back_end/internal/database"
	"kaari_back_end/internal/models"
	"kaari_back_end/internal/repository"
)

type CancellationParams struct {
	ReservationID  string `json:"reservationId"`
	Reason         string `json:"reason"`
	RequestDetails string `json:"requestDetails"`
}

type RefundParams struct {
	ReservationID string   `json:"reservationId"`
	PropertyID    string   `json:"propertyId"`
	Amount        *float64 `json:"amount"`
	Reason        string   `json:"reason"`
}

// RequestService reçoit les demandes d'annulation et de remboursement des locataires
type RequestService struct {
	repo    *repository.Repository
	store   database.DocumentStore
	indexer Indexer
	now     func() time.Time
}

func NewRequestService(repo *repository.Repository, indexer Indexer) *RequestService {
	return &RequestService{repo: repo, store: repo.Store(), indexer: indexer, now: time.Now}
}

// CreateCancellationRequest ouvre une demande d'annulation et passe la
// réservation en cancellationUnderReview dans le même lot.
func (s *RequestService) CreateCancellationRequest(ctx context.Context, actor models.Actor, p CancellationParams) (*models.CancellationRequest, error) {
	if strings.TrimSpace(p.Reason) == "" {
		return nil, validationError("reason requis")
	}
	res, err := s.ownedReservation(ctx, actor, p.ReservationID)
	if err != nil {
		return nil, err
	}
	switch res.Status {
	case models.ReservationCancellationUnderReview, models.ReservationRefundProcessing,
		models.ReservationRefundComplete, models.ReservationCancelled:
		return nil, fmt.Errorf("%w: reservation %s is %s", ErrAlreadyProcessed, res.ID, res.Status)
	}

	now := s.now()
	original, ok := repository.Number(res.Data["totalPrice"])
	if !ok {
		original, _ = repository.Number(res.Data["price"])
	}
	serviceFee, _ := repository.Number(res.Data["serviceFee"])

	c := models.CancellationRequest{
		ID:              uuid.NewString(),
		UserID:          actor.ID,
		UserName:        s.repo.Names().UserName(ctx, actor.ID),
		PropertyID:      res.PropertyID,
		ReservationID:   res.ID,
		OriginalAmount:  original,
		ServiceFee:      serviceFee,
		CancellationFee: serviceFee,
		RefundAmount:    original - serviceFee,
		DaysToMoveIn:    daysUntil(res.Data, now),
		Status:          models.StatusPending,
		Reason:          strings.TrimSpace(p.Reason),
		RequestDetails:  strings.TrimSpace(p.RequestDetails),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	c.PropertyTitle, _ = s.repo.Names().PropertyTitle(ctx, c.PropertyID)

	statusWrite := repository.ReservationStatusWrite(res, models.ReservationCancellationUnderReview, actor.ID, now)
	if err := s.store.Commit(ctx, []database.Write{
		database.CreateOp(repository.CollectionCancellationRequests, c.ID, cancellationData(c)),
		unchangedStatus(statusWrite, res.Status),
	}); err != nil {
		return nil, transitionError("Failed to create cancellation request", c.ID, mapPrecondition(err))
	}
	log.Printf("✅ Demande d'annulation %s créée pour la réservation %s", c.ID, res.ID)

	if s.indexer != nil {
		s.indexer.IndexCancellation(ctx, c)
	}
	return &c, nil
}

// CreateRefundRequest enregistre une demande de remboursement avec un montant canonique
func (s *RequestService) CreateRefundRequest(ctx context.Context, actor models.Actor, p RefundParams) (*models.RefundRequest, error) {
	if strings.TrimSpace(p.Reason) == "" {
		return nil, validationError("reason requis")
	}
	if p.Amount != nil && (*p.Amount < 0 || math.IsNaN(*p.Amount) || math.IsInf(*p.Amount, 0)) {
		return nil, validationError("amount doit être positif")
	}

	now := s.now()
	r := models.RefundRequest{
		ID:          uuid.NewString(),
		UserID:      actor.ID,
		UserName:    s.repo.Names().UserName(ctx, actor.ID),
		PropertyID:  p.PropertyID,
		Status:      models.StatusPending,
		Reason:      strings.TrimSpace(p.Reason),
		RequestDate: now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	amountSource := map[string]interface{}{}
	if p.Amount != nil {
		amountSource["amount"] = *p.Amount
	}
	if p.ReservationID != "" {
		res, err := s.ownedReservation(ctx, actor, p.ReservationID)
		if err != nil {
			return nil, err
		}
		r.ReservationID = res.ID
		r.PropertyID = res.PropertyID
		if v, ok := repository.Number(res.Data["totalPrice"]); ok {
			amountSource["originalAmount"] = v
		}
	}
	if r.PropertyID == "" {
		return nil, validationError("reservationId ou propertyId requis")
	}
	r.Amount = repository.ResolveRefundAmount(amountSource)
	r.PropertyTitle, _ = s.repo.Names().PropertyTitle(ctx, r.PropertyID)

	if err := s.store.Commit(ctx, []database.Write{
		database.CreateOp(repository.CollectionRefundRequests, r.ID, refundRequestData(r)),
	}); err != nil {
		return nil, fmt.Errorf("Failed to create refund request: %w", err)
	}
	log.Printf("✅ Demande de remboursement %s créée (%.2f)", r.ID, r.Amount)

	if s.indexer != nil {
		s.indexer.IndexRefund(ctx, r)
	}
	return &r, nil
}

// ListMine retourne les demandes de l'acteur
func (s *RequestService) ListMine(ctx context.Context, actor models.Actor) ([]models.RefundRequest, []models.CancellationRequest, error) {
	refunds, cancellations, err := s.repo.ListUserRequests(ctx, actor.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("Failed to list requests: %w", err)
	}
	return refunds, cancellations, nil
}

func (s *RequestService) ownedReservation(ctx context.Context, actor models.Actor, id string) (*models.Reservation, error) {
	if id == "" {
		return nil, validationError("reservationId requis")
	}
	res, found, err := s.repo.FindReservation(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("Failed to load reservation: %w", err)
	}
	if !found {
		return nil, fmt.Errorf("%w: reservation %s", ErrNotFound, id)
	}
	if res.UserID != actor.ID {
		return nil, fmt.Errorf("%w: reservation %s", ErrUnauthorized, id)
	}
	return res, nil
}

// daysUntil compte les jours restants avant l'emménagement (0 si passé ou inconnu)
func daysUntil(data map[string]interface{}, now time.Time) int {
	for _, field := range []string{"scheduledDate", "moveInDate"} {
		if t, ok := repository.ParseTime(data[field]); ok {
			days := int(math.Ceil(t.Sub(now).Hours() / 24))
			if days < 0 {
				return 0
			}
			return days
		}
	}
	return 0
}

// unchangedStatus exige que le statut lu soit toujours en place ; une
// réservation historique sans statut doit le rester.
func unchangedStatus(w database.Write, status models.ReservationStatus) database.Write {
	if status == "" {
		return w.IfAbsentOr("status", "")
	}
	return w.If("status", status)
}

func mapPrecondition(err error) error {
	if err != nil && isPrecondition(err) {
		return fmt.Errorf("%w: %v", ErrAlreadyProcessed, err)
	}
	return err
}

func cancellationData(c models.CancellationRequest) map[string]interface{} {
	return map[string]interface{}{
		"userId":          c.UserID,
		"userName":        c.UserName,
		"propertyId":      c.PropertyID,
		"propertyTitle":   c.PropertyTitle,
		"reservationId":   c.ReservationID,
		"originalAmount":  c.OriginalAmount,
		"serviceFee":      c.ServiceFee,
		"cancellationFee": c.CancellationFee,
		"refundAmount":    c.RefundAmount,
		"daysToMoveIn":    c.DaysToMoveIn,
		"status":          c.Status,
		"reason":          c.Reason,
		"requestDetails":  c.RequestDetails,
		"adminReviewed":   false,
		"createdAt":       c.CreatedAt,
		"updatedAt":       c.UpdatedAt,
	}
}
