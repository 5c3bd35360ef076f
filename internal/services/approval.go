package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"kaari_back_end/internal/database"
	"kaari_back_end/internal/models"
	"kaari_back_end/internal/repository"
)

const defaultReservationLabel = "your reservation"

// ApprovalService fait passer les demandes de pending à approved/rejected.
// La transition principale et ses écritures dépendantes partent dans un seul
// Commit ; notifications et indexation tournent en tâche de fond après coup.
type ApprovalService struct {
	repo     *repository.Repository
	store    database.DocumentStore
	notifier Notifier
	indexer  Indexer
	now      func() time.Time
	tasks    sync.WaitGroup
}

func NewApprovalService(repo *repository.Repository, notifier Notifier, indexer Indexer) *ApprovalService {
	return &ApprovalService{
		repo:     repo,
		store:    repo.Store(),
		notifier: notifier,
		indexer:  indexer,
		now:      time.Now,
	}
}

// Wait bloque jusqu'à la fin des notifications et indexations en cours
func (s *ApprovalService) Wait() {
	s.tasks.Wait()
}

// SpawnedRefundID est l'identifiant de la demande de remboursement créée à
// l'approbation d'une annulation ; il est stable pour une annulation donnée.
func SpawnedRefundID(cancellationID string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("kaari/cancellationRequests/"+cancellationID)).String()
}

// RefundRecordID est l'identifiant du paiement créé à l'approbation d'un remboursement
func RefundRecordID(refundRequestID string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("kaari/refundRequests/"+refundRequestID)).String()
}

// ApproveRefundRequest approuve une demande de remboursement en attente
func (s *ApprovalService) ApproveRefundRequest(ctx context.Context, actor models.Actor, id string) (*models.RefundRequest, error) {
	req, err := s.loadPendingRefund(ctx, id)
	if err != nil {
		return nil, err
	}
	now := s.now()

	primary := database.UpdateOp(repository.CollectionRefundRequests, id, map[string]interface{}{
		"status":        models.StatusApproved,
		"adminReviewed": true,
		"approvedBy":    actor.ID,
		"approvedAt":    now,
		"amount":        req.Amount,
		"updatedAt":     now,
	}).IfAbsentOr("status", models.StatusPending)

	var secondary []database.Write
	if req.ReservationID != "" {
		if w, ok := s.reservationWrite(ctx, req.ReservationID, models.ReservationRefundComplete, actor, now); ok {
			secondary = append(secondary, w)
		}
		secondary = append(secondary, database.CreateOp(repository.CollectionRefunds, RefundRecordID(id), map[string]interface{}{
			"userId":          req.UserID,
			"reservationId":   req.ReservationID,
			"propertyId":      req.PropertyID,
			"refundRequestId": id,
			"amount":          req.Amount,
			"reason":          req.Reason,
			"status":          models.RefundCompleted,
			"processedBy":     actor.ID,
			"createdAt":       now,
		}))
	}
	if w, ok := s.cancellationRefundStatusWrite(ctx, req.CancellationRequestID, models.RefundCompleted, now); ok {
		secondary = append(secondary, w)
	}

	if err := s.commitTransition(ctx, repository.CollectionRefundRequests, id, models.StatusApproved,
		[]database.Write{primary}, secondary); err != nil {
		return nil, transitionError("Failed to approve refund request", id, err)
	}
	log.Printf("✅ Remboursement %s approuvé par %s (%.2f)", id, actor.ID, req.Amount)

	req.Status = models.StatusApproved
	req.AdminReviewed = true
	req.ApprovedBy = actor.ID
	req.UpdatedAt = now

	approved := *req
	s.afterRefund(approved, buildNotification(req.UserID, models.NotifRefundApproved, req.PropertyTitle, req.Amount,
		map[string]interface{}{"refundRequestId": id, "amount": req.Amount}))
	return req, nil
}

// RejectRefundRequest rejette une demande de remboursement en attente
func (s *ApprovalService) RejectRefundRequest(ctx context.Context, actor models.Actor, id string) (*models.RefundRequest, error) {
	req, err := s.loadPendingRefund(ctx, id)
	if err != nil {
		return nil, err
	}
	now := s.now()

	primary := database.UpdateOp(repository.CollectionRefundRequests, id, map[string]interface{}{
		"status":        models.StatusRejected,
		"adminReviewed": true,
		"rejectedBy":    actor.ID,
		"rejectedAt":    now,
		"amount":        req.Amount,
		"updatedAt":     now,
	}).IfAbsentOr("status", models.StatusPending)

	var secondary []database.Write
	if req.ReservationID != "" {
		if w, ok := s.reservationWrite(ctx, req.ReservationID, models.ReservationRefundFailed, actor, now); ok {
			secondary = append(secondary, w)
		}
	}
	if w, ok := s.cancellationRefundStatusWrite(ctx, req.CancellationRequestID, string(models.StatusRejected), now); ok {
		secondary = append(secondary, w)
	}

	if err := s.commitTransition(ctx, repository.CollectionRefundRequests, id, models.StatusRejected,
		[]database.Write{primary}, secondary); err != nil {
		return nil, transitionError("Failed to reject refund request", id, err)
	}
	log.Printf("✅ Remboursement %s rejeté par %s", id, actor.ID)

	req.Status = models.StatusRejected
	req.AdminReviewed = true
	req.RejectedBy = actor.ID
	req.UpdatedAt = now

	rejected := *req
	s.afterRefund(rejected, buildNotification(req.UserID, models.NotifRefundRejected, req.PropertyTitle, req.Amount,
		map[string]interface{}{"refundRequestId": id}))
	return req, nil
}

// ApproveCancellationRequest approuve l'annulation et crée la demande de
// remboursement associée, en attente.
func (s *ApprovalService) ApproveCancellationRequest(ctx context.Context, actor models.Actor, id string) (*models.CancellationRequest, *models.RefundRequest, error) {
	c, err := s.loadPendingCancellation(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	now := s.now()
	refundID := SpawnedRefundID(id)
	label := s.reservationLabel(ctx, c)

	primary := database.UpdateOp(repository.CollectionCancellationRequests, id, map[string]interface{}{
		"status":          models.StatusApproved,
		"adminReviewed":   true,
		"approvedBy":      actor.ID,
		"approvedAt":      now,
		"refundAmount":    c.RefundAmount,
		"refundStatus":    string(models.StatusPending),
		"refundRequestId": refundID,
		"updatedAt":       now,
	}).IfAbsentOr("status", models.StatusPending)

	spawned := models.RefundRequest{
		ID:                    refundID,
		UserID:                c.UserID,
		UserName:              c.UserName,
		PropertyID:            c.PropertyID,
		PropertyTitle:         c.PropertyTitle,
		ReservationID:         c.ReservationID,
		Amount:                c.RefundAmount,
		Status:                models.StatusPending,
		Reason:                "Auto-generated from approved cancellation request: " + id,
		RequestDate:           now,
		CreatedAt:             now,
		UpdatedAt:             now,
		CancellationRequestID: id,
	}
	spawn := database.CreateOp(repository.CollectionRefundRequests, refundID, refundRequestData(spawned))

	var secondary []database.Write
	if w, ok := s.reservationWrite(ctx, c.ReservationID, models.ReservationRefundProcessing, actor, now); ok {
		secondary = append(secondary, w)
	}

	if err := s.commitTransition(ctx, repository.CollectionCancellationRequests, id, models.StatusApproved,
		[]database.Write{primary, spawn}, secondary); err != nil {
		return nil, nil, transitionError("Failed to approve cancellation request", id, err)
	}
	log.Printf("✅ Annulation %s approuvée par %s, remboursement %s créé (%.2f)", id, actor.ID, refundID, c.RefundAmount)

	c.Status = models.StatusApproved
	c.AdminReviewed = true
	c.ApprovedBy = actor.ID
	c.RefundStatus = string(models.StatusPending)
	c.UpdatedAt = now

	approved := *c
	s.background("notification annulation approuvée", func(ctx context.Context) error {
		return s.notify(ctx, buildNotification(c.UserID, models.NotifCancellationApproved, label, c.RefundAmount,
			map[string]interface{}{"cancellationRequestId": id, "refundRequestId": refundID, "refundAmount": c.RefundAmount}))
	})
	s.background("indexation", func(ctx context.Context) error {
		if s.indexer != nil {
			s.indexer.IndexCancellation(ctx, approved)
			s.indexer.IndexRefund(ctx, spawned)
		}
		return nil
	})
	return c, &spawned, nil
}

// RejectCancellationRequest rejette l'annulation ; la réservation passe à cancelled
func (s *ApprovalService) RejectCancellationRequest(ctx context.Context, actor models.Actor, id string) (*models.CancellationRequest, error) {
	c, err := s.loadPendingCancellation(ctx, id)
	if err != nil {
		return nil, err
	}
	now := s.now()
	label := s.reservationLabel(ctx, c)

	primary := database.UpdateOp(repository.CollectionCancellationRequests, id, map[string]interface{}{
		"status":        models.StatusRejected,
		"adminReviewed": true,
		"rejectedBy":    actor.ID,
		"rejectedAt":    now,
		"updatedAt":     now,
	}).IfAbsentOr("status", models.StatusPending)

	var secondary []database.Write
	if w, ok := s.reservationWrite(ctx, c.ReservationID, models.ReservationCancelled, actor, now); ok {
		secondary = append(secondary, w)
	}

	if err := s.commitTransition(ctx, repository.CollectionCancellationRequests, id, models.StatusRejected,
		[]database.Write{primary}, secondary); err != nil {
		return nil, transitionError("Failed to reject cancellation request", id, err)
	}
	log.Printf("✅ Annulation %s rejetée par %s", id, actor.ID)

	c.Status = models.StatusRejected
	c.AdminReviewed = true
	c.RejectedBy = actor.ID
	c.UpdatedAt = now

	rejected := *c
	s.background("notification annulation rejetée", func(ctx context.Context) error {
		return s.notify(ctx, buildNotification(c.UserID, models.NotifCancellationRejected, label, c.RefundAmount,
			map[string]interface{}{"cancellationRequestId": id}))
	})
	s.background("indexation", func(ctx context.Context) error {
		if s.indexer != nil {
			s.indexer.IndexCancellation(ctx, rejected)
		}
		return nil
	})
	return c, nil
}

func (s *ApprovalService) loadPendingRefund(ctx context.Context, id string) (*models.RefundRequest, error) {
	req, err := s.repo.GetRefundRequest(ctx, id)
	if err != nil {
		return nil, fromRepo(err, "Failed to load refund request")
	}
	if req.Status != models.StatusPending {
		return nil, fmt.Errorf("%w: refund request %s is %s", ErrAlreadyProcessed, id, req.Status)
	}
	return req, nil
}

func (s *ApprovalService) loadPendingCancellation(ctx context.Context, id string) (*models.CancellationRequest, error) {
	c, err := s.repo.GetCancellationRequest(ctx, id)
	if err != nil {
		return nil, fromRepo(err, "Failed to load cancellation request")
	}
	if c.Status != models.StatusPending {
		return nil, fmt.Errorf("%w: cancellation request %s is %s", ErrAlreadyProcessed, id, c.Status)
	}
	return c, nil
}

// reservationWrite prépare la mise à jour de la réservation si elle est trouvée.
// Un échec de recherche est journalisé et n'interrompt pas la transition.
func (s *ApprovalService) reservationWrite(ctx context.Context, reservationID string, status models.ReservationStatus, actor models.Actor, now time.Time) (database.Write, bool) {
	if reservationID == "" {
		return database.Write{}, false
	}
	res, found, err := s.repo.FindReservation(ctx, reservationID)
	if err != nil {
		log.Printf("⚠️ Réservation %s introuvable suite à une erreur: %v", reservationID, err)
		return database.Write{}, false
	}
	if !found {
		log.Printf("⚠️ Réservation %s absente de requests et reservations", reservationID)
		return database.Write{}, false
	}
	return repository.ReservationStatusWrite(res, status, actor.ID, now), true
}

func (s *ApprovalService) cancellationRefundStatusWrite(ctx context.Context, cancellationID, refundStatus string, now time.Time) (database.Write, bool) {
	if cancellationID == "" {
		return database.Write{}, false
	}
	if _, err := s.store.Get(ctx, repository.CollectionCancellationRequests, cancellationID); err != nil {
		log.Printf("⚠️ Annulation liée %s non mise à jour: %v", cancellationID, err)
		return database.Write{}, false
	}
	return database.UpdateOp(repository.CollectionCancellationRequests, cancellationID, map[string]interface{}{
		"refundStatus": refundStatus,
		"updatedAt":    now,
	}), true
}

// commitTransition écrit la transition et ses effets dans un seul lot. Si le
// lot échoue pour une autre raison que la précondition, la transition est
// réessayée seule et les effets secondaires sont abandonnés.
func (s *ApprovalService) commitTransition(ctx context.Context, collection, id string, target models.RequestStatus, required, secondary []database.Write) error {
	err := s.store.Commit(ctx, append(append([]database.Write{}, required...), secondary...))
	if err == nil {
		return nil
	}
	if errors.Is(err, database.ErrPreconditionFailed) {
		return fmt.Errorf("%w: %s/%s", ErrAlreadyProcessed, collection, id)
	}
	if len(secondary) == 0 {
		return err
	}
	log.Printf("⚠️ Effets secondaires abandonnés pour %s/%s: %v", collection, id, err)

	err = s.store.Commit(ctx, required)
	if err == nil {
		return nil
	}
	if errors.Is(err, database.ErrPreconditionFailed) {
		// Sur ScyllaDB la LWT a pu passer avant l'échec du batch
		if doc, getErr := s.store.Get(ctx, collection, id); getErr == nil && doc.Data["status"] == string(target) {
			return s.commitRemaining(ctx, required[1:])
		}
		return fmt.Errorf("%w: %s/%s", ErrAlreadyProcessed, collection, id)
	}
	return err
}

func (s *ApprovalService) commitRemaining(ctx context.Context, writes []database.Write) error {
	if len(writes) == 0 {
		return nil
	}
	err := s.store.Commit(ctx, writes)
	if errors.Is(err, database.ErrAlreadyExists) {
		return nil
	}
	return err
}

func transitionError(msg, id string, err error) error {
	if errors.Is(err, ErrAlreadyProcessed) {
		return err
	}
	return fmt.Errorf("%s %s: %w", msg, id, err)
}

func (s *ApprovalService) reservationLabel(ctx context.Context, c *models.CancellationRequest) string {
	if c.PropertyTitle != "" && c.PropertyTitle != repository.UnknownProperty {
		return c.PropertyTitle
	}
	if title, ok := s.repo.Names().PropertyTitle(ctx, c.PropertyID); ok {
		return title
	}
	return defaultReservationLabel
}

func (s *ApprovalService) afterRefund(req models.RefundRequest, n models.Notification) {
	s.background("notification "+n.Type, func(ctx context.Context) error {
		return s.notify(ctx, n)
	})
	s.background("indexation", func(ctx context.Context) error {
		if s.indexer != nil {
			s.indexer.IndexRefund(ctx, req)
		}
		return nil
	})
}

func (s *ApprovalService) notify(ctx context.Context, n models.Notification) error {
	if s.notifier == nil {
		return nil
	}
	return s.notifier.Notify(ctx, n)
}

// background lance une tâche best-effort ; ses erreurs sont seulement journalisées
func (s *ApprovalService) background(name string, fn func(ctx context.Context) error) {
	s.tasks.Add(1)
	go func() {
		defer s.tasks.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := fn(ctx); err != nil {
			log.Printf("⚠️ %s échouée: %v", name, err)
		}
	}()
}

// refundRequestData est la forme stockée d'une demande de remboursement
func refundRequestData(r models.RefundRequest) map[string]interface{} {
	data := map[string]interface{}{
		"userId":        r.UserID,
		"userName":      r.UserName,
		"propertyId":    r.PropertyID,
		"propertyTitle": r.PropertyTitle,
		"amount":        r.Amount,
		"status":        r.Status,
		"reason":        r.Reason,
		"requestDate":   r.RequestDate,
		"createdAt":     r.CreatedAt,
		"updatedAt":     r.UpdatedAt,
		"adminReviewed": r.AdminReviewed,
	}
	if r.ReservationID != "" {
		data["reservationId"] = r.ReservationID
	}
	if r.CancellationRequestID != "" {
		data["cancellationRequestId"] = r.CancellationRequestID
	}
	return data
}
