package repository

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"

	"kaari_back_end/internal/cache"
	"kaari_back_end/internal/database"
	"kaari_back_end/internal/models"
)

var (
	ErrFetchFailed = errors.New("failed to fetch")
	ErrNotFound    = errors.New("introuvable")
)

// Repository lit et normalise les demandes de remboursement et d'annulation
type Repository struct {
	store database.DocumentStore
	names *NameResolver
}

func New(store database.DocumentStore, c *cache.Client) *Repository {
	return &Repository{store: store, names: NewNameResolver(store, c)}
}

func (r *Repository) Store() database.DocumentStore { return r.store }

func (r *Repository) Names() *NameResolver { return r.names }

// ListRefundRequests liste les demandes de remboursement dans l'ordre du store.
// Un document illisible est journalisé et ignoré.
func (r *Repository) ListRefundRequests(ctx context.Context, opts ...database.QueryOption) ([]models.RefundRequest, error) {
	docs, err := r.store.Query(ctx, CollectionRefundRequests, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w refund requests: %v", ErrFetchFailed, err)
	}
	out := make([]models.RefundRequest, 0, len(docs))
	for _, doc := range docs {
		req, err := r.refundFromDoc(ctx, doc)
		if err != nil {
			log.Printf("⚠️ Demande de remboursement %s ignorée: %v", doc.ID, err)
			continue
		}
		out = append(out, req)
	}
	return out, nil
}

// ListCancellationRequests liste les demandes d'annulation, plus récentes d'abord
func (r *Repository) ListCancellationRequests(ctx context.Context, opts ...database.QueryOption) ([]models.CancellationRequest, error) {
	docs, err := r.store.Query(ctx, CollectionCancellationRequests, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w cancellation requests: %v", ErrFetchFailed, err)
	}
	out := make([]models.CancellationRequest, 0, len(docs))
	for _, doc := range docs {
		req, err := r.cancellationFromDoc(ctx, doc)
		if err != nil {
			log.Printf("⚠️ Demande d'annulation %s ignorée: %v", doc.ID, err)
			continue
		}
		out = append(out, req)
	}
	// createdAt mélange timestamps, epoch ms et chaînes : tri sur la date normalisée
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *Repository) GetRefundRequest(ctx context.Context, id string) (*models.RefundRequest, error) {
	doc, err := r.store.Get(ctx, CollectionRefundRequests, id)
	if err != nil {
		return nil, wrapGet(err, "demande de remboursement", id)
	}
	req, err := r.refundFromDoc(ctx, *doc)
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *Repository) GetCancellationRequest(ctx context.Context, id string) (*models.CancellationRequest, error) {
	doc, err := r.store.Get(ctx, CollectionCancellationRequests, id)
	if err != nil {
		return nil, wrapGet(err, "demande d'annulation", id)
	}
	req, err := r.cancellationFromDoc(ctx, *doc)
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// ListUserRequests retourne les demandes d'un utilisateur, plus récentes d'abord
func (r *Repository) ListUserRequests(ctx context.Context, userID string) ([]models.RefundRequest, []models.CancellationRequest, error) {
	refunds, err := r.ListRefundRequests(ctx, database.Where("userId", "==", userID))
	if err != nil {
		return nil, nil, err
	}
	sort.SliceStable(refunds, func(i, j int) bool { return refunds[i].CreatedAt.After(refunds[j].CreatedAt) })
	cancellations, err := r.ListCancellationRequests(ctx, database.Where("userId", "==", userID))
	if err != nil {
		return nil, nil, err
	}
	return refunds, cancellations, nil
}

func (r *Repository) refundFromDoc(ctx context.Context, doc database.Document) (models.RefundRequest, error) {
	req, err := normalizeRefund(doc.ID, doc.Data)
	if err != nil {
		return req, err
	}
	if req.UserName == "" {
		req.UserName = r.names.UserName(ctx, req.UserID)
	}
	if req.PropertyTitle == "" {
		req.PropertyTitle, _ = r.names.PropertyTitle(ctx, req.PropertyID)
	}
	return req, nil
}

func (r *Repository) cancellationFromDoc(ctx context.Context, doc database.Document) (models.CancellationRequest, error) {
	req, err := normalizeCancellation(doc.ID, doc.Data)
	if err != nil {
		return req, err
	}
	if req.UserName == "" {
		req.UserName = r.names.UserName(ctx, req.UserID)
	}
	if req.PropertyTitle == "" {
		req.PropertyTitle, _ = r.names.PropertyTitle(ctx, req.PropertyID)
	}
	return req, nil
}

func wrapGet(err error, what, id string) error {
	if errors.Is(err, database.ErrNotFound) {
		return fmt.Errorf("%w: %s %s", ErrNotFound, what, id)
	}
	return fmt.Errorf("%w %s %s: %v", ErrFetchFailed, what, id, err)
}
