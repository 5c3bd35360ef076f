package services

import (
	"context"
	"errors"
	"testing"

	"kaari_back_end/internal/repository"
)

func TestSearchWithoutClient(t *testing.T) {
	var svc *SearchService
	if _, err := svc.Search(context.Background(), "salma", ""); !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got %v", err)
	}
	// Sans client, l'indexation est un no-op journalisé
	NewSearchService(nil, "kaari-requests").IndexRefund(context.Background(), tenantRefund())
}

func TestExtractHits(t *testing.T) {
	r := map[string]interface{}{
		"hits": map[string]interface{}{
			"hits": []interface{}{
				map[string]interface{}{"_source": map[string]interface{}{"id": "r1"}},
				map[string]interface{}{"_id": "no-source"},
			},
		},
	}
	hits := extractHits(r)
	if len(hits) != 1 || hits[0]["id"] != "r1" {
		t.Errorf("hits = %v", hits)
	}
	if got := extractHits(map[string]interface{}{}); len(got) != 0 {
		t.Errorf("empty response = %v", got)
	}
}

func TestReindex(t *testing.T) {
	store := newTestStore(t)
	seed(t, store, repository.CollectionRefundRequests, "r1", map[string]interface{}{"userId": "u1", "status": "pending"})
	seed(t, store, repository.CollectionCancellationRequests, "c1", map[string]interface{}{"userId": "u1", "status": "approved"})
	seed(t, store, repository.CollectionCancellationRequests, "c2", map[string]interface{}{"userId": "u1", "status": "rejected"})

	indexer := &MockIndexer{}
	n, err := Reindex(context.Background(), repository.New(store, nil), indexer)
	if err != nil || n != 3 {
		t.Fatalf("Reindex = %d, %v", n, err)
	}
	if len(indexer.refunds) != 1 || len(indexer.cancellations) != 2 {
		t.Errorf("indexed = %v / %v", indexer.refunds, indexer.cancellations)
	}
}
