package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"kaari_back_end/internal/models"
	"kaari_back_end/internal/repository"
)

const (
	RequestTypeRefund       = "refund"
	RequestTypeCancellation = "cancellation"
)

// Indexer reçoit les demandes après chaque transition
type Indexer interface {
	IndexRefund(ctx context.Context, r models.RefundRequest)
	IndexCancellation(ctx context.Context, c models.CancellationRequest)
}

// SearchService indexe et recherche les demandes dans Elasticsearch
type SearchService struct {
	client *elasticsearch.Client
	index  string
}

func NewSearchService(client *elasticsearch.Client, index string) *SearchService {
	return &SearchService{client: client, index: index}
}

// requestDocument est la forme indexée commune aux deux types de demande
type requestDocument struct {
	Type          string               `json:"type"`
	ID            string               `json:"id"`
	UserID        string               `json:"userId"`
	UserName      string               `json:"userName"`
	PropertyID    string               `json:"propertyId"`
	PropertyTitle string               `json:"propertyTitle"`
	ReservationID string               `json:"reservationId,omitempty"`
	Amount        float64              `json:"amount"`
	Status        models.RequestStatus `json:"status"`
	Reason        string               `json:"reason"`
	CreatedAt     interface{}          `json:"createdAt"`
}

func (s *SearchService) IndexRefund(ctx context.Context, r models.RefundRequest) {
	s.indexDocument(ctx, requestDocument{
		Type: RequestTypeRefund, ID: r.ID, UserID: r.UserID, UserName: r.UserName,
		PropertyID: r.PropertyID, PropertyTitle: r.PropertyTitle, ReservationID: r.ReservationID,
		Amount: r.Amount, Status: r.Status, Reason: r.Reason, CreatedAt: r.CreatedAt,
	})
}

func (s *SearchService) IndexCancellation(ctx context.Context, c models.CancellationRequest) {
	s.indexDocument(ctx, requestDocument{
		Type: RequestTypeCancellation, ID: c.ID, UserID: c.UserID, UserName: c.UserName,
		PropertyID: c.PropertyID, PropertyTitle: c.PropertyTitle, ReservationID: c.ReservationID,
		Amount: c.RefundAmount, Status: c.Status, Reason: c.Reason, CreatedAt: c.CreatedAt,
	})
}

func (s *SearchService) indexDocument(ctx context.Context, doc requestDocument) {
	if s == nil || s.client == nil {
		log.Printf("⚠️ Elastic non initialisé, demande %s non indexée", doc.ID)
		return
	}

	data, _ := json.Marshal(doc)
	req := esapi.IndexRequest{
		Index:      s.index,
		DocumentID: doc.Type + "_" + doc.ID,
		Body:       bytes.NewReader(data),
		Refresh:    "true",
	}

	res, err := req.Do(ctx, s.client)
	if err != nil {
		log.Println("❌ Erreur envoi Elastic:", err)
		return
	}
	defer res.Body.Close()

	if res.IsError() {
		log.Printf("⚠️ Elastic a renvoyé une erreur pour %s: %s", doc.ID, res.String())
	}
}

// Search recherche les demandes par nom, annonce ou motif ; requestType filtre
// optionnellement sur refund ou cancellation.
func (s *SearchService) Search(ctx context.Context, query, requestType string) ([]map[string]interface{}, error) {
	if s == nil || s.client == nil {
		return nil, fmt.Errorf("%w: client Elasticsearch non initialisé", ErrUnavailable)
	}
	if requestType != "" && requestType != RequestTypeRefund && requestType != RequestTypeCancellation {
		return nil, validationError("type de demande inconnu: %s", requestType)
	}

	must := []interface{}{}
	if query != "" {
		must = append(must, map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  query,
				"fields": []string{"userName", "propertyTitle", "reason", "id", "reservationId"},
			},
		})
	} else {
		must = append(must, map[string]interface{}{"match_all": map[string]interface{}{}})
	}
	boolQuery := map[string]interface{}{"must": must}
	if requestType != "" {
		boolQuery["filter"] = []interface{}{
			map[string]interface{}{"term": map[string]interface{}{"type": requestType}},
		}
	}

	var buf bytes.Buffer
	q := map[string]interface{}{
		"query": map[string]interface{}{"bool": boolQuery},
		"size":  50,
	}
	if err := json.NewEncoder(&buf).Encode(q); err != nil {
		return nil, fmt.Errorf("erreur encodage requête: %w", err)
	}

	req := esapi.SearchRequest{
		Index: []string{s.index},
		Body:  &buf,
	}
	res, err := req.Do(ctx, s.client)
	if err != nil {
		return nil, fmt.Errorf("erreur requête Elastic: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		log.Printf("❌ Elasticsearch erreur: %s", res.String())
		return nil, errors.New("index non trouvé ou vide")
	}

	var r map[string]interface{}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, fmt.Errorf("erreur décodage JSON: %w", err)
	}
	return extractHits(r), nil
}

func extractHits(r map[string]interface{}) []map[string]interface{} {
	hitsData, ok := r["hits"].(map[string]interface{})
	if !ok {
		return []map[string]interface{}{}
	}
	hitsArray, _ := hitsData["hits"].([]interface{})
	results := make([]map[string]interface{}, 0, len(hitsArray))
	for _, hit := range hitsArray {
		hitMap, _ := hit.(map[string]interface{})
		if source, ok := hitMap["_source"].(map[string]interface{}); ok {
			results = append(results, source)
		}
	}
	return results
}

// Reindex réindexe toutes les demandes du store
func Reindex(ctx context.Context, repo *repository.Repository, indexer Indexer) (int, error) {
	refunds, err := repo.ListRefundRequests(ctx)
	if err != nil {
		return 0, err
	}
	cancellations, err := repo.ListCancellationRequests(ctx)
	if err != nil {
		return 0, err
	}
	for _, r := range refunds {
		indexer.IndexRefund(ctx, r)
	}
	for _, c := range cancellations {
		indexer.IndexCancellation(ctx, c)
	}
	return len(refunds) + len(cancellations), nil
}
