package services

import (
	"context"
	_ "embed"
	"fmt"
	"log"

	"gopkg.in/yaml.v3"

	"kaari_back_end/internal/database"
	"kaari_back_end/internal/models"
	"kaari_back_end/internal/repository"
)

//go:embed fixtures/default.yaml
var DefaultFixtures []byte

// TestDataCollections sont les collections parcourues par le nettoyage
var TestDataCollections = []string{
	repository.CollectionUsers,
	repository.CollectionProperties,
	models.CollectionLegacyReservations,
	models.CollectionReservations,
	repository.CollectionRefundRequests,
	repository.CollectionCancellationRequests,
	repository.CollectionRefunds,
	repository.CollectionPayoutMethods,
	repository.CollectionNotifications,
}

// TestDataService charge et supprime les données de démonstration
type TestDataService struct {
	store database.DocumentStore
}

func NewTestDataService(store database.DocumentStore) *TestDataService {
	return &TestDataService{store: store}
}

// Seed écrit les fixtures YAML (collection -> liste de documents avec id)
func (s *TestDataService) Seed(ctx context.Context, fixtures []byte) (map[string]int, error) {
	if len(fixtures) == 0 {
		fixtures = DefaultFixtures
	}
	var sets map[string][]map[string]interface{}
	if err := yaml.Unmarshal(fixtures, &sets); err != nil {
		return nil, validationError("fixtures YAML invalides: %v", err)
	}

	counts := make(map[string]int, len(sets))
	for collection, docs := range sets {
		writes := make([]database.Write, 0, len(docs))
		for i, doc := range docs {
			id, _ := doc["id"].(string)
			if id == "" {
				return nil, validationError("%s[%d]: id requis", collection, i)
			}
			data := make(map[string]interface{}, len(doc))
			for k, v := range doc {
				if k != "id" {
					data[k] = v
				}
			}
			data["isTestData"] = true
			writes = append(writes, database.SetOp(collection, id, data))
		}
		if err := s.store.Commit(ctx, writes); err != nil {
			return nil, fmt.Errorf("seed %s: %w", collection, err)
		}
		counts[collection] = len(writes)
	}
	log.Printf("✅ Données de test chargées: %v", counts)
	return counts, nil
}

// Cleanup supprime tous les documents marqués isTestData
func (s *TestDataService) Cleanup(ctx context.Context) (map[string]int, error) {
	counts := make(map[string]int, len(TestDataCollections))
	for _, collection := range TestDataCollections {
		docs, err := s.store.Query(ctx, collection, database.Where("isTestData", "==", true))
		if err != nil {
			return counts, fmt.Errorf("cleanup %s: %w", collection, err)
		}
		if len(docs) == 0 {
			continue
		}
		writes := make([]database.Write, 0, len(docs))
		for _, doc := range docs {
			writes = append(writes, database.DeleteOp(collection, doc.ID))
		}
		if err := s.store.Commit(ctx, writes); err != nil {
			return counts, fmt.Errorf("cleanup %s: %w", collection, err)
		}
		counts[collection] = len(docs)
	}
	log.Printf("🧹 Données de test supprimées: %v", counts)
	return counts, nil
}
