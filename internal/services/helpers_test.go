package services

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"kaari_back_end/internal/database"
	"kaari_back_end/internal/models"
	"kaari_back_end/internal/repository"
)

var (
	admin  = models.Actor{ID: "admin-1", Email: "admin@kaari.ma", Role: models.RoleAdmin}
	tenant = models.Actor{ID: "u1", Email: "salma@kaari.ma", Role: models.RoleUser}
)

var ErrMockNotify = errors.New("notify error")

// MockNotifier implements Notifier for testing
type MockNotifier struct {
	NotifyFunc func(ctx context.Context, n models.Notification) error

	mu   sync.Mutex
	sent []models.Notification
}

func (m *MockNotifier) Notify(ctx context.Context, n models.Notification) error {
	m.mu.Lock()
	m.sent = append(m.sent, n)
	m.mu.Unlock()
	if m.NotifyFunc != nil {
		return m.NotifyFunc(ctx, n)
	}
	return nil
}

func (m *MockNotifier) Sent() []models.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.Notification(nil), m.sent...)
}

// MockIndexer implements Indexer for testing
type MockIndexer struct {
	mu            sync.Mutex
	refunds       []string
	cancellations []string
}

func (m *MockIndexer) IndexRefund(_ context.Context, r models.RefundRequest) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refunds = append(m.refunds, r.ID)
}

func (m *MockIndexer) IndexCancellation(_ context.Context, c models.CancellationRequest) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cancellations = append(m.cancellations, c.ID)
}

// flakyStore wraps a real store and lets a test fail chosen commits
type flakyStore struct {
	database.DocumentStore
	CommitFunc func(ctx context.Context, writes []database.Write) error
}

func (f *flakyStore) Commit(ctx context.Context, writes []database.Write) error {
	if f.CommitFunc != nil {
		if err := f.CommitFunc(ctx, writes); err != nil {
			return err
		}
	}
	return f.DocumentStore.Commit(ctx, writes)
}

func newTestStore(t *testing.T) *database.BoltStore {
	t.Helper()
	store, err := database.NewBoltStore(filepath.Join(t.TempDir(), "services.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func newApproval(t *testing.T, store database.DocumentStore) (*ApprovalService, *MockNotifier, *MockIndexer) {
	t.Helper()
	notifier := &MockNotifier{}
	indexer := &MockIndexer{}
	svc := NewApprovalService(repository.New(store, nil), notifier, indexer)
	return svc, notifier, indexer
}

func seed(t *testing.T, s database.DocumentStore, coll, id string, data map[string]interface{}) {
	t.Helper()
	if err := s.Set(context.Background(), coll, id, data); err != nil {
		t.Fatalf("seed %s/%s: %v", coll, id, err)
	}
}

func get(t *testing.T, s database.DocumentStore, coll, id string) map[string]interface{} {
	t.Helper()
	doc, err := s.Get(context.Background(), coll, id)
	if err != nil {
		t.Fatalf("get %s/%s: %v", coll, id, err)
	}
	return doc.Data
}

func count(t *testing.T, s database.DocumentStore, coll string, opts ...database.QueryOption) int {
	t.Helper()
	docs, err := s.Query(context.Background(), coll, opts...)
	if err != nil {
		t.Fatalf("query %s: %v", coll, err)
	}
	return len(docs)
}
