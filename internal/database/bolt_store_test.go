package database_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"kaari_back_end/internal/database"
)

func newTestStore(t *testing.T) *database.BoltStore {
	t.Helper()
	s, err := database.NewBoltStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestGetMissing(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Get(context.Background(), "refundRequests", "nope")
	if !errors.Is(err, database.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateGetUpdate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.Create(ctx, "payoutMethods", map[string]interface{}{
		"userId":    "u1",
		"isDefault": true,
		"createdAt": time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := s.Update(ctx, "payoutMethods", id, map[string]interface{}{"isDefault": false}); err != nil {
		t.Fatalf("unexpected update error: %v", err)
	}

	doc, err := s.Get(ctx, "payoutMethods", id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Data["userId"] != "u1" {
		t.Errorf("userId lost on merge: %v", doc.Data["userId"])
	}
	if doc.Data["isDefault"] != false {
		t.Errorf("isDefault = %v, want false", doc.Data["isDefault"])
	}
	if doc.Data["createdAt"] != "2024-01-02T03:04:05Z" {
		t.Errorf("createdAt = %v", doc.Data["createdAt"])
	}
}

func TestUpdateMissing(t *testing.T) {
	s := newTestStore(t)
	err := s.Update(context.Background(), "reservations", "missing", map[string]interface{}{"status": "cancelled"})
	if !errors.Is(err, database.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	if err := s.Set(ctx, "users", "u1", map[string]interface{}{"name": "Salma"}); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 2; i++ {
		if err := s.Delete(ctx, "users", "u1"); err != nil {
			t.Fatalf("delete #%d: %v", i+1, err)
		}
	}
	if err := s.Delete(ctx, "neverCreated", "x"); err != nil {
		t.Fatalf("delete in unknown collection: %v", err)
	}
}

func TestQueryFiltersAndOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	docs := []struct {
		id     string
		user   string
		amount float64
		at     time.Time
	}{
		{"a", "u1", 100, base},
		{"b", "u2", 50, base.Add(2 * time.Hour)},
		{"c", "u1", 300, base.Add(1 * time.Hour)},
	}
	for _, d := range docs {
		if err := s.Set(ctx, "cancellationRequests", d.id, map[string]interface{}{
			"userId": d.user, "originalAmount": d.amount, "createdAt": d.at,
		}); err != nil {
			t.Fatal(err)
		}
	}

	got, err := s.Query(ctx, "cancellationRequests", database.OrderBy("createdAt", true))
	if err != nil {
		t.Fatal(err)
	}
	if ids := idsOf(got); ids != "b,c,a" {
		t.Errorf("order desc = %s, want b,c,a", ids)
	}

	got, err = s.Query(ctx, "cancellationRequests",
		database.Where("userId", "==", "u1"),
		database.Where("originalAmount", ">", 150))
	if err != nil {
		t.Fatal(err)
	}
	if ids := idsOf(got); ids != "c" {
		t.Errorf("filtered = %s, want c", ids)
	}

	got, err = s.Query(ctx, "cancellationRequests",
		database.Where("userId", "in", []string{"u2", "u3"}))
	if err != nil {
		t.Fatal(err)
	}
	if ids := idsOf(got); ids != "b" {
		t.Errorf("in filter = %s, want b", ids)
	}

	got, err = s.Query(ctx, "empty")
	if err != nil || len(got) != 0 {
		t.Errorf("empty collection: got %d docs, err %v", len(got), err)
	}
}

func TestCommitPreconditionRollsBack(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Set(ctx, "refundRequests", "r1", map[string]interface{}{"status": "approved"}); err != nil {
		t.Fatal(err)
	}
	if err := s.Set(ctx, "reservations", "res1", map[string]interface{}{"status": "booked"}); err != nil {
		t.Fatal(err)
	}

	err := s.Commit(ctx, []database.Write{
		database.UpdateOp("reservations", "res1", map[string]interface{}{"status": "refundComplete"}),
		database.UpdateOp("refundRequests", "r1", map[string]interface{}{"status": "approved"}).If("status", "pending"),
		database.CreateOp("refunds", "p1", map[string]interface{}{"amount": 10}),
	})
	if !errors.Is(err, database.ErrPreconditionFailed) {
		t.Fatalf("expected ErrPreconditionFailed, got %v", err)
	}

	res, _ := s.Get(ctx, "reservations", "res1")
	if res.Data["status"] != "booked" {
		t.Errorf("reservation written despite failed commit: %v", res.Data["status"])
	}
	if _, err := s.Get(ctx, "refunds", "p1"); !errors.Is(err, database.ErrNotFound) {
		t.Errorf("refund record written despite failed commit: %v", err)
	}
}

func TestCommitCreateConflict(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	w := database.CreateOp("refundRequests", "fixed-id", map[string]interface{}{"status": "pending"})

	if err := s.Commit(ctx, []database.Write{w}); err != nil {
		t.Fatal(err)
	}
	if err := s.Commit(ctx, []database.Write{w}); !errors.Is(err, database.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
}

func idsOf(docs []database.Document) string {
	out := ""
	for i, d := range docs {
		if i > 0 {
			out += ","
		}
		out += d.ID
	}
	return out
}

func TestCommitIfAbsentOr(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for id, data := range map[string]map[string]interface{}{
		"legacy":  {"userId": "u1"},
		"empty":   {"status": ""},
		"pending": {"status": "pending"},
		"done":    {"status": "approved"},
	} {
		if err := s.Set(ctx, "refundRequests", id, data); err != nil {
			t.Fatal(err)
		}
	}

	cases := []struct {
		id      string
		wantErr bool
	}{
		{"legacy", false},
		{"empty", false},
		{"pending", false},
		{"done", true},
	}
	for _, tc := range cases {
		err := s.Commit(ctx, []database.Write{
			database.UpdateOp("refundRequests", tc.id, map[string]interface{}{"status": "approved"}).IfAbsentOr("status", "pending"),
		})
		if tc.wantErr != errors.Is(err, database.ErrPreconditionFailed) {
			t.Errorf("%s: err = %v, wantErr %v", tc.id, err, tc.wantErr)
		}
		doc, _ := s.Get(ctx, "refundRequests", tc.id)
		if doc.Data["status"] != "approved" {
			t.Errorf("%s: status = %v", tc.id, doc.Data["status"])
		}
	}
}
