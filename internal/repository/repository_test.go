package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"kaari_back_end/internal/database"
	"kaari_back_end/internal/models"
)

func newTestRepo(t *testing.T) (*Repository, *database.BoltStore) {
	t.Helper()
	store, err := database.NewBoltStore(filepath.Join(t.TempDir(), "repo.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return New(store, nil), store
}

func mustSet(t *testing.T, s database.DocumentStore, coll, id string, data map[string]interface{}) {
	t.Helper()
	if err := s.Set(context.Background(), coll, id, data); err != nil {
		t.Fatalf("set %s/%s: %v", coll, id, err)
	}
}

func TestListRefundRequestsSkipsBadItems(t *testing.T) {
	repo, store := newTestRepo(t)
	ctx := context.Background()

	mustSet(t, store, CollectionUsers, "u1", map[string]interface{}{"name": "Salma Idrissi"})
	mustSet(t, store, CollectionRefundRequests, "r1", map[string]interface{}{
		"userId": map[string]interface{}{"collection": "users", "id": "u1"}, "propertyId": "missing",
		"originalAmount": 200.0, "status": "pending",
	})
	mustSet(t, store, CollectionRefundRequests, "r2", map[string]interface{}{"status": "pending"})
	mustSet(t, store, CollectionRefundRequests, "r3", map[string]interface{}{"userId": "ghost", "status": "weird"})

	got, err := repo.ListRefundRequests(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d requests, want 1", len(got))
	}
	r := got[0]
	if r.UserName != "Salma Idrissi" || r.PropertyTitle != UnknownProperty || r.Amount != 100 {
		t.Errorf("unexpected normalization: %+v", r)
	}
}

func TestListCancellationRequestsNewestFirst(t *testing.T) {
	repo, store := newTestRepo(t)
	ctx := context.Background()

	empty, err := repo.ListCancellationRequests(ctx)
	if err != nil || len(empty) != 0 {
		t.Fatalf("empty store: %v, %v", empty, err)
	}

	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	mustSet(t, store, CollectionCancellationRequests, "old", map[string]interface{}{"userId": "u1", "createdAt": base})
	mustSet(t, store, CollectionCancellationRequests, "new", map[string]interface{}{"userId": "u1", "createdAt": base.Add(time.Hour)})

	got, err := repo.ListCancellationRequests(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].ID != "new" || got[1].ID != "old" {
		t.Errorf("unexpected order: %+v", got)
	}
	if got[0].UserName != UnknownUser || got[0].Status != models.StatusPending {
		t.Errorf("unexpected defaults: %+v", got[0])
	}
}

func TestRequestsSortedAcrossTimestampShapes(t *testing.T) {
	repo, store := newTestRepo(t)
	ctx := context.Background()

	old := time.Date(2020, 1, 15, 10, 0, 0, 0, time.UTC)
	mid := time.Date(2022, 3, 1, 8, 30, 0, 0, time.UTC)
	recent := time.Date(2024, 11, 20, 18, 0, 0, 0, time.UTC)
	shapes := map[string]interface{}{
		"old": map[string]interface{}{"seconds": float64(old.Unix()), "nanoseconds": 0.0},
		"mid": float64(mid.UnixMilli()),
		"new": recent.Format(time.RFC3339),
	}
	for id, created := range shapes {
		mustSet(t, store, CollectionCancellationRequests, id, map[string]interface{}{"userId": "u1", "createdAt": created})
		mustSet(t, store, CollectionRefundRequests, id, map[string]interface{}{
			"userId": "u1", "originalAmount": 200.0, "status": "pending", "createdAt": created,
		})
	}

	cancellations, err := repo.ListCancellationRequests(ctx)
	if err != nil {
		t.Fatal(err)
	}
	refunds, userCancellations, err := repo.ListUserRequests(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}

	want := []string{"new", "mid", "old"}
	check := func(name string, ids []string) {
		t.Helper()
		if len(ids) != len(want) {
			t.Fatalf("%s: got %v, want %v", name, ids, want)
		}
		for i := range want {
			if ids[i] != want[i] {
				t.Errorf("%s: got %v, want %v", name, ids, want)
				return
			}
		}
	}
	var ids []string
	for _, c := range cancellations {
		ids = append(ids, c.ID)
	}
	check("cancellations", ids)
	ids = nil
	for _, c := range userCancellations {
		ids = append(ids, c.ID)
	}
	check("user cancellations", ids)
	ids = nil
	for _, r := range refunds {
		ids = append(ids, r.ID)
	}
	check("user refunds", ids)
	if !cancellations[2].CreatedAt.Equal(old) || !cancellations[1].CreatedAt.Equal(mid) {
		t.Errorf("createdAt not normalized: %v / %v", cancellations[2].CreatedAt, cancellations[1].CreatedAt)
	}
}

func TestGetRefundRequestNotFound(t *testing.T) {
	repo, _ := newTestRepo(t)
	_, err := repo.GetRefundRequest(context.Background(), "nope")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestFindReservationChecksBothCollections(t *testing.T) {
	repo, store := newTestRepo(t)
	ctx := context.Background()

	mustSet(t, store, models.CollectionLegacyReservations, "a", map[string]interface{}{"userId": "u1", "status": "booked"})
	mustSet(t, store, models.CollectionReservations, "a", map[string]interface{}{"userId": "u1", "status": "active"})
	mustSet(t, store, models.CollectionReservations, "b", map[string]interface{}{"userId": "u2", "status": "active"})

	res, found, err := repo.FindReservation(ctx, "a")
	if err != nil || !found || res.Collection != models.CollectionLegacyReservations {
		t.Errorf("a: %+v %v %v", res, found, err)
	}
	res, found, err = repo.FindReservation(ctx, "b")
	if err != nil || !found || res.Collection != models.CollectionReservations || res.UserID != "u2" {
		t.Errorf("b: %+v %v %v", res, found, err)
	}
	_, found, err = repo.FindReservation(ctx, "c")
	if err != nil || found {
		t.Errorf("missing reservation should be not-found without error: %v %v", found, err)
	}
}

func TestMigrateReservations(t *testing.T) {
	repo, store := newTestRepo(t)
	ctx := context.Background()

	mustSet(t, store, models.CollectionLegacyReservations, "a", map[string]interface{}{"userId": "u1"})
	mustSet(t, store, models.CollectionLegacyReservations, "dup", map[string]interface{}{"userId": "u1"})
	mustSet(t, store, models.CollectionReservations, "dup", map[string]interface{}{"userId": "u1"})

	report, err := repo.MigrateReservations(ctx, true)
	if err != nil || report.Moved != 1 || len(report.Conflicts) != 1 {
		t.Fatalf("dry run: %+v %v", report, err)
	}
	if _, err := store.Get(ctx, models.CollectionLegacyReservations, "a"); err != nil {
		t.Fatal("dry run must not move documents")
	}

	report, err = repo.MigrateReservations(ctx, false)
	if err != nil || report.Moved != 1 || len(report.Conflicts) != 1 {
		t.Fatalf("migration: %+v %v", report, err)
	}
	if _, err := store.Get(ctx, models.CollectionLegacyReservations, "a"); !errors.Is(err, database.ErrNotFound) {
		t.Errorf("legacy copy should be removed, got %v", err)
	}
	res, found, _ := repo.FindReservation(ctx, "a")
	if !found || res.Collection != models.CollectionReservations {
		t.Errorf("migrated reservation not found in reservations: %+v", res)
	}
}
