package repository

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"kaari_back_end/internal/database"
	"kaari_back_end/internal/models"
)

// reservationCollections dans l'ordre de recherche
var reservationCollections = []string{
	models.CollectionLegacyReservations,
	models.CollectionReservations,
}

// FindReservation cherche la réservation dans "requests" puis "reservations".
// found vaut false si aucune collection ne la contient.
func (r *Repository) FindReservation(ctx context.Context, id string) (res *models.Reservation, found bool, err error) {
	if id == "" {
		return nil, false, nil
	}
	for _, coll := range reservationCollections {
		doc, err := r.store.Get(ctx, coll, id)
		if errors.Is(err, database.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, false, fmt.Errorf("recherche réservation %s dans %s: %w", id, coll, err)
		}
		return reservationFromDoc(*doc), true, nil
	}
	return nil, false, nil
}

func reservationFromDoc(doc database.Document) *models.Reservation {
	res := &models.Reservation{
		ID:         doc.ID,
		Collection: doc.Collection,
		UserID:     idField(doc.Data, "userId"),
		PropertyID: idField(doc.Data, "propertyId"),
		Status:     models.ReservationStatus(stringField(doc.Data, "status")),
		Data:       doc.Data,
	}
	if list, ok := doc.Data["statusHistory"].([]interface{}); ok {
		for _, item := range list {
			entry, ok := item.(map[string]interface{})
			if !ok {
				continue
			}
			ts, _ := ParseTime(entry["timestamp"])
			res.StatusHistory = append(res.StatusHistory, models.StatusHistoryEntry{
				Status:    models.ReservationStatus(stringField(entry, "status")),
				Timestamp: ts,
				UpdatedBy: stringField(entry, "updatedBy"),
			})
		}
	}
	return res
}

// ReservationStatusWrite prépare le changement de statut d'une réservation
// avec ajout à l'historique.
func ReservationStatusWrite(res *models.Reservation, status models.ReservationStatus, updatedBy string, now time.Time) database.Write {
	history := append([]models.StatusHistoryEntry{}, res.StatusHistory...)
	history = append(history, models.StatusHistoryEntry{
		Status:    status,
		Timestamp: now,
		UpdatedBy: updatedBy,
	})
	return database.UpdateOp(res.Collection, res.ID, map[string]interface{}{
		"status":        status,
		"statusHistory": history,
		"updatedAt":     now,
	})
}

// MigrationReport résume une migration des réservations historiques
type MigrationReport struct {
	Scanned   int      `json:"scanned"`
	Moved     int      `json:"moved"`
	Conflicts []string `json:"conflicts,omitempty"`
	Failed    []string `json:"failed,omitempty"`
}

// MigrateReservations déplace chaque document de "requests" vers "reservations".
// Un id déjà présent des deux côtés est laissé en place et signalé.
func (r *Repository) MigrateReservations(ctx context.Context, dryRun bool) (*MigrationReport, error) {
	docs, err := r.store.Query(ctx, models.CollectionLegacyReservations)
	if err != nil {
		return nil, fmt.Errorf("%w reservations: %v", ErrFetchFailed, err)
	}
	report := &MigrationReport{Scanned: len(docs)}
	for _, doc := range docs {
		if dryRun {
			if _, err := r.store.Get(ctx, models.CollectionReservations, doc.ID); err == nil {
				report.Conflicts = append(report.Conflicts, doc.ID)
			} else {
				report.Moved++
			}
			continue
		}
		err := r.store.Commit(ctx, []database.Write{
			database.CreateOp(models.CollectionReservations, doc.ID, doc.Data),
			database.DeleteOp(models.CollectionLegacyReservations, doc.ID),
		})
		switch {
		case err == nil:
			report.Moved++
		case errors.Is(err, database.ErrAlreadyExists):
			report.Conflicts = append(report.Conflicts, doc.ID)
		default:
			log.Printf("⚠️ Migration réservation %s échouée: %v", doc.ID, err)
			report.Failed = append(report.Failed, doc.ID)
		}
	}
	return report, nil
}
