package repository

import (
	"fmt"
	"math"
	"strings"
	"time"

	"kaari_back_end/internal/models"
)

// Number retourne la valeur numérique d'un champ, false si absent ou non numérique
func Number(v interface{}) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case int32:
		f = float64(n)
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// ResolveRefundAmount : amount, puis requestedRefundAmount, puis 50 % de
// originalAmount, sinon 0.
func ResolveRefundAmount(data map[string]interface{}) float64 {
	if v, ok := Number(data["amount"]); ok {
		return v
	}
	if v, ok := Number(data["requestedRefundAmount"]); ok {
		return v
	}
	if v, ok := Number(data["originalAmount"]); ok {
		return v * 0.5
	}
	return 0
}

// CancellationRefundAmount : requestedRefundAmount, sinon originalAmount - cancellationFee
func CancellationRefundAmount(data map[string]interface{}) float64 {
	if v, ok := Number(data["requestedRefundAmount"]); ok {
		return v
	}
	original, _ := Number(data["originalAmount"])
	fee, _ := Number(data["cancellationFee"])
	return original - fee
}

// ResolveReason : reason, puis reasonsText, puis la liste reasons jointe
func ResolveReason(data map[string]interface{}) string {
	if s, ok := data["reason"].(string); ok && s != "" {
		return s
	}
	if s, ok := data["reasonsText"].(string); ok && s != "" {
		return s
	}
	if list, ok := data["reasons"].([]interface{}); ok {
		parts := make([]string, 0, len(list))
		for _, item := range list {
			if s, ok := item.(string); ok && s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	}
	return ""
}

// ParseTime accepte RFC3339, millisecondes unix et {seconds, nanoseconds}
func ParseTime(v interface{}) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case string:
		if t == "" {
			return time.Time{}, false
		}
		parsed, err := time.Parse(time.RFC3339Nano, t)
		if err != nil {
			return time.Time{}, false
		}
		return parsed, true
	case map[string]interface{}:
		sec, ok := Number(t["seconds"])
		if !ok {
			sec, ok = Number(t["_seconds"])
		}
		if !ok {
			return time.Time{}, false
		}
		nsec, _ := Number(t["nanoseconds"])
		return time.Unix(int64(sec), int64(nsec)).UTC(), true
	default:
		if ms, ok := Number(v); ok {
			return time.UnixMilli(int64(ms)).UTC(), true
		}
	}
	return time.Time{}, false
}

func timeField(data map[string]interface{}, fields ...string) time.Time {
	for _, f := range fields {
		if t, ok := ParseTime(data[f]); ok {
			return t
		}
	}
	return time.Time{}
}

// Ref est une référence vers un document d'une autre collection
type Ref struct {
	Collection string
	ID         string
}

// ParseRef distingue une référence ({collection,id} ou "users/<id>") d'un id simple.
// isRef vaut false pour un id simple, ok false si la valeur est inutilisable.
func ParseRef(v interface{}) (ref Ref, isRef bool, ok bool) {
	switch r := v.(type) {
	case string:
		if r == "" {
			return Ref{}, false, false
		}
		if parts := strings.Split(r, "/"); len(parts) == 2 && parts[0] != "" && parts[1] != "" {
			return Ref{Collection: parts[0], ID: parts[1]}, true, true
		}
		return Ref{ID: r}, false, true
	case map[string]interface{}:
		id, _ := r["id"].(string)
		coll, _ := r["collection"].(string)
		if id == "" {
			return Ref{}, true, false
		}
		return Ref{Collection: coll, ID: id}, true, true
	}
	return Ref{}, false, false
}

func stringField(data map[string]interface{}, field string) string {
	s, _ := data[field].(string)
	return s
}

func boolField(data map[string]interface{}, field string) bool {
	b, _ := data[field].(bool)
	return b
}

func idField(data map[string]interface{}, field string) string {
	ref, _, ok := ParseRef(data[field])
	if !ok {
		return ""
	}
	return ref.ID
}

// normalizeRefund construit un RefundRequest à partir d'un document brut.
// Les noms d'affichage sont résolus par l'appelant.
func normalizeRefund(id string, data map[string]interface{}) (models.RefundRequest, error) {
	userID := idField(data, "userId")
	if userID == "" {
		return models.RefundRequest{}, fmt.Errorf("demande %s sans userId", id)
	}
	status := models.RequestStatus(stringField(data, "status"))
	if status == "" {
		status = models.StatusPending
	}
	if !status.Valid() {
		return models.RefundRequest{}, fmt.Errorf("demande %s: statut inconnu %q", id, status)
	}
	createdAt := timeField(data, "createdAt", "requestDate")
	return models.RefundRequest{
		ID:                    id,
		UserID:                userID,
		UserName:              stringField(data, "userName"),
		PropertyID:            idField(data, "propertyId"),
		PropertyTitle:         stringField(data, "propertyTitle"),
		ReservationID:         idField(data, "reservationId"),
		Amount:                ResolveRefundAmount(data),
		Status:                status,
		Reason:                ResolveReason(data),
		RequestDate:           timeField(data, "requestDate", "createdAt"),
		CreatedAt:             createdAt,
		UpdatedAt:             timeField(data, "updatedAt"),
		CancellationRequestID: stringField(data, "cancellationRequestId"),
		AdminReviewed:         boolField(data, "adminReviewed"),
		ApprovedBy:            stringField(data, "approvedBy"),
		RejectedBy:            stringField(data, "rejectedBy"),
	}, nil
}

func normalizeCancellation(id string, data map[string]interface{}) (models.CancellationRequest, error) {
	userID := idField(data, "userId")
	if userID == "" {
		return models.CancellationRequest{}, fmt.Errorf("annulation %s sans userId", id)
	}
	status := models.RequestStatus(stringField(data, "status"))
	if status == "" {
		status = models.StatusPending
	}
	if !status.Valid() {
		return models.CancellationRequest{}, fmt.Errorf("annulation %s: statut inconnu %q", id, status)
	}
	original, _ := Number(data["originalAmount"])
	serviceFee, _ := Number(data["serviceFee"])
	cancellationFee, _ := Number(data["cancellationFee"])
	days, _ := Number(data["daysToMoveIn"])

	c := models.CancellationRequest{
		ID:              id,
		UserID:          userID,
		UserName:        stringField(data, "userName"),
		PropertyID:      idField(data, "propertyId"),
		PropertyTitle:   stringField(data, "propertyTitle"),
		ReservationID:   idField(data, "reservationId"),
		OriginalAmount:  original,
		ServiceFee:      serviceFee,
		CancellationFee: cancellationFee,
		RefundAmount:    CancellationRefundAmount(data),
		DaysToMoveIn:    int(days),
		Status:          status,
		Reason:          ResolveReason(data),
		RequestDetails:  stringField(data, "requestDetails"),
		RefundStatus:    stringField(data, "refundStatus"),
		AdminReviewed:   boolField(data, "adminReviewed"),
		ApprovedBy:      stringField(data, "approvedBy"),
		RejectedBy:      stringField(data, "rejectedBy"),
		CreatedAt:       timeField(data, "createdAt"),
		UpdatedAt:       timeField(data, "updatedAt"),
	}
	if v, ok := Number(data["requestedRefundAmount"]); ok {
		c.RequestedRefundAmount = &v
	}
	return c, nil
}
