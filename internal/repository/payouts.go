package repository

import (
	"context"
	"fmt"

	"kaari_back_end/internal/database"
	"kaari_back_end/internal/models"
)

func (r *Repository) GetPayoutMethod(ctx context.Context, id string) (*models.PayoutMethod, error) {
	doc, err := r.store.Get(ctx, CollectionPayoutMethods, id)
	if err != nil {
		return nil, wrapGet(err, "moyen de versement", id)
	}
	m := payoutFromDoc(*doc)
	return &m, nil
}

// ListPayoutMethods retourne les moyens de versement d'un utilisateur dans l'ordre du store
func (r *Repository) ListPayoutMethods(ctx context.Context, userID string) ([]models.PayoutMethod, error) {
	docs, err := r.store.Query(ctx, CollectionPayoutMethods, database.Where("userId", "==", userID))
	if err != nil {
		return nil, fmt.Errorf("%w payout methods: %v", ErrFetchFailed, err)
	}
	out := make([]models.PayoutMethod, 0, len(docs))
	for _, doc := range docs {
		out = append(out, payoutFromDoc(doc))
	}
	return out, nil
}

func payoutFromDoc(doc database.Document) models.PayoutMethod {
	return models.PayoutMethod{
		ID:                doc.ID,
		UserID:            stringField(doc.Data, "userId"),
		Type:              models.PayoutType(stringField(doc.Data, "type")),
		AccountNumber:     stringField(doc.Data, "accountNumber"),
		BankName:          stringField(doc.Data, "bankName"),
		AccountHolderName: stringField(doc.Data, "accountHolderName"),
		IsDefault:         boolField(doc.Data, "isDefault"),
		CreatedAt:         timeField(doc.Data, "createdAt"),
		UpdatedAt:         timeField(doc.Data, "updatedAt"),
	}
}

// PayoutData est la forme stockée d'un moyen de versement
func PayoutData(m models.PayoutMethod) map[string]interface{} {
	return map[string]interface{}{
		"userId":            m.UserID,
		"type":              m.Type,
		"accountNumber":     m.AccountNumber,
		"bankName":          m.BankName,
		"accountHolderName": m.AccountHolderName,
		"isDefault":         m.IsDefault,
		"createdAt":         m.CreatedAt,
		"updatedAt":         m.UpdatedAt,
	}
}
