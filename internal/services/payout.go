package services

import (
	"context"
	"fmt"
	"log"
	"math/big"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"kaari_back_end/internal/database"
	"kaari_back_end/internal/models"
	"kaari_back_end/internal/repository"
)

var (
	ribPattern  = regexp.MustCompile(`^[0-9]{24}$`)
	ibanPattern = regexp.MustCompile(`^[A-Z]{2}[0-9]{2}[A-Z0-9]{11,30}$`)
)

// PayoutParams décrit un moyen de versement à créer ou modifier
type PayoutParams struct {
	Type              models.PayoutType `json:"type"`
	AccountNumber     string            `json:"accountNumber"`
	BankName          string            `json:"bankName"`
	AccountHolderName string            `json:"accountHolderName"`
	SetAsDefault      bool              `json:"setAsDefault"`
}

// PayoutService gère les comptes de versement des annonceurs
type PayoutService struct {
	repo  *repository.Repository
	store database.DocumentStore
	now   func() time.Time
}

func NewPayoutService(repo *repository.Repository) *PayoutService {
	return &PayoutService{repo: repo, store: repo.Store(), now: time.Now}
}

// NormalizeAccountNumber retire les espaces et passe en majuscules
func NormalizeAccountNumber(s string) string {
	return strings.ToUpper(strings.Join(strings.Fields(s), ""))
}

// ValidatePayout vérifie le format du compte avant toute écriture
func ValidatePayout(p PayoutParams) error {
	if strings.TrimSpace(p.BankName) == "" {
		return validationError("bankName requis")
	}
	if strings.TrimSpace(p.AccountHolderName) == "" {
		return validationError("accountHolderName requis")
	}
	number := NormalizeAccountNumber(p.AccountNumber)
	switch p.Type {
	case models.PayoutRIB:
		if !ribPattern.MatchString(number) {
			return validationError("RIB invalide: 24 chiffres attendus")
		}
	case models.PayoutIBAN:
		if !ibanPattern.MatchString(number) || !ibanChecksumValid(number) {
			return validationError("IBAN invalide")
		}
	default:
		return validationError("type de compte inconnu: %q", p.Type)
	}
	return nil
}

// ibanChecksumValid applique le contrôle mod 97 (ISO 13616)
func ibanChecksumValid(iban string) bool {
	rearranged := iban[4:] + iban[:4]
	var digits strings.Builder
	for _, r := range rearranged {
		switch {
		case r >= '0' && r <= '9':
			digits.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			fmt.Fprintf(&digits, "%d", r-'A'+10)
		default:
			return false
		}
	}
	n, ok := new(big.Int).SetString(digits.String(), 10)
	if !ok {
		return false
	}
	return new(big.Int).Mod(n, big.NewInt(97)).Int64() == 1
}

func (s *PayoutService) List(ctx context.Context, actor models.Actor) ([]models.PayoutMethod, error) {
	methods, err := s.repo.ListPayoutMethods(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("Failed to list payout methods: %w", err)
	}
	return methods, nil
}

// Add crée un moyen de versement. Le premier d'un utilisateur, ou celui
// demandé par défaut, devient le seul par défaut.
func (s *PayoutService) Add(ctx context.Context, actor models.Actor, p PayoutParams) (*models.PayoutMethod, error) {
	if err := ValidatePayout(p); err != nil {
		return nil, err
	}
	existing, err := s.repo.ListPayoutMethods(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("Failed to add payout method: %w", err)
	}

	now := s.now()
	m := models.PayoutMethod{
		ID:                uuid.NewString(),
		UserID:            actor.ID,
		Type:              p.Type,
		AccountNumber:     NormalizeAccountNumber(p.AccountNumber),
		BankName:          strings.TrimSpace(p.BankName),
		AccountHolderName: strings.TrimSpace(p.AccountHolderName),
		IsDefault:         len(existing) == 0 || p.SetAsDefault,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	var writes []database.Write
	if m.IsDefault {
		writes = unsetDefaults(existing, m.ID, now)
	}
	writes = append(writes, database.CreateOp(repository.CollectionPayoutMethods, m.ID, repository.PayoutData(m)))
	if err := s.store.Commit(ctx, writes); err != nil {
		return nil, fmt.Errorf("Failed to add payout method: %w", err)
	}
	log.Printf("✅ Moyen de versement %s ajouté pour %s", m.ID, actor.ID)
	return &m, nil
}

// Update modifie un moyen de versement appartenant à l'acteur
func (s *PayoutService) Update(ctx context.Context, actor models.Actor, id string, p PayoutParams) (*models.PayoutMethod, error) {
	m, err := s.owned(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := ValidatePayout(p); err != nil {
		return nil, err
	}
	now := s.now()
	m.Type = p.Type
	m.AccountNumber = NormalizeAccountNumber(p.AccountNumber)
	m.BankName = strings.TrimSpace(p.BankName)
	m.AccountHolderName = strings.TrimSpace(p.AccountHolderName)
	m.UpdatedAt = now

	var writes []database.Write
	if p.SetAsDefault && !m.IsDefault {
		others, err := s.repo.ListPayoutMethods(ctx, m.UserID)
		if err != nil {
			return nil, fmt.Errorf("Failed to update payout method: %w", err)
		}
		writes = unsetDefaults(others, m.ID, now)
		m.IsDefault = true
	}
	writes = append(writes, database.SetOp(repository.CollectionPayoutMethods, m.ID, repository.PayoutData(*m)))
	if err := s.store.Commit(ctx, writes); err != nil {
		return nil, fmt.Errorf("Failed to update payout method: %w", err)
	}
	return m, nil
}

// SetDefault rend ce moyen de versement le seul par défaut
func (s *PayoutService) SetDefault(ctx context.Context, actor models.Actor, id string) (*models.PayoutMethod, error) {
	m, err := s.owned(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	others, err := s.repo.ListPayoutMethods(ctx, m.UserID)
	if err != nil {
		return nil, fmt.Errorf("Failed to set default payout method: %w", err)
	}
	now := s.now()
	writes := unsetDefaults(others, m.ID, now)
	writes = append(writes, database.UpdateOp(repository.CollectionPayoutMethods, m.ID, map[string]interface{}{
		"isDefault": true,
		"updatedAt": now,
	}))
	if err := s.store.Commit(ctx, writes); err != nil {
		return nil, fmt.Errorf("Failed to set default payout method: %w", err)
	}
	m.IsDefault = true
	m.UpdatedAt = now
	return m, nil
}

// Delete supprime le moyen de versement ; si c'était le défaut, le premier
// restant (ordre du store) est promu.
func (s *PayoutService) Delete(ctx context.Context, actor models.Actor, id string) error {
	m, err := s.owned(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, repository.CollectionPayoutMethods, id); err != nil {
		return fmt.Errorf("Failed to delete payout method: %w", err)
	}
	if !m.IsDefault {
		return nil
	}

	remaining, err := s.repo.ListPayoutMethods(ctx, m.UserID)
	if err != nil {
		log.Printf("⚠️ Promotion d'un nouveau moyen par défaut impossible pour %s: %v", m.UserID, err)
		return nil
	}
	if len(remaining) == 0 {
		return nil
	}
	if err := s.store.Update(ctx, repository.CollectionPayoutMethods, remaining[0].ID, map[string]interface{}{
		"isDefault": true,
		"updatedAt": s.now(),
	}); err != nil {
		log.Printf("⚠️ Promotion de %s par défaut échouée: %v", remaining[0].ID, err)
	}
	return nil
}

func (s *PayoutService) owned(ctx context.Context, actor models.Actor, id string) (*models.PayoutMethod, error) {
	m, err := s.repo.GetPayoutMethod(ctx, id)
	if err != nil {
		return nil, fromRepo(err, "Failed to load payout method")
	}
	if m.UserID != actor.ID && !actor.IsAdmin() {
		return nil, fmt.Errorf("%w: payout method %s", ErrUnauthorized, id)
	}
	return m, nil
}

func unsetDefaults(methods []models.PayoutMethod, keepID string, now time.Time) []database.Write {
	var writes []database.Write
	for _, other := range methods {
		if other.ID == keepID || !other.IsDefault {
			continue
		}
		writes = append(writes, database.UpdateOp(repository.CollectionPayoutMethods, other.ID, map[string]interface{}{
			"isDefault": false,
			"updatedAt": now,
		}))
	}
	return writes
}
