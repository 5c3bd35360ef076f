package models

import "time"

type PayoutType string

const (
	PayoutRIB  PayoutType = "RIB"
	PayoutIBAN PayoutType = "IBAN"
)

// PayoutMethod est un compte bancaire de versement d'un annonceur
type PayoutMethod struct {
	ID                string     `json:"id"`
	UserID            string     `json:"userId"`
	Type              PayoutType `json:"type"`
	AccountNumber     string     `json:"accountNumber"`
	BankName          string     `json:"bankName"`
	AccountHolderName string     `json:"accountHolderName"`
	IsDefault         bool       `json:"isDefault"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
}
