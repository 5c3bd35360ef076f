package models

import "time"

const (
	RoleUser       = "user"
	RoleAdvertiser = "advertiser"
	RoleAdmin      = "admin"
)

type User struct {
	ID            string    `json:"user_id"`
	Name          string    `json:"name,omitempty"`
	Email         string    `json:"email"`
	Password      string    `json:"-"`
	Role          string    `json:"role,omitempty"`
	Provider      string    `json:"provider,omitempty"`
	ProviderID    string    `json:"-"`
	EmailVerified bool      `json:"emailVerified"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Actor est l'identité explicite qui déclenche une opération
type Actor struct {
	ID    string
	Email string
	Role  string
}

func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }
