package models

import "time"

// VerificationTicket is a short-lived proof-of-email challenge.
type VerificationTicket struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CodeHash  string    `json:"code_hash"`
	Attempts  int       `json:"attempts"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

func (t VerificationTicket) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}
