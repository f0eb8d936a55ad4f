package models

import "time"

type Payment struct {
	ID            int64         `json:"id" db:"id"`
	BookingID     int64         `json:"booking_id" db:"booking_id"`
	Method        PaymentMethod `json:"method" db:"method"`
	Amount        Money         `json:"amount" db:"amount"`
	Status        PaymentStatus `json:"status" db:"status"`
	TransactionID string        `json:"transaction_id" db:"transaction_id"`
	PaidAt        *time.Time    `json:"paid_at,omitempty" db:"paid_at"`
	CreatedAt     time.Time     `json:"created_at" db:"created_at"`
}
