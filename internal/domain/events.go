/**
 * @description
 * Event payloads published to the message broker after state changes commit.
 * Delivery is best-effort: emails are the contractual notification channel,
 * these events exist for downstream consumers (analytics, audit).
 */

package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// UserRegisteredEvent is published once an OTP verification creates an account.
type UserRegisteredEvent struct {
	UserID    uuid.UUID `json:"user_id"`
	Email     string    `json:"email"`
	Address   string    `json:"address"`
	Timestamp time.Time `json:"timestamp"`
}

// TransactionCreatedEvent is published when an on-chain payment is recorded.
type TransactionCreatedEvent struct {
	TransactionID int64           `json:"transaction_id"`
	ProductID     uuid.UUID       `json:"product_id"`
	Seller        string          `json:"seller"`
	Buyer         string          `json:"buyer"`
	Amount        decimal.Decimal `json:"amount"`
	Timestamp     time.Time       `json:"timestamp"`
}

// TransactionStatusUpdatedEvent is published after a status change commits.
type TransactionStatusUpdatedEvent struct {
	TransactionID int64     `json:"transaction_id"`
	OldStatus     int       `json:"old_status"`
	NewStatus     int       `json:"new_status"`
	Timestamp     time.Time `json:"timestamp"`
}
