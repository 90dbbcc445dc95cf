/**
 * @description
 * This file defines the on-chain purchase record and its status state machine.
 * A transaction is created when the buyer's payment is confirmed on-chain and
 * then advanced through a fixed set of statuses by buyer and seller actions.
 *
 * @notes
 * - Statuses only move forward; Cancelled and Finalized are terminal. The
 *   transition table is enforced here rather than trusting callers to send
 *   sensible integers.
 * - Amounts are ETH values carried as decimals to avoid float drift.
 */

package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status is the lifecycle position of a purchase.
type Status int

const (
	StatusPending   Status = 0 // buyer paid on-chain, awaiting delivery
	StatusDelivered Status = 1 // seller marked goods sent
	StatusConfirmed Status = 2 // buyer confirmed receipt
	StatusDisputed  Status = 3 // buyer raised a dispute
	StatusCancelled Status = 4 // seller confirmed return, terminal
	StatusFinalized Status = 5 // seller claimed funds, terminal
)

var statusNames = map[Status]string{
	StatusPending:   "Pending",
	StatusDelivered: "Delivered",
	StatusConfirmed: "Confirmed",
	StatusDisputed:  "Disputed",
	StatusCancelled: "Cancelled",
	StatusFinalized: "Finalized",
}

// String returns the human-readable status label.
func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "Unknown"
}

// Valid reports whether s is one of the defined statuses.
func (s Status) Valid() bool {
	_, ok := statusNames[s]
	return ok
}

// Terminal reports whether no further transitions are allowed from s.
func (s Status) Terminal() bool {
	return s == StatusCancelled || s == StatusFinalized
}

var validNext = map[Status]map[Status]bool{
	StatusPending:   {StatusDelivered: true, StatusConfirmed: true, StatusDisputed: true, StatusCancelled: true, StatusFinalized: true},
	StatusDelivered: {StatusConfirmed: true, StatusDisputed: true, StatusCancelled: true, StatusFinalized: true},
	StatusConfirmed: {StatusDisputed: true, StatusCancelled: true, StatusFinalized: true},
	StatusDisputed:  {StatusCancelled: true, StatusFinalized: true},
	StatusCancelled: {},
	StatusFinalized: {},
}

// CanTransition reports whether a purchase may move from one status to another.
func CanTransition(from, to Status) bool {
	return validNext[from][to]
}

// Transaction is the durable record of one purchase against a listing.
// TransactionID is the contract-side reference id, not the row key.
type Transaction struct {
	ID            uuid.UUID       `json:"-"`
	TransactionID int64           `json:"transaction_id"`
	ProductID     uuid.UUID       `json:"product_id"`
	Seller        string          `json:"seller"`
	Buyer         string          `json:"buyer"`
	Amount        decimal.Decimal `json:"amount"`
	Status        Status          `json:"status_num"`
	CreatedAt     time.Time       `json:"created_at"`
}

// CreateTransactionRequest is the DTO for recording a confirmed on-chain payment.
type CreateTransactionRequest struct {
	TransactionID int64           `json:"transaction_id"`
	Seller        string          `json:"seller"`
	Buyer         string          `json:"buyer"`
	Amount        decimal.Decimal `json:"amount"`
	ProductID     string          `json:"product_id"`
}

// UpdateTransactionRequest is the DTO for advancing a purchase's status.
type UpdateTransactionRequest struct {
	TransactionID int64 `json:"transaction_id"`
	NewStatus     int   `json:"new_status"`
}

// TransactionView is the API shape for transaction listings, decorated with
// product details for rendering purchase cards.
type TransactionView struct {
	TransactionID int64           `json:"transaction_id"`
	ProductID     uuid.UUID       `json:"product_id"`
	Seller        string          `json:"seller"`
	Buyer         string          `json:"buyer"`
	Amount        decimal.Decimal `json:"amount"`
	Status        string          `json:"status"`
	StatusNum     int             `json:"status_num"`
	ProductTitle  string          `json:"product_title"`
	Image         string          `json:"image,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}
