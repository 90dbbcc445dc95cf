/**
 * @description
 * Transaction lifecycle operations. A transaction is recorded once the buyer's
 * on-chain payment has confirmed, then advanced through the status machine by
 * buyer and seller actions. Every lifecycle event notifies both parties by
 * email with copy describing the same event from each perspective.
 */

package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/m-sabonkudi/Multi-Vendor-Ethereum-Marketplace/internal/domain"
	"github.com/m-sabonkudi/Multi-Vendor-Ethereum-Marketplace/internal/mailer"
	"github.com/m-sabonkudi/Multi-Vendor-Ethereum-Marketplace/internal/store"
	"github.com/m-sabonkudi/Multi-Vendor-Ethereum-Marketplace/pkg/ledgerclient"
	"github.com/m-sabonkudi/Multi-Vendor-Ethereum-Marketplace/pkg/rabbitmq"
)

// CreateTransaction records a confirmed on-chain payment. The record and the
// product's pending-transaction flag are persisted first and survive any later
// failure; the paired buyer/seller notifications follow. A dispatch failure is
// reported to the caller but never rolls the record back, since the payment
// already happened on-chain.
func (s *Service) CreateTransaction(ctx context.Context, req domain.CreateTransactionRequest) (*domain.Transaction, error) {
	if !req.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		return nil, store.ErrProductNotFound
	}
	product, err := s.repo.FindProductByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	buyer, err := s.repo.FindUserByAddress(ctx, domain.NormalizeAddress(req.Buyer))
	if err != nil {
		return nil, err
	}
	seller, err := s.repo.FindUserByAddress(ctx, domain.NormalizeAddress(req.Seller))
	if err != nil {
		return nil, err
	}

	txn := &domain.Transaction{
		ID:            uuid.New(),
		TransactionID: req.TransactionID,
		ProductID:     product.ID,
		Seller:        seller.Address,
		Buyer:         buyer.Address,
		Amount:        req.Amount,
		Status:        domain.StatusPending,
		CreatedAt:     s.now(),
	}
	if err := s.repo.CreateTransaction(ctx, txn); err != nil {
		return nil, fmt.Errorf("recording transaction: %w", err)
	}

	s.publish(ctx, rabbitmq.RouteTransactionCreated, domain.TransactionCreatedEvent{
		TransactionID: txn.TransactionID,
		ProductID:     txn.ProductID,
		Seller:        txn.Seller,
		Buyer:         txn.Buyer,
		Amount:        txn.Amount,
		Timestamp:     txn.CreatedAt,
	})

	if err := s.notifyCreated(ctx, txn, product, buyer, seller); err != nil {
		return txn, fmt.Errorf("transaction recorded, notification dispatch failed: %w", err)
	}
	return txn, nil
}

func (s *Service) notifyCreated(ctx context.Context, txn *domain.Transaction, product *domain.Product, buyer, seller *domain.User) error {
	buyerTitle, buyerBody := mailer.CreatedContent(mailer.RoleBuyer, txn.TransactionID, buyer.FirstName())
	sellerTitle, sellerBody := mailer.CreatedContent(mailer.RoleSeller, txn.TransactionID, seller.FirstName())

	buyerHTML, err := mailer.RenderTransactionEmail(buyerTitle, buyerBody, product)
	if err != nil {
		return err
	}
	sellerHTML, err := mailer.RenderTransactionEmail(sellerTitle, sellerBody, product)
	if err != nil {
		return err
	}

	if err := s.mail.Send(ctx, buyer.Email, buyerTitle, buyerHTML); err != nil {
		return err
	}
	return s.mail.Send(ctx, seller.Email, sellerTitle, sellerHTML)
}

// UpdateTransactionStatus advances a purchase to a new status. The transition
// table rejects backward moves and moves out of terminal states. Both parties'
// notifications are dispatched before the status is committed: if either send
// fails the status stays unchanged, so a retried request re-sends and commits
// in one piece.
func (s *Service) UpdateTransactionStatus(ctx context.Context, req domain.UpdateTransactionRequest) (domain.Status, error) {
	next := domain.Status(req.NewStatus)
	if !next.Valid() || next == domain.StatusPending {
		return 0, ErrInvalidStatus
	}

	txn, err := s.repo.FindTransactionByRef(ctx, req.TransactionID)
	if err != nil {
		return 0, err
	}
	if !domain.CanTransition(txn.Status, next) {
		return 0, fmt.Errorf("%w: %s to %s", ErrStatusNotAllowed, txn.Status, next)
	}

	product, err := s.repo.FindProductByID(ctx, txn.ProductID)
	if err != nil && !errors.Is(err, store.ErrProductNotFound) {
		return 0, err
	}
	buyer, err := s.repo.FindUserByAddress(ctx, txn.Buyer)
	if err != nil {
		return 0, err
	}
	seller, err := s.repo.FindUserByAddress(ctx, txn.Seller)
	if err != nil {
		return 0, err
	}

	if err := s.notifyStatus(ctx, next, txn.TransactionID, product, buyer, seller); err != nil {
		return 0, fmt.Errorf("notification dispatch failed, status unchanged: %w", err)
	}

	if err := s.repo.UpdateTransactionStatus(ctx, txn.ID, next); err != nil {
		return 0, fmt.Errorf("updating status: %w", err)
	}

	s.publish(ctx, rabbitmq.RouteTransactionUpdated, domain.TransactionStatusUpdatedEvent{
		TransactionID: txn.TransactionID,
		OldStatus:     int(txn.Status),
		NewStatus:     int(next),
		Timestamp:     s.now(),
	})
	return next, nil
}

func (s *Service) notifyStatus(ctx context.Context, next domain.Status, transactionID int64, product *domain.Product, buyer, seller *domain.User) error {
	buyerTitle, buyerBody, ok := mailer.StatusContent(next, mailer.RoleBuyer, transactionID, buyer.FirstName())
	if !ok {
		return ErrInvalidStatus
	}
	sellerTitle, sellerBody, _ := mailer.StatusContent(next, mailer.RoleSeller, transactionID, seller.FirstName())

	buyerHTML, err := mailer.RenderTransactionEmail(buyerTitle, buyerBody, product)
	if err != nil {
		return err
	}
	sellerHTML, err := mailer.RenderTransactionEmail(sellerTitle, sellerBody, product)
	if err != nil {
		return err
	}

	if err := s.mail.Send(ctx, buyer.Email, buyerTitle, buyerHTML); err != nil {
		return err
	}
	return s.mail.Send(ctx, seller.Email, sellerTitle, sellerHTML)
}

// ListTransactions returns a wallet's purchases and sales, decorated with
// product details.
func (s *Service) ListTransactions(ctx context.Context, address string) (asBuyer, asSeller []domain.TransactionView, err error) {
	return s.repo.ListTransactionsByWallet(ctx, domain.NormalizeAddress(address))
}

// Balance reports a wallet's withdrawable escrow balance and auto-withdraw
// preference from the contract. The query is read-only and never mutates
// chain state.
func (s *Service) Balance(ctx context.Context, address string) (*ledgerclient.BalanceResult, error) {
	if s.ledger == nil {
		return nil, ledgerclient.ErrConnect
	}
	return s.ledger.BalanceAndAutoWithdraw(ctx, address)
}
