/**
 * @description
 * This file defines the `Repository` interface, the contract for all data
 * access the marketplace service needs. The interface keeps business logic
 * decoupled from the PostgreSQL implementation and lets tests substitute
 * lightweight stubs.
 */

package store

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/m-sabonkudi/Multi-Vendor-Ethereum-Marketplace/internal/domain"
)

var (
	ErrUserNotFound          = errors.New("user not found")
	ErrProductNotFound       = errors.New("product not found")
	ErrTransactionNotFound   = errors.New("transaction not found")
	ErrEmailTaken            = errors.New("email has been taken")
	ErrAddressTaken          = errors.New("wallet address already registered")
	ErrProductHasTransaction = errors.New("product has transaction")
)

// Repository defines the set of methods for interacting with the database.
type Repository interface {
	// User methods. Address lookups are case-insensitive; addresses are
	// stored lowercased.
	CreateUser(ctx context.Context, user *domain.User) error
	FindUserByEmail(ctx context.Context, email string) (*domain.User, error)
	FindUserByAddress(ctx context.Context, address string) (*domain.User, error)
	UpdateUserName(ctx context.Context, address, name string) error
	MakeSeller(ctx context.Context, address string) error

	// Product methods
	ListProducts(ctx context.Context) ([]domain.Product, error)
	ListProductsBySeller(ctx context.Context, sellerID uuid.UUID) ([]domain.Product, error)
	FindProductBySlug(ctx context.Context, slug string) (*domain.Product, error)
	FindProductByID(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	CreateProduct(ctx context.Context, product *domain.Product, imageURLs []string) error
	UpdateProduct(ctx context.Context, product *domain.Product, keepImageURLs, newImageURLs []string) error
	DeleteProduct(ctx context.Context, id uuid.UUID) error

	// Wishlist methods
	ListWishlist(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
	AddWishlistItem(ctx context.Context, userID, productID uuid.UUID) error
	RemoveWishlistItem(ctx context.Context, userID, productID uuid.UUID) error

	// Transaction methods. CreateTransaction persists the record and raises
	// the product's pending-transaction flag in one database transaction.
	CreateTransaction(ctx context.Context, tx *domain.Transaction) error
	FindTransactionByRef(ctx context.Context, transactionID int64) (*domain.Transaction, error)
	UpdateTransactionStatus(ctx context.Context, id uuid.UUID, status domain.Status) error
	ListTransactionsByWallet(ctx context.Context, address string) (asBuyer, asSeller []domain.TransactionView, err error)
}
