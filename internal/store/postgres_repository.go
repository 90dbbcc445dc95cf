/**
 * @description
 * PostgreSQL implementation of the `Repository` interface. All queries run
 * through a pgx connection pool; listing reads join the seller and aggregate
 * image URLs so a product row comes back render-ready.
 *
 * @dependencies
 * - github.com/jackc/pgx/v5: PostgreSQL driver and pool.
 * - internal/domain: domain models used for data transfer.
 */

package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/m-sabonkudi/Multi-Vendor-Ethereum-Marketplace/internal/domain"
)

// PostgresRepository is the pgx-backed implementation of Repository.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository creates a new instance of PostgresRepository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const uniqueViolation = "23505"

// CreateUser inserts a new user record. Unique violations on email or address
// are translated to the matching sentinel error.
func (r *PostgresRepository) CreateUser(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (id, email, name, address, is_seller, is_admin)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`
	err := r.db.QueryRow(ctx, query,
		user.ID,
		user.Email,
		user.Name,
		user.Address,
		user.IsSeller,
		user.IsAdmin,
	).Scan(&user.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			if pgErr.ConstraintName == "users_address_key" {
				return ErrAddressTaken
			}
			return ErrEmailTaken
		}
		return err
	}
	return nil
}

func (r *PostgresRepository) FindUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT id, email, name, address, is_seller, is_admin, created_at FROM users WHERE email = $1`
	return r.scanUser(r.db.QueryRow(ctx, query, email))
}

func (r *PostgresRepository) FindUserByAddress(ctx context.Context, address string) (*domain.User, error) {
	query := `SELECT id, email, name, address, is_seller, is_admin, created_at FROM users WHERE address = lower($1)`
	return r.scanUser(r.db.QueryRow(ctx, query, address))
}

func (r *PostgresRepository) scanUser(row pgx.Row) (*domain.User, error) {
	var user domain.User
	err := row.Scan(&user.ID, &user.Email, &user.Name, &user.Address, &user.IsSeller, &user.IsAdmin, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *PostgresRepository) UpdateUserName(ctx context.Context, address, name string) error {
	tag, err := r.db.Exec(ctx, `UPDATE users SET name = $2 WHERE address = lower($1)`, address, name)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// MakeSeller flips the is_seller flag. The upgrade is monotonic; repeating it
// is a no-op rather than an error.
func (r *PostgresRepository) MakeSeller(ctx context.Context, address string) error {
	tag, err := r.db.Exec(ctx, `UPDATE users SET is_seller = TRUE WHERE address = lower($1)`, address)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

const productSelect = `
	SELECT p.id, p.title, p.brand, p.model, p.slug, p.fuel_type, p.transmission,
	       p.vehicle_type, p.year, p.description, p.price, p.mileage,
	       p.has_transaction, p.seller_id, u.name, u.address, p.created_at,
	       COALESCE(array_agg(i.path ORDER BY i.created_at) FILTER (WHERE i.path IS NOT NULL), '{}')
	FROM products p
	JOIN users u ON u.id = p.seller_id
	LEFT JOIN images i ON i.product_id = p.id
`

const productGroupBy = ` GROUP BY p.id, u.name, u.address`

func (r *PostgresRepository) ListProducts(ctx context.Context) ([]domain.Product, error) {
	rows, err := r.db.Query(ctx, productSelect+productGroupBy+` ORDER BY p.created_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanProducts(rows)
}

func (r *PostgresRepository) ListProductsBySeller(ctx context.Context, sellerID uuid.UUID) ([]domain.Product, error) {
	rows, err := r.db.Query(ctx, productSelect+` WHERE p.seller_id = $1`+productGroupBy+` ORDER BY p.created_at ASC`, sellerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanProducts(rows)
}

func (r *PostgresRepository) FindProductBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	rows, err := r.db.Query(ctx, productSelect+` WHERE p.slug = $1`+productGroupBy, slug)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return oneProduct(rows)
}

func (r *PostgresRepository) FindProductByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	rows, err := r.db.Query(ctx, productSelect+` WHERE p.id = $1`+productGroupBy, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return oneProduct(rows)
}

func scanProducts(rows pgx.Rows) ([]domain.Product, error) {
	products := []domain.Product{}
	for rows.Next() {
		var p domain.Product
		err := rows.Scan(
			&p.ID, &p.Title, &p.Brand, &p.Model, &p.Slug, &p.FuelType, &p.Transmission,
			&p.VehicleType, &p.Year, &p.Description, &p.Price, &p.Mileage,
			&p.HasTransaction, &p.SellerID, &p.SellerName, &p.SellerAddress, &p.CreatedAt,
			&p.Images,
		)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func oneProduct(rows pgx.Rows) (*domain.Product, error) {
	products, err := scanProducts(rows)
	if err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return nil, ErrProductNotFound
	}
	return &products[0], nil
}

// CreateProduct inserts the listing and its image rows in one transaction.
func (r *PostgresRepository) CreateProduct(ctx context.Context, product *domain.Product, imageURLs []string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO products (id, title, brand, model, slug, fuel_type, transmission,
		                      vehicle_type, year, description, price, mileage, seller_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING created_at
	`
	err = tx.QueryRow(ctx, query,
		product.ID, product.Title, product.Brand, product.Model, product.Slug,
		product.FuelType, product.Transmission, product.VehicleType, product.Year,
		product.Description, product.Price, product.Mileage, product.SellerID,
	).Scan(&product.CreatedAt)
	if err != nil {
		return err
	}

	for _, path := range imageURLs {
		if _, err := tx.Exec(ctx, `INSERT INTO images (id, path, product_id) VALUES ($1, $2, $3)`, uuid.New(), path, product.ID); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// UpdateProduct rewrites the mutable listing fields, removes image rows not in
// keepImageURLs, and appends newImageURLs.
func (r *PostgresRepository) UpdateProduct(ctx context.Context, product *domain.Product, keepImageURLs, newImageURLs []string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	query := `
		UPDATE products
		SET title = $2, brand = $3, model = $4, fuel_type = $5, transmission = $6,
		    vehicle_type = $7, year = $8, description = $9, price = $10, mileage = $11
		WHERE id = $1
	`
	tag, err := tx.Exec(ctx, query,
		product.ID, product.Title, product.Brand, product.Model, product.FuelType,
		product.Transmission, product.VehicleType, product.Year, product.Description,
		product.Price, product.Mileage,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrProductNotFound
	}

	if keepImageURLs == nil {
		keepImageURLs = []string{}
	}
	if _, err := tx.Exec(ctx, `DELETE FROM images WHERE product_id = $1 AND NOT (path = ANY($2))`, product.ID, keepImageURLs); err != nil {
		return err
	}
	for _, path := range newImageURLs {
		if _, err := tx.Exec(ctx, `INSERT INTO images (id, path, product_id) VALUES ($1, $2, $3)`, uuid.New(), path, product.ID); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// DeleteProduct removes a listing. Listings that have a recorded transaction
// are protected by the service layer before this is called; image rows go with
// the product via ON DELETE CASCADE.
func (r *PostgresRepository) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (r *PostgresRepository) ListWishlist(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.db.Query(ctx, `SELECT product_id FROM wishlists WHERE user_id = $1 ORDER BY created_at ASC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []uuid.UUID{}
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// AddWishlistItem is idempotent: re-wishlisting the same product is a no-op.
func (r *PostgresRepository) AddWishlistItem(ctx context.Context, userID, productID uuid.UUID) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO wishlists (id, user_id, product_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, product_id) DO NOTHING
	`, uuid.New(), userID, productID)
	return err
}

func (r *PostgresRepository) RemoveWishlistItem(ctx context.Context, userID, productID uuid.UUID) error {
	_, err := r.db.Exec(ctx, `DELETE FROM wishlists WHERE user_id = $1 AND product_id = $2`, userID, productID)
	return err
}

// CreateTransaction persists the purchase record at its initial status and
// raises the product's pending-transaction flag in the same database
// transaction. The flag write is monotonic: it never goes back to false here.
func (r *PostgresRepository) CreateTransaction(ctx context.Context, txn *domain.Transaction) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO transactions (id, transaction_id, product_id, seller, buyer, amount, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`
	err = tx.QueryRow(ctx, query,
		txn.ID, txn.TransactionID, txn.ProductID, txn.Seller, txn.Buyer, txn.Amount, int(txn.Status),
	).Scan(&txn.CreatedAt)
	if err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `UPDATE products SET has_transaction = TRUE WHERE id = $1 AND has_transaction = FALSE`, txn.ProductID); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// FindTransactionByRef looks a purchase up by its contract-side reference id.
// Reference ids can repeat across retries; the most recent record wins.
func (r *PostgresRepository) FindTransactionByRef(ctx context.Context, transactionID int64) (*domain.Transaction, error) {
	var txn domain.Transaction
	var status int
	query := `
		SELECT id, transaction_id, product_id, seller, buyer, amount, status, created_at
		FROM transactions
		WHERE transaction_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`
	err := r.db.QueryRow(ctx, query, transactionID).Scan(
		&txn.ID, &txn.TransactionID, &txn.ProductID, &txn.Seller, &txn.Buyer, &txn.Amount, &status, &txn.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}
	txn.Status = domain.Status(status)
	return &txn, nil
}

func (r *PostgresRepository) UpdateTransactionStatus(ctx context.Context, id uuid.UUID, status domain.Status) error {
	tag, err := r.db.Exec(ctx, `UPDATE transactions SET status = $2 WHERE id = $1`, id, int(status))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrTransactionNotFound
	}
	return nil
}

const transactionViewSelect = `
	SELECT t.transaction_id, t.product_id, t.seller, t.buyer, t.amount, t.status,
	       p.title, COALESCE((SELECT i.path FROM images i WHERE i.product_id = p.id ORDER BY i.created_at LIMIT 1), ''),
	       t.created_at
	FROM transactions t
	JOIN products p ON p.id = t.product_id
`

// ListTransactionsByWallet returns the wallet's purchases and sales separately.
func (r *PostgresRepository) ListTransactionsByWallet(ctx context.Context, address string) ([]domain.TransactionView, []domain.TransactionView, error) {
	asBuyer, err := r.queryTransactionViews(ctx, transactionViewSelect+` WHERE t.buyer = lower($1) ORDER BY t.created_at DESC`, address)
	if err != nil {
		return nil, nil, err
	}
	asSeller, err := r.queryTransactionViews(ctx, transactionViewSelect+` WHERE t.seller = lower($1) ORDER BY t.created_at DESC`, address)
	if err != nil {
		return nil, nil, err
	}
	return asBuyer, asSeller, nil
}

func (r *PostgresRepository) queryTransactionViews(ctx context.Context, query string, args ...any) ([]domain.TransactionView, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	views := []domain.TransactionView{}
	for rows.Next() {
		var v domain.TransactionView
		var status int
		err := rows.Scan(&v.TransactionID, &v.ProductID, &v.Seller, &v.Buyer, &v.Amount, &status, &v.ProductTitle, &v.Image, &v.CreatedAt)
		if err != nil {
			return nil, err
		}
		v.StatusNum = status
		v.Status = domain.Status(status).String()
		views = append(views, v)
	}
	return views, rows.Err()
}
