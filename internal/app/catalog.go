/**
 * @description
 * Catalog and account operations: listing CRUD with image uploads, wishlists,
 * vendor upgrades, profile updates and the contact-form relay. Listings belong
 * to seller accounts; a listing with a recorded purchase can no longer be
 * deleted.
 */

package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/m-sabonkudi/Multi-Vendor-Ethereum-Marketplace/internal/domain"
	"github.com/m-sabonkudi/Multi-Vendor-Ethereum-Marketplace/internal/mailer"
	"github.com/m-sabonkudi/Multi-Vendor-Ethereum-Marketplace/internal/store"
)

// ImageUpload is one uploaded listing image.
type ImageUpload struct {
	Filename    string
	ContentType string
	Data        []byte
}

var unsafeFilename = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

// safeFilename strips path components and oddball characters from an uploaded
// filename, then prefixes a UUID so repeated uploads never collide.
func safeFilename(name string) string {
	base := filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	base = unsafeFilename.ReplaceAllString(base, "_")
	if base == "" || base == "." {
		base = "upload"
	}
	return uuid.NewString() + "_" + base
}

// ListProducts returns every listing in the catalog.
func (s *Service) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return s.repo.ListProducts(ctx)
}

// SellerProducts returns a seller's listings along with their display name.
func (s *Service) SellerProducts(ctx context.Context, address string) (string, []domain.Product, error) {
	user, err := s.repo.FindUserByAddress(ctx, domain.NormalizeAddress(address))
	if err != nil {
		return "", nil, err
	}
	products, err := s.repo.ListProductsBySeller(ctx, user.ID)
	if err != nil {
		return "", nil, err
	}
	return user.Name, products, nil
}

// GetProduct returns one listing by slug.
func (s *Service) GetProduct(ctx context.Context, slug string) (*domain.Product, error) {
	return s.repo.FindProductBySlug(ctx, slug)
}

// AddProduct creates a listing for a seller account. Images are uploaded to
// the seller's media prefix before the row is written; an upload failure
// aborts the whole add.
func (s *Service) AddProduct(ctx context.Context, req domain.UpsertProductRequest, images []ImageUpload) (string, error) {
	seller, err := s.repo.FindUserByAddress(ctx, domain.NormalizeAddress(req.Address))
	if err != nil {
		return "", err
	}
	if !seller.IsSeller {
		return "", ErrNotSeller
	}
	if !domain.KnownBrand(req.Brand) {
		return "", ErrUnknownBrand
	}
	if strings.TrimSpace(req.Title) == "" || !req.Price.IsPositive() {
		return "", ErrMissingFields
	}

	product := &domain.Product{
		ID:           uuid.New(),
		Title:        strings.TrimSpace(req.Title),
		Brand:        req.Brand,
		Model:        strings.TrimSpace(req.Model),
		Slug:         domain.Slugify(req.Title),
		FuelType:     req.FuelType,
		Transmission: req.Transmission,
		VehicleType:  req.VehicleType,
		Year:         req.Year,
		Description:  req.Description,
		Price:        req.Price,
		Mileage:      req.Mileage,
		SellerID:     seller.ID,
		CreatedAt:    s.now(),
	}

	urls, err := s.uploadImages(ctx, seller.Address, product.ID, images)
	if err != nil {
		return "", err
	}
	if err := s.repo.CreateProduct(ctx, product, urls); err != nil {
		return "", err
	}
	return product.Slug, nil
}

// EditProduct updates a listing's fields and image set. keepImageURLs names
// the existing images to retain; everything else is replaced by the new
// uploads.
func (s *Service) EditProduct(ctx context.Context, slug string, req domain.UpsertProductRequest, keepImageURLs []string, images []ImageUpload) error {
	product, err := s.repo.FindProductBySlug(ctx, slug)
	if err != nil {
		return err
	}
	caller, err := s.repo.FindUserByAddress(ctx, domain.NormalizeAddress(req.Address))
	if err != nil {
		return err
	}
	if caller.ID != product.SellerID {
		return ErrNotOwner
	}
	if !domain.KnownBrand(req.Brand) {
		return ErrUnknownBrand
	}
	if strings.TrimSpace(req.Title) == "" || !req.Price.IsPositive() {
		return ErrMissingFields
	}

	product.Title = strings.TrimSpace(req.Title)
	product.Brand = req.Brand
	product.Model = strings.TrimSpace(req.Model)
	product.FuelType = req.FuelType
	product.Transmission = req.Transmission
	product.VehicleType = req.VehicleType
	product.Year = req.Year
	product.Description = req.Description
	product.Price = req.Price
	product.Mileage = req.Mileage

	urls, err := s.uploadImages(ctx, caller.Address, product.ID, images)
	if err != nil {
		return err
	}
	return s.repo.UpdateProduct(ctx, product, keepImageURLs, urls)
}

// DeleteProduct removes a listing and its stored images. A listing with a
// recorded purchase is refused; its record backs an open transaction.
func (s *Service) DeleteProduct(ctx context.Context, slug, callerAddress string) error {
	product, err := s.repo.FindProductBySlug(ctx, slug)
	if err != nil {
		return err
	}
	caller, err := s.repo.FindUserByAddress(ctx, domain.NormalizeAddress(callerAddress))
	if err != nil {
		return err
	}
	if caller.ID != product.SellerID {
		return ErrNotOwner
	}
	if product.HasTransaction {
		return store.ErrProductHasTransaction
	}

	if err := s.repo.DeleteProduct(ctx, product.ID); err != nil {
		return err
	}
	if s.media != nil {
		if err := s.media.DeleteProductImages(ctx, caller.Address, product.ID.String()); err != nil {
			log.Printf("level=warn component=app msg=\"failed to delete listing images\" product=%s error=%v", product.Slug, err)
		}
	}
	return nil
}

func (s *Service) uploadImages(ctx context.Context, address string, productID uuid.UUID, images []ImageUpload) ([]string, error) {
	if len(images) == 0 {
		return nil, nil
	}
	if s.media == nil {
		return nil, errors.New("media storage is not configured")
	}
	urls := make([]string, 0, len(images))
	for _, img := range images {
		url, err := s.media.PutImage(ctx, address, productID.String(), safeFilename(img.Filename), img.Data, img.ContentType)
		if err != nil {
			return nil, fmt.Errorf("uploading image %s: %w", img.Filename, err)
		}
		urls = append(urls, url)
	}
	return urls, nil
}

// Wishlist returns the product ids a user has saved.
func (s *Service) Wishlist(ctx context.Context, address string) ([]uuid.UUID, error) {
	user, err := s.repo.FindUserByAddress(ctx, domain.NormalizeAddress(address))
	if err != nil {
		return nil, err
	}
	return s.repo.ListWishlist(ctx, user.ID)
}

// AddToWishlist saves a listing to a user's wishlist. Re-adding is a no-op.
func (s *Service) AddToWishlist(ctx context.Context, address string, productID uuid.UUID) error {
	user, err := s.repo.FindUserByAddress(ctx, domain.NormalizeAddress(address))
	if err != nil {
		return err
	}
	if _, err := s.repo.FindProductByID(ctx, productID); err != nil {
		return err
	}
	return s.repo.AddWishlistItem(ctx, user.ID, productID)
}

// RemoveFromWishlist drops a listing from a user's wishlist.
func (s *Service) RemoveFromWishlist(ctx context.Context, address string, productID uuid.UUID) error {
	user, err := s.repo.FindUserByAddress(ctx, domain.NormalizeAddress(address))
	if err != nil {
		return err
	}
	return s.repo.RemoveWishlistItem(ctx, user.ID, productID)
}

// UserByAddress returns the account registered for a wallet address.
func (s *Service) UserByAddress(ctx context.Context, address string) (*domain.User, error) {
	return s.repo.FindUserByAddress(ctx, domain.NormalizeAddress(address))
}

// UpdateName changes an account's display name.
func (s *Service) UpdateName(ctx context.Context, address, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrMissingFields
	}
	return s.repo.UpdateUserName(ctx, domain.NormalizeAddress(address), domain.CapitalizeName(name))
}

// MakeVendor upgrades an account to a seller account and provisions its media
// prefix. Upgrading an existing seller is a no-op.
func (s *Service) MakeVendor(ctx context.Context, address string) error {
	addr := domain.NormalizeAddress(address)
	if _, err := s.repo.FindUserByAddress(ctx, addr); err != nil {
		return err
	}
	if err := s.repo.MakeSeller(ctx, addr); err != nil {
		return err
	}
	if s.media != nil {
		if err := s.media.EnsureUserPrefix(ctx, addr); err != nil {
			log.Printf("level=warn component=app msg=\"failed to provision media prefix\" address=%s error=%v", addr, err)
		}
	}
	return nil
}

// Contact relays a contact-form submission to the operator mailbox.
func (s *Service) Contact(ctx context.Context, req domain.ContactRequest) error {
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Email) == "" || strings.TrimSpace(req.Message) == "" {
		return ErrMissingFields
	}
	body, err := mailer.RenderContactEmail(mailer.ContactContent(req))
	if err != nil {
		return fmt.Errorf("rendering contact email: %w", err)
	}
	subject := strings.TrimSpace(req.Subject)
	if subject == "" {
		subject = "Message from Contact Page"
	}
	return s.mail.Send(ctx, s.operatorEmail, subject, body)
}
