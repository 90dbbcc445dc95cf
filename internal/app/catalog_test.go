package app

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m-sabonkudi/Multi-Vendor-Ethereum-Marketplace/internal/domain"
	"github.com/m-sabonkudi/Multi-Vendor-Ethereum-Marketplace/internal/store"
)

type catalogRepo struct {
	*stubRepo
	wishlists map[uuid.UUID]map[uuid.UUID]bool
	deleted   []uuid.UUID
}

func newCatalogRepo() *catalogRepo {
	return &catalogRepo{stubRepo: newStubRepo(), wishlists: make(map[uuid.UUID]map[uuid.UUID]bool)}
}

func (r *catalogRepo) CreateProduct(_ context.Context, product *domain.Product, imageURLs []string) error {
	product.Images = imageURLs
	r.products[product.ID] = product
	return nil
}

func (r *catalogRepo) UpdateProduct(_ context.Context, product *domain.Product, keepImageURLs, newImageURLs []string) error {
	product.Images = append(append([]string{}, keepImageURLs...), newImageURLs...)
	r.products[product.ID] = product
	return nil
}

func (r *catalogRepo) DeleteProduct(_ context.Context, id uuid.UUID) error {
	if _, ok := r.products[id]; !ok {
		return store.ErrProductNotFound
	}
	delete(r.products, id)
	r.deleted = append(r.deleted, id)
	return nil
}

func (r *catalogRepo) FindProductBySlug(_ context.Context, slug string) (*domain.Product, error) {
	for _, p := range r.products {
		if p.Slug == slug {
			return p, nil
		}
	}
	return nil, store.ErrProductNotFound
}

func (r *catalogRepo) ListWishlist(_ context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for id := range r.wishlists[userID] {
		ids = append(ids, id)
	}
	return ids, nil
}

func (r *catalogRepo) AddWishlistItem(_ context.Context, userID, productID uuid.UUID) error {
	if r.wishlists[userID] == nil {
		r.wishlists[userID] = make(map[uuid.UUID]bool)
	}
	r.wishlists[userID][productID] = true
	return nil
}

func (r *catalogRepo) RemoveWishlistItem(_ context.Context, userID, productID uuid.UUID) error {
	delete(r.wishlists[userID], productID)
	return nil
}

func (r *catalogRepo) MakeSeller(_ context.Context, address string) error {
	u, ok := r.usersByAddress[address]
	if !ok {
		return store.ErrUserNotFound
	}
	u.IsSeller = true
	return nil
}

func (r *catalogRepo) UpdateUserName(_ context.Context, address, name string) error {
	u, ok := r.usersByAddress[address]
	if !ok {
		return store.ErrUserNotFound
	}
	u.Name = name
	return nil
}

// memoryMedia is an in-memory objstore.Store stub.
type memoryMedia struct {
	prefixes []string
	puts     []string
	deletes  []string
	putErr   error
}

func (m *memoryMedia) EnsureUserPrefix(_ context.Context, address string) error {
	m.prefixes = append(m.prefixes, address)
	return nil
}

func (m *memoryMedia) PutImage(_ context.Context, address, productID, filename string, _ []byte, _ string) (string, error) {
	if m.putErr != nil {
		return "", m.putErr
	}
	key := fmt.Sprintf("%s/%s/%s", address, productID, filename)
	m.puts = append(m.puts, key)
	return "https://media.test/" + key, nil
}

func (m *memoryMedia) DeleteProductImages(_ context.Context, address, productID string) error {
	m.deletes = append(m.deletes, address+"/"+productID)
	return nil
}

func newCatalogService(repo *catalogRepo, media *memoryMedia) *Service {
	svc, _ := newTestService(repo.stubRepo, &stubMailer{})
	svc.repo = repo
	svc.media = media
	return svc
}

func sellerAccount(repo *catalogRepo) *domain.User {
	seller := &domain.User{ID: uuid.New(), Email: "seller@example.com", Name: "Sally", Address: "0xseller", IsSeller: true}
	repo.addUser(seller)
	return seller
}

func validUpsert(address string) domain.UpsertProductRequest {
	return domain.UpsertProductRequest{
		Title:   "Tesla Model 3 Long Range",
		Brand:   "Tesla",
		Model:   "Model 3",
		Price:   decimal.RequireFromString("1.5"),
		Address: address,
	}
}

func TestAddProduct_CreatesListingWithImages(t *testing.T) {
	repo := newCatalogRepo()
	media := &memoryMedia{}
	svc := newCatalogService(repo, media)
	sellerAccount(repo)

	slug, err := svc.AddProduct(context.Background(), validUpsert("0xSELLER"), []ImageUpload{
		{Filename: "front.jpg", ContentType: "image/jpeg", Data: []byte("x")},
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(slug, "tesla-model-3-long-range-"))

	product, err := svc.GetProduct(context.Background(), slug)
	require.NoError(t, err)
	require.Len(t, product.Images, 1)
	assert.Contains(t, product.Images[0], "0xseller/")
	assert.Contains(t, product.Images[0], "front.jpg")
}

func TestAddProduct_RejectsNonSellerAndUnknownBrand(t *testing.T) {
	repo := newCatalogRepo()
	svc := newCatalogService(repo, &memoryMedia{})
	repo.addUser(&domain.User{ID: uuid.New(), Email: "b@example.com", Address: "0xbuyer"})
	sellerAccount(repo)

	_, err := svc.AddProduct(context.Background(), validUpsert("0xbuyer"), nil)
	assert.ErrorIs(t, err, ErrNotSeller)

	req := validUpsert("0xseller")
	req.Brand = "Yugo"
	_, err = svc.AddProduct(context.Background(), req, nil)
	assert.ErrorIs(t, err, ErrUnknownBrand)
}

func TestEditProduct_OnlyOwnerMayEdit(t *testing.T) {
	repo := newCatalogRepo()
	svc := newCatalogService(repo, &memoryMedia{})
	sellerAccount(repo)
	other := &domain.User{ID: uuid.New(), Email: "other@example.com", Address: "0xother", IsSeller: true}
	repo.addUser(other)

	slug, err := svc.AddProduct(context.Background(), validUpsert("0xseller"), nil)
	require.NoError(t, err)

	err = svc.EditProduct(context.Background(), slug, validUpsert("0xother"), nil, nil)
	assert.ErrorIs(t, err, ErrNotOwner)

	req := validUpsert("0xseller")
	req.Title = "Tesla Model 3 Performance"
	require.NoError(t, svc.EditProduct(context.Background(), slug, req, nil, nil))

	product, err := svc.GetProduct(context.Background(), slug)
	require.NoError(t, err)
	assert.Equal(t, "Tesla Model 3 Performance", product.Title)
}

func TestDeleteProduct_BlockedByRecordedTransaction(t *testing.T) {
	repo := newCatalogRepo()
	media := &memoryMedia{}
	svc := newCatalogService(repo, media)
	sellerAccount(repo)

	slug, err := svc.AddProduct(context.Background(), validUpsert("0xseller"), nil)
	require.NoError(t, err)
	product, err := svc.GetProduct(context.Background(), slug)
	require.NoError(t, err)

	product.HasTransaction = true
	err = svc.DeleteProduct(context.Background(), slug, "0xseller")
	assert.ErrorIs(t, err, store.ErrProductHasTransaction)

	product.HasTransaction = false
	require.NoError(t, svc.DeleteProduct(context.Background(), slug, "0xseller"))
	assert.Len(t, repo.deleted, 1)
	assert.Len(t, media.deletes, 1)
}

func TestWishlist_AddListRemove(t *testing.T) {
	repo := newCatalogRepo()
	svc := newCatalogService(repo, &memoryMedia{})
	sellerAccount(repo)
	user := &domain.User{ID: uuid.New(), Email: "u@example.com", Address: "0xuser"}
	repo.addUser(user)

	slug, err := svc.AddProduct(context.Background(), validUpsert("0xseller"), nil)
	require.NoError(t, err)
	product, err := svc.GetProduct(context.Background(), slug)
	require.NoError(t, err)

	require.NoError(t, svc.AddToWishlist(context.Background(), "0xUSER", product.ID))
	ids, err := svc.Wishlist(context.Background(), "0xuser")
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{product.ID}, ids)

	err = svc.AddToWishlist(context.Background(), "0xuser", uuid.New())
	assert.ErrorIs(t, err, store.ErrProductNotFound)

	require.NoError(t, svc.RemoveFromWishlist(context.Background(), "0xuser", product.ID))
	ids, err = svc.Wishlist(context.Background(), "0xuser")
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestMakeVendor_UpgradesAndProvisionsPrefix(t *testing.T) {
	repo := newCatalogRepo()
	media := &memoryMedia{}
	svc := newCatalogService(repo, media)
	user := &domain.User{ID: uuid.New(), Email: "u@example.com", Address: "0xuser"}
	repo.addUser(user)

	require.NoError(t, svc.MakeVendor(context.Background(), "0xUSER"))
	assert.True(t, user.IsSeller)
	assert.Equal(t, []string{"0xuser"}, media.prefixes)

	err := svc.MakeVendor(context.Background(), "0xnobody")
	assert.ErrorIs(t, err, store.ErrUserNotFound)
}

func TestUpdateName_TrimsAndCapitalizes(t *testing.T) {
	repo := newCatalogRepo()
	svc := newCatalogService(repo, &memoryMedia{})
	user := &domain.User{ID: uuid.New(), Email: "u@example.com", Name: "Old", Address: "0xuser"}
	repo.addUser(user)

	require.NoError(t, svc.UpdateName(context.Background(), "0xuser", "  grace hopper "))
	assert.Equal(t, "Grace hopper", user.Name)

	err := svc.UpdateName(context.Background(), "0xuser", "   ")
	assert.ErrorIs(t, err, ErrMissingFields)
}

func TestContact_RelaysToOperatorMailbox(t *testing.T) {
	repo := newCatalogRepo()
	mail := &stubMailer{}
	svc, _ := newTestService(repo.stubRepo, mail)

	err := svc.Contact(context.Background(), domain.ContactRequest{
		Name: "Ada", Email: "ada@example.com", Subject: "Broken listing", Message: "Hello there",
	})
	require.NoError(t, err)
	require.Len(t, mail.sent, 1)
	assert.Equal(t, "ops@example.com", mail.sent[0].To)
	assert.Equal(t, "Broken listing", mail.sent[0].Subject)
	assert.Contains(t, mail.sent[0].Body, "Hello there")

	// a blank subject falls back to the fixed one
	err = svc.Contact(context.Background(), domain.ContactRequest{
		Name: "Ada", Email: "ada@example.com", Message: "Hi",
	})
	require.NoError(t, err)
	require.Len(t, mail.sent, 2)
	assert.Equal(t, "Message from Contact Page", mail.sent[1].Subject)

	err = svc.Contact(context.Background(), domain.ContactRequest{Name: "Ada"})
	assert.ErrorIs(t, err, ErrMissingFields)
}
