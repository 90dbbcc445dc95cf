/**
 * @description
 * This file contains the HTTP handlers for the marketplace API endpoints.
 * Handlers are responsible for parsing incoming requests, calling the
 * appropriate methods on the application service, and writing the HTTP
 * response. They act as the bridge between the web layer and the business
 * logic layer.
 *
 * @dependencies
 * - encoding/json, log, net/http: Standard Go libraries.
 * - internal/app, internal/domain, internal/store: For service logic, models, and custom errors.
 */

package api

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/m-sabonkudi/Multi-Vendor-Ethereum-Marketplace/internal/app"
	"github.com/m-sabonkudi/Multi-Vendor-Ethereum-Marketplace/internal/domain"
	"github.com/m-sabonkudi/Multi-Vendor-Ethereum-Marketplace/internal/store"
	"github.com/m-sabonkudi/Multi-Vendor-Ethereum-Marketplace/pkg/ledgerclient"
)

// maxUploadBytes bounds multipart listing uploads.
const maxUploadBytes = 32 << 20

// Handlers holds the application service that handlers will use.
type Handlers struct {
	service *app.Service
	tokens  *SessionTokens
}

// NewHandlers creates a new instance of Handlers.
func NewHandlers(service *app.Service, tokens *SessionTokens) *Handlers {
	return &Handlers{service: service, tokens: tokens}
}

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

func (h *Handlers) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}

// writeServiceError maps service sentinels onto HTTP statuses. Anything
// unrecognized is logged and reported as a 500 with the underlying message,
// matching the dispatch-error contract.
func (h *Handlers) writeServiceError(w http.ResponseWriter, endpoint string, err error) {
	switch {
	case errors.Is(err, app.ErrMissingFields),
		errors.Is(err, app.ErrInvalidAmount),
		errors.Is(err, app.ErrInvalidStatus),
		errors.Is(err, app.ErrStatusNotAllowed),
		errors.Is(err, app.ErrUnknownBrand),
		errors.Is(err, app.ErrInvalidOTP),
		errors.Is(err, app.ErrOTPExpired),
		errors.Is(err, app.ErrNoPendingRegistration),
		errors.Is(err, store.ErrProductHasTransaction),
		errors.Is(err, ledgerclient.ErrInvalidAddress):
		h.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrUserNotFound),
		errors.Is(err, store.ErrProductNotFound),
		errors.Is(err, store.ErrTransactionNotFound):
		h.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, store.ErrEmailTaken),
		errors.Is(err, store.ErrAddressTaken):
		h.writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, app.ErrNotSeller),
		errors.Is(err, app.ErrNotOwner):
		h.writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, ledgerclient.ErrConnect):
		h.writeError(w, http.StatusInternalServerError, "Failed to connect.")
	default:
		log.Printf("level=error component=api endpoint=%s err=%v", endpoint, err)
		h.writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// RegisterHandler starts an OTP registration. An existing valid session token
// is reused so a re-request overwrites that session's pending registration;
// otherwise a fresh token is minted and returned to the client.
func (h *Handlers) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req domain.RegisterUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	token := bearerToken(r)
	sessionID, err := h.tokens.Parse(token)
	if err != nil {
		token, sessionID, err = h.tokens.Issue()
		if err != nil {
			log.Printf("level=error component=api endpoint=register msg=\"failed to mint session token\" err=%v", err)
			h.writeError(w, http.StatusInternalServerError, "Unable to start registration")
			return
		}
	}

	if err := h.service.IssueRegistrationOTP(r.Context(), sessionID, req); err != nil {
		h.writeServiceError(w, "register", err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":        true,
		"message":       "OTP sent",
		"session_token": token,
	})
}

// VerifyOTPHandler completes a registration with the code from the OTP email.
func (h *Handlers) VerifyOTPHandler(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := GetSessionID(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "A valid session token is required")
		return
	}

	var req domain.VerifyOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.service.VerifyRegistrationOTP(r.Context(), sessionID, req.OTP)
	if err != nil {
		h.writeServiceError(w, "verify_otp", err)
		return
	}
	h.writeJSON(w, http.StatusCreated, user)
}

// ListBrandsHandler returns the fixed set of brands accepted for new listings.
func (h *Handlers) ListBrandsHandler(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, domain.Brands)
}

// ListProductsHandler returns the whole catalog, oldest first.
func (h *Handlers) ListProductsHandler(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.ListProducts(r.Context())
	if err != nil {
		h.writeServiceError(w, "list_products", err)
		return
	}
	if products == nil {
		products = []domain.Product{}
	}
	h.writeJSON(w, http.StatusOK, products)
}

// GetProductHandler returns a single listing by slug.
func (h *Handlers) GetProductHandler(w http.ResponseWriter, r *http.Request) {
	product, err := h.service.GetProduct(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		h.writeServiceError(w, "get_product", err)
		return
	}
	h.writeJSON(w, http.StatusOK, product)
}

// SellerProductsHandler returns a seller's listings with their display name.
func (h *Handlers) SellerProductsHandler(w http.ResponseWriter, r *http.Request) {
	name, products, err := h.service.SellerProducts(r.Context(), chi.URLParam(r, "address"))
	if err != nil {
		h.writeServiceError(w, "seller_products", err)
		return
	}
	if products == nil {
		products = []domain.Product{}
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"seller_name": name,
		"products":    products,
	})
}

func parseUpsertProduct(r *http.Request) (domain.UpsertProductRequest, []app.ImageUpload, []string, error) {
	var req domain.UpsertProductRequest
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return req, nil, nil, err
	}
	form := r.MultipartForm

	payload := r.FormValue("product")
	if payload != "" {
		if err := json.Unmarshal([]byte(payload), &req); err != nil {
			return req, nil, nil, err
		}
	}

	var images []app.ImageUpload
	for _, header := range form.File["images"] {
		file, err := header.Open()
		if err != nil {
			return req, nil, nil, err
		}
		data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
		file.Close()
		if err != nil {
			return req, nil, nil, err
		}
		images = append(images, app.ImageUpload{
			Filename:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Data:        data,
		})
	}

	keep := form.Value["keep_images"]
	return req, images, keep, nil
}

// AddProductHandler creates a listing from a multipart form: a "product" JSON
// field plus any number of "images" files.
func (h *Handlers) AddProductHandler(w http.ResponseWriter, r *http.Request) {
	req, images, _, err := parseUpsertProduct(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	slug, err := h.service.AddProduct(r.Context(), req, images)
	if err != nil {
		h.writeServiceError(w, "add_product", err)
		return
	}
	h.writeJSON(w, http.StatusCreated, map[string]string{"slug": slug})
}

// EditProductHandler updates a listing. "keep_images" form values name the
// existing image URLs to retain.
func (h *Handlers) EditProductHandler(w http.ResponseWriter, r *http.Request) {
	req, images, keep, err := parseUpsertProduct(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	slug := chi.URLParam(r, "slug")
	if err := h.service.EditProduct(r.Context(), slug, req, keep, images); err != nil {
		h.writeServiceError(w, "edit_product", err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"slug": slug})
}

// DeleteProductHandler removes a listing. The caller's wallet address comes in
// the "address" query parameter.
func (h *Handlers) DeleteProductHandler(w http.ResponseWriter, r *http.Request) {
	address := strings.TrimSpace(r.URL.Query().Get("address"))
	if address == "" {
		h.writeError(w, http.StatusBadRequest, "address query parameter is required")
		return
	}
	if err := h.service.DeleteProduct(r.Context(), chi.URLParam(r, "slug"), address); err != nil {
		h.writeServiceError(w, "delete_product", err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

// GetUserHandler returns the account registered for a wallet address.
func (h *Handlers) GetUserHandler(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.UserByAddress(r.Context(), chi.URLParam(r, "address"))
	if err != nil {
		h.writeServiceError(w, "get_user", err)
		return
	}
	h.writeJSON(w, http.StatusOK, user)
}

// UpdateNameHandler changes an account's display name.
func (h *Handlers) UpdateNameHandler(w http.ResponseWriter, r *http.Request) {
	var req domain.UpdateNameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.service.UpdateName(r.Context(), chi.URLParam(r, "address"), req.Name); err != nil {
		h.writeServiceError(w, "update_name", err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]bool{"updated": true})
}

// MakeVendorHandler upgrades an account to a seller account.
func (h *Handlers) MakeVendorHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.service.MakeVendor(r.Context(), chi.URLParam(r, "address")); err != nil {
		h.writeServiceError(w, "make_vendor", err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]bool{"is_seller": true})
}

// WishlistHandler returns the product ids a user has saved.
func (h *Handlers) WishlistHandler(w http.ResponseWriter, r *http.Request) {
	ids, err := h.service.Wishlist(r.Context(), chi.URLParam(r, "address"))
	if err != nil {
		h.writeServiceError(w, "wishlist", err)
		return
	}
	if ids == nil {
		ids = []uuid.UUID{}
	}
	h.writeJSON(w, http.StatusOK, ids)
}

// AddWishlistHandler saves a listing to a user's wishlist.
func (h *Handlers) AddWishlistHandler(w http.ResponseWriter, r *http.Request) {
	productID, err := uuid.Parse(chi.URLParam(r, "productID"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid product id")
		return
	}
	if err := h.service.AddToWishlist(r.Context(), chi.URLParam(r, "address"), productID); err != nil {
		h.writeServiceError(w, "add_wishlist", err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]bool{"added": true})
}

// RemoveWishlistHandler drops a listing from a user's wishlist.
func (h *Handlers) RemoveWishlistHandler(w http.ResponseWriter, r *http.Request) {
	productID, err := uuid.Parse(chi.URLParam(r, "productID"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid product id")
		return
	}
	if err := h.service.RemoveFromWishlist(r.Context(), chi.URLParam(r, "address"), productID); err != nil {
		h.writeServiceError(w, "remove_wishlist", err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]bool{"removed": true})
}

// CreateTransactionHandler records a confirmed on-chain payment and notifies
// both parties.
func (h *Handlers) CreateTransactionHandler(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	txn, err := h.service.CreateTransaction(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, "create_transaction", err)
		return
	}
	h.writeJSON(w, http.StatusCreated, txn)
}

// UpdateTransactionHandler advances a purchase's status and notifies both
// parties.
func (h *Handlers) UpdateTransactionHandler(w http.ResponseWriter, r *http.Request) {
	var req domain.UpdateTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	status, err := h.service.UpdateTransactionStatus(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, "update_transaction", err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status_num": int(status),
		"status":     status.String(),
	})
}

// ListTransactionsHandler returns a wallet's purchases and sales.
func (h *Handlers) ListTransactionsHandler(w http.ResponseWriter, r *http.Request) {
	wallet := strings.TrimSpace(r.URL.Query().Get("wallet"))
	if wallet == "" {
		h.writeError(w, http.StatusBadRequest, "wallet query parameter is required")
		return
	}
	asBuyer, asSeller, err := h.service.ListTransactions(r.Context(), wallet)
	if err != nil {
		h.writeServiceError(w, "list_transactions", err)
		return
	}
	if asBuyer == nil {
		asBuyer = []domain.TransactionView{}
	}
	if asSeller == nil {
		asSeller = []domain.TransactionView{}
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"buying":  asBuyer,
		"selling": asSeller,
	})
}

// BalanceHandler reports a wallet's withdrawable escrow balance and
// auto-withdraw preference.
func (h *Handlers) BalanceHandler(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.Balance(r.Context(), chi.URLParam(r, "address"))
	if err != nil {
		h.writeServiceError(w, "balance", err)
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

// ContactHandler relays a contact-form submission to the operator mailbox.
func (h *Handlers) ContactHandler(w http.ResponseWriter, r *http.Request) {
	var req domain.ContactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.service.Contact(r.Context(), req); err != nil {
		h.writeServiceError(w, "contact", err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]bool{"sent": true})
}
