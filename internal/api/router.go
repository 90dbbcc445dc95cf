/**
 * @description
 * This file sets up the HTTP router for the marketplace service. It defines
 * the API endpoints, associates them with their corresponding handlers, and
 * applies middleware for logging, panic recovery, timeouts, CORS and the
 * registration session token check.
 *
 * @dependencies
 * - net/http: Standard Go library for HTTP functionality.
 * - github.com/go-chi/chi/v5: A lightweight and idiomatic router for Go.
 * - github.com/go-chi/cors: CORS middleware for browser clients.
 */

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Routes creates and returns the router for the marketplace service.
func Routes(h *Handlers, tokens *SessionTokens) http.Handler {
	r := chi.NewRouter()

	// Add standard middleware for logging, panic recovery, and timeouts.
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Session-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("healthy"))
	})

	r.Route("/api", func(r chi.Router) {
		// Registration: issuing mints or reuses a session token, verification
		// requires it back.
		r.Post("/register", h.RegisterHandler)
		r.Group(func(r chi.Router) {
			r.Use(RequireSession(tokens))
			r.Post("/verify-otp", h.VerifyOTPHandler)
		})

		// Catalog
		r.Get("/brands", h.ListBrandsHandler)
		r.Get("/products", h.ListProductsHandler)
		r.Post("/products", h.AddProductHandler)
		r.Get("/products/{slug}", h.GetProductHandler)
		r.Put("/products/{slug}", h.EditProductHandler)
		r.Delete("/products/{slug}", h.DeleteProductHandler)
		r.Get("/sellers/{address}/products", h.SellerProductsHandler)

		// Accounts
		r.Get("/users/{address}", h.GetUserHandler)
		r.Post("/users/{address}/name", h.UpdateNameHandler)
		r.Post("/users/{address}/make-vendor", h.MakeVendorHandler)
		r.Get("/users/{address}/wishlist", h.WishlistHandler)
		r.Post("/users/{address}/wishlist/{productID}", h.AddWishlistHandler)
		r.Delete("/users/{address}/wishlist/{productID}", h.RemoveWishlistHandler)

		// Transactions and the escrow ledger
		r.Post("/transactions", h.CreateTransactionHandler)
		r.Put("/transactions", h.UpdateTransactionHandler)
		r.Get("/transactions", h.ListTransactionsHandler)
		r.Get("/balance/{address}", h.BalanceHandler)

		r.Post("/contact", h.ContactHandler)
	})

	return r
}
