/**
 * @description
 * This file defines the listing domain model and the catalog DTOs. Listings are
 * vehicle ads owned by seller accounts; the pending-transaction flag is set the
 * first time a purchase is recorded against a listing and never cleared.
 */

package domain

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Brands is the fixed set of accepted vehicle brands for new listings.
var Brands = []string{
	"Acura", "Aston-Martin", "Audi", "Bentley", "BMW", "BYD", "Cadillac", "Chevrolet", "Citroen",
	"Ford", "GMC", "Honda", "Hyundai", "Infiniti", "Kia", "Land-Rover", "Lexus", "Maybach", "McLaren",
	"Mercedes-AMG", "Mercedes-Benz", "Mitsubishi", "Nissan", "Peugeot", "Renault", "Rolls-Royce", "Tesla",
	"Toyota", "Volkswagen",
}

// KnownBrand reports whether brand is in the accepted brand list.
func KnownBrand(brand string) bool {
	for _, b := range Brands {
		if b == brand {
			return true
		}
	}
	return false
}

// Product is a marketplace listing.
type Product struct {
	ID             uuid.UUID       `json:"id"`
	Title          string          `json:"title"`
	Brand          string          `json:"brand"`
	Model          string          `json:"model"`
	Slug           string          `json:"slug"`
	FuelType       string          `json:"fuel_type"`
	Transmission   string          `json:"transmission"`
	VehicleType    string          `json:"vehicle_type"`
	Year           *int            `json:"year"`
	Description    string          `json:"description"`
	Price          decimal.Decimal `json:"price"`
	Mileage        int             `json:"mileage"`
	HasTransaction bool            `json:"has_transaction"`
	SellerID       uuid.UUID       `json:"-"`
	SellerName     string          `json:"seller_name"`
	SellerAddress  string          `json:"seller_address"`
	Images         []string        `json:"images"`
	CreatedAt      time.Time       `json:"-"`
}

// UpsertProductRequest carries the mutable listing fields for add and edit.
type UpsertProductRequest struct {
	Title        string          `json:"title"`
	Brand        string          `json:"brand"`
	Model        string          `json:"model"`
	FuelType     string          `json:"fuel_type"`
	Transmission string          `json:"transmission"`
	VehicleType  string          `json:"vehicle_type"`
	Year         *int            `json:"year"`
	Description  string          `json:"description"`
	Price        decimal.Decimal `json:"price"`
	Mileage      int             `json:"mileage"`
	Address      string          `json:"address"`
}

var slugStrip = regexp.MustCompile(`[^a-zA-Z0-9\s-]`)

// Slugify builds a URL slug from a listing title, suffixed with a fresh UUID so
// identical titles never collide.
func Slugify(title string) string {
	s := slugStrip.ReplaceAllString(title, "")
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, " ", "-")
	return s + "-" + uuid.NewString()
}
