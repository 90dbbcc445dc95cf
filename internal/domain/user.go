/**
 * @description
 * This file defines the user domain model and the request/response DTOs for the
 * account surface of the marketplace. Wallet addresses are always stored and
 * compared in lowercase; handlers and services normalize before touching the store.
 */

package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// User represents a durable marketplace account. Email and wallet address are
// each globally unique; the address is persisted lowercased.
type User struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	IsSeller  bool      `json:"is_seller"`
	IsAdmin   bool      `json:"is_admin"`
	CreatedAt time.Time `json:"created_at"`
}

// RegisterUserRequest is the DTO for the OTP issue endpoint.
type RegisterUserRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Address string `json:"address"`
}

// VerifyOTPRequest is the DTO for the OTP verification endpoint.
type VerifyOTPRequest struct {
	OTP string `json:"otp"`
}

// UpdateNameRequest is the DTO for the display-name update endpoint.
type UpdateNameRequest struct {
	Name string `json:"name"`
}

// ContactRequest is the DTO for the contact-form endpoint.
type ContactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// NormalizeAddress lowercases a wallet address for storage and lookups.
func NormalizeAddress(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}

// NormalizeEmail lowercases an email for storage and lookups.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CapitalizeName uppercases the first rune of a display name.
func CapitalizeName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return name
	}
	r := []rune(name)
	return strings.ToUpper(string(r[0])) + string(r[1:])
}

// FirstName returns the leading word of a user's display name for email salutations.
func (u *User) FirstName() string {
	parts := strings.Fields(u.Name)
	if len(parts) == 0 {
		return u.Name
	}
	return parts[0]
}
