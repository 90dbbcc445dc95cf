/**
 * @description
 * This file defines the pending-registration model for the OTP flow: the
 * unconfirmed account data held between code issue and verification, and the
 * absolute wall-clock budget within which the code must be verified.
 */

package domain

import "time"

// PendingRegistrationTTL is the absolute wall-clock budget for completing an
// OTP verification. It is authoritative over the code generator's own window.
const PendingRegistrationTTL = 5 * time.Minute

// PendingRegistration holds unconfirmed account data between OTP issue and
// verification. It lives only in session-scoped storage and is never written
// to the durable store; at most one exists per session.
type PendingRegistration struct {
	Secret   string    `json:"secret"`
	IssuedAt time.Time `json:"issued_at"`
	Name     string    `json:"name"`
	Email    string    `json:"email"`
	Address  string    `json:"address"`
}

// Expired reports whether the absolute verification budget has elapsed.
func (p *PendingRegistration) Expired(now time.Time) bool {
	return now.Sub(p.IssuedAt) > PendingRegistrationTTL
}
