/**
 * @description
 * OTP registration flow. Issuing stores a pending registration keyed by the
 * caller's session and emails a six-digit code; verification checks the code
 * against the stored secret, enforces the five-minute validity window and,
 * on success, creates the account atomically.
 */

package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"

	"github.com/m-sabonkudi/Multi-Vendor-Ethereum-Marketplace/internal/domain"
	"github.com/m-sabonkudi/Multi-Vendor-Ethereum-Marketplace/internal/mailer"
	"github.com/m-sabonkudi/Multi-Vendor-Ethereum-Marketplace/internal/otp"
	"github.com/m-sabonkudi/Multi-Vendor-Ethereum-Marketplace/internal/session"
	"github.com/m-sabonkudi/Multi-Vendor-Ethereum-Marketplace/internal/store"
	"github.com/m-sabonkudi/Multi-Vendor-Ethereum-Marketplace/pkg/rabbitmq"
)

// IssueRegistrationOTP begins a registration. It rejects addresses and emails
// that are already taken, generates a fresh secret, stores the pending
// registration under the caller's session (replacing any prior one) and emails
// the current code. The pending record is kept even if the email send fails,
// so a retry re-issues against a fresh secret rather than leaving the session
// half-initialised.
func (s *Service) IssueRegistrationOTP(ctx context.Context, sessionID string, req domain.RegisterUserRequest) error {
	name := strings.TrimSpace(req.Name)
	email := domain.NormalizeEmail(req.Email)
	address := domain.NormalizeAddress(req.Address)
	if name == "" || email == "" || address == "" {
		return ErrMissingFields
	}

	if _, err := s.repo.FindUserByEmail(ctx, email); err == nil {
		return store.ErrEmailTaken
	} else if !errors.Is(err, store.ErrUserNotFound) {
		return fmt.Errorf("looking up email: %w", err)
	}
	if _, err := s.repo.FindUserByAddress(ctx, address); err == nil {
		return store.ErrAddressTaken
	} else if !errors.Is(err, store.ErrUserNotFound) {
		return fmt.Errorf("looking up address: %w", err)
	}

	secret, err := otp.NewSecret()
	if err != nil {
		return fmt.Errorf("generating otp secret: %w", err)
	}
	issuedAt := s.now()
	code, err := otp.CodeAt(secret, issuedAt)
	if err != nil {
		return fmt.Errorf("generating otp code: %w", err)
	}

	pending := domain.PendingRegistration{
		Secret:   secret,
		IssuedAt: issuedAt,
		Name:     name,
		Email:    email,
		Address:  address,
	}
	if err := s.pending.Put(ctx, sessionID, &pending); err != nil {
		return fmt.Errorf("storing pending registration: %w", err)
	}

	subject, body := mailer.OTPEmail(code)
	if err := s.mail.Send(ctx, email, subject, body); err != nil {
		return fmt.Errorf("sending otp email: %w", err)
	}
	return nil
}

// VerifyRegistrationOTP completes a registration. Expiry is checked against
// the wall clock first so a stale code is reported as expired rather than
// merely invalid. The pending record survives a wrong code so the user can
// retype it, and is consumed on success or expiry.
func (s *Service) VerifyRegistrationOTP(ctx context.Context, sessionID, code string) (*domain.User, error) {
	pending, err := s.pending.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return nil, ErrNoPendingRegistration
		}
		return nil, fmt.Errorf("loading pending registration: %w", err)
	}

	now := s.now()
	if pending.Expired(now) {
		if derr := s.pending.Delete(ctx, sessionID); derr != nil {
			log.Printf("level=warn component=app msg=\"failed to clear expired otp session\" error=%v", derr)
		}
		return nil, ErrOTPExpired
	}
	if !otp.Verify(strings.TrimSpace(code), pending.Secret, now) {
		return nil, ErrInvalidOTP
	}

	user := &domain.User{
		ID:      uuid.New(),
		Email:   pending.Email,
		Name:    domain.CapitalizeName(pending.Name),
		Address: pending.Address,
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	if derr := s.pending.Delete(ctx, sessionID); derr != nil {
		log.Printf("level=warn component=app msg=\"failed to clear verified otp session\" error=%v", derr)
	}

	if s.media != nil {
		if err := s.media.EnsureUserPrefix(ctx, user.Address); err != nil {
			log.Printf("level=warn component=app msg=\"failed to provision media prefix\" address=%s error=%v", user.Address, err)
		}
	}

	subject, body := mailer.WelcomeEmail()
	if err := s.mail.Send(ctx, user.Email, subject, body); err != nil {
		log.Printf("level=warn component=app msg=\"failed to send welcome email\" email=%s error=%v", user.Email, err)
	}

	s.publish(ctx, rabbitmq.RouteUserRegistered, domain.UserRegisteredEvent{
		UserID:    user.ID,
		Email:     user.Email,
		Address:   user.Address,
		Timestamp: now,
	})
	return user, nil
}
