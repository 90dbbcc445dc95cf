/**
 * @description
 * This file contains the core business logic for the marketplace service. The
 * `Service` struct orchestrates the OTP registration flow, the transaction
 * lifecycle, and the catalog operations, coordinating between the database
 * repository, the session-scoped pending store, the mailer, the object store,
 * the ledger client, and the event producer.
 *
 * @dependencies
 * - internal/domain, internal/store, internal/session, internal/mailer: models and collaborators.
 * - pkg/ledgerclient, pkg/objstore, pkg/rabbitmq: external-facing clients.
 */

package app

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/m-sabonkudi/Multi-Vendor-Ethereum-Marketplace/internal/mailer"
	"github.com/m-sabonkudi/Multi-Vendor-Ethereum-Marketplace/internal/session"
	"github.com/m-sabonkudi/Multi-Vendor-Ethereum-Marketplace/internal/store"
	"github.com/m-sabonkudi/Multi-Vendor-Ethereum-Marketplace/pkg/ledgerclient"
	"github.com/m-sabonkudi/Multi-Vendor-Ethereum-Marketplace/pkg/objstore"
	"github.com/m-sabonkudi/Multi-Vendor-Ethereum-Marketplace/pkg/rabbitmq"
)

var (
	ErrNoPendingRegistration = errors.New("otp session not found")
	ErrOTPExpired            = errors.New("otp has expired")
	ErrInvalidOTP            = errors.New("invalid otp")
	ErrMissingFields         = errors.New("name, email and address are required")
	ErrInvalidAmount         = errors.New("amount must be positive")
	ErrInvalidStatus         = errors.New("unknown transaction status")
	ErrStatusNotAllowed      = errors.New("status transition not allowed")
	ErrNotSeller             = errors.New("account is not a seller")
	ErrNotOwner              = errors.New("listing belongs to another seller")
	ErrUnknownBrand          = errors.New("unrecognised brand")
)

// Ledger answers read-only balance queries against the escrow contract.
type Ledger interface {
	BalanceAndAutoWithdraw(ctx context.Context, address string) (*ledgerclient.BalanceResult, error)
}

// Service provides the core business logic for the marketplace.
type Service struct {
	repo          store.Repository
	pending       session.PendingStore
	mail          mailer.Mailer
	media         objstore.Store
	events        rabbitmq.Publisher
	ledger        Ledger
	operatorEmail string
	now           func() time.Time
}

// NewService creates a new marketplace service instance. media, events and
// ledger may be nil; the dependent operations then degrade (provisioning is
// skipped, events are dropped, balance queries fail fast).
func NewService(
	repo store.Repository,
	pending session.PendingStore,
	mail mailer.Mailer,
	media objstore.Store,
	events rabbitmq.Publisher,
	ledger Ledger,
	operatorEmail string,
) *Service {
	return &Service{
		repo:          repo,
		pending:       pending,
		mail:          mail,
		media:         media,
		events:        events,
		ledger:        ledger,
		operatorEmail: operatorEmail,
		now:           time.Now,
	}
}

// publish sends an event to the broker. Failures are logged and swallowed;
// events mirror state that has already committed.
func (s *Service) publish(ctx context.Context, routingKey string, body interface{}) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, routingKey, body); err != nil {
		log.Printf("level=warn component=app msg=\"event publish failed\" routing_key=%s error=%v", routingKey, err)
	}
}
