package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m-sabonkudi/Multi-Vendor-Ethereum-Marketplace/internal/domain"
)

func pending(issued time.Time) *domain.PendingRegistration {
	return &domain.PendingRegistration{
		Secret:   "JBSWY3DPEHPK3PXP",
		IssuedAt: issued,
		Name:     "Ada",
		Email:    "ada@example.com",
		Address:  "0xabc",
	}
}

func TestMemoryStorePutGetDelete(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	_, err := store.Get(ctx, "sess-1")
	assert.ErrorIs(t, err, ErrNotFound)

	issued := time.Now().UTC()
	require.NoError(t, store.Put(ctx, "sess-1", pending(issued)))

	got, err := store.Get(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", got.Email)
	assert.WithinDuration(t, issued, got.IssuedAt, time.Second)

	require.NoError(t, store.Delete(ctx, "sess-1"))
	_, err = store.Get(ctx, "sess-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreOverwritesPriorPending(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	first := pending(time.Now().UTC())
	require.NoError(t, store.Put(ctx, "sess-1", first))

	second := pending(time.Now().UTC())
	second.Email = "second@example.com"
	require.NoError(t, store.Put(ctx, "sess-1", second))

	got, err := store.Get(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "second@example.com", got.Email)
}

func TestMemoryStoreExpiresEntries(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	current := base
	store.now = func() time.Time { return current }

	require.NoError(t, store.Put(ctx, "sess-1", pending(base)))

	current = base.Add(domain.PendingRegistrationTTL + 2*time.Minute)
	_, err := store.Get(ctx, "sess-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreIsolatesSessions(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.Put(ctx, "sess-1", pending(time.Now().UTC())))

	_, err := store.Get(ctx, "sess-2")
	assert.ErrorIs(t, err, ErrNotFound)
}
