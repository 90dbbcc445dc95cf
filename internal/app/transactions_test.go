package app

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m-sabonkudi/Multi-Vendor-Ethereum-Marketplace/internal/domain"
	"github.com/m-sabonkudi/Multi-Vendor-Ethereum-Marketplace/internal/store"
	"github.com/m-sabonkudi/Multi-Vendor-Ethereum-Marketplace/pkg/ledgerclient"
)

type lifecycleFixture struct {
	repo   *stubRepo
	mail   *stubMailer
	svc    *Service
	buyer  *domain.User
	seller *domain.User
	prod   *domain.Product
}

func newLifecycleFixture(t *testing.T) *lifecycleFixture {
	t.Helper()
	repo := newStubRepo()
	buyer := &domain.User{ID: uuid.New(), Email: "buyer@example.com", Name: "Bob Buyer", Address: "0xbuyer"}
	seller := &domain.User{ID: uuid.New(), Email: "seller@example.com", Name: "Sally Seller", Address: "0xseller", IsSeller: true}
	repo.addUser(buyer)
	repo.addUser(seller)

	prod := &domain.Product{
		ID:       uuid.New(),
		Title:    "Tesla Model 3",
		Brand:    "Tesla",
		Slug:     "tesla-model-3-x",
		Price:    decimal.RequireFromString("1.5"),
		SellerID: seller.ID,
	}
	repo.products[prod.ID] = prod

	mail := &stubMailer{}
	svc, _ := newTestService(repo, mail)
	return &lifecycleFixture{repo: repo, mail: mail, svc: svc, buyer: buyer, seller: seller, prod: prod}
}

func (f *lifecycleFixture) createRequest() domain.CreateTransactionRequest {
	return domain.CreateTransactionRequest{
		TransactionID: 42,
		Seller:        "0xSELLER",
		Buyer:         "0xBUYER",
		Amount:        decimal.RequireFromString("1.5"),
		ProductID:     f.prod.ID.String(),
	}
}

func TestCreateTransaction_PersistsAndNotifiesBothParties(t *testing.T) {
	f := newLifecycleFixture(t)

	txn, err := f.svc.CreateTransaction(context.Background(), f.createRequest())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, txn.Status)
	assert.Equal(t, int64(42), txn.TransactionID)
	assert.Equal(t, "0xbuyer", txn.Buyer)
	assert.Equal(t, "0xseller", txn.Seller)
	require.Len(t, f.repo.createdTxns, 1)
	assert.True(t, f.prod.HasTransaction)

	require.Len(t, f.mail.sent, 2)
	assert.Equal(t, "buyer@example.com", f.mail.sent[0].To)
	assert.Equal(t, "seller@example.com", f.mail.sent[1].To)
	assert.Contains(t, f.mail.sent[0].Body, "Tesla Model 3")
	assert.Contains(t, f.mail.sent[1].Body, "Kindly deliver the product")
}

func TestCreateTransaction_RejectsNonPositiveAmount(t *testing.T) {
	f := newLifecycleFixture(t)
	req := f.createRequest()
	req.Amount = decimal.Zero

	_, err := f.svc.CreateTransaction(context.Background(), req)
	assert.ErrorIs(t, err, ErrInvalidAmount)
	assert.Empty(t, f.repo.createdTxns)
	assert.Empty(t, f.mail.sent)
}

func TestCreateTransaction_RejectsUnknownProduct(t *testing.T) {
	f := newLifecycleFixture(t)

	req := f.createRequest()
	req.ProductID = uuid.NewString()
	_, err := f.svc.CreateTransaction(context.Background(), req)
	assert.ErrorIs(t, err, store.ErrProductNotFound)

	req.ProductID = "not-a-uuid"
	_, err = f.svc.CreateTransaction(context.Background(), req)
	assert.ErrorIs(t, err, store.ErrProductNotFound)
	assert.Empty(t, f.repo.createdTxns)
}

func TestCreateTransaction_RejectsUnknownParties(t *testing.T) {
	f := newLifecycleFixture(t)

	req := f.createRequest()
	req.Buyer = "0xstranger"
	_, err := f.svc.CreateTransaction(context.Background(), req)
	assert.ErrorIs(t, err, store.ErrUserNotFound)

	req = f.createRequest()
	req.Seller = "0xstranger"
	_, err = f.svc.CreateTransaction(context.Background(), req)
	assert.ErrorIs(t, err, store.ErrUserNotFound)

	assert.Empty(t, f.repo.createdTxns)
	assert.Empty(t, f.mail.sent)
}

func TestCreateTransaction_MailFailureKeepsRecord(t *testing.T) {
	f := newLifecycleFixture(t)
	f.mail.failTo = map[string]error{"seller@example.com": errors.New("smtp down")}

	txn, err := f.svc.CreateTransaction(context.Background(), f.createRequest())
	require.Error(t, err)
	require.NotNil(t, txn)
	require.Len(t, f.repo.createdTxns, 1)
	assert.True(t, f.prod.HasTransaction)
}

func seedTransaction(f *lifecycleFixture, status domain.Status) *domain.Transaction {
	txn := &domain.Transaction{
		ID:            uuid.New(),
		TransactionID: 42,
		ProductID:     f.prod.ID,
		Seller:        f.seller.Address,
		Buyer:         f.buyer.Address,
		Amount:        decimal.RequireFromString("1.5"),
		Status:        status,
	}
	f.repo.transactions[txn.TransactionID] = txn
	return txn
}

func TestUpdateTransactionStatus_AdvancesAndNotifies(t *testing.T) {
	f := newLifecycleFixture(t)
	txn := seedTransaction(f, domain.StatusPending)

	got, err := f.svc.UpdateTransactionStatus(context.Background(), domain.UpdateTransactionRequest{
		TransactionID: 42, NewStatus: int(domain.StatusDelivered),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDelivered, got)
	assert.Equal(t, domain.StatusDelivered, txn.Status)
	require.Len(t, f.repo.statusUpdates, 1)

	// both parties get the same event, described from each side
	require.Len(t, f.mail.sent, 2)
	assert.Equal(t, "buyer@example.com", f.mail.sent[0].To)
	assert.Equal(t, "seller@example.com", f.mail.sent[1].To)
	assert.Equal(t, f.mail.sent[0].Subject, f.mail.sent[1].Subject)
	assert.NotEqual(t, f.mail.sent[0].Body, f.mail.sent[1].Body)
	assert.Contains(t, f.mail.sent[0].Body, "Dear Bob")
	assert.Contains(t, f.mail.sent[1].Body, "Dear Sally")
}

func TestUpdateTransactionStatus_RejectsOutOfRangeStatus(t *testing.T) {
	f := newLifecycleFixture(t)
	seedTransaction(f, domain.StatusPending)

	for _, bad := range []int{-1, 0, 6, 99} {
		_, err := f.svc.UpdateTransactionStatus(context.Background(), domain.UpdateTransactionRequest{
			TransactionID: 42, NewStatus: bad,
		})
		assert.ErrorIs(t, err, ErrInvalidStatus, "status %d", bad)
	}
	assert.Empty(t, f.mail.sent)
	assert.Empty(t, f.repo.statusUpdates)
}

func TestUpdateTransactionStatus_RejectsBackwardAndTerminalMoves(t *testing.T) {
	cases := []struct {
		from domain.Status
		to   domain.Status
	}{
		{domain.StatusConfirmed, domain.StatusDelivered},
		{domain.StatusDisputed, domain.StatusConfirmed},
		{domain.StatusCancelled, domain.StatusFinalized},
		{domain.StatusFinalized, domain.StatusCancelled},
		{domain.StatusDelivered, domain.StatusDelivered},
	}
	for _, tc := range cases {
		f := newLifecycleFixture(t)
		txn := seedTransaction(f, tc.from)

		_, err := f.svc.UpdateTransactionStatus(context.Background(), domain.UpdateTransactionRequest{
			TransactionID: 42, NewStatus: int(tc.to),
		})
		assert.ErrorIs(t, err, ErrStatusNotAllowed, "%s to %s", tc.from, tc.to)
		assert.Equal(t, tc.from, txn.Status)
		assert.Empty(t, f.mail.sent)
	}
}

func TestUpdateTransactionStatus_UnknownReference(t *testing.T) {
	f := newLifecycleFixture(t)
	_, err := f.svc.UpdateTransactionStatus(context.Background(), domain.UpdateTransactionRequest{
		TransactionID: 9000, NewStatus: int(domain.StatusDelivered),
	})
	assert.ErrorIs(t, err, store.ErrTransactionNotFound)
}

func TestUpdateTransactionStatus_MailFailureLeavesStatusUnchanged(t *testing.T) {
	f := newLifecycleFixture(t)
	txn := seedTransaction(f, domain.StatusPending)
	f.mail.failTo = map[string]error{"buyer@example.com": errors.New("smtp down")}

	_, err := f.svc.UpdateTransactionStatus(context.Background(), domain.UpdateTransactionRequest{
		TransactionID: 42, NewStatus: int(domain.StatusDelivered),
	})
	require.Error(t, err)
	assert.Equal(t, domain.StatusPending, txn.Status)
	assert.Empty(t, f.repo.statusUpdates)
}

type stubLedger struct {
	result *ledgerclient.BalanceResult
	err    error
	calls  int
}

func (l *stubLedger) BalanceAndAutoWithdraw(_ context.Context, _ string) (*ledgerclient.BalanceResult, error) {
	l.calls++
	return l.result, l.err
}

func TestBalance_DelegatesToLedger(t *testing.T) {
	f := newLifecycleFixture(t)
	ledger := &stubLedger{result: &ledgerclient.BalanceResult{Balance: "1.5", AutoWithdraw: true}}
	f.svc.ledger = ledger

	res, err := f.svc.Balance(context.Background(), "0x0000000000000000000000000000000000000001")
	require.NoError(t, err)
	assert.Equal(t, "1.5", res.Balance)
	assert.True(t, res.AutoWithdraw)
	assert.Equal(t, 1, ledger.calls)
}

func TestBalance_WithoutLedgerFailsFast(t *testing.T) {
	f := newLifecycleFixture(t)
	_, err := f.svc.Balance(context.Background(), "0x0000000000000000000000000000000000000001")
	assert.ErrorIs(t, err, ledgerclient.ErrConnect)
}
