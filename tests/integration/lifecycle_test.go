package integration

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"wallet-ledger/internal/core/domain"
	"wallet-ledger/internal/core/ports"
	"wallet-ledger/internal/service"
	"wallet-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var systemActor = uuid.MustParse("00000000-0000-0000-0000-000000000001")

// testEnv wires the real services onto in-memory storage with a
// capturing publisher, bypassing the HTTP layer for scenarios that
// need direct access to repositories and the sweeper.
type testEnv struct {
	walletRepo  *inMemoryWalletRepo
	txRepo      *inMemoryTransactionRepo
	auditRepo   *inMemoryAuditRepo
	publisher   *capturingPublisher
	walletSvc   ports.WalletService
	pinSvc      ports.PinService
	transferSvc ports.TransferService
	sweeper     *service.Sweeper
}

func newTestEnv() *testEnv {
	walletRepo := newInMemoryWalletRepo()
	txRepo := newInMemoryTransactionRepo()
	auditRepo := newInMemoryAuditRepo()
	publisher := newCapturingPublisher()
	transactor := newInMemoryTransactor()
	log := zerolog.Nop()

	walletSvc := service.NewWalletService(walletRepo, auditRepo, transactor, publisher, log)
	pinSvc := service.NewPinService(walletRepo, service.NewBcryptHashService(), transactor, time.Hour, log)
	transferSvc := service.NewTransferService(walletSvc, pinSvc, walletRepo, txRepo, transactor, publisher, "NGN", log)
	sweeper := service.NewSweeper(walletRepo, auditRepo, transactor, publisher, 30, 90, time.Hour, systemActor, log)

	return &testEnv{
		walletRepo:  walletRepo,
		txRepo:      txRepo,
		auditRepo:   auditRepo,
		publisher:   publisher,
		walletSvc:   walletSvc,
		pinSvc:      pinSvc,
		transferSvc: transferSvc,
		sweeper:     sweeper,
	}
}

func (e *testEnv) provision(t *testing.T, userID uuid.UUID) *domain.Wallet {
	t.Helper()
	w, err := e.walletSvc.OnIdentityConfirmed(context.Background(), userID)
	require.NoError(t, err)
	return w
}

// backdateActivity rewinds a wallet's last transaction date so the
// sweeper sees it as dormant.
func (e *testEnv) backdateActivity(t *testing.T, id uuid.UUID, days int) {
	t.Helper()
	e.walletRepo.mu.Lock()
	defer e.walletRepo.mu.Unlock()
	w, ok := e.walletRepo.wallets[id]
	require.True(t, ok, "wallet must exist")
	w.LastTransactionDate = time.Now().UTC().AddDate(0, 0, -days)
}

func appErrCode(err error) string {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

func TestConcurrentWithdrawals_OnlyOneSucceeds(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	userID := uuid.New()
	env.provision(t, userID)

	_, err := env.transferSvc.Fund(ctx, ports.FundRequest{UserID: userID, Amount: decimal.NewFromInt(100)})
	require.NoError(t, err)
	require.NoError(t, env.pinSvc.Set(ctx, userID, "1234"))

	// Both withdrawals target the same balance; the row lock must
	// serialize them so exactly one sees sufficient funds.
	results := make(chan error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.transferSvc.Withdraw(ctx, ports.WithdrawRequest{
				UserID: userID,
				Amount: decimal.NewFromInt(60),
				Pin:    "1234",
			})
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var succeeded, insufficient int
	for err := range results {
		switch {
		case err == nil:
			succeeded++
		case appErrCode(err) == "WAL_002":
			insufficient++
		default:
			t.Fatalf("unexpected withdrawal error: %v", err)
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, insufficient)

	wallet, err := env.walletSvc.GetByUser(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, "40.00", wallet.Balance.StringFixed(2))
}

func TestConcurrentFunding_BothApply(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	userID := uuid.New()
	env.provision(t, userID)

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.transferSvc.Fund(ctx, ports.FundRequest{UserID: userID, Amount: decimal.NewFromInt(50)})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	wallet, err := env.walletSvc.GetByUser(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, "100.00", wallet.Balance.StringFixed(2))
}

func TestTransfer_WritesPairedLedgerLegs(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	senderID := uuid.New()
	recipientID := uuid.New()
	sender := env.provision(t, senderID)
	recipient := env.provision(t, recipientID)

	_, err := env.transferSvc.Fund(ctx, ports.FundRequest{UserID: senderID, Amount: decimal.NewFromInt(500)})
	require.NoError(t, err)
	require.NoError(t, env.pinSvc.Set(ctx, senderID, "1234"))

	updated, err := env.transferSvc.Transfer(ctx, ports.TransferRequest{
		SenderID:          senderID,
		RecipientWalletID: recipient.WalletID,
		Amount:            decimal.NewFromInt(200),
		Pin:               "1234",
	})
	require.NoError(t, err)
	assert.Equal(t, "289.24", updated.Balance.StringFixed(2))

	senderTxns, err := env.txRepo.ListByWallet(ctx, sender.ID)
	require.NoError(t, err)
	require.Len(t, senderTxns, 2) // funding + debit leg

	var debitLeg *domain.Transaction
	for i := range senderTxns {
		if senderTxns[i].Type == domain.TransactionTypeDebit {
			debitLeg = &senderTxns[i]
		}
	}
	require.NotNil(t, debitLeg)
	assert.Equal(t, domain.CategoryWalletTransfer, debitLeg.Category)
	assert.Equal(t, "200.00", debitLeg.Amount.StringFixed(2))
	assert.Equal(t, "10.76", debitLeg.Fee.StringFixed(2))
	assert.Equal(t, "500.00", debitLeg.BalanceBefore.StringFixed(2))
	assert.Equal(t, "289.24", debitLeg.BalanceAfter.StringFixed(2))
	assert.True(t, strings.HasPrefix(debitLeg.Reference, "TRANS-"))

	recipientTxns, err := env.txRepo.ListByWallet(ctx, recipient.ID)
	require.NoError(t, err)
	require.Len(t, recipientTxns, 1)
	creditLeg := recipientTxns[0]
	assert.Equal(t, domain.TransactionTypeCredit, creditLeg.Type)
	assert.Equal(t, "200.00", creditLeg.Amount.StringFixed(2))
	assert.Equal(t, "0.00", creditLeg.Fee.StringFixed(2))
	assert.Equal(t, "0.00", creditLeg.BalanceBefore.StringFixed(2))
	assert.Equal(t, "200.00", creditLeg.BalanceAfter.StringFixed(2))
	assert.Equal(t, debitLeg.Reference, creditLeg.Reference, "both legs share the reference")

	var transferEvents int
	for _, ev := range env.publisher.captured() {
		if ev.Kind == domain.EventFundsTransferred {
			transferEvents++
			assert.Equal(t, debitLeg.Reference, ev.Reference)
		}
	}
	assert.Equal(t, 1, transferEvents)
}

func TestSweep_DemotesDormantWallets(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	dormantUser := uuid.New()
	activeUser := uuid.New()
	dormant := env.provision(t, dormantUser)
	active := env.provision(t, activeUser)

	env.backdateActivity(t, dormant.ID, 31)

	require.NoError(t, env.sweeper.Sweep(ctx))

	swept, err := env.walletSvc.GetByWalletID(ctx, dormant.WalletID)
	require.NoError(t, err)
	assert.Equal(t, domain.WalletStatusInactive, swept.Status)

	untouched, err := env.walletSvc.GetByWalletID(ctx, active.WalletID)
	require.NoError(t, err)
	assert.Equal(t, domain.WalletStatusActive, untouched.Status)

	trail, err := env.auditRepo.ListByWallet(ctx, dormant.WalletID)
	require.NoError(t, err)
	require.Len(t, trail, 1)
	assert.Equal(t, domain.AuditActionInactive, trail[0].Action)
	assert.Equal(t, "No activity for 30 days", trail[0].Reason)
	assert.Equal(t, systemActor, trail[0].PerformedBy)

	// Past the suspension threshold an INACTIVE wallet is demoted again.
	env.backdateActivity(t, dormant.ID, 91)
	require.NoError(t, env.sweeper.Sweep(ctx))

	swept, err = env.walletSvc.GetByWalletID(ctx, dormant.WalletID)
	require.NoError(t, err)
	assert.Equal(t, domain.WalletStatusSuspended, swept.Status)

	trail, err = env.auditRepo.ListByWallet(ctx, dormant.WalletID)
	require.NoError(t, err)
	require.Len(t, trail, 2)
	assert.Equal(t, domain.AuditActionSuspend, trail[1].Action)
	assert.Equal(t, "No activity for 90 days", trail[1].Reason)

	var statusEvents int
	for _, ev := range env.publisher.captured() {
		if ev.Kind == domain.EventStatusChanged {
			statusEvents++
		}
	}
	assert.Equal(t, 2, statusEvents)
}

func TestSweep_SkipsFundedWallets(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	userID := uuid.New()
	wallet := env.provision(t, userID)

	_, err := env.transferSvc.Fund(ctx, ports.FundRequest{UserID: userID, Amount: decimal.NewFromInt(10)})
	require.NoError(t, err)

	env.backdateActivity(t, wallet.ID, 100)
	require.NoError(t, env.sweeper.Sweep(ctx))

	got, err := env.walletSvc.GetByWalletID(ctx, wallet.WalletID)
	require.NoError(t, err)
	assert.Equal(t, domain.WalletStatusActive, got.Status)
}

func TestReactivate_RequiresFunding(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	userID := uuid.New()
	wallet := env.provision(t, userID)

	env.backdateActivity(t, wallet.ID, 31)
	require.NoError(t, env.sweeper.Sweep(ctx))

	// A broke dormant wallet cannot be reactivated.
	_, err := env.walletSvc.Reactivate(ctx, wallet.WalletID, userID)
	assert.Equal(t, "WAL_006", appErrCode(err))

	_, err = env.transferSvc.Fund(ctx, ports.FundRequest{UserID: userID, Amount: decimal.NewFromInt(25)})
	require.NoError(t, err)

	reactivated, err := env.walletSvc.Reactivate(ctx, wallet.WalletID, userID)
	require.NoError(t, err)
	assert.Equal(t, domain.WalletStatusActive, reactivated.Status)

	// Reactivating an already active wallet is a conflict.
	_, err = env.walletSvc.Reactivate(ctx, wallet.WalletID, userID)
	assert.Equal(t, "WAL_005", appErrCode(err))

	trail, err := env.auditRepo.ListByWallet(ctx, wallet.WalletID)
	require.NoError(t, err)
	require.Len(t, trail, 2)
	assert.Equal(t, domain.AuditActionReactivate, trail[1].Action)
}

func TestDeactivate_RemovesWalletWithAuditEntry(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	userID := uuid.New()
	wallet := env.provision(t, userID)

	require.NoError(t, env.walletSvc.Deactivate(ctx, wallet.WalletID, userID))

	_, err := env.walletSvc.GetByUser(ctx, userID)
	assert.Equal(t, "WAL_001", appErrCode(err))

	trail, err := env.auditRepo.ListByWallet(ctx, wallet.WalletID)
	require.NoError(t, err)
	require.Len(t, trail, 1)
	assert.Equal(t, domain.AuditActionDelete, trail[0].Action)

	var deleted int
	for _, ev := range env.publisher.captured() {
		if ev.Kind == domain.EventWalletDeleted {
			deleted++
		}
	}
	assert.Equal(t, 1, deleted)
}

func TestPinChange_CooldownEnforced(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	userID := uuid.New()
	wallet := env.provision(t, userID)

	require.NoError(t, env.pinSvc.Set(ctx, userID, "1234"))

	// The cooldown window opens at Set time.
	err := env.pinSvc.Change(ctx, userID, "1234", "5678")
	assert.Equal(t, "PIN_004", appErrCode(err))

	// Expire the window and rotate.
	env.walletRepo.mu.Lock()
	env.walletRepo.wallets[wallet.ID].PinNextChange = time.Now().UTC().Add(-time.Minute)
	env.walletRepo.mu.Unlock()

	require.NoError(t, env.pinSvc.Change(ctx, userID, "1234", "5678"))

	// A successful rotation re-arms the cooldown.
	err = env.pinSvc.Change(ctx, userID, "5678", "9999")
	assert.Equal(t, "PIN_004", appErrCode(err))
}

// staleReadWalletRepo doctors the balance returned by plain reads
// while the locked reads keep returning the committed state. It stands
// in for a wallet whose balance changed between an out-of-band read
// and a lifecycle call's own transaction.
type staleReadWalletRepo struct {
	*inMemoryWalletRepo
	staleBalance decimal.Decimal
}

func (r *staleReadWalletRepo) GetByWalletID(ctx context.Context, walletID string) (*domain.Wallet, error) {
	w, err := r.inMemoryWalletRepo.GetByWalletID(ctx, walletID)
	if err != nil || w == nil {
		return w, err
	}
	w.Balance = r.staleBalance
	return w, nil
}

func newStaleReadEnv(staleBalance decimal.Decimal) (*staleReadWalletRepo, ports.WalletService) {
	repo := &staleReadWalletRepo{
		inMemoryWalletRepo: newInMemoryWalletRepo(),
		staleBalance:       staleBalance,
	}
	svc := service.NewWalletService(repo, newInMemoryAuditRepo(), newInMemoryTransactor(), newCapturingPublisher(), zerolog.Nop())
	return repo, svc
}

func TestDeactivate_ConcurrentCreditVetoesDeletion(t *testing.T) {
	repo, svc := newStaleReadEnv(domain.Zero())
	ctx := context.Background()
	userID := uuid.New()
	wallet, err := svc.OnIdentityConfirmed(ctx, userID)
	require.NoError(t, err)

	// A credit lands after the caller last saw the balance at zero.
	repo.inMemoryWalletRepo.mu.Lock()
	repo.inMemoryWalletRepo.wallets[wallet.ID].Balance = decimal.NewFromInt(25)
	repo.inMemoryWalletRepo.mu.Unlock()

	err = svc.Deactivate(ctx, wallet.WalletID, userID)
	assert.Equal(t, "WAL_007", appErrCode(err))

	current, err := repo.inMemoryWalletRepo.GetByWalletID(ctx, wallet.WalletID)
	require.NoError(t, err)
	require.NotNil(t, current, "funded wallet must survive the deactivation attempt")
	assert.Equal(t, "25.00", current.Balance.StringFixed(2))
}

func TestReactivate_ConcurrentDrainStillRequiresFunding(t *testing.T) {
	repo, svc := newStaleReadEnv(decimal.NewFromInt(25))
	ctx := context.Background()
	userID := uuid.New()
	wallet, err := svc.OnIdentityConfirmed(ctx, userID)
	require.NoError(t, err)

	// The wallet was drained to zero after the caller last saw it funded.
	repo.inMemoryWalletRepo.mu.Lock()
	repo.inMemoryWalletRepo.wallets[wallet.ID].Status = domain.WalletStatusInactive
	repo.inMemoryWalletRepo.wallets[wallet.ID].Balance = domain.Zero()
	repo.inMemoryWalletRepo.mu.Unlock()

	_, err = svc.Reactivate(ctx, wallet.WalletID, userID)
	assert.Equal(t, "WAL_006", appErrCode(err))

	current, err := repo.inMemoryWalletRepo.GetByWalletID(ctx, wallet.WalletID)
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, domain.WalletStatusInactive, current.Status)
}

func TestTransfer_AbortedTransferLeavesNoTrace(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	userID := uuid.New()
	wallet := env.provision(t, userID)

	_, err := env.transferSvc.Fund(ctx, ports.FundRequest{UserID: userID, Amount: decimal.NewFromInt(500)})
	require.NoError(t, err)
	require.NoError(t, env.pinSvc.Set(ctx, userID, "1234"))

	// The sender is debited before the recipient lookup fails, so the
	// rollback must discard the debit and the pending ledger writes.
	_, err = env.transferSvc.Transfer(ctx, ports.TransferRequest{
		SenderID:          userID,
		RecipientWalletID: "1100000000",
		Amount:            decimal.NewFromInt(200),
		Pin:               "1234",
	})
	assert.Equal(t, "WAL_004", appErrCode(err))

	got, err := env.walletSvc.GetByUser(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, "500.00", got.Balance.StringFixed(2))

	txns, err := env.txRepo.ListByWallet(ctx, wallet.ID)
	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.Equal(t, domain.CategoryWalletFunding, txns[0].Category)
}
