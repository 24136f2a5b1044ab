package service

import (
	"context"
	"fmt"
	"time"

	"wallet-ledger/internal/core/domain"
	"wallet-ledger/internal/core/ports"
	"wallet-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Wallet id generation retries until an unused identifier is found.
const maxWalletIDAttempts = 10

// WalletServiceImpl implements ports.WalletService: provisioning, the
// credit/debit ledger primitives, and the manual lifecycle transitions.
type WalletServiceImpl struct {
	walletRepo ports.WalletRepository
	auditRepo  ports.AuditRepository
	transactor ports.DBTransactor
	publisher  ports.EventPublisher
	log        zerolog.Logger
}

// NewWalletService creates a new WalletServiceImpl.
func NewWalletService(
	walletRepo ports.WalletRepository,
	auditRepo ports.AuditRepository,
	transactor ports.DBTransactor,
	publisher ports.EventPublisher,
	log zerolog.Logger,
) *WalletServiceImpl {
	return &WalletServiceImpl{
		walletRepo: walletRepo,
		auditRepo:  auditRepo,
		transactor: transactor,
		publisher:  publisher,
		log:        log,
	}
}

// OnIdentityConfirmed provisions a wallet for a user whose identity the
// authentication collaborator has just verified. Idempotent: if the
// user already owns a wallet it is returned unchanged.
func (s *WalletServiceImpl) OnIdentityConfirmed(ctx context.Context, userID uuid.UUID) (*domain.Wallet, error) {
	existing, err := s.walletRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("check existing wallet: %w", err))
	}
	if existing != nil {
		return existing, nil
	}

	walletID, err := s.generateWalletID(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("generate wallet id: %w", err))
	}

	now := time.Now().UTC()
	wallet := &domain.Wallet{
		ID:                   uuid.New(),
		WalletID:             walletID,
		UserID:               userID,
		Balance:              domain.Zero(),
		PrevBalance:          domain.Zero(),
		Status:               domain.WalletStatusActive,
		LastTransactionDate:  now,
		LastStatusChangeDate: now,
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	if err := s.walletRepo.Create(ctx, wallet); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create wallet: %w", err))
	}

	s.publishEvent(ctx, domain.Event{
		Kind:       domain.EventWalletCreated,
		UserID:     userID,
		WalletID:   wallet.WalletID,
		OccurredAt: now,
	})

	s.log.Info().
		Str("user_id", userID.String()).
		Str("wallet_id", wallet.WalletID).
		Msg("wallet provisioned")

	return wallet, nil
}

// GetByUser fetches the wallet owned by a user.
func (s *WalletServiceImpl) GetByUser(ctx context.Context, userID uuid.UUID) (*domain.Wallet, error) {
	wallet, err := s.walletRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get wallet: %w", err))
	}
	if wallet == nil {
		return nil, apperror.ErrWalletNotFound()
	}
	return wallet, nil
}

// GetByWalletID fetches a wallet by its public identifier.
func (s *WalletServiceImpl) GetByWalletID(ctx context.Context, walletID string) (*domain.Wallet, error) {
	wallet, err := s.walletRepo.GetByWalletID(ctx, walletID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get wallet by id: %w", err))
	}
	if wallet == nil {
		return nil, apperror.ErrUnknownWallet()
	}
	return wallet, nil
}

// Credit adds funds to the user's wallet inside the caller's
// transaction scope. The returned mutation carries a by-value snapshot
// of the pre-mutation state.
func (s *WalletServiceImpl) Credit(ctx context.Context, tx pgx.Tx, userID uuid.UUID, amount decimal.Decimal) (*ports.WalletMutation, error) {
	return s.mutateBalance(ctx, tx, userID, amount, false)
}

// Debit removes funds from the user's wallet inside the caller's
// transaction scope, failing when the balance does not cover the amount.
func (s *WalletServiceImpl) Debit(ctx context.Context, tx pgx.Tx, userID uuid.UUID, amount decimal.Decimal) (*ports.WalletMutation, error) {
	return s.mutateBalance(ctx, tx, userID, amount, true)
}

func (s *WalletServiceImpl) mutateBalance(ctx context.Context, tx pgx.Tx, userID uuid.UUID, amount decimal.Decimal, debit bool) (*ports.WalletMutation, error) {
	if !amount.IsPositive() {
		return nil, apperror.ErrInvalidAmount()
	}

	wallet, err := s.walletRepo.GetByUserIDForUpdate(ctx, tx, userID)
	if err != nil {
		return nil, storageError(fmt.Errorf("lock wallet: %w", err))
	}
	if wallet == nil {
		return nil, apperror.ErrWalletNotFound()
	}

	previous := wallet.Clone()

	var newBalance decimal.Decimal
	if debit {
		if wallet.Balance.LessThan(amount) {
			return nil, apperror.ErrInsufficientBalance()
		}
		newBalance = wallet.Balance.Sub(amount).Round(2)
	} else {
		newBalance = wallet.Balance.Add(amount).Round(2)
	}

	now := time.Now().UTC()
	if err := s.walletRepo.UpdateBalance(ctx, tx, wallet.ID, newBalance, wallet.Balance, now); err != nil {
		return nil, storageError(fmt.Errorf("update balance: %w", err))
	}

	current := wallet.Clone()
	current.PrevBalance = wallet.Balance
	current.Balance = newBalance
	current.LastTransactionDate = now
	current.UpdatedAt = now

	return &ports.WalletMutation{Previous: previous, Current: current}, nil
}

// Reactivate returns a dormant or suspended wallet to ACTIVE. The
// wallet must carry a positive balance; reactivation is the only way
// back from SUSPENDED. Status and balance are checked under the row
// lock so a concurrent withdrawal cannot drain the wallet between the
// check and the commit.
func (s *WalletServiceImpl) Reactivate(ctx context.Context, walletID string, actorID uuid.UUID) (*domain.Wallet, error) {
	tx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, storageError(fmt.Errorf("begin tx: %w", err))
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	wallet, err := s.walletRepo.GetByWalletIDForUpdate(ctx, tx, walletID)
	if err != nil {
		return nil, storageError(fmt.Errorf("lock wallet: %w", err))
	}
	if wallet == nil {
		return nil, apperror.ErrUnknownWallet()
	}
	if wallet.Status == domain.WalletStatusActive {
		return nil, apperror.ErrAlreadyActive()
	}
	if !wallet.Balance.IsPositive() {
		return nil, apperror.ErrMustFundBeforeReactivation()
	}

	now := time.Now().UTC()
	if err := s.walletRepo.UpdateStatus(ctx, tx, wallet.ID, domain.WalletStatusActive, now); err != nil {
		return nil, storageError(fmt.Errorf("update status: %w", err))
	}

	entry := &domain.AuditEntry{
		ID:          uuid.New(),
		Action:      domain.AuditActionReactivate,
		WalletID:    wallet.WalletID,
		PerformedBy: actorID,
		Reason:      "Wallet reactivated after funding",
		CreatedAt:   now,
	}
	if err := s.auditRepo.Create(ctx, tx, entry); err != nil {
		return nil, storageError(fmt.Errorf("create audit entry: %w", err))
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, storageError(fmt.Errorf("commit tx: %w", err))
	}

	wallet.Status = domain.WalletStatusActive
	wallet.LastStatusChangeDate = now

	s.publishEvent(ctx, domain.Event{
		Kind:       domain.EventStatusChanged,
		UserID:     wallet.UserID,
		WalletID:   wallet.WalletID,
		Status:     domain.WalletStatusActive,
		Reason:     entry.Reason,
		OccurredAt: now,
	})

	s.log.Info().Str("wallet_id", walletID).Msg("wallet reactivated")
	return wallet, nil
}

// Deactivate permanently removes a zero-balance wallet and records a
// DELETE audit entry in the same transaction. The balance is checked
// under the row lock: a funded wallet is never deleted, even when a
// credit lands concurrently with the request.
func (s *WalletServiceImpl) Deactivate(ctx context.Context, walletID string, actorID uuid.UUID) error {
	tx, err := s.transactor.Begin(ctx)
	if err != nil {
		return storageError(fmt.Errorf("begin tx: %w", err))
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	wallet, err := s.walletRepo.GetByWalletIDForUpdate(ctx, tx, walletID)
	if err != nil {
		return storageError(fmt.Errorf("lock wallet: %w", err))
	}
	if wallet == nil {
		return apperror.ErrUnknownWallet()
	}
	if wallet.Balance.IsPositive() {
		return apperror.ErrNonZeroBalance()
	}

	if err := s.walletRepo.Delete(ctx, tx, wallet.ID); err != nil {
		return storageError(fmt.Errorf("delete wallet: %w", err))
	}

	now := time.Now().UTC()
	entry := &domain.AuditEntry{
		ID:          uuid.New(),
		Action:      domain.AuditActionDelete,
		WalletID:    wallet.WalletID,
		PerformedBy: actorID,
		Reason:      "Wallet permanently removed",
		CreatedAt:   now,
	}
	if err := s.auditRepo.Create(ctx, tx, entry); err != nil {
		return storageError(fmt.Errorf("create audit entry: %w", err))
	}

	if err := tx.Commit(ctx); err != nil {
		return storageError(fmt.Errorf("commit tx: %w", err))
	}

	s.publishEvent(ctx, domain.Event{
		Kind:       domain.EventWalletDeleted,
		UserID:     wallet.UserID,
		WalletID:   wallet.WalletID,
		Reason:     entry.Reason,
		OccurredAt: now,
	})

	s.log.Info().Str("wallet_id", walletID).Msg("wallet deleted")
	return nil
}

// AuditTrail returns the lifecycle audit entries for a wallet.
func (s *WalletServiceImpl) AuditTrail(ctx context.Context, walletID string) ([]domain.AuditEntry, error) {
	entries, err := s.auditRepo.ListByWallet(ctx, walletID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list audit trail: %w", err))
	}
	return entries, nil
}

// generateWalletID produces a unique public identifier, retrying on
// collisions with already-assigned ids.
func (s *WalletServiceImpl) generateWalletID(ctx context.Context) (string, error) {
	for attempt := 0; attempt < maxWalletIDAttempts; attempt++ {
		candidate, err := domain.NewWalletIDCandidate()
		if err != nil {
			return "", err
		}
		exists, err := s.walletRepo.WalletIDExists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no unique wallet id after %d attempts", maxWalletIDAttempts)
}

// publishEvent emits a domain event after commit; failures are logged
// and never surfaced to the caller.
func (s *WalletServiceImpl) publishEvent(ctx context.Context, event domain.Event) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.log.Warn().Err(err).Str("kind", string(event.Kind)).Msg("failed to publish wallet event")
	}
}
