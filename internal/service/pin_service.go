package service

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"wallet-ledger/internal/core/ports"
	"wallet-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

var pinPattern = regexp.MustCompile(`^\d{4}$`)

// PinServiceImpl manages the transaction PIN: set-once, cooldown-gated
// rotation, and in-transaction validation for money-moving operations.
type PinServiceImpl struct {
	walletRepo ports.WalletRepository
	hashSvc    ports.HashService
	transactor ports.DBTransactor
	cooldown   time.Duration
	log        zerolog.Logger
}

// NewPinService creates a new PinServiceImpl. cooldown is the minimum
// interval between PIN changes.
func NewPinService(
	walletRepo ports.WalletRepository,
	hashSvc ports.HashService,
	transactor ports.DBTransactor,
	cooldown time.Duration,
	log zerolog.Logger,
) *PinServiceImpl {
	return &PinServiceImpl{
		walletRepo: walletRepo,
		hashSvc:    hashSvc,
		transactor: transactor,
		cooldown:   cooldown,
		log:        log,
	}
}

// Set configures the PIN for the first time. A wallet that has already
// gone through Set must use Change.
func (s *PinServiceImpl) Set(ctx context.Context, userID uuid.UUID, newPin string) error {
	if !pinPattern.MatchString(newPin) {
		return apperror.ErrInvalidPinFormat()
	}

	tx, err := s.transactor.Begin(ctx)
	if err != nil {
		return storageError(fmt.Errorf("begin tx: %w", err))
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	wallet, err := s.walletRepo.GetByUserIDForUpdate(ctx, tx, userID)
	if err != nil {
		return storageError(fmt.Errorf("lock wallet: %w", err))
	}
	if wallet == nil {
		return apperror.ErrWalletNotFound()
	}
	if wallet.PinChanged {
		return apperror.ErrPinAlreadySet()
	}

	hash, err := s.hashSvc.Hash(newPin)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("hash pin: %w", err))
	}

	nextChange := time.Now().UTC().Add(s.cooldown)
	if err := s.walletRepo.UpdatePin(ctx, tx, wallet.ID, hash, nextChange); err != nil {
		return storageError(fmt.Errorf("update pin: %w", err))
	}

	if err := tx.Commit(ctx); err != nil {
		return storageError(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().Str("user_id", userID.String()).Msg("transaction pin set")
	return nil
}

// Change rotates the PIN. The old PIN must verify and the cooldown
// window since the last change must have elapsed.
func (s *PinServiceImpl) Change(ctx context.Context, userID uuid.UUID, oldPin, newPin string) error {
	if !pinPattern.MatchString(newPin) {
		return apperror.ErrInvalidPinFormat()
	}

	tx, err := s.transactor.Begin(ctx)
	if err != nil {
		return storageError(fmt.Errorf("begin tx: %w", err))
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	wallet, err := s.walletRepo.GetByUserIDForUpdate(ctx, tx, userID)
	if err != nil {
		return storageError(fmt.Errorf("lock wallet: %w", err))
	}
	if wallet == nil {
		return apperror.ErrWalletNotFound()
	}
	if !wallet.HasPin() {
		return apperror.ErrPinNotSet()
	}
	if time.Now().UTC().Before(wallet.PinNextChange) {
		return apperror.ErrPinChangeCooldown()
	}

	ok, err := s.hashSvc.Verify(oldPin, wallet.PinHash)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("verify pin: %w", err))
	}
	if !ok {
		return apperror.ErrInvalidPin()
	}

	hash, err := s.hashSvc.Hash(newPin)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("hash pin: %w", err))
	}

	nextChange := time.Now().UTC().Add(s.cooldown)
	if err := s.walletRepo.UpdatePin(ctx, tx, wallet.ID, hash, nextChange); err != nil {
		return storageError(fmt.Errorf("update pin: %w", err))
	}

	if err := tx.Commit(ctx); err != nil {
		return storageError(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().Str("user_id", userID.String()).Msg("transaction pin changed")
	return nil
}

// Validate verifies the candidate PIN inside the caller's transaction
// scope. A wallet with no PIN configured cannot authorize anything.
func (s *PinServiceImpl) Validate(ctx context.Context, tx pgx.Tx, userID uuid.UUID, pin string) error {
	wallet, err := s.walletRepo.GetByUserIDForUpdate(ctx, tx, userID)
	if err != nil {
		return storageError(fmt.Errorf("lock wallet: %w", err))
	}
	if wallet == nil {
		return apperror.ErrWalletNotFound()
	}
	if !wallet.HasPin() {
		return apperror.ErrPinNotSet()
	}

	ok, err := s.hashSvc.Verify(pin, wallet.PinHash)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("verify pin: %w", err))
	}
	if !ok {
		return apperror.ErrInvalidPin()
	}
	return nil
}
