package service

import (
	"context"
	"fmt"
	"time"

	"wallet-ledger/internal/core/domain"
	"wallet-ledger/internal/core/ports"
	"wallet-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// TransferServiceImpl implements ports.TransferService. Every
// operation runs as one transaction scope: PIN gate, balance
// mutations and ledger records commit together or not at all, and the
// notification event is published strictly after commit.
type TransferServiceImpl struct {
	walletSvc  ports.WalletService
	pinSvc     ports.PinService
	walletRepo ports.WalletRepository
	txRepo     ports.TransactionRepository
	transactor ports.DBTransactor
	publisher  ports.EventPublisher
	currency   string
	log        zerolog.Logger
}

// NewTransferService creates a new TransferServiceImpl.
func NewTransferService(
	walletSvc ports.WalletService,
	pinSvc ports.PinService,
	walletRepo ports.WalletRepository,
	txRepo ports.TransactionRepository,
	transactor ports.DBTransactor,
	publisher ports.EventPublisher,
	currency string,
	log zerolog.Logger,
) *TransferServiceImpl {
	return &TransferServiceImpl{
		walletSvc:  walletSvc,
		pinSvc:     pinSvc,
		walletRepo: walletRepo,
		txRepo:     txRepo,
		transactor: transactor,
		publisher:  publisher,
		currency:   currency,
		log:        log,
	}
}

// Transfer moves funds from the sender's wallet to the wallet with the
// given public identifier. The sender is debited amount + fee, the
// recipient is credited the amount, and both legs share one
// correlation reference.
func (s *TransferServiceImpl) Transfer(ctx context.Context, req ports.TransferRequest) (*domain.Wallet, error) {
	if !req.Amount.IsPositive() {
		return nil, apperror.ErrInvalidAmount()
	}

	fee := domain.CalculateTransferFee(req.Amount)

	tx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, storageError(fmt.Errorf("begin tx: %w", err))
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := s.pinSvc.Validate(ctx, tx, req.SenderID, req.Pin); err != nil {
		return nil, err
	}

	debit, err := s.walletSvc.Debit(ctx, tx, req.SenderID, fee.AmountWithCharge)
	if err != nil {
		return nil, err
	}

	recipient, err := s.walletRepo.GetByWalletIDForUpdate(ctx, tx, req.RecipientWalletID)
	if err != nil {
		return nil, storageError(fmt.Errorf("lock recipient wallet: %w", err))
	}
	if recipient == nil {
		return nil, apperror.ErrUnknownWallet()
	}
	if recipient.UserID == req.SenderID {
		return nil, apperror.ErrSelfTransfer()
	}

	credit, err := s.walletSvc.Credit(ctx, tx, recipient.UserID, req.Amount)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	reference := domain.NewTransferReference()

	senderDesc := req.Description
	if senderDesc == "" {
		senderDesc = "Transfer Successful"
	}
	recipientDesc := req.Description
	if recipientDesc == "" {
		recipientDesc = fmt.Sprintf("Received from wallet %s", debit.Current.WalletID)
	}

	senderLeg := &domain.Transaction{
		ID:            uuid.New(),
		Reference:     reference,
		Type:          domain.TransactionTypeDebit,
		Category:      domain.CategoryWalletTransfer,
		Status:        domain.TransactionStatusSuccessful,
		Amount:        req.Amount,
		Fee:           fee.Charge,
		Currency:      s.currency,
		BalanceBefore: debit.Previous.Balance,
		BalanceAfter:  debit.Current.Balance,
		Description:   senderDesc,
		WalletID:      debit.Current.ID,
		UserID:        req.SenderID,
		CreatedAt:     now,
	}
	if err := s.txRepo.Create(ctx, tx, senderLeg); err != nil {
		return nil, storageError(fmt.Errorf("create debit leg: %w", err))
	}

	recipientLeg := &domain.Transaction{
		ID:            uuid.New(),
		Reference:     reference,
		Type:          domain.TransactionTypeCredit,
		Category:      domain.CategoryWalletTransfer,
		Status:        domain.TransactionStatusSuccessful,
		Amount:        req.Amount,
		Fee:           domain.Zero(),
		Currency:      s.currency,
		BalanceBefore: credit.Previous.Balance,
		BalanceAfter:  credit.Current.Balance,
		Description:   recipientDesc,
		WalletID:      credit.Current.ID,
		UserID:        recipient.UserID,
		CreatedAt:     now,
	}
	if err := s.txRepo.Create(ctx, tx, recipientLeg); err != nil {
		return nil, storageError(fmt.Errorf("create credit leg: %w", err))
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, storageError(fmt.Errorf("commit tx: %w", err))
	}

	s.publishEvent(ctx, domain.Event{
		Kind:              domain.EventFundsTransferred,
		UserID:            req.SenderID,
		WalletID:          debit.Current.WalletID,
		RecipientWalletID: req.RecipientWalletID,
		Amount:            req.Amount,
		AmountDisplay:     domain.FormatAmount(req.Amount),
		Fee:               fee.Charge,
		SenderBalance:     debit.Current.Balance,
		RecipientBalance:  credit.Current.Balance,
		Reference:         reference,
		OccurredAt:        now,
	})

	s.log.Info().
		Str("reference", reference).
		Str("sender_id", req.SenderID.String()).
		Str("recipient_wallet_id", req.RecipientWalletID).
		Str("amount", req.Amount.StringFixed(2)).
		Str("fee", fee.Charge.StringFixed(2)).
		Msg("transfer completed")

	return debit.Current, nil
}

// Fund credits the user's own wallet and appends one funding record.
func (s *TransferServiceImpl) Fund(ctx context.Context, req ports.FundRequest) (*domain.Wallet, error) {
	if !req.Amount.IsPositive() {
		return nil, apperror.ErrInvalidAmount()
	}

	tx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, storageError(fmt.Errorf("begin tx: %w", err))
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	credit, err := s.walletSvc.Credit(ctx, tx, req.UserID, req.Amount)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	description := req.Description
	if description == "" {
		description = "Wallet funded successfully"
	}

	record := &domain.Transaction{
		ID:            uuid.New(),
		Reference:     domain.NewTransferReference(),
		Type:          domain.TransactionTypeCredit,
		Category:      domain.CategoryWalletFunding,
		Status:        domain.TransactionStatusSuccessful,
		Amount:        req.Amount,
		Fee:           domain.Zero(),
		Currency:      s.currency,
		BalanceBefore: credit.Previous.Balance,
		BalanceAfter:  credit.Current.Balance,
		Description:   description,
		WalletID:      credit.Current.ID,
		UserID:        req.UserID,
		CreatedAt:     now,
	}
	if err := s.txRepo.Create(ctx, tx, record); err != nil {
		return nil, storageError(fmt.Errorf("create funding record: %w", err))
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, storageError(fmt.Errorf("commit tx: %w", err))
	}

	s.publishEvent(ctx, domain.Event{
		Kind:          domain.EventWalletFunded,
		UserID:        req.UserID,
		WalletID:      credit.Current.WalletID,
		Amount:        req.Amount,
		AmountDisplay: domain.FormatAmount(req.Amount),
		SenderBalance: credit.Current.Balance,
		Reference:     record.Reference,
		OccurredAt:    now,
	})

	s.log.Info().
		Str("user_id", req.UserID.String()).
		Str("amount", req.Amount.StringFixed(2)).
		Msg("wallet funded")

	return credit.Current, nil
}

// Withdraw debits the user's wallet after the PIN gate and appends one
// withdrawal record.
func (s *TransferServiceImpl) Withdraw(ctx context.Context, req ports.WithdrawRequest) (*domain.Wallet, error) {
	if !req.Amount.IsPositive() {
		return nil, apperror.ErrInvalidAmount()
	}

	tx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, storageError(fmt.Errorf("begin tx: %w", err))
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := s.pinSvc.Validate(ctx, tx, req.UserID, req.Pin); err != nil {
		return nil, err
	}

	debit, err := s.walletSvc.Debit(ctx, tx, req.UserID, req.Amount)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	description := req.Description
	if description == "" {
		description = "Withdrawal successful"
	}

	record := &domain.Transaction{
		ID:            uuid.New(),
		Reference:     domain.NewTransferReference(),
		Type:          domain.TransactionTypeDebit,
		Category:      domain.CategoryWithdrawal,
		Status:        domain.TransactionStatusSuccessful,
		Amount:        req.Amount,
		Fee:           domain.Zero(),
		Currency:      s.currency,
		BalanceBefore: debit.Previous.Balance,
		BalanceAfter:  debit.Current.Balance,
		Description:   description,
		WalletID:      debit.Current.ID,
		UserID:        req.UserID,
		CreatedAt:     now,
	}
	if err := s.txRepo.Create(ctx, tx, record); err != nil {
		return nil, storageError(fmt.Errorf("create withdrawal record: %w", err))
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, storageError(fmt.Errorf("commit tx: %w", err))
	}

	s.publishEvent(ctx, domain.Event{
		Kind:          domain.EventFundsWithdrawn,
		UserID:        req.UserID,
		WalletID:      debit.Current.WalletID,
		Amount:        req.Amount,
		AmountDisplay: domain.FormatAmount(req.Amount),
		SenderBalance: debit.Current.Balance,
		Reference:     record.Reference,
		OccurredAt:    now,
	})

	s.log.Info().
		Str("user_id", req.UserID.String()).
		Str("amount", req.Amount.StringFixed(2)).
		Msg("withdrawal completed")

	return debit.Current, nil
}

func (s *TransferServiceImpl) publishEvent(ctx context.Context, event domain.Event) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.log.Warn().Err(err).Str("kind", string(event.Kind)).Msg("failed to publish wallet event")
	}
}
