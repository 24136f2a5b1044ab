package ports

import (
	"context"
	"time"

	"wallet-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// WalletMutation pairs the pre-mutation snapshot with the updated
// wallet so callers can build before/after ledger records without
// re-reading storage.
type WalletMutation struct {
	Previous *domain.Wallet
	Current  *domain.Wallet
}

// WalletService owns wallet provisioning, the atomic credit/debit
// primitives, and the manual lifecycle transitions.
type WalletService interface {
	// OnIdentityConfirmed provisions a wallet for a newly verified
	// user. Idempotent: an existing wallet is returned as-is.
	OnIdentityConfirmed(ctx context.Context, userID uuid.UUID) (*domain.Wallet, error)
	GetByUser(ctx context.Context, userID uuid.UUID) (*domain.Wallet, error)
	GetByWalletID(ctx context.Context, walletID string) (*domain.Wallet, error)

	// Credit and Debit execute inside the caller-supplied transaction
	// scope so they compose with other mutations.
	Credit(ctx context.Context, tx pgx.Tx, userID uuid.UUID, amount decimal.Decimal) (*WalletMutation, error)
	Debit(ctx context.Context, tx pgx.Tx, userID uuid.UUID, amount decimal.Decimal) (*WalletMutation, error)

	Reactivate(ctx context.Context, walletID string, actorID uuid.UUID) (*domain.Wallet, error)
	Deactivate(ctx context.Context, walletID string, actorID uuid.UUID) error
	AuditTrail(ctx context.Context, walletID string) ([]domain.AuditEntry, error)
}

// TransferRequest holds validated input for a cross-wallet transfer.
type TransferRequest struct {
	SenderID          uuid.UUID
	RecipientWalletID string
	Amount            decimal.Decimal
	Pin               string
	Description       string
}

// FundRequest holds validated input for funding a wallet.
type FundRequest struct {
	UserID      uuid.UUID
	Amount      decimal.Decimal
	Description string
}

// WithdrawRequest holds validated input for a withdrawal.
type WithdrawRequest struct {
	UserID      uuid.UUID
	Amount      decimal.Decimal
	Pin         string
	Description string
}

// TransferService orchestrates the money-moving operations. Each call
// runs as one atomic transaction scope; the notification event is
// published only after commit.
type TransferService interface {
	Transfer(ctx context.Context, req TransferRequest) (*domain.Wallet, error)
	Fund(ctx context.Context, req FundRequest) (*domain.Wallet, error)
	Withdraw(ctx context.Context, req WithdrawRequest) (*domain.Wallet, error)
}

// PinService manages the secondary transfer-authorizing credential.
type PinService interface {
	Set(ctx context.Context, userID uuid.UUID, newPin string) error
	Change(ctx context.Context, userID uuid.UUID, oldPin, newPin string) error
	// Validate verifies the candidate PIN inside the caller's
	// transaction scope so the gate composes with the mutation it
	// authorizes.
	Validate(ctx context.Context, tx pgx.Tx, userID uuid.UUID, pin string) error
}

// TransactionPage is one page of ledger records.
type TransactionPage struct {
	Items      []domain.Transaction `json:"items"`
	Total      int64                `json:"total"`
	Page       int                  `json:"page"`
	PageSize   int                  `json:"page_size"`
	TotalPages int                  `json:"total_pages"`
}

// LedgerService exposes the read side of the transaction ledger.
type LedgerService interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error)
	ListByWallet(ctx context.Context, walletID uuid.UUID) ([]domain.Transaction, error)
	ListByUser(ctx context.Context, userID uuid.UUID, page, pageSize int) (*TransactionPage, error)
	Search(ctx context.Context, params TransactionSearchParams) (*TransactionPage, error)
	FilterByDateRange(ctx context.Context, userID uuid.UUID, from, to *time.Time, page, pageSize int) (*TransactionPage, error)
}

// HashService handles PIN hashing.
type HashService interface {
	Hash(pin string) (string, error)
	Verify(pin string, hash string) (bool, error)
}

// EventPublisher is the outbound notification emitter. Publishing is
// best-effort: failures are logged by callers and never unwind the
// financial operation.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.Event) error
}

// TokenService validates bearer tokens issued by the authentication
// collaborator and resolves the authenticated user id.
type TokenService interface {
	Generate(userID uuid.UUID) (string, time.Time, error)
	Validate(token string) (uuid.UUID, error)
}
