package ports

import (
	"context"
	"time"

	"wallet-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// WalletRepository defines persistence operations for wallets.
// Methods accepting pgx.Tx run inside a transaction scope and take a
// row lock so concurrent mutations of the same wallet serialize.
type WalletRepository interface {
	Create(ctx context.Context, wallet *domain.Wallet) error
	GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.Wallet, error)
	GetByWalletID(ctx context.Context, walletID string) (*domain.Wallet, error)
	GetByUserIDForUpdate(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (*domain.Wallet, error)
	GetByWalletIDForUpdate(ctx context.Context, tx pgx.Tx, walletID string) (*domain.Wallet, error)
	UpdateBalance(ctx context.Context, tx pgx.Tx, id uuid.UUID, balance, prevBalance decimal.Decimal, lastTransaction time.Time) error
	UpdatePin(ctx context.Context, tx pgx.Tx, id uuid.UUID, pinHash string, nextChange time.Time) error
	UpdateStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, status domain.WalletStatus, changedAt time.Time) error
	Delete(ctx context.Context, tx pgx.Tx, id uuid.UUID) error
	WalletIDExists(ctx context.Context, walletID string) (bool, error)
	// ListSweepCandidates returns zero-balance wallets still in the
	// automatic lifecycle (ACTIVE or INACTIVE); dormancy is computed
	// by the caller.
	ListSweepCandidates(ctx context.Context) ([]domain.Wallet, error)
}

// TransactionRepository defines persistence for the append-only ledger.
type TransactionRepository interface {
	Create(ctx context.Context, tx pgx.Tx, t *domain.Transaction) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error)
	ListByWallet(ctx context.Context, walletID uuid.UUID) ([]domain.Transaction, error)
	// List applies the optional conjunctive filters in params and
	// returns one page newest-first plus the unfiltered match count.
	List(ctx context.Context, params TransactionSearchParams) ([]domain.Transaction, int64, error)
}

// TransactionSearchParams holds filters + pagination for ledger queries.
// Nil filters are skipped, not treated as match-nothing.
type TransactionSearchParams struct {
	UserID    uuid.UUID
	Type      *domain.TransactionType
	Status    *domain.TransactionStatus
	Currency  *string
	MinAmount *decimal.Decimal
	MaxAmount *decimal.Decimal
	From      *time.Time
	To        *time.Time
	Page      int
	PageSize  int
}

// AuditRepository defines persistence for the append-only audit log.
type AuditRepository interface {
	Create(ctx context.Context, tx pgx.Tx, entry *domain.AuditEntry) error
	ListByWallet(ctx context.Context, walletID string) ([]domain.AuditEntry, error)
}

// DBTransactor provides database transaction management.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}
