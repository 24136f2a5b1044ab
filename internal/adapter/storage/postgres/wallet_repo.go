package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"wallet-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const walletColumns = `id, wallet_id, user_id, balance, prev_balance, pin_hash, pin_changed,
	pin_next_change, status, last_transaction_date, last_status_change_date, created_at, updated_at`

// WalletRepo implements ports.WalletRepository.
type WalletRepo struct {
	pool Pool
}

// NewWalletRepo creates a new WalletRepo.
func NewWalletRepo(pool Pool) *WalletRepo {
	return &WalletRepo{pool: pool}
}

// Create inserts a new wallet into the database.
func (r *WalletRepo) Create(ctx context.Context, w *domain.Wallet) error {
	query := `INSERT INTO wallets (id, wallet_id, user_id, balance, prev_balance, pin_hash, pin_changed,
		pin_next_change, status, last_transaction_date, last_status_change_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err := r.pool.Exec(ctx, query,
		w.ID, w.WalletID, w.UserID, w.Balance, w.PrevBalance, w.PinHash, w.PinChanged,
		w.PinNextChange, w.Status, w.LastTransactionDate, w.LastStatusChangeDate,
		w.CreatedAt, w.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert wallet: %w", err)
	}
	return nil
}

// GetByUserID fetches the wallet owned by a user (non-locking read).
func (r *WalletRepo) GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.Wallet, error) {
	query := fmt.Sprintf(`SELECT %s FROM wallets WHERE user_id = $1`, walletColumns)
	return r.scanWallet(r.pool.QueryRow(ctx, query, userID))
}

// GetByWalletID fetches a wallet by its public identifier (non-locking read).
func (r *WalletRepo) GetByWalletID(ctx context.Context, walletID string) (*domain.Wallet, error) {
	query := fmt.Sprintf(`SELECT %s FROM wallets WHERE wallet_id = $1`, walletColumns)
	return r.scanWallet(r.pool.QueryRow(ctx, query, walletID))
}

// GetByUserIDForUpdate fetches the user's wallet with a row lock.
// This MUST be called within a transaction.
func (r *WalletRepo) GetByUserIDForUpdate(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (*domain.Wallet, error) {
	query := fmt.Sprintf(`SELECT %s FROM wallets WHERE user_id = $1 FOR UPDATE`, walletColumns)
	return r.scanWallet(tx.QueryRow(ctx, query, userID))
}

// GetByWalletIDForUpdate fetches a wallet by public identifier with a row lock.
// This MUST be called within a transaction.
func (r *WalletRepo) GetByWalletIDForUpdate(ctx context.Context, tx pgx.Tx, walletID string) (*domain.Wallet, error) {
	query := fmt.Sprintf(`SELECT %s FROM wallets WHERE wallet_id = $1 FOR UPDATE`, walletColumns)
	return r.scanWallet(tx.QueryRow(ctx, query, walletID))
}

// UpdateBalance writes the mutated balance, the previous-balance
// snapshot and the last-transaction stamp within a transaction.
func (r *WalletRepo) UpdateBalance(ctx context.Context, tx pgx.Tx, id uuid.UUID, balance, prevBalance decimal.Decimal, lastTransaction time.Time) error {
	query := `UPDATE wallets SET balance = $1, prev_balance = $2, last_transaction_date = $3, updated_at = NOW() WHERE id = $4`

	tag, err := tx.Exec(ctx, query, balance, prevBalance, lastTransaction, id)
	if err != nil {
		return fmt.Errorf("update wallet balance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("wallet not found: %s", id)
	}
	return nil
}

// UpdatePin stores a new PIN hash and the next-eligible-change stamp.
func (r *WalletRepo) UpdatePin(ctx context.Context, tx pgx.Tx, id uuid.UUID, pinHash string, nextChange time.Time) error {
	query := `UPDATE wallets SET pin_hash = $1, pin_changed = TRUE, pin_next_change = $2, updated_at = NOW() WHERE id = $3`

	tag, err := tx.Exec(ctx, query, pinHash, nextChange, id)
	if err != nil {
		return fmt.Errorf("update wallet pin: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("wallet not found: %s", id)
	}
	return nil
}

// UpdateStatus advances the lifecycle state and stamps the change.
func (r *WalletRepo) UpdateStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, status domain.WalletStatus, changedAt time.Time) error {
	query := `UPDATE wallets SET status = $1, last_status_change_date = $2, updated_at = NOW() WHERE id = $3`

	tag, err := tx.Exec(ctx, query, status, changedAt, id)
	if err != nil {
		return fmt.Errorf("update wallet status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("wallet not found: %s", id)
	}
	return nil
}

// Delete permanently removes a wallet row. Callers enforce the
// zero-balance precondition and write the DELETE audit entry in the
// same transaction.
func (r *WalletRepo) Delete(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	tag, err := tx.Exec(ctx, `DELETE FROM wallets WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete wallet: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("wallet not found: %s", id)
	}
	return nil
}

// WalletIDExists reports whether a public wallet identifier is taken.
func (r *WalletRepo) WalletIDExists(ctx context.Context, walletID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM wallets WHERE wallet_id = $1)`, walletID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check wallet id exists: %w", err)
	}
	return exists, nil
}

// ListSweepCandidates returns zero-balance wallets still under the
// automatic lifecycle. Dormancy itself is computed in code by the
// sweeper for portability across storage engines.
func (r *WalletRepo) ListSweepCandidates(ctx context.Context) ([]domain.Wallet, error) {
	query := fmt.Sprintf(`SELECT %s FROM wallets WHERE balance = 0 AND status IN ('ACTIVE', 'INACTIVE')`, walletColumns)

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list sweep candidates: %w", err)
	}
	defer rows.Close()

	var wallets []domain.Wallet
	for rows.Next() {
		var w domain.Wallet
		if err := scanWalletFields(rows, &w); err != nil {
			return nil, fmt.Errorf("scan sweep candidate: %w", err)
		}
		wallets = append(wallets, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sweep candidates: %w", err)
	}
	return wallets, nil
}

// scanWallet is a helper to scan a single row into a Wallet.
func (r *WalletRepo) scanWallet(row pgx.Row) (*domain.Wallet, error) {
	w := &domain.Wallet{}
	if err := scanWalletFields(row, w); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan wallet: %w", err)
	}
	return w, nil
}

func scanWalletFields(row pgx.Row, w *domain.Wallet) error {
	return row.Scan(
		&w.ID, &w.WalletID, &w.UserID, &w.Balance, &w.PrevBalance,
		&w.PinHash, &w.PinChanged, &w.PinNextChange, &w.Status,
		&w.LastTransactionDate, &w.LastStatusChangeDate,
		&w.CreatedAt, &w.UpdatedAt,
	)
}
