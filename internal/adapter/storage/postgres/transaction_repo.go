package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"wallet-ledger/internal/core/domain"
	"wallet-ledger/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const transactionColumns = `id, reference, type, category, status, amount, fee, currency,
	balance_before, balance_after, description, wallet_id, user_id, created_at`

// TransactionRepo implements ports.TransactionRepository. The ledger
// is append-only: there is no update or delete path.
type TransactionRepo struct {
	pool Pool
}

// NewTransactionRepo creates a new TransactionRepo.
func NewTransactionRepo(pool Pool) *TransactionRepo {
	return &TransactionRepo{pool: pool}
}

// Create appends a ledger entry within a database transaction.
func (r *TransactionRepo) Create(ctx context.Context, tx pgx.Tx, t *domain.Transaction) error {
	query := `INSERT INTO transactions (id, reference, type, category, status, amount, fee, currency,
		balance_before, balance_after, description, wallet_id, user_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	_, err := tx.Exec(ctx, query,
		t.ID, t.Reference, t.Type, t.Category, t.Status,
		t.Amount, t.Fee, t.Currency, t.BalanceBefore, t.BalanceAfter,
		t.Description, t.WalletID, t.UserID, t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

// GetByID fetches a ledger entry by UUID.
func (r *TransactionRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	query := fmt.Sprintf(`SELECT %s FROM transactions WHERE id = $1`, transactionColumns)
	return r.scanTransaction(r.pool.QueryRow(ctx, query, id))
}

// ListByWallet fetches all ledger entries for a wallet, newest first.
func (r *TransactionRepo) ListByWallet(ctx context.Context, walletID uuid.UUID) ([]domain.Transaction, error) {
	query := fmt.Sprintf(`SELECT %s FROM transactions WHERE wallet_id = $1 ORDER BY created_at DESC`, transactionColumns)

	rows, err := r.pool.Query(ctx, query, walletID)
	if err != nil {
		return nil, fmt.Errorf("list transactions by wallet: %w", err)
	}
	defer rows.Close()

	return collectTransactions(rows)
}

// List fetches ledger entries with optional conjunctive filters and
// pagination, newest first, plus the total match count.
func (r *TransactionRepo) List(ctx context.Context, params ports.TransactionSearchParams) ([]domain.Transaction, int64, error) {
	var conditions []string
	var args []any
	argIdx := 1

	conditions = append(conditions, fmt.Sprintf("user_id = $%d", argIdx))
	args = append(args, params.UserID)
	argIdx++

	if params.Type != nil {
		conditions = append(conditions, fmt.Sprintf("type = $%d", argIdx))
		args = append(args, *params.Type)
		argIdx++
	}
	if params.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, *params.Status)
		argIdx++
	}
	if params.Currency != nil {
		conditions = append(conditions, fmt.Sprintf("currency = $%d", argIdx))
		args = append(args, *params.Currency)
		argIdx++
	}
	if params.MinAmount != nil {
		conditions = append(conditions, fmt.Sprintf("amount >= $%d", argIdx))
		args = append(args, *params.MinAmount)
		argIdx++
	}
	if params.MaxAmount != nil {
		conditions = append(conditions, fmt.Sprintf("amount <= $%d", argIdx))
		args = append(args, *params.MaxAmount)
		argIdx++
	}
	if params.From != nil {
		conditions = append(conditions, fmt.Sprintf("created_at >= $%d", argIdx))
		args = append(args, *params.From)
		argIdx++
	}
	if params.To != nil {
		conditions = append(conditions, fmt.Sprintf("created_at <= $%d", argIdx))
		args = append(args, *params.To)
		argIdx++
	}

	where := "WHERE " + strings.Join(conditions, " AND ")

	// Count total
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM transactions %s", where)
	var total int64
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count transactions: %w", err)
	}

	// Fetch page
	offset := (params.Page - 1) * params.PageSize
	dataQuery := fmt.Sprintf(`SELECT %s FROM transactions %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		transactionColumns, where, argIdx, argIdx+1)
	args = append(args, params.PageSize, offset)

	rows, err := r.pool.Query(ctx, dataQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	txns, err := collectTransactions(rows)
	if err != nil {
		return nil, 0, err
	}
	return txns, total, nil
}

func collectTransactions(rows pgx.Rows) ([]domain.Transaction, error) {
	var txns []domain.Transaction
	for rows.Next() {
		var t domain.Transaction
		err := rows.Scan(
			&t.ID, &t.Reference, &t.Type, &t.Category, &t.Status,
			&t.Amount, &t.Fee, &t.Currency, &t.BalanceBefore, &t.BalanceAfter,
			&t.Description, &t.WalletID, &t.UserID, &t.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan transaction row: %w", err)
		}
		txns = append(txns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transaction rows: %w", err)
	}
	return txns, nil
}

// scanTransaction is a helper to scan a single row into a Transaction.
func (r *TransactionRepo) scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	t := &domain.Transaction{}
	err := row.Scan(
		&t.ID, &t.Reference, &t.Type, &t.Category, &t.Status,
		&t.Amount, &t.Fee, &t.Currency, &t.BalanceBefore, &t.BalanceAfter,
		&t.Description, &t.WalletID, &t.UserID, &t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan transaction: %w", err)
	}
	return t, nil
}
