package postgres

import (
	"context"
	"fmt"

	"wallet-ledger/internal/core/domain"

	"github.com/jackc/pgx/v5"
)

// AuditRepo implements ports.AuditRepository. Entries are written
// inside the same transaction as the lifecycle change they record and
// are never mutated or deleted.
type AuditRepo struct {
	pool Pool
}

// NewAuditRepo creates a new AuditRepo.
func NewAuditRepo(pool Pool) *AuditRepo {
	return &AuditRepo{pool: pool}
}

// Create appends an audit entry within a database transaction.
func (r *AuditRepo) Create(ctx context.Context, tx pgx.Tx, e *domain.AuditEntry) error {
	query := `INSERT INTO audit_logs (id, action, wallet_id, performed_by, reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := tx.Exec(ctx, query, e.ID, e.Action, e.WalletID, e.PerformedBy, e.Reason, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// ListByWallet fetches the audit trail for a wallet, newest first.
func (r *AuditRepo) ListByWallet(ctx context.Context, walletID string) ([]domain.AuditEntry, error) {
	query := `SELECT id, action, wallet_id, performed_by, reason, created_at
		FROM audit_logs WHERE wallet_id = $1 ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, walletID)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	defer rows.Close()

	var entries []domain.AuditEntry
	for rows.Next() {
		var e domain.AuditEntry
		if err := rows.Scan(&e.ID, &e.Action, &e.WalletID, &e.PerformedBy, &e.Reason, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit entries: %w", err)
	}
	return entries, nil
}
