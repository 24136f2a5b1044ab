package postgres

import (
	"context"
	"testing"
	"time"

	"wallet-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAuditEntry(walletID string) *domain.AuditEntry {
	return &domain.AuditEntry{
		ID:          uuid.New(),
		Action:      domain.AuditActionInactive,
		WalletID:    walletID,
		PerformedBy: uuid.New(),
		Reason:      "No activity for 30 days",
		CreatedAt:   time.Now().UTC().Truncate(time.Microsecond),
	}
}

func auditColumns() []string {
	return []string{"id", "action", "wallet_id", "performed_by", "reason", "created_at"}
}

func TestAuditRepo_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewAuditRepo(mock)
	e := newTestAuditEntry("1104567890")

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO audit_logs").
		WithArgs(e.ID, e.Action, e.WalletID, e.PerformedBy, e.Reason, e.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	err = repo.Create(context.Background(), tx, e)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditRepo_ListByWallet(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewAuditRepo(mock)
	e1 := newTestAuditEntry("1104567890")
	e2 := newTestAuditEntry("1104567890")
	e2.Action = domain.AuditActionReactivate
	e2.Reason = "Owner requested reactivation"

	rows := pgxmock.NewRows(auditColumns())
	for _, e := range []*domain.AuditEntry{e1, e2} {
		rows.AddRow(e.ID, e.Action, e.WalletID, e.PerformedBy, e.Reason, e.CreatedAt)
	}

	mock.ExpectQuery("SELECT .+ FROM audit_logs WHERE wallet_id .+ ORDER BY created_at DESC").
		WithArgs("1104567890").
		WillReturnRows(rows)

	entries, err := repo.ListByWallet(context.Background(), "1104567890")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, domain.AuditActionInactive, entries[0].Action)
	assert.Equal(t, domain.AuditActionReactivate, entries[1].Action)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditRepo_ListByWallet_Empty(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewAuditRepo(mock)

	mock.ExpectQuery("SELECT .+ FROM audit_logs WHERE wallet_id").
		WithArgs("1109999999").
		WillReturnRows(pgxmock.NewRows(auditColumns()))

	entries, err := repo.ListByWallet(context.Background(), "1109999999")
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.NoError(t, mock.ExpectationsWereMet())
}
