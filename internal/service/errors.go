package service

import (
	"errors"

	"wallet-ledger/pkg/apperror"

	"github.com/jackc/pgx/v5/pgconn"
)

// Postgres SQLSTATEs raised when concurrent transaction scopes collide.
const (
	sqlstateSerializationFailure = "40001"
	sqlstateDeadlockDetected     = "40P01"
)

// storageError maps a storage failure onto the error taxonomy:
// serialization failures and deadlocks become the retryable conflict
// kind, everything else stays internal.
func storageError(err error) *apperror.AppError {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case sqlstateSerializationFailure, sqlstateDeadlockDetected:
			return apperror.ErrConflict(err)
		}
	}
	return apperror.InternalError(err)
}
