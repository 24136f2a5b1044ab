package domain

import (
	"time"

	"github.com/google/uuid"
)

// AuditAction tags a wallet lifecycle event.
type AuditAction string

const (
	AuditActionInactive   AuditAction = "INACTIVE"
	AuditActionSuspend    AuditAction = "SUSPEND"
	AuditActionReactivate AuditAction = "REACTIVATE"
	AuditActionDeactivate AuditAction = "DEACTIVATE"
	AuditActionDelete     AuditAction = "DELETE"
)

// AuditEntry records who changed a wallet's lifecycle state, and why.
// Entries are append-only; automated sweeps use the reserved system
// actor id from configuration as PerformedBy.
type AuditEntry struct {
	ID          uuid.UUID   `json:"id"`
	Action      AuditAction `json:"action"`
	WalletID    string      `json:"wallet_id"` // public wallet identifier, survives deletion
	PerformedBy uuid.UUID   `json:"performed_by"`
	Reason      string      `json:"reason"`
	CreatedAt   time.Time   `json:"created_at"`
}
