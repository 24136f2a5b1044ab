package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EventKind identifies a wallet domain event published for the
// notification collaborator.
type EventKind string

const (
	EventWalletCreated     EventKind = "wallet.created"
	EventWalletFunded      EventKind = "wallet.funded"
	EventFundsWithdrawn    EventKind = "wallet.withdrawn"
	EventFundsTransferred  EventKind = "wallet.transferred"
	EventStatusChanged     EventKind = "wallet.status_changed"
	EventWalletDeleted     EventKind = "wallet.deleted"
)

// Event is the payload handed to the notification emitter after a
// committed operation. Amounts carry both the machine value and a
// display rendering so the email collaborator needs no formatting
// logic of its own.
type Event struct {
	Kind              EventKind       `json:"kind"`
	UserID            uuid.UUID       `json:"user_id"`
	WalletID          string          `json:"wallet_id"`
	RecipientWalletID string          `json:"recipient_wallet_id,omitempty"`
	Amount            decimal.Decimal `json:"amount"`
	AmountDisplay     string          `json:"amount_display,omitempty"`
	Fee               decimal.Decimal `json:"fee"`
	SenderBalance     decimal.Decimal `json:"sender_balance"`
	RecipientBalance  decimal.Decimal `json:"recipient_balance"`
	Reference         string          `json:"reference,omitempty"`
	Status            WalletStatus    `json:"status,omitempty"`
	Reason            string          `json:"reason,omitempty"`
	OccurredAt        time.Time       `json:"occurred_at"`
}
