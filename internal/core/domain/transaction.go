package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType is the direction of a ledger entry.
type TransactionType string

const (
	TransactionTypeCredit TransactionType = "CREDIT"
	TransactionTypeDebit  TransactionType = "DEBIT"
)

// TransactionCategory classifies what produced a ledger entry.
type TransactionCategory string

const (
	CategoryWalletTransfer TransactionCategory = "wallet transfer"
	CategoryWalletFunding  TransactionCategory = "wallet funding"
	CategoryWithdrawal     TransactionCategory = "withdrawal"
	CategoryCharge         TransactionCategory = "charge"
)

// TransactionStatus is the settlement state of a ledger entry.
type TransactionStatus string

const (
	TransactionStatusSuccessful TransactionStatus = "Successful"
	TransactionStatusPending    TransactionStatus = "Pending"
	TransactionStatusFailed     TransactionStatus = "Failed"
)

// Transaction is an immutable ledger entry. BalanceBefore/BalanceAfter
// snapshot the owning wallet at the moment of the mutation; the two
// legs of a transfer share one Reference so they can be paired.
type Transaction struct {
	ID            uuid.UUID           `json:"id"`
	Reference     string              `json:"reference"`
	Type          TransactionType     `json:"type"`
	Category      TransactionCategory `json:"category"`
	Status        TransactionStatus   `json:"status"`
	Amount        decimal.Decimal     `json:"amount"`
	Fee           decimal.Decimal     `json:"fee"`
	Currency      string              `json:"currency"`
	BalanceBefore decimal.Decimal     `json:"balance_before"`
	BalanceAfter  decimal.Decimal     `json:"balance_after"`
	Description   string              `json:"description,omitempty"`
	WalletID      uuid.UUID           `json:"wallet_id"`
	UserID        uuid.UUID           `json:"user_id"`
	CreatedAt     time.Time           `json:"created_at"`
}

const transferReferencePrefix = "TRANS-"

// NewTransferReference generates the correlation reference shared by
// both legs of a transfer.
func NewTransferReference() string {
	token := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return transferReferencePrefix + token
}
