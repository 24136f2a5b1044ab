package dto

import (
	"time"

	"wallet-ledger/internal/core/domain"
	"wallet-ledger/internal/core/ports"

	"github.com/shopspring/decimal"
)

// FundRequest is the request body for funding a wallet.
type FundRequest struct {
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	Description string          `json:"description" binding:"max=255"`
}

// WithdrawRequest is the request body for a withdrawal.
type WithdrawRequest struct {
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	Pin         string          `json:"pin" binding:"required,len=4,numeric"`
	Description string          `json:"description" binding:"max=255"`
}

// TransferRequest is the request body for a cross-wallet transfer.
type TransferRequest struct {
	RecipientWalletID string          `json:"recipient_wallet_id" binding:"required,wallet_id"`
	Amount            decimal.Decimal `json:"amount" binding:"required"`
	Pin               string          `json:"pin" binding:"required,len=4,numeric"`
	Description       string          `json:"description" binding:"max=255"`
}

// SetPinRequest is the request body for setting the transaction PIN.
type SetPinRequest struct {
	Pin string `json:"pin" binding:"required,len=4,numeric"`
}

// ChangePinRequest is the request body for rotating the transaction PIN.
type ChangePinRequest struct {
	OldPin string `json:"old_pin" binding:"required,len=4,numeric"`
	NewPin string `json:"new_pin" binding:"required,len=4,numeric"`
}

// ProvisionRequest is the internal hook body sent by the authentication
// collaborator once a user's identity is confirmed.
type ProvisionRequest struct {
	UserID string `json:"user_id" binding:"required,uuid"`
}

// WalletResponse is the public view of a wallet.
type WalletResponse struct {
	WalletID            string `json:"wallet_id"`
	Balance             string `json:"balance"`
	Currency            string `json:"currency"`
	Status              string `json:"status"`
	PinSet              bool   `json:"pin_set"`
	LastTransactionDate string `json:"last_transaction_date"`
	CreatedAt           string `json:"created_at"`
}

// ToWalletResponse maps a domain wallet to its public view.
func ToWalletResponse(w *domain.Wallet, currency string) WalletResponse {
	return WalletResponse{
		WalletID:            w.WalletID,
		Balance:             w.Balance.StringFixed(2),
		Currency:            currency,
		Status:              string(w.Status),
		PinSet:              w.HasPin(),
		LastTransactionDate: w.LastTransactionDate.UTC().Format(time.RFC3339),
		CreatedAt:           w.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// TransactionResponse is the public view of a ledger record.
type TransactionResponse struct {
	ID            string `json:"id"`
	Reference     string `json:"reference"`
	Type          string `json:"type"`
	Category      string `json:"category"`
	Status        string `json:"status"`
	Amount        string `json:"amount"`
	Fee           string `json:"fee"`
	Currency      string `json:"currency"`
	BalanceBefore string `json:"balance_before"`
	BalanceAfter  string `json:"balance_after"`
	Description   string `json:"description"`
	CreatedAt     string `json:"created_at"`
}

// ToTransactionResponse maps a domain transaction to its public view.
func ToTransactionResponse(t *domain.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:            t.ID.String(),
		Reference:     t.Reference,
		Type:          string(t.Type),
		Category:      string(t.Category),
		Status:        string(t.Status),
		Amount:        t.Amount.StringFixed(2),
		Fee:           t.Fee.StringFixed(2),
		Currency:      t.Currency,
		BalanceBefore: t.BalanceBefore.StringFixed(2),
		BalanceAfter:  t.BalanceAfter.StringFixed(2),
		Description:   t.Description,
		CreatedAt:     t.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// TransactionListResponse wraps a paginated transaction list.
type TransactionListResponse struct {
	Items      []TransactionResponse `json:"items"`
	Total      int64                 `json:"total"`
	Page       int                   `json:"page"`
	PageSize   int                   `json:"page_size"`
	TotalPages int                   `json:"total_pages"`
}

// ToTransactionListResponse maps a ledger page to its public view.
func ToTransactionListResponse(p *ports.TransactionPage) TransactionListResponse {
	items := make([]TransactionResponse, 0, len(p.Items))
	for i := range p.Items {
		items = append(items, ToTransactionResponse(&p.Items[i]))
	}
	return TransactionListResponse{
		Items:      items,
		Total:      p.Total,
		Page:       p.Page,
		PageSize:   p.PageSize,
		TotalPages: p.TotalPages,
	}
}

// AuditEntryResponse is the public view of an audit log entry.
type AuditEntryResponse struct {
	ID          string `json:"id"`
	Action      string `json:"action"`
	WalletID    string `json:"wallet_id"`
	PerformedBy string `json:"performed_by"`
	Reason      string `json:"reason"`
	CreatedAt   string `json:"created_at"`
}

// ToAuditEntryResponse maps a domain audit entry to its public view.
func ToAuditEntryResponse(e *domain.AuditEntry) AuditEntryResponse {
	return AuditEntryResponse{
		ID:          e.ID.String(),
		Action:      string(e.Action),
		WalletID:    e.WalletID,
		PerformedBy: e.PerformedBy.String(),
		Reason:      e.Reason,
		CreatedAt:   e.CreatedAt.UTC().Format(time.RFC3339),
	}
}
