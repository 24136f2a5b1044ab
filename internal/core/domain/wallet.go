package domain

import (
	"crypto/rand"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// WalletStatus is the lifecycle state of a wallet.
type WalletStatus string

const (
	WalletStatusActive    WalletStatus = "ACTIVE"
	WalletStatusInactive  WalletStatus = "INACTIVE"
	WalletStatusSuspended WalletStatus = "SUSPENDED"
)

// Wallet is the single monetary account owned by a user. The public
// WalletID is the identifier other users address transfers to; it is
// immutable once assigned.
type Wallet struct {
	ID                   uuid.UUID       `json:"id"`
	WalletID             string          `json:"wallet_id"`
	UserID               uuid.UUID       `json:"user_id"`
	Balance              decimal.Decimal `json:"balance"`
	PrevBalance          decimal.Decimal `json:"prev_balance"`
	PinHash              string          `json:"-"` // bcrypt, empty until first SetPin
	PinChanged           bool            `json:"-"`
	PinNextChange        time.Time       `json:"-"`
	Status               WalletStatus    `json:"status"`
	LastTransactionDate  time.Time       `json:"last_transaction_date"`
	LastStatusChangeDate time.Time       `json:"last_status_change_date"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
}

// Clone returns a by-value snapshot of the wallet. Callers use it to
// capture the pre-mutation state for before/after ledger pairs.
func (w *Wallet) Clone() *Wallet {
	c := *w
	return &c
}

// HasPin reports whether a transaction PIN has been configured.
func (w *Wallet) HasPin() bool {
	return w.PinHash != ""
}

// DormantFor returns the elapsed time since the wallet's last
// balance-affecting transaction.
func (w *Wallet) DormantFor(now time.Time) time.Duration {
	return now.Sub(w.LastTransactionDate)
}

const (
	walletIDPrefix = "110"
	walletIDDigits = 7
)

// NewWalletIDCandidate generates a candidate public wallet identifier:
// a fixed prefix followed by random digits. Uniqueness is verified by
// the caller against storage, retrying until unique.
func NewWalletIDCandidate() (string, error) {
	ten := big.NewInt(10)
	buf := make([]byte, walletIDDigits)
	for i := range buf {
		n, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", err
		}
		buf[i] = byte('0' + n.Int64())
	}
	return walletIDPrefix + string(buf), nil
}
