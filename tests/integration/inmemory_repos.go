package integration

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"wallet-ledger/internal/core/domain"
	"wallet-ledger/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

// --- In-Memory Wallet Repo ---

// inMemoryWalletRepo mimics the row-locking behavior of the postgres
// repo: ForUpdate reads acquire a per-wallet mutex that is held until
// the owning transaction commits or rolls back, so concurrent
// mutations of the same wallet serialize exactly as FOR UPDATE does.
type inMemoryWalletRepo struct {
	mu      sync.RWMutex
	wallets map[uuid.UUID]*domain.Wallet
	locks   map[uuid.UUID]*sync.Mutex
}

func newInMemoryWalletRepo() *inMemoryWalletRepo {
	return &inMemoryWalletRepo{
		wallets: make(map[uuid.UUID]*domain.Wallet),
		locks:   make(map[uuid.UUID]*sync.Mutex),
	}
}

func (r *inMemoryWalletRepo) Create(ctx context.Context, w *domain.Wallet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.wallets[w.ID] = w.Clone()
	r.locks[w.ID] = &sync.Mutex{}
	return nil
}

func (r *inMemoryWalletRepo) GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.Wallet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, w := range r.wallets {
		if w.UserID == userID {
			return w.Clone(), nil
		}
	}
	return nil, nil
}

func (r *inMemoryWalletRepo) GetByWalletID(ctx context.Context, walletID string) (*domain.Wallet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, w := range r.wallets {
		if w.WalletID == walletID {
			return w.Clone(), nil
		}
	}
	return nil, nil
}

func (r *inMemoryWalletRepo) GetByUserIDForUpdate(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (*domain.Wallet, error) {
	r.mu.RLock()
	var id uuid.UUID
	found := false
	for _, w := range r.wallets {
		if w.UserID == userID {
			id = w.ID
			found = true
			break
		}
	}
	r.mu.RUnlock()
	if !found {
		return nil, nil
	}
	return r.lockAndRead(tx, id)
}

func (r *inMemoryWalletRepo) GetByWalletIDForUpdate(ctx context.Context, tx pgx.Tx, walletID string) (*domain.Wallet, error) {
	r.mu.RLock()
	var id uuid.UUID
	found := false
	for _, w := range r.wallets {
		if w.WalletID == walletID {
			id = w.ID
			found = true
			break
		}
	}
	r.mu.RUnlock()
	if !found {
		return nil, nil
	}
	return r.lockAndRead(tx, id)
}

// lockAndRead blocks until the wallet's row lock is acquired by the
// transaction, then re-reads the current state. A transaction that
// already holds the lock does not re-acquire it.
func (r *inMemoryWalletRepo) lockAndRead(tx pgx.Tx, id uuid.UUID) (*domain.Wallet, error) {
	r.mu.RLock()
	lock, ok := r.locks[id]
	r.mu.RUnlock()
	if !ok {
		return nil, nil
	}

	if mt, ok := tx.(*lockingTx); ok {
		mt.acquire(id, lock)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	w, ok := r.wallets[id]
	if !ok {
		return nil, nil
	}
	return w.Clone(), nil
}

func (r *inMemoryWalletRepo) UpdateBalance(ctx context.Context, tx pgx.Tx, id uuid.UUID, balance, prevBalance decimal.Decimal, lastTransaction time.Time) error {
	if !r.exists(id) {
		return fmt.Errorf("wallet not found: %s", id)
	}
	stageWrite(tx, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if w, ok := r.wallets[id]; ok {
			w.Balance = balance
			w.PrevBalance = prevBalance
			w.LastTransactionDate = lastTransaction
			w.UpdatedAt = time.Now().UTC()
		}
	})
	return nil
}

func (r *inMemoryWalletRepo) UpdatePin(ctx context.Context, tx pgx.Tx, id uuid.UUID, pinHash string, nextChange time.Time) error {
	if !r.exists(id) {
		return fmt.Errorf("wallet not found: %s", id)
	}
	stageWrite(tx, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if w, ok := r.wallets[id]; ok {
			w.PinHash = pinHash
			w.PinChanged = true
			w.PinNextChange = nextChange
			w.UpdatedAt = time.Now().UTC()
		}
	})
	return nil
}

func (r *inMemoryWalletRepo) UpdateStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, status domain.WalletStatus, changedAt time.Time) error {
	if !r.exists(id) {
		return fmt.Errorf("wallet not found: %s", id)
	}
	stageWrite(tx, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if w, ok := r.wallets[id]; ok {
			w.Status = status
			w.LastStatusChangeDate = changedAt
			w.UpdatedAt = time.Now().UTC()
		}
	})
	return nil
}

func (r *inMemoryWalletRepo) Delete(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	if !r.exists(id) {
		return fmt.Errorf("wallet not found: %s", id)
	}
	stageWrite(tx, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		delete(r.wallets, id)
	})
	return nil
}

func (r *inMemoryWalletRepo) exists(id uuid.UUID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.wallets[id]
	return ok
}

func (r *inMemoryWalletRepo) WalletIDExists(ctx context.Context, walletID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, w := range r.wallets {
		if w.WalletID == walletID {
			return true, nil
		}
	}
	return false, nil
}

func (r *inMemoryWalletRepo) ListSweepCandidates(ctx context.Context) ([]domain.Wallet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.Wallet
	for _, w := range r.wallets {
		if !w.Balance.IsZero() {
			continue
		}
		if w.Status != domain.WalletStatusActive && w.Status != domain.WalletStatusInactive {
			continue
		}
		out = append(out, *w.Clone())
	}
	return out, nil
}

// --- In-Memory Transaction Repo ---

type inMemoryTransactionRepo struct {
	mu           sync.RWMutex
	transactions []domain.Transaction
}

func newInMemoryTransactionRepo() *inMemoryTransactionRepo {
	return &inMemoryTransactionRepo{}
}

func (r *inMemoryTransactionRepo) Create(ctx context.Context, tx pgx.Tx, t *domain.Transaction) error {
	record := *t
	stageWrite(tx, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.transactions = append(r.transactions, record)
	})
	return nil
}

func (r *inMemoryTransactionRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i := range r.transactions {
		if r.transactions[i].ID == id {
			t := r.transactions[i]
			return &t, nil
		}
	}
	return nil, nil
}

func (r *inMemoryTransactionRepo) ListByWallet(ctx context.Context, walletID uuid.UUID) ([]domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.Transaction
	for _, t := range r.transactions {
		if t.WalletID == walletID {
			out = append(out, t)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (r *inMemoryTransactionRepo) List(ctx context.Context, params ports.TransactionSearchParams) ([]domain.Transaction, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var matched []domain.Transaction
	for _, t := range r.transactions {
		if t.UserID != params.UserID {
			continue
		}
		if params.Type != nil && t.Type != *params.Type {
			continue
		}
		if params.Status != nil && t.Status != *params.Status {
			continue
		}
		if params.Currency != nil && t.Currency != *params.Currency {
			continue
		}
		if params.MinAmount != nil && t.Amount.LessThan(*params.MinAmount) {
			continue
		}
		if params.MaxAmount != nil && t.Amount.GreaterThan(*params.MaxAmount) {
			continue
		}
		if params.From != nil && t.CreatedAt.Before(*params.From) {
			continue
		}
		if params.To != nil && t.CreatedAt.After(*params.To) {
			continue
		}
		matched = append(matched, t)
	}
	sortNewestFirst(matched)
	total := int64(len(matched))

	start := (params.Page - 1) * params.PageSize
	if start >= len(matched) {
		return []domain.Transaction{}, total, nil
	}
	end := start + params.PageSize
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func sortNewestFirst(txns []domain.Transaction) {
	sort.SliceStable(txns, func(i, j int) bool {
		return txns[i].CreatedAt.After(txns[j].CreatedAt)
	})
}

// --- In-Memory Audit Repo ---

type inMemoryAuditRepo struct {
	mu      sync.RWMutex
	entries []domain.AuditEntry
}

func newInMemoryAuditRepo() *inMemoryAuditRepo {
	return &inMemoryAuditRepo{}
}

func (r *inMemoryAuditRepo) Create(ctx context.Context, tx pgx.Tx, e *domain.AuditEntry) error {
	entry := *e
	stageWrite(tx, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.entries = append(r.entries, entry)
	})
	return nil
}

func (r *inMemoryAuditRepo) ListByWallet(ctx context.Context, walletID string) ([]domain.AuditEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.AuditEntry
	for _, e := range r.entries {
		if e.WalletID == walletID {
			out = append(out, e)
		}
	}
	return out, nil
}

// --- Capturing Event Publisher ---

type capturingPublisher struct {
	mu     sync.Mutex
	events []domain.Event
}

func newCapturingPublisher() *capturingPublisher {
	return &capturingPublisher{}
}

func (p *capturingPublisher) Publish(ctx context.Context, event domain.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *capturingPublisher) captured() []domain.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]domain.Event, len(p.events))
	copy(out, p.events)
	return out
}

// --- In-Memory Transactor (locking tx) ---

type inMemoryTransactor struct{}

func newInMemoryTransactor() *inMemoryTransactor {
	return &inMemoryTransactor{}
}

func (t *inMemoryTransactor) Begin(ctx context.Context) (pgx.Tx, error) {
	return &lockingTx{held: make(map[uuid.UUID]*sync.Mutex)}, nil
}

// lockingTx is a pgx.Tx stand-in that carries the row locks taken by
// ForUpdate reads and buffers repo writes until Commit. Commit applies
// the buffered writes before the locks are released; Rollback discards
// them, so an aborted transaction leaves no trace in the stores.
type lockingTx struct {
	noopTx
	mu      sync.Mutex
	held    map[uuid.UUID]*sync.Mutex
	pending []func()
	done    bool
}

// stageWrite defers a repo mutation to the transaction's Commit. A
// write issued outside a lockingTx scope applies immediately.
func stageWrite(tx pgx.Tx, apply func()) {
	if lt, ok := tx.(*lockingTx); ok {
		lt.stage(apply)
		return
	}
	apply()
}

func (t *lockingTx) stage(apply func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return
	}
	t.pending = append(t.pending, apply)
}

func (t *lockingTx) acquire(id uuid.UUID, lock *sync.Mutex) {
	t.mu.Lock()
	if _, already := t.held[id]; already {
		t.mu.Unlock()
		return
	}
	t.mu.Unlock()

	// Block outside t.mu so a held transaction lock never deadlocks
	// a concurrent acquire on the same tx.
	lock.Lock()

	t.mu.Lock()
	t.held[id] = lock
	t.mu.Unlock()
}

// finish ends the transaction exactly once. On commit the buffered
// writes are applied before the row locks drop, so a waiter that
// acquires a lock next re-reads the committed state.
func (t *lockingTx) finish(commit bool) {
	t.mu.Lock()
	if t.done {
		t.mu.Unlock()
		return
	}
	t.done = true
	pending := t.pending
	held := t.held
	t.pending = nil
	t.held = map[uuid.UUID]*sync.Mutex{}
	t.mu.Unlock()

	if commit {
		for _, apply := range pending {
			apply()
		}
	}
	for _, lock := range held {
		lock.Unlock()
	}
}

func (t *lockingTx) Commit(ctx context.Context) error {
	t.finish(true)
	return nil
}

func (t *lockingTx) Rollback(ctx context.Context) error {
	t.finish(false)
	return nil
}

// noopTx is a no-op pgx.Tx implementation for in-memory testing.
type noopTx struct{}

func (t *noopTx) Begin(ctx context.Context) (pgx.Tx, error) { return t, nil }
func (t *noopTx) Commit(ctx context.Context) error          { return nil }
func (t *noopTx) Rollback(ctx context.Context) error        { return nil }
func (t *noopTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (t *noopTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (t *noopTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (t *noopTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (t *noopTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.NewCommandTag(""), nil
}
func (t *noopTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (t *noopTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}
func (t *noopTx) Conn() *pgx.Conn { return nil }
