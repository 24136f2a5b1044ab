package service

import (
	"context"
	"fmt"
	"time"

	"wallet-ledger/internal/core/domain"
	"wallet-ledger/internal/core/ports"
	"wallet-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	defaultPage     = 1
	defaultPageSize = 10
	maxPageSize     = 100
)

// LedgerServiceImpl is the read side of the transaction ledger.
type LedgerServiceImpl struct {
	txRepo ports.TransactionRepository
	log    zerolog.Logger
}

// NewLedgerService creates a new LedgerServiceImpl.
func NewLedgerService(txRepo ports.TransactionRepository, log zerolog.Logger) *LedgerServiceImpl {
	return &LedgerServiceImpl{txRepo: txRepo, log: log}
}

// GetByID fetches a single ledger record.
func (s *LedgerServiceImpl) GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	t, err := s.txRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get transaction: %w", err))
	}
	if t == nil {
		return nil, apperror.ErrTransactionNotFound()
	}
	return t, nil
}

// ListByWallet returns every ledger record for a wallet, newest first.
func (s *LedgerServiceImpl) ListByWallet(ctx context.Context, walletID uuid.UUID) ([]domain.Transaction, error) {
	items, err := s.txRepo.ListByWallet(ctx, walletID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list transactions: %w", err))
	}
	return items, nil
}

// ListByUser returns one page of the user's ledger, newest first. An
// empty page is a valid result.
func (s *LedgerServiceImpl) ListByUser(ctx context.Context, userID uuid.UUID, page, pageSize int) (*ports.TransactionPage, error) {
	params := ports.TransactionSearchParams{UserID: userID, Page: page, PageSize: pageSize}
	return s.query(ctx, params)
}

// Search returns one page of the user's ledger matching the
// conjunction of the given filters. An empty page is a valid result.
func (s *LedgerServiceImpl) Search(ctx context.Context, params ports.TransactionSearchParams) (*ports.TransactionPage, error) {
	return s.query(ctx, params)
}

// FilterByDateRange pages through the user's ledger restricted to a
// creation-time window. Unlike Search, an empty page reports
// no-transactions to the caller.
func (s *LedgerServiceImpl) FilterByDateRange(ctx context.Context, userID uuid.UUID, from, to *time.Time, page, pageSize int) (*ports.TransactionPage, error) {
	params := ports.TransactionSearchParams{
		UserID:   userID,
		From:     from,
		To:       to,
		Page:     page,
		PageSize: pageSize,
	}
	result, err := s.query(ctx, params)
	if err != nil {
		return nil, err
	}
	if len(result.Items) == 0 {
		return nil, apperror.ErrNoTransactions()
	}
	return result, nil
}

func (s *LedgerServiceImpl) query(ctx context.Context, params ports.TransactionSearchParams) (*ports.TransactionPage, error) {
	params.Page, params.PageSize = normalizePagination(params.Page, params.PageSize)

	items, total, err := s.txRepo.List(ctx, params)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("query ledger: %w", err))
	}
	if items == nil {
		items = []domain.Transaction{}
	}

	totalPages := int((total + int64(params.PageSize) - 1) / int64(params.PageSize))
	return &ports.TransactionPage{
		Items:      items,
		Total:      total,
		Page:       params.Page,
		PageSize:   params.PageSize,
		TotalPages: totalPages,
	}, nil
}

func normalizePagination(page, pageSize int) (int, int) {
	if page < 1 {
		page = defaultPage
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize
}
