package service

import (
	"context"
	"testing"
	"time"

	"wallet-ledger/internal/core/domain"
	"wallet-ledger/internal/core/ports"
	"wallet-ledger/internal/core/ports/mocks"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func setupLedgerService(t *testing.T) (*LedgerServiceImpl, *mocks.MockTransactionRepository, *gomock.Controller) {
	ctrl := gomock.NewController(t)
	txRepo := mocks.NewMockTransactionRepository(ctrl)
	return NewLedgerService(txRepo, zerolog.Nop()), txRepo, ctrl
}

func TestLedgerService_GetByID_NotFound(t *testing.T) {
	svc, txRepo, ctrl := setupLedgerService(t)
	defer ctrl.Finish()

	ctx := context.Background()
	id := uuid.New()
	txRepo.EXPECT().GetByID(ctx, id).Return(nil, nil)

	result, err := svc.GetByID(ctx, id)
	assert.Nil(t, result)
	assertAppError(t, err, "TXN_001")
}

func TestLedgerService_ListByUser_Defaults(t *testing.T) {
	svc, txRepo, ctrl := setupLedgerService(t)
	defer ctrl.Finish()

	ctx := context.Background()
	userID := uuid.New()

	txRepo.EXPECT().List(ctx, gomock.Any()).
		DoAndReturn(func(_ context.Context, params ports.TransactionSearchParams) ([]domain.Transaction, int64, error) {
			assert.Equal(t, 1, params.Page)
			assert.Equal(t, 10, params.PageSize)
			return []domain.Transaction{{ID: uuid.New(), UserID: userID}}, 25, nil
		})

	// Out-of-range inputs fall back to defaults.
	page, err := svc.ListByUser(ctx, userID, 0, -5)
	require.NoError(t, err)
	assert.Equal(t, int64(25), page.Total)
	assert.Equal(t, 3, page.TotalPages)
	assert.Len(t, page.Items, 1)
}

func TestLedgerService_Search_EmptyPageIsValid(t *testing.T) {
	svc, txRepo, ctrl := setupLedgerService(t)
	defer ctrl.Finish()

	ctx := context.Background()
	txRepo.EXPECT().List(ctx, gomock.Any()).Return(nil, int64(0), nil)

	page, err := svc.Search(ctx, ports.TransactionSearchParams{UserID: uuid.New(), Page: 7, PageSize: 10})
	require.NoError(t, err)
	assert.NotNil(t, page.Items)
	assert.Empty(t, page.Items)
	assert.Equal(t, 0, page.TotalPages)
}

func TestLedgerService_FilterByDateRange_EmptyIsError(t *testing.T) {
	svc, txRepo, ctrl := setupLedgerService(t)
	defer ctrl.Finish()

	ctx := context.Background()
	from := time.Now().Add(-24 * time.Hour)
	to := time.Now()

	txRepo.EXPECT().List(ctx, gomock.Any()).
		DoAndReturn(func(_ context.Context, params ports.TransactionSearchParams) ([]domain.Transaction, int64, error) {
			require.NotNil(t, params.From)
			require.NotNil(t, params.To)
			return nil, 0, nil
		})

	page, err := svc.FilterByDateRange(ctx, uuid.New(), &from, &to, 1, 10)
	assert.Nil(t, page)
	assertAppError(t, err, "TXN_002")
}

func TestLedgerService_FilterByDateRange_ReturnsMatches(t *testing.T) {
	svc, txRepo, ctrl := setupLedgerService(t)
	defer ctrl.Finish()

	ctx := context.Background()
	from := time.Now().Add(-24 * time.Hour)

	txRepo.EXPECT().List(ctx, gomock.Any()).
		Return([]domain.Transaction{{ID: uuid.New()}, {ID: uuid.New()}}, int64(2), nil)

	page, err := svc.FilterByDateRange(ctx, uuid.New(), &from, nil, 1, 10)
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	assert.Equal(t, 1, page.TotalPages)
}

func TestLedgerService_PageSizeCapped(t *testing.T) {
	svc, txRepo, ctrl := setupLedgerService(t)
	defer ctrl.Finish()

	ctx := context.Background()
	txRepo.EXPECT().List(ctx, gomock.Any()).
		DoAndReturn(func(_ context.Context, params ports.TransactionSearchParams) ([]domain.Transaction, int64, error) {
			assert.Equal(t, 100, params.PageSize)
			return nil, 0, nil
		})

	_, err := svc.ListByUser(ctx, uuid.New(), 1, 10000)
	require.NoError(t, err)
}
