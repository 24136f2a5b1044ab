package handler

import (
	"strconv"
	"time"

	"wallet-ledger/internal/adapter/http/dto"
	"wallet-ledger/internal/adapter/http/middleware"
	"wallet-ledger/internal/core/domain"
	"wallet-ledger/internal/core/ports"
	"wallet-ledger/pkg/apperror"
	"wallet-ledger/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionHandler handles ledger read endpoints.
type TransactionHandler struct {
	ledgerSvc ports.LedgerService
	walletSvc ports.WalletService
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(ledgerSvc ports.LedgerService, walletSvc ports.WalletService) *TransactionHandler {
	return &TransactionHandler{ledgerSvc: ledgerSvc, walletSvc: walletSvc}
}

// List handles GET /api/v1/transactions.
func (h *TransactionHandler) List(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	page, pageSize := parsePagination(c)
	result, err := h.ledgerSvc.ListByUser(c.Request.Context(), userID, page, pageSize)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.ToTransactionListResponse(result))
}

// Search handles GET /api/v1/transactions/search.
func (h *TransactionHandler) Search(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	page, pageSize := parsePagination(c)
	params := ports.TransactionSearchParams{
		UserID:   userID,
		Page:     page,
		PageSize: pageSize,
	}

	if v := c.Query("type"); v != "" {
		t := domain.TransactionType(v)
		if t != domain.TransactionTypeCredit && t != domain.TransactionTypeDebit {
			response.Error(c, apperror.Validation("type must be CREDIT or DEBIT"))
			return
		}
		params.Type = &t
	}
	if v := c.Query("status"); v != "" {
		s := domain.TransactionStatus(v)
		params.Status = &s
	}
	if v := c.Query("currency"); v != "" {
		params.Currency = &v
	}
	if v := c.Query("min_amount"); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil {
			response.Error(c, apperror.Validation("invalid min_amount"))
			return
		}
		params.MinAmount = &d
	}
	if v := c.Query("max_amount"); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil {
			response.Error(c, apperror.Validation("invalid max_amount"))
			return
		}
		params.MaxAmount = &d
	}
	var err error
	if params.From, err = parseTimeQuery(c, "from"); err != nil {
		response.Error(c, apperror.Validation("invalid from date"))
		return
	}
	if params.To, err = parseTimeQuery(c, "to"); err != nil {
		response.Error(c, apperror.Validation("invalid to date"))
		return
	}

	result, err := h.ledgerSvc.Search(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.ToTransactionListResponse(result))
}

// FilterByDate handles GET /api/v1/transactions/date-range.
func (h *TransactionHandler) FilterByDate(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	from, err := parseTimeQuery(c, "from")
	if err != nil {
		response.Error(c, apperror.Validation("invalid from date"))
		return
	}
	to, err := parseTimeQuery(c, "to")
	if err != nil {
		response.Error(c, apperror.Validation("invalid to date"))
		return
	}

	page, pageSize := parsePagination(c)
	result, err := h.ledgerSvc.FilterByDateRange(c.Request.Context(), userID, from, to, page, pageSize)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.ToTransactionListResponse(result))
}

// GetByID handles GET /api/v1/transactions/:id.
func (h *TransactionHandler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid transaction id"))
		return
	}

	t, err := h.ledgerSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.ToTransactionResponse(t))
}

// ListMyWalletTransactions handles GET /api/v1/wallets/me/transactions.
func (h *TransactionHandler) ListMyWalletTransactions(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	wallet, err := h.walletSvc.GetByUser(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	items, err := h.ledgerSvc.ListByWallet(c.Request.Context(), wallet.ID)
	if err != nil {
		response.Error(c, err)
		return
	}

	out := make([]dto.TransactionResponse, 0, len(items))
	for i := range items {
		out = append(out, dto.ToTransactionResponse(&items[i]))
	}
	response.OK(c, out)
}

func parsePagination(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))
	return page, pageSize
}

// parseTimeQuery accepts RFC3339 timestamps or bare dates (2006-01-02).
func parseTimeQuery(c *gin.Context, name string) (*time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
