package handler

import (
	"wallet-ledger/internal/adapter/http/dto"
	"wallet-ledger/internal/adapter/http/middleware"
	"wallet-ledger/internal/core/ports"
	"wallet-ledger/pkg/apperror"
	"wallet-ledger/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// WalletHandler handles wallet-related endpoints.
type WalletHandler struct {
	walletSvc   ports.WalletService
	transferSvc ports.TransferService
	pinSvc      ports.PinService
	currency    string
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(walletSvc ports.WalletService, transferSvc ports.TransferService, pinSvc ports.PinService, currency string) *WalletHandler {
	return &WalletHandler{
		walletSvc:   walletSvc,
		transferSvc: transferSvc,
		pinSvc:      pinSvc,
		currency:    currency,
	}
}

// GetMyWallet handles GET /api/v1/wallets/me.
func (h *WalletHandler) GetMyWallet(c *gin.Context) {
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

	response.OK(c, dto.ToWalletResponse(wallet, h.currency))
}

// Fund handles POST /api/v1/wallets/fund.
func (h *WalletHandler) Fund(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.FundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	wallet, err := h.transferSvc.Fund(c.Request.Context(), ports.FundRequest{
		UserID:      userID,
		Amount:      req.Amount,
		Description: req.Description,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.ToWalletResponse(wallet, h.currency))
}

// Withdraw handles POST /api/v1/wallets/withdraw.
func (h *WalletHandler) Withdraw(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.WithdrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	wallet, err := h.transferSvc.Withdraw(c.Request.Context(), ports.WithdrawRequest{
		UserID:      userID,
		Amount:      req.Amount,
		Pin:         req.Pin,
		Description: req.Description,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.ToWalletResponse(wallet, h.currency))
}

// Transfer handles POST /api/v1/wallets/transfer.
func (h *WalletHandler) Transfer(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	wallet, err := h.transferSvc.Transfer(c.Request.Context(), ports.TransferRequest{
		SenderID:          userID,
		RecipientWalletID: req.RecipientWalletID,
		Amount:            req.Amount,
		Pin:               req.Pin,
		Description:       req.Description,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.ToWalletResponse(wallet, h.currency))
}

// SetPin handles POST /api/v1/wallets/pin.
func (h *WalletHandler) SetPin(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.SetPinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.ErrInvalidPinFormat())
		return
	}

	if err := h.pinSvc.Set(c.Request.Context(), userID, req.Pin); err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, gin.H{"message": "Transaction PIN set"})
}

// ChangePin handles PUT /api/v1/wallets/pin.
func (h *WalletHandler) ChangePin(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.ChangePinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.ErrInvalidPinFormat())
		return
	}

	if err := h.pinSvc.Change(c.Request.Context(), userID, req.OldPin, req.NewPin); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, gin.H{"message": "Transaction PIN changed"})
}

// Reactivate handles POST /api/v1/wallets/:wallet_id/reactivate.
func (h *WalletHandler) Reactivate(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	wallet, err := h.walletSvc.Reactivate(c.Request.Context(), c.Param("wallet_id"), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.ToWalletResponse(wallet, h.currency))
}

// Deactivate handles DELETE /api/v1/wallets/:wallet_id.
func (h *WalletHandler) Deactivate(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	if err := h.walletSvc.Deactivate(c.Request.Context(), c.Param("wallet_id"), userID); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, gin.H{"message": "Wallet deactivated"})
}

// AuditTrail handles GET /api/v1/wallets/:wallet_id/audit.
func (h *WalletHandler) AuditTrail(c *gin.Context) {
	entries, err := h.walletSvc.AuditTrail(c.Request.Context(), c.Param("wallet_id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	out := make([]dto.AuditEntryResponse, 0, len(entries))
	for i := range entries {
		out = append(out, dto.ToAuditEntryResponse(&entries[i]))
	}
	response.OK(c, out)
}

// Provision handles POST /internal/v1/hooks/identity-confirmed — the
// hook the authentication collaborator calls after identity
// verification. Idempotent.
func (h *WalletHandler) Provision(c *gin.Context) {
	var req dto.ProvisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		response.Error(c, apperror.Validation("invalid user_id"))
		return
	}

	wallet, err := h.walletSvc.OnIdentityConfirmed(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.ToWalletResponse(wallet, h.currency))
}
