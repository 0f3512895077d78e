package handler

import (
	"net/http"

	"github.com/blues/smartfarmer/internal/logic"
	"github.com/gin-gonic/gin"
)

// WalletHandler 用户发起的提现与线下入金
type WalletHandler struct {
	withdrawalLogic *logic.WithdrawalLogic
	depositLogic    *logic.DepositLogic
}

func NewWalletHandler(withdrawalLogic *logic.WithdrawalLogic, depositLogic *logic.DepositLogic) *WalletHandler {
	return &WalletHandler{
		withdrawalLogic: withdrawalLogic,
		depositLogic:    depositLogic,
	}
}

// RequestWithdrawal 提交提现申请
func (h *WalletHandler) RequestWithdrawal(c *gin.Context) {
	session, ok := mustSession(c)
	if !ok {
		return
	}

	var req WithdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Please enter a valid amount.")
		return
	}

	request, err := h.withdrawalLogic.RequestWithdrawal(c.Request.Context(), session, req.Amount)
	if err != nil {
		HandleError(c, err)
		return
	}

	SuccessResponse(c, http.StatusCreated, "Withdrawal request submitted", ToWithdrawalResponse(request))
}

// SubmitManualDeposit 提交线下转账入金申请
func (h *WalletHandler) SubmitManualDeposit(c *gin.Context) {
	session, ok := mustSession(c)
	if !ok {
		return
	}

	var req ManualDepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Please enter a valid amount.")
		return
	}

	request, err := h.depositLogic.SubmitManualDeposit(c.Request.Context(), session, logic.ManualDepositInput{
		Amount:        req.Amount,
		SenderName:    req.SenderName,
		TransferredTo: req.TransferredTo,
	})
	if err != nil {
		HandleError(c, err)
		return
	}

	SuccessResponse(c, http.StatusCreated, "Deposit request submitted", ToManualDepositResponse(request))
}
