package handler

import (
	"net/http"

	"github.com/blues/smartfarmer/internal/logic"
	"github.com/blues/smartfarmer/internal/model"
	"github.com/gin-gonic/gin"
)

// AdminHandler 管理后台接口
type AdminHandler struct {
	userLogic        *logic.UserLogic
	transactionLogic *logic.TransactionLogic
	withdrawalLogic  *logic.WithdrawalLogic
	depositLogic     *logic.DepositLogic
	payoutLogic      *logic.PayoutLogic
}

func NewAdminHandler(
	userLogic *logic.UserLogic,
	transactionLogic *logic.TransactionLogic,
	withdrawalLogic *logic.WithdrawalLogic,
	depositLogic *logic.DepositLogic,
	payoutLogic *logic.PayoutLogic,
) *AdminHandler {
	return &AdminHandler{
		userLogic:        userLogic,
		transactionLogic: transactionLogic,
		withdrawalLogic:  withdrawalLogic,
		depositLogic:     depositLogic,
		payoutLogic:      payoutLogic,
	}
}

// ListUsers 用户列表
func (h *AdminHandler) ListUsers(c *gin.Context) {
	page, pageSize := parsePage(c)

	users, total, err := h.userLogic.ListUsers(c.Request.Context(), page, pageSize)
	if err != nil {
		HandleError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "OK", GetUsersResponse{
		Users:      ToUserResponseList(users),
		Pagination: newPagination(page, pageSize, total),
	})
}

// SetRole 设置用户角色
func (h *AdminHandler) SetRole(c *gin.Context) {
	var req SetRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.userLogic.SetRole(c.Request.Context(), c.Param("uid"), req.Role)
	if err != nil {
		HandleError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "Role updated", ToUserResponse(user))
}

func (h *AdminHandler) DeleteUser(c *gin.Context) {
	if err := h.userLogic.DeleteUser(c.Request.Context(), c.Param("uid")); err != nil {
		HandleError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "User deleted", nil)
}

// ListTransactions 全部资金流水
func (h *AdminHandler) ListTransactions(c *gin.Context) {
	txType := model.TransactionType(c.Query("type"))
	page, pageSize := parsePage(c)

	transactions, total, err := h.transactionLogic.GetAllTransactions(c.Request.Context(), txType, page, pageSize)
	if err != nil {
		HandleError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "OK", GetTransactionsResponse{
		Transactions: ToTransactionResponseList(transactions),
		Pagination:   newPagination(page, pageSize, total),
	})
}

// ListWithdrawals 提现申请列表
func (h *AdminHandler) ListWithdrawals(c *gin.Context) {
	status := model.RequestStatus(c.Query("status"))

	requests, err := h.withdrawalLogic.ListWithdrawals(c.Request.Context(), status)
	if err != nil {
		HandleError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "OK", ToWithdrawalResponseList(requests))
}

// ProcessWithdrawal 审核提现申请
func (h *AdminHandler) ProcessWithdrawal(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req DecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	request, err := h.withdrawalLogic.ProcessWithdrawal(c.Request.Context(), id, req.Status)
	if err != nil {
		HandleError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "Withdrawal "+string(request.Status), ToWithdrawalResponse(request))
}

// ListManualDeposits 线下入金申请列表
func (h *AdminHandler) ListManualDeposits(c *gin.Context) {
	status := model.RequestStatus(c.Query("status"))

	requests, err := h.depositLogic.ListManualDeposits(c.Request.Context(), status)
	if err != nil {
		HandleError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "OK", ToManualDepositResponseList(requests))
}

// ProcessManualDeposit 审核线下入金申请
func (h *AdminHandler) ProcessManualDeposit(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req DecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	request, err := h.depositLogic.ProcessManualDeposit(c.Request.Context(), id, req.Status)
	if err != nil {
		HandleError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "Deposit "+string(request.Status), ToManualDepositResponse(request))
}

// ProcessPayouts 手动触发到期兑付
func (h *AdminHandler) ProcessPayouts(c *gin.Context) {
	summary, err := h.payoutLogic.Sweep(c.Request.Context())
	if err != nil {
		HandleError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, summary.Message, ToPayoutSummaryResponse(summary))
}
