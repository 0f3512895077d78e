package handler

import (
	"net/http"

	"github.com/blues/smartfarmer/internal/logic"
	"github.com/blues/smartfarmer/internal/model"
	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	userLogic        *logic.UserLogic
	transactionLogic *logic.TransactionLogic
}

func NewUserHandler(userLogic *logic.UserLogic, transactionLogic *logic.TransactionLogic) *UserHandler {
	return &UserHandler{
		userLogic:        userLogic,
		transactionLogic: transactionLogic,
	}
}

// Register 注册
func (h *UserHandler) Register(c *gin.Context) {
	session, ok := mustSession(c)
	if !ok {
		return
	}

	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.userLogic.Register(c.Request.Context(), session, logic.RegisterInput{
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Phone:      req.Phone,
		ReferredBy: req.ReferredBy,
	})
	if err != nil {
		HandleError(c, err)
		return
	}

	SuccessResponse(c, http.StatusCreated, "Account created", ToUserResponse(user))
}

// GetMe 当前用户资料
func (h *UserHandler) GetMe(c *gin.Context) {
	session, ok := mustSession(c)
	if !ok {
		return
	}

	user, err := h.userLogic.GetProfile(c.Request.Context(), session)
	if err != nil {
		HandleError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "OK", ToUserResponse(user))
}

// DeleteMe 注销当前账户
func (h *UserHandler) DeleteMe(c *gin.Context) {
	session, ok := mustSession(c)
	if !ok {
		return
	}

	if err := h.userLogic.DeleteUser(c.Request.Context(), session.Uid); err != nil {
		HandleError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "Account deleted", nil)
}

// UpdateMe 更新资料
func (h *UserHandler) UpdateMe(c *gin.Context) {
	session, ok := mustSession(c)
	if !ok {
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.userLogic.UpdateProfile(c.Request.Context(), session, logic.ProfileUpdate{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
	})
	if err != nil {
		HandleError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "Profile updated", ToUserResponse(user))
}

// UpdateWithdrawalSettings 更新提现银行信息
func (h *UserHandler) UpdateWithdrawalSettings(c *gin.Context) {
	session, ok := mustSession(c)
	if !ok {
		return
	}

	var req WithdrawalSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.userLogic.UpdateWithdrawalSettings(c.Request.Context(), session, model.BankDetails{
		BankName:      req.BankName,
		AccountNumber: req.AccountNumber,
		AccountName:   req.AccountName,
	})
	if err != nil {
		HandleError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "Withdrawal settings saved", ToUserResponse(user))
}

// UpdateNotificationPrefs 更新通知偏好
func (h *UserHandler) UpdateNotificationPrefs(c *gin.Context) {
	session, ok := mustSession(c)
	if !ok {
		return
	}

	var req NotificationPrefsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.userLogic.UpdateNotificationPrefs(c.Request.Context(), session, model.NotificationPrefs{
		Activity:   req.Activity,
		Investment: req.Investment,
		Promotions: req.Promotions,
	})
	if err != nil {
		HandleError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "Notification preferences saved", ToUserResponse(user))
}

// GetReferrals 我推荐的用户
func (h *UserHandler) GetReferrals(c *gin.Context) {
	session, ok := mustSession(c)
	if !ok {
		return
	}

	users, err := h.userLogic.GetReferredUsers(c.Request.Context(), session)
	if err != nil {
		HandleError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "OK", ToUserResponseList(users))
}

// GetMyTransactions 我的资金流水
func (h *UserHandler) GetMyTransactions(c *gin.Context) {
	session, ok := mustSession(c)
	if !ok {
		return
	}
	txType := model.TransactionType(c.Query("type"))
	page, pageSize := parsePage(c)

	transactions, total, err := h.transactionLogic.GetUserTransactions(c.Request.Context(), session.Uid, txType, page, pageSize)
	if err != nil {
		HandleError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "OK", GetTransactionsResponse{
		Transactions: ToTransactionResponseList(transactions),
		Pagination:   newPagination(page, pageSize, total),
	})
}
