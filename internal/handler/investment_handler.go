package handler

import (
	"net/http"

	"github.com/blues/smartfarmer/internal/logic"
	"github.com/blues/smartfarmer/internal/model"
	"github.com/gin-gonic/gin"
)

type InvestmentHandler struct {
	investmentLogic *logic.InvestmentLogic
}

func NewInvestmentHandler(investmentLogic *logic.InvestmentLogic) *InvestmentHandler {
	return &InvestmentHandler{investmentLogic: investmentLogic}
}

// Invest 购买项目份额
func (h *InvestmentHandler) Invest(c *gin.Context) {
	session, ok := mustSession(c)
	if !ok {
		return
	}
	projectId, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req InvestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.investmentLogic.Purchase(c.Request.Context(), session, projectId, req.Units)
	if err != nil {
		HandleError(c, err)
		return
	}

	SuccessResponse(c, http.StatusCreated, "Investment successful", ToPurchaseResponse(result))
}

// GetMyInvestments 当前用户的持仓
func (h *InvestmentHandler) GetMyInvestments(c *gin.Context) {
	session, ok := mustSession(c)
	if !ok {
		return
	}
	status := model.InvestmentStatus(c.Query("status"))

	items, err := h.investmentLogic.GetUserInvestments(c.Request.Context(), session.Uid, status)
	if err != nil {
		HandleError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "OK", ToPortfolioResponseList(items))
}
