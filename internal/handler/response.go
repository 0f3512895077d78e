package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/blues/smartfarmer/internal/logger"
	"github.com/blues/smartfarmer/internal/logic"
	"github.com/blues/smartfarmer/internal/middleware"
	"github.com/blues/smartfarmer/internal/model"
	"github.com/blues/smartfarmer/internal/repository"
	"github.com/gin-gonic/gin"
)

// SuccessResponse 成功响应
func SuccessResponse(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// ErrorResponse 错误响应
func ErrorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, Response{
		Success: false,
		Message: message,
		Data:    nil,
	})
}

// HandleError 按业务错误类型映射状态码
func HandleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, logic.ErrValidation):
		ErrorResponse(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, logic.ErrNotFound), errors.Is(err, repository.ErrNotFound):
		ErrorResponse(c, http.StatusNotFound, err.Error())
	case errors.Is(err, logic.ErrForbidden):
		ErrorResponse(c, http.StatusForbidden, err.Error())
	case errors.Is(err, logic.ErrInsufficientFunds),
		errors.Is(err, logic.ErrUnitsUnavailable),
		errors.Is(err, logic.ErrInvalidState):
		ErrorResponse(c, http.StatusConflict, err.Error())
	case errors.Is(err, repository.ErrConflict):
		ErrorResponse(c, http.StatusConflict, "The request conflicted with a concurrent update, please try again.")
	default:
		logger.Error("Request %s %s failed: %v", c.Request.Method, c.FullPath(), err)
		ErrorResponse(c, http.StatusInternalServerError, "Internal server error")
	}
}

// mustSession 取会话，缺失时直接响应 401
func mustSession(c *gin.Context) (*model.Session, bool) {
	session, ok := middleware.SessionFrom(c)
	if !ok {
		ErrorResponse(c, http.StatusUnauthorized, "Missing session")
		return nil, false
	}
	return session, true
}

// parseID 解析路径中的数字 ID
func parseID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		ErrorResponse(c, http.StatusBadRequest, "Invalid "+name)
		return 0, false
	}
	return id, true
}

// parsePage 解析分页参数
func parsePage(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	return page, pageSize
}

// newPagination 构造分页信息
func newPagination(page, pageSize int, total int64) Pagination {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	totalPage := total / int64(pageSize)
	if total%int64(pageSize) != 0 {
		totalPage++
	}
	return Pagination{Page: page, PageSize: pageSize, Total: total, TotalPage: totalPage}
}
