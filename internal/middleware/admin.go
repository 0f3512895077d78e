package middleware

import (
	"context"
	"net/http"

	"github.com/blues/smartfarmer/internal/logger"
	"github.com/gin-gonic/gin"
)

// AdminChecker 按存储中的角色判断管理员
type AdminChecker interface {
	IsAdmin(ctx context.Context, uid string) (bool, error)
}

// AdminOnly 必须挂在 Auth 之后
func AdminOnly(checker AdminChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, ok := SessionFrom(c)
		if !ok {
			abort(c, http.StatusUnauthorized, "Missing session")
			return
		}

		admin, err := checker.IsAdmin(c.Request.Context(), session.Uid)
		if err != nil {
			logger.Warn("Admin check failed for %s: %v", session.Uid, err)
			abort(c, http.StatusForbidden, "Admin access required")
			return
		}
		if !admin {
			abort(c, http.StatusForbidden, "Admin access required")
			return
		}

		c.Next()
	}
}
