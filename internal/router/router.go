package router

import (
	"github.com/blues/smartfarmer/internal/config"
	"github.com/blues/smartfarmer/internal/event"
	"github.com/blues/smartfarmer/internal/handler"
	"github.com/blues/smartfarmer/internal/logic"
	"github.com/blues/smartfarmer/internal/middleware"
	"github.com/blues/smartfarmer/internal/repository"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Deps 路由依赖
type Deps struct {
	DB       *gorm.DB
	Store    repository.Store
	Images   logic.ImageStore
	Verifier middleware.SessionVerifier
	Config   *config.Config
}

func Setup(deps Deps) *gin.Engine {
	r := gin.New()

	// 中间件
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(corsMiddleware())

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": "smartfarmer",
		})
	})

	projectLogic := logic.NewProjectLogic(deps.DB, deps.Store, deps.Images)
	investmentLogic := logic.NewInvestmentLogic(deps.Store, deps.DB)
	userLogic := logic.NewUserLogic(deps.DB, deps.Store)
	transactionLogic := logic.NewTransactionLogic(deps.DB)
	withdrawalLogic := logic.NewWithdrawalLogic(deps.DB, deps.Store)
	depositLogic := logic.NewDepositLogic(deps.DB, deps.Store)
	payoutLogic := logic.NewPayoutLogic(deps.Store, logic.WithWorkers(deps.Config.Payout.Workers))

	dispatcher := event.NewDispatcher()
	dispatcher.Register(event.EventChargeSuccess, event.NewChargeProcessor(depositLogic, deps.Config.Payment.MinorUnit))

	projectHandler := handler.NewProjectHandler(projectLogic)
	investmentHandler := handler.NewInvestmentHandler(investmentLogic)
	userHandler := handler.NewUserHandler(userLogic, transactionLogic)
	walletHandler := handler.NewWalletHandler(withdrawalLogic, depositLogic)
	adminHandler := handler.NewAdminHandler(userLogic, transactionLogic, withdrawalLogic, depositLogic, payoutLogic)
	webhookHandler := handler.NewWebhookHandler(dispatcher, deps.Config.Payment.SecretKey)

	// API版本组
	v1 := r.Group("/api/v1")
	{
		projects := v1.Group("/projects")
		{
			projects.GET("", projectHandler.GetProjects)
			projects.GET("/:id", projectHandler.GetProject)
			projects.GET("/:id/stats", projectHandler.GetProjectStats)
			projects.GET("/:id/roi", projectHandler.CalculateROI)
		}

		v1.POST("/payments/webhook", webhookHandler.HandlePayment)

		// 需要登录
		authed := v1.Group("", middleware.Auth(deps.Verifier))
		{
			authed.POST("/users", userHandler.Register)
			authed.GET("/users/me", userHandler.GetMe)
			authed.PUT("/users/me", userHandler.UpdateMe)
			authed.DELETE("/users/me", userHandler.DeleteMe)
			authed.PUT("/users/me/withdrawal-settings", userHandler.UpdateWithdrawalSettings)
			authed.PUT("/users/me/notifications", userHandler.UpdateNotificationPrefs)
			authed.GET("/users/me/referrals", userHandler.GetReferrals)
			authed.GET("/users/me/transactions", userHandler.GetMyTransactions)
			authed.GET("/users/me/investments", investmentHandler.GetMyInvestments)

			authed.POST("/projects/:id/invest", investmentHandler.Invest)
			authed.POST("/withdrawals", walletHandler.RequestWithdrawal)
			authed.POST("/deposits/manual", walletHandler.SubmitManualDeposit)

			// 管理员
			admin := authed.Group("/admin", middleware.AdminOnly(userLogic))
			{
				admin.POST("/projects", projectHandler.CreateProject)
				admin.PUT("/projects/:id", projectHandler.UpdateProject)
				admin.DELETE("/projects/:id", projectHandler.DeleteProject)
				admin.POST("/projects/:id/image", projectHandler.UploadProjectImage)

				admin.GET("/users", adminHandler.ListUsers)
				admin.POST("/users/:uid/role", adminHandler.SetRole)
				admin.DELETE("/users/:uid", adminHandler.DeleteUser)
				admin.GET("/transactions", adminHandler.ListTransactions)
				admin.GET("/withdrawals", adminHandler.ListWithdrawals)
				admin.POST("/withdrawals/:id", adminHandler.ProcessWithdrawal)
				admin.GET("/manual-deposits", adminHandler.ListManualDeposits)
				admin.POST("/manual-deposits/:id", adminHandler.ProcessManualDeposit)
				admin.POST("/system/process-payouts", adminHandler.ProcessPayouts)
			}
		}
	}

	return r
}

// CORS中间件
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, Authorization, X-Paystack-Signature")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
