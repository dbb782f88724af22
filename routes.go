package main

import (
	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/fintech_backend/config"
	"github.com/mmdatafocus/fintech_backend/middlewares"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// api carries what handlers need. db is a getter because main starts listening
// before the database connection exists.
type api struct {
	db               func() *gorm.DB
	auth             config.AuthSettings
	anomalyThreshold decimal.Decimal
}

func registerRoutes(r *gin.Engine, a *api) {
	r.POST("/api/auth/register", a.register)
	r.POST("/api/auth/login", a.login)

	authed := r.Group("/api", middlewares.AuthMiddleware(a.auth))
	authed.POST("/auth/logout", a.logout)

	authed.GET("/users/me", a.getMe)
	authed.DELETE("/users/me", a.deleteMe)

	authed.GET("/accounts", a.listAccounts)
	authed.POST("/accounts", a.createAccount)
	authed.GET("/accounts/:id", a.getAccount)
	authed.PUT("/accounts/:id", a.updateAccount)
	authed.DELETE("/accounts/:id", a.deleteAccount)
	authed.GET("/accounts/:id/transactions", a.listAccountTransactions)

	authed.GET("/transactions", a.listTransactions)
	authed.POST("/transactions", a.createTransaction)
	authed.GET("/transactions/:id", a.getTransaction)
	authed.PUT("/transactions/:id", a.updateTransaction)
	authed.DELETE("/transactions/:id", a.deleteTransaction)

	authed.GET("/reports/category/:category", a.reportByCategory)
	authed.GET("/reports/date-range", a.reportByDateRange)
	authed.GET("/reports/total-amount", a.reportTotalAmount)
	authed.GET("/reports/summary", a.reportSummary)
	authed.GET("/reports/anomalies", a.reportAnomalies)
	authed.GET("/reports/export", a.exportTransactions)

	// Ops tooling, admin only.
	admin := authed.Group("/admin", middlewares.RequireAdmin())
	admin.DELETE("/users", a.deleteUserByEmail)
	admin.POST("/outbox/:id/replay", a.replayOutboxEvent)
	admin.POST("/reconcile", a.reconcileBalances)
}
