package handler

import (
	"github.com/expense-tracker/backend/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type RouterConfig struct {
	AllowedOrigins []string
	// UploadDir is served under /uploads when profile photos are stored
	// locally. Leave empty for object storage.
	UploadDir      string
	UploadMaxBytes int64
	// TrustedProxies lists the IPs or CIDRs whose forwarding headers are
	// honoured. Empty trusts nobody.
	TrustedProxies []string
}

type Services struct {
	Auth    *service.AuthService
	Expense *service.ExpenseService
	Income  *service.IncomeService
}

func NewRouter(svcs Services, log *zap.Logger, cfg RouterConfig) (*gin.Engine, error) {
	if err := RegisterValidators(); err != nil {
		return nil, err
	}

	proxies, err := parseProxyList(cfg.TrustedProxies)
	if err != nil {
		return nil, err
	}

	router := gin.New()
	if err := router.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return nil, err
	}
	router.Use(gin.Recovery(), RequestLogger(log), Metrics(), CORSMiddleware(cfg.AllowedOrigins, true))
	router.MaxMultipartMemory = cfg.UploadMaxBytes

	router.GET("/", Root)
	router.GET("/ping", Ping)
	router.GET("/openapi.json", OpenAPIDoc)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if cfg.UploadDir != "" {
		router.Static("/uploads", cfg.UploadDir)
	}

	guard := AuthMiddleware(svcs.Auth, log)

	authHandler := NewAuthHandler(svcs.Auth, log, cfg.UploadMaxBytes, proxies)
	limitUpload := LimitBody(cfg.UploadMaxBytes)
	auth := router.Group("/api/auth")
	{
		auth.POST("/register", limitUpload, authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)

		protected := auth.Group("", guard)
		protected.POST("/logout", authHandler.Logout)
		protected.DELETE("/delete-account", authHandler.DeleteAccount)
		protected.GET("/profile", authHandler.Profile)
		protected.PUT("/profile", limitUpload, authHandler.UpdateProfile)
	}

	expenseHandler := NewExpenseHandler(svcs.Expense, log)
	expenses := router.Group("/api/expenses", guard)
	{
		expenses.POST("", expenseHandler.CreateExpense)
		expenses.GET("", expenseHandler.GetExpenses)
		expenses.GET("/summary", expenseHandler.GetSummary)
		expenses.GET("/recent", expenseHandler.GetRecent)
		expenses.GET("/categories", expenseHandler.GetCategories)
		expenses.GET("/:id", expenseHandler.GetExpense)
		expenses.PUT("/:id", expenseHandler.UpdateExpense)
		expenses.DELETE("/:id", expenseHandler.DeleteExpense)
	}

	incomeHandler := NewIncomeHandler(svcs.Income, log)
	income := router.Group("/api/income", guard)
	{
		income.POST("", incomeHandler.CreateIncome)
		income.GET("", incomeHandler.GetIncomes)
		income.GET("/summary", incomeHandler.GetIncomeSummary)
	}

	return router, nil
}
