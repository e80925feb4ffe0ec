package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"sales_api/internal/auth"
	"sales_api/internal/metrics"
	"sales_api/internal/sales"
)

// Dependencies are the services the routes dispatch to.
type Dependencies struct {
	SalesService *sales.Service
	AuthService  *auth.Service
	Logger       *zap.Logger
	// RateLimiter is optional; nil disables rate limiting.
	RateLimiter *RateLimiter
	// PublicPaths defaults to DefaultPublicPaths.
	PublicPaths []string
}

// InitRoutes registers the middleware chain and every endpoint on the given
// Gin engine.
func InitRoutes(e *gin.Engine, deps Dependencies) {
	publicPaths := deps.PublicPaths
	if publicPaths == nil {
		publicPaths = DefaultPublicPaths
	}

	e.Use(RequestLogger(deps.Logger), Metrics())
	if deps.RateLimiter != nil {
		e.Use(deps.RateLimiter.Handler())
	}
	e.Use(AuthGate(deps.AuthService, publicPaths, deps.Logger))

	salesHandler := NewSalesHandler(deps.SalesService, deps.Logger)
	usersHandler := NewUsersHandler(deps.AuthService, deps.Logger)

	apiGroup := e.Group("/api")

	salesGroup := apiGroup.Group("/sales")
	salesGroup.POST("", salesHandler.handleCreateSale)
	salesGroup.GET("", salesHandler.handleGetSales)
	salesGroup.GET("/filter", salesHandler.handleFilterSales)
	salesGroup.GET("/:id", salesHandler.handleGetSale)
	salesGroup.PUT("/:id", salesHandler.handleUpdateSale)
	salesGroup.DELETE("/:id", salesHandler.handleDeleteSale)

	apiGroup.GET("/dashboard/metrics", salesHandler.handleDashboardMetrics)

	usersGroup := apiGroup.Group("/users")
	usersGroup.POST("/register", usersHandler.handleRegister)
	usersGroup.POST("/login", usersHandler.handleLogin)
	usersGroup.GET("/me", usersHandler.handleMe)

	e.GET("/metrics", gin.WrapH(metrics.Handler()))
	e.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})
}
