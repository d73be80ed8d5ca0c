// Package router wires handlers and middleware onto echo.
package router

import (
	"database/sql"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/rental-contracts/internal/config"
	"github.com/iliyamo/rental-contracts/internal/contract"
	"github.com/iliyamo/rental-contracts/internal/handler"
	"github.com/iliyamo/rental-contracts/internal/middleware"
)

// Deps is everything the routes need.  Redis may be nil; rate limiting and
// caching are then skipped.
type Deps struct {
	DB        *sql.DB
	Redis     *redis.Client
	Log       *logrus.Logger
	JWTSecret string
	RateLimit config.RateLimitConfig
	Cache     config.CacheConfig

	Auth      *handler.AuthHandler
	Contracts *handler.ContractHandler
	Invoices  *handler.InvoiceHandler
}

// Register mounts /healthz, the auth routes and the protected /v1 API.
func Register(e *echo.Echo, d Deps) {
	e.Use(middleware.RequestLog(d.Log))
	e.GET("/healthz", handler.Health(d.DB))

	limit := middleware.NewTokenBucket(d.RateLimit, d.Redis, d.Log)

	pub := e.Group("/v1/auth", limit)
	pub.POST("/register", d.Auth.Register)
	pub.POST("/login", d.Auth.Login)
	pub.POST("/refresh", d.Auth.Refresh)
	pub.POST("/logout", d.Auth.Logout)

	v1 := e.Group("/v1",
		middleware.JWTAuth(d.JWTSecret),
		middleware.RequireRole(contract.RoleLandlord, contract.RoleTenant),
		limit,
	)
	v1.GET("/me", d.Auth.Me)
	registerContracts(v1, d)
	registerInvoices(v1, d)
}

func registerContracts(g *echo.Group, d Deps) {
	landlord := middleware.RequireRole(contract.RoleLandlord)
	cache := middleware.NewRedisCache(d.Cache, d.Redis)

	c := g.Group("/contracts", cache)
	c.POST("", d.Contracts.Create, landlord)
	c.GET("", d.Contracts.List)
	c.GET("/:id", d.Contracts.Get)
	c.PATCH("/:id", d.Contracts.Update, landlord)
	c.POST("/:id/status", d.Contracts.Transition)
	c.POST("/:id/images", d.Contracts.Images)
	c.POST("/:id/pdf", d.Contracts.PDF, landlord)
}

func registerInvoices(g *echo.Group, d Deps) {
	landlord := middleware.RequireRole(contract.RoleLandlord)
	g.POST("/invoice-templates/:id/apply", d.Invoices.ApplyTemplate, landlord)
	g.POST("/invoices", d.Invoices.Create, landlord)
}
