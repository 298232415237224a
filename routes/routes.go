package routes

import (
	"customer-option-service/controllers"
	"customer-option-service/middleware"

	"github.com/gin-gonic/gin"
)

// RegisterPriceImportRoutes sets up the admin customer option routes.
func RegisterPriceImportRoutes(r *gin.Engine, pc *controllers.PriceImportController, auth middleware.AuthConfig, limiter *middleware.RateLimiter) {
	admin := r.Group("/admin")
	admin.Use(middleware.AuthMiddleware(auth), middleware.AdminOnly())

	prices := admin.Group("/customer-option-prices")
	prices.GET("/imports", pc.ListImportRuns)

	// Imports hold a database transaction per batch; keep them throttled
	imports := prices.Group("")
	imports.Use(middleware.RateLimitMiddleware(limiter))
	imports.POST("/import", pc.ImportPrices)
	imports.POST("/import-by-example", pc.ImportByExample)

	admin.POST("/customer-options/:code/validate", pc.ValidateOption)
}
