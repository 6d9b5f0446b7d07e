// internal/router/router.go
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/vendorhub/marketplace-backend/internal/config"
	"github.com/vendorhub/marketplace-backend/internal/handlers"
	"github.com/vendorhub/marketplace-backend/internal/middleware"
	"github.com/vendorhub/marketplace-backend/internal/services"
	"github.com/vendorhub/marketplace-backend/internal/utils"
)

func Initialize(db *gorm.DB, cfg *config.Config) *gin.Engine {
	// Initialize services
	approvalService := services.NewApprovalService(db)
	productService := services.NewVendorProductService(db)

	// Initialize handlers
	approvalHandler := handlers.NewApprovalHandler(approvalService)
	productHandler := handlers.NewVendorProductHandler(productService)

	// Set JWT secret
	utils.SetJWTSecret(cfg.JWT.SecretKey)

	// Initialize Gin router
	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS())
	r.Use(middleware.I18nMiddleware())
	r.Use(middleware.GeneralRateLimit())
	r.Use(middleware.AuditLogMiddleware(db))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": "1.0.0",
		})
	})

	// API v1 routes
	v1 := r.Group("/v1")
	{
		// Admin approval queue routes
		admin := v1.Group("/admin")
		admin.Use(middleware.AuthRequired(), middleware.AdminRequired())
		{
			admin.GET("/products/pending", approvalHandler.GetPendingProducts)
			admin.POST("/products/:id/approve", middleware.WriteRateLimit(), approvalHandler.ApproveProduct)
			admin.POST("/products/:id/reject", middleware.WriteRateLimit(), approvalHandler.RejectProduct)
			admin.POST("/products/bulk-approve", middleware.WriteRateLimit(), approvalHandler.BulkApproveProducts)
		}

		// Vendor catalog routes
		vendor := v1.Group("/vendor")
		vendor.Use(middleware.AuthRequired(), middleware.VendorRequired())
		{
			vendor.POST("/products", productHandler.CreateProduct)
			vendor.GET("/products", productHandler.GetProducts)
			// Register /stats ahead of /:id so gin does not treat it as an ID
			vendor.GET("/products/stats", productHandler.GetProductStats)
			vendor.GET("/products/:id", productHandler.GetProduct)
			vendor.PUT("/products/:id", productHandler.UpdateProduct)
			vendor.DELETE("/products/:id", productHandler.DeleteProduct)
			vendor.POST("/products/:id/submit-for-approval", middleware.WriteRateLimit(), productHandler.SubmitForApproval)
			vendor.POST("/products/:id/duplicate", productHandler.DuplicateProduct)
		}
	}

	return r
}
