package routes

import (
	"net/http"
	"time"

	"github.com/mouhaned372/facture-digitalisation/handlers"
	"github.com/mouhaned372/facture-digitalisation/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterAuthRoutes registers registration and login endpoints.
func RegisterAuthRoutes(r *gin.Engine, authHandler *handlers.AuthHandler) {
	api := r.Group("/auth")
	{
		api.POST("/register", authHandler.RegisterHandler)
		api.POST("/login", authHandler.LoginHandler)
	}

	users := r.Group("/users")
	users.Use(middleware.JWTAuthMiddleware())
	users.PUT("/fcm-token", authHandler.UpdateFCMTokenHandler)
}

// RegisterInvoiceRoutes registers the invoice endpoints.
func RegisterInvoiceRoutes(r *gin.Engine, invoiceHandler *handlers.InvoiceHandler) {
	api := r.Group("/invoices")
	{
		// All invoice operations require authentication.
		api.Use(middleware.JWTAuthMiddleware())
		api.POST("/upload", invoiceHandler.UploadInvoiceHandler)
		api.POST("/manual", invoiceHandler.CreateManualInvoiceHandler)
		api.GET("", invoiceHandler.ListInvoicesHandler)
		api.GET("/overdue", invoiceHandler.GetOverdueInvoicesHandler)
		api.GET("/:id", invoiceHandler.GetInvoiceByIDHandler)
		api.PUT("/:id", invoiceHandler.UpdateInvoiceHandler)
		api.DELETE("/:id", invoiceHandler.DeleteInvoiceHandler)
		api.PUT("/:id/mark-as-paid", invoiceHandler.MarkAsPaidHandler)
	}
}

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, invoiceHandler *handlers.InvoiceHandler, authHandler *handlers.AuthHandler) {
	// Setup global middleware (e.g., CORS) here.
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	RegisterHealthRoute(r)
	RegisterAuthRoutes(r, authHandler)
	RegisterInvoiceRoutes(r, invoiceHandler)
}
