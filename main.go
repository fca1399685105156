package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mouhaned372/facture-digitalisation/config"
	"github.com/mouhaned372/facture-digitalisation/cron"
	"github.com/mouhaned372/facture-digitalisation/database"
	invoiceRepoPkg "github.com/mouhaned372/facture-digitalisation/database/repository/invoice"
	userRepoPkg "github.com/mouhaned372/facture-digitalisation/database/repository/user"
	"github.com/mouhaned372/facture-digitalisation/handlers"
	"github.com/mouhaned372/facture-digitalisation/middleware"
	"github.com/mouhaned372/facture-digitalisation/routes"
	invoiceSvc "github.com/mouhaned372/facture-digitalisation/services/invoice"
	"github.com/mouhaned372/facture-digitalisation/services/notification"
	"github.com/mouhaned372/facture-digitalisation/services/vision"
	"github.com/mouhaned372/facture-digitalisation/utils"

	"github.com/gin-gonic/gin"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	database.InitDB()
	utils.FirebaseInit()

	storageService, err := utils.Cloudinary()
	if err != nil {
		logger.Sugar().Fatalf("main: failed to initialize cloudinary storage service: %v", err)
	}
	if storageService == nil {
		logger.Sugar().Info("main: cloudinary not configured, scanned images will not be stored")
	}

	visionClient, err := vision.NewGeminiClient(
		config.AppConfig.GeminiAPIKey,
		config.AppConfig.GeminiModel,
		time.Duration(config.AppConfig.GeminiTimeoutSeconds)*time.Second,
	)
	if err != nil {
		logger.Sugar().Fatalf("main: failed to initialize gemini vision client: %v", err)
	}
	defer visionClient.Close()

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	router.Use(middleware.RateLimitMiddleware())

	// repositories.
	invoiceRepo := invoiceRepoPkg.NewMongoInvoiceRepo()
	userRepo := userRepoPkg.NewMongoUserRepo()

	// services.
	notificationService, err := notification.NewDefaultNotificationService(userRepo)
	if err != nil {
		logger.Sugar().Fatalf("main: failed to initialize notification service: %v", err)
	}

	invoiceService := &invoiceSvc.DefaultInvoiceService{
		Repo:             invoiceRepo,
		Vision:           visionClient,
		Storage:          storageService,
		Notifier:         notificationService,
		DeriveItemTotals: config.AppConfig.DeriveItemTotals,
	}

	invoiceHandler := handlers.NewInvoiceHandler(invoiceService)
	authHandler := handlers.NewAuthHandler(userRepo)

	routes.RegisterRoutes(router, invoiceHandler, authHandler)

	// Start the daily overdue sweep worker.
	cron.InitOverdueWorker(invoiceService)

	// Start the HTTP server.
	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Fatalf("main: server forced to shutdown: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
