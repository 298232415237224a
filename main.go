package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"customer-option-service/controllers"
	"customer-option-service/database"
	"customer-option-service/middleware"
	aws_pkg "customer-option-service/pkg/aws"
	"customer-option-service/reader"
	"customer-option-service/repository"
	"customer-option-service/routes"
	"customer-option-service/sender"
	servicepkg "customer-option-service/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	cfg, err := LoadConfig()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	if err := database.Connect(cfg.Database, logger); err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.Close() //nolint:errcheck

	// AWS clients
	awsCfg, awsErr := aws_pkg.LoadAWSConfig(context.Background())
	var snsClient aws_pkg.SNSPublisher
	var objects aws_pkg.ObjectGetter

	if awsErr != nil {
		logger.Warn("AWS config unavailable, S3 sources and SNS disabled", zap.Error(awsErr))
	} else {
		snsClient = aws_pkg.NewSNSClient(awsCfg)
		objects = aws_pkg.NewS3Client(awsCfg)
	}

	// Mail
	templates, err := sender.LoadTemplates()
	if err != nil {
		logger.Fatal("Failed to load mail templates", zap.Error(err))
	}
	if err := templates.Alias(cfg.ImportErrorEmailCode, sender.TemplateImportErrors); err != nil {
		logger.Fatal("Failed to register import error template", zap.Error(err))
	}
	mailSender, err := sender.NewSMTPSender(cfg.SMTP, templates)
	if err != nil {
		logger.Fatal("Failed to init SMTP sender", zap.Error(err))
	}

	// DI chain
	tokens := servicepkg.ContextTokenStorage{}
	productRepo := repository.NewGormProductRepository(database.DB)
	optionRepo := repository.NewGormCustomerOptionRepository(database.DB)
	runRepo := repository.NewGormImportRunRepository(database.DB)
	newPriceSink := func() repository.PriceRepository {
		return repository.NewGormPriceRepository(database.DB)
	}

	importers := servicepkg.NewImporterFactory(
		reader.NewFileReader(objects),
		productRepo,
		servicepkg.NewPriceUpdater(optionRepo),
		newPriceSink,
		servicepkg.NewCSVFailureReporter(mailSender, tokens, "", logger),
		mailSender,
		tokens,
		cfg.ImportBatchSize,
		logger,
	)
	importService := servicepkg.NewPriceImportService(
		importers,
		newPriceSink(),
		runRepo,
		optionRepo,
		servicepkg.NewGenericImportErrorHandler(mailSender, tokens, cfg.ImportErrorEmailCode, logger),
		tokens,
		snsClient,
		cfg.PriceImportSNSTopicARN,
		logger,
	)
	importController := controllers.NewPriceImportController(importService, cfg.ImportUploadDir, logger)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Global request-logging middleware
	r.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	})

	// Imports can take minutes, so the timeout is configurable
	r.Use(func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.RequestTimeout)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	})

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": "customer-option-service"})
	})

	limiter := middleware.NewRateLimiter(rate.Every(time.Minute/time.Duration(cfg.ImportRatePerMinute)), cfg.ImportRateBurst)
	auth := middleware.AuthConfig{JWTSecret: cfg.JWTSecret, TrustGatewayHeaders: cfg.TrustGatewayHeaders}
	if auth.JWTSecret == "" && !auth.TrustGatewayHeaders {
		logger.Warn("Neither JWT_SECRET nor TRUST_GATEWAY_HEADERS is set, admin routes will reject every request")
	}
	routes.RegisterPriceImportRoutes(r, importController, auth, limiter)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	logger.Info("Customer option service started", zap.String("port", cfg.Port))
	<-quit
	logger.Info("Shutting down customer option service...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}
	logger.Info("Server exited cleanly")
}
