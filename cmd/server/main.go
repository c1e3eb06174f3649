package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	cartapp "github.com/wyfcoding/ecommerce/internal/cart/application"
	carthttp "github.com/wyfcoding/ecommerce/internal/cart/interfaces/http"
	catalogapp "github.com/wyfcoding/ecommerce/internal/catalog/application"
	catalogdomain "github.com/wyfcoding/ecommerce/internal/catalog/domain"
	catalogmysql "github.com/wyfcoding/ecommerce/internal/catalog/infrastructure/persistence/mysql"
	cataloghttp "github.com/wyfcoding/ecommerce/internal/catalog/interfaces/http"
	orderapp "github.com/wyfcoding/ecommerce/internal/order/application"
	orderdomain "github.com/wyfcoding/ecommerce/internal/order/domain"
	"github.com/wyfcoding/ecommerce/internal/order/infrastructure/messaging"
	ordermysql "github.com/wyfcoding/ecommerce/internal/order/infrastructure/persistence/mysql"
	orderhttp "github.com/wyfcoding/ecommerce/internal/order/interfaces/http"
	"github.com/wyfcoding/ecommerce/internal/payment"
	paymenthttp "github.com/wyfcoding/ecommerce/internal/payment/interfaces/http"
	"github.com/wyfcoding/ecommerce/internal/upload"
	uploadhttp "github.com/wyfcoding/ecommerce/internal/upload/interfaces/http"
	userapp "github.com/wyfcoding/ecommerce/internal/user/application"
	userdomain "github.com/wyfcoding/ecommerce/internal/user/domain"
	usermysql "github.com/wyfcoding/ecommerce/internal/user/infrastructure/persistence/mysql"
	userhttp "github.com/wyfcoding/ecommerce/internal/user/interfaces/http"
	"github.com/wyfcoding/ecommerce/pkg/cache"
	"github.com/wyfcoding/ecommerce/pkg/config"
	"github.com/wyfcoding/ecommerce/pkg/db"
	"github.com/wyfcoding/ecommerce/pkg/logger"
	"github.com/wyfcoding/ecommerce/pkg/metrics"
	"github.com/wyfcoding/ecommerce/pkg/middleware"
	"github.com/wyfcoding/ecommerce/pkg/mq"
	"github.com/wyfcoding/ecommerce/pkg/ratelimit"
	"github.com/wyfcoding/ecommerce/pkg/utils"
)

func main() {
	configPath := flag.String("config", "configs/config.toml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logger); err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	ctx := context.Background()
	logger.Info(ctx, "Starting service", "service", cfg.ServiceName, "environment", cfg.Environment)

	database, err := db.Init(db.Config{
		Driver:             cfg.Database.Driver,
		DSN:                cfg.Database.DSN,
		MaxOpenConns:       cfg.Database.MaxOpenConns,
		MaxIdleConns:       cfg.Database.MaxIdleConns,
		ConnMaxLifetime:    cfg.Database.ConnMaxLifetime,
		LogEnabled:         cfg.Database.LogEnabled,
		SlowQueryThreshold: cfg.Database.SlowQueryThreshold,
	})
	if err != nil {
		logger.Fatal(ctx, "Failed to init database", "error", err)
	}
	defer database.Close()

	if err := database.AutoMigrate(
		&userdomain.User{},
		&userdomain.Address{},
		&catalogdomain.Category{},
		&catalogdomain.Product{},
		&orderdomain.Order{},
		&orderdomain.OrderItem{},
	); err != nil {
		logger.Fatal(ctx, "Failed to run migrations", "error", err)
	}

	redisCache, err := cache.New(cache.Config{
		Host:         cfg.Redis.Host,
		Port:         cfg.Redis.Port,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		MaxPoolSize:  cfg.Redis.MaxPoolSize,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})
	if err != nil {
		logger.Fatal(ctx, "Failed to init Redis", "error", err)
	}
	defer redisCache.Close()

	producer, err := mq.NewProducer(mq.KafkaConfig{
		Brokers:      cfg.Kafka.Brokers,
		MaxRetries:   cfg.Kafka.MaxRetries,
		RetryBackoff: cfg.Kafka.RetryBackoff,
	})
	if err != nil {
		logger.Fatal(ctx, "Failed to init Kafka producer", "error", err)
	}
	defer producer.Close()

	m := metrics.New(cfg.ServiceName)
	var metricsSrv *http.Server
	if cfg.Metrics.Enabled {
		metricsSrv = m.Serve(cfg.Metrics.Port, cfg.Metrics.Path)
	}

	freeThreshold, err := decimal.NewFromString(cfg.Checkout.FreeShippingThreshold)
	if err != nil {
		logger.Fatal(ctx, "Invalid free shipping threshold", "error", err)
	}
	shippingFee, err := decimal.NewFromString(cfg.Checkout.ShippingFee)
	if err != nil {
		logger.Fatal(ctx, "Invalid shipping fee", "error", err)
	}

	// repositories
	userRepo := usermysql.NewUserRepository(database)
	addressRepo := usermysql.NewAddressRepository(database)
	productRepo := catalogmysql.NewProductRepository(database)
	categoryRepo := catalogmysql.NewCategoryRepository(database)
	orderRepo := ordermysql.NewOrderRepository(database)

	// services
	tokens := userapp.NewTokenManager(cfg.JWT.Secret, time.Duration(cfg.JWT.ExpireHours)*time.Hour)
	userSvc := userapp.NewUserService(userRepo, addressRepo, tokens)
	catalogSvc := catalogapp.NewCatalogService(productRepo, categoryRepo, redisCache, m)
	cartSvc := cartapp.NewCartService(redisCache, productRepo, time.Duration(cfg.Checkout.CartTTL)*time.Second)
	gateway := payment.NewStripeGateway(cfg.Stripe.SecretKey, cfg.Stripe.Currency)
	publisher := messaging.NewKafkaEventPublisher(producer, cfg.Kafka.OrderTopic, cfg.Kafka.PaymentTopic)
	shipping := orderapp.NewShippingCalculator(freeThreshold, shippingFee)
	orderSvc := orderapp.NewOrderService(orderRepo, cartSvc, productRepo, gateway, publisher,
		shipping, utils.NewSnowflakeID(1), m)
	uploadSvc := upload.NewService(cfg.Upload.Dir, cfg.Upload.MaxSizeMB)

	// HTTP server
	if cfg.Environment == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(middleware.Logging(), middleware.Recovery(), middleware.Metrics(m))
	engine.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"X-Request-ID"},
		MaxAge:           12 * time.Hour,
		AllowCredentials: false,
	}))

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": cfg.ServiceName})
	})
	engine.Static("/uploads", cfg.Upload.Dir)

	limiter := ratelimit.NewRedisRateLimiter(redisCache.GetClient())
	authLimit := middleware.RateLimit(limiter, ratelimit.PerMinute(10))
	auth := middleware.Auth(cfg.JWT.Secret)
	admin := middleware.RequireAdmin()

	api := engine.Group("/api/v1")
	userhttp.NewUserHandler(userSvc).RegisterRoutes(api, auth, authLimit)
	cataloghttp.NewCatalogHandler(catalogSvc).RegisterRoutes(api, auth, admin)
	carthttp.NewCartHandler(cartSvc).RegisterRoutes(api, auth)
	orderhttp.NewOrderHandler(orderSvc).RegisterRoutes(api, auth, admin)
	uploadhttp.NewUploadHandler(uploadSvc).RegisterRoutes(api, auth, admin)
	paymenthttp.NewWebhookHandler(orderSvc, cfg.Stripe.WebhookSecret, m).RegisterRoutes(api)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:      engine,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info(ctx, "HTTP server started", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal(ctx, "HTTP server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info(ctx, "Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "HTTP server shutdown failed", "error", err)
	}
	if metricsSrv != nil {
		if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
			logger.Error(ctx, "Metrics server shutdown failed", "error", err)
		}
	}
	logger.Info(ctx, "Server exited")
}
