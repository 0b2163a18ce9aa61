package main

import (
	"log"
	"net/http"
	"time"

	"marketplace-escrow/internal/auth"
	"marketplace-escrow/internal/handler"
	"marketplace-escrow/internal/infrastructure"
	"marketplace-escrow/internal/middleware"
	"marketplace-escrow/internal/notify"
	"marketplace-escrow/internal/service"
	"marketplace-escrow/internal/settlement"
	"marketplace-escrow/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg := infrastructure.LoadConfig()

	// Database
	db, err := infrastructure.ConnectDatabase(infrastructure.DefaultDatabaseConfig())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := infrastructure.MigrateAllSchemas(db); err != nil {
		log.Fatalf("Failed to migrate database schemas: %v", err)
	}

	// Optional order view cache
	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb, err = infrastructure.ConnectRedis(cfg.RedisAddr)
		if err != nil {
			log.Fatalf("Failed to connect to redis: %v", err)
		}
	}

	// Ledger store and read side
	ledger := store.NewGormStore(db)
	orderQuery := service.NewOrderQueryService(ledger, rdb, cfg.OrderViewTTL)

	// Notification pipeline
	var emitter notify.Emitter = notify.LogEmitter{}
	if cfg.KafkaBroker != "" {
		kafkaEmitter := notify.NewKafkaEmitter(cfg.KafkaBroker, cfg.KafkaTopic)
		defer kafkaEmitter.Close()
		emitter = kafkaEmitter
	}
	dispatcher := notify.NewDispatcher(emitter, ledger, 256, 3, 500*time.Millisecond)
	defer dispatcher.Close()

	// Settlement engine
	coordinator := settlement.NewCoordinator(ledger, dispatcher, orderQuery)
	resolver := settlement.NewDisputeResolver(coordinator)

	escalator := settlement.NewEscalator(ledger, coordinator, cfg.DisputeGraceWindow, cfg.EscalationInterval)
	escalator.Start()
	defer escalator.Stop()

	// Supporting services
	userService := service.NewUserService(db)
	productService := service.NewProductService(db)
	authService := auth.NewService(userService, []byte(cfg.JWTSecret))
	authzService, err := service.NewAuthorizationService(cfg.CasbinModelPath, cfg.CasbinPolicyPath)
	if err != nil {
		log.Fatalf("Failed to initialize authorization service: %v", err)
	}

	seedManager := infrastructure.NewSeedDataManager(db, userService, productService)
	if err := seedManager.SeedAll(); err != nil {
		log.Fatalf("Failed to setup seed data: %v", err)
	}

	// Handlers
	authHandler := handler.NewAuthHandler(authService)
	productHandler := handler.NewProductHandler(productService)
	settlementHandler := handler.NewSettlementHandler(coordinator, resolver, orderQuery)

	r := gin.Default()

	// Public routes
	r.POST("/api/auth/login", authHandler.Login)
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	// Protected routes
	api := r.Group("/api")
	api.Use(middleware.AuthMiddleware(authService))

	api.GET("/products", productHandler.ListProducts)
	api.GET("/products/:id", productHandler.GetProduct)
	api.POST("/products",
		middleware.RequirePermission(authzService, "products", "create"),
		productHandler.CreateProduct)

	api.POST("/orders",
		middleware.RequirePermission(authzService, "orders", "create"),
		settlementHandler.CreateOrder)
	api.GET("/orders/:id",
		middleware.RequirePermission(authzService, "orders", "read"),
		settlementHandler.GetOrder)
	api.POST("/orders/:id/capture",
		middleware.RequirePermission(authzService, "payments", "capture"),
		settlementHandler.CapturePayment)
	api.POST("/orders/:id/courier",
		middleware.RequirePermission(authzService, "deliveries", "update"),
		settlementHandler.AssignCourier)
	api.POST("/orders/:id/delivered",
		middleware.RequirePermission(authzService, "deliveries", "update"),
		settlementHandler.MarkDelivered)
	api.POST("/orders/:id/confirm",
		middleware.RequirePermission(authzService, "orders", "confirm"),
		settlementHandler.Confirm)
	api.POST("/orders/:id/dispute",
		middleware.RequirePermission(authzService, "orders", "dispute"),
		settlementHandler.OpenDispute)
	api.POST("/orders/:id/resolve",
		middleware.RequirePermission(authzService, "disputes", "resolve"),
		settlementHandler.Resolve)

	log.Printf("Starting marketplace escrow API on port %s", cfg.Port)
	log.Fatal(http.ListenAndServe(":"+cfg.Port, r))
}
