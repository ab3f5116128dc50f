package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"cardmarket/internal/config"
	"cardmarket/internal/database"
	"cardmarket/internal/handler"
	"cardmarket/internal/middleware"
	"cardmarket/internal/monitor"
	"cardmarket/internal/realtime"
	"cardmarket/internal/redis"
	"cardmarket/internal/repository"
	"cardmarket/internal/service/cart"
	"cardmarket/internal/service/catalog"
	"cardmarket/internal/service/notification"
	"cardmarket/internal/service/order"
	"cardmarket/internal/service/promo"
	"cardmarket/internal/service/review"
	"cardmarket/internal/service/trade"
	"cardmarket/internal/utils"
	"cardmarket/pkg/log"
	"cardmarket/pkg/queue"
)

func main() {
	cfg, err := config.LoadConfig("")
	if err != nil {
		log.WithError(err).Fatal("Failed to load config")
	}

	if err := log.Init(log.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		Filename:   cfg.Log.Filename,
		MaxSize:    cfg.Log.MaxSize,
		MaxAge:     cfg.Log.MaxAge,
		MaxBackups: cfg.Log.MaxBackups,
		Compress:   cfg.Log.Compress,
	}); err != nil {
		log.WithError(err).Fatal("Failed to initialize logger")
	}

	if err := database.Init(cfg); err != nil {
		log.WithError(err).Fatal("Failed to initialize database")
	}
	defer database.Close()

	if err := redis.Init(cfg); err != nil {
		log.WithError(err).Fatal("Failed to initialize redis")
	}
	defer redis.Close()

	db := database.GetDB()
	if err := database.AutoMigrate(db); err != nil {
		log.WithError(err).Fatal("Failed to migrate database")
	}
	if err := database.CreateIndexes(db); err != nil {
		log.WithError(err).Warn("Failed to create indexes")
	}

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Repositories
	userRepo := repository.NewUserRepository(db)
	productRepo := repository.NewProductRepository(db)
	promoRepo := repository.NewPromoRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	tradeRepo := repository.NewTradeRepository(db)
	messageRepo := repository.NewTradeMessageRepository(db)
	meetingRepo := repository.NewMeetingRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	reviewRepo := repository.NewReviewRepository(db)

	// In-process event bus
	bus, err := queue.NewMemoryQueue(nil)
	if err != nil {
		log.WithError(err).Fatal("Failed to create event bus")
	}
	defer bus.Close()

	// Metrics
	var metrics *monitor.MetricsCollector
	if cfg.Metrics.Enabled {
		metrics = monitor.NewMetricsCollector()
	}

	// Services
	promoService := promo.NewPromoService(promoRepo, cfg.Promo.FilterCapacity, cfg.Promo.FilterFalsePositive)
	if err := promoService.WarmFilter(ctx); err != nil {
		log.WithError(err).Warn("Promo filter warmup failed, validating against storage only")
	}

	cartService, err := cart.NewCartService(productRepo, cfg.Cart.TTL, cfg.Cart.Shards)
	if err != nil {
		log.WithError(err).Fatal("Failed to create cart store")
	}

	catalogService := catalog.NewCatalogService(productRepo)
	orderService := order.NewOrderService(orderRepo, productRepo, promoService)
	tradeService := trade.NewTradeService(tradeRepo, messageRepo, meetingRepo, productRepo, userRepo, bus)
	reviewService := review.NewReviewService(reviewRepo, productRepo)
	notificationService := notification.NewNotificationService(notificationRepo)

	// Realtime
	redisClient := redis.GetClient()
	publisher := realtime.NewRedisPublisher(redisClient)
	hub := realtime.NewHub(redisClient)
	go hub.Run(ctx)

	// Notification dispatcher
	dispatcher := notification.NewDispatcher(notificationRepo, publisher, metrics)
	if err := dispatcher.Start(ctx, bus); err != nil {
		log.WithError(err).Fatal("Failed to start notification dispatcher")
	}

	// Token validation
	jwtManager := utils.NewJWTManager(cfg.Security.JWT.Secret, cfg.Security.JWT.Issuer, 24*time.Hour)
	validator := func(token string) (*middleware.UserInfo, error) {
		claims, err := jwtManager.ValidateToken(token)
		if err != nil {
			return nil, err
		}
		return &middleware.UserInfo{
			ID:       claims.UserID,
			Username: claims.Username,
			Role:     claims.Role,
		}, nil
	}

	router := setupRouter(cfg, metrics, validator, routerDeps{
		products:      handler.NewProductHandler(catalogService),
		carts:         handler.NewCartHandler(cartService),
		orders:        handler.NewOrderHandler(orderService, cartService, metrics),
		promos:        handler.NewPromoHandler(promoService, metrics),
		trades:        handler.NewTradeHandler(tradeService, metrics),
		notifications: handler.NewNotificationHandler(notificationService),
		reviews:       handler.NewReviewHandler(reviewService),
		dashboard:     handler.NewDashboardHandler(userRepo, productRepo, orderRepo, tradeRepo),
		ws:            handler.NewWSHandler(hub, tradeRepo, validator, metrics),
	})

	server := &http.Server{
		Addr:           cfg.Server.GetAddr(),
		Handler:        router,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		log.WithFields(map[string]interface{}{
			"addr": server.Addr,
			"mode": cfg.Server.Mode,
		}).Info("Starting HTTP server")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Fatal("Server forced to shutdown")
	}

	log.Info("Server exited")
}

type routerDeps struct {
	products      *handler.ProductHandler
	carts         *handler.CartHandler
	orders        *handler.OrderHandler
	promos        *handler.PromoHandler
	trades        *handler.TradeHandler
	notifications *handler.NotificationHandler
	reviews       *handler.ReviewHandler
	dashboard     *handler.DashboardHandler
	ws            *handler.WSHandler
}

func setupRouter(cfg *config.Config, metrics *monitor.MetricsCollector, validator middleware.TokenValidator, deps routerDeps) *gin.Engine {
	router := gin.New()

	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())
	router.Use(middleware.CORS())
	if cfg.RateLimit.Enabled {
		router.Use(middleware.RateLimit(cfg.RateLimit.Rate, cfg.RateLimit.Burst))
	}
	if metrics != nil {
		router.Use(metrics.HTTPMiddleware())
		router.GET(cfg.Metrics.Path, monitor.Handler())
	}

	router.GET("/health", healthCheck)
	router.GET("/ws", deps.ws.Serve)

	api := router.Group("/api/v1")
	{
		// Public catalog and reviews
		api.GET("/products", deps.products.List)
		api.GET("/products/:id", deps.products.Get)
		api.GET("/products/:id/reviews", deps.reviews.List)
		api.POST("/products/:id/reviews", deps.reviews.Add)

		// Promo validation
		api.POST("/promo/validate", deps.promos.Validate)

		protected := api.Group("")
		protected.Use(middleware.Auth(validator))
		{
			// Cart
			protected.GET("/cart", deps.carts.Get)
			protected.GET("/cart/estimate", deps.carts.Estimate)
			protected.POST("/cart/items", deps.carts.Add)
			protected.PUT("/cart/items/:product_id", deps.carts.SetQuantity)
			protected.DELETE("/cart/items/:product_id", deps.carts.Remove)
			protected.DELETE("/cart", deps.carts.Clear)

			// Orders
			protected.POST("/orders", deps.orders.Checkout)
			protected.GET("/orders", deps.orders.ListMine)
			protected.GET("/orders/:id", deps.orders.Get)

			// Trades
			protected.POST("/trades", deps.trades.Create)
			protected.GET("/trades", deps.trades.ListMine)
			protected.GET("/trades/browse", deps.trades.ListBrowse)
			protected.GET("/trades/:id", deps.trades.Get)
			protected.POST("/trades/:id/offer", deps.trades.Offer)
			protected.POST("/trades/:id/accept", deps.trades.Accept)
			protected.POST("/trades/:id/decline", deps.trades.Decline)
			protected.POST("/trades/:id/cancel", deps.trades.Cancel)
			protected.POST("/trades/:id/messages", deps.trades.PostMessage)
			protected.POST("/trades/:id/meetings", deps.trades.ProposeMeeting)
			protected.POST("/trades/:id/meetings/:proposal_id/respond", deps.trades.RespondMeeting)

			// Notifications
			protected.GET("/notifications", deps.notifications.Feed)
		}

		admin := api.Group("/admin")
		admin.Use(middleware.RequireAdmin(validator))
		{
			admin.POST("/products", deps.products.Create)
			admin.PUT("/products/:id", deps.products.Update)
			admin.DELETE("/products/:id", deps.products.Delete)
			admin.POST("/promos", deps.promos.Create)
			admin.GET("/orders", deps.orders.Audit)
			admin.GET("/trades", deps.trades.ListAll)
			admin.GET("/stats", deps.dashboard.Stats)
			admin.GET("/users", deps.dashboard.Users)
		}
	}

	return router
}

func healthCheck(c *gin.Context) {
	health := map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().Unix(),
		"services": map[string]interface{}{
			"database": checkDatabase(),
			"redis":    checkRedis(),
		},
	}

	services := health["services"].(map[string]interface{})
	for _, s := range services {
		if !s.(map[string]interface{})["healthy"].(bool) {
			health["status"] = "error"
			c.JSON(http.StatusServiceUnavailable, health)
			return
		}
	}
	c.JSON(http.StatusOK, health)
}

func checkDatabase() map[string]interface{} {
	db := database.GetDB()
	if db == nil {
		return map[string]interface{}{"healthy": false, "error": "database connection is nil"}
	}
	sqlDB, err := db.DB()
	if err != nil {
		return map[string]interface{}{"healthy": false, "error": err.Error()}
	}
	if err := sqlDB.Ping(); err != nil {
		return map[string]interface{}{"healthy": false, "error": err.Error()}
	}
	return map[string]interface{}{"healthy": true, "status": "connected"}
}

func checkRedis() map[string]interface{} {
	if err := redis.Health(); err != nil {
		return map[string]interface{}{"healthy": false, "error": err.Error()}
	}
	return map[string]interface{}{"healthy": true, "status": "connected"}
}
