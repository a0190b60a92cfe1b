package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"marketplace-auction/internal/api/handlers"
	"marketplace-auction/internal/config"
	"marketplace-auction/internal/domain"
	"marketplace-auction/internal/infrastructure/leader"
	"marketplace-auction/internal/infrastructure/marketplace"
	"marketplace-auction/internal/infrastructure/memory"
	"marketplace-auction/internal/infrastructure/mysql"
	"marketplace-auction/internal/infrastructure/redis"
	ws "marketplace-auction/internal/infrastructure/websocket"
	"marketplace-auction/internal/services"
	"marketplace-auction/pkg/logger"

	redisClient "github.com/go-redis/redis/v8"
	_ "github.com/go-sql-driver/mysql"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

func main() {
	log := logger.New()
	defer logger.Sync(log)

	log.Info("Starting marketplace auction service")

	cfg, err := config.Load()
	if err != nil {
		log.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	log.Info("Configuration loaded", "config", cfg.GetConfigString())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Redis backs event fan-out and janitor leader election.
	rdb := redisClient.NewClient(&redisClient.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	log.Info("Connected to Redis", "address", cfg.Redis.Address)

	var (
		repo  domain.AuctionRepository
		store services.StorageReconciler
	)
	switch cfg.Storage.Backend {
	case "memory":
		memRepo := memory.NewRepository()
		repo, store = memRepo, memRepo
		log.Warn("Using in-memory storage, state is lost on restart")
	default:
		db, err := sql.Open("mysql", cfg.MySQL.DSN)
		if err != nil {
			log.Error("Failed to open MySQL connection", "error", err)
			os.Exit(1)
		}
		defer func() {
			if err := db.Close(); err != nil {
				log.Error("Failed to close MySQL connection", "error", err)
			}
		}()

		db.SetMaxOpenConns(cfg.MySQL.MaxOpenConns)
		db.SetMaxIdleConns(cfg.MySQL.MaxIdleConns)
		db.SetConnMaxLifetime(cfg.MySQL.ConnMaxLifetime)

		if err := db.PingContext(ctx); err != nil {
			log.Error("Failed to ping MySQL", "error", err)
			os.Exit(1)
		}

		mysqlRepo := mysql.NewMySQLAuctionRepository(db)
		if err := mysqlRepo.EnsureSchema(ctx); err != nil {
			log.Error("Failed to ensure MySQL schema", "error", err)
			os.Exit(1)
		}
		repo, store = mysqlRepo, mysqlRepo
		log.Info("Connected to MySQL")
	}

	var marketplaceClient domain.MarketplaceClient
	if cfg.Marketplace.UseStub {
		marketplaceClient = marketplace.NewStubClient()
		log.Warn("Using stub marketplace client")
	} else {
		marketplaceClient = marketplace.NewHTTPClient(
			cfg.Marketplace.BaseURL,
			cfg.Marketplace.APIKey,
			cfg.Marketplace.AppSlug,
			cfg.Marketplace.Timeout,
			log,
		)
	}

	eventPublisher := redis.NewEventPublisher(rdb)
	eventSubscriber := redis.NewRedisEventSubscriber(rdb, log)
	leaderElection := leader.NewRedisLeaderElection(rdb, cfg.Janitor.LeaderTTL)

	auctionService := services.NewAuctionService(
		repo,
		marketplaceClient,
		eventPublisher,
		services.NewBidValidator(),
		log,
	)

	connManager := ws.NewConnectionManager(log)
	eventListener := services.NewEventListener(connManager, log)

	listenerCtx, stopListener := context.WithCancel(context.Background())
	defer stopListener()
	go func() {
		if err := eventListener.Start(listenerCtx, eventSubscriber); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("Event listener stopped", "error", err)
		}
	}()

	var janitor *services.Janitor
	if cfg.Janitor.Enabled {
		janitor = services.NewJanitor(store, leaderElection, cfg.Instance.ID, cfg.Janitor.Interval, log)
		if err := janitor.Start(context.Background()); err != nil {
			log.Error("Failed to start janitor", "error", err)
			os.Exit(1)
		}
	}

	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.RequestID())
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: `{"time":"${time_rfc3339}","id":"${id}","remote_ip":"${remote_ip}","host":"${host}","method":"${method}","uri":"${uri}","user_agent":"${user_agent}","status":${status},"error":"${error}","latency":${latency},"latency_human":"${latency_human}","bytes_in":${bytes_in},"bytes_out":${bytes_out}}` + "\n",
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{
			echo.GET, echo.HEAD, echo.PUT, echo.PATCH,
			echo.POST, echo.DELETE, echo.OPTIONS,
		},
		AllowHeaders: []string{
			echo.HeaderOrigin,
			echo.HeaderContentType,
			echo.HeaderAccept,
			echo.HeaderAuthorization,
			"X-User-ID",
			"X-Access-Token",
		},
	}))

	auctionHandler := handlers.NewAuctionHandler(auctionService, log)
	auctionHandler.RegisterRoutes(e.Group("/api/v1"))

	wsHandler := handlers.NewWSHandler(ws.NewHandler(connManager, log), log)
	wsHandler.RegisterRoutes(e)

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"status":    "ok",
			"service":   "marketplace-auction",
			"timestamp": time.Now().Format(time.RFC3339),
		})
	})

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Info("Starting HTTP server", "address", serverAddr)

	go func() {
		if err := e.Start(serverAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down auction service...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	stopListener()
	if janitor != nil {
		if err := janitor.Stop(); err != nil {
			log.Error("Failed to stop janitor", "error", err)
		}
		if err := leaderElection.ReleaseLeadership(shutdownCtx, cfg.Instance.ID); err != nil {
			log.Error("Failed to release leadership", "error", err)
		}
	}

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}

	log.Info("Auction service stopped")
}
