package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/traffick-desk/backend/internal/config"
	"github.com/traffick-desk/backend/internal/db"
	"github.com/traffick-desk/backend/internal/dispatch"
	"github.com/traffick-desk/backend/internal/events"
	apphttp "github.com/traffick-desk/backend/internal/http"
	"github.com/traffick-desk/backend/internal/http/handlers"
	"github.com/traffick-desk/backend/internal/repositories"
	"github.com/traffick-desk/backend/internal/rules"
	"github.com/traffick-desk/backend/internal/services"
)

func main() {
	log, _ := zap.NewProduction()
	defer log.Sync()

	cfg := config.Load()
	cfg.Validate(log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	pool, err := db.NewPostgresPool(ctx, cfg.PostgresDSN, log)
	if err != nil {
		log.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer pool.Close()

	// Run migrations
	if err := db.RunMigrations(ctx, pool, "migrations", log); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}

	// Redis
	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL, log)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer rdb.Close()

	// Repositories
	brandRepo := repositories.NewBrandRepo(pool)
	marketRepo := repositories.NewMarketRepo(pool)
	channelRepo := repositories.NewChannelRepo(pool)
	campaignRepo := repositories.NewCampaignRepo(pool)
	ticketRepo := repositories.NewTicketRepo(pool)
	auditRepo := repositories.NewAuditRepo(pool)

	// Events
	publisher := events.NewRedisPublisher(rdb, log)
	subscriber := events.NewRedisSubscriber(rdb, log)

	// Pipeline
	engine := rules.NewEngine(cfg.Denylist)
	coordinator := dispatch.NewCoordinator(ticketRepo, cfg, log)

	// Services
	campaignService := services.NewCampaignService(campaignRepo, brandRepo, marketRepo, auditRepo, publisher, log)
	ticketService := services.NewTicketService(ticketRepo, campaignRepo, channelRepo, auditRepo, engine, coordinator, publisher, log)

	// Handlers
	brandHandler := handlers.NewBrandHandler(brandRepo, log)
	marketHandler := handlers.NewMarketHandler(marketRepo, log)
	channelHandler := handlers.NewChannelHandler(channelRepo, log)
	campaignHandler := handlers.NewCampaignHandler(campaignService, log)
	ticketHandler := handlers.NewTicketHandler(ticketService, auditRepo, log)
	wsHub := handlers.NewWSHub(cfg, subscriber, log)

	// Start WS hub
	wsHub.Start(ctx)

	// Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{"error": err.Error()})
		},
	})

	apphttp.SetupRouter(app, cfg, log, rdb, brandHandler, marketHandler, channelHandler, campaignHandler, ticketHandler, wsHub)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")
		cancel()
		_ = app.Shutdown()
	}()

	addr := fmt.Sprintf(":%s", cfg.APIPort)
	log.Info("starting API server", zap.String("addr", addr))
	if err := app.Listen(addr); err != nil {
		log.Fatal("server error", zap.Error(err))
	}
}
