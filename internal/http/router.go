package http

import (
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/traffick-desk/backend/internal/config"
	"github.com/traffick-desk/backend/internal/http/handlers"
	"github.com/traffick-desk/backend/internal/middleware"
	"github.com/traffick-desk/backend/internal/rbac"
)

func SetupRouter(
	app *fiber.App,
	cfg *config.Config,
	log *zap.Logger,
	rdb *redis.Client,
	brandHandler *handlers.BrandHandler,
	marketHandler *handlers.MarketHandler,
	channelHandler *handlers.ChannelHandler,
	campaignHandler *handlers.CampaignHandler,
	ticketHandler *handlers.TicketHandler,
	wsHub *handlers.WSHub,
) {
	// Global middleware
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Request-ID",
	}))
	app.Use(middleware.RequestIDMiddleware())
	app.Use(middleware.LoggerMiddleware(log))

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api/v1")
	api.Use(middleware.RateLimitMiddleware(rdb, 100, time.Minute))

	// Taxonomy (public: stateless name tooling)
	api.Post("/taxonomy/preview", campaignHandler.PreviewName)
	api.Get("/taxonomy/validate", campaignHandler.ValidateName)

	// Protected endpoints
	protected := api.Group("", middleware.AuthMiddleware(cfg, log))

	// Brands
	protected.Post("/brands", brandHandler.CreateBrand)
	protected.Get("/brands", brandHandler.ListBrands)
	protected.Get("/brands/:id", brandHandler.GetBrand)
	protected.Put("/brands/:id/restricted", middleware.RequirePermission(rbac.PermManageBrands), brandHandler.SetRestricted)

	// Markets
	protected.Post("/markets", marketHandler.CreateMarket)
	protected.Get("/markets", marketHandler.ListMarkets)

	// Channels
	protected.Post("/channels", channelHandler.CreateChannel)
	protected.Get("/channels", channelHandler.ListChannels)
	protected.Get("/channels/:id", channelHandler.GetChannel)

	// Campaigns
	protected.Post("/campaigns", campaignHandler.CreateCampaign)
	protected.Get("/campaigns", campaignHandler.ListCampaigns)
	protected.Get("/campaigns/:id", campaignHandler.GetCampaign)
	protected.Put("/campaigns/:id", campaignHandler.UpdateCampaign)

	// Tickets
	protected.Post("/tickets", ticketHandler.CreateTicket)
	protected.Get("/tickets", ticketHandler.ListTickets)
	protected.Get("/tickets/:id", ticketHandler.GetTicket)
	protected.Put("/tickets/:id/payload", ticketHandler.UpdatePayload)
	protected.Post("/tickets/:id/submit", ticketHandler.SubmitTicket)
	protected.Get("/tickets/:id/preview", ticketHandler.PreviewTicket)
	protected.Post("/tickets/:id/review", middleware.RequirePermission(rbac.PermReviewTicket), ticketHandler.ReviewTicket)
	protected.Post("/tickets/:id/dispatch", middleware.RequirePermission(rbac.PermDispatchTicket), ticketHandler.DispatchTicket)
	protected.Get("/tickets/:id/events", ticketHandler.GetTicketEvents)

	// Dispatch attempts
	protected.Get("/dispatch/:attemptId", ticketHandler.GetDispatchStatus)
	protected.Post("/dispatch/:attemptId/cancel", ticketHandler.CancelDispatch)

	// WebSocket
	app.Use("/ws", handlers.WSUpgradeMiddleware())
	app.Get("/ws", websocket.New(wsHub.HandleWS))
}
