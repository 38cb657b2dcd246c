package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/traffick-desk/backend/internal/http/dto"
	"github.com/traffick-desk/backend/internal/models"
	"github.com/traffick-desk/backend/internal/repositories"
)

type MarketHandler struct {
	marketRepo *repositories.MarketRepo
	log        *zap.Logger
}

func NewMarketHandler(marketRepo *repositories.MarketRepo, log *zap.Logger) *MarketHandler {
	return &MarketHandler{marketRepo: marketRepo, log: log}
}

func (h *MarketHandler) CreateMarket(c *fiber.Ctx) error {
	var req dto.CreateMarketRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request"})
	}
	if req.Name == "" || req.Code == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "name and code are required"})
	}

	market := &models.Market{Name: req.Name, Code: req.Code}
	if err := h.marketRepo.Create(c.Context(), market); err != nil {
		if errors.Is(err, repositories.ErrDuplicateName) {
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Error: "market already exists"})
		}
		h.log.Error("create market failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}

	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse{OK: true, Data: market})
}

func (h *MarketHandler) ListMarkets(c *fiber.Ctx) error {
	markets, err := h.marketRepo.List(c.Context())
	if err != nil {
		h.log.Error("list markets failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: markets})
}
