package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/traffick-desk/backend/internal/http/dto"
	"github.com/traffick-desk/backend/internal/models"
	"github.com/traffick-desk/backend/internal/platform"
	"github.com/traffick-desk/backend/internal/repositories"
)

type ChannelHandler struct {
	channelRepo *repositories.ChannelRepo
	log         *zap.Logger
}

func NewChannelHandler(channelRepo *repositories.ChannelRepo, log *zap.Logger) *ChannelHandler {
	return &ChannelHandler{channelRepo: channelRepo, log: log}
}

func (h *ChannelHandler) CreateChannel(c *fiber.Ctx) error {
	var req dto.CreateChannelRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request"})
	}
	if req.PlatformName == "" || req.APIIdentifier == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "platform_name and api_identifier are required"})
	}

	// Only platforms the dispatcher knows how to talk to.
	if _, err := platform.Lookup(req.PlatformName); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: err.Error()})
	}

	channel := &models.Channel{
		PlatformName:  req.PlatformName,
		APIIdentifier: req.APIIdentifier,
	}
	if err := h.channelRepo.Create(c.Context(), channel); err != nil {
		if errors.Is(err, repositories.ErrDuplicateName) {
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Error: "channel already exists"})
		}
		h.log.Error("create channel failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}

	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse{OK: true, Data: channel})
}

func (h *ChannelHandler) ListChannels(c *fiber.Ctx) error {
	channels, err := h.channelRepo.List(c.Context())
	if err != nil {
		h.log.Error("list channels failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: channels})
}

func (h *ChannelHandler) GetChannel(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid channel id"})
	}

	channel, err := h.channelRepo.GetByID(c.Context(), id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: "channel not found"})
		}
		h.log.Error("get channel failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: channel})
}
