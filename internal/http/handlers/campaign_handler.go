package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/traffick-desk/backend/internal/http/dto"
	"github.com/traffick-desk/backend/internal/repositories"
	"github.com/traffick-desk/backend/internal/services"
	"github.com/traffick-desk/backend/internal/taxonomy"
)

type CampaignHandler struct {
	campaignService *services.CampaignService
	log             *zap.Logger
}

func NewCampaignHandler(campaignService *services.CampaignService, log *zap.Logger) *CampaignHandler {
	return &CampaignHandler{campaignService: campaignService, log: log}
}

func (h *CampaignHandler) CreateCampaign(c *fiber.Ctx) error {
	var req dto.CreateCampaignRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request"})
	}

	brandID, err := uuid.Parse(req.BrandID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid brand_id"})
	}
	marketID, err := uuid.Parse(req.MarketID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid market_id"})
	}
	if req.Platform == "" || req.Label == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "platform and label are required"})
	}

	campaign, err := h.campaignService.Create(c.Context(), brandID, marketID, req.Platform, req.Label, req.Budget, req.Year)
	if err != nil {
		var codeErr *taxonomy.InvalidCodeError
		switch {
		case errors.As(err, &codeErr):
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: err.Error()})
		case errors.Is(err, repositories.ErrDuplicateName):
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Error: "campaign name already exists, use a different label"})
		case errors.Is(err, repositories.ErrNotFound):
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: err.Error()})
		}
		h.log.Error("create campaign failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}

	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse{OK: true, Data: campaign})
}

func (h *CampaignHandler) GetCampaign(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid campaign id"})
	}

	campaign, err := h.campaignService.GetByID(c.Context(), id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: "campaign not found"})
		}
		h.log.Error("get campaign failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: campaign})
}

func (h *CampaignHandler) ListCampaigns(c *fiber.Ctx) error {
	filter := repositories.CampaignFilter{}

	if v := c.Query("brand_id"); v != "" {
		if id, err := uuid.Parse(v); err == nil {
			filter.BrandID = &id
		}
	}
	if v := c.Query("market_id"); v != "" {
		if id, err := uuid.Parse(v); err == nil {
			filter.MarketID = &id
		}
	}
	if v := c.Query("status"); v != "" {
		filter.Status = &v
	}
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Limit = n
		}
	}
	if v := c.Query("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Offset = n
		}
	}

	campaigns, err := h.campaignService.List(c.Context(), filter)
	if err != nil {
		h.log.Error("list campaigns failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: campaigns})
}

// UpdateCampaign changes budget and status only. The name is taxonomy-issued
// and immutable.
func (h *CampaignHandler) UpdateCampaign(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid campaign id"})
	}

	var req dto.UpdateCampaignRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request"})
	}
	if req.Budget == nil && req.Status == nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "nothing to update"})
	}

	if req.Budget != nil {
		if _, err := h.campaignService.UpdateBudget(c.Context(), id, *req.Budget); err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: "campaign not found"})
			}
			h.log.Error("update campaign budget failed", zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
		}
	}
	if req.Status != nil {
		if _, err := h.campaignService.UpdateStatus(c.Context(), id, *req.Status); err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: "campaign not found"})
			}
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: err.Error()})
		}
	}

	campaign, err := h.campaignService.GetByID(c.Context(), id)
	if err != nil {
		h.log.Error("reload campaign failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: campaign})
}

// PreviewName generates a taxonomy name without persisting anything.
func (h *CampaignHandler) PreviewName(c *fiber.Ctx) error {
	var req dto.PreviewNameRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request"})
	}

	name, err := taxonomy.Generate(taxonomy.NamingSpec{
		BrandCode:  req.BrandCode,
		MarketCode: req.MarketCode,
		Platform:   req.Platform,
		Year:       req.Year,
		Label:      req.Label,
	})
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: err.Error()})
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: dto.NameResponse{Name: name}})
}

// ValidateName checks a name against the taxonomy pattern.
func (h *CampaignHandler) ValidateName(c *fiber.Ctx) error {
	name := c.Query("name")
	if name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "name query parameter is required"})
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: dto.ValidateNameResponse{
		Name:  name,
		Valid: taxonomy.Validate(name),
	}})
}
