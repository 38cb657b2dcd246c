package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/traffick-desk/backend/internal/http/dto"
	"github.com/traffick-desk/backend/internal/models"
	"github.com/traffick-desk/backend/internal/repositories"
)

type BrandHandler struct {
	brandRepo *repositories.BrandRepo
	log       *zap.Logger
}

func NewBrandHandler(brandRepo *repositories.BrandRepo, log *zap.Logger) *BrandHandler {
	return &BrandHandler{brandRepo: brandRepo, log: log}
}

func (h *BrandHandler) CreateBrand(c *fiber.Ctx) error {
	var req dto.CreateBrandRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request"})
	}
	if req.Name == "" || req.InternalCode == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "name and internal_code are required"})
	}

	brand := &models.Brand{
		Name:         req.Name,
		InternalCode: req.InternalCode,
		Restricted:   req.Restricted,
	}
	if err := h.brandRepo.Create(c.Context(), brand); err != nil {
		if errors.Is(err, repositories.ErrDuplicateName) {
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Error: "brand already exists"})
		}
		h.log.Error("create brand failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}

	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse{OK: true, Data: brand})
}

func (h *BrandHandler) ListBrands(c *fiber.Ctx) error {
	brands, err := h.brandRepo.List(c.Context())
	if err != nil {
		h.log.Error("list brands failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: brands})
}

func (h *BrandHandler) GetBrand(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid brand id"})
	}

	brand, err := h.brandRepo.GetByID(c.Context(), id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: "brand not found"})
		}
		h.log.Error("get brand failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: brand})
}

func (h *BrandHandler) SetRestricted(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid brand id"})
	}

	var req dto.SetBrandRestrictedRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request"})
	}

	if err := h.brandRepo.SetRestricted(c.Context(), id, req.Restricted); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: "brand not found"})
		}
		h.log.Error("set brand restricted failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}
	return c.JSON(dto.SuccessResponse{OK: true})
}
