package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/traffick-desk/backend/internal/dispatch"
	"github.com/traffick-desk/backend/internal/http/dto"
	"github.com/traffick-desk/backend/internal/repositories"
	"github.com/traffick-desk/backend/internal/services"
)

type TicketHandler struct {
	ticketService *services.TicketService
	auditRepo     *repositories.AuditRepo
	log           *zap.Logger
}

func NewTicketHandler(ticketService *services.TicketService, auditRepo *repositories.AuditRepo, log *zap.Logger) *TicketHandler {
	return &TicketHandler{ticketService: ticketService, auditRepo: auditRepo, log: log}
}

func (h *TicketHandler) CreateTicket(c *fiber.Ctx) error {
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request"})
	}

	campaignID, err := uuid.Parse(req.CampaignID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid campaign_id"})
	}
	channelID, err := uuid.Parse(req.ChannelID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid channel_id"})
	}

	ticket, err := h.ticketService.Create(c.Context(), campaignID, channelID, req.RequestType, req.Payload)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: err.Error()})
		}
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: err.Error()})
	}

	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse{OK: true, Data: ticket})
}

func (h *TicketHandler) GetTicket(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid ticket id"})
	}

	ticket, err := h.ticketService.GetByID(c.Context(), id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: "ticket not found"})
		}
		h.log.Error("get ticket failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: ticket})
}

func (h *TicketHandler) ListTickets(c *fiber.Ctx) error {
	filter := repositories.TicketFilter{}

	if v := c.Query("campaign_id"); v != "" {
		if id, err := uuid.Parse(v); err == nil {
			filter.CampaignID = &id
		}
	}
	if v := c.Query("channel_id"); v != "" {
		if id, err := uuid.Parse(v); err == nil {
			filter.ChannelID = &id
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

	tickets, err := h.ticketService.List(c.Context(), filter)
	if err != nil {
		h.log.Error("list tickets failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: tickets})
}

// UpdatePayload edits a draft ticket's payload. 409 once the ticket has left
// draft.
func (h *TicketHandler) UpdatePayload(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid ticket id"})
	}

	var req dto.UpdateTicketPayloadRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request"})
	}
	if req.Payload == nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "payload is required"})
	}

	ticket, err := h.ticketService.UpdatePayload(c.Context(), id, req.Payload)
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrNotFound):
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: "ticket not found"})
		case errors.Is(err, repositories.ErrConflict):
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Error: "only draft tickets can be edited"})
		}
		h.log.Error("update ticket payload failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: ticket})
}

// SubmitTicket moves a draft or failed ticket into pending_review.
func (h *TicketHandler) SubmitTicket(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid ticket id"})
	}

	ticket, err := h.ticketService.SubmitForReview(c.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrNotFound):
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: "ticket not found"})
		case errors.Is(err, repositories.ErrConflict):
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Error: "ticket status changed concurrently"})
		}
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Error: err.Error()})
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: ticket})
}

// ReviewTicket runs the rule engine and persists the verdict.
func (h *TicketHandler) ReviewTicket(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid ticket id"})
	}

	ticket, verdict, err := h.ticketService.Review(c.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrNotFound):
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: "ticket not found"})
		case errors.Is(err, repositories.ErrConflict):
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Error: "ticket status changed concurrently"})
		}
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Error: err.Error()})
	}

	return c.JSON(dto.SuccessResponse{OK: true, Data: fiber.Map{
		"ticket":  ticket,
		"verdict": dto.VerdictResponse{Approved: verdict.Approved, Reason: verdict.Reason},
	}})
}

// PreviewTicket runs the rule engine without persisting the verdict.
func (h *TicketHandler) PreviewTicket(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid ticket id"})
	}

	verdict, err := h.ticketService.Preview(c.Context(), id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: "ticket not found"})
		}
		h.log.Error("preview ticket failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: dto.VerdictResponse{Approved: verdict.Approved, Reason: verdict.Reason}})
}

// DispatchTicket hands an approved ticket to the coordinator. 202 with the
// attempt id; the dispatch itself runs asynchronously.
func (h *TicketHandler) DispatchTicket(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid ticket id"})
	}

	attempt, err := h.ticketService.Dispatch(c.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrNotFound):
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: "ticket not found"})
		case errors.Is(err, dispatch.ErrInvalidState):
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Error: err.Error()})
		}
		h.log.Error("dispatch ticket failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}

	state, detail, attempts := attempt.State()
	return c.Status(fiber.StatusAccepted).JSON(dto.SuccessResponse{OK: true, Data: dto.DispatchStatusResponse{
		AttemptID: attempt.ID.String(),
		TicketID:  attempt.TicketID.String(),
		State:     state,
		Detail:    detail,
		Attempts:  attempts,
	}})
}

// GetDispatchStatus polls an attempt handle.
func (h *TicketHandler) GetDispatchStatus(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("attemptId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid attempt id"})
	}

	attempt, ok := h.ticketService.DispatchStatus(id)
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: "attempt not found"})
	}

	state, detail, attempts := attempt.State()
	return c.JSON(dto.SuccessResponse{OK: true, Data: dto.DispatchStatusResponse{
		AttemptID: attempt.ID.String(),
		TicketID:  attempt.TicketID.String(),
		State:     state,
		Detail:    detail,
		Attempts:  attempts,
	}})
}

// CancelDispatch requests cancellation; it takes effect between attempts.
func (h *TicketHandler) CancelDispatch(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("attemptId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid attempt id"})
	}

	if !h.ticketService.CancelDispatch(id) {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: "attempt not found"})
	}
	return c.JSON(dto.SuccessResponse{OK: true})
}

// GetTicketEvents returns the audit trail for a ticket.
func (h *TicketHandler) GetTicketEvents(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid ticket id"})
	}

	limit, offset := 50, 0
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}
	if v := c.Query("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			offset = n
		}
	}

	entries, err := h.auditRepo.GetByEntity(c.Context(), "ticket", id, limit, offset)
	if err != nil {
		h.log.Error("get ticket events failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: entries})
}
