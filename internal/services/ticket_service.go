package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/traffick-desk/backend/internal/dispatch"
	"github.com/traffick-desk/backend/internal/events"
	"github.com/traffick-desk/backend/internal/models"
	"github.com/traffick-desk/backend/internal/repositories"
	"github.com/traffick-desk/backend/internal/rules"
)

// Request types a ticket can carry.
var validRequestTypes = map[string]bool{
	"campaign": true,
	"adset":    true,
	"ad":       true,
}

type TicketService struct {
	ticketRepo   *repositories.TicketRepo
	campaignRepo *repositories.CampaignRepo
	channelRepo  *repositories.ChannelRepo
	auditRepo    *repositories.AuditRepo
	engine       *rules.Engine
	coordinator  *dispatch.Coordinator
	publisher    events.Publisher
	log          *zap.Logger
}

func NewTicketService(
	ticketRepo *repositories.TicketRepo,
	campaignRepo *repositories.CampaignRepo,
	channelRepo *repositories.ChannelRepo,
	auditRepo *repositories.AuditRepo,
	engine *rules.Engine,
	coordinator *dispatch.Coordinator,
	publisher events.Publisher,
	log *zap.Logger,
) *TicketService {
	return &TicketService{
		ticketRepo:   ticketRepo,
		campaignRepo: campaignRepo,
		channelRepo:  channelRepo,
		auditRepo:    auditRepo,
		engine:       engine,
		coordinator:  coordinator,
		publisher:    publisher,
		log:          log,
	}
}

// transition validates and performs a status transition with audit logging.
func (s *TicketService) transition(ctx context.Context, ticket *models.Ticket, newStatus, actorType string, fields repositories.TicketStatusFields) error {
	if !models.IsValidTransition(ticket.Status, newStatus) {
		return fmt.Errorf("invalid transition from %s to %s", ticket.Status, newStatus)
	}

	oldStatus := ticket.Status
	if err := s.ticketRepo.CompareAndSetStatus(ctx, ticket.ID, oldStatus, newStatus, fields); err != nil {
		return err
	}
	ticket.Status = newStatus
	ticket.FailureReason = fields.FailureReason

	_ = s.auditRepo.Log(ctx, models.AuditLog{
		ActorType:  actorType,
		Action:     fmt.Sprintf("ticket_status_%s_to_%s", oldStatus, newStatus),
		EntityType: "ticket",
		EntityID:   &ticket.ID,
		Meta:       map[string]any{"old_status": oldStatus, "new_status": newStatus},
	})

	_ = s.publisher.Publish(ctx, events.StreamTickets, events.Event{
		Type: events.EventTicketStatusChanged,
		Payload: map[string]any{
			"ticket_id":  ticket.ID.String(),
			"old_status": oldStatus,
			"new_status": newStatus,
		},
	})

	return nil
}

func (s *TicketService) Create(ctx context.Context, campaignID, channelID uuid.UUID, requestType string, payload map[string]any) (*models.Ticket, error) {
	if !validRequestTypes[requestType] {
		return nil, fmt.Errorf("invalid request type %q, must be one of: campaign, adset, ad", requestType)
	}
	if payload == nil {
		payload = map[string]any{}
	}

	if _, err := s.campaignRepo.GetByID(ctx, campaignID); err != nil {
		return nil, fmt.Errorf("campaign: %w", err)
	}
	if _, err := s.channelRepo.GetByID(ctx, channelID); err != nil {
		return nil, fmt.Errorf("channel: %w", err)
	}

	ticket := &models.Ticket{
		CampaignID:  campaignID,
		ChannelID:   channelID,
		RequestType: requestType,
		Payload:     payload,
		Status:      models.TicketStatusDraft,
	}
	if err := s.ticketRepo.Create(ctx, ticket); err != nil {
		return nil, err
	}

	_ = s.auditRepo.Log(ctx, models.AuditLog{
		ActorType:  "user",
		Action:     "ticket_created",
		EntityType: "ticket",
		EntityID:   &ticket.ID,
		Meta:       map[string]any{"request_type": requestType},
	})

	return ticket, nil
}

func (s *TicketService) GetByID(ctx context.Context, id uuid.UUID) (*models.Ticket, error) {
	return s.ticketRepo.GetByID(ctx, id)
}

func (s *TicketService) List(ctx context.Context, f repositories.TicketFilter) ([]models.Ticket, error) {
	return s.ticketRepo.List(ctx, f)
}

// UpdatePayload edits a draft ticket. Anything past draft is immutable.
func (s *TicketService) UpdatePayload(ctx context.Context, id uuid.UUID, payload map[string]any) (*models.Ticket, error) {
	if err := s.ticketRepo.UpdatePayload(ctx, id, payload); err != nil {
		return nil, err
	}
	return s.ticketRepo.GetByID(ctx, id)
}

// SubmitForReview moves a draft (or a failed ticket being resubmitted) into
// pending_review. The failure reason of a previous cycle is cleared.
func (s *TicketService) SubmitForReview(ctx context.Context, id uuid.UUID) (*models.Ticket, error) {
	ticket, err := s.ticketRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.transition(ctx, ticket, models.TicketStatusPendingReview, "user", repositories.TicketStatusFields{}); err != nil {
		return nil, err
	}
	return ticket, nil
}

// Review runs the rule engine over a pending_review ticket and persists the
// verdict: approved_for_dispatch or review_failed with the first failing
// rule's reason.
func (s *TicketService) Review(ctx context.Context, id uuid.UUID) (*models.Ticket, rules.Verdict, error) {
	tc, err := s.ticketRepo.GetForDispatch(ctx, id)
	if err != nil {
		return nil, rules.Verdict{}, err
	}
	if tc.Status != models.TicketStatusPendingReview {
		return nil, rules.Verdict{}, fmt.Errorf("ticket is %s, only pending_review tickets can be reviewed", tc.Status)
	}

	verdict := s.evaluate(tc)

	ticket := &tc.Ticket
	if verdict.Approved {
		err = s.transition(ctx, ticket, models.TicketStatusApprovedForDispatch, "system", repositories.TicketStatusFields{})
	} else {
		reason := verdict.Reason
		err = s.transition(ctx, ticket, models.TicketStatusReviewFailed, "system", repositories.TicketStatusFields{FailureReason: &reason})
	}
	if err != nil {
		return nil, rules.Verdict{}, err
	}

	s.log.Info("ticket reviewed",
		zap.String("ticket_id", ticket.ID.String()),
		zap.Bool("approved", verdict.Approved),
		zap.String("reason", verdict.Reason),
	)
	return ticket, verdict, nil
}

// Preview runs the rule engine without persisting anything, so users can
// check a draft before submitting it.
func (s *TicketService) Preview(ctx context.Context, id uuid.UUID) (rules.Verdict, error) {
	tc, err := s.ticketRepo.GetForDispatch(ctx, id)
	if err != nil {
		return rules.Verdict{}, err
	}
	return s.evaluate(tc), nil
}

func (s *TicketService) evaluate(tc *models.TicketContext) rules.Verdict {
	campaign := &models.Campaign{ID: tc.CampaignID, Name: tc.CampaignName}
	brand := &models.Brand{Name: tc.BrandName, Restricted: tc.Restricted}
	channel := &models.Channel{ID: tc.ChannelID, PlatformName: tc.PlatformName}
	return s.engine.Evaluate(&tc.Ticket, campaign, brand, channel)
}

// Dispatch hands an approved ticket to the coordinator and returns the
// attempt handle id for polling.
func (s *TicketService) Dispatch(ctx context.Context, id uuid.UUID) (*dispatch.Attempt, error) {
	attempt, err := s.coordinator.Submit(ctx, id)
	if err != nil {
		return nil, err
	}

	_ = s.auditRepo.Log(ctx, models.AuditLog{
		ActorType:  "dispatcher",
		Action:     "ticket_dispatch_requested",
		EntityType: "ticket",
		EntityID:   &id,
		Meta:       map[string]any{"attempt_id": attempt.ID.String()},
	})

	return attempt, nil
}

// DispatchStatus resolves an attempt handle.
func (s *TicketService) DispatchStatus(attemptID uuid.UUID) (*dispatch.Attempt, bool) {
	return s.coordinator.Status(attemptID)
}

// CancelDispatch requests cancellation of an in-flight attempt. It takes
// effect between retry attempts.
func (s *TicketService) CancelDispatch(attemptID uuid.UUID) bool {
	attempt, ok := s.coordinator.Status(attemptID)
	if !ok {
		return false
	}
	attempt.Cancel()
	return true
}
