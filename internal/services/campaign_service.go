package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/traffick-desk/backend/internal/events"
	"github.com/traffick-desk/backend/internal/models"
	"github.com/traffick-desk/backend/internal/repositories"
	"github.com/traffick-desk/backend/internal/taxonomy"
)

type CampaignService struct {
	campaignRepo *repositories.CampaignRepo
	brandRepo    *repositories.BrandRepo
	marketRepo   *repositories.MarketRepo
	auditRepo    *repositories.AuditRepo
	publisher    events.Publisher
	log          *zap.Logger
}

func NewCampaignService(
	campaignRepo *repositories.CampaignRepo,
	brandRepo *repositories.BrandRepo,
	marketRepo *repositories.MarketRepo,
	auditRepo *repositories.AuditRepo,
	publisher events.Publisher,
	log *zap.Logger,
) *CampaignService {
	return &CampaignService{
		campaignRepo: campaignRepo,
		brandRepo:    brandRepo,
		marketRepo:   marketRepo,
		auditRepo:    auditRepo,
		publisher:    publisher,
		log:          log,
	}
}

// Create generates the campaign name from the taxonomy and persists the
// campaign. Names are unique: a collision surfaces as ErrDuplicateName so
// callers can pick a different label.
func (s *CampaignService) Create(ctx context.Context, brandID, marketID uuid.UUID, platform, label, budget string, year int) (*models.Campaign, error) {
	brand, err := s.brandRepo.GetByID(ctx, brandID)
	if err != nil {
		return nil, fmt.Errorf("brand: %w", err)
	}
	market, err := s.marketRepo.GetByID(ctx, marketID)
	if err != nil {
		return nil, fmt.Errorf("market: %w", err)
	}

	name, err := taxonomy.Generate(taxonomy.NamingSpec{
		BrandCode:  brand.InternalCode,
		MarketCode: market.Code,
		Platform:   platform,
		Year:       year,
		Label:      label,
	})
	if err != nil {
		return nil, err
	}

	campaign := &models.Campaign{
		Name:     name,
		BrandID:  brandID,
		MarketID: marketID,
		Budget:   budget,
		Status:   models.CampaignStatusDraft,
	}
	if err := s.campaignRepo.Create(ctx, campaign); err != nil {
		return nil, err
	}

	_ = s.auditRepo.Log(ctx, models.AuditLog{
		ActorType:  "user",
		Action:     "campaign_created",
		EntityType: "campaign",
		EntityID:   &campaign.ID,
		Meta:       map[string]any{"name": name},
	})

	_ = s.publisher.Publish(ctx, events.StreamCampaigns, events.Event{
		Type: events.EventCampaignCreated,
		Payload: map[string]any{
			"campaign_id": campaign.ID.String(),
			"name":        name,
		},
	})

	return campaign, nil
}

func (s *CampaignService) GetByID(ctx context.Context, id uuid.UUID) (*models.Campaign, error) {
	return s.campaignRepo.GetByID(ctx, id)
}

func (s *CampaignService) List(ctx context.Context, f repositories.CampaignFilter) ([]models.Campaign, error) {
	return s.campaignRepo.List(ctx, f)
}

func (s *CampaignService) UpdateBudget(ctx context.Context, id uuid.UUID, budget string) (*models.Campaign, error) {
	if err := s.campaignRepo.UpdateBudget(ctx, id, budget); err != nil {
		return nil, err
	}
	return s.campaignRepo.GetByID(ctx, id)
}

func (s *CampaignService) UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*models.Campaign, error) {
	switch status {
	case models.CampaignStatusDraft, models.CampaignStatusActive,
		models.CampaignStatusPaused, models.CampaignStatusCompleted:
	default:
		return nil, fmt.Errorf("invalid campaign status %q", status)
	}
	if err := s.campaignRepo.UpdateStatus(ctx, id, status); err != nil {
		return nil, err
	}
	return s.campaignRepo.GetByID(ctx, id)
}
