package models

import (
	"time"

	"github.com/google/uuid"
)

// Campaign statuses
const (
	CampaignStatusDraft     = "draft"
	CampaignStatusActive    = "active"
	CampaignStatusPaused    = "paused"
	CampaignStatusCompleted = "completed"
)

// Campaign groups tickets under one taxonomy-generated name. The name is
// immutable after creation; only budget and status may be updated.
type Campaign struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	BrandID   uuid.UUID `json:"brand_id"`
	MarketID  uuid.UUID `json:"market_id"`
	Budget    string    `json:"budget"` // numeric as string
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Brand struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	InternalCode string    `json:"internal_code"`
	// Restricted brands may not target denylisted categories. Sourced from
	// brand metadata, never inferred from the display name.
	Restricted bool      `json:"restricted"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type Market struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Code      string    `json:"code"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
