package models

import (
	"time"

	"github.com/google/uuid"
)

// Channel is an advertising platform destination (meta, tiktok, ...).
type Channel struct {
	ID            uuid.UUID `json:"id"`
	PlatformName  string    `json:"platform_name"`
	APIIdentifier string    `json:"api_identifier"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
