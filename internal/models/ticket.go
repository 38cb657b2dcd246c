package models

import (
	"time"

	"github.com/google/uuid"
)

// Ticket statuses
const (
	TicketStatusDraft               = "draft"
	TicketStatusPendingReview       = "pending_review"
	TicketStatusReviewFailed        = "review_failed"
	TicketStatusApprovedForDispatch = "approved_for_dispatch"
	TicketStatusDispatchSucceeded   = "dispatch_succeeded"
	TicketStatusDispatchFailed      = "dispatch_failed"
)

// Valid state transitions: from -> []to
var ValidTicketTransitions = map[string][]string{
	TicketStatusDraft:               {TicketStatusPendingReview},
	TicketStatusPendingReview:       {TicketStatusReviewFailed, TicketStatusApprovedForDispatch},
	TicketStatusReviewFailed:        {TicketStatusPendingReview},
	TicketStatusApprovedForDispatch: {TicketStatusDispatchSucceeded, TicketStatusDispatchFailed},
	TicketStatusDispatchSucceeded:   {},
	TicketStatusDispatchFailed:      {TicketStatusPendingReview},
}

func IsValidTransition(from, to string) bool {
	allowed, ok := ValidTicketTransitions[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

type Ticket struct {
	ID                 uuid.UUID      `json:"id"`
	CampaignID         uuid.UUID      `json:"campaign_id"`
	ChannelID          uuid.UUID      `json:"channel_id"`
	RequestType        string         `json:"request_type"` // campaign / adset / ad
	Payload            map[string]any `json:"payload"`
	Status             string         `json:"status"`
	ExternalPlatformID *string        `json:"external_platform_id,omitempty"`
	FailureReason      *string        `json:"failure_reason,omitempty"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
}

// TicketContext joins the ticket with the rows the rule engine and the
// dispatch coordinator need, avoiding N+1 lookups.
type TicketContext struct {
	Ticket
	CampaignName string `json:"campaign_name"`
	PlatformName string `json:"platform_name"`
	BrandName    string `json:"brand_name"`
	Restricted   bool   `json:"restricted"`
}
