package events

import "context"

// Event types
const (
	EventTicketStatusChanged = "ticket_status_changed"
	EventTicketDispatched    = "ticket_dispatched"
	EventCampaignCreated     = "campaign_created"
)

// Streams
const (
	StreamTickets   = "events:tickets"
	StreamCampaigns = "events:campaigns"
)

type Event struct {
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload"`
}

type Publisher interface {
	Publish(ctx context.Context, stream string, event Event) error
}

type Subscriber interface {
	Subscribe(ctx context.Context, stream string, handler func(Event)) error
}
