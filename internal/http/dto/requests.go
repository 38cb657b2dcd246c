package dto

type CreateBrandRequest struct {
	Name         string `json:"name"`
	InternalCode string `json:"internal_code"`
	Restricted   bool   `json:"restricted"`
}

type SetBrandRestrictedRequest struct {
	Restricted bool `json:"restricted"`
}

type CreateMarketRequest struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

type CreateChannelRequest struct {
	PlatformName  string `json:"platform_name"`
	APIIdentifier string `json:"api_identifier"`
}

// Campaigns

type CreateCampaignRequest struct {
	BrandID  string `json:"brand_id"`
	MarketID string `json:"market_id"`
	Platform string `json:"platform"`
	Label    string `json:"label"`
	Budget   string `json:"budget"`
	Year     int    `json:"year,omitempty"` // defaults to current year
}

type UpdateCampaignRequest struct {
	Budget *string `json:"budget,omitempty"`
	Status *string `json:"status,omitempty"`
}

type PreviewNameRequest struct {
	BrandCode  string `json:"brand_code"`
	MarketCode string `json:"market_code"`
	Platform   string `json:"platform"`
	Year       int    `json:"year,omitempty"`
	Label      string `json:"label"`
}

// Tickets

type CreateTicketRequest struct {
	CampaignID  string         `json:"campaign_id"`
	ChannelID   string         `json:"channel_id"`
	RequestType string         `json:"request_type"` // campaign / adset / ad
	Payload     map[string]any `json:"payload"`
}

type UpdateTicketPayloadRequest struct {
	Payload map[string]any `json:"payload"`
}
