package platform

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/traffick-desk/backend/internal/config"
)

// TikTok Marketing API: campaigns are created against
// /open_api/v1.3/campaign/create/ and the response nests the id:
// {"code": 0, "data": {"campaign_id": "987654321"}}.
var tiktokSpec = Spec{
	Name:           "tiktok",
	RequiredFields: []string{"advertiser_id", "objective_type", "placements"},

	Encode: func(payload map[string]any, campaignName string) (map[string]any, error) {
		advertiserID := stringField(payload, "advertiser_id")
		if advertiserID == "" {
			return nil, errors.New("payload missing required field: advertiser_id")
		}
		objective := stringField(payload, "objective_type")
		if objective == "" {
			return nil, errors.New("payload missing required field: objective_type")
		}

		budgetMode := stringField(payload, "budget_mode")
		if budgetMode == "" {
			budgetMode = "BUDGET_MODE_INFINITE"
		}

		out := map[string]any{
			"advertiser_id":  advertiserID,
			"campaign_name":  campaignName,
			"objective_type": objective,
			"budget_mode":    budgetMode,
		}

		if budgetMode == "BUDGET_MODE_TOTAL" {
			if budget := stringField(payload, "budget"); budget != "" {
				f, err := strconv.ParseFloat(budget, 64)
				if err != nil {
					return nil, fmt.Errorf("invalid budget %q: %w", budget, err)
				}
				out["budget"] = f
			}
		}

		if industries, ok := payload["special_industries"]; ok {
			out["special_industries"] = industries
		}

		return out, nil
	},

	Endpoint: func(cfg *config.Config) (string, string, error) {
		if cfg.TikTokAccessToken == "" {
			return "", "", errors.New("tiktok credentials are not configured")
		}
		url := cfg.TikTokAPIBaseURL + "/open_api/v1.3/campaign/create/"
		return url, cfg.TikTokAccessToken, nil
	},

	ExtractExternalID: func(body []byte) (string, error) {
		var resp struct {
			Data struct {
				CampaignID string `json:"campaign_id"`
			} `json:"data"`
		}
		if err := json.Unmarshal(body, &resp); err != nil {
			return "", fmt.Errorf("malformed tiktok response: %w", err)
		}
		if resp.Data.CampaignID == "" {
			return "", errors.New("tiktok response missing data.campaign_id")
		}
		return resp.Data.CampaignID, nil
	},

	CheckGeo: func(payload map[string]any) error {
		locations, _ := payload["location_ids"].([]any)
		if len(locations) == 0 {
			return errors.New("payload must include location_ids for geographic targeting")
		}
		return nil
	},

	// Interest categories are a flat id list.
	TargetingIDs: func(payload map[string]any) []string {
		raw, _ := payload["interest_category_ids"].([]any)

		var ids []string
		for _, v := range raw {
			if id := valueString(v); id != "" {
				ids = append(ids, id)
			}
		}
		return ids
	},
}
