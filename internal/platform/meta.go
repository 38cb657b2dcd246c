package platform

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/traffick-desk/backend/internal/config"
)

// Meta Graph API: campaigns are created against
// /act_{ad_account_id}/campaigns and the response carries the new id at the
// top level: {"id": "123456789"}.
var metaSpec = Spec{
	Name:           "meta",
	RequiredFields: []string{"ad_account_id", "objective", "targeting"},

	Encode: func(payload map[string]any, campaignName string) (map[string]any, error) {
		objective := stringField(payload, "objective")
		if objective == "" {
			return nil, errors.New("payload missing required field: objective")
		}

		out := map[string]any{
			"name":      campaignName,
			"objective": objective,
			"status":    "PAUSED", // always create paused
		}

		if cats, ok := payload["special_ad_categories"]; ok {
			out["special_ad_categories"] = cats
		} else {
			out["special_ad_categories"] = []any{}
		}

		if cap := stringField(payload, "spend_cap"); cap != "" {
			f, err := strconv.ParseFloat(cap, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid spend_cap %q: %w", cap, err)
			}
			out["spend_cap"] = int64(f * 100) // cents
		}

		if bt := stringField(payload, "buying_type"); bt != "" {
			out["buying_type"] = bt
		}

		return out, nil
	},

	Endpoint: func(cfg *config.Config) (string, string, error) {
		if cfg.MetaAdAccountID == "" || cfg.MetaAccessToken == "" {
			return "", "", errors.New("meta credentials are not configured")
		}
		url := fmt.Sprintf("%s/act_%s/campaigns", cfg.MetaAPIBaseURL, cfg.MetaAdAccountID)
		return url, cfg.MetaAccessToken, nil
	},

	ExtractExternalID: func(body []byte) (string, error) {
		var resp struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(body, &resp); err != nil {
			return "", fmt.Errorf("malformed meta response: %w", err)
		}
		if resp.ID == "" {
			return "", errors.New("meta response missing campaign id")
		}
		return resp.ID, nil
	},

	CheckGeo: func(payload map[string]any) error {
		targeting, _ := payload["targeting"].(map[string]any)
		geo, _ := targeting["geo_locations"].(map[string]any)
		if len(geo) == 0 {
			return errors.New("targeting must specify geographic locations (targeting.geo_locations)")
		}
		return nil
	},

	// Interests live under targeting.flexible_spec[].interests[].id.
	TargetingIDs: func(payload map[string]any) []string {
		targeting, _ := payload["targeting"].(map[string]any)
		specs, _ := targeting["flexible_spec"].([]any)

		var ids []string
		for _, s := range specs {
			spec, _ := s.(map[string]any)
			interests, _ := spec["interests"].([]any)
			for _, i := range interests {
				interest, _ := i.(map[string]any)
				if id := stringField(interest, "id"); id != "" {
					ids = append(ids, id)
				}
			}
		}
		return ids
	},
}
