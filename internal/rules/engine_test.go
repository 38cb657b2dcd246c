package rules

import (
	"strings"
	"testing"

	"github.com/traffick-desk/backend/internal/models"
)

func testEngine() *Engine {
	denylists := map[string][]string{
		"meta":   {"6003139266461"},
		"tiktok": {"100002"},
	}
	return NewEngine(func(platform string) []string { return denylists[platform] })
}

func metaPayload() map[string]any {
	return map[string]any{
		"ad_account_id": "123",
		"objective":     "OUTCOME_TRAFFIC",
		"targeting": map[string]any{
			"geo_locations": map[string]any{"countries": []any{"US"}},
		},
	}
}

func tiktokPayload() map[string]any {
	return map[string]any{
		"advertiser_id":  "123",
		"objective_type": "TRAFFIC",
		"placements":     []any{"PLACEMENT_TIKTOK"},
		"location_ids":   []any{"6252001"},
	}
}

func fixtures(platformName string, payload map[string]any) (*models.Ticket, *models.Campaign, *models.Brand, *models.Channel) {
	ticket := &models.Ticket{RequestType: "campaign", Payload: payload, Status: models.TicketStatusPendingReview}
	campaign := &models.Campaign{Name: "DIS_US_META_2026_MoanaLaunch"}
	brand := &models.Brand{Name: "Disney+", InternalCode: "DIS"}
	channel := &models.Channel{PlatformName: platformName}
	return ticket, campaign, brand, channel
}

func TestEvaluateApproves(t *testing.T) {
	engine := testEngine()

	t.Run("meta", func(t *testing.T) {
		v := engine.Evaluate(fixtures("Meta", metaPayload()))
		if !v.Approved || v.Reason != "" {
			t.Fatalf("Evaluate() = %+v, want approved with empty reason", v)
		}
	})

	t.Run("tiktok", func(t *testing.T) {
		v := engine.Evaluate(fixtures("TikTok", tiktokPayload()))
		if !v.Approved {
			t.Fatalf("Evaluate() = %+v, want approved", v)
		}
	})
}

func TestTaxonomyRule(t *testing.T) {
	engine := testEngine()

	tests := []struct {
		name         string
		campaignName string
	}{
		{"free-form", "invalid-campaign-name"},
		{"lowercase", "dis_us_meta_2026_test"},
		{"missing year", "DIS_US_META_Test"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ticket, campaign, brand, channel := fixtures("Meta", metaPayload())
			campaign.Name = tt.campaignName
			v := engine.Evaluate(ticket, campaign, brand, channel)
			if v.Approved {
				t.Fatal("Evaluate() approved, want rejection")
			}
			if !strings.Contains(v.Reason, tt.campaignName) {
				t.Errorf("reason %q does not include the offending name %q", v.Reason, tt.campaignName)
			}
		})
	}
}

func TestBrandSafetyRule(t *testing.T) {
	engine := testEngine()

	blockedMeta := metaPayload()
	blockedMeta["targeting"].(map[string]any)["flexible_spec"] = []any{
		map[string]any{
			"interests": []any{
				map[string]any{"id": "6003139266461", "name": "Alcohol"},
			},
		},
	}

	t.Run("restricted brand with denylisted meta interest", func(t *testing.T) {
		ticket, campaign, brand, channel := fixtures("Meta", blockedMeta)
		brand.Restricted = true
		v := engine.Evaluate(ticket, campaign, brand, channel)
		if v.Approved {
			t.Fatal("Evaluate() approved, want rejection")
		}
		if !strings.Contains(v.Reason, "6003139266461") {
			t.Errorf("reason %q does not name the denylisted id", v.Reason)
		}
	})

	t.Run("unrestricted brand may target anything", func(t *testing.T) {
		ticket, campaign, brand, channel := fixtures("Meta", blockedMeta)
		brand.Restricted = false
		v := engine.Evaluate(ticket, campaign, brand, channel)
		if !v.Approved {
			t.Fatalf("Evaluate() = %+v, want approved", v)
		}
	})

	t.Run("restricted brand with denylisted tiktok category", func(t *testing.T) {
		payload := tiktokPayload()
		payload["interest_category_ids"] = []any{"100002"}
		ticket, campaign, brand, channel := fixtures("TikTok", payload)
		brand.Restricted = true
		v := engine.Evaluate(ticket, campaign, brand, channel)
		if v.Approved {
			t.Fatal("Evaluate() approved, want rejection")
		}
		if !strings.Contains(v.Reason, "100002") {
			t.Errorf("reason %q does not name the denylisted id", v.Reason)
		}
	})

	t.Run("numeric ids match string denylist entries", func(t *testing.T) {
		payload := tiktokPayload()
		payload["interest_category_ids"] = []any{float64(100002)}
		ticket, campaign, brand, channel := fixtures("TikTok", payload)
		brand.Restricted = true
		v := engine.Evaluate(ticket, campaign, brand, channel)
		if v.Approved {
			t.Fatal("Evaluate() approved, want rejection")
		}
	})

	t.Run("restricted brand with clean targeting passes", func(t *testing.T) {
		ticket, campaign, brand, channel := fixtures("Meta", metaPayload())
		brand.Restricted = true
		v := engine.Evaluate(ticket, campaign, brand, channel)
		if !v.Approved {
			t.Fatalf("Evaluate() = %+v, want approved", v)
		}
	})
}

func TestBudgetRule(t *testing.T) {
	engine := testEngine()

	tests := []struct {
		name       string
		field      string
		value      any
		approved   bool
		wantInside string
	}{
		{"daily at cap passes", "daily_budget", "100000", true, ""},
		{"daily just over cap fails", "daily_budget", "100000.01", false, "100,000"},
		{"daily string over cap fails", "daily_budget", "150000", false, "100,000"},
		{"daily numeric over cap fails", "daily_budget", float64(150000), false, "100,000"},
		{"lifetime within cap passes", "lifetime_budget", "500000.00", true, ""},
		{"lifetime over cap fails", "lifetime_budget", "1500000.00", false, "1,000,000"},
		{"lifetime at cap passes", "lifetime_budget", "1000000", true, ""},
		{"unparseable fails", "daily_budget", "lots", false, "daily_budget"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload := metaPayload()
			payload[tt.field] = tt.value
			ticket, campaign, brand, channel := fixtures("Meta", payload)
			v := engine.Evaluate(ticket, campaign, brand, channel)
			if v.Approved != tt.approved {
				t.Fatalf("Evaluate() = %+v, want approved=%v", v, tt.approved)
			}
			if tt.wantInside != "" && !strings.Contains(v.Reason, tt.wantInside) {
				t.Errorf("reason %q does not contain %q", v.Reason, tt.wantInside)
			}
		})
	}

	t.Run("tiktok budget field uses the daily cap", func(t *testing.T) {
		payload := tiktokPayload()
		payload["budget"] = "200000.00"
		ticket, campaign, brand, channel := fixtures("TikTok", payload)
		v := engine.Evaluate(ticket, campaign, brand, channel)
		if v.Approved {
			t.Fatal("Evaluate() approved, want rejection")
		}
		if !strings.Contains(v.Reason, "100,000") {
			t.Errorf("reason %q does not contain the cap", v.Reason)
		}
	})

	t.Run("no budget fields passes vacuously", func(t *testing.T) {
		ticket, campaign, brand, channel := fixtures("Meta", metaPayload())
		v := engine.Evaluate(ticket, campaign, brand, channel)
		if !v.Approved {
			t.Fatalf("Evaluate() = %+v, want approved", v)
		}
	})

	t.Run("first failing budget field wins", func(t *testing.T) {
		payload := metaPayload()
		payload["daily_budget"] = "150000"
		payload["lifetime_budget"] = "2000000"
		ticket, campaign, brand, channel := fixtures("Meta", payload)
		v := engine.Evaluate(ticket, campaign, brand, channel)
		if v.Approved {
			t.Fatal("Evaluate() approved, want rejection")
		}
		if !strings.Contains(v.Reason, "daily_budget") {
			t.Errorf("reason %q should report daily_budget, the first failing field", v.Reason)
		}
	})
}

func TestSchemaRule(t *testing.T) {
	engine := testEngine()

	tests := []struct {
		name       string
		platform   string
		payload    map[string]any
		wantInside string
	}{
		{
			name:     "meta missing ad_account_id",
			platform: "Meta",
			payload: map[string]any{
				"objective": "OUTCOME_TRAFFIC",
				"targeting": map[string]any{"geo_locations": map[string]any{"countries": []any{"US"}}},
			},
			wantInside: "ad_account_id",
		},
		{
			name:     "meta null field counts as missing",
			platform: "Meta",
			payload: map[string]any{
				"ad_account_id": nil,
				"objective":     "OUTCOME_TRAFFIC",
				"targeting":     map[string]any{"geo_locations": map[string]any{"countries": []any{"US"}}},
			},
			wantInside: "ad_account_id",
		},
		{
			name:     "meta missing geo locations",
			platform: "Meta",
			payload: map[string]any{
				"ad_account_id": "123",
				"objective":     "OUTCOME_TRAFFIC",
				"targeting":     map[string]any{},
			},
			wantInside: "geographic locations",
		},
		{
			name:     "tiktok missing placements",
			platform: "TikTok",
			payload: map[string]any{
				"advertiser_id":  "123",
				"objective_type": "TRAFFIC",
				"location_ids":   []any{"6252001"},
			},
			wantInside: "placements",
		},
		{
			name:     "tiktok missing location ids",
			platform: "TikTok",
			payload: map[string]any{
				"advertiser_id":  "123",
				"objective_type": "TRAFFIC",
				"placements":     []any{"PLACEMENT_TIKTOK"},
			},
			wantInside: "location_ids",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ticket, campaign, brand, channel := fixtures(tt.platform, tt.payload)
			v := engine.Evaluate(ticket, campaign, brand, channel)
			if v.Approved {
				t.Fatal("Evaluate() approved, want rejection")
			}
			if !strings.Contains(v.Reason, tt.wantInside) {
				t.Errorf("reason %q does not contain %q", v.Reason, tt.wantInside)
			}
		})
	}

	t.Run("unknown platform", func(t *testing.T) {
		ticket, campaign, brand, channel := fixtures("Snapchat", metaPayload())
		v := engine.Evaluate(ticket, campaign, brand, channel)
		if v.Approved {
			t.Fatal("Evaluate() approved, want rejection")
		}
		if !strings.Contains(v.Reason, "Snapchat") {
			t.Errorf("reason %q does not name the platform", v.Reason)
		}
	})
}

// An unsupported platform is a schema problem reported by rule 4; the
// platform-agnostic budget rule still gets to report first when both fail,
// and a restricted brand must not trip rule 2 without a platform spec.
func TestUnknownPlatformFailsAsSchemaRule(t *testing.T) {
	engine := testEngine()

	payload := metaPayload()
	payload["daily_budget"] = "150000"
	ticket, campaign, brand, channel := fixtures("Snapchat", payload)
	brand.Restricted = true

	v := engine.Evaluate(ticket, campaign, brand, channel)
	if v.Approved {
		t.Fatal("Evaluate() approved, want rejection")
	}
	if !strings.Contains(v.Reason, "100,000") {
		t.Errorf("reason %q should come from the budget rule, not the platform lookup", v.Reason)
	}
}

// A ticket failing both the taxonomy rule and the budget rule must report the
// taxonomy reason: checks run in fixed order and the first failure wins.
func TestFirstFailureWins(t *testing.T) {
	engine := testEngine()

	payload := metaPayload()
	payload["daily_budget"] = "150000" // would fail rule 3
	ticket, campaign, brand, channel := fixtures("Meta", payload)
	campaign.Name = "bad name" // fails rule 1

	v := engine.Evaluate(ticket, campaign, brand, channel)
	if v.Approved {
		t.Fatal("Evaluate() approved, want rejection")
	}
	if !strings.Contains(v.Reason, "taxonomy") {
		t.Errorf("reason %q should come from the taxonomy rule", v.Reason)
	}
	if strings.Contains(v.Reason, "100,000") {
		t.Errorf("reason %q leaked the budget rule; later rules must not run", v.Reason)
	}
}

// Evaluate never mutates its inputs; persistence is the caller's concern.
func TestEvaluateIsPure(t *testing.T) {
	engine := testEngine()

	ticket, campaign, brand, channel := fixtures("Meta", metaPayload())
	campaign.Name = "broken"
	before := ticket.Status

	_ = engine.Evaluate(ticket, campaign, brand, channel)

	if ticket.Status != before {
		t.Errorf("ticket status changed from %q to %q", before, ticket.Status)
	}
	if ticket.FailureReason != nil {
		t.Errorf("failure reason was set to %q", *ticket.FailureReason)
	}
}
