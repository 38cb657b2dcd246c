package platform

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/traffick-desk/backend/internal/config"
)

func TestLookup(t *testing.T) {
	for _, name := range []string{"meta", "Meta", "META", "tiktok", "TikTok"} {
		if _, err := Lookup(name); err != nil {
			t.Errorf("Lookup(%q) error = %v, want nil", name, err)
		}
	}

	_, err := Lookup("snapchat")
	if !errors.Is(err, ErrUnsupported) {
		t.Errorf("Lookup(snapchat) error = %v, want ErrUnsupported", err)
	}
}

func TestMetaEncode(t *testing.T) {
	spec, _ := Lookup("meta")

	payload := map[string]any{
		"ad_account_id": "act123",
		"objective":     "OUTCOME_TRAFFIC",
		"spend_cap":     "1500.50",
		"buying_type":   "AUCTION",
	}
	out, err := spec.Encode(payload, "DIS_US_META_2026_Launch")
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	if out["name"] != "DIS_US_META_2026_Launch" {
		t.Errorf("name = %v", out["name"])
	}
	if out["objective"] != "OUTCOME_TRAFFIC" {
		t.Errorf("objective = %v", out["objective"])
	}
	if out["status"] != "PAUSED" {
		t.Errorf("status = %v, campaigns must be created paused", out["status"])
	}
	if out["spend_cap"] != int64(150050) {
		t.Errorf("spend_cap = %v, want 150050 cents", out["spend_cap"])
	}
	if out["buying_type"] != "AUCTION" {
		t.Errorf("buying_type = %v", out["buying_type"])
	}
	if cats, ok := out["special_ad_categories"].([]any); !ok || len(cats) != 0 {
		t.Errorf("special_ad_categories = %v, want empty list default", out["special_ad_categories"])
	}
}

func TestMetaEncodeMissingObjective(t *testing.T) {
	spec, _ := Lookup("meta")
	_, err := spec.Encode(map[string]any{"ad_account_id": "act123"}, "X_Y_META_2026_A")
	if err == nil || !strings.Contains(err.Error(), "objective") {
		t.Fatalf("Encode() error = %v, want missing objective", err)
	}
}

func TestTikTokEncode(t *testing.T) {
	spec, _ := Lookup("tiktok")

	t.Run("total budget mode", func(t *testing.T) {
		out, err := spec.Encode(map[string]any{
			"advertiser_id":  "7001",
			"objective_type": "TRAFFIC",
			"budget_mode":    "BUDGET_MODE_TOTAL",
			"budget":         "5000",
		}, "NIK_DE_TIKTOK_2026_Promo")
		if err != nil {
			t.Fatalf("Encode() error = %v", err)
		}
		if out["campaign_name"] != "NIK_DE_TIKTOK_2026_Promo" {
			t.Errorf("campaign_name = %v", out["campaign_name"])
		}
		if out["budget_mode"] != "BUDGET_MODE_TOTAL" {
			t.Errorf("budget_mode = %v", out["budget_mode"])
		}
		if out["budget"] != float64(5000) {
			t.Errorf("budget = %v, want 5000", out["budget"])
		}
	})

	t.Run("defaults to infinite budget", func(t *testing.T) {
		out, err := spec.Encode(map[string]any{
			"advertiser_id":  "7001",
			"objective_type": "TRAFFIC",
		}, "NIK_DE_TIKTOK_2026_Promo")
		if err != nil {
			t.Fatalf("Encode() error = %v", err)
		}
		if out["budget_mode"] != "BUDGET_MODE_INFINITE" {
			t.Errorf("budget_mode = %v, want BUDGET_MODE_INFINITE", out["budget_mode"])
		}
		if _, ok := out["budget"]; ok {
			t.Error("budget present without BUDGET_MODE_TOTAL")
		}
	})

	t.Run("missing advertiser id", func(t *testing.T) {
		_, err := spec.Encode(map[string]any{"objective_type": "TRAFFIC"}, "N_D_TIKTOK_2026_P")
		if err == nil || !strings.Contains(err.Error(), "advertiser_id") {
			t.Fatalf("Encode() error = %v, want missing advertiser_id", err)
		}
	})
}

func TestEndpoint(t *testing.T) {
	full := &config.Config{
		MetaAdAccountID:   "42",
		MetaAccessToken:   "meta-token",
		MetaAPIBaseURL:    "https://graph.example.com/v18.0",
		TikTokAccessToken: "tiktok-token",
		TikTokAPIBaseURL:  "https://ads.example.com",
	}

	meta, _ := Lookup("meta")
	url, token, err := meta.Endpoint(full)
	if err != nil {
		t.Fatalf("meta Endpoint() error = %v", err)
	}
	if url != "https://graph.example.com/v18.0/act_42/campaigns" {
		t.Errorf("meta url = %s", url)
	}
	if token != "meta-token" {
		t.Errorf("meta token = %s", token)
	}

	tiktok, _ := Lookup("tiktok")
	url, token, err = tiktok.Endpoint(full)
	if err != nil {
		t.Fatalf("tiktok Endpoint() error = %v", err)
	}
	if url != "https://ads.example.com/open_api/v1.3/campaign/create/" {
		t.Errorf("tiktok url = %s", url)
	}
	if token != "tiktok-token" {
		t.Errorf("tiktok token = %s", token)
	}

	if _, _, err := meta.Endpoint(&config.Config{MetaAPIBaseURL: "x"}); err == nil {
		t.Error("meta Endpoint() with no credentials should fail")
	}
	if _, _, err := tiktok.Endpoint(&config.Config{TikTokAPIBaseURL: "x"}); err == nil {
		t.Error("tiktok Endpoint() with no token should fail")
	}
}

func TestExtractExternalID(t *testing.T) {
	meta, _ := Lookup("meta")
	tiktok, _ := Lookup("tiktok")

	tests := []struct {
		name    string
		spec    Spec
		body    string
		want    string
		wantErr bool
	}{
		{"meta id", meta, `{"id":"120211234567890"}`, "120211234567890", false},
		{"meta missing id", meta, `{"success":true}`, "", true},
		{"meta malformed", meta, `not json`, "", true},
		{"tiktok nested id", tiktok, `{"code":0,"data":{"campaign_id":"1789001122334455"}}`, "1789001122334455", false},
		{"tiktok missing id", tiktok, `{"code":0,"data":{}}`, "", true},
		{"tiktok malformed", tiktok, `<html>`, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.spec.ExtractExternalID([]byte(tt.body))
			if (err != nil) != tt.wantErr {
				t.Fatalf("ExtractExternalID() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ExtractExternalID() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCheckGeo(t *testing.T) {
	meta, _ := Lookup("meta")
	tiktok, _ := Lookup("tiktok")

	withGeo := map[string]any{
		"targeting": map[string]any{
			"geo_locations": map[string]any{"countries": []any{"US"}},
		},
	}
	if err := meta.CheckGeo(withGeo); err != nil {
		t.Errorf("meta CheckGeo() error = %v, want nil", err)
	}
	if err := meta.CheckGeo(map[string]any{"targeting": map[string]any{}}); err == nil {
		t.Error("meta CheckGeo() without geo_locations should fail")
	}
	if err := meta.CheckGeo(map[string]any{}); err == nil {
		t.Error("meta CheckGeo() without targeting should fail")
	}

	if err := tiktok.CheckGeo(map[string]any{"location_ids": []any{"6252001"}}); err != nil {
		t.Errorf("tiktok CheckGeo() error = %v, want nil", err)
	}
	if err := tiktok.CheckGeo(map[string]any{"location_ids": []any{}}); err == nil {
		t.Error("tiktok CheckGeo() with empty location_ids should fail")
	}
}

func TestTargetingIDs(t *testing.T) {
	meta, _ := Lookup("meta")
	got := meta.TargetingIDs(map[string]any{
		"targeting": map[string]any{
			"flexible_spec": []any{
				map[string]any{
					"interests": []any{
						map[string]any{"id": "6003139266461", "name": "Alcohol"},
						map[string]any{"id": float64(6003348604581), "name": "Beer"},
					},
				},
				map[string]any{
					"interests": []any{
						map[string]any{"id": "6004037027542"},
					},
				},
			},
		},
	})
	want := []string{"6003139266461", "6003348604581", "6004037027542"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("meta TargetingIDs() = %v, want %v", got, want)
	}

	tiktok, _ := Lookup("tiktok")
	got = tiktok.TargetingIDs(map[string]any{
		"interest_category_ids": []any{"100002", float64(100007)},
	})
	want = []string{"100002", "100007"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("tiktok TargetingIDs() = %v, want %v", got, want)
	}

	if ids := meta.TargetingIDs(map[string]any{}); len(ids) != 0 {
		t.Errorf("meta TargetingIDs() on empty payload = %v, want none", ids)
	}
}
