package taxonomy

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestGenerate(t *testing.T) {
	tests := []struct {
		name string
		spec NamingSpec
		want string
	}{
		{
			name: "basic",
			spec: NamingSpec{BrandCode: "DIS", MarketCode: "US", Platform: "META", Year: 2026, Label: "MoanaLaunch"},
			want: "DIS_US_META_2026_MoanaLaunch",
		},
		{
			name: "codes uppercased",
			spec: NamingSpec{BrandCode: "dis", MarketCode: "us", Platform: "tiktok", Year: 2026, Label: "Test"},
			want: "DIS_US_TIKTOK_2026_Test",
		},
		{
			name: "label stripped of separators",
			spec: NamingSpec{BrandCode: "DIS", MarketCode: "US", Platform: "META", Year: 2026, Label: "Moana Launch: Q2!"},
			want: "DIS_US_META_2026_MoanaLaunchQ2",
		},
		{
			name: "underscores in label removed",
			spec: NamingSpec{BrandCode: "ACME", MarketCode: "DE", Platform: "META", Year: 2025, Label: "spring_sale"},
			want: "ACME_DE_META_2025_springsale",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Generate(tt.spec)
			if err != nil {
				t.Fatalf("Generate() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Generate() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGenerateInvalidCodes(t *testing.T) {
	tests := []struct {
		name string
		spec NamingSpec
	}{
		{"brand with dash", NamingSpec{BrandCode: "DIS-1", MarketCode: "US", Platform: "META", Label: "X"}},
		{"brand with underscore", NamingSpec{BrandCode: "DIS_KIDS", MarketCode: "US", Platform: "META", Label: "X"}},
		{"empty market", NamingSpec{BrandCode: "DIS", MarketCode: "", Platform: "META", Label: "X"}},
		{"platform with space", NamingSpec{BrandCode: "DIS", MarketCode: "US", Platform: "ME TA", Label: "X"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Generate(tt.spec)
			var codeErr *InvalidCodeError
			if !errors.As(err, &codeErr) {
				t.Fatalf("Generate() error = %v, want *InvalidCodeError", err)
			}
		})
	}
}

func TestGenerateEmptyLabel(t *testing.T) {
	_, err := Generate(NamingSpec{BrandCode: "DIS", MarketCode: "US", Platform: "META", Label: "!!! ---"})
	if err == nil {
		t.Fatal("Generate() expected error for label with no alphanumerics")
	}
}

func TestGenerateYearDefaultsToCurrent(t *testing.T) {
	got, err := Generate(NamingSpec{BrandCode: "DIS", MarketCode: "US", Platform: "META", Label: "Test"})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	want := fmt.Sprintf("DIS_US_META_%d_Test", time.Now().Year())
	if got != want {
		t.Errorf("Generate() = %q, want %q", got, want)
	}
}

// Years outside four digits would render as a fifth digit or a minus sign
// and break the Generate/Validate round trip, so Generate rejects them.
func TestGenerateYearOutOfRange(t *testing.T) {
	tests := []struct {
		name string
		year int
	}{
		{"five digits", 10000},
		{"negative", -5},
		{"three digits", 999},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Generate(NamingSpec{BrandCode: "DIS", MarketCode: "US", Platform: "META", Year: tt.year, Label: "Test"})
			if err == nil {
				t.Fatalf("Generate() accepted year %d", tt.year)
			}
		})
	}
}

// Every name Generate produces must pass Validate: the two functions share
// the structural pattern.
func TestGenerateValidateRoundTrip(t *testing.T) {
	specs := []NamingSpec{
		{BrandCode: "DIS", MarketCode: "US", Platform: "META", Year: 2026, Label: "MoanaLaunch"},
		{BrandCode: "acme", MarketCode: "de", Platform: "tiktok", Year: 2025, Label: "Spring Sale 2025!"},
		{BrandCode: "B2", MarketCode: "GB", Platform: "META", Year: 1999, Label: "x"},
		{BrandCode: "LONGBRANDCODE", MarketCode: "APAC", Platform: "TIKTOK", Year: 2030, Label: "promo-q4_final"},
		{BrandCode: "N1", MarketCode: "FR", Platform: "META", Label: "NoYearGiven"},
	}

	for _, spec := range specs {
		name, err := Generate(spec)
		if err != nil {
			t.Fatalf("Generate(%+v) error = %v", spec, err)
		}
		if !Validate(name) {
			t.Errorf("Validate(%q) = false, want true", name)
		}
		// The label segment must be purely alphanumeric.
		segments := strings.Split(name, "_")
		if len(segments) != 5 {
			t.Fatalf("Generate(%+v) = %q, want 5 segments", spec, name)
		}
		for _, r := range segments[4] {
			if !((r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')) {
				t.Errorf("label segment %q contains non-alphanumeric %q", segments[4], r)
			}
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"valid", "DIS_US_META_2026_MoanaLaunch", true},
		{"lowercase label ok", "DIS_US_META_2026_moanalaunch", true},
		{"lowercase codes", "dis_us_meta_2026_test", false},
		{"free-form", "invalid-campaign-name", false},
		{"missing segment", "DIS_US_2026_Test", false},
		{"two-digit year", "DIS_US_META_26_Test", false},
		{"six segments", "DIS_US_META_2026_Test_Extra", false},
		{"empty label", "DIS_US_META_2026_", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Validate(tt.input); got != tt.want {
				t.Errorf("Validate(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
