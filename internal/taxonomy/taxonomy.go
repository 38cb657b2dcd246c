// Package taxonomy generates and validates standardized campaign names.
//
// The naming rule is [BrandCode]_[MarketCode]_[ChannelPlatform]_[Year]_[Label],
// e.g. DIS_US_META_2026_MoanaLaunch. The label segment carries no internal
// separators; everything non-alphanumeric is stripped from it, so a generated
// name always splits into exactly five segments.
package taxonomy

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

var (
	codePattern = regexp.MustCompile(`^[A-Z0-9]+$`)
	namePattern = regexp.MustCompile(`^[A-Z0-9]+_[A-Z0-9]+_[A-Z0-9]+_\d{4}_[A-Za-z0-9]+$`)
	nonAlnum    = regexp.MustCompile(`[^A-Za-z0-9]`)
)

// NamingSpec is the categorical input for name generation. Year zero means
// the current calendar year.
type NamingSpec struct {
	BrandCode  string
	MarketCode string
	Platform   string
	Year       int
	Label      string
}

// InvalidCodeError reports a categorical code that is not strictly
// alphanumeric after uppercasing.
type InvalidCodeError struct {
	Field string
	Code  string
}

func (e *InvalidCodeError) Error() string {
	return fmt.Sprintf("invalid %s %q: must contain only letters and digits", e.Field, e.Code)
}

// Generate builds the taxonomy name from spec. Codes are uppercased and must
// match ^[A-Z0-9]+$; the label is reduced to its alphanumeric characters and
// must not end up empty.
func Generate(spec NamingSpec) (string, error) {
	brand := strings.ToUpper(spec.BrandCode)
	market := strings.ToUpper(spec.MarketCode)
	platform := strings.ToUpper(spec.Platform)

	if !codePattern.MatchString(brand) {
		return "", &InvalidCodeError{Field: "brand_code", Code: spec.BrandCode}
	}
	if !codePattern.MatchString(market) {
		return "", &InvalidCodeError{Field: "market_code", Code: spec.MarketCode}
	}
	if !codePattern.MatchString(platform) {
		return "", &InvalidCodeError{Field: "platform", Code: spec.Platform}
	}

	label := nonAlnum.ReplaceAllString(spec.Label, "")
	if label == "" {
		return "", fmt.Errorf("campaign label must contain at least one alphanumeric character")
	}

	year := spec.Year
	if year == 0 {
		year = time.Now().Year()
	}
	// The year segment is exactly four digits; anything outside that range
	// would produce a name that fails Validate.
	if year < 1000 || year > 9999 {
		return "", fmt.Errorf("campaign year %d is out of range (want a 4-digit year)", year)
	}

	return fmt.Sprintf("%s_%s_%s_%04d_%s", brand, market, platform, year, label), nil
}

// Validate reports whether name matches the generated structure: five
// underscore-joined segments, the first three uppercase alphanumeric, the
// fourth a 4-digit year, the fifth alphanumeric.
func Validate(name string) bool {
	return namePattern.MatchString(name)
}
