// Package platform holds the per-platform lookup table the pipeline dispatches
// through: payload encoding, endpoint resolution, external-id extraction, and
// the payload-shape knowledge the rule engine needs. Platforms are plain data
// plus pure functions; adding one is a single registry entry.
package platform

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/traffick-desk/backend/internal/config"
)

var ErrUnsupported = errors.New("unsupported platform")

// Spec describes one advertising platform.
type Spec struct {
	// Name is the canonical lowercase platform key.
	Name string

	// RequiredFields are the payload keys that must be present and non-null,
	// checked in declared order.
	RequiredFields []string

	// Encode builds the campaign-creation payload for the platform API from
	// the ticket payload and the taxonomy campaign name. Encode failures are
	// malformed ticket state and are never retried.
	Encode func(payload map[string]any, campaignName string) (map[string]any, error)

	// Endpoint resolves the API URL and bearer token from configuration.
	Endpoint func(cfg *config.Config) (url, token string, err error)

	// ExtractExternalID pulls the platform-assigned id out of a successful
	// response body; each platform has its own envelope.
	ExtractExternalID func(body []byte) (string, error)

	// CheckGeo verifies that geo-targeting is present in the platform's
	// shape. A nil return means the payload targets at least one location.
	CheckGeo func(payload map[string]any) error

	// TargetingIDs collects every targeting-category id referenced by the
	// payload, used for denylist matching on restricted brands.
	TargetingIDs func(payload map[string]any) []string
}

var registry = map[string]Spec{
	"meta":   metaSpec,
	"tiktok": tiktokSpec,
}

// Lookup resolves a platform by its channel platform name, case-insensitively.
func Lookup(platformName string) (Spec, error) {
	spec, ok := registry[strings.ToLower(platformName)]
	if !ok {
		return Spec{}, fmt.Errorf("%w: %s", ErrUnsupported, platformName)
	}
	return spec, nil
}

func stringField(payload map[string]any, key string) string {
	return valueString(payload[key])
}

// valueString renders scalar JSON values as strings; ids arrive as either
// strings or numbers depending on how the payload was authored.
func valueString(v any) string {
	switch v := v.(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	default:
		return ""
	}
}
