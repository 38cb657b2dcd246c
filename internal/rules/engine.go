// Package rules is the pre-flight gate a ticket must pass before dispatch.
// Evaluate is a pure function: it never mutates the ticket and never touches
// storage, so callers can run it as a dry-run preview and unit tests need no
// fixtures beyond the structs. Checks run in a fixed order and the first
// failure wins; later checks never run once one has failed.
package rules

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/traffick-desk/backend/internal/models"
	"github.com/traffick-desk/backend/internal/platform"
	"github.com/traffick-desk/backend/internal/taxonomy"
)

// Budget ceilings, in account currency units. Boundary inclusive: a budget
// exactly at the cap passes.
var (
	maxDailyBudget    = decimal.NewFromInt(100_000)
	maxLifetimeBudget = decimal.NewFromInt(1_000_000)
)

const (
	maxDailyBudgetLabel    = "100,000"
	maxLifetimeBudgetLabel = "1,000,000"
)

// budgetChecks is the fixed evaluation order for rule 3. "budget" is the
// daily-equivalent field on the tiktok payload schema.
var budgetChecks = []struct {
	field    string
	cap      decimal.Decimal
	capLabel string
}{
	{"daily_budget", maxDailyBudget, maxDailyBudgetLabel},
	{"budget", maxDailyBudget, maxDailyBudgetLabel},
	{"lifetime_budget", maxLifetimeBudget, maxLifetimeBudgetLabel},
}

// Verdict is the outcome of a review pass. Reason is empty when approved.
type Verdict struct {
	Approved bool   `json:"approved"`
	Reason   string `json:"reason,omitempty"`
}

// Engine evaluates tickets against the review rules. The denylist source is
// injected so the engine itself stays configuration-free and pure.
type Engine struct {
	denylist func(platform string) []string
}

func NewEngine(denylist func(platform string) []string) *Engine {
	return &Engine{denylist: denylist}
}

func fail(reason string) Verdict { return Verdict{Approved: false, Reason: reason} }

// Evaluate runs the rules in order: taxonomy, brand safety, budget ceilings,
// schema completeness. It persists nothing; the caller owns the resulting
// status transition.
func (e *Engine) Evaluate(ticket *models.Ticket, campaign *models.Campaign, brand *models.Brand, channel *models.Channel) Verdict {
	// Rule 1: campaign name must match the taxonomy pattern.
	if !taxonomy.Validate(campaign.Name) {
		return fail(fmt.Sprintf("campaign name %q does not match taxonomy pattern", campaign.Name))
	}

	// An unknown platform is a schema failure and is reported by rule 4, so
	// the platform-agnostic rules still run first. Rule 2 only needs the
	// spec when the brand is restricted and the platform is known.
	spec, lookupErr := platform.Lookup(channel.PlatformName)

	// Rule 2: restricted brands may not target denylisted categories.
	if brand.Restricted && lookupErr == nil {
		if id := firstDenylisted(spec.TargetingIDs(ticket.Payload), e.denylist(spec.Name)); id != "" {
			return fail(fmt.Sprintf("restricted brand %q cannot target denylisted category %s", brand.Name, id))
		}
	}

	// Rule 3: budget ceilings. Absent fields are not evaluated; values may
	// arrive as strings or numbers and are parsed with exact decimal
	// semantics.
	for _, check := range budgetChecks {
		raw, ok := ticket.Payload[check.field]
		if !ok || raw == nil {
			continue
		}
		amount, err := parseAmount(raw)
		if err != nil {
			return fail(fmt.Sprintf("%s is not a valid amount: %v", check.field, err))
		}
		if amount.GreaterThan(check.cap) {
			return fail(fmt.Sprintf("%s %s exceeds maximum allowed %s", check.field, amount.String(), check.capLabel))
		}
	}

	// Rule 4: schema completeness. Required keys in declared order, then the
	// platform-appropriate geo-targeting shape.
	if lookupErr != nil {
		return fail(fmt.Sprintf("unsupported platform %q", channel.PlatformName))
	}
	for _, field := range spec.RequiredFields {
		if v, ok := ticket.Payload[field]; !ok || v == nil {
			return fail(fmt.Sprintf("payload missing required field: %s", field))
		}
	}
	if err := spec.CheckGeo(ticket.Payload); err != nil {
		return fail(err.Error())
	}

	return Verdict{Approved: true}
}

// firstDenylisted returns the first targeting id present in the denylist,
// matching exactly but case-insensitively for alphanumeric ids.
func firstDenylisted(ids, denylist []string) string {
	if len(ids) == 0 || len(denylist) == 0 {
		return ""
	}
	blocked := make(map[string]struct{}, len(denylist))
	for _, d := range denylist {
		blocked[strings.ToLower(d)] = struct{}{}
	}
	for _, id := range ids {
		if _, ok := blocked[strings.ToLower(id)]; ok {
			return id
		}
	}
	return ""
}

func parseAmount(v any) (decimal.Decimal, error) {
	switch v := v.(type) {
	case string:
		return decimal.NewFromString(v)
	case json.Number:
		return decimal.NewFromString(v.String())
	case float64:
		return decimal.NewFromFloat(v), nil
	case int:
		return decimal.NewFromInt(int64(v)), nil
	case int64:
		return decimal.NewFromInt(v), nil
	default:
		return decimal.Decimal{}, fmt.Errorf("unsupported type %T", v)
	}
}
