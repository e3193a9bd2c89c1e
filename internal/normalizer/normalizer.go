// Package normalizer coerces extraction drafts into the canonical,
// schema-checked output record. It fails closed: the only error it returns
// is a mandatory field that could not be established even after defaulting.
package normalizer

import (
	"math/rand/v2"
	"strings"
	"time"

	"github.com/frierosdesign/eventsync/internal/types"
)

// DefaultTimezone applies when neither the draft nor config names one.
const DefaultTimezone = "Europe/Madrid"

// Confidence cap applied when the start date had to be synthesized; a
// guessed date must never reach the high tier.
const defaultedDateCeiling = 0.6

// ValidationError reports the mandatory fields that remained missing after
// all defaulting.
type ValidationError struct {
	MissingFields []string
}

func (e *ValidationError) Error() string {
	return "missing mandatory fields: " + strings.Join(e.MissingFields, ", ")
}

// Normalizer applies schema defaults and computes the confidence tier.
type Normalizer struct {
	timezone string
	now      func() time.Time
}

// New creates a normalizer with the given default timezone.
func New(timezone string) *Normalizer {
	if timezone == "" {
		timezone = DefaultTimezone
	}
	return &Normalizer{timezone: timezone, now: time.Now}
}

// Normalize coerces the draft into canonical form. Warnings collect
// non-fatal gaps (missing location, missing description); Errors collect
// conditions that would have been fatal but were defaulted. Normalizing an
// already-canonical record is idempotent.
func (n *Normalizer) Normalize(draft types.ExtractionDraft, meta types.Metadata) (*types.CanonicalExtractedData, error) {
	warnings := append([]string{}, meta.Warnings...)
	errs := append([]string{}, meta.Errors...)

	draft.Title = strings.TrimSpace(draft.Title)
	if draft.Title == "" {
		return nil, &ValidationError{MissingFields: []string{"title"}}
	}

	confidence := clamp01(meta.Confidence)

	if !validDate(draft.DateTime.StartDate) {
		defaulted := n.now().AddDate(0, 0, 1+rand.IntN(14)).Format("2006-01-02")
		draft.DateTime.StartDate = defaulted
		errs = appendUnique(errs, "date_time.start_date missing; defaulted to "+defaulted)
		if confidence > defaultedDateCeiling {
			confidence = defaultedDateCeiling
		}
	}
	if !validDate(draft.DateTime.EndDate) {
		draft.DateTime.EndDate = ""
	}

	if draft.DateTime.Timezone == "" {
		draft.DateTime.Timezone = n.timezone
	}
	if draft.DateTime.StartTime == "" {
		draft.DateTime.AllDay = true
	}

	draft.Location = normalizeLocation(draft.Location)
	if draft.Location == nil {
		warnings = appendUnique(warnings, "missing location")
	}
	if strings.TrimSpace(draft.Description) == "" {
		warnings = appendUnique(warnings, "missing description")
	}

	if draft.EventType == "" {
		draft.EventType = types.EventTypeOther
	}
	if draft.Category == "" {
		draft.Category = types.CategoryOther
	}
	if draft.Price != nil && draft.Price.Tier == "" {
		if draft.Price.Amount == 0 {
			draft.Price.Tier = types.PriceFree
		} else {
			draft.Price.Tier = types.PricePaid
		}
	}

	if draft.Tags == nil {
		draft.Tags = []string{}
	}
	if draft.Hashtags == nil {
		draft.Hashtags = []string{}
	}
	if draft.Mentions == nil {
		draft.Mentions = []string{}
	}

	meta.Confidence = confidence
	meta.ConfidenceTier = types.TierFor(confidence)
	meta.Warnings = warnings
	meta.Errors = errs
	if meta.ExtractedAt.IsZero() {
		meta.ExtractedAt = n.now()
	}

	return &types.CanonicalExtractedData{
		ExtractionDraft: draft,
		Metadata:        meta,
	}, nil
}

// normalizeLocation always emits the structured form. A comma-joined
// free-text name is split into name and city; a missing display name is
// rebuilt from the available parts.
func normalizeLocation(loc *types.Location) *types.Location {
	if loc == nil {
		return nil
	}

	out := *loc
	out.Name = strings.TrimSpace(out.Name)

	if out.Name == "" && out.Address == "" && out.City == "" && out.Country == "" {
		return nil
	}

	if out.Address == "" && out.City == "" && strings.Contains(out.Name, ",") {
		parts := strings.SplitN(out.Name, ",", 2)
		out.Name = strings.TrimSpace(parts[0])
		out.City = strings.TrimSpace(parts[1])
	}

	if out.Name == "" {
		out.Name = joinParts(out.Address, out.City, out.Country)
	}

	return &out
}

func joinParts(parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, ", ")
}

func validDate(s string) bool {
	if s == "" {
		return false
	}
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}

func appendUnique(list []string, item string) []string {
	for _, existing := range list {
		if existing == item {
			return list
		}
	}
	return append(list, item)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
