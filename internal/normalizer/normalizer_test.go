package normalizer

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/frierosdesign/eventsync/internal/types"
)

func testNormalizer() *Normalizer {
	n := New("Europe/Madrid")
	n.now = func() time.Time {
		return time.Date(2026, time.August, 31, 12, 0, 0, 0, time.UTC)
	}
	return n
}

func TestNormalizeMissingTitle(t *testing.T) {
	n := testNormalizer()

	_, err := n.Normalize(types.ExtractionDraft{}, types.Metadata{})
	if err == nil {
		t.Fatal("expected error for missing title")
	}

	verr, ok := err.(*ValidationError)
	if !ok {
		t.Fatalf("error type = %T, want *ValidationError", err)
	}
	if !reflect.DeepEqual(verr.MissingFields, []string{"title"}) {
		t.Errorf("MissingFields = %v, want [title]", verr.MissingFields)
	}
}

func TestNormalizeDefaultsMissingDate(t *testing.T) {
	n := testNormalizer()

	draft := types.ExtractionDraft{Title: "Jazz Night"}
	out, err := n.Normalize(draft, types.Metadata{Confidence: 0.9})
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}

	start, perr := time.Parse("2006-01-02", out.DateTime.StartDate)
	if perr != nil {
		t.Fatalf("defaulted StartDate %q does not parse: %v", out.DateTime.StartDate, perr)
	}
	now := n.now()
	if start.Before(now.AddDate(0, 0, 1)) || start.After(now.AddDate(0, 0, 14)) {
		t.Errorf("defaulted StartDate %s outside 1-14 day window", out.DateTime.StartDate)
	}

	if len(out.Metadata.Errors) == 0 || !strings.Contains(out.Metadata.Errors[0], "defaulted") {
		t.Errorf("Errors = %v, want a defaulting record", out.Metadata.Errors)
	}
	if out.Metadata.Confidence > 0.6 {
		t.Errorf("Confidence = %v, want capped at 0.6 after date defaulting", out.Metadata.Confidence)
	}
}

func TestNormalizeFillsDefaults(t *testing.T) {
	n := testNormalizer()

	draft := types.ExtractionDraft{
		Title:    "Jazz Night",
		DateTime: types.DateTimeInfo{StartDate: "2026-07-26"},
	}
	out, err := n.Normalize(draft, types.Metadata{Confidence: 0.8})
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}

	if out.DateTime.Timezone != "Europe/Madrid" {
		t.Errorf("Timezone = %q, want Europe/Madrid", out.DateTime.Timezone)
	}
	if !out.DateTime.AllDay {
		t.Error("AllDay = false with no start time")
	}
	if out.EventType != types.EventTypeOther || out.Category != types.CategoryOther {
		t.Errorf("type/category = %s/%s, want other/other", out.EventType, out.Category)
	}
	if out.Tags == nil || out.Hashtags == nil || out.Mentions == nil {
		t.Error("array fields should default to empty, not nil")
	}
	if out.Metadata.ConfidenceTier != types.TierHigh {
		t.Errorf("ConfidenceTier = %q, want high for 0.8", out.Metadata.ConfidenceTier)
	}

	wantWarnings := []string{"missing location", "missing description"}
	if !reflect.DeepEqual(out.Metadata.Warnings, wantWarnings) {
		t.Errorf("Warnings = %v, want %v", out.Metadata.Warnings, wantWarnings)
	}
}

func TestNormalizePriceTier(t *testing.T) {
	n := testNormalizer()

	tests := []struct {
		name  string
		price *types.Price
		want  types.PriceTier
		isNil bool
	}{
		{"free at zero", &types.Price{Amount: 0, Currency: "EUR"}, types.PriceFree, false},
		{"paid", &types.Price{Amount: 15, Currency: "EUR"}, types.PricePaid, false},
		{"existing tier kept", &types.Price{Amount: 0, Tier: types.PriceUnknown}, types.PriceUnknown, false},
		{"no price stays absent", nil, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			draft := types.ExtractionDraft{
				Title:    "Jazz Night",
				DateTime: types.DateTimeInfo{StartDate: "2026-07-26"},
				Price:    tt.price,
			}
			out, err := n.Normalize(draft, types.Metadata{Confidence: 0.8})
			if err != nil {
				t.Fatalf("Normalize failed: %v", err)
			}
			if tt.isNil {
				if out.Price != nil {
					t.Errorf("Price = %+v, want nil", out.Price)
				}
				return
			}
			if out.Price.Tier != tt.want {
				t.Errorf("Tier = %q, want %q", out.Price.Tier, tt.want)
			}
		})
	}
}

func TestNormalizeLocation(t *testing.T) {
	tests := []struct {
		name string
		in   *types.Location
		want *types.Location
	}{
		{
			name: "nil passes through",
			in:   nil,
			want: nil,
		},
		{
			name: "free text split into name and city",
			in:   &types.Location{Name: "Jazz Club, Barcelona"},
			want: &types.Location{Name: "Jazz Club", City: "Barcelona"},
		},
		{
			name: "structured form untouched",
			in:   &types.Location{Name: "Jazz Club", City: "Barcelona"},
			want: &types.Location{Name: "Jazz Club", City: "Barcelona"},
		},
		{
			name: "display name rebuilt from parts",
			in:   &types.Location{City: "Madrid", Country: "Spain"},
			want: &types.Location{Name: "Madrid, Spain", City: "Madrid", Country: "Spain"},
		},
		{
			name: "all empty collapses to nil",
			in:   &types.Location{},
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := normalizeLocation(tt.in)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("normalizeLocation(%+v) = %+v, want %+v", tt.in, got, tt.want)
			}
			// A second pass must not change the result.
			if again := normalizeLocation(got); !reflect.DeepEqual(again, got) {
				t.Errorf("second pass changed result: %+v vs %+v", again, got)
			}
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	n := testNormalizer()

	draft := types.ExtractionDraft{
		Title:    "Open Air Festival",
		DateTime: types.DateTimeInfo{StartDate: "2026-08-15", StartTime: "16:00"},
		Location: &types.Location{Name: "Parc del Fòrum, Barcelona"},
		Hashtags: []string{"#festival"},
	}
	first, err := n.Normalize(draft, types.Metadata{Confidence: 0.75})
	if err != nil {
		t.Fatalf("first Normalize failed: %v", err)
	}

	second, err := n.Normalize(first.ExtractionDraft, first.Metadata)
	if err != nil {
		t.Fatalf("second Normalize failed: %v", err)
	}

	if !reflect.DeepEqual(first.ExtractionDraft, second.ExtractionDraft) {
		t.Errorf("draft changed on second pass:\nfirst:  %+v\nsecond: %+v", first.ExtractionDraft, second.ExtractionDraft)
	}
	if first.Metadata.Confidence != second.Metadata.Confidence ||
		first.Metadata.ConfidenceTier != second.Metadata.ConfidenceTier {
		t.Errorf("confidence changed on second pass: %v/%s vs %v/%s",
			first.Metadata.Confidence, first.Metadata.ConfidenceTier,
			second.Metadata.Confidence, second.Metadata.ConfidenceTier)
	}
	if !reflect.DeepEqual(first.Metadata.Warnings, second.Metadata.Warnings) {
		t.Errorf("warnings changed on second pass: %v vs %v", first.Metadata.Warnings, second.Metadata.Warnings)
	}
	if !reflect.DeepEqual(first.Metadata.Errors, second.Metadata.Errors) {
		t.Errorf("errors changed on second pass: %v vs %v", first.Metadata.Errors, second.Metadata.Errors)
	}
}
