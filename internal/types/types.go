// Package types defines the data model shared across the extraction pipeline:
// the ephemeral PostContent produced by acquisition, the ExtractionDraft
// produced by inference, and the CanonicalExtractedData handed to consumers.
package types

import "time"

// Source tags whether content came from a real page load or from the
// synthetic fallback generator. It is carried through to the canonical
// metadata so consumers can tell placeholders from genuine extractions.
type Source string

const (
	SourceReal      Source = "real"
	SourceSynthetic Source = "synthetic"
)

// ExtractionMethod records which extraction path produced a draft.
type ExtractionMethod string

const (
	MethodVision       ExtractionMethod = "vision"
	MethodTextFallback ExtractionMethod = "text-fallback"
)

// ContentType classifies the post by its URL shape.
type ContentType string

const (
	ContentTypePost  ContentType = "post"
	ContentTypeReel  ContentType = "reel"
	ContentTypeIGTV  ContentType = "igtv"
	ContentTypeStory ContentType = "story"
)

// ConfidenceTier is the discretized bucket derived from numeric confidence.
type ConfidenceTier string

const (
	TierLow      ConfidenceTier = "low"
	TierMedium   ConfidenceTier = "medium"
	TierHigh     ConfidenceTier = "high"
	TierVeryHigh ConfidenceTier = "very_high"
)

// Tier thresholds. metadata.confidence must map to the tier through these
// fixed cutoffs, nothing else.
const (
	TierVeryHighMin = 0.85
	TierHighMin     = 0.70
	TierMediumMin   = 0.50
)

// TierFor maps a numeric confidence in [0,1] to its tier.
func TierFor(confidence float64) ConfidenceTier {
	switch {
	case confidence >= TierVeryHighMin:
		return TierVeryHigh
	case confidence >= TierHighMin:
		return TierHigh
	case confidence >= TierMediumMin:
		return TierMedium
	default:
		return TierLow
	}
}

// EventType is the coarse kind of event.
type EventType string

const (
	EventTypeConcert    EventType = "concert"
	EventTypeExhibition EventType = "exhibition"
	EventTypeWorkshop   EventType = "workshop"
	EventTypeParty      EventType = "party"
	EventTypeConference EventType = "conference"
	EventTypeMarket     EventType = "market"
	EventTypeSports     EventType = "sports"
	EventTypeOther      EventType = "other"
)

// EventCategory is the thematic category of an event.
type EventCategory string

const (
	CategoryMusic   EventCategory = "music"
	CategoryArt     EventCategory = "art"
	CategoryTheater EventCategory = "theater"
	CategoryFood    EventCategory = "food"
	CategoryTech    EventCategory = "tech"
	CategorySports  EventCategory = "sports"
	CategoryOther   EventCategory = "other"
)

// PriceTier buckets the cost of attendance.
type PriceTier string

const (
	PriceFree    PriceTier = "free"
	PricePaid    PriceTier = "paid"
	PriceUnknown PriceTier = "unknown"
)

// PostContent is the raw result of one acquisition attempt. It lives for a
// single extraction and is never persisted. SyntheticMedia marks image URLs
// the acquirer made up; those must never reach the vision model.
type PostContent struct {
	Shortcode      string    `json:"shortcode"`
	ImageURLs      []string  `json:"image_urls"`
	SyntheticMedia bool      `json:"synthetic_media"`
	Caption        string    `json:"caption"`
	Hashtags       []string  `json:"hashtags"`
	Mentions       []string  `json:"mentions"`
	AuthorHandle   string    `json:"author_handle"`
	Likes          int       `json:"likes"`
	Comments       int       `json:"comments"`
	IsVideo        bool      `json:"is_video"`
	Source         Source    `json:"source"`
	AcquiredAt     time.Time `json:"acquired_at"`
}

// ImagePayload holds downloaded image bytes for the vision call.
type ImagePayload struct {
	Data        []byte `json:"-"`
	ContentType string `json:"content_type"`
	Size        int    `json:"size"`
}

// DateTimeInfo carries the event schedule. StartDate is mandatory by the
// time a draft reaches the normalizer, even if it had to be synthesized.
type DateTimeInfo struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date,omitempty"`
	StartTime string `json:"start_time,omitempty"`
	EndTime   string `json:"end_time,omitempty"`
	Timezone  string `json:"timezone,omitempty"`
	AllDay    bool   `json:"all_day"`
}

// Location is always emitted in structured form. Name holds the joined
// display string when only parts are known.
type Location struct {
	Name      string   `json:"name"`
	Address   string   `json:"address,omitempty"`
	City      string   `json:"city,omitempty"`
	Country   string   `json:"country,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

// Price describes cost of attendance.
type Price struct {
	Amount   float64   `json:"amount"`
	Currency string    `json:"currency,omitempty"`
	Tier     PriceTier `json:"tier"`
}

// Organizer identifies who runs the event.
type Organizer struct {
	Name   string `json:"name,omitempty"`
	Handle string `json:"handle,omitempty"`
}

// Social carries engagement counters observed on the post.
type Social struct {
	Likes    int `json:"likes"`
	Comments int `json:"comments"`
}

// ExtractionDraft is the unvalidated candidate record produced by the vision
// extractor or one of its fallbacks.
type ExtractionDraft struct {
	Title       string           `json:"title"`
	Description string           `json:"description,omitempty"`
	DateTime    DateTimeInfo     `json:"date_time"`
	Location    *Location        `json:"location,omitempty"`
	EventType   EventType        `json:"event_type,omitempty"`
	Category    EventCategory    `json:"category,omitempty"`
	Tags        []string         `json:"tags"`
	Hashtags    []string         `json:"hashtags"`
	Mentions    []string         `json:"mentions"`
	Price       *Price           `json:"price,omitempty"`
	Organizer   *Organizer       `json:"organizer,omitempty"`
	Social      Social           `json:"social"`
	RawText     string           `json:"raw_text,omitempty"`
	SourceURL   string           `json:"source_url"`
	Method      ExtractionMethod `json:"method"`
}

// ExtractionResult is a draft plus the extractor's own assessment of it.
type ExtractionResult struct {
	Draft      ExtractionDraft  `json:"draft"`
	Confidence float64          `json:"confidence"`
	Method     ExtractionMethod `json:"method"`
	Success    bool             `json:"success"`
	Warnings   []string         `json:"warnings,omitempty"`
}

// Metadata is the provenance block attached to every canonical record.
type Metadata struct {
	ExtractionID     string           `json:"extraction_id"`
	ExtractedAt      time.Time        `json:"extracted_at"`
	DurationMillis   int64            `json:"duration_ms"`
	PostShortcode    string           `json:"post_shortcode"`
	ContentType      ContentType      `json:"content_type"`
	Confidence       float64          `json:"confidence"`
	ConfidenceTier   ConfidenceTier   `json:"confidence_tier"`
	Method           ExtractionMethod `json:"method"`
	Source           Source           `json:"source"`
	ExtractorVersion string           `json:"extractor_version"`
	Errors           []string         `json:"errors"`
	Warnings         []string         `json:"warnings"`
}

// CanonicalExtractedData is the validated output contract handed to
// downstream persistence and presentation layers.
type CanonicalExtractedData struct {
	ExtractionDraft
	Metadata Metadata `json:"metadata"`
}
