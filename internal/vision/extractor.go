// Package vision turns acquired post content into an event draft. The
// primary path is an image-and-text inference call; when that fails or
// returns unusable structure it cascades to a deterministic text extractor,
// optionally seeded by transcribing the post image.
package vision

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"

	"github.com/frierosdesign/eventsync/internal/ratelimit"
	"github.com/frierosdesign/eventsync/internal/types"
)

// Extractor produces event drafts from post content.
type Extractor struct {
	client      *anthropic.Client
	model       string
	gate        *ratelimit.Gate
	log         *logrus.Logger
	maxAttempts uint64
}

// New creates an extractor. An empty API key disables the inference paths;
// every extraction then goes straight to the text fallback.
func New(apiKey, model string, gate *ratelimit.Gate, log *logrus.Logger, maxAttempts int) *Extractor {
	e := &Extractor{
		model:       model,
		gate:        gate,
		log:         log,
		maxAttempts: 3,
	}
	if maxAttempts > 0 {
		e.maxAttempts = uint64(maxAttempts)
	}
	if apiKey != "" {
		client := anthropic.NewClient(option.WithAPIKey(apiKey))
		e.client = &client
	}
	return e
}

// ExtractEvent always resolves with a result; it never returns an error.
// Failures cascade: vision, then text extraction over the caption (seeded by
// image transcription when the caption is too short to work with).
func (e *Extractor) ExtractEvent(ctx context.Context, post *types.PostContent, image *types.ImagePayload, sourceURL string) *types.ExtractionResult {
	caption := post.Caption
	var warnings []string

	if len(strings.TrimSpace(caption)) < shortCaptionThreshold && image != nil {
		text, err := e.transcribeImage(ctx, image)
		switch {
		case err != nil:
			e.log.WithError(err).WithField("shortcode", post.Shortcode).Debug("Image transcription failed")
			warnings = append(warnings, "image transcription failed")
		case text != "":
			caption = strings.TrimSpace(caption + "\n" + text)
			warnings = append(warnings, "caption recovered from image text")
		}
	}

	if e.client != nil {
		res, err := e.visionExtract(ctx, post, image, caption, sourceURL)
		if err != nil {
			e.log.WithError(err).WithField("shortcode", post.Shortcode).Warn("Vision extraction failed, falling back to text")
			warnings = append(warnings, fmt.Sprintf("vision extraction failed: %v", err))
		} else {
			res.Warnings = append(warnings, res.Warnings...)
			return res
		}
	} else {
		warnings = append(warnings, "inference disabled, using text extraction")
	}

	res := ExtractFromText(caption, post, sourceURL)
	res.Warnings = append(warnings, res.Warnings...)
	return res
}

func (e *Extractor) visionExtract(ctx context.Context, post *types.PostContent, image *types.ImagePayload, caption, sourceURL string) (*types.ExtractionResult, error) {
	blocks := []anthropic.ContentBlockParamUnion{
		anthropic.NewTextBlock(buildPrompt(caption, post)),
	}
	if image != nil {
		blocks = append(blocks, anthropic.NewImageBlockBase64(
			normalizeMediaType(image.ContentType),
			base64.StdEncoding.EncodeToString(image.Data),
		))
	}

	// Prefill "{" so the model continues with raw JSON.
	responseText, err := e.complete(ctx, blocks, "{")
	if err != nil {
		return nil, err
	}

	var vr visionResponse
	if err := json.Unmarshal([]byte(extractObject("{"+responseText)), &vr); err != nil {
		return nil, fmt.Errorf("failed to parse model response: %w (response was: %.300s)", err, responseText)
	}

	draft := vr.toDraft(post, caption, sourceURL)
	if err := validateDraft(draft); err != nil {
		return nil, fmt.Errorf("model output unusable: %w", err)
	}

	return &types.ExtractionResult{
		Draft:      draft,
		Confidence: clamp(vr.Confidence, 0, 1),
		Method:     types.MethodVision,
		Success:    true,
	}, nil
}

// complete sends one message through the rate gate, retrying rate-limit and
// server errors with bounded exponential backoff.
func (e *Extractor) complete(ctx context.Context, blocks []anthropic.ContentBlockParamUnion, prefill string) (string, error) {
	if e.client == nil {
		return "", errors.New("no inference client configured")
	}

	messages := []anthropic.MessageParam{anthropic.NewUserMessage(blocks...)}
	if prefill != "" {
		messages = append(messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(prefill)))
	}

	var message *anthropic.Message
	operation := func() error {
		if err := e.gate.Acquire(ctx); err != nil {
			return backoff.Permanent(err)
		}
		m, err := e.client.Messages.New(ctx, anthropic.MessageNewParams{
			Model:     anthropic.Model(e.model),
			MaxTokens: 1024,
			Messages:  messages,
		})
		if err != nil {
			if retryable(err) {
				return err
			}
			return backoff.Permanent(err)
		}
		message = m
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), e.maxAttempts-1), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return "", err
	}

	for _, block := range message.Content {
		if block.Type == "text" {
			return block.Text, nil
		}
	}
	return "", errors.New("model returned no text content")
}

func retryable(err error) bool {
	var apierr *anthropic.Error
	if errors.As(err, &apierr) {
		return apierr.StatusCode == http.StatusTooManyRequests || apierr.StatusCode >= http.StatusInternalServerError
	}
	return false
}

// visionResponse is the structured output contract sent to the model.
type visionResponse struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	DateTime    struct {
		StartDate string `json:"start_date"`
		EndDate   string `json:"end_date"`
		StartTime string `json:"start_time"`
		EndTime   string `json:"end_time"`
		Timezone  string `json:"timezone"`
		AllDay    bool   `json:"all_day"`
	} `json:"date_time"`
	Location *struct {
		Name      string   `json:"name"`
		Address   string   `json:"address"`
		City      string   `json:"city"`
		Country   string   `json:"country"`
		Latitude  *float64 `json:"latitude"`
		Longitude *float64 `json:"longitude"`
	} `json:"location"`
	EventType string   `json:"event_type"`
	Category  string   `json:"category"`
	Tags      []string `json:"tags"`
	Price     *struct {
		Amount   float64 `json:"amount"`
		Currency string  `json:"currency"`
	} `json:"price"`
	Organizer *struct {
		Name   string `json:"name"`
		Handle string `json:"handle"`
	} `json:"organizer"`
	Confidence float64 `json:"confidence"`
}

func (vr *visionResponse) toDraft(post *types.PostContent, caption, sourceURL string) types.ExtractionDraft {
	draft := types.ExtractionDraft{
		Title:       strings.TrimSpace(vr.Title),
		Description: strings.TrimSpace(vr.Description),
		EventType:   types.EventType(vr.EventType),
		Category:    types.EventCategory(vr.Category),
		Tags:        vr.Tags,
		Hashtags:    post.Hashtags,
		Mentions:    post.Mentions,
		Social:      types.Social{Likes: post.Likes, Comments: post.Comments},
		RawText:     caption,
		SourceURL:   sourceURL,
		Method:      types.MethodVision,
	}

	draft.DateTime = types.DateTimeInfo{
		StartDate: vr.DateTime.StartDate,
		EndDate:   vr.DateTime.EndDate,
		StartTime: vr.DateTime.StartTime,
		EndTime:   vr.DateTime.EndTime,
		Timezone:  vr.DateTime.Timezone,
		AllDay:    vr.DateTime.AllDay,
	}

	if vr.Location != nil {
		draft.Location = &types.Location{
			Name:      vr.Location.Name,
			Address:   vr.Location.Address,
			City:      vr.Location.City,
			Country:   vr.Location.Country,
			Latitude:  vr.Location.Latitude,
			Longitude: vr.Location.Longitude,
		}
	}
	if vr.Price != nil {
		draft.Price = &types.Price{Amount: vr.Price.Amount, Currency: vr.Price.Currency}
	}
	if vr.Organizer != nil {
		draft.Organizer = &types.Organizer{Name: vr.Organizer.Name, Handle: vr.Organizer.Handle}
	}
	if draft.Organizer == nil && post.AuthorHandle != "" {
		draft.Organizer = &types.Organizer{Handle: post.AuthorHandle}
	}

	return draft
}

// validateDraft rejects partial model output that must not be accepted as a
// successful extraction.
func validateDraft(draft types.ExtractionDraft) error {
	var missing []string
	if strings.TrimSpace(draft.Title) == "" {
		missing = append(missing, "title")
	}
	if strings.TrimSpace(draft.DateTime.StartDate) == "" {
		missing = append(missing, "date_time.start_date")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required fields: %s", strings.Join(missing, ", "))
	}
	return nil
}

var objectPattern = regexp.MustCompile(`(?s)\{.*\}`)

// extractObject pulls the JSON object out of a model response, tolerating
// markdown fences and prose around it.
func extractObject(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	if m := objectPattern.FindString(text); m != "" {
		return m
	}
	return text
}

func normalizeMediaType(contentType string) string {
	mediaType, _, _ := strings.Cut(contentType, ";")
	mediaType = strings.TrimSpace(strings.ToLower(mediaType))
	switch mediaType {
	case "image/jpeg", "image/png", "image/gif", "image/webp":
		return mediaType
	default:
		return "image/jpeg"
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
