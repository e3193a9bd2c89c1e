// Package pipeline orchestrates one extraction end to end: URL validation,
// content acquisition, event inference, normalization, and caching.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/frierosdesign/eventsync/internal/acquirer"
	"github.com/frierosdesign/eventsync/internal/normalizer"
	"github.com/frierosdesign/eventsync/internal/types"
)

// ExtractorVersion stamps every canonical record.
const ExtractorVersion = "2.1.0"

// Synthetic content can never back a confident extraction.
const syntheticConfidenceCeiling = 0.3

// Stage failures surfaced to callers. Everything past acquisition degrades
// instead of failing, so these four are the pipeline's whole error surface.
var (
	ErrInvalidURL       = errors.New("invalid post url")
	ErrUnreachable      = errors.New("post url unreachable")
	ErrBlocked          = errors.New("content acquisition blocked")
	ErrExtractionFailed = errors.New("extraction failed")
)

// Acquirer fetches post content and media.
type Acquirer interface {
	ExtractPostData(ctx context.Context, url string) *types.PostContent
	DownloadImage(ctx context.Context, url string) *types.ImagePayload
	Reachable(ctx context.Context, url string) bool
}

// Extractor turns post content into an event draft.
type Extractor interface {
	ExtractEvent(ctx context.Context, post *types.PostContent, image *types.ImagePayload, sourceURL string) *types.ExtractionResult
}

// Cache stores completed extractions by shortcode.
type Cache interface {
	Get(shortcode string) (*types.CanonicalExtractedData, bool)
	Put(data *types.CanonicalExtractedData) error
}

// Pipeline wires the stages together. Concurrent extractions of the same
// shortcode collapse into one in-flight run.
type Pipeline struct {
	acquirer   Acquirer
	extractor  Extractor
	normalizer *normalizer.Normalizer
	cache      Cache
	log        *logrus.Logger
	group      singleflight.Group
}

// New creates a pipeline. cache may be nil to disable caching.
func New(a Acquirer, e Extractor, n *normalizer.Normalizer, cache Cache, log *logrus.Logger) *Pipeline {
	return &Pipeline{
		acquirer:   a,
		extractor:  e,
		normalizer: n,
		cache:      cache,
		log:        log,
	}
}

// Extract runs the full pipeline for one post URL.
func (p *Pipeline) Extract(ctx context.Context, rawURL string) (*types.CanonicalExtractedData, error) {
	if !acquirer.ValidPostURL(rawURL) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidURL, rawURL)
	}
	if !p.acquirer.Reachable(ctx, rawURL) {
		return nil, fmt.Errorf("%w: %s", ErrUnreachable, rawURL)
	}

	shortcode := acquirer.Shortcode(rawURL)
	if p.cache != nil {
		if cached, ok := p.cache.Get(shortcode); ok {
			p.log.WithField("shortcode", shortcode).Debug("Cache hit")
			return cached, nil
		}
	}

	v, err, _ := p.group.Do(shortcode, func() (interface{}, error) {
		return p.run(ctx, rawURL, shortcode)
	})
	if err != nil {
		return nil, err
	}
	return v.(*types.CanonicalExtractedData), nil
}

func (p *Pipeline) run(ctx context.Context, rawURL, shortcode string) (*types.CanonicalExtractedData, error) {
	start := time.Now()

	post := p.acquirer.ExtractPostData(ctx, rawURL)
	if post == nil {
		return nil, fmt.Errorf("%w: %s", ErrBlocked, rawURL)
	}

	// Synthesized placeholder URLs carry no signal about the event and can
	// actively mislead inference; only fetch media the page actually served.
	var image *types.ImagePayload
	if len(post.ImageURLs) > 0 && !post.SyntheticMedia {
		image = p.acquirer.DownloadImage(ctx, post.ImageURLs[0])
	}

	result := p.extractor.ExtractEvent(ctx, post, image, rawURL)
	draft := mergeSignals(result.Draft, post)

	confidence := result.Confidence
	warnings := append([]string{}, result.Warnings...)
	if post.Source == types.SourceSynthetic {
		if confidence > syntheticConfidenceCeiling {
			confidence = syntheticConfidenceCeiling
		}
		warnings = append(warnings, "acquisition fell back to synthetic content")
	}

	meta := types.Metadata{
		ExtractionID:     uuid.NewString(),
		ExtractedAt:      start,
		PostShortcode:    shortcode,
		ContentType:      acquirer.ContentTypeOf(rawURL),
		Confidence:       confidence,
		Method:           result.Method,
		Source:           post.Source,
		ExtractorVersion: ExtractorVersion,
		Warnings:         warnings,
	}

	canonical, err := p.normalizer.Normalize(draft, meta)
	if err != nil {
		var verr *normalizer.ValidationError
		if errors.As(err, &verr) {
			return nil, fmt.Errorf("%w: missing %s", ErrExtractionFailed, strings.Join(verr.MissingFields, ", "))
		}
		return nil, fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}
	canonical.Metadata.DurationMillis = time.Since(start).Milliseconds()

	if p.cache != nil {
		if err := p.cache.Put(canonical); err != nil {
			p.log.WithError(err).WithField("shortcode", shortcode).Warn("Failed to cache extraction")
		}
	}

	p.log.WithFields(logrus.Fields{
		"shortcode":  shortcode,
		"method":     canonical.Metadata.Method,
		"source":     canonical.Metadata.Source,
		"confidence": canonical.Metadata.Confidence,
		"tier":       canonical.Metadata.ConfidenceTier,
		"duration":   time.Since(start).String(),
	}).Info("Extraction completed")

	return canonical, nil
}

// mergeSignals folds acquisition-time observations into the draft: tag and
// mention unions, the larger of each engagement counter, and the post author
// as organizer of last resort.
func mergeSignals(draft types.ExtractionDraft, post *types.PostContent) types.ExtractionDraft {
	draft.Hashtags = unionOrdered(post.Hashtags, draft.Hashtags)
	draft.Mentions = unionOrdered(post.Mentions, draft.Mentions)

	if post.Likes > draft.Social.Likes {
		draft.Social.Likes = post.Likes
	}
	if post.Comments > draft.Social.Comments {
		draft.Social.Comments = post.Comments
	}

	if draft.Organizer == nil && post.AuthorHandle != "" {
		draft.Organizer = &types.Organizer{Handle: post.AuthorHandle}
	}

	return draft
}

// unionOrdered merges two lists preserving first-seen order and dropping
// duplicates.
func unionOrdered(a, b []string) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, list := range [][]string{a, b} {
		for _, item := range list {
			if _, ok := seen[item]; ok {
				continue
			}
			seen[item] = struct{}{}
			out = append(out, item)
		}
	}
	return out
}
