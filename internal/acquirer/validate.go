package acquirer

import (
	"context"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/frierosdesign/eventsync/internal/types"
)

var (
	postURLPattern  = regexp.MustCompile(`^https?://(www\.)?instagram\.com/(p|reel|tv)/[A-Za-z0-9_-]+/?([?#].*)?$`)
	storyURLPattern = regexp.MustCompile(`^https?://(www\.)?instagram\.com/stories/[A-Za-z0-9_.]+/\d+/?([?#].*)?$`)

	shortcodePattern = regexp.MustCompile(`instagram\.com/(?:p|reel|tv)/([A-Za-z0-9_-]+)`)
	storyIDPattern   = regexp.MustCompile(`instagram\.com/stories/[A-Za-z0-9_.]+/(\d+)`)
)

// ValidPostURL is the pure shape check: a direct content URL of the source
// platform, not a profile or explore root. No network traffic.
func ValidPostURL(raw string) bool {
	return postURLPattern.MatchString(raw) || storyURLPattern.MatchString(raw)
}

// Shortcode extracts the post identifier from a content URL. Unknown shapes
// yield "unknown" so fallback generation still has a stable key.
func Shortcode(raw string) string {
	if m := shortcodePattern.FindStringSubmatch(raw); m != nil {
		return m[1]
	}
	if m := storyIDPattern.FindStringSubmatch(raw); m != nil {
		return m[1]
	}
	return "unknown"
}

// ContentTypeOf classifies a content URL by its path segment.
func ContentTypeOf(raw string) types.ContentType {
	switch {
	case strings.Contains(raw, "/reel/"):
		return types.ContentTypeReel
	case strings.Contains(raw, "/tv/"):
		return types.ContentTypeIGTV
	case storyURLPattern.MatchString(raw):
		return types.ContentTypeStory
	default:
		return types.ContentTypePost
	}
}

// Reachable issues a HEAD request to confirm the URL answers before the
// expensive browser path is engaged.
func (a *Acquirer) Reachable(ctx context.Context, raw string) bool {
	reqCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodHead, raw, nil)
	if err != nil {
		return false
	}
	req.Header.Set("User-Agent", downloadHeaders["User-Agent"])

	resp, err := a.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	// Some CDN frontends reject HEAD outright; that still proves the host
	// answers.
	return resp.StatusCode < http.StatusBadRequest || resp.StatusCode == http.StatusMethodNotAllowed
}

// ValidateURL gates entry into the acquisition path: cheap shape check
// first, reachability second. Shape failures never touch the network.
func (a *Acquirer) ValidateURL(ctx context.Context, raw string) bool {
	if !ValidPostURL(raw) {
		return false
	}
	return a.Reachable(ctx, raw)
}
