package acquirer

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/frierosdesign/eventsync/internal/types"
)

// Captions shorter than this are treated as absent; Instagram renders plenty
// of short UI strings that would otherwise win a selector race.
const minCaptionLength = 15

var (
	// og:description shape: `123 likes, 4 comments - handle on January 1, 2026: "caption"`
	ogEngagementPattern = regexp.MustCompile(`(?i)([\d.,]+[KkMm]?)\s+likes?,\s*([\d.,]+[KkMm]?)\s+comments?`)
	ogCaptionPattern    = regexp.MustCompile(`(?s)on\s+[^:"]+:\s*[“"](.+)[”"]\s*$`)
	// og:title shape: `Author Name (@handle) • Instagram photo`
	ogHandlePattern = regexp.MustCompile(`@([A-Za-z0-9_.]+)`)

	hashtagPattern = regexp.MustCompile(`#[\p{L}\p{N}_]+`)
	mentionPattern = regexp.MustCompile(`@[\p{L}\p{N}_.]+`)
)

// ExtractHashtags returns all #tag tokens in order of appearance,
// case-preserving, Unicode letters included.
func ExtractHashtags(text string) []string {
	return hashtagPattern.FindAllString(text, -1)
}

// ExtractMentions returns all @handle tokens in order of appearance.
func ExtractMentions(text string) []string {
	return mentionPattern.FindAllString(text, -1)
}

func (a *Acquirer) contentFromHTML(html, shortcode string) (*types.PostContent, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parsing page HTML: %w", err)
	}
	return extractContent(doc, shortcode), nil
}

// extractContent pulls every field independently, meta tags first, then the
// DOM selector candidates. Meta tags survive selector drift far better.
func extractContent(doc *goquery.Document, shortcode string) *types.PostContent {
	ogDesc := metaContent(doc, "og:description")
	ogTitle := metaContent(doc, "og:title")

	caption := captionFromMeta(ogDesc)
	if caption == "" {
		caption = selectFirst(doc, CaptionSelectors, minCaptionLength)
	}

	likes, comments := engagementFromMeta(ogDesc)

	author := ""
	if m := ogHandlePattern.FindStringSubmatch(ogTitle); m != nil {
		author = m[1]
	}
	if author == "" {
		author = strings.TrimPrefix(selectFirst(doc, AuthorSelectors, 1), "@")
	}

	isVideo := strings.Contains(metaContent(doc, "og:type"), "video") ||
		metaContent(doc, "og:video") != "" ||
		doc.Find(`article video, video`).Length() > 0

	imageURL := metaContent(doc, "og:image")
	if imageURL == "" {
		imageURL = selectFirst(doc, ImageSelectors, 1)
	}
	if imageURL == "" {
		// Video-only posts: the poster stands in for the image.
		imageURL = selectFirst(doc, VideoSelectors, 1)
	}
	syntheticMedia := false
	if imageURL == "" {
		imageURL = placeholderImageURL(shortcode)
		syntheticMedia = true
	}

	return &types.PostContent{
		Shortcode:      shortcode,
		ImageURLs:      []string{imageURL},
		SyntheticMedia: syntheticMedia,
		Caption:        caption,
		Hashtags:       ExtractHashtags(caption),
		Mentions:       ExtractMentions(caption),
		AuthorHandle:   author,
		Likes:          likes,
		Comments:       comments,
		IsVideo:        isVideo,
		Source:         types.SourceReal,
		AcquiredAt:     time.Now(),
	}
}

func metaContent(doc *goquery.Document, property string) string {
	sel := fmt.Sprintf(`meta[property=%q], meta[name=%q]`, property, property)
	content, _ := doc.Find(sel).First().Attr("content")
	return strings.TrimSpace(content)
}

func captionFromMeta(ogDesc string) string {
	if m := ogCaptionPattern.FindStringSubmatch(ogDesc); m != nil {
		caption := strings.TrimSpace(m[1])
		if len([]rune(caption)) >= minCaptionLength {
			return caption
		}
	}
	return ""
}

func engagementFromMeta(ogDesc string) (likes, comments int) {
	if m := ogEngagementPattern.FindStringSubmatch(ogDesc); m != nil {
		likes = parseMetric(m[1])
		comments = parseMetric(m[2])
	}
	return likes, comments
}

// selectFirst walks the candidate list and returns the first non-trivial
// match. Candidates are ordered by reliability; first hit wins.
func selectFirst(doc *goquery.Document, candidates []FieldSelector, minLen int) string {
	for _, fs := range candidates {
		var out string
		doc.Find(fs.Query).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			var v string
			if fs.Attr == "" {
				v = strings.TrimSpace(s.Text())
			} else {
				v, _ = s.Attr(fs.Attr)
				v = strings.TrimSpace(v)
			}
			if v != "" && len([]rune(v)) >= minLen {
				out = v
				return false
			}
			return true
		})
		if out != "" {
			return out
		}
	}
	return ""
}

// parseMetric converts abbreviated metric strings like "1.2K", "5.7M", or "423" to integers
func parseMetric(s string) int {
	if s == "" {
		return 0
	}

	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ",", "")

	multiplier := 1.0
	if strings.HasSuffix(strings.ToUpper(s), "K") {
		multiplier = 1000
		s = s[:len(s)-1]
	} else if strings.HasSuffix(strings.ToUpper(s), "M") {
		multiplier = 1000000
		s = s[:len(s)-1]
	}

	value, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}

	return int(value * multiplier)
}
