package vision

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/frierosdesign/eventsync/internal/types"
)

// Fallback extractions never score above this; confidence must reflect
// method provenance, not just field presence.
const textFallbackCeiling = 0.6

var (
	isoDatePattern     = regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})\b`)
	numericDatePattern = regexp.MustCompile(`\b(\d{1,2})[/.](\d{1,2})[/.](\d{2,4})\b`)
	spanishDatePattern = regexp.MustCompile(`(?i)\b(\d{1,2})\s+de\s+(enero|febrero|marzo|abril|mayo|junio|julio|agosto|septiembre|octubre|noviembre|diciembre)(?:\s+(?:de\s+)?(\d{4}))?`)
	englishMDPattern   = regexp.MustCompile(`(?i)\b(january|february|march|april|may|june|july|august|september|october|november|december)\s+(\d{1,2})(?:st|nd|rd|th)?(?:,?\s+(\d{4}))?`)
	englishDMPattern   = regexp.MustCompile(`(?i)\b(\d{1,2})(?:st|nd|rd|th)?\s+(january|february|march|april|may|june|july|august|september|october|november|december)(?:,?\s+(\d{4}))?`)

	timePattern = regexp.MustCompile(`\b([01]?\d|2[0-3]):([0-5]\d)\b`)

	freePattern   = regexp.MustCompile(`(?i)\b(gratis|gratuito|gratuita|entrada libre|free entry|free admission)\b`)
	euroPattern   = regexp.MustCompile(`(\d+(?:[.,]\d{1,2})?)\s*(?:€|euros?\b|eur\b)`)
	dollarPattern = regexp.MustCompile(`[$£](\d+(?:[.,]\d{1,2})?)`)
)

var monthNames = map[string]time.Month{
	"enero": time.January, "febrero": time.February, "marzo": time.March,
	"abril": time.April, "mayo": time.May, "junio": time.June,
	"julio": time.July, "agosto": time.August, "septiembre": time.September,
	"octubre": time.October, "noviembre": time.November, "diciembre": time.December,
	"january": time.January, "february": time.February, "march": time.March,
	"april": time.April, "may": time.May, "june": time.June,
	"july": time.July, "august": time.August, "september": time.September,
	"october": time.October, "november": time.November, "december": time.December,
}

// keywordClasses map caption vocabulary to category and type. First match
// wins; order by how unambiguous the vocabulary is.
var keywordClasses = []struct {
	words    []string
	category types.EventCategory
	typ      types.EventType
}{
	{[]string{"concierto", "concert", "jazz", "dj ", "música", "musica", "festival", "gig", "banda", "live"}, types.CategoryMusic, types.EventTypeConcert},
	{[]string{"exposición", "exposicion", "expo", "exhibition", "galería", "galeria", "vernissage", "arte"}, types.CategoryArt, types.EventTypeExhibition},
	{[]string{"teatro", "theatre", "theater", "obra", "monólogo", "monologo"}, types.CategoryTheater, types.EventTypeOther},
	{[]string{"taller", "workshop", "curso", "masterclass"}, types.CategoryArt, types.EventTypeWorkshop},
	{[]string{"meetup", "conferencia", "conference", "charla", "talk", "summit", "hackathon", "tech"}, types.CategoryTech, types.EventTypeConference},
	{[]string{"mercado", "market", "feria", "fair", "street food", "foodie", "gastro", "degustación", "degustacion"}, types.CategoryFood, types.EventTypeMarket},
	{[]string{"carrera", "race", "marathon", "maratón", "maraton", "torneo", "tournament", "deporte", "sport"}, types.CategorySports, types.EventTypeSports},
	{[]string{"fiesta", "party", "rave", "club night"}, types.CategoryMusic, types.EventTypeParty},
}

// ExtractFromText is the deterministic extraction path: regex and keyword
// matching over caption text alone. Used when inference fails or is
// disabled; confidence is capped accordingly.
func ExtractFromText(text string, post *types.PostContent, sourceURL string) *types.ExtractionResult {
	var warnings []string
	confidence := 0.3

	draft := types.ExtractionDraft{
		Title:     titleFromText(text),
		Hashtags:  post.Hashtags,
		Mentions:  post.Mentions,
		Tags:      tagsFromHashtags(post.Hashtags),
		Social:    types.Social{Likes: post.Likes, Comments: post.Comments},
		RawText:   text,
		SourceURL: sourceURL,
		Method:    types.MethodTextFallback,
	}

	if date, ok := findDate(text, time.Now()); ok {
		draft.DateTime.StartDate = date.Format("2006-01-02")
		confidence += 0.15
	} else {
		warnings = append(warnings, "no date token found in text")
	}

	if times := timePattern.FindAllString(text, -1); len(times) > 0 {
		draft.DateTime.StartTime = times[0]
		if len(times) > 1 {
			draft.DateTime.EndTime = times[1]
		}
		confidence += 0.05
	}

	if price := findPrice(text); price != nil {
		draft.Price = price
		confidence += 0.05
	}

	category, eventType := classify(text)
	draft.Category = category
	draft.EventType = eventType
	if category != types.CategoryOther {
		confidence += 0.05
	}

	if post.AuthorHandle != "" {
		draft.Organizer = &types.Organizer{Handle: post.AuthorHandle}
	}

	if draft.Title == "" {
		warnings = append(warnings, "no usable title in text")
	}

	return &types.ExtractionResult{
		Draft:      draft,
		Confidence: clamp(confidence, 0, textFallbackCeiling),
		Method:     types.MethodTextFallback,
		Success:    true,
		Warnings:   warnings,
	}
}

// findDate scans the text with locale-specific patterns, most explicit
// first. Dates without a year resolve to their next occurrence.
func findDate(text string, now time.Time) (time.Time, bool) {
	if m := isoDatePattern.FindStringSubmatch(text); m != nil {
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		day, _ := strconv.Atoi(m[3])
		return makeDate(year, time.Month(month), day)
	}

	if m := numericDatePattern.FindStringSubmatch(text); m != nil {
		// Day-first: the platform audience writes 26/07, not 07/26.
		day, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		year, _ := strconv.Atoi(m[3])
		if year < 100 {
			year += 2000
		}
		return makeDate(year, time.Month(month), day)
	}

	if m := spanishDatePattern.FindStringSubmatch(text); m != nil {
		day, _ := strconv.Atoi(m[1])
		month := monthNames[strings.ToLower(m[2])]
		return dateWithOptionalYear(day, month, m[3], now)
	}

	if m := englishMDPattern.FindStringSubmatch(text); m != nil {
		month := monthNames[strings.ToLower(m[1])]
		day, _ := strconv.Atoi(m[2])
		return dateWithOptionalYear(day, month, m[3], now)
	}

	if m := englishDMPattern.FindStringSubmatch(text); m != nil {
		day, _ := strconv.Atoi(m[1])
		month := monthNames[strings.ToLower(m[2])]
		return dateWithOptionalYear(day, month, m[3], now)
	}

	return time.Time{}, false
}

func dateWithOptionalYear(day int, month time.Month, yearStr string, now time.Time) (time.Time, bool) {
	if yearStr != "" {
		year, _ := strconv.Atoi(yearStr)
		return makeDate(year, month, day)
	}

	date, ok := makeDate(now.Year(), month, day)
	if !ok {
		return time.Time{}, false
	}
	if date.Before(now.AddDate(0, 0, -1)) {
		date = date.AddDate(1, 0, 0)
	}
	return date, true
}

func makeDate(year int, month time.Month, day int) (time.Time, bool) {
	if month < time.January || month > time.December || day < 1 || day > 31 || year < 2000 || year > 2100 {
		return time.Time{}, false
	}
	date := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	// Reject normalized overflows like 31/02.
	if date.Day() != day || date.Month() != month {
		return time.Time{}, false
	}
	return date, true
}

func findPrice(text string) *types.Price {
	if freePattern.MatchString(text) {
		return &types.Price{Amount: 0, Currency: "EUR", Tier: types.PriceFree}
	}
	if m := euroPattern.FindStringSubmatch(text); m != nil {
		return &types.Price{Amount: parseAmount(m[1]), Currency: "EUR", Tier: types.PricePaid}
	}
	if m := dollarPattern.FindStringSubmatch(text); m != nil {
		currency := "USD"
		if strings.Contains(m[0], "£") {
			currency = "GBP"
		}
		return &types.Price{Amount: parseAmount(m[1]), Currency: currency, Tier: types.PricePaid}
	}
	return nil
}

func parseAmount(s string) float64 {
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	if err != nil {
		return 0
	}
	return v
}

func classify(text string) (types.EventCategory, types.EventType) {
	lower := strings.ToLower(text)
	for _, class := range keywordClasses {
		for _, word := range class.words {
			if strings.Contains(lower, word) {
				return class.category, class.typ
			}
		}
	}
	return types.CategoryOther, types.EventTypeOther
}

// titleFromText takes the first line of the caption, trimmed of a trailing
// hashtag run, as the candidate title.
func titleFromText(text string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		line = trimTrailingTags(line)
		if line == "" {
			continue
		}
		runes := []rune(line)
		if len(runes) > 80 {
			line = strings.TrimSpace(string(runes[:80]))
		}
		return line
	}
	return ""
}

func trimTrailingTags(line string) string {
	words := strings.Fields(line)
	for len(words) > 0 {
		last := words[len(words)-1]
		if strings.HasPrefix(last, "#") || strings.HasPrefix(last, "@") {
			words = words[:len(words)-1]
			continue
		}
		break
	}
	return strings.Join(words, " ")
}

func tagsFromHashtags(hashtags []string) []string {
	tags := make([]string, 0, len(hashtags))
	for _, h := range hashtags {
		tags = append(tags, strings.ToLower(strings.TrimPrefix(h, "#")))
	}
	return tags
}
