package acquirer

// Instagram DOM selectors and page indicators.
// These are isolated here because Instagram changes their DOM frequently.
// Update these when acquisition breaks.

// ContentReadySelectors are tried in descending specificity to detect that
// the post has rendered. Missing all of them is not fatal; the acquirer
// proceeds after a grace wait.
var ContentReadySelectors = []string{
	`article[role="presentation"]`,
	`article`,
	`main[role="main"]`,
	`section main`,
	`div[class*="Post"]`,
	`div[class*="content"]`,
}

// FieldSelector pairs a CSS query with the attribute to read.
// An empty Attr means the node's text content.
type FieldSelector struct {
	Query string
	Attr  string
}

// CaptionSelectors are DOM fallbacks when the meta tags carry no caption.
var CaptionSelectors = []FieldSelector{
	{Query: `article h1`},
	{Query: `div[data-testid="post-comment-root"] span`},
	{Query: `article ul li span`},
	{Query: `article span[dir="auto"]`},
}

// ImageSelectors are tried before VideoSelectors; a video poster is only an
// image substitute.
var ImageSelectors = []FieldSelector{
	{Query: `article img[srcset]`, Attr: "src"},
	{Query: `article img[decoding="auto"]`, Attr: "src"},
	{Query: `article div[role="button"] img`, Attr: "src"},
	{Query: `main img`, Attr: "src"},
}

var VideoSelectors = []FieldSelector{
	{Query: `article video`, Attr: "poster"},
	{Query: `video`, Attr: "poster"},
}

var AuthorSelectors = []FieldSelector{
	{Query: `article header a[role="link"]`},
	{Query: `header a`},
}

// blockedIndicators mark anti-bot walls, challenge pages and login
// interstitials.
var blockedIndicators = []string{
	"captcha",
	"recaptcha",
	"challenge_required",
	"verify it's you",
	"suspicious activity",
	"help us confirm",
	"confirma que eres",
	"log in to continue",
	"inicia sesión para continuar",
	"restricted page",
	"page couldn't load",
}

// Pages with less visible text than this are judged blocked even without an
// indicator match.
const minVisibleText = 100
