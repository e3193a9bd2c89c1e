package vision

import (
	"fmt"
	"strings"

	"github.com/frierosdesign/eventsync/internal/types"
)

// buildPrompt constructs the inference prompt constraining output to the
// draft schema plus a confidence self-estimate.
func buildPrompt(caption string, post *types.PostContent) string {
	var sb strings.Builder

	sb.WriteString("You are extracting structured event information from a social media post. ")
	sb.WriteString("The post's caption is below; an image of the post may be attached.\n\n")

	sb.WriteString("## Post\n")
	if post.AuthorHandle != "" {
		sb.WriteString(fmt.Sprintf("Author: @%s\n", post.AuthorHandle))
	}
	sb.WriteString(fmt.Sprintf("Engagement: %d likes, %d comments\n", post.Likes, post.Comments))
	sb.WriteString("Caption:\n")
	sb.WriteString(caption)
	sb.WriteString("\n\n## Task\n\n")

	sb.WriteString("Extract the event the post announces. Provide:\n")
	sb.WriteString("1. title (string, required): short event title\n")
	sb.WriteString("2. description (string): one or two sentences\n")
	sb.WriteString("3. date_time (object): start_date (YYYY-MM-DD, required), end_date, start_time (HH:MM, 24h), end_time, timezone (IANA), all_day (boolean)\n")
	sb.WriteString("4. location (object or null): name, address, city, country, latitude, longitude\n")
	sb.WriteString("5. event_type: one of concert, exhibition, workshop, party, conference, market, sports, other\n")
	sb.WriteString("6. category: one of music, art, theater, food, tech, sports, other\n")
	sb.WriteString("7. tags (array of lowercase strings)\n")
	sb.WriteString("8. price (object or null): amount (number), currency (ISO code)\n")
	sb.WriteString("9. organizer (object or null): name, handle\n")
	sb.WriteString("10. confidence (number 0.0-1.0): your own estimate of extraction accuracy\n\n")

	sb.WriteString("Use null for anything the post does not state; never invent dates or prices. ")
	sb.WriteString("If the year is missing, assume the next occurrence of that date.\n\n")
	sb.WriteString("IMPORTANT: Respond with ONLY a valid JSON object. No markdown, no code blocks, no explanation - just the raw JSON starting with { and ending with }.\n")

	return sb.String()
}
