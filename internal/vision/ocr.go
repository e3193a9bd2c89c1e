package vision

import (
	"context"
	"encoding/base64"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/frierosdesign/eventsync/internal/types"
)

// Captions shorter than this trigger image transcription; event flyers often
// carry all the detail in the artwork.
const shortCaptionThreshold = 10

const transcribePrompt = "Transcribe every piece of visible text in this image, top to bottom. " +
	"Respond with the plain text only - no commentary, no formatting. " +
	"If the image contains no readable text, respond with an empty string."

// transcribeImage recovers printed text from the post image so the text
// extractor has something to work with. It is a transcription-only call; no
// event reasoning happens here.
func (e *Extractor) transcribeImage(ctx context.Context, image *types.ImagePayload) (string, error) {
	blocks := []anthropic.ContentBlockParamUnion{
		anthropic.NewTextBlock(transcribePrompt),
		anthropic.NewImageBlockBase64(
			normalizeMediaType(image.ContentType),
			base64.StdEncoding.EncodeToString(image.Data),
		),
	}

	text, err := e.complete(ctx, blocks, "")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}
