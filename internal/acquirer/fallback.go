package acquirer

import (
	"fmt"
	"hash/fnv"
	"math/rand/v2"
	"net/url"
	"time"

	"github.com/frierosdesign/eventsync/internal/types"
)

type fallbackSample struct {
	caption string
	author  string
}

// fallbackSamples keeps the pipeline usable when the platform blocks us
// entirely. Captions are realistic enough for the text extractor to produce
// a coherent draft; the synthetic tag tells consumers the truth about
// provenance.
var fallbackSamples = []fallbackSample{
	{
		caption: "Concierto de Jazz el sábado 26 de julio a las 18:00 en el Jazz Club Barcelona. Entrada 15€ #jazz #live #barcelona",
		author:  "jazzclubbcn",
	},
	{
		caption: "Exposición de arte contemporáneo del 12 al 30 de septiembre en la Galería Norte, Madrid. Entrada libre #arte #expo #madrid",
		author:  "galerianorte",
	},
	{
		caption: "Open air festival Saturday August 15 from 16:00 at Parc del Fòrum. Tickets 25€ at the door @festivalsounds #festival #music #openair",
		author:  "festivalsounds",
	},
	{
		caption: "Taller de cerámica el domingo 10 de agosto a las 11:00 en el Espai Creatiu, Gràcia. Plazas limitadas, 20€ #taller #ceramica #gracia",
		author:  "espaicreatiu",
	},
	{
		caption: "Tech meetup on Thursday 18/09 at 19:00, Impact Hub. Free entry, register at the link in bio @techbcn #tech #meetup #networking",
		author:  "techbcn",
	},
	{
		caption: "Mercado nocturno de street food el viernes 22 de agosto desde las 20:00 en el Poble Sec. Gratis #foodie #mercado #streetfood",
		author:  "mercatnocturn",
	},
}

// syntheticContent derives fallback content for a post that could not be
// acquired. The caption is picked by hashing the shortcode so retries for
// the same post stay consistent; engagement counters vary per call.
func (a *Acquirer) syntheticContent(shortcode string) *types.PostContent {
	h := fnv.New32a()
	h.Write([]byte(shortcode))
	sample := fallbackSamples[int(h.Sum32())%len(fallbackSamples)]

	return &types.PostContent{
		Shortcode:      shortcode,
		ImageURLs:      []string{placeholderImageURL(shortcode)},
		SyntheticMedia: true,
		Caption:        sample.caption,
		Hashtags:       ExtractHashtags(sample.caption),
		Mentions:       ExtractMentions(sample.caption),
		AuthorHandle:   sample.author,
		Likes:          50 + rand.IntN(950),
		Comments:       5 + rand.IntN(95),
		Source:         types.SourceSynthetic,
		AcquiredAt:     time.Now(),
	}
}

// placeholderImageURL synthesizes a usable media reference; downstream
// stages always receive an image URL, even when the post had none.
func placeholderImageURL(shortcode string) string {
	return fmt.Sprintf("https://picsum.photos/seed/%s-%d/1080/1080",
		url.PathEscape(shortcode), rand.IntN(100000))
}
