package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/frierosdesign/eventsync/internal/normalizer"
	"github.com/frierosdesign/eventsync/internal/types"
)

type stubAcquirer struct {
	post      *types.PostContent
	image     *types.ImagePayload
	reachable bool
	downloads int
}

func (s *stubAcquirer) ExtractPostData(ctx context.Context, url string) *types.PostContent {
	return s.post
}

func (s *stubAcquirer) DownloadImage(ctx context.Context, url string) *types.ImagePayload {
	s.downloads++
	return s.image
}

func (s *stubAcquirer) Reachable(ctx context.Context, url string) bool {
	return s.reachable
}

type stubExtractor struct {
	result *types.ExtractionResult
}

func (s *stubExtractor) ExtractEvent(ctx context.Context, post *types.PostContent, image *types.ImagePayload, sourceURL string) *types.ExtractionResult {
	return s.result
}

type memoryCache struct {
	entries map[string]*types.CanonicalExtractedData
	puts    int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[string]*types.CanonicalExtractedData)}
}

func (m *memoryCache) Get(shortcode string) (*types.CanonicalExtractedData, bool) {
	data, ok := m.entries[shortcode]
	return data, ok
}

func (m *memoryCache) Put(data *types.CanonicalExtractedData) error {
	m.entries[data.Metadata.PostShortcode] = data
	m.puts++
	return nil
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func syntheticPost() *types.PostContent {
	return &types.PostContent{
		Shortcode:    "ABC123",
		Caption:      "Concierto de Jazz el 26 de julio a las 18:00 #jazz",
		Hashtags:     []string{"#jazz"},
		AuthorHandle: "jazzclubbcn",
		Likes:        100,
		Comments:     10,
		Source:       types.SourceSynthetic,
		AcquiredAt:   time.Now(),
	}
}

func goodResult() *types.ExtractionResult {
	return &types.ExtractionResult{
		Draft: types.ExtractionDraft{
			Title:    "Concierto de Jazz",
			DateTime: types.DateTimeInfo{StartDate: "2026-07-26", StartTime: "18:00"},
			Hashtags: []string{"#jazz", "#live"},
			Method:   types.MethodTextFallback,
		},
		Confidence: 0.55,
		Method:     types.MethodTextFallback,
		Success:    true,
	}
}

const testURL = "https://www.instagram.com/p/ABC123/"

func TestExtractInvalidURL(t *testing.T) {
	p := New(&stubAcquirer{reachable: true}, &stubExtractor{}, normalizer.New(""), nil, quietLogger())

	_, err := p.Extract(context.Background(), "https://www.instagram.com/someprofile/")
	if !errors.Is(err, ErrInvalidURL) {
		t.Errorf("err = %v, want ErrInvalidURL", err)
	}
}

func TestExtractUnreachable(t *testing.T) {
	p := New(&stubAcquirer{reachable: false}, &stubExtractor{}, normalizer.New(""), nil, quietLogger())

	_, err := p.Extract(context.Background(), testURL)
	if !errors.Is(err, ErrUnreachable) {
		t.Errorf("err = %v, want ErrUnreachable", err)
	}
}

func TestExtractBlocked(t *testing.T) {
	p := New(&stubAcquirer{reachable: true, post: nil}, &stubExtractor{}, normalizer.New(""), nil, quietLogger())

	_, err := p.Extract(context.Background(), testURL)
	if !errors.Is(err, ErrBlocked) {
		t.Errorf("err = %v, want ErrBlocked", err)
	}
}

func TestExtractSyntheticCapsConfidence(t *testing.T) {
	acq := &stubAcquirer{reachable: true, post: syntheticPost()}
	p := New(acq, &stubExtractor{result: goodResult()}, normalizer.New(""), nil, quietLogger())

	out, err := p.Extract(context.Background(), testURL)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	if out.Metadata.Source != types.SourceSynthetic {
		t.Errorf("Source = %q, want synthetic", out.Metadata.Source)
	}
	if out.Metadata.Confidence > syntheticConfidenceCeiling {
		t.Errorf("Confidence = %v, want <= %v for synthetic content", out.Metadata.Confidence, syntheticConfidenceCeiling)
	}
	if out.Metadata.ConfidenceTier != types.TierLow {
		t.Errorf("ConfidenceTier = %q, want low", out.Metadata.ConfidenceTier)
	}
	if len(out.Metadata.Warnings) == 0 {
		t.Error("expected a synthetic-content warning")
	}
}

func TestExtractMergesAcquisitionSignals(t *testing.T) {
	post := syntheticPost()
	post.Source = types.SourceReal
	post.Hashtags = []string{"#jazz", "#barcelona"}
	acq := &stubAcquirer{reachable: true, post: post}
	p := New(acq, &stubExtractor{result: goodResult()}, normalizer.New(""), nil, quietLogger())

	out, err := p.Extract(context.Background(), testURL)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	want := []string{"#jazz", "#barcelona", "#live"}
	if len(out.Hashtags) != len(want) {
		t.Fatalf("Hashtags = %v, want %v", out.Hashtags, want)
	}
	for i, tag := range want {
		if out.Hashtags[i] != tag {
			t.Errorf("Hashtags[%d] = %q, want %q", i, out.Hashtags[i], tag)
		}
	}

	if out.Organizer == nil || out.Organizer.Handle != "jazzclubbcn" {
		t.Errorf("Organizer = %+v, want post author", out.Organizer)
	}
	if out.Social.Likes != 100 {
		t.Errorf("Likes = %d, want acquisition counter", out.Social.Likes)
	}
	if out.Metadata.PostShortcode != "ABC123" {
		t.Errorf("PostShortcode = %q", out.Metadata.PostShortcode)
	}
	if out.Metadata.ContentType != types.ContentTypePost {
		t.Errorf("ContentType = %q, want post", out.Metadata.ContentType)
	}
	if out.Metadata.ExtractionID == "" || out.Metadata.ExtractorVersion == "" {
		t.Error("metadata provenance fields not stamped")
	}
}

func TestExtractUsesCache(t *testing.T) {
	cache := newMemoryCache()
	acq := &stubAcquirer{reachable: true, post: syntheticPost()}
	p := New(acq, &stubExtractor{result: goodResult()}, normalizer.New(""), cache, quietLogger())

	first, err := p.Extract(context.Background(), testURL)
	if err != nil {
		t.Fatalf("first Extract failed: %v", err)
	}
	if cache.puts != 1 {
		t.Fatalf("cache puts = %d, want 1", cache.puts)
	}

	second, err := p.Extract(context.Background(), testURL)
	if err != nil {
		t.Fatalf("second Extract failed: %v", err)
	}
	if cache.puts != 1 {
		t.Errorf("cache puts = %d after cached run, want 1", cache.puts)
	}
	if second.Metadata.ExtractionID != first.Metadata.ExtractionID {
		t.Error("second run did not come from cache")
	}
}

func TestExtractSkipsDownloadForSynthesizedMedia(t *testing.T) {
	post := syntheticPost()
	post.Source = types.SourceReal
	post.ImageURLs = []string{"https://picsum.photos/seed/ABC123-1/1080/1080"}
	post.SyntheticMedia = true

	acq := &stubAcquirer{reachable: true, post: post}
	p := New(acq, &stubExtractor{result: goodResult()}, normalizer.New(""), nil, quietLogger())

	if _, err := p.Extract(context.Background(), testURL); err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if acq.downloads != 0 {
		t.Errorf("downloads = %d, want 0 for synthesized media", acq.downloads)
	}
}

func TestExtractDownloadsServedMedia(t *testing.T) {
	post := syntheticPost()
	post.Source = types.SourceReal
	post.ImageURLs = []string{"https://scontent.cdninstagram.com/v/abc.jpg"}

	acq := &stubAcquirer{reachable: true, post: post}
	p := New(acq, &stubExtractor{result: goodResult()}, normalizer.New(""), nil, quietLogger())

	if _, err := p.Extract(context.Background(), testURL); err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if acq.downloads != 1 {
		t.Errorf("downloads = %d, want 1 for page-served media", acq.downloads)
	}
}

func TestExtractFailsWhenDraftUnusable(t *testing.T) {
	bad := &types.ExtractionResult{
		Draft:  types.ExtractionDraft{},
		Method: types.MethodTextFallback,
	}
	acq := &stubAcquirer{reachable: true, post: syntheticPost()}
	p := New(acq, &stubExtractor{result: bad}, normalizer.New(""), nil, quietLogger())

	_, err := p.Extract(context.Background(), testURL)
	if !errors.Is(err, ErrExtractionFailed) {
		t.Errorf("err = %v, want ErrExtractionFailed", err)
	}
}

func TestUnionOrdered(t *testing.T) {
	got := unionOrdered([]string{"a", "b"}, []string{"b", "c", "a", "d"})
	want := []string{"a", "b", "c", "d"}
	if len(got) != len(want) {
		t.Fatalf("unionOrdered = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("unionOrdered[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
