package acquirer

import (
	"net/url"
	"testing"

	"github.com/frierosdesign/eventsync/internal/types"
)

func TestSyntheticContentDeterministicCaption(t *testing.T) {
	a := &Acquirer{}

	first := a.syntheticContent("ABC123")
	second := a.syntheticContent("ABC123")

	if first.Caption != second.Caption {
		t.Errorf("caption not stable across retries: %q vs %q", first.Caption, second.Caption)
	}
	if first.AuthorHandle != second.AuthorHandle {
		t.Errorf("author not stable across retries: %q vs %q", first.AuthorHandle, second.AuthorHandle)
	}
}

func TestSyntheticContentWellFormed(t *testing.T) {
	content := (&Acquirer{}).syntheticContent("XyZ987")

	if content.Source != types.SourceSynthetic {
		t.Errorf("Source = %q, want %q", content.Source, types.SourceSynthetic)
	}
	if content.Shortcode != "XyZ987" {
		t.Errorf("Shortcode = %q, want XyZ987", content.Shortcode)
	}
	if !content.SyntheticMedia {
		t.Error("SyntheticMedia = false for fallback content")
	}
	if content.Caption == "" {
		t.Error("empty caption")
	}
	if len(content.Hashtags) == 0 {
		t.Error("synthetic captions should carry hashtags")
	}
	if content.Likes < 50 || content.Likes >= 1000 {
		t.Errorf("Likes = %d, want in [50,1000)", content.Likes)
	}
	if content.Comments < 5 || content.Comments >= 100 {
		t.Errorf("Comments = %d, want in [5,100)", content.Comments)
	}

	if len(content.ImageURLs) != 1 {
		t.Fatalf("ImageURLs = %v, want exactly one", content.ImageURLs)
	}
	u, err := url.Parse(content.ImageURLs[0])
	if err != nil {
		t.Fatalf("image URL does not parse: %v", err)
	}
	if u.Scheme != "https" || u.Host == "" {
		t.Errorf("image URL %q is not an absolute https URL", content.ImageURLs[0])
	}
}

func TestBlockedReason(t *testing.T) {
	longFiller := "This page has plenty of visible text so the minimal text check does not fire. " +
		"It keeps going for a while to stay comfortably above the threshold used in production."

	tests := []struct {
		name    string
		visible string
		blocked bool
	}{
		{"captcha wall", longFiller + " please complete the captcha to continue", true},
		{"challenge", longFiller + " challenge_required", true},
		{"spanish login wall", longFiller + " Inicia sesión para continuar", true},
		{"near empty page", "loading", true},
		{"normal page", longFiller, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reason := blockedReason(tt.visible)
			if got := reason != ""; got != tt.blocked {
				t.Errorf("blockedReason(...) = %q, blocked = %v, want %v", reason, got, tt.blocked)
			}
		})
	}
}
