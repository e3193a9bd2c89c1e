package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/frierosdesign/eventsync/internal/types"
)

func testRecord(shortcode string, extractedAt time.Time) *types.CanonicalExtractedData {
	return &types.CanonicalExtractedData{
		ExtractionDraft: types.ExtractionDraft{
			Title:    "Jazz Night",
			DateTime: types.DateTimeInfo{StartDate: "2026-07-26"},
		},
		Metadata: types.Metadata{
			ExtractionID:  "test-" + shortcode,
			ExtractedAt:   extractedAt,
			PostShortcode: shortcode,
			Confidence:    0.8,
			Source:        types.SourceReal,
		},
	}
}

func openTestCache(t *testing.T, ttl time.Duration) *Cache {
	t.Helper()
	cache, err := New(filepath.Join(t.TempDir(), "cache.db"), ttl)
	if err != nil {
		t.Fatalf("failed to open cache: %v", err)
	}
	t.Cleanup(func() { cache.Close() })
	return cache
}

func TestCachePutGet(t *testing.T) {
	cache := openTestCache(t, time.Hour)

	record := testRecord("ABC123", time.Now())
	if err := cache.Put(record); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, ok := cache.Get("ABC123")
	if !ok {
		t.Fatal("Get returned no entry")
	}
	if got.Title != "Jazz Night" {
		t.Errorf("Title = %q, want Jazz Night", got.Title)
	}
	if got.Metadata.ExtractionID != "test-ABC123" {
		t.Errorf("ExtractionID = %q", got.Metadata.ExtractionID)
	}

	if _, ok := cache.Get("MISSING"); ok {
		t.Error("Get returned an entry for an unknown shortcode")
	}
}

func TestCachePutReplaces(t *testing.T) {
	cache := openTestCache(t, time.Hour)

	if err := cache.Put(testRecord("ABC123", time.Now())); err != nil {
		t.Fatalf("first Put failed: %v", err)
	}

	updated := testRecord("ABC123", time.Now())
	updated.Title = "Jazz Night Updated"
	if err := cache.Put(updated); err != nil {
		t.Fatalf("second Put failed: %v", err)
	}

	got, ok := cache.Get("ABC123")
	if !ok {
		t.Fatal("Get returned no entry")
	}
	if got.Title != "Jazz Night Updated" {
		t.Errorf("Title = %q, want the replaced record", got.Title)
	}
}

func TestCacheTTLExpiry(t *testing.T) {
	cache := openTestCache(t, time.Hour)

	stale := testRecord("OLD", time.Now().Add(-2*time.Hour))
	if err := cache.Put(stale); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	if _, ok := cache.Get("OLD"); ok {
		t.Error("Get returned an expired entry")
	}
}

func TestCacheSweepExpired(t *testing.T) {
	cache := openTestCache(t, time.Hour)

	if err := cache.Put(testRecord("OLD", time.Now().Add(-2*time.Hour))); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := cache.Put(testRecord("FRESH", time.Now())); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	swept, err := cache.SweepExpired()
	if err != nil {
		t.Fatalf("SweepExpired failed: %v", err)
	}
	if swept != 1 {
		t.Errorf("swept = %d, want 1", swept)
	}

	if _, ok := cache.Get("FRESH"); !ok {
		t.Error("sweep removed a fresh entry")
	}
}
