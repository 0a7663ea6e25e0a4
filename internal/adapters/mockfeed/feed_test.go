package mockfeed

import (
	"context"
	"testing"

	"flex_reviews/internal/app"
	"flex_reviews/internal/domain"
)

func TestFetchReviews_Fixture(t *testing.T) {
	f := New()

	src, raws, err := f.FetchReviews(context.Background())
	if err != nil {
		t.Fatalf("FetchReviews: %v", err)
	}
	if src != domain.SourceMock {
		t.Fatalf("expected mock source, got %q", src)
	}
	if len(raws) == 0 {
		t.Fatal("expected bundled reviews, got none")
	}

	// Every bundled record must survive normalization.
	records, errs := app.NormalizeHostawayBatch(raws, src, true)
	if len(errs) > 0 {
		t.Fatalf("fixture contains a malformed record: %v", errs)
	}
	if len(records) != len(raws) {
		t.Fatalf("normalized %d of %d records", len(records), len(raws))
	}
}

func TestFetchPlaceReviews_Fixture(t *testing.T) {
	f := New()

	raws, err := f.FetchPlaceReviews(context.Background(), "ChIJd8kA5V4DdkgRv2EyzC1Hc4w")
	if err != nil {
		t.Fatalf("FetchPlaceReviews: %v", err)
	}
	if len(raws) != 2 {
		t.Fatalf("expected 2 bundled place reviews, got %d", len(raws))
	}

	unknown, err := f.FetchPlaceReviews(context.Background(), "no-such-place")
	if err != nil {
		t.Fatalf("FetchPlaceReviews unknown place: %v", err)
	}
	if len(unknown) != 0 {
		t.Fatalf("expected no reviews for unknown place, got %d", len(unknown))
	}
}
