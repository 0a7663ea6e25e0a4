package app_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"flex_reviews/internal/app"
	"flex_reviews/internal/domain"
	"flex_reviews/internal/storage/selection"
)

// ---- fakes ----

type fakeHostaway struct {
	src  domain.Source
	raws []map[string]any
}

func (f *fakeHostaway) FetchReviews(ctx context.Context) (domain.Source, []map[string]any, error) {
	return f.src, f.raws, nil
}

type fakePlaces struct {
	raws map[string][]map[string]any
}

func (f *fakePlaces) FetchPlaceReviews(ctx context.Context, placeID string) ([]map[string]any, error) {
	return f.raws[placeID], nil
}

// fakeCache round-trips values through JSON, like the redis adapter does.
type fakeCache struct {
	store map[string][]byte
}

func (c *fakeCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	b, ok := c.store[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dst)
}

func (c *fakeCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	if c.store == nil {
		c.store = map[string][]byte{}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.store[key] = b
	return nil
}

func (c *fakeCache) Del(ctx context.Context, key string) error {
	delete(c.store, key)
	return nil
}

func newService(hostaway *fakeHostaway, places *fakePlaces, mappings map[string]domain.PlaceMapping) *app.ReviewQueryService {
	var p domain.PlacesFeed
	if places != nil {
		p = places
	}
	return app.NewReviewQueryService(hostaway, p, mappings, selection.NewMemory(nil), nil, time.Minute)
}

// ---- tests ----

func TestReviews_CombinesAndFilters(t *testing.T) {
	hostaway := &fakeHostaway{src: domain.SourceMock, raws: []map[string]any{
		hostawayRaw(),
		nil, // malformed, must be skipped without aborting the batch
	}}
	places := &fakePlaces{raws: map[string][]map[string]any{
		"place-123": {googleRaw()},
	}}
	mappings := map[string]domain.PlaceMapping{
		"2b-n1-a-29-shoreditch-heights": {PlaceID: "place-123", PropertyName: "Shoreditch Heights"},
	}
	q := newService(hostaway, places, mappings)

	out, err := q.Reviews(context.Background(), app.ReviewFilter{})
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if out.Count != 2 || len(out.Reviews) != 2 {
		t.Fatalf("expected hostaway+google record, got %d", out.Count)
	}
	// both sources share the listing slug via the mapping override
	if len(out.ByListing["2b-n1-a-29-shoreditch-heights"]) != 2 {
		t.Fatalf("byListing: %+v", out.ByListing)
	}
	if len(out.Meta.Channels) != 2 { // airbnb + google
		t.Fatalf("channels: %v", out.Meta.Channels)
	}
	if out.SelectedIDs == nil || len(out.SelectedIDs) != 0 {
		t.Fatalf("selectedIds must be an empty list, got %v", out.SelectedIDs)
	}

	// channel filter
	out, err = q.Reviews(context.Background(), app.ReviewFilter{Channel: "google"})
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if out.Count != 1 || out.Reviews[0].Source != domain.SourceGoogle {
		t.Fatalf("channel filter: %+v", out.Reviews)
	}

	// slug filter with no match
	out, err = q.Reviews(context.Background(), app.ReviewFilter{ListingSlug: "nope"})
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if out.Count != 0 {
		t.Fatalf("expected empty result, got %d", out.Count)
	}
}

func TestReviews_SelectionMergedPerRequest(t *testing.T) {
	hostaway := &fakeHostaway{src: domain.SourceMock, raws: []map[string]any{hostawayRaw()}}
	store := selection.NewMemory(nil)
	q := app.NewReviewQueryService(hostaway, nil, nil, store, nil, time.Minute)

	out, err := q.Reviews(context.Background(), app.ReviewFilter{})
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if len(out.SelectedIDs) != 0 {
		t.Fatalf("fresh store: %v", out.SelectedIDs)
	}

	store.Toggle(7453, true)
	out, _ = q.Reviews(context.Background(), app.ReviewFilter{})
	if len(out.SelectedIDs) != 1 || out.SelectedIDs[0] != 7453 {
		t.Fatalf("toggle not visible: %v", out.SelectedIDs)
	}
}

func TestReviews_CacheHitSkipsFeed(t *testing.T) {
	hostaway := &fakeHostaway{src: domain.SourceMock, raws: []map[string]any{hostawayRaw()}}
	cache := &fakeCache{}
	q := app.NewReviewQueryService(hostaway, nil, nil, selection.NewMemory(nil), cache, time.Minute)

	out, err := q.Reviews(context.Background(), app.ReviewFilter{})
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if out.Count != 1 {
		t.Fatalf("first read: %d", out.Count)
	}

	// grow the upstream feed; the cached pass must not see it
	hostaway.raws = append(hostaway.raws, hostawayRaw())
	out, err = q.Reviews(context.Background(), app.ReviewFilter{})
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if out.Count != 1 {
		t.Fatalf("expected cached feed, got %d records", out.Count)
	}

	// invalidation exposes the new record
	q.InvalidateFeed(context.Background())
	out, _ = q.Reviews(context.Background(), app.ReviewFilter{})
	if out.Count != 2 {
		t.Fatalf("after invalidate: %d", out.Count)
	}
}

func TestKpisAndTrend_FromFeed(t *testing.T) {
	hostaway := &fakeHostaway{src: domain.SourceMock, raws: []map[string]any{hostawayRaw()}}
	q := newService(hostaway, nil, nil)

	kpis, err := q.Kpis(context.Background())
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if len(kpis) != 1 || kpis[0].ListingSlug != "2b-n1-a-29-shoreditch-heights" || kpis[0].ReviewCount != 1 {
		t.Fatalf("kpis: %+v", kpis)
	}

	trend, err := q.Trend(context.Background(), "")
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if len(trend) != 1 || trend[0].Month != "2024-01" {
		t.Fatalf("trend: %+v", trend)
	}
}
