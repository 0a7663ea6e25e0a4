package domain

import "context"

// HostawayFeed is the black-box boundary to the property-management source.
// It returns raw JSON-shaped records plus the source they actually came
// from (the shipped adapter serves a bundled fixture as SourceMock).
type HostawayFeed interface {
	FetchReviews(ctx context.Context) (Source, []map[string]any, error)
}

// PlacesFeed is the black-box boundary to the maps/places source.
type PlacesFeed interface {
	FetchPlaceReviews(ctx context.Context, placeID string) ([]map[string]any, error)
}

// PlaceMapping links a canonical listing slug to its identity on the maps
// source, so both sources join on the same slug.
type PlaceMapping struct {
	PlaceID      string `json:"placeId"`
	PropertyName string `json:"propertyName"`
}

// ReviewArchive is the durable store of normalized records, keyed
// (source, review id).
type ReviewArchive interface {
	UpsertReviews(ctx context.Context, rs []Review) error
	ListByListing(ctx context.Context, slug string, limit int) ([]Review, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

// SelectionStore tracks which review IDs a manager approved for public
// display. Toggle is idempotent and returns the full new approved set,
// ascending, deduplicated. Implementations serialize read-modify-write
// internally; persistence failures degrade, they never surface here.
type SelectionStore interface {
	ReadApproved() []int64
	Toggle(id int64, selected bool) []int64
}
