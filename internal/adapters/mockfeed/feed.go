// Package mockfeed serves bundled review payloads through the feed ports.
// The surrounding product ships these fixtures so the dashboard works
// without provider credentials; the real provider transport lives outside
// this repository and hands the same raw JSON shapes to the same ports.
package mockfeed

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"

	"flex_reviews/internal/domain"
)

//go:embed mock-reviews.json
var hostawayFixture []byte

//go:embed mock-place-reviews.json
var placesFixture []byte

type hostawayEnvelope struct {
	Status string           `json:"status"`
	Result []map[string]any `json:"result"`
}

// Feed implements domain.HostawayFeed and domain.PlacesFeed from the
// embedded fixtures, reporting domain.SourceMock for the primary feed.
type Feed struct{}

func New() *Feed { return &Feed{} }

func (f *Feed) FetchReviews(_ context.Context) (domain.Source, []map[string]any, error) {
	var env hostawayEnvelope
	if err := json.Unmarshal(hostawayFixture, &env); err != nil {
		return domain.SourceMock, nil, fmt.Errorf("mock hostaway fixture: %w", err)
	}
	return domain.SourceMock, env.Result, nil
}

func (f *Feed) FetchPlaceReviews(_ context.Context, placeID string) ([]map[string]any, error) {
	var byPlace map[string][]map[string]any
	if err := json.Unmarshal(placesFixture, &byPlace); err != nil {
		return nil, fmt.Errorf("mock places fixture: %w", err)
	}
	return byPlace[placeID], nil
}
