package app

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"flex_reviews/internal/adapters/observability"
	"flex_reviews/internal/domain"
)

// feedCacheKey holds the combined normalized feed. Selection state is
// deliberately not part of the cached value: it is merged per request so a
// toggle is visible immediately, without invalidating the feed.
const feedCacheKey = "reviews:feed:v1"

// ReviewFilter narrows the served feed. Zero value means everything.
type ReviewFilter struct {
	ListingSlug string
	Channel     string
}

type ReviewsMeta struct {
	Channels     []string `json:"channels"`
	ListingSlugs []string `json:"listingSlugs"`
	Categories   []string `json:"categories"`
}

// ReviewsResponse is the shape the HTTP layer serves for the combined feed.
type ReviewsResponse struct {
	Source      domain.Source              `json:"source"`
	Count       int                        `json:"count"`
	SelectedIDs []int64                    `json:"selectedIds"`
	Reviews     []domain.Review            `json:"reviews"`
	ByListing   map[string][]domain.Review `json:"byListing"`
	Meta        ReviewsMeta                `json:"meta"`
}

// normalizedFeed is what gets cached between requests.
type normalizedFeed struct {
	Source  domain.Source   `json:"source"`
	Reviews []domain.Review `json:"reviews"`
}

type ReviewQueryService struct {
	hostaway   domain.HostawayFeed
	places     domain.PlacesFeed
	mappings   map[string]domain.PlaceMapping
	selections domain.SelectionStore
	cache      domain.Cache
	cacheTTL   time.Duration
}

func NewReviewQueryService(
	hostaway domain.HostawayFeed,
	places domain.PlacesFeed,
	mappings map[string]domain.PlaceMapping,
	selections domain.SelectionStore,
	cache domain.Cache,
	ttl time.Duration,
) *ReviewQueryService {
	return &ReviewQueryService{
		hostaway:   hostaway,
		places:     places,
		mappings:   mappings,
		selections: selections,
		cache:      cache,
		cacheTTL:   ttl,
	}
}

// fetchAll fans in every configured source into one normalized slice,
// cache-aside. A bad record or a failing place is skipped with a warning;
// only a failing primary feed aborts.
func (s *ReviewQueryService) fetchAll(ctx context.Context) (normalizedFeed, error) {
	var feed normalizedFeed
	if s.cache != nil {
		if ok, _ := s.cache.Get(ctx, feedCacheKey, &feed); ok {
			return feed, nil
		}
	}

	src, raws, err := s.hostaway.FetchReviews(ctx)
	if err != nil {
		observability.ObserveFeed(string(domain.SourceHostaway), "error")
		return normalizedFeed{}, err
	}
	observability.ObserveFeed(string(src), "ok")

	reviews, errs := NormalizeHostawayBatch(raws, src, false)
	for _, nerr := range errs {
		observability.ObserveNormalization(string(src), "malformed")
		log.Warn().Err(nerr).Str("source", string(src)).Msg("skipping malformed review")
	}
	observability.AddNormalized(string(src), len(reviews))

	googleCount := 0
	if s.places != nil {
		for _, slug := range sortedSlugs(s.mappings) {
			m := s.mappings[slug]
			raws, perr := s.places.FetchPlaceReviews(ctx, m.PlaceID)
			if perr != nil {
				observability.ObserveFeed(string(domain.SourceGoogle), "error")
				log.Warn().Err(perr).Str("listing", slug).Msg("places feed failed, continuing without it")
				continue
			}
			observability.ObserveFeed(string(domain.SourceGoogle), "ok")
			pc := PlaceContext{PlaceID: m.PlaceID, PropertyName: m.PropertyName, SlugOverride: slug}
			for _, raw := range raws {
				r, nerr := NormalizeGoogle(raw, pc)
				if nerr != nil {
					observability.ObserveNormalization(string(domain.SourceGoogle), "malformed")
					log.Warn().Err(nerr).Str("listing", slug).Msg("skipping malformed places review")
					continue
				}
				reviews = append(reviews, r)
				googleCount++
			}
		}
		observability.AddNormalized(string(domain.SourceGoogle), googleCount)
	}

	feed = normalizedFeed{Source: combinedSource(src, len(reviews)-googleCount, googleCount), Reviews: reviews}

	if s.cache != nil {
		// copy before caching so callers can't mutate the cached slice
		_ = s.cache.Set(ctx, feedCacheKey, copyFeed(feed), int(s.cacheTTL.Seconds()))
	}
	return feed, nil
}

// Reviews serves the combined feed with filters, grouping, selection state
// and filter metadata.
func (s *ReviewQueryService) Reviews(ctx context.Context, f ReviewFilter) (ReviewsResponse, error) {
	feed, err := s.fetchAll(ctx)
	if err != nil {
		return ReviewsResponse{}, err
	}

	filtered := make([]domain.Review, 0, len(feed.Reviews))
	for _, r := range feed.Reviews {
		if f.ListingSlug != "" && r.Listing.Slug != f.ListingSlug {
			continue
		}
		if f.Channel != "" && (r.Channel == nil || *r.Channel != f.Channel) {
			continue
		}
		filtered = append(filtered, r)
	}

	byListing := map[string][]domain.Review{}
	channels := map[string]bool{}
	slugs := map[string]bool{}
	for _, r := range filtered {
		byListing[r.Listing.Slug] = append(byListing[r.Listing.Slug], r)
		slugs[r.Listing.Slug] = true
		if r.Channel != nil {
			channels[*r.Channel] = true
		}
	}

	// category names come from the whole feed, not the filtered view, so the
	// UI filter options stay stable while narrowing
	categories := map[string]bool{}
	for _, r := range feed.Reviews {
		for c := range r.Categories {
			categories[c] = true
		}
	}

	var selected []int64
	if s.selections != nil {
		selected = s.selections.ReadApproved()
	}
	if selected == nil {
		selected = []int64{}
	}

	return ReviewsResponse{
		Source:      feed.Source,
		Count:       len(filtered),
		SelectedIDs: selected,
		Reviews:     filtered,
		ByListing:   byListing,
		Meta: ReviewsMeta{
			Channels:     sortedKeys(channels),
			ListingSlugs: sortedKeys(slugs),
			Categories:   sortedKeys(categories),
		},
	}, nil
}

func (s *ReviewQueryService) Kpis(ctx context.Context) ([]domain.ListingKpi, error) {
	feed, err := s.fetchAll(ctx)
	if err != nil {
		return nil, err
	}
	return BuildListingKpis(feed.Reviews), nil
}

func (s *ReviewQueryService) Trend(ctx context.Context, listingSlug string) ([]domain.TrendPoint, error) {
	feed, err := s.fetchAll(ctx)
	if err != nil {
		return nil, err
	}
	return BuildRatingTrend(feed.Reviews, listingSlug), nil
}

// InvalidateFeed drops the cached combined feed (called after ingestion).
func (s *ReviewQueryService) InvalidateFeed(ctx context.Context) {
	if s.cache != nil {
		_ = s.cache.Del(ctx, feedCacheKey)
	}
}

func combinedSource(hostawaySrc domain.Source, hostawayCount, googleCount int) domain.Source {
	if googleCount > 0 && hostawayCount == 0 {
		return domain.SourceGoogle
	}
	return hostawaySrc
}

func copyFeed(in normalizedFeed) normalizedFeed {
	out := normalizedFeed{Source: in.Source}
	if len(in.Reviews) > 0 {
		out.Reviews = make([]domain.Review, len(in.Reviews))
		copy(out.Reviews, in.Reviews)
	}
	return out
}

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func sortedSlugs(m map[string]domain.PlaceMapping) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
