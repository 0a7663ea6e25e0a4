package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"flex_reviews/internal/adapters/observability"
	"flex_reviews/internal/domain"
)

// IngestionService pulls every configured feed, normalizes the records and
// upserts them into the archive. One malformed record is skipped, never
// aborting its batch; a failing places mapping is skipped too. Archive
// write failures surface.
type IngestionService struct {
	hostaway domain.HostawayFeed
	places   domain.PlacesFeed
	mappings map[string]domain.PlaceMapping
	archive  domain.ReviewArchive
	cache    domain.Cache
}

func NewIngestionService(
	hostaway domain.HostawayFeed,
	places domain.PlacesFeed,
	mappings map[string]domain.PlaceMapping,
	archive domain.ReviewArchive,
	cache domain.Cache,
) *IngestionService {
	return &IngestionService{
		hostaway: hostaway,
		places:   places,
		mappings: mappings,
		archive:  archive,
		cache:    cache,
	}
}

// IngestHostaway archives one pass over the property-management feed.
func (s *IngestionService) IngestHostaway(ctx context.Context) (int, error) {
	src, raws, err := s.hostaway.FetchReviews(ctx)
	if err != nil {
		observability.ObserveFeed(string(domain.SourceHostaway), "error")
		return 0, fmt.Errorf("hostaway fetch: %w", err)
	}
	observability.ObserveFeed(string(src), "ok")

	reviews, errs := NormalizeHostawayBatch(raws, src, false)
	for _, nerr := range errs {
		observability.ObserveNormalization(string(src), "malformed")
		log.Warn().Err(nerr).Str("source", string(src)).Msg("ingest: skipping malformed review")
	}
	observability.AddNormalized(string(src), len(reviews))

	if len(reviews) > 0 {
		if err := s.archive.UpsertReviews(ctx, reviews); err != nil {
			return 0, fmt.Errorf("upsert %s reviews: %w", src, err)
		}
	}
	s.invalidateFeed(ctx)
	return len(reviews), nil
}

// IngestPlace archives one pass over a single place's reviews.
func (s *IngestionService) IngestPlace(ctx context.Context, slug string) (int, error) {
	m, ok := s.mappings[slug]
	if !ok {
		return 0, fmt.Errorf("no place mapping for listing %q: %w", slug, domain.ErrNotFound)
	}

	raws, err := s.places.FetchPlaceReviews(ctx, m.PlaceID)
	if err != nil {
		observability.ObserveFeed(string(domain.SourceGoogle), "error")
		return 0, fmt.Errorf("places fetch for %s: %w", slug, err)
	}
	observability.ObserveFeed(string(domain.SourceGoogle), "ok")

	pc := PlaceContext{PlaceID: m.PlaceID, PropertyName: m.PropertyName, SlugOverride: slug}
	reviews := make([]domain.Review, 0, len(raws))
	for _, raw := range raws {
		r, nerr := NormalizeGoogle(raw, pc)
		if nerr != nil {
			observability.ObserveNormalization(string(domain.SourceGoogle), "malformed")
			log.Warn().Err(nerr).Str("listing", slug).Msg("ingest: skipping malformed places review")
			continue
		}
		reviews = append(reviews, r)
	}
	observability.AddNormalized(string(domain.SourceGoogle), len(reviews))

	if len(reviews) > 0 {
		if err := s.archive.UpsertReviews(ctx, reviews); err != nil {
			return 0, fmt.Errorf("upsert place reviews for %s: %w", slug, err)
		}
	}
	s.invalidateFeed(ctx)
	return len(reviews), nil
}

// MappedSlugs lists the listings that have a place mapping, sorted.
func (s *IngestionService) MappedSlugs() []string {
	return sortedSlugs(s.mappings)
}

func (s *IngestionService) invalidateFeed(ctx context.Context) {
	if s.cache != nil {
		_ = s.cache.Del(ctx, feedCacheKey)
	}
}
