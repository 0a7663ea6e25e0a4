package app

import (
	"sort"

	"flex_reviews/internal/domain"
)

// BuildListingKpis groups records by listing slug and rolls each group up
// into count, rating means and the top issue tags. Stateless: re-derived
// from the full input set on every call. Empty input yields an empty slice.
func BuildListingKpis(records []domain.Review) []domain.ListingKpi {
	groups := map[string][]domain.Review{}
	var order []string // first-encountered slug order, for deterministic ties
	for _, r := range records {
		slug := r.Listing.Slug
		if _, ok := groups[slug]; !ok {
			order = append(order, slug)
		}
		groups[slug] = append(groups[slug], r)
	}

	kpis := make([]domain.ListingKpi, 0, len(order))
	for _, slug := range order {
		items := groups[slug]

		var overall, catAvg []float64
		for _, r := range items {
			if r.OverallRating != nil {
				overall = append(overall, *r.OverallRating)
			}
			if r.CategoryAverage != nil {
				catAvg = append(catAvg, *r.CategoryAverage)
			}
		}

		kpis = append(kpis, domain.ListingKpi{
			ListingSlug:       slug,
			ListingName:       listingName(items, slug),
			ReviewCount:       len(items),
			AvgOverallRating:  mean(overall),
			AvgCategoryRating: mean(catAvg),
			TopIssues:         topIssues(items, 4),
		})
	}

	// Best-rated listings first; a group with no rated records sorts as -1,
	// below any real average. Stable, so ties keep input order.
	sort.SliceStable(kpis, func(i, j int) bool {
		return sortKey(kpis[i].AvgOverallRating) > sortKey(kpis[j].AvgOverallRating)
	})
	return kpis
}

// BuildRatingTrend buckets records by UTC month of submission and averages
// the rated ones per bucket. listingSlug == "" means all listings. Buckets
// come back ascending by month key (lexicographic is safe: zero-padded
// "YYYY-MM").
func BuildRatingTrend(records []domain.Review, listingSlug string) []domain.TrendPoint {
	type bucket struct {
		rated []float64
		count int
	}
	byMonth := map[string]*bucket{}
	for _, r := range records {
		if listingSlug != "" && r.Listing.Slug != listingSlug {
			continue
		}
		m := monthKey(r.SubmittedAt)
		if m == "" {
			continue
		}
		b := byMonth[m]
		if b == nil {
			b = &bucket{}
			byMonth[m] = b
		}
		b.count++
		if r.OverallRating != nil {
			b.rated = append(b.rated, *r.OverallRating)
		}
	}

	months := make([]string, 0, len(byMonth))
	for m := range byMonth {
		months = append(months, m)
	}
	sort.Strings(months)

	points := make([]domain.TrendPoint, 0, len(months))
	for _, m := range months {
		b := byMonth[m]
		points = append(points, domain.TrendPoint{
			Month:            m,
			AvgOverallRating: mean(b.rated),
			ReviewCount:      b.count,
		})
	}
	return points
}

func sortKey(v *float64) float64 {
	if v == nil {
		return -1
	}
	return *v
}

func monthKey(iso string) string {
	if len(iso) < 7 {
		return ""
	}
	return iso[:7]
}

func listingName(items []domain.Review, fallback string) string {
	for _, r := range items {
		if r.Listing.Name != "" {
			return r.Listing.Name
		}
	}
	return fallback
}

// topIssues builds the tag-frequency histogram for a group, capped to the
// n most frequent; ties break by first-encountered tag order.
func topIssues(items []domain.Review, n int) []domain.IssueCount {
	counts := map[string]int{}
	var order []string
	for _, r := range items {
		for _, t := range r.Tags {
			if _, ok := counts[t]; !ok {
				order = append(order, t)
			}
			counts[t]++
		}
	}

	out := make([]domain.IssueCount, 0, len(order))
	for _, t := range order {
		out = append(out, domain.IssueCount{Tag: t, Count: counts[t]})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	if len(out) > n {
		out = out[:n]
	}
	return out
}
