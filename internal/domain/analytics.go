package domain

// IssueCount is one tag with its occurrence count inside a listing group.
type IssueCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// ListingKpi is the per-listing rollup; recomputed on every call,
// never persisted.
type ListingKpi struct {
	ListingSlug       string       `json:"listingSlug"`
	ListingName       string       `json:"listingName"`
	ReviewCount       int          `json:"reviewCount"`
	AvgOverallRating  *float64     `json:"avgOverallRating"`
	AvgCategoryRating *float64     `json:"avgCategoryRating"`
	TopIssues         []IssueCount `json:"topIssues"`
}

// TrendPoint is one month bucket of the rating trend, keyed "YYYY-MM".
type TrendPoint struct {
	Month            string   `json:"month"`
	AvgOverallRating *float64 `json:"avgOverallRating"`
	ReviewCount      int      `json:"reviewCount"`
}
