package domain

// Source identifies where a raw review record came from.
type Source string

const (
	SourceHostaway Source = "hostaway"
	SourceGoogle   Source = "google"
	SourceMock     Source = "mock"
)

// Listing is the property a review belongs to. Slug is the join key across
// sources for the same physical property.
type Listing struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// Review is the canonical record every source normalizes into.
// Ratings are on a 0..10 scale; nullable fields are pointers so they
// serialize as JSON null, never as a zero value.
type Review struct {
	ID      int64   `json:"id"`
	Source  Source  `json:"source"`
	Listing Listing `json:"listing"`

	Type    string  `json:"type"`
	Status  string  `json:"status"`
	Channel *string `json:"channel"`

	SubmittedAt string  `json:"submittedAt"` // RFC3339, UTC
	GuestName   *string `json:"guestName"`

	OverallRating *float64 `json:"overallRating"`
	PublicReview  string   `json:"publicReview"`

	Categories      map[string]float64 `json:"categories"`
	CategoryAverage *float64           `json:"categoryAverage"`

	Tags []string `json:"tags"`
}
