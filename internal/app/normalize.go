package app

import (
	"crypto/sha1"
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
	"time"

	"flex_reviews/internal/domain"
)

// Hostaway timestamps arrive as local-naive "YYYY-MM-DD HH:mm:ss" and are
// reinterpreted as UTC. No timezone inference: historical data was ingested
// this way and the interpretation must not change.
const hostawayTimeLayout = "2006-01-02 15:04:05"

// Places ratings arrive on a 0..5 scale; canonical is 0..10.
const placesRatingScale = 2.0

/********** tiny helpers **********/

// lookupAny: safe nested lookup with dot paths on maps.
func lookupAny(m map[string]any, path string) any {
	cur := any(m)
	for _, part := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		v, ok := obj[part]
		if !ok {
			return nil
		}
		cur = v
	}
	return cur
}

// lookupStr returns the string at path or "".
func lookupStr(m map[string]any, path string) string {
	if v := lookupAny(m, path); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// getFloat: number from a path (float64/int/string like "8,0").
func getFloat(m map[string]any, path string) *float64 {
	switch v := lookupAny(m, path).(type) {
	case float64:
		f := v
		return &f
	case int:
		f := float64(v)
		return &f
	case string:
		s := strings.TrimSpace(strings.ReplaceAll(v, ",", "."))
		if s == "" {
			return nil
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return &f
		}
	}
	return nil
}

// getInt64: integer from a path (float64/int/string).
func getInt64(m map[string]any, path string) *int64 {
	switch v := lookupAny(m, path).(type) {
	case float64:
		x := int64(v)
		return &x
	case int:
		x := int64(v)
		return &x
	case int64:
		x := v
		return &x
	case string:
		if n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
			return &n
		}
	}
	return nil
}

func ptrStr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func clampRating(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 10 {
		return 10
	}
	return f
}

func mean(vals []float64) *float64 {
	if len(vals) == 0 {
		return nil
	}
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	m := sum / float64(len(vals))
	return &m
}

// Slugify derives the URL-safe listing slug from a listing name.
// Pure: the same name always yields the same slug.
func Slugify(name string) string {
	var b strings.Builder
	prevDash := true // swallow leading separators
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			prevDash = false
		default:
			if !prevDash {
				b.WriteByte('-')
				prevDash = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}

// hostawayToISO reinterprets a naive Hostaway timestamp as UTC RFC3339.
// Falls back to parsing an already-ISO value; unparseable degrades to "".
func hostawayToISO(s string) string {
	if t, err := time.Parse(hostawayTimeLayout, s); err == nil {
		return t.UTC().Format(time.RFC3339)
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC().Format(time.RFC3339)
	}
	return ""
}

/********** Hostaway normalizer **********/

// NormalizeHostaway maps one raw property-management record into the
// canonical shape. Missing optional fields degrade to nil/""/empty;
// a record without a usable id is ErrMalformedRecord.
func NormalizeHostaway(raw map[string]any, src domain.Source) (domain.Review, error) {
	if raw == nil {
		return domain.Review{}, fmt.Errorf("hostaway: nil record: %w", domain.ErrMalformedRecord)
	}
	id := getInt64(raw, "id")
	if id == nil {
		return domain.Review{}, fmt.Errorf("hostaway: missing id: %w", domain.ErrMalformedRecord)
	}

	// Category list -> map; last write wins on duplicate names.
	categories := map[string]float64{}
	if list, ok := lookupAny(raw, "reviewCategory").([]any); ok {
		for _, it := range list {
			entry, ok := it.(map[string]any)
			if !ok {
				continue
			}
			name := lookupStr(entry, "category")
			rating := getFloat(entry, "rating")
			if name == "" || rating == nil {
				continue
			}
			categories[name] = *rating
		}
	}

	var vals []float64
	for _, v := range categories {
		vals = append(vals, v)
	}

	var overall *float64
	if f := getFloat(raw, "rating"); f != nil {
		c := clampRating(*f)
		overall = &c
	}

	listingName := lookupStr(raw, "listingName")
	text := lookupStr(raw, "publicReview")

	return domain.Review{
		ID:     *id,
		Source: src,
		Listing: domain.Listing{
			Name: listingName,
			Slug: Slugify(listingName),
		},
		Type:            lookupStr(raw, "type"),
		Status:          lookupStr(raw, "status"),
		Channel:         ptrStr(lookupStr(raw, "channel")),
		SubmittedAt:     hostawayToISO(lookupStr(raw, "submittedAt")),
		GuestName:       ptrStr(lookupStr(raw, "guestName")),
		OverallRating:   overall,
		PublicReview:    text,
		Categories:      categories,
		CategoryAverage: mean(vals),
		Tags:            DeriveTags(categories, text),
	}, nil
}

// NormalizeHostawayBatch runs NormalizeHostaway over a batch. With
// failFast=false one bad record is skipped and reported, the rest of the
// batch survives; with failFast=true the first error aborts.
func NormalizeHostawayBatch(raws []map[string]any, src domain.Source, failFast bool) ([]domain.Review, []error) {
	out := make([]domain.Review, 0, len(raws))
	var errs []error
	for i, raw := range raws {
		r, err := NormalizeHostaway(raw, src)
		if err != nil {
			errs = append(errs, fmt.Errorf("record %d: %w", i, err))
			if failFast {
				return out, errs
			}
			continue
		}
		out = append(out, r)
	}
	return out, errs
}

/********** Places normalizer **********/

// PlaceContext carries what the places source does not put in the record
// itself: which place it belongs to and how to present it.
type PlaceContext struct {
	PlaceID      string
	PropertyName string
	// SlugOverride maps the place onto a canonical listing slug shared
	// with other sources. Empty means the place id is the slug.
	SlugOverride string
}

// placeReviewID synthesizes a stable integer identity for a places review.
// The upstream source ships none, so it is a content hash of place id +
// publish time: repeated fetches of the same review yield the same id.
func placeReviewID(placeID, publishTime string) int64 {
	sum := sha1.Sum([]byte("google-" + placeID + "-" + publishTime))
	return int64(binary.BigEndian.Uint64(sum[:8]) &^ (1 << 63))
}

// NormalizeGoogle maps one raw places/maps record into the canonical shape.
// Ratings are rescaled from the 0..5 provider scale; such records carry no
// per-category breakdown, so categoryAverage mirrors overallRating.
func NormalizeGoogle(raw map[string]any, pc PlaceContext) (domain.Review, error) {
	if raw == nil {
		return domain.Review{}, fmt.Errorf("google: nil record: %w", domain.ErrMalformedRecord)
	}
	publishTime := lookupStr(raw, "publishTime")
	if publishTime == "" || pc.PlaceID == "" {
		return domain.Review{}, fmt.Errorf("google: missing identity (placeID=%q publishTime=%q): %w",
			pc.PlaceID, publishTime, domain.ErrMalformedRecord)
	}

	submittedAt := publishTime
	if t, err := time.Parse(time.RFC3339, publishTime); err == nil {
		submittedAt = t.UTC().Format(time.RFC3339)
	}

	var overall *float64
	if f := getFloat(raw, "rating"); f != nil {
		c := clampRating(*f * placesRatingScale)
		overall = &c
	}

	slug := pc.PlaceID
	if pc.SlugOverride != "" {
		slug = pc.SlugOverride
	}
	var catAvg *float64
	if overall != nil {
		v := *overall
		catAvg = &v
	}
	channel := "google"
	text := lookupStr(raw, "text")

	return domain.Review{
		ID:     placeReviewID(pc.PlaceID, publishTime),
		Source: domain.SourceGoogle,
		Listing: domain.Listing{
			Name: pc.PropertyName,
			Slug: slug,
		},
		Type:            "guest-to-host",
		Status:          "published",
		Channel:         &channel,
		SubmittedAt:     submittedAt,
		GuestName:       ptrStr(lookupStr(raw, "authorName")),
		OverallRating:   overall,
		PublicReview:    text,
		Categories:      map[string]float64{},
		CategoryAverage: catAvg,
		Tags:            DeriveTags(nil, text),
	}, nil
}
