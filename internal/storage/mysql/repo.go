package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"flex_reviews/internal/domain"
)

func valStr(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

func valF64(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}

// valTime converts the canonical RFC3339 string to a driver value;
// empty or unparseable degrades to NULL.
func valTime(iso string) any {
	if t, err := time.Parse(time.RFC3339, iso); err == nil {
		return t.UTC()
	}
	return nil
}

// Repo archives canonical review records, keyed (source, review_id).
type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

func (r *Repo) UpsertReviews(ctx context.Context, rs []domain.Review) error {
	if len(rs) == 0 {
		return nil
	}
	values := make([]string, 0, len(rs))
	args := make([]any, 0, len(rs)*14)
	for _, rv := range rs {
		cats, err := json.Marshal(rv.Categories)
		if err != nil {
			return err
		}
		tags, err := json.Marshal(rv.Tags)
		if err != nil {
			return err
		}
		values = append(values, "(?,?,?,?,?,?,?,?,?,?,?,?,?,?)")
		args = append(args,
			string(rv.Source),
			rv.ID,
			rv.Listing.Name,
			rv.Listing.Slug,
			rv.Type,
			rv.Status,
			valStr(rv.Channel),
			valTime(rv.SubmittedAt),
			valStr(rv.GuestName),
			valF64(rv.OverallRating),
			rv.PublicReview,
			string(cats),
			valF64(rv.CategoryAverage),
			string(tags),
		)
	}
	sqlStr := insertReviewsPrefix + strings.Join(values, ",") + insertReviewsOnDup
	_, err := r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *Repo) ListByListing(ctx context.Context, slug string, limit int) ([]domain.Review, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.QueryContext(ctx, listByListingSQL, slug, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Review
	for rows.Next() {
		var (
			rv        domain.Review
			source    string
			channel   sql.NullString
			submitted sql.NullTime
			guest     sql.NullString
			overall   sql.NullFloat64
			catsJSON  []byte
			catAvg    sql.NullFloat64
			tagsJSON  []byte
		)
		if err := rows.Scan(
			&source,
			&rv.ID,
			&rv.Listing.Name,
			&rv.Listing.Slug,
			&rv.Type,
			&rv.Status,
			&channel,
			&submitted,
			&guest,
			&overall,
			&rv.PublicReview,
			&catsJSON,
			&catAvg,
			&tagsJSON,
		); err != nil {
			return nil, err
		}
		rv.Source = domain.Source(source)
		if channel.Valid {
			c := channel.String
			rv.Channel = &c
		}
		if submitted.Valid {
			rv.SubmittedAt = submitted.Time.UTC().Format(time.RFC3339)
		}
		if guest.Valid {
			g := guest.String
			rv.GuestName = &g
		}
		if overall.Valid {
			v := overall.Float64
			rv.OverallRating = &v
		}
		if catAvg.Valid {
			v := catAvg.Float64
			rv.CategoryAverage = &v
		}
		rv.Categories = map[string]float64{}
		if len(catsJSON) > 0 {
			_ = json.Unmarshal(catsJSON, &rv.Categories)
		}
		rv.Tags = []string{}
		if len(tagsJSON) > 0 {
			_ = json.Unmarshal(tagsJSON, &rv.Tags)
		}
		out = append(out, rv)
	}
	return out, rows.Err()
}
