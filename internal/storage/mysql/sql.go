package mysql

// Multi-row upsert; rows are appended as value tuples in repo.go.
const insertReviewsPrefix = `
INSERT INTO reviews
  (source, review_id, listing_name, listing_slug, ` + "`type`" + `, status, channel,
   submitted_at, guest_name, overall_rating, public_review, categories,
   category_average, tags)
VALUES `

const insertReviewsOnDup = `
ON DUPLICATE KEY UPDATE
  listing_name     = VALUES(listing_name),
  listing_slug     = VALUES(listing_slug),
  ` + "`type`" + `          = VALUES(` + "`type`" + `),
  status           = VALUES(status),
  channel          = VALUES(channel),
  submitted_at     = VALUES(submitted_at),
  guest_name       = VALUES(guest_name),
  overall_rating   = VALUES(overall_rating),
  public_review    = VALUES(public_review),
  categories       = VALUES(categories),
  category_average = VALUES(category_average),
  tags             = VALUES(tags)`

const listByListingSQL = `
SELECT source, review_id, listing_name, listing_slug, ` + "`type`" + `, status, channel,
       submitted_at, guest_name, overall_rating, public_review, categories,
       category_average, tags
FROM reviews
WHERE listing_slug = ?
ORDER BY submitted_at DESC, review_id DESC
LIMIT ?`
