package db

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

const listingColumns = `id, item_id, seller_id, buyer_id, title, description, tags, price_amount, price_currency,
       condition, shipping_options, status, views, likes, watchers, created_at, updated_at`

func scanListing(row pgx.Row) (Listing, error) {
	var i Listing
	err := row.Scan(
		&i.ID,
		&i.ItemID,
		&i.SellerID,
		&i.BuyerID,
		&i.Title,
		&i.Description,
		&i.Tags,
		&i.PriceAmount,
		&i.PriceCurrency,
		&i.Condition,
		&i.ShippingOptions,
		&i.Status,
		&i.Views,
		&i.Likes,
		&i.Watchers,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

func scanListings(rows pgx.Rows) ([]Listing, error) {
	defer rows.Close()

	var items []Listing
	for rows.Next() {
		i, err := scanListing(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const insertListing = `-- name: InsertListing :one
INSERT INTO listings (item_id, seller_id, title, description, tags, price_amount, price_currency,
                      condition, shipping_options, status)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
RETURNING id`

type InsertListingParams struct {
	ItemID          uuid.UUID
	SellerID        string
	Title           string
	Description     string
	Tags            []string
	PriceAmount     decimal.Decimal
	PriceCurrency   string
	Condition       []byte
	ShippingOptions []byte
	Status          string
}

func (q *Queries) InsertListing(ctx context.Context, arg InsertListingParams) (uuid.UUID, error) {
	row := q.db.QueryRow(ctx, insertListing,
		arg.ItemID,
		arg.SellerID,
		arg.Title,
		arg.Description,
		arg.Tags,
		arg.PriceAmount,
		arg.PriceCurrency,
		arg.Condition,
		arg.ShippingOptions,
		arg.Status,
	)
	var id uuid.UUID
	err := row.Scan(&id)
	return id, err
}

const getListing = `-- name: GetListing :one
SELECT ` + listingColumns + `
FROM listings
WHERE id = $1`

func (q *Queries) GetListing(ctx context.Context, id uuid.UUID) (Listing, error) {
	return scanListing(q.db.QueryRow(ctx, getListing, id))
}

const getListingForUpdate = `-- name: GetListingForUpdate :one
SELECT ` + listingColumns + `
FROM listings
WHERE id = $1
FOR UPDATE`

func (q *Queries) GetListingForUpdate(ctx context.Context, id uuid.UUID) (Listing, error) {
	return scanListing(q.db.QueryRow(ctx, getListingForUpdate, id))
}

// buyer_id is cleared whenever a listing is reopened
const updateListingStatus = `-- name: UpdateListingStatus :execresult
UPDATE listings
SET status     = $2,
    buyer_id   = CASE WHEN $2 = 'active' THEN NULL ELSE buyer_id END,
    updated_at = NOW()
WHERE id = $1`

func (q *Queries) UpdateListingStatus(ctx context.Context, id uuid.UUID, status string) (pgconn.CommandTag, error) {
	return q.db.Exec(ctx, updateListingStatus, id, status)
}

const updateListingStatusUnlessHeld = `-- name: UpdateListingStatusUnlessHeld :execresult
UPDATE listings
SET status     = $2,
    buyer_id   = CASE WHEN $2 = 'active' THEN NULL ELSE buyer_id END,
    updated_at = NOW()
WHERE id = $1
  AND status NOT IN ('reserved', 'sold')`

func (q *Queries) UpdateListingStatusUnlessHeld(ctx context.Context, id uuid.UUID, status string) (pgconn.CommandTag, error) {
	return q.db.Exec(ctx, updateListingStatusUnlessHeld, id, status)
}

const reserveListing = `-- name: ReserveListing :execresult
UPDATE listings
SET status     = 'reserved',
    buyer_id   = $2,
    updated_at = NOW()
WHERE id = $1
  AND status = 'active'`

func (q *Queries) ReserveListing(ctx context.Context, id uuid.UUID, buyerID string) (pgconn.CommandTag, error) {
	return q.db.Exec(ctx, reserveListing, id, buyerID)
}

const listingFilterClause = `
WHERE status = ANY ($1::text[])
  AND ($2::text[] IS NULL OR condition ->> 'status' = ANY ($2::text[]))
  AND ($3::text[] IS NULL OR seller_id = ANY ($3::text[]))
  AND ($4::numeric IS NULL OR price_amount >= $4::numeric)
  AND ($5::numeric IS NULL OR price_amount <= $5::numeric)
  AND ($6::text = ''
    OR title ILIKE '%' || $6::text || '%'
    OR description ILIKE '%' || $6::text || '%'
    OR EXISTS (SELECT 1 FROM unnest(tags) AS tag WHERE tag ILIKE '%' || $6::text || '%'))`

const searchListings = `-- name: SearchListings :many
SELECT ` + listingColumns + `
FROM listings` + listingFilterClause + `
ORDER BY created_at DESC, id
LIMIT $7 OFFSET $8`

type SearchListingsParams struct {
	Statuses          []string
	ConditionStatuses []string
	SellerIds         []string
	MinPrice          *decimal.Decimal
	MaxPrice          *decimal.Decimal
	Query             string
	Limit             int32
	Offset            int32
}

func (q *Queries) SearchListings(ctx context.Context, arg SearchListingsParams) ([]Listing, error) {
	rows, err := q.db.Query(ctx, searchListings,
		arg.Statuses,
		arg.ConditionStatuses,
		arg.SellerIds,
		arg.MinPrice,
		arg.MaxPrice,
		arg.Query,
		arg.Limit,
		arg.Offset,
	)
	if err != nil {
		return nil, err
	}
	return scanListings(rows)
}

const countListings = `-- name: CountListings :one
SELECT COUNT(*)
FROM listings` + listingFilterClause

func (q *Queries) CountListings(ctx context.Context, arg SearchListingsParams) (int64, error) {
	row := q.db.QueryRow(ctx, countListings,
		arg.Statuses,
		arg.ConditionStatuses,
		arg.SellerIds,
		arg.MinPrice,
		arg.MaxPrice,
		arg.Query,
	)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const incrementListingViews = `-- name: IncrementListingViews :one
UPDATE listings
SET views = views + 1
WHERE id = $1
RETURNING views`

func (q *Queries) IncrementListingViews(ctx context.Context, id uuid.UUID) (int64, error) {
	row := q.db.QueryRow(ctx, incrementListingViews, id)
	var views int64
	err := row.Scan(&views)
	return views, err
}

const insertListingLike = `-- name: InsertListingLike :execrows
INSERT INTO listing_likes (listing_id, user_id)
VALUES ($1, $2)
ON CONFLICT DO NOTHING`

func (q *Queries) InsertListingLike(ctx context.Context, listingID uuid.UUID, userID string) (int64, error) {
	result, err := q.db.Exec(ctx, insertListingLike, listingID, userID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const deleteListingLike = `-- name: DeleteListingLike :execrows
DELETE
FROM listing_likes
WHERE listing_id = $1
  AND user_id = $2`

func (q *Queries) DeleteListingLike(ctx context.Context, listingID uuid.UUID, userID string) (int64, error) {
	result, err := q.db.Exec(ctx, deleteListingLike, listingID, userID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const adjustListingLikes = `-- name: AdjustListingLikes :one
UPDATE listings
SET likes = GREATEST(likes + $2, 0)
WHERE id = $1
RETURNING likes`

func (q *Queries) AdjustListingLikes(ctx context.Context, id uuid.UUID, delta int64) (int64, error) {
	row := q.db.QueryRow(ctx, adjustListingLikes, id, delta)
	var likes int64
	err := row.Scan(&likes)
	return likes, err
}

const deleteListing = `-- name: DeleteListing :execresult
DELETE
FROM listings
WHERE id = $1`

func (q *Queries) DeleteListing(ctx context.Context, id uuid.UUID) (pgconn.CommandTag, error) {
	return q.db.Exec(ctx, deleteListing, id)
}
