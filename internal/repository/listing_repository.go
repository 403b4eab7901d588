package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nikolayk812/wardrobe/internal/db"
	"github.com/nikolayk812/wardrobe/internal/domain"
	"github.com/nikolayk812/wardrobe/internal/port"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

var (
	ErrListingNotFound = fmt.Errorf("listing %w", domain.ErrNotFound)
)

type listingRepository struct {
	q    *db.Queries
	pool *pgxpool.Pool
}

func NewListing(pool *pgxpool.Pool) port.ListingRepository {
	return &listingRepository{
		q:    db.New(pool),
		pool: pool,
	}
}

func NewListingWithTx(tx pgx.Tx) port.ListingRepository {
	return &listingRepository{
		q:    db.New(tx),
		pool: nil, // use provided transaction instead
	}
}

func (r *listingRepository) GetListing(ctx context.Context, listingID uuid.UUID) (domain.Listing, error) {
	return r.getListing(ctx, listingID, r.q.GetListing)
}

func (r *listingRepository) GetListingForUpdate(ctx context.Context, listingID uuid.UUID) (domain.Listing, error) {
	return r.getListing(ctx, listingID, r.q.GetListingForUpdate)
}

func (r *listingRepository) getListing(ctx context.Context, listingID uuid.UUID, get func(context.Context, uuid.UUID) (db.Listing, error)) (domain.Listing, error) {
	var l domain.Listing

	dbListing, err := get(ctx, listingID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return l, ErrListingNotFound
		}
		return l, fmt.Errorf("q.GetListing: %w", err)
	}

	listing, err := mapDBListingToDomain(dbListing)
	if err != nil {
		return l, fmt.Errorf("mapDBListingToDomain: %w", err)
	}

	return listing, nil
}

func (r *listingRepository) CreateListing(ctx context.Context, listing domain.Listing) (uuid.UUID, error) {
	if listing.SellerID == "" {
		return uuid.Nil, errors.New("sellerID is empty")
	}

	status := listing.Status
	if status == "" {
		status = domain.ListingStatusActive
	}

	condition, err := json.Marshal(listing.Condition)
	if err != nil {
		return uuid.Nil, fmt.Errorf("json.Marshal[condition]: %w", err)
	}

	shipping, err := json.Marshal(mapDomainShippingOptionsToDB(listing.ShippingOptions))
	if err != nil {
		return uuid.Nil, fmt.Errorf("json.Marshal[shipping]: %w", err)
	}

	itemID := listing.ItemID
	if itemID == uuid.Nil {
		itemID = uuid.New()
	}

	listingID, err := r.q.InsertListing(ctx, db.InsertListingParams{
		ItemID:          itemID,
		SellerID:        listing.SellerID,
		Title:           listing.Title,
		Description:     listing.Description,
		Tags:            lo.Ternary(listing.Tags == nil, []string{}, listing.Tags),
		PriceAmount:     listing.Price.Amount,
		PriceCurrency:   listing.Price.Currency.String(),
		Condition:       condition,
		ShippingOptions: shipping,
		Status:          string(status),
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("q.InsertListing: %w", mapPgError(err))
	}

	return listingID, nil
}

func (r *listingRepository) UpdateStatus(ctx context.Context, listingID uuid.UUID, status domain.ListingStatus) error {
	if listingID == uuid.Nil {
		return fmt.Errorf("listingID is empty")
	}
	if status == "" {
		return fmt.Errorf("status is empty")
	}

	cmdTag, err := r.q.UpdateListingStatus(ctx, listingID, string(status))
	if err != nil {
		return fmt.Errorf("q.UpdateListingStatus: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("q.UpdateListingStatus: %w", ErrListingNotFound)
	}

	return nil
}

func (r *listingRepository) UpdateSellerStatus(ctx context.Context, listingID uuid.UUID, status domain.ListingStatus) error {
	if listingID == uuid.Nil {
		return fmt.Errorf("listingID is empty")
	}
	if status == "" {
		return fmt.Errorf("status is empty")
	}

	cmdTag, err := r.q.UpdateListingStatusUnlessHeld(ctx, listingID, string(status))
	if err != nil {
		return fmt.Errorf("q.UpdateListingStatusUnlessHeld: %w", err)
	}

	if cmdTag.RowsAffected() > 0 {
		return nil
	}

	current, err := r.GetListing(ctx, listingID)
	if err != nil {
		return fmt.Errorf("q.UpdateListingStatusUnlessHeld: %w", err)
	}

	return fmt.Errorf("q.UpdateListingStatusUnlessHeld: %w: listing is %s", domain.ErrInvalidState, current.Status)
}

func (r *listingRepository) ReserveListing(ctx context.Context, listingID uuid.UUID, buyerID string) error {
	cmdTag, err := r.q.ReserveListing(ctx, listingID, buyerID)
	if err != nil {
		return fmt.Errorf("q.ReserveListing: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("q.ReserveListing: %w: listing is not active", domain.ErrInvalidState)
	}

	return nil
}

func mapDomainListingFilterToDB(filter domain.ListingFilter, page domain.Page) db.SearchListingsParams {
	statuses := lo.Map(filter.EffectiveStatuses(), func(s domain.ListingStatus, _ int) string {
		return string(s)
	})

	conditions := lo.Map(filter.ConditionStatuses, func(c domain.ConditionStatus, _ int) string {
		return string(c)
	})

	return db.SearchListingsParams{
		Statuses:          statuses,
		ConditionStatuses: nilSliceIfEmpty(conditions),
		SellerIds:         nilSliceIfEmpty(filter.SellerIDs),
		MinPrice:          filter.MinPrice,
		MaxPrice:          filter.MaxPrice,
		Query:             filter.Query,
		Limit:             int32(page.Limit),
		Offset:            int32(page.Offset),
	}
}

func (r *listingRepository) SearchListings(ctx context.Context, filter domain.ListingFilter, page domain.Page) (domain.ListingPage, error) {
	var result domain.ListingPage

	if err := filter.Validate(); err != nil {
		return result, fmt.Errorf("filter.Validate: %w", err)
	}

	params := mapDomainListingFilterToDB(filter, page.Normalize())

	return withTx(ctx, r.pool, r.q, func(q *db.Queries) (domain.ListingPage, error) {
		dbListings, err := q.SearchListings(ctx, params)
		if err != nil {
			return result, fmt.Errorf("q.SearchListings: %w", err)
		}

		total, err := q.CountListings(ctx, params)
		if err != nil {
			return result, fmt.Errorf("q.CountListings: %w", err)
		}

		listings := make([]domain.Listing, 0, len(dbListings))
		for _, dbListing := range dbListings {
			listing, err := mapDBListingToDomain(dbListing)
			if err != nil {
				return result, fmt.Errorf("mapDBListingToDomain: %w", err)
			}
			listings = append(listings, listing)
		}

		return domain.ListingPage{Listings: listings, Total: total}, nil
	})
}

// ToggleLike flips the user's like and adjusts the counter in the same database transaction.
func (r *listingRepository) ToggleLike(ctx context.Context, listingID uuid.UUID, userID string) (bool, int64, error) {
	type toggle struct {
		liked bool
		likes int64
	}

	result, err := withTx(ctx, r.pool, r.q, func(q *db.Queries) (toggle, error) {
		removed, err := q.DeleteListingLike(ctx, listingID, userID)
		if err != nil {
			return toggle{}, fmt.Errorf("q.DeleteListingLike: %w", err)
		}

		liked, delta := false, -removed
		if removed == 0 {
			// a concurrent toggle may have inserted the same like; then delta stays 0
			inserted, err := q.InsertListingLike(ctx, listingID, userID)
			if err != nil {
				if errors.Is(mapPgError(err), domain.ErrConflict) {
					return toggle{}, fmt.Errorf("q.InsertListingLike: %w", ErrListingNotFound)
				}
				return toggle{}, fmt.Errorf("q.InsertListingLike: %w", err)
			}
			liked, delta = true, inserted
		}

		likes, err := q.AdjustListingLikes(ctx, listingID, delta)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return toggle{}, fmt.Errorf("q.AdjustListingLikes: %w", ErrListingNotFound)
			}
			return toggle{}, fmt.Errorf("q.AdjustListingLikes: %w", err)
		}

		return toggle{liked: liked, likes: likes}, nil
	})
	if err != nil {
		return false, 0, fmt.Errorf("withTx: %w", err)
	}

	return result.liked, result.likes, nil
}

func (r *listingRepository) IncrementViews(ctx context.Context, listingID uuid.UUID) (int64, error) {
	views, err := r.q.IncrementListingViews(ctx, listingID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, fmt.Errorf("q.IncrementListingViews: %w", ErrListingNotFound)
		}
		return 0, fmt.Errorf("q.IncrementListingViews: %w", err)
	}

	return views, nil
}

func (r *listingRepository) DeleteListing(ctx context.Context, listingID uuid.UUID) error {
	if listingID == uuid.Nil {
		return fmt.Errorf("listingID is empty")
	}

	cmdTag, err := r.q.DeleteListing(ctx, listingID)
	if err != nil {
		return fmt.Errorf("q.DeleteListing: %w", mapPgError(err))
	}

	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("q.DeleteListing: %w", ErrListingNotFound)
	}

	return nil
}

type dbShippingOption struct {
	Carrier       string          `json:"carrier"`
	PriceAmount   decimal.Decimal `json:"price_amount"`
	PriceCurrency string          `json:"price_currency"`
	EstimatedDays int             `json:"estimated_days"`
}

func mapDomainShippingOptionsToDB(options []domain.ShippingOption) []dbShippingOption {
	return lo.Map(options, func(o domain.ShippingOption, _ int) dbShippingOption {
		return dbShippingOption{
			Carrier:       o.Carrier,
			PriceAmount:   o.Price.Amount,
			PriceCurrency: o.Price.Currency.String(),
			EstimatedDays: o.EstimatedDays,
		}
	})
}

func mapDBShippingOptionsToDomain(raw []byte) ([]domain.ShippingOption, error) {
	var dbOptions []dbShippingOption
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &dbOptions); err != nil {
			return nil, fmt.Errorf("json.Unmarshal: %w", err)
		}
	}

	var options []domain.ShippingOption
	for _, o := range dbOptions {
		parsedCurrency, err := currency.ParseISO(o.PriceCurrency)
		if err != nil {
			return nil, fmt.Errorf("currency[%s] is not valid: %w", o.PriceCurrency, err)
		}

		options = append(options, domain.ShippingOption{
			Carrier:       o.Carrier,
			Price:         domain.Money{Amount: o.PriceAmount, Currency: parsedCurrency},
			EstimatedDays: o.EstimatedDays,
		})
	}

	return options, nil
}

func mapDBListingToDomain(dbListing db.Listing) (domain.Listing, error) {
	var l domain.Listing

	parsedCurrency, err := currency.ParseISO(dbListing.PriceCurrency)
	if err != nil {
		return l, fmt.Errorf("currency[%s] is not valid: %w", dbListing.PriceCurrency, err)
	}

	status, err := domain.ToListingStatus(dbListing.Status)
	if err != nil {
		return l, fmt.Errorf("domain.ToListingStatus[%s]: %w", dbListing.Status, err)
	}

	var condition domain.ConditionAssessment
	if err := json.Unmarshal(dbListing.Condition, &condition); err != nil {
		return l, fmt.Errorf("json.Unmarshal[condition]: %w", err)
	}

	shipping, err := mapDBShippingOptionsToDomain(dbListing.ShippingOptions)
	if err != nil {
		return l, fmt.Errorf("mapDBShippingOptionsToDomain: %w", err)
	}

	return domain.Listing{
		ID:              dbListing.ID,
		ItemID:          dbListing.ItemID,
		SellerID:        dbListing.SellerID,
		BuyerID:         dbListing.BuyerID,
		Title:           dbListing.Title,
		Description:     dbListing.Description,
		Tags:            nilSliceIfEmpty(dbListing.Tags),
		Price:           domain.Money{Amount: dbListing.PriceAmount, Currency: parsedCurrency},
		Condition:       condition,
		ShippingOptions: shipping,
		Status:          status,
		Views:           dbListing.Views,
		Likes:           dbListing.Likes,
		Watchers:        dbListing.Watchers,
		CreatedAt:       dbListing.CreatedAt,
		UpdatedAt:       dbListing.UpdatedAt,
	}, nil
}
