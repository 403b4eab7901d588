package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/nikolayk812/wardrobe/internal/domain"
	"github.com/nikolayk812/wardrobe/internal/port"
)

const (
	minTitleLength = 3
	maxTitleLength = 120

	maxAuthenticityRating = 5
)

type ListingService struct {
	listings port.ListingRepository
	logger   *slog.Logger
}

func NewListingService(listings port.ListingRepository, logger *slog.Logger) (*ListingService, error) {
	if listings == nil {
		return nil, fmt.Errorf("listings is nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &ListingService{
		listings: listings,
		logger:   logger,
	}, nil
}

func validateListing(l domain.Listing) error {
	if l.SellerID == "" {
		return fmt.Errorf("%w: sellerID is empty", domain.ErrValidation)
	}

	titleLen := utf8.RuneCountInString(strings.TrimSpace(l.Title))
	if titleLen < minTitleLength || titleLen > maxTitleLength {
		return fmt.Errorf("%w: title must be %d..%d characters", domain.ErrValidation, minTitleLength, maxTitleLength)
	}

	if !l.Price.Amount.IsPositive() {
		return fmt.Errorf("%w: price must be positive", domain.ErrValidation)
	}

	if !l.Condition.Status.Valid() {
		return fmt.Errorf("%w: condition status[%s] is not valid", domain.ErrValidation, l.Condition.Status)
	}

	if r := l.Condition.AuthenticityRating; r < 0 || r > maxAuthenticityRating {
		return fmt.Errorf("%w: authenticity rating must be 0..%d", domain.ErrValidation, maxAuthenticityRating)
	}

	for i, opt := range l.ShippingOptions {
		if opt.Carrier == "" {
			return fmt.Errorf("%w: shipping option[%d] has no carrier", domain.ErrValidation, i)
		}
		if opt.Price.Amount.IsNegative() || opt.EstimatedDays < 0 {
			return fmt.Errorf("%w: shipping option[%d] is negative", domain.ErrValidation, i)
		}
		if opt.Price.Currency != l.Price.Currency {
			return fmt.Errorf("%w: shipping option[%d] currency differs from price", domain.ErrValidation, i)
		}
	}

	switch l.Status {
	case "", domain.ListingStatusDraft, domain.ListingStatusActive:
	default:
		return fmt.Errorf("%w: a new listing cannot be %s", domain.ErrValidation, l.Status)
	}

	return nil
}

func (s *ListingService) CreateListing(ctx context.Context, l domain.Listing) (domain.Listing, error) {
	l.Title = strings.TrimSpace(l.Title)
	if err := validateListing(l); err != nil {
		return domain.Listing{}, err
	}

	id, err := s.listings.CreateListing(ctx, l)
	if err != nil {
		return domain.Listing{}, fmt.Errorf("listings.CreateListing: %w", err)
	}

	s.logger.Info("listing created", "method", "ListingService.CreateListing", "listing_id", id, "seller_id", l.SellerID)

	return s.fetch(ctx, id)
}

// GetListing returns the listing and counts the view.
func (s *ListingService) GetListing(ctx context.Context, listingID uuid.UUID) (domain.Listing, error) {
	views, err := s.listings.IncrementViews(ctx, listingID)
	if err != nil {
		return domain.Listing{}, fmt.Errorf("listings.IncrementViews: %w", err)
	}

	l, err := s.fetch(ctx, listingID)
	if err != nil {
		return l, err
	}
	l.Views = max(l.Views, views)

	return l, nil
}

func (s *ListingService) SearchListings(ctx context.Context, filter domain.ListingFilter, page domain.Page) (domain.ListingPage, error) {
	if err := filter.Validate(); err != nil {
		return domain.ListingPage{}, fmt.Errorf("%w: %w", domain.ErrValidation, err)
	}

	result, err := s.listings.SearchListings(ctx, filter, page.Normalize())
	if err != nil {
		return result, fmt.Errorf("listings.SearchListings: %w", err)
	}

	return result, nil
}

func (s *ListingService) ToggleLike(ctx context.Context, listingID uuid.UUID, userID string) (bool, int64, error) {
	if userID == "" {
		return false, 0, fmt.Errorf("%w: userID is empty", domain.ErrValidation)
	}

	liked, likes, err := s.listings.ToggleLike(ctx, listingID, userID)
	if err != nil {
		return false, 0, fmt.Errorf("listings.ToggleLike: %w", err)
	}

	return liked, likes, nil
}

// SetStatus lets the seller publish, unpublish or remove a listing. Reserved and
// sold listings belong to an open transaction and cannot be changed here.
func (s *ListingService) SetStatus(ctx context.Context, listingID uuid.UUID, status domain.ListingStatus, callerID string) (domain.Listing, error) {
	if !status.SellerSettable() {
		return domain.Listing{}, fmt.Errorf("%w: status %s cannot be set by the seller", domain.ErrValidation, status)
	}

	l, err := s.fetch(ctx, listingID)
	if err != nil {
		return l, err
	}

	if l.SellerID != callerID {
		return domain.Listing{}, fmt.Errorf("%w: only the seller can change the listing status", domain.ErrForbidden)
	}

	switch l.Status {
	case domain.ListingStatusReserved, domain.ListingStatusSold:
		return domain.Listing{}, fmt.Errorf("%w: listing is %s", domain.ErrInvalidState, l.Status)
	}

	// a transaction may reserve the listing after the read above
	if err := s.listings.UpdateSellerStatus(ctx, listingID, status); err != nil {
		return domain.Listing{}, fmt.Errorf("listings.UpdateSellerStatus: %w", err)
	}

	return s.fetch(ctx, listingID)
}

func (s *ListingService) fetch(ctx context.Context, listingID uuid.UUID) (domain.Listing, error) {
	l, err := s.listings.GetListing(ctx, listingID)
	if err != nil {
		return l, fmt.Errorf("listings.GetListing: %w", err)
	}
	return l, nil
}
