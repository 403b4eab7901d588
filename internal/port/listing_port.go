package port

import (
	"context"

	"github.com/google/uuid"
	"github.com/nikolayk812/wardrobe/internal/domain"
)

// ListingRepository persists listings. It performs no status validation;
// the transaction workflow decides when a status write is legal.
type ListingRepository interface {
	GetListing(ctx context.Context, listingID uuid.UUID) (domain.Listing, error)
	GetListingForUpdate(ctx context.Context, listingID uuid.UUID) (domain.Listing, error)

	SearchListings(ctx context.Context, filter domain.ListingFilter, page domain.Page) (domain.ListingPage, error)

	CreateListing(ctx context.Context, listing domain.Listing) (uuid.UUID, error)

	UpdateStatus(ctx context.Context, listingID uuid.UUID, status domain.ListingStatus) error
	ReserveListing(ctx context.Context, listingID uuid.UUID, buyerID string) error
	// UpdateSellerStatus fails with domain.ErrInvalidState while the listing is reserved or sold.
	UpdateSellerStatus(ctx context.Context, listingID uuid.UUID, status domain.ListingStatus) error

	ToggleLike(ctx context.Context, listingID uuid.UUID, userID string) (liked bool, likes int64, err error)
	IncrementViews(ctx context.Context, listingID uuid.UUID) (int64, error)

	DeleteListing(ctx context.Context, listingID uuid.UUID) error
}
