package db

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Listing struct {
	ID              uuid.UUID
	ItemID          uuid.UUID
	SellerID        string
	BuyerID         *string
	Title           string
	Description     string
	Tags            []string
	PriceAmount     decimal.Decimal
	PriceCurrency   string
	Condition       []byte
	ShippingOptions []byte
	Status          string
	Views           int64
	Likes           int64
	Watchers        int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type Transaction struct {
	ID                uuid.UUID
	ListingID         uuid.UUID
	BuyerID           string
	SellerID          string
	Amount            decimal.Decimal
	Currency          string
	PlatformFee       decimal.Decimal
	PaymentFee        decimal.Decimal
	ShippingFee       decimal.Decimal
	NetAmount         decimal.Decimal
	Status            string
	PaymentMethod     string
	PaymentID         *string
	ShippingAddress   []byte
	TrackingNumber    *string
	EstimatedDelivery *time.Time
	ActualDelivery    *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

type TransactionEvent struct {
	ID            uuid.UUID
	TransactionID uuid.UUID
	EventType     string
	Payload       []byte
	Actor         string
	CreatedAt     time.Time
}

type Follow struct {
	FollowerID string
	FolloweeID string
	CreatedAt  time.Time
}

type Post struct {
	ID            uuid.UUID
	AuthorID      string
	Content       string
	Category      string
	Visibility    string
	ImageUrls     []string
	ListingID     *uuid.UUID
	LikesCount    int64
	CommentsCount int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type Comment struct {
	ID        uuid.UUID
	PostID    uuid.UUID
	AuthorID  string
	Content   string
	CreatedAt time.Time
}
