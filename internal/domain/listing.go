package domain

import (
	"time"

	"github.com/google/uuid"
)

type Listing struct {
	ID       uuid.UUID
	ItemID   uuid.UUID
	SellerID string
	BuyerID  *string

	Title       string
	Description string
	Tags        []string
	Price       Money

	Condition       ConditionAssessment
	ShippingOptions []ShippingOption
	Status          ListingStatus

	Views    int64
	Likes    int64
	Watchers int64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ConditionAssessment is persisted verbatim as JSON.
type ConditionAssessment struct {
	Status             ConditionStatus `json:"status"`
	Description        string          `json:"description,omitempty"`
	Defects            []string        `json:"defects,omitempty"`
	WearSigns          []string        `json:"wear_signs,omitempty"`
	Alterations        []string        `json:"alterations,omitempty"`
	AuthenticityRating int             `json:"authenticity_rating"`
	HasBox             bool            `json:"has_box"`
	HasTags            bool            `json:"has_tags"`
	HasReceipt         bool            `json:"has_receipt"`
}

type ConditionStatus string

const (
	ConditionNewWithTags ConditionStatus = "new_with_tags"
	ConditionNew         ConditionStatus = "new"
	ConditionExcellent   ConditionStatus = "excellent"
	ConditionGood        ConditionStatus = "good"
	ConditionFair        ConditionStatus = "fair"
)

var validConditionStatuses = map[ConditionStatus]struct{}{
	ConditionNewWithTags: {},
	ConditionNew:         {},
	ConditionExcellent:   {},
	ConditionGood:        {},
	ConditionFair:        {},
}

func (c ConditionStatus) Valid() bool {
	_, ok := validConditionStatuses[c]
	return ok
}

type ShippingOption struct {
	Carrier       string
	Price         Money
	EstimatedDays int
}

// ListingPage is one page of search results plus the unpaginated total.
type ListingPage struct {
	Listings []Listing
	Total    int64
}
