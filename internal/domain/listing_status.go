package domain

import "errors"

type ListingStatus string

// remember to add new statuses to the validListingStatuses map
const (
	ListingStatusDraft       ListingStatus = "draft"
	ListingStatusActive      ListingStatus = "active"
	ListingStatusReserved    ListingStatus = "reserved"
	ListingStatusSold        ListingStatus = "sold"
	ListingStatusExpired     ListingStatus = "expired"
	ListingStatusRemoved     ListingStatus = "removed"
	ListingStatusUnderReview ListingStatus = "under_review"
)

var validListingStatuses = map[ListingStatus]struct{}{
	ListingStatusDraft:       {},
	ListingStatusActive:      {},
	ListingStatusReserved:    {},
	ListingStatusSold:        {},
	ListingStatusExpired:     {},
	ListingStatusRemoved:     {},
	ListingStatusUnderReview: {},
}

func ToListingStatus(s string) (ListingStatus, error) {
	status := ListingStatus(s)
	if _, ok := validListingStatuses[status]; ok {
		return status, nil
	}

	return "", errors.New("invalid listing status")
}

func ListingStatuses() []ListingStatus {
	result := make([]ListingStatus, 0, len(validListingStatuses))
	for status := range validListingStatuses {
		result = append(result, status)
	}
	return result
}

// SellerSettable reports whether a seller may set the status directly.
// reserved and sold are owned by the transaction workflow.
func (s ListingStatus) SellerSettable() bool {
	switch s {
	case ListingStatusDraft, ListingStatusActive, ListingStatusRemoved:
		return true
	default:
		return false
	}
}
