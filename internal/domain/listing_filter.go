package domain

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// ListingFilter has AND semantics across fields, OR semantics within each field slice.
// Empty Statuses means active listings only.
type ListingFilter struct {
	ConditionStatuses []ConditionStatus
	Statuses          []ListingStatus
	SellerIDs         []string
	MinPrice          *decimal.Decimal
	MaxPrice          *decimal.Decimal
	Query             string
}

func (f ListingFilter) Validate() error {
	if f.MinPrice != nil && f.MinPrice.IsNegative() {
		return errors.New("minPrice is negative")
	}

	if f.MaxPrice != nil && f.MaxPrice.IsNegative() {
		return errors.New("maxPrice is negative")
	}

	if f.MinPrice != nil && f.MaxPrice != nil && f.MinPrice.GreaterThan(*f.MaxPrice) {
		return errors.New("minPrice is greater than maxPrice")
	}

	for _, c := range f.ConditionStatuses {
		if !c.Valid() {
			return fmt.Errorf("condition status[%s] is not valid", c)
		}
	}

	return nil
}

func (f ListingFilter) EffectiveStatuses() []ListingStatus {
	if len(f.Statuses) == 0 {
		return []ListingStatus{ListingStatusActive}
	}
	return f.Statuses
}

type TimeRange struct {
	Before *time.Time
	After  *time.Time
}

func (t TimeRange) Validate() error {
	if t.Before == nil && t.After == nil {
		return errors.New("both Before and After are nil")
	}

	if t.Before != nil && t.After != nil {
		if t.Before.Before(*t.After) {
			return fmt.Errorf("before is before After")
		}
	}

	return nil
}

// Page is a limit/offset window.
type Page struct {
	Limit  int
	Offset int
}

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
	// MaxPageOffset keeps offsets inside the int4 range the queries bind.
	MaxPageOffset = math.MaxInt32
)

// Normalize clamps the page into the accepted range.
func (p Page) Normalize() Page {
	if p.Limit <= 0 {
		p.Limit = DefaultPageLimit
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	if p.Offset > MaxPageOffset {
		p.Offset = MaxPageOffset
	}
	return p
}
