package repository_test

import (
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nikolayk812/wardrobe/internal/domain"
	"github.com/nikolayk812/wardrobe/internal/port"
	"github.com/nikolayk812/wardrobe/internal/repository"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"go.uber.org/goleak"
)

type listingRepositorySuite struct {
	suite.Suite

	pool      *pgxpool.Pool
	repo      port.ListingRepository
	container testcontainers.Container
}

// entry point to run the tests in the suite
func TestListingRepositorySuite(t *testing.T) {
	// Verifies no leaks after all tests in the suite run.
	defer goleak.VerifyNone(t)

	suite.Run(t, new(listingRepositorySuite))
}

// before all tests in the suite
func (suite *listingRepositorySuite) SetupSuite() {
	var err error

	suite.container, suite.pool, err = startDatabase(suite.T().Context())
	suite.Require().NoError(err)

	suite.repo = repository.NewListing(suite.pool)
}

// after all tests in the suite
func (suite *listingRepositorySuite) TearDownSuite() {
	ctx := suite.T().Context()

	if suite.pool != nil {
		suite.pool.Close()
	}
	if suite.container != nil {
		suite.NoError(suite.container.Terminate(ctx))
	}
}

func (suite *listingRepositorySuite) TearDownTest() {
	suite.NoError(truncateAll(suite.T().Context(), suite.pool))
}

func (suite *listingRepositorySuite) TestCreateListing() {
	tests := []struct {
		name        string
		listingFunc func() domain.Listing
		wantStatus  domain.ListingStatus
		wantError   string
	}{
		{
			name:        "valid listing with all fields: ok",
			listingFunc: fakeListing,
			wantStatus:  domain.ListingStatusActive,
		},
		{
			name: "draft, no tags, no shipping: ok",
			listingFunc: func() domain.Listing {
				l := fakeListing()
				l.Tags = nil
				l.ShippingOptions = nil
				l.Status = domain.ListingStatusDraft
				return l
			},
			wantStatus: domain.ListingStatusDraft,
		},
		{
			name: "no seller: fail",
			listingFunc: func() domain.Listing {
				l := fakeListing()
				l.SellerID = ""
				return l
			},
			wantError: "sellerID is empty",
		},
		{
			name: "negative price: check violation",
			listingFunc: func() domain.Listing {
				l := fakeListing()
				l.Price.Amount = decimal.NewFromInt(-1)
				return l
			},
			wantError: "q.InsertListing: validation error",
		},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			t := suite.T()
			ctx := t.Context()

			ttListing := tt.listingFunc()

			listingID, err := suite.repo.CreateListing(ctx, ttListing)
			if tt.wantError != "" {
				require.EqualError(t, err, tt.wantError)
				return
			}
			require.NoError(t, err)

			actual, err := suite.repo.GetListing(ctx, listingID)
			require.NoError(t, err)

			expected := ttListing
			expected.Status = tt.wantStatus

			assert.Equal(t, listingID, actual.ID)
			assertListing(t, expected, actual)
		})
	}
}

func (suite *listingRepositorySuite) TestGetListing_NotFound() {
	_, err := suite.repo.GetListing(suite.T().Context(), uuid.New())
	require.ErrorIs(suite.T(), err, repository.ErrListingNotFound)
	require.ErrorIs(suite.T(), err, domain.ErrNotFound)
}

func (suite *listingRepositorySuite) TestUpdateStatus() {
	tests := []struct {
		name         string
		newStatus    domain.ListingStatus
		targetIDFunc func(uuid.UUID) uuid.UUID
		wantError    string
	}{
		{
			name:      "existing listing: ok",
			newStatus: domain.ListingStatusRemoved,
		},
		{
			name:         "non-existing listing: not found",
			newStatus:    domain.ListingStatusRemoved,
			targetIDFunc: func(uuid.UUID) uuid.UUID { return uuid.New() },
			wantError:    "q.UpdateListingStatus: listing not found",
		},
		{
			name:         "empty listing ID: error",
			newStatus:    domain.ListingStatusRemoved,
			targetIDFunc: func(uuid.UUID) uuid.UUID { return uuid.Nil },
			wantError:    "listingID is empty",
		},
		{
			name:      "empty status: error",
			newStatus: "",
			wantError: "status is empty",
		},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			t := suite.T()
			ctx := t.Context()

			listingID, err := suite.repo.CreateListing(ctx, fakeListing())
			require.NoError(t, err)

			targetID := listingID
			if tt.targetIDFunc != nil {
				targetID = tt.targetIDFunc(listingID)
			}

			err = suite.repo.UpdateStatus(ctx, targetID, tt.newStatus)
			if tt.wantError != "" {
				require.EqualError(t, err, tt.wantError)
				return
			}
			require.NoError(t, err)

			actual, err := suite.repo.GetListing(ctx, listingID)
			require.NoError(t, err)
			assert.Equal(t, tt.newStatus, actual.Status)
		})
	}
}

func (suite *listingRepositorySuite) TestReserveListing() {
	t := suite.T()
	ctx := t.Context()

	listingID, err := suite.repo.CreateListing(ctx, fakeListing())
	require.NoError(t, err)

	buyerID := gofakeit.UUID()
	require.NoError(t, suite.repo.ReserveListing(ctx, listingID, buyerID))

	reserved, err := suite.repo.GetListing(ctx, listingID)
	require.NoError(t, err)
	assert.Equal(t, domain.ListingStatusReserved, reserved.Status)
	assert.Equal(t, lo.ToPtr(buyerID), reserved.BuyerID)

	// a reserved listing cannot be reserved again
	err = suite.repo.ReserveListing(ctx, listingID, gofakeit.UUID())
	require.EqualError(t, err, "q.ReserveListing: invalid state: listing is not active")

	// reopening clears the buyer
	require.NoError(t, suite.repo.UpdateStatus(ctx, listingID, domain.ListingStatusActive))
	reopened, err := suite.repo.GetListing(ctx, listingID)
	require.NoError(t, err)
	assert.Nil(t, reopened.BuyerID)
}

func (suite *listingRepositorySuite) TestUpdateSellerStatus() {
	tests := []struct {
		name       string
		current    domain.ListingStatus
		next       domain.ListingStatus
		wantError  string
		wantStatus domain.ListingStatus
	}{
		{
			name:       "active to removed: ok",
			current:    domain.ListingStatusActive,
			next:       domain.ListingStatusRemoved,
			wantStatus: domain.ListingStatusRemoved,
		},
		{
			name:       "draft to active: ok",
			current:    domain.ListingStatusDraft,
			next:       domain.ListingStatusActive,
			wantStatus: domain.ListingStatusActive,
		},
		{
			name:       "reserved: invalid state",
			current:    domain.ListingStatusReserved,
			next:       domain.ListingStatusRemoved,
			wantError:  "q.UpdateListingStatusUnlessHeld: invalid state: listing is reserved",
			wantStatus: domain.ListingStatusReserved,
		},
		{
			name:       "sold: invalid state",
			current:    domain.ListingStatusSold,
			next:       domain.ListingStatusActive,
			wantError:  "q.UpdateListingStatusUnlessHeld: invalid state: listing is sold",
			wantStatus: domain.ListingStatusSold,
		},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			t := suite.T()
			ctx := t.Context()

			listingID, err := suite.repo.CreateListing(ctx, fakeListing())
			require.NoError(t, err)
			require.NoError(t, suite.repo.UpdateStatus(ctx, listingID, tt.current))

			err = suite.repo.UpdateSellerStatus(ctx, listingID, tt.next)
			if tt.wantError != "" {
				require.EqualError(t, err, tt.wantError)
				require.ErrorIs(t, err, domain.ErrInvalidState)
			} else {
				require.NoError(t, err)
			}

			actual, err := suite.repo.GetListing(ctx, listingID)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, actual.Status)
		})
	}

	err := suite.repo.UpdateSellerStatus(suite.T().Context(), uuid.New(), domain.ListingStatusRemoved)
	require.ErrorIs(suite.T(), err, domain.ErrNotFound)
}

func (suite *listingRepositorySuite) TestSearchListings() {
	t := suite.T()
	ctx := t.Context()

	sellerID := gofakeit.UUID()

	cheap := fakeListing()
	cheap.SellerID = sellerID
	cheap.Title = "Vintage denim jacket"
	cheap.Price.Amount = decimal.RequireFromString("40.00")
	cheap.Condition.Status = domain.ConditionGood

	pricey := fakeListing()
	pricey.SellerID = sellerID
	pricey.Title = "Leather boots"
	pricey.Tags = []string{"denim-friendly"}
	pricey.Price.Amount = decimal.RequireFromString("400.00")

	draft := fakeListing()
	draft.Title = "Denim skirt"
	draft.Status = domain.ListingStatusDraft

	other := fakeListing()
	other.Title = "Silk scarf"
	other.Price.Amount = decimal.RequireFromString("90.00")

	ids := make(map[string]uuid.UUID)
	for _, l := range []domain.Listing{cheap, pricey, draft, other} {
		id, err := suite.repo.CreateListing(ctx, l)
		require.NoError(t, err)
		ids[l.Title] = id
	}

	tests := []struct {
		name      string
		filter    domain.ListingFilter
		page      domain.Page
		wantIDs   []uuid.UUID
		wantTotal int64
		wantError string
	}{
		{
			name:      "default filter returns active only",
			filter:    domain.ListingFilter{},
			wantIDs:   []uuid.UUID{ids["Silk scarf"], ids["Leather boots"], ids["Vintage denim jacket"]},
			wantTotal: 3,
		},
		{
			name:      "query matches title and tags",
			filter:    domain.ListingFilter{Query: "denim"},
			wantIDs:   []uuid.UUID{ids["Leather boots"], ids["Vintage denim jacket"]},
			wantTotal: 2,
		},
		{
			name:      "draft status requested",
			filter:    domain.ListingFilter{Statuses: []domain.ListingStatus{domain.ListingStatusDraft}},
			wantIDs:   []uuid.UUID{ids["Denim skirt"]},
			wantTotal: 1,
		},
		{
			name: "price range",
			filter: domain.ListingFilter{
				MinPrice: lo.ToPtr(decimal.RequireFromString("50")),
				MaxPrice: lo.ToPtr(decimal.RequireFromString("400")),
			},
			wantIDs:   []uuid.UUID{ids["Silk scarf"], ids["Leather boots"]},
			wantTotal: 2,
		},
		{
			name:      "seller and condition",
			filter:    domain.ListingFilter{SellerIDs: []string{sellerID}, ConditionStatuses: []domain.ConditionStatus{domain.ConditionGood}},
			wantIDs:   []uuid.UUID{ids["Vintage denim jacket"]},
			wantTotal: 1,
		},
		{
			name:      "second page keeps the total",
			filter:    domain.ListingFilter{},
			page:      domain.Page{Limit: 2, Offset: 2},
			wantIDs:   []uuid.UUID{ids["Vintage denim jacket"]},
			wantTotal: 3,
		},
		{
			name:      "invalid price range: fail",
			filter:    domain.ListingFilter{MinPrice: lo.ToPtr(decimal.NewFromInt(10)), MaxPrice: lo.ToPtr(decimal.NewFromInt(1))},
			wantError: "filter.Validate: minPrice is greater than maxPrice",
		},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			t := suite.T()

			page, err := suite.repo.SearchListings(t.Context(), tt.filter, tt.page)
			if tt.wantError != "" {
				require.EqualError(t, err, tt.wantError)
				return
			}
			require.NoError(t, err)

			actualIDs := lo.Map(page.Listings, func(l domain.Listing, _ int) uuid.UUID { return l.ID })
			assert.Equal(t, tt.wantIDs, actualIDs)
			assert.Equal(t, tt.wantTotal, page.Total)
		})
	}
}

func (suite *listingRepositorySuite) TestToggleLike() {
	t := suite.T()
	ctx := t.Context()

	listingID, err := suite.repo.CreateListing(ctx, fakeListing())
	require.NoError(t, err)

	alice, bob := gofakeit.UUID(), gofakeit.UUID()

	liked, likes, err := suite.repo.ToggleLike(ctx, listingID, alice)
	require.NoError(t, err)
	assert.True(t, liked)
	assert.Equal(t, int64(1), likes)

	liked, likes, err = suite.repo.ToggleLike(ctx, listingID, bob)
	require.NoError(t, err)
	assert.True(t, liked)
	assert.Equal(t, int64(2), likes)

	liked, likes, err = suite.repo.ToggleLike(ctx, listingID, alice)
	require.NoError(t, err)
	assert.False(t, liked)
	assert.Equal(t, int64(1), likes)

	_, _, err = suite.repo.ToggleLike(ctx, uuid.New(), alice)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func (suite *listingRepositorySuite) TestIncrementViews() {
	t := suite.T()
	ctx := t.Context()

	listingID, err := suite.repo.CreateListing(ctx, fakeListing())
	require.NoError(t, err)

	for want := int64(1); want <= 3; want++ {
		views, err := suite.repo.IncrementViews(ctx, listingID)
		require.NoError(t, err)
		assert.Equal(t, want, views)
	}

	_, err = suite.repo.IncrementViews(ctx, uuid.New())
	require.EqualError(t, err, "q.IncrementListingViews: listing not found")
}

func (suite *listingRepositorySuite) TestDeleteListing() {
	t := suite.T()
	ctx := t.Context()

	listingID, err := suite.repo.CreateListing(ctx, fakeListing())
	require.NoError(t, err)

	require.NoError(t, suite.repo.DeleteListing(ctx, listingID))

	err = suite.repo.DeleteListing(ctx, listingID)
	require.EqualError(t, err, "q.DeleteListing: listing not found")

	err = suite.repo.DeleteListing(ctx, uuid.Nil)
	require.EqualError(t, err, "listingID is empty")
}
