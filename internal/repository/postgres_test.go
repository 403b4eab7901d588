package repository_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nikolayk812/wardrobe/internal/db"
	"github.com/nikolayk812/wardrobe/internal/domain"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"golang.org/x/text/currency"
)

func startPostgres(ctx context.Context) (testcontainers.Container, string, error) {
	container, err := postgres.Run(ctx, "postgres:17-alpine",
		postgres.WithDatabase("wardrobe"),
		postgres.WithUsername("wardrobe"),
		postgres.WithPassword("wardrobe"),
		postgres.BasicWaitStrategies(),
	)
	if err != nil {
		return nil, "", fmt.Errorf("postgres.Run: %w", err)
	}

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return container, "", fmt.Errorf("container.ConnectionString: %w", err)
	}

	return container, connStr, nil
}

// startDatabase runs a migrated postgres and returns a pool with the decimal codec registered.
func startDatabase(ctx context.Context) (testcontainers.Container, *pgxpool.Pool, error) {
	container, connStr, err := startPostgres(ctx)
	if err != nil {
		return container, nil, err
	}

	pool, err := db.NewPool(ctx, connStr)
	if err != nil {
		return container, nil, fmt.Errorf("db.NewPool: %w", err)
	}

	if err := db.Migrate(ctx, pool); err != nil {
		return container, pool, fmt.Errorf("db.Migrate: %w", err)
	}

	return container, pool, nil
}

func truncateAll(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, "TRUNCATE TABLE listings, listing_likes, transactions, transaction_events, follows, posts, post_likes, comments CASCADE")
	return err
}

func randomCurrency() currency.Unit {
	var (
		result currency.Unit
		err    error
	)

	for {
		// tag is not a recognized currency
		result, err = currency.ParseISO(gofakeit.CurrencyShort())
		if err == nil {
			break
		}
	}

	return result
}

func randomPrice() decimal.Decimal {
	return decimal.NewFromFloat(gofakeit.Price(1, 500)).Round(2)
}

func fakeListing() domain.Listing {
	currencyUnit := randomCurrency() // shipping options share the listing currency

	var tags []string
	for i := 0; i < gofakeit.Number(1, 3); i++ {
		tags = append(tags, gofakeit.Color())
	}

	return domain.Listing{
		ItemID:      uuid.New(),
		SellerID:    gofakeit.UUID(),
		Title:       gofakeit.ProductName(),
		Description: gofakeit.Sentence(8),
		Tags:        tags,
		Price:       domain.NewMoney(randomPrice(), currencyUnit),
		Condition: domain.ConditionAssessment{
			Status:             domain.ConditionExcellent,
			Description:        gofakeit.Sentence(5),
			Defects:            []string{"small stain on cuff"},
			AuthenticityRating: gofakeit.Number(0, 5),
			HasTags:            gofakeit.Bool(),
		},
		ShippingOptions: []domain.ShippingOption{{
			Carrier:       gofakeit.Company(),
			Price:         domain.NewMoney(randomPrice(), currencyUnit),
			EstimatedDays: gofakeit.Number(1, 10),
		}},
	}
}

func fakeTransaction(listing domain.Listing) domain.Transaction {
	amount := listing.Price.Amount.Add(listing.ShippingOptions[0].Price.Amount)
	_, fees := domain.DefaultFeeSchedule().Price(listing.Price.Amount, listing.ShippingOptions[0].Price.Amount)

	return domain.Transaction{
		ListingID:     listing.ID,
		BuyerID:       gofakeit.UUID(),
		SellerID:      listing.SellerID,
		Amount:        domain.NewMoney(amount, listing.Price.Currency),
		Fees:          fees,
		PaymentMethod: gofakeit.RandomString([]string{"pix", "credit_card", "boleto"}),
		ShippingAddress: domain.Address{
			Recipient:  gofakeit.Name(),
			Street:     gofakeit.Street(),
			City:       gofakeit.City(),
			State:      gofakeit.StateAbr(),
			PostalCode: gofakeit.Zip(),
			Country:    "BR",
		},
		EstimatedDelivery: lo.ToPtr(time.Now().UTC().AddDate(0, 0, 5).Truncate(time.Microsecond)),
	}
}

var (
	currencyComparer = cmp.Comparer(func(x, y currency.Unit) bool {
		return x.String() == y.String()
	})

	timeComparer = cmpopts.EquateApproxTime(time.Microsecond)
)

func assertListing(t *testing.T, expected, actual domain.Listing) {
	t.Helper()

	opts := cmp.Options{
		cmpopts.IgnoreFields(domain.Listing{}, "ID", "CreatedAt", "UpdatedAt"),
		cmpopts.EquateEmpty(),
		currencyComparer,
	}

	diff := cmp.Diff(expected, actual, opts)
	assert.Empty(t, diff)
}

func assertTransaction(t *testing.T, expected, actual domain.Transaction) {
	t.Helper()

	opts := cmp.Options{
		cmpopts.IgnoreFields(domain.Transaction{}, "ID", "CreatedAt", "UpdatedAt"),
		cmpopts.EquateEmpty(),
		currencyComparer,
		timeComparer,
	}

	diff := cmp.Diff(expected, actual, opts)
	assert.Empty(t, diff)
}
