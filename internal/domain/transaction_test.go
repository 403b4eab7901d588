package domain_test

import (
	"fmt"
	"testing"

	"github.com/nikolayk812/wardrobe/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/currency"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestFeeSchedule_Price(t *testing.T) {
	tests := []struct {
		name            string
		itemPrice       string
		shippingFee     string
		wantAmount      string
		wantPlatformFee string
		wantPaymentFee  string
		wantNet         string
	}{
		{
			name:            "item with shipping",
			itemPrice:       "250.00",
			shippingFee:     "15.00",
			wantAmount:      "265.00",
			wantPlatformFee: "12.50",
			wantPaymentFee:  "7.69",
			wantNet:         "244.81",
		},
		{
			name:            "free shipping",
			itemPrice:       "100.00",
			shippingFee:     "0",
			wantAmount:      "100.00",
			wantPlatformFee: "5.00",
			wantPaymentFee:  "2.90",
			wantNet:         "92.10",
		},
		{
			name:            "rounds half away from zero",
			itemPrice:       "10.10",
			shippingFee:     "0",
			wantAmount:      "10.10",
			wantPlatformFee: "0.51",
			wantPaymentFee:  "0.29",
			wantNet:         "9.30",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			amount, fees := domain.DefaultFeeSchedule().Price(dec(tt.itemPrice), dec(tt.shippingFee))

			assert.True(t, dec(tt.wantAmount).Equal(amount), "amount %s", amount)
			assert.True(t, dec(tt.wantPlatformFee).Equal(fees.PlatformFee), "platform fee %s", fees.PlatformFee)
			assert.True(t, dec(tt.wantPaymentFee).Equal(fees.PaymentFee), "payment fee %s", fees.PaymentFee)
			assert.True(t, dec(tt.shippingFee).Equal(fees.ShippingFee))

			tx := domain.Transaction{Amount: domain.NewMoney(amount, currency.BRL), Fees: fees}
			assert.Equal(t, tt.wantNet, tx.NetAmount().StringFixed(2))
		})
	}
}

func TestTransaction_NetAmountFollowsFees(t *testing.T) {
	tx := domain.Transaction{
		Amount: domain.NewMoney(dec("265.00"), currency.BRL),
		Fees:   domain.Fees{PlatformFee: dec("12.50"), PaymentFee: dec("7.69"), ShippingFee: dec("15.00")},
	}
	assert.Equal(t, "244.81", tx.NetAmount().StringFixed(2))

	// provider-reported fee replaces the computed one
	tx.Fees.PaymentFee = dec("8.00")
	assert.Equal(t, "244.50", tx.NetAmount().StringFixed(2))
}

func TestNewTransactionStats(t *testing.T) {
	tests := []struct {
		name      string
		counts    map[domain.TransactionStatus]int64
		revenue   string
		wantTotal int64
		wantAOV   string
		wantRate  string
	}{
		{
			name:     "no transactions",
			counts:   map[domain.TransactionStatus]int64{},
			revenue:  "0",
			wantAOV:  "0",
			wantRate: "0",
		},
		{
			name: "mixed statuses",
			counts: map[domain.TransactionStatus]int64{
				domain.TransactionStatusCompleted:      3,
				domain.TransactionStatusCancelled:      1,
				domain.TransactionStatusPendingPayment: 2,
			},
			revenue:   "300.01",
			wantTotal: 6,
			wantAOV:   "100",
			wantRate:  "0.5",
		},
		{
			name: "nothing completed",
			counts: map[domain.TransactionStatus]int64{
				domain.TransactionStatusShipped: 4,
			},
			revenue:   "0",
			wantTotal: 4,
			wantAOV:   "0",
			wantRate:  "0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stats := domain.NewTransactionStats(tt.counts, dec(tt.revenue))

			assert.Equal(t, tt.wantTotal, stats.TotalTransactions)
			assert.Equal(t, tt.counts[domain.TransactionStatusCompleted], stats.CompletedCount)
			assert.True(t, dec(tt.wantAOV).Equal(stats.AverageOrderValue), "aov %s", stats.AverageOrderValue)
			assert.True(t, dec(tt.wantRate).Equal(stats.CompletionRate), "rate %s", stats.CompletionRate)
			assert.Equal(t, tt.counts, stats.StatusBreakdown)
		})
	}
}

func TestToTransactionRole(t *testing.T) {
	role, err := domain.ToTransactionRole("")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAny, role)

	role, err = domain.ToTransactionRole("seller")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleSeller, role)

	_, err = domain.ToTransactionRole("courier")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestErrorCode(t *testing.T) {
	tests := []struct {
		err  error
		want domain.Code
	}{
		{fmt.Errorf("q.GetTransaction: %w", domain.ErrNotFound), domain.CodeNotFound},
		{fmt.Errorf("wrap: %w", domain.ErrForbidden), domain.CodeForbidden},
		{domain.ErrInvalidState, domain.CodeInvalidState},
		{domain.CheckTransition(domain.TransactionStatusCompleted, domain.TransactionStatusShipped), domain.CodeInvalidTransition},
		{fmt.Errorf("%w: content is empty", domain.ErrValidation), domain.CodeValidation},
		{fmt.Errorf("%w: %w", domain.ErrUpstream, fmt.Errorf("dial tcp")), domain.CodeUpstream},
		{domain.ErrSelfFollow, domain.CodeSelfFollow},
		{fmt.Errorf("q.InsertFollow: %w", domain.ErrAlreadyFollowing), domain.CodeAlreadyFollowing},
		{domain.ErrConflict, domain.CodeConflict},
		{fmt.Errorf("boom"), domain.CodeInternal},
	}

	for _, tt := range tests {
		t.Run(string(tt.want), func(t *testing.T) {
			assert.Equal(t, tt.want, domain.ErrorCode(tt.err))
		})
	}
}
