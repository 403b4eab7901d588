package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Transaction struct {
	ID        uuid.UUID
	ListingID uuid.UUID
	BuyerID   string
	SellerID  string

	Amount Money
	Fees   Fees

	Status          TransactionStatus
	PaymentMethod   string
	PaymentID       *string
	ShippingAddress Address
	TrackingNumber  *string

	EstimatedDelivery *time.Time
	ActualDelivery    *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NetAmount is what the seller receives: amount minus platform and payment fees.
func (t Transaction) NetAmount() decimal.Decimal {
	return t.Amount.Amount.Sub(t.Fees.PlatformFee).Sub(t.Fees.PaymentFee)
}

type Fees struct {
	PlatformFee decimal.Decimal
	PaymentFee  decimal.Decimal
	ShippingFee decimal.Decimal
}

// FeeSchedule turns an item price and shipping fee into a priced transaction.
type FeeSchedule struct {
	PlatformRate decimal.Decimal
	PaymentRate  decimal.Decimal
}

func DefaultFeeSchedule() FeeSchedule {
	return FeeSchedule{
		PlatformRate: decimal.RequireFromString("0.05"),
		PaymentRate:  decimal.RequireFromString("0.029"),
	}
}

// Price returns the amount charged to the buyer and the fee breakdown.
// The platform fee applies to the item price, the payment fee to the full amount.
func (s FeeSchedule) Price(itemPrice, shippingFee decimal.Decimal) (decimal.Decimal, Fees) {
	amount := itemPrice.Add(shippingFee)

	return amount, Fees{
		PlatformFee: Round2(itemPrice.Mul(s.PlatformRate)),
		PaymentFee:  Round2(amount.Mul(s.PaymentRate)),
		ShippingFee: shippingFee,
	}
}

type Address struct {
	Recipient  string `json:"recipient"`
	Street     string `json:"street"`
	Number     string `json:"number,omitempty"`
	Complement string `json:"complement,omitempty"`
	City       string `json:"city"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

type EventType string

const (
	EventCreated          EventType = "created"
	EventPaymentConfirmed EventType = "payment_confirmed"
	EventPaymentFailed    EventType = "payment_failed"
	EventStatusUpdated    EventType = "status_updated"
	EventDelivered        EventType = "delivered"
	EventFundsReleased    EventType = "funds_released"
	EventCompleted        EventType = "completed"
	EventCancelled        EventType = "cancelled"
	EventRefunded         EventType = "refunded"
	EventDisputeResolved  EventType = "dispute_resolved"
)

// TransactionEvent is an append-only timeline entry.
type TransactionEvent struct {
	ID            uuid.UUID
	TransactionID uuid.UUID
	EventType     EventType
	Payload       json.RawMessage
	Actor         string
	Timestamp     time.Time
}

// TransactionPatch carries the fields updateTransaction may change; nil means untouched.
type TransactionPatch struct {
	Status            *TransactionStatus
	TrackingNumber    *string
	EstimatedDelivery *time.Time
	ActualDelivery    *time.Time
}

func (p TransactionPatch) Empty() bool {
	return p.Status == nil && p.TrackingNumber == nil && p.EstimatedDelivery == nil && p.ActualDelivery == nil
}

type TransactionRole string

const (
	RoleBuyer  TransactionRole = "buyer"
	RoleSeller TransactionRole = "seller"
	RoleAny    TransactionRole = "any"
)

func ToTransactionRole(s string) (TransactionRole, error) {
	switch TransactionRole(s) {
	case RoleBuyer, RoleSeller, RoleAny:
		return TransactionRole(s), nil
	case "":
		return RoleAny, nil
	default:
		return "", ErrValidation
	}
}

// TransactionFilter narrows a user's transaction list.
type TransactionFilter struct {
	UserID    string
	Role      TransactionRole
	Statuses  []TransactionStatus
	CreatedAt *TimeRange
}

type TransactionStats struct {
	TotalTransactions int64
	CompletedCount    int64
	TotalRevenue      decimal.Decimal
	AverageOrderValue decimal.Decimal
	CompletionRate    decimal.Decimal
	StatusBreakdown   map[TransactionStatus]int64
}

// NewTransactionStats derives the aggregate figures from per-status counts and
// the revenue of completed transactions.
func NewTransactionStats(counts map[TransactionStatus]int64, completedRevenue decimal.Decimal) TransactionStats {
	stats := TransactionStats{
		TotalRevenue:      completedRevenue,
		AverageOrderValue: decimal.Zero,
		CompletionRate:    decimal.Zero,
		StatusBreakdown:   make(map[TransactionStatus]int64, len(counts)),
	}

	for status, n := range counts {
		stats.StatusBreakdown[status] = n
		stats.TotalTransactions += n
	}
	stats.CompletedCount = counts[TransactionStatusCompleted]

	if stats.CompletedCount > 0 {
		stats.AverageOrderValue = Round2(completedRevenue.Div(decimal.NewFromInt(stats.CompletedCount)))
	}
	if stats.TotalTransactions > 0 {
		stats.CompletionRate = decimal.NewFromInt(stats.CompletedCount).
			Div(decimal.NewFromInt(stats.TotalTransactions)).Round(4)
	}

	return stats
}
