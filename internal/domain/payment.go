package domain

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PaymentDetails struct {
	TransactionID uuid.UUID
	Amount        Money
	Method        string
	// Token is the provider's card or PIX token; never persisted.
	Token   string
	PayerID string
}

type PaymentResult struct {
	Success        bool
	PaymentID      string
	Status         string
	TransactionFee decimal.Decimal
	Message        string
}

type RefundRequest struct {
	TransactionID uuid.UUID
	PaymentID     string
	Amount        Money
	Reason        string
}

// Refund statuses shared by the payment providers.
const (
	RefundStatusRefunded        = "refunded"
	RefundStatusAlreadyRefunded = "already_refunded"
	RefundStatusUnknownPayment  = "unknown_payment"
)

type RefundResult struct {
	Success  bool
	RefundID string
	Amount   decimal.Decimal
	Status   string
}

// PriorRefund reports a provider answer naming a refund issued earlier for the same payment.
func (r RefundResult) PriorRefund() bool {
	return !r.Success && r.Status == RefundStatusAlreadyRefunded && r.RefundID != ""
}
