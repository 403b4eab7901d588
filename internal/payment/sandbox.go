package payment

import (
	"context"
	"crypto/rand"
	"fmt"
	"sync"

	"github.com/nikolayk812/wardrobe/internal/domain"
	"github.com/nikolayk812/wardrobe/internal/port"
	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
)

// DeclineToken makes the sandbox refuse a charge regardless of amount.
const DeclineToken = "decline"

// Sandbox is an in-process provider for development and tests. It remembers
// captured payments so refunds can be matched and double refunds rejected.
type Sandbox struct {
	feeRate      decimal.Decimal
	declineAbove *decimal.Decimal

	mu       sync.Mutex
	entropy  *ulid.MonotonicEntropy
	captured map[string]decimal.Decimal
	refunded map[string]string
}

type SandboxOption func(*Sandbox)

func WithDeclineAbove(limit decimal.Decimal) SandboxOption {
	return func(s *Sandbox) {
		s.declineAbove = &limit
	}
}

func NewSandbox(feeRate decimal.Decimal, opts ...SandboxOption) *Sandbox {
	s := &Sandbox{
		feeRate:  feeRate,
		entropy:  ulid.Monotonic(rand.Reader, 0),
		captured: make(map[string]decimal.Decimal),
		refunded: make(map[string]string),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ port.PaymentGateway = (*Sandbox)(nil)

func (s *Sandbox) ProcessPayment(ctx context.Context, details domain.PaymentDetails) (domain.PaymentResult, error) {
	if err := ctx.Err(); err != nil {
		return domain.PaymentResult{}, fmt.Errorf("%w: %w", domain.ErrUpstream, err)
	}

	amount := details.Amount.Amount
	if details.Token == DeclineToken || (s.declineAbove != nil && amount.GreaterThan(*s.declineAbove)) {
		return domain.PaymentResult{
			Success: false,
			Status:  "declined",
			Message: "payment declined by issuer",
		}, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	paymentID := "pay_" + ulid.MustNew(ulid.Now(), s.entropy).String()
	s.captured[paymentID] = amount

	return domain.PaymentResult{
		Success:        true,
		PaymentID:      paymentID,
		Status:         string(domain.TransactionStatusPaymentConfirmed),
		TransactionFee: domain.Round2(amount.Mul(s.feeRate)),
	}, nil
}

func (s *Sandbox) RefundPayment(ctx context.Context, ref domain.RefundRequest) (domain.RefundResult, error) {
	if err := ctx.Err(); err != nil {
		return domain.RefundResult{}, fmt.Errorf("%w: %w", domain.ErrUpstream, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	amount, ok := s.captured[ref.PaymentID]
	if !ok {
		return domain.RefundResult{Success: false, Status: domain.RefundStatusUnknownPayment}, nil
	}

	if refundID, done := s.refunded[ref.PaymentID]; done {
		return domain.RefundResult{Success: false, RefundID: refundID, Status: domain.RefundStatusAlreadyRefunded}, nil
	}

	refundID := "ref_" + ulid.MustNew(ulid.Now(), s.entropy).String()
	s.refunded[ref.PaymentID] = refundID

	return domain.RefundResult{
		Success:  true,
		RefundID: refundID,
		Amount:   amount,
		Status:   domain.RefundStatusRefunded,
	}, nil
}
