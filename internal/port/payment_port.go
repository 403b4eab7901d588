package port

import (
	"context"

	"github.com/nikolayk812/wardrobe/internal/domain"
)

// PaymentGateway is the remote payment provider. A declined charge is reported
// through PaymentResult.Success, not as an error; errors mean the provider could
// not be reached or answered unexpectedly.
type PaymentGateway interface {
	ProcessPayment(ctx context.Context, details domain.PaymentDetails) (domain.PaymentResult, error)
	RefundPayment(ctx context.Context, ref domain.RefundRequest) (domain.RefundResult, error)
}
