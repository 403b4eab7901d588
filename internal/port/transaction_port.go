package port

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/nikolayk812/wardrobe/internal/domain"
	"github.com/shopspring/decimal"
)

type TransactionRepository interface {
	GetTransaction(ctx context.Context, transactionID uuid.UUID) (domain.Transaction, error)
	// GetTransactionForUpdate locks the row until the surrounding database transaction ends.
	GetTransactionForUpdate(ctx context.Context, transactionID uuid.UUID) (domain.Transaction, error)

	InsertTransaction(ctx context.Context, tx domain.Transaction) (uuid.UUID, error)

	// UpdateStatus fails with domain.ErrConflict when the stored status is no longer expected.
	UpdateStatus(ctx context.Context, update StatusUpdate) error
	UpdateFields(ctx context.Context, transactionID uuid.UUID, patch domain.TransactionPatch) error
	ConfirmPayment(ctx context.Context, confirmation PaymentConfirmation) error

	AppendEvent(ctx context.Context, event domain.TransactionEvent) (domain.TransactionEvent, error)
	ListEvents(ctx context.Context, transactionID uuid.UUID) ([]domain.TransactionEvent, error)

	ListUserTransactions(ctx context.Context, filter domain.TransactionFilter) ([]domain.Transaction, error)
	SellerStats(ctx context.Context, sellerID string) (domain.TransactionStats, error)

	DeleteTransaction(ctx context.Context, transactionID uuid.UUID) error
}

type StatusUpdate struct {
	TransactionID  uuid.UUID
	Expected       domain.TransactionStatus
	Next           domain.TransactionStatus
	ActualDelivery *time.Time
}

type PaymentConfirmation struct {
	TransactionID uuid.UUID
	Expected      domain.TransactionStatus
	Next          domain.TransactionStatus
	PaymentID     string
	PaymentFee    decimal.Decimal
}
