package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nikolayk812/wardrobe/internal/db"
	"github.com/nikolayk812/wardrobe/internal/domain"
	"github.com/nikolayk812/wardrobe/internal/port"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

var (
	ErrTransactionNotFound = fmt.Errorf("transaction %w", domain.ErrNotFound)
)

type transactionRepository struct {
	q    *db.Queries
	pool *pgxpool.Pool
}

func NewTransaction(pool *pgxpool.Pool) port.TransactionRepository {
	return &transactionRepository{
		q:    db.New(pool),
		pool: pool,
	}
}

func NewTransactionWithTx(tx pgx.Tx) port.TransactionRepository {
	return &transactionRepository{
		q:    db.New(tx),
		pool: nil, // use provided transaction instead
	}
}

func (r *transactionRepository) GetTransaction(ctx context.Context, transactionID uuid.UUID) (domain.Transaction, error) {
	return r.getTransaction(ctx, transactionID, r.q.GetTransaction)
}

func (r *transactionRepository) GetTransactionForUpdate(ctx context.Context, transactionID uuid.UUID) (domain.Transaction, error) {
	return r.getTransaction(ctx, transactionID, r.q.GetTransactionForUpdate)
}

func (r *transactionRepository) getTransaction(ctx context.Context, transactionID uuid.UUID, get func(context.Context, uuid.UUID) (db.Transaction, error)) (domain.Transaction, error) {
	var t domain.Transaction

	dbTx, err := get(ctx, transactionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return t, ErrTransactionNotFound
		}
		return t, fmt.Errorf("q.GetTransaction: %w", err)
	}

	t, err = mapDBTransactionToDomain(dbTx)
	if err != nil {
		return t, fmt.Errorf("mapDBTransactionToDomain: %w", err)
	}

	return t, nil
}

func (r *transactionRepository) InsertTransaction(ctx context.Context, t domain.Transaction) (uuid.UUID, error) {
	if t.ListingID == uuid.Nil {
		return uuid.Nil, errors.New("listingID is empty")
	}

	address, err := json.Marshal(t.ShippingAddress)
	if err != nil {
		return uuid.Nil, fmt.Errorf("json.Marshal[address]: %w", err)
	}

	status := lo.Ternary(t.Status == "", domain.TransactionStatusPendingPayment, t.Status)

	transactionID, err := r.q.InsertTransaction(ctx, db.InsertTransactionParams{
		ListingID:         t.ListingID,
		BuyerID:           t.BuyerID,
		SellerID:          t.SellerID,
		Amount:            t.Amount.Amount,
		Currency:          t.Amount.Currency.String(),
		PlatformFee:       t.Fees.PlatformFee,
		PaymentFee:        t.Fees.PaymentFee,
		ShippingFee:       t.Fees.ShippingFee,
		Status:            string(status),
		PaymentMethod:     t.PaymentMethod,
		ShippingAddress:   address,
		EstimatedDelivery: t.EstimatedDelivery,
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("q.InsertTransaction: %w", mapPgError(err))
	}

	return transactionID, nil
}

// checkAffected tells a missing row apart from a row whose status moved on.
func (r *transactionRepository) checkAffected(ctx context.Context, op string, affected int64, transactionID uuid.UUID, expected domain.TransactionStatus) error {
	if affected > 0 {
		return nil
	}

	current, err := r.q.GetTransaction(ctx, transactionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%s: %w", op, ErrTransactionNotFound)
		}
		return fmt.Errorf("q.GetTransaction: %w", err)
	}

	return fmt.Errorf("%s: %w: expected status %s, found %s", op, domain.ErrConflict, expected, current.Status)
}

func (r *transactionRepository) UpdateStatus(ctx context.Context, update port.StatusUpdate) error {
	if update.TransactionID == uuid.Nil {
		return fmt.Errorf("transactionID is empty")
	}
	if update.Next == "" {
		return fmt.Errorf("status is empty")
	}

	cmdTag, err := r.q.UpdateTransactionStatus(ctx, db.UpdateTransactionStatusParams{
		ID:             update.TransactionID,
		ExpectedStatus: string(update.Expected),
		Status:         string(update.Next),
		ActualDelivery: update.ActualDelivery,
	})
	if err != nil {
		return fmt.Errorf("q.UpdateTransactionStatus: %w", mapPgError(err))
	}

	return r.checkAffected(ctx, "q.UpdateTransactionStatus", cmdTag.RowsAffected(), update.TransactionID, update.Expected)
}

func (r *transactionRepository) UpdateFields(ctx context.Context, transactionID uuid.UUID, patch domain.TransactionPatch) error {
	if transactionID == uuid.Nil {
		return fmt.Errorf("transactionID is empty")
	}

	cmdTag, err := r.q.UpdateTransactionFields(ctx, db.UpdateTransactionFieldsParams{
		ID:                transactionID,
		TrackingNumber:    patch.TrackingNumber,
		EstimatedDelivery: patch.EstimatedDelivery,
		ActualDelivery:    patch.ActualDelivery,
	})
	if err != nil {
		return fmt.Errorf("q.UpdateTransactionFields: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("q.UpdateTransactionFields: %w", ErrTransactionNotFound)
	}

	return nil
}

func (r *transactionRepository) ConfirmPayment(ctx context.Context, c port.PaymentConfirmation) error {
	if c.PaymentID == "" {
		return fmt.Errorf("paymentID is empty")
	}

	cmdTag, err := r.q.ConfirmTransactionPayment(ctx, db.ConfirmTransactionPaymentParams{
		ID:             c.TransactionID,
		ExpectedStatus: string(c.Expected),
		Status:         string(c.Next),
		PaymentID:      c.PaymentID,
		PaymentFee:     c.PaymentFee,
	})
	if err != nil {
		return fmt.Errorf("q.ConfirmTransactionPayment: %w", err)
	}

	return r.checkAffected(ctx, "q.ConfirmTransactionPayment", cmdTag.RowsAffected(), c.TransactionID, c.Expected)
}

func (r *transactionRepository) AppendEvent(ctx context.Context, event domain.TransactionEvent) (domain.TransactionEvent, error) {
	if event.EventType == "" {
		return event, fmt.Errorf("eventType is empty")
	}

	row, err := r.q.InsertTransactionEvent(ctx, db.InsertTransactionEventParams{
		TransactionID: event.TransactionID,
		EventType:     string(event.EventType),
		Payload:       emptyJSONIfNil(event.Payload),
		Actor:         event.Actor,
	})
	if err != nil {
		if errors.Is(mapPgError(err), domain.ErrConflict) {
			return event, fmt.Errorf("q.InsertTransactionEvent: %w", ErrTransactionNotFound)
		}
		return event, fmt.Errorf("q.InsertTransactionEvent: %w", err)
	}

	event.ID = row.ID
	event.Timestamp = row.CreatedAt
	event.Payload = emptyJSONIfNil(event.Payload)

	return event, nil
}

func (r *transactionRepository) ListEvents(ctx context.Context, transactionID uuid.UUID) ([]domain.TransactionEvent, error) {
	dbEvents, err := r.q.ListTransactionEvents(ctx, transactionID)
	if err != nil {
		return nil, fmt.Errorf("q.ListTransactionEvents: %w", err)
	}

	return lo.Map(dbEvents, func(e db.TransactionEvent, _ int) domain.TransactionEvent {
		return domain.TransactionEvent{
			ID:            e.ID,
			TransactionID: e.TransactionID,
			EventType:     domain.EventType(e.EventType),
			Payload:       e.Payload,
			Actor:         e.Actor,
			Timestamp:     e.CreatedAt,
		}
	}), nil
}

func (r *transactionRepository) ListUserTransactions(ctx context.Context, filter domain.TransactionFilter) ([]domain.Transaction, error) {
	if filter.UserID == "" {
		return nil, fmt.Errorf("userID is empty")
	}

	params := db.ListUserTransactionsParams{
		UserID: filter.UserID,
		Role:   string(lo.Ternary(filter.Role == "", domain.RoleAny, filter.Role)),
		Statuses: nilSliceIfEmpty(lo.Map(filter.Statuses, func(s domain.TransactionStatus, _ int) string {
			return string(s)
		})),
	}

	if filter.CreatedAt != nil {
		if err := filter.CreatedAt.Validate(); err != nil {
			return nil, fmt.Errorf("createdAt: %w", err)
		}
		params.CreatedAfter = filter.CreatedAt.After
		params.CreatedBefore = filter.CreatedAt.Before
	}

	dbTxs, err := r.q.ListUserTransactions(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("q.ListUserTransactions: %w", err)
	}

	result := make([]domain.Transaction, 0, len(dbTxs))
	for _, dbTx := range dbTxs {
		t, err := mapDBTransactionToDomain(dbTx)
		if err != nil {
			return nil, fmt.Errorf("mapDBTransactionToDomain: %w", err)
		}
		result = append(result, t)
	}

	return result, nil
}

func (r *transactionRepository) SellerStats(ctx context.Context, sellerID string) (domain.TransactionStats, error) {
	rows, err := r.q.SellerStatusTotals(ctx, sellerID)
	if err != nil {
		return domain.TransactionStats{}, fmt.Errorf("q.SellerStatusTotals: %w", err)
	}

	counts := make(map[domain.TransactionStatus]int64, len(rows))
	revenue := decimal.Zero

	for _, row := range rows {
		status, err := domain.ToTransactionStatus(row.Status)
		if err != nil {
			return domain.TransactionStats{}, fmt.Errorf("domain.ToTransactionStatus[%s]: %w", row.Status, err)
		}

		counts[status] = row.Count
		if status == domain.TransactionStatusCompleted {
			revenue = row.Amount
		}
	}

	return domain.NewTransactionStats(counts, revenue), nil
}

func (r *transactionRepository) DeleteTransaction(ctx context.Context, transactionID uuid.UUID) error {
	if transactionID == uuid.Nil {
		return fmt.Errorf("transactionID is empty")
	}

	cmdTag, err := r.q.DeleteTransaction(ctx, transactionID)
	if err != nil {
		return fmt.Errorf("q.DeleteTransaction: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("q.DeleteTransaction: %w", ErrTransactionNotFound)
	}

	return nil
}

func mapDBTransactionToDomain(dbTx db.Transaction) (domain.Transaction, error) {
	var t domain.Transaction

	parsedCurrency, err := currency.ParseISO(dbTx.Currency)
	if err != nil {
		return t, fmt.Errorf("currency[%s] is not valid: %w", dbTx.Currency, err)
	}

	status, err := domain.ToTransactionStatus(dbTx.Status)
	if err != nil {
		return t, fmt.Errorf("domain.ToTransactionStatus[%s]: %w", dbTx.Status, err)
	}

	var address domain.Address
	if err := json.Unmarshal(dbTx.ShippingAddress, &address); err != nil {
		return t, fmt.Errorf("json.Unmarshal[address]: %w", err)
	}

	return domain.Transaction{
		ID:        dbTx.ID,
		ListingID: dbTx.ListingID,
		BuyerID:   dbTx.BuyerID,
		SellerID:  dbTx.SellerID,
		Amount:    domain.Money{Amount: dbTx.Amount, Currency: parsedCurrency},
		Fees: domain.Fees{
			PlatformFee: dbTx.PlatformFee,
			PaymentFee:  dbTx.PaymentFee,
			ShippingFee: dbTx.ShippingFee,
		},
		Status:            status,
		PaymentMethod:     dbTx.PaymentMethod,
		PaymentID:         dbTx.PaymentID,
		ShippingAddress:   address,
		TrackingNumber:    dbTx.TrackingNumber,
		EstimatedDelivery: dbTx.EstimatedDelivery,
		ActualDelivery:    dbTx.ActualDelivery,
		CreatedAt:         dbTx.CreatedAt,
		UpdatedAt:         dbTx.UpdatedAt,
	}, nil
}
