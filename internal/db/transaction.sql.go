package db

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

const transactionColumns = `id, listing_id, buyer_id, seller_id, amount, currency, platform_fee, payment_fee, shipping_fee,
       net_amount, status, payment_method, payment_id, shipping_address, tracking_number, estimated_delivery,
       actual_delivery, created_at, updated_at`

func scanTransaction(row pgx.Row) (Transaction, error) {
	var i Transaction
	err := row.Scan(
		&i.ID,
		&i.ListingID,
		&i.BuyerID,
		&i.SellerID,
		&i.Amount,
		&i.Currency,
		&i.PlatformFee,
		&i.PaymentFee,
		&i.ShippingFee,
		&i.NetAmount,
		&i.Status,
		&i.PaymentMethod,
		&i.PaymentID,
		&i.ShippingAddress,
		&i.TrackingNumber,
		&i.EstimatedDelivery,
		&i.ActualDelivery,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const insertTransaction = `-- name: InsertTransaction :one
INSERT INTO transactions (listing_id, buyer_id, seller_id, amount, currency, platform_fee, payment_fee, shipping_fee,
                          status, payment_method, shipping_address, estimated_delivery)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
RETURNING id`

type InsertTransactionParams struct {
	ListingID         uuid.UUID
	BuyerID           string
	SellerID          string
	Amount            decimal.Decimal
	Currency          string
	PlatformFee       decimal.Decimal
	PaymentFee        decimal.Decimal
	ShippingFee       decimal.Decimal
	Status            string
	PaymentMethod     string
	ShippingAddress   []byte
	EstimatedDelivery *time.Time
}

func (q *Queries) InsertTransaction(ctx context.Context, arg InsertTransactionParams) (uuid.UUID, error) {
	row := q.db.QueryRow(ctx, insertTransaction,
		arg.ListingID,
		arg.BuyerID,
		arg.SellerID,
		arg.Amount,
		arg.Currency,
		arg.PlatformFee,
		arg.PaymentFee,
		arg.ShippingFee,
		arg.Status,
		arg.PaymentMethod,
		arg.ShippingAddress,
		arg.EstimatedDelivery,
	)
	var id uuid.UUID
	err := row.Scan(&id)
	return id, err
}

const getTransaction = `-- name: GetTransaction :one
SELECT ` + transactionColumns + `
FROM transactions
WHERE id = $1`

func (q *Queries) GetTransaction(ctx context.Context, id uuid.UUID) (Transaction, error) {
	return scanTransaction(q.db.QueryRow(ctx, getTransaction, id))
}

const getTransactionForUpdate = `-- name: GetTransactionForUpdate :one
SELECT ` + transactionColumns + `
FROM transactions
WHERE id = $1
FOR UPDATE`

func (q *Queries) GetTransactionForUpdate(ctx context.Context, id uuid.UUID) (Transaction, error) {
	return scanTransaction(q.db.QueryRow(ctx, getTransactionForUpdate, id))
}

const updateTransactionStatus = `-- name: UpdateTransactionStatus :execresult
UPDATE transactions
SET status          = $3,
    actual_delivery = COALESCE($4, actual_delivery),
    updated_at      = NOW()
WHERE id = $1
  AND status = $2`

type UpdateTransactionStatusParams struct {
	ID             uuid.UUID
	ExpectedStatus string
	Status         string
	ActualDelivery *time.Time
}

// UpdateTransactionStatus only matches while the row is still in ExpectedStatus.
func (q *Queries) UpdateTransactionStatus(ctx context.Context, arg UpdateTransactionStatusParams) (pgconn.CommandTag, error) {
	return q.db.Exec(ctx, updateTransactionStatus, arg.ID, arg.ExpectedStatus, arg.Status, arg.ActualDelivery)
}

const updateTransactionFields = `-- name: UpdateTransactionFields :execresult
UPDATE transactions
SET tracking_number    = COALESCE($2, tracking_number),
    estimated_delivery = COALESCE($3, estimated_delivery),
    actual_delivery    = COALESCE($4, actual_delivery),
    updated_at         = NOW()
WHERE id = $1`

type UpdateTransactionFieldsParams struct {
	ID                uuid.UUID
	TrackingNumber    *string
	EstimatedDelivery *time.Time
	ActualDelivery    *time.Time
}

func (q *Queries) UpdateTransactionFields(ctx context.Context, arg UpdateTransactionFieldsParams) (pgconn.CommandTag, error) {
	return q.db.Exec(ctx, updateTransactionFields, arg.ID, arg.TrackingNumber, arg.EstimatedDelivery, arg.ActualDelivery)
}

const confirmTransactionPayment = `-- name: ConfirmTransactionPayment :execresult
UPDATE transactions
SET status      = $3,
    payment_id  = $4,
    payment_fee = $5,
    updated_at  = NOW()
WHERE id = $1
  AND status = $2`

type ConfirmTransactionPaymentParams struct {
	ID             uuid.UUID
	ExpectedStatus string
	Status         string
	PaymentID      string
	PaymentFee     decimal.Decimal
}

func (q *Queries) ConfirmTransactionPayment(ctx context.Context, arg ConfirmTransactionPaymentParams) (pgconn.CommandTag, error) {
	return q.db.Exec(ctx, confirmTransactionPayment, arg.ID, arg.ExpectedStatus, arg.Status, arg.PaymentID, arg.PaymentFee)
}

const insertTransactionEvent = `-- name: InsertTransactionEvent :one
INSERT INTO transaction_events (transaction_id, event_type, payload, actor)
VALUES ($1, $2, $3, $4)
RETURNING id, created_at`

type InsertTransactionEventParams struct {
	TransactionID uuid.UUID
	EventType     string
	Payload       []byte
	Actor         string
}

type InsertTransactionEventRow struct {
	ID        uuid.UUID
	CreatedAt time.Time
}

func (q *Queries) InsertTransactionEvent(ctx context.Context, arg InsertTransactionEventParams) (InsertTransactionEventRow, error) {
	row := q.db.QueryRow(ctx, insertTransactionEvent, arg.TransactionID, arg.EventType, arg.Payload, arg.Actor)
	var i InsertTransactionEventRow
	err := row.Scan(&i.ID, &i.CreatedAt)
	return i, err
}

const listTransactionEvents = `-- name: ListTransactionEvents :many
SELECT id, transaction_id, event_type, payload, actor, created_at
FROM transaction_events
WHERE transaction_id = $1
ORDER BY seq`

func (q *Queries) ListTransactionEvents(ctx context.Context, transactionID uuid.UUID) ([]TransactionEvent, error) {
	rows, err := q.db.Query(ctx, listTransactionEvents, transactionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []TransactionEvent
	for rows.Next() {
		var i TransactionEvent
		if err := rows.Scan(
			&i.ID,
			&i.TransactionID,
			&i.EventType,
			&i.Payload,
			&i.Actor,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listUserTransactions = `-- name: ListUserTransactions :many
SELECT ` + transactionColumns + `
FROM transactions
WHERE ((@role::text IN ('buyer', 'any') AND buyer_id = @user_id::text)
    OR (@role::text IN ('seller', 'any') AND seller_id = @user_id::text))
  AND (@statuses::text[] IS NULL OR status = ANY (@statuses::text[]))
  AND (@created_after::timestamptz IS NULL OR created_at >= @created_after::timestamptz)
  AND (@created_before::timestamptz IS NULL OR created_at <= @created_before::timestamptz)
ORDER BY created_at DESC, id`

type ListUserTransactionsParams struct {
	UserID        string
	Role          string
	Statuses      []string
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}

func (q *Queries) ListUserTransactions(ctx context.Context, arg ListUserTransactionsParams) ([]Transaction, error) {
	rows, err := q.db.Query(ctx, listUserTransactions, pgx.NamedArgs{
		"user_id":        arg.UserID,
		"role":           arg.Role,
		"statuses":       arg.Statuses,
		"created_after":  arg.CreatedAfter,
		"created_before": arg.CreatedBefore,
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Transaction
	for rows.Next() {
		i, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const sellerStatusTotals = `-- name: SellerStatusTotals :many
SELECT status, COUNT(*) AS count, COALESCE(SUM(amount), 0)::numeric AS amount
FROM transactions
WHERE seller_id = $1
GROUP BY status`

type SellerStatusTotalsRow struct {
	Status string
	Count  int64
	Amount decimal.Decimal
}

func (q *Queries) SellerStatusTotals(ctx context.Context, sellerID string) ([]SellerStatusTotalsRow, error) {
	rows, err := q.db.Query(ctx, sellerStatusTotals, sellerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []SellerStatusTotalsRow
	for rows.Next() {
		var i SellerStatusTotalsRow
		if err := rows.Scan(&i.Status, &i.Count, &i.Amount); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const deleteTransaction = `-- name: DeleteTransaction :execresult
DELETE
FROM transactions
WHERE id = $1`

func (q *Queries) DeleteTransaction(ctx context.Context, id uuid.UUID) (pgconn.CommandTag, error) {
	return q.db.Exec(ctx, deleteTransaction, id)
}
