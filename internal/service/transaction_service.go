package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nikolayk812/wardrobe/internal/domain"
	"github.com/nikolayk812/wardrobe/internal/metrics"
	"github.com/nikolayk812/wardrobe/internal/port"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// SystemActor is recorded on events that no user triggered directly.
const SystemActor = "system"

// TransactionService is the authority on transaction status. Every mutation runs
// inside one database transaction with the transaction row locked, so concurrent
// requests on the same id are serialized and side effects commit together.
type TransactionService struct {
	txRunner     port.TxRunner
	transactions port.TransactionRepository
	payments     port.PaymentGateway
	fees         domain.FeeSchedule
	logger       *slog.Logger

	now                    func() time.Time
	recordNoopStatusEvents bool
}

type TransactionOption func(*TransactionService)

func WithClock(now func() time.Time) TransactionOption {
	return func(s *TransactionService) {
		s.now = now
	}
}

// WithNoopStatusEvents makes UpdateTransaction append a status_updated event even
// when the patched status equals the current one.
func WithNoopStatusEvents(enabled bool) TransactionOption {
	return func(s *TransactionService) {
		s.recordNoopStatusEvents = enabled
	}
}

func NewTransactionService(
	txRunner port.TxRunner,
	transactions port.TransactionRepository,
	payments port.PaymentGateway,
	fees domain.FeeSchedule,
	logger *slog.Logger,
	opts ...TransactionOption,
) (*TransactionService, error) {
	if txRunner == nil {
		return nil, fmt.Errorf("txRunner is nil")
	}
	if transactions == nil {
		return nil, fmt.Errorf("transactions is nil")
	}
	if payments == nil {
		return nil, fmt.Errorf("payments is nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &TransactionService{
		txRunner:     txRunner,
		transactions: transactions,
		payments:     payments,
		fees:         fees,
		logger:       logger,
		now:          func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

type CreateTransactionRequest struct {
	ListingID       uuid.UUID
	BuyerID         string
	PaymentMethod   string
	ShippingAddress domain.Address
	// ShippingOption indexes the listing's shipping options; nil means no shipping fee.
	ShippingOption *int
}

func (r CreateTransactionRequest) Validate() error {
	if r.ListingID == uuid.Nil {
		return fmt.Errorf("%w: listingID is empty", domain.ErrValidation)
	}
	if r.BuyerID == "" {
		return fmt.Errorf("%w: buyerID is empty", domain.ErrValidation)
	}
	if r.PaymentMethod == "" {
		return fmt.Errorf("%w: paymentMethod is empty", domain.ErrValidation)
	}
	a := r.ShippingAddress
	if a.Street == "" || a.City == "" || a.PostalCode == "" {
		return fmt.Errorf("%w: shipping address requires street, city and postal code", domain.ErrValidation)
	}
	return nil
}

// transition is a committed status change, reported to metrics after commit.
type transition struct {
	from, to domain.TransactionStatus
}

// txScope carries the per-call state of one workflow step.
type txScope struct {
	repos       port.Repositories
	actor       string
	transitions []transition
}

func (s *TransactionService) run(ctx context.Context, actor string, fn func(ctx context.Context, scope *txScope) error) error {
	var applied []transition

	err := s.txRunner.RunInTx(ctx, func(ctx context.Context, repos port.Repositories) error {
		scope := &txScope{repos: repos, actor: actor}
		if err := fn(ctx, scope); err != nil {
			return err
		}
		applied = scope.transitions
		return nil
	})
	if err != nil {
		return err
	}

	for _, t := range applied {
		metrics.TransactionTransitions.WithLabelValues(string(t.from), string(t.to)).Inc()
	}

	return nil
}

func (s *TransactionService) CreateTransaction(ctx context.Context, req CreateTransactionRequest) (domain.Transaction, error) {
	var created domain.Transaction

	if err := req.Validate(); err != nil {
		return created, err
	}

	err := s.run(ctx, req.BuyerID, func(ctx context.Context, scope *txScope) error {
		listing, err := scope.repos.Listings.GetListingForUpdate(ctx, req.ListingID)
		if err != nil {
			return fmt.Errorf("repos.Listings.GetListingForUpdate: %w", err)
		}

		if listing.SellerID == req.BuyerID {
			return fmt.Errorf("%w: cannot buy your own listing", domain.ErrForbidden)
		}
		if listing.Status != domain.ListingStatusActive {
			return fmt.Errorf("%w: listing is %s", domain.ErrInvalidState, listing.Status)
		}

		shippingFee := decimal.Zero
		var estimated *time.Time
		if req.ShippingOption != nil {
			idx := *req.ShippingOption
			if idx < 0 || idx >= len(listing.ShippingOptions) {
				return fmt.Errorf("%w: shipping option %d does not exist", domain.ErrValidation, idx)
			}
			option := listing.ShippingOptions[idx]
			shippingFee = option.Price.Amount
			estimated = lo.ToPtr(s.now().AddDate(0, 0, option.EstimatedDays))
		}

		amount, fees := s.fees.Price(listing.Price.Amount, shippingFee)

		created = domain.Transaction{
			ListingID:         listing.ID,
			BuyerID:           req.BuyerID,
			SellerID:          listing.SellerID,
			Amount:            domain.Money{Amount: amount, Currency: listing.Price.Currency},
			Fees:              fees,
			Status:            domain.TransactionStatusPendingPayment,
			PaymentMethod:     req.PaymentMethod,
			ShippingAddress:   req.ShippingAddress,
			EstimatedDelivery: estimated,
		}

		created.ID, err = scope.repos.Transactions.InsertTransaction(ctx, created)
		if err != nil {
			return fmt.Errorf("repos.Transactions.InsertTransaction: %w", err)
		}

		if err := scope.repos.Listings.ReserveListing(ctx, listing.ID, req.BuyerID); err != nil {
			return fmt.Errorf("repos.Listings.ReserveListing: %w", err)
		}

		return s.appendEvent(ctx, scope, created.ID, domain.EventCreated, map[string]any{
			"amount":       amount.StringFixed(2),
			"currency":     created.Amount.Currency.String(),
			"platform_fee": fees.PlatformFee.StringFixed(2),
			"payment_fee":  fees.PaymentFee.StringFixed(2),
			"shipping_fee": fees.ShippingFee.StringFixed(2),
			"net_amount":   created.NetAmount().StringFixed(2),
		})
	})
	if err != nil {
		return domain.Transaction{}, err
	}

	s.logger.Info("transaction created",
		"method", "TransactionService.CreateTransaction",
		"transaction_id", created.ID,
		"listing_id", created.ListingID)

	return s.GetTransaction(ctx, created.ID)
}

// ProcessPayment charges the buyer. A declined charge is returned as a result
// with Success=false and a nil error; the transaction keeps its status.
func (s *TransactionService) ProcessPayment(ctx context.Context, transactionID uuid.UUID, details domain.PaymentDetails) (domain.PaymentResult, error) {
	var (
		result   domain.PaymentResult
		captured bool
		t        domain.Transaction
	)

	err := s.run(ctx, lo.CoalesceOrEmpty(details.PayerID, SystemActor), func(ctx context.Context, scope *txScope) error {
		var err error
		t, err = scope.repos.Transactions.GetTransactionForUpdate(ctx, transactionID)
		if err != nil {
			return fmt.Errorf("repos.Transactions.GetTransactionForUpdate: %w", err)
		}

		if err := domain.CheckTransition(t.Status, domain.TransactionStatusPaymentConfirmed); err != nil {
			return err
		}

		details.TransactionID = t.ID
		details.Amount = t.Amount
		details.Method = lo.CoalesceOrEmpty(details.Method, t.PaymentMethod)

		result, err = s.payments.ProcessPayment(ctx, details)
		if err != nil {
			metrics.PaymentCalls.WithLabelValues("charge", metrics.OutcomeError).Inc()
			return fmt.Errorf("payments.ProcessPayment: %w", asUpstream(err))
		}

		if !result.Success {
			metrics.PaymentCalls.WithLabelValues("charge", metrics.OutcomeDeclined).Inc()
			return s.appendEvent(ctx, scope, t.ID, domain.EventPaymentFailed, map[string]any{
				"status":  result.Status,
				"message": result.Message,
			})
		}

		metrics.PaymentCalls.WithLabelValues("charge", metrics.OutcomeSuccess).Inc()
		captured = true

		next := domain.TransactionStatusPaymentConfirmed
		if providerStatus, err := domain.ToTransactionStatus(result.Status); err == nil && t.Status.CanTransitionTo(providerStatus) && providerStatus != domain.TransactionStatusCancelled {
			next = providerStatus
		}

		paymentFee := t.Fees.PaymentFee
		if result.TransactionFee.IsPositive() {
			paymentFee = result.TransactionFee
		}

		if err := scope.repos.Transactions.ConfirmPayment(ctx, port.PaymentConfirmation{
			TransactionID: t.ID,
			Expected:      t.Status,
			Next:          next,
			PaymentID:     result.PaymentID,
			PaymentFee:    paymentFee,
		}); err != nil {
			return fmt.Errorf("repos.Transactions.ConfirmPayment: %w", err)
		}

		from := t.Status
		t.Status = next
		t.PaymentID = lo.ToPtr(result.PaymentID)
		t.Fees.PaymentFee = paymentFee
		scope.transitions = append(scope.transitions, transition{from: from, to: next})

		return s.appendEvent(ctx, scope, t.ID, domain.EventPaymentConfirmed, map[string]any{
			"payment_id":  result.PaymentID,
			"from":        from,
			"to":          next,
			"payment_fee": paymentFee.StringFixed(2),
			"net_amount":  t.NetAmount().StringFixed(2),
		})
	})
	if err != nil {
		if captured {
			s.compensateCapture(ctx, t, result.PaymentID, err)
		}
		return domain.PaymentResult{}, err
	}

	return result, nil
}

// compensateCapture refunds a charge whose confirmation could not be persisted.
func (s *TransactionService) compensateCapture(ctx context.Context, t domain.Transaction, paymentID string, cause error) {
	refund, err := s.payments.RefundPayment(context.WithoutCancel(ctx), domain.RefundRequest{
		TransactionID: t.ID,
		PaymentID:     paymentID,
		Amount:        t.Amount,
		Reason:        "payment confirmation not persisted",
	})
	if err != nil || !refund.Success {
		s.logger.Error("captured payment not recorded and refund failed",
			"method", "TransactionService.ProcessPayment",
			"transaction_id", t.ID,
			"payment_id", paymentID,
			"cause", cause,
			"error", err)
		return
	}

	s.logger.Warn("captured payment refunded after persistence failure",
		"method", "TransactionService.ProcessPayment",
		"transaction_id", t.ID,
		"payment_id", paymentID,
		"refund_id", refund.RefundID,
		"cause", cause)
}

// UpdateTransaction applies patch. Status changes go through the transition table;
// cancelled, refunded and completed run the same side effects as their dedicated
// operations. A status equal to the current one is a no-op unless configured otherwise.
// Only the buyer or SystemActor may move a transaction to delivered or completed.
func (s *TransactionService) UpdateTransaction(ctx context.Context, transactionID uuid.UUID, patch domain.TransactionPatch, actor string) (domain.Transaction, error) {
	if patch.Empty() {
		return domain.Transaction{}, fmt.Errorf("%w: patch is empty", domain.ErrValidation)
	}

	err := s.run(ctx, lo.CoalesceOrEmpty(actor, SystemActor), func(ctx context.Context, scope *txScope) error {
		t, err := scope.repos.Transactions.GetTransactionForUpdate(ctx, transactionID)
		if err != nil {
			return fmt.Errorf("repos.Transactions.GetTransactionForUpdate: %w", err)
		}

		if patch.Status != nil {
			if err := s.applyStatusPatch(ctx, scope, &t, *patch.Status, patch); err != nil {
				return err
			}
		}

		fields := domain.TransactionPatch{
			TrackingNumber:    patch.TrackingNumber,
			EstimatedDelivery: patch.EstimatedDelivery,
			ActualDelivery:    patch.ActualDelivery,
		}
		if fields.Empty() {
			return nil
		}

		if err := scope.repos.Transactions.UpdateFields(ctx, t.ID, fields); err != nil {
			return fmt.Errorf("repos.Transactions.UpdateFields: %w", err)
		}

		return nil
	})
	if err != nil {
		return domain.Transaction{}, err
	}

	return s.GetTransaction(ctx, transactionID)
}

func (s *TransactionService) applyStatusPatch(ctx context.Context, scope *txScope, t *domain.Transaction, next domain.TransactionStatus, patch domain.TransactionPatch) error {
	if next == t.Status {
		if !s.recordNoopStatusEvents {
			return nil
		}
		return s.appendEvent(ctx, scope, t.ID, domain.EventStatusUpdated, map[string]any{
			"from": t.Status,
			"to":   next,
		})
	}

	if err := domain.CheckTransition(t.Status, next); err != nil {
		return err
	}

	// delivered and completed release the seller's funds
	if (next == domain.TransactionStatusDelivered || next == domain.TransactionStatusCompleted) &&
		scope.actor != SystemActor && scope.actor != t.BuyerID {
		return fmt.Errorf("%w: only the buyer can mark a transaction %s", domain.ErrForbidden, next)
	}

	switch next {
	case domain.TransactionStatusCancelled:
		return s.cancelLocked(ctx, scope, t, "status update", domain.EventStatusUpdated)
	case domain.TransactionStatusRefunded:
		return s.refundLocked(ctx, scope, t, "status update", domain.EventStatusUpdated)
	case domain.TransactionStatusCompleted:
		return s.completeLocked(ctx, scope, t, domain.EventStatusUpdated)
	case domain.TransactionStatusDelivered:
		delivered := lo.FromPtrOr(patch.ActualDelivery, s.now())
		return s.transition(ctx, scope, t, next, &delivered, domain.EventStatusUpdated, nil)
	default:
		payload := map[string]any{}
		if patch.TrackingNumber != nil {
			payload["tracking_number"] = *patch.TrackingNumber
		}
		return s.transition(ctx, scope, t, next, nil, domain.EventStatusUpdated, payload)
	}
}

// ConfirmDelivery is called by the buyer once the parcel arrived. Delivery, fund
// release, completion and the listing's sale commit as one unit.
func (s *TransactionService) ConfirmDelivery(ctx context.Context, transactionID uuid.UUID, callerID string) (domain.Transaction, error) {
	err := s.run(ctx, callerID, func(ctx context.Context, scope *txScope) error {
		t, err := scope.repos.Transactions.GetTransactionForUpdate(ctx, transactionID)
		if err != nil {
			return fmt.Errorf("repos.Transactions.GetTransactionForUpdate: %w", err)
		}

		if callerID == "" || callerID != t.BuyerID {
			return fmt.Errorf("%w: only the buyer can confirm delivery", domain.ErrForbidden)
		}
		if t.Status != domain.TransactionStatusShipped {
			return fmt.Errorf("%w: transaction is %s, expected %s", domain.ErrInvalidState, t.Status, domain.TransactionStatusShipped)
		}

		deliveredAt := s.now()
		if err := s.transition(ctx, scope, &t, domain.TransactionStatusDelivered, &deliveredAt, domain.EventDelivered, nil); err != nil {
			return err
		}

		if err := s.appendEvent(ctx, scope, t.ID, domain.EventFundsReleased, map[string]any{
			"seller_id":  t.SellerID,
			"net_amount": t.NetAmount().StringFixed(2),
			"currency":   t.Amount.Currency.String(),
		}); err != nil {
			return err
		}

		return s.completeLocked(ctx, scope, &t, domain.EventCompleted)
	})
	if err != nil {
		return domain.Transaction{}, err
	}

	s.logger.Info("delivery confirmed",
		"method", "TransactionService.ConfirmDelivery",
		"transaction_id", transactionID)

	return s.GetTransaction(ctx, transactionID)
}

// CancelTransaction cancels and reopens the listing, refunding first when money was captured.
// Only the buyer, the seller or SystemActor may cancel.
func (s *TransactionService) CancelTransaction(ctx context.Context, transactionID uuid.UUID, reason, actor string) (domain.Transaction, error) {
	err := s.run(ctx, actor, func(ctx context.Context, scope *txScope) error {
		t, err := scope.repos.Transactions.GetTransactionForUpdate(ctx, transactionID)
		if err != nil {
			return fmt.Errorf("repos.Transactions.GetTransactionForUpdate: %w", err)
		}

		if actor != SystemActor && actor != t.BuyerID && actor != t.SellerID {
			return fmt.Errorf("%w: only the buyer or seller can cancel", domain.ErrForbidden)
		}
		if !t.Status.CanTransitionTo(domain.TransactionStatusCancelled) {
			return fmt.Errorf("%w: cannot cancel a %s transaction", domain.ErrInvalidState, t.Status)
		}

		return s.cancelLocked(ctx, scope, &t, reason, domain.EventCancelled)
	})
	if err != nil {
		return domain.Transaction{}, err
	}

	s.logger.Info("transaction cancelled",
		"method", "TransactionService.CancelTransaction",
		"transaction_id", transactionID,
		"reason", reason)

	return s.GetTransaction(ctx, transactionID)
}

// ResolveDispute settles a disputed transaction as completed, cancelled or refunded.
// Neither party may rule on its own dispute, so only SystemActor is accepted.
func (s *TransactionService) ResolveDispute(ctx context.Context, transactionID uuid.UUID, outcome domain.TransactionStatus, actor string) (domain.Transaction, error) {
	actor = lo.CoalesceOrEmpty(actor, SystemActor)

	err := s.run(ctx, actor, func(ctx context.Context, scope *txScope) error {
		t, err := scope.repos.Transactions.GetTransactionForUpdate(ctx, transactionID)
		if err != nil {
			return fmt.Errorf("repos.Transactions.GetTransactionForUpdate: %w", err)
		}

		if actor != SystemActor {
			return fmt.Errorf("%w: disputes are resolved by the platform", domain.ErrForbidden)
		}

		if t.Status != domain.TransactionStatusDisputed {
			return fmt.Errorf("%w: transaction is %s, expected %s", domain.ErrInvalidState, t.Status, domain.TransactionStatusDisputed)
		}
		if err := domain.CheckTransition(t.Status, outcome); err != nil {
			return err
		}

		switch outcome {
		case domain.TransactionStatusCompleted:
			return s.completeLocked(ctx, scope, &t, domain.EventDisputeResolved)
		case domain.TransactionStatusCancelled:
			return s.cancelLocked(ctx, scope, &t, "dispute resolved", domain.EventDisputeResolved)
		default:
			return s.refundLocked(ctx, scope, &t, "dispute resolved", domain.EventDisputeResolved)
		}
	})
	if err != nil {
		return domain.Transaction{}, err
	}

	return s.GetTransaction(ctx, transactionID)
}

func (s *TransactionService) GetTransaction(ctx context.Context, transactionID uuid.UUID) (domain.Transaction, error) {
	t, err := s.transactions.GetTransaction(ctx, transactionID)
	if err != nil {
		return t, fmt.Errorf("transactions.GetTransaction: %w", err)
	}
	return t, nil
}

func (s *TransactionService) GetTimeline(ctx context.Context, transactionID uuid.UUID) ([]domain.TransactionEvent, error) {
	if _, err := s.GetTransaction(ctx, transactionID); err != nil {
		return nil, err
	}

	events, err := s.transactions.ListEvents(ctx, transactionID)
	if err != nil {
		return nil, fmt.Errorf("transactions.ListEvents: %w", err)
	}
	return events, nil
}

func (s *TransactionService) GetTransactionStats(ctx context.Context, sellerID string) (domain.TransactionStats, error) {
	if sellerID == "" {
		return domain.TransactionStats{}, fmt.Errorf("%w: sellerID is empty", domain.ErrValidation)
	}

	stats, err := s.transactions.SellerStats(ctx, sellerID)
	if err != nil {
		return stats, fmt.Errorf("transactions.SellerStats: %w", err)
	}
	return stats, nil
}

func (s *TransactionService) GetUserTransactions(ctx context.Context, filter domain.TransactionFilter) ([]domain.Transaction, error) {
	if filter.UserID == "" {
		return nil, fmt.Errorf("%w: userID is empty", domain.ErrValidation)
	}

	txs, err := s.transactions.ListUserTransactions(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("transactions.ListUserTransactions: %w", err)
	}
	return txs, nil
}

// transition performs one table-checked, status-conditional write and records its event.
func (s *TransactionService) transition(ctx context.Context, scope *txScope, t *domain.Transaction, next domain.TransactionStatus, actualDelivery *time.Time, eventType domain.EventType, payload map[string]any) error {
	if err := domain.CheckTransition(t.Status, next); err != nil {
		return err
	}

	if err := scope.repos.Transactions.UpdateStatus(ctx, port.StatusUpdate{
		TransactionID:  t.ID,
		Expected:       t.Status,
		Next:           next,
		ActualDelivery: actualDelivery,
	}); err != nil {
		return fmt.Errorf("repos.Transactions.UpdateStatus: %w", err)
	}

	if payload == nil {
		payload = map[string]any{}
	}
	payload["from"] = t.Status
	payload["to"] = next

	scope.transitions = append(scope.transitions, transition{from: t.Status, to: next})
	t.Status = next
	if actualDelivery != nil {
		t.ActualDelivery = actualDelivery
	}

	return s.appendEvent(ctx, scope, t.ID, eventType, payload)
}

func (s *TransactionService) completeLocked(ctx context.Context, scope *txScope, t *domain.Transaction, eventType domain.EventType) error {
	if err := s.transition(ctx, scope, t, domain.TransactionStatusCompleted, nil, eventType, nil); err != nil {
		return err
	}

	if err := scope.repos.Listings.UpdateStatus(ctx, t.ListingID, domain.ListingStatusSold); err != nil {
		return fmt.Errorf("repos.Listings.UpdateStatus[sold]: %w", err)
	}

	return nil
}

func (s *TransactionService) cancelLocked(ctx context.Context, scope *txScope, t *domain.Transaction, reason string, eventType domain.EventType) error {
	payload := map[string]any{"reason": reason}

	if t.Status.PaymentCaptured() {
		refund, err := s.refund(ctx, scope, t, reason)
		if err != nil {
			return err
		}
		payload["refund_id"] = refund.RefundID
	}

	if err := s.transition(ctx, scope, t, domain.TransactionStatusCancelled, nil, eventType, payload); err != nil {
		return err
	}

	if err := scope.repos.Listings.UpdateStatus(ctx, t.ListingID, domain.ListingStatusActive); err != nil {
		return fmt.Errorf("repos.Listings.UpdateStatus[active]: %w", err)
	}

	return nil
}

func (s *TransactionService) refundLocked(ctx context.Context, scope *txScope, t *domain.Transaction, reason string, eventType domain.EventType) error {
	refund, err := s.refund(ctx, scope, t, reason)
	if err != nil {
		return err
	}

	if err := s.transition(ctx, scope, t, domain.TransactionStatusRefunded, nil, eventType, map[string]any{
		"reason":    reason,
		"refund_id": refund.RefundID,
	}); err != nil {
		return err
	}

	if err := scope.repos.Listings.UpdateStatus(ctx, t.ListingID, domain.ListingStatusActive); err != nil {
		return fmt.Errorf("repos.Listings.UpdateStatus[active]: %w", err)
	}

	return nil
}

// refund calls the provider and records a refunded event; a refused refund aborts the step.
// A refund the provider already issued for this payment counts as done, so a retry after
// a rolled back cancellation can finish.
func (s *TransactionService) refund(ctx context.Context, scope *txScope, t *domain.Transaction, reason string) (domain.RefundResult, error) {
	if t.PaymentID == nil || *t.PaymentID == "" {
		return domain.RefundResult{}, fmt.Errorf("%w: transaction has no captured payment", domain.ErrInvalidState)
	}

	refund, err := s.payments.RefundPayment(ctx, domain.RefundRequest{
		TransactionID: t.ID,
		PaymentID:     *t.PaymentID,
		Amount:        t.Amount,
		Reason:        reason,
	})
	if err != nil {
		metrics.PaymentCalls.WithLabelValues("refund", metrics.OutcomeError).Inc()
		return refund, fmt.Errorf("payments.RefundPayment: %w", asUpstream(err))
	}

	switch {
	case refund.PriorRefund():
		// an earlier attempt refunded the payment but its database work rolled back
		s.logger.Warn("payment already refunded, resuming",
			"method", "TransactionService.refund",
			"transaction_id", t.ID,
			"payment_id", *t.PaymentID,
			"refund_id", refund.RefundID)
		refund.Success = true
		if refund.Amount.IsZero() {
			refund.Amount = t.Amount.Amount
		}
		metrics.PaymentCalls.WithLabelValues("refund", metrics.OutcomeSuccess).Inc()
	case !refund.Success:
		metrics.PaymentCalls.WithLabelValues("refund", metrics.OutcomeDeclined).Inc()
		return refund, fmt.Errorf("%w: refund refused with status %s", domain.ErrUpstream, refund.Status)
	default:
		metrics.PaymentCalls.WithLabelValues("refund", metrics.OutcomeSuccess).Inc()
	}

	err = s.appendEvent(ctx, scope, t.ID, domain.EventRefunded, map[string]any{
		"refund_id": refund.RefundID,
		"amount":    refund.Amount.StringFixed(2),
		"status":    refund.Status,
	})
	return refund, err
}

func (s *TransactionService) appendEvent(ctx context.Context, scope *txScope, transactionID uuid.UUID, eventType domain.EventType, payload map[string]any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("json.Marshal[%s]: %w", eventType, err)
	}

	if _, err := scope.repos.Transactions.AppendEvent(ctx, domain.TransactionEvent{
		TransactionID: transactionID,
		EventType:     eventType,
		Payload:       raw,
		Actor:         scope.actor,
	}); err != nil {
		return fmt.Errorf("repos.Transactions.AppendEvent[%s]: %w", eventType, err)
	}

	return nil
}

func asUpstream(err error) error {
	if errors.Is(err, domain.ErrUpstream) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrUpstream, err)
}
