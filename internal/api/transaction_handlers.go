package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/nikolayk812/wardrobe/internal/domain"
	"github.com/nikolayk812/wardrobe/internal/service"
	"github.com/samber/lo"
)

func (h *Handler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req createTransactionRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	t, err := h.transactions.CreateTransaction(r.Context(), service.CreateTransactionRequest{
		ListingID:       req.ListingID,
		BuyerID:         callerID(r),
		PaymentMethod:   req.PaymentMethod,
		ShippingAddress: req.ShippingAddress,
		ShippingOption:  req.ShippingOption,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/v1/transactions/%s", t.ID))
	respondWithJSON(w, http.StatusCreated, toTransactionResponse(t))
}

// participantTransaction loads the transaction and checks the caller is its buyer or seller.
func (h *Handler) participantTransaction(ctx context.Context, id uuid.UUID, caller string) (domain.Transaction, error) {
	t, err := h.transactions.GetTransaction(ctx, id)
	if err != nil {
		return t, err
	}
	if caller != t.BuyerID && caller != t.SellerID {
		return domain.Transaction{}, fmt.Errorf("%w: not a participant of this transaction", domain.ErrForbidden)
	}
	return t, nil
}

func (h *Handler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	t, err := h.participantTransaction(r.Context(), id, callerID(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, toTransactionResponse(t))
}

func (h *Handler) GetTimeline(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if _, err := h.participantTransaction(r.Context(), id, callerID(r)); err != nil {
		h.fail(w, r, err)
		return
	}

	events, err := h.transactions.GetTimeline(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, toEventResponses(events))
}

func (h *Handler) ProcessPayment(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var req paymentRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	t, err := h.participantTransaction(r.Context(), id, callerID(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if t.BuyerID != callerID(r) {
		h.fail(w, r, fmt.Errorf("%w: only the buyer can pay", domain.ErrForbidden))
		return
	}

	result, err := h.transactions.ProcessPayment(r.Context(), id, domain.PaymentDetails{
		Method:  req.Method,
		Token:   req.Token,
		PayerID: callerID(r),
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	status := http.StatusOK
	if !result.Success {
		status = http.StatusPaymentRequired
	}
	respondWithJSON(w, status, toPaymentResultResponse(result))
}

func (h *Handler) UpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var req patchTransactionRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	patch, err := req.toDomain()
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if _, err := h.participantTransaction(r.Context(), id, callerID(r)); err != nil {
		h.fail(w, r, err)
		return
	}

	t, err := h.transactions.UpdateTransaction(r.Context(), id, patch, callerID(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, toTransactionResponse(t))
}

func (h *Handler) ConfirmDelivery(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	t, err := h.transactions.ConfirmDelivery(r.Context(), id, callerID(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, toTransactionResponse(t))
}

func (h *Handler) CancelTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var req cancelRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			h.fail(w, r, err)
			return
		}
	}

	t, err := h.transactions.CancelTransaction(r.Context(), id, lo.CoalesceOrEmpty(req.Reason, "cancelled by user"), callerID(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, toTransactionResponse(t))
}

func (h *Handler) ResolveDispute(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var req resolveDisputeRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	outcome, err := domain.ToTransactionStatus(req.Outcome)
	if err != nil {
		h.fail(w, r, fmt.Errorf("%w: %w", domain.ErrValidation, err))
		return
	}

	t, err := h.transactions.ResolveDispute(r.Context(), id, outcome, callerID(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, toTransactionResponse(t))
}

// GetTransactionStats reports on the caller's sales.
func (h *Handler) GetTransactionStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.transactions.GetTransactionStats(r.Context(), callerID(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, toStatsResponse(stats))
}

func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	role, err := domain.ToTransactionRole(q.Get("role"))
	if err != nil {
		h.fail(w, r, fmt.Errorf("%w: unknown role %q", err, q.Get("role")))
		return
	}

	filter := domain.TransactionFilter{UserID: callerID(r), Role: role}
	for _, s := range multiValue(q, "status") {
		status, err := domain.ToTransactionStatus(s)
		if err != nil {
			h.fail(w, r, fmt.Errorf("%w: %w", domain.ErrValidation, err))
			return
		}
		filter.Statuses = append(filter.Statuses, status)
	}

	txs, err := h.transactions.GetUserTransactions(r.Context(), filter)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, lo.Map(txs, func(t domain.Transaction, _ int) transactionResponse {
		return toTransactionResponse(t)
	}))
}
