package service_test

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nikolayk812/wardrobe/internal/domain"
	"github.com/nikolayk812/wardrobe/internal/port"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

var (
	errTransactionNotFound = fmt.Errorf("transaction %w", domain.ErrNotFound)
	errListingNotFound     = fmt.Errorf("listing %w", domain.ErrNotFound)
)

type memState struct {
	listings map[uuid.UUID]domain.Listing
	txs      map[uuid.UUID]domain.Transaction
	events   []domain.TransactionEvent
	likes    map[string]struct{}
}

func (s *memState) clone() *memState {
	return &memState{
		listings: maps.Clone(s.listings),
		txs:      maps.Clone(s.txs),
		events:   slices.Clone(s.events),
		likes:    maps.Clone(s.likes),
	}
}

// memStore is an in-memory database. RunInTx holds one lock for the whole
// function, which serializes callers the way a row lock would, and commits the
// working copy only when fn succeeds.
type memStore struct {
	mu    sync.Mutex
	state *memState
	now   func() time.Time

	// failEvent makes AppendEvent fail for that event type.
	failEvent domain.EventType
}

func newMemStore(now func() time.Time) *memStore {
	return &memStore{
		state: &memState{
			listings: map[uuid.UUID]domain.Listing{},
			txs:      map[uuid.UUID]domain.Transaction{},
			likes:    map[string]struct{}{},
		},
		now: now,
	}
}

func (s *memStore) RunInTx(ctx context.Context, fn func(ctx context.Context, repos port.Repositories) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.state.clone()
	repos := port.Repositories{
		Listings:     &memListings{store: s, st: work},
		Transactions: &memTransactions{store: s, st: work},
	}

	if err := fn(ctx, repos); err != nil {
		return err
	}

	s.state = work
	return nil
}

// Listings and Transactions return repositories outside any transaction.
func (s *memStore) Listings() port.ListingRepository {
	return &memListings{store: s, autoLock: true}
}

func (s *memStore) Transactions() port.TransactionRepository {
	return &memTransactions{store: s, autoLock: true}
}

func (s *memStore) listing(id uuid.UUID) domain.Listing {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.listings[id]
}

func (s *memStore) transaction(id uuid.UUID) domain.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.txs[id]
}

func (s *memStore) eventTypes(id uuid.UUID) []domain.EventType {
	s.mu.Lock()
	defer s.mu.Unlock()

	var types []domain.EventType
	for _, e := range s.state.events {
		if e.TransactionID == id {
			types = append(types, e.EventType)
		}
	}
	return types
}

func (s *memStore) putListing(l domain.Listing) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.listings[l.ID] = l
}

func (s *memStore) putTransaction(t domain.Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.txs[t.ID] = t
}

type memListings struct {
	store    *memStore
	st       *memState
	autoLock bool
}

func (r *memListings) state() (*memState, func()) {
	if !r.autoLock {
		return r.st, func() {}
	}
	r.store.mu.Lock()
	return r.store.state, r.store.mu.Unlock
}

func (r *memListings) GetListing(_ context.Context, id uuid.UUID) (domain.Listing, error) {
	st, unlock := r.state()
	defer unlock()

	l, ok := st.listings[id]
	if !ok {
		return l, errListingNotFound
	}
	return l, nil
}

func (r *memListings) GetListingForUpdate(ctx context.Context, id uuid.UUID) (domain.Listing, error) {
	return r.GetListing(ctx, id)
}

func (r *memListings) SearchListings(_ context.Context, filter domain.ListingFilter, page domain.Page) (domain.ListingPage, error) {
	st, unlock := r.state()
	defer unlock()

	var matched []domain.Listing
	for _, l := range st.listings {
		if !slices.Contains(filter.EffectiveStatuses(), l.Status) {
			continue
		}
		if filter.Query != "" && !strings.Contains(strings.ToLower(l.Title), strings.ToLower(filter.Query)) {
			continue
		}
		matched = append(matched, l)
	}
	slices.SortFunc(matched, func(a, b domain.Listing) int { return b.CreatedAt.Compare(a.CreatedAt) })

	total := int64(len(matched))
	start := min(page.Offset, len(matched))
	end := min(start+page.Limit, len(matched))

	return domain.ListingPage{Listings: matched[start:end], Total: total}, nil
}

func (r *memListings) CreateListing(_ context.Context, l domain.Listing) (uuid.UUID, error) {
	st, unlock := r.state()
	defer unlock()

	l.ID = uuid.New()
	l.ItemID = lo.Ternary(l.ItemID == uuid.Nil, uuid.New(), l.ItemID)
	l.Status = lo.Ternary(l.Status == "", domain.ListingStatusActive, l.Status)
	l.CreatedAt = r.store.now()
	l.UpdatedAt = l.CreatedAt
	st.listings[l.ID] = l

	return l.ID, nil
}

func (r *memListings) UpdateStatus(_ context.Context, id uuid.UUID, status domain.ListingStatus) error {
	st, unlock := r.state()
	defer unlock()

	l, ok := st.listings[id]
	if !ok {
		return fmt.Errorf("q.UpdateListingStatus: %w", errListingNotFound)
	}
	l.Status = status
	if status == domain.ListingStatusActive {
		l.BuyerID = nil
	}
	st.listings[id] = l
	return nil
}

func (r *memListings) UpdateSellerStatus(_ context.Context, id uuid.UUID, status domain.ListingStatus) error {
	st, unlock := r.state()
	defer unlock()

	l, ok := st.listings[id]
	if !ok {
		return fmt.Errorf("q.UpdateListingStatusUnlessHeld: %w", errListingNotFound)
	}
	if l.Status == domain.ListingStatusReserved || l.Status == domain.ListingStatusSold {
		return fmt.Errorf("q.UpdateListingStatusUnlessHeld: %w: listing is %s", domain.ErrInvalidState, l.Status)
	}
	l.Status = status
	if status == domain.ListingStatusActive {
		l.BuyerID = nil
	}
	st.listings[id] = l
	return nil
}

func (r *memListings) ReserveListing(_ context.Context, id uuid.UUID, buyerID string) error {
	st, unlock := r.state()
	defer unlock()

	l, ok := st.listings[id]
	if !ok || l.Status != domain.ListingStatusActive {
		return fmt.Errorf("q.ReserveListing: %w: listing is not active", domain.ErrInvalidState)
	}
	l.Status = domain.ListingStatusReserved
	l.BuyerID = lo.ToPtr(buyerID)
	st.listings[id] = l
	return nil
}

func (r *memListings) ToggleLike(_ context.Context, id uuid.UUID, userID string) (bool, int64, error) {
	st, unlock := r.state()
	defer unlock()

	l, ok := st.listings[id]
	if !ok {
		return false, 0, errListingNotFound
	}

	key := id.String() + "/" + userID
	_, liked := st.likes[key]
	if liked {
		delete(st.likes, key)
		l.Likes--
	} else {
		st.likes[key] = struct{}{}
		l.Likes++
	}
	st.listings[id] = l

	return !liked, l.Likes, nil
}

func (r *memListings) IncrementViews(_ context.Context, id uuid.UUID) (int64, error) {
	st, unlock := r.state()
	defer unlock()

	l, ok := st.listings[id]
	if !ok {
		return 0, fmt.Errorf("q.IncrementListingViews: %w", errListingNotFound)
	}
	l.Views++
	st.listings[id] = l
	return l.Views, nil
}

func (r *memListings) DeleteListing(_ context.Context, id uuid.UUID) error {
	st, unlock := r.state()
	defer unlock()

	delete(st.listings, id)
	return nil
}

type memTransactions struct {
	store    *memStore
	st       *memState
	autoLock bool
}

func (r *memTransactions) state() (*memState, func()) {
	if !r.autoLock {
		return r.st, func() {}
	}
	r.store.mu.Lock()
	return r.store.state, r.store.mu.Unlock
}

func (r *memTransactions) GetTransaction(_ context.Context, id uuid.UUID) (domain.Transaction, error) {
	st, unlock := r.state()
	defer unlock()

	t, ok := st.txs[id]
	if !ok {
		return t, errTransactionNotFound
	}
	return t, nil
}

func (r *memTransactions) GetTransactionForUpdate(ctx context.Context, id uuid.UUID) (domain.Transaction, error) {
	return r.GetTransaction(ctx, id)
}

func (r *memTransactions) InsertTransaction(_ context.Context, t domain.Transaction) (uuid.UUID, error) {
	st, unlock := r.state()
	defer unlock()

	for _, existing := range st.txs {
		if existing.ListingID == t.ListingID && !existing.Status.IsTerminal() {
			return uuid.Nil, fmt.Errorf("q.InsertTransaction: %w", &domain.ConstraintError{Err: domain.ErrConflict, Constraint: "transactions_open_listing_uidx"})
		}
	}

	t.ID = uuid.New()
	t.Status = lo.Ternary(t.Status == "", domain.TransactionStatusPendingPayment, t.Status)
	t.CreatedAt = r.store.now()
	t.UpdatedAt = t.CreatedAt
	st.txs[t.ID] = t

	return t.ID, nil
}

func (r *memTransactions) conditional(st *memState, id uuid.UUID, expected domain.TransactionStatus) (domain.Transaction, error) {
	t, ok := st.txs[id]
	if !ok {
		return t, errTransactionNotFound
	}
	if t.Status != expected {
		return t, fmt.Errorf("%w: expected status %s, found %s", domain.ErrConflict, expected, t.Status)
	}
	return t, nil
}

func (r *memTransactions) UpdateStatus(_ context.Context, u port.StatusUpdate) error {
	st, unlock := r.state()
	defer unlock()

	t, err := r.conditional(st, u.TransactionID, u.Expected)
	if err != nil {
		return fmt.Errorf("q.UpdateTransactionStatus: %w", err)
	}
	t.Status = u.Next
	if u.ActualDelivery != nil {
		t.ActualDelivery = u.ActualDelivery
	}
	t.UpdatedAt = r.store.now()
	st.txs[t.ID] = t
	return nil
}

func (r *memTransactions) UpdateFields(_ context.Context, id uuid.UUID, patch domain.TransactionPatch) error {
	st, unlock := r.state()
	defer unlock()

	t, ok := st.txs[id]
	if !ok {
		return fmt.Errorf("q.UpdateTransactionFields: %w", errTransactionNotFound)
	}
	if patch.TrackingNumber != nil {
		t.TrackingNumber = patch.TrackingNumber
	}
	if patch.EstimatedDelivery != nil {
		t.EstimatedDelivery = patch.EstimatedDelivery
	}
	if patch.ActualDelivery != nil {
		t.ActualDelivery = patch.ActualDelivery
	}
	st.txs[id] = t
	return nil
}

func (r *memTransactions) ConfirmPayment(_ context.Context, c port.PaymentConfirmation) error {
	st, unlock := r.state()
	defer unlock()

	t, err := r.conditional(st, c.TransactionID, c.Expected)
	if err != nil {
		return fmt.Errorf("q.ConfirmTransactionPayment: %w", err)
	}
	t.Status = c.Next
	t.PaymentID = lo.ToPtr(c.PaymentID)
	t.Fees.PaymentFee = c.PaymentFee
	st.txs[t.ID] = t
	return nil
}

func (r *memTransactions) AppendEvent(_ context.Context, e domain.TransactionEvent) (domain.TransactionEvent, error) {
	st, unlock := r.state()
	defer unlock()

	if r.store.failEvent != "" && e.EventType == r.store.failEvent {
		return e, errors.New("connection reset by peer")
	}
	if _, ok := st.txs[e.TransactionID]; !ok {
		return e, fmt.Errorf("q.InsertTransactionEvent: %w", errTransactionNotFound)
	}

	e.ID = uuid.New()
	e.Timestamp = r.store.now()
	st.events = append(st.events, e)
	return e, nil
}

func (r *memTransactions) ListEvents(_ context.Context, id uuid.UUID) ([]domain.TransactionEvent, error) {
	st, unlock := r.state()
	defer unlock()

	return lo.Filter(st.events, func(e domain.TransactionEvent, _ int) bool {
		return e.TransactionID == id
	}), nil
}

func (r *memTransactions) ListUserTransactions(_ context.Context, f domain.TransactionFilter) ([]domain.Transaction, error) {
	st, unlock := r.state()
	defer unlock()

	var result []domain.Transaction
	for _, t := range st.txs {
		buyer := t.BuyerID == f.UserID && f.Role != domain.RoleSeller
		seller := t.SellerID == f.UserID && f.Role != domain.RoleBuyer
		if !buyer && !seller {
			continue
		}
		if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, t.Status) {
			continue
		}
		result = append(result, t)
	}
	return result, nil
}

func (r *memTransactions) SellerStats(_ context.Context, sellerID string) (domain.TransactionStats, error) {
	st, unlock := r.state()
	defer unlock()

	counts := map[domain.TransactionStatus]int64{}
	revenue := decimal.Zero
	for _, t := range st.txs {
		if t.SellerID != sellerID {
			continue
		}
		counts[t.Status]++
		if t.Status == domain.TransactionStatusCompleted {
			revenue = revenue.Add(t.Amount.Amount)
		}
	}
	return domain.NewTransactionStats(counts, revenue), nil
}

func (r *memTransactions) DeleteTransaction(_ context.Context, id uuid.UUID) error {
	st, unlock := r.state()
	defer unlock()

	delete(st.txs, id)
	return nil
}

// fakeGateway counts calls; results default to success.
type fakeGateway struct {
	mu sync.Mutex

	charges int
	refunds int

	chargeResult *domain.PaymentResult
	chargeErr    error
	refundResult *domain.RefundResult
	refundErr    error

	// refunded maps a payment to its refund; repeats answer already_refunded like a real provider.
	refunded map[string]string
}

func (g *fakeGateway) ProcessPayment(_ context.Context, d domain.PaymentDetails) (domain.PaymentResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.charges++
	if g.chargeErr != nil {
		return domain.PaymentResult{}, g.chargeErr
	}
	if g.chargeResult != nil {
		return *g.chargeResult, nil
	}
	return domain.PaymentResult{
		Success:   true,
		PaymentID: fmt.Sprintf("pay_%d", g.charges),
		Status:    string(domain.TransactionStatusPaymentConfirmed),
	}, nil
}

func (g *fakeGateway) RefundPayment(_ context.Context, ref domain.RefundRequest) (domain.RefundResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.refunds++
	if g.refundErr != nil {
		return domain.RefundResult{}, g.refundErr
	}
	if g.refundResult != nil {
		return *g.refundResult, nil
	}
	if refundID, done := g.refunded[ref.PaymentID]; done {
		return domain.RefundResult{RefundID: refundID, Status: domain.RefundStatusAlreadyRefunded}, nil
	}

	refundID := fmt.Sprintf("ref_%d", g.refunds)
	if g.refunded == nil {
		g.refunded = make(map[string]string)
	}
	g.refunded[ref.PaymentID] = refundID

	return domain.RefundResult{
		Success:  true,
		RefundID: refundID,
		Amount:   ref.Amount.Amount,
		Status:   domain.RefundStatusRefunded,
	}, nil
}

func (g *fakeGateway) refundedPayments() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.refunded)
}

func (g *fakeGateway) counts() (int, int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.charges, g.refunds
}
