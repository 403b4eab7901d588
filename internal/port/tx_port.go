package port

import "context"

// Repositories are bound to a single database transaction.
type Repositories struct {
	Listings     ListingRepository
	Transactions TransactionRepository
}

// TxRunner executes fn atomically: every write made through repos commits together
// or not at all.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}
