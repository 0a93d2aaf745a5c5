package port

import "context"

// StockGate is the outcome of a mirrored stock reservation.
type StockGate int

const (
	// StockReserved: the mirror had enough stock and was decremented.
	StockReserved StockGate = iota
	// StockInsufficient: the mirror tracks this book and reports a shortfall.
	StockInsufficient
	// StockUnknown: the mirror has no entry; the database decides.
	StockUnknown
)

// CacheRepository mirrors catalog stock in Redis. The mirror is advisory:
// the database transaction is the authoritative enforcement point, the
// mirror only sheds doomed requests before they open a transaction.
type CacheRepository interface {
	// DecrementStock atomically decreases mirrored stock
	DecrementStock(ctx context.Context, bookID string, quantity int) (StockGate, error)

	// IncrementStock restores mirrored stock (for rollback on failure)
	IncrementStock(ctx context.Context, bookID string, quantity int) error

	// SetStock overwrites the mirror, used at boot and on catalog writes
	SetStock(ctx context.Context, bookID string, quantity int) error

	// SetIdempotency sets a key for idempotency check, returns false if already exists
	SetIdempotency(ctx context.Context, key string) (bool, error)
}
