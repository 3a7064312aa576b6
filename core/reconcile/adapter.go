package reconcile

import "context"

// Mutator applies grouped changes to a store.
// Each method receives a possibly empty batch and should issue a single grouped
// statement for it. Implementations must not commit or roll back on their own;
// transaction boundaries belong to the caller that created the Mutator.
type Mutator[K comparable, V any] interface {
	// DeleteBatch removes the given entries, addressed by key.
	DeleteBatch(ctx context.Context, entries []Entry[K, V]) error

	// UpdateBatch rewrites the mutable fields of the given entries, addressed by key.
	UpdateBatch(ctx context.Context, entries []Entry[K, V]) error

	// InsertBatch creates the given entries.
	InsertBatch(ctx context.Context, entries []Entry[K, V]) error
}
