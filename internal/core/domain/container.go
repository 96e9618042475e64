package domain

import "context"

// Container holds a bounded amount of stock keyed by product name.
//
// Implementations keep every stored quantity above zero and never let the
// total exceed their capacity.
type Container interface {
	// Add increases the stock of product. It fails with CapacityExceeded
	// unless the free space is strictly greater than qty.
	Add(ctx context.Context, product string, qty int) error

	// Remove decreases the stock of product, deleting it at zero.
	Remove(ctx context.Context, product string, qty int) error

	FreeSpace(ctx context.Context) (int, error)

	// Items returns a copy of the current contents.
	Items(ctx context.Context) (map[string]int, error)

	UniqueCount(ctx context.Context) (int, error)
}
