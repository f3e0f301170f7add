package cart

import "errors"

var (
	// ErrOutOfStock means the requested amount is above the available stock.
	ErrOutOfStock = errors.New("requested amount is out of stock")
	// ErrNotFound means the product is not in the cart.
	ErrNotFound = errors.New("product not in cart")
	// ErrInvalidAmount is returned for amounts the update policy rejects.
	ErrInvalidAmount = errors.New("invalid product amount")
	// ErrPersist means the cart could not be written to storage. The in-memory
	// cart is left as it was before the operation.
	ErrPersist = errors.New("could not persist cart")
	// ErrConflict means the cart kept changing underneath an operation and it
	// gave up after its retries.
	ErrConflict = errors.New("cart changed concurrently")

	ErrAddFailed    = errors.New("could not add product")
	ErrRemoveFailed = errors.New("could not remove product")
	ErrUpdateFailed = errors.New("could not update product amount")
	// ErrReconcileFailed wraps failures of Reconcile.
	ErrReconcileFailed = errors.New("could not check cart against stock")
)
