package inventory

import "errors"

var (
	ErrProductNotFound = errors.New("inventory: product not found")
	ErrVariantNotFound = errors.New("inventory: variant not found")

	// ErrTxConflict surfaces after the repository has exhausted its internal
	// retries against concurrent writers of the same product row.
	ErrTxConflict = errors.New("inventory: transaction conflict")

	// ErrScopeBusy means the scope lock could not be acquired in time.
	ErrScopeBusy = errors.New("inventory: scope busy, please try again later")

	// ErrInvalidInput wraps request validation failures.
	ErrInvalidInput = errors.New("inventory: invalid input")

	// ErrUnchanged is returned by a MutateFunc to commit nothing. The
	// repository treats it as success and hands back the record as read.
	ErrUnchanged = errors.New("inventory: no change")
)
