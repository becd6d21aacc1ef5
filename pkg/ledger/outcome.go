package ledger

import "github.com/lightningnetwork/lnd/fn/v2"

// Outcome is the result of a single ledger lookup:
// Ok(Some) found, Ok(None) not found, Err transport failure.
type Outcome[T any] = fn.Result[fn.Option[T]]

// Classify folds a Reader return pair into an Outcome.
func Classify[T any](v T, err error) Outcome[T] {
	switch {
	case err == nil:
		return fn.Ok(fn.Some(v))
	case IsNotFound(err):
		return fn.Ok(fn.None[T]())
	default:
		return fn.Err[fn.Option[T]](err)
	}
}

// Found collapses an Outcome into a value and a flag, treating failures as absent.
func Found[T any](o Outcome[T]) (T, bool) {
	var zero T
	opt, err := o.Unpack()
	if err != nil || opt.IsNone() {
		return zero, false
	}
	return opt.UnsafeFromSome(), true
}
