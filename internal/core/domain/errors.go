package domain

import (
	"errors"
	"fmt"
)

// Kind identifies why a command or container operation failed.
type Kind string

const (
	KindUnknown Kind = "unknown"

	KindTooFewTokens              Kind = "too_few_tokens"
	KindNonIntegerAmount          Kind = "non_integer_amount"
	KindNonPositiveAmount         Kind = "non_positive_amount"
	KindUnknownVerb               Kind = "unknown_verb"
	KindMissingWarehouseKeyword   Kind = "missing_warehouse_keyword"
	KindTooFewTokensForDeliver    Kind = "too_few_tokens_for_deliver"
	KindMissingShopKeyword        Kind = "missing_shop_keyword"
	KindMissingShopKeywordCollect Kind = "missing_shop_keyword_collect"

	KindItemNotFound         Kind = "item_not_found"
	KindInsufficientQuantity Kind = "insufficient_quantity"
	KindCapacityExceeded     Kind = "capacity_exceeded"
	KindTooManyDistinctItems Kind = "too_many_distinct_items"
	KindInvalidQuantity      Kind = "invalid_quantity"
	KindStorageFailure       Kind = "storage_failure"

	KindInvariantViolation Kind = "invariant_violation"
)

// Class groups kinds by how a caller should react to them.
type Class int

const (
	ClassUnknown Class = iota
	ClassValidation
	ClassTransfer
	ClassStorage
	ClassInvariant
)

func (c Class) String() string {
	switch c {
	case ClassValidation:
		return "validation"
	case ClassTransfer:
		return "transfer"
	case ClassStorage:
		return "storage"
	case ClassInvariant:
		return "invariant"
	default:
		return "unknown"
	}
}

func (k Kind) Class() Class {
	switch k {
	case KindTooFewTokens,
		KindNonIntegerAmount,
		KindNonPositiveAmount,
		KindUnknownVerb,
		KindMissingWarehouseKeyword,
		KindTooFewTokensForDeliver,
		KindMissingShopKeyword,
		KindMissingShopKeywordCollect:
		return ClassValidation
	case KindItemNotFound,
		KindInsufficientQuantity,
		KindCapacityExceeded,
		KindTooManyDistinctItems,
		KindInvalidQuantity:
		return ClassTransfer
	case KindStorageFailure:
		return ClassStorage
	case KindInvariantViolation:
		return ClassInvariant
	default:
		return ClassUnknown
	}
}

// Recoverable reports whether the caller may keep submitting commands.
func (k Kind) Recoverable() bool {
	return k.Class() != ClassInvariant
}

// Error carries the kind of a failure plus the data needed to render it.
// Only the fields relevant to Kind are set.
type Error struct {
	Kind    Kind
	Product string
	Free    int // capacity_exceeded
	Have    int // insufficient_quantity
	Want    int // insufficient_quantity, invalid_quantity
	Limit   int // too_many_distinct_items
	Err     error
}

func (e *Error) Error() string {
	var msg string
	switch e.Kind {
	case KindItemNotFound:
		msg = fmt.Sprintf("product %q not found", e.Product)
	case KindInsufficientQuantity:
		msg = fmt.Sprintf("insufficient quantity of %q: have %d, want %d", e.Product, e.Have, e.Want)
	case KindCapacityExceeded:
		msg = fmt.Sprintf("capacity exceeded: room for %d", e.Free)
	case KindTooManyDistinctItems:
		msg = fmt.Sprintf("too many distinct items: limit %d", e.Limit)
	case KindInvalidQuantity:
		msg = fmt.Sprintf("quantity must be greater than zero, got %d", e.Want)
	default:
		msg = string(e.Kind)
	}
	if e.Err != nil {
		return "stock: " + msg + ": " + e.Err.Error()
	}
	return "stock: " + msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so the sentinels below work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

var (
	ErrTooFewTokens              = &Error{Kind: KindTooFewTokens}
	ErrNonIntegerAmount          = &Error{Kind: KindNonIntegerAmount}
	ErrNonPositiveAmount         = &Error{Kind: KindNonPositiveAmount}
	ErrUnknownVerb               = &Error{Kind: KindUnknownVerb}
	ErrMissingWarehouseKeyword   = &Error{Kind: KindMissingWarehouseKeyword}
	ErrTooFewTokensForDeliver    = &Error{Kind: KindTooFewTokensForDeliver}
	ErrMissingShopKeyword        = &Error{Kind: KindMissingShopKeyword}
	ErrMissingShopKeywordCollect = &Error{Kind: KindMissingShopKeywordCollect}

	ErrItemNotFound         = &Error{Kind: KindItemNotFound}
	ErrInsufficientQuantity = &Error{Kind: KindInsufficientQuantity}
	ErrCapacityExceeded     = &Error{Kind: KindCapacityExceeded}
	ErrTooManyDistinctItems = &Error{Kind: KindTooManyDistinctItems}
	ErrInvalidQuantity      = &Error{Kind: KindInvalidQuantity}
	ErrStorageFailure       = &Error{Kind: KindStorageFailure}

	ErrInvariantViolation = &Error{Kind: KindInvariantViolation}
)

func NotFound(product string) error {
	return &Error{Kind: KindItemNotFound, Product: product}
}

func InsufficientQuantity(product string, have, want int) error {
	return &Error{Kind: KindInsufficientQuantity, Product: product, Have: have, Want: want}
}

func CapacityExceeded(free int) error {
	return &Error{Kind: KindCapacityExceeded, Free: free}
}

func TooManyDistinctItems(limit int) error {
	return &Error{Kind: KindTooManyDistinctItems, Limit: limit}
}

func InvalidQuantity(qty int) error {
	return &Error{Kind: KindInvalidQuantity, Want: qty}
}

// StorageFailure wraps an I/O error from a container backend.
func StorageFailure(err error) error {
	return &Error{Kind: KindStorageFailure, Err: err}
}

// InvariantViolation reports that stock bookkeeping can no longer be trusted.
func InvariantViolation(err error) error {
	return &Error{Kind: KindInvariantViolation, Err: err}
}

// KindOf extracts the kind from any error, KindUnknown if it is not a domain error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsKind checks if the error has the specified kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// AsError returns the domain error carried by err, if any.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
