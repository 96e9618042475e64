package handler

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/rl1809/stock-transfer/internal/core/command"
	"github.com/rl1809/stock-transfer/internal/core/domain"
	"github.com/rl1809/stock-transfer/internal/core/service"
)

// Describe renders an outcome as one human-readable status line. Keywords
// are quoted in the vocabulary the command was written in.
func Describe(o service.Outcome, v command.Vocabulary) string {
	if o.Err == nil {
		req := o.Request
		if req.Verb() == domain.VerbDeliver {
			return fmt.Sprintf("delivered %d %s from %s to %s", req.Amount, req.Product, v.Warehouse, v.Shop)
		}
		return fmt.Sprintf("collected %d %s from %s", req.Amount, req.Product, v.Shop)
	}

	msg := describeError(o.Err, v)
	if o.RolledBack {
		msg += fmt.Sprintf("; %d %s returned to %s", o.Request.Amount, o.Request.Product, v.Warehouse)
	}
	return msg
}

func describeError(err error, v command.Vocabulary) string {
	e, ok := domain.AsError(err)
	if !ok {
		return "unexpected error: " + err.Error()
	}

	switch e.Kind {
	case domain.KindTooFewTokens:
		return "a command needs at least five words"
	case domain.KindNonIntegerAmount:
		return "the second word must be a whole number"
	case domain.KindNonPositiveAmount:
		return "the amount must be a positive whole number"
	case domain.KindUnknownVerb:
		return fmt.Sprintf("a command must start with %q or %q", v.Deliver, v.Collect)
	case domain.KindMissingWarehouseKeyword:
		return fmt.Sprintf("a %q command must name the %q as its source", v.Deliver, v.Warehouse)
	case domain.KindTooFewTokensForDeliver:
		return fmt.Sprintf("a %q command needs at least seven words", v.Deliver)
	case domain.KindMissingShopKeyword:
		return fmt.Sprintf("goods can only be delivered to the %q", v.Shop)
	case domain.KindMissingShopKeywordCollect:
		return fmt.Sprintf("a %q command must name the %q as its source", v.Collect, v.Shop)
	case domain.KindItemNotFound:
		return fmt.Sprintf("product %s not found", e.Product)
	case domain.KindInsufficientQuantity:
		return fmt.Sprintf("not enough %s: %d available, %d requested", e.Product, e.Have, e.Want)
	case domain.KindCapacityExceeded:
		return fmt.Sprintf("cannot add goods: there is room for only %d units", e.Free)
	case domain.KindTooManyDistinctItems:
		return fmt.Sprintf("cannot deliver: the %s already holds %d different products", v.Shop, e.Limit)
	case domain.KindInvalidQuantity:
		return fmt.Sprintf("quantity must be greater than zero, got %d", e.Want)
	case domain.KindStorageFailure:
		return "storage is unavailable, try again later"
	case domain.KindInvariantViolation:
		return "stock bookkeeping is inconsistent; the service has stopped accepting commands"
	default:
		return err.Error()
	}
}

// FormatItems lists container contents in product order, e.g. "boxes: 10, cacti: 13".
func FormatItems(items map[string]int) string {
	if len(items) == 0 {
		return "(empty)"
	}
	parts := make([]string, 0, len(items))
	for _, p := range slices.Sorted(maps.Keys(items)) {
		parts = append(parts, fmt.Sprintf("%s: %d", p, items[p]))
	}
	return strings.Join(parts, ", ")
}
