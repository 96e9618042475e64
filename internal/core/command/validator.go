// Package command turns whitespace-delimited command text into transfer requests.
package command

import (
	"strconv"
	"strings"

	"github.com/rl1809/stock-transfer/internal/core/domain"
)

const (
	minTokens        = 5
	minDeliverTokens = 7

	verbIndex    = 0
	amountIndex  = 1
	productIndex = 2
	sourceIndex  = 4
	destIndex    = 6
)

type Validator struct {
	vocab Vocabulary
}

func NewValidator(vocab Vocabulary) *Validator {
	return &Validator{vocab: vocab}
}

func (v *Validator) Vocabulary() Vocabulary { return v.vocab }

// ParseLine splits line on whitespace and validates the tokens.
func (v *Validator) ParseLine(line string) (domain.Request, error) {
	return v.Validate(strings.Fields(line))
}

// Validate runs the checks in a fixed order and reports the first failure.
// Later checks are never evaluated once one fails. tokens is not modified.
func (v *Validator) Validate(tokens []string) (domain.Request, error) {
	if len(tokens) < minTokens {
		return domain.Request{}, domain.ErrTooFewTokens
	}

	amount, err := strconv.Atoi(tokens[amountIndex])
	if err != nil {
		return domain.Request{}, domain.ErrNonIntegerAmount
	}
	if amount <= 0 {
		return domain.Request{}, domain.ErrNonPositiveAmount
	}

	verb := tokens[verbIndex]
	deliver := equalFold(verb, v.vocab.Deliver)
	collect := equalFold(verb, v.vocab.Collect)
	if !deliver && !collect {
		return domain.Request{}, domain.ErrUnknownVerb
	}

	req := domain.Request{
		Amount:  amount,
		Product: tokens[productIndex],
	}

	if deliver {
		if !equalFold(tokens[sourceIndex], v.vocab.Warehouse) {
			return domain.Request{}, domain.ErrMissingWarehouseKeyword
		}
		if len(tokens) < minDeliverTokens {
			return domain.Request{}, domain.ErrTooFewTokensForDeliver
		}
		if !equalFold(tokens[destIndex], v.vocab.Shop) {
			return domain.Request{}, domain.ErrMissingShopKeyword
		}
		req.Source = domain.LocationWarehouse
		req.Destination = domain.LocationShop
		return req, nil
	}

	if !equalFold(tokens[sourceIndex], v.vocab.Shop) {
		return domain.Request{}, domain.ErrMissingShopKeywordCollect
	}
	req.Source = domain.LocationShop
	return req, nil
}
