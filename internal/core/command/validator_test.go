package command

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rl1809/stock-transfer/internal/core/domain"
)

func TestValidateRejections(t *testing.T) {
	v := NewValidator(English)

	tests := []struct {
		name    string
		line    string
		wantErr error
	}{
		{"empty", "", domain.ErrTooFewTokens},
		{"four tokens", "deliver 5 boxes from", domain.ErrTooFewTokens},
		{"too few wins over everything else", "bogus x", domain.ErrTooFewTokens},
		{"non integer amount", "deliver five boxes from warehouse to shop", domain.ErrNonIntegerAmount},
		{"decimal amount", "deliver 2.5 boxes from warehouse to shop", domain.ErrNonIntegerAmount},
		{"zero amount", "deliver 0 boxes from warehouse to shop", domain.ErrNonPositiveAmount},
		{"negative amount", "collect -3 boxes from shop", domain.ErrNonPositiveAmount},
		{"amount checked before verb", "fetch x boxes from shop", domain.ErrNonIntegerAmount},
		{"unknown verb", "fetch 3 boxes from shop", domain.ErrUnknownVerb},
		{"deliver without warehouse", "deliver 3 boxes from shop to shop", domain.ErrMissingWarehouseKeyword},
		{"deliver with five tokens", "Deliver 5 A from warehouse", domain.ErrTooFewTokensForDeliver},
		{"deliver with six tokens", "deliver 5 A from warehouse to", domain.ErrTooFewTokensForDeliver},
		{"deliver to elsewhere", "deliver 5 A from warehouse to garage", domain.ErrMissingShopKeyword},
		{"collect from warehouse", "collect 5 A from warehouse", domain.ErrMissingShopKeywordCollect},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := v.ParseLine(tt.line)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, domain.Request{}, req)
		})
	}
}

func TestValidateDeliver(t *testing.T) {
	v := NewValidator(English)

	req, err := v.ParseLine("DELIVER 5 cookies from Warehouse to SHOP")
	require.NoError(t, err)
	assert.Equal(t, domain.Request{
		Amount:      5,
		Product:     "cookies",
		Source:      domain.LocationWarehouse,
		Destination: domain.LocationShop,
	}, req)
	assert.Equal(t, domain.VerbDeliver, req.Verb())
	assert.True(t, req.HasDestination())
}

func TestValidateCollect(t *testing.T) {
	v := NewValidator(English)

	req, err := v.ParseLine("collect 2 cookies from shop please")
	require.NoError(t, err)
	assert.Equal(t, domain.Request{
		Amount:  2,
		Product: "cookies",
		Source:  domain.LocationShop,
	}, req)
	assert.Equal(t, domain.VerbCollect, req.Verb())
	assert.False(t, req.HasDestination())
}

func TestValidateDoesNotMutateTokens(t *testing.T) {
	v := NewValidator(English)
	tokens := strings.Fields("deliver 07 boxes from warehouse to shop")
	before := append([]string(nil), tokens...)

	req, err := v.Validate(tokens)
	require.NoError(t, err)
	assert.Equal(t, 7, req.Amount)
	assert.Equal(t, before, tokens)
}

func TestValidateRussianVocabulary(t *testing.T) {
	v := NewValidator(Russian)

	req, err := v.ParseLine("Доставить 3 печеньки из СКЛАД в Магазин")
	require.NoError(t, err)
	assert.Equal(t, domain.LocationWarehouse, req.Source)
	assert.Equal(t, "печеньки", req.Product)

	req, err = v.ParseLine("ЗАБРАТЬ 1 печеньки из магазин")
	require.NoError(t, err)
	assert.Equal(t, domain.LocationShop, req.Source)

	_, err = v.ParseLine("deliver 3 boxes from warehouse to shop")
	assert.ErrorIs(t, err, domain.ErrUnknownVerb)
}

func TestVocabularyFor(t *testing.T) {
	v, err := VocabularyFor("RU")
	require.NoError(t, err)
	assert.Equal(t, Russian, v)

	_, err = VocabularyFor("fr")
	assert.ErrorIs(t, err, ErrUnknownLanguage)
}

func TestIsExit(t *testing.T) {
	assert.True(t, English.IsExit("  EXIT "))
	assert.False(t, English.IsExit("exit now"))
	assert.True(t, Russian.IsExit("Выход"))
}
