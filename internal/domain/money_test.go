package domain_test

import (
	"encoding/json"
	"testing"

	"github.com/nikolayk812/ecart-demo/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/currency"
)

func TestMoney_Add(t *testing.T) {
	a := domain.NewMoney(decimal.RequireFromString("0.10"))
	b := domain.NewMoney(decimal.RequireFromString("0.20"))

	sum, err := a.Add(b)
	require.NoError(t, err)
	assert.Equal(t, "0.30", sum.Amount.StringFixed(2))

	_, err = a.Add(domain.Money{Amount: decimal.NewFromInt(1), Currency: currency.EUR})
	require.EqualError(t, err, "currency mismatch: USD != EUR")
}

func TestMoney_MarshalJSON(t *testing.T) {
	m := domain.NewMoney(decimal.RequireFromString("1299.9"))

	data, err := json.Marshal(m)
	require.NoError(t, err)
	assert.JSONEq(t, `{"amount":"1299.90","currency":"USD"}`, string(data))

	var back domain.Money
	require.NoError(t, json.Unmarshal(data, &back))
	assert.True(t, m.Equal(back))
}
