package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMoney(t *testing.T) {
	m, err := NewMoney(decimal.RequireFromString("19.99"), "EUR")
	require.NoError(t, err)
	assert.Equal(t, "19.99 EUR", m.String())

	_, err = NewMoney(decimal.Zero, "EURO")
	require.Error(t, err)
}

func TestMoneyMul(t *testing.T) {
	m, err := NewMoney(decimal.RequireFromString("10.50"), "EUR")
	require.NoError(t, err)

	got := m.Mul(3)
	assert.True(t, got.Amount.Equal(decimal.RequireFromString("31.50")))
	assert.Equal(t, m.Currency, got.Currency)
}
