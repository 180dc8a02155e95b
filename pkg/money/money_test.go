package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// Parsing Tests
// ============================================================================

func TestParseCents(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int64
	}{
		{"thousands and decimals", "1.234,56", 123456},
		{"decimals only", "77,88", 7788},
		{"empty", "", 0},
		{"negative", "-45,90", -4590},
		{"dot decimal", "-45.90", -4590},
		{"currency symbol", "R$ 1.500,00", 150000},
		{"multiple thousands groups", "1.234.567,89", 123456789},
		{"whole number", "100", 10000},
		{"dot thousands without decimals", "2.500", 250000},
		{"rounding half up", "10,555", 1056},
		{"garbage", "abc", 0},
		{"only separators", ",.", 0},
		{"whitespace around", "  -1.000,01 ", -100001},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseCents(tt.input))
		})
	}
}

func TestParseCentsLocale_US(t *testing.T) {
	tests := []struct {
		input string
		want  int64
	}{
		{"1,234.56", 123456},
		{"-4.50", -450},
		{"$5,000", 500000},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseCentsLocale(tt.input, LocaleUS))
		})
	}
}

func TestStripThousandsDots(t *testing.T) {
	assert.Equal(t, "1234,56", stripThousandsDots("1.234,56"))
	assert.Equal(t, "45.90", stripThousandsDots("45.90"))
	assert.Equal(t, "1.2345", stripThousandsDots("1.2345"))
	assert.Equal(t, "1000", stripThousandsDots("1.000"))
}

// ============================================================================
// Money Tests
// ============================================================================

func TestNew(t *testing.T) {
	m := New(1234, BRL)
	assert.Equal(t, int64(1234), m.Amount())
	assert.Equal(t, BRL, m.Currency())
	assert.Equal(t, "12.34", m.String())
}

func TestNewFromDecimal(t *testing.T) {
	tests := []struct {
		name   string
		amount string
		want   int64
	}{
		{"simple", "12.34", 1234},
		{"rounds", "12.345", 1235},
		{"negative", "-0.01", -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := decimal.NewFromString(tt.amount)
			require.NoError(t, err)
			assert.Equal(t, tt.want, NewFromDecimal(d, BRL).Amount())
		})
	}
}

func TestMoney_Add(t *testing.T) {
	a := New(-500, BRL)
	assert.False(t, a.IsZero())

	sum, err := a.Add(New(200, BRL))
	require.NoError(t, err)
	assert.Equal(t, int64(-300), sum.Amount())

	_, err = a.Add(New(200, USD))
	assert.Error(t, err)
}

func TestSum(t *testing.T) {
	assert.Equal(t, int64(600), Sum(BRL, 100, 200, 300).Amount())
	assert.True(t, Sum(BRL).IsZero())
}

func TestIsKnownCurrency(t *testing.T) {
	assert.True(t, IsKnownCurrency("brl"))
	assert.True(t, IsKnownCurrency("USD"))
	assert.False(t, IsKnownCurrency("XYZ1"))
}

func TestNilMoney(t *testing.T) {
	var m *Money
	assert.Equal(t, int64(0), m.Amount())
	assert.Equal(t, "", m.Currency())
	assert.True(t, m.IsZero())
	assert.Equal(t, "0.00", m.String())
}
