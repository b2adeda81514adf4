package money_test

import (
	"testing"

	dec "github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezonia/invoiceiq-go/internal/money"
)

func TestFromFloat(t *testing.T) {
	d := money.FromFloat(100.555)
	// Should round to cents
	assert.True(t, d.Equal(dec.NewFromFloat(100.56)))
}

func TestFromString(t *testing.T) {
	d, err := money.FromString("123456.78")
	require.NoError(t, err)
	assert.True(t, d.Equal(dec.RequireFromString("123456.78")))

	_, err = money.FromString("not-a-number")
	require.Error(t, err)
}

func TestMustFromString(t *testing.T) {
	d := money.MustFromString("999.99")
	assert.True(t, d.Equal(dec.RequireFromString("999.99")))

	assert.Panics(t, func() {
		money.MustFromString("invalid")
	})
}

func TestMul(t *testing.T) {
	a := dec.NewFromInt(100)
	b := dec.NewFromFloat(0.15)
	result := money.Mul(a, b)
	assert.True(t, result.Equal(dec.NewFromInt(15)))
}

func TestLineNet(t *testing.T) {
	tests := []struct {
		name      string
		quantity  float64
		unitPrice float64
		expected  string
	}{
		{"whole units", 3, 100, "300"},
		{"fractional quantity", 1.5, 99.99, "149.99"}, // 149.985 rounds half away from zero
		{"sub-cent unit price", 1000, 0.0015, "1.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := money.LineNet(tt.quantity, tt.unitPrice)
			expected := dec.RequireFromString(tt.expected)
			assert.True(t, result.Equal(expected),
				"qty=%v, unit=%v: got %s, want %s",
				tt.quantity, tt.unitPrice, result.String(), tt.expected)
		})
	}
}

func TestTaxAmount(t *testing.T) {
	tests := []struct {
		name     string
		basis    string
		rate     float64
		expected string
	}{
		{"20% of 100", "100", 20, "20"},
		{"5.5% of 100", "100", 5.5, "5.5"},
		{"0% rate", "100", 0, "0"},
		{"rounds to cents", "33.33", 20, "6.67"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			basis := dec.RequireFromString(tt.basis)
			result := money.TaxAmount(basis, tt.rate)
			expected := dec.RequireFromString(tt.expected)
			assert.True(t, result.Equal(expected),
				"basis=%s, rate=%v%%: got %s, want %s",
				tt.basis, tt.rate, result.String(), tt.expected)
		})
	}
}

func TestSum(t *testing.T) {
	values := []dec.Decimal{
		dec.NewFromInt(100),
		dec.NewFromInt(200),
		dec.NewFromInt(300),
	}
	result := money.Sum(values)
	assert.True(t, result.Equal(dec.NewFromInt(600)))
}

func TestSum_Empty(t *testing.T) {
	result := money.Sum([]dec.Decimal{})
	assert.True(t, result.IsZero())
}

func TestWithinTolerance(t *testing.T) {
	tol := money.MustFromString("0.01")
	assert.True(t, money.WithinTolerance(dec.RequireFromString("100.00"), dec.RequireFromString("100.01"), tol))
	assert.True(t, money.WithinTolerance(dec.RequireFromString("100.01"), dec.RequireFromString("100.00"), tol))
	assert.False(t, money.WithinTolerance(dec.RequireFromString("100.00"), dec.RequireFromString("100.02"), tol))
}
