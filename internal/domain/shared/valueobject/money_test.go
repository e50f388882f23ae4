package valueobject

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMoney(t *testing.T) {
	t.Run("creates money with valid amount and currency", func(t *testing.T) {
		m, err := NewMoney(decimal.NewFromFloat(100.50), PKR)
		require.NoError(t, err)
		assert.Equal(t, PKR, m.Currency())
		assert.True(t, m.Amount().Equal(decimal.NewFromFloat(100.50)))
	})

	t.Run("returns error for empty currency", func(t *testing.T) {
		_, err := NewMoney(decimal.NewFromFloat(100), "")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "currency cannot be empty")
	})
}

func TestNewMoneyFromFloat(t *testing.T) {
	m, err := NewMoneyFromFloat(99.99, USD)
	require.NoError(t, err)
	assert.Equal(t, USD, m.Currency())
	assert.True(t, m.Amount().Equal(decimal.NewFromFloat(99.99)))
}

func TestNewMoneyFromString(t *testing.T) {
	t.Run("valid string", func(t *testing.T) {
		m, err := NewMoneyFromString("123.45", PKR)
		require.NoError(t, err)
		assert.True(t, m.Amount().Equal(decimal.NewFromFloat(123.45)))
	})

	t.Run("invalid string", func(t *testing.T) {
		_, err := NewMoneyFromString("not-a-number", PKR)
		assert.Error(t, err)
	})
}

func TestNewMoneyPKR(t *testing.T) {
	m := NewMoneyPKR(decimal.NewFromFloat(50.00))
	assert.Equal(t, PKR, m.Currency())
	assert.True(t, m.Amount().Equal(decimal.NewFromFloat(50.00)))
}

func TestNewMoneyPKRFromFloat(t *testing.T) {
	m := NewMoneyPKRFromFloat(75.50)
	assert.Equal(t, PKR, m.Currency())
	assert.Equal(t, 75.5, m.Float64())
}

func TestZero(t *testing.T) {
	m := Zero(USD)
	assert.True(t, m.IsZero())
	assert.Equal(t, USD, m.Currency())
}

func TestZeroPKR(t *testing.T) {
	m := ZeroPKR()
	assert.True(t, m.IsZero())
	assert.Equal(t, PKR, m.Currency())
}

func TestDefaultCurrency(t *testing.T) {
	assert.Equal(t, PKR, DefaultCurrency)
}

func TestMoneyIsPositiveNegativeZero(t *testing.T) {
	positive := NewMoneyPKRFromFloat(100)
	negative := NewMoneyPKRFromFloat(-100)
	zero := ZeroPKR()

	assert.True(t, positive.IsPositive())
	assert.False(t, positive.IsNegative())
	assert.False(t, positive.IsZero())

	assert.False(t, negative.IsPositive())
	assert.True(t, negative.IsNegative())
	assert.False(t, negative.IsZero())

	assert.False(t, zero.IsPositive())
	assert.False(t, zero.IsNegative())
	assert.True(t, zero.IsZero())
}

func TestMoneyAdd(t *testing.T) {
	t.Run("adds same currency", func(t *testing.T) {
		m1 := NewMoneyPKRFromFloat(100.50)
		m2 := NewMoneyPKRFromFloat(50.25)
		result, err := m1.Add(m2)
		require.NoError(t, err)
		assert.True(t, result.Amount().Equal(decimal.NewFromFloat(150.75)))
	})

	t.Run("fails for different currencies", func(t *testing.T) {
		m1, _ := NewMoneyFromFloat(100, PKR)
		m2, _ := NewMoneyFromFloat(50, USD)
		_, err := m1.Add(m2)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "different currencies")
	})
}

func TestMoneyMustAdd(t *testing.T) {
	t.Run("adds same currency", func(t *testing.T) {
		m1 := NewMoneyPKRFromFloat(100)
		m2 := NewMoneyPKRFromFloat(50)
		result := m1.MustAdd(m2)
		assert.Equal(t, 150.0, result.Float64())
	})

	t.Run("panics for different currencies", func(t *testing.T) {
		m1, _ := NewMoneyFromFloat(100, PKR)
		m2, _ := NewMoneyFromFloat(50, USD)
		assert.Panics(t, func() {
			m1.MustAdd(m2)
		})
	})
}

func TestMoneySubtract(t *testing.T) {
	t.Run("subtracts same currency", func(t *testing.T) {
		m1 := NewMoneyPKRFromFloat(100.50)
		m2 := NewMoneyPKRFromFloat(50.25)
		result, err := m1.Subtract(m2)
		require.NoError(t, err)
		assert.True(t, result.Amount().Equal(decimal.NewFromFloat(50.25)))
	})

	t.Run("can go negative", func(t *testing.T) {
		m1 := NewMoneyPKRFromFloat(50)
		m2 := NewMoneyPKRFromFloat(100)
		result := m1.MustSubtract(m2)
		assert.True(t, result.IsNegative())
		assert.Equal(t, -50.0, result.Float64())
	})

	t.Run("fails for different currencies", func(t *testing.T) {
		m1, _ := NewMoneyFromFloat(100, PKR)
		m2, _ := NewMoneyFromFloat(50, USD)
		_, err := m1.Subtract(m2)
		assert.Error(t, err)
	})
}

func TestMoneyMultiply(t *testing.T) {
	m := NewMoneyPKRFromFloat(100)

	t.Run("multiply by decimal", func(t *testing.T) {
		result := m.Multiply(decimal.NewFromFloat(1.5))
		assert.Equal(t, 150.0, result.Float64())
	})

	t.Run("multiply by int", func(t *testing.T) {
		result := m.MultiplyByInt(3)
		assert.Equal(t, 300.0, result.Float64())
	})
}

func TestMoneyNegate(t *testing.T) {
	m := NewMoneyPKRFromFloat(100)
	result := m.Negate()
	assert.Equal(t, -100.0, result.Float64())
	assert.Equal(t, PKR, result.Currency())
}

func TestMoneyAbs(t *testing.T) {
	negative := NewMoneyPKRFromFloat(-100)
	result := negative.Abs()
	assert.Equal(t, 100.0, result.Float64())
}

func TestMoneyRound(t *testing.T) {
	m := NewMoneyPKRFromFloat(100.456)
	result := m.Round(2)
	assert.Equal(t, "100.46", result.StringFixed(2))
}

func TestMoneyComparisons(t *testing.T) {
	m100 := NewMoneyPKRFromFloat(100)
	m50 := NewMoneyPKRFromFloat(50)
	m100b := NewMoneyPKRFromFloat(100)

	t.Run("equals", func(t *testing.T) {
		assert.True(t, m100.Equals(m100b))
		assert.False(t, m100.Equals(m50))
	})

	t.Run("less than", func(t *testing.T) {
		result, err := m50.LessThan(m100)
		require.NoError(t, err)
		assert.True(t, result)
	})

	t.Run("less than or equal", func(t *testing.T) {
		result, err := m100.LessThanOrEqual(m100b)
		require.NoError(t, err)
		assert.True(t, result)
	})

	t.Run("greater than", func(t *testing.T) {
		result, err := m100.GreaterThan(m50)
		require.NoError(t, err)
		assert.True(t, result)
	})

	t.Run("greater than or equal", func(t *testing.T) {
		result, err := m100.GreaterThanOrEqual(m100b)
		require.NoError(t, err)
		assert.True(t, result)
	})

	t.Run("comparison fails for different currencies", func(t *testing.T) {
		usd, _ := NewMoneyFromFloat(100, USD)
		_, err := m100.LessThan(usd)
		assert.Error(t, err)
	})
}

func TestMoneyString(t *testing.T) {
	m := NewMoneyPKRFromFloat(123.45)
	assert.Equal(t, "123.45 PKR", m.String())
}

func TestMoneyJSON(t *testing.T) {
	original := NewMoneyPKRFromFloat(99.99)

	t.Run("marshal", func(t *testing.T) {
		data, err := json.Marshal(original)
		require.NoError(t, err)
		assert.Contains(t, string(data), "99.99")
		assert.Contains(t, string(data), "PKR")
	})

	t.Run("unmarshal", func(t *testing.T) {
		data := `{"amount":"123.45","currency":"USD"}`
		var m Money
		err := json.Unmarshal([]byte(data), &m)
		require.NoError(t, err)
		assert.Equal(t, USD, m.Currency())
		assert.True(t, m.Amount().Equal(decimal.NewFromFloat(123.45)))
	})

	t.Run("unmarshal invalid amount", func(t *testing.T) {
		data := `{"amount":"not-a-number","currency":"PKR"}`
		var m Money
		err := json.Unmarshal([]byte(data), &m)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid amount")
	})
}

func TestMoneyScan(t *testing.T) {
	t.Run("scan string", func(t *testing.T) {
		var m Money
		err := m.Scan("123.45")
		require.NoError(t, err)
		assert.True(t, m.Amount().Equal(decimal.NewFromFloat(123.45)))
		assert.Equal(t, DefaultCurrency, m.Currency())
	})

	t.Run("scan bytes", func(t *testing.T) {
		var m Money
		err := m.Scan([]byte("99.99"))
		require.NoError(t, err)
		assert.True(t, m.Amount().Equal(decimal.NewFromFloat(99.99)))
	})

	t.Run("scan float64", func(t *testing.T) {
		var m Money
		err := m.Scan(55.5)
		require.NoError(t, err)
		assert.True(t, m.Amount().Equal(decimal.NewFromFloat(55.5)))
		assert.Equal(t, DefaultCurrency, m.Currency())
	})

	t.Run("scan nil", func(t *testing.T) {
		var m Money
		err := m.Scan(nil)
		require.NoError(t, err)
		assert.True(t, m.IsZero())
	})

	t.Run("scan invalid type", func(t *testing.T) {
		var m Money
		err := m.Scan(12345)
		assert.Error(t, err)
	})
}

func TestMoneyValue(t *testing.T) {
	m := NewMoneyPKRFromFloat(123.45)
	val, err := m.Value()
	require.NoError(t, err)
	assert.Equal(t, "123.45", val)
}
