package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckoutAmount(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	pricing := Pricing{Monthly: 50000, Quarterly: 135000, Yearly: 500000}

	t.Run("no discount", func(t *testing.T) {
		amount, err := CheckoutAmount(pricing, nil, CycleMonthly, now)
		require.NoError(t, err)
		assert.Equal(t, int64(50000), amount)
	})

	t.Run("active discount", func(t *testing.T) {
		discount := &Discount{Percentage: 20, ValidUntil: now.Add(time.Hour)}
		amount, err := CheckoutAmount(pricing, discount, CycleMonthly, now)
		require.NoError(t, err)
		assert.Equal(t, int64(40000), amount)
	})

	t.Run("expired discount charges full price", func(t *testing.T) {
		discount := &Discount{Percentage: 20, ValidUntil: now.Add(-time.Second)}
		amount, err := CheckoutAmount(pricing, discount, CycleMonthly, now)
		require.NoError(t, err)
		assert.Equal(t, int64(50000), amount)
	})

	t.Run("boundary instant is expired", func(t *testing.T) {
		discount := &Discount{Percentage: 20, ValidUntil: now}
		amount, err := CheckoutAmount(pricing, discount, CycleMonthly, now)
		require.NoError(t, err)
		assert.Equal(t, int64(50000), amount)
	})

	t.Run("rounds to whole rupiah", func(t *testing.T) {
		discount := &Discount{Percentage: 33, ValidUntil: now.Add(time.Hour)}
		amount, err := CheckoutAmount(Pricing{Monthly: 99999}, discount, CycleMonthly, now)
		require.NoError(t, err)
		assert.Equal(t, int64(66999), amount) // 99999 * 0.67 = 66999.33
	})

	t.Run("unoffered cycle", func(t *testing.T) {
		_, err := CheckoutAmount(Pricing{Monthly: 50000}, nil, CycleQuarterly, now)
		assert.Error(t, err)
	})
}

func TestDiscountActiveAt(t *testing.T) {
	now := time.Now()

	assert.False(t, (*Discount)(nil).ActiveAt(now))
	assert.False(t, (&Discount{Percentage: 0, ValidUntil: now.Add(time.Hour)}).ActiveAt(now))
	assert.True(t, (&Discount{Percentage: 10, ValidUntil: now.Add(time.Hour)}).ActiveAt(now))
	assert.False(t, (&Discount{Percentage: 10, ValidUntil: now}).ActiveAt(now))
}

func TestParsePackageKind(t *testing.T) {
	for _, valid := range []string{"vps", "webhosting", "gamehosting"} {
		kind, err := ParsePackageKind(valid)
		require.NoError(t, err)
		assert.Equal(t, valid, string(kind))
	}

	_, err := ParsePackageKind("dedicated")
	assert.ErrorIs(t, err, ErrUnknownKind)
	_, err = ParsePackageKind("")
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestPricingFor(t *testing.T) {
	pricing := Pricing{Monthly: 100, Quarterly: 270, Yearly: 1000}
	assert.Equal(t, int64(100), pricing.For(CycleMonthly))
	assert.Equal(t, int64(270), pricing.For(CycleQuarterly))
	assert.Equal(t, int64(1000), pricing.For(CycleYearly))
	assert.Equal(t, int64(0), pricing.For(BillingCycle("weekly")))
}

func TestFormatRupiah(t *testing.T) {
	assert.Equal(t, "Rp 0", FormatRupiah(0))
	assert.Equal(t, "Rp 500", FormatRupiah(500))
	assert.Equal(t, "Rp 50.000", FormatRupiah(50000))
	assert.Equal(t, "Rp 1.500.000", FormatRupiah(1500000))
	assert.Equal(t, "-Rp 25.000", FormatRupiah(-25000))
}
