// Property-based tests for checkout pricing.
package model

import (
	"testing"
	"time"

	"pgregory.net/rapid"
)

// TestCheckoutAmountBoundsProperty checks that for any base price and any
// active discount percentage, the charged amount never exceeds the base
// price and never goes negative.
func TestCheckoutAmountBoundsProperty(t *testing.T) {
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	rapid.Check(t, func(t *rapid.T) {
		base := rapid.Int64Range(1, 1_000_000_000).Draw(t, "base")
		pct := rapid.Float64Range(0, 100).Draw(t, "pct")

		discount := &Discount{Percentage: pct, ValidUntil: now.Add(time.Hour)}
		amount, err := CheckoutAmount(Pricing{Monthly: base}, discount, CycleMonthly, now)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if amount < 0 {
			t.Fatalf("amount %d went negative for base %d pct %f", amount, base, pct)
		}
		if amount > base {
			t.Fatalf("amount %d exceeds base %d for pct %f", amount, base, pct)
		}
	})
}

// TestExpiredDiscountProperty checks that an expired discount never changes
// the price, whatever its percentage.
func TestExpiredDiscountProperty(t *testing.T) {
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	rapid.Check(t, func(t *rapid.T) {
		base := rapid.Int64Range(1, 1_000_000_000).Draw(t, "base")
		pct := rapid.Float64Range(0, 100).Draw(t, "pct")
		expiredBy := rapid.Int64Range(0, 86400).Draw(t, "expiredBy")

		discount := &Discount{Percentage: pct, ValidUntil: now.Add(-time.Duration(expiredBy) * time.Second)}
		amount, err := CheckoutAmount(Pricing{Monthly: base}, discount, CycleMonthly, now)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if amount != base {
			t.Fatalf("expired discount changed price: base %d became %d", base, amount)
		}
	})
}

// TestCompletedOnlyFromProcessingProperty checks that no sequence of legal
// transitions reaches completed without passing through processing.
func TestCompletedOnlyFromProcessingProperty(t *testing.T) {
	statuses := []OrderStatus{
		StatusPending, StatusProcessing, StatusCompleted,
		StatusCancelled, StatusFailed, StatusExpired,
	}

	rapid.Check(t, func(t *rapid.T) {
		from := rapid.SampledFrom(statuses).Draw(t, "from")
		to := rapid.SampledFrom(statuses).Draw(t, "to")

		if CanTransition(from, to) && to == StatusCompleted && from != StatusProcessing {
			t.Fatalf("completed reached from %s", from)
		}
		if CanTransition(from, to) && from.Terminal() {
			t.Fatalf("terminal state %s allowed a transition to %s", from, to)
		}
	})
}
