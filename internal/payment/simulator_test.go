package payment

import (
	"strings"
	"testing"
	"time"

	"github.com/pageturn/bookstore-backend/pkg/config"
)

func TestAttemptUsesSuccessRate(t *testing.T) {
	t.Parallel()

	cfg := config.PaymentConfig{SuccessRate: 0.9}

	success := NewSimulator(cfg, WithDraw(func() float64 { return 0.89 }))
	if !success.Attempt() {
		t.Fatal("draw below rate must succeed")
	}

	failure := NewSimulator(cfg, WithDraw(func() float64 { return 0.95 }))
	if failure.Attempt() {
		t.Fatal("draw above rate must fail")
	}
}

func TestAttemptClampsRate(t *testing.T) {
	t.Parallel()

	always := NewSimulator(config.PaymentConfig{SuccessRate: 7}, WithDraw(func() float64 { return 0.999 }))
	if !always.Attempt() {
		t.Fatal("rate above 1 should clamp to always succeed")
	}

	never := NewSimulator(config.PaymentConfig{SuccessRate: -1}, WithDraw(func() float64 { return 0 }))
	if never.Attempt() {
		t.Fatal("rate below 0 should clamp to always fail")
	}
}

func TestReferenceFormat(t *testing.T) {
	t.Parallel()

	fixed := time.UnixMilli(1735689600000)
	sim := NewSimulator(config.PaymentConfig{SuccessRate: 0.9}, WithClock(func() time.Time { return fixed }))

	ref := sim.Reference()
	if !strings.HasPrefix(ref, "PAY-") {
		t.Fatalf("unexpected reference %q", ref)
	}
	if ref != "PAY-1735689600000" {
		t.Fatalf("expected fixed timestamp reference, got %q", ref)
	}
}

func TestProviderName(t *testing.T) {
	t.Parallel()

	sim := NewSimulator(config.PaymentConfig{SuccessRate: 0.9})
	if sim.Provider() != "simulated" {
		t.Fatalf("unexpected provider %q", sim.Provider())
	}
}
