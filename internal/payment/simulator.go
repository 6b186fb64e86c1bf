package payment

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/pageturn/bookstore-backend/pkg/config"
)

// ProviderName identifies the built-in payment provider on stored orders.
const ProviderName = "simulated"

// Simulator models an external payment gateway. Each attempt succeeds with
// the configured probability; no state is kept between attempts.
type Simulator struct {
	successRate float64
	draw        func() float64
	now         func() time.Time
}

// Option tweaks simulator internals, used by tests to pin randomness.
type Option func(*Simulator)

// WithDraw replaces the uniform random source.
func WithDraw(draw func() float64) Option {
	return func(s *Simulator) {
		if draw != nil {
			s.draw = draw
		}
	}
}

// WithClock replaces the reference timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Simulator) {
		if now != nil {
			s.now = now
		}
	}
}

// NewSimulator builds a simulator from the payment configuration.
func NewSimulator(cfg config.PaymentConfig, opts ...Option) *Simulator {
	rate := cfg.SuccessRate
	if rate < 0 {
		rate = 0
	}
	if rate > 1 {
		rate = 1
	}
	sim := &Simulator{
		successRate: rate,
		draw:        rand.Float64,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(sim)
	}
	return sim
}

// Attempt runs one simulated charge and reports whether it succeeded.
func (s *Simulator) Attempt() bool {
	return s.draw() < s.successRate
}

// Provider returns the provider label recorded on orders.
func (s *Simulator) Provider() string {
	return ProviderName
}

// Reference mints a provider reference for a successful charge.
func (s *Simulator) Reference() string {
	return fmt.Sprintf("PAY-%d", s.now().UnixMilli())
}
