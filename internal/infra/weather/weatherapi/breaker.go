package weatherapi

import (
	"context"
	"errors"
	"log/slog"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/yanqian/outfit-recommender/internal/domain/weather"
)

// BreakerConfig tunes the circuit breaker around the provider.
type BreakerConfig struct {
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold uint32
}

func (c BreakerConfig) withDefaults() BreakerConfig {
	if c.MaxRequests == 0 {
		c.MaxRequests = 1
	}
	if c.Interval <= 0 {
		c.Interval = time.Minute
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.FailureThreshold == 0 {
		c.FailureThreshold = 3
	}
	return c
}

// BreakerProvider fails fast while the upstream provider is unhealthy.
type BreakerProvider struct {
	next    weather.Provider
	breaker *gobreaker.CircuitBreaker[weather.Reading]
}

// NewBreakerProvider wraps next with a circuit breaker.
func NewBreakerProvider(next weather.Provider, cfg BreakerConfig, logger *slog.Logger) *BreakerProvider {
	cfg = cfg.withDefaults()
	log := logger.With("component", "weather.breaker")
	settings := gobreaker.Settings{
		Name:        "weatherapi",
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		// A caller hanging up says nothing about upstream health.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("weather breaker state changed", "name", name, "from", from.String(), "to", to.String())
		},
	}
	return &BreakerProvider{
		next:    next,
		breaker: gobreaker.NewCircuitBreaker[weather.Reading](settings),
	}
}

// Current implements weather.Provider.
func (p *BreakerProvider) Current(ctx context.Context, city string) (weather.Reading, error) {
	return p.breaker.Execute(func() (weather.Reading, error) {
		return p.next.Current(ctx, city)
	})
}

// State reports the breaker state.
func (p *BreakerProvider) State() gobreaker.State {
	return p.breaker.State()
}
