package sentiment

import (
	"context"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"sentcorr/internal/interfaces"
	"sentcorr/internal/logger"
)

// GuardConfig bounds calls to a remote capability.
type GuardConfig struct {
	RatePerSecond float64
	Burst         int
	MaxFailures   uint32
	OpenTimeout   time.Duration
}

type guarded struct {
	inner   interfaces.SentimentCapability
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
}

var _ interfaces.SentimentCapability = (*guarded)(nil)

// Guard rate-limits inner and trips a circuit breaker after MaxFailures
// consecutive failures. While open, calls fail immediately.
func Guard(inner interfaces.SentimentCapability, cfg GuardConfig) interfaces.SentimentCapability {
	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}
	maxFailures := cfg.MaxFailures
	if maxFailures == 0 {
		maxFailures = 5
	}

	settings := gobreaker.Settings{
		Name:        inner.Name(),
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn(context.Background(), "Scoring circuit breaker state changed",
				"capability", name, "from", from.String(), "to", to.String())
		},
	}
	return &guarded{
		inner:   inner,
		limiter: rate.NewLimiter(limit, burst),
		breaker: gobreaker.NewCircuitBreaker(settings),
	}
}

func (g *guarded) Name() string { return g.inner.Name() }

func (g *guarded) Score(ctx context.Context, text string) (float64, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return 0, fmt.Errorf("rate limit: %w", err)
	}
	v, err := g.breaker.Execute(func() (interface{}, error) {
		return g.inner.Score(ctx, text)
	})
	if err != nil {
		return 0, err
	}
	return v.(float64), nil
}
