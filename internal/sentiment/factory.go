package sentiment

import (
	"fmt"
	"net/http"
	"os"

	"github.com/jonboulle/clockwork"

	"sentcorr/internal/api"
	"sentcorr/internal/interfaces"
	"sentcorr/internal/store"
)

// NewCapability builds the capability named in cfg. Remote capabilities are
// guarded by a rate limiter and circuit breaker; a cache dir adds a file
// memo in front of everything.
func NewCapability(cfg store.ScorerConfig, clock clockwork.Clock) (interfaces.SentimentCapability, error) {
	var capability interfaces.SentimentCapability
	clientOpts := []api.ClientOption{api.WithHTTPClient(remoteHTTPClient(cfg)), api.WithTimeout(cfg.Timeout), api.WithLogging(true)}

	switch cfg.Capability {
	case store.CapabilityLexicon, "":
		capability = NewLexicon()
	case store.CapabilityHTTP:
		capability = NewHTTPModel(cfg.Endpoint, clientOpts...)
	case store.CapabilityOpenAI, store.CapabilityClaude:
		key := os.Getenv(cfg.APIKeyEnv)
		if key == "" {
			return nil, fmt.Errorf("%s missing", cfg.APIKeyEnv)
		}
		if cfg.Capability == store.CapabilityOpenAI {
			capability = NewOpenAI(key, cfg.Model, cfg.Endpoint, clientOpts...)
		} else {
			capability = NewClaude(key, cfg.Model, cfg.Endpoint, clientOpts...)
		}
	default:
		return nil, fmt.Errorf("unknown scoring capability %q", cfg.Capability)
	}

	if _, local := capability.(*Lexicon); !local {
		capability = Guard(capability, GuardConfig{
			RatePerSecond: cfg.RatePerSecond,
			Burst:         cfg.Burst,
			MaxFailures:   cfg.Breaker.MaxFailures,
			OpenTimeout:   cfg.Breaker.OpenTimeout,
		})
	}

	if cfg.Cache.Dir != "" {
		cache, err := NewScoreCache(cfg.Cache.Dir, cfg.Cache.TTL, clock)
		if err != nil {
			return nil, err
		}
		capability = WithCache(capability, cache)
	}
	return capability, nil
}

// remoteHTTPClient keeps one idle connection per scoring worker so
// concurrent requests to the same model host reuse connections.
func remoteHTTPClient(cfg store.ScorerConfig) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.Workers > transport.MaxIdleConnsPerHost {
		transport.MaxIdleConnsPerHost = cfg.Workers
	}
	return &http.Client{Transport: transport}
}
