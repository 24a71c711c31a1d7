package resilience

import (
	"fmt"
	"time"
)

// CircuitBreakerConfig configures the breaker in front of one external API.
type CircuitBreakerConfig struct {
	Enabled          bool
	FailureThreshold int
	OpenTimeout      time.Duration
	HalfOpenMaxReq   int
}

// DefaultCircuitBreakerConfig trips after five consecutive transient failures
// and probes again after fifteen seconds.
func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Enabled:          true,
		FailureThreshold: 5,
		OpenTimeout:      15 * time.Second,
		HalfOpenMaxReq:   2,
	}
}

// Validate rejects settings that would make an enabled breaker useless.
func (c CircuitBreakerConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.FailureThreshold < 1 {
		return fmt.Errorf("failure count must be >= 1, got %d", c.FailureThreshold)
	}
	if c.OpenTimeout <= 0 {
		return fmt.Errorf("open timeout must be > 0, got %s", c.OpenTimeout)
	}
	if c.HalfOpenMaxReq < 1 {
		return fmt.Errorf("half-open max requests must be >= 1, got %d", c.HalfOpenMaxReq)
	}
	return nil
}

// NormalizeCircuitBreakerConfig fills zero values with defaults.
func NormalizeCircuitBreakerConfig(cfg CircuitBreakerConfig) CircuitBreakerConfig {
	defaults := DefaultCircuitBreakerConfig()
	if cfg.FailureThreshold < 1 {
		cfg.FailureThreshold = defaults.FailureThreshold
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = defaults.OpenTimeout
	}
	if cfg.HalfOpenMaxReq < 1 {
		cfg.HalfOpenMaxReq = defaults.HalfOpenMaxReq
	}
	return cfg
}
