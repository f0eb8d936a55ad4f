package worker

import (
	"time"

	"roomstay/internal/config"
)

// RetryPolicy is the exponential backoff applied to failed deliveries.
type RetryPolicy struct {
	MaxRetries    int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
}

func RetryPolicyFromConfig(cfg config.RetryConfig) RetryPolicy {
	return RetryPolicy{
		MaxRetries:    cfg.MaxRetries,
		InitialDelay:  cfg.InitialDelay,
		MaxDelay:      cfg.MaxDelay,
		BackoffFactor: cfg.BackoffFactor,
	}
}

func (r RetryPolicy) withDefaults() RetryPolicy {
	if r.MaxRetries <= 0 {
		r.MaxRetries = 5
	}
	if r.InitialDelay <= 0 {
		r.InitialDelay = 2 * time.Second
	}
	if r.MaxDelay <= 0 {
		r.MaxDelay = time.Minute
	}
	if r.BackoffFactor < 1 {
		r.BackoffFactor = 2
	}
	return r
}

// Exhausted reports whether a task that just failed its attempt-th delivery
// (1-based) has used up its retries.
func (r RetryPolicy) Exhausted(attempt int) bool {
	return attempt >= r.MaxRetries
}

// NextDelay is InitialDelay * BackoffFactor^(attempt-1), capped at MaxDelay.
func (r RetryPolicy) NextDelay(attempt int) time.Duration {
	p := r.withDefaults()
	d := float64(p.InitialDelay)
	for i := 1; i < attempt; i++ {
		d *= p.BackoffFactor
		if d >= float64(p.MaxDelay) {
			return p.MaxDelay
		}
	}
	if time.Duration(d) > p.MaxDelay {
		return p.MaxDelay
	}
	return time.Duration(d)
}
