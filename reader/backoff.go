package reader

import (
	"time"

	"ratesflow/config"
)

// BackoffPolicy yields the delay to wait after a failed attempt. Attempts
// are numbered from 1.
type BackoffPolicy interface {
	Delay(attempt int) time.Duration
}

// FixedBackoff waits the same interval between every attempt.
type FixedBackoff struct {
	Interval time.Duration
}

func (b FixedBackoff) Delay(int) time.Duration {
	return b.Interval
}

// ExponentialBackoff multiplies the base delay per attempt, capped at Max.
type ExponentialBackoff struct {
	Base       time.Duration
	Max        time.Duration
	Multiplier int
}

func (b ExponentialBackoff) Delay(attempt int) time.Duration {
	d := b.Base
	for i := 1; i < attempt; i++ {
		d *= time.Duration(b.Multiplier)
		if b.Max > 0 && d >= b.Max {
			return b.Max
		}
	}
	if b.Max > 0 && d > b.Max {
		return b.Max
	}
	return d
}

// PolicyFromConfig builds the backoff policy the retry configuration
// describes. A multiplier of 1 or less keeps the fixed-delay behaviour.
func PolicyFromConfig(cfg config.RetryConfig) BackoffPolicy {
	if cfg.BackoffMultiplier > 1 {
		return ExponentialBackoff{
			Base:       cfg.BaseDelay,
			Max:        cfg.MaxDelay,
			Multiplier: cfg.BackoffMultiplier,
		}
	}
	return FixedBackoff{Interval: cfg.BaseDelay}
}
