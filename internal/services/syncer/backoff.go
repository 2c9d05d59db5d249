package syncer

import "time"

type BackoffConfig struct {
	Step1 time.Duration // default: 1 minute
	Step2 time.Duration // default: 5 minutes
	Step3 time.Duration // default: 15 minutes
	Step4 time.Duration // default: 30 minutes
}

func DefaultBackoffConfig() BackoffConfig {
	return BackoffConfig{
		Step1: 1 * time.Minute,
		Step2: 5 * time.Minute,
		Step3: 15 * time.Minute,
		Step4: 30 * time.Minute,
	}
}

// Backoff picks the delay before the next sync cycle after consecutive
// Shopify failures. A healthy cycle resets the streak and the regular
// interval applies.
type Backoff struct {
	cfg BackoffConfig
}

func NewBackoff(cfg BackoffConfig) *Backoff {
	def := DefaultBackoffConfig()
	if cfg.Step1 <= 0 {
		cfg.Step1 = def.Step1
	}
	if cfg.Step2 <= 0 {
		cfg.Step2 = def.Step2
	}
	if cfg.Step3 <= 0 {
		cfg.Step3 = def.Step3
	}
	if cfg.Step4 <= 0 {
		cfg.Step4 = def.Step4
	}
	return &Backoff{cfg: cfg}
}

func (b *Backoff) Delay(failStreak int) time.Duration {
	switch {
	case failStreak <= 0:
		return 0
	case failStreak == 1:
		return b.cfg.Step1
	case failStreak == 2:
		return b.cfg.Step2
	case failStreak == 3:
		return b.cfg.Step3
	default:
		return b.cfg.Step4
	}
}
