package history

import (
	"context"
	"gridbot/internal/config"
	"gridbot/internal/exchange"
	"time"
)

// rateLimitFactor stretches the wait after the exchange reports an exceeded weight.
const rateLimitFactor = 4

func (l *Loader) withRetry(ctx context.Context, fn func() error) error {
	policy := l.retry
	backoff := policy.Delay

	var lastErr error
	for attempt := 1; policy.MaxAttempts == 0 || attempt <= policy.MaxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if !exchange.IsRetryable(err) {
			return err
		}
		if policy.MaxAttempts != 0 && attempt == policy.MaxAttempts {
			break
		}

		wait := capDelay(backoff, policy.MaxDelay)
		if exchange.IsRateLimit(err) {
			wait = capDelay(backoff*rateLimitFactor, policy.MaxDelay)
		}
		l.logEntry().WithError(err).WithFields(map[string]interface{}{
			"attempt": attempt,
			"wait":    wait.String(),
		}).Warn("Ошибка загрузки свечей, повторяем запрос.")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
		backoff = nextDelay(backoff, policy)
	}
	return lastErr
}

func capDelay(d, maxDelay time.Duration) time.Duration {
	if maxDelay > 0 && d > maxDelay {
		return maxDelay
	}
	return d
}

func nextDelay(current time.Duration, policy config.RetryConfig) time.Duration {
	multiplier := policy.Multiplier
	if multiplier < 1 {
		multiplier = 1
	}
	return capDelay(time.Duration(float64(current)*multiplier), policy.MaxDelay)
}
