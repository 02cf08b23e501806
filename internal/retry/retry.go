package retry

import (
	"context"
	"fmt"
	"time"

	"trendbot/internal/logger"
)

type Policy struct {
	MaxRetries int
	Delay      time.Duration
}

func DefaultPolicy() Policy {
	return Policy{
		MaxRetries: 5,
		Delay:      60 * time.Second,
	}
}

// ExhaustedError возвращается, когда все попытки исчерпаны.
type ExhaustedError struct {
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("Ошибка сохраняется после %d попыток: %v", e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Err
}

func Do[T any](ctx context.Context, log *logger.Logger, policy Policy, fn func() (T, error)) (T, error) {
	var zero T
	var lastErr error
	for i := 0; i < policy.MaxRetries; i++ {
		result, err := fn()
		if err == nil {
			return result, nil
		}
		lastErr = err
		log.WithError(lastErr).WithFields(map[string]interface{}{
			"attempt": i + 1,
			"max":     policy.MaxRetries,
			"delay":   policy.Delay.String(),
		}).Warn("Ошибка API, повторяем запрос.")
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(policy.Delay):
		}
	}
	return zero, &ExhaustedError{Attempts: policy.MaxRetries, Err: lastErr}
}

func DoVoid(ctx context.Context, log *logger.Logger, policy Policy, fn func() error) error {
	_, err := Do(ctx, log, policy, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}
