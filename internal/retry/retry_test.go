package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"trendbot/internal/logger"

	"github.com/stretchr/testify/require"
)

func testPolicy(max int) Policy {
	return Policy{MaxRetries: max, Delay: time.Millisecond}
}

func TestDoSucceedsAfterFailures(t *testing.T) {
	calls := 0
	result, err := Do(context.Background(), logger.Discard(), testPolicy(5), func() (int, error) {
		calls++
		if calls <= 3 {
			return 0, errors.New("temporary")
		}
		return 42, nil
	})

	require.NoError(t, err)
	require.Equal(t, 42, result)
	require.Equal(t, 4, calls)
}

func TestDoExhaustsRetries(t *testing.T) {
	cause := errors.New("down")
	calls := 0
	_, err := Do(context.Background(), logger.Discard(), testPolicy(5), func() (string, error) {
		calls++
		return "", cause
	})

	require.Error(t, err)
	require.Equal(t, 5, calls)

	var exhausted *ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	require.Equal(t, 5, exhausted.Attempts)
	require.ErrorIs(t, err, cause)
}

func TestDoStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	_, err := Do(ctx, logger.Discard(), Policy{MaxRetries: 5, Delay: time.Hour}, func() (int, error) {
		calls++
		return 0, errors.New("temporary")
	})

	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 1, calls)
}

func TestDoVoid(t *testing.T) {
	calls := 0
	err := DoVoid(context.Background(), logger.Discard(), testPolicy(3), func() error {
		calls++
		if calls < 2 {
			return errors.New("temporary")
		}
		return nil
	})

	require.NoError(t, err)
	require.Equal(t, 2, calls)
}
