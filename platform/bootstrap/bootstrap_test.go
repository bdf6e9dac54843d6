package bootstrap

import (
	"context"
	"errors"
	"testing"
	"time"

	"leadcall_backend/platform/logger"
)

func TestWithRetryStopsOnSuccess(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), logger.Discard(), "op", 3, time.Millisecond, func() error {
		calls++
		if calls < 2 {
			return errors.New("not yet")
		}
		return nil
	})
	if err != nil || calls != 2 {
		t.Fatalf("expected success on second attempt, got calls=%d err=%v", calls, err)
	}
}

func TestWithRetryGivesUp(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), logger.Discard(), "op", 2, time.Millisecond, func() error {
		calls++
		return errors.New("still down")
	})
	if err == nil || calls != 2 {
		t.Fatalf("expected error after 2 attempts, got calls=%d err=%v", calls, err)
	}
}

func TestWithRetryHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := WithRetry(ctx, logger.Discard(), "op", 3, time.Millisecond, func() error { return nil })
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestEnvHelpers(t *testing.T) {
	t.Setenv("TEST_INTERVAL", "90s")
	t.Setenv("TEST_BAD_INTERVAL", "soon")
	t.Setenv("TEST_BATCH", "-4")

	if got := DurationEnv("TEST_INTERVAL", time.Minute); got != 90*time.Second {
		t.Fatalf("expected 90s, got %s", got)
	}
	if got := DurationEnv("TEST_BAD_INTERVAL", time.Minute); got != time.Minute {
		t.Fatalf("expected fallback, got %s", got)
	}
	if got := PositiveIntEnv("TEST_BATCH", 100); got != 100 {
		t.Fatalf("expected fallback for negative value, got %d", got)
	}
}
