package resilience

import (
	"errors"
	"testing"
	"time"
)

func TestRetry_Success(t *testing.T) {
	attempts := 0
	err := Retry(func() error {
		attempts++
		return nil
	}, DefaultRetryConfig(), nil)

	if err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
	if attempts != 1 {
		t.Errorf("Expected 1 attempt, got %d", attempts)
	}
}

func TestRetry_FailureThenSuccess(t *testing.T) {
	config := &RetryConfig{
		MaxAttempts:       3,
		InitialBackoff:    time.Millisecond,
		MaxBackoff:        10 * time.Millisecond,
		BackoffMultiplier: 2.0,
		Jitter:            false,
	}

	attempts := 0
	err := Retry(func() error {
		attempts++
		if attempts < 3 {
			return errors.New("temporary error")
		}
		return nil
	}, config, nil)

	if err != nil {
		t.Errorf("Expected no error after retries, got %v", err)
	}
	if attempts != 3 {
		t.Errorf("Expected 3 attempts, got %d", attempts)
	}
}

func TestRetry_MaxAttempts(t *testing.T) {
	config := &RetryConfig{
		MaxAttempts:       2,
		InitialBackoff:    time.Millisecond,
		MaxBackoff:        10 * time.Millisecond,
		BackoffMultiplier: 2.0,
		Jitter:            false,
	}

	attempts := 0
	err := Retry(func() error {
		attempts++
		return errors.New("persistent error")
	}, config, nil)

	if err == nil {
		t.Error("Expected error after max attempts")
	}
	if attempts != 2 {
		t.Errorf("Expected 2 attempts, got %d", attempts)
	}
}

func TestRetry_NonRetryableError(t *testing.T) {
	config := &RetryConfig{
		MaxAttempts:       3,
		InitialBackoff:    time.Millisecond,
		MaxBackoff:        10 * time.Millisecond,
		BackoffMultiplier: 2.0,
		Jitter:            false,
	}

	attempts := 0
	isRetryable := func(err error) bool {
		return false // All errors are non-retryable
	}

	err := Retry(func() error {
		attempts++
		return errors.New("non-retryable error")
	}, config, isRetryable)

	if err == nil {
		t.Error("Expected error")
	}
	if attempts != 1 {
		t.Errorf("Expected 1 attempt for non-retryable error, got %d", attempts)
	}
}

func TestRetry_NilConfigUsesDefaults(t *testing.T) {
	err := Retry(func() error { return nil }, nil, nil)
	if err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
}
