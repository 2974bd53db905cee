package capture

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestBackoff(t *testing.T) {
	cfg := DefaultReacquireConfig()

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 200 * time.Millisecond},
		{1, 200 * time.Millisecond},
		{2, 400 * time.Millisecond},
		{3, 800 * time.Millisecond},
		{4, 1600 * time.Millisecond},
		{5, 2 * time.Second},
		{40, 2 * time.Second},
	}

	for _, tt := range tests {
		if got := cfg.Backoff(tt.attempt); got != tt.want {
			t.Errorf("Backoff(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

func fastReacquire() ReacquireConfig {
	return ReacquireConfig{MaxRetries: 3, RetryDelay: time.Millisecond, MaxRetryDelay: 4 * time.Millisecond}
}

func TestReacquire_Recovers(t *testing.T) {
	cam := NewMockCamera(nil, false)
	cam.Open()

	busy := errors.New("device busy")
	cam.FailOpen(busy)

	if err := Reacquire(context.Background(), cam, fastReacquire()); err != nil {
		t.Fatalf("Reacquire() error = %v", err)
	}
	if !cam.IsOpen() {
		t.Error("camera should be open after Reacquire")
	}
	if cam.Opens() != 3 {
		t.Errorf("Opens() = %d, want 3 (initial + failed + successful)", cam.Opens())
	}
}

func TestReacquire_GivesUp(t *testing.T) {
	cam := NewMockCamera(nil, false)
	gone := errors.New("no such device")
	cam.FailOpen(gone, gone, gone, gone)

	err := Reacquire(context.Background(), cam, fastReacquire())
	if !errors.Is(err, ErrCameraLost) {
		t.Fatalf("Reacquire() error = %v, want ErrCameraLost", err)
	}
	if cam.Opens() != 3 {
		t.Errorf("Opens() = %d, want 3", cam.Opens())
	}
}

func TestReacquire_Cancelled(t *testing.T) {
	cam := NewMockCamera(nil, false)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := ReacquireConfig{MaxRetries: 5, RetryDelay: time.Hour, MaxRetryDelay: time.Hour}
	if err := Reacquire(ctx, cam, cfg); !errors.Is(err, context.Canceled) {
		t.Errorf("Reacquire() error = %v, want context.Canceled", err)
	}
	if cam.Opens() != 0 {
		t.Errorf("Opens() = %d, want 0", cam.Opens())
	}
}
