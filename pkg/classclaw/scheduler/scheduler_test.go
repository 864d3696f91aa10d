package scheduler

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewSpec(t *testing.T) {
	tests := []struct {
		hour, minute int
		want         string
	}{
		{6, 0, "0 6 * * *"},
		{0, 0, "0 0 * * *"},
		{23, 59, "59 23 * * *"},
		{7, 30, "30 7 * * *"},
	}

	for _, tt := range tests {
		s, err := New(tt.hour, tt.minute, time.UTC, nil, discardLogger())
		if err != nil {
			t.Fatalf("New(%d, %d) failed: %v", tt.hour, tt.minute, err)
		}
		if s.Spec() != tt.want {
			t.Errorf("New(%d, %d).Spec() = %q, want %q", tt.hour, tt.minute, s.Spec(), tt.want)
		}
	}
}

func TestNewRejectsInvalidTime(t *testing.T) {
	for _, tt := range []struct{ hour, minute int }{
		{24, 0}, {-1, 0}, {6, 60}, {6, -1},
	} {
		if _, err := New(tt.hour, tt.minute, time.UTC, nil, discardLogger()); err == nil {
			t.Errorf("New(%d, %d) accepted invalid time", tt.hour, tt.minute)
		}
	}
}

func TestExecuteSkipsWhenRunning(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	runs := 0

	s, err := New(6, 0, time.UTC, func(ctx context.Context) error {
		runs++
		close(started)
		<-release
		return nil
	}, discardLogger())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	s.ctx = context.Background()

	go s.execute()
	<-started

	// A second fire while the first run is in flight must be skipped.
	s.execute()
	close(release)

	// Wait for the first run to mark itself done.
	deadline := time.After(time.Second)
	for {
		s.mu.Lock()
		running := s.running
		s.mu.Unlock()
		if !running {
			break
		}
		select {
		case <-deadline:
			t.Fatal("job never finished")
		case <-time.After(5 * time.Millisecond):
		}
	}

	if runs != 1 {
		t.Errorf("expected 1 run, got %d", runs)
	}
}

func TestExecuteRecoversPanic(t *testing.T) {
	s, err := New(6, 0, time.UTC, func(ctx context.Context) error {
		panic("broadcast gone wrong")
	}, discardLogger())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	s.ctx = context.Background()

	// Must not propagate the panic, and must clear the running flag.
	s.execute()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		t.Error("running flag stuck after panic")
	}
}

func TestStartStop(t *testing.T) {
	s, err := New(6, 0, time.UTC, func(ctx context.Context) error { return nil }, discardLogger())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	s.Stop()
}
