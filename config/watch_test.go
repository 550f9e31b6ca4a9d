package config

import (
	"context"
	"os"
	"testing"
	"time"
)

func TestWatcherTriggersOnValidChange(t *testing.T) {
	path := writeTempConfig(t, "symbol: ETHUSDC\n")

	updates := make(chan AgentConfig, 1)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	w := Watcher{Path: path, Cooldown: 10 * time.Millisecond}
	go func() {
		_ = w.Start(ctx, func(cfg AgentConfig) {
			select {
			case updates <- cfg:
			default:
			}
		})
	}()

	// Give the watcher a moment to register before rewriting.
	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(path, []byte("symbol: SOLUSDC\n"), 0o644); err != nil {
		t.Fatalf("rewrite config: %v", err)
	}

	select {
	case cfg := <-updates:
		if cfg.Symbol != "SOLUSDC" {
			t.Fatalf("expected reloaded symbol, got %s", cfg.Symbol)
		}
	case <-ctx.Done():
		t.Fatal("no update received before timeout")
	}
}

func TestWatcherDropsInvalidChange(t *testing.T) {
	path := writeTempConfig(t, "symbol: ETHUSDC\n")

	updates := make(chan AgentConfig, 4)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	w := Watcher{Path: path, Cooldown: 10 * time.Millisecond}
	go func() {
		_ = w.Start(ctx, func(cfg AgentConfig) { updates <- cfg })
	}()

	time.Sleep(100 * time.Millisecond)
	// gamma <= 0 fails validation, so no update may be delivered.
	if err := os.WriteFile(path, []byte("model:\n  gamma: -1\n"), 0o644); err != nil {
		t.Fatalf("rewrite config: %v", err)
	}

	select {
	case cfg := <-updates:
		t.Fatalf("invalid config delivered: %+v", cfg)
	case <-time.After(500 * time.Millisecond):
	}
}

func TestWatcherStopsOnCancel(t *testing.T) {
	path := writeTempConfig(t, "symbol: ETHUSDC\n")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	w := Watcher{Path: path}
	if err := w.Start(ctx, nil); err == nil {
		t.Fatal("expected context cancellation error")
	}
}
