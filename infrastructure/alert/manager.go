// Package alert fans risk events out to operator channels, with per-event
// throttling so a flapping breaker cannot flood anyone.
package alert

import (
	"fmt"
	"sync"
	"time"
)

// Level orders alerts by operator urgency.
type Level string

const (
	LevelInfo     Level = "INFO"
	LevelWarning  Level = "WARNING"
	LevelCritical Level = "CRITICAL"
)

// Alert is one operator-facing event.
type Alert struct {
	Level     Level
	Message   string
	Timestamp time.Time
	Fields    map[string]interface{}
}

// Channel delivers alerts somewhere an operator will see them.
type Channel interface {
	Send(a Alert) error
	Name() string
}

// Throttler suppresses repeats of the same alert inside an interval.
type Throttler struct {
	mu       sync.Mutex
	lastSent map[string]time.Time
	interval time.Duration
}

func NewThrottler(interval time.Duration) *Throttler {
	return &Throttler{
		lastSent: make(map[string]time.Time),
		interval: interval,
	}
}

// Allow reports whether key may fire now, recording the send if so.
func (t *Throttler) Allow(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := time.Now()
	if last, ok := t.lastSent[key]; ok && now.Sub(last) < t.interval {
		return false
	}
	t.lastSent[key] = now
	return true
}

// Reset clears the throttle record for one key, letting it fire again
// immediately. Used when a condition clears and re-trips.
func (t *Throttler) Reset(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.lastSent, key)
}

// Manager throttles and fans out alerts to every configured channel.
type Manager struct {
	mu       sync.RWMutex
	channels []Channel
	throttle *Throttler
}

func NewManager(channels []Channel, throttleInterval time.Duration) *Manager {
	return &Manager{
		channels: channels,
		throttle: NewThrottler(throttleInterval),
	}
}

// Send delivers the alert to all channels unless throttled. It returns an
// error only when every channel failed.
func (m *Manager) Send(a Alert) error {
	if a.Timestamp.IsZero() {
		a.Timestamp = time.Now()
	}
	if !m.throttle.Allow(string(a.Level) + ":" + a.Message) {
		return nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var lastErr error
	delivered := 0
	for _, ch := range m.channels {
		if err := ch.Send(a); err != nil {
			lastErr = fmt.Errorf("channel %s: %w", ch.Name(), err)
		} else {
			delivered++
		}
	}
	if delivered == 0 && lastErr != nil {
		return lastErr
	}
	return nil
}

func (m *Manager) Info(message string, fields map[string]interface{}) error {
	return m.Send(Alert{Level: LevelInfo, Message: message, Fields: fields})
}

func (m *Manager) Warning(message string, fields map[string]interface{}) error {
	return m.Send(Alert{Level: LevelWarning, Message: message, Fields: fields})
}

func (m *Manager) Critical(message string, fields map[string]interface{}) error {
	return m.Send(Alert{Level: LevelCritical, Message: message, Fields: fields})
}
