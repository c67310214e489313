// Package alert fans risk and detector alerts out to pluggable channels
// with per-key throttling.
package alert

import (
	"sync"
	"time"
)

// Alert is one outbound notification.
type Alert struct {
	Type      string // breach or detector type, also the throttle key
	Message   string
	Timestamp time.Time
}

// Channel delivers alerts somewhere.
type Channel interface {
	Send(alert Alert) error
	Name() string
}

// Throttler suppresses repeats of the same alert key inside an interval.
type Throttler struct {
	mu       sync.Mutex
	lastSent map[string]time.Time
	interval time.Duration
}

// NewThrottler creates a throttler.
func NewThrottler(interval time.Duration) *Throttler {
	return &Throttler{lastSent: make(map[string]time.Time), interval: interval}
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

// Reset clears the throttle state for key.
func (t *Throttler) Reset(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.lastSent, key)
}

// Manager routes alerts to every channel, throttled per alert type. It
// satisfies the risk notifier's alert sink.
type Manager struct {
	mu       sync.RWMutex
	channels []Channel
	throttle *Throttler
}

// NewManager creates a manager over channels.
func NewManager(channels []Channel, throttleInterval time.Duration) *Manager {
	return &Manager{channels: channels, throttle: NewThrottler(throttleInterval)}
}

// Send implements the risk.AlertClient interface.
func (m *Manager) Send(typ, msg string) {
	m.Dispatch(Alert{Type: typ, Message: msg, Timestamp: time.Now()})
}

// Dispatch delivers the alert to every channel unless throttled. Channel
// errors are swallowed; alerting is best effort.
func (m *Manager) Dispatch(a Alert) {
	if !m.throttle.Allow(a.Type) {
		return
	}
	if a.Timestamp.IsZero() {
		a.Timestamp = time.Now()
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, ch := range m.channels {
		_ = ch.Send(a)
	}
}

// AddChannel registers an additional channel.
func (m *Manager) AddChannel(ch Channel) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.channels = append(m.channels, ch)
}
