package alert

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type captureChannel struct {
	mu   sync.Mutex
	got  []Alert
	name string
}

func (c *captureChannel) Send(a Alert) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.got = append(c.got, a)
	return nil
}

func (c *captureChannel) Name() string { return c.name }

func (c *captureChannel) alerts() []Alert {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Alert, len(c.got))
	copy(out, c.got)
	return out
}

func TestManagerDeliversToAllChannels(t *testing.T) {
	a := &captureChannel{name: "a"}
	b := &captureChannel{name: "b"}
	m := NewManager([]Channel{a, b}, time.Hour)

	m.Send("VAR_LIMIT", "over the line")

	assert.Len(t, a.alerts(), 1)
	assert.Len(t, b.alerts(), 1)
	assert.Equal(t, "VAR_LIMIT", a.alerts()[0].Type)
	assert.False(t, a.alerts()[0].Timestamp.IsZero())
}

func TestManagerThrottlesPerType(t *testing.T) {
	ch := &captureChannel{name: "a"}
	m := NewManager([]Channel{ch}, time.Hour)

	m.Send("VAR_LIMIT", "first")
	m.Send("VAR_LIMIT", "suppressed")
	m.Send("INVENTORY_LIMIT", "different key")

	alerts := ch.alerts()
	assert.Len(t, alerts, 2)
	assert.Equal(t, "first", alerts[0].Message)
	assert.Equal(t, "INVENTORY_LIMIT", alerts[1].Type)
}

func TestThrottlerReset(t *testing.T) {
	th := NewThrottler(time.Hour)
	assert.True(t, th.Allow("k"))
	assert.False(t, th.Allow("k"))
	th.Reset("k")
	assert.True(t, th.Allow("k"))
}

func TestManagerAddChannel(t *testing.T) {
	m := NewManager(nil, time.Hour)
	ch := &captureChannel{name: "late"}
	m.AddChannel(ch)

	m.Send("CONCENTRATION_LIMIT", "skewed book")
	assert.Len(t, ch.alerts(), 1)
}
