package relay

import (
	"context"
	"strings"
	"sync"
)

// Collector is a Sink that buffers events in memory. It backs non-streaming
// surfaces that need the whole answer at once.
type Collector struct {
	mu     sync.Mutex
	events []Event
}

func (c *Collector) Send(_ context.Context, ev Event) error {
	c.mu.Lock()
	c.events = append(c.events, ev)
	c.mu.Unlock()
	return nil
}

// Events returns a copy of the received events.
func (c *Collector) Events() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Event(nil), c.events...)
}

// Text concatenates the content of all response events.
func (c *Collector) Text() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var b strings.Builder
	for _, ev := range c.events {
		if ev.Type == EventResponse {
			b.WriteString(ev.Content)
		}
	}
	return b.String()
}

// ErrorMessage returns the message of the first error event, if any.
func (c *Collector) ErrorMessage() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, ev := range c.events {
		if ev.Type == EventError {
			return ev.Message, true
		}
	}
	return "", false
}
