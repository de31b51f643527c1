package teardown

import (
	"context"
	"time"
)

// SetSleep replaces the backoff sleep for tests.
func (m *Manager) SetSleep(fn func(context.Context, time.Duration) error) {
	m.sleep = fn
}
