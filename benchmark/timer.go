// Package benchmark - Batched inference runs and their latency measurement.
package benchmark

import (
	stderrors "errors"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
)

// ErrTimerState is returned when a timer is started while running or
// stopped while idle.
var ErrTimerState = stderrors.New("invalid timer state")

// Timer accumulates elapsed time over explicit start/stop spans.
type Timer interface {
	// Start begins a span. It fails with ErrTimerState if already running.
	Start() error
	// Stop ends the current span and adds it to the total. It fails with
	// ErrTimerState if idle.
	Stop() error
	// Total returns the accumulated time of all completed spans.
	Total() time.Duration
	// Running reports whether a span is open.
	Running() bool
}

// EventSource records timestamps on a clock of its own, such as the device
// clock of an inference engine.
type EventSource interface {
	Record() time.Duration
}

// span is the shared idle/running state machine.
type span struct {
	running bool
	start   time.Duration
	total   time.Duration
}

func (s *span) begin(now time.Duration) error {
	if s.running {
		return errors.Wrap(ErrTimerState, "start while running")
	}
	s.running = true
	s.start = now
	return nil
}

func (s *span) end(now time.Duration) error {
	if !s.running {
		return errors.Wrap(ErrTimerState, "stop while idle")
	}
	s.running = false
	s.total += now - s.start
	return nil
}

// HostTimer measures host wall time.
type HostTimer struct {
	clock  clock.Clock
	origin time.Time
	span   span
}

// NewHostTimer creates a host timer on c. A nil c uses the wall clock.
func NewHostTimer(c clock.Clock) *HostTimer {
	if c == nil {
		c = clock.New()
	}
	return &HostTimer{clock: c, origin: c.Now()}
}

func (t *HostTimer) now() time.Duration {
	return t.clock.Since(t.origin)
}

// Start begins a span.
func (t *HostTimer) Start() error { return t.span.begin(t.now()) }

// Stop ends the current span.
func (t *HostTimer) Stop() error { return t.span.end(t.now()) }

// Total returns the accumulated time.
func (t *HostTimer) Total() time.Duration { return t.span.total }

// Running reports whether a span is open.
func (t *HostTimer) Running() bool { return t.span.running }

// DeviceTimer measures elapsed time between events recorded on an EventSource.
type DeviceTimer struct {
	events EventSource
	span   span
}

// NewDeviceTimer creates a device timer on events.
func NewDeviceTimer(events EventSource) *DeviceTimer {
	return &DeviceTimer{events: events}
}

// Start records the start event.
func (t *DeviceTimer) Start() error { return t.span.begin(t.events.Record()) }

// Stop records the stop event and accumulates the elapsed device time.
func (t *DeviceTimer) Stop() error { return t.span.end(t.events.Record()) }

// Total returns the accumulated device time.
func (t *DeviceTimer) Total() time.Duration { return t.span.total }

// Running reports whether a span is open.
func (t *DeviceTimer) Running() bool { return t.span.running }

// HostEvents is an EventSource on a host clock, used when the detector
// exposes no device clock.
type HostEvents struct {
	clock  clock.Clock
	origin time.Time
}

// NewHostEvents creates an event source on c. A nil c uses the wall clock.
func NewHostEvents(c clock.Clock) *HostEvents {
	if c == nil {
		c = clock.New()
	}
	return &HostEvents{clock: c, origin: c.Now()}
}

// Record returns the time since the source was created.
func (h *HostEvents) Record() time.Duration {
	return h.clock.Since(h.origin)
}
