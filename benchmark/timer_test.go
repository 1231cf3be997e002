package benchmark

import (
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHostTimerAccumulates(t *testing.T) {
	mock := clock.NewMock()
	timer := NewHostTimer(mock)

	require.NoError(t, timer.Start())
	assert.True(t, timer.Running())
	mock.Add(3 * time.Millisecond)
	require.NoError(t, timer.Stop())
	assert.False(t, timer.Running())

	// Time between spans is not counted.
	mock.Add(time.Second)

	require.NoError(t, timer.Start())
	mock.Add(7 * time.Millisecond)
	require.NoError(t, timer.Stop())

	assert.Equal(t, 10*time.Millisecond, timer.Total())
}

func TestTimerStateErrors(t *testing.T) {
	timer := NewHostTimer(clock.NewMock())

	assert.ErrorIs(t, timer.Stop(), ErrTimerState)
	require.NoError(t, timer.Start())
	assert.ErrorIs(t, timer.Start(), ErrTimerState)
	require.NoError(t, timer.Stop())
	assert.ErrorIs(t, timer.Stop(), ErrTimerState)
}

type fakeEvents struct {
	now time.Duration
}

func (f *fakeEvents) Record() time.Duration { return f.now }

func TestDeviceTimer(t *testing.T) {
	events := &fakeEvents{now: 100 * time.Millisecond}
	timer := NewDeviceTimer(events)

	require.NoError(t, timer.Start())
	events.now += 4 * time.Millisecond
	require.NoError(t, timer.Stop())
	assert.Equal(t, 4*time.Millisecond, timer.Total())

	assert.ErrorIs(t, timer.Stop(), ErrTimerState)
}

func TestHostEvents(t *testing.T) {
	mock := clock.NewMock()
	events := NewHostEvents(mock)
	mock.Add(2 * time.Second)
	assert.Equal(t, 2*time.Second, events.Record())
}
