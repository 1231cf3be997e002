package benchmark

import (
	"time"

	"github.com/rs/zerolog"
)

// DefaultWarmupIndex is the last batch index excluded from the averages.
const DefaultWarmupIndex = 5

// Recorder applies the warm-up policy to a host and device timer pair.
//
// Batches with index <= WarmupIndex are neither timed nor counted; every
// later batch is timed on both timers and counted once.
type Recorder struct {
	host        Timer
	device      Timer
	warmupIndex int
	measured    int
	log         zerolog.Logger
}

// NewRecorder creates a recorder over host and device.
//
// Arguments:
//   - host: The host timer.
//   - device: The device timer.
//   - warmupIndex: The last excluded batch index. Negative measures every batch.
//   - log: The logger for per batch debug output.
//
// Returns:
//   - *Recorder: The recorder.
func NewRecorder(host, device Timer, warmupIndex int, log zerolog.Logger) *Recorder {
	return &Recorder{host: host, device: device, warmupIndex: warmupIndex, log: log}
}

// Measures reports whether the batch at index is timed.
func (r *Recorder) Measures(index int) bool {
	return index > r.warmupIndex
}

// Begin starts both timers for a measured batch.
func (r *Recorder) Begin(index int) error {
	if !r.Measures(index) {
		return nil
	}
	if err := r.host.Start(); err != nil {
		return err
	}
	return r.device.Start()
}

// End stops both timers for a measured batch and counts it.
func (r *Recorder) End(index int) error {
	if !r.Measures(index) {
		r.log.Debug().Int("batch", index).Msg("warm-up batch")
		return nil
	}
	if err := r.device.Stop(); err != nil {
		return err
	}
	if err := r.host.Stop(); err != nil {
		return err
	}
	r.measured++
	r.log.Debug().Int("batch", index).Int("measured", r.measured).Msg("measured batch")
	return nil
}

// Measured returns the number of counted batches.
func (r *Recorder) Measured() int {
	return r.measured
}

// Averages returns the mean host and device time per measured batch. ok is
// false when no batch was measured.
func (r *Recorder) Averages() (host, device time.Duration, ok bool) {
	if r.measured == 0 {
		return 0, 0, false
	}
	n := time.Duration(r.measured)
	return r.host.Total() / n, r.device.Total() / n, true
}
