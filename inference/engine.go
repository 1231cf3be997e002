// Package inference - Detector abstraction and the engine contract it drives.
package inference

import (
	"context"
	"fmt"
	"time"

	"github.com/nvr-ai/go-detect/images"
)

// InputOrder is the channel order every detector consumes.
const InputOrder = images.RGB

// Shape is the geometry of one inference call.
type Shape struct {
	// Batch is the number of images in the call.
	Batch int `json:"batch" yaml:"batch"`
	// Width is the width of every image in the call.
	Width int `json:"width" yaml:"width"`
	// Height is the height of every image in the call.
	Height int `json:"height" yaml:"height"`
}

func (s Shape) String() string {
	return fmt.Sprintf("%dx%dx%d", s.Batch, s.Width, s.Height)
}

// Engine is the inference engine driven by a detector. It owns model
// weights and the execution context.
type Engine interface {
	// Batch returns the maximum number of images accepted by Run.
	Batch() int
	// Run executes preprocessing, the network and postprocessing on imgs and
	// returns one result per image, in input order.
	Run(ctx context.Context, imgs []images.Image) ([]Result, error)
	// Close releases the engine resources.
	Close() error
}

// Capturer is implemented by engines that can record the device operations
// of one execution for a fixed shape.
type Capturer interface {
	// Capture performs one execution for shape and records it for replay.
	Capture(ctx context.Context, shape Shape) (Replayer, error)
}

// Replayer replays a captured execution. Inputs must have the captured shape.
type Replayer interface {
	// Replay copies imgs into the captured input buffers and replays the
	// recorded operations.
	Replay(ctx context.Context, imgs []images.Image) ([]Result, error)
	// Close releases the captured buffers.
	Close() error
}

// DeviceClock is implemented by engines that account device-side execution
// time. Record returns a monotonically increasing device timestamp.
type DeviceClock interface {
	Record() time.Duration
}
