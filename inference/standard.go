package inference

import (
	"context"
	"fmt"
	"sync"

	"github.com/nvr-ai/go-detect/images"
)

// StandardDetector executes the full inference graph of its engine on every
// call. Batches smaller than Batch() are accepted.
type StandardDetector struct {
	engine Engine
	batch  int
	mu     sync.Mutex
}

// NewStandardDetector creates a detector running engine directly.
//
// Arguments:
//   - engine: The loaded engine, owned by the detector from now on.
//
// Returns:
//   - *StandardDetector: The detector.
//   - error: ErrEngineLoad when the engine reports no usable batch size.
func NewStandardDetector(engine Engine) (*StandardDetector, error) {
	if engine == nil {
		return nil, WrapKind(ErrEngineLoad, fmt.Errorf("nil engine"), "")
	}
	batch := engine.Batch()
	if batch < 1 {
		return nil, WrapKind(ErrEngineLoad, fmt.Errorf("engine batch size %d", batch), "")
	}
	return &StandardDetector{engine: engine, batch: batch}, nil
}

// Batch returns the maximum batch size declared by the model.
func (d *StandardDetector) Batch() int {
	return d.batch
}

// Predict runs inference on a single image.
func (d *StandardDetector) Predict(ctx context.Context, img images.Image) (Result, error) {
	results, err := d.PredictBatch(ctx, []images.Image{img})
	if err != nil {
		return Result{}, err
	}
	return results[0], nil
}

// PredictBatch runs inference on imgs.
//
// Arguments:
//   - ctx: The context for the call.
//   - imgs: Up to Batch() RGB images.
//
// Returns:
//   - []Result: One result per image, in input order.
//   - error: ErrShapeMismatch, ErrInvalidImage or ErrInference.
func (d *StandardDetector) PredictBatch(ctx context.Context, imgs []images.Image) ([]Result, error) {
	if len(imgs) == 0 {
		return []Result{}, nil
	}
	if len(imgs) > d.batch {
		return nil, WrapKind(ErrShapeMismatch, fmt.Errorf("batch of %d images exceeds capacity %d", len(imgs), d.batch), "")
	}
	if err := checkImages(imgs); err != nil {
		return nil, err
	}

	select {
	case <-ctx.Done():
		return nil, WrapKind(ErrInference, ctx.Err(), "")
	default:
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	results, err := d.engine.Run(ctx, imgs)
	return checkResults(results, err, len(imgs))
}

// DeviceClock returns the engine's device clock, if any.
func (d *StandardDetector) DeviceClock() DeviceClock {
	return deviceClockOf(d.engine)
}

// Close releases the engine.
func (d *StandardDetector) Close() error {
	return d.engine.Close()
}
