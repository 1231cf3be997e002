package inference

import (
	"context"
	"fmt"
	"sync"

	"github.com/nvr-ai/go-detect/images"
)

// GraphDetector captures the engine's execution once at construction and
// replays it on every call.
//
// Replay reuses fixed device buffers, so every call must present exactly the
// captured shape: same number of images and same width and height for each
// of them. Anything else fails with ErrShapeMismatch; inputs are never
// reshaped or padded.
type GraphDetector struct {
	engine   Engine
	replayer Replayer
	shape    Shape
	mu       sync.Mutex
}

// NewGraphDetector captures engine for shape.
//
// Arguments:
//   - ctx: The context for the capture execution.
//   - engine: The loaded engine, which must implement Capturer.
//   - shape: The fixed shape. A zero Batch uses the engine batch.
//
// Returns:
//   - *GraphDetector: The detector.
//   - error: ErrEngineLoad if the engine cannot capture, ErrShapeMismatch for
//     an unusable shape.
func NewGraphDetector(ctx context.Context, engine Engine, shape Shape) (*GraphDetector, error) {
	if engine == nil {
		return nil, WrapKind(ErrEngineLoad, fmt.Errorf("nil engine"), "")
	}
	capturer, ok := engine.(Capturer)
	if !ok {
		return nil, WrapKind(ErrEngineLoad, fmt.Errorf("engine %T does not support graph capture", engine), "")
	}

	if shape.Batch == 0 {
		shape.Batch = engine.Batch()
	}
	if shape.Batch < 1 || shape.Batch > engine.Batch() {
		return nil, WrapKind(ErrShapeMismatch, fmt.Errorf("capture batch %d outside 1..%d", shape.Batch, engine.Batch()), "")
	}
	if shape.Width <= 0 || shape.Height <= 0 {
		return nil, WrapKind(ErrShapeMismatch, fmt.Errorf("capture image size %dx%d", shape.Width, shape.Height), "")
	}

	replayer, err := capturer.Capture(ctx, shape)
	if err != nil {
		return nil, WrapKind(ErrEngineLoad, err, "graph capture for shape %s", shape)
	}

	return &GraphDetector{engine: engine, replayer: replayer, shape: shape}, nil
}

// Batch returns the captured batch size.
func (d *GraphDetector) Batch() int {
	return d.shape.Batch
}

// Shape returns the captured shape.
func (d *GraphDetector) Shape() Shape {
	return d.shape
}

// Predict runs inference on a single image. It only succeeds when the
// captured batch size is 1.
func (d *GraphDetector) Predict(ctx context.Context, img images.Image) (Result, error) {
	results, err := d.PredictBatch(ctx, []images.Image{img})
	if err != nil {
		return Result{}, err
	}
	return results[0], nil
}

// PredictBatch replays the captured execution on imgs.
//
// Arguments:
//   - ctx: The context for the call.
//   - imgs: Exactly Batch() RGB images of the captured size.
//
// Returns:
//   - []Result: One result per image, in input order.
//   - error: ErrShapeMismatch, ErrInvalidImage or ErrInference.
func (d *GraphDetector) PredictBatch(ctx context.Context, imgs []images.Image) ([]Result, error) {
	if err := d.checkShape(imgs); err != nil {
		return nil, err
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

	results, err := d.replayer.Replay(ctx, imgs)
	return checkResults(results, err, len(imgs))
}

func (d *GraphDetector) checkShape(imgs []images.Image) error {
	if len(imgs) != d.shape.Batch {
		return WrapKind(ErrShapeMismatch, fmt.Errorf("got %d images, captured batch is %d", len(imgs), d.shape.Batch), "")
	}
	for i, img := range imgs {
		if img.Width != d.shape.Width || img.Height != d.shape.Height {
			return WrapKind(ErrShapeMismatch, fmt.Errorf("image %d is %dx%d, captured size is %dx%d",
				i, img.Width, img.Height, d.shape.Width, d.shape.Height), "")
		}
	}
	return nil
}

// DeviceClock returns the engine's device clock, if any.
func (d *GraphDetector) DeviceClock() DeviceClock {
	return deviceClockOf(d.engine)
}

// Close releases the captured replay and the engine.
func (d *GraphDetector) Close() error {
	rerr := d.replayer.Close()
	if err := d.engine.Close(); err != nil {
		return err
	}
	return rerr
}
