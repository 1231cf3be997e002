package inference

import (
	"context"

	"github.com/nvr-ai/go-detect/images"
)

// Detector turns batches of images into detection results.
//
// Both implementations, StandardDetector and GraphDetector, serialize calls
// internally and may be shared between goroutines.
type Detector interface {
	// Batch returns the maximum number of images per PredictBatch call.
	Batch() int
	// Predict runs inference on a single image.
	Predict(ctx context.Context, img images.Image) (Result, error)
	// PredictBatch runs inference on at most Batch() images and returns the
	// results in input order.
	PredictBatch(ctx context.Context, imgs []images.Image) ([]Result, error)
	// DeviceClock returns the engine's device clock, or nil if it has none.
	DeviceClock() DeviceClock
	// Close releases the detector and its engine.
	Close() error
}

// Options selects and configures the detector variant.
type Options struct {
	// CaptureGraph selects the graph captured variant.
	CaptureGraph bool `json:"captureGraph" yaml:"captureGraph"`
	// CaptureShape is the fixed shape of the graph captured variant. A zero
	// Batch uses the engine batch.
	CaptureShape Shape `json:"captureShape" yaml:"captureShape"`
}

// NewDetector creates the detector variant selected by opts. The choice is
// made once; a live detector never switches variant.
//
// Arguments:
//   - ctx: The context for the capture execution of the graph variant.
//   - engine: The loaded engine, owned by the detector from now on.
//   - opts: The detector options.
//
// Returns:
//   - Detector: The detector.
//   - error: ErrEngineLoad or ErrShapeMismatch when construction fails.
func NewDetector(ctx context.Context, engine Engine, opts Options) (Detector, error) {
	if opts.CaptureGraph {
		return NewGraphDetector(ctx, engine, opts.CaptureShape)
	}
	return NewStandardDetector(engine)
}

// checkImages validates the buffers handed to a detector.
func checkImages(imgs []images.Image) error {
	for i, img := range imgs {
		if err := img.Validate(); err != nil {
			return WrapKind(ErrInvalidImage, err, "image %d", i)
		}
		if img.Order != InputOrder {
			return WrapKind(ErrInvalidImage, errOrder(img.Order), "image %d", i)
		}
	}
	return nil
}

// checkResults enforces one result per input image.
func checkResults(results []Result, err error, want int) ([]Result, error) {
	if err != nil {
		return nil, WrapKind(ErrInference, err, "")
	}
	if len(results) != want {
		return nil, WrapKind(ErrInference, errCount(len(results), want), "")
	}
	return results, nil
}

func deviceClockOf(v any) DeviceClock {
	if c, ok := v.(DeviceClock); ok {
		return c
	}
	return nil
}
