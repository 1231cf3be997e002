package inference

import (
	"context"
	"time"

	"github.com/nvr-ai/go-detect/images"
)

// tagged returns an RGB image whose first byte identifies it.
func tagged(tag byte, w, h int) images.Image {
	data := make([]byte, w*h*images.Channels)
	data[0] = tag
	return images.Image{Data: data, Width: w, Height: h, Order: images.RGB}
}

// resultFor encodes the image tag as the single detection's class id.
func resultFor(img images.Image) Result {
	var r Result
	r.Add(Box{Right: float32(img.Width), Bottom: float32(img.Height)}, int(img.Data[0]), 0.5)
	return r
}

// MockEngine is a test engine that records its calls.
type MockEngine struct {
	batch      int
	runErr     error
	dropResult bool
	runs       [][]images.Image
	closed     bool
	device     time.Duration
}

func (m *MockEngine) Batch() int { return m.batch }

func (m *MockEngine) Run(ctx context.Context, imgs []images.Image) ([]Result, error) {
	m.runs = append(m.runs, imgs)
	if m.runErr != nil {
		return nil, m.runErr
	}
	// Execute in reverse to make sure the detector does not depend on the
	// engine's internal order.
	results := make([]Result, len(imgs))
	for i := len(imgs) - 1; i >= 0; i-- {
		results[i] = resultFor(imgs[i])
	}
	if m.dropResult {
		results = results[1:]
	}
	m.device += time.Millisecond
	return results, nil
}

func (m *MockEngine) Close() error {
	m.closed = true
	return nil
}

// MockGraphEngine additionally supports capture and replay.
type MockGraphEngine struct {
	MockEngine
	captured   []Shape
	captureErr error
	replays    int
}

func (m *MockGraphEngine) Capture(ctx context.Context, shape Shape) (Replayer, error) {
	if m.captureErr != nil {
		return nil, m.captureErr
	}
	m.captured = append(m.captured, shape)
	return &mockReplayer{engine: m}, nil
}

func (m *MockGraphEngine) Record() time.Duration { return m.device }

type mockReplayer struct {
	engine *MockGraphEngine
	closed bool
}

func (r *mockReplayer) Replay(ctx context.Context, imgs []images.Image) ([]Result, error) {
	r.engine.replays++
	return r.engine.Run(ctx, imgs)
}

func (r *mockReplayer) Close() error {
	r.closed = true
	return nil
}
