package detectors

import (
	"context"
	"fmt"
	"image"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	ort "github.com/yalue/onnxruntime_go"

	"github.com/nvr-ai/go-detect/images"
	"github.com/nvr-ai/go-detect/inference"
	"github.com/nvr-ai/go-detect/inference/providers"
)

// graphSession is a CUDA graph captured session bound to fixed input and
// output tensors.
type graphSession struct {
	engine  *ONNXEngine
	shape   inference.Shape
	session *ort.AdvancedSession
	input   *ort.Tensor[float32]
	output  *ort.Tensor[float32]
	mu      sync.Mutex
}

// Capture creates a session with CUDA graphs enabled, bound to tensors of
// the network input for shape.Batch images, and runs it once so that ONNX
// Runtime captures the graph.
//
// Arguments:
//   - ctx: The context for the capture run.
//   - shape: The fixed call shape.
//
// Returns:
//   - inference.Replayer: The captured session.
//   - error: An error if the session cannot be created or captured.
func (e *ONNXEngine) Capture(ctx context.Context, shape inference.Shape) (inference.Replayer, error) {
	if shape.Batch < 1 || shape.Batch > e.batch {
		return nil, fmt.Errorf("capture batch %d outside 1..%d", shape.Batch, e.batch)
	}
	batch := shape.Batch
	if e.fixedBatch {
		batch = e.batch
	}

	if e.classes == 0 || e.anchors == 0 {
		// Dynamic output dimensions are learned from one ordinary run.
		blanks := make([]images.Image, shape.Batch)
		for i := range blanks {
			blanks[i] = blank(e.input)
		}
		if _, err := e.Run(ctx, blanks); err != nil {
			return nil, errors.Wrap(err, "learning output shape")
		}
	}

	input, err := ort.NewEmptyTensor[float32](ort.NewShape(int64(batch), images.Channels, int64(e.input.Y), int64(e.input.X)))
	if err != nil {
		return nil, errors.Wrap(err, "error creating input tensor")
	}
	output, err := ort.NewEmptyTensor[float32](ort.NewShape(int64(batch), int64(4+e.classes), int64(e.anchors)))
	if err != nil {
		input.Destroy()
		return nil, errors.Wrap(err, "error creating output tensor")
	}

	g := &graphSession{engine: e, shape: shape, input: input, output: output}

	options, err := providers.NewSessionOptions(e.cfg.Provider, true)
	if err != nil {
		g.Close()
		return nil, err
	}
	defer options.Destroy()

	g.session, err = ort.NewAdvancedSession(e.modelPath,
		[]string{e.inputName},
		[]string{e.outputName},
		[]ort.Value{input},
		[]ort.Value{output},
		options,
	)
	if err != nil {
		g.Close()
		return nil, errors.Wrap(err, "error creating ORT session")
	}

	if err := ctx.Err(); err != nil {
		g.Close()
		return nil, err
	}
	if err := g.run(); err != nil {
		g.Close()
		return nil, errors.Wrap(err, "capture run")
	}

	// The graph variant only replays; free the dynamic session's device memory.
	e.mu.Lock()
	err = e.releaseSession()
	e.mu.Unlock()
	if err != nil {
		g.Close()
		return nil, errors.Wrap(err, "releasing dynamic session")
	}

	log.Debug().Str("shape", shape.String()).Int("bound_batch", batch).Msg("captured cuda graph")
	return g, nil
}

// Replay copies imgs into the bound input and replays the captured graph.
func (g *graphSession) Replay(ctx context.Context, imgs []images.Image) ([]inference.Result, error) {
	if len(imgs) != g.shape.Batch {
		return nil, fmt.Errorf("%d images, captured batch is %d", len(imgs), g.shape.Batch)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if err := fillInput(g.input.GetData(), imgs, g.engine.InputSize()); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := g.run(); err != nil {
		return nil, errors.Wrap(err, "replaying graph")
	}
	return g.engine.decode(g.output.GetData(), imgs), nil
}

func (g *graphSession) run() error {
	e := g.engine
	start := e.clock.Now()
	err := g.session.Run()
	elapsed := e.clock.Since(start)

	e.mu.Lock()
	e.device += elapsed
	e.mu.Unlock()
	return err
}

// Close releases the captured session and its tensors.
func (g *graphSession) Close() error {
	var err error
	if g.session != nil {
		err = g.session.Destroy()
		g.session = nil
	}
	if g.input != nil {
		g.input.Destroy()
		g.input = nil
	}
	if g.output != nil {
		g.output.Destroy()
		g.output = nil
	}
	return err
}

func blank(size image.Point) images.Image {
	return images.Image{
		Data:   make([]byte, size.X*size.Y*images.Channels),
		Width:  size.X,
		Height: size.Y,
		Order:  inference.InputOrder,
	}
}
