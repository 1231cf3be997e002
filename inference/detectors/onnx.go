package detectors

import (
	"context"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	ort "github.com/yalue/onnxruntime_go"

	"github.com/nvr-ai/go-detect/images"
	"github.com/nvr-ai/go-detect/inference"
	"github.com/nvr-ai/go-detect/inference/providers"
)

// dynamicSession is the part of *ort.DynamicAdvancedSession used by Run.
type dynamicSession interface {
	Run(inputs, outputs []ort.Value) error
	Destroy() error
}

// ONNXEngine runs a YOLO style detection model with ONNX Runtime.
//
// It implements inference.Engine, inference.Capturer and inference.DeviceClock.
type ONNXEngine struct {
	cfg       Config
	modelPath string
	// session is opened by Load, released once a graph is captured and
	// reopened by Run when needed.
	session    dynamicSession
	open       func() (dynamicSession, error)
	inputName  string
	outputName string
	// batch is the maximum batch; fixedBatch is set when the model batch
	// dimension is static and every run must be padded to it.
	batch      int
	fixedBatch bool
	input      image.Point
	classes    int
	anchors    int

	clock  clock.Clock
	mu     sync.Mutex
	device time.Duration
}

// Load reads the model at path and creates its session.
//
// Arguments:
//   - path: The ONNX model file.
//   - cfg: The engine configuration.
//
// Returns:
//   - *ONNXEngine: The loaded engine.
//   - error: An error wrapping inference.ErrEngineLoad on failure.
func Load(path string, cfg Config) (*ONNXEngine, error) {
	if err := providers.InitializeEnvironment(cfg.Provider.LibraryPath); err != nil {
		return nil, inference.WrapKind(inference.ErrEngineLoad, err, "")
	}

	inputs, outputs, err := ort.GetInputOutputInfo(path)
	if err != nil {
		return nil, inference.WrapKind(inference.ErrEngineLoad, err, "reading model %s", path)
	}
	if len(inputs) != 1 || len(outputs) < 1 {
		return nil, inference.WrapKind(inference.ErrEngineLoad,
			fmt.Errorf("want one input and at least one output, got %d and %d", len(inputs), len(outputs)), "model %s", path)
	}

	e := &ONNXEngine{
		cfg:        cfg,
		modelPath:  path,
		inputName:  inputs[0].Name,
		outputName: outputs[0].Name,
		clock:      clock.New(),
	}
	if err := e.readShapes(inputs[0].Dimensions, outputs[0].Dimensions); err != nil {
		return nil, inference.WrapKind(inference.ErrEngineLoad, err, "model %s", path)
	}

	e.open = e.openDynamic
	if err := e.ensureSession(); err != nil {
		return nil, inference.WrapKind(inference.ErrEngineLoad, err, "")
	}

	log.Debug().
		Str("model", path).
		Str("provider", string(cfg.Provider.Backend)).
		Int("batch", e.batch).
		Bool("fixed_batch", e.fixedBatch).
		Int("input_width", e.InputSize().X).
		Int("input_height", e.InputSize().Y).
		Msg("loaded onnx engine")

	return e, nil
}

// readShapes derives batch, input size and output layout from the model
// dimensions. Dynamic dimensions (non-positive) fall back to the configuration
// or are discovered on the first run.
func (e *ONNXEngine) readShapes(in, out ort.Shape) error {
	if len(in) != 4 {
		return fmt.Errorf("input %s has rank %d, want NCHW", e.inputName, len(in))
	}
	if in[1] > 0 && in[1] != images.Channels {
		return fmt.Errorf("input %s has %d channels, want %d", e.inputName, in[1], images.Channels)
	}

	e.batch = e.cfg.Batch
	if in[0] > 0 {
		e.batch = int(in[0])
		e.fixedBatch = true
	}
	if e.batch < 1 {
		e.batch = 1
	}

	e.input = e.cfg.InputShape
	if in[3] > 0 {
		e.input.X = int(in[3])
	}
	if in[2] > 0 {
		e.input.Y = int(in[2])
	}
	if e.input.X <= 0 || e.input.Y <= 0 {
		return fmt.Errorf("unknown input size %v", e.input)
	}

	if len(out) != 3 {
		return fmt.Errorf("output %s has rank %d, want [batch, 4+classes, anchors]", e.outputName, len(out))
	}
	if out[1] > 0 {
		if out[1] <= 4 {
			return fmt.Errorf("output %s has %d rows, want more than 4", e.outputName, out[1])
		}
		e.classes = int(out[1]) - 4
	}
	if out[2] > 0 {
		e.anchors = int(out[2])
	}
	return nil
}

func (e *ONNXEngine) openDynamic() (dynamicSession, error) {
	options, err := providers.NewSessionOptions(e.cfg.Provider, false)
	if err != nil {
		return nil, err
	}
	defer options.Destroy()

	session, err := ort.NewDynamicAdvancedSession(e.modelPath, []string{e.inputName}, []string{e.outputName}, options)
	if err != nil {
		return nil, errors.Wrapf(err, "creating session for %s", e.modelPath)
	}
	return session, nil
}

// ensureSession opens the dynamic session if it is not open. Callers hold
// e.mu, except Load.
func (e *ONNXEngine) ensureSession() error {
	if e.session != nil {
		return nil
	}
	session, err := e.open()
	if err != nil {
		return err
	}
	e.session = session
	return nil
}

// releaseSession destroys the dynamic session. Callers hold e.mu.
func (e *ONNXEngine) releaseSession() error {
	if e.session == nil {
		return nil
	}
	err := e.session.Destroy()
	e.session = nil
	return err
}

// Batch returns the maximum number of images per run.
func (e *ONNXEngine) Batch() int {
	return e.batch
}

// InputSize returns the network input size.
func (e *ONNXEngine) InputSize() image.Point {
	return e.input
}

// Record returns the cumulative time spent executing the network.
func (e *ONNXEngine) Record() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.device
}

// Run preprocesses imgs, executes the network and decodes one result per image.
//
// Arguments:
//   - ctx: The context for the call.
//   - imgs: At most Batch() RGB images.
//
// Returns:
//   - []inference.Result: One result per image, in input order.
//   - error: An error if preparation, execution or decoding fails.
func (e *ONNXEngine) Run(ctx context.Context, imgs []images.Image) ([]inference.Result, error) {
	if len(imgs) == 0 {
		return []inference.Result{}, nil
	}
	if len(imgs) > e.batch {
		return nil, inference.WrapKind(inference.ErrShapeMismatch,
			fmt.Errorf("%d images exceed batch %d", len(imgs), e.batch), "")
	}

	n := len(imgs)
	if e.fixedBatch {
		n = e.batch
	}

	input, err := ort.NewEmptyTensor[float32](ort.NewShape(int64(n), images.Channels, int64(e.input.Y), int64(e.input.X)))
	if err != nil {
		return nil, errors.Wrap(err, "error creating input tensor")
	}
	defer input.Destroy()

	if err := fillInput(input.GetData(), imgs, e.input); err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.ensureSession(); err != nil {
		return nil, err
	}

	outputs := []ort.Value{nil}
	start := e.clock.Now()
	err = e.session.Run([]ort.Value{input}, outputs)
	e.device += e.clock.Since(start)
	if err != nil {
		return nil, errors.Wrap(err, "error running session")
	}
	defer outputs[0].Destroy()

	output, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return nil, fmt.Errorf("output %s is %T, want float32 tensor", e.outputName, outputs[0])
	}
	if err := e.learnLayout(output.GetShape()); err != nil {
		return nil, err
	}

	return e.decode(output.GetData(), imgs), nil
}

// learnLayout checks the output shape against the known layout, filling in
// dimensions that were dynamic at load time.
func (e *ONNXEngine) learnLayout(shape ort.Shape) error {
	if len(shape) != 3 || shape[1] <= 4 {
		return fmt.Errorf("unexpected output shape %v", shape)
	}
	classes, anchors := int(shape[1])-4, int(shape[2])
	if e.classes == 0 {
		e.classes = classes
	}
	if e.anchors == 0 {
		e.anchors = anchors
	}
	if classes != e.classes || anchors != e.anchors {
		return fmt.Errorf("output shape %v does not match %d classes and %d anchors", shape, e.classes, e.anchors)
	}
	return nil
}

func (e *ONNXEngine) decoder() Decoder {
	return Decoder{
		Classes:    e.classes,
		Anchors:    e.anchors,
		Input:      e.input,
		Confidence: e.cfg.ConfidenceThreshold,
		IoU:        e.cfg.NMSThreshold,
	}
}

func (e *ONNXEngine) decode(data []float32, imgs []images.Image) []inference.Result {
	d := e.decoder()
	stride := (4 + d.Classes) * d.Anchors
	results := make([]inference.Result, len(imgs))
	for i, img := range imgs {
		results[i] = d.Decode(data[i*stride:(i+1)*stride], img.Size())
	}
	return results
}

// Close releases the session.
func (e *ONNXEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.releaseSession()
}

// fillInput writes each image into its slot of the input tensor. Slots past
// len(imgs) keep their contents.
func fillInput(data []float32, imgs []images.Image, size image.Point) error {
	stride := images.Channels * size.X * size.Y
	for i, img := range imgs {
		if err := PrepareInput(img, size.X, size.Y, data[i*stride:(i+1)*stride]); err != nil {
			return errors.Wrapf(err, "preparing image %d", i)
		}
	}
	return nil
}
