package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"image"
	"io"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"github.com/nvr-ai/go-detect/benchmark"
	"github.com/nvr-ai/go-detect/config"
	"github.com/nvr-ai/go-detect/images"
	"github.com/nvr-ai/go-detect/inference"
	"github.com/nvr-ai/go-detect/inference/detectors"
	"github.com/nvr-ai/go-detect/logging"
	"github.com/nvr-ai/go-detect/render"
	"github.com/nvr-ai/go-detect/util"
)

const (
	flagEngine    = "engine"
	flagInput     = "input"
	flagOutput    = "output"
	flagLabels    = "labels"
	flagCudaGraph = "cudaGraph"

	usage = "-e <engine> -i <input> [-o <output>] [-l <labels>] [--cudaGraph]"
)

// errConfig is returned for missing or inconsistent command line options.
var errConfig = stderrors.New("invalid configuration")

// EngineLoader loads the inference engine at path.
type EngineLoader func(path string, settings config.Settings) (inference.Engine, error)

func loadONNX(path string, settings config.Settings) (inference.Engine, error) {
	cfg := detectors.DefaultConfig()
	cfg.Provider = settings.ProviderConfig()
	cfg.Batch = settings.Batch
	cfg.InputShape = image.Point{X: settings.InputWidth, Y: settings.InputHeight}
	cfg.ConfidenceThreshold = settings.Confidence
	cfg.NMSThreshold = settings.IoU
	return detectors.Load(path, cfg)
}

// run executes the command line in args and returns the process exit code.
// A nil codec uses OpenCV.
func run(args []string, stdout, stderr io.Writer, loader EngineLoader, codec images.Codec) int {
	if len(args) < 5 {
		fmt.Fprintf(stderr, "Usage: %s %s\n", programName(args), usage)
		return 1
	}

	settings, err := config.Load()
	if err != nil {
		logger, _ := logging.New(stderr, "warn")
		logger.Error().Err(err).Msg("failed to load settings")
		return 1
	}
	logger, err := logging.Init(stderr, settings.LogLevel)
	if err != nil {
		logger, _ = logging.New(stderr, "warn")
		logger.Error().Err(err).Msg("failed to initialize logger")
		return 1
	}

	if codec == nil {
		codec = images.NewCVCodec()
	}

	app := &cli.App{
		Name:            programName(args),
		Usage:           "run batched object detection over an image or a directory of images",
		UsageText:       programName(args) + " " + usage,
		HideHelp:        true,
		HideHelpCommand: true,
		Writer:          stdout,
		ErrWriter:       stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: flagEngine, Aliases: []string{"e"}, Usage: "model `FILE`"},
			&cli.StringFlag{Name: flagInput, Aliases: []string{"i"}, Usage: "image `PATH`, a file or a directory"},
			&cli.StringFlag{Name: flagOutput, Aliases: []string{"o"}, Usage: "directory for annotated images"},
			&cli.StringFlag{Name: flagLabels, Aliases: []string{"l"}, Usage: "labels `FILE`, one class name per line"},
			&cli.BoolFlag{Name: flagCudaGraph, Usage: "capture the execution in a CUDA graph and replay it"},
		},
		OnUsageError: func(c *cli.Context, err error, isSubcommand bool) error {
			fmt.Fprintf(stderr, "Usage: %s %s\n", programName(args), usage)
			return err
		},
		Action: func(c *cli.Context) error {
			if c.NArg() > 0 {
				fmt.Fprintf(stderr, "Usage: %s %s\n", programName(args), usage)
				return errors.Wrapf(errConfig, "unknown argument: %s", c.Args().First())
			}
			return detect(c.Context, options{
				engine:    c.String(flagEngine),
				input:     c.String(flagInput),
				output:    c.String(flagOutput),
				labels:    c.String(flagLabels),
				cudaGraph: c.Bool(flagCudaGraph),
			}, settings, loader, codec, stdout, logger)
		},
	}

	if err := app.RunContext(context.Background(), args); err != nil {
		logger.Error().Err(err).Msg("detect failed")
		return 1
	}
	return 0
}

type options struct {
	engine    string
	input     string
	output    string
	labels    string
	cudaGraph bool
}

// detect validates the options, builds the detector and drives the run.
func detect(
	ctx context.Context,
	opts options,
	settings config.Settings,
	loader EngineLoader,
	codec images.Codec,
	stdout io.Writer,
	logger zerolog.Logger,
) error {
	if opts.engine == "" || opts.input == "" {
		return errors.Wrap(errConfig, "both --engine and --input are required")
	}
	if err := util.Exists(opts.engine); err != nil {
		return errors.Wrap(err, "engine path")
	}
	input, err := util.ResolveInput(opts.input)
	if err != nil {
		return errors.Wrap(err, "input path")
	}

	var labels inference.Labels
	if opts.output != "" {
		if opts.labels == "" {
			return errors.Wrap(errConfig, "please provide a labels file using -l or --labels")
		}
		if err := util.Exists(opts.labels); err != nil {
			return errors.Wrap(err, "label path")
		}
		if labels, err = inference.LoadLabels(opts.labels); err != nil {
			return err
		}
		if err := util.EnsureOutputDir(opts.output); err != nil {
			return err
		}
	}

	engine, err := loader(opts.engine, settings)
	if err != nil {
		return inference.WrapKind(inference.ErrEngineLoad, err, "%s", opts.engine)
	}

	detectorOpts := inference.Options{CaptureGraph: opts.cudaGraph}
	if opts.cudaGraph {
		if detectorOpts.CaptureShape, err = captureShape(codec, input, engine.Batch()); err != nil {
			engine.Close()
			return err
		}
	}
	detector, err := inference.NewDetector(ctx, engine, detectorOpts)
	if err != nil {
		engine.Close()
		return err
	}
	defer detector.Close()

	logger.Debug().
		Str("input", input.Path).
		Str("kind", input.Kind.String()).
		Int("files", len(input.Files)).
		Int("batch", detector.Batch()).
		Bool("cuda_graph", opts.cudaGraph).
		Msg("starting detection")

	var events benchmark.EventSource = benchmark.NewHostEvents(nil)
	if dc := detector.DeviceClock(); dc != nil {
		events = dc
	}
	runner := &benchmark.Runner{
		Detector:  detector,
		Codec:     codec,
		Labels:    labels,
		OutputDir: opts.output,
		Draw:      render.Draw,
		Recorder: benchmark.NewRecorder(
			benchmark.NewHostTimer(nil),
			benchmark.NewDeviceTimer(events),
			settings.WarmupBatch,
			logger,
		),
		Log: logger,
	}

	if input.Kind == util.InputFile {
		if err := runner.RunFile(ctx, input.Path); err != nil {
			return err
		}
	} else {
		report, err := runner.RunDirectory(ctx, input.Files)
		if err != nil {
			return err
		}
		if err := report.Print(stdout); err != nil {
			return err
		}
		if settings.ReportPath != "" {
			if err := report.Save(settings.ReportPath); err != nil {
				return err
			}
		}
	}

	_, err = fmt.Fprintln(stdout, "Inference completed.")
	return err
}

// captureShape picks the graph shape: the largest batch the input can fill
// and the size of the first image.
func captureShape(codec images.Codec, input util.Input, batch int) (inference.Shape, error) {
	first, err := codec.Read(input.Files[0])
	if err != nil {
		return inference.Shape{}, err
	}
	if input.Kind == util.InputFile {
		batch = 1
	}
	return inference.Shape{
		Batch:  min(batch, len(input.Files)),
		Width:  first.Width,
		Height: first.Height,
	}, nil
}

func programName(args []string) string {
	if len(args) == 0 {
		return "detect"
	}
	return args[0]
}
