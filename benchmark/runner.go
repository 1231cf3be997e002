package benchmark

import (
	"context"
	"runtime"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/nvr-ai/go-detect/images"
	"github.com/nvr-ai/go-detect/inference"
	"github.com/nvr-ai/go-detect/util"
)

// DrawFunc draws a result onto an image.
type DrawFunc func(img *images.Image, res inference.Result, labels inference.Labels) error

// Runner drives images through a detector, timing each batch and optionally
// saving annotated copies.
type Runner struct {
	// Detector runs the inference.
	Detector inference.Detector
	// Codec decodes, converts and encodes images.
	Codec images.Codec
	// Labels names the class ids when rendering.
	Labels inference.Labels
	// OutputDir receives annotated copies. Empty disables rendering.
	OutputDir string
	// Draw renders one result.
	Draw DrawFunc
	// Recorder times the measured batches.
	Recorder *Recorder
	// Log receives per batch debug output.
	Log zerolog.Logger
}

// RunFile runs a single image through Predict. It never engages the timers.
//
// Arguments:
//   - ctx: The context for the run.
//   - path: The image file.
//
// Returns:
//   - error: A decode, inference, render or encode failure.
func (r *Runner) RunFile(ctx context.Context, path string) error {
	img, err := r.load(path)
	if err != nil {
		return err
	}

	res, err := r.Detector.Predict(ctx, img)
	if err != nil {
		return errors.Wrapf(err, "predict %s", path)
	}
	r.Log.Debug().Str("file", path).Interface("detections", res.Detections()).Msg("predicted")

	return r.save(path, &img, res)
}

// RunDirectory runs files through PredictBatch in consecutive chunks of
// Detector.Batch() images, the last one possibly shorter. Only PredictBatch
// is timed.
//
// Arguments:
//   - ctx: The context for the run.
//   - files: The image files, in processing order.
//
// Returns:
//   - Report: The run summary.
//   - error: The first decode, inference, timer, render or encode failure.
func (r *Runner) RunDirectory(ctx context.Context, files []string) (Report, error) {
	var start runtime.MemStats
	runtime.ReadMemStats(&start)

	report := Report{Timestamp: time.Now(), Images: len(files)}
	size := r.Detector.Batch()
	if size < 1 {
		return report, errors.Wrapf(inference.ErrShapeMismatch, "detector batch %d", size)
	}

	for index, chunk := range Chunks(files, size) {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		batch := make([]images.Image, len(chunk))
		for i, path := range chunk {
			img, err := r.load(path)
			if err != nil {
				return report, err
			}
			batch[i] = img
		}

		if err := r.Recorder.Begin(index); err != nil {
			return report, err
		}
		results, err := r.Detector.PredictBatch(ctx, batch)
		if endErr := r.Recorder.End(index); err == nil {
			err = endErr
		}
		if err != nil {
			return report, errors.Wrapf(err, "batch %d", index)
		}

		report.Batches++
		r.Log.Debug().
			Int("batch", index).
			Int("size", len(chunk)).
			Bool("measured", r.Recorder.Measures(index)).
			Msg("batch complete")

		for i, path := range chunk {
			report.Detections += results[i].Num()
			if err := r.save(path, &batch[i], results[i]); err != nil {
				return report, err
			}
		}
	}

	report.Measured = r.Recorder.Measured()
	if host, device, ok := r.Recorder.Averages(); ok {
		report.HostAverage = host
		report.DeviceAverage = device
	}
	report.MemoryStats = readMemory(start)
	return report, nil
}

// Chunks splits files into consecutive chunks of at most size entries.
func Chunks(files []string, size int) [][]string {
	var chunks [][]string
	for len(files) > 0 {
		n := min(size, len(files))
		chunks = append(chunks, files[:n:n])
		files = files[n:]
	}
	return chunks
}

// load decodes path and converts it to the detector channel order.
func (r *Runner) load(path string) (images.Image, error) {
	img, err := r.Codec.Read(path)
	if err != nil {
		return images.Image{}, err
	}
	if err := r.Codec.Convert(&img, inference.InputOrder); err != nil {
		return images.Image{}, errors.Wrapf(err, "convert %s", path)
	}
	return img, nil
}

// save renders res onto img and writes it under OutputDir.
func (r *Runner) save(path string, img *images.Image, res inference.Result) error {
	if r.OutputDir == "" {
		return nil
	}
	if err := r.Codec.Convert(img, images.BGR); err != nil {
		return errors.Wrapf(err, "convert %s", path)
	}
	if err := r.Draw(img, res, r.Labels); err != nil {
		return errors.Wrapf(err, "render %s", path)
	}
	if ev := r.Log.Debug(); ev.Enabled() {
		ev.Str("file", path).Str("checksum", images.ComputeChecksum(*img)).Msg("rendered")
	}
	return r.Codec.Write(util.OutputPath(r.OutputDir, path), *img)
}
