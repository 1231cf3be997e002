package providers

import (
	"fmt"
	"os"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

var envMu sync.Mutex

// InitializeEnvironment loads the onnxruntime shared library and prepares
// the native environment. It is safe to call more than once; only the first
// successful call has an effect.
//
// Arguments:
//   - libPath: The onnxruntime shared library.
//
// Returns:
//   - error: An error if the library is missing or fails to initialize.
func InitializeEnvironment(libPath string) error {
	envMu.Lock()
	defer envMu.Unlock()

	if ort.IsInitialized() {
		return nil
	}
	if _, err := os.Stat(libPath); err != nil {
		return fmt.Errorf("ONNX Runtime library not found at %s: %w", libPath, err)
	}

	ort.SetSharedLibraryPath(libPath)
	if err := ort.InitializeEnvironment(); err != nil {
		return fmt.Errorf("error initializing ORT environment: %w", err)
	}
	return nil
}

// DestroyEnvironment releases the native environment.
func DestroyEnvironment() error {
	envMu.Lock()
	defer envMu.Unlock()

	if !ort.IsInitialized() {
		return nil
	}
	return ort.DestroyEnvironment()
}

// NewSessionOptions builds session options with the configured execution provider.
//
// Graph capture requires the CUDA provider; when captureGraph is set the
// backend is forced to CUDA with CUDA graphs enabled.
//
// **The caller must destroy the returned options.**
//
// Arguments:
//   - cfg: The provider configuration.
//   - captureGraph: Enable CUDA graph capture and replay.
//
// Returns:
//   - *ort.SessionOptions: The session options.
//   - error: An error if the options or provider cannot be set up.
func NewSessionOptions(cfg Config, captureGraph bool) (*ort.SessionOptions, error) {
	options, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("error creating ORT session options: %w", err)
	}

	fail := func(err error) (*ort.SessionOptions, error) {
		options.Destroy()
		return nil, err
	}

	if err := options.SetIntraOpNumThreads(cfg.IntraOpThreads); err != nil {
		return fail(fmt.Errorf("error setting intra-op threads: %w", err))
	}
	if err := options.SetInterOpNumThreads(cfg.InterOpThreads); err != nil {
		return fail(fmt.Errorf("error setting inter-op threads: %w", err))
	}
	if err := options.SetGraphOptimizationLevel(ort.GraphOptimizationLevelEnableExtended); err != nil {
		return fail(fmt.Errorf("error setting graph optimization level: %w", err))
	}

	backend := cfg.Backend
	if captureGraph {
		backend = CUDAProviderBackend
	}

	switch backend {
	case CPUProviderBackend, "":
	case CUDAProviderBackend:
		cudaOpts := cfg.CUDA
		cudaOpts.EnableCudaGraph = captureGraph
		cuda, err := cudaOpts.ToNativeProviderOptions()
		if err != nil {
			return fail(fmt.Errorf("error converting CUDA options: %w", err))
		}
		defer cuda.Destroy()
		if err := options.AppendExecutionProviderCUDA(cuda); err != nil {
			return fail(fmt.Errorf("error enabling CUDA: %w", err))
		}
	case OpenVINOProviderBackend:
		if err := options.AppendExecutionProviderOpenVINO(cfg.OpenVINO.toMap()); err != nil {
			return fail(fmt.Errorf("error enabling OpenVINO: %w", err))
		}
	case CoreMLProviderBackend:
		if err := options.AppendExecutionProviderCoreML(0); err != nil {
			return fail(fmt.Errorf("error enabling CoreML: %w", err))
		}
	default:
		return fail(fmt.Errorf("unsupported execution provider %q", backend))
	}

	return options, nil
}
