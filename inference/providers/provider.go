// Package providers - ONNX Runtime execution providers and session options.
package providers

import (
	"fmt"
	"strings"
)

// ProviderBackend represents an ONNX Runtime execution provider.
type ProviderBackend string

const (
	// CPUProviderBackend runs on the default CPU execution provider.
	CPUProviderBackend ProviderBackend = "cpu"
	// CUDAProviderBackend uses NVIDIA CUDA; required for graph capture.
	CUDAProviderBackend ProviderBackend = "cuda"
	// OpenVINOProviderBackend uses Intel OpenVINO.
	OpenVINOProviderBackend ProviderBackend = "openvino"
	// CoreMLProviderBackend uses Apple CoreML.
	CoreMLProviderBackend ProviderBackend = "coreml"
)

// Backends lists the supported execution providers.
var Backends = []ProviderBackend{CPUProviderBackend, CUDAProviderBackend, OpenVINOProviderBackend, CoreMLProviderBackend}

// ParseBackend parses a provider name, case-insensitively.
func ParseBackend(name string) (ProviderBackend, error) {
	for _, b := range Backends {
		if strings.EqualFold(name, string(b)) {
			return b, nil
		}
	}
	return "", fmt.Errorf("unsupported execution provider %q, want one of %v", name, Backends)
}

// Config selects and configures the execution provider of a session.
type Config struct {
	// Backend is the execution provider to append to the session.
	Backend ProviderBackend `json:"backend" yaml:"backend"`
	// LibraryPath is the onnxruntime shared library to load.
	LibraryPath string `json:"libraryPath" yaml:"libraryPath"`
	// CUDA configures the CUDA provider.
	CUDA CUDAOptions `json:"cuda" yaml:"cuda"`
	// OpenVINO configures the OpenVINO provider.
	OpenVINO OpenVINOOptions `json:"openvino" yaml:"openvino"`
	// IntraOpThreads parallelizes execution within graph nodes. Zero uses the default.
	IntraOpThreads int `json:"intraOpThreads" yaml:"intraOpThreads"`
	// InterOpThreads parallelizes execution across graph nodes. Zero uses the default.
	InterOpThreads int `json:"interOpThreads" yaml:"interOpThreads"`
}

// DefaultConfig returns a CPU configuration using the platform library path.
func DefaultConfig() Config {
	return Config{
		Backend:     CPUProviderBackend,
		LibraryPath: GetSharedLibPath(),
		OpenVINO: OpenVINOOptions{
			DeviceType: "CPU",
		},
	}
}
