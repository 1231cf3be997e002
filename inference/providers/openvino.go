package providers

import "fmt"

// OpenVINOOptions contains arguments for the OpenVINO provider.
// See:
// https://onnxruntime.ai/docs/execution-providers/OpenVINO-ExecutionProvider.html#summary-of-options
type OpenVINOOptions struct {
	// Overrides the accelerator hardware type (CPU, GPU, NPU).
	DeviceType string `json:"deviceType" yaml:"deviceType"`
	// Overrides the accelerator default number of threads. Zero leaves the default.
	NumOfThreads int `json:"numOfThreads" yaml:"numOfThreads"`
}

// toMap converts the options into the provider option map.
func (o OpenVINOOptions) toMap() map[string]string {
	m := map[string]string{
		"device_type": o.DeviceType,
	}
	if o.NumOfThreads > 0 {
		m["num_of_threads"] = fmt.Sprintf("%d", o.NumOfThreads)
	}
	return m
}
