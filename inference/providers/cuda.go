package providers

import (
	"fmt"

	ort "github.com/yalue/onnxruntime_go"
)

// CUDAOptions contains arguments for the CUDA provider.
// See:
// https://onnxruntime.ai/docs/execution-providers/CUDA-ExecutionProvider.html#configuration-options
type CUDAOptions struct {
	// The device ID.
	DeviceID int `json:"deviceID" yaml:"deviceID"`
	// The size limit of the device memory arena in bytes. Zero leaves the default.
	GPUMemLimit int64 `json:"gpuMemLimit" yaml:"gpuMemLimit"`
	// Capture the session's device operations in a CUDA graph on the first run
	// and replay it on every following run. All inputs and outputs must be
	// bound to fixed device buffers.
	EnableCudaGraph bool `json:"enableCudaGraph" yaml:"enableCudaGraph"`
	// Allow TF32 on Ampere and newer GPUs.
	UseTF32 bool `json:"useTF32" yaml:"useTF32"`
}

// ToNativeProviderOptions converts the CUDA options to onnxruntime CUDA provider options.
// The caller must destroy the returned options.
func (o CUDAOptions) ToNativeProviderOptions() (*ort.CUDAProviderOptions, error) {
	opts, err := ort.NewCUDAProviderOptions()
	if err != nil {
		return nil, err
	}

	settings := map[string]string{
		"device_id":                 fmt.Sprintf("%d", o.DeviceID),
		"do_copy_in_default_stream": "1",
		"enable_cuda_graph":         boolOption(o.EnableCudaGraph),
		"use_tf32":                  boolOption(o.UseTF32),
	}
	if o.GPUMemLimit > 0 {
		settings["gpu_mem_limit"] = fmt.Sprintf("%d", o.GPUMemLimit)
	}

	if err := opts.Update(settings); err != nil {
		opts.Destroy()
		return nil, fmt.Errorf("error updating CUDA provider options: %w", err)
	}
	return opts, nil
}

func boolOption(v bool) string {
	if v {
		return "1"
	}
	return "0"
}
