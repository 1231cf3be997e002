// Package detectors - ONNX Runtime inference engine for YOLO style detection models.
package detectors

import (
	"image"

	"github.com/nvr-ai/go-detect/inference/providers"
)

// Config represents the configuration of an ONNX engine.
type Config struct {
	// Provider selects the execution provider.
	Provider providers.Config `json:"provider" yaml:"provider"`

	// Batch is the batch size used when the model batch dimension is dynamic.
	Batch int `json:"batch" yaml:"batch"`

	// InputShape is the network input size (width, height) used when the
	// model spatial dimensions are dynamic.
	InputShape image.Point `json:"inputShape" yaml:"inputShape"`

	// ConfidenceThreshold filters detections below this confidence level.
	ConfidenceThreshold float32 `json:"confidenceThreshold" yaml:"confidenceThreshold"`

	// NMSThreshold is the IoU above which a lower scored box of the same class
	// is suppressed.
	NMSThreshold float32 `json:"nmsThreshold" yaml:"nmsThreshold"`
}

// DefaultConfig returns a configuration for a 640x640 COCO YOLOv8 export.
//
// Returns:
//   - Config: The default configuration.
func DefaultConfig() Config {
	return Config{
		Provider:            providers.DefaultConfig(),
		Batch:               1,
		InputShape:          image.Point{X: 640, Y: 640},
		ConfidenceThreshold: 0.25,
		NMSThreshold:        0.45,
	}
}
