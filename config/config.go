// Package config - Runtime settings read from DETECT_* environment variables.
package config

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/nvr-ai/go-detect/benchmark"
	"github.com/nvr-ai/go-detect/inference/providers"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "DETECT"

// Settings are the runtime settings not covered by command line flags.
type Settings struct {
	WarmupBatch int     `mapstructure:"warmup_batch"`
	Provider    string  `mapstructure:"provider"`
	DeviceID    int     `mapstructure:"device_id"`
	ORTLibrary  string  `mapstructure:"ort_library"`
	Batch       int     `mapstructure:"batch"`
	InputWidth  int     `mapstructure:"input_width"`
	InputHeight int     `mapstructure:"input_height"`
	Confidence  float32 `mapstructure:"confidence"`
	IoU         float32 `mapstructure:"iou"`
	LogLevel    string  `mapstructure:"log_level"`
	ReportPath  string  `mapstructure:"report_path"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("warmup_batch", benchmark.DefaultWarmupIndex)
	v.SetDefault("provider", string(providers.CPUProviderBackend))
	v.SetDefault("device_id", 0)
	v.SetDefault("ort_library", providers.GetSharedLibPath())
	v.SetDefault("batch", 1)
	v.SetDefault("input_width", 640)
	v.SetDefault("input_height", 640)
	v.SetDefault("confidence", 0.25)
	v.SetDefault("iou", 0.45)
	v.SetDefault("log_level", "warn")
	v.SetDefault("report_path", "")
}

// Load reads the settings from the environment, e.g. DETECT_WARMUP_BATCH.
//
// Returns:
//   - Settings: The settings, defaults applied.
//   - error: An error if a value cannot be decoded or is out of range.
func Load() (Settings, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, errors.Wrap(err, "failed to decode settings")
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Validate checks the settings ranges.
func (s Settings) Validate() error {
	if _, err := providers.ParseBackend(s.Provider); err != nil {
		return err
	}
	if s.Batch < 1 {
		return errors.Errorf("batch must be positive, got %d", s.Batch)
	}
	if s.InputWidth < 1 || s.InputHeight < 1 {
		return errors.Errorf("input size must be positive, got %dx%d", s.InputWidth, s.InputHeight)
	}
	if s.Confidence < 0 || s.Confidence > 1 {
		return errors.Errorf("confidence must be in [0, 1], got %v", s.Confidence)
	}
	if s.IoU < 0 || s.IoU > 1 {
		return errors.Errorf("iou must be in [0, 1], got %v", s.IoU)
	}
	return nil
}

// ProviderConfig returns the execution provider configuration.
func (s Settings) ProviderConfig() providers.Config {
	cfg := providers.DefaultConfig()
	backend, err := providers.ParseBackend(s.Provider)
	if err == nil {
		cfg.Backend = backend
	}
	cfg.LibraryPath = s.ORTLibrary
	cfg.CUDA.DeviceID = s.DeviceID
	return cfg
}
