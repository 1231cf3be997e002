package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvr-ai/go-detect/inference/providers"
)

func TestLoadDefaults(t *testing.T) {
	s, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5, s.WarmupBatch)
	assert.Equal(t, "cpu", s.Provider)
	assert.Equal(t, 1, s.Batch)
	assert.Equal(t, 640, s.InputWidth)
	assert.Equal(t, 640, s.InputHeight)
	assert.InDelta(t, 0.25, s.Confidence, 1e-6)
	assert.InDelta(t, 0.45, s.IoU, 1e-6)
	assert.Equal(t, "warn", s.LogLevel)
	assert.Empty(t, s.ReportPath)
	assert.Equal(t, providers.GetSharedLibPath(), s.ORTLibrary)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("DETECT_WARMUP_BATCH", "0")
	t.Setenv("DETECT_PROVIDER", "cuda")
	t.Setenv("DETECT_DEVICE_ID", "1")
	t.Setenv("DETECT_BATCH", "8")
	t.Setenv("DETECT_REPORT_PATH", "/tmp/report.json")

	s, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 0, s.WarmupBatch)
	assert.Equal(t, 8, s.Batch)
	assert.Equal(t, "/tmp/report.json", s.ReportPath)

	p := s.ProviderConfig()
	assert.Equal(t, providers.CUDAProviderBackend, p.Backend)
	assert.Equal(t, 1, p.CUDA.DeviceID)
}

func TestLoadRejectsInvalid(t *testing.T) {
	t.Setenv("DETECT_PROVIDER", "tpu")
	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	s, err := Load()
	require.NoError(t, err)

	bad := s
	bad.Batch = 0
	assert.Error(t, bad.Validate())

	bad = s
	bad.Confidence = 1.5
	assert.Error(t, bad.Validate())
}
