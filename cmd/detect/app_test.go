package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvr-ai/go-detect/config"
	"github.com/nvr-ai/go-detect/images"
	"github.com/nvr-ai/go-detect/inference"
)

// MockEngine records the size of every run.
type MockEngine struct {
	batch  int
	runs   []int
	closed bool
}

func (m *MockEngine) Batch() int { return m.batch }

func (m *MockEngine) Run(ctx context.Context, imgs []images.Image) ([]inference.Result, error) {
	m.runs = append(m.runs, len(imgs))
	return make([]inference.Result, len(imgs)), nil
}

func (m *MockEngine) Close() error {
	m.closed = true
	return nil
}

// MockCodec decodes any file into a small blank image.
type MockCodec struct {
	written []string
}

func (m *MockCodec) Read(path string) (images.Image, error) {
	if _, err := os.Stat(path); err != nil {
		return images.Image{}, images.ErrDecode
	}
	return images.Image{Data: make([]byte, 4*3*images.Channels), Width: 4, Height: 3, Order: images.BGR}, nil
}

func (m *MockCodec) Convert(img *images.Image, order images.ColorOrder) error {
	img.Order = order
	return nil
}

func (m *MockCodec) Write(path string, img images.Image) error {
	m.written = append(m.written, path)
	return nil
}

type fixture struct {
	engine string
	input  string
	stdout bytes.Buffer
	stderr bytes.Buffer
	mock   *MockEngine
	codec  *MockCodec
}

func newFixture(t *testing.T, n int) *fixture {
	t.Helper()
	root := t.TempDir()
	f := &fixture{
		engine: filepath.Join(root, "model.onnx"),
		input:  filepath.Join(root, "images"),
		mock:   &MockEngine{batch: 4},
		codec:  &MockCodec{},
	}
	require.NoError(t, os.WriteFile(f.engine, []byte("onnx"), 0o644))
	require.NoError(t, os.Mkdir(f.input, 0o755))
	for i := 0; i < n; i++ {
		name := filepath.Join(f.input, string(rune('a'+i))+".jpg")
		require.NoError(t, os.WriteFile(name, []byte("jpg"), 0o644))
	}
	return f
}

func (f *fixture) run(args ...string) int {
	loader := func(path string, settings config.Settings) (inference.Engine, error) {
		return f.mock, nil
	}
	return run(append([]string{"detect"}, args...), &f.stdout, &f.stderr, loader, f.codec)
}

func TestRunDirectory(t *testing.T) {
	f := newFixture(t, 7)

	code := f.run("-e", f.engine, "-i", f.input)
	assert.Equal(t, 0, code, f.stderr.String())
	assert.Equal(t, []int{4, 3}, f.mock.runs)
	assert.Equal(t, "Inference completed.\n", f.stdout.String())
	assert.True(t, f.mock.closed)
}

func TestRunSingleFile(t *testing.T) {
	f := newFixture(t, 1)

	code := f.run("--engine", f.engine, "--input", filepath.Join(f.input, "a.jpg"))
	assert.Equal(t, 0, code, f.stderr.String())
	assert.Equal(t, []int{1}, f.mock.runs)
	assert.Equal(t, "Inference completed.\n", f.stdout.String())
}

func TestRunPrintsAveragesAfterWarmup(t *testing.T) {
	t.Setenv("DETECT_WARMUP_BATCH", "0")
	f := newFixture(t, 12)

	code := f.run("-e", f.engine, "-i", f.input)
	assert.Equal(t, 0, code, f.stderr.String())
	out := f.stdout.String()
	assert.Contains(t, out, "Average infer CPU elapsed time: ")
	assert.Contains(t, out, "Average infer GPU elapsed time: ")
	assert.Regexp(t, `Inference completed\.\n$`, out)
}

func TestRunUsage(t *testing.T) {
	f := newFixture(t, 1)

	assert.Equal(t, 1, f.run("-e", f.engine, "-i"))
	assert.Contains(t, f.stderr.String(), "Usage:")
	assert.Empty(t, f.stdout.String())
	assert.Nil(t, f.mock.runs)
}

func TestRunUnknownFlag(t *testing.T) {
	for name, extra := range map[string]string{
		"unknown flag": "--fast",
		"positional":   "extra",
		"short help":   "-h",
		"long help":    "--help",
	} {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t, 1)

			assert.Equal(t, 1, f.run("-e", f.engine, "-i", f.input, extra))
			assert.Contains(t, f.stderr.String(), "Usage:")
			assert.Empty(t, f.stdout.String())
			assert.Nil(t, f.mock.runs)
		})
	}
}

func TestRunValidation(t *testing.T) {
	for name, args := range map[string]func(f *fixture) []string{
		"missing engine": func(f *fixture) []string {
			return []string{"-e", f.engine + ".missing", "-i", f.input}
		},
		"missing input": func(f *fixture) []string {
			return []string{"-e", f.engine, "-i", f.input + ".missing"}
		},
		"output without labels": func(f *fixture) []string {
			return []string{"-e", f.engine, "-i", f.input, "-o", filepath.Join(filepath.Dir(f.input), "out")}
		},
		"missing labels": func(f *fixture) []string {
			return []string{"-e", f.engine, "-i", f.input, "-o", filepath.Join(filepath.Dir(f.input), "out"), "-l", "nope.txt"}
		},
		"output occupied": func(f *fixture) []string {
			labels := filepath.Join(filepath.Dir(f.input), "labels.txt")
			_ = os.WriteFile(labels, []byte("person\n"), 0o644)
			return []string{"-e", f.engine, "-i", f.input, "-o", f.engine, "-l", labels}
		},
	} {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t, 2)
			assert.Equal(t, 1, f.run(args(f)...))
			assert.Nil(t, f.mock.runs)
			assert.NotContains(t, f.stdout.String(), "Inference completed.")
			assert.NotEmpty(t, f.stderr.String())
		})
	}
}

func TestRunWritesOutput(t *testing.T) {
	f := newFixture(t, 3)
	root := filepath.Dir(f.input)
	labels := filepath.Join(root, "labels.txt")
	require.NoError(t, os.WriteFile(labels, []byte("person\ncar\n"), 0o644))
	out := filepath.Join(root, "out", "nested")

	code := f.run("-e", f.engine, "-i", f.input, "-o", out, "-l", labels)
	assert.Equal(t, 0, code, f.stderr.String())
	assert.DirExists(t, out)
	assert.Len(t, f.codec.written, 3)
}

func TestRunCudaGraphNeedsCapturer(t *testing.T) {
	f := newFixture(t, 2)

	assert.Equal(t, 1, f.run("-e", f.engine, "-i", f.input, "--cudaGraph"))
	assert.Contains(t, f.stderr.String(), "graph capture")
}
