package render

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvr-ai/go-detect/images"
	"github.com/nvr-ai/go-detect/inference"
)

func gray(w, h int) images.Image {
	data := make([]byte, w*h*images.Channels)
	for i := range data {
		data[i] = 128
	}
	return images.Image{Data: data, Width: w, Height: h, Order: images.BGR}
}

func TestDrawEmptyResultLeavesBuffer(t *testing.T) {
	img := gray(64, 48)
	before := images.ComputeChecksum(img)

	require.NoError(t, Draw(&img, inference.Result{}, inference.NewLabels()))
	assert.Equal(t, before, images.ComputeChecksum(img))
}

func TestDrawRejectsUnknownClass(t *testing.T) {
	img := gray(64, 48)
	before := images.ComputeChecksum(img)

	var res inference.Result
	res.Add(inference.Box{Left: 2, Top: 20, Right: 30, Bottom: 40}, 0, 0.9)
	res.Add(inference.Box{Left: 10, Top: 20, Right: 40, Bottom: 40}, 7, 0.8)

	err := Draw(&img, res, inference.NewLabels("a", "b", "c", "d", "e"))
	assert.ErrorIs(t, err, inference.ErrLabelIndex)
	assert.Equal(t, before, images.ComputeChecksum(img))
}

func TestDrawMarksBox(t *testing.T) {
	img := gray(64, 48)
	before := images.ComputeChecksum(img)

	var res inference.Result
	res.Add(inference.Box{Left: 10, Top: 25, Right: 50, Bottom: 45}, 0, 0.5)
	require.NoError(t, Draw(&img, res, inference.NewLabels("person")))

	assert.NotEqual(t, before, images.ComputeChecksum(img))
	// Bottom edge of the box.
	off := (45*64 + 30) * images.Channels
	assert.NotEqual(t, []byte{128, 128, 128}, img.Data[off:off+3])
	// Far corner stays untouched.
	off = (2*64 + 62) * images.Channels
	assert.Equal(t, []byte{128, 128, 128}, img.Data[off:off+3])
}

func TestLabel(t *testing.T) {
	assert.Equal(t, "person 0.500", Label("person", 0.5))
	assert.Equal(t, "car 0.123", Label("car", 0.1234))
}

func TestOrderColor(t *testing.T) {
	c := color.RGBA{R: 1, G: 2, B: 3}
	assert.Equal(t, c, orderColor(c, images.BGR))
	assert.Equal(t, color.RGBA{R: 3, G: 2, B: 1}, orderColor(c, images.RGB))
}
