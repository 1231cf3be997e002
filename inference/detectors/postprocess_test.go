package detectors

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvr-ai/go-detect/inference"
)

// output builds a [4+classes, anchors] block from per anchor boxes and scores.
func output(classes int, boxes [][4]float32, scores [][]float32) []float32 {
	n := len(boxes)
	out := make([]float32, (4+classes)*n)
	for i, b := range boxes {
		for k := 0; k < 4; k++ {
			out[k*n+i] = b[k]
		}
		for c, s := range scores[i] {
			out[(4+c)*n+i] = s
		}
	}
	return out
}

func TestDecodeScalesAndFilters(t *testing.T) {
	d := Decoder{Classes: 3, Anchors: 2, Input: image.Point{X: 640, Y: 640}, Confidence: 0.5, IoU: 0.45}
	out := output(3,
		[][4]float32{{320, 320, 64, 128}, {100, 100, 10, 10}},
		[][]float32{{0.1, 0.9, 0.2}, {0.3, 0.2, 0.1}},
	)

	res := d.Decode(out, image.Point{X: 1280, Y: 320})
	require.Equal(t, 1, res.Num())
	assert.Equal(t, 1, res.Class(0))
	assert.InDelta(t, 0.9, res.Score(0), 1e-6)
	assert.Equal(t, inference.Box{Left: 576, Top: 128, Right: 704, Bottom: 192}, res.Box(0))
}

func TestDecodeClampsToImage(t *testing.T) {
	d := Decoder{Classes: 1, Anchors: 1, Input: image.Point{X: 100, Y: 100}, Confidence: 0.1, IoU: 0.5}
	res := d.Decode(output(1, [][4]float32{{5, 95, 20, 20}}, [][]float32{{0.8}}), image.Point{X: 100, Y: 100})

	require.Equal(t, 1, res.Num())
	assert.Equal(t, inference.Box{Left: 0, Top: 85, Right: 15, Bottom: 100}, res.Box(0))
}

func TestNMSClassAware(t *testing.T) {
	a := inference.Box{Left: 0, Top: 0, Right: 10, Bottom: 10}
	b := inference.Box{Left: 1, Top: 1, Right: 11, Bottom: 11}
	far := inference.Box{Left: 50, Top: 50, Right: 60, Bottom: 60}

	kept := NMS([]inference.Detection{
		{Box: b, Class: 0, Score: 0.6},
		{Box: a, Class: 0, Score: 0.9},
		{Box: a, Class: 1, Score: 0.7},
		{Box: far, Class: 0, Score: 0.5},
	}, 0.45)

	require.Len(t, kept, 3)
	assert.Equal(t, inference.Detection{Box: a, Class: 0, Score: 0.9}, kept[0])
	assert.Equal(t, 1, kept[1].Class)
	assert.Equal(t, far, kept[2].Box)
}

func TestNMSEmpty(t *testing.T) {
	assert.Empty(t, NMS(nil, 0.5))
}
