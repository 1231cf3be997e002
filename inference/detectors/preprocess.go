package detectors

import (
	"fmt"
	"image"

	"github.com/nfnt/resize"

	"github.com/nvr-ai/go-detect/images"
)

// PrepareInput resizes img to the network input and writes it into dst as
// planar RGB floats scaled to [0, 1].
//
// Arguments:
//   - img: The RGB image to prepare.
//   - width: The network input width.
//   - height: The network input height.
//   - dst: The destination slice of one image of the input tensor.
//
// Returns:
//   - error: An error if dst is too small.
func PrepareInput(img images.Image, width, height int, dst []float32) error {
	channelSize := width * height
	if len(dst) < channelSize*images.Channels {
		return fmt.Errorf("destination only holds %d floats, needs %d", len(dst), channelSize*images.Channels)
	}
	red := dst[0:channelSize]
	green := dst[channelSize : channelSize*2]
	blue := dst[channelSize*2 : channelSize*3]

	var src image.Image = img.RGBA()
	if img.Width != width || img.Height != height {
		src = resize.Resize(uint(width), uint(height), src, resize.Bilinear)
	}

	if rgba, ok := src.(*image.RGBA); ok {
		i := 0
		for y := 0; y < height; y++ {
			row := rgba.Pix[y*rgba.Stride : y*rgba.Stride+width*4]
			for x := 0; x < width; x++ {
				red[i] = float32(row[x*4]) / 255.0
				green[i] = float32(row[x*4+1]) / 255.0
				blue[i] = float32(row[x*4+2]) / 255.0
				i++
			}
		}
		return nil
	}

	b := src.Bounds()
	i := 0
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r, g, bl, _ := src.At(b.Min.X+x, b.Min.Y+y).RGBA()
			red[i] = float32(r>>8) / 255.0
			green[i] = float32(g>>8) / 255.0
			blue[i] = float32(bl>>8) / 255.0
			i++
		}
	}
	return nil
}
