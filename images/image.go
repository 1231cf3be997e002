// Package images - Image definition for the detection pipeline.
package images

import (
	"fmt"
	"image"
	"image/color"
)

// Channels is the number of interleaved channels in an Image.
const Channels = 3

// ColorOrder is the interleaved channel order of an Image.
type ColorOrder string

const (
	// RGB is red, green, blue. Detectors consume RGB.
	RGB ColorOrder = "rgb"
	// BGR is blue, green, red. Decoders produce and encoders consume BGR.
	BGR ColorOrder = "bgr"
)

// Image is packed 8-bit pixel data with an explicit channel order.
//
// An Image handed to a detector is borrowed for the duration of the call only.
type Image struct {
	// The packed, interleaved pixel data (Width*Height*Channels bytes).
	Data []byte `json:"-" yaml:"-"`
	// The width of the image.
	Width int `json:"width" yaml:"width"`
	// The height of the image.
	Height int `json:"height" yaml:"height"`
	// The channel order of Data.
	Order ColorOrder `json:"order" yaml:"order"`
}

// Validate checks that the buffer matches the declared geometry.
//
// Returns:
//   - error: An error when the dimensions or buffer length are inconsistent.
func (img Image) Validate() error {
	if img.Width <= 0 || img.Height <= 0 {
		return fmt.Errorf("invalid image dimensions %dx%d", img.Width, img.Height)
	}
	if want := img.Width * img.Height * Channels; len(img.Data) != want {
		return fmt.Errorf("image buffer holds %d bytes, %dx%d needs %d", len(img.Data), img.Width, img.Height, want)
	}
	if img.Order != RGB && img.Order != BGR {
		return fmt.Errorf("unsupported color order %q", img.Order)
	}
	return nil
}

// Size returns the width and height of the image.
func (img Image) Size() image.Point {
	return image.Point{X: img.Width, Y: img.Height}
}

// Clone returns a deep copy of the image.
func (img Image) Clone() Image {
	out := img
	out.Data = append([]byte(nil), img.Data...)
	return out
}

// RGBA returns an image.Image view of the pixels, honouring Order.
//
// Returns:
//   - *image.RGBA: A freshly allocated opaque copy of the pixels.
func (img Image) RGBA() *image.RGBA {
	out := image.NewRGBA(image.Rect(0, 0, img.Width, img.Height))
	ri, bi := 0, 2
	if img.Order == BGR {
		ri, bi = 2, 0
	}
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			p := (y*img.Width + x) * Channels
			out.SetRGBA(x, y, color.RGBA{R: img.Data[p+ri], G: img.Data[p+1], B: img.Data[p+bi], A: 255})
		}
	}
	return out
}
