// Package render - Detection overlays drawn onto image buffers.
package render

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/nvr-ai/go-detect/images"
	"github.com/nvr-ai/go-detect/inference"
)

var (
	boxColor   = color.RGBA{R: 163, G: 81, B: 251, A: 0}
	labelColor = color.RGBA{R: 81, G: 40, B: 125, A: 0}
	textColor  = color.RGBA{R: 208, G: 168, B: 253, A: 0}
)

const (
	boxThickness  = 2
	fontFace      = gocv.FontHersheySimplex
	fontScale     = 0.6
	fontThickness = 1
)

// Label returns the overlay text of a detection.
func Label(name string, score float32) string {
	return fmt.Sprintf("%s %.3f", name, score)
}

// Draw draws the boxes and labels of res onto img in place.
//
// Every class id is checked against labels before anything is drawn, so a
// failing call leaves img untouched. An empty result is a no-op.
//
// Arguments:
//   - img: The image to annotate.
//   - res: The detections of img.
//   - labels: The label table.
//
// Returns:
//   - error: inference.ErrLabelIndex when a class id has no label.
func Draw(img *images.Image, res inference.Result, labels inference.Labels) error {
	if res.Num() == 0 {
		return nil
	}

	texts := make([]string, res.Num())
	for i := range texts {
		det := res.At(i)
		name, err := labels.Name(det.Class)
		if err != nil {
			return err
		}
		texts[i] = Label(name, det.Score)
	}

	if err := img.Validate(); err != nil {
		return err
	}
	mat, err := gocv.NewMatFromBytes(img.Height, img.Width, gocv.MatTypeCV8UC3, img.Data)
	if err != nil {
		return fmt.Errorf("failed to wrap image buffer: %w", err)
	}
	defer mat.Close()

	for i, text := range texts {
		rect := res.Box(i).Clamp(img.Width, img.Height).ToRect()
		gocv.RectangleWithParams(&mat, rect, orderColor(boxColor, img.Order), boxThickness, gocv.LineAA, 0)

		size := gocv.GetTextSize(text, fontFace, fontScale, fontThickness)
		bg := image.Rect(rect.Min.X, rect.Min.Y-size.Y, rect.Min.X+size.X, rect.Min.Y)
		gocv.Rectangle(&mat, bg, orderColor(labelColor, img.Order), -1)
		gocv.PutText(&mat, text, rect.Min, fontFace, fontScale,
			orderColor(textColor, img.Order), fontThickness)
	}

	copy(img.Data, mat.ToBytes())
	return nil
}

// orderColor maps an RGB colour onto the channel order of the buffer.
// gocv treats the R field as channel 2 and B as channel 0.
func orderColor(c color.RGBA, order images.ColorOrder) color.RGBA {
	if order == images.RGB {
		c.R, c.B = c.B, c.R
	}
	return c
}
