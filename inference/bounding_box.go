package inference

import (
	"fmt"
	"image"

	"github.com/chewxy/math32"
)

// Box is an axis aligned bounding box in source image pixel coordinates.
type Box struct {
	Left, Top, Right, Bottom float32
}

func (b Box) String() string {
	return fmt.Sprintf("(%.1f, %.1f), (%.1f, %.1f)", b.Left, b.Top, b.Right, b.Bottom)
}

// ToRect converts the box to an integral rectangle. Fractional pixels at the
// edges are truncated.
func (b Box) ToRect() image.Rectangle {
	return image.Rect(int(b.Left), int(b.Top), int(b.Right), int(b.Bottom)).Canon()
}

// Area returns the area of b, zero for degenerate boxes.
func (b Box) Area() float32 {
	return math32.Max(0, b.Right-b.Left) * math32.Max(0, b.Bottom-b.Top)
}

// Clamp limits b to a width x height image.
func (b Box) Clamp(width, height int) Box {
	w, h := float32(width), float32(height)
	return Box{
		Left:   math32.Min(math32.Max(b.Left, 0), w),
		Top:    math32.Min(math32.Max(b.Top, 0), h),
		Right:  math32.Min(math32.Max(b.Right, 0), w),
		Bottom: math32.Min(math32.Max(b.Bottom, 0), h),
	}
}

// IOU returns the intersection over union of b and other.
func (b Box) IOU(other Box) float32 {
	ix1 := math32.Max(b.Left, other.Left)
	iy1 := math32.Max(b.Top, other.Top)
	ix2 := math32.Min(b.Right, other.Right)
	iy2 := math32.Min(b.Bottom, other.Bottom)
	if ix2 <= ix1 || iy2 <= iy1 {
		return 0
	}
	inter := (ix2 - ix1) * (iy2 - iy1)
	union := b.Area() + other.Area() - inter
	if union <= 0 {
		return 0
	}
	return inter / union
}
