package images

import (
	stderrors "errors"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

var (
	// ErrDecode is returned when an image file cannot be read or decoded.
	ErrDecode = stderrors.New("failed to read image")
	// ErrEncode is returned when an image cannot be encoded or written.
	ErrEncode = stderrors.New("failed to write image")
)

// Codec decodes, colour converts and encodes images.
type Codec interface {
	// Read decodes the file at path into a BGR image.
	Read(path string) (Image, error)
	// Convert rewrites img in place into the requested channel order.
	Convert(img *Image, order ColorOrder) error
	// Write encodes img to path, the format being chosen by the extension.
	Write(path string, img Image) error
}

// CVCodec is the OpenCV backed Codec.
type CVCodec struct{}

// NewCVCodec creates a new OpenCV backed codec.
func NewCVCodec() *CVCodec {
	return &CVCodec{}
}

// Read decodes the file at path with OpenCV.
//
// Arguments:
//   - path: The image file to decode.
//
// Returns:
//   - Image: The decoded image in BGR order.
//   - error: ErrDecode naming the file when decoding fails.
func (c *CVCodec) Read(path string) (Image, error) {
	mat := gocv.IMRead(path, gocv.IMReadColor)
	defer mat.Close()
	if mat.Empty() {
		return Image{}, errors.Wrapf(ErrDecode, "from path %s", path)
	}

	return Image{
		Data:   mat.ToBytes(),
		Width:  mat.Cols(),
		Height: mat.Rows(),
		Order:  BGR,
	}, nil
}

// Convert swaps img between RGB and BGR.
//
// Arguments:
//   - img: The image to convert in place.
//   - order: The target channel order.
//
// Returns:
//   - error: An error if the buffer is invalid or the conversion fails.
func (c *CVCodec) Convert(img *Image, order ColorOrder) error {
	if img.Order == order {
		return nil
	}
	if err := img.Validate(); err != nil {
		return err
	}

	src, err := gocv.NewMatFromBytes(img.Height, img.Width, gocv.MatTypeCV8UC3, img.Data)
	if err != nil {
		return errors.Wrap(err, "failed to wrap image buffer")
	}
	defer src.Close()

	dst := gocv.NewMat()
	defer dst.Close()

	code := gocv.ColorBGRToRGB
	if order == BGR {
		code = gocv.ColorRGBToBGR
	}
	gocv.CvtColor(src, &dst, code)
	if dst.Empty() {
		return errors.Errorf("color conversion %s -> %s failed", img.Order, order)
	}

	img.Data = dst.ToBytes()
	img.Order = order
	return nil
}

// Write encodes img to path with OpenCV. RGB images are converted to BGR first.
//
// Arguments:
//   - path: The destination file.
//   - img: The image to encode.
//
// Returns:
//   - error: ErrEncode naming the file when writing fails.
func (c *CVCodec) Write(path string, img Image) error {
	if img.Order != BGR {
		img = img.Clone()
		if err := c.Convert(&img, BGR); err != nil {
			return errors.Wrapf(ErrEncode, "%s: %v", path, err)
		}
	}
	if err := img.Validate(); err != nil {
		return errors.Wrapf(ErrEncode, "%s: %v", path, err)
	}

	mat, err := gocv.NewMatFromBytes(img.Height, img.Width, gocv.MatTypeCV8UC3, img.Data)
	if err != nil {
		return errors.Wrapf(ErrEncode, "%s: %v", path, err)
	}
	defer mat.Close()

	if !gocv.IMWrite(path, mat) {
		return errors.Wrapf(ErrEncode, "to path %s", path)
	}
	return nil
}
