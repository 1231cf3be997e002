package images

import (
	"crypto/md5"
	"fmt"
)

// ComputeChecksum generates a deterministic checksum of the pixel buffer.
//
// Arguments:
//   - img: The image to compute the checksum for.
//
// Returns:
//   - A hex-encoded MD5 checksum string, or "empty" for an empty buffer.
//
// Example:
//
//	before := ComputeChecksum(img)
//	_ = render.Draw(&img, result, labels)
//	changed := before != ComputeChecksum(img)
func ComputeChecksum(img Image) string {
	if len(img.Data) == 0 {
		return "empty"
	}

	hash := md5.New()
	hash.Write(img.Data)
	return fmt.Sprintf("%s:%dx%d:%x", img.Order, img.Width, img.Height, hash.Sum(nil))
}
