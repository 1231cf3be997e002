package detectors

import (
	"image"
	"sort"

	"github.com/nvr-ai/go-detect/inference"
)

// Decoder turns the raw output of one image into detections.
//
// The output layout is YOLOv8: 4+C rows of N anchors, the first four rows
// holding the box centre and size in network input pixels and the remaining
// C rows the class scores.
type Decoder struct {
	// Classes is the number of class rows.
	Classes int
	// Anchors is the number of candidate boxes.
	Anchors int
	// Input is the network input size.
	Input image.Point
	// Confidence is the minimum class score kept.
	Confidence float32
	// IoU is the NMS suppression threshold.
	IoU float32
}

// Decode decodes output into a result scaled to an image of size src.
//
// Arguments:
//   - output: The 4+C by N block of one image.
//   - src: The size of the source image.
//
// Returns:
//   - inference.Result: The detections surviving the threshold and NMS,
//     ordered by descending score.
func (d Decoder) Decode(output []float32, src image.Point) inference.Result {
	n := d.Anchors
	sx := float32(src.X) / float32(d.Input.X)
	sy := float32(src.Y) / float32(d.Input.Y)

	candidates := make([]inference.Detection, 0, 64)
	for idx := 0; idx < n; idx++ {
		classID := -1
		var probability float32
		for col := 0; col < d.Classes; col++ {
			p := output[n*(col+4)+idx]
			if classID < 0 || p > probability {
				probability = p
				classID = col
			}
		}
		if classID < 0 || probability < d.Confidence {
			continue
		}

		xc, yc := output[idx], output[n+idx]
		w, h := output[2*n+idx], output[3*n+idx]
		box := inference.Box{
			Left:   (xc - w/2) * sx,
			Top:    (yc - h/2) * sy,
			Right:  (xc + w/2) * sx,
			Bottom: (yc + h/2) * sy,
		}.Clamp(src.X, src.Y)

		candidates = append(candidates, inference.Detection{Box: box, Class: classID, Score: probability})
	}

	result := inference.Result{}
	for _, det := range NMS(candidates, d.IoU) {
		result.Add(det.Box, det.Class, det.Score)
	}
	return result
}

// NMS applies class-aware greedy non-maximum suppression.
//
// Arguments:
//   - detections: The candidate detections, reordered in place.
//   - threshold: The IoU above which the lower scored box is dropped.
//
// Returns:
//   - []inference.Detection: The kept detections by descending score.
func NMS(detections []inference.Detection, threshold float32) []inference.Detection {
	if len(detections) == 0 {
		return detections
	}

	sort.SliceStable(detections, func(i, j int) bool {
		return detections[i].Score > detections[j].Score
	})

	kept := make([]inference.Detection, 0, len(detections))
	used := make([]bool, len(detections))
	for i := range detections {
		if used[i] {
			continue
		}
		kept = append(kept, detections[i])
		for j := i + 1; j < len(detections); j++ {
			if used[j] || detections[j].Class != detections[i].Class {
				continue
			}
			if detections[i].Box.IOU(detections[j].Box) > threshold {
				used[j] = true
			}
		}
	}
	return kept
}
