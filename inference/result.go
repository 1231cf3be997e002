package inference

import "fmt"

// Detection is a single detected object.
type Detection struct {
	Box   Box
	Class int
	Score float32
}

// Result holds the detections of one image as three parallel sequences.
//
// The sequences are only reachable through NewResult and Add, so they always
// have the same length.
type Result struct {
	boxes   []Box
	classes []int
	scores  []float32
}

// NewResult builds a Result from parallel sequences.
//
// Arguments:
//   - boxes: Bounding boxes.
//   - classes: Class ids, one per box.
//   - scores: Confidence scores in [0, 1], one per box.
//
// Returns:
//   - Result: The result, owning copies of the sequences.
//   - error: An error when the sequence lengths differ.
func NewResult(boxes []Box, classes []int, scores []float32) (Result, error) {
	if len(boxes) != len(classes) || len(boxes) != len(scores) {
		return Result{}, fmt.Errorf("mismatched result sequences: %d boxes, %d classes, %d scores",
			len(boxes), len(classes), len(scores))
	}
	return Result{
		boxes:   append([]Box(nil), boxes...),
		classes: append([]int(nil), classes...),
		scores:  append([]float32(nil), scores...),
	}, nil
}

// Add appends one detection.
func (r *Result) Add(box Box, class int, score float32) {
	r.boxes = append(r.boxes, box)
	r.classes = append(r.classes, class)
	r.scores = append(r.scores, score)
}

// Num returns the number of detections.
func (r Result) Num() int {
	return len(r.boxes)
}

// Box returns the i-th bounding box.
func (r Result) Box(i int) Box {
	return r.boxes[i]
}

// Class returns the i-th class id.
func (r Result) Class(i int) int {
	return r.classes[i]
}

// Score returns the i-th confidence score.
func (r Result) Score(i int) float32 {
	return r.scores[i]
}

// At returns the i-th detection.
func (r Result) At(i int) Detection {
	return Detection{Box: r.boxes[i], Class: r.classes[i], Score: r.scores[i]}
}

// Detections returns a copy of all detections in order.
func (r Result) Detections() []Detection {
	out := make([]Detection, r.Num())
	for i := range out {
		out[i] = r.At(i)
	}
	return out
}
