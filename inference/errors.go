package inference

import (
	stderrors "errors"
	"fmt"

	"github.com/nvr-ai/go-detect/images"
)

var (
	// ErrEngineLoad is returned when an engine artifact is missing or malformed.
	ErrEngineLoad = stderrors.New("failed to load engine")
	// ErrShapeMismatch is returned when a call does not match the detector's accepted shape.
	ErrShapeMismatch = stderrors.New("input shape mismatch")
	// ErrInvalidImage is returned when an image buffer violates the detector's input contract.
	ErrInvalidImage = stderrors.New("invalid input image")
	// ErrInference is returned when the engine fails while executing a call.
	ErrInference = stderrors.New("inference failed")
	// ErrLabelIndex is returned when a class id has no entry in the label table.
	ErrLabelIndex = stderrors.New("class id out of label bounds")
)

// kindError tags an underlying error with one of the sentinel kinds above
// while keeping the underlying error in the chain.
type kindError struct {
	kind error
	msg  string
	err  error
}

func (e *kindError) Error() string {
	if e.msg == "" {
		return fmt.Sprintf("%v: %v", e.kind, e.err)
	}
	return fmt.Sprintf("%v: %s: %v", e.kind, e.msg, e.err)
}

func (e *kindError) Unwrap() []error {
	return []error{e.kind, e.err}
}

// WrapKind tags err with kind unless err already carries it.
//
// Arguments:
//   - kind: One of the sentinel errors of this package.
//   - err: The underlying error.
//   - format: Optional context message.
//
// Returns:
//   - error: nil when err is nil.
func WrapKind(kind, err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	if stderrors.Is(err, kind) {
		return err
	}
	return &kindError{kind: kind, msg: fmt.Sprintf(format, args...), err: err}
}

func errOrder(order images.ColorOrder) error {
	return fmt.Errorf("color order %q, want %q", order, InputOrder)
}

func errCount(got, want int) error {
	return fmt.Errorf("engine returned %d results for %d images", got, want)
}
