package inference

import (
	"bufio"
	"os"
	"strings"

	"github.com/pkg/errors"
)

// Labels maps class ids to class names. It is immutable once loaded.
type Labels struct {
	names []string
}

// NewLabels creates a label table from names, index = class id.
func NewLabels(names ...string) Labels {
	return Labels{names: append([]string(nil), names...)}
}

// LoadLabels reads a label table from a text file with one label per line.
//
// Lines are kept exactly as read, empty ones included; only the line ending is
// removed. Class id bounds are not checked here.
//
// Arguments:
//   - path: The labels file.
//
// Returns:
//   - Labels: The label table.
//   - error: An error if the file cannot be opened or read.
func LoadLabels(path string) (Labels, error) {
	f, err := os.Open(path)
	if err != nil {
		return Labels{}, errors.Wrapf(err, "failed to open labels file %s", path)
	}
	defer f.Close()

	var names []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		names = append(names, strings.TrimSuffix(scanner.Text(), "\r"))
	}
	if err := scanner.Err(); err != nil {
		return Labels{}, errors.Wrapf(err, "failed to read labels file %s", path)
	}

	return Labels{names: names}, nil
}

// Len returns the number of labels.
func (l Labels) Len() int {
	return len(l.names)
}

// Name returns the label of class id.
//
// Returns:
//   - string: The label.
//   - error: ErrLabelIndex when id has no label.
func (l Labels) Name(id int) (string, error) {
	if id < 0 || id >= len(l.names) {
		return "", errors.Wrapf(ErrLabelIndex, "class id %d, %d labels", id, len(l.names))
	}
	return l.names[id], nil
}
