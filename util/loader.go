// Package util - Input path resolution for the detection driver.
package util

import (
	stderrors "errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

var (
	// ErrNotFound is returned when a path does not exist.
	ErrNotFound = stderrors.New("path not found")
	// ErrInvalidInput is returned when a path is neither a regular file nor a directory.
	ErrInvalidInput = stderrors.New("path is not a regular file or directory")
	// ErrEmptyDirectory is returned when a directory holds no eligible image files.
	ErrEmptyDirectory = stderrors.New("no image files found in directory")
	// ErrNotDirectory is returned when an output path is occupied by a non-directory entry.
	ErrNotDirectory = stderrors.New("path exists but is not a directory")
)

// ImageExtensions is the allow-list of image extensions picked up from a directory.
// Matching is case-sensitive.
var ImageExtensions = []string{".jpg", ".jpeg", ".png", ".bmp"}

// InputKind is the kind of input path being processed.
type InputKind int

const (
	// InputFile is a single regular file.
	InputFile InputKind = iota
	// InputDirectory is a directory of image files.
	InputDirectory
)

// String returns the name of the input kind.
func (k InputKind) String() string {
	switch k {
	case InputFile:
		return "file"
	case InputDirectory:
		return "directory"
	default:
		return "unknown"
	}
}

// Input is a resolved input path.
type Input struct {
	// Kind is the kind of the input path.
	Kind InputKind
	// Path is the path as provided by the caller.
	Path string
	// Files lists the image files to process in enumeration order. For a single
	// file input it holds only Path.
	Files []string
}

// Exists reports whether path exists.
//
// Arguments:
//   - path: The path to check.
//
// Returns:
//   - error: ErrNotFound when the path does not exist, or the stat failure.
func Exists(path string) error {
	if _, err := os.Stat(path); err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return errors.Wrapf(ErrNotFound, "%s", path)
		}
		return errors.Wrapf(err, "stat %s", path)
	}
	return nil
}

// ResolveInput determines whether path is a single file or a directory and,
// for a directory, lists its eligible image files.
//
// Arguments:
//   - path: The input path.
//
// Returns:
//   - Input: The resolved input.
//   - error: ErrNotFound, ErrInvalidInput or ErrEmptyDirectory.
func ResolveInput(path string) (Input, error) {
	info, err := os.Stat(path)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return Input{}, errors.Wrapf(ErrNotFound, "%s", path)
		}
		return Input{}, errors.Wrapf(err, "stat %s", path)
	}

	switch {
	case info.Mode().IsRegular():
		return Input{Kind: InputFile, Path: path, Files: []string{path}}, nil
	case info.IsDir():
		files, err := ListImageFiles(path)
		if err != nil {
			return Input{}, err
		}
		return Input{Kind: InputDirectory, Path: path, Files: files}, nil
	default:
		return Input{}, errors.Wrapf(ErrInvalidInput, "%s", path)
	}
}

// ListImageFiles lists the regular files of dir whose extension is in
// ImageExtensions, in directory enumeration order.
//
// Arguments:
//   - dir: Directory path containing image files.
//
// Returns:
//   - []string: Paths of the eligible files, joined with dir.
//   - error: ErrEmptyDirectory if nothing matched, or the read failure.
func ListImageFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "read directory %s", dir)
	}

	var files []string
	for _, entry := range entries {
		if !isImageExtension(filepath.Ext(entry.Name())) {
			continue
		}
		imgPath := filepath.Join(dir, entry.Name())
		// Follow symlinks so a link to a regular file still counts.
		info, err := os.Stat(imgPath)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		files = append(files, imgPath)
	}

	if len(files) == 0 {
		return nil, errors.Wrapf(ErrEmptyDirectory, "%s", dir)
	}
	return files, nil
}

// EnsureOutputDir creates dir (and its parents) when missing.
//
// Arguments:
//   - dir: The output directory.
//
// Returns:
//   - error: ErrNotDirectory when a non-directory occupies dir, or the mkdir failure.
func EnsureOutputDir(dir string) error {
	info, err := os.Stat(dir)
	switch {
	case err == nil:
		if !info.IsDir() {
			return errors.Wrapf(ErrNotDirectory, "%s", dir)
		}
		return nil
	case stderrors.Is(err, fs.ErrNotExist):
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrapf(err, "failed to create output directory %s", dir)
		}
		return nil
	default:
		return errors.Wrapf(err, "stat %s", dir)
	}
}

// OutputPath returns the path an annotated copy of src is written to.
func OutputPath(dir, src string) string {
	return filepath.Join(dir, filepath.Base(src))
}

func isImageExtension(ext string) bool {
	for _, allowed := range ImageExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}
