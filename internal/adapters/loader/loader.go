// Package loader reads local files into attachments for a turn.
// Implements ports.AttachmentLoader.
package loader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Wccurate/NLP-Frontend/internal/domain/entities"
	"github.com/Wccurate/NLP-Frontend/internal/domain/ports"
)

var _ ports.AttachmentLoader = (*FileLoader)(nil)

// DefaultMaxSize caps how much of a file is read into memory.
const DefaultMaxSize = 20 << 20

var (
	// ErrUnsupportedExtension is returned for file types the backend does not
	// accept.
	ErrUnsupportedExtension = errors.New("unsupported file type")

	// ErrTooLarge is returned when a file exceeds the loader's size limit.
	ErrTooLarge = errors.New("file too large")
)

// FileLoader loads attachments from disk, restricted to the document types
// the backend can ingest.
type FileLoader struct {
	extensions []string
	maxSize    int64
}

// NewFileLoader creates a loader for the given extensions. Empty means the
// default set (.pdf, .docx, .txt); maxSize <= 0 means DefaultMaxSize.
func NewFileLoader(extensions []string, maxSize int64) *FileLoader {
	if len(extensions) == 0 {
		extensions = []string{".pdf", ".docx", ".txt"}
	}
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	return &FileLoader{extensions: extensions, maxSize: maxSize}
}

// Load reads the file at path into an attachment named after its base name.
func (l *FileLoader) Load(ctx context.Context, path string) (*entities.Attachment, error) {
	if !l.Supports(path) {
		return nil, fmt.Errorf("%s: %w (accepted: %s)", filepath.Base(path), ErrUnsupportedExtension, strings.Join(l.extensions, ", "))
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	if info.Size() > l.maxSize {
		return nil, fmt.Errorf("%s: %w (%d bytes)", filepath.Base(path), ErrTooLarge, info.Size())
	}

	data, err := io.ReadAll(io.LimitReader(file, l.maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if int64(len(data)) > l.maxSize {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), ErrTooLarge)
	}

	return &entities.Attachment{
		Name: filepath.Base(path),
		Data: data,
	}, nil
}

// Supports reports whether path has an accepted extension.
func (l *FileLoader) Supports(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range l.extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// SupportedExtensions returns file extensions this loader handles.
func (l *FileLoader) SupportedExtensions() []string {
	return l.extensions
}
