// Package ports defines interfaces for external dependencies.
// Usecases depend on these abstractions, not on concrete adapters.
package ports

import (
	"context"

	"github.com/Wccurate/NLP-Frontend/internal/domain/entities"
)

// Backend is the RAG QA service the client talks to.
// Every failure returned by an implementation is a single typed error kind
// carrying an HTTP status and a user-facing message.
type Backend interface {
	// CheckHealth reports whether the backend declares itself healthy.
	CheckHealth(ctx context.Context) (bool, error)

	// FetchHistory returns up to limit past turns, oldest first.
	FetchHistory(ctx context.Context, limit int) ([]entities.HistoryEntry, error)

	// Generate sends one user turn and returns the backend's answer.
	Generate(ctx context.Context, req entities.GenerateRequest) (*entities.GenerateResponse, error)
}

// BackendError is the failure kind returned by Backend implementations.
// Error() is the user-facing message.
type BackendError interface {
	error
	HTTPStatus() int
}

// AttachmentLoader reads a local file into an attachment.
type AttachmentLoader interface {
	// Load reads the file at path.
	Load(ctx context.Context, path string) (*entities.Attachment, error)

	// SupportedExtensions returns file extensions this loader accepts.
	SupportedExtensions() []string
}

// FileWatcher monitors a directory for changes.
type FileWatcher interface {
	// Watch starts monitoring the directory and emits events.
	Watch(ctx context.Context, dir string) (<-chan FileEvent, error)

	// Stop stops the watcher.
	Stop() error
}

// FileEvent represents a file system change.
type FileEvent struct {
	Path      string
	Operation FileOperation
}

// FileOperation is the type of file change.
type FileOperation int

const (
	FileCreated FileOperation = iota
	FileModified
	FileDeleted
)

func (op FileOperation) String() string {
	switch op {
	case FileCreated:
		return "created"
	case FileModified:
		return "modified"
	case FileDeleted:
		return "deleted"
	default:
		return "unknown"
	}
}
