package storage

import (
	"io"
)

// Client defines the local storage operations the pipeline depends on.
// Paths are relative to the client's root; implementations decide where
// that root lives on disk.
type Client interface {
	// Exists checks whether a file exists at the path
	Exists(path string) bool

	// ReadFile returns the full contents of a file
	ReadFile(path string) ([]byte, error)

	// WriteFile writes content to a path, creating parent directories.
	// The write is atomic: content lands under the final name only once
	// it has been written completely.
	WriteFile(path string, content io.Reader) error

	// MkdirAll creates a directory and any missing parents
	MkdirAll(path string) error

	// Size returns the byte size of a file
	Size(path string) (int64, error)

	// DetectMIME reports the MIME type of a file, by extension first and
	// content sniffing when the extension is unknown
	DetectMIME(path string) (string, error)

	// Remove deletes a file
	Remove(path string) error

	// FullPath resolves a relative path to its absolute location on disk
	FullPath(path string) string
}
