package storage

import (
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// Disk is a storage client rooted at a directory on the local filesystem.
type Disk struct {
	root string
}

// NewDisk creates a disk-backed storage client rooted at dir, creating the
// directory if it does not exist yet.
func NewDisk(dir string) (*Disk, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}
	return &Disk{root: dir}, nil
}

func (d *Disk) Exists(path string) bool {
	_, err := os.Stat(d.FullPath(path))
	return err == nil
}

func (d *Disk) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(d.FullPath(path))
}

// WriteFile writes content atomically: to a temp file in the target
// directory first, then renamed into place.
func (d *Disk) WriteFile(path string, content io.Reader) error {
	full := d.FullPath(path)
	dir := filepath.Dir(full)

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	tmpFile, err := os.CreateTemp(dir, ".write_tmp_")
	if err != nil {
		return err
	}
	tmpPath := tmpFile.Name()
	defer func() {
		tmpFile.Close()
		os.Remove(tmpPath) // Clean up if we didn't rename
	}()

	if _, err := io.Copy(tmpFile, content); err != nil {
		return err
	}
	if err := tmpFile.Close(); err != nil {
		return err
	}

	return os.Rename(tmpPath, full)
}

func (d *Disk) MkdirAll(path string) error {
	return os.MkdirAll(d.FullPath(path), 0755)
}

func (d *Disk) Size(path string) (int64, error) {
	info, err := os.Stat(d.FullPath(path))
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// DetectMIME resolves a file's MIME type from its extension, falling back
// to sniffing the first 512 bytes when the extension is unknown.
func (d *Disk) DetectMIME(path string) (string, error) {
	if ext := filepath.Ext(path); ext != "" {
		if typ := mime.TypeByExtension(strings.ToLower(ext)); typ != "" {
			return typ, nil
		}
	}

	f, err := os.Open(d.FullPath(path))
	if err != nil {
		return "", err
	}
	defer f.Close()

	buf := make([]byte, 512)
	n, err := f.Read(buf)
	if err != nil && err != io.EOF {
		return "", err
	}
	return http.DetectContentType(buf[:n]), nil
}

func (d *Disk) Remove(path string) error {
	return os.Remove(d.FullPath(path))
}

func (d *Disk) FullPath(path string) string {
	return filepath.Join(d.root, filepath.FromSlash(path))
}

// Root returns the directory the client is rooted at.
func (d *Disk) Root() string {
	return d.root
}
