package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

const (
	// DefaultChunkSize is the read size used when streaming a download to disk
	DefaultChunkSize = 128 * 1024

	// TempSuffix marks in-flight files; they never carry the final name
	TempSuffix = ".part"
)

// Options configures a Manager
type Options struct {
	Root      string
	DirPerm   os.FileMode
	FilePerm  os.FileMode
	ChunkSize int
}

// Manager owns the mirror's output tree. A file at its final path is only
// ever produced by renaming a completed temporary sibling.
type Manager struct {
	root      string
	dirPerm   os.FileMode
	filePerm  os.FileMode
	chunkSize int

	mu    sync.Mutex
	saved int
	bytes int64
}

// NewManager creates a new storage manager rooted at opts.Root
func NewManager(opts Options) (*Manager, error) {
	if opts.Root == "" {
		return nil, errors.New("output root is required")
	}
	if opts.DirPerm == 0 {
		opts.DirPerm = 0755
	}
	if opts.FilePerm == 0 {
		opts.FilePerm = 0644
	}
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = DefaultChunkSize
	}

	return &Manager{
		root:      opts.Root,
		dirPerm:   opts.DirPerm,
		filePerm:  opts.FilePerm,
		chunkSize: opts.ChunkSize,
	}, nil
}

// Root returns the output root
func (m *Manager) Root() string {
	return m.root
}

// EnsureDir creates dir and any missing parents
func (m *Manager) EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, m.dirPerm); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return nil
}

// Exists reports whether something is already present at path
func (m *Manager) Exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

// Save streams r into path in fixed-size chunks. The data lands in a
// temporary sibling first; on any failure that file is removed and path is
// left untouched.
func (m *Manager) Save(path string, r io.Reader) (int64, error) {
	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}

	out, err := os.CreateTemp(dir, "."+base+".*"+TempSuffix)
	if err != nil {
		return 0, fmt.Errorf("failed to create temporary file: %w", err)
	}
	tempFile := out.Name()

	written, err := m.copyChunks(out, r)
	closeErr := out.Close()

	if err != nil {
		os.Remove(tempFile)
		return written, fmt.Errorf("failed to write %s: %w", path, err)
	}
	if closeErr != nil {
		os.Remove(tempFile)
		return written, fmt.Errorf("failed to close file: %w", closeErr)
	}
	if err := os.Chmod(tempFile, m.filePerm); err != nil {
		os.Remove(tempFile)
		return written, fmt.Errorf("failed to set file mode: %w", err)
	}
	if err := os.Rename(tempFile, path); err != nil {
		os.Remove(tempFile)
		return written, fmt.Errorf("failed to rename temporary file: %w", err)
	}

	m.mu.Lock()
	m.saved++
	m.bytes += written
	m.mu.Unlock()

	return written, nil
}

// copyChunks reads at most chunkSize bytes at a time
func (m *Manager) copyChunks(w io.Writer, r io.Reader) (int64, error) {
	buf := make([]byte, m.chunkSize)
	var written int64

	for {
		n, readErr := r.Read(buf)
		if n > 0 {
			wn, err := w.Write(buf[:n])
			written += int64(wn)
			if err != nil {
				return written, err
			}
			if wn != n {
				return written, io.ErrShortWrite
			}
		}
		if readErr == io.EOF {
			return written, nil
		}
		if readErr != nil {
			return written, readErr
		}
	}
}

// SavedCount returns the number of files written by this manager
func (m *Manager) SavedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saved
}

// SavedBytes returns the number of bytes written by this manager
func (m *Manager) SavedBytes() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.bytes
}
