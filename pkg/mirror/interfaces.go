package mirror

import (
	"context"
	"io"

	"smugmirror/pkg/smugmug"
)

// ResourceFetcher retrieves an API resource, retrying as it sees fit
type ResourceFetcher interface {
	Fetch(ctx context.Context, path string) (*smugmug.Payload, error)
}

// Transport opens a download stream for a media URL
type Transport interface {
	Open(ctx context.Context, url string) (io.ReadCloser, error)
}

// Store is the local output tree
type Store interface {
	Exists(path string) bool
	EnsureDir(dir string) error
	Save(path string, r io.Reader) (int64, error)
}

// Progress receives run events for display. Implementations must be safe
// for concurrent use when concurrency is above one.
type Progress interface {
	AlbumStarted(name string, records int)
	RecordFinished(album string, outcome Outcome)
	AlbumFinished(name string)
}

type nopProgress struct{}

func (nopProgress) AlbumStarted(string, int)       {}
func (nopProgress) RecordFinished(string, Outcome) {}
func (nopProgress) AlbumFinished(string)           {}
