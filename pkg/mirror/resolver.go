package mirror

import (
	"context"
	"errors"
	"fmt"

	errs "smugmirror/pkg/errors"
	"smugmirror/pkg/smugmug"
)

var errNoSource = errors.New("no downloadable source")

// Resolver turns a media record into a download URL
type Resolver struct {
	fetcher ResourceFetcher
}

// NewResolver creates a Resolver
func NewResolver(fetcher ResourceFetcher) *Resolver {
	return &Resolver{fetcher: fetcher}
}

// resolutionOrder is the preference among sized renditions
var resolutionOrder = []smugmug.MediaKind{smugmug.LargestVideo, smugmug.LargestImage}

// Resolve prefers the largest video, then the largest image, then the
// archived original. Only the first two cost a request.
func (r *Resolver) Resolve(ctx context.Context, record smugmug.MediaRecord) (string, error) {
	for _, kind := range resolutionOrder {
		ref, ok := record.Ref(kind)
		if !ok {
			continue
		}
		url, err := r.fetchURL(ctx, kind, ref)
		if err != nil {
			return "", &errs.SkippableResolutionError{FileName: record.FileName, Resource: ref, Err: err}
		}
		return url, nil
	}

	if record.ArchivedURI != "" {
		return record.ArchivedURI, nil
	}
	return "", &errs.SkippableResolutionError{FileName: record.FileName, Err: errNoSource}
}

func (r *Resolver) fetchURL(ctx context.Context, kind smugmug.MediaKind, ref string) (string, error) {
	payload, err := r.fetcher.Fetch(ctx, ref)
	if err != nil {
		return "", err
	}

	var media smugmug.MediaURL
	if err := payload.Field(string(kind), &media); err != nil {
		return "", err
	}
	if media.URL == "" {
		return "", fmt.Errorf("%w: %s has an empty Url", errs.ErrSchema, kind)
	}
	return media.URL, nil
}
